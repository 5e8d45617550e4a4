//go:build cgo

package blocks

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"dupfind/internal/engine"
	"dupfind/internal/errors"
)

// Splitter extracts function, method, and class blocks from source files.
type Splitter struct {
	parser *sitter.Parser
}

// NewSplitter creates a tree-sitter backed splitter.
func NewSplitter() *Splitter {
	return &Splitter{parser: sitter.NewParser()}
}

// IsAvailable reports whether tree-sitter splitting is compiled in.
func IsAvailable() bool { return true }

// SplitFile reads and splits one source file. Files with an unsupported
// extension yield a single whole-file block so they still participate in
// clone detection, just without syntactic boundaries.
func (s *Splitter) SplitFile(ctx context.Context, path string) ([]engine.Block, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ParseFailed, "failed to read "+path, err)
	}

	lang, ok := LanguageFromExtension(strings.ToLower(filepath.Ext(path)))
	if !ok {
		return []engine.Block{wholeFile(source, "")}, nil
	}
	return s.SplitSource(ctx, source, lang)
}

// SplitSource splits source code into blocks. A parse failure is reported as
// a ParseFailed error; a clean parse that finds no function or class nodes
// falls back to a single whole-file block.
func (s *Splitter) SplitSource(ctx context.Context, source []byte, lang Language) ([]engine.Block, error) {
	tsLang, err := getLanguage(lang)
	if err != nil {
		return nil, err
	}

	s.parser.SetLanguage(tsLang)
	tree, err := s.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, errors.Wrap(errors.ParseFailed, "tree-sitter parse failed", err)
	}
	defer tree.Close()

	walk := walker{
		source:    source,
		lang:      lang,
		functions: makeSet(functionNodeTypes(lang)),
		classes:   makeSet(classNodeTypes(lang)),
		methodIn:  makeSet(methodContainerTypes(lang)),
	}
	walk.visit(tree.RootNode(), false)

	if len(walk.blocks) == 0 {
		return []engine.Block{wholeFile(source, lang)}, nil
	}
	return walk.blocks, nil
}

// getLanguage returns the tree-sitter Language for a language identifier.
func getLanguage(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangGo:
		return golang.GetLanguage(), nil
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	case LangTypeScript:
		return typescript.GetLanguage(), nil
	case LangTSX:
		return tsx.GetLanguage(), nil
	case LangPython:
		return python.GetLanguage(), nil
	case LangRust:
		return rust.GetLanguage(), nil
	case LangJava:
		return java.GetLanguage(), nil
	case LangKotlin:
		return kotlin.GetLanguage(), nil
	default:
		return nil, errors.Newf(errors.ParseFailed, "unsupported language: %s", lang)
	}
}

type walker struct {
	source    []byte
	lang      Language
	functions map[string]bool
	classes   map[string]bool
	methodIn  map[string]bool
	blocks    []engine.Block
}

// visit records class blocks and keeps descending into them so their methods
// are captured too; function blocks are recorded without descending, so
// closures inside a function stay part of their enclosing block.
func (w *walker) visit(node *sitter.Node, inClass bool) {
	nodeType := node.Type()

	switch {
	case w.functions[nodeType]:
		w.record(node, functionKind(nodeType, inClass))
		return
	case w.classes[nodeType]:
		w.record(node, "class")
	}

	childInClass := inClass || w.methodIn[nodeType]
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		w.visit(child, childInClass)
	}
}

func (w *walker) record(node *sitter.Node, kind string) {
	w.blocks = append(w.blocks, engine.Block{
		Content:   string(w.source[node.StartByte():node.EndByte()]),
		Kind:      kind,
		Language:  string(w.lang),
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
	})
}

func functionKind(nodeType string, inClass bool) string {
	switch nodeType {
	case "method_declaration", "method_definition", "constructor_declaration":
		return "method"
	}
	if inClass {
		return "method"
	}
	return "function"
}

func wholeFile(source []byte, lang Language) engine.Block {
	lines := 1 + strings.Count(string(source), "\n")
	return engine.Block{
		Content:   string(source),
		Kind:      "file",
		Language:  string(lang),
		StartLine: 1,
		EndLine:   lines,
	}
}
