// Package blocks splits source files into candidate code blocks for the
// clone engine using tree-sitter. The engine itself never reads files or
// parses source; everything file- and syntax-shaped lives here.
package blocks

// Language represents a supported programming language.
type Language string

const (
	LangGo         Language = "go"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangPython     Language = "python"
	LangRust       Language = "rust"
	LangJava       Language = "java"
	LangKotlin     Language = "kotlin"
)

// LanguageFromExtension returns the Language for a file extension.
func LanguageFromExtension(ext string) (Language, bool) {
	switch ext {
	case ".go":
		return LangGo, true
	case ".js", ".mjs", ".cjs", ".jsx":
		return LangJavaScript, true
	case ".ts", ".mts", ".cts":
		return LangTypeScript, true
	case ".tsx":
		return LangTSX, true
	case ".py", ".pyw":
		return LangPython, true
	case ".rs":
		return LangRust, true
	case ".java":
		return LangJava, true
	case ".kt", ".kts":
		return LangKotlin, true
	default:
		return "", false
	}
}

// functionNodeTypes returns the node types that delimit function-like blocks
// for a language. Traversal stops at these nodes, so nested closures inside a
// recorded function do not become separate blocks.
func functionNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{"function_declaration", "method_declaration", "func_literal"}
	case LangJavaScript, LangTypeScript, LangTSX:
		return []string{"function_declaration", "function_expression", "arrow_function", "method_definition", "generator_function_declaration"}
	case LangPython:
		return []string{"function_definition"}
	case LangRust:
		return []string{"function_item", "closure_expression"}
	case LangJava:
		return []string{"method_declaration", "constructor_declaration"}
	case LangKotlin:
		return []string{"function_declaration", "anonymous_function"}
	default:
		return nil
	}
}

// classNodeTypes returns the node types that delimit class-like containers.
// These are recorded as blocks of their own and then descended into, so their
// methods are also captured individually.
func classNodeTypes(lang Language) []string {
	switch lang {
	case LangJavaScript, LangTypeScript, LangTSX:
		return []string{"class_declaration"}
	case LangPython:
		return []string{"class_definition"}
	case LangJava:
		return []string{"class_declaration", "interface_declaration", "enum_declaration"}
	case LangKotlin:
		return []string{"class_declaration", "object_declaration"}
	default:
		// Go and Rust have no class construct; impl blocks and type
		// declarations are containers only, not clone candidates.
		return nil
	}
}

// methodContainerTypes returns the node types under which a function counts
// as a method rather than a free function.
func methodContainerTypes(lang Language) []string {
	switch lang {
	case LangJavaScript, LangTypeScript, LangTSX:
		return []string{"class_declaration", "class_body"}
	case LangPython:
		return []string{"class_definition"}
	case LangRust:
		return []string{"impl_item"}
	case LangJava:
		return []string{"class_declaration", "interface_declaration", "enum_declaration"}
	case LangKotlin:
		return []string{"class_declaration", "object_declaration"}
	default:
		return nil
	}
}

func makeSet(types []string) map[string]bool {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}
