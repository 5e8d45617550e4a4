package tokenize

// keywordTable returns the reserved-word set for a language. Unknown
// languages get the generic table so tokenization still produces useful
// identifier and operator streams.
func keywordTable(language string) map[string]bool {
	switch language {
	case "go":
		return goKeywords
	case "javascript", "typescript", "tsx", "jsx":
		return jsKeywords
	case "python":
		return pythonKeywords
	case "rust":
		return rustKeywords
	case "java", "kotlin":
		return javaKeywords
	default:
		return genericKeywords
	}
}

// commentStyle reports which comment syntaxes a language uses:
// slash (// and /* */) and hash (#).
func commentStyle(language string) (slash, hash bool) {
	switch language {
	case "python":
		return false, true
	case "":
		return true, true
	default:
		return true, false
	}
}

var goKeywords = makeSet(
	"break", "case", "chan", "const", "continue", "default", "defer", "else",
	"fallthrough", "for", "func", "go", "goto", "if", "import", "interface",
	"map", "package", "range", "return", "select", "struct", "switch", "type",
	"var", "nil", "true", "false", "iota",
)

var jsKeywords = makeSet(
	"abstract", "async", "await", "break", "case", "catch", "class", "const",
	"continue", "debugger", "default", "delete", "do", "else", "enum",
	"export", "extends", "false", "finally", "for", "function", "if",
	"implements", "import", "in", "instanceof", "interface", "let", "new",
	"null", "of", "private", "protected", "public", "readonly", "return",
	"static", "super", "switch", "this", "throw", "true", "try", "type",
	"typeof", "undefined", "var", "void", "while", "with", "yield",
)

var pythonKeywords = makeSet(
	"and", "as", "assert", "async", "await", "break", "class", "continue",
	"def", "del", "elif", "else", "except", "finally", "for", "from",
	"global", "if", "import", "in", "is", "lambda", "nonlocal", "not", "or",
	"pass", "raise", "return", "try", "while", "with", "yield", "True",
	"False", "None", "self",
)

var rustKeywords = makeSet(
	"as", "async", "await", "break", "const", "continue", "crate", "dyn",
	"else", "enum", "extern", "false", "fn", "for", "if", "impl", "in",
	"let", "loop", "match", "mod", "move", "mut", "pub", "ref", "return",
	"self", "static", "struct", "super", "trait", "true", "type", "unsafe",
	"use", "where", "while",
)

var javaKeywords = makeSet(
	"abstract", "assert", "boolean", "break", "byte", "case", "catch",
	"char", "class", "const", "continue", "default", "do", "double", "else",
	"enum", "extends", "final", "finally", "float", "for", "if",
	"implements", "import", "instanceof", "int", "interface", "long",
	"native", "new", "null", "package", "private", "protected", "public",
	"return", "short", "static", "strictfp", "super", "switch",
	"synchronized", "this", "throw", "throws", "transient", "true", "try",
	"void", "volatile", "while", "fun", "val", "var", "when", "object",
)

var genericKeywords = makeSet(
	"if", "else", "for", "while", "return", "break", "continue", "function",
	"class", "import", "new", "true", "false", "null",
)

func makeSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
