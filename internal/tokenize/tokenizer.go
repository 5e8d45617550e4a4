// Package tokenize lexes source text into typed tokens for embedding.
//
// The tokenizer is deliberately language-light: it needs per-language keyword
// tables and comment syntax but no grammar, because its output feeds a TF-IDF
// embedder rather than a parser.
package tokenize

import (
	"strings"
	"unicode"
)

// Type classifies a token.
type Type string

const (
	// Keyword is a reserved word of the source language
	Keyword Type = "keyword"
	// Identifier is a name fragment after camelCase/snake_case splitting
	Identifier Type = "identifier"
	// Operator is a (possibly multi-character) operator
	Operator Type = "operator"
	// String is a string literal's content
	String Type = "string"
	// Number is a numeric literal
	Number Type = "number"
	// Comment is a word extracted from a comment
	Comment Type = "comment"
	// Punctuation is a bracket, comma, or semicolon
	Punctuation Type = "punctuation"
)

// Token is a single lexed unit.
type Token struct {
	Value string `json:"value"`
	Type  Type   `json:"type"`
}

// multiOps lists multi-character operators, longest first so that matching
// is longest-match-first (=== before == before =).
var multiOps = []string{
	"===", "!==", "<<=", ">>=", "...", "&&=", "||=", "??=",
	"==", "!=", "<=", ">=", "&&", "||", "++", "--", "+=", "-=",
	"*=", "/=", "%=", "&=", "|=", "^=", "<<", ">>", "::", "->",
	"=>", "**", "??", ":=", "<-",
}

func isSingleOp(r rune) bool {
	switch r {
	case '+', '-', '*', '/', '%', '=', '<', '>', '!', '&', '|', '^', '~', '?', ':', '.', '@':
		return true
	}
	return false
}

func isPunct(r rune) bool {
	switch r {
	case '(', ')', '{', '}', '[', ']', ',', ';':
		return true
	}
	return false
}

// Tokenize lexes code into an ordered token sequence. Whitespace is skipped;
// identifiers are split on camelCase and snake_case boundaries with fragments
// of length <= 1 discarded; comment words become comment tokens. Empty or
// whitespace-only input yields an empty sequence.
func Tokenize(code, language string) []Token {
	if strings.TrimSpace(code) == "" {
		return nil
	}

	keywords := keywordTable(language)
	lineComment, hashComment := commentStyle(language)

	runes := []rune(code)
	tokens := make([]Token, 0, len(runes)/4)
	i := 0

	for i < len(runes) {
		r := runes[i]

		if unicode.IsSpace(r) {
			i++
			continue
		}

		// Line comments.
		if hashComment && r == '#' {
			end := lineEnd(runes, i)
			tokens = append(tokens, commentWords(string(runes[i+1:end]))...)
			i = end
			continue
		}
		if lineComment && r == '/' && i+1 < len(runes) && runes[i+1] == '/' {
			end := lineEnd(runes, i)
			tokens = append(tokens, commentWords(string(runes[i+2:end]))...)
			i = end
			continue
		}

		// Block comments.
		if lineComment && r == '/' && i+1 < len(runes) && runes[i+1] == '*' {
			end := blockCommentEnd(runes, i+2)
			tokens = append(tokens, commentWords(string(runes[i+2:end]))...)
			i = end + 2
			if i > len(runes) {
				i = len(runes)
			}
			continue
		}

		// String literals.
		if r == '"' || r == '\'' || r == '`' {
			content, next := scanString(runes, i)
			tokens = append(tokens, Token{Value: content, Type: String})
			i = next
			continue
		}

		// Numbers.
		if unicode.IsDigit(r) {
			start := i
			for i < len(runes) && isNumberRune(runes[i]) {
				i++
			}
			tokens = append(tokens, Token{Value: string(runes[start:i]), Type: Number})
			continue
		}

		// Identifiers and keywords.
		if unicode.IsLetter(r) || r == '_' || r == '$' {
			start := i
			for i < len(runes) && isIdentRune(runes[i]) {
				i++
			}
			word := string(runes[start:i])
			if keywords[word] {
				tokens = append(tokens, Token{Value: word, Type: Keyword})
				continue
			}
			for _, frag := range SplitIdentifier(word) {
				tokens = append(tokens, Token{Value: frag, Type: Identifier})
			}
			continue
		}

		// Multi-character operators, longest first.
		if op, n := matchOperator(runes, i); n > 0 {
			tokens = append(tokens, Token{Value: op, Type: Operator})
			i += n
			continue
		}

		if isPunct(r) {
			tokens = append(tokens, Token{Value: string(r), Type: Punctuation})
			i++
			continue
		}
		if isSingleOp(r) {
			tokens = append(tokens, Token{Value: string(r), Type: Operator})
			i++
			continue
		}

		// Unknown rune, skip it.
		i++
	}

	return tokens
}

// SplitIdentifier splits a name on camelCase and snake_case boundaries into
// lowercase fragments, discarding fragments of length <= 1.
func SplitIdentifier(name string) []string {
	var parts []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 1 {
			parts = append(parts, strings.ToLower(cur.String()))
		}
		cur.Reset()
	}

	runes := []rune(name)
	for idx, r := range runes {
		switch {
		case r == '_' || r == '$':
			flush()
		case unicode.IsUpper(r):
			// Boundary before an upper rune, except inside an acronym run
			// (HTTPServer splits as HTTP + Server).
			prevUpper := idx > 0 && unicode.IsUpper(runes[idx-1])
			nextLower := idx+1 < len(runes) && unicode.IsLower(runes[idx+1])
			if !prevUpper || nextLower {
				flush()
			}
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return parts
}

// Frequencies maps "type:value" to occurrence count.
func Frequencies(tokens []Token) map[string]int {
	freqs := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		freqs[string(tok.Type)+":"+tok.Value]++
	}
	return freqs
}

// NGrams returns space-joined n-grams of token values for n >= 2. Returns
// nil when n < 2 or there are fewer than n tokens.
func NGrams(tokens []Token, n int) []string {
	if n < 2 || len(tokens) < n {
		return nil
	}
	grams := make([]string, 0, len(tokens)-n+1)
	parts := make([]string, n)
	for i := 0; i+n <= len(tokens); i++ {
		for j := 0; j < n; j++ {
			parts[j] = tokens[i+j].Value
		}
		grams = append(grams, strings.Join(parts, " "))
	}
	return grams
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$'
}

func isNumberRune(r rune) bool {
	return unicode.IsDigit(r) || r == '.' || r == 'x' || r == 'X' || r == 'b' || r == 'B' ||
		r == 'o' || r == 'O' || r == 'e' || r == 'E' || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F') || r == '_'
}

func lineEnd(runes []rune, from int) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == '\n' {
			return i
		}
	}
	return len(runes)
}

func blockCommentEnd(runes []rune, from int) int {
	for i := from; i+1 < len(runes); i++ {
		if runes[i] == '*' && runes[i+1] == '/' {
			return i
		}
	}
	return len(runes)
}

// commentWords extracts alphanumeric words of length > 1 from comment text.
func commentWords(text string) []Token {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	toks := make([]Token, 0, len(words))
	for _, w := range words {
		if len(w) > 1 {
			toks = append(toks, Token{Value: strings.ToLower(w), Type: Comment})
		}
	}
	return toks
}

func scanString(runes []rune, start int) (string, int) {
	quote := runes[start]
	var sb strings.Builder
	i := start + 1
	for i < len(runes) {
		r := runes[i]
		if r == '\\' && i+1 < len(runes) {
			sb.WriteRune(runes[i+1])
			i += 2
			continue
		}
		if r == quote {
			return sb.String(), i + 1
		}
		sb.WriteRune(r)
		i++
	}
	return sb.String(), len(runes)
}

func matchOperator(runes []rune, i int) (string, int) {
	remaining := len(runes) - i
	for _, op := range multiOps {
		n := len(op)
		if n > remaining {
			continue
		}
		if string(runes[i:i+n]) == op {
			return op, n
		}
	}
	return "", 0
}
