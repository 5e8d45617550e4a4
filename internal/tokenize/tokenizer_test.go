package tokenize

import (
	"reflect"
	"testing"
)

func TestTokenizeEmpty(t *testing.T) {
	for _, code := range []string{"", "   ", "\n\t\n"} {
		if got := Tokenize(code, "go"); len(got) != 0 {
			t.Errorf("Tokenize(%q) = %v, want empty", code, got)
		}
	}
}

func TestTokenizeKeywordsAndIdentifiers(t *testing.T) {
	tokens := Tokenize("func readFile() {}", "go")

	want := []Token{
		{Value: "func", Type: Keyword},
		{Value: "read", Type: Identifier},
		{Value: "file", Type: Identifier},
		{Value: "(", Type: Punctuation},
		{Value: ")", Type: Punctuation},
		{Value: "{", Type: Punctuation},
		{Value: "}", Type: Punctuation},
	}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("Tokenize() = %v, want %v", tokens, want)
	}
}

func TestSplitIdentifier(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"camel", "camelCaseName", []string{"camel", "case", "name"}},
		{"snake", "snake_case_name", []string{"snake", "case", "name"}},
		{"acronym", "HTTPServer", []string{"http", "server"}},
		{"short fragments dropped", "a_b_cd", []string{"cd"}},
		{"single letter", "x", nil},
		{"mixed", "parseJSON_fast", []string{"parse", "json", "fast"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitIdentifier(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitIdentifier(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokenizeOperatorLongestMatch(t *testing.T) {
	tokens := Tokenize("a === b", "javascript")

	var ops []string
	for _, tok := range tokens {
		if tok.Type == Operator {
			ops = append(ops, tok.Value)
		}
	}
	if !reflect.DeepEqual(ops, []string{"==="}) {
		t.Errorf("operators = %v, want [===]", ops)
	}

	tokens = Tokenize("x == y = z", "javascript")
	ops = nil
	for _, tok := range tokens {
		if tok.Type == Operator {
			ops = append(ops, tok.Value)
		}
	}
	if !reflect.DeepEqual(ops, []string{"==", "="}) {
		t.Errorf("operators = %v, want [== =]", ops)
	}
}

func TestTokenizeComments(t *testing.T) {
	tokens := Tokenize("// reads the config file\nx = 1", "go")

	var words []string
	for _, tok := range tokens {
		if tok.Type == Comment {
			words = append(words, tok.Value)
		}
	}
	want := []string{"reads", "the", "config", "file"}
	if !reflect.DeepEqual(words, want) {
		t.Errorf("comment words = %v, want %v", words, want)
	}
}

func TestTokenizePythonHashComment(t *testing.T) {
	tokens := Tokenize("# compute total\ntotal = 0", "python")

	if tokens[0].Type != Comment || tokens[0].Value != "compute" {
		t.Errorf("first token = %+v, want comment 'compute'", tokens[0])
	}
}

func TestTokenizeStringAndNumber(t *testing.T) {
	tokens := Tokenize(`name = "hello" + 42`, "python")

	var hasString, hasNumber bool
	for _, tok := range tokens {
		if tok.Type == String && tok.Value == "hello" {
			hasString = true
		}
		if tok.Type == Number && tok.Value == "42" {
			hasNumber = true
		}
	}
	if !hasString {
		t.Errorf("missing string token in %v", tokens)
	}
	if !hasNumber {
		t.Errorf("missing number token in %v", tokens)
	}
}

func TestFrequencies(t *testing.T) {
	tokens := []Token{
		{Value: "for", Type: Keyword},
		{Value: "for", Type: Keyword},
		{Value: "item", Type: Identifier},
	}

	freqs := Frequencies(tokens)
	if freqs["keyword:for"] != 2 {
		t.Errorf("keyword:for = %d, want 2", freqs["keyword:for"])
	}
	if freqs["identifier:item"] != 1 {
		t.Errorf("identifier:item = %d, want 1", freqs["identifier:item"])
	}
}

func TestNGrams(t *testing.T) {
	tokens := []Token{
		{Value: "a", Type: Identifier},
		{Value: "b", Type: Identifier},
		{Value: "c", Type: Identifier},
	}

	got := NGrams(tokens, 2)
	want := []string{"a b", "b c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NGrams(2) = %v, want %v", got, want)
	}

	if got := NGrams(tokens, 4); got != nil {
		t.Errorf("NGrams(4) on 3 tokens = %v, want nil", got)
	}
	if got := NGrams(tokens, 1); got != nil {
		t.Errorf("NGrams(1) = %v, want nil", got)
	}
}
