package pdf

import (
	"testing"
)

// nextToken fails the test on a lexing error.
func nextToken(t *testing.T, l *Lexer) Token {
	t.Helper()
	tok, err := l.NextToken()
	if err != nil {
		t.Fatalf("NextToken: %v", err)
	}
	return tok
}

// TestLexerReadLine tests line reading across the three EOL forms.
func TestLexerReadLine(t *testing.T) {
	lexer := NewLexerFromBytes([]byte("line1\nline2\rline3\r\nline4"))
	for _, want := range []string{"line1", "line2", "line3", "line4"} {
		line, err := lexer.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine: %v", err)
		}
		if string(line) != want {
			t.Errorf("ReadLine = %q, want %q", line, want)
		}
	}
}

// TestByteClasses tests the whitespace and delimiter predicates.
func TestByteClasses(t *testing.T) {
	for _, ws := range []byte{' ', '\t', '\n', '\r', '\f', 0} {
		if !isWhitespace(ws) {
			t.Errorf("isWhitespace(%#x) = false", ws)
		}
	}
	for _, b := range []byte{'a', '1', '/', '('} {
		if isWhitespace(b) {
			t.Errorf("isWhitespace(%q) = true", b)
		}
	}
	for _, d := range []byte{'(', ')', '<', '>', '[', ']', '{', '}', '/', '%'} {
		if !isDelimiter(d) {
			t.Errorf("isDelimiter(%q) = false", d)
		}
	}
	for _, b := range []byte{'a', '1', '.', '-', '*', '\''} {
		if isDelimiter(b) {
			t.Errorf("isDelimiter(%q) = true", b)
		}
	}
}

// TestOperatorKeywords tests that content stream operators, including
// the starred and quote forms, lex as keyword tokens.
func TestOperatorKeywords(t *testing.T) {
	lexer := NewLexerFromBytes([]byte("10 20 re W* f ' \" T*"))

	for i := 0; i < 2; i++ {
		if tok := nextToken(t, lexer); tok.Type != TokenInteger {
			t.Fatalf("token %d type = %v, want integer", i, tok.Type)
		}
	}
	for _, want := range []string{"re", "W*", "f", "'", "\"", "T*"} {
		tok := nextToken(t, lexer)
		if tok.Type != TokenKeyword {
			t.Fatalf("type for %q = %v, want keyword", want, tok.Type)
		}
		if kw := tok.Value.(string); kw != want {
			t.Errorf("keyword = %q, want %q", kw, want)
		}
	}
	if tok := nextToken(t, lexer); tok.Type != TokenEOF {
		t.Errorf("trailing token = %v, want EOF", tok.Type)
	}
}

// TestProcedureTokens tests the brace tokens used by PostScript
// calculator functions.
func TestProcedureTokens(t *testing.T) {
	lexer := NewLexerFromBytes([]byte("{ 2 mul }"))
	wantTypes := []TokenType{TokenProcStart, TokenInteger, TokenKeyword, TokenProcEnd}
	for i, want := range wantTypes {
		if tok := nextToken(t, lexer); tok.Type != want {
			t.Errorf("token %d type = %v, want %v", i, tok.Type, want)
		}
	}
}

// TestParseNumbers tests integer and real parsing including the
// overflow fallback.
func TestParseNumbers(t *testing.T) {
	intTests := []struct {
		input    string
		expected int64
	}{
		{"42", 42},
		{"-17", -17},
		{"0", 0},
		{"+123", 123},
	}
	for _, tt := range intTests {
		obj, err := NewParserFromBytes([]byte(tt.input)).ParseObject()
		if err != nil {
			t.Errorf("ParseObject(%s): %v", tt.input, err)
			continue
		}
		if i, ok := obj.(Integer); !ok || int64(i) != tt.expected {
			t.Errorf("ParseObject(%s) = %v, want %d", tt.input, obj, tt.expected)
		}
	}

	realTests := []struct {
		input    string
		expected float64
	}{
		{"3.14", 3.14},
		{"-2.5", -2.5},
		{".5", 0.5},
		{"10.", 10.0},
	}
	for _, tt := range realTests {
		obj, err := NewParserFromBytes([]byte(tt.input)).ParseObject()
		if err != nil {
			t.Errorf("ParseObject(%s): %v", tt.input, err)
			continue
		}
		if r, ok := obj.(Real); !ok || float64(r) != tt.expected {
			t.Errorf("ParseObject(%s) = %v, want %v", tt.input, obj, tt.expected)
		}
	}

	// Integers too large for int64 degrade to reals instead of failing.
	obj, err := NewParserFromBytes([]byte("123456789012345678901234567890")).ParseObject()
	if err != nil {
		t.Fatalf("ParseObject(huge): %v", err)
	}
	if r, ok := obj.(Real); !ok || float64(r) < 1e29 || float64(r) > 2e29 {
		t.Errorf("ParseObject(huge) = %v, want a real near 1.23e29", obj)
	}
}

// TestParseKeywordObjects tests booleans and null.
func TestParseKeywordObjects(t *testing.T) {
	for _, tt := range []struct {
		input    string
		expected bool
	}{{"true", true}, {"false", false}} {
		obj, err := NewParserFromBytes([]byte(tt.input)).ParseObject()
		if err != nil {
			t.Errorf("ParseObject(%s): %v", tt.input, err)
			continue
		}
		if b, ok := obj.(Boolean); !ok || bool(b) != tt.expected {
			t.Errorf("ParseObject(%s) = %v, want %v", tt.input, obj, tt.expected)
		}
	}

	obj, err := NewParserFromBytes([]byte("null")).ParseObject()
	if err != nil {
		t.Fatalf("ParseObject(null): %v", err)
	}
	if _, ok := obj.(Null); !ok {
		t.Errorf("ParseObject(null) = %T, want Null", obj)
	}
}

// TestParseName tests name parsing with hex escapes.
func TestParseName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/Name", "Name"},
		{"/Type", "Type"},
		{"/A#20B", "A B"},
	}
	for _, tt := range tests {
		obj, err := NewParserFromBytes([]byte(tt.input)).ParseObject()
		if err != nil {
			t.Errorf("ParseObject(%s): %v", tt.input, err)
			continue
		}
		if n, ok := obj.(Name); !ok || string(n) != tt.expected {
			t.Errorf("ParseObject(%s) = %v, want %s", tt.input, obj, tt.expected)
		}
	}
}

// TestParseString tests literal strings with nesting and escapes.
func TestParseString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"(Hello)", "Hello"},
		{"(Hello World)", "Hello World"},
		{"()", ""},
		{"(a(nested)c)", "a(nested)c"},
		{"(a\\nb\\tc)", "a\nb\tc"},
		{"(esc\\(paren\\))", "esc(paren)"},
		// A backslash before a newline continues the line.
		{"(split\\\nline)", "splitline"},
		// Octal escapes, including values above 127.
		{"(\\101\\377)", "A\xff"},
	}
	for _, tt := range tests {
		obj, err := NewParserFromBytes([]byte(tt.input)).ParseObject()
		if err != nil {
			t.Errorf("ParseObject(%q): %v", tt.input, err)
			continue
		}
		if s, ok := obj.(String); !ok || string(s.Value) != tt.expected {
			t.Errorf("ParseObject(%q) = %q, want %q", tt.input, obj, tt.expected)
		}
	}
}

// TestParseHexString tests hex strings including odd-length padding.
func TestParseHexString(t *testing.T) {
	tests := []struct {
		input    string
		expected []byte
	}{
		{"<48656C6C6F>", []byte("Hello")},
		{"<>", []byte{}},
		{"<48 65 6C\n6C 6F>", []byte("Hello")},
		{"<487>", []byte{0x48, 0x70}},
	}
	for _, tt := range tests {
		obj, err := NewParserFromBytes([]byte(tt.input)).ParseObject()
		if err != nil {
			t.Errorf("ParseObject(%s): %v", tt.input, err)
			continue
		}
		if s, ok := obj.(String); !ok || string(s.Value) != string(tt.expected) {
			t.Errorf("ParseObject(%s) = %v, want %v", tt.input, obj, tt.expected)
		}
	}
}

// TestParseContainers tests arrays, dictionaries and references.
func TestParseContainers(t *testing.T) {
	obj, err := NewParserFromBytes([]byte("[1 (two) /Three]")).ParseObject()
	if err != nil {
		t.Fatalf("ParseObject(array): %v", err)
	}
	arr, ok := obj.(Array)
	if !ok || len(arr) != 3 {
		t.Fatalf("ParseObject(array) = %v, want a 3-element array", obj)
	}

	obj, err = NewParserFromBytes([]byte("<< /Type /Test /Value 42 /Kid << /Deep true >> >>")).ParseObject()
	if err != nil {
		t.Fatalf("ParseObject(dict): %v", err)
	}
	dict, ok := obj.(Dictionary)
	if !ok {
		t.Fatalf("ParseObject(dict) = %T, want Dictionary", obj)
	}
	if typeVal, ok := dict.GetName("Type"); !ok || typeVal != "Test" {
		t.Errorf("Type = %v, want Test", typeVal)
	}
	if intVal, ok := dict.GetInt("Value"); !ok || intVal != 42 {
		t.Errorf("Value = %v, want 42", intVal)
	}
	if kid, ok := dict.GetDict("Kid"); !ok || kid.Get("Deep") == nil {
		t.Errorf("nested dictionary not parsed: %v", dict.Get("Kid"))
	}

	obj, err = NewParserFromBytes([]byte("12 3 R")).ParseObject()
	if err != nil {
		t.Fatalf("ParseObject(ref): %v", err)
	}
	ref, ok := obj.(Reference)
	if !ok || ref.ObjectNumber != 12 || ref.GenerationNumber != 3 {
		t.Errorf("ParseObject(ref) = %v, want 12 3 R", obj)
	}
}
