package pdf

import (
	"testing"
)

// TestObjectKinds tests the type tags and literal formatting of every
// object kind.
func TestObjectKinds(t *testing.T) {
	tests := []struct {
		name    string
		obj     Object
		kind    ObjectType
		literal string
	}{
		{"integer", Integer(42), ObjInteger, "42"},
		{"real", Real(2.5), ObjReal, "2.5"},
		{"bool true", Boolean(true), ObjBoolean, "true"},
		{"bool false", Boolean(false), ObjBoolean, "false"},
		{"name", Name("Test"), ObjName, "/Test"},
		{"null", Null{}, ObjNull, "null"},
		{"reference", Reference{ObjectNumber: 12, GenerationNumber: 3}, ObjReference, "12 3 R"},
		{"literal string", String{Value: []byte("Hello")}, ObjString, "(Hello)"},
		{"hex string", String{Value: []byte{0xAB, 0xCD}, IsHex: true}, ObjString, "<ABCD>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.obj.Type(); got != tt.kind {
				t.Errorf("Type() = %v, want %v", got, tt.kind)
			}
			if got := tt.obj.String(); got != tt.literal {
				t.Errorf("String() = %q, want %q", got, tt.literal)
			}
		})
	}

	if (Array{Integer(1)}).Type() != ObjArray {
		t.Error("Array type tag wrong")
	}
	if (Dictionary{}).Type() != ObjDictionary {
		t.Error("Dictionary type tag wrong")
	}
	if (Stream{}).Type() != ObjStream {
		t.Error("Stream type tag wrong")
	}
}

// TestStringText tests text decoding across the three encodings.
func TestStringText(t *testing.T) {
	tests := []struct {
		name     string
		value    []byte
		expected string
	}{
		{"plain", []byte("Hello"), "Hello"},
		{"utf16be bom", []byte{0xFE, 0xFF, 0x00, 'H', 0x00, 'i'}, "Hi"},
		{"utf8 bom", []byte{0xEF, 0xBB, 0xBF, 'H', 'i'}, "Hi"},
		{"pdfdoc high byte", []byte{'c', 'a', 'f', 0xE9}, "café"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := String{Value: tt.value}
			if got := s.Text(); got != tt.expected {
				t.Errorf("Text() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// TestDictionaryGetters tests every typed getter with hits, misses and
// wrong-type keys.
func TestDictionaryGetters(t *testing.T) {
	dict := Dictionary{
		Name("Type"):   Name("Test"),
		Name("Count"):  Integer(42),
		Name("Ratio"):  Real(1.5),
		Name("Flag"):   Boolean(true),
		Name("Text"):   String{Value: []byte("hi")},
		Name("Kids"):   Array{Integer(1), Integer(2), Integer(3)},
		Name("Nested"): Dictionary{Name("Inner"): Integer(1)},
	}

	if v := dict.Get("Type"); v == nil {
		t.Error("Get missed an existing key")
	}
	if v := dict.Get("Absent"); v != nil {
		t.Errorf("Get(Absent) = %v, want nil", v)
	}

	if n, ok := dict.GetName("Type"); !ok || n != "Test" {
		t.Errorf("GetName = %v, %v", n, ok)
	}
	if _, ok := dict.GetName("Count"); ok {
		t.Error("GetName accepted an integer")
	}

	if i, ok := dict.GetInt("Count"); !ok || i != 42 {
		t.Errorf("GetInt = %v, %v", i, ok)
	}
	// Reals truncate rather than failing; box coordinates arrive both ways.
	if i, ok := dict.GetInt("Ratio"); !ok || i != 1 {
		t.Errorf("GetInt(Ratio) = %v, %v, want 1", i, ok)
	}

	if f, ok := dict.GetFloat("Ratio"); !ok || f != 1.5 {
		t.Errorf("GetFloat = %v, %v", f, ok)
	}
	if f, ok := dict.GetFloat("Count"); !ok || f != 42.0 {
		t.Errorf("GetFloat(Count) = %v, %v, want 42", f, ok)
	}
	if _, ok := dict.GetFloat("Type"); ok {
		t.Error("GetFloat accepted a name")
	}

	if b, ok := dict.GetBool("Flag"); !ok || !b {
		t.Errorf("GetBool = %v, %v", b, ok)
	}
	if _, ok := dict.GetBool("Count"); ok {
		t.Error("GetBool accepted an integer")
	}

	if s, ok := dict.GetString("Text"); !ok || string(s.Value) != "hi" {
		t.Errorf("GetString = %v, %v", s, ok)
	}

	if arr, ok := dict.GetArray("Kids"); !ok || len(arr) != 3 {
		t.Errorf("GetArray = %v, %v", arr, ok)
	}

	inner, ok := dict.GetDict("Nested")
	if !ok {
		t.Fatal("GetDict missed the nested dictionary")
	}
	if i, ok := inner.GetInt("Inner"); !ok || i != 1 {
		t.Errorf("nested GetInt = %v, %v", i, ok)
	}
}

// TestStreamDecodeNoFilter tests that an unfiltered stream decodes to
// its raw data.
func TestStreamDecodeNoFilter(t *testing.T) {
	stream := Stream{
		Dictionary: Dictionary{Name("Length"): Integer(5)},
		Data:       []byte("Hello"),
	}

	decoded, err := stream.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(decoded) != "Hello" {
		t.Errorf("Decode = %q, want Hello", decoded)
	}
}

// TestToFloat tests numeric object conversion
func TestToFloat(t *testing.T) {
	tests := []struct {
		obj      Object
		expected float64
		ok       bool
	}{
		{Integer(42), 42.0, true},
		{Real(3.14), 3.14, true},
		{Name("test"), 0.0, false},
		{Null{}, 0.0, false},
	}

	for _, tt := range tests {
		result, ok := ToFloat(tt.obj)
		if ok != tt.ok || result != tt.expected {
			t.Errorf("ToFloat(%v) = %f, %v, expected %f, %v", tt.obj, result, ok, tt.expected, tt.ok)
		}
	}
}

// TestToInt tests integer object conversion
func TestToInt(t *testing.T) {
	tests := []struct {
		obj      Object
		expected int64
		ok       bool
	}{
		{Integer(7), 7, true},
		{Real(2.9), 2, true},
		{String{Value: []byte("7")}, 0, false},
	}

	for _, tt := range tests {
		result, ok := ToInt(tt.obj)
		if ok != tt.ok || result != tt.expected {
			t.Errorf("ToInt(%v) = %d, %v, expected %d, %v", tt.obj, result, ok, tt.expected, tt.ok)
		}
	}
}

// TestIsNumber tests numeric type detection
func TestIsNumber(t *testing.T) {
	if !IsNumber(Integer(1)) || !IsNumber(Real(1.5)) {
		t.Error("Integer and Real should be numbers")
	}
	if IsNumber(Name("1")) || IsNumber(Null{}) {
		t.Error("Name and Null should not be numbers")
	}
}

// TestDecodePDFDocEncoding tests the byte-to-rune mapping.
func TestDecodePDFDocEncoding(t *testing.T) {
	if got := decodePDFDocEncoding([]byte("Hello")); got != "Hello" {
		t.Errorf("ascii = %q", got)
	}
	if got := decodePDFDocEncoding([]byte{0xE9}); got != "é" {
		t.Errorf("latin-1 byte = %q, want é", got)
	}
}
