// Package pdf parses the PDF container format: the object graph, the
// cross-reference machinery, stream filters, encryption, and the page tree.
// It has no rendering knowledge; higher layers consume the typed objects it
// exposes.
package pdf

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// ObjectType represents the type of a PDF object
type ObjectType int

const (
	ObjNull ObjectType = iota
	ObjBoolean
	ObjInteger
	ObjReal
	ObjString
	ObjName
	ObjArray
	ObjDictionary
	ObjStream
	ObjReference
)

// Object represents a PDF object
type Object interface {
	Type() ObjectType
	String() string
}

// Null represents a PDF null object
type Null struct{}

func (n Null) Type() ObjectType { return ObjNull }
func (n Null) String() string   { return "null" }

// Boolean represents a PDF boolean object
type Boolean bool

func (b Boolean) Type() ObjectType { return ObjBoolean }
func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Integer represents a PDF integer object
type Integer int64

func (i Integer) Type() ObjectType { return ObjInteger }
func (i Integer) String() string   { return strconv.FormatInt(int64(i), 10) }

// Real represents a PDF real number object
type Real float64

func (r Real) Type() ObjectType { return ObjReal }
func (r Real) String() string   { return strconv.FormatFloat(float64(r), 'f', -1, 64) }

// String represents a PDF string object
type String struct {
	Value []byte
	IsHex bool
}

func (s String) Type() ObjectType { return ObjString }
func (s String) String() string {
	if s.IsHex {
		return fmt.Sprintf("<%X>", s.Value)
	}
	return fmt.Sprintf("(%s)", string(s.Value))
}

var utf16beDecoder = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()

// Text returns the string decoded as text. Strings with a UTF-16BE or
// UTF-8 BOM use that encoding; everything else is PDFDocEncoding.
func (s String) Text() string {
	if len(s.Value) >= 2 && s.Value[0] == 0xFE && s.Value[1] == 0xFF {
		if decoded, err := utf16beDecoder.Bytes(s.Value[2:]); err == nil {
			return string(decoded)
		}
	}
	if len(s.Value) >= 3 && s.Value[0] == 0xEF && s.Value[1] == 0xBB && s.Value[2] == 0xBF {
		return string(s.Value[3:])
	}
	return decodePDFDocEncoding(s.Value)
}

// Name represents a PDF name object
type Name string

func (n Name) Type() ObjectType { return ObjName }
func (n Name) String() string   { return "/" + string(n) }

// Array represents a PDF array object
type Array []Object

func (a Array) Type() ObjectType { return ObjArray }
func (a Array) String() string {
	var parts []string
	for _, obj := range a {
		parts = append(parts, obj.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Dictionary represents a PDF dictionary object
type Dictionary map[Name]Object

func (d Dictionary) Type() ObjectType { return ObjDictionary }
func (d Dictionary) String() string {
	var parts []string
	for k, v := range d {
		parts = append(parts, k.String()+" "+v.String())
	}
	return "<<" + strings.Join(parts, " ") + ">>"
}

// Get returns the value for a key, or nil if absent. References are not
// followed; use Document.Resolve for that.
func (d Dictionary) Get(key string) Object {
	return d[Name(key)]
}

// GetName returns the name value for a key
func (d Dictionary) GetName(key string) (Name, bool) {
	if n, ok := d.Get(key).(Name); ok {
		return n, true
	}
	return "", false
}

// GetInt returns the integer value for a key
func (d Dictionary) GetInt(key string) (int64, bool) {
	switch v := d.Get(key).(type) {
	case Integer:
		return int64(v), true
	case Real:
		return int64(v), true
	}
	return 0, false
}

// GetFloat returns the numeric value for a key
func (d Dictionary) GetFloat(key string) (float64, bool) {
	switch v := d.Get(key).(type) {
	case Integer:
		return float64(v), true
	case Real:
		return float64(v), true
	}
	return 0, false
}

// GetBool returns the boolean value for a key
func (d Dictionary) GetBool(key string) (bool, bool) {
	if b, ok := d.Get(key).(Boolean); ok {
		return bool(b), true
	}
	return false, false
}

// GetString returns the string value for a key
func (d Dictionary) GetString(key string) (String, bool) {
	if s, ok := d.Get(key).(String); ok {
		return s, true
	}
	return String{}, false
}

// GetArray returns the array value for a key
func (d Dictionary) GetArray(key string) (Array, bool) {
	if a, ok := d.Get(key).(Array); ok {
		return a, true
	}
	return nil, false
}

// GetDict returns the dictionary value for a key
func (d Dictionary) GetDict(key string) (Dictionary, bool) {
	if dict, ok := d.Get(key).(Dictionary); ok {
		return dict, true
	}
	return nil, false
}

// Stream represents a PDF stream object
type Stream struct {
	Dictionary Dictionary
	Data       []byte
}

func (s Stream) Type() ObjectType { return ObjStream }
func (s Stream) String() string {
	return s.Dictionary.String() + " stream...endstream"
}

// Reference represents a PDF indirect object reference
type Reference struct {
	ObjectNumber     int
	GenerationNumber int
}

func (r Reference) Type() ObjectType { return ObjReference }
func (r Reference) String() string {
	return fmt.Sprintf("%d %d R", r.ObjectNumber, r.GenerationNumber)
}

// ToFloat converts a numeric object to float64
func ToFloat(obj Object) (float64, bool) {
	switch v := obj.(type) {
	case Integer:
		return float64(v), true
	case Real:
		return float64(v), true
	}
	return 0, false
}

// ToInt converts a numeric object to int64
func ToInt(obj Object) (int64, bool) {
	switch v := obj.(type) {
	case Integer:
		return int64(v), true
	case Real:
		return int64(v), true
	}
	return 0, false
}

// IsNumber reports whether the object is an Integer or Real.
func IsNumber(obj Object) bool {
	switch obj.(type) {
	case Integer, Real:
		return true
	}
	return false
}

// decodePDFDocEncoding decodes PDFDocEncoding to string. The encoding
// matches Latin-1 for the ranges that matter here.
func decodePDFDocEncoding(data []byte) string {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}
