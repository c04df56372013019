package content

import (
	"errors"
	"io"

	"github.com/novvoo/go-pdfrender/pkg/pdf"
)

// Operand stack limit. Operators take their operands from the tail, so
// when a damaged stream piles up junk the oldest entries are shed first.
const maxOperands = 64

// Nesting limit for arrays and dictionaries inside a content stream.
const maxOperandDepth = 32

// instruction is one decoded operator together with the operands that
// preceded it. The operand slice aliases the scanner's buffer and is
// only valid until the next call to next.
type instruction struct {
	op       operator
	keyword  string
	operands []pdf.Object

	// truncated is set when operands were shed to stay under the
	// stack limit.
	truncated bool

	// img carries the decoded header and raw data of an inline image
	// for opBeginImage.
	img *inlineImage
}

// inlineImage is the BI..ID..EI payload: the image dictionary written
// between BI and ID plus the raw bytes between ID and EI.
type inlineImage struct {
	dict pdf.Dictionary
	data []byte
}

// scanner decodes a content stream into instructions. It folds the
// keyword-to-operator lookup into the scan so the interpreter loop only
// ever dispatches on operator values.
type scanner struct {
	lex      *pdf.Lexer
	src      []byte
	operands []pdf.Object

	// stray counts tokens that cannot appear in a content stream,
	// such as indirect references or lone delimiters.
	stray int
}

func newScanner(data []byte) *scanner {
	return &scanner{lex: pdf.NewLexerFromBytes(data), src: data}
}

// next returns the next instruction. The second result is false at the
// end of the stream, including when the tail is too damaged to scan.
func (s *scanner) next() (instruction, bool) {
	truncated := false
	s.operands = s.operands[:0]

	for {
		tok, err := s.lex.NextToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return instruction{}, false
			}
			// A stray delimiter; the lexer consumed it, keep going.
			s.stray++
			continue
		}

		switch tok.Type {
		case pdf.TokenEOF:
			return instruction{}, false

		case pdf.TokenKeyword:
			kw := tok.Value.(string)
			op, known := operatorTable[kw]
			if !known {
				op = opUnknown
			}
			ins := instruction{op: op, keyword: kw, operands: s.operands, truncated: truncated}
			if op == opBeginImage {
				img, ok := s.readInlineImage()
				if !ok {
					return instruction{}, false
				}
				ins.img = img
			}
			return ins, true

		default:
			obj, ok := s.object(tok, 0)
			if !ok {
				s.stray++
				continue
			}
			if len(s.operands) >= maxOperands {
				copy(s.operands, s.operands[1:])
				s.operands = s.operands[:maxOperands-1]
				truncated = true
			}
			s.operands = append(s.operands, obj)
		}
	}
}

// object builds a direct object from the token stream. Content streams
// carry no indirect references, so a bare R is rejected as stray.
func (s *scanner) object(tok pdf.Token, depth int) (pdf.Object, bool) {
	if depth > maxOperandDepth {
		return nil, false
	}

	switch tok.Type {
	case pdf.TokenNull:
		return pdf.Null{}, true
	case pdf.TokenBoolean:
		return pdf.Boolean(tok.Value.(bool)), true
	case pdf.TokenInteger:
		return pdf.Integer(tok.Value.(int64)), true
	case pdf.TokenReal:
		return pdf.Real(tok.Value.(float64)), true
	case pdf.TokenString:
		return pdf.String{Value: tok.Value.([]byte)}, true
	case pdf.TokenHexString:
		return pdf.String{Value: tok.Value.([]byte), IsHex: true}, true
	case pdf.TokenName:
		return pdf.Name(tok.Value.(string)), true
	case pdf.TokenArrayStart:
		return s.array(depth + 1)
	case pdf.TokenDictStart:
		return s.dict(depth + 1)
	}
	return nil, false
}

func (s *scanner) array(depth int) (pdf.Object, bool) {
	arr := pdf.Array{}
	for {
		tok, err := s.lex.NextToken()
		if err != nil || tok.Type == pdf.TokenEOF {
			return arr, true
		}
		if tok.Type == pdf.TokenArrayEnd {
			return arr, true
		}
		obj, ok := s.object(tok, depth)
		if !ok {
			s.stray++
			continue
		}
		arr = append(arr, obj)
	}
}

func (s *scanner) dict(depth int) (pdf.Object, bool) {
	dict := pdf.Dictionary{}
	for {
		tok, err := s.lex.NextToken()
		if err != nil || tok.Type == pdf.TokenEOF {
			return dict, true
		}
		if tok.Type == pdf.TokenDictEnd {
			return dict, true
		}
		if tok.Type != pdf.TokenName {
			s.stray++
			continue
		}
		key := pdf.Name(tok.Value.(string))

		vtok, err := s.lex.NextToken()
		if err != nil || vtok.Type == pdf.TokenEOF {
			return dict, true
		}
		if vtok.Type == pdf.TokenDictEnd {
			return dict, true
		}
		value, ok := s.object(vtok, depth)
		if !ok {
			s.stray++
			continue
		}
		dict[key] = value
	}
}

// readInlineImage reads the key/value pairs between BI and ID, then the
// raw data up to the matching EI. The lexer is advanced past EI so
// scanning resumes with the following operator.
func (s *scanner) readInlineImage() (*inlineImage, bool) {
	dict := pdf.Dictionary{}
	for {
		tok, err := s.lex.NextToken()
		if err != nil || tok.Type == pdf.TokenEOF {
			return nil, false
		}
		if tok.Type == pdf.TokenKeyword && tok.Value.(string) == "ID" {
			break
		}
		if tok.Type != pdf.TokenName {
			s.stray++
			continue
		}
		key := pdf.Name(tok.Value.(string))

		vtok, err := s.lex.NextToken()
		if err != nil || vtok.Type == pdf.TokenEOF {
			return nil, false
		}
		value, ok := s.object(vtok, 0)
		if !ok {
			s.stray++
			continue
		}
		dict[key] = value
	}

	data, ok := s.imageData(dict)
	if !ok {
		return nil, false
	}
	return &inlineImage{dict: dict, data: data}, true
}

// imageData slices the raw bytes between ID and EI out of the source.
// A declared length is trusted when present; otherwise the end is found
// by scanning for a whitespace-delimited EI.
func (s *scanner) imageData(dict pdf.Dictionary) ([]byte, bool) {
	pos := int(s.lex.Position())
	if pos >= len(s.src) {
		return nil, false
	}

	// ID is followed by a single separator byte before the data.
	start := pos
	if isSpaceByte(s.src[start]) {
		start++
	}

	if n, ok := inlineLength(dict); ok && n >= 0 && start+n <= len(s.src) {
		end := start + n
		for end < len(s.src) && isSpaceByte(s.src[end]) {
			end++
		}
		if end+1 < len(s.src) && s.src[end] == 'E' && s.src[end+1] == 'I' {
			end += 2
		}
		s.lex.SkipBytes(int64(end - pos))
		return s.src[start : start+n], true
	}

	for i := start; i+1 < len(s.src); i++ {
		if s.src[i] != 'E' || s.src[i+1] != 'I' {
			continue
		}
		if i > start && !isSpaceByte(s.src[i-1]) {
			continue
		}
		if i+2 < len(s.src) && !isSpaceByte(s.src[i+2]) && !isDelimiterByte(s.src[i+2]) {
			continue
		}
		s.lex.SkipBytes(int64(i + 2 - pos))
		return trimImageTail(s.src[start:i]), true
	}
	return nil, false
}

// inlineLength returns the byte count of the image data when it can be
// known up front: a declared /L, or the exact raster size for
// unfiltered data.
func inlineLength(dict pdf.Dictionary) (int, bool) {
	if n, ok := dict.GetInt("L"); ok {
		return int(n), true
	}
	if n, ok := dict.GetInt("Length"); ok {
		return int(n), true
	}
	if dict.Get("F") != nil || dict.Get("Filter") != nil {
		return 0, false
	}

	w, okW := inlineInt(dict, "W", "Width")
	h, okH := inlineInt(dict, "H", "Height")
	if !okW || !okH || w <= 0 || h <= 0 || w > 1<<20 || h > 1<<20 {
		return 0, false
	}

	bpc, ok := inlineInt(dict, "BPC", "BitsPerComponent")
	if !ok {
		bpc = 8
	}
	comps := int64(1)
	if mask, ok := inlineBool(dict, "IM", "ImageMask"); ok && mask {
		bpc = 1
	} else {
		cs, ok := inlineName(dict, "CS", "ColorSpace")
		if !ok {
			return 0, false
		}
		switch cs {
		case "G", "DeviceGray", "I", "Indexed":
			comps = 1
		case "RGB", "DeviceRGB":
			comps = 3
		case "CMYK", "DeviceCMYK":
			comps = 4
		default:
			return 0, false
		}
	}
	if bpc != 1 && bpc != 2 && bpc != 4 && bpc != 8 && bpc != 16 {
		return 0, false
	}

	row := (w*comps*bpc + 7) / 8
	return int(row * h), true
}

func inlineInt(dict pdf.Dictionary, short, long string) (int64, bool) {
	if n, ok := dict.GetInt(short); ok {
		return n, true
	}
	return dict.GetInt(long)
}

func inlineBool(dict pdf.Dictionary, short, long string) (bool, bool) {
	obj := dict.Get(short)
	if obj == nil {
		obj = dict.Get(long)
	}
	b, ok := obj.(pdf.Boolean)
	return bool(b), ok
}

func inlineName(dict pdf.Dictionary, short, long string) (pdf.Name, bool) {
	obj := dict.Get(short)
	if obj == nil {
		obj = dict.Get(long)
	}
	n, ok := obj.(pdf.Name)
	return n, ok
}

// trimImageTail drops the separator that delimits the data from EI: one
// end-of-line sequence or a single whitespace byte.
func trimImageTail(data []byte) []byte {
	if n := len(data); n > 0 && data[n-1] == '\n' {
		data = data[:n-1]
		if n = len(data); n > 0 && data[n-1] == '\r' {
			data = data[:n-1]
		}
	} else if n > 0 && isSpaceByte(data[n-1]) {
		data = data[:n-1]
	}
	return data
}

func isSpaceByte(b byte) bool {
	switch b {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiterByte(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}
