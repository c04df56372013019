package font

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/novvoo/go-pdfrender/pkg/pdf"
)

// CMap maps byte sequences from a content-stream string to CIDs. It
// carries the codespace ranges that drive variable-length code
// segmentation and the cidchar/cidrange entries that assign CIDs.
type CMap struct {
	Name  string
	WMode int

	codespaces []codespaceRange
	singles    map[uint64]uint32
	ranges     []cidRange
}

// codespaceRange is a low/high pair of equal-length byte strings.
// Containment is checked byte by byte, not numerically, so the
// two-byte range <8140> <9FFC> does not include <8200>.
type codespaceRange struct {
	lo, hi []byte
}

func (r codespaceRange) contains(b []byte) bool {
	if len(b) != len(r.lo) {
		return false
	}
	for i := range b {
		if b[i] < r.lo[i] || b[i] > r.hi[i] {
			return false
		}
	}
	return true
}

// cidRange maps a contiguous span of codes to CIDs starting at cid.
type cidRange struct {
	lo, hi []byte
	cid    uint32
}

func singleKey(nbytes int, code uint32) uint64 {
	return uint64(nbytes)<<32 | uint64(code)
}

func beUint(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}

// NextCode consumes the next character code from b. It tries each
// declared code length shortest first and returns the first codespace
// hit. A sequence matching no codespace still consumes the shortest
// declared code length so that one bad byte cannot desynchronize the
// rest of the string.
func (m *CMap) NextCode(b []byte) (code uint32, n int) {
	if len(b) == 0 {
		return 0, 0
	}
	for k := 1; k <= 4 && k <= len(b); k++ {
		for _, cs := range m.codespaces {
			if len(cs.lo) == k && cs.contains(b[:k]) {
				return beUint(b[:k]), k
			}
		}
	}
	n = m.shortestCodeLen()
	if n > len(b) {
		n = len(b)
	}
	return beUint(b[:n]), n
}

func (m *CMap) shortestCodeLen() int {
	n := 0
	for _, cs := range m.codespaces {
		if n == 0 || len(cs.lo) < n {
			n = len(cs.lo)
		}
	}
	if n == 0 {
		n = 1
	}
	return n
}

// CID maps a code of n bytes to its CID. Unmapped codes yield CID 0,
// the notdef glyph.
func (m *CMap) CID(code uint32, n int) uint32 {
	if cid, ok := m.singles[singleKey(n, code)]; ok {
		return cid
	}
	var buf [4]byte
	for i := n - 1; i >= 0; i-- {
		buf[i] = byte(code)
		code >>= 8
	}
	b := buf[:n]
	// Newest first, so entries layered over a usecmap base win.
	for j := len(m.ranges) - 1; j >= 0; j-- {
		r := m.ranges[j]
		if len(r.lo) != n {
			continue
		}
		inside := true
		for i := 0; i < n; i++ {
			if b[i] < r.lo[i] || b[i] > r.hi[i] {
				inside = false
				break
			}
		}
		if inside {
			return r.cid + beUint(b) - beUint(r.lo)
		}
	}
	return 0
}

// ParseCMap parses an embedded CMap stream.
func ParseCMap(data []byte) (*CMap, error) {
	d, err := parseCMapData(data)
	if err != nil {
		return nil, err
	}
	m := &CMap{
		Name:    d.name,
		WMode:   d.wmode,
		singles: map[uint64]uint32{},
	}
	if d.useCMap != "" {
		if base, err := PredefinedCMap(d.useCMap); err == nil {
			m.codespaces = append(m.codespaces, base.codespaces...)
			m.ranges = append(m.ranges, base.ranges...)
			for k, v := range base.singles {
				m.singles[k] = v
			}
			if m.WMode == 0 {
				m.WMode = base.WMode
			}
		}
	}
	m.codespaces = append(m.codespaces, d.codespaces...)
	m.ranges = append(m.ranges, d.ranges...)
	for k, v := range d.singles {
		m.singles[k] = v
	}
	return m, nil
}

// PredefinedCMap returns a CMap registered under a well-known name.
// Identity-H and Identity-V map every two-byte code to the same CID.
// The CJK registry CMaps are approximated as two-byte identity
// mappings, which keeps code segmentation intact even though the CID
// assignment is wrong without the full registry data.
func PredefinedCMap(name string) (*CMap, error) {
	wmode := 0
	if name == "V" || strings.HasSuffix(name, "-V") {
		wmode = 1
	}
	switch {
	case name == "Identity-H" || name == "Identity-V":
	case name == "H" || name == "V":
	case strings.HasSuffix(name, "-H") || strings.HasSuffix(name, "-V"):
	default:
		return nil, fmt.Errorf("font: unknown CMap %q: %w", name, pdf.ErrUndefinedResource)
	}
	return &CMap{
		Name:  name,
		WMode: wmode,
		codespaces: []codespaceRange{
			{lo: []byte{0x00, 0x00}, hi: []byte{0xFF, 0xFF}},
		},
		singles: map[uint64]uint32{},
		ranges: []cidRange{
			{lo: []byte{0x00, 0x00}, hi: []byte{0xFF, 0xFF}, cid: 0},
		},
	}, nil
}

// parseToUnicode parses a ToUnicode CMap stream into a map from
// character code to text, keyed by the raw code rather than the CID.
func parseToUnicode(data []byte) (map[uint32][]rune, error) {
	d, err := parseCMapData(data)
	if err != nil {
		return nil, err
	}
	return d.toUnicode, nil
}

type cmapData struct {
	name       string
	wmode      int
	useCMap    string
	codespaces []codespaceRange
	singles    map[uint64]uint32
	ranges     []cidRange
	toUnicode  map[uint32][]rune
}

// parseCMapData runs the shared tokenizer over CMap content. CMaps are
// PostScript programs, but the operators that matter all follow the
// operand conventions below, so a small operand stack over the lexer
// is enough. Unrecognized operators clear the stack.
func parseCMapData(data []byte) (*cmapData, error) {
	d := &cmapData{
		singles:   map[uint64]uint32{},
		toUnicode: map[uint32][]rune{},
	}
	lex := pdf.NewLexerFromBytes(data)

	var stack []pdf.Token
	push := func(t pdf.Token) {
		if len(stack) > 64 {
			stack = stack[:0]
		}
		stack = append(stack, t)
	}

	for {
		tok, err := lex.NextToken()
		if err != nil {
			return nil, fmt.Errorf("font: invalid CMap: %w", err)
		}
		if tok.Type == pdf.TokenEOF {
			break
		}

		switch tok.Type {
		case pdf.TokenInteger, pdf.TokenReal, pdf.TokenName,
			pdf.TokenString, pdf.TokenHexString, pdf.TokenBoolean:
			push(tok)

		case pdf.TokenKeyword:
			kw, _ := tok.Value.(string)
			switch kw {
			case "begincodespacerange":
				if err := d.readCodespaces(lex); err != nil {
					return nil, err
				}
				stack = stack[:0]
			case "begincidrange":
				if err := d.readCIDRanges(lex); err != nil {
					return nil, err
				}
				stack = stack[:0]
			case "begincidchar":
				if err := d.readCIDChars(lex); err != nil {
					return nil, err
				}
				stack = stack[:0]
			case "beginbfrange":
				if err := d.readBFRanges(lex); err != nil {
					return nil, err
				}
				stack = stack[:0]
			case "beginbfchar":
				if err := d.readBFChars(lex); err != nil {
					return nil, err
				}
				stack = stack[:0]
			case "usecmap":
				if n := len(stack); n > 0 && stack[n-1].Type == pdf.TokenName {
					d.useCMap, _ = stack[n-1].Value.(string)
				}
				stack = stack[:0]
			case "def":
				if n := len(stack); n >= 2 && stack[n-2].Type == pdf.TokenName {
					key, _ := stack[n-2].Value.(string)
					val := stack[n-1]
					switch key {
					case "WMode":
						if i, ok := val.Value.(int64); ok && i == 1 {
							d.wmode = 1
						}
					case "CMapName":
						if val.Type == pdf.TokenName {
							d.name, _ = val.Value.(string)
						}
					}
				}
				stack = stack[:0]
			default:
				stack = stack[:0]
			}

		default:
			// Dictionary and array delimiters inside the header
			// carry nothing the font machinery needs.
			stack = stack[:0]
		}
	}
	return d, nil
}

// sectionToken reads one token inside a begin.../end... section,
// reporting done when the closing keyword or EOF arrives.
func sectionToken(lex *pdf.Lexer, endKeyword string) (pdf.Token, bool, error) {
	tok, err := lex.NextToken()
	if err != nil {
		return pdf.Token{}, false, fmt.Errorf("font: invalid CMap: %w", err)
	}
	if tok.Type == pdf.TokenEOF {
		return tok, true, nil
	}
	if tok.Type == pdf.TokenKeyword {
		if kw, _ := tok.Value.(string); kw == endKeyword {
			return tok, true, nil
		}
	}
	return tok, false, nil
}

func hexBytes(tok pdf.Token) ([]byte, bool) {
	if tok.Type != pdf.TokenHexString {
		return nil, false
	}
	b, ok := tok.Value.([]byte)
	if !ok || len(b) == 0 || len(b) > 4 {
		return nil, false
	}
	return b, true
}

func (d *cmapData) readCodespaces(lex *pdf.Lexer) error {
	var pending []byte
	for {
		tok, done, err := sectionToken(lex, "endcodespacerange")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		b, ok := hexBytes(tok)
		if !ok {
			pending = nil
			continue
		}
		if pending == nil {
			pending = b
			continue
		}
		if len(pending) == len(b) {
			d.codespaces = append(d.codespaces, codespaceRange{lo: pending, hi: b})
		}
		pending = nil
	}
}

func (d *cmapData) readCIDRanges(lex *pdf.Lexer) error {
	var operands []pdf.Token
	for {
		tok, done, err := sectionToken(lex, "endcidrange")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		operands = append(operands, tok)
		if len(operands) < 3 {
			continue
		}
		lo, okLo := hexBytes(operands[0])
		hi, okHi := hexBytes(operands[1])
		cid, okCID := operands[2].Value.(int64)
		operands = operands[:0]
		if okLo && okHi && okCID && len(lo) == len(hi) && cid >= 0 {
			d.ranges = append(d.ranges, cidRange{lo: lo, hi: hi, cid: uint32(cid)})
		}
	}
}

func (d *cmapData) readCIDChars(lex *pdf.Lexer) error {
	var operands []pdf.Token
	for {
		tok, done, err := sectionToken(lex, "endcidchar")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		operands = append(operands, tok)
		if len(operands) < 2 {
			continue
		}
		code, okCode := hexBytes(operands[0])
		cid, okCID := operands[1].Value.(int64)
		operands = operands[:0]
		if okCode && okCID && cid >= 0 {
			d.singles[singleKey(len(code), beUint(code))] = uint32(cid)
		}
	}
}

func utf16Runes(b []byte) []rune {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
	}
	return utf16.Decode(units)
}

func (d *cmapData) readBFChars(lex *pdf.Lexer) error {
	var operands []pdf.Token
	for {
		tok, done, err := sectionToken(lex, "endbfchar")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		operands = append(operands, tok)
		if len(operands) < 2 {
			continue
		}
		code, okCode := hexBytes(operands[0])
		dst, okDst := operands[1].Value.([]byte)
		operands = operands[:0]
		if okCode && okDst {
			if r := utf16Runes(dst); len(r) > 0 {
				d.toUnicode[beUint(code)] = r
			}
		}
	}
}

func (d *cmapData) readBFRanges(lex *pdf.Lexer) error {
	var operands []pdf.Token
	var arrayDsts [][]byte
	inArray := false
	for {
		tok, done, err := sectionToken(lex, "endbfrange")
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		switch tok.Type {
		case pdf.TokenArrayStart:
			inArray = true
			arrayDsts = arrayDsts[:0]
			continue
		case pdf.TokenArrayEnd:
			inArray = false
			if len(operands) == 2 {
				d.applyBFRangeArray(operands[0], operands[1], arrayDsts)
			}
			operands = operands[:0]
			continue
		}
		if inArray {
			if b, ok := tok.Value.([]byte); ok && tok.Type == pdf.TokenHexString {
				arrayDsts = append(arrayDsts, b)
			}
			continue
		}
		operands = append(operands, tok)
		if len(operands) < 3 {
			continue
		}
		d.applyBFRange(operands[0], operands[1], operands[2])
		operands = operands[:0]
	}
}

func (d *cmapData) applyBFRange(loTok, hiTok, dstTok pdf.Token) {
	lo, okLo := hexBytes(loTok)
	hi, okHi := hexBytes(hiTok)
	dst, okDst := dstTok.Value.([]byte)
	if !okLo || !okHi || !okDst || dstTok.Type != pdf.TokenHexString {
		return
	}
	if len(lo) != len(hi) {
		return
	}
	loV, hiV := beUint(lo), beUint(hi)
	if hiV < loV || hiV-loV > 0xFFFF {
		return
	}
	base := utf16Runes(dst)
	if len(base) == 0 {
		return
	}
	for c := loV; ; c++ {
		r := make([]rune, len(base))
		copy(r, base)
		r[len(r)-1] += rune(c - loV)
		d.toUnicode[c] = r
		if c == hiV {
			break
		}
	}
}

func (d *cmapData) applyBFRangeArray(loTok, hiTok pdf.Token, dsts [][]byte) {
	lo, okLo := hexBytes(loTok)
	hi, okHi := hexBytes(hiTok)
	if !okLo || !okHi || len(lo) != len(hi) {
		return
	}
	loV, hiV := beUint(lo), beUint(hi)
	for i, dst := range dsts {
		c := loV + uint32(i)
		if c > hiV {
			break
		}
		if r := utf16Runes(dst); len(r) > 0 {
			d.toUnicode[c] = r
		}
	}
}
