// Package font resolves PDF font dictionaries into glyph outlines and
// advance widths. Simple fonts map single-byte codes through an
// encoding table to glyph names; composite Type0 fonts map multi-byte
// codes through a CMap to CIDs and on to glyph indexes. Outlines come
// from the embedded font program when one is present, otherwise from a
// substitute found on the host system, with the builtin metrics of the
// 14 standard fonts keeping layout correct when no outline source
// exists at all. Extracted outlines are cached per (font, glyph) in a
// shared Cache.
package font

import (
	"fmt"
	"strings"
	"sync"

	"github.com/novvoo/go-pdfrender/pkg/pdf"
	"github.com/novvoo/go-pdfrender/pkg/scene"
)

// CharCode is one decoded character code from a content-stream string.
type CharCode struct {
	// Code is the raw code value as it appeared in the string.
	Code uint32
	// CID is the character identifier the code maps to. Simple fonts
	// use the code itself.
	CID uint32
	// Bytes is how many string bytes the code consumed.
	Bytes int
}

// Glyph is the result of resolving one character code.
type Glyph struct {
	// Outline is the glyph shape in em units with y up, or nil when
	// the glyph has no shape (space, undefined glyph).
	Outline *scene.Path
	// Advance is the horizontal advance in em units. It is valid even
	// when resolution failed, so layout survives missing glyphs.
	Advance float64
}

// Font is a loaded font ready to resolve character codes. It is
// immutable after LoadFont and safe for concurrent use.
type Font struct {
	id uint64

	// Name is the BaseFont value, subset tag included.
	Name      string
	Subtype   pdf.Name
	Composite bool
	Type3     bool
	// Embedded reports whether a usable embedded program was found.
	Embedded bool
	// WMode is 1 for vertical writing CMaps. Advances are still
	// produced horizontally.
	WMode int

	cache *Cache

	encoding *encodingTable
	cmap     *CMap
	cidToGID []uint16

	firstChar       int
	widths          []float64
	missingWidth    float64
	hasMissingWidth bool
	cidWidths       map[uint32]float64
	defaultWidth    float64

	prog glyphProgram
	sub  *substitute
	std  *builtinMetrics

	flags    int64
	bold     bool
	italic   bool
	symbolic bool

	fontMatrixA float64

	toUnicode map[uint32][]rune

	mu     sync.Mutex
	shaped map[uint32]shapedCode
}

type shapedCode struct {
	gid     uint32
	advance float64
	ok      bool
}

// LoadFont builds a Font from a font dictionary. The cache may be nil,
// in which case outlines are extracted on every call and no substitute
// fonts are available.
func LoadFont(doc *pdf.Document, dict pdf.Dictionary, cache *Cache) (*Font, error) {
	f := &Font{
		cache:        cache,
		defaultWidth: 1.0,
		fontMatrixA:  0.001,
		shaped:       make(map[uint32]shapedCode),
	}
	if cache != nil {
		f.id = cache.nextFontID.Add(1)
	}
	f.Subtype, _ = dict.GetName("Subtype")
	if base, ok := dict.GetName("BaseFont"); ok {
		f.Name = string(base)
	}

	var err error
	switch f.Subtype {
	case "Type0":
		f.Composite = true
		err = f.loadComposite(doc, dict)
	case "Type3":
		f.Type3 = true
		err = f.loadType3(doc, dict)
	default:
		// Type1, MMType1, TrueType, and anything unrecognized.
		err = f.loadSimple(doc, dict)
	}
	if err != nil {
		return nil, err
	}

	if stream, ok := doc.ResolveReference(dict.Get("ToUnicode")).(pdf.Stream); ok {
		if data, derr := stream.Decode(); derr == nil {
			if m, perr := parseToUnicode(data); perr == nil && len(m) > 0 {
				f.toUnicode = m
			}
		}
	}
	return f, nil
}

func (f *Font) loadSimple(doc *pdf.Document, dict pdf.Dictionary) error {
	desc, _ := doc.ResolveReference(dict.Get("FontDescriptor")).(pdf.Dictionary)
	f.applyDescriptor(doc, desc)
	f.std = lookupStandard(f.Name, f.bold, f.italic)
	f.loadWidths(doc, dict)
	f.resolveEncoding(doc, dict.Get("Encoding"))

	f.prog, _ = loadEmbeddedProgram(doc, desc)
	f.Embedded = f.prog != nil
	if f.prog == nil && f.cache != nil {
		f.sub = f.cache.substitutes().resolve(
			f.Name, f.isSerif(), f.isFixedPitch(), f.bold, f.italic)
	}
	return nil
}

func (f *Font) loadType3(doc *pdf.Document, dict pdf.Dictionary) error {
	if arr, ok := doc.ResolveReference(dict.Get("FontMatrix")).(pdf.Array); ok && len(arr) >= 6 {
		if a, ok := pdf.ToFloat(doc.ResolveReference(arr[0])); ok && a != 0 {
			f.fontMatrixA = a
		}
	}
	desc, _ := doc.ResolveReference(dict.Get("FontDescriptor")).(pdf.Dictionary)
	f.applyDescriptor(doc, desc)
	f.loadWidths(doc, dict)
	f.resolveEncoding(doc, dict.Get("Encoding"))
	return nil
}

func (f *Font) loadComposite(doc *pdf.Document, dict pdf.Dictionary) error {
	switch enc := doc.ResolveReference(dict.Get("Encoding")).(type) {
	case pdf.Name:
		cm, err := PredefinedCMap(string(enc))
		if err != nil {
			// An unregistered name still needs code segmentation to
			// keep going, and two-byte identity is the common layout.
			cm, _ = PredefinedCMap("Identity-H")
		}
		f.cmap = cm
	case pdf.Stream:
		data, err := enc.Decode()
		if err != nil {
			return fmt.Errorf("font: CMap stream: %w", err)
		}
		cm, err := ParseCMap(data)
		if err != nil {
			return err
		}
		f.cmap = cm
	default:
		f.cmap, _ = PredefinedCMap("Identity-H")
	}
	f.WMode = f.cmap.WMode

	descFonts, ok := doc.ResolveReference(dict.Get("DescendantFonts")).(pdf.Array)
	if !ok || len(descFonts) == 0 {
		return fmt.Errorf("%w: Type0 font %q has no descendant", pdf.ErrMalformedDocument, f.Name)
	}
	cid, ok := doc.ResolveReference(descFonts[0]).(pdf.Dictionary)
	if !ok {
		return fmt.Errorf("%w: Type0 font %q has no descendant", pdf.ErrMalformedDocument, f.Name)
	}

	if dw, ok := pdf.ToFloat(doc.ResolveReference(cid.Get("DW"))); ok {
		f.defaultWidth = dw / 1000
	}
	if w, ok := doc.ResolveReference(cid.Get("W")).(pdf.Array); ok {
		f.cidWidths = parseCIDWidths(doc, w)
	}
	if stream, ok := doc.ResolveReference(cid.Get("CIDToGIDMap")).(pdf.Stream); ok {
		if data, err := stream.Decode(); err == nil {
			f.cidToGID = parseCIDToGID(data)
		}
	}

	desc, _ := doc.ResolveReference(cid.Get("FontDescriptor")).(pdf.Dictionary)
	f.applyDescriptor(doc, desc)
	f.prog, _ = loadEmbeddedProgram(doc, desc)
	f.Embedded = f.prog != nil
	if f.prog == nil && f.cache != nil {
		f.sub = f.cache.substitutes().resolve(
			f.Name, f.isSerif(), f.isFixedPitch(), f.bold, f.italic)
	}
	return nil
}

func (f *Font) applyDescriptor(doc *pdf.Document, desc pdf.Dictionary) {
	n := strings.ToLower(stripSubsetTag(f.Name))
	if strings.Contains(n, "bold") || strings.Contains(n, "black") || strings.Contains(n, "heavy") {
		f.bold = true
	}
	if strings.Contains(n, "italic") || strings.Contains(n, "oblique") {
		f.italic = true
	}
	if desc == nil {
		return
	}
	if flags, ok := pdf.ToInt(doc.ResolveReference(desc.Get("Flags"))); ok {
		f.flags = flags
		if flags&(1<<6) != 0 {
			f.italic = true
		}
		if flags&(1<<18) != 0 {
			f.bold = true
		}
	}
	f.symbolic = f.flags&4 != 0 && f.flags&32 == 0
	if angle, ok := pdf.ToFloat(doc.ResolveReference(desc.Get("ItalicAngle"))); ok && angle != 0 {
		f.italic = true
	}
	if weight, ok := pdf.ToFloat(doc.ResolveReference(desc.Get("FontWeight"))); ok && weight >= 700 {
		f.bold = true
	}
	if stemV, ok := pdf.ToFloat(doc.ResolveReference(desc.Get("StemV"))); ok && stemV > 100 {
		f.bold = true
	}
	if mw, ok := pdf.ToFloat(doc.ResolveReference(desc.Get("MissingWidth"))); ok {
		f.missingWidth = mw * f.fontMatrixA
		f.hasMissingWidth = true
	}
}

func (f *Font) loadWidths(doc *pdf.Document, dict pdf.Dictionary) {
	if fc, ok := pdf.ToInt(doc.ResolveReference(dict.Get("FirstChar"))); ok {
		f.firstChar = int(fc)
	}
	arr, ok := doc.ResolveReference(dict.Get("Widths")).(pdf.Array)
	if !ok {
		return
	}
	f.widths = make([]float64, len(arr))
	for i, obj := range arr {
		if w, ok := pdf.ToFloat(doc.ResolveReference(obj)); ok {
			f.widths[i] = w * f.fontMatrixA
		}
	}
}

// resolveEncoding settles the code→glyph-name table for a simple font.
// The starting point is the font's own nature: Symbol and ZapfDingbats
// bring their built-in tables, other symbolic fonts keep no table so
// codes go straight to the program's cmap, and everything else starts
// from StandardEncoding.
func (f *Font) resolveEncoding(doc *pdf.Document, encObj pdf.Object) {
	var base *encodingTable
	switch {
	case f.std != nil && f.std.encoding != nil:
		base = f.std.encoding
	case f.symbolic:
		base = nil
	default:
		base = &standardEncoding
	}

	switch enc := doc.ResolveReference(encObj).(type) {
	case pdf.Name:
		if t := baseEncoding(string(enc)); t != nil {
			base = t
		}
	case pdf.Dictionary:
		if name, ok := enc.GetName("BaseEncoding"); ok {
			if t := baseEncoding(string(name)); t != nil {
				base = t
			}
		}
		if diffs, ok := doc.ResolveReference(enc.Get("Differences")).(pdf.Array); ok {
			if base == nil {
				base = &standardEncoding
			}
			base = applyDifferences(base, diffs, doc)
		}
	}
	f.encoding = base
}

// parseCIDWidths reads the W array of a CIDFont. Entries take two
// forms: "c [w1 w2 ...]" for consecutive CIDs starting at c, and
// "c1 c2 w" for an inclusive range at one width.
func parseCIDWidths(doc *pdf.Document, arr pdf.Array) map[uint32]float64 {
	out := make(map[uint32]float64)
	i := 0
	next := func() (pdf.Object, bool) {
		if i >= len(arr) {
			return nil, false
		}
		obj := doc.ResolveReference(arr[i])
		i++
		return obj, true
	}
	for {
		obj, ok := next()
		if !ok {
			break
		}
		start, okStart := pdf.ToInt(obj)
		if !okStart || start < 0 {
			continue
		}
		obj, ok = next()
		if !ok {
			break
		}
		if list, isList := obj.(pdf.Array); isList {
			for j, w := range list {
				if wf, ok := pdf.ToFloat(doc.ResolveReference(w)); ok {
					out[uint32(start)+uint32(j)] = wf / 1000
				}
			}
			continue
		}
		end, okEnd := pdf.ToInt(obj)
		obj, ok = next()
		if !ok {
			break
		}
		wf, okW := pdf.ToFloat(obj)
		if !okEnd || !okW || end < start {
			continue
		}
		if end-start > 0xFFFF {
			end = start + 0xFFFF
		}
		for c := start; c <= end; c++ {
			out[uint32(c)] = wf / 1000
		}
	}
	return out
}

// parseCIDToGID reads a CIDToGIDMap stream, two big-endian bytes per
// CID.
func parseCIDToGID(data []byte) []uint16 {
	out := make([]uint16, len(data)/2)
	for i := range out {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}

func (f *Font) isSerif() bool {
	return f.flags&2 != 0 || (f.std != nil && f.std.serif)
}

func (f *Font) isFixedPitch() bool {
	return f.flags&1 != 0 || (f.std != nil && f.std.fixedPitch)
}

// Subset reports whether the BaseFont name carries a subset tag.
func (f *Font) Subset() bool {
	return f.Name != stripSubsetTag(f.Name)
}

// HasToUnicode reports whether the font carries a ToUnicode CMap.
func (f *Font) HasToUnicode() bool {
	return f.toUnicode != nil
}

// Codes splits a content-stream string into character codes. Simple
// fonts consume one byte per code; composite fonts segment through the
// CMap's codespace ranges.
func (f *Font) Codes(b []byte) []CharCode {
	if !f.Composite || f.cmap == nil {
		codes := make([]CharCode, len(b))
		for i, c := range b {
			codes[i] = CharCode{Code: uint32(c), CID: uint32(c), Bytes: 1}
		}
		return codes
	}
	var codes []CharCode
	for i := 0; i < len(b); {
		code, n := f.cmap.NextCode(b[i:])
		if n <= 0 {
			break
		}
		codes = append(codes, CharCode{Code: code, CID: f.cmap.CID(code, n), Bytes: n})
		i += n
	}
	return codes
}

// Text returns the Unicode text for a code, preferring the ToUnicode
// CMap and falling back to the encoding's glyph name.
func (f *Font) Text(cc CharCode) []rune {
	if f.toUnicode != nil {
		if r, ok := f.toUnicode[cc.Code]; ok {
			return r
		}
	}
	if !f.Composite {
		if name := f.glyphName(cc.Code); name != "" {
			if r := glyphNameToRune(name); r != 0 {
				return []rune{r}
			}
		}
		if cc.Code >= 0x20 && cc.Code < 0x7F {
			return []rune{rune(cc.Code)}
		}
	}
	return nil
}

// GlyphForCode resolves one character code to an outline and advance.
// When the glyph cannot be resolved the returned Glyph still carries a
// valid advance alongside ErrUndefinedGlyph, so callers skip the shape
// without losing their place in the layout.
func (f *Font) GlyphForCode(cc CharCode) (Glyph, error) {
	g := Glyph{Advance: f.advanceForCode(cc)}
	if f.Type3 {
		// Type3 glyphs are content streams, not outlines. Metrics
		// carry the layout; the shapes are skipped.
		return g, ErrUndefinedGlyph
	}
	outline, err := f.outlineForCode(cc)
	if err != nil {
		return g, err
	}
	g.Outline = outline
	return g, nil
}

// Advance returns the horizontal advance for cc in text space units
// without touching the outline. Invisible text still moves the pen.
func (f *Font) Advance(cc CharCode) float64 {
	return f.advanceForCode(cc)
}

func (f *Font) advanceForCode(cc CharCode) float64 {
	if f.Composite {
		if w, ok := f.cidWidths[cc.CID]; ok {
			return w
		}
		return f.defaultWidth
	}
	idx := int(cc.Code) - f.firstChar
	if idx >= 0 && idx < len(f.widths) {
		return f.widths[idx]
	}
	if len(f.widths) > 0 && f.hasMissingWidth {
		return f.missingWidth
	}
	if f.std != nil {
		if name := f.glyphName(cc.Code); name != "" {
			return f.std.Width(name) / 1000
		}
		return f.std.defaultWidth / 1000
	}
	if f.prog != nil {
		if gid, ok := f.simpleGID(cc.Code); ok {
			if w, ok := f.prog.advance(gid); ok {
				return w
			}
		}
	}
	if f.sub != nil {
		if s := f.shapeForCode(cc); s.ok {
			return s.advance
		}
	}
	if f.Type3 {
		return 0
	}
	return 0.5
}

func (f *Font) outlineForCode(cc CharCode) (*scene.Path, error) {
	if f.Composite {
		return f.compositeOutline(cc)
	}
	return f.simpleOutline(cc)
}

func (f *Font) simpleOutline(cc CharCode) (*scene.Path, error) {
	if f.prog != nil {
		gid, ok := f.simpleGID(cc.Code)
		if !ok {
			return nil, ErrUndefinedGlyph
		}
		return f.cachedOutline(gid, f.prog)
	}
	if f.sub != nil {
		s := f.shapeForCode(cc)
		if !s.ok {
			return nil, ErrUndefinedGlyph
		}
		return f.cachedOutline(s.gid, f.sub.outline)
	}
	return nil, ErrUndefinedGlyph
}

func (f *Font) compositeOutline(cc CharCode) (*scene.Path, error) {
	if f.prog != nil {
		gid := cc.CID
		if f.cidToGID != nil {
			if int(cc.CID) < len(f.cidToGID) {
				gid = uint32(f.cidToGID[cc.CID])
			} else {
				gid = 0
			}
		}
		if gid == 0 {
			return nil, ErrUndefinedGlyph
		}
		return f.cachedOutline(gid, f.prog)
	}
	if f.sub != nil {
		s := f.shapeForCode(cc)
		if !s.ok {
			return nil, ErrUndefinedGlyph
		}
		return f.cachedOutline(s.gid, f.sub.outline)
	}
	return nil, ErrUndefinedGlyph
}

// simpleGID runs the code→glyph-index chain against the embedded
// program: glyph name through the standard name list, the code as a
// character, the code in the 0xF000 symbol page, and finally the code
// as a raw index.
func (f *Font) simpleGID(code uint32) (uint32, bool) {
	if f.prog == nil {
		return 0, false
	}
	name := f.glyphName(code)
	if name != "" {
		if r := glyphNameToRune(name); r != 0 {
			if gid := f.prog.gidForRune(r); gid != 0 {
				return gid, true
			}
		}
	}
	if gid := f.prog.gidForRune(rune(code)); gid != 0 {
		return gid, true
	}
	if gid := f.prog.gidForRune(rune(0xF000 | code)); gid != 0 {
		return gid, true
	}
	if code != 0 {
		return code, true
	}
	return 0, false
}

func (f *Font) glyphName(code uint32) string {
	if f.encoding == nil || code > 255 {
		return ""
	}
	return f.encoding[code]
}

// shapeForCode maps a code to a substitute glyph, memoized per font.
// The rune comes from ToUnicode when present, then the encoding, then
// the code itself for simple fonts.
func (f *Font) shapeForCode(cc CharCode) shapedCode {
	f.mu.Lock()
	if s, ok := f.shaped[cc.Code]; ok {
		f.mu.Unlock()
		return s
	}
	f.mu.Unlock()

	var s shapedCode
	r := f.runeForCode(cc)
	if r != 0 && f.sub != nil && f.cache != nil {
		s.gid, s.advance, s.ok = f.cache.substitutes().shapeRune(f.sub, r)
	}

	f.mu.Lock()
	if prev, ok := f.shaped[cc.Code]; ok {
		s = prev
	} else {
		f.shaped[cc.Code] = s
	}
	f.mu.Unlock()
	return s
}

func (f *Font) runeForCode(cc CharCode) rune {
	if f.toUnicode != nil {
		if r, ok := f.toUnicode[cc.Code]; ok && len(r) > 0 {
			return r[0]
		}
	}
	if f.Composite {
		return 0
	}
	if name := f.glyphName(cc.Code); name != "" {
		if r := glyphNameToRune(name); r != 0 {
			return r
		}
	}
	if cc.Code != 0 {
		return rune(cc.Code)
	}
	return 0
}

func (f *Font) cachedOutline(gid uint32, src glyphProgram) (*scene.Path, error) {
	if f.cache == nil {
		return src.outline(gid)
	}
	return f.cache.glyph(f, gid, func() (*scene.Path, error) {
		return src.outline(gid)
	})
}
