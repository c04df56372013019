package font

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/novvoo/go-pdfrender/pkg/pdf"
	"github.com/novvoo/go-pdfrender/pkg/scene"
)

// glyphProgram is an outline source, either an embedded font program
// or a substitute loaded from the host system. Outlines come back in
// em units with y up, matching text space before the text matrix is
// applied.
type glyphProgram interface {
	outline(gid uint32) (*scene.Path, error)
	advance(gid uint32) (float64, bool)
	gidForRune(r rune) uint32
}

// loadEmbeddedProgram pulls the font program out of a FontDescriptor.
// A missing program returns (nil, nil); the caller then falls back to
// builtin metrics or a substitute. FontFile holds bare Type 1, which
// no parser in the stack reads, so it reports ErrUnsupportedFontProgram
// and lets the substitute path take over.
func loadEmbeddedProgram(doc *pdf.Document, desc pdf.Dictionary) (glyphProgram, error) {
	if desc == nil {
		return nil, nil
	}
	if stream, ok := doc.ResolveReference(desc.Get("FontFile2")).(pdf.Stream); ok {
		data, err := stream.Decode()
		if err != nil {
			return nil, err
		}
		prog, err := parseTrueType(data)
		if err == nil {
			return prog, nil
		}
		// Some producers wrap TrueType outlines in an OpenType
		// container under FontFile2.
		if sp, err2 := parseSFNT(data); err2 == nil {
			return sp, nil
		}
		return nil, err
	}
	if stream, ok := doc.ResolveReference(desc.Get("FontFile3")).(pdf.Stream); ok {
		data, err := stream.Decode()
		if err != nil {
			return nil, err
		}
		prog, err := parseSFNT(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFontProgram, err)
		}
		return prog, nil
	}
	if _, ok := doc.ResolveReference(desc.Get("FontFile")).(pdf.Stream); ok {
		return nil, ErrUnsupportedFontProgram
	}
	return nil, nil
}

// truetypeProgram reads TrueType outlines via freetype. Loading at
// scale upem<<6 keeps the 26.6 coordinates in raw font units, so one
// divide by 64*upem lands in em space. GlyphBuf is reused across
// loads, which is what the mutex guards.
type truetypeProgram struct {
	font *truetype.Font
	upem float64

	mu  sync.Mutex
	buf truetype.GlyphBuf
}

func parseTrueType(data []byte) (*truetypeProgram, error) {
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFontProgram, err)
	}
	upem := float64(f.FUnitsPerEm())
	if upem <= 0 {
		upem = 1000
	}
	return &truetypeProgram{font: f, upem: upem}, nil
}

func (p *truetypeProgram) scale() fixed.Int26_6 {
	return fixed.Int26_6(int32(p.upem) << 6)
}

func (p *truetypeProgram) outline(gid uint32) (*scene.Path, error) {
	if gid > 0xFFFF {
		return nil, ErrUndefinedGlyph
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.buf.Load(p.font, p.scale(), truetype.Index(gid), xfont.HintingNone); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndefinedGlyph, err)
	}
	div := 64 * p.upem
	path := &scene.Path{}
	start := 0
	for _, end := range p.buf.Ends {
		if end > len(p.buf.Points) {
			end = len(p.buf.Points)
		}
		if end > start {
			appendQuadContour(path, p.buf.Points[start:end], div)
		}
		start = end
	}
	return path, nil
}

func (p *truetypeProgram) advance(gid uint32) (float64, bool) {
	if gid > 0xFFFF {
		return 0, false
	}
	p.mu.Lock()
	hm := p.font.HMetric(p.scale(), truetype.Index(gid))
	p.mu.Unlock()
	w := float64(hm.AdvanceWidth) / (64 * p.upem)
	return w, w > 0
}

func (p *truetypeProgram) gidForRune(r rune) uint32 {
	return uint32(p.font.Index(r))
}

// appendQuadContour converts one TrueType contour to cubic path
// segments. Off-curve points are quadratic controls; two in a row
// imply an on-curve midpoint between them.
func appendQuadContour(path *scene.Path, pts []truetype.Point, div float64) {
	onCurve := func(p truetype.Point) bool { return p.Flags&1 != 0 }
	px := func(p truetype.Point) (float64, float64) {
		return float64(p.X) / div, float64(p.Y) / div
	}

	var sx, sy float64
	switch {
	case onCurve(pts[0]):
		sx, sy = px(pts[0])
		pts = pts[1:]
	case onCurve(pts[len(pts)-1]):
		sx, sy = px(pts[len(pts)-1])
		pts = pts[:len(pts)-1]
	default:
		x0, y0 := px(pts[0])
		x1, y1 := px(pts[len(pts)-1])
		sx, sy = (x0+x1)/2, (y0+y1)/2
	}
	path.MoveTo(sx, sy)

	cx, cy := sx, sy
	haveCtrl := false
	var qx, qy float64
	for i := range pts {
		x, y := px(pts[i])
		if onCurve(pts[i]) {
			if haveCtrl {
				quadTo(path, cx, cy, qx, qy, x, y)
				haveCtrl = false
			} else {
				path.LineTo(x, y)
			}
			cx, cy = x, y
			continue
		}
		if haveCtrl {
			mx, my := (qx+x)/2, (qy+y)/2
			quadTo(path, cx, cy, qx, qy, mx, my)
			cx, cy = mx, my
		}
		qx, qy = x, y
		haveCtrl = true
	}
	if haveCtrl {
		quadTo(path, cx, cy, qx, qy, sx, sy)
	}
	path.Close()
}

// quadTo lifts a quadratic segment to the cubic the path type stores.
func quadTo(path *scene.Path, x0, y0, qx, qy, x1, y1 float64) {
	c1x := x0 + 2.0/3.0*(qx-x0)
	c1y := y0 + 2.0/3.0*(qy-y0)
	c2x := x1 + 2.0/3.0*(qx-x1)
	c2y := y1 + 2.0/3.0*(qy-y1)
	path.CurveTo(c1x, c1y, c2x, c2y, x1, y1)
}

// sfntProgram reads outlines through x/image/font/sfnt, which covers
// OpenType with CFF outlines. LoadGlyph reports y down, so the y axis
// flips on the way out.
type sfntProgram struct {
	font *sfnt.Font
	upem float64

	mu  sync.Mutex
	buf sfnt.Buffer
}

func parseSFNT(data []byte) (*sfntProgram, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFontProgram, err)
	}
	upem := float64(f.UnitsPerEm())
	if upem <= 0 {
		upem = 1000
	}
	return &sfntProgram{font: f, upem: upem}, nil
}

func (p *sfntProgram) ppem() fixed.Int26_6 {
	return fixed.Int26_6(int32(p.upem) << 6)
}

func (p *sfntProgram) outline(gid uint32) (*scene.Path, error) {
	if gid > 0xFFFF {
		return nil, ErrUndefinedGlyph
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	segs, err := p.font.LoadGlyph(&p.buf, sfnt.GlyphIndex(gid), p.ppem(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndefinedGlyph, err)
	}
	div := 64 * p.upem
	pt := func(a fixed.Point26_6) (float64, float64) {
		return float64(a.X) / div, -float64(a.Y) / div
	}
	path := &scene.Path{}
	open := false
	var cx, cy float64
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				path.Close()
			}
			cx, cy = pt(seg.Args[0])
			path.MoveTo(cx, cy)
			open = true
		case sfnt.SegmentOpLineTo:
			cx, cy = pt(seg.Args[0])
			path.LineTo(cx, cy)
		case sfnt.SegmentOpQuadTo:
			qx, qy := pt(seg.Args[0])
			x, y := pt(seg.Args[1])
			quadTo(path, cx, cy, qx, qy, x, y)
			cx, cy = x, y
		case sfnt.SegmentOpCubeTo:
			c1x, c1y := pt(seg.Args[0])
			c2x, c2y := pt(seg.Args[1])
			x, y := pt(seg.Args[2])
			path.CurveTo(c1x, c1y, c2x, c2y, x, y)
			cx, cy = x, y
		}
	}
	if open {
		path.Close()
	}
	return path, nil
}

func (p *sfntProgram) advance(gid uint32) (float64, bool) {
	if gid > 0xFFFF {
		return 0, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	adv, err := p.font.GlyphAdvance(&p.buf, sfnt.GlyphIndex(gid), p.ppem(), xfont.HintingNone)
	if err != nil {
		return 0, false
	}
	w := float64(adv) / (64 * p.upem)
	return w, w > 0
}

func (p *sfntProgram) gidForRune(r rune) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	gid, err := p.font.GlyphIndex(&p.buf, r)
	if err != nil {
		return 0
	}
	return uint32(gid)
}
