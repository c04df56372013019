// Package scene defines the resolution-independent drawing model produced
// by the content interpreter and consumed by the rasterization backends. A
// Scene is an ordered list of paint operations in user-space coordinates;
// nothing in it depends on the output resolution, so one Scene can be
// rasterized at any scale.
package scene

// FillRule selects how a path's interior is determined.
type FillRule uint8

const (
	FillNonZero FillRule = iota
	FillEvenOdd
)

// LineCap is the shape drawn at the ends of open subpaths.
type LineCap uint8

const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

// LineJoin is the shape drawn where two segments meet.
type LineJoin uint8

const (
	JoinMiter LineJoin = iota
	JoinRound
	JoinBevel
)

// StrokeStyle describes pen geometry in user-space units. The backend
// scales Width and Dash by the op transform's scale factor when expanding
// the stroke.
type StrokeStyle struct {
	Width      float64
	Cap        LineCap
	Join       LineJoin
	MiterLimit float64
	Dash       []float64
	DashPhase  float64
}

// DefaultStrokeStyle returns the graphics-state defaults: a one-unit butt
// capped miter-joined pen with miter limit 10 and no dash.
func DefaultStrokeStyle() StrokeStyle {
	return StrokeStyle{
		Width:      1,
		Cap:        CapButt,
		Join:       JoinMiter,
		MiterLimit: 10,
	}
}

// OpKind identifies one paint operation kind.
type OpKind uint8

const (
	OpFill OpKind = iota
	OpStroke
	OpGlyphRun
	OpImage
	OpShading
	OpPushClip
	OpPopClip
)

// Image is decoded raster data ready for compositing: straight-alpha RGBA8,
// row-major, 4 bytes per pixel. The op transform maps the unit square onto
// the placement in user space, so Pix is sampled with (0,0) at the image's
// top-left row.
type Image struct {
	Width, Height int
	Pix           []uint8
	IsMask        bool // stencil mask, painted in the op color
	Interpolate   bool
}

// PositionedGlyph places one cached glyph outline. Outline is borrowed from
// the glyph cache and must not be mutated. Transform maps the outline's
// glyph units into user space, including font size and text position.
type PositionedGlyph struct {
	Outline   *Path
	Transform Matrix
}

// Op is one paint operation together with the graphics-state fields it
// needs. Which fields are meaningful depends on Kind:
//
//	OpFill      Path, Rule, Color
//	OpStroke    Path, Stroke, Color
//	OpGlyphRun  Glyphs, Color
//	OpImage     Image, Alpha (Color for masks)
//	OpShading   Shading, Alpha
//	OpPushClip  Path, Rule
//	OpPopClip   nothing
//
// Transform is the current transformation matrix snapshot for every kind.
type Op struct {
	Kind      OpKind
	Transform Matrix
	Path      *Path
	Rule      FillRule
	Color     Color
	Stroke    StrokeStyle
	Glyphs    []PositionedGlyph
	Image     *Image
	Shading   *Shading
	Alpha     float64
}

// Scene is the immutable paint list for one page. Width and Height are the
// page extent in points; backends multiply by the requested scale to size
// the output. Ops composite strictly in order, later over earlier.
type Scene struct {
	Width  float64
	Height float64
	Ops    []Op
}

// Builder accumulates ops in emission order. It is append-only; the one
// structural guarantee it adds is clip balance, so backends never see a pop
// without a matching push.
type Builder struct {
	width     float64
	height    float64
	ops       []Op
	clipDepth int
}

// NewBuilder returns a builder for a page of the given extent in points.
func NewBuilder(width, height float64) *Builder {
	return &Builder{width: width, height: height}
}

// FillPath appends a filled path.
func (b *Builder) FillPath(ctm Matrix, path *Path, rule FillRule, color Color) {
	if path.Empty() {
		return
	}
	b.ops = append(b.ops, Op{Kind: OpFill, Transform: ctm, Path: path, Rule: rule, Color: color})
}

// StrokePath appends a stroked path.
func (b *Builder) StrokePath(ctm Matrix, path *Path, style StrokeStyle, color Color) {
	if path.Empty() {
		return
	}
	b.ops = append(b.ops, Op{Kind: OpStroke, Transform: ctm, Path: path, Stroke: style, Color: color})
}

// GlyphRun appends a run of filled glyphs.
func (b *Builder) GlyphRun(ctm Matrix, glyphs []PositionedGlyph, color Color) {
	if len(glyphs) == 0 {
		return
	}
	b.ops = append(b.ops, Op{Kind: OpGlyphRun, Transform: ctm, Glyphs: glyphs, Color: color})
}

// DrawImage appends an image placement. For stencil masks color is the
// paint color; alpha applies to both.
func (b *Builder) DrawImage(ctm Matrix, img *Image, color Color, alpha float64) {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return
	}
	b.ops = append(b.ops, Op{Kind: OpImage, Transform: ctm, Image: img, Color: color, Alpha: alpha})
}

// DrawShading appends a gradient fill covering the current clip region.
func (b *Builder) DrawShading(ctm Matrix, sh *Shading, alpha float64) {
	if sh == nil {
		return
	}
	b.ops = append(b.ops, Op{Kind: OpShading, Transform: ctm, Shading: sh, Alpha: alpha})
}

// PushClip appends a clip intersection.
func (b *Builder) PushClip(ctm Matrix, path *Path, rule FillRule) {
	if path.Empty() {
		// Degenerate clip still needs a stack entry so the matching pop
		// stays balanced. An empty path clips everything away.
		path = NewPath()
	}
	b.ops = append(b.ops, Op{Kind: OpPushClip, Transform: ctm, Path: path, Rule: rule})
	b.clipDepth++
}

// PopClip restores the clip active before the matching PushClip. Pops
// without a matching push are dropped.
func (b *Builder) PopClip() {
	if b.clipDepth == 0 {
		return
	}
	b.ops = append(b.ops, Op{Kind: OpPopClip})
	b.clipDepth--
}

// Len returns the number of ops appended so far.
func (b *Builder) Len() int {
	return len(b.ops)
}

// Finish closes any clips left open and returns the immutable scene. The
// builder must not be used afterwards.
func (b *Builder) Finish() *Scene {
	for b.clipDepth > 0 {
		b.ops = append(b.ops, Op{Kind: OpPopClip})
		b.clipDepth--
	}
	s := &Scene{Width: b.width, Height: b.height, Ops: b.ops}
	b.ops = nil
	return s
}
