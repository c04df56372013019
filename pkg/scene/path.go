package scene

import "math"

// PathVerb identifies one segment kind in a path.
type PathVerb uint8

const (
	VerbMoveTo PathVerb = iota
	VerbLineTo
	VerbCurveTo // cubic Bezier, three control points
	VerbClose
)

// Point is a position in user-space coordinates.
type Point struct {
	X, Y float64
}

// pointsFor returns how many points the verb consumes.
func pointsFor(v PathVerb) int {
	switch v {
	case VerbMoveTo, VerbLineTo:
		return 1
	case VerbCurveTo:
		return 3
	default:
		return 0
	}
}

// Path is an ordered sequence of subpaths built from move/line/cubic
// segments. Coordinates are in user space until a backend maps them to the
// device. A Path handed to a Scene must not be mutated afterwards.
type Path struct {
	Verbs  []PathVerb
	Points []Point
}

// NewPath returns an empty path.
func NewPath() *Path {
	return &Path{}
}

// MoveTo starts a new subpath at (x, y).
func (p *Path) MoveTo(x, y float64) {
	p.Verbs = append(p.Verbs, VerbMoveTo)
	p.Points = append(p.Points, Point{x, y})
}

// LineTo appends a straight segment to (x, y).
func (p *Path) LineTo(x, y float64) {
	p.Verbs = append(p.Verbs, VerbLineTo)
	p.Points = append(p.Points, Point{x, y})
}

// CurveTo appends a cubic Bezier segment with control points (x1, y1) and
// (x2, y2) ending at (x3, y3).
func (p *Path) CurveTo(x1, y1, x2, y2, x3, y3 float64) {
	p.Verbs = append(p.Verbs, VerbCurveTo)
	p.Points = append(p.Points, Point{x1, y1}, Point{x2, y2}, Point{x3, y3})
}

// Close closes the current subpath.
func (p *Path) Close() {
	p.Verbs = append(p.Verbs, VerbClose)
}

// Rect appends a closed rectangular subpath.
func (p *Path) Rect(x, y, w, h float64) {
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h)
	p.LineTo(x, y+h)
	p.Close()
}

// Empty reports whether the path has no segments.
func (p *Path) Empty() bool {
	return p == nil || len(p.Verbs) == 0
}

// Clone returns a deep copy of the path.
func (p *Path) Clone() *Path {
	if p == nil {
		return nil
	}
	c := &Path{
		Verbs:  make([]PathVerb, len(p.Verbs)),
		Points: make([]Point, len(p.Points)),
	}
	copy(c.Verbs, p.Verbs)
	copy(c.Points, p.Points)
	return c
}

// Append appends all segments of other to p.
func (p *Path) Append(other *Path) {
	if other == nil {
		return
	}
	p.Verbs = append(p.Verbs, other.Verbs...)
	p.Points = append(p.Points, other.Points...)
}

// Transform returns a copy of the path with the matrix applied to every
// point.
func (p *Path) Transform(m Matrix) *Path {
	c := p.Clone()
	if c == nil {
		return nil
	}
	for i := range c.Points {
		c.Points[i] = m.TransformPoint(c.Points[i])
	}
	return c
}

// Bounds returns the bounding box of the path's control points. Curve
// control points are included, so the box may be slightly larger than the
// drawn shape. The second result is false for an empty path.
func (p *Path) Bounds() (Rect, bool) {
	if p.Empty() || len(p.Points) == 0 {
		return Rect{}, false
	}
	r := Rect{p.Points[0].X, p.Points[0].Y, p.Points[0].X, p.Points[0].Y}
	for _, pt := range p.Points[1:] {
		r.MinX = math.Min(r.MinX, pt.X)
		r.MinY = math.Min(r.MinY, pt.Y)
		r.MaxX = math.Max(r.MaxX, pt.X)
		r.MaxY = math.Max(r.MaxY, pt.Y)
	}
	return r, true
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the rectangle width.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the rectangle height.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Intersect returns the intersection of two rectangles. An empty
// intersection has non-positive width or height.
func (r Rect) Intersect(o Rect) Rect {
	return Rect{
		MinX: math.Max(r.MinX, o.MinX),
		MinY: math.Max(r.MinY, o.MinY),
		MaxX: math.Min(r.MaxX, o.MaxX),
		MaxY: math.Min(r.MaxY, o.MaxY),
	}
}

// IsEmpty reports whether the rectangle encloses no area.
func (r Rect) IsEmpty() bool {
	return r.MaxX <= r.MinX || r.MaxY <= r.MinY
}
