package raster

import (
	"math"

	"github.com/novvoo/go-pdfrender/pkg/scene"
)

// flattenTolerance is the maximum chord distance, in device pixels, a
// flattened curve may deviate from the true cubic.
const flattenTolerance = 0.25

// maxFlattenDepth bounds the recursive subdivision of one cubic.
const maxFlattenDepth = 16

// polyline is one flattened subpath in device coordinates.
type polyline struct {
	pts    []scene.Point
	closed bool
}

// flattenPath converts a path into device-space polylines, applying the
// transform per point and subdividing cubics until they are straight
// within flattenTolerance. Subpaths with fewer than two distinct points
// are kept so strokers can render cap-only dots.
func flattenPath(p *scene.Path, m scene.Matrix) []polyline {
	if p.Empty() {
		return nil
	}
	var out []polyline
	var cur polyline
	flush := func() {
		if len(cur.pts) > 0 {
			out = append(out, cur)
		}
		cur = polyline{}
	}

	pi := 0
	var last scene.Point
	for _, verb := range p.Verbs {
		switch verb {
		case scene.VerbMoveTo:
			flush()
			last = m.TransformPoint(p.Points[pi])
			pi++
			cur.pts = append(cur.pts, last)
		case scene.VerbLineTo:
			pt := m.TransformPoint(p.Points[pi])
			pi++
			if len(cur.pts) == 0 {
				cur.pts = append(cur.pts, pt)
			} else if !nearEqual(pt, last) {
				cur.pts = append(cur.pts, pt)
			}
			last = pt
		case scene.VerbCurveTo:
			c1 := m.TransformPoint(p.Points[pi])
			c2 := m.TransformPoint(p.Points[pi+1])
			end := m.TransformPoint(p.Points[pi+2])
			pi += 3
			if len(cur.pts) == 0 {
				cur.pts = append(cur.pts, c1)
				last = c1
			}
			cur.pts = flattenCubic(cur.pts, last, c1, c2, end, 0)
			if n := len(cur.pts); n > 0 {
				last = cur.pts[n-1]
			}
		case scene.VerbClose:
			cur.closed = true
			flush()
			// a segment after close restarts at the subpath origin,
			// which the interpreter encodes as an explicit move
		}
	}
	flush()
	return out
}

// flattenCubic appends line endpoints approximating the cubic from p0 to
// p3. p0 itself is assumed already appended.
func flattenCubic(dst []scene.Point, p0, p1, p2, p3 scene.Point, depth int) []scene.Point {
	if depth >= maxFlattenDepth || cubicFlat(p0, p1, p2, p3) {
		if !nearEqual(p3, p0) {
			dst = append(dst, p3)
		}
		return dst
	}
	// de Casteljau split at t = 0.5
	ab := midpoint(p0, p1)
	bc := midpoint(p1, p2)
	cd := midpoint(p2, p3)
	abc := midpoint(ab, bc)
	bcd := midpoint(bc, cd)
	mid := midpoint(abc, bcd)
	dst = flattenCubic(dst, p0, ab, abc, mid, depth+1)
	return flattenCubic(dst, mid, bcd, cd, p3, depth+1)
}

// cubicFlat reports whether both control points lie within the tolerance
// of the chord from p0 to p3.
func cubicFlat(p0, p1, p2, p3 scene.Point) bool {
	return distanceToChord(p1, p0, p3) <= flattenTolerance &&
		distanceToChord(p2, p0, p3) <= flattenTolerance
}

// distanceToChord returns the distance from pt to the segment a-b.
func distanceToChord(pt, a, b scene.Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	len2 := dx*dx + dy*dy
	if len2 < 1e-12 {
		return math.Hypot(pt.X-a.X, pt.Y-a.Y)
	}
	// perpendicular distance via the cross product
	cross := (pt.X-a.X)*dy - (pt.Y-a.Y)*dx
	return math.Abs(cross) / math.Sqrt(len2)
}

func midpoint(a, b scene.Point) scene.Point {
	return scene.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

func nearEqual(a, b scene.Point) bool {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx+dy*dy < 1e-18
}
