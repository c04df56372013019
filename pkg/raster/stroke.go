package raster

import (
	"math"

	"github.com/novvoo/go-pdfrender/pkg/scene"
)

// strokePolylines expands a stroked path into closed outline rings in
// device space, ready for a nonzero fill. Pen geometry is expressed in
// user units; the transform's scale factor converts width, dash lengths,
// and phase to device pixels. A zero or negative width strokes the
// thinnest visible line, one device pixel.
func strokePolylines(p *scene.Path, style scene.StrokeStyle, m scene.Matrix) []polyline {
	scale := m.ScaleFactor()
	width := style.Width * scale
	if width <= 0 {
		width = 1
	}

	lines := flattenPath(p, m)
	if dash := scaleDash(style.Dash, scale); dash != nil {
		lines = applyDash(lines, dash, style.DashPhase*scale)
	}

	half := width / 2
	var out []polyline
	for _, pl := range lines {
		out = append(out, strokeOne(pl, half, style)...)
	}
	return out
}

// scaleDash converts a dash pattern to device units, dropping patterns
// that cannot produce visible dashes.
func scaleDash(dash []float64, scale float64) []float64 {
	if len(dash) == 0 {
		return nil
	}
	scaled := make([]float64, len(dash))
	sum := 0.0
	for i, d := range dash {
		if d < 0 {
			d = 0
		}
		scaled[i] = d * scale
		sum += scaled[i]
	}
	if sum <= 0 {
		return nil
	}
	return scaled
}

// dashStart walks the phase into the pattern, returning the entry index
// and the remaining length of that entry.
func dashStart(pattern []float64, phase float64) (idx int, rem float64) {
	if phase < 0 {
		phase = 0
	}
	rem = pattern[0]
	for phase >= rem && phase > 0 {
		phase -= rem
		idx++
		rem = pattern[idx%len(pattern)]
	}
	rem -= phase
	return idx, rem
}

// applyDash splits polylines into alternating on/off pieces. Every piece
// comes back open; closed subpaths are walked once around including the
// closing segment, with the pattern starting fresh at the subpath start.
func applyDash(lines []polyline, pattern []float64, phase float64) []polyline {
	var out []polyline
	for _, pl := range lines {
		pts := pl.pts
		if len(pts) < 2 {
			if len(pts) == 1 {
				out = append(out, pl)
			}
			continue
		}
		if pl.closed && !nearEqual(pts[0], pts[len(pts)-1]) {
			closedPts := make([]scene.Point, 0, len(pts)+1)
			closedPts = append(closedPts, pts...)
			closedPts = append(closedPts, pts[0])
			pts = closedPts
		}

		idx, rem := dashStart(pattern, phase)
		on := idx%2 == 0
		var cur []scene.Point
		emit := func(at scene.Point) {
			if on {
				if len(cur) == 1 {
					// zero-length dash, rendered as a cap-only dot
					cur = append(cur, cur[0])
				}
				if len(cur) >= 2 {
					out = append(out, polyline{pts: cur})
				}
			}
			on = !on
			if on {
				cur = []scene.Point{at}
			} else {
				cur = nil
			}
		}
		if on {
			cur = []scene.Point{pts[0]}
		}

		for i := 1; i < len(pts); i++ {
			a, b := pts[i-1], pts[i]
			segLen := math.Hypot(b.X-a.X, b.Y-a.Y)
			if segLen == 0 {
				continue
			}
			ux := (b.X - a.X) / segLen
			uy := (b.Y - a.Y) / segLen
			walked := 0.0
			for walked < segLen {
				if rem <= 0 {
					// zero-length pattern entry toggles in place
					pt := scene.Point{X: a.X + ux*walked, Y: a.Y + uy*walked}
					idx++
					rem = pattern[idx%len(pattern)]
					emit(pt)
					continue
				}
				step := math.Min(rem, segLen-walked)
				walked += step
				rem -= step
				pt := scene.Point{X: a.X + ux*walked, Y: a.Y + uy*walked}
				if on {
					cur = append(cur, pt)
				}
				if rem <= 0 {
					idx++
					rem = pattern[idx%len(pattern)]
					emit(pt)
				}
			}
		}
		if on {
			if len(cur) == 1 && rem <= 0 {
				// zero-length dash exactly at the subpath end
				cur = append(cur, cur[0])
			}
			if len(cur) >= 2 {
				out = append(out, polyline{pts: cur})
			}
		}
	}
	return out
}

// strokeOne builds the outline rings for one flattened subpath.
func strokeOne(pl polyline, half float64, style scene.StrokeStyle) []polyline {
	pts := dedupePoints(pl.pts)
	if pl.closed && len(pts) > 1 && nearEqual(pts[0], pts[len(pts)-1]) {
		pts = pts[:len(pts)-1]
	}
	n := len(pts)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return dotRing(pts[0], half, style.Cap)
	}

	if pl.closed && n >= 3 {
		outer := offsetRing(pts, half, style)
		inner := offsetRing(reversePoints(pts), half, style)
		return []polyline{
			{pts: outer, closed: true},
			{pts: inner, closed: true},
		}
	}

	// open subpath: down one side, around the end cap, back up the other
	// side, and around the start cap via the ring-closing edge
	fwd := offsetOpenSide(pts, half, style)
	rev := reversePoints(pts)
	bwd := offsetOpenSide(rev, half, style)

	endDir := unitDir(pts[n-2], pts[n-1])
	startDir := unitDir(pts[1], pts[0])

	ring := fwd
	ring = appendCap(ring, pts[n-1], fwd[len(fwd)-1], bwd[0], endDir, style.Cap, half)
	ring = append(ring, bwd...)
	ring = appendCap(ring, pts[0], bwd[len(bwd)-1], fwd[0], startDir, style.Cap, half)
	return []polyline{{pts: ring, closed: true}}
}

// dedupePoints removes consecutive near-coincident points.
func dedupePoints(pts []scene.Point) []scene.Point {
	if len(pts) == 0 {
		return nil
	}
	out := make([]scene.Point, 0, len(pts))
	out = append(out, pts[0])
	for _, pt := range pts[1:] {
		if !nearEqual(pt, out[len(out)-1]) {
			out = append(out, pt)
		}
	}
	return out
}

func reversePoints(pts []scene.Point) []scene.Point {
	out := make([]scene.Point, len(pts))
	for i, pt := range pts {
		out[len(pts)-1-i] = pt
	}
	return out
}

// unitDir returns the unit vector from a toward b.
func unitDir(a, b scene.Point) scene.Point {
	dx := b.X - a.X
	dy := b.Y - a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return scene.Point{X: 1}
	}
	return scene.Point{X: dx / l, Y: dy / l}
}

// leftNormal returns the unit normal to the left of the travel direction.
func leftNormal(dir scene.Point) scene.Point {
	return scene.Point{X: dir.Y, Y: -dir.X}
}

// offsetOpenSide offsets an open polyline to the left of travel, inserting
// join geometry at each interior vertex.
func offsetOpenSide(pts []scene.Point, half float64, style scene.StrokeStyle) []scene.Point {
	n := len(pts)
	dirs := make([]scene.Point, n-1)
	for i := 0; i < n-1; i++ {
		dirs[i] = unitDir(pts[i], pts[i+1])
	}

	first := leftNormal(dirs[0])
	out := []scene.Point{{X: pts[0].X + first.X*half, Y: pts[0].Y + first.Y*half}}
	for i := 1; i < n-1; i++ {
		out = appendJoin(out, pts[i], dirs[i-1], dirs[i], half, style)
	}
	last := leftNormal(dirs[n-2])
	out = append(out, scene.Point{X: pts[n-1].X + last.X*half, Y: pts[n-1].Y + last.Y*half})
	return out
}

// offsetRing offsets a closed polyline to the left of travel with a join
// at every vertex, including the one between the last and first segment.
func offsetRing(pts []scene.Point, half float64, style scene.StrokeStyle) []scene.Point {
	n := len(pts)
	dirs := make([]scene.Point, n)
	for i := 0; i < n; i++ {
		dirs[i] = unitDir(pts[i], pts[(i+1)%n])
	}
	var out []scene.Point
	for i := 0; i < n; i++ {
		prev := dirs[(i+n-1)%n]
		out = appendJoin(out, pts[i], prev, dirs[i], half, style)
	}
	return out
}

// appendJoin appends the offset points around vertex v where travel turns
// from dirIn to dirOut. On the outside of the turn the configured join
// shape is inserted; on the inside the two offsets connect directly and
// the nonzero fill absorbs the overlap.
func appendJoin(out []scene.Point, v, dirIn, dirOut scene.Point, half float64, style scene.StrokeStyle) []scene.Point {
	nIn := leftNormal(dirIn)
	nOut := leftNormal(dirOut)
	pIn := scene.Point{X: v.X + nIn.X*half, Y: v.Y + nIn.Y*half}
	pOut := scene.Point{X: v.X + nOut.X*half, Y: v.Y + nOut.Y*half}

	cross := dirIn.X*dirOut.Y - dirIn.Y*dirOut.X
	if cross <= 0 {
		// inner side of the turn, or straight through
		out = append(out, pIn)
		if !nearEqual(pIn, pOut) {
			out = append(out, pOut)
		}
		return out
	}

	switch style.Join {
	case scene.JoinRound:
		out = append(out, pIn)
		out = appendArc(out, v, pIn, pOut, half)
		out = append(out, pOut)
	case scene.JoinMiter:
		out = append(out, pIn)
		mx := nIn.X + nOut.X
		my := nIn.Y + nOut.Y
		ml := math.Hypot(mx, my)
		if ml > 1e-9 {
			mx /= ml
			my /= ml
			denom := mx*nIn.X + my*nIn.Y
			if denom > 1e-9 && 1/denom <= style.MiterLimit {
				out = append(out, scene.Point{X: v.X + mx*half/denom, Y: v.Y + my*half/denom})
			}
		}
		out = append(out, pOut)
	default: // bevel
		out = append(out, pIn, pOut)
	}
	return out
}

// appendArc appends intermediate points of the arc around center from
// "from" to "to", stepping finely enough to stay within the flatten
// tolerance. The endpoints themselves are not appended.
func appendArc(out []scene.Point, center, from, to scene.Point, radius float64) []scene.Point {
	if radius <= 0 {
		return out
	}
	ux := (from.X - center.X) / radius
	uy := (from.Y - center.Y) / radius
	wx := (to.X - center.X) / radius
	wy := (to.Y - center.Y) / radius
	sweep := math.Atan2(ux*wy-uy*wx, ux*wx+uy*wy)
	steps := arcSteps(math.Abs(sweep), radius)
	for k := 1; k < steps; k++ {
		a := sweep * float64(k) / float64(steps)
		sin, cos := math.Sincos(a)
		rx := ux*cos - uy*sin
		ry := ux*sin + uy*cos
		out = append(out, scene.Point{X: center.X + rx*radius, Y: center.Y + ry*radius})
	}
	return out
}

// arcSteps returns how many chords keep an arc of the given sweep within
// the flatten tolerance at the given radius.
func arcSteps(sweep, radius float64) int {
	if radius <= flattenTolerance {
		return 2
	}
	maxStep := 2 * math.Acos(1-flattenTolerance/radius)
	if maxStep <= 0 {
		return 256
	}
	steps := int(math.Ceil(sweep / maxStep))
	if steps < 2 {
		steps = 2
	}
	if steps > 256 {
		steps = 256
	}
	return steps
}

// appendCap appends cap geometry between the offset endpoints from and to
// around the path endpoint center. dir points outward, along the path's
// travel at the endpoint. The "to" point is not appended; the caller's
// ring already continues there.
func appendCap(out []scene.Point, center, from, to, dir scene.Point, cap scene.LineCap, half float64) []scene.Point {
	switch cap {
	case scene.CapRound:
		out = appendSemicircle(out, center, from, dir, half)
	case scene.CapSquare:
		out = append(out,
			scene.Point{X: from.X + dir.X*half, Y: from.Y + dir.Y*half},
			scene.Point{X: to.X + dir.X*half, Y: to.Y + dir.Y*half},
		)
	}
	return out
}

// appendSemicircle appends the half-circle from "from" around center that
// bulges toward dir, excluding both endpoints. The sweep direction is
// picked so the arc's midpoint lands at center + dir*half.
func appendSemicircle(out []scene.Point, center, from, dir scene.Point, half float64) []scene.Point {
	if half <= 0 {
		return out
	}
	ux := (from.X - center.X) / half
	uy := (from.Y - center.Y) / half
	sweep := math.Pi
	if ux*dir.Y-uy*dir.X < 0 {
		sweep = -math.Pi
	}
	steps := arcSteps(math.Pi, half)
	for k := 1; k < steps; k++ {
		a := sweep * float64(k) / float64(steps)
		sin, cos := math.Sincos(a)
		rx := ux*cos - uy*sin
		ry := ux*sin + uy*cos
		out = append(out, scene.Point{X: center.X + rx*half, Y: center.Y + ry*half})
	}
	return out
}

// dotRing renders a degenerate single-point subpath: a filled circle for
// round caps, a square for projecting caps, nothing for butt caps.
func dotRing(center scene.Point, half float64, cap scene.LineCap) []polyline {
	switch cap {
	case scene.CapRound:
		steps := arcSteps(2*math.Pi, half)
		ring := make([]scene.Point, 0, steps)
		for k := 0; k < steps; k++ {
			a := 2 * math.Pi * float64(k) / float64(steps)
			sin, cos := math.Sincos(a)
			ring = append(ring, scene.Point{X: center.X + cos*half, Y: center.Y + sin*half})
		}
		return []polyline{{pts: ring, closed: true}}
	case scene.CapSquare:
		return []polyline{{pts: []scene.Point{
			{X: center.X - half, Y: center.Y - half},
			{X: center.X + half, Y: center.Y - half},
			{X: center.X + half, Y: center.Y + half},
			{X: center.X - half, Y: center.Y + half},
		}, closed: true}}
	}
	return nil
}
