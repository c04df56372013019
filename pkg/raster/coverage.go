package raster

import (
	"image"
	"math"
	"sort"

	"github.com/novvoo/go-pdfrender/pkg/scene"
)

// edge is one fill-boundary segment normalized so y0 < y1. sign keeps the
// original winding direction: +1 when the segment pointed downward.
type edge struct {
	x0, y0, x1, y1 float64
	sign           float64
}

// edgeList collects fill geometry together with its device-space bounds.
type edgeList struct {
	edges                  []edge
	minX, minY, maxX, maxY float64
}

func newEdgeList() *edgeList {
	return &edgeList{
		minX: math.Inf(1), minY: math.Inf(1),
		maxX: math.Inf(-1), maxY: math.Inf(-1),
	}
}

// add appends the segment from a to b. Horizontal segments never change
// winding and are dropped, as is anything non-finite.
func (l *edgeList) add(a, b scene.Point) {
	if a.Y == b.Y {
		return
	}
	if !finite(a.X) || !finite(a.Y) || !finite(b.X) || !finite(b.Y) {
		return
	}
	e := edge{x0: a.X, y0: a.Y, x1: b.X, y1: b.Y, sign: 1}
	if e.y0 > e.y1 {
		e.x0, e.x1 = e.x1, e.x0
		e.y0, e.y1 = e.y1, e.y0
		e.sign = -1
	}
	l.edges = append(l.edges, e)
	l.minX = math.Min(l.minX, math.Min(e.x0, e.x1))
	l.maxX = math.Max(l.maxX, math.Max(e.x0, e.x1))
	l.minY = math.Min(l.minY, e.y0)
	l.maxY = math.Max(l.maxY, e.y1)
}

// addPolylines adds each polyline as fill geometry, closing every subpath
// back to its first point.
func (l *edgeList) addPolylines(lines []polyline) {
	for _, pl := range lines {
		n := len(pl.pts)
		if n < 2 {
			continue
		}
		for i := 1; i < n; i++ {
			l.add(pl.pts[i-1], pl.pts[i])
		}
		l.add(pl.pts[n-1], pl.pts[0])
	}
}

// bounds returns the pixel rectangle covering all edges.
func (l *edgeList) bounds() image.Rectangle {
	if len(l.edges) == 0 {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(l.minX)), int(math.Floor(l.minY)),
		int(math.Ceil(l.maxX)), int(math.Ceil(l.maxY)),
	)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// mask is fractional pixel coverage over a device-space rectangle.
type mask struct {
	rect image.Rectangle
	cov  []uint8
}

// at returns the coverage at device pixel (x, y), zero outside the mask.
func (m *mask) at(x, y int) uint8 {
	if m == nil || x < m.rect.Min.X || x >= m.rect.Max.X || y < m.rect.Min.Y || y >= m.rect.Max.Y {
		return 0
	}
	return m.cov[(y-m.rect.Min.Y)*m.rect.Dx()+(x-m.rect.Min.X)]
}

// fillEdges rasterizes the edge list restricted to limit. Coverage is the
// exact area each pixel's square intersects with the filled region, so
// edges land anti-aliased. Returns nil when nothing is covered.
func fillEdges(l *edgeList, limit image.Rectangle, rule scene.FillRule) *mask {
	if len(l.edges) == 0 {
		return nil
	}
	rect := l.bounds().Intersect(limit)
	if rect.Empty() {
		return nil
	}
	w := rect.Dx()
	m := &mask{rect: rect, cov: make([]uint8, w*rect.Dy())}

	edges := make([]edge, len(l.edges))
	copy(edges, l.edges)
	sort.Slice(edges, func(i, j int) bool { return edges[i].y0 < edges[j].y0 })

	// winding holds per-pixel partial areas for the current row; delta
	// carries the full-height winding that flows to every pixel right of
	// an edge.
	winding := make([]float64, w)
	delta := make([]float64, w+1)
	active := make([]int, 0, 16)
	next := 0

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		rowTop := float64(y)
		rowBot := rowTop + 1

		for next < len(edges) && edges[next].y0 < rowBot {
			active = append(active, next)
			next++
		}
		keep := active[:0]
		for _, ei := range active {
			if edges[ei].y1 > rowTop {
				keep = append(keep, ei)
			}
		}
		active = keep
		if len(active) == 0 {
			continue
		}

		for _, ei := range active {
			accumulateRow(&edges[ei], rowTop, rowBot, rect.Min.X, w, winding, delta)
		}

		base := (y - rect.Min.Y) * w
		run := 0.0
		for x := 0; x < w; x++ {
			run += delta[x]
			delta[x] = 0
			c := coverageOf(winding[x]+run, rule)
			winding[x] = 0
			m.cov[base+x] = uint8(c*255 + 0.5)
		}
		delta[w] = 0
	}
	return m
}

// accumulateRow adds one edge's winding contribution for a single pixel
// row. Each pixel the edge crosses gets the trapezoid area between the
// line and the pixel's right border plus the full heights already passed
// in columns to its left; pixels right of the edge get the edge's whole
// row height through delta.
func accumulateRow(e *edge, rowTop, rowBot float64, left, w int, winding, delta []float64) {
	yTop := math.Max(e.y0, rowTop)
	yBot := math.Min(e.y1, rowBot)
	if yBot <= yTop {
		return
	}
	h := yBot - yTop

	dy := e.y1 - e.y0
	dx := e.x1 - e.x0
	xTop := e.x0 + (yTop-e.y0)*dx/dy
	xBot := e.x0 + (yBot-e.y0)*dx/dy
	xLo := math.Min(xTop, xBot)
	xHi := math.Max(xTop, xBot)

	pxLo := int(math.Floor(xLo)) - left
	pxHi := int(math.Floor(xHi)) - left

	if pxHi < 0 {
		// entirely left of the mask: full height flows right
		delta[0] += e.sign * h
		return
	}
	if pxLo >= w {
		return
	}

	if pxLo == pxHi {
		pxRight := float64(pxLo+left) + 1
		winding[pxLo] += e.sign * h * (pxRight - (xTop+xBot)/2)
		delta[pxLo+1] += e.sign * h
		return
	}

	// y as a function of x along the segment; dx is nonzero because the
	// edge spans more than one column
	slope := dy / dx
	acc := 0.0
	for px := pxLo; px <= pxHi && px < w; px++ {
		colL := float64(px + left)
		colR := colL + 1
		sl := math.Max(colL, xLo)
		sr := math.Min(colR, xHi)
		yl := clampF(e.y0+(sl-e.x0)*slope, yTop, yBot)
		yr := clampF(e.y0+(sr-e.x0)*slope, yTop, yBot)
		hPix := math.Abs(yr - yl)
		if px >= 0 {
			area := hPix * (colR - (sl+sr)/2)
			winding[px] += e.sign * (area + acc)
		}
		acc += hPix
	}
	if pxHi+1 <= w {
		delta[pxHi+1] += e.sign * h
	}
}

// coverageOf maps a winding total to fractional coverage under the rule.
func coverageOf(wind float64, rule scene.FillRule) float64 {
	wind = math.Abs(wind)
	if rule == scene.FillEvenOdd {
		wind = math.Mod(wind, 2)
		if wind > 1 {
			wind = 2 - wind
		}
		return wind
	}
	if wind > 1 {
		return 1
	}
	return wind
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// coverageSource produces fill coverage for an edge list. The software
// renderer uses the scanline engine directly; the GPU renderer reads
// coverage back from its compute dispatch and drops to the scanline
// engine when no device is available.
type coverageSource interface {
	fillCoverage(l *edgeList, limit image.Rectangle, rule scene.FillRule) *mask
}

// softwareCoverage is the CPU coverage path.
type softwareCoverage struct{}

func (softwareCoverage) fillCoverage(l *edgeList, limit image.Rectangle, rule scene.FillRule) *mask {
	return fillEdges(l, limit, rule)
}
