package raster

import (
	"image"
	"testing"

	"github.com/novvoo/go-pdfrender/pkg/scene"
)

// rectEdges builds the edge list of an axis-aligned rectangle.
func rectEdges(x0, y0, x1, y1 float64) *edgeList {
	l := newEdgeList()
	l.add(scene.Point{X: x0, Y: y0}, scene.Point{X: x1, Y: y0})
	l.add(scene.Point{X: x1, Y: y0}, scene.Point{X: x1, Y: y1})
	l.add(scene.Point{X: x1, Y: y1}, scene.Point{X: x0, Y: y1})
	l.add(scene.Point{X: x0, Y: y1}, scene.Point{X: x0, Y: y0})
	return l
}

// TestFillExactRect tests that a pixel-aligned rectangle fills crisply.
func TestFillExactRect(t *testing.T) {
	m := fillEdges(rectEdges(2, 3, 7, 6), image.Rect(0, 0, 10, 10), scene.FillNonZero)
	if m == nil {
		t.Fatal("Expected coverage for a rectangle inside the limit")
	}
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			want := uint8(0)
			if x >= 2 && x < 7 && y >= 3 && y < 6 {
				want = 255
			}
			if got := m.at(x, y); got != want {
				t.Errorf("coverage at (%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

// TestFillSubpixelRect tests partial coverage on non-aligned edges.
func TestFillSubpixelRect(t *testing.T) {
	m := fillEdges(rectEdges(1.25, 2, 3.75, 4), image.Rect(0, 0, 8, 8), scene.FillNonZero)
	if m == nil {
		t.Fatal("Expected coverage")
	}

	// three quarters of each boundary column is covered
	if got := m.at(1, 2); got != 191 {
		t.Errorf("left boundary coverage = %d, want 191", got)
	}
	if got := m.at(2, 3); got != 255 {
		t.Errorf("interior coverage = %d, want 255", got)
	}
	if got := m.at(3, 2); got != 191 {
		t.Errorf("right boundary coverage = %d, want 191", got)
	}
	if got := m.at(0, 2); got != 0 {
		t.Errorf("outside left = %d, want 0", got)
	}
	if got := m.at(4, 3); got != 0 {
		t.Errorf("outside right = %d, want 0", got)
	}
}

// TestFillRules tests even-odd versus nonzero on nested rectangles.
func TestFillRules(t *testing.T) {
	l := rectEdges(1, 1, 9, 9)
	inner := rectEdges(3, 3, 6, 6)
	l.edges = append(l.edges, inner.edges...)

	evenOdd := fillEdges(l, image.Rect(0, 0, 10, 10), scene.FillEvenOdd)
	if got := evenOdd.at(2, 2); got != 255 {
		t.Errorf("even-odd ring coverage = %d, want 255", got)
	}
	if got := evenOdd.at(4, 4); got != 0 {
		t.Errorf("even-odd hole coverage = %d, want 0", got)
	}

	nonZero := fillEdges(l, image.Rect(0, 0, 10, 10), scene.FillNonZero)
	if got := nonZero.at(2, 2); got != 255 {
		t.Errorf("nonzero ring coverage = %d, want 255", got)
	}
	if got := nonZero.at(4, 4); got != 255 {
		t.Errorf("nonzero interior coverage = %d, want 255", got)
	}
}

// TestFillLimitClip tests that coverage never escapes the limit rectangle.
func TestFillLimitClip(t *testing.T) {
	m := fillEdges(rectEdges(-5, -5, 5, 5), image.Rect(0, 0, 10, 10), scene.FillNonZero)
	if m == nil {
		t.Fatal("Expected coverage")
	}
	if m.rect != image.Rect(0, 0, 5, 5) {
		t.Errorf("mask rect = %v, want (0,0)-(5,5)", m.rect)
	}
	if got := m.at(2, 2); got != 255 {
		t.Errorf("inside coverage = %d, want 255", got)
	}
	if got := m.at(6, 2); got != 0 {
		t.Errorf("beyond the shape = %d, want 0", got)
	}
}

// TestFillDegenerate tests edge lists that produce no coverage.
func TestFillDegenerate(t *testing.T) {
	limit := image.Rect(0, 0, 10, 10)

	if m := fillEdges(newEdgeList(), limit, scene.FillNonZero); m != nil {
		t.Error("Empty edge list should produce no mask")
	}

	horizontal := newEdgeList()
	horizontal.add(scene.Point{X: 0, Y: 5}, scene.Point{X: 10, Y: 5})
	if m := fillEdges(horizontal, limit, scene.FillNonZero); m != nil {
		t.Error("Horizontal-only edges should produce no mask")
	}

	if m := fillEdges(rectEdges(20, 20, 30, 30), limit, scene.FillNonZero); m != nil {
		t.Error("Shape outside the limit should produce no mask")
	}
}

// TestFillTriangleFromPath tests the path-to-coverage pipeline.
func TestFillTriangleFromPath(t *testing.T) {
	p := scene.NewPath()
	p.MoveTo(5, 1)
	p.LineTo(9, 9)
	p.LineTo(1, 9)
	p.Close()

	l := newEdgeList()
	l.addPolylines(flattenPath(p, scene.Identity()))
	m := fillEdges(l, image.Rect(0, 0, 10, 10), scene.FillNonZero)
	if m == nil {
		t.Fatal("Expected coverage")
	}
	if got := m.at(4, 7); got != 255 {
		t.Errorf("triangle interior = %d, want 255", got)
	}
	if got := m.at(0, 2); got != 0 {
		t.Errorf("outside triangle = %d, want 0", got)
	}
	// the slanted edge crosses this pixel
	if got := m.at(5, 2); got == 0 || got == 255 {
		t.Errorf("slanted edge coverage = %d, want partial", got)
	}
}

// TestFillCurveFromPath tests that curves rasterize without gaps.
func TestFillCurveFromPath(t *testing.T) {
	// half-disc approximated by a cubic
	p := scene.NewPath()
	p.MoveTo(1, 5)
	p.CurveTo(1, 1, 9, 1, 9, 5)
	p.Close()

	l := newEdgeList()
	l.addPolylines(flattenPath(p, scene.Identity()))
	m := fillEdges(l, image.Rect(0, 0, 10, 10), scene.FillNonZero)
	if m == nil {
		t.Fatal("Expected coverage")
	}
	if got := m.at(5, 3); got != 255 {
		t.Errorf("inside the arch = %d, want 255", got)
	}
	if got := m.at(5, 0); got != 0 {
		t.Errorf("above the arch = %d, want 0", got)
	}
	if got := m.at(0, 1); got != 0 {
		t.Errorf("outside the corner = %d, want 0", got)
	}
}

// TestCoverageOf tests the fill-rule mapping from winding to coverage.
func TestCoverageOf(t *testing.T) {
	tests := []struct {
		name string
		wind float64
		rule scene.FillRule
		want float64
	}{
		{"nonzero inside", 1, scene.FillNonZero, 1},
		{"nonzero negative", -1, scene.FillNonZero, 1},
		{"nonzero double", 2, scene.FillNonZero, 1},
		{"nonzero partial", 0.25, scene.FillNonZero, 0.25},
		{"evenodd inside", 1, scene.FillEvenOdd, 1},
		{"evenodd double", 2, scene.FillEvenOdd, 0},
		{"evenodd folded", 1.5, scene.FillEvenOdd, 0.5},
		{"evenodd triple", 3, scene.FillEvenOdd, 1},
		{"zero", 0, scene.FillNonZero, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := coverageOf(tt.wind, tt.rule)
			if diff := got - tt.want; diff > 1e-12 || diff < -1e-12 {
				t.Errorf("coverageOf(%v) = %v, want %v", tt.wind, got, tt.want)
			}
		})
	}
}
