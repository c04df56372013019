package raster

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/novvoo/go-pdfrender/pkg/scene"
)

// rectPath returns a rectangle path.
func rectPath(x, y, w, h float64) *scene.Path {
	p := scene.NewPath()
	p.Rect(x, y, w, h)
	return p
}

// renderScene rasterizes a finished scene with the CPU backend.
func renderScene(t *testing.T, sc *scene.Scene, scale float64) *Pixmap {
	t.Helper()
	pm, err := NewSoftware().Rasterize(context.Background(), sc, scale, PageViewport(sc, scale))
	if err != nil {
		t.Fatalf("Failed to rasterize: %v", err)
	}
	return pm
}

// TestSoftwareFill tests a plain rectangle fill.
func TestSoftwareFill(t *testing.T) {
	b := scene.NewBuilder(10, 10)
	b.FillPath(scene.Identity(), rectPath(2, 3, 5, 3), scene.FillNonZero, scene.Color{R: 1, A: 1})
	pm := renderScene(t, b.Finish(), 1)

	if r, g, bl, a := pm.At(4, 4); r != 255 || g != 0 || bl != 0 || a != 255 {
		t.Errorf("inside fill = (%d,%d,%d,%d), want opaque red", r, g, bl, a)
	}
	if r, _, _, a := pm.At(1, 4); r != 0 || a != 0 {
		t.Errorf("outside fill = r %d a %d, want transparent", r, a)
	}
	if r, _, _, _ := pm.At(2, 3); r != 255 {
		t.Error("fill should start exactly at its top-left pixel")
	}
}

// TestSoftwareStroke tests a stroke through the full pipeline.
func TestSoftwareStroke(t *testing.T) {
	p := scene.NewPath()
	p.MoveTo(2, 5)
	p.LineTo(8, 5)
	b := scene.NewBuilder(10, 10)
	b.StrokePath(scene.Identity(), p, scene.StrokeStyle{Width: 2}, scene.Color{A: 1})
	pm := renderScene(t, b.Finish(), 1)

	if _, _, _, a := pm.At(4, 4); a != 255 {
		t.Errorf("stroke band alpha = %d, want 255", a)
	}
	if _, _, _, a := pm.At(4, 7); a != 0 {
		t.Errorf("outside stroke alpha = %d, want 0", a)
	}
}

// TestSoftwarePaintOrder tests that later ops composite over earlier ones.
func TestSoftwarePaintOrder(t *testing.T) {
	full := rectPath(0, 0, 10, 10)
	b := scene.NewBuilder(10, 10)
	b.FillPath(scene.Identity(), full, scene.FillNonZero, scene.Color{R: 1, A: 1})
	b.FillPath(scene.Identity(), full, scene.FillNonZero, scene.Color{B: 1, A: 0.5})
	pm := renderScene(t, b.Finish(), 1)

	r, g, bl, a := pm.At(5, 5)
	if r != 127 || g != 0 || bl != 128 || a != 255 {
		t.Errorf("blended pixel = (%d,%d,%d,%d), want (127,0,128,255)", r, g, bl, a)
	}
}

// TestSoftwareScale tests that scale multiplies device geometry.
func TestSoftwareScale(t *testing.T) {
	b := scene.NewBuilder(5, 5)
	b.FillPath(scene.Identity(), rectPath(1, 1, 2, 2), scene.FillNonZero, scene.Color{G: 1, A: 1})
	pm := renderScene(t, b.Finish(), 2)

	if pm.Width != 10 || pm.Height != 10 {
		t.Fatalf("pixmap = %dx%d, want 10x10", pm.Width, pm.Height)
	}
	if _, g, _, _ := pm.At(3, 3); g != 255 {
		t.Error("scaled fill missing at (3,3)")
	}
	if _, g, _, _ := pm.At(5, 5); g != 255 {
		t.Error("scaled fill missing at (5,5)")
	}
	if _, g, _, _ := pm.At(6, 6); g != 0 {
		t.Error("scaled fill leaked past (6,6)")
	}
}

// TestSoftwareViewportOffset tests rendering a sub-rectangle of the page.
func TestSoftwareViewportOffset(t *testing.T) {
	b := scene.NewBuilder(10, 10)
	b.FillPath(scene.Identity(), rectPath(2, 2, 2, 2), scene.FillNonZero, scene.Color{R: 1, A: 1})
	sc := b.Finish()

	vp := Viewport{MinX: 2, MinY: 2, Width: 4, Height: 4}
	pm, err := NewSoftware().Rasterize(context.Background(), sc, 1, vp)
	if err != nil {
		t.Fatalf("Failed to rasterize: %v", err)
	}
	if r, _, _, _ := pm.At(0, 0); r != 255 {
		t.Error("fill should land at the viewport origin")
	}
	if r, _, _, _ := pm.At(1, 1); r != 255 {
		t.Error("fill interior missing")
	}
	if _, _, _, a := pm.At(2, 2); a != 0 {
		t.Error("fill should end before (2,2) in viewport space")
	}
}

// TestSoftwareClip tests that nested clips intersect.
func TestSoftwareClip(t *testing.T) {
	render := func(first, second *scene.Path) *Pixmap {
		b := scene.NewBuilder(10, 10)
		b.PushClip(scene.Identity(), first, scene.FillNonZero)
		b.PushClip(scene.Identity(), second, scene.FillNonZero)
		b.FillPath(scene.Identity(), rectPath(0, 0, 10, 10), scene.FillNonZero, scene.Color{R: 1, A: 1})
		b.PopClip()
		b.PopClip()
		return renderScene(t, b.Finish(), 1)
	}

	a := rectPath(0, 0, 6, 10)
	bp := rectPath(3, 0, 4, 10)
	pm := render(a, bp)

	// intersection is x in [3,6)
	if _, _, _, alpha := pm.At(2, 5); alpha != 0 {
		t.Errorf("left of intersection alpha = %d, want 0", alpha)
	}
	if r, _, _, _ := pm.At(4, 5); r != 255 {
		t.Errorf("inside intersection red = %d, want 255", r)
	}
	if _, _, _, alpha := pm.At(6, 5); alpha != 0 {
		t.Errorf("right of intersection alpha = %d, want 0", alpha)
	}

	// intersection commutes
	pm2 := render(bp, a)
	if !bytes.Equal(pm.Pix, pm2.Pix) {
		t.Error("clip intersection should not depend on push order")
	}
}

// TestSoftwareEmptyClip tests that an empty clip path blocks all painting.
func TestSoftwareEmptyClip(t *testing.T) {
	b := scene.NewBuilder(10, 10)
	b.PushClip(scene.Identity(), scene.NewPath(), scene.FillNonZero)
	b.FillPath(scene.Identity(), rectPath(0, 0, 10, 10), scene.FillNonZero, scene.Color{R: 1, A: 1})
	b.PopClip()
	pm := renderScene(t, b.Finish(), 1)

	for _, v := range pm.Pix {
		if v != 0 {
			t.Fatal("empty clip let paint through")
		}
	}
}

// TestSoftwarePopAfterClipRestores tests painting after the clip is popped.
func TestSoftwarePopAfterClipRestores(t *testing.T) {
	b := scene.NewBuilder(10, 10)
	b.PushClip(scene.Identity(), rectPath(0, 0, 3, 3), scene.FillNonZero)
	b.PopClip()
	b.FillPath(scene.Identity(), rectPath(5, 5, 2, 2), scene.FillNonZero, scene.Color{B: 1, A: 1})
	pm := renderScene(t, b.Finish(), 1)

	if _, _, bl, _ := pm.At(6, 6); bl != 255 {
		t.Error("paint after pop should be unclipped")
	}
}

// TestSoftwareGlyphRun tests filling positioned glyph outlines.
func TestSoftwareGlyphRun(t *testing.T) {
	outline := rectPath(0, 0, 1, 1)
	glyphs := []scene.PositionedGlyph{{
		Outline:   outline,
		Transform: scene.Matrix{A: 4, D: 4, E: 2, F: 2},
	}}
	b := scene.NewBuilder(10, 10)
	b.GlyphRun(scene.Identity(), glyphs, scene.Color{A: 1})
	pm := renderScene(t, b.Finish(), 1)

	if _, _, _, a := pm.At(3, 3); a != 255 {
		t.Errorf("glyph interior alpha = %d, want 255", a)
	}
	if _, _, _, a := pm.At(7, 7); a != 0 {
		t.Errorf("outside glyph alpha = %d, want 0", a)
	}
}

// TestSoftwareImage tests placing a small image with nearest sampling.
func TestSoftwareImage(t *testing.T) {
	img := &scene.Image{
		Width:  2,
		Height: 2,
		Pix: []uint8{
			255, 0, 0, 255, 0, 255, 0, 255,
			0, 0, 255, 255, 255, 255, 255, 255,
		},
	}
	// unit square onto (2,2)-(6,6), row 0 on top
	ctm := scene.Matrix{A: 4, D: -4, E: 2, F: 6}
	b := scene.NewBuilder(10, 10)
	b.DrawImage(ctm, img, scene.Color{}, 1)
	pm := renderScene(t, b.Finish(), 1)

	if r, g, _, _ := pm.At(3, 3); r != 255 || g != 0 {
		t.Errorf("top-left quadrant = r %d g %d, want red", r, g)
	}
	if r, g, _, _ := pm.At(4, 2); g != 255 || r != 0 {
		t.Errorf("top-right quadrant = r %d g %d, want green", r, g)
	}
	if _, _, bl, _ := pm.At(2, 4); bl != 255 {
		t.Errorf("bottom-left quadrant blue = %d, want 255", bl)
	}
	if r, g, bl, _ := pm.At(4, 4); r != 255 || g != 255 || bl != 255 {
		t.Errorf("bottom-right quadrant = (%d,%d,%d), want white", r, g, bl)
	}
	if _, _, _, a := pm.At(1, 1); a != 0 {
		t.Errorf("outside placement alpha = %d, want 0", a)
	}
}

// TestSoftwareImageMask tests stencil masks painted in the op color.
func TestSoftwareImageMask(t *testing.T) {
	img := &scene.Image{
		Width:  1,
		Height: 1,
		Pix:    []uint8{0, 0, 0, 255},
		IsMask: true,
	}
	ctm := scene.Matrix{A: 4, D: -4, E: 2, F: 6}
	b := scene.NewBuilder(10, 10)
	b.DrawImage(ctm, img, scene.Color{R: 1, A: 1}, 1)
	pm := renderScene(t, b.Finish(), 1)

	if r, g, _, a := pm.At(3, 3); r != 255 || g != 0 || a != 255 {
		t.Errorf("stencil pixel = r %d g %d a %d, want opaque red", r, g, a)
	}
	if _, _, _, a := pm.At(7, 7); a != 0 {
		t.Errorf("outside stencil alpha = %d, want 0", a)
	}
}

// TestSoftwareAxialShading tests the gradient ramp across the page.
func TestSoftwareAxialShading(t *testing.T) {
	sh := &scene.Shading{
		Kind: scene.ShadingAxial,
		X0:   0, Y0: 0, X1: 10, Y1: 0,
		Stops: []scene.GradientStop{
			{T: 0, Color: scene.Color{A: 1}},
			{T: 1, Color: scene.Color{R: 1, G: 1, B: 1, A: 1}},
		},
		Extend0: true,
		Extend1: true,
	}
	b := scene.NewBuilder(10, 10)
	b.DrawShading(scene.Identity(), sh, 1)
	pm := renderScene(t, b.Finish(), 1)

	if r, _, _, _ := pm.At(0, 5); r != 13 {
		t.Errorf("left edge gray = %d, want 13", r)
	}
	if r, _, _, _ := pm.At(9, 5); r != 242 {
		t.Errorf("right edge gray = %d, want 242", r)
	}
	left, _, _, _ := pm.At(2, 5)
	right, _, _, _ := pm.At(7, 5)
	if left >= right {
		t.Errorf("ramp not increasing: %d then %d", left, right)
	}
}

// TestSoftwareRadialShading tests concentric ramp and extend handling.
func TestSoftwareRadialShading(t *testing.T) {
	stops := []scene.GradientStop{
		{T: 0, Color: scene.Color{A: 1}},
		{T: 1, Color: scene.Color{R: 1, G: 1, B: 1, A: 1}},
	}
	sh := &scene.Shading{
		Kind: scene.ShadingRadial,
		X0:   5, Y0: 5, X1: 5, Y1: 5,
		R0: 0, R1: 4,
		Stops:   stops,
		Extend0: true,
		Extend1: true,
	}
	b := scene.NewBuilder(10, 10)
	b.DrawShading(scene.Identity(), sh, 1)
	pm := renderScene(t, b.Finish(), 1)

	center, _, _, _ := pm.At(5, 5)
	if center > 60 {
		t.Errorf("near-center gray = %d, want dark", center)
	}
	if r, _, _, a := pm.At(0, 0); r != 255 || a != 255 {
		t.Errorf("extended corner = r %d a %d, want white", r, a)
	}

	sh2 := &scene.Shading{
		Kind: scene.ShadingRadial,
		X0:   5, Y0: 5, X1: 5, Y1: 5,
		R0: 0, R1: 4,
		Stops: stops,
	}
	b2 := scene.NewBuilder(10, 10)
	b2.DrawShading(scene.Identity(), sh2, 1)
	pm2 := renderScene(t, b2.Finish(), 1)

	if _, _, _, a := pm2.At(0, 0); a != 0 {
		t.Errorf("unextended corner alpha = %d, want 0", a)
	}
	if _, _, _, a := pm2.At(5, 5); a != 255 {
		t.Errorf("inside circle alpha = %d, want 255", a)
	}
}

// TestSoftwareCanceledContext tests early abort through the context.
func TestSoftwareCanceledContext(t *testing.T) {
	b := scene.NewBuilder(10, 10)
	b.FillPath(scene.Identity(), rectPath(0, 0, 10, 10), scene.FillNonZero, scene.Color{R: 1, A: 1})
	sc := b.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSoftware().Rasterize(ctx, sc, 1, PageViewport(sc, 1)); err == nil {
		t.Error("Expected an error from a canceled context")
	}
}

// TestSoftwareInvalidArgs tests argument validation.
func TestSoftwareInvalidArgs(t *testing.T) {
	s := NewSoftware()
	sc := scene.NewBuilder(10, 10).Finish()
	ctx := context.Background()

	if _, err := s.Rasterize(ctx, nil, 1, Viewport{Width: 1, Height: 1}); err == nil {
		t.Error("Expected an error for a nil scene")
	}
	if _, err := s.Rasterize(ctx, sc, 1, Viewport{}); err == nil {
		t.Error("Expected an error for an empty viewport")
	}
	if _, err := s.Rasterize(ctx, sc, 0, PageViewport(sc, 1)); err == nil {
		t.Error("Expected an error for zero scale")
	}
	if _, err := s.Rasterize(ctx, sc, math.NaN(), PageViewport(sc, 1)); err == nil {
		t.Error("Expected an error for NaN scale")
	}
}

// TestPageViewport tests page-to-viewport sizing.
func TestPageViewport(t *testing.T) {
	tests := []struct {
		name  string
		w, h  float64
		scale float64
		wantW int
		wantH int
	}{
		{"letter at 1", 612, 792, 1, 612, 792},
		{"letter at 1.5", 612, 792, 1.5, 918, 1188},
		{"fractional rounds up", 100.2, 50.7, 0.5, 51, 26},
		{"tiny page clamps to 1", 0.5, 0.5, 0.5, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := &scene.Scene{Width: tt.w, Height: tt.h}
			vp := PageViewport(sc, tt.scale)
			if vp.Width != tt.wantW || vp.Height != tt.wantH {
				t.Errorf("PageViewport = %dx%d, want %dx%d", vp.Width, vp.Height, tt.wantW, tt.wantH)
			}
		})
	}
}
