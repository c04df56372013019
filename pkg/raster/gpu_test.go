package raster

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"math"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/novvoo/go-pdfrender/pkg/scene"
)

// nullProvider is a device provider with no backing device, forcing the
// compute renderer onto its CPU fallback.
type nullProvider struct{}

func (nullProvider) Device() gpucontext.Device   { return nil }
func (nullProvider) Queue() gpucontext.Queue     { return nil }
func (nullProvider) Adapter() gpucontext.Adapter { return nil }
func (nullProvider) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// parityScene builds a scene with partial coverage, both fill rules, and a
// stroke, the cases where backend math could drift.
func parityScene() *scene.Scene {
	tri := scene.NewPath()
	tri.MoveTo(5, 1)
	tri.LineTo(11, 11)
	tri.LineTo(1, 9)
	tri.Close()

	ring := scene.NewPath()
	ring.Rect(6, 6, 8, 8)
	ring.Rect(8, 8, 4, 4)

	line := scene.NewPath()
	line.MoveTo(2, 13)
	line.LineTo(14, 13)

	b := scene.NewBuilder(16, 16)
	b.FillPath(scene.Identity(), tri, scene.FillNonZero, scene.Color{R: 1, A: 1})
	b.FillPath(scene.Identity(), ring, scene.FillEvenOdd, scene.Color{B: 1, A: 0.6})
	b.StrokePath(scene.Identity(), line, scene.StrokeStyle{Width: 1.5}, scene.Color{G: 1, A: 1})
	return b.Finish()
}

// TestGPUFallbackWithoutDevice tests that a device-less provider degrades
// to CPU rendering with identical output.
func TestGPUFallbackWithoutDevice(t *testing.T) {
	g := NewGPU(nullProvider{})
	defer g.Close()

	if g.UsingGPU() {
		t.Fatal("Expected the compute path to be disabled")
	}
	if g.InitError() == nil {
		t.Fatal("Expected a recorded init error")
	}

	sc := parityScene()
	got, err := g.Rasterize(context.Background(), sc, 1, PageViewport(sc, 1))
	if err != nil {
		t.Fatalf("Failed to rasterize: %v", err)
	}
	want, err := NewSoftware().Rasterize(context.Background(), sc, 1, PageViewport(sc, 1))
	if err != nil {
		t.Fatalf("Failed to rasterize reference: %v", err)
	}
	if !bytes.Equal(got.Pix, want.Pix) {
		t.Error("Fallback output differs from the software renderer")
	}
}

// TestGPUMatchesSoftware tests backend agreement on the same scene. With a
// live device the outputs may differ by float rounding, never structure.
func TestGPUMatchesSoftware(t *testing.T) {
	g := NewGPU(nil)
	defer g.Close()

	sc := parityScene()
	got, err := g.Rasterize(context.Background(), sc, 2, PageViewport(sc, 2))
	if err != nil {
		t.Fatalf("Failed to rasterize: %v", err)
	}
	want, err := NewSoftware().Rasterize(context.Background(), sc, 2, PageViewport(sc, 2))
	if err != nil {
		t.Fatalf("Failed to rasterize reference: %v", err)
	}

	if !g.UsingGPU() {
		if !bytes.Equal(got.Pix, want.Pix) {
			t.Error("Fallback output differs from the software renderer")
		}
		return
	}
	for i := range want.Pix {
		d := int(got.Pix[i]) - int(want.Pix[i])
		if d < -2 || d > 2 {
			t.Fatalf("Pixel byte %d differs: %d vs %d", i, got.Pix[i], want.Pix[i])
		}
	}
}

// TestGPUCloseIdempotent tests that closing twice is safe.
func TestGPUCloseIdempotent(t *testing.T) {
	g := NewGPU(nullProvider{})
	if err := g.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("Failed to close again: %v", err)
	}
	if g.UsingGPU() {
		t.Error("Closed renderer still reports a live device")
	}
}

// TestPackEdges tests the wire layout the shader reads.
func TestPackEdges(t *testing.T) {
	edges := []edge{
		{x0: 1.5, y0: 2, x1: 3.25, y1: 7, sign: -1},
		{x0: 4, y0: 5, x1: 4, y1: 9, sign: 1},
	}
	buf := packEdges(edges, image.Pt(1, 2))
	if len(buf) != 2*gpuEdgeStride {
		t.Fatalf("Packed length = %d, want %d", len(buf), 2*gpuEdgeStride)
	}

	field := func(i, off int) float32 {
		bits := binary.LittleEndian.Uint32(buf[i*gpuEdgeStride+off:])
		return math.Float32frombits(bits)
	}
	want := [][5]float32{
		{0.5, 0, 2.25, 5, -1},
		{3, 3, 3, 7, 1},
	}
	for i, w := range want {
		for f, off := range []int{0, 4, 8, 12, 16} {
			if got := field(i, off); got != w[f] {
				t.Errorf("edge %d field %d = %v, want %v", i, f, got, w[f])
			}
		}
	}
}

// TestPackConfig tests the uniform block layout.
func TestPackConfig(t *testing.T) {
	buf := packConfig(640, 480, 17, scene.FillEvenOdd)
	if len(buf) != gpuConfigSize {
		t.Fatalf("Packed length = %d, want %d", len(buf), gpuConfigSize)
	}
	le := binary.LittleEndian
	if got := le.Uint32(buf[0:]); got != 640 {
		t.Errorf("width = %d, want 640", got)
	}
	if got := le.Uint32(buf[4:]); got != 480 {
		t.Errorf("height = %d, want 480", got)
	}
	if got := le.Uint32(buf[8:]); got != 17 {
		t.Errorf("edge count = %d, want 17", got)
	}
	if got := le.Uint32(buf[12:]); got != 1 {
		t.Errorf("even-odd flag = %d, want 1", got)
	}

	buf = packConfig(8, 8, 0, scene.FillNonZero)
	if got := le.Uint32(buf[12:]); got != 0 {
		t.Errorf("nonzero flag = %d, want 0", got)
	}
}
