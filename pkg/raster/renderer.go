package raster

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/novvoo/go-pdfrender/pkg/scene"
)

// Viewport selects the device-pixel window rendered into the target.
// MinX and MinY offset the window within the scaled page; Width and
// Height give the output size in pixels.
type Viewport struct {
	MinX, MinY    int
	Width, Height int
}

// PageViewport returns a viewport covering the whole page at the given
// scale. A 612x792 point page at scale 2 yields a 1224x1584 viewport.
func PageViewport(sc *scene.Scene, scale float64) Viewport {
	w := int(math.Ceil(sc.Width * scale))
	h := int(math.Ceil(sc.Height * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return Viewport{Width: w, Height: h}
}

// Renderer rasterizes scenes into pixmaps. The implementation set is
// closed: Software renders on the CPU, GPU adds a compute dispatch path.
// Both composite through the same engine and agree on every scene to
// anti-aliasing tolerance.
type Renderer interface {
	// Rasterize renders the scene at the given scale, restricted to the
	// viewport. Cancelling the context abandons the partial target.
	Rasterize(ctx context.Context, sc *scene.Scene, scale float64, vp Viewport) (*Pixmap, error)

	// Close releases backend resources. The renderer must not be used
	// after Close.
	Close() error

	backend() string
}

// Software is the CPU renderer. It holds no mutable state, so a single
// value may rasterize many pages concurrently.
type Software struct{}

// NewSoftware returns the CPU renderer.
func NewSoftware() *Software {
	return &Software{}
}

func (*Software) backend() string { return "software" }

// Close implements Renderer. It is a no-op for the CPU renderer.
func (*Software) Close() error { return nil }

// Rasterize implements Renderer.
func (s *Software) Rasterize(ctx context.Context, sc *scene.Scene, scale float64, vp Viewport) (*Pixmap, error) {
	return rasterize(ctx, softwareCoverage{}, sc, scale, vp)
}

func rasterize(ctx context.Context, cov coverageSource, sc *scene.Scene, scale float64, vp Viewport) (*Pixmap, error) {
	if sc == nil {
		return nil, errors.New("raster: nil scene")
	}
	if vp.Width <= 0 || vp.Height <= 0 {
		return nil, fmt.Errorf("raster: empty viewport %dx%d", vp.Width, vp.Height)
	}
	if scale <= 0 || !finite(scale) {
		return nil, fmt.Errorf("raster: invalid scale %g", scale)
	}
	pm := NewPixmap(vp.Width, vp.Height)
	view := scene.Scaling(scale, scale).
		Multiply(scene.Translation(-float64(vp.MinX), -float64(vp.MinY)))
	comp := newCompositor(pm, view, cov)
	if err := comp.run(ctx, sc); err != nil {
		return nil, err
	}
	return pm, nil
}
