package raster

import (
	"context"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/novvoo/go-pdfrender/pkg/scene"
)

// compositor walks a scene strictly in op order, producing coverage
// through a coverage source and compositing premultiplied source-over
// into the pixmap. Both backends run the same compositor.
type compositor struct {
	pm    *Pixmap
	view  scene.Matrix
	cov   coverageSource
	vp    image.Rectangle
	clips [][]uint8
}

func newCompositor(pm *Pixmap, view scene.Matrix, cov coverageSource) *compositor {
	return &compositor{
		pm:   pm,
		view: view,
		cov:  cov,
		vp:   image.Rect(0, 0, pm.Width, pm.Height),
	}
}

func (c *compositor) run(ctx context.Context, sc *scene.Scene) error {
	for i := range sc.Ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		op := &sc.Ops[i]
		switch op.Kind {
		case scene.OpFill:
			c.fill(op)
		case scene.OpStroke:
			c.stroke(op)
		case scene.OpGlyphRun:
			c.glyphRun(op)
		case scene.OpImage:
			c.drawImage(op)
		case scene.OpShading:
			c.drawShading(op)
		case scene.OpPushClip:
			c.pushClip(op)
		case scene.OpPopClip:
			c.popClip()
		}
	}
	return nil
}

// clip returns the active clip coverage, nil when unclipped.
func (c *compositor) clip() []uint8 {
	if len(c.clips) == 0 {
		return nil
	}
	return c.clips[len(c.clips)-1]
}

func (c *compositor) fill(op *scene.Op) {
	m := op.Transform.Multiply(c.view)
	el := newEdgeList()
	el.addPolylines(flattenPath(op.Path, m))
	c.paintMask(c.cov.fillCoverage(el, c.vp, op.Rule), op.Color)
}

func (c *compositor) stroke(op *scene.Op) {
	m := op.Transform.Multiply(c.view)
	el := newEdgeList()
	el.addPolylines(strokePolylines(op.Path, op.Stroke, m))
	c.paintMask(c.cov.fillCoverage(el, c.vp, scene.FillNonZero), op.Color)
}

func (c *compositor) glyphRun(op *scene.Op) {
	for i := range op.Glyphs {
		g := &op.Glyphs[i]
		if g.Outline.Empty() {
			continue
		}
		m := g.Transform.Multiply(op.Transform).Multiply(c.view)
		el := newEdgeList()
		el.addPolylines(flattenPath(g.Outline, m))
		c.paintMask(c.cov.fillCoverage(el, c.vp, scene.FillNonZero), op.Color)
	}
}

// paintMask composites a solid color through a coverage mask and the
// active clip.
func (c *compositor) paintMask(m *mask, col scene.Color) {
	if m == nil {
		return
	}
	sr, sg, sb, sa := col.RGBA8()
	if sa == 0 {
		return
	}
	clip := c.clip()
	w := m.rect.Dx()
	for y := m.rect.Min.Y; y < m.rect.Max.Y; y++ {
		row := (y - m.rect.Min.Y) * w
		for x := m.rect.Min.X; x < m.rect.Max.X; x++ {
			cov := m.cov[row+x-m.rect.Min.X]
			if cov == 0 {
				continue
			}
			if clip != nil {
				cov = mul255(cov, clip[y*c.pm.Width+x])
				if cov == 0 {
					continue
				}
			}
			c.pm.blendSolid(y*c.pm.Stride+x*4, sr, sg, sb, sa, cov)
		}
	}
}

func (c *compositor) pushClip(op *scene.Op) {
	m := op.Transform.Multiply(c.view)
	el := newEdgeList()
	el.addPolylines(flattenPath(op.Path, m))
	pathMask := c.cov.fillCoverage(el, c.vp, op.Rule)

	cur := c.clip()
	next := make([]uint8, c.pm.Width*c.pm.Height)
	if pathMask != nil {
		w := pathMask.rect.Dx()
		for y := pathMask.rect.Min.Y; y < pathMask.rect.Max.Y; y++ {
			row := (y - pathMask.rect.Min.Y) * w
			for x := pathMask.rect.Min.X; x < pathMask.rect.Max.X; x++ {
				v := pathMask.cov[row+x-pathMask.rect.Min.X]
				if v == 0 {
					continue
				}
				idx := y*c.pm.Width + x
				if cur != nil {
					v = mul255(v, cur[idx])
				}
				next[idx] = v
			}
		}
	}
	c.clips = append(c.clips, next)
}

func (c *compositor) popClip() {
	if len(c.clips) > 0 {
		c.clips = c.clips[:len(c.clips)-1]
	}
}

func (c *compositor) drawImage(op *scene.Op) {
	img := op.Image
	if img == nil || img.Width <= 0 || img.Height <= 0 || op.Alpha <= 0 {
		return
	}
	// pixel grid to unit square, with row zero along the top edge, then
	// through the op transform into device space
	m := scene.Matrix{
		A: 1 / float64(img.Width), D: -1 / float64(img.Height), F: 1,
	}.Multiply(op.Transform).Multiply(c.view)
	if m.Det() == 0 {
		return
	}
	rect := quadBounds(m, float64(img.Width), float64(img.Height)).Intersect(c.vp)
	if rect.Empty() {
		return
	}

	tmp := image.NewRGBA(rect)
	aff := f64.Aff3{m.A, m.C, m.E, m.B, m.D, m.F}
	var interp xdraw.Interpolator = xdraw.NearestNeighbor
	if img.Interpolate {
		interp = xdraw.ApproxBiLinear
	}

	clip := c.clip()
	fa := alpha8(op.Alpha)

	if img.IsMask {
		src := &image.Alpha{
			Pix:    alphaPlane(img),
			Stride: img.Width,
			Rect:   image.Rect(0, 0, img.Width, img.Height),
		}
		interp.Transform(tmp, aff, src, src.Rect, xdraw.Src, nil)
		col := op.Color.WithAlpha(op.Color.A * op.Alpha)
		sr, sg, sb, sa := col.RGBA8()
		if sa == 0 {
			return
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				cov := tmp.Pix[tmp.PixOffset(x, y)+3]
				if cov == 0 {
					continue
				}
				if clip != nil {
					cov = mul255(cov, clip[y*c.pm.Width+x])
					if cov == 0 {
						continue
					}
				}
				c.pm.blendSolid(y*c.pm.Stride+x*4, sr, sg, sb, sa, cov)
			}
		}
		return
	}

	src := &image.NRGBA{
		Pix:    img.Pix,
		Stride: img.Width * 4,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
	interp.Transform(tmp, aff, src, src.Rect, xdraw.Src, nil)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			o := tmp.PixOffset(x, y)
			ta := tmp.Pix[o+3]
			if ta == 0 {
				continue
			}
			f := fa
			if clip != nil {
				f = mul255(f, clip[y*c.pm.Width+x])
				if f == 0 {
					continue
				}
			}
			c.pm.blendPremult(y*c.pm.Stride+x*4, tmp.Pix[o], tmp.Pix[o+1], tmp.Pix[o+2], ta, f)
		}
	}
}

func (c *compositor) drawShading(op *scene.Op) {
	sh := op.Shading
	if sh == nil || len(sh.Stops) == 0 || op.Alpha <= 0 {
		return
	}
	m := op.Transform.Multiply(c.view)
	inv, ok := m.Invert()
	if !ok {
		return
	}
	clip := c.clip()
	for y := 0; y < c.pm.Height; y++ {
		for x := 0; x < c.pm.Width; x++ {
			cov := uint8(255)
			if clip != nil {
				cov = clip[y*c.pm.Width+x]
				if cov == 0 {
					continue
				}
			}
			ux, uy := inv.Transform(float64(x)+0.5, float64(y)+0.5)
			t, inside := shadingParam(sh, ux, uy)
			if !inside {
				continue
			}
			col := sh.ColorAt(t)
			if op.Alpha < 1 {
				col.A *= op.Alpha
			}
			sr, sg, sb, sa := col.RGBA8()
			if sa == 0 {
				continue
			}
			c.pm.blendSolid(y*c.pm.Stride+x*4, sr, sg, sb, sa, cov)
		}
	}
}

// shadingParam maps a point in shading space to the gradient parameter,
// honoring the extend flags. inside is false where nothing is painted.
func shadingParam(sh *scene.Shading, x, y float64) (t float64, inside bool) {
	if sh.Kind == scene.ShadingAxial {
		dx := sh.X1 - sh.X0
		dy := sh.Y1 - sh.Y0
		den := dx*dx + dy*dy
		if den == 0 {
			return 0, false
		}
		t = ((x-sh.X0)*dx + (y-sh.Y0)*dy) / den
		return clampExtend(t, sh.Extend0, sh.Extend1)
	}

	// radial: find the largest s where the interpolated circle passes
	// through the point and has nonnegative radius
	pdx := x - sh.X0
	pdy := y - sh.Y0
	cdx := sh.X1 - sh.X0
	cdy := sh.Y1 - sh.Y0
	dr := sh.R1 - sh.R0
	a := cdx*cdx + cdy*cdy - dr*dr
	b := pdx*cdx + pdy*cdy + sh.R0*dr
	cc := pdx*pdx + pdy*pdy - sh.R0*sh.R0

	radius := func(s float64) float64 { return sh.R0 + s*dr }
	var s float64
	found := false
	if math.Abs(a) < 1e-9 {
		if b != 0 {
			s = cc / (2 * b)
			found = radius(s) >= 0
		}
	} else {
		disc := b*b - a*cc
		if disc >= 0 {
			sq := math.Sqrt(disc)
			s1 := (b + sq) / a
			s2 := (b - sq) / a
			if s1 < s2 {
				s1, s2 = s2, s1
			}
			if radius(s1) >= 0 {
				s, found = s1, true
			} else if radius(s2) >= 0 {
				s, found = s2, true
			}
		}
	}
	if !found {
		return 0, false
	}
	return clampExtend(s, sh.Extend0, sh.Extend1)
}

func clampExtend(t float64, extend0, extend1 bool) (float64, bool) {
	if t < 0 {
		if !extend0 {
			return 0, false
		}
		return 0, true
	}
	if t > 1 {
		if !extend1 {
			return 0, false
		}
		return 1, true
	}
	return t, true
}

// quadBounds returns the pixel bounding box of the W x H source rectangle
// under the transform.
func quadBounds(m scene.Matrix, w, h float64) image.Rectangle {
	xs := [4]float64{}
	ys := [4]float64{}
	xs[0], ys[0] = m.Transform(0, 0)
	xs[1], ys[1] = m.Transform(w, 0)
	xs[2], ys[2] = m.Transform(0, h)
	xs[3], ys[3] = m.Transform(w, h)
	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 1; i < 4; i++ {
		minX = math.Min(minX, xs[i])
		maxX = math.Max(maxX, xs[i])
		minY = math.Min(minY, ys[i])
		maxY = math.Max(maxY, ys[i])
	}
	if !finite(minX) || !finite(minY) || !finite(maxX) || !finite(maxY) {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	)
}

// alphaPlane extracts the alpha channel of a stencil image.
func alphaPlane(img *scene.Image) []uint8 {
	out := make([]uint8, img.Width*img.Height)
	for i := range out {
		out[i] = img.Pix[i*4+3]
	}
	return out
}

func alpha8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func mul255(a, b uint8) uint8 {
	return uint8((uint32(a)*uint32(b) + 127) / 255)
}
