// Package raster turns scenes into pixels. It provides the Renderer
// interface with exactly two implementations, Software and GPU, both
// compositing through the same engine so their output agrees on every
// scene to anti-aliasing tolerance.
package raster

import (
	"image"

	"github.com/novvoo/go-pdfrender/pkg/scene"
)

// Pixmap is a render target: alpha-premultiplied RGBA8, row-major, four
// bytes per pixel. A freshly allocated pixmap is fully transparent.
type Pixmap struct {
	Width  int
	Height int
	Stride int
	Pix    []uint8
}

// NewPixmap allocates a transparent pixmap of the given size.
func NewPixmap(width, height int) *Pixmap {
	return &Pixmap{
		Width:  width,
		Height: height,
		Stride: width * 4,
		Pix:    make([]uint8, width*height*4),
	}
}

// Clear fills the whole pixmap with a color, replacing prior content.
func (p *Pixmap) Clear(c scene.Color) {
	r, g, b, a := c.RGBA8()
	// premultiply once, then stamp the first row and copy it down
	pr := uint8((uint32(r)*uint32(a) + 127) / 255)
	pg := uint8((uint32(g)*uint32(a) + 127) / 255)
	pb := uint8((uint32(b)*uint32(a) + 127) / 255)
	if p.Width == 0 || p.Height == 0 {
		return
	}
	for x := 0; x < p.Width; x++ {
		o := x * 4
		p.Pix[o] = pr
		p.Pix[o+1] = pg
		p.Pix[o+2] = pb
		p.Pix[o+3] = a
	}
	for y := 1; y < p.Height; y++ {
		copy(p.Pix[y*p.Stride:(y+1)*p.Stride], p.Pix[:p.Stride])
	}
}

// At returns the premultiplied RGBA channels at (x, y). Out-of-range
// coordinates return zeros.
func (p *Pixmap) At(x, y int) (r, g, b, a uint8) {
	if x < 0 || y < 0 || x >= p.Width || y >= p.Height {
		return 0, 0, 0, 0
	}
	o := y*p.Stride + x*4
	return p.Pix[o], p.Pix[o+1], p.Pix[o+2], p.Pix[o+3]
}

// Image wraps the pixel data in an image.RGBA sharing the same backing
// array, so encoding to PNG or further drawing needs no copy.
func (p *Pixmap) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    p.Pix,
		Stride: p.Stride,
		Rect:   image.Rect(0, 0, p.Width, p.Height),
	}
}

// Clone returns a deep copy of the pixmap.
func (p *Pixmap) Clone() *Pixmap {
	c := &Pixmap{Width: p.Width, Height: p.Height, Stride: p.Stride, Pix: make([]uint8, len(p.Pix))}
	copy(c.Pix, p.Pix)
	return c
}

// blendSolid composites a straight-alpha color over the pixel at offset o
// with the given coverage. The destination stays premultiplied; effective
// alpha is coverage scaled by the color's own alpha.
func (p *Pixmap) blendSolid(o int, sr, sg, sb, sa uint8, cov uint8) {
	alpha := (uint32(cov)*uint32(sa) + 255) >> 8
	if alpha == 0 {
		return
	}
	if alpha == 255 {
		p.Pix[o] = sr
		p.Pix[o+1] = sg
		p.Pix[o+2] = sb
		p.Pix[o+3] = 255
		return
	}
	inv := 255 - alpha
	p.Pix[o] = uint8((uint32(sr)*alpha + uint32(p.Pix[o])*inv + 127) / 255)
	p.Pix[o+1] = uint8((uint32(sg)*alpha + uint32(p.Pix[o+1])*inv + 127) / 255)
	p.Pix[o+2] = uint8((uint32(sb)*alpha + uint32(p.Pix[o+2])*inv + 127) / 255)
	p.Pix[o+3] = uint8((255*alpha + uint32(p.Pix[o+3])*inv + 127) / 255)
}

// blendPremult composites an already premultiplied source pixel scaled by
// factor over the pixel at offset o.
func (p *Pixmap) blendPremult(o int, sr, sg, sb, sa uint8, factor uint8) {
	alpha := (uint32(sa)*uint32(factor) + 255) >> 8
	if alpha == 0 {
		return
	}
	inv := 255 - alpha
	f := uint32(factor)
	p.Pix[o] = uint8((uint32(sr)*f + uint32(p.Pix[o])*inv + 127) / 255)
	p.Pix[o+1] = uint8((uint32(sg)*f + uint32(p.Pix[o+1])*inv + 127) / 255)
	p.Pix[o+2] = uint8((uint32(sb)*f + uint32(p.Pix[o+2])*inv + 127) / 255)
	p.Pix[o+3] = uint8((uint32(sa)*f + uint32(p.Pix[o+3])*inv + 127) / 255)
}
