package scene

// Color is a resolved device color with straight (non-premultiplied) alpha.
// Components are in [0, 1]. Interpreter-side color spaces are converted to
// device RGB before a color enters the scene.
type Color struct {
	R, G, B, A float64
}

// Black is the default fill and stroke color.
var Black = Color{0, 0, 0, 1}

// White is opaque white.
var White = Color{1, 1, 1, 1}

// FromGray converts a DeviceGray value to a device color.
func FromGray(g float64) Color {
	g = clamp01(g)
	return Color{g, g, g, 1}
}

// FromRGB converts DeviceRGB components to a device color.
func FromRGB(r, g, b float64) Color {
	return Color{clamp01(r), clamp01(g), clamp01(b), 1}
}

// FromCMYK converts DeviceCMYK components to a device color using the
// standard additive formula.
func FromCMYK(c, m, y, k float64) Color {
	c, m, y, k = clamp01(c), clamp01(m), clamp01(y), clamp01(k)
	return Color{
		R: (1 - c) * (1 - k),
		G: (1 - m) * (1 - k),
		B: (1 - y) * (1 - k),
		A: 1,
	}
}

// WithAlpha returns the color with its alpha replaced.
func (c Color) WithAlpha(a float64) Color {
	c.A = clamp01(a)
	return c
}

// RGBA8 returns the color quantized to 8-bit channels.
func (c Color) RGBA8() (r, g, b, a uint8) {
	return quant8(c.R), quant8(c.G), quant8(c.B), quant8(c.A)
}

func quant8(v float64) uint8 {
	v = clamp01(v)
	return uint8(v*255 + 0.5)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
