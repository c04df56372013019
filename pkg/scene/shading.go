package scene

// ShadingKind distinguishes the supported gradient geometries.
type ShadingKind uint8

const (
	ShadingAxial ShadingKind = iota
	ShadingRadial
)

// GradientStop is one sampled point of a shading function.
type GradientStop struct {
	T     float64 // position in [0, 1] along the gradient axis
	Color Color
}

// Shading is a gradient with its color function pre-sampled into stops, so
// both backends evaluate the identical ramp. Coordinates are in the op's
// user space. Axial gradients run from (X0, Y0) to (X1, Y1); radial
// gradients blend between the circles (X0, Y0, R0) and (X1, Y1, R1).
type Shading struct {
	Kind             ShadingKind
	X0, Y0, X1, Y1   float64
	R0, R1           float64
	Stops            []GradientStop
	Extend0, Extend1 bool
}

// ColorAt evaluates the ramp at t, clamping to the end stops. t outside
// [0, 1] returns the nearest end color; callers handle extend semantics
// before asking for a color.
func (s *Shading) ColorAt(t float64) Color {
	if len(s.Stops) == 0 {
		return Color{}
	}
	if t <= s.Stops[0].T {
		return s.Stops[0].Color
	}
	last := s.Stops[len(s.Stops)-1]
	if t >= last.T {
		return last.Color
	}
	for i := 1; i < len(s.Stops); i++ {
		if t <= s.Stops[i].T {
			a, b := s.Stops[i-1], s.Stops[i]
			span := b.T - a.T
			if span <= 0 {
				return b.Color
			}
			f := (t - a.T) / span
			return Color{
				R: a.Color.R + (b.Color.R-a.Color.R)*f,
				G: a.Color.G + (b.Color.G-a.Color.G)*f,
				B: a.Color.B + (b.Color.B-a.Color.B)*f,
				A: a.Color.A + (b.Color.A-a.Color.A)*f,
			}
		}
	}
	return last.Color
}
