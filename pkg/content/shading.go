package content

import (
	"fmt"

	"github.com/novvoo/go-pdfrender/pkg/pdf"
	"github.com/novvoo/go-pdfrender/pkg/scene"
)

// Shading ramps are pre-sampled so both rasterization backends blend the
// identical colors. 64 stops keep stitching boundaries within a pixel
// at common page scales.
const shadingSamples = 64

// parseShading builds a scene shading from a Shading dictionary or
// stream. Only axial (type 2) and radial (type 3) geometries with
// evaluable functions are supported; everything else errors and the
// caller degrades.
func parseShading(doc *pdf.Document, obj pdf.Object) (*scene.Shading, error) {
	resolved := doc.ResolveReference(obj)

	var dict pdf.Dictionary
	switch v := resolved.(type) {
	case pdf.Dictionary:
		dict = v
	case pdf.Stream:
		dict = v.Dictionary
	default:
		return nil, fmt.Errorf("%w: shading is not a dictionary", pdf.ErrMalformedDocument)
	}

	st, ok := pdf.ToInt(doc.ResolveReference(dict.Get("ShadingType")))
	if !ok {
		return nil, fmt.Errorf("%w: shading missing ShadingType", pdf.ErrMalformedDocument)
	}

	sh := &scene.Shading{}
	coords, _ := floatArray(doc, dict.Get("Coords"))
	switch st {
	case 2:
		if len(coords) < 4 {
			return nil, fmt.Errorf("%w: axial shading needs 4 coords", pdf.ErrMalformedDocument)
		}
		sh.Kind = scene.ShadingAxial
		sh.X0, sh.Y0, sh.X1, sh.Y1 = coords[0], coords[1], coords[2], coords[3]
	case 3:
		if len(coords) < 6 {
			return nil, fmt.Errorf("%w: radial shading needs 6 coords", pdf.ErrMalformedDocument)
		}
		sh.Kind = scene.ShadingRadial
		sh.X0, sh.Y0, sh.R0 = coords[0], coords[1], coords[2]
		sh.X1, sh.Y1, sh.R1 = coords[3], coords[4], coords[5]
	default:
		return nil, fmt.Errorf("unsupported shading type %d", st)
	}

	cs, err := parseColorSpace(doc, dict.Get("ColorSpace"), 0)
	if err != nil {
		return nil, err
	}
	if cs.kind == spacePattern {
		return nil, fmt.Errorf("%w: pattern color space in shading", pdf.ErrMalformedDocument)
	}

	ramp, err := shadingRamp(doc, dict.Get("Function"), cs)
	if err != nil {
		return nil, err
	}

	domain := [2]float64{0, 1}
	if d, ok := floatArray(doc, dict.Get("Domain")); ok && len(d) >= 2 {
		domain[0], domain[1] = d[0], d[1]
	}

	if ext, ok := doc.ResolveReference(dict.Get("Extend")).(pdf.Array); ok && len(ext) >= 2 {
		if b, ok := doc.ResolveReference(ext[0]).(pdf.Boolean); ok {
			sh.Extend0 = bool(b)
		}
		if b, ok := doc.ResolveReference(ext[1]).(pdf.Boolean); ok {
			sh.Extend1 = bool(b)
		}
	}

	sh.Stops = make([]scene.GradientStop, 0, shadingSamples)
	for i := 0; i < shadingSamples; i++ {
		s := float64(i) / float64(shadingSamples-1)
		t := domain[0] + s*(domain[1]-domain[0])
		sh.Stops = append(sh.Stops, scene.GradientStop{T: s, Color: ramp(t)})
	}
	return sh, nil
}

// shadingRamp builds the t-to-color evaluator from the Function entry,
// which is either one function producing all components or an array of
// per-component functions.
func shadingRamp(doc *pdf.Document, obj pdf.Object, cs *colorSpace) (func(float64) scene.Color, error) {
	resolved := doc.ResolveReference(obj)
	if resolved == nil {
		return nil, fmt.Errorf("%w: shading missing Function", pdf.ErrMalformedDocument)
	}

	if arr, ok := resolved.(pdf.Array); ok {
		funcs := make([]*pdf.Function, 0, len(arr))
		for _, item := range arr {
			fn, err := pdf.ParseFunction(doc, item)
			if err != nil {
				return nil, err
			}
			funcs = append(funcs, fn)
		}
		if len(funcs) == 0 {
			return nil, fmt.Errorf("%w: empty shading Function array", pdf.ErrMalformedDocument)
		}
		return func(t float64) scene.Color {
			comps := make([]float64, len(funcs))
			for i, fn := range funcs {
				if out := fn.Eval(t); len(out) > 0 {
					comps[i] = out[0]
				}
			}
			return cs.color(comps)
		}, nil
	}

	fn, err := pdf.ParseFunction(doc, resolved)
	if err != nil {
		return nil, err
	}
	return func(t float64) scene.Color {
		return cs.color(fn.Eval(t))
	}, nil
}
