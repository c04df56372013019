package content

import (
	"fmt"
	"math"

	"github.com/novvoo/go-pdfrender/pkg/pdf"
	"github.com/novvoo/go-pdfrender/pkg/scene"
)

// spaceKind enumerates the color space families the sc/scn operators
// can paint through.
type spaceKind uint8

const (
	spaceGray spaceKind = iota
	spaceRGB
	spaceCMYK
	spaceIndexed
	spaceSeparation
	spaceLab
	spacePattern
)

// colorSpace converts operand components to a device color. Instances
// are immutable after parseColorSpace returns them.
type colorSpace struct {
	kind  spaceKind
	comps int

	// Indexed
	base   *colorSpace
	lookup []byte
	hival  int

	// Separation and single-component DeviceN
	tint *pdf.Function
	alt  *colorSpace

	// Lab
	rangeAB [4]float64

	// Pattern underlying space for uncolored patterns
	under *colorSpace
}

var (
	deviceGray   = &colorSpace{kind: spaceGray, comps: 1}
	deviceRGB    = &colorSpace{kind: spaceRGB, comps: 3}
	deviceCMYK   = &colorSpace{kind: spaceCMYK, comps: 4}
	patternSpace = &colorSpace{kind: spacePattern, comps: 1}
)

const maxColorSpaceDepth = 8

// parseColorSpace interprets a color space object from cs/CS operands
// or resource definitions. Unsupported families degrade to DeviceGray
// with an error the caller reports as a warning.
func parseColorSpace(doc *pdf.Document, obj pdf.Object, depth int) (*colorSpace, error) {
	if depth > maxColorSpaceDepth {
		return deviceGray, fmt.Errorf("color space nested too deeply")
	}
	resolved := doc.ResolveReference(obj)

	switch v := resolved.(type) {
	case pdf.Name:
		switch v {
		case "DeviceGray", "G", "CalGray":
			return deviceGray, nil
		case "DeviceRGB", "RGB", "CalRGB":
			return deviceRGB, nil
		case "DeviceCMYK", "CMYK":
			return deviceCMYK, nil
		case "Pattern":
			return patternSpace, nil
		}
		return deviceGray, fmt.Errorf("%w: ColorSpace/%s", pdf.ErrUndefinedResource, v)

	case pdf.Array:
		if len(v) == 0 {
			return deviceGray, nil
		}
		family, _ := doc.ResolveReference(v[0]).(pdf.Name)
		switch family {
		case "DeviceGray", "CalGray":
			return deviceGray, nil
		case "DeviceRGB", "CalRGB":
			return deviceRGB, nil
		case "DeviceCMYK":
			return deviceCMYK, nil

		case "ICCBased":
			n := int64(3)
			if len(v) > 1 {
				if stream, ok := doc.ResolveReference(v[1]).(pdf.Stream); ok {
					if sn, ok := stream.Dictionary.GetInt("N"); ok {
						n = sn
					}
				}
			}
			switch n {
			case 1:
				return deviceGray, nil
			case 4:
				return deviceCMYK, nil
			default:
				return deviceRGB, nil
			}

		case "Indexed", "I":
			return parseIndexedSpace(doc, v, depth)

		case "Separation":
			return parseSeparationSpace(doc, v, depth)

		case "DeviceN":
			return parseDeviceNSpace(doc, v, depth)

		case "Lab":
			cs := &colorSpace{kind: spaceLab, comps: 3, rangeAB: [4]float64{-100, 100, -100, 100}}
			if len(v) > 1 {
				if params, ok := doc.ResolveReference(v[1]).(pdf.Dictionary); ok {
					if r, ok := floatArray(doc, params.Get("Range")); ok && len(r) >= 4 {
						copy(cs.rangeAB[:], r[:4])
					}
				}
			}
			return cs, nil

		case "Pattern":
			cs := &colorSpace{kind: spacePattern, comps: 1}
			if len(v) > 1 {
				under, err := parseColorSpace(doc, v[1], depth+1)
				if err == nil {
					cs.under = under
					cs.comps = under.comps
				}
			}
			return cs, nil
		}
		return deviceGray, fmt.Errorf("unsupported color space family %s", family)
	}

	return deviceGray, fmt.Errorf("%w: invalid color space", pdf.ErrMalformedDocument)
}

func parseIndexedSpace(doc *pdf.Document, arr pdf.Array, depth int) (*colorSpace, error) {
	if len(arr) < 4 {
		return deviceGray, fmt.Errorf("%w: short Indexed color space", pdf.ErrMalformedDocument)
	}
	base, err := parseColorSpace(doc, arr[1], depth+1)
	if err != nil {
		return deviceGray, err
	}
	hival, ok := pdf.ToInt(doc.ResolveReference(arr[2]))
	if !ok || hival < 0 || hival > 255 {
		return deviceGray, fmt.Errorf("%w: invalid Indexed hival", pdf.ErrMalformedDocument)
	}

	var lookup []byte
	switch lv := doc.ResolveReference(arr[3]).(type) {
	case pdf.String:
		lookup = lv.Value
	case pdf.Stream:
		lookup, err = lv.Decode()
		if err != nil {
			return deviceGray, err
		}
	default:
		return deviceGray, fmt.Errorf("%w: invalid Indexed lookup", pdf.ErrMalformedDocument)
	}

	return &colorSpace{
		kind:   spaceIndexed,
		comps:  1,
		base:   base,
		lookup: lookup,
		hival:  int(hival),
	}, nil
}

func parseSeparationSpace(doc *pdf.Document, arr pdf.Array, depth int) (*colorSpace, error) {
	cs := &colorSpace{kind: spaceSeparation, comps: 1}
	if len(arr) < 4 {
		return cs, nil
	}
	alt, err := parseColorSpace(doc, arr[2], depth+1)
	if err != nil || alt.kind == spaceIndexed || alt.kind == spacePattern {
		return cs, nil
	}
	tint, err := pdf.ParseFunction(doc, arr[3])
	if err != nil {
		// Tint stays nil; the ink amount paints as gray.
		return cs, nil
	}
	cs.alt = alt
	cs.tint = tint
	return cs, nil
}

// parseDeviceNSpace handles DeviceN like a Separation when it carries a
// single component; wider spaces keep their arity for operand counting
// but paint through the first component only.
func parseDeviceNSpace(doc *pdf.Document, arr pdf.Array, depth int) (*colorSpace, error) {
	comps := 1
	if len(arr) > 1 {
		if names, ok := doc.ResolveReference(arr[1]).(pdf.Array); ok && len(names) > 0 {
			comps = len(names)
		}
	}
	if comps == 1 {
		cs, err := parseSeparationSpace(doc, arr, depth)
		return cs, err
	}
	return &colorSpace{kind: spaceSeparation, comps: comps}, nil
}

// initial returns the component values a space resets to when selected
// with cs/CS.
func (cs *colorSpace) initial() []float64 {
	switch cs.kind {
	case spaceCMYK:
		return []float64{0, 0, 0, 1}
	case spaceSeparation:
		out := make([]float64, cs.comps)
		for i := range out {
			out[i] = 1
		}
		return out
	default:
		return make([]float64, cs.comps)
	}
}

// color converts operand components to a device color. Short component
// slices read as zero.
func (cs *colorSpace) color(vals []float64) scene.Color {
	at := func(i int) float64 {
		if i < len(vals) {
			return vals[i]
		}
		return 0
	}

	switch cs.kind {
	case spaceGray:
		return scene.FromGray(at(0))
	case spaceRGB:
		return scene.FromRGB(at(0), at(1), at(2))
	case spaceCMYK:
		return scene.FromCMYK(at(0), at(1), at(2), at(3))

	case spaceIndexed:
		idx := int(at(0))
		if idx < 0 {
			idx = 0
		}
		if idx > cs.hival {
			idx = cs.hival
		}
		n := cs.base.comps
		base := make([]float64, n)
		for i := 0; i < n; i++ {
			off := idx*n + i
			if off < len(cs.lookup) {
				base[i] = float64(cs.lookup[off]) / 255
			}
		}
		if cs.base.kind == spaceLab {
			base[0] *= 100
			base[1] = cs.base.rangeAB[0] + base[1]*(cs.base.rangeAB[1]-cs.base.rangeAB[0])
			base[2] = cs.base.rangeAB[2] + base[2]*(cs.base.rangeAB[3]-cs.base.rangeAB[2])
		}
		return cs.base.color(base)

	case spaceSeparation:
		if cs.tint != nil && cs.alt != nil {
			return cs.alt.color(cs.tint.Eval(at(0)))
		}
		// No usable tint transform: show the ink amount directly.
		return scene.FromGray(1 - at(0))

	case spaceLab:
		r, g, b := labToRGB(at(0), at(1), at(2))
		return scene.FromRGB(r, g, b)

	case spacePattern:
		// Pattern color arrives via scn; bare components mean an
		// uncolored pattern, painted through the underlying space.
		if cs.under != nil {
			return cs.under.color(vals)
		}
		return scene.Black
	}
	return scene.Black
}

// labToRGB converts CIE L*a*b* under the D50 white point to sRGB.
func labToRGB(l, a, b float64) (float64, float64, float64) {
	fy := (l + 16) / 116
	fx := fy + a/500
	fz := fy - b/200

	finv := func(t float64) float64 {
		if t > 6.0/29 {
			return t * t * t
		}
		return 3 * (6.0 / 29) * (6.0 / 29) * (t - 4.0/29)
	}

	x := 0.9642 * finv(fx)
	y := 1.0 * finv(fy)
	z := 0.8249 * finv(fz)

	r := 3.1338561*x - 1.6168667*y - 0.4906146*z
	g := -0.9787684*x + 1.9161415*y + 0.0334540*z
	bb := 0.0719453*x - 0.2289914*y + 1.4052427*z

	gamma := func(v float64) float64 {
		if v <= 0.0031308 {
			return 12.92 * v
		}
		return 1.055*math.Pow(v, 1/2.4) - 0.055
	}
	return gamma(r), gamma(g), gamma(bb)
}

// floatArray resolves an array of numbers, following references on the
// array and its elements.
func floatArray(doc *pdf.Document, obj pdf.Object) ([]float64, bool) {
	arr, ok := doc.ResolveReference(obj).(pdf.Array)
	if !ok {
		return nil, false
	}
	out := make([]float64, 0, len(arr))
	for _, item := range arr {
		v, ok := pdf.ToFloat(doc.ResolveReference(item))
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}
