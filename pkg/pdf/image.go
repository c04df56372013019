package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	"golang.org/x/image/draw"
)

// DecodedImage is an image XObject or inline image decoded to 8-bit RGBA
// with straight alpha. Stencil masks keep IsMask set and carry coverage in
// the alpha channel only.
type DecodedImage struct {
	Width, Height int
	Pix           []uint8
	IsMask        bool
	Interpolate   bool
}

// Image dimension cap, keeps a corrupt header from allocating without bound
const maxImagePixels = 1 << 26

// DecodeImageStream decodes an image stream into RGBA samples. resolveCS
// maps named color spaces to their definitions from the page resources;
// a nil func fails such lookups.
func DecodeImageStream(d *Document, stream Stream, resolveCS func(Name) (Object, error)) (*DecodedImage, error) {
	dict := stream.Dictionary

	width, ok := dictInt(dict, "Width", "W")
	if !ok {
		return nil, fmt.Errorf("%w: image missing Width", ErrMalformedDocument)
	}
	height, ok := dictInt(dict, "Height", "H")
	if !ok {
		return nil, fmt.Errorf("%w: image missing Height", ErrMalformedDocument)
	}
	if width <= 0 || height <= 0 || width*height > maxImagePixels {
		return nil, fmt.Errorf("%w: invalid image dimensions %dx%d", ErrMalformedDocument, width, height)
	}

	interpolate := dictBool(d, dict, "Interpolate", "I")

	if dictBool(d, dict, "ImageMask", "IM") {
		return decodeStencil(d, stream, int(width), int(height), interpolate)
	}

	bpc, ok := dictInt(dict, "BitsPerComponent", "BPC")
	if !ok {
		bpc = 8
	}
	switch bpc {
	case 1, 2, 4, 8, 16:
	default:
		return nil, fmt.Errorf("%w: invalid BitsPerComponent %d", ErrMalformedDocument, bpc)
	}

	csObj := dict.Get("ColorSpace")
	if csObj == nil {
		csObj = dict.Get("CS")
	}
	cs, err := parseImageColorSpace(d, csObj, resolveCS)
	if err != nil {
		return nil, err
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, err
	}

	img := &DecodedImage{
		Width:       int(width),
		Height:      int(height),
		Interpolate: interpolate,
	}

	if stream.RawImageFilter() != "" {
		if err := decodeJPEGInto(img, data); err != nil {
			return nil, err
		}
	} else {
		decode, _ := d.resolveFloatArray(dict.Get("Decode"))
		if decode == nil {
			decode, _ = d.resolveFloatArray(dict.Get("D"))
		}
		colorKey := colorKeyRanges(d, dict)
		decodeSamplesInto(img, data, cs, int(bpc), decode, colorKey)
	}

	applyMasks(d, dict, img, resolveCS)
	return img, nil
}

// dictInt reads an integer under either its full or abbreviated key
func dictInt(dict Dictionary, key, abbrev string) (int64, bool) {
	if v, ok := dict.GetInt(key); ok {
		return v, true
	}
	return dict.GetInt(abbrev)
}

// dictBool reads a boolean under either key, resolving references
func dictBool(d *Document, dict Dictionary, key, abbrev string) bool {
	obj := dict.Get(key)
	if obj == nil {
		obj = dict.Get(abbrev)
	}
	b, ok := d.ResolveReference(obj).(Boolean)
	return ok && bool(b)
}

// colorKeyRanges reads a color key /Mask array
func colorKeyRanges(d *Document, dict Dictionary) []int64 {
	arr, ok := d.ResolveReference(dict.Get("Mask")).(Array)
	if !ok {
		return nil
	}
	ranges := make([]int64, 0, len(arr))
	for _, item := range arr {
		v, ok := ToInt(d.ResolveReference(item))
		if !ok {
			return nil
		}
		ranges = append(ranges, v)
	}
	return ranges
}

// decodeStencil decodes a 1-bit stencil mask. Sample 0 paints by default;
// a Decode of [1 0] flips that.
func decodeStencil(d *Document, stream Stream, width, height int, interpolate bool) (*DecodedImage, error) {
	data, err := stream.Decode()
	if err != nil {
		return nil, err
	}

	paintOn := byte(0)
	if decode, _ := d.resolveFloatArray(stream.Dictionary.Get("Decode")); len(decode) >= 1 && decode[0] == 1 {
		paintOn = 1
	}

	img := &DecodedImage{
		Width:       width,
		Height:      height,
		Pix:         make([]uint8, width*height*4),
		IsMask:      true,
		Interpolate: interpolate,
	}

	rowBytes := (width + 7) / 8
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			bit := byte(0)
			idx := y*rowBytes + x/8
			if idx < len(data) {
				bit = (data[idx] >> (7 - uint(x)%8)) & 1
			}
			p := (y*width + x) * 4
			img.Pix[p] = 0xFF
			img.Pix[p+1] = 0xFF
			img.Pix[p+2] = 0xFF
			if bit == paintOn {
				img.Pix[p+3] = 0xFF
			}
		}
	}
	return img, nil
}

// decodeJPEGInto decodes DCT data with the standard JPEG decoder
func decodeJPEGInto(img *DecodedImage, data []byte) error {
	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: DCTDecode: %v", ErrUnsupportedFilter, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	if decoded.Bounds().Dx() == img.Width && decoded.Bounds().Dy() == img.Height {
		draw.Draw(dst, dst.Bounds(), decoded, decoded.Bounds().Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), decoded, decoded.Bounds(), draw.Src, nil)
	}
	img.Pix = dst.Pix
	return nil
}

// decodeSamplesInto unpacks raw samples row by row and converts them
// through the color space. Rows are byte aligned.
func decodeSamplesInto(img *DecodedImage, data []byte, cs *imageColorSpace, bpc int, decode []float64, colorKey []int64) {
	width, height := img.Width, img.Height
	img.Pix = make([]uint8, width*height*4)

	comps := cs.components
	rowBytes := (width*comps*bpc + 7) / 8

	// 16-bit samples are reduced to their high byte on read
	maxVal := float64(int64(1)<<uint(bpc) - 1)
	if bpc == 16 {
		maxVal = 255
	}

	if len(decode) < 2*comps {
		decode = cs.defaultDecode(maxVal)
	}

	raw := make([]int64, comps)
	vals := make([]float64, comps)

	for y := 0; y < height; y++ {
		rowBase := y * rowBytes * 8
		for x := 0; x < width; x++ {
			for c := 0; c < comps; c++ {
				bitOff := rowBase + (x*comps+c)*bpc
				raw[c] = readBits(data, bitOff, bpc)
				if bpc == 16 {
					raw[c] >>= 8
				}
			}

			masked := len(colorKey) >= 2*comps
			for c := 0; c < comps && masked; c++ {
				v := raw[c]
				if bpc == 16 {
					// Color keys compare against full-precision samples
					v <<= 8
				}
				if v < colorKey[2*c] || v > colorKey[2*c+1] {
					masked = false
				}
			}

			for c := 0; c < comps; c++ {
				dmin, dmax := decode[2*c], decode[2*c+1]
				vals[c] = dmin + float64(raw[c])*(dmax-dmin)/maxVal
			}

			r, g, b := cs.rgb(vals)
			p := (y*width + x) * 4
			img.Pix[p] = quantByte(r)
			img.Pix[p+1] = quantByte(g)
			img.Pix[p+2] = quantByte(b)
			if masked {
				img.Pix[p+3] = 0
			} else {
				img.Pix[p+3] = 0xFF
			}
		}
	}
}

// readBits reads width bits starting at bit offset off, MSB first
func readBits(data []byte, off, width int) int64 {
	var v int64
	for i := 0; i < width; i++ {
		byteIdx := (off + i) / 8
		if byteIdx >= len(data) {
			return v << uint(width-i)
		}
		bit := (data[byteIdx] >> (7 - uint(off+i)%8)) & 1
		v = v<<1 | int64(bit)
	}
	return v
}

func quantByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// applyMasks folds SMask alpha or a stencil Mask stream into the image
func applyMasks(d *Document, dict Dictionary, img *DecodedImage, resolveCS func(Name) (Object, error)) {
	if smask, ok := d.ResolveReference(dict.Get("SMask")).(Stream); ok {
		if alpha, err := DecodeImageStream(d, smask, resolveCS); err == nil {
			multiplyAlpha(img, alpha, false)
		}
		return
	}

	// A stream-valued Mask is a stencil whose painted areas are excluded
	if mask, ok := d.ResolveReference(dict.Get("Mask")).(Stream); ok {
		if stencil, err := DecodeImageStream(d, mask, resolveCS); err == nil && stencil.IsMask {
			multiplyAlpha(img, stencil, true)
		}
	}
}

// multiplyAlpha scales the image alpha by the mask's coverage, nearest
// sampled when dimensions differ. invert excludes covered areas instead.
func multiplyAlpha(img, mask *DecodedImage, invert bool) {
	if mask.Width <= 0 || mask.Height <= 0 {
		return
	}
	for y := 0; y < img.Height; y++ {
		my := y * mask.Height / img.Height
		for x := 0; x < img.Width; x++ {
			mx := x * mask.Width / img.Width
			mp := (my*mask.Width + mx) * 4
			a := int(mask.Pix[mp+3])
			if !mask.IsMask {
				// Soft mask luminosity lives in the gray channels
				a = int(mask.Pix[mp])
			}
			if invert {
				a = 255 - a
			}
			p := (y*img.Width + x) * 4
			img.Pix[p+3] = uint8(int(img.Pix[p+3]) * a / 255)
		}
	}
}

// csKind enumerates the supported image color space families
type csKind int

const (
	csGray csKind = iota
	csRGB
	csCMYK
	csIndexed
	csSeparation
	csLab
)

// imageColorSpace converts decoded samples to RGB
type imageColorSpace struct {
	kind       csKind
	components int

	// Indexed
	base   *imageColorSpace
	lookup []byte
	hival  int64

	// Separation
	tint *Function
	alt  *imageColorSpace

	// Lab
	rangeAB [4]float64
}

// parseImageColorSpace interprets a color space object. Unsupported
// families degrade to gray rather than failing the whole image.
func parseImageColorSpace(d *Document, obj Object, resolveCS func(Name) (Object, error)) (*imageColorSpace, error) {
	resolved := d.ResolveReference(obj)

	switch v := resolved.(type) {
	case nil, Null:
		return &imageColorSpace{kind: csGray, components: 1}, nil

	case Name:
		switch v {
		case "DeviceGray", "G", "CalGray":
			return &imageColorSpace{kind: csGray, components: 1}, nil
		case "DeviceRGB", "RGB", "CalRGB":
			return &imageColorSpace{kind: csRGB, components: 3}, nil
		case "DeviceCMYK", "CMYK":
			return &imageColorSpace{kind: csCMYK, components: 4}, nil
		case "Indexed", "I":
			return nil, fmt.Errorf("%w: bare Indexed color space", ErrMalformedDocument)
		case "Pattern":
			return nil, fmt.Errorf("%w: Pattern color space on image", ErrMalformedDocument)
		}
		// A named space defined in the page resources
		if resolveCS != nil {
			defined, err := resolveCS(v)
			if err == nil {
				return parseImageColorSpace(d, defined, nil)
			}
		}
		return nil, fmt.Errorf("%w: ColorSpace/%s", ErrUndefinedResource, v)

	case Array:
		if len(v) == 0 {
			return &imageColorSpace{kind: csGray, components: 1}, nil
		}
		family, _ := d.ResolveReference(v[0]).(Name)
		switch family {
		case "ICCBased":
			n := int64(3)
			if len(v) > 1 {
				if stream, ok := d.ResolveReference(v[1]).(Stream); ok {
					if sn, ok := stream.Dictionary.GetInt("N"); ok {
						n = sn
					}
				}
			}
			switch n {
			case 1:
				return &imageColorSpace{kind: csGray, components: 1}, nil
			case 4:
				return &imageColorSpace{kind: csCMYK, components: 4}, nil
			default:
				return &imageColorSpace{kind: csRGB, components: 3}, nil
			}

		case "Indexed", "I":
			return parseIndexed(d, v, resolveCS)

		case "Separation", "DeviceN":
			return parseSeparation(d, v, resolveCS)

		case "CalGray":
			return &imageColorSpace{kind: csGray, components: 1}, nil
		case "CalRGB":
			return &imageColorSpace{kind: csRGB, components: 3}, nil
		case "Lab":
			cs := &imageColorSpace{kind: csLab, components: 3, rangeAB: [4]float64{-100, 100, -100, 100}}
			if len(v) > 1 {
				if params, ok := d.ResolveReference(v[1]).(Dictionary); ok {
					if r, ok := d.resolveFloatArray(params.Get("Range")); ok && len(r) >= 4 {
						copy(cs.rangeAB[:], r[:4])
					}
				}
			}
			return cs, nil
		}
		return &imageColorSpace{kind: csGray, components: 1}, nil
	}

	return nil, fmt.Errorf("%w: invalid image color space", ErrMalformedDocument)
}

// parseIndexed parses [/Indexed base hival lookup]
func parseIndexed(d *Document, arr Array, resolveCS func(Name) (Object, error)) (*imageColorSpace, error) {
	if len(arr) < 4 {
		return nil, fmt.Errorf("%w: short Indexed color space", ErrMalformedDocument)
	}
	base, err := parseImageColorSpace(d, arr[1], resolveCS)
	if err != nil {
		return nil, err
	}
	hival, ok := ToInt(d.ResolveReference(arr[2]))
	if !ok || hival < 0 || hival > 255 {
		return nil, fmt.Errorf("%w: invalid Indexed hival", ErrMalformedDocument)
	}

	var lookup []byte
	switch lv := d.ResolveReference(arr[3]).(type) {
	case String:
		lookup = lv.Value
	case Stream:
		lookup, err = lv.Decode()
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: invalid Indexed lookup", ErrMalformedDocument)
	}

	return &imageColorSpace{
		kind:       csIndexed,
		components: 1,
		base:       base,
		lookup:     lookup,
		hival:      hival,
	}, nil
}

// parseSeparation parses [/Separation name alt tint] and single-component
// DeviceN spaces. Multi-component DeviceN and unsupported tint functions
// degrade to a gray ramp.
func parseSeparation(d *Document, arr Array, resolveCS func(Name) (Object, error)) (*imageColorSpace, error) {
	comps := 1
	if family, _ := d.ResolveReference(arr[0]).(Name); family == "DeviceN" {
		if names, ok := d.ResolveReference(arr[1]).(Array); ok {
			comps = len(names)
		}
	}
	if comps != 1 || len(arr) < 4 {
		return &imageColorSpace{kind: csGray, components: maxInt(comps, 1)}, nil
	}

	alt, err := parseImageColorSpace(d, arr[2], resolveCS)
	if err != nil || alt.kind == csIndexed || alt.kind == csSeparation {
		return &imageColorSpace{kind: csGray, components: 1}, nil
	}
	tint, err := ParseFunction(d, arr[3])
	if err != nil {
		return &imageColorSpace{kind: csGray, components: 1}, nil
	}

	return &imageColorSpace{
		kind:       csSeparation,
		components: 1,
		tint:       tint,
		alt:        alt,
	}, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// defaultDecode returns the component ranges used when the image carries
// no Decode array. maxVal is the top sample value for the bit depth.
func (cs *imageColorSpace) defaultDecode(maxVal float64) []float64 {
	switch cs.kind {
	case csIndexed:
		return []float64{0, maxVal}
	case csLab:
		return []float64{0, 100, cs.rangeAB[0], cs.rangeAB[1], cs.rangeAB[2], cs.rangeAB[3]}
	}
	decode := make([]float64, 2*cs.components)
	for c := 0; c < cs.components; c++ {
		decode[2*c+1] = 1
	}
	return decode
}

// rgb converts one pixel's decoded component values to RGB in [0,1]
func (cs *imageColorSpace) rgb(vals []float64) (r, g, b float64) {
	switch cs.kind {
	case csGray:
		v := vals[0]
		if cs.components > 1 {
			// Fallback for unsupported multi-component spaces
			sum := 0.0
			for _, c := range vals {
				sum += c
			}
			v = 1 - sum/float64(len(vals))
		}
		return v, v, v

	case csRGB:
		return vals[0], vals[1], vals[2]

	case csCMYK:
		c, m, y, k := vals[0], vals[1], vals[2], vals[3]
		return (1 - c) * (1 - k), (1 - m) * (1 - k), (1 - y) * (1 - k)

	case csIndexed:
		idx := int64(vals[0] + 0.5)
		if idx < 0 {
			idx = 0
		}
		if idx > cs.hival {
			idx = cs.hival
		}
		n := cs.base.components
		baseVals := make([]float64, n)
		for c := 0; c < n; c++ {
			li := int(idx)*n + c
			if li < len(cs.lookup) {
				baseVals[c] = float64(cs.lookup[li]) / 255
			}
		}
		if cs.base.kind == csLab {
			// Lookup bytes span the Lab component ranges
			baseVals[0] *= 100
			baseVals[1] = cs.base.rangeAB[0] + baseVals[1]*(cs.base.rangeAB[1]-cs.base.rangeAB[0])
			baseVals[2] = cs.base.rangeAB[2] + baseVals[2]*(cs.base.rangeAB[3]-cs.base.rangeAB[2])
		}
		return cs.base.rgb(baseVals)

	case csSeparation:
		out := cs.tint.Eval(vals[0])
		if len(out) < cs.alt.components {
			v := 1 - vals[0]
			return v, v, v
		}
		return cs.alt.rgb(out[:cs.alt.components])

	case csLab:
		return labToRGB(vals[0], vals[1], vals[2])
	}
	return 0, 0, 0
}

// labToRGB converts CIE L*a*b* under D50 to sRGB
func labToRGB(l, a, b float64) (float64, float64, float64) {
	fy := (l + 16) / 116
	fx := fy + a/500
	fz := fy - b/200

	finv := func(t float64) float64 {
		if t > 6.0/29.0 {
			return t * t * t
		}
		return 3 * (6.0 / 29.0) * (6.0 / 29.0) * (t - 4.0/29.0)
	}

	// D50 white point
	x := 0.9642 * finv(fx)
	y := 1.0 * finv(fy)
	z := 0.8249 * finv(fz)

	r := 3.1339*x - 1.6170*y - 0.4906*z
	g := -0.9785*x + 1.9160*y + 0.0333*z
	bb := 0.0720*x - 0.2290*y + 1.4057*z

	gamma := func(v float64) float64 {
		if v <= 0.0031308 {
			return 12.92 * v
		}
		return 1.055*math.Pow(v, 1/2.4) - 0.055
	}
	return clampUnit(gamma(r)), clampUnit(gamma(g)), clampUnit(gamma(bb))
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
