package pdf

import (
	"fmt"
	"math"
)

// FunctionType identifies the function dictionary flavor
type FunctionType int

const (
	// FunctionExponential is type 2, an exponential interpolation
	FunctionExponential FunctionType = 2
	// FunctionStitching is type 3, a piecewise combination of functions
	FunctionStitching FunctionType = 3
)

// Function is a one-input PDF function as used by shadings. Sampled
// (type 0) and calculator (type 4) functions are not evaluated; shadings
// relying on them degrade at a higher level.
type Function struct {
	Type   FunctionType
	Domain [2]float64

	// Exponential
	c0, c1 []float64
	n      float64

	// Stitching
	funcs  []*Function
	bounds []float64
	encode []float64
}

// ParseFunction parses a function object, resolving references
func ParseFunction(d *Document, obj Object) (*Function, error) {
	resolved, err := d.Resolve(obj)
	if err != nil {
		return nil, err
	}

	var dict Dictionary
	switch v := resolved.(type) {
	case Dictionary:
		dict = v
	case Stream:
		dict = v.Dictionary
	default:
		return nil, fmt.Errorf("function is not a dictionary")
	}

	ft, ok := dict.GetInt("FunctionType")
	if !ok {
		return nil, fmt.Errorf("function missing FunctionType")
	}

	f := &Function{Domain: [2]float64{0, 1}}
	if domain, ok := dict.GetArray("Domain"); ok && len(domain) >= 2 {
		if v, ok := ToFloat(d.ResolveReference(domain[0])); ok {
			f.Domain[0] = v
		}
		if v, ok := ToFloat(d.ResolveReference(domain[1])); ok {
			f.Domain[1] = v
		}
	}

	switch ft {
	case 2:
		f.Type = FunctionExponential
		f.c0 = []float64{0}
		f.c1 = []float64{1}
		if c0, ok := d.resolveFloatArray(dict.Get("C0")); ok {
			f.c0 = c0
		}
		if c1, ok := d.resolveFloatArray(dict.Get("C1")); ok {
			f.c1 = c1
		}
		f.n = 1
		if n, ok := ToFloat(d.ResolveReference(dict.Get("N"))); ok {
			f.n = n
		}
		return f, nil

	case 3:
		f.Type = FunctionStitching
		fnArr, ok := dict.GetArray("Functions")
		if !ok || len(fnArr) == 0 {
			return nil, fmt.Errorf("stitching function missing Functions")
		}
		for _, sub := range fnArr {
			subFn, err := ParseFunction(d, sub)
			if err != nil {
				return nil, err
			}
			f.funcs = append(f.funcs, subFn)
		}
		f.bounds, _ = d.resolveFloatArray(dict.Get("Bounds"))
		if len(f.bounds) != len(f.funcs)-1 {
			return nil, fmt.Errorf("stitching function has %d bounds for %d functions", len(f.bounds), len(f.funcs))
		}
		f.encode, _ = d.resolveFloatArray(dict.Get("Encode"))
		if len(f.encode) < 2*len(f.funcs) {
			// Default encode maps every piece to [0 1]
			f.encode = make([]float64, 2*len(f.funcs))
			for i := range f.funcs {
				f.encode[2*i+1] = 1
			}
		}
		return f, nil

	default:
		return nil, fmt.Errorf("unsupported function type %d", ft)
	}
}

// resolveFloatArray resolves an array of numbers
func (d *Document) resolveFloatArray(obj Object) ([]float64, bool) {
	arr, ok := d.ResolveReference(obj).(Array)
	if !ok {
		return nil, false
	}
	out := make([]float64, 0, len(arr))
	for _, item := range arr {
		v, ok := ToFloat(d.ResolveReference(item))
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

// Eval evaluates the function at t, clamped to the domain
func (f *Function) Eval(t float64) []float64 {
	if t < f.Domain[0] {
		t = f.Domain[0]
	}
	if t > f.Domain[1] {
		t = f.Domain[1]
	}

	switch f.Type {
	case FunctionExponential:
		out := make([]float64, len(f.c0))
		tn := math.Pow(t, f.n)
		for i := range out {
			c1 := 1.0
			if i < len(f.c1) {
				c1 = f.c1[i]
			}
			out[i] = f.c0[i] + tn*(c1-f.c0[i])
		}
		return out

	case FunctionStitching:
		// Pick the subdomain, then map t into the piece's encoding
		k := 0
		for k < len(f.bounds) && t >= f.bounds[k] {
			k++
		}

		low := f.Domain[0]
		if k > 0 {
			low = f.bounds[k-1]
		}
		high := f.Domain[1]
		if k < len(f.bounds) {
			high = f.bounds[k]
		}

		e0 := f.encode[2*k]
		e1 := f.encode[2*k+1]
		sub := e0
		if high > low {
			sub = e0 + (t-low)/(high-low)*(e1-e0)
		}
		return f.funcs[k].Eval(sub)
	}

	return nil
}
