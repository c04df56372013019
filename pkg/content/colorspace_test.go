package content

import (
	"math"
	"testing"

	"github.com/novvoo/go-pdfrender/pkg/pdf"
	"github.com/novvoo/go-pdfrender/pkg/scene"
)

// testDoc builds the smallest resolvable document, for parsers that
// only need reference resolution.
func testDoc(t *testing.T, extra func(*docBuilder)) *pdf.Document {
	t.Helper()
	b := newDocBuilder()
	b.add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.add(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 100 100] >>")
	if extra != nil {
		extra(b)
	}
	doc, err := pdf.NewDocument(b.finish())
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	return doc
}

func TestParseDeviceSpaceNames(t *testing.T) {
	doc := testDoc(t, nil)

	tests := []struct {
		name  pdf.Name
		kind  spaceKind
		comps int
	}{
		{"DeviceGray", spaceGray, 1},
		{"G", spaceGray, 1},
		{"CalGray", spaceGray, 1},
		{"DeviceRGB", spaceRGB, 3},
		{"RGB", spaceRGB, 3},
		{"CalRGB", spaceRGB, 3},
		{"DeviceCMYK", spaceCMYK, 4},
		{"CMYK", spaceCMYK, 4},
		{"Pattern", spacePattern, 1},
	}
	for _, tt := range tests {
		cs, err := parseColorSpace(doc, tt.name, 0)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
			continue
		}
		if cs.kind != tt.kind || cs.comps != tt.comps {
			t.Errorf("%s: kind %v comps %d, want %v %d", tt.name, cs.kind, cs.comps, tt.kind, tt.comps)
		}
	}
}

func TestParseICCBasedUsesComponentCount(t *testing.T) {
	doc := testDoc(t, func(b *docBuilder) {
		b.addStream(5, "/N 4", nil)
		b.addStream(6, "/N 1", nil)
	})

	cs, err := parseColorSpace(doc, pdf.Array{pdf.Name("ICCBased"), pdf.Reference{ObjectNumber: 5}}, 0)
	if err != nil || cs.kind != spaceCMYK {
		t.Errorf("N=4: kind %v err %v, want CMYK", cs.kind, err)
	}
	cs, err = parseColorSpace(doc, pdf.Array{pdf.Name("ICCBased"), pdf.Reference{ObjectNumber: 6}}, 0)
	if err != nil || cs.kind != spaceGray {
		t.Errorf("N=1: kind %v err %v, want gray", cs.kind, err)
	}
	cs, err = parseColorSpace(doc, pdf.Array{pdf.Name("ICCBased")}, 0)
	if err != nil || cs.kind != spaceRGB {
		t.Errorf("no stream: kind %v err %v, want the RGB default", cs.kind, err)
	}
}

func TestIndexedColorLookup(t *testing.T) {
	doc := testDoc(t, nil)
	space := pdf.Array{
		pdf.Name("Indexed"),
		pdf.Name("DeviceRGB"),
		pdf.Integer(1),
		pdf.String{Value: []byte{255, 0, 0, 0, 255, 0}},
	}
	cs, err := parseColorSpace(doc, space, 0)
	if err != nil {
		t.Fatalf("parseColorSpace: %v", err)
	}
	if cs.kind != spaceIndexed || cs.comps != 1 {
		t.Fatalf("kind %v comps %d, want indexed with one component", cs.kind, cs.comps)
	}

	if got := cs.color([]float64{0}); !colorNear(got, scene.Color{R: 1, A: 1}) {
		t.Errorf("index 0 = %+v, want red", got)
	}
	if got := cs.color([]float64{1}); !colorNear(got, scene.Color{G: 1, A: 1}) {
		t.Errorf("index 1 = %+v, want green", got)
	}
	// Out-of-range indices clamp instead of failing.
	if got := cs.color([]float64{9}); !colorNear(got, scene.Color{G: 1, A: 1}) {
		t.Errorf("index 9 = %+v, want clamped to green", got)
	}
	if got := cs.color([]float64{-3}); !colorNear(got, scene.Color{R: 1, A: 1}) {
		t.Errorf("index -3 = %+v, want clamped to red", got)
	}
}

func TestIndexedLookupShorterThanHival(t *testing.T) {
	doc := testDoc(t, nil)
	space := pdf.Array{
		pdf.Name("Indexed"),
		pdf.Name("DeviceRGB"),
		pdf.Integer(3),
		pdf.String{Value: []byte{255, 0, 0}},
	}
	cs, err := parseColorSpace(doc, space, 0)
	if err != nil {
		t.Fatalf("parseColorSpace: %v", err)
	}
	// Entries past the lookup data read as zero.
	if got := cs.color([]float64{2}); !colorNear(got, scene.Color{A: 1}) {
		t.Errorf("index past lookup = %+v, want black", got)
	}
}

func TestSeparationTintTransform(t *testing.T) {
	doc := testDoc(t, nil)
	space := pdf.Array{
		pdf.Name("Separation"),
		pdf.Name("Ink"),
		pdf.Name("DeviceRGB"),
		pdf.Dictionary{
			"FunctionType": pdf.Integer(2),
			"C0":           pdf.Array{pdf.Real(1), pdf.Real(1), pdf.Real(1)},
			"C1":           pdf.Array{pdf.Real(1), pdf.Real(0), pdf.Real(0)},
			"N":            pdf.Integer(1),
		},
	}
	cs, err := parseColorSpace(doc, space, 0)
	if err != nil {
		t.Fatalf("parseColorSpace: %v", err)
	}

	init := cs.initial()
	if len(init) != 1 || init[0] != 1 {
		t.Errorf("initial = %v, want full ink", init)
	}
	if got := cs.color([]float64{1}); !colorNear(got, scene.Color{R: 1, A: 1}) {
		t.Errorf("full ink = %+v, want red", got)
	}
	if got := cs.color([]float64{0}); !colorNear(got, scene.Color{R: 1, G: 1, B: 1, A: 1}) {
		t.Errorf("no ink = %+v, want white", got)
	}
}

func TestSeparationWithoutTintPaintsGray(t *testing.T) {
	doc := testDoc(t, nil)
	space := pdf.Array{
		pdf.Name("Separation"),
		pdf.Name("Ink"),
		pdf.Name("DeviceRGB"),
		pdf.Dictionary{"FunctionType": pdf.Integer(5)},
	}
	cs, err := parseColorSpace(doc, space, 0)
	if err != nil {
		t.Fatalf("parseColorSpace: %v", err)
	}
	if cs.tint != nil {
		t.Fatal("unparseable tint transform should stay nil")
	}
	if got := cs.color([]float64{0.3}); !colorNear(got, scene.Color{R: 0.7, G: 0.7, B: 0.7, A: 1}) {
		t.Errorf("ink 0.3 = %+v, want 0.7 gray", got)
	}
}

func TestDeviceNMultiComponent(t *testing.T) {
	doc := testDoc(t, nil)
	space := pdf.Array{
		pdf.Name("DeviceN"),
		pdf.Array{pdf.Name("Cyan"), pdf.Name("Spot")},
		pdf.Name("DeviceCMYK"),
		pdf.Dictionary{"FunctionType": pdf.Integer(5)},
	}
	cs, err := parseColorSpace(doc, space, 0)
	if err != nil {
		t.Fatalf("parseColorSpace: %v", err)
	}
	if cs.comps != 2 {
		t.Errorf("comps = %d, want 2 so operand counting stays right", cs.comps)
	}
}

func TestLabColor(t *testing.T) {
	doc := testDoc(t, nil)
	cs, err := parseColorSpace(doc, pdf.Array{
		pdf.Name("Lab"),
		pdf.Dictionary{"WhitePoint": pdf.Array{pdf.Real(0.9642), pdf.Real(1), pdf.Real(0.8249)}},
	}, 0)
	if err != nil {
		t.Fatalf("parseColorSpace: %v", err)
	}

	white := cs.color([]float64{100, 0, 0})
	if math.Abs(white.R-1) > 0.01 || math.Abs(white.G-1) > 0.01 || math.Abs(white.B-1) > 0.01 {
		t.Errorf("L=100 = %+v, want white", white)
	}
	if got := cs.color([]float64{0, 0, 0}); !colorNear(got, scene.Color{A: 1}) {
		t.Errorf("L=0 = %+v, want black", got)
	}
}

func TestPatternWithUnderlyingSpace(t *testing.T) {
	doc := testDoc(t, nil)
	cs, err := parseColorSpace(doc, pdf.Array{pdf.Name("Pattern"), pdf.Name("DeviceRGB")}, 0)
	if err != nil {
		t.Fatalf("parseColorSpace: %v", err)
	}
	if cs.kind != spacePattern || cs.under == nil || cs.comps != 3 {
		t.Fatalf("space = %+v, want pattern over RGB", cs)
	}
	if got := cs.color([]float64{0, 1, 0}); !colorNear(got, scene.Color{G: 1, A: 1}) {
		t.Errorf("underlying color = %+v, want green", got)
	}
}

func TestUnknownColorSpaceDegradesToGray(t *testing.T) {
	doc := testDoc(t, nil)

	cs, err := parseColorSpace(doc, pdf.Name("NotASpace"), 0)
	if err == nil {
		t.Error("unknown name: want an error")
	}
	if cs == nil || cs.kind != spaceGray {
		t.Errorf("unknown name degraded to %+v, want gray", cs)
	}

	cs, err = parseColorSpace(doc, pdf.Integer(7), 0)
	if err == nil {
		t.Error("non color space object: want an error")
	}
	if cs == nil || cs.kind != spaceGray {
		t.Errorf("bad object degraded to %+v, want gray", cs)
	}
}

func TestColorSpaceNestingLimit(t *testing.T) {
	doc := testDoc(t, nil)

	space := pdf.Object(pdf.Name("DeviceRGB"))
	for i := 0; i < maxColorSpaceDepth+3; i++ {
		space = pdf.Array{
			pdf.Name("Indexed"), space, pdf.Integer(0),
			pdf.String{Value: []byte{0, 0, 0}},
		}
	}

	cs, err := parseColorSpace(doc, space, 0)
	if err == nil {
		t.Error("want an error for runaway nesting")
	}
	if cs.kind != spaceGray {
		t.Errorf("degraded to %v, want gray", cs.kind)
	}
}

func TestShortComponentSlicesReadZero(t *testing.T) {
	if got := deviceRGB.color([]float64{1}); !colorNear(got, scene.Color{R: 1, A: 1}) {
		t.Errorf("short RGB = %+v, want red", got)
	}
	if got := deviceCMYK.color(nil); !colorNear(got, scene.Color{R: 1, G: 1, B: 1, A: 1}) {
		t.Errorf("empty CMYK = %+v, want white", got)
	}
}
