package pdf

import (
	"math"
	"testing"
)

// functionDoc builds a document whose object 4 holds the function body.
func functionDoc(t *testing.T, body string, extra func(*pdfBuilder)) *Document {
	t.Helper()
	b := newPDFBuilder()
	b.add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.add(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	b.add(4, body)
	if extra != nil {
		extra(b)
	}
	doc, err := NewDocument(b.finish("/Root 1 0 R"))
	if err != nil {
		t.Fatalf("NewDocument error: %v", err)
	}
	return doc
}

func floatsNear(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func TestExponentialFunction(t *testing.T) {
	doc := functionDoc(t, "<< /FunctionType 2 /Domain [0 1] /C0 [0 0 0] /C1 [1 0.5 0.25] /N 1 >>", nil)
	defer doc.Close()

	fn, err := ParseFunction(doc, Reference{ObjectNumber: 4})
	if err != nil {
		t.Fatalf("ParseFunction error: %v", err)
	}
	if fn.Type != FunctionExponential {
		t.Errorf("Type = %v, want FunctionExponential", fn.Type)
	}

	tests := []struct {
		t        float64
		expected []float64
	}{
		{0, []float64{0, 0, 0}},
		{0.5, []float64{0.5, 0.25, 0.125}},
		{1, []float64{1, 0.5, 0.25}},
	}
	for _, tt := range tests {
		if got := fn.Eval(tt.t); !floatsNear(got, tt.expected) {
			t.Errorf("Eval(%v) = %v, want %v", tt.t, got, tt.expected)
		}
	}
}

func TestExponentialDefaults(t *testing.T) {
	doc := functionDoc(t, "<< /FunctionType 2 >>", nil)
	defer doc.Close()

	fn, err := ParseFunction(doc, Reference{ObjectNumber: 4})
	if err != nil {
		t.Fatalf("ParseFunction error: %v", err)
	}
	if got := fn.Eval(0.25); !floatsNear(got, []float64{0.25}) {
		t.Errorf("Eval(0.25) = %v, want [0.25]", got)
	}
}

func TestExponentialPower(t *testing.T) {
	doc := functionDoc(t, "<< /FunctionType 2 /C0 [0] /C1 [1] /N 2 >>", nil)
	defer doc.Close()

	fn, err := ParseFunction(doc, Reference{ObjectNumber: 4})
	if err != nil {
		t.Fatalf("ParseFunction error: %v", err)
	}
	if got := fn.Eval(0.5); !floatsNear(got, []float64{0.25}) {
		t.Errorf("Eval(0.5) = %v, want [0.25]", got)
	}
}

func TestFunctionDomainClamp(t *testing.T) {
	doc := functionDoc(t, "<< /FunctionType 2 /Domain [0.2 0.8] /C0 [0] /C1 [1] /N 1 >>", nil)
	defer doc.Close()

	fn, err := ParseFunction(doc, Reference{ObjectNumber: 4})
	if err != nil {
		t.Fatalf("ParseFunction error: %v", err)
	}
	if got := fn.Eval(-5); !floatsNear(got, []float64{0.2}) {
		t.Errorf("Eval(-5) = %v, want [0.2]", got)
	}
	if got := fn.Eval(5); !floatsNear(got, []float64{0.8}) {
		t.Errorf("Eval(5) = %v, want [0.8]", got)
	}
}

func TestStitchingFunction(t *testing.T) {
	doc := functionDoc(t,
		"<< /FunctionType 3 /Domain [0 1] /Functions [5 0 R 6 0 R] /Bounds [0.5] /Encode [0 1 0 1] >>",
		func(b *pdfBuilder) {
			b.add(5, "<< /FunctionType 2 /C0 [0] /C1 [1] /N 1 >>")
			b.add(6, "<< /FunctionType 2 /C0 [1] /C1 [0] /N 1 >>")
		})
	defer doc.Close()

	fn, err := ParseFunction(doc, Reference{ObjectNumber: 4})
	if err != nil {
		t.Fatalf("ParseFunction error: %v", err)
	}
	if fn.Type != FunctionStitching {
		t.Errorf("Type = %v, want FunctionStitching", fn.Type)
	}

	tests := []struct {
		t        float64
		expected []float64
	}{
		// First piece covers [0 0.5), rising. t=0.25 maps to 0.5.
		{0.25, []float64{0.5}},
		// The boundary itself belongs to the second piece.
		{0.5, []float64{1}},
		// Second piece falls from 1 to 0.
		{0.75, []float64{0.5}},
		{1, []float64{0}},
	}
	for _, tt := range tests {
		if got := fn.Eval(tt.t); !floatsNear(got, tt.expected) {
			t.Errorf("Eval(%v) = %v, want %v", tt.t, got, tt.expected)
		}
	}
}

func TestStitchingDefaultEncode(t *testing.T) {
	doc := functionDoc(t,
		"<< /FunctionType 3 /Domain [0 1] /Functions [5 0 R 6 0 R] /Bounds [0.5] >>",
		func(b *pdfBuilder) {
			b.add(5, "<< /FunctionType 2 /C0 [0] /C1 [1] /N 1 >>")
			b.add(6, "<< /FunctionType 2 /C0 [1] /C1 [0] /N 1 >>")
		})
	defer doc.Close()

	fn, err := ParseFunction(doc, Reference{ObjectNumber: 4})
	if err != nil {
		t.Fatalf("ParseFunction error: %v", err)
	}
	if got := fn.Eval(0.25); !floatsNear(got, []float64{0.5}) {
		t.Errorf("Eval(0.25) = %v, want [0.5]", got)
	}
}

func TestStitchingBoundsMismatch(t *testing.T) {
	doc := functionDoc(t,
		"<< /FunctionType 3 /Domain [0 1] /Functions [5 0 R 6 0 R] >>",
		func(b *pdfBuilder) {
			b.add(5, "<< /FunctionType 2 >>")
			b.add(6, "<< /FunctionType 2 >>")
		})
	defer doc.Close()

	if _, err := ParseFunction(doc, Reference{ObjectNumber: 4}); err == nil {
		t.Error("expected error for missing Bounds")
	}
}

func TestUnsupportedFunctionType(t *testing.T) {
	doc := functionDoc(t, "<< /FunctionType 0 /Domain [0 1] >>", nil)
	defer doc.Close()

	if _, err := ParseFunction(doc, Reference{ObjectNumber: 4}); err == nil {
		t.Error("expected error for sampled function")
	}
}

func TestFunctionIndirectValues(t *testing.T) {
	doc := functionDoc(t, "<< /FunctionType 2 /C0 [0] /C1 5 0 R /N 6 0 R >>",
		func(b *pdfBuilder) {
			b.add(5, "[0.5]")
			b.add(6, "1")
		})
	defer doc.Close()

	fn, err := ParseFunction(doc, Reference{ObjectNumber: 4})
	if err != nil {
		t.Fatalf("ParseFunction error: %v", err)
	}
	if got := fn.Eval(1); !floatsNear(got, []float64{0.5}) {
		t.Errorf("Eval(1) = %v, want [0.5]", got)
	}
}
