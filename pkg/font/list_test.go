package font

import (
	"testing"

	"github.com/novvoo/go-pdfrender/pkg/pdf"
)

// listDoc parses a built document for listing tests.
func listDoc(t *testing.T, b *docBuilder) *pdf.Document {
	t.Helper()
	doc, err := pdf.NewDocument(b.finish())
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	return doc
}

// TestListFonts tests cataloging page fonts with dedup across pages.
func TestListFonts(t *testing.T) {
	b := newDocBuilder()
	b.add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.add(2, "<< /Type /Pages /Kids [3 0 R 8 0 R] /Count 2 >>")
	b.add(3, `<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792]
		/Resources << /Font << /F1 4 0 R /F2 5 0 R >> >> >>`)
	b.add(4, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	b.add(5, `<< /Type /Font /Subtype /TrueType /BaseFont /ABCDEF+Custom
		/Encoding /WinAnsiEncoding /FontDescriptor 6 0 R /ToUnicode 99 0 R >>`)
	b.add(6, "<< /Type /FontDescriptor /FontName /ABCDEF+Custom /Flags 32 /FontFile2 7 0 R >>")
	b.addStream(7, "", []byte("x"))
	b.add(8, `<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792]
		/Resources << /Font << /F1 4 0 R >> >> >>`)
	doc := listDoc(t, b)

	fonts := ListFonts(doc)
	if len(fonts) != 2 {
		t.Fatalf("ListFonts returned %d fonts, want 2", len(fonts))
	}

	f1 := fonts[0]
	if f1.Name != "Helvetica" || f1.Subtype != "Type1" {
		t.Errorf("first font = %q/%q", f1.Name, f1.Subtype)
	}
	if f1.Encoding != "Standard" {
		t.Errorf("first font encoding = %q, want Standard", f1.Encoding)
	}
	if f1.Embedded || f1.Subset || f1.ToUnicode {
		t.Errorf("first font flags = %+v, want all false", f1)
	}
	if f1.Ref.ObjectNumber != 4 {
		t.Errorf("first font ref = %v, want object 4", f1.Ref)
	}

	f2 := fonts[1]
	if f2.Name != "ABCDEF+Custom" || f2.Subtype != "TrueType" {
		t.Errorf("second font = %q/%q", f2.Name, f2.Subtype)
	}
	if f2.Encoding != "WinAnsiEncoding" {
		t.Errorf("second font encoding = %q", f2.Encoding)
	}
	if !f2.Embedded || !f2.Subset || !f2.ToUnicode {
		t.Errorf("second font flags = %+v, want embedded subset unicode", f2)
	}
}

// TestListFontsEncodingDict tests the inline encoding dictionary labels.
func TestListFontsEncodingDict(t *testing.T) {
	b := newDocBuilder()
	b.add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.add(3, `<< /Type /Page /Parent 2 0 R /MediaBox [0 0 100 100]
		/Resources << /Font << /FA 4 0 R /FB 5 0 R >> >> >>`)
	b.add(4, `<< /Type /Font /Subtype /Type1 /BaseFont /One
		/Encoding << /BaseEncoding /MacRomanEncoding /Differences [65 /alpha] >> >>`)
	b.add(5, "<< /Type /Font /Subtype /Type1 /BaseFont /Two /Encoding << /Differences [66 /beta] >> >>")
	doc := listDoc(t, b)

	fonts := ListFonts(doc)
	if len(fonts) != 2 {
		t.Fatalf("ListFonts returned %d fonts, want 2", len(fonts))
	}
	if fonts[0].Encoding != "MacRomanEncoding" {
		t.Errorf("base encoding label = %q", fonts[0].Encoding)
	}
	if fonts[1].Encoding != "Custom" {
		t.Errorf("differences-only label = %q, want Custom", fonts[1].Encoding)
	}
}

// TestListFontsInForm tests that fonts used only inside form XObjects
// are found.
func TestListFontsInForm(t *testing.T) {
	b := newDocBuilder()
	b.add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.add(3, `<< /Type /Page /Parent 2 0 R /MediaBox [0 0 100 100]
		/Resources << /XObject << /Fm 5 0 R >> >> >>`)
	b.add(4, "<< /Type /Font /Subtype /Type1 /BaseFont /Courier >>")
	b.addStream(5, `/Type /XObject /Subtype /Form /BBox [0 0 10 10]
		/Resources << /Font << /F1 4 0 R >> >>`, []byte(""))
	doc := listDoc(t, b)

	fonts := ListFonts(doc)
	if len(fonts) != 1 || fonts[0].Name != "Courier" {
		t.Fatalf("ListFonts = %+v, want the form's Courier", fonts)
	}
}

// TestListFontsComposite tests Type0 embedding detected through the
// descendant font.
func TestListFontsComposite(t *testing.T) {
	b := newDocBuilder()
	b.add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.add(3, `<< /Type /Page /Parent 2 0 R /MediaBox [0 0 100 100]
		/Resources << /Font << /F1 4 0 R >> >> >>`)
	b.add(4, `<< /Type /Font /Subtype /Type0 /BaseFont /Noto /Encoding /Identity-H
		/DescendantFonts [5 0 R] >>`)
	b.add(5, "<< /Type /Font /Subtype /CIDFontType2 /BaseFont /Noto /FontDescriptor 6 0 R >>")
	b.add(6, "<< /Type /FontDescriptor /FontName /Noto /Flags 4 /FontFile2 7 0 R >>")
	b.addStream(7, "", []byte("x"))
	doc := listDoc(t, b)

	fonts := ListFonts(doc)
	if len(fonts) != 1 {
		t.Fatalf("ListFonts returned %d fonts, want 1", len(fonts))
	}
	if fonts[0].Encoding != "Identity-H" {
		t.Errorf("encoding = %q, want Identity-H", fonts[0].Encoding)
	}
	if !fonts[0].Embedded {
		t.Error("descendant font program not detected")
	}
}

// TestListFontsType3 tests that CharProcs count as embedded.
func TestListFontsType3(t *testing.T) {
	b := newDocBuilder()
	b.add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.add(3, `<< /Type /Page /Parent 2 0 R /MediaBox [0 0 100 100]
		/Resources << /Font << /F1 4 0 R >> >> >>`)
	b.add(4, `<< /Type /Font /Subtype /Type3 /FontMatrix [0.001 0 0 0.001 0 0]
		/FontBBox [0 0 1000 1000] /CharProcs << >> /FirstChar 65 /LastChar 65
		/Widths [500] /Encoding << /Differences [65 /square] >> >>`)
	doc := listDoc(t, b)

	fonts := ListFonts(doc)
	if len(fonts) != 1 {
		t.Fatalf("ListFonts returned %d fonts, want 1", len(fonts))
	}
	if !fonts[0].Embedded {
		t.Error("Type3 CharProcs not treated as embedded")
	}
	if fonts[0].Subtype != "Type3" {
		t.Errorf("subtype = %q", fonts[0].Subtype)
	}
}
