package pdf

import (
	"errors"
	"testing"
)

func TestRectangle(t *testing.T) {
	r := Rectangle{LLX: 0, LLY: 0, URX: 612, URY: 792}

	if r.Width() != 612 {
		t.Errorf("Expected width 612, got %f", r.Width())
	}
	if r.Height() != 792 {
		t.Errorf("Expected height 792, got %f", r.Height())
	}

	flipped := Rectangle{LLX: 612, LLY: 792, URX: 0, URY: 0}.Normalized()
	if flipped.LLX != 0 || flipped.URX != 612 {
		t.Errorf("Normalized should reorder corners, got %+v", flipped)
	}

	inter := r.Intersect(Rectangle{LLX: 100, LLY: 100, URX: 1000, URY: 1000})
	if inter.LLX != 100 || inter.URX != 612 {
		t.Errorf("Unexpected intersection: %+v", inter)
	}
	if !r.Intersect(Rectangle{LLX: 700, LLY: 0, URX: 800, URY: 100}).IsEmpty() {
		t.Error("Disjoint rectangles should intersect to empty")
	}
}

func TestPageInheritance(t *testing.T) {
	b := newPDFBuilder()
	b.add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	// MediaBox and Rotate inherited from the pages node
	b.add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 500 400] /Rotate 90 >>")
	b.add(3, "<< /Type /Page /Parent 2 0 R >>")
	data := b.finish("/Root 1 0 R")

	doc, err := NewDocument(data)
	if err != nil {
		t.Fatalf("Failed to create document: %v", err)
	}
	defer doc.Close()

	page, err := doc.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if page.MediaBox.URX != 500 || page.MediaBox.URY != 400 {
		t.Errorf("Inherited MediaBox wrong: %+v", page.MediaBox)
	}
	if page.Rotate != 90 {
		t.Errorf("Inherited Rotate = %d, expected 90", page.Rotate)
	}
	if page.Width() != 500 || page.Height() != 400 {
		t.Errorf("Width x Height = %f x %f before rotation", page.Width(), page.Height())
	}
}

func TestPageRotateNormalization(t *testing.T) {
	tests := []struct {
		rotate   string
		expected int
	}{
		{"/Rotate 90", 90},
		{"/Rotate 450", 90},
		{"/Rotate -90", 270},
		{"/Rotate 45", 0},
		{"", 0},
	}

	for _, tt := range tests {
		doc, err := NewDocument(singlePagePDF(tt.rotate))
		if err != nil {
			t.Fatalf("Failed to create document for %q: %v", tt.rotate, err)
		}
		page, err := doc.GetPage(0)
		if err != nil {
			t.Fatalf("GetPage failed: %v", err)
		}
		if page.Rotate != tt.expected {
			t.Errorf("%q normalized to %d, expected %d", tt.rotate, page.Rotate, tt.expected)
		}
		doc.Close()
	}
}

func TestPageMissingMediaBox(t *testing.T) {
	b := newPDFBuilder()
	b.add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.add(3, "<< /Type /Page /Parent 2 0 R >>")
	data := b.finish("/Root 1 0 R")

	doc, err := NewDocument(data)
	if err != nil {
		t.Fatalf("Failed to create document: %v", err)
	}
	defer doc.Close()

	page, err := doc.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	// US Letter fallback
	if page.MediaBox.URX != 612 || page.MediaBox.URY != 792 {
		t.Errorf("Expected letter fallback, got %+v", page.MediaBox)
	}
}

func TestPageCropBoxClamped(t *testing.T) {
	doc, err := NewDocument(singlePagePDF("/CropBox [-100 -100 10000 400]"))
	if err != nil {
		t.Fatalf("Failed to create document: %v", err)
	}
	defer doc.Close()

	page, err := doc.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	box := page.CropBox
	if box.LLX != 0 || box.LLY != 0 || box.URX != 612 || box.URY != 400 {
		t.Errorf("CropBox should clamp to MediaBox, got %+v", box)
	}
}

func TestGetContentsArray(t *testing.T) {
	b := newPDFBuilder()
	b.add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.add(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 100 100] /Contents [4 0 R 5 0 R] >>")
	b.addStream(4, "", []byte("q 1 0 0 1 0 0 cm"))
	b.addStream(5, "", []byte("0 0 50 50 re f Q"))
	data := b.finish("/Root 1 0 R")

	doc, err := NewDocument(data)
	if err != nil {
		t.Fatalf("Failed to create document: %v", err)
	}
	defer doc.Close()

	page, err := doc.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	content, err := page.GetContents()
	if err != nil {
		t.Fatalf("GetContents failed: %v", err)
	}
	expected := "q 1 0 0 1 0 0 cm\n0 0 50 50 re f Q"
	if string(content) != expected {
		t.Errorf("Contents = %q, expected %q", content, expected)
	}
}

func TestGetContentsMissing(t *testing.T) {
	doc, err := NewDocument(singlePagePDF(""))
	if err != nil {
		t.Fatalf("Failed to create document: %v", err)
	}
	defer doc.Close()

	page, err := doc.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	content, err := page.GetContents()
	if err != nil {
		t.Errorf("Missing contents should be a blank page, got %v", err)
	}
	if content != nil {
		t.Errorf("Expected nil contents, got %q", content)
	}
}

func TestFindResource(t *testing.T) {
	b := newPDFBuilder()
	b.add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 "+
		"/Resources << /Font << /F2 6 0 R >> /XObject << /X1 7 0 R >> >> >>")
	b.add(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 100 100] "+
		"/Resources << /Font << /F1 5 0 R >> >> >>")
	b.add(5, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	b.add(6, "<< /Type /Font /Subtype /Type1 /BaseFont /Courier >>")
	b.add(7, "<< /Subtype /Form >>")
	data := b.finish("/Root 1 0 R")

	doc, err := NewDocument(data)
	if err != nil {
		t.Fatalf("Failed to create document: %v", err)
	}
	defer doc.Close()

	page, err := doc.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}

	// Page-level category wins
	font, err := page.FindResource("Font", "F1")
	if err != nil {
		t.Fatalf("FindResource(Font, F1) failed: %v", err)
	}
	if base, _ := font.(Dictionary).GetName("BaseFont"); base != "Helvetica" {
		t.Errorf("Expected Helvetica, got %v", base)
	}

	// The page defines a Font category without F2, so the inherited
	// entry is shadowed
	if _, err := page.FindResource("Font", "F2"); !errors.Is(err, ErrUndefinedResource) {
		t.Errorf("Shadowed resource should fail, got %v", err)
	}

	// Categories the page omits come from the ancestor chain
	xobj, err := page.FindResource("XObject", "X1")
	if err != nil {
		t.Fatalf("FindResource(XObject, X1) failed: %v", err)
	}
	if sub, _ := xobj.(Dictionary).GetName("Subtype"); sub != "Form" {
		t.Errorf("Expected Form XObject, got %v", sub)
	}

	if _, err := page.FindResource("Pattern", "P1"); !errors.Is(err, ErrUndefinedResource) {
		t.Errorf("Unknown category should fail, got %v", err)
	}
}

func TestCyclicPageTree(t *testing.T) {
	b := newPDFBuilder()
	b.add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	// Node 2 lists node 3 which points back at node 2
	b.add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.add(3, "<< /Type /Pages /Kids [2 0 R] /Count 1 >>")
	data := b.finish("/Root 1 0 R")

	_, err := NewDocument(data)
	if !errors.Is(err, ErrCyclicPageTree) {
		t.Errorf("Cyclic page tree should fail to open, got %v", err)
	}
}

func TestPageBoxes(t *testing.T) {
	doc, err := NewDocument(singlePagePDF("/CropBox [10 10 600 780] /TrimBox [20 20 590 770]"))
	if err != nil {
		t.Fatalf("Failed to create document: %v", err)
	}
	defer doc.Close()

	page, err := doc.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}

	if mb := page.GetMediaBox(); mb.URX != 612 {
		t.Errorf("MediaBox.URX = %f", mb.URX)
	}
	if cb := page.GetCropBox(); cb.LLX != 10 {
		t.Errorf("CropBox.LLX = %f", cb.LLX)
	}
	if tb := page.GetTrimBox(); tb.LLX != 20 {
		t.Errorf("TrimBox.LLX = %f", tb.LLX)
	}
	// Boxes not set fall back to the crop box
	if bb := page.GetBleedBox(); bb.LLX != 10 {
		t.Errorf("BleedBox should default to CropBox, got LLX %f", bb.LLX)
	}
	if ab := page.GetArtBox(); ab.LLX != 10 {
		t.Errorf("ArtBox should default to CropBox, got LLX %f", ab.LLX)
	}
}
