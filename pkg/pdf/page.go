package pdf

import (
	"bytes"
	"fmt"
)

// Rectangle represents a PDF rectangle
type Rectangle struct {
	LLX, LLY, URX, URY float64
}

// Width returns the rectangle width
func (r Rectangle) Width() float64 {
	return r.URX - r.LLX
}

// Height returns the rectangle height
func (r Rectangle) Height() float64 {
	return r.URY - r.LLY
}

// Normalized returns the rectangle with corners ordered lower-left to
// upper-right
func (r Rectangle) Normalized() Rectangle {
	if r.LLX > r.URX {
		r.LLX, r.URX = r.URX, r.LLX
	}
	if r.LLY > r.URY {
		r.LLY, r.URY = r.URY, r.LLY
	}
	return r
}

// Intersect clips the rectangle against another
func (r Rectangle) Intersect(o Rectangle) Rectangle {
	if o.LLX > r.LLX {
		r.LLX = o.LLX
	}
	if o.LLY > r.LLY {
		r.LLY = o.LLY
	}
	if o.URX < r.URX {
		r.URX = o.URX
	}
	if o.URY < r.URY {
		r.URY = o.URY
	}
	return r
}

// IsEmpty reports whether the rectangle has no area
func (r Rectangle) IsEmpty() bool {
	return r.URX <= r.LLX || r.URY <= r.LLY
}

// letterMediaBox substitutes for documents with a missing or degenerate
// MediaBox, US Letter at 72 dpi
var letterMediaBox = Rectangle{0, 0, 612, 792}

// Page represents a single page with its inherited attributes resolved
type Page struct {
	doc        *Document
	Dictionary Dictionary
	Number     int // 1-based, used for display and output naming
	MediaBox   Rectangle
	CropBox    Rectangle
	Rotate     int // normalized to 0, 90, 180 or 270

	// Resources dictionaries from the page outwards to the root
	resourceChain []Dictionary
}

// pageInherit carries the inheritable page attributes during the tree walk
type pageInherit struct {
	mediaBox *Rectangle
	cropBox  *Rectangle
	rotate   *int
	chain    []Dictionary // root first, page last
}

// loadPages walks the page tree and materializes the page list
func (d *Document) loadPages() error {
	pagesObj, err := d.Resolve(d.root.Get("Pages"))
	if err != nil {
		return fmt.Errorf("%w: cannot resolve Pages: %v", ErrMalformedDocument, err)
	}
	pagesDict, ok := pagesObj.(Dictionary)
	if !ok {
		return fmt.Errorf("%w: Pages is not a dictionary", ErrMalformedDocument)
	}

	visited := make(map[Reference]bool)
	if ref, ok := d.root.Get("Pages").(Reference); ok {
		visited[ref] = true
	}
	return d.walkPageTree(pagesDict, pageInherit{}, visited, 0)
}

// walkPageTree recurses through Pages nodes collecting leaf pages.
// Inherited attributes are carried through the walk instead of being
// written back into the kid dictionaries.
func (d *Document) walkPageTree(node Dictionary, inherit pageInherit, visited map[Reference]bool, depth int) error {
	if depth > 256 {
		return fmt.Errorf("%w: page tree too deep", ErrCyclicPageTree)
	}

	if res, ok := d.ResolveReference(node.Get("Resources")).(Dictionary); ok {
		inherit.chain = append(inherit.chain[:len(inherit.chain):len(inherit.chain)], res)
	}
	if mb, ok := d.resolveRectangle(node.Get("MediaBox")); ok {
		inherit.mediaBox = &mb
	}
	if cb, ok := d.resolveRectangle(node.Get("CropBox")); ok {
		inherit.cropBox = &cb
	}
	if rot, ok := ToInt(d.ResolveReference(node.Get("Rotate"))); ok {
		r := int(rot)
		inherit.rotate = &r
	}

	nodeType, _ := node.GetName("Type")
	kidsObj := d.ResolveReference(node.Get("Kids"))
	kids, hasKids := kidsObj.(Array)
	if nodeType == "" {
		// Damaged files omit Type, infer it from the shape
		if hasKids {
			nodeType = "Pages"
		} else {
			nodeType = "Page"
		}
	}

	if nodeType == "Page" {
		d.appendPage(node, inherit)
		return nil
	}

	if !hasKids {
		return nil
	}
	for _, kid := range kids {
		if ref, ok := kid.(Reference); ok {
			if visited[ref] {
				return fmt.Errorf("%w: node %d revisited", ErrCyclicPageTree, ref.ObjectNumber)
			}
			visited[ref] = true
		}
		kidDict, ok := d.ResolveReference(kid).(Dictionary)
		if !ok {
			continue
		}
		if err := d.walkPageTree(kidDict, inherit, visited, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// appendPage materializes a leaf node into a Page
func (d *Document) appendPage(node Dictionary, inherit pageInherit) {
	mediaBox := letterMediaBox
	if inherit.mediaBox != nil {
		mediaBox = inherit.mediaBox.Normalized()
	}
	if mediaBox.IsEmpty() {
		mediaBox = letterMediaBox
	}

	cropBox := mediaBox
	if inherit.cropBox != nil {
		cropBox = inherit.cropBox.Normalized().Intersect(mediaBox)
		if cropBox.IsEmpty() {
			cropBox = mediaBox
		}
	}

	rotate := 0
	if inherit.rotate != nil {
		rotate = ((*inherit.rotate % 360) + 360) % 360
		if rotate%90 != 0 {
			rotate = 0
		}
	}

	// The chain is stored nearest-first for resource lookup
	chain := make([]Dictionary, len(inherit.chain))
	for i, res := range inherit.chain {
		chain[len(chain)-1-i] = res
	}

	d.pages = append(d.pages, &Page{
		doc:           d,
		Dictionary:    node,
		Number:        len(d.pages) + 1,
		MediaBox:      mediaBox,
		CropBox:       cropBox,
		Rotate:        rotate,
		resourceChain: chain,
	})
}

// resolveRectangle resolves a 4-number array into a Rectangle
func (d *Document) resolveRectangle(obj Object) (Rectangle, bool) {
	arr, ok := d.ResolveReference(obj).(Array)
	if !ok || len(arr) < 4 {
		return Rectangle{}, false
	}
	var vals [4]float64
	for i := 0; i < 4; i++ {
		v, ok := ToFloat(d.ResolveReference(arr[i]))
		if !ok {
			return Rectangle{}, false
		}
		vals[i] = v
	}
	return Rectangle{LLX: vals[0], LLY: vals[1], URX: vals[2], URY: vals[3]}, true
}

// Document returns the owning document
func (p *Page) Document() *Document {
	return p.doc
}

// Width returns the page width before rotation, in points
func (p *Page) Width() float64 {
	return p.CropBox.Width()
}

// Height returns the page height before rotation, in points
func (p *Page) Height() float64 {
	return p.CropBox.Height()
}

// GetContents returns the page content streams decoded and concatenated.
// Split streams form one token sequence, so a newline joins them.
func (p *Page) GetContents() ([]byte, error) {
	contentsObj, err := p.doc.Resolve(p.Dictionary.Get("Contents"))
	if err != nil {
		return nil, err
	}

	switch contents := contentsObj.(type) {
	case Stream:
		return contents.Decode()
	case Array:
		var buf bytes.Buffer
		for _, ref := range contents {
			stream, ok := p.doc.ResolveReference(ref).(Stream)
			if !ok {
				continue
			}
			data, err := stream.Decode()
			if err != nil {
				continue
			}
			buf.Write(data)
			buf.WriteByte('\n')
		}
		return buf.Bytes(), nil
	case nil, Null:
		// Pages with no content render blank
		return nil, nil
	}

	return nil, fmt.Errorf("%w: invalid Contents type", ErrMalformedDocument)
}

// Resources returns the page's nearest resources dictionary, which may be
// inherited from an ancestor node
func (p *Page) Resources() Dictionary {
	if len(p.resourceChain) == 0 {
		return nil
	}
	return p.resourceChain[0]
}

// FindResource looks up a named resource of a category such as Font,
// XObject, ColorSpace, Pattern, Shading or ExtGState. The nearest
// dictionary in the ancestry chain that defines the category is
// consulted; a name missing there fails even if an outer dictionary
// carries it.
func (p *Page) FindResource(category, name Name) (Object, error) {
	value, err := p.FindRawResource(category, name)
	if err != nil {
		return nil, err
	}
	resolved, err := p.doc.Resolve(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", ErrUndefinedResource, category, name, err)
	}
	return resolved, nil
}

// FindRawResource is FindResource without the final resolution step, for
// callers that key caches on the indirect reference itself.
func (p *Page) FindRawResource(category, name Name) (Object, error) {
	for _, res := range p.resourceChain {
		catObj := p.doc.ResolveReference(res.Get(string(category)))
		catDict, ok := catObj.(Dictionary)
		if !ok {
			continue
		}

		value := catDict.Get(string(name))
		if value == nil {
			return nil, fmt.Errorf("%w: %s/%s", ErrUndefinedResource, category, name)
		}
		return value, nil
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrUndefinedResource, category, name)
}

// GetMediaBox returns the page media box
func (p *Page) GetMediaBox() Rectangle {
	return p.MediaBox
}

// GetCropBox returns the page crop box
func (p *Page) GetCropBox() Rectangle {
	return p.CropBox
}

// GetBleedBox returns the page bleed box
func (p *Page) GetBleedBox() Rectangle {
	if bb, ok := p.doc.resolveRectangle(p.Dictionary.Get("BleedBox")); ok {
		return bb
	}
	return p.CropBox
}

// GetTrimBox returns the page trim box
func (p *Page) GetTrimBox() Rectangle {
	if tb, ok := p.doc.resolveRectangle(p.Dictionary.Get("TrimBox")); ok {
		return tb
	}
	return p.CropBox
}

// GetArtBox returns the page art box
func (p *Page) GetArtBox() Rectangle {
	if ab, ok := p.doc.resolveRectangle(p.Dictionary.Get("ArtBox")); ok {
		return ab
	}
	return p.CropBox
}

// GetRotation returns the page rotation in degrees
func (p *Page) GetRotation() int {
	return p.Rotate
}
