package font

import (
	"fmt"
	"sort"

	"github.com/novvoo/go-pdfrender/pkg/pdf"
)

// Info is a catalog entry for one font referenced by a document. It is
// built from the font dictionary alone; no program is loaded.
type Info struct {
	// Name is the BaseFont value, subset tag included, or the /Name
	// entry for fonts without one.
	Name     string
	Subtype  string
	Encoding string
	// Embedded reports a font program carried in the file, including
	// Type3 CharProcs.
	Embedded  bool
	Subset    bool
	ToUnicode bool
	// Ref is the indirect reference to the font dictionary, zero when
	// the dictionary is inline.
	Ref pdf.Reference
}

// listScanDepth bounds form XObject recursion while scanning resources.
const listScanDepth = 12

// ListFonts returns every distinct font referenced by the document's
// pages in first-use order, including fonts used only inside form
// XObjects. Pages that fail to load are skipped.
func ListFonts(doc *pdf.Document) []Info {
	w := &fontWalker{
		doc:     doc,
		seen:    make(map[string]bool),
		visited: make(map[pdf.Reference]bool),
	}
	for i := 0; i < doc.NumPages(); i++ {
		page, err := doc.GetPage(i)
		if err != nil {
			continue
		}
		w.scanResources(page.Resources(), 0)
	}
	return w.out
}

type fontWalker struct {
	doc     *pdf.Document
	out     []Info
	seen    map[string]bool
	visited map[pdf.Reference]bool
}

func (w *fontWalker) scanResources(res pdf.Dictionary, depth int) {
	if res == nil || depth > listScanDepth {
		return
	}
	if fonts, ok := w.doc.ResolveReference(res.Get("Font")).(pdf.Dictionary); ok {
		for _, key := range sortedNames(fonts) {
			w.describe(fonts[key])
		}
	}
	if xobjs, ok := w.doc.ResolveReference(res.Get("XObject")).(pdf.Dictionary); ok {
		for _, key := range sortedNames(xobjs) {
			w.scanForm(xobjs[key], depth)
		}
	}
}

func (w *fontWalker) scanForm(obj pdf.Object, depth int) {
	if ref, ok := obj.(pdf.Reference); ok {
		if w.visited[ref] {
			return
		}
		w.visited[ref] = true
	}
	stream, ok := w.doc.ResolveReference(obj).(pdf.Stream)
	if !ok {
		return
	}
	if sub, _ := stream.Dictionary.GetName("Subtype"); sub != "Form" {
		return
	}
	if inner, ok := w.doc.ResolveReference(stream.Dictionary.Get("Resources")).(pdf.Dictionary); ok {
		w.scanResources(inner, depth+1)
	}
}

func (w *fontWalker) describe(obj pdf.Object) {
	var ref pdf.Reference
	if r, ok := obj.(pdf.Reference); ok {
		ref = r
	}
	dict, ok := w.doc.ResolveReference(obj).(pdf.Dictionary)
	if !ok {
		return
	}
	if typ, ok := dict.GetName("Type"); ok && typ != "Font" {
		return
	}

	info := Info{Ref: ref}
	if base, ok := dict.GetName("BaseFont"); ok {
		info.Name = string(base)
	} else if name, ok := dict.GetName("Name"); ok {
		info.Name = string(name)
	}
	if sub, ok := dict.GetName("Subtype"); ok {
		info.Subtype = string(sub)
	}
	info.Encoding = encodingLabel(w.doc, dict)
	info.Embedded = w.hasProgram(dict, info.Subtype)
	info.Subset = stripSubsetTag(info.Name) != info.Name
	info.ToUnicode = dict.Get("ToUnicode") != nil

	key := "n " + info.Name + "/" + info.Subtype
	if ref != (pdf.Reference{}) {
		key = fmt.Sprintf("r %d %d", ref.ObjectNumber, ref.GenerationNumber)
	}
	if w.seen[key] {
		return
	}
	w.seen[key] = true
	w.out = append(w.out, info)
}

// encodingLabel names the /Encoding entry the way font listings expect:
// the encoding or CMap name when one is given, Custom for inline
// dictionaries and embedded CMaps, Standard when absent.
func encodingLabel(doc *pdf.Document, dict pdf.Dictionary) string {
	switch enc := doc.ResolveReference(dict.Get("Encoding")).(type) {
	case pdf.Name:
		return string(enc)
	case pdf.Dictionary:
		if base, ok := enc.GetName("BaseEncoding"); ok {
			return string(base)
		}
		return "Custom"
	case pdf.Stream:
		if name, ok := enc.Dictionary.GetName("CMapName"); ok {
			return string(name)
		}
		return "Custom"
	case nil:
		return "Standard"
	default:
		return "Custom"
	}
}

func (w *fontWalker) hasProgram(dict pdf.Dictionary, subtype string) bool {
	if w.descriptorHasFile(dict.Get("FontDescriptor")) {
		return true
	}
	if arr, ok := w.doc.ResolveReference(dict.Get("DescendantFonts")).(pdf.Array); ok && len(arr) > 0 {
		if desc, ok := w.doc.ResolveReference(arr[0]).(pdf.Dictionary); ok {
			if w.descriptorHasFile(desc.Get("FontDescriptor")) {
				return true
			}
		}
	}
	if subtype == "Type3" {
		return dict.Get("CharProcs") != nil
	}
	return false
}

func (w *fontWalker) descriptorHasFile(obj pdf.Object) bool {
	desc, ok := w.doc.ResolveReference(obj).(pdf.Dictionary)
	if !ok {
		return false
	}
	return desc.Get("FontFile") != nil || desc.Get("FontFile2") != nil || desc.Get("FontFile3") != nil
}

func sortedNames(d pdf.Dictionary) []pdf.Name {
	names := make([]pdf.Name, 0, len(d))
	for n := range d {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
