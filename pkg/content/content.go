// Package content interprets PDF content streams into resolution
// independent scenes. The interpreter is a single-threaded stack
// machine: operands accumulate until an operator consumes them, the
// operator either mutates the graphics state or emits a paint operation,
// and recoverable problems become warnings instead of failures. One bad
// operator never costs more than itself.
package content

import (
	"context"
	"fmt"

	"github.com/novvoo/go-pdfrender/pkg/font"
	"github.com/novvoo/go-pdfrender/pkg/pdf"
	"github.com/novvoo/go-pdfrender/pkg/scene"
)

// Options configure one interpretation run.
type Options struct {
	// Fonts is the shared font cache. A nil cache gets a private
	// replacement, which costs a substitute directory scan per call,
	// so services pass their own.
	Fonts *font.Cache

	// MaxFormDepth bounds form XObject nesting. Zero means the
	// default.
	MaxFormDepth int
}

const defaultMaxFormDepth = 12

// Warnings are capped so a pathological stream cannot grow the slice
// without bound; the tail is summarized instead.
const maxWarnings = 100

// Warning records one recoverable problem met while interpreting.
type Warning struct {
	Op      string // operator keyword, empty for stream-level notes
	Message string
}

func (w Warning) String() string {
	if w.Op == "" {
		return w.Message
	}
	return w.Op + ": " + w.Message
}

// Interpret runs the page's content streams and returns the scene along
// with the warnings gathered on the way. The error is non-nil only when
// the page content cannot be obtained at all or the context is
// cancelled; drawing-level problems degrade to warnings.
func Interpret(ctx context.Context, page *pdf.Page, opts Options) (*scene.Scene, []Warning, error) {
	contents, err := page.GetContents()
	if err != nil {
		return nil, nil, err
	}

	fonts := opts.Fonts
	if fonts == nil {
		fonts = font.NewCache(font.DefaultCacheConfig())
	}
	maxDepth := opts.MaxFormDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxFormDepth
	}

	base, width, height := pageTransform(page)
	in := &interp{
		ctx:          ctx,
		doc:          page.Document(),
		page:         page,
		fonts:        fonts,
		builder:      scene.NewBuilder(width, height),
		maxFormDepth: maxDepth,
		state:        newGraphicsState(base),
		baseCTM:      base,
		tm:           scene.Identity(),
		tlm:          scene.Identity(),
		images:       make(map[pdf.Reference]*scene.Image),
	}

	if err := in.execStream(contents); err != nil {
		return nil, nil, err
	}
	if in.dropped > 0 {
		in.warnings = append(in.warnings, Warning{
			Message: fmt.Sprintf("%d further problems suppressed", in.dropped),
		})
	}
	return in.builder.Finish(), in.warnings, nil
}

// pageTransform folds the crop box origin, the Y flip and the page
// rotation into one matrix from user space to scene space, and returns
// the scene extent in points. Width and height swap for 90 and 270.
func pageTransform(page *pdf.Page) (scene.Matrix, float64, float64) {
	box := page.CropBox
	w, h := box.Width(), box.Height()

	switch page.Rotate {
	case 90:
		return scene.Matrix{A: 0, B: 1, C: 1, D: 0, E: -box.LLY, F: -box.LLX}, h, w
	case 180:
		return scene.Matrix{A: -1, B: 0, C: 0, D: 1, E: box.URX, F: -box.LLY}, w, h
	case 270:
		return scene.Matrix{A: 0, B: -1, C: -1, D: 0, E: box.URY, F: box.URX}, h, w
	default:
		return scene.Matrix{A: 1, B: 0, C: 0, D: -1, E: -box.LLX, F: box.URY}, w, h
	}
}
