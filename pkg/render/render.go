// Package render drives the whole pipeline: parse the document,
// interpret page content into a scene, rasterize, cache. It owns the
// shared font cache and the backend renderer, joins concurrent requests
// for the same page, and is the only layer that logs.
package render

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/novvoo/go-pdfrender/pkg/content"
	"github.com/novvoo/go-pdfrender/pkg/font"
	"github.com/novvoo/go-pdfrender/pkg/pdf"
	"github.com/novvoo/go-pdfrender/pkg/raster"
)

// Backend selects the rasterization implementation. The set is closed:
// there is a CPU renderer and a GPU renderer, nothing is pluggable.
type Backend uint8

const (
	// BackendSoftware rasterizes on the CPU.
	BackendSoftware Backend = iota
	// BackendGPU rasterizes through a compute device, degrading to the
	// CPU when no device can be opened.
	BackendGPU
)

// Options configure a Service. The zero value selects the CPU backend
// with default limits.
type Options struct {
	// Backend picks the rasterizer.
	Backend Backend

	// Provider shares a host application's GPU device with the GPU
	// backend. Nil lets the backend open its own.
	Provider gpucontext.DeviceProvider

	// CacheSize caps the number of cached page renders. Zero means the
	// default, negative disables caching.
	CacheSize int

	// FontDir overrides the substitute font directory. When empty the
	// font cache consults PDFRENDER_FONT_DIR, then the platform font
	// directories.
	FontDir string

	// MaxGlyphs caps the shared glyph outline cache. Zero means the
	// font package default.
	MaxGlyphs int

	// Password unlocks encrypted documents opened by this service.
	Password string

	// MaxFormDepth bounds form XObject nesting. Zero means the
	// interpreter default.
	MaxFormDepth int
}

const defaultCacheSize = 16

// DefaultOptions returns the values New substitutes for zero fields.
func DefaultOptions() Options {
	return Options{CacheSize: defaultCacheSize}
}

// flight is one in-progress pipeline run that concurrent requests for
// the same key join. refs counts the waiters; when the last one leaves
// before completion the run's context is cancelled.
type flight struct {
	done   chan struct{}
	cancel context.CancelFunc
	refs   int

	pm  *raster.Pixmap
	err error
}

// Service renders pages of the currently open document. It is safe for
// concurrent use; independent pages render in parallel while requests
// for the same (page, scale) share one pipeline run. Opening a new
// document replaces the old one and drops its cached pages and fonts.
type Service struct {
	opts     Options
	renderer raster.Renderer
	fonts    *font.Cache

	mu      sync.Mutex
	doc     *pdf.Document
	cache   *pageCache
	flights map[pageKey]*flight
}

// New builds a service. With BackendGPU and no usable device the service
// still works: the fallback is logged and pages render on the CPU.
func New(opts Options) *Service {
	if opts.CacheSize == 0 {
		opts.CacheSize = defaultCacheSize
	}
	var r raster.Renderer
	if opts.Backend == BackendGPU {
		g := raster.NewGPU(opts.Provider)
		if !g.UsingGPU() {
			Logger().Warn("gpu unavailable, rendering on cpu", "err", g.InitError())
		}
		r = g
	} else {
		r = raster.NewSoftware()
	}
	capacity := opts.CacheSize
	if capacity < 0 {
		capacity = 0
	}
	return &Service{
		opts:     opts,
		renderer: r,
		fonts:    font.NewCache(font.CacheConfig{MaxGlyphs: opts.MaxGlyphs, FontDir: opts.FontDir}),
		cache:    newPageCache(capacity),
		flights:  make(map[pageKey]*flight),
	}
}

// Open reads and parses a file and makes it the current document.
func (s *Service) Open(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("render: read %s: %w", path, err)
	}
	return s.OpenBytes(data)
}

// OpenBytes parses an in-memory document and makes it the current one,
// dropping the previous document's cached pages and fonts. On failure
// the previous document stays open. In-flight renders of the replaced
// document finish but their results are discarded.
func (s *Service) OpenBytes(data []byte) error {
	doc, err := pdf.NewDocumentWithPassword(data, s.opts.Password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.doc
	s.doc = doc
	s.cache.clear()
	s.mu.Unlock()

	if old != nil {
		s.fonts.InvalidateDocument(old)
	}
	Logger().Debug("document opened",
		"pages", doc.NumPages(), "version", doc.GetVersion(), "encrypted", doc.IsEncrypted())
	return nil
}

// Document returns the currently open document, nil before Open. The
// document is shared with in-flight renders; callers must not Close it.
func (s *Service) Document() *pdf.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// PageCount returns the number of pages, zero before Open.
func (s *Service) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return 0
	}
	return s.doc.NumPages()
}

// CachedPages returns how many rendered pages the cache currently holds.
func (s *Service) CachedPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.len()
}

// RenderPage rasterizes one page at the given scale, serving repeats
// from the cache. Concurrent requests for the same page and scale join
// a single pipeline run; cancelling one request only abandons the run
// when no other waiter remains. The returned pixmap is shared with the
// cache and with other callers, so treat it as read-only.
func (s *Service) RenderPage(ctx context.Context, pageIndex int, scale float64) (*raster.Pixmap, error) {
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return nil, &RenderError{
			Page: pageIndex, Stage: StageBackend,
			Err: fmt.Errorf("invalid scale %g", scale),
		}
	}
	key := keyOf(pageIndex, scale)

	s.mu.Lock()
	doc := s.doc
	if doc == nil {
		s.mu.Unlock()
		return nil, ErrNoDocument
	}
	if pageIndex < 0 || pageIndex >= doc.NumPages() {
		s.mu.Unlock()
		return nil, &RenderError{Page: pageIndex, Stage: StagePage, Err: pdf.ErrPageIndexOutOfRange}
	}
	if pm, ok := s.cache.get(key); ok {
		s.mu.Unlock()
		Logger().Debug("cache hit", "page", pageIndex, "scale", scale)
		return pm, nil
	}
	f, ok := s.flights[key]
	if ok {
		f.refs++
	} else {
		runCtx, cancel := context.WithCancel(context.Background())
		f = &flight{done: make(chan struct{}), cancel: cancel, refs: 1}
		s.flights[key] = f
		go s.execute(runCtx, f, doc, key, pageIndex, scale)
	}
	s.mu.Unlock()

	select {
	case <-f.done:
		return f.pm, f.err
	case <-ctx.Done():
		s.leave(key, f)
		return nil, ctx.Err()
	}
}

// leave detaches one waiter from a flight, cancelling the run when it
// was the last.
func (s *Service) leave(key pageKey, f *flight) {
	s.mu.Lock()
	f.refs--
	last := f.refs == 0
	if last && s.flights[key] == f {
		delete(s.flights, key)
	}
	s.mu.Unlock()
	if last {
		f.cancel()
	}
}

// execute runs the pipeline for a flight and publishes the result. The
// result is cached only when the document is still the current one.
func (s *Service) execute(ctx context.Context, f *flight, doc *pdf.Document, key pageKey, pageIndex int, scale float64) {
	pm, err := s.renderOnce(ctx, doc, pageIndex, scale)

	s.mu.Lock()
	if s.flights[key] == f {
		delete(s.flights, key)
	}
	if err == nil && s.doc == doc {
		s.cache.put(key, pm)
	}
	s.mu.Unlock()

	f.pm, f.err = pm, err
	f.cancel()
	close(f.done)
}

func (s *Service) renderOnce(ctx context.Context, doc *pdf.Document, pageIndex int, scale float64) (*raster.Pixmap, error) {
	page, err := doc.GetPage(pageIndex)
	if err != nil {
		return nil, &RenderError{Page: pageIndex, Stage: StagePage, Err: err}
	}

	sc, warnings, err := content.Interpret(ctx, page, content.Options{
		Fonts:        s.fonts,
		MaxFormDepth: s.opts.MaxFormDepth,
	})
	if err != nil {
		return nil, &RenderError{Page: pageIndex, Stage: stageFor(err), Err: err}
	}
	for _, w := range warnings {
		Logger().Warn("content warning", "page", pageIndex, "op", w.Op, "msg", w.Message)
	}

	pm, err := s.renderer.Rasterize(ctx, sc, scale, raster.PageViewport(sc, scale))
	if err != nil {
		return nil, &RenderError{Page: pageIndex, Stage: StageBackend, Err: err}
	}
	Logger().Debug("page rendered",
		"page", pageIndex, "scale", scale, "ops", len(sc.Ops),
		"width", pm.Width, "height", pm.Height, "warnings", len(warnings))
	return pm, nil
}

// stageFor classifies an interpretation failure: font problems are glyph
// faults, everything else is a page fault.
func stageFor(err error) Stage {
	if errors.Is(err, font.ErrUndefinedGlyph) || errors.Is(err, font.ErrUnsupportedFontProgram) {
		return StageGlyph
	}
	return StagePage
}

// Close releases the backend renderer and drops the cache. The current
// document is dropped but not invalidated under running renders; it is
// reclaimed once the last one finishes.
func (s *Service) Close() error {
	s.mu.Lock()
	doc := s.doc
	s.doc = nil
	s.cache.clear()
	s.mu.Unlock()

	if doc != nil {
		s.fonts.InvalidateDocument(doc)
	}
	return s.renderer.Close()
}

// FitViewport computes the scale and viewport that fit a pageW x pageH
// point page into a boxW x boxH pixel box, preserving aspect ratio and
// centering the page. The viewport spans the whole box, so the margins
// around the page come out transparent.
func FitViewport(pageW, pageH float64, boxW, boxH int) (float64, raster.Viewport) {
	vp := raster.Viewport{Width: boxW, Height: boxH}
	if vp.Width < 1 {
		vp.Width = 1
	}
	if vp.Height < 1 {
		vp.Height = 1
	}
	if pageW <= 0 || pageH <= 0 {
		return 1, vp
	}
	scale := math.Min(float64(vp.Width)/pageW, float64(vp.Height)/pageH)
	vp.MinX = -int(math.Round((float64(vp.Width) - pageW*scale) / 2))
	vp.MinY = -int(math.Round((float64(vp.Height) - pageH*scale) / 2))
	return scale, vp
}
