package font

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/novvoo/go-pdfrender/pkg/pdf"
	"github.com/novvoo/go-pdfrender/pkg/scene"
)

// CacheConfig bounds the shared font cache.
type CacheConfig struct {
	// MaxGlyphs caps the number of cached glyph outlines across all
	// fonts. Zero means the default.
	MaxGlyphs int

	// FontDir points at a directory of .ttf/.otf files used to
	// substitute non-embedded fonts. When empty the PDFRENDER_FONT_DIR
	// environment variable is consulted, then the platform font
	// directories.
	FontDir string
}

// DefaultCacheConfig returns the defaults used when a zero config is
// supplied.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{MaxGlyphs: 4096}
}

const glyphShardCount = 16

// Cache holds loaded fonts, extracted glyph outlines and the substitute
// face registry. One Cache is shared by all page renders of a process;
// every method is safe for concurrent use. Population races resolve as
// first-insert-wins, so duplicate extraction work is possible but the
// stored values never change once visible.
type Cache struct {
	cfg CacheConfig

	mu    sync.Mutex
	fonts map[fontKey]*Font

	shards [glyphShardCount]glyphShard

	substOnce sync.Once
	subst     *substituteSet

	nextFontID atomic.Uint64
}

type fontKey struct {
	doc *pdf.Document
	num int
	gen int
}

type glyphKey struct {
	font uint64
	gid  uint32
}

type glyphEntry struct {
	key     glyphKey
	outline *scene.Path
	err     error
}

type glyphShard struct {
	mu    sync.Mutex
	items map[glyphKey]*list.Element
	order *list.List
}

// NewCache returns a cache with the given limits. A zero CacheConfig
// selects DefaultCacheConfig values.
func NewCache(cfg CacheConfig) *Cache {
	if cfg.MaxGlyphs <= 0 {
		cfg.MaxGlyphs = DefaultCacheConfig().MaxGlyphs
	}
	c := &Cache{cfg: cfg, fonts: make(map[fontKey]*Font)}
	for i := range c.shards {
		c.shards[i].items = make(map[glyphKey]*list.Element)
		c.shards[i].order = list.New()
	}
	return c
}

// Font resolves obj (a font dictionary or a reference to one) into a
// loaded Font. Fonts referenced indirectly are cached per document and
// object number, so two pages sharing a font dictionary share one Font
// and one set of cached outlines.
func (c *Cache) Font(doc *pdf.Document, obj pdf.Object) (*Font, error) {
	ref, isRef := obj.(pdf.Reference)
	if isRef {
		key := fontKey{doc: doc, num: ref.ObjectNumber, gen: ref.GenerationNumber}
		c.mu.Lock()
		if f, ok := c.fonts[key]; ok {
			c.mu.Unlock()
			return f, nil
		}
		c.mu.Unlock()

		dict, ok := doc.ResolveReference(ref).(pdf.Dictionary)
		if !ok {
			return nil, pdf.ErrDanglingReference
		}
		f, err := LoadFont(doc, dict, c)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if prev, ok := c.fonts[key]; ok {
			f = prev
		} else {
			c.fonts[key] = f
		}
		c.mu.Unlock()
		return f, nil
	}

	dict, ok := obj.(pdf.Dictionary)
	if !ok {
		return nil, pdf.ErrUndefinedResource
	}
	return LoadFont(doc, dict, c)
}

// InvalidateDocument drops all fonts and outlines loaded from doc. Call
// when a document is closed or replaced; renders of other documents are
// unaffected.
func (c *Cache) InvalidateDocument(doc *pdf.Document) {
	dropped := make(map[uint64]bool)
	c.mu.Lock()
	for key, f := range c.fonts {
		if key.doc == doc {
			dropped[f.id] = true
			delete(c.fonts, key)
		}
	}
	c.mu.Unlock()
	if len(dropped) == 0 {
		return
	}
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		for key, el := range s.items {
			if dropped[key.font] {
				s.order.Remove(el)
				delete(s.items, key)
			}
		}
		s.mu.Unlock()
	}
}

// glyph returns the cached outline for (f, gid), building it outside the
// shard lock on a miss. Failed extractions are cached too, so a broken
// glyph is not re-parsed on every occurrence.
func (c *Cache) glyph(f *Font, gid uint32, build func() (*scene.Path, error)) (*scene.Path, error) {
	key := glyphKey{font: f.id, gid: gid}
	s := &c.shards[(key.font+uint64(gid))%glyphShardCount]

	s.mu.Lock()
	if el, ok := s.items[key]; ok {
		s.order.MoveToFront(el)
		e := el.Value.(*glyphEntry)
		s.mu.Unlock()
		return e.outline, e.err
	}
	s.mu.Unlock()

	outline, err := build()

	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.items[key]; ok {
		e := el.Value.(*glyphEntry)
		return e.outline, e.err
	}
	el := s.order.PushFront(&glyphEntry{key: key, outline: outline, err: err})
	s.items[key] = el
	max := c.cfg.MaxGlyphs / glyphShardCount
	if max < 1 {
		max = 1
	}
	for s.order.Len() > max {
		back := s.order.Back()
		s.order.Remove(back)
		delete(s.items, back.Value.(*glyphEntry).key)
	}
	return outline, err
}

// substitutes returns the lazily initialized substitute registry. The
// directory scan happens once per Cache.
func (c *Cache) substitutes() *substituteSet {
	c.substOnce.Do(func() {
		c.subst = newSubstituteSet(c.cfg.FontDir)
	})
	return c.subst
}
