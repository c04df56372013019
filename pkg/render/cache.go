package render

import (
	"container/list"
	"math"

	"github.com/novvoo/go-pdfrender/pkg/raster"
)

// pageKey identifies one cached render. Scale is keyed by its exact bit
// pattern, so nearly-equal scales are distinct entries rather than
// approximate hits.
type pageKey struct {
	page      int
	scaleBits uint64
}

func keyOf(page int, scale float64) pageKey {
	return pageKey{page: page, scaleBits: math.Float64bits(scale)}
}

// pageCache is a bounded LRU of rendered pixmaps. Callers hold the
// service mutex; the cache itself does not lock.
type pageCache struct {
	capacity int
	items    map[pageKey]*list.Element
	order    *list.List // front is most recent
}

type cacheEntry struct {
	key pageKey
	pm  *raster.Pixmap
}

func newPageCache(capacity int) *pageCache {
	return &pageCache{
		capacity: capacity,
		items:    make(map[pageKey]*list.Element),
		order:    list.New(),
	}
}

func (c *pageCache) get(key pageKey) (*raster.Pixmap, bool) {
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).pm, true
}

func (c *pageCache) put(key pageKey, pm *raster.Pixmap) {
	if c.capacity <= 0 {
		return
	}
	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry).pm = pm
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&cacheEntry{key: key, pm: pm})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
}

func (c *pageCache) clear() {
	c.items = make(map[pageKey]*list.Element)
	c.order.Init()
}

func (c *pageCache) len() int {
	return c.order.Len()
}
