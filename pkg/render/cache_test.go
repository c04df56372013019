package render

import (
	"testing"

	"github.com/novvoo/go-pdfrender/pkg/raster"
)

// TestPageKey tests that keys distinguish page and scale.
func TestPageKey(t *testing.T) {
	if keyOf(0, 1) == keyOf(0, 2) {
		t.Error("keys for different scales collide")
	}
	if keyOf(0, 1) == keyOf(1, 1) {
		t.Error("keys for different pages collide")
	}
	if keyOf(2, 1.5) != keyOf(2, 1.5) {
		t.Error("equal requests produce different keys")
	}
}

// TestPageCacheEvictsLRU tests the recency order of eviction.
func TestPageCacheEvictsLRU(t *testing.T) {
	c := newPageCache(2)
	a, b, d := raster.NewPixmap(1, 1), raster.NewPixmap(1, 1), raster.NewPixmap(1, 1)

	c.put(keyOf(0, 1), a)
	c.put(keyOf(1, 1), b)
	if _, ok := c.get(keyOf(0, 1)); !ok {
		t.Fatal("entry missing before capacity was reached")
	}
	c.put(keyOf(2, 1), d)

	if _, ok := c.get(keyOf(1, 1)); ok {
		t.Error("least recently used entry survived eviction")
	}
	if _, ok := c.get(keyOf(0, 1)); !ok {
		t.Error("recently used entry was evicted")
	}
	if _, ok := c.get(keyOf(2, 1)); !ok {
		t.Error("newest entry was evicted")
	}
	if c.len() != 2 {
		t.Errorf("len = %d, want 2", c.len())
	}
}

// TestPageCacheUpdate tests that re-putting a key replaces in place.
func TestPageCacheUpdate(t *testing.T) {
	c := newPageCache(2)
	old, fresh := raster.NewPixmap(1, 1), raster.NewPixmap(2, 2)
	key := keyOf(0, 1)

	c.put(key, old)
	c.put(key, fresh)
	if c.len() != 1 {
		t.Fatalf("len = %d, want 1", c.len())
	}
	if pm, _ := c.get(key); pm != fresh {
		t.Error("update did not replace the stored pixmap")
	}
}

// TestPageCacheDisabled tests that a non-positive capacity stores nothing.
func TestPageCacheDisabled(t *testing.T) {
	c := newPageCache(0)
	c.put(keyOf(0, 1), raster.NewPixmap(1, 1))
	if c.len() != 0 {
		t.Errorf("len = %d, want 0", c.len())
	}
	if _, ok := c.get(keyOf(0, 1)); ok {
		t.Error("disabled cache returned an entry")
	}
}

// TestPageCacheClear tests dropping every entry at once.
func TestPageCacheClear(t *testing.T) {
	c := newPageCache(4)
	c.put(keyOf(0, 1), raster.NewPixmap(1, 1))
	c.put(keyOf(1, 1), raster.NewPixmap(1, 1))
	c.clear()
	if c.len() != 0 {
		t.Errorf("len = %d after clear, want 0", c.len())
	}
	if _, ok := c.get(keyOf(0, 1)); ok {
		t.Error("cleared cache returned an entry")
	}
}
