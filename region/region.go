// Package region is the byte-addressable backing store the B+ tree engine
// is built on top of. It owns raw file I/O and an LRU cache of decoded
// pages; the engine only ever asks it for a page view at an offset or to
// grow the file by one page. Page typing, the meta page, and the bump
// pointer that decides where the next page goes all live in package bplus
// — region has no opinion about what's inside a page.
package region

import (
	"os"
	"sync"

	"github.com/cockroachdb/errors"
)

const PageSize = 4096

// ErrOutOfSpace is returned by Grow when the backing file cannot be
// extended (disk full, quota exceeded, etc.). It is recoverable: the
// region is left exactly as it was before the failed Grow.
var ErrOutOfSpace = errors.New("region: out of space")

// ErrCorruption is returned when an offset handed to View/WriteBack is not
// page-aligned or falls outside the region's current extent.
var ErrCorruption = errors.New("region: corrupt offset")

// Page is a single raw 4096-byte block.
type Page [PageSize]byte

// Region manages a file of fixed-size pages and caches recently used ones.
type Region struct {
	mu    sync.Mutex
	file  *os.File
	cache *lruCache
	size  int64 // current file size in bytes; always a multiple of PageSize
}

// Open opens (or creates) a region backed by the given file. cacheSize is
// the number of pages to hold in the LRU cache.
func Open(path string, cacheSize int) (*Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "region: open")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "region: stat")
	}
	return &Region{
		file:  f,
		cache: newLRUCache(cacheSize),
		size:  info.Size(),
	}, nil
}

// Size returns the current extent of the region in bytes.
func (r *Region) Size() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Grow extends the region by one zeroed page and returns its offset.
func (r *Region) Grow() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	offset := r.size
	var blank Page
	if _, err := r.file.WriteAt(blank[:], offset); err != nil {
		return 0, errors.Mark(errors.Wrapf(err, "region: grow at %d", offset), ErrOutOfSpace)
	}
	r.size += PageSize
	return offset, nil
}

// View returns the page at offset, from cache or disk. The caller may
// mutate the returned page in place; WriteBack must be called to persist
// the change. Per the engine's concurrency model (single mutator, fan-out
// readers), callers are responsible for not aliasing a page they're about
// to mutate with one still being read elsewhere.
func (r *Region) View(offset int64) (*Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOffset(offset); err != nil {
		return nil, err
	}
	if pg := r.cache.get(offset); pg != nil {
		return pg, nil
	}
	pg := new(Page)
	if _, err := r.file.ReadAt(pg[:], offset); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "region: read %d", offset), ErrCorruption)
	}
	r.cache.put(offset, pg)
	return pg, nil
}

// WriteBack persists a page back to disk and refreshes the cache entry.
func (r *Region) WriteBack(offset int64, pg *Page) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOffset(offset); err != nil {
		return err
	}
	if _, err := r.file.WriteAt(pg[:], offset); err != nil {
		return errors.Wrapf(err, "region: write %d", offset)
	}
	r.cache.put(offset, pg)
	return nil
}

// Close flushes and closes the underlying file.
func (r *Region) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}

func (r *Region) checkOffset(offset int64) error {
	if offset < 0 || offset%PageSize != 0 || offset >= r.size {
		return errors.Wrapf(ErrCorruption, "offset %d outside [0, %d)", offset, r.size)
	}
	return nil
}

// ─── LRU Cache ────────────────────────────────────────────────────────────

type lruEntry struct {
	offset int64
	page   *Page
	prev   *lruEntry
	next   *lruEntry
}

type lruCache struct {
	cap   int
	items map[int64]*lruEntry
	head  *lruEntry // most recent
	tail  *lruEntry // least recent
}

func newLRUCache(cap int) *lruCache {
	if cap < 1 {
		cap = 1
	}
	return &lruCache{
		cap:   cap,
		items: make(map[int64]*lruEntry, cap),
	}
}

func (c *lruCache) get(offset int64) *Page {
	e, ok := c.items[offset]
	if !ok {
		return nil
	}
	c.moveToFront(e)
	return e.page
}

func (c *lruCache) put(offset int64, pg *Page) {
	if e, ok := c.items[offset]; ok {
		e.page = pg
		c.moveToFront(e)
		return
	}
	e := &lruEntry{offset: offset, page: pg}
	c.items[offset] = e
	c.pushFront(e)
	if len(c.items) > c.cap {
		c.evict()
	}
}

func (c *lruCache) pushFront(e *lruEntry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) moveToFront(e *lruEntry) {
	if c.head == e {
		return
	}
	if e.prev != nil {
		e.prev.next = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	if c.tail == e {
		c.tail = e.prev
	}
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
}

func (c *lruCache) evict() {
	if c.tail == nil {
		return
	}
	delete(c.items, c.tail.offset)
	if c.tail.prev != nil {
		c.tail.prev.next = nil
	}
	c.tail = c.tail.prev
	if c.tail == nil {
		c.head = nil
	}
}
