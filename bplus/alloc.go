package bplus

import (
	"encoding/binary"

	"github.com/kvpage/bplus/region"
)

// freeListNextOff is the byte offset of a freed page's next-pointer: right
// after the 8-byte header, reusing the space a node or leaf would otherwise
// use for its body. A page on the free list has no other meaning.
const freeListNextOff = headerSize

// allocator hands out page offsets: it reuses meta.FreeList when non-empty,
// otherwise it bumps meta.NextOffset and grows the backing region. Freed
// pages are threaded onto FreeList using the first 8 bytes of the freed
// page's body as a next-pointer, the same technique the meta page's
// sentinel chain uses for leaves.
type allocator struct {
	r       *region.Region
	meta    *Page
	metrics *Metrics
}

func newAllocator(r *region.Region, meta *Page, metrics *Metrics) *allocator {
	return &allocator{r: r, meta: meta, metrics: metrics}
}

// allocPage reserves a page offset, growing the region if the free list is
// empty, and returns its view. A page reused from the free list still holds
// its old bytes; callers run InitPage on every page they get.
func (a *allocator) allocPage() (int64, *Page, error) {
	if head := GetFreeList(a.meta); head != 0 {
		pg, err := a.r.View(head)
		if err != nil {
			return 0, nil, err
		}
		next := freeListNext(pg)
		SetFreeList(a.meta, next)
		a.metrics.incAllocated()
		a.metrics.incFreeListReuse()
		return head, pg, nil
	}

	offset := GetNextOffset(a.meta)
	if offset == 0 {
		// NextOffset tracks the bump pointer independently of the region's
		// own size so the meta page can be rebuilt from a truncated file;
		// on first use it starts at the region's current extent.
		offset = a.r.Size()
	}
	if offset+PageSize > a.r.Size() {
		if _, err := a.r.Grow(); err != nil {
			return 0, nil, err
		}
	}
	SetNextOffset(a.meta, offset+PageSize)
	pg, err := a.r.View(offset)
	if err != nil {
		return 0, nil, err
	}
	a.metrics.incAllocated()
	return offset, pg, nil
}

// freePage threads offset onto the head of the free list. The page's
// contents are not cleared; the next allocator to claim it runs InitPage.
func (a *allocator) freePage(offset int64) error {
	pg, err := a.r.View(offset)
	if err != nil {
		return err
	}
	setFreeListNext(pg, GetFreeList(a.meta))
	if err := a.r.WriteBack(offset, pg); err != nil {
		return err
	}
	SetFreeList(a.meta, offset)
	a.metrics.incFreed()
	return nil
}

func freeListNext(pg *Page) int64 {
	return int64(binary.LittleEndian.Uint64(pg[freeListNextOff : freeListNextOff+8]))
}

func setFreeListNext(pg *Page, next int64) {
	binary.LittleEndian.PutUint64(pg[freeListNextOff:freeListNextOff+8], uint64(next))
}
