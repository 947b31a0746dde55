package bplus

import (
	"fmt"

	"github.com/kvpage/bplus/region"
)

// Page is a single 4096-byte page, either meta, node, or leaf depending on
// context. It is a type alias for region.Page so the engine and the
// backing region agree on layout without either importing the other's
// internals beyond this.
type Page = region.Page

// Header byte offsets. The header is exactly 8 bytes: Type, N, RefCount,
// and 5 bytes of padding.
const (
	offType     = 0
	offN        = 1
	offRefCount = 2
	headerSize  = 8
)

// GetType reads a page's header type byte.
func GetType(p *Page) PageType {
	return PageType(p[offType])
}

// GetRefCount reads a page's reference count. Reserved for future
// copy-on-write snapshots; must be 0 on every live page in this revision.
func GetRefCount(p *Page) uint8 {
	return p[offRefCount]
}

// InitPage zeroes the full page, sets Header.Type, and sets Header.N
// (interpreted as child count for a node, value count for a leaf).
func InitPage(p *Page, typ PageType, n uint8) {
	for i := range p {
		p[i] = 0
	}
	p[offType] = byte(typ)
	setN(p, n)
}

func getN(p *Page) uint8    { return p[offN] }
func setN(p *Page, n uint8) { p[offN] = n }

// contract panics on a violated precondition: a bug in the caller, never a
// recoverable runtime condition. A page's Type mismatching the operation
// it's handed to, an out-of-range index, or a capacity overflow on insert
// all fall here, per the engine's error taxonomy.
func contract(cond bool, format string, args ...any) {
	if !cond {
		panic("bplus: contract violation: " + fmt.Sprintf(format, args...))
	}
}
