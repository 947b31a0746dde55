package bplus

import (
	"github.com/cockroachdb/errors"

	"github.com/kvpage/bplus/region"
)

// ErrOutOfSpace is returned when the backing region cannot grow to satisfy
// an allocation. Recoverable: the tree is left in a consistent state, and
// the caller may retry after freeing space.
var ErrOutOfSpace = region.ErrOutOfSpace

// ErrCorruption marks a page read that fails a structural sanity check —
// an offset that is unaligned or outside the region's extent, a failed page
// read, or a page met during descent whose Type is neither node nor leaf.
// Never recoverable within a session.
var ErrCorruption = region.ErrCorruption

// ErrNotFound is returned by Remove when the key is absent; the Delete
// adapter turns it into a nil error. Lookup instead reports an absent key
// via its boolean return.
var ErrNotFound = errors.New("bplus: key not found")

// rejectReservedKey panics if key has its top bit set. That bit is
// reserved to mark a key stored out of line in the blob region (see
// blobBit); a caller passing such a key is a bug in the caller, not a
// recoverable runtime condition, so Lookup, Put and Remove enforce this
// with contract rather than returning an error.
func rejectReservedKey(key uint64) {
	contract(key&blobBit == 0, "key %#x has reserved top bit set", key)
}
