package bplus

import "encoding/binary"

// Leaf body layout, immediately after the 8-byte header:
//
//	Keys[254]   u64 LE  (2032 bytes)
//	Values[254] u64 LE  (2032 bytes)
//	Prev        i64     (8 bytes)
//	Next        i64     (8 bytes)
//
// Keys are sorted ascending; Values[i] pairs with Keys[i]. Prev/Next are
// page offsets in the global doubly-linked list of leaves (see iterator.go).
const (
	leafKeysOff   = headerSize
	leafValuesOff = leafKeysOff + maxLeafValues*8
	leafPrevOff   = leafValuesOff + maxLeafValues*8
	leafNextOff   = leafPrevOff + 8
)

func requireLeaf(p *Page) {
	contract(GetType(p) == TypeLeaf, "expected leaf page, got type %d", GetType(p))
}

// LeafGetNvalues returns N.Values, the number of in-use key/value pairs.
func LeafGetNvalues(p *Page) int {
	requireLeaf(p)
	return int(getN(p))
}

// LeafSetNvalues sets N.Values directly. Structural mutators bump it
// themselves (LeafInsertValueAt); this exists for split/copy code that
// rebuilds a leaf's count from scratch.
func LeafSetNvalues(p *Page, n int) {
	requireLeaf(p)
	contract(n >= 0 && n <= maxLeafValues, "nvalues %d out of range", n)
	setN(p, uint8(n))
}

func leafKeyOffset(index int) int   { return leafKeysOff + index*8 }
func leafValueOffset(index int) int { return leafValuesOff + index*8 }

func LeafGetKeyAt(p *Page, index int) uint64 {
	requireLeaf(p)
	contract(index >= 0 && index < maxLeafValues, "key index %d out of range", index)
	off := leafKeyOffset(index)
	return binary.LittleEndian.Uint64(p[off : off+8])
}

func LeafSetKeyAt(p *Page, index int, key uint64) {
	requireLeaf(p)
	contract(index >= 0 && index < maxLeafValues, "key index %d out of range", index)
	off := leafKeyOffset(index)
	binary.LittleEndian.PutUint64(p[off:off+8], key)
}

func LeafGetValueAt(p *Page, index int) uint64 {
	requireLeaf(p)
	contract(index >= 0 && index < maxLeafValues, "value index %d out of range", index)
	off := leafValueOffset(index)
	return binary.LittleEndian.Uint64(p[off : off+8])
}

func LeafSetValueAt(p *Page, index int, value uint64) {
	requireLeaf(p)
	contract(index >= 0 && index < maxLeafValues, "value index %d out of range", index)
	off := leafValueOffset(index)
	binary.LittleEndian.PutUint64(p[off:off+8], value)
}

func LeafGetPrev(p *Page) int64 {
	requireLeaf(p)
	return int64(binary.LittleEndian.Uint64(p[leafPrevOff : leafPrevOff+8]))
}

func LeafSetPrev(p *Page, offset int64) {
	requireLeaf(p)
	binary.LittleEndian.PutUint64(p[leafPrevOff:leafPrevOff+8], uint64(offset))
}

func LeafGetNext(p *Page) int64 {
	requireLeaf(p)
	return int64(binary.LittleEndian.Uint64(p[leafNextOff : leafNextOff+8]))
}

func LeafSetNext(p *Page, offset int64) {
	requireLeaf(p)
	binary.LittleEndian.PutUint64(p[leafNextOff:leafNextOff+8], uint64(offset))
}

// LeafFind searches for key among a leaf's sorted keys. Contract:
//
//   - empty leaf: (-1, false).
//   - key >= Keys[K-1] (K = N.Values): index is always K-1; exact is
//     key == Keys[K-1].
//   - otherwise, the first i with key <= Keys[i] gives: exact match
//     (key == Keys[i]) returns (i, true); a miss returns (i-1, false).
//
// On an exact match, index is the matching slot. On a miss, index+1 is
// the correct insertion point that keeps Keys sorted.
func LeafFind(p *Page, key uint64) (index int, exact bool) {
	requireLeaf(p)
	k := LeafGetNvalues(p)
	if k == 0 {
		return -1, false
	}
	if last := LeafGetKeyAt(p, k-1); key >= last {
		return k - 1, key == last
	}
	for i := 0; i < k; i++ {
		if ki := LeafGetKeyAt(p, i); key <= ki {
			if key == ki {
				return i, true
			}
			return i - 1, false
		}
	}
	return k - 1, false
}

// LeafInsertKeyAt inserts key at index, shifting Keys[index..N) right by
// one slot. It does not bump N.Values: the paired LeafInsertValueAt call
// (at the same index) does.
func LeafInsertKeyAt(p *Page, index int, key uint64) {
	requireLeaf(p)
	n := LeafGetNvalues(p)
	contract(n < maxLeafValues, "leaf full: N.Values=%d", n)
	contract(index >= 0 && index <= n, "key insert index %d out of range (n=%d)", index, n)
	for i := n; i > index; i-- {
		LeafSetKeyAt(p, i, LeafGetKeyAt(p, i-1))
	}
	LeafSetKeyAt(p, index, key)
}

// LeafInsertValueAt inserts value at index, shifting Values[index..N)
// right by one slot, and bumps N.Values. Callers must issue
// LeafInsertKeyAt immediately before this, with the same index; the pair
// is atomic from the caller's perspective.
func LeafInsertValueAt(p *Page, index int, value uint64) {
	requireLeaf(p)
	n := LeafGetNvalues(p)
	contract(n < maxLeafValues, "leaf full: N.Values=%d", n)
	contract(index >= 0 && index <= n, "value insert index %d out of range (n=%d)", index, n)
	for i := n; i > index; i-- {
		LeafSetValueAt(p, i, LeafGetValueAt(p, i-1))
	}
	LeafSetValueAt(p, index, value)
	LeafSetNvalues(p, n+1)
}

// LeafRemoveAt removes the key/value pair at index, shifting the trailing
// entries left by one and decrementing N.Values. Used by Delete; it does
// not touch Prev/Next or any sibling leaf (see Tree.Remove's doc comment
// for why merge/redistribution is out of scope).
func LeafRemoveAt(p *Page, index int) {
	requireLeaf(p)
	n := LeafGetNvalues(p)
	contract(index >= 0 && index < n, "remove index %d out of range (n=%d)", index, n)
	for i := index; i < n-1; i++ {
		LeafSetKeyAt(p, i, LeafGetKeyAt(p, i+1))
		LeafSetValueAt(p, i, LeafGetValueAt(p, i+1))
	}
	LeafSetNvalues(p, n-1)
}

// LeafCopyKeys copies src.Keys[from:to) into the head of dst.Keys. to ==
// -1 means src's current N.Values.
func LeafCopyKeys(dst, src *Page, from, to int) {
	requireLeaf(dst)
	requireLeaf(src)
	if to == -1 {
		to = LeafGetNvalues(src)
	}
	contract(0 <= from && from < to && to <= LeafGetNvalues(src),
		"key copy range [%d,%d) invalid for src with %d values", from, to, LeafGetNvalues(src))
	for i := from; i < to; i++ {
		LeafSetKeyAt(dst, i-from, LeafGetKeyAt(src, i))
	}
}

// LeafCopyValues copies src.Values[from:to) into the head of dst.Values.
// to == -1 means src's current N.Values.
func LeafCopyValues(dst, src *Page, from, to int) {
	requireLeaf(dst)
	requireLeaf(src)
	if to == -1 {
		to = LeafGetNvalues(src)
	}
	contract(0 <= from && from < to && to <= LeafGetNvalues(src),
		"value copy range [%d,%d) invalid for src with %d values", from, to, LeafGetNvalues(src))
	for i := from; i < to; i++ {
		LeafSetValueAt(dst, i-from, LeafGetValueAt(src, i))
	}
}
