package bplus

import "encoding/binary"

// Node body layout, immediately after the 8-byte header:
//
//	Keys[255]       u64 LE  (2040 bytes)
//	Children[255]   i64 LE  (2040 bytes)
//	ChildPage0      i64     (8 bytes)
//
// A node represents a separator layout: ChildPage0 holds keys strictly
// less than Keys[0]; Children[i] (for i in [0, N.Children-2]) holds keys
// in [Keys[i], Keys[i+1]); Children[N.Children-2] holds keys >= the last
// separator. N.Children counts ChildPage0 plus every populated entry of
// Children, so there are N.Children-1 separator keys in use.
const (
	nodeKeysOff       = headerSize
	nodeChildrenOff   = nodeKeysOff + (Order-1)*8
	nodeChildPage0Off = nodeChildrenOff + (Order-1)*8
)

func requireNode(p *Page) {
	contract(GetType(p) == TypeNode, "expected node page, got type %d", GetType(p))
}

// NodeGetNchildren returns N.Children: ChildPage0 plus every in-use entry
// of Children.
func NodeGetNchildren(p *Page) int {
	requireNode(p)
	return int(getN(p))
}

// NodeSetNchildren sets N.Children directly. Structural mutators
// (NodeInsertChildAt) bump it themselves; this exists for split/copy code
// that rebuilds a node's count from scratch.
func NodeSetNchildren(p *Page, n int) {
	requireNode(p)
	contract(n >= 0 && n <= maxNodeChildren, "nchildren %d out of range", n)
	setN(p, uint8(n))
}

func nodeKeyOffset(index int) int {
	return nodeKeysOff + index*8
}

func nodeChildOffset(index int) int {
	return nodeChildrenOff + index*8
}

// NodeGetKeyAt returns the separator key at index.
func NodeGetKeyAt(p *Page, index int) uint64 {
	requireNode(p)
	contract(index >= 0 && index < Order-1, "key index %d out of range", index)
	off := nodeKeyOffset(index)
	return binary.LittleEndian.Uint64(p[off : off+8])
}

// NodeSetKeyAt writes the separator key at index.
func NodeSetKeyAt(p *Page, index int, key uint64) {
	requireNode(p)
	contract(index >= 0 && index < Order-1, "key index %d out of range", index)
	off := nodeKeyOffset(index)
	binary.LittleEndian.PutUint64(p[off:off+8], key)
}

// NodeGetChildAt returns the child page offset at index; index -1 means
// ChildPage0.
func NodeGetChildAt(p *Page, index int) int64 {
	requireNode(p)
	if index == -1 {
		return int64(binary.LittleEndian.Uint64(p[nodeChildPage0Off : nodeChildPage0Off+8]))
	}
	contract(index >= 0 && index < Order-1, "child index %d out of range", index)
	off := nodeChildOffset(index)
	return int64(binary.LittleEndian.Uint64(p[off : off+8]))
}

// NodeSetChildAt writes the child page offset at index; index -1 means
// ChildPage0.
func NodeSetChildAt(p *Page, index int, child int64) {
	requireNode(p)
	if index == -1 {
		binary.LittleEndian.PutUint64(p[nodeChildPage0Off:nodeChildPage0Off+8], uint64(child))
		return
	}
	contract(index >= 0 && index < Order-1, "child index %d out of range", index)
	off := nodeChildOffset(index)
	binary.LittleEndian.PutUint64(p[off:off+8], uint64(child))
}

// NodeFind returns the child-slot index a key descends into: -1 means
// ChildPage0. Let K = N.Children-1 be the number of separator keys.
//
//   - K == 0: descend into ChildPage0.
//   - key >= Keys[K-1]: the rightmost child, K-1.
//   - otherwise, the first i with key < Keys[i] gives i-1 (so a key equal
//     to Keys[i] descends into child i, not i-1 — separator Keys[i] is the
//     minimum key stored in Children[i]).
func NodeFind(p *Page, key uint64) int {
	requireNode(p)
	k := NodeGetNchildren(p) - 1
	if k <= 0 {
		return -1
	}
	if key >= NodeGetKeyAt(p, k-1) {
		return k - 1
	}
	for i := 0; i < k; i++ {
		if key < NodeGetKeyAt(p, i) {
			return i - 1
		}
	}
	return k - 1
}

// NodeInsertChildAt inserts child at index, shifting Children[index..N)
// right by one slot, and bumps N.Children. index == -1 means: the new
// child becomes the new ChildPage0, and the old ChildPage0 is demoted
// into Children[0] (with everything from the old Children[0..N-1) shifted
// right by one first).
func NodeInsertChildAt(p *Page, index int, child int64) {
	requireNode(p)
	n := NodeGetNchildren(p)
	contract(n < maxNodeChildren, "node full: N.Children=%d", n)

	if index == -1 {
		// n-1 entries live in Children[0..n-2]; shift them right by one.
		for i := n - 1; i >= 1; i-- {
			NodeSetChildAt(p, i, NodeGetChildAt(p, i-1))
		}
		if n >= 1 {
			NodeSetChildAt(p, 0, NodeGetChildAt(p, -1))
		}
		NodeSetChildAt(p, -1, child)
	} else {
		contract(index >= 0 && index <= n-1, "child insert index %d out of range (n=%d)", index, n)
		for i := n - 1; i >= index+1; i-- {
			NodeSetChildAt(p, i, NodeGetChildAt(p, i-1))
		}
		NodeSetChildAt(p, index, child)
	}
	NodeSetNchildren(p, n+1)
}

// NodeInsertKeyAt inserts key at index, shifting Keys[index..N) right by
// one slot. It does not bump N.Children: the paired NodeInsertChildAt
// call does that.
func NodeInsertKeyAt(p *Page, index int, key uint64) {
	requireNode(p)
	n := NodeGetNchildren(p)
	k := n - 1 // current separator-key count
	contract(index >= 0 && index <= k, "key insert index %d out of range (k=%d)", index, k)
	for i := k; i > index; i-- {
		NodeSetKeyAt(p, i, NodeGetKeyAt(p, i-1))
	}
	NodeSetKeyAt(p, index, key)
}

// NodeCopyKeys copies src.Keys[from:to) into the head of dst.Keys. to ==
// -1 means src's current separator-key count (N.Children-1). Used by
// split to move the tail of a full node into a fresh sibling.
func NodeCopyKeys(dst, src *Page, from, to int) {
	requireNode(dst)
	requireNode(src)
	if to == -1 {
		to = NodeGetNchildren(src) - 1
	}
	contract(0 <= from && from < to && to <= NodeGetNchildren(src)-1,
		"key copy range [%d,%d) invalid for src with %d children", from, to, NodeGetNchildren(src))
	for i := from; i < to; i++ {
		NodeSetKeyAt(dst, i-from, NodeGetKeyAt(src, i))
	}
}

// NodeCopyChildren copies src's children [from:to) into the head of dst's
// children, using a flat 0-based numbering over the whole child list
// (flat index 0 is ChildPage0, flat index i>=1 is Children[i-1]) so that a
// contiguous range can span the ChildPage0/Children boundary. to == -1
// means src's current N.Children.
func NodeCopyChildren(dst, src *Page, from, to int) {
	requireNode(dst)
	requireNode(src)
	if to == -1 {
		to = NodeGetNchildren(src)
	}
	contract(0 <= from && from < to && to <= NodeGetNchildren(src),
		"child copy range [%d,%d) invalid for src with %d children", from, to, NodeGetNchildren(src))
	for i := from; i < to; i++ {
		setChildFlat(dst, i-from, getChildFlat(src, i))
	}
}

// getChildFlat/setChildFlat address a node's children as a flat 0..N-1
// list instead of NodeGetChildAt's -1-for-ChildPage0 convention.
func getChildFlat(p *Page, flat int) int64 {
	if flat == 0 {
		return NodeGetChildAt(p, -1)
	}
	return NodeGetChildAt(p, flat-1)
}

func setChildFlat(p *Page, flat int, child int64) {
	if flat == 0 {
		NodeSetChildAt(p, -1, child)
		return
	}
	NodeSetChildAt(p, flat-1, child)
}
