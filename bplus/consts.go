// Package bplus implements an on-disk B+ tree storage engine: a sequence
// of fixed-size 4096-byte pages mapping 64-bit keys to 64-bit values, with
// point lookup, bidirectional ordered iteration via a sentinel-linked list
// of leaves, and the split/allocation primitives insert and delete are
// built from.
//
// Page layout (bit-exact, little-endian):
//
//	Meta page (offset 0):
//	  Version, Root, Blobs, FreeList, Snapshots,
//	  EndSentinel, RendSentinel, NextOffset   — each a fixed-width field,
//	                                             zero-padded to 4096 bytes.
//
//	Every other page:
//	  Header: Type(1) N(1) RefCount(1) Pad(5) = 8 bytes
//	  Body:   Node{Keys[255]u64 Children[255]i64 ChildPage0 i64}
//	       or Leaf{Keys[254]u64 Values[254]u64 Prev i64 Next i64}
//
// See meta.go, page.go, node.go, and leaf.go for the field-level codec.
package bplus

import "github.com/kvpage/bplus/region"

const (
	// PageSize is the fixed size of every page, including the meta page.
	PageSize = region.PageSize

	// Order is the tree's branching factor, fixed by the one-byte N field.
	Order = 256

	// Version is the only meta-page format version this revision writes.
	Version = 0x1
)

// PageType identifies what a page's body is interpreted as.
type PageType uint8

const (
	TypeNone PageType = 0
	TypeNode PageType = 1
	TypeLeaf PageType = 2
)

// blobBit is the reserved top bit of a key: a set bit means "the remaining
// 63 bits are an offset to an out-of-line key blob." Blob indirection is
// deferred in this revision; keys with this bit set are rejected at the
// public boundary.
const blobBit = uint64(1) << 63

// maxNodeChildren is ORDER-1 (255), the largest count the one-byte N field
// can hold: a node holds at most this many children, and therefore at most
// maxNodeChildren-1 separator keys.
const maxNodeChildren = Order - 1

// maxLeafValues is ORDER-2 (254): a leaf holds at most this many key/value
// pairs, leaving the two slots a node's (key, child) pair would otherwise
// cost to Prev/Next instead.
const maxLeafValues = Order - 2
