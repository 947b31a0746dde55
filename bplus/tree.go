package bplus

import (
	"encoding/binary"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/kvpage/bplus/index"
	"github.com/kvpage/bplus/region"
)

// Tree is a handle on one open B+ tree file. The embedded RWMutex lets an
// embedder enforce "shared during lookup, exclusive during mutation"
// without the engine itself spawning goroutines or synchronizing beyond
// its own in-process state; the backing region is still single-writer.
type Tree struct {
	sync.RWMutex

	region  *region.Region
	meta    *Page
	alloc   *allocator
	metrics *Metrics
}

// Open opens or creates a tree at path. metrics may be nil. cacheSize is
// the number of pages the backing region's LRU cache holds.
func Open(path string, cacheSize int, metrics *Metrics) (*Tree, error) {
	r, err := region.Open(path, cacheSize)
	if err != nil {
		return nil, err
	}
	var meta *Page
	if r.Size() == 0 {
		meta, err = treeInit(r)
	} else {
		meta, err = r.View(0)
	}
	if err != nil {
		r.Close()
		return nil, err
	}
	t := &Tree{
		region:  r,
		meta:    meta,
		metrics: metrics,
	}
	t.alloc = newAllocator(r, meta, metrics)
	return t, nil
}

// Close flushes the meta page and closes the backing region.
func (t *Tree) Close() error {
	if err := t.region.WriteBack(0, t.meta); err != nil {
		return err
	}
	return t.region.Close()
}

// treeInit writes the initial meta page and allocates the two sentinel
// leaves, per §6.2's tree_init: meta at offset 0, Root = 0 (empty tree).
func treeInit(r *region.Region) (*Page, error) {
	metaOff, err := r.Grow()
	if err != nil {
		return nil, err
	}
	contract(metaOff == 0, "meta page must land at offset 0, got %d", metaOff)

	rendOff, err := r.Grow()
	if err != nil {
		return nil, err
	}
	endOff, err := r.Grow()
	if err != nil {
		return nil, err
	}

	rend, err := r.View(rendOff)
	if err != nil {
		return nil, err
	}
	end, err := r.View(endOff)
	if err != nil {
		return nil, err
	}
	InitPage(rend, TypeLeaf, 0)
	InitPage(end, TypeLeaf, 0)
	LeafSetPrev(rend, 0)
	LeafSetNext(rend, endOff)
	LeafSetPrev(end, rendOff)
	LeafSetNext(end, 0)
	if err := r.WriteBack(rendOff, rend); err != nil {
		return nil, err
	}
	if err := r.WriteBack(endOff, end); err != nil {
		return nil, err
	}

	meta, err := r.View(0)
	if err != nil {
		return nil, err
	}
	SetVersion(meta, Version)
	SetRoot(meta, 0)
	SetBlobs(meta, 0)
	SetFreeList(meta, 0)
	SetSnapshots(meta, 0)
	SetRendSentinel(meta, rendOff)
	SetEndSentinel(meta, endOff)
	SetNextOffset(meta, r.Size())
	if err := r.WriteBack(0, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func (t *Tree) flushMeta() error {
	return t.region.WriteBack(0, t.meta)
}

// Lookup descends from meta.Root via NodeFind until a leaf, then resolves
// the key with LeafFind. ok is false when the tree is empty or the key is
// absent; that is a normal outcome, not an error (§7).
func (t *Tree) Lookup(key uint64) (value uint64, ok bool, err error) {
	rejectReservedKey(key)
	t.metrics.incLookup()

	root := GetRoot(t.meta)
	if root == 0 {
		t.metrics.incLookupMiss()
		return 0, false, nil
	}
	leaf, _, err := t.descendToLeaf(root, key)
	if err != nil {
		return 0, false, err
	}
	idx, exact := LeafFind(leaf, key)
	if !exact {
		t.metrics.incLookupMiss()
		return 0, false, nil
	}
	return LeafGetValueAt(leaf, idx), true, nil
}

// descendToLeaf walks from a page offset (the root, for both Lookup and the
// range iterators) down to the leaf that would own key.
func (t *Tree) descendToLeaf(offset int64, key uint64) (*Page, int64, error) {
	for {
		pg, err := t.region.View(offset)
		if err != nil {
			return nil, 0, err
		}
		switch GetType(pg) {
		case TypeLeaf:
			return pg, offset, nil
		case TypeNode:
			idx := NodeFind(pg, key)
			offset = NodeGetChildAt(pg, idx)
		default:
			return nil, 0, errors.Wrapf(ErrCorruption, "page %d has type %d, expected node or leaf", offset, GetType(pg))
		}
	}
}

// pathStep records one hop of a root-to-leaf descent so Insert can walk
// back up and propagate a split.
type pathStep struct {
	offset    int64
	childSlot int // the NodeFind result that led to the next step
}

// Put inserts or overwrites key/value. A full leaf is split before
// insertion; the promoted separator cascades up through full ancestor
// nodes, and a full root produces a new root (growing the tree by one
// level).
func (t *Tree) Put(key, value uint64) error {
	rejectReservedKey(key)

	root := GetRoot(t.meta)
	if root == 0 {
		leafOff, leaf, err := t.alloc.allocPage()
		if err != nil {
			return err
		}
		InitPage(leaf, TypeLeaf, 0)
		if err := t.linkFirstLeaf(leafOff, leaf); err != nil {
			return err
		}
		LeafInsertKeyAt(leaf, 0, key)
		LeafInsertValueAt(leaf, 0, value)
		if err := t.region.WriteBack(leafOff, leaf); err != nil {
			return err
		}
		SetRoot(t.meta, leafOff)
		return t.flushMeta()
	}

	var path []pathStep
	offset := root
	for {
		pg, err := t.region.View(offset)
		if err != nil {
			return err
		}
		if GetType(pg) == TypeLeaf {
			break
		}
		slot := NodeFind(pg, key)
		path = append(path, pathStep{offset: offset, childSlot: slot})
		offset = NodeGetChildAt(pg, slot)
	}

	leaf, err := t.region.View(offset)
	if err != nil {
		return err
	}
	idx, exact := LeafFind(leaf, key)
	if exact {
		LeafSetValueAt(leaf, idx, value)
		return t.region.WriteBack(offset, leaf)
	}

	if LeafGetNvalues(leaf) == maxLeafValues {
		sepKey, newOff, err := t.splitLeaf(offset, leaf)
		if err != nil {
			return err
		}
		if key >= sepKey {
			leaf, err = t.region.View(newOff)
			if err != nil {
				return err
			}
			offset = newOff
		}
		idx, _ = LeafFind(leaf, key)
		if err := t.insertLeaf(offset, leaf, idx+1, key, value); err != nil {
			return err
		}
		return t.propagateSplit(path, sepKey, newOff)
	}

	if err := t.insertLeaf(offset, leaf, idx+1, key, value); err != nil {
		return err
	}
	return t.flushMeta()
}

func (t *Tree) insertLeaf(offset int64, leaf *Page, at int, key, value uint64) error {
	LeafInsertKeyAt(leaf, at, key)
	LeafInsertValueAt(leaf, at, value)
	return t.region.WriteBack(offset, leaf)
}

// linkFirstLeaf wires the very first data leaf between the two sentinels:
// rend <-> leaf <-> end.
func (t *Tree) linkFirstLeaf(leafOff int64, leaf *Page) error {
	rendOff := GetRendSentinel(t.meta)
	endOff := GetEndSentinel(t.meta)
	rend, err := t.region.View(rendOff)
	if err != nil {
		return err
	}
	end, err := t.region.View(endOff)
	if err != nil {
		return err
	}
	LeafSetNext(rend, leafOff)
	LeafSetPrev(leaf, rendOff)
	LeafSetNext(leaf, endOff)
	LeafSetPrev(end, leafOff)
	if err := t.region.WriteBack(rendOff, rend); err != nil {
		return err
	}
	return t.region.WriteBack(endOff, end)
}

// splitLeaf moves the right half of a full leaf into a freshly allocated
// sibling spliced in right after it in the leaf list, and returns the
// sibling's first key (the separator to promote) and its offset.
func (t *Tree) splitLeaf(offset int64, leaf *Page) (sepKey uint64, newOff int64, err error) {
	t.metrics.incSplit()

	newOff, newLeaf, err := t.alloc.allocPage()
	if err != nil {
		return 0, 0, err
	}
	InitPage(newLeaf, TypeLeaf, 0)

	mid := maxLeafValues / 2
	tailLen := maxLeafValues - mid
	LeafCopyKeys(newLeaf, leaf, mid, -1)
	LeafCopyValues(newLeaf, leaf, mid, -1)
	LeafSetNvalues(newLeaf, tailLen)
	LeafSetNvalues(leaf, mid)
	sepKey = LeafGetKeyAt(newLeaf, 0)

	nextOff := LeafGetNext(leaf)
	next, err := t.region.View(nextOff)
	if err != nil {
		return 0, 0, err
	}
	LeafSetPrev(newLeaf, offset)
	LeafSetNext(newLeaf, nextOff)
	LeafSetNext(leaf, newOff)
	LeafSetPrev(next, newOff)

	if err := t.region.WriteBack(offset, leaf); err != nil {
		return 0, 0, err
	}
	if err := t.region.WriteBack(newOff, newLeaf); err != nil {
		return 0, 0, err
	}
	if err := t.region.WriteBack(nextOff, next); err != nil {
		return 0, 0, err
	}
	return sepKey, newOff, nil
}

// propagateSplit walks path from the leaf upward, inserting (sepKey,
// rightOffset) into each ancestor, splitting any that are full, and
// finally growing the tree by one level if the root itself split.
func (t *Tree) propagateSplit(path []pathStep, sepKey uint64, rightOffset int64) error {
	for i := len(path) - 1; i >= 0; i-- {
		step := path[i]
		nd, err := t.region.View(step.offset)
		if err != nil {
			return err
		}

		if NodeGetNchildren(nd) == maxNodeChildren {
			promoted, newNodeOff, err := t.splitNode(step.offset, nd)
			if err != nil {
				return err
			}
			target := nd
			targetOff := step.offset
			if sepKey >= promoted {
				target, err = t.region.View(newNodeOff)
				if err != nil {
					return err
				}
				targetOff = newNodeOff
			}
			insertSeparator(target, sepKey, rightOffset)
			if err := t.region.WriteBack(targetOff, target); err != nil {
				return err
			}
			sepKey, rightOffset = promoted, newNodeOff
			continue
		}

		insertSeparator(nd, sepKey, rightOffset)
		return t.region.WriteBack(step.offset, nd)
	}

	// The root split (or the tree had no internal nodes yet): allocate a
	// new root whose ChildPage0 is the old root and whose first child is
	// the newly promoted sibling.
	oldRoot := GetRoot(t.meta)
	newRootOff, newRoot, err := t.alloc.allocPage()
	if err != nil {
		return err
	}
	InitPage(newRoot, TypeNode, 1)
	NodeSetChildAt(newRoot, -1, oldRoot)
	NodeInsertKeyAt(newRoot, 0, sepKey)
	NodeInsertChildAt(newRoot, 0, rightOffset)
	if err := t.region.WriteBack(newRootOff, newRoot); err != nil {
		return err
	}
	SetRoot(t.meta, newRootOff)
	return t.flushMeta()
}

// insertSeparator finds where sepKey belongs among nd's existing
// separators and inserts it alongside rightOffset as the child to its
// right, per §4.7's insert-split composition.
func insertSeparator(nd *Page, sepKey uint64, rightOffset int64) {
	slot := NodeFind(nd, sepKey)
	at := slot + 1
	NodeInsertKeyAt(nd, at, sepKey)
	NodeInsertChildAt(nd, at, rightOffset)
}

// splitNode splits a full node, promoting its median separator key without
// duplicating it into either half: the left keeps ChildPage0 plus the
// keys/children before the median, the right's ChildPage0 becomes the
// child that followed the median.
func (t *Tree) splitNode(offset int64, nd *Page) (promoted uint64, newOff int64, err error) {
	t.metrics.incSplit()

	k := NodeGetNchildren(nd) - 1 // separator count, 254 when full
	mid := k / 2
	promoted = NodeGetKeyAt(nd, mid)

	newOff, right, err := t.alloc.allocPage()
	if err != nil {
		return 0, 0, err
	}
	InitPage(right, TypeNode, 0)

	// Flat child indexing: flat 0 is ChildPage0, flat i>=1 is Children[i-1].
	// The child that followed the promoted key (flat index mid+1) becomes
	// the right node's ChildPage0.
	NodeCopyKeys(right, nd, mid+1, k)
	NodeCopyChildren(right, nd, mid+1, k+1)
	NodeSetNchildren(right, k-mid)

	NodeSetNchildren(nd, mid+1)
	if err := t.region.WriteBack(offset, nd); err != nil {
		return 0, 0, err
	}
	if err := t.region.WriteBack(newOff, right); err != nil {
		return 0, 0, err
	}
	return promoted, newOff, nil
}

// Remove deletes key from its owning leaf if present. It does not
// rebalance the tree or remove an emptied leaf from the sentinel chain:
// merge/redistribution is deferred (§4.8's documented limitation).
func (t *Tree) Remove(key uint64) error {
	rejectReservedKey(key)

	root := GetRoot(t.meta)
	if root == 0 {
		return ErrNotFound
	}
	leaf, offset, err := t.descendToLeaf(root, key)
	if err != nil {
		return err
	}
	idx, exact := LeafFind(leaf, key)
	if !exact {
		return ErrNotFound
	}
	LeafRemoveAt(leaf, idx)
	return t.region.WriteBack(offset, leaf)
}

// RangeForward scans forward from the leaf that would own start,
// inclusive, to the end of the tree.
func (t *Tree) RangeForward(start uint64) (*Iterator, error) {
	return t.newIterator(start, true)
}

// RangeBackward scans backward from the leaf that would own start,
// inclusive, to the beginning of the tree.
func (t *Tree) RangeBackward(start uint64) (*Iterator, error) {
	return t.newIterator(start, false)
}

// ─── index.Index adapter ───────────────────────────────────────────────
//
// These satisfy github.com/kvpage/bplus/index.Index so cmd/bench can drive
// this engine through the same harness as the comparison backends. Keys
// and values are encoded as 8-byte little-endian, matching the engine's
// native uint64 domain; a negative int64 key has its top bit set, so
// Insert, Get and Delete reject it the same way a raw reserved key is.
// Range does not check its bounds.

func (t *Tree) Insert(key int64, value []byte) error {
	return t.Put(uint64(key), decodeValue(value))
}

func (t *Tree) Get(key int64) ([]byte, error) {
	v, ok, err := t.Lookup(uint64(key))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return encodeValue(v), nil
}

func (t *Tree) Delete(key int64) error {
	err := t.Remove(uint64(key))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (t *Tree) Range(start, end int64) (index.Iterator, error) {
	it, err := t.RangeForward(uint64(start))
	if err != nil {
		return nil, err
	}
	return &boundedIterator{Iterator: it, end: uint64(end)}, nil
}

func decodeValue(b []byte) uint64 {
	var buf [8]byte
	copy(buf[:], b)
	return binary.LittleEndian.Uint64(buf[:])
}

func encodeValue(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}
