package bplus

import (
	"math/rand"
	"path/filepath"
	"sort"
	"testing"
)

func openTestTree(t *testing.T) *Tree {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tree.db")
	tr, err := Open(path, 64, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestTreeEmptyLookupMisses(t *testing.T) {
	tr := openTestTree(t)
	if _, ok, err := tr.Lookup(42); err != nil || ok {
		t.Fatalf("Lookup on empty tree = (_, %v, %v), want (_, false, nil)", ok, err)
	}
	it, err := tr.RangeForward(0)
	if err != nil {
		t.Fatalf("RangeForward: %v", err)
	}
	if it.Next() {
		t.Fatal("forward scan of empty tree yielded an element")
	}
}

func TestTreeSingleInsert(t *testing.T) {
	tr := openTestTree(t)
	if err := tr.Put(7, 700); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v, ok, err := tr.Lookup(7)
	if err != nil || !ok || v != 700 {
		t.Fatalf("Lookup(7) = (%d,%v,%v), want (700,true,nil)", v, ok, err)
	}

	it, err := tr.RangeForward(0)
	if err != nil {
		t.Fatalf("RangeForward: %v", err)
	}
	var got []uint64
	for it.Next() {
		got = append(got, it.Key())
	}
	if len(got) != 1 || got[0] != 7 {
		t.Fatalf("forward scan = %v, want [7]", got)
	}
}

func TestTreeThreeInsertsReverseOrder(t *testing.T) {
	tr := openTestTree(t)
	for _, kv := range [][2]uint64{{30, 3}, {20, 2}, {10, 1}} {
		if err := tr.Put(kv[0], kv[1]); err != nil {
			t.Fatalf("Put(%d): %v", kv[0], err)
		}
	}

	fwd, err := tr.RangeForward(0)
	if err != nil {
		t.Fatalf("RangeForward: %v", err)
	}
	var gotFwd []uint64
	for fwd.Next() {
		gotFwd = append(gotFwd, fwd.Key())
	}
	wantFwd := []uint64{10, 20, 30}
	if !equalUint64(gotFwd, wantFwd) {
		t.Fatalf("forward scan = %v, want %v", gotFwd, wantFwd)
	}

	bwd, err := tr.RangeBackward(^uint64(0) >> 1)
	if err != nil {
		t.Fatalf("RangeBackward: %v", err)
	}
	var gotBwd []uint64
	for bwd.Next() {
		gotBwd = append(gotBwd, bwd.Key())
	}
	wantBwd := []uint64{30, 20, 10}
	if !equalUint64(gotBwd, wantBwd) {
		t.Fatalf("backward scan = %v, want %v", gotBwd, wantBwd)
	}
}

func TestTreeLeafSplitProducesInternalNode(t *testing.T) {
	tr := openTestTree(t)
	for k := uint64(1); k <= 255; k++ {
		if err := tr.Put(k, k*10); err != nil {
			t.Fatalf("Put(%d): %v", k, err)
		}
	}

	rootOff := GetRoot(tr.meta)
	rootPg, err := tr.region.View(rootOff)
	if err != nil {
		t.Fatalf("View(root): %v", err)
	}
	if GetType(rootPg) != TypeNode {
		t.Fatalf("root page type = %d, want TypeNode (leaf split should have occurred)", GetType(rootPg))
	}

	it, err := tr.RangeForward(0)
	if err != nil {
		t.Fatalf("RangeForward: %v", err)
	}
	var got []uint64
	for it.Next() {
		got = append(got, it.Key())
		if it.Value() != it.Key()*10 {
			t.Fatalf("value for key %d = %d, want %d", it.Key(), it.Value(), it.Key()*10)
		}
	}
	if len(got) != 255 {
		t.Fatalf("forward scan returned %d keys, want 255", len(got))
	}
	for i, k := range got {
		if k != uint64(i+1) {
			t.Fatalf("scan out of order at %d: got %d, want %d", i, k, i+1)
		}
	}
}

func TestTreeSplitIdempotence(t *testing.T) {
	tr := openTestTree(t)
	for k := uint64(1); k <= 300; k++ {
		if err := tr.Put(k, k); err != nil {
			t.Fatalf("Put(%d): %v", k, err)
		}
	}

	before := scanAll(t, tr)
	if err := tr.Put(150, 150); err != nil {
		t.Fatalf("re-Put(150): %v", err)
	}
	after := scanAll(t, tr)

	if len(before) != len(after) {
		t.Fatalf("re-inserting an existing key changed the element count: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("scan differs at %d after idempotent re-insert: %v -> %v", i, before[i], after[i])
		}
	}
}

func TestTreeSentinelInvariants(t *testing.T) {
	tr := openTestTree(t)
	for k := uint64(1); k <= 50; k++ {
		if err := tr.Put(k, k); err != nil {
			t.Fatalf("Put(%d): %v", k, err)
		}
	}

	rendOff := GetRendSentinel(tr.meta)
	endOff := GetEndSentinel(tr.meta)
	rend, err := tr.region.View(rendOff)
	if err != nil {
		t.Fatalf("View(rend): %v", err)
	}
	end, err := tr.region.View(endOff)
	if err != nil {
		t.Fatalf("View(end): %v", err)
	}
	if LeafGetPrev(rend) != 0 {
		t.Fatalf("RendSentinel.Prev = %d, want 0", LeafGetPrev(rend))
	}
	if LeafGetNext(end) != 0 {
		t.Fatalf("EndSentinel.Next = %d, want 0", LeafGetNext(end))
	}

	leafCount := 0
	offset := LeafGetNext(rend)
	for offset != 0 && offset != endOff {
		pg, err := tr.region.View(offset)
		if err != nil {
			t.Fatalf("View(%d): %v", offset, err)
		}
		leafCount++
		offset = LeafGetNext(pg)
	}
	if offset != endOff {
		t.Fatalf("forward walk from RendSentinel did not terminate at EndSentinel")
	}

	hops := 0
	offset = rendOff
	for {
		pg, err := tr.region.View(offset)
		if err != nil {
			t.Fatalf("View(%d): %v", offset, err)
		}
		next := LeafGetNext(pg)
		hops++
		if next == 0 {
			break
		}
		offset = next
	}
	if hops != leafCount+2 {
		t.Fatalf("hops from RendSentinel to 0 = %d, want %d (L+2, L=%d)", hops, leafCount+2, leafCount)
	}
}

func TestTreeDeleteRemovesExactMatchOnly(t *testing.T) {
	tr := openTestTree(t)
	for _, k := range []uint64{10, 20, 30, 40} {
		if err := tr.Put(k, k*100); err != nil {
			t.Fatalf("Put(%d): %v", k, err)
		}
	}

	rootOff := GetRoot(tr.meta)
	before, err := tr.region.View(rootOff)
	if err != nil {
		t.Fatalf("View(root): %v", err)
	}
	prevBefore, nextBefore := LeafGetPrev(before), LeafGetNext(before)

	if err := tr.Remove(20); err != nil {
		t.Fatalf("Remove(20): %v", err)
	}
	if _, ok, err := tr.Lookup(20); err != nil || ok {
		t.Fatalf("Lookup(20) after Remove = (_, %v, %v), want (_, false, nil)", ok, err)
	}
	for _, k := range []uint64{10, 30, 40} {
		if _, ok, err := tr.Lookup(k); err != nil || !ok {
			t.Fatalf("Lookup(%d) after deleting 20 = (_, %v, %v), want ok", k, ok, err)
		}
	}

	after, err := tr.region.View(rootOff)
	if err != nil {
		t.Fatalf("View(root): %v", err)
	}
	if LeafGetPrev(after) != prevBefore || LeafGetNext(after) != nextBefore {
		t.Fatalf("Delete touched the leaf's Prev/Next links")
	}
}

func TestTreeDeleteMissingKeyReturnsErrNotFound(t *testing.T) {
	tr := openTestTree(t)
	if err := tr.Put(1, 1); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := tr.Remove(999); err != ErrNotFound {
		t.Fatalf("Remove of an absent key = %v, want ErrNotFound", err)
	}
}

func TestTreeRejectsReservedTopBitKey(t *testing.T) {
	tr := openTestTree(t)
	reserved := uint64(1) << 63

	assertPanics(t, "Lookup", func() { tr.Lookup(reserved) })
	assertPanics(t, "Put", func() { tr.Put(reserved, 1) })
	assertPanics(t, "Remove", func() { tr.Remove(reserved) })
}

func assertPanics(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s did not panic on a reserved top-bit key", name)
		}
	}()
	f()
}

// TestTreeDifferentialAgainstSortedModel runs a randomized sequence of
// Put/Remove calls against the tree and an in-memory map model, checks a
// Lookup of the touched key after every step, and checks a final full
// forward scan against the model's sorted keys.
func TestTreeDifferentialAgainstSortedModel(t *testing.T) {
	tr := openTestTree(t)
	model := map[uint64]uint64{}
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 2000; i++ {
		key := uint64(rng.Intn(500))
		switch rng.Intn(3) {
		case 0, 1:
			value := rng.Uint64() >> 1
			if err := tr.Put(key, value); err != nil {
				t.Fatalf("Put(%d,%d): %v", key, value, err)
			}
			model[key] = value
		case 2:
			err := tr.Remove(key)
			if _, present := model[key]; present {
				if err != nil {
					t.Fatalf("Remove(%d): %v", key, err)
				}
				delete(model, key)
			}
		}

		if v, ok, err := tr.Lookup(key); err != nil {
			t.Fatalf("Lookup(%d): %v", key, err)
		} else if want, wantOk := model[key]; ok != wantOk || (ok && v != want) {
			t.Fatalf("Lookup(%d) = (%d,%v), want (%d,%v)", key, v, ok, want, wantOk)
		}
	}

	wantKeys := make([]uint64, 0, len(model))
	for k := range model {
		wantKeys = append(wantKeys, k)
	}
	sort.Slice(wantKeys, func(i, j int) bool { return wantKeys[i] < wantKeys[j] })

	it, err := tr.RangeForward(0)
	if err != nil {
		t.Fatalf("RangeForward: %v", err)
	}
	var gotKeys []uint64
	for it.Next() {
		gotKeys = append(gotKeys, it.Key())
		if it.Value() != model[it.Key()] {
			t.Fatalf("scan value for key %d = %d, want %d", it.Key(), it.Value(), model[it.Key()])
		}
	}
	if !equalUint64(gotKeys, wantKeys) {
		t.Fatalf("forward scan diverged from model:\n got  %v\n want %v", gotKeys, wantKeys)
	}
}

func scanAll(t *testing.T, tr *Tree) []uint64 {
	t.Helper()
	it, err := tr.RangeForward(0)
	if err != nil {
		t.Fatalf("RangeForward: %v", err)
	}
	var got []uint64
	for it.Next() {
		got = append(got, it.Key())
	}
	return got
}

func equalUint64(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
