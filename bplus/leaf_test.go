package bplus

import "testing"

func makeLeaf(keys []uint64) *Page {
	var p Page
	InitPage(&p, TypeLeaf, 0)
	for i, k := range keys {
		LeafInsertKeyAt(&p, i, k)
		LeafInsertValueAt(&p, i, k*10)
	}
	return &p
}

func TestLeafFindEncodingTable(t *testing.T) {
	p := makeLeaf([]uint64{10, 20, 30})

	cases := []struct {
		key         uint64
		index       int
		exact       bool
	}{
		{5, -1, false},
		{10, 0, true},
		{15, 0, false},
		{20, 1, true},
		{30, 2, true},
		{35, 2, false},
	}
	for _, c := range cases {
		idx, exact := LeafFind(p, c.key)
		if idx != c.index || exact != c.exact {
			t.Errorf("LeafFind(%d) = (%d,%v), want (%d,%v)", c.key, idx, exact, c.index, c.exact)
		}
	}
}

func TestLeafFindEmpty(t *testing.T) {
	var p Page
	InitPage(&p, TypeLeaf, 0)
	idx, exact := LeafFind(&p, 42)
	if idx != -1 || exact {
		t.Fatalf("LeafFind on empty leaf = (%d,%v), want (-1,false)", idx, exact)
	}
}

func TestLeafFindMissInsertionPoint(t *testing.T) {
	p := makeLeaf([]uint64{10, 20, 30})
	for _, key := range []uint64{5, 15, 25, 35} {
		idx, exact := LeafFind(p, key)
		if exact {
			t.Fatalf("LeafFind(%d) unexpectedly exact", key)
		}
		insertAt := idx + 1
		if insertAt < 0 || insertAt > LeafGetNvalues(p) {
			t.Fatalf("LeafFind(%d) insertion point %d out of range", key, insertAt)
		}
		if insertAt > 0 && LeafGetKeyAt(p, insertAt-1) >= key {
			t.Fatalf("LeafFind(%d): key before insertion point %d is >= key", key, insertAt)
		}
		if insertAt < LeafGetNvalues(p) && LeafGetKeyAt(p, insertAt) <= key {
			t.Fatalf("LeafFind(%d): key at insertion point %d is <= key", key, insertAt)
		}
	}
}

func TestLeafInsertShiftFidelity(t *testing.T) {
	var p Page
	InitPage(&p, TypeLeaf, 0)

	insert := func(key, value uint64) {
		idx, exact := LeafFind(&p, key)
		if exact {
			LeafSetValueAt(&p, idx, value)
			return
		}
		at := idx + 1
		LeafInsertKeyAt(&p, at, key)
		LeafInsertValueAt(&p, at, value)
	}

	keys := []uint64{50, 10, 90, 30, 70, 20, 60, 80, 40}
	for _, k := range keys {
		insert(k, k*100)
	}

	n := LeafGetNvalues(&p)
	if n != len(keys) {
		t.Fatalf("N.Values = %d, want %d", n, len(keys))
	}
	for i := 1; i < n; i++ {
		if LeafGetKeyAt(&p, i-1) >= LeafGetKeyAt(&p, i) {
			t.Fatalf("keys not strictly ascending at %d: %d >= %d", i, LeafGetKeyAt(&p, i-1), LeafGetKeyAt(&p, i))
		}
	}
	for i := 0; i < n; i++ {
		key := LeafGetKeyAt(&p, i)
		if val := LeafGetValueAt(&p, i); val != key*100 {
			t.Fatalf("value at %d = %d, want %d", i, val, key*100)
		}
	}
}

func TestLeafRemoveAt(t *testing.T) {
	p := makeLeaf([]uint64{10, 20, 30, 40})
	LeafRemoveAt(p, 1)

	if n := LeafGetNvalues(p); n != 3 {
		t.Fatalf("N.Values = %d, want 3", n)
	}
	want := []uint64{10, 30, 40}
	for i, w := range want {
		if got := LeafGetKeyAt(p, i); got != w {
			t.Fatalf("key[%d] = %d, want %d", i, got, w)
		}
		if got := LeafGetValueAt(p, i); got != w*10 {
			t.Fatalf("value[%d] = %d, want %d", i, got, w*10)
		}
	}
}

func TestLeafRemoveAtPreservesLinks(t *testing.T) {
	p := makeLeaf([]uint64{10, 20})
	LeafSetPrev(p, 4096)
	LeafSetNext(p, 8192)
	LeafRemoveAt(p, 0)
	if LeafGetPrev(p) != 4096 || LeafGetNext(p) != 8192 {
		t.Fatalf("Prev/Next clobbered by LeafRemoveAt")
	}
}

func TestLeafCopyKeysAndValues(t *testing.T) {
	src := makeLeaf([]uint64{1, 2, 3, 4, 5})
	var dst Page
	InitPage(&dst, TypeLeaf, 0)

	LeafCopyKeys(&dst, src, 2, -1)
	LeafCopyValues(&dst, src, 2, -1)
	LeafSetNvalues(&dst, 3)

	want := []uint64{3, 4, 5}
	for i, w := range want {
		if got := LeafGetKeyAt(&dst, i); got != w {
			t.Fatalf("dst key[%d] = %d, want %d", i, got, w)
		}
		if got := LeafGetValueAt(&dst, i); got != w*10 {
			t.Fatalf("dst value[%d] = %d, want %d", i, got, w*10)
		}
	}
	if got := LeafGetNvalues(src); got != 5 {
		t.Fatalf("src N.Values mutated: got %d, want 5", got)
	}
}

func TestLeafInsertFullPanics(t *testing.T) {
	var p Page
	InitPage(&p, TypeLeaf, 0)
	for i := 0; i < maxLeafValues; i++ {
		LeafInsertKeyAt(&p, i, uint64(i))
		LeafInsertValueAt(&p, i, uint64(i))
	}
	defer func() {
		if recover() == nil {
			t.Fatal("LeafInsertValueAt on a full leaf did not panic")
		}
	}()
	LeafInsertValueAt(&p, maxLeafValues, 999)
}
