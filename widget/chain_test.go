package widget

import (
	"sync"
	"testing"
)

func TestChainAppendPreservesOrder(t *testing.T) {
	v1 := New(Widget{ID: 1, Z: 1}, 0)
	c := NewChain(v1)

	v2 := New(Widget{ID: 1, Z: 2}, 1)
	c.Append(v2)
	v3 := New(Widget{ID: 1, Z: 3}, 2)
	c.Append(v3)

	got := c.Snapshot()
	if len(got) != 3 {
		t.Fatalf("Len = %d, want 3", len(got))
	}
	if got[0] != v1 || got[1] != v2 || got[2] != v3 {
		t.Fatal("Snapshot order does not match append order")
	}
}

func TestChainSnapshotIsStableAcrossAppend(t *testing.T) {
	v1 := New(Widget{ID: 1}, 0)
	c := NewChain(v1)

	snap := c.Snapshot()
	c.Append(New(Widget{ID: 1}, 1))

	if len(snap) != 1 {
		t.Fatalf("previously taken snapshot mutated: len = %d, want 1", len(snap))
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
}

func TestChainCompactDropsFilteredVersions(t *testing.T) {
	v1 := New(Widget{ID: 1}, 0)
	v2 := New(Widget{ID: 1}, 1)
	v3 := New(Widget{ID: 1}, 2)
	c := NewChain(v1)
	c.Append(v2)
	c.Append(v3)

	removed := c.Compact(func(v *Version) bool { return v != v2 })
	if removed != 1 {
		t.Fatalf("Compact removed %d, want 1", removed)
	}
	got := c.Snapshot()
	if len(got) != 2 || got[0] != v1 || got[1] != v3 {
		t.Fatalf("unexpected chain after compact: %+v", got)
	}
}

func TestChainCompactNoOpWhenNothingFiltered(t *testing.T) {
	v1 := New(Widget{ID: 1}, 0)
	c := NewChain(v1)
	if removed := c.Compact(func(*Version) bool { return true }); removed != 0 {
		t.Fatalf("Compact removed %d, want 0", removed)
	}
}

func TestChainCompactRacesSafelyWithAppend(t *testing.T) {
	v1 := New(Widget{ID: 1}, 0)
	c := NewChain(v1)

	appended := make([]*Version, 100)
	for i := range appended {
		appended[i] = New(Widget{ID: 1}, int64(i+1))
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, v := range appended {
			c.Append(v)
		}
	}()
	go func() {
		defer wg.Done()
		// Actually drops v1 from the chain on its first successful CAS,
		// so this races a real removal against in-flight Appends instead
		// of taking Compact's zero-removal fast path.
		for i := 0; i < 100; i++ {
			c.Compact(func(v *Version) bool { return v != v1 })
		}
	}()
	wg.Wait()

	got := c.Snapshot()
	if len(got) != len(appended) {
		t.Fatalf("Len after concurrent append/compact = %d, want %d (v1 dropped, every append retained)", len(got), len(appended))
	}
	seen := make(map[*Version]bool, len(got))
	for _, v := range got {
		if v == v1 {
			t.Fatal("v1 reappeared after a concurrent Compact dropped it — Append overwrote the CAS")
		}
		seen[v] = true
	}
	for _, v := range appended {
		if !seen[v] {
			t.Fatalf("appended version (fromTid=%d) missing after concurrent compact — Append lost an update", v.FromTid())
		}
	}
}
