package txlog

import (
	"sync"
	"testing"

	"widgetstore/storeerr"
)

func TestCommitAssignsDenseSerials(t *testing.T) {
	l := New()

	if got := l.LatestSerial(); got != -1 {
		t.Fatalf("LatestSerial on empty log = %d, want -1", got)
	}

	for tid := int64(0); tid < 5; tid++ {
		serial, err := l.Commit(tid)
		if err != nil {
			t.Fatalf("Commit(%d): %v", tid, err)
		}
		if serial != tid {
			t.Fatalf("Commit(%d) = %d, want %d", tid, serial, tid)
		}
	}
	if got := l.LatestSerial(); got != 4 {
		t.Fatalf("LatestSerial = %d, want 4", got)
	}
}

func TestCommitDuplicateTidIsInternalError(t *testing.T) {
	l := New()
	if _, err := l.Commit(7); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	_, err := l.Commit(7)
	if err == nil {
		t.Fatal("expected error committing tid twice")
	}
	if !storeerr.Is(err, storeerr.Internal) {
		t.Fatalf("expected Internal error kind, got %v", err)
	}
}

func TestSerialForUnknownTid(t *testing.T) {
	l := New()
	if _, ok := l.SerialFor(42); ok {
		t.Fatal("expected ok=false for unknown tid")
	}
}

func TestClearResetsSequence(t *testing.T) {
	l := New()
	l.Commit(0)
	l.Commit(1)
	l.Clear()

	if got := l.LatestSerial(); got != -1 {
		t.Fatalf("LatestSerial after Clear = %d, want -1", got)
	}
	serial, err := l.Commit(0)
	if err != nil {
		t.Fatalf("Commit after Clear: %v", err)
	}
	if serial != 0 {
		t.Fatalf("Commit after Clear = %d, want 0", serial)
	}
}

func TestConcurrentCommitsAreUnique(t *testing.T) {
	l := New()
	const n = 200

	var wg sync.WaitGroup
	results := make([]int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(tid int64) {
			defer wg.Done()
			serial, err := l.Commit(tid)
			if err != nil {
				t.Errorf("Commit(%d): %v", tid, err)
				return
			}
			results[tid] = serial
		}(int64(i))
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for _, s := range results {
		if seen[s] {
			t.Fatalf("duplicate serial %d assigned", s)
		}
		seen[s] = true
	}
}
