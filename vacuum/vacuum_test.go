package vacuum

import "testing"

func TestBarrierUsesLatestSerialWhenNoReaders(t *testing.T) {
	if got := Barrier(0, 0, 42); got != 42 {
		t.Fatalf("Barrier with no live readers = %d, want latestSerial 42", got)
	}
}

func TestBarrierUsesLiveMinWhenReadersPresent(t *testing.T) {
	if got := Barrier(5, 1, 42); got != 5 {
		t.Fatalf("Barrier with live readers = %d, want liveMin 5", got)
	}
}

func TestReclaimableRequiresKnownAndBehindBarrier(t *testing.T) {
	if Reclaimable(10, false, 100) {
		t.Fatal("an unresolved till-serial must never be reclaimable")
	}
	if Reclaimable(10, true, 5) {
		t.Fatal("a till-serial ahead of the barrier must not be reclaimable")
	}
	if !Reclaimable(5, true, 5) {
		t.Fatal("a till-serial exactly at the barrier must be reclaimable")
	}
	if !Reclaimable(3, true, 5) {
		t.Fatal("a till-serial behind the barrier must be reclaimable")
	}
}
