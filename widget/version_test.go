package widget

import "testing"

func resolverFrom(m map[int64]int64) Resolver {
	return func(tid int64) (int64, bool) {
		s, ok := m[tid]
		return s, ok
	}
}

func TestStatusActiveAfterFromSerialCommitted(t *testing.T) {
	v := New(Widget{ID: 1}, 10)
	resolve := resolverFrom(map[int64]int64{10: 3})

	if got := v.Status(3, resolve); got != StatusActive {
		t.Fatalf("Status = %v, want ACTIVE", got)
	}
	if got := v.Status(2, resolve); got != StatusNotYetCommitted {
		t.Fatalf("Status before commit serial = %v, want NOT_YET_COMMITTED", got)
	}
}

func TestStatusUnresolvedFromTidIsNotYetCommitted(t *testing.T) {
	v := New(Widget{ID: 1}, 10)
	resolve := resolverFrom(nil)

	if got := v.Status(100, resolve); got != StatusNotYetCommitted {
		t.Fatalf("Status with unresolved fromTid = %v, want NOT_YET_COMMITTED", got)
	}
}

func TestStatusExpiredAfterTillSerial(t *testing.T) {
	v := New(Widget{ID: 1}, 10)
	v.CacheFromSerial(3)
	v.MarkTill(20)
	resolve := resolverFrom(map[int64]int64{10: 3, 20: 7})

	if got := v.Status(6, resolve); got != StatusActive {
		t.Fatalf("Status before supersession commits = %v, want ACTIVE", got)
	}
	if got := v.Status(7, resolve); got != StatusExpired {
		t.Fatalf("Status at supersession serial = %v, want EXPIRED", got)
	}
	if got := v.Status(100, resolve); got != StatusExpired {
		t.Fatalf("Status long after supersession = %v, want EXPIRED", got)
	}
}

func TestStatusSupersessionInvisibleUntilCommitted(t *testing.T) {
	// tillTid is set but hasn't committed yet: readers must not see the
	// version as expired, since the superseding write could still abort
	// or simply hasn't reached commit().
	v := New(Widget{ID: 1}, 10)
	v.CacheFromSerial(3)
	v.MarkTill(20)
	resolve := resolverFrom(map[int64]int64{10: 3})

	if got := v.Status(1000, resolve); got != StatusActive {
		t.Fatalf("Status with uncommitted supersession = %v, want ACTIVE", got)
	}
}

func TestMarkTillOnlySucceedsOnce(t *testing.T) {
	v := New(Widget{ID: 1}, 10)
	if !v.MarkTill(20) {
		t.Fatal("first MarkTill should succeed")
	}
	if v.MarkTill(30) {
		t.Fatal("second MarkTill should fail: version already superseded")
	}
	if got := v.TillTid(); got != 20 {
		t.Fatalf("TillTid = %d, want 20 (the first winner)", got)
	}
}

func TestCachedSerialsAvoidResolverCall(t *testing.T) {
	v := New(Widget{ID: 1}, 10)
	v.CacheFromSerial(3)
	v.MarkTill(20)
	v.CacheTillSerial(9)

	called := false
	resolve := func(tid int64) (int64, bool) {
		called = true
		return 0, false
	}
	if got := v.Status(5, resolve); got != StatusActive {
		t.Fatalf("Status = %v, want ACTIVE", got)
	}
	if called {
		t.Fatal("resolver should not be consulted once both serials are cached")
	}
}
