package uniquekey

import "testing"

func TestKeyLessOrdersByZThenTiebreaker(t *testing.T) {
	cases := []struct {
		a, b Key
		want bool
	}{
		{Key{Z: 1, Tiebreaker: 5}, Key{Z: 2, Tiebreaker: 0}, true},
		{Key{Z: 2, Tiebreaker: 0}, Key{Z: 1, Tiebreaker: 5}, false},
		{Key{Z: 3, Tiebreaker: 1}, Key{Z: 3, Tiebreaker: 2}, true},
		{Key{Z: 3, Tiebreaker: 2}, Key{Z: 3, Tiebreaker: 2}, false},
	}
	for _, c := range cases {
		if got := c.a.Less(c.b); got != c.want {
			t.Errorf("%+v.Less(%+v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestFloorIsLowerBoundForZ(t *testing.T) {
	f := &Factory{}
	k := f.New(5)
	if !Floor(5).Less(k) && Floor(5) != k {
		t.Errorf("Floor(5) should sort at or before a real key at z=5")
	}
	if Floor(5).Less(Key{Z: 4, Tiebreaker: 999}) {
		t.Errorf("Floor(5) must not sort before a key at a lower z")
	}
}

func TestFactoryNextIsMonotonic(t *testing.T) {
	f := &Factory{}
	prev := f.Next()
	for i := 0; i < 100; i++ {
		next := f.Next()
		if next <= prev {
			t.Fatalf("tiebreaker sequence not strictly increasing: %d then %d", prev, next)
		}
		prev = next
	}
}

func TestFactoryResetRestartsSequence(t *testing.T) {
	f := &Factory{}
	f.Next()
	f.Next()
	f.Reset()
	if got := f.Next(); got != 0 {
		t.Fatalf("Next() after Reset = %d, want 0", got)
	}
}
