// Package uniquekey synthesizes ordering keys for the z-index: a z value
// plus a monotonically increasing tiebreaker, so the index can hold two
// versions at the same z transiently (an outgoing version and its
// incoming replacement) while keeping a total order.
package uniquekey

import "sync/atomic"

// Key orders lexicographically by (Z, Tiebreaker).
type Key struct {
	Z          int32
	Tiebreaker uint64
}

// Less reports whether k sorts strictly before o.
func (k Key) Less(o Key) bool {
	if k.Z != o.Z {
		return k.Z < o.Z
	}
	return k.Tiebreaker < o.Tiebreaker
}

// Floor returns the smallest possible Key at z — a valid lower bound for
// an ascending range scan starting at z, since real tiebreakers are
// themselves assigned starting from 0.
func Floor(z int32) Key {
	return Key{Z: z, Tiebreaker: 0}
}

// Factory hands out fresh, strictly increasing tiebreakers. One Factory
// is shared process-wide (per Store) so the total order holds across
// every writer.
type Factory struct {
	next atomic.Uint64
}

// Next returns a fresh tiebreaker, monotonically increasing from 0.
func (f *Factory) Next() uint64 {
	return f.next.Add(1) - 1
}

// Reset restarts the sequence at 0. Only called by Store.Clear.
func (f *Factory) Reset() {
	f.next.Store(0)
}

// New builds a Key with a freshly minted tiebreaker.
func (f *Factory) New(z int32) Key {
	return Key{Z: z, Tiebreaker: f.Next()}
}
