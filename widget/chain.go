package widget

import "sync/atomic"

// Chain is the append-only version history for one widget id. Appends
// and vacuum's Compact are both copy-on-write, publishing a brand new
// slice via a CAS-retry loop on the same atomic.Pointer — Append only
// has its own id-lock to serialize it against other Appends, not
// against a concurrent Compact, so the CAS is what keeps the two from
// losing each other's update. Readers walk an already-loaded slice and
// never take any lock to do so.
type Chain struct {
	versions atomic.Pointer[[]*Version]
}

// NewChain returns a chain holding a single version.
func NewChain(first *Version) *Chain {
	c := &Chain{}
	slice := []*Version{first}
	c.versions.Store(&slice)
	return c
}

// Snapshot returns the chain's current versions, oldest first. The
// returned slice is never mutated in place — safe to range over without
// holding any lock.
func (c *Chain) Snapshot() []*Version {
	p := c.versions.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Append publishes v as the new newest element. Callers must hold the
// chain's widget id-lock so appends from the same id are serialized
// against each other, but vacuum's Compact runs concurrently against the
// same chain without any lock in common with Append, so the publish is
// a CAS-retry loop, the same shape Compact and the store's z-index
// publish already use — otherwise an Append built from a pre-compaction
// Snapshot could overwrite a concurrent Compact and resurrect an
// already-reclaimed version.
func (c *Chain) Append(v *Version) {
	for {
		oldPtr := c.versions.Load()
		old := *oldPtr
		next := make([]*Version, len(old)+1)
		copy(next, old)
		next[len(old)] = v
		if c.versions.CompareAndSwap(oldPtr, &next) {
			return
		}
	}
}

// Len returns the number of versions currently retained (including ones
// vacuum has not yet reclaimed).
func (c *Chain) Len() int { return len(c.Snapshot()) }

// Compact drops every version for which keep returns false, publishing
// the filtered slice only if no concurrent Append or Compact raced
// ahead of it (detected via CompareAndSwap on the slice pointer) —
// vacuum runs under the global latch's shared mode alongside writers,
// so this is the only thing standing between it and a lost update.
// Returns the number of versions removed.
func (c *Chain) Compact(keep func(v *Version) bool) int {
	for {
		oldPtr := c.versions.Load()
		old := *oldPtr
		kept := make([]*Version, 0, len(old))
		for _, v := range old {
			if keep(v) {
				kept = append(kept, v)
			}
		}
		if len(kept) == len(old) {
			return 0
		}
		if c.versions.CompareAndSwap(oldPtr, &kept) {
			return len(old) - len(kept)
		}
	}
}
