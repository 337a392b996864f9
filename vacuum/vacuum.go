// Package vacuum holds the pure reclamation-barrier logic shared by the
// store's vacuum pass. The store owns the actual index walk (it owns
// the primary and z-index data structures); this package only answers
// "what is the barrier" and "is this version's resolved till-serial
// behind it" — the same two-step shape as the gc pass in the pack's
// Jekaa-go-mvcc-map/mvcc/gc.go (minSnapshotID, then filter by
// refCount/id), adapted here to the store's resolved-serial model
// instead of a refcount model.
package vacuum

// Barrier returns the reclamation barrier: the minimum of the live
// snapshot serials, or latestSerial if no reader is currently active.
func Barrier(liveMin int64, liveCount int, latestSerial int64) int64 {
	if liveCount == 0 {
		return latestSerial
	}
	return liveMin
}

// Reclaimable reports whether a version whose till-serial resolves to
// (till, known) is safe to remove given barrier b: it must have a known
// till-serial at or behind the barrier, since no live reader's snapshot
// can be lower than b.
func Reclaimable(till int64, known bool, b int64) bool {
	return known && till <= b
}
