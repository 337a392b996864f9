package store

import "sync"

// liveSet tracks the snapshot serials currently held by active readers.
// Its minimum is vacuum's reclamation barrier. Refcounted so two readers
// sharing the same snapshot serial don't clobber each other's entry.
//
// A plain mutex-guarded map is the right tool here: the set size is
// bounded by the number of concurrently in-flight reads, which is small
// relative to the widget population this store is built for, so an O(n)
// scan for the minimum on vacuum (the only place Min is called) is
// cheap. None of the examples in the pack carry an ordered-set library
// that would be a better fit for this.
type liveSet struct {
	mu     sync.Mutex
	counts map[int64]int
}

// Add registers one reader at serial s.
func (l *liveSet) Add(s int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts == nil {
		l.counts = make(map[int64]int)
	}
	l.counts[s]++
}

// Remove unregisters one reader at serial s.
func (l *liveSet) Remove(s int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts == nil {
		return
	}
	l.counts[s]--
	if l.counts[s] <= 0 {
		delete(l.counts, s)
	}
}

// Min returns the minimum live serial and whether any reader is active.
func (l *liveSet) Min() (int64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.counts) == 0 {
		return 0, false
	}
	min, first := int64(0), true
	for s := range l.counts {
		if first || s < min {
			min = s
			first = false
		}
	}
	return min, true
}

// Count returns the total number of active readers across all serials —
// used by Stats.
func (l *liveSet) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.counts {
		n += c
	}
	return n
}

// Clear empties the set, as part of Store.Clear.
func (l *liveSet) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts = nil
}
