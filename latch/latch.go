// Package latch provides the store's single global coordination point: a
// read/write latch where every normal read and write operation takes the
// shared side, and only Clear takes the exclusive side to establish a
// global barrier. A plain sync.RWMutex is the correct primitive here —
// this is exactly the contended-free-path/rare-exclusive-barrier shape
// RWMutex exists for, and nothing in the example pack reaches for a
// third-party alternative for it either.
package latch

import "sync"

// Latch is a thin, purpose-named wrapper over sync.RWMutex so call sites
// read as "take the global latch" rather than "take a mutex".
type Latch struct {
	mu sync.RWMutex
}

// Shared acquires the latch in shared mode. Both readers and writers use
// this during normal operation.
func (l *Latch) Shared() { l.mu.RLock() }

// ShareDone releases a shared acquisition.
func (l *Latch) ShareDone() { l.mu.RUnlock() }

// Exclusive acquires the latch in exclusive mode. Only Clear uses this;
// it blocks until every in-flight reader and writer has released its
// shared hold.
func (l *Latch) Exclusive() { l.mu.Lock() }

// ExclusiveDone releases an exclusive acquisition.
func (l *Latch) ExclusiveDone() { l.mu.Unlock() }
