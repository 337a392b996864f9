// Package txlog is the transaction log: it assigns monotonically
// increasing commit serials to transaction ids and answers what serial
// a tid committed at. Commit is the store's serialization point, mirrored
// on the teacher's DefaultTransactionManager's use of a single RWMutex
// to guard transaction bookkeeping (transaction/manager.go).
package txlog

import (
	"sync"

	"widgetstore/storeerr"
)

// Log maps committed transaction ids to the serial they were assigned.
type Log struct {
	mu      sync.RWMutex
	serials map[int64]int64
	next    int64
}

// New returns an empty Log with the next serial starting at 0.
func New() *Log {
	return &Log{serials: make(map[int64]int64)}
}

// Commit assigns tid the current next-serial, advances the sequence, and
// returns the assigned serial. Committing the same tid twice is an
// invariant violation, surfaced as storeerr.Internal.
func (l *Log) Commit(tid int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.serials[tid]; exists {
		return 0, storeerr.Newf(storeerr.Internal, "transaction %d already committed", tid)
	}
	serial := l.next
	l.serials[tid] = serial
	l.next++
	return serial, nil
}

// LatestSerial returns next-serial - 1, the sentinel -1 if the log is
// empty.
func (l *Log) LatestSerial() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.next - 1
}

// SerialFor looks up the serial tid committed at, if any.
func (l *Log) SerialFor(tid int64) (int64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	serial, ok := l.serials[tid]
	return serial, ok
}

// Clear resets the log to empty, as if freshly constructed.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.serials = make(map[int64]int64)
	l.next = 0
}
