// Package lock is the logical write-lock manager: three namespaces
// (widget ids, individual z values, and a single global "range-above-z"
// lock) guarded by one monitor, with bounded waits on the z and range
// locks so a writer can never block forever. It is the timeout+backoff
// half of the deadlock-avoidance story described in spec — z/range
// acquisition surfaces storeerr.Timeout instead of waiting indefinitely,
// the same contract the teacher's DefaultLockManager exposes via its
// lockTimeout + Done-channel wait (transaction/lock_manager.go), adapted
// here to three distinct resource kinds instead of one.
package lock

import (
	"sort"
	"sync"
	"time"

	"widgetstore/internal/obslog"
	"widgetstore/storeerr"
)

// Manager is the single monitor guarding id-locks, z-locks, and the
// range lock. All waiting is done by polling state changes signaled
// through a broadcast channel that is replaced every time the lock
// state changes — the same shape as a condition variable, but one that
// supports bounded waits via select+time.After.
type Manager struct {
	mu       sync.Mutex
	ids      map[int32]struct{}
	zs       map[int32]struct{}
	rangeSet bool
	rangeLow int32
	waitCh   chan struct{}

	logger *obslog.Logger
}

// New creates an empty Manager.
func New(logger *obslog.Logger) *Manager {
	if logger == nil {
		logger = obslog.Discard()
	}
	return &Manager{
		ids:    make(map[int32]struct{}),
		zs:     make(map[int32]struct{}),
		waitCh: make(chan struct{}),
		logger: logger.With("lock"),
	}
}

// wake must be called with mu held; it releases every waiter blocked on
// the current waitCh and installs a fresh one for future waiters.
func (m *Manager) wake() {
	close(m.waitCh)
	m.waitCh = make(chan struct{})
}

// LockID blocks until id is not held by anyone else, then takes it.
// Id-locks have no timeout: a writer holding only its own id-lock can
// always make progress without another writer needing that same id.
func (m *Manager) LockID(id int32) {
	for {
		m.mu.Lock()
		if _, held := m.ids[id]; !held {
			m.ids[id] = struct{}{}
			m.mu.Unlock()
			return
		}
		ch := m.waitCh
		m.mu.Unlock()
		<-ch
	}
}

// ReleaseID releases id and wakes any waiters.
func (m *Manager) ReleaseID(id int32) {
	m.mu.Lock()
	delete(m.ids, id)
	m.wake()
	m.mu.Unlock()
}

// LockZ sorts and dedupes zs, then acquires each in ascending order,
// waiting until no range lock covers it and it is not already z-locked.
// On timeout it releases whatever it acquired during this call and
// returns storeerr.Timeout.
func (m *Manager) LockZ(zs []int32, timeout time.Duration) error {
	ordered := dedupeSorted(zs)
	deadline := time.Now().Add(timeout)
	acquired := make([]int32, 0, len(ordered))

	for _, z := range ordered {
		if !m.waitForZ(z, deadline) {
			m.releaseZLocked(acquired)
			m.logger.Warn("lock acquisition timeout", obslog.Fields{"resource": "z", "z": z})
			return storeerr.Newf(storeerr.Timeout, "lockZ timed out waiting for z=%d", z)
		}
		acquired = append(acquired, z)
	}
	return nil
}

// waitForZ blocks (bounded by deadline) until z is free of a covering
// range lock and free of its own z-lock, then takes it. Returns false on
// timeout.
func (m *Manager) waitForZ(z int32, deadline time.Time) bool {
	for {
		m.mu.Lock()
		_, zHeld := m.zs[z]
		covered := m.rangeSet && z >= m.rangeLow
		if !covered && !zHeld {
			m.zs[z] = struct{}{}
			m.mu.Unlock()
			return true
		}
		ch := m.waitCh
		m.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		select {
		case <-ch:
		case <-time.After(remaining):
			return false
		}
	}
}

// ReleaseZ releases every z in zs and wakes waiters.
func (m *Manager) ReleaseZ(zs ...int32) {
	m.mu.Lock()
	m.releaseZLocked(zs)
	m.mu.Unlock()
}

func (m *Manager) releaseZLocked(zs []int32) {
	for _, z := range zs {
		delete(m.zs, z)
	}
	if len(zs) > 0 {
		m.wake()
	}
}

// LockRange waits until no range lock is held and no z-lock above fromZ
// exists, then takes the range lock at fromZ. Returns storeerr.Timeout
// on expiry.
func (m *Manager) LockRange(fromZ int32, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		m.mu.Lock()
		if !m.rangeSet && !m.anyZAboveLocked(fromZ) {
			m.rangeSet = true
			m.rangeLow = fromZ
			m.mu.Unlock()
			return nil
		}
		ch := m.waitCh
		m.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			m.logger.Warn("lock acquisition timeout", obslog.Fields{"resource": "range", "fromZ": fromZ})
			return storeerr.Newf(storeerr.Timeout, "lockRange timed out waiting for fromZ=%d", fromZ)
		}
		select {
		case <-ch:
		case <-time.After(remaining):
			m.logger.Warn("lock acquisition timeout", obslog.Fields{"resource": "range", "fromZ": fromZ})
			return storeerr.Newf(storeerr.Timeout, "lockRange timed out waiting for fromZ=%d", fromZ)
		}
	}
}

func (m *Manager) anyZAboveLocked(fromZ int32) bool {
	for z := range m.zs {
		if z > fromZ {
			return true
		}
	}
	return false
}

// ReleaseRange releases the range lock and wakes waiters.
func (m *Manager) ReleaseRange() {
	m.mu.Lock()
	m.rangeSet = false
	m.wake()
	m.mu.Unlock()
}

// Reset clears every held lock, as if the Manager were freshly
// constructed. Any blocked waiters are woken and will re-check state.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.ids = make(map[int32]struct{})
	m.zs = make(map[int32]struct{})
	m.rangeSet = false
	m.wake()
	m.mu.Unlock()
}

func dedupeSorted(zs []int32) []int32 {
	seen := make(map[int32]struct{}, len(zs))
	out := make([]int32, 0, len(zs))
	for _, z := range zs {
		if _, ok := seen[z]; ok {
			continue
		}
		seen[z] = struct{}{}
		out = append(out, z)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
