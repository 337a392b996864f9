// Package store is the MVCC orchestrator: the primary id-keyed index,
// the secondary z-ordered index, the five mutating operations, the
// three read operations, and snapshot-serial tracking described in
// spec.md §4.4-§4.7. It wires together txlog, lock, uniquekey, latch,
// and widget the way the teacher's store.MantisStore wires together its
// own sub-stores and storage engine (store/mantis_store.go) — one
// struct holding the collaborators, construction takes them (or builds
// defaults), operations delegate to them under the locking discipline
// spec.md §4.5 describes.
package store

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"widgetstore/config"
	"widgetstore/internal/obslog"
	"widgetstore/latch"
	"widgetstore/lock"
	"widgetstore/txlog"
	"widgetstore/uniquekey"
	"widgetstore/widget"
)

// Store is an in-memory, multi-version concurrency control store of
// Widgets, keyed by id with a secondary ascending-z ordered index.
type Store struct {
	opts   *config.Options
	logger *obslog.Logger

	log   *txlog.Log
	locks *lock.Manager
	keys  *uniquekey.Factory
	latch latch.Latch

	nextID  atomic.Int32
	nextTid atomic.Int64

	primary primaryIndex
	zindex  atomic.Pointer[[]zEntry]

	live liveSet

	vacuumMu   sync.Mutex
	lastVacuum VacuumReport
}

// VacuumReport summarizes the most recently completed vacuum pass.
type VacuumReport struct {
	VersionsRemoved int
	ChainsDropped   int
	Duration        time.Duration
}

// primaryIndex is id -> version chain. Chain contents are lock-free
// (copy-on-write, see widget.Chain); this RWMutex only guards adding or
// removing chains themselves (widget creation, and vacuum/Clear
// dropping an emptied or all chains).
type primaryIndex struct {
	mu     sync.RWMutex
	chains map[int32]*widget.Chain
}

// zEntry is one entry in the z-index: a synthetic ordering key paired
// with the version it currently points at.
type zEntry struct {
	key     uniquekey.Key
	version *widget.Version
}

// New constructs a Store. A nil opts uses config.DefaultOptions(); a nil
// logger discards everything. opts is validated and its
// TransactionTimeout/InvalidArg failure is returned as-is.
func New(opts *config.Options, logger *obslog.Logger) (*Store, error) {
	if opts == nil {
		opts = config.DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = obslog.Discard()
	}

	s := &Store{
		opts:   opts,
		logger: logger.With("store"),
		log:    txlog.New(),
		locks:  lock.New(logger),
		keys:   &uniquekey.Factory{},
	}
	s.primary.chains = make(map[int32]*widget.Chain, opts.InitialCapacity)
	empty := make([]zEntry, 0, opts.InitialCapacity)
	s.zindex.Store(&empty)
	return s, nil
}

// resolver adapts the transaction log to widget.Resolver.
func (s *Store) resolver() widget.Resolver {
	return s.log.SerialFor
}

// logInternal logs an INTERNAL-kind invariant violation at ERROR before
// it surfaces to the caller, per spec.md §7 ("logged and surfaced").
func (s *Store) logInternal(err error) error {
	s.logger.Error("invariant violation", obslog.Fields{"error": err.Error()})
	return err
}

// loadZIndex returns the current z-index slice, sorted by key.
func (s *Store) loadZIndex() []zEntry {
	p := s.zindex.Load()
	if p == nil {
		return nil
	}
	return *p
}

// insertZ inserts a single entry into the z-index, keeping it sorted.
// Callers must hold the z-lock(s) covering entry.key.Z.
func (s *Store) insertZ(entry zEntry) {
	s.insertZAll([]zEntry{entry})
}

// insertZAll inserts multiple entries in one copy-on-write publish —
// used by the range-shift writers so the new versions become visible to
// readers atomically (spec.md §5 "range-shift operations appear atomic
// to readers"). Concurrent writers never touch overlapping z values
// (the z/range locks guarantee that), but they can race to publish the
// index pointer itself — e.g. two CreateAt calls at disjoint z values
// running fully in parallel under the shared latch — so the publish is
// a CAS-retry loop, mirroring vacuum's compactZIndex.
func (s *Store) insertZAll(entries []zEntry) {
	for {
		old := s.zindex.Load()
		next := make([]zEntry, 0, len(*old)+len(entries))
		next = append(next, *old...)
		next = append(next, entries...)
		sort.Slice(next, func(i, j int) bool { return next[i].key.Less(next[j].key) })
		if s.zindex.CompareAndSwap(old, &next) {
			return
		}
	}
}

// snapshotSerial begins a read: it returns the current latest serial
// and registers it in the live-snapshots set. Callers must call
// s.live.Remove(serial) exactly once on every exit path.
func (s *Store) snapshotSerial() int64 {
	serial := s.log.LatestSerial()
	s.live.Add(serial)
	return serial
}

// Clear takes the global latch in exclusive mode and resets the store
// to its freshly-constructed state: both indices, id/tid sequences, the
// transaction log, the lock manager, and the unique-key factory.
func (s *Store) Clear() {
	s.latch.Exclusive()
	defer s.latch.ExclusiveDone()

	s.primary.mu.Lock()
	s.primary.chains = make(map[int32]*widget.Chain, s.opts.InitialCapacity)
	s.primary.mu.Unlock()

	empty := make([]zEntry, 0, s.opts.InitialCapacity)
	s.zindex.Store(&empty)

	s.nextID.Store(0)
	s.nextTid.Store(0)
	s.log.Clear()
	s.locks.Reset()
	s.keys.Reset()
	s.live.Clear()

	s.vacuumMu.Lock()
	s.lastVacuum = VacuumReport{}
	s.vacuumMu.Unlock()
}
