package store

import (
	"io"
	"runtime"
	"sort"
	"sync"

	"widgetstore/export"
	"widgetstore/storeerr"
	"widgetstore/uniquekey"
	"widgetstore/widget"
)

// newestActive walks a chain from newest to oldest and returns the
// first ACTIVE version under snapshot s, stopping early on EXPIRED —
// once a version has expired, the chain invariant (prev.tillSerial ==
// next.fromSerial) guarantees every older version expired no later, so
// there is nothing left to find.
func newestActive(c *widget.Chain, s int64, resolve widget.Resolver) (*widget.Version, bool) {
	versions := c.Snapshot()
	for i := len(versions) - 1; i >= 0; i-- {
		switch versions[i].Status(s, resolve) {
		case widget.StatusActive:
			return versions[i], true
		case widget.StatusExpired:
			return nil, false
		default: // StatusNotYetCommitted: the superseding write isn't
			// visible yet, keep looking at older versions.
		}
	}
	return nil, false
}

// GetById returns the widget with the given id as of a snapshot taken at
// call time, or false if it has no ACTIVE version.
func (s *Store) GetById(id int32) (widget.Widget, bool) {
	s.latch.Shared()
	defer s.latch.ShareDone()

	snapshot := s.snapshotSerial()
	defer s.live.Remove(snapshot)

	s.primary.mu.RLock()
	chain, ok := s.primary.chains[id]
	s.primary.mu.RUnlock()
	if !ok {
		return widget.Widget{}, false
	}

	v, ok := newestActive(chain, snapshot, s.resolver())
	if !ok {
		return widget.Widget{}, false
	}
	return v.Widget, true
}

// Size counts widgets with an ACTIVE version as of a fresh snapshot.
func (s *Store) Size() int {
	s.latch.Shared()
	defer s.latch.ShareDone()

	snapshot := s.snapshotSerial()
	defer s.live.Remove(snapshot)

	s.primary.mu.RLock()
	chains := make([]*widget.Chain, 0, len(s.primary.chains))
	for _, c := range s.primary.chains {
		chains = append(chains, c)
	}
	s.primary.mu.RUnlock()

	resolve := s.resolver()
	count := 0
	for _, c := range chains {
		if _, ok := newestActive(c, snapshot, resolve); ok {
			count++
		}
	}
	return count
}

// Stats is a read-only diagnostic snapshot of the store, added per
// SPEC_FULL.md's original_source supplement. It takes the global latch
// in shared mode like every other read operation.
type Stats struct {
	WidgetCount   int
	VersionCount  int
	ChainCount    int
	LiveSnapshots int
	LatestSerial  int64
	LastVacuum    VacuumReport
}

// Stats reports widget/version counts and the last vacuum outcome.
func (s *Store) Stats() Stats {
	s.latch.Shared()
	defer s.latch.ShareDone()

	snapshot := s.snapshotSerial()
	defer s.live.Remove(snapshot)

	s.primary.mu.RLock()
	chains := make([]*widget.Chain, 0, len(s.primary.chains))
	for _, c := range s.primary.chains {
		chains = append(chains, c)
	}
	s.primary.mu.RUnlock()

	resolve := s.resolver()
	widgetCount, versionCount := 0, 0
	for _, c := range chains {
		versionCount += c.Len()
		if _, ok := newestActive(c, snapshot, resolve); ok {
			widgetCount++
		}
	}

	s.vacuumMu.Lock()
	lastVacuum := s.lastVacuum
	s.vacuumMu.Unlock()

	return Stats{
		WidgetCount:   widgetCount,
		VersionCount:  versionCount,
		ChainCount:    len(chains),
		LiveSnapshots: s.live.Count(),
		LatestSerial:  s.log.LatestSerial(),
		LastVacuum:    lastVacuum,
	}
}

// RangeIter is a lazily-consumed, snapshot-scoped cursor over
// rangeByZ's results. It holds the global latch (shared) and a
// registered live-snapshot serial until Close is called or the iterator
// is exhausted; Close is idempotent and also runs from a finalizer as a
// backstop against a consumer that forgets to release it, so the
// snapshot and latch are guaranteed to be released exactly once even if
// the caller drops the iterator early.
type RangeIter struct {
	store    *Store
	snapshot int64
	entries  []zEntry
	idx      int
	limit    int
	yielded  int
	once     sync.Once
}

// RangeByZ returns a lazy, ascending-by-z cursor over at most limit
// ACTIVE widgets starting at fromZ, as of a snapshot taken now. The
// caller must either drain it (Next returns false) or call Close.
func (s *Store) RangeByZ(fromZ int32, limit int) *RangeIter {
	s.latch.Shared()
	snapshot := s.snapshotSerial()

	entries := s.loadZIndex()
	floor := uniquekey.Floor(fromZ)
	start := sort.Search(len(entries), func(i int) bool {
		return !entries[i].key.Less(floor)
	})

	it := &RangeIter{
		store:    s,
		snapshot: snapshot,
		entries:  entries[start:],
		limit:    limit,
	}
	runtime.SetFinalizer(it, (*RangeIter).finalize)
	return it
}

func (it *RangeIter) finalize() { it.Close() }

// Close releases the snapshot and the global latch. Safe to call more
// than once and safe to call after the iterator has been exhausted.
func (it *RangeIter) Close() {
	it.once.Do(func() {
		it.store.live.Remove(it.snapshot)
		it.store.latch.ShareDone()
		runtime.SetFinalizer(it, nil)
	})
}

// Next returns the next ACTIVE widget in ascending z order, or false
// once the limit or the end of the index is reached — at which point
// the iterator closes itself automatically.
func (it *RangeIter) Next() (widget.Widget, bool) {
	if it.yielded >= it.limit {
		it.Close()
		return widget.Widget{}, false
	}
	resolve := it.store.resolver()
	for it.idx < len(it.entries) {
		e := it.entries[it.idx]
		it.idx++
		if e.version.Status(it.snapshot, resolve) == widget.StatusActive {
			it.yielded++
			return e.version.Widget, true
		}
	}
	it.Close()
	return widget.Widget{}, false
}

// Drain consumes the iterator fully into a slice and guarantees Close
// has run by the time it returns. A convenience for callers that don't
// need the lazy/early-exit behavior rangeByZ otherwise offers.
func (it *RangeIter) Drain() []widget.Widget {
	defer it.Close()
	out := make([]widget.Widget, 0, min(it.limit, len(it.entries)-it.idx))
	for {
		w, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, w)
	}
}

// ExportSnapshot writes every currently ACTIVE widget, in ascending z
// order, as a single compressed JSON document — a debug/inspection dump,
// not a durability mechanism (spec.md §1 non-goals).
func (s *Store) ExportSnapshot(w io.Writer, codec export.Codec) error {
	if codec == nil {
		var err error
		codec, err = export.ByName(s.opts.SnapshotExport.Codec)
		if err != nil {
			return storeerr.Wrap(storeerr.InvalidArg, "export snapshot", err)
		}
	}
	widgets := s.RangeByZ(minInt32, maxRangeLimit).Drain()
	return export.WriteSnapshot(w, widgets, codec)
}

const (
	minInt32      = -1 << 31
	maxRangeLimit = 1 << 30
)
