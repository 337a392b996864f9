package store

import (
	"time"

	"widgetstore/internal/obslog"
	"widgetstore/vacuum"
	"widgetstore/widget"
)

// Vacuum runs one reclamation pass: versions whose resolved till-serial
// is at or behind the reclamation barrier are dropped from every chain
// and from the z-index. It runs under the global latch's shared mode,
// alongside readers and writers, per spec.md §4.6 — Chain.Compact's
// CAS-retry loop is what keeps this safe against a concurrent Append.
// primary.mu is only ever taken briefly: once (shared) to snapshot the
// id->chain pairs to compact, and again (exclusive) only to delete the
// ids whose chain emptied — per-chain compaction itself runs lock-free,
// so a concurrent GetById/Size/Stats RLock is never blocked for the
// duration of a whole pass, only for the map snapshot/delete steps.
func (s *Store) Vacuum() VacuumReport {
	start := time.Now()
	s.latch.Shared()
	defer s.latch.ShareDone()

	liveMin, liveOK := s.live.Min()
	barrier := vacuum.Barrier(liveMin, boolToCount(liveOK), s.log.LatestSerial())
	resolve := s.resolver()

	keep := func(v *widget.Version) bool {
		till := v.TillTid()
		if till == widget.TidNone {
			return true
		}
		serial, ok := resolve(till)
		return !vacuum.Reclaimable(serial, ok, barrier)
	}

	s.primary.mu.RLock()
	chains := make(map[int32]*widget.Chain, len(s.primary.chains))
	for id, chain := range s.primary.chains {
		chains[id] = chain
	}
	s.primary.mu.RUnlock()

	versionsRemoved := 0
	var emptied []int32
	for id, chain := range chains {
		versionsRemoved += chain.Compact(keep)
		if chain.Len() == 0 {
			emptied = append(emptied, id)
		}
	}

	// A writer may have appended to one of these chains (resurrecting it
	// from empty) in the window between the Compact above and this
	// delete pass, so re-check Len() under the exclusive lock before
	// dropping the map entry — otherwise a fresh version could vanish
	// along with the chain that momentarily looked empty.
	chainsDropped := 0
	if len(emptied) > 0 {
		s.primary.mu.Lock()
		for _, id := range emptied {
			if chain, ok := s.primary.chains[id]; ok && chain.Len() == 0 {
				delete(s.primary.chains, id)
				chainsDropped++
			}
		}
		s.primary.mu.Unlock()
	}

	s.compactZIndex(resolve, barrier)

	report := VacuumReport{
		VersionsRemoved: versionsRemoved,
		ChainsDropped:   chainsDropped,
		Duration:        time.Since(start),
	}
	s.vacuumMu.Lock()
	s.lastVacuum = report
	s.vacuumMu.Unlock()

	s.logger.Debug("vacuum pass complete", obslog.Fields{
		"versions_removed": report.VersionsRemoved,
		"chains_dropped":   report.ChainsDropped,
		"duration_ms":      report.Duration.Milliseconds(),
	})
	return report
}

// compactZIndex republishes the z-index with every reclaimable entry
// dropped, via a CAS-retry loop mirroring widget.Chain.Compact — vacuum
// and writers both only ever hold the latch in shared mode, so a lost
// update is possible without the retry.
func (s *Store) compactZIndex(resolve widget.Resolver, barrier int64) {
	for {
		old := s.zindex.Load()
		kept := make([]zEntry, 0, len(*old))
		for _, e := range *old {
			till := e.version.TillTid()
			if till == widget.TidNone {
				kept = append(kept, e)
				continue
			}
			serial, ok := resolve(till)
			if !vacuum.Reclaimable(serial, ok, barrier) {
				kept = append(kept, e)
			}
		}
		if len(kept) == len(*old) {
			return
		}
		if s.zindex.CompareAndSwap(old, &kept) {
			return
		}
	}
}

func boolToCount(b bool) int {
	if b {
		return 1
	}
	return 0
}
