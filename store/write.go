package store

import (
	"math"

	"widgetstore/lock"
	"widgetstore/storeerr"
	"widgetstore/widget"
)

const minZ = math.MinInt32

// shiftedWrite is one (old version marked superseded, new successor
// version) pair produced by a range shift.
type shiftedWrite struct {
	id   int32
	oldV *widget.Version
	newV *widget.Version
}

// activeEntriesFrom returns every zEntry at or above fromZ whose version
// is ACTIVE as of the current latest serial, in ascending z order (the
// z-index is already kept sorted). Callers hold the range lock covering
// fromZ, so this set cannot change underneath them.
func (s *Store) activeEntriesFrom(fromZ int32) []zEntry {
	serial := s.log.LatestSerial()
	resolve := s.resolver()
	entries := s.loadZIndex()

	var out []zEntry
	for _, e := range entries {
		if e.key.Z < fromZ {
			continue
		}
		if e.version.Status(serial, resolve) == widget.StatusActive {
			out = append(out, e)
		}
	}
	return out
}

// shiftUp locks, supersedes, and re-creates (at z+1) every ACTIVE version
// at or above fromZ, excluding excludeID (the widget the caller is
// already handling directly). It returns the acquired ids (so the caller
// can release them after commit) and the shifted version pairs (so the
// caller can cache serials after commit). On any error every id-lock
// acquired so far by this call is released before returning.
func (s *Store) shiftUp(tid int64, fromZ int32, excludeID int32) ([]int32, []shiftedWrite, error) {
	entries := s.activeEntriesFrom(fromZ)

	var (
		lockedIDs []int32
		shifted   []shiftedWrite
		newKeys   []zEntry
	)
	for _, e := range entries {
		id := e.version.Widget.ID
		if id == excludeID {
			continue
		}
		s.locks.LockID(id)
		lockedIDs = append(lockedIDs, id)

		s.primary.mu.RLock()
		chain := s.primary.chains[id]
		s.primary.mu.RUnlock()

		if !e.version.MarkTill(tid) {
			for _, l := range lockedIDs {
				s.locks.ReleaseID(l)
			}
			return nil, nil, s.logInternal(storeerr.Newf(storeerr.Internal, "widget %d already superseded", id))
		}

		next := e.version.Widget
		next.Z++
		newV := widget.New(next, tid)
		chain.Append(newV)

		shifted = append(shifted, shiftedWrite{id: id, oldV: e.version, newV: newV})
		newKeys = append(newKeys, zEntry{key: s.keys.New(next.Z), version: newV})
	}

	if len(newKeys) > 0 {
		s.insertZAll(newKeys)
	}
	return lockedIDs, shifted, nil
}

func releaseIDs(locks *lock.Manager, ids []int32) {
	for _, id := range ids {
		locks.ReleaseID(id)
	}
}

func (s *Store) cacheShiftedSerials(shifted []shiftedWrite, serial int64) {
	for _, w := range shifted {
		w.oldV.CacheTillSerial(serial)
		w.newV.CacheFromSerial(serial)
	}
}

// CreateAt creates a new widget at the given position, shifting any
// occupant (and everything above it) up by one z if z is occupied.
func (s *Store) CreateAt(x, y, z, width, height int32) (widget.Widget, error) {
	s.latch.Shared()
	defer s.latch.ShareDone()

	tid := s.nextTid.Add(1) - 1
	newID := s.nextID.Add(1) - 1

	s.locks.LockID(newID)
	if err := s.locks.LockZ([]int32{z}, s.opts.TransactionTimeout); err != nil {
		s.locks.ReleaseID(newID)
		return widget.Widget{}, err
	}

	w := widget.Widget{ID: newID, X: x, Y: y, Z: z, Width: width, Height: height}
	v := widget.New(w, tid)
	chain := widget.NewChain(v)

	s.primary.mu.Lock()
	s.primary.chains[newID] = chain
	s.primary.mu.Unlock()

	newKey := s.keys.New(z)
	s.insertZ(zEntry{key: newKey, version: v})

	var (
		lockedIDs []int32
		shifted   []shiftedWrite
	)
	if s.hasOtherActiveAt(z, newID) {
		if err := s.locks.LockRange(z, s.opts.TransactionTimeout); err != nil {
			s.locks.ReleaseZ(z)
			s.locks.ReleaseID(newID)
			return widget.Widget{}, err
		}
		var shiftErr error
		lockedIDs, shifted, shiftErr = s.shiftUp(tid, z, newID)
		if shiftErr != nil {
			s.locks.ReleaseRange()
			s.locks.ReleaseZ(z)
			s.locks.ReleaseID(newID)
			return widget.Widget{}, shiftErr
		}
	}

	serial, err := s.log.Commit(tid)
	if err != nil {
		err = s.logInternal(err)
		if len(shifted) > 0 {
			s.locks.ReleaseRange()
		}
		releaseIDs(s.locks, lockedIDs)
		s.locks.ReleaseZ(z)
		s.locks.ReleaseID(newID)
		return widget.Widget{}, err
	}

	v.CacheFromSerial(serial)
	s.cacheShiftedSerials(shifted, serial)

	if len(shifted) > 0 {
		s.locks.ReleaseRange()
	}
	releaseIDs(s.locks, lockedIDs)
	s.locks.ReleaseZ(z)
	s.locks.ReleaseID(newID)

	s.logger.Debug("created widget", nil)
	return w, nil
}

// hasOtherActiveAt reports whether any ACTIVE version other than
// excludeID currently sits at z.
func (s *Store) hasOtherActiveAt(z int32, excludeID int32) bool {
	serial := s.log.LatestSerial()
	resolve := s.resolver()
	for _, e := range s.loadZIndex() {
		if e.key.Z != z {
			continue
		}
		if e.version.Widget.ID == excludeID {
			continue
		}
		if e.version.Status(serial, resolve) == widget.StatusActive {
			return true
		}
	}
	return false
}

// maxActiveZ returns the highest z among currently ACTIVE versions, and
// false if the store holds no ACTIVE widget.
func (s *Store) maxActiveZ() (int32, bool) {
	serial := s.log.LatestSerial()
	resolve := s.resolver()
	entries := s.loadZIndex()
	max, found := int32(0), false
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].version.Status(serial, resolve) == widget.StatusActive {
			max = entries[i].key.Z
			found = true
			break
		}
	}
	return max, found
}

// CreateAtTop creates a new widget one past the current highest ACTIVE z
// (0 if the store is empty). It blocks out every writer while scanning
// for the maximum by holding lockZ(MIN_INT) and lockRange(MIN_INT), per
// spec.md §4.5.
func (s *Store) CreateAtTop(x, y, width, height int32) (widget.Widget, error) {
	s.latch.Shared()
	defer s.latch.ShareDone()

	tid := s.nextTid.Add(1) - 1
	newID := s.nextID.Add(1) - 1

	s.locks.LockID(newID)
	if err := s.locks.LockZ([]int32{minZ}, s.opts.TransactionTimeout); err != nil {
		s.locks.ReleaseID(newID)
		return widget.Widget{}, err
	}
	if err := s.locks.LockRange(minZ, s.opts.TransactionTimeout); err != nil {
		s.locks.ReleaseZ(minZ)
		s.locks.ReleaseID(newID)
		return widget.Widget{}, err
	}

	z := int32(0)
	if top, ok := s.maxActiveZ(); ok {
		z = top + 1
	}

	w := widget.Widget{ID: newID, X: x, Y: y, Z: z, Width: width, Height: height}
	v := widget.New(w, tid)
	chain := widget.NewChain(v)

	s.primary.mu.Lock()
	s.primary.chains[newID] = chain
	s.primary.mu.Unlock()

	s.insertZ(zEntry{key: s.keys.New(z), version: v})

	serial, err := s.log.Commit(tid)
	if err != nil {
		err = s.logInternal(err)
		s.locks.ReleaseRange()
		s.locks.ReleaseZ(minZ)
		s.locks.ReleaseID(newID)
		return widget.Widget{}, err
	}
	v.CacheFromSerial(serial)

	s.locks.ReleaseRange()
	s.locks.ReleaseZ(minZ)
	s.locks.ReleaseID(newID)

	s.logger.Debug("created widget at top", nil)
	return w, nil
}

// Update changes an existing widget's fields, shifting other occupants
// if the new z collides with one. A field-for-field no-op (including z)
// is a cheap no-op: it returns the unchanged widget without allocating a
// new version or advancing the transaction log (spec.md S6/invariant 7).
func (s *Store) Update(id, x, y, z, width, height int32) (widget.Widget, error) {
	s.latch.Shared()
	defer s.latch.ShareDone()

	s.locks.LockID(id)

	s.primary.mu.RLock()
	chain, ok := s.primary.chains[id]
	s.primary.mu.RUnlock()
	if !ok {
		s.locks.ReleaseID(id)
		return widget.Widget{}, storeerr.Newf(storeerr.NotFound, "widget %d not found", id)
	}

	serial := s.log.LatestSerial()
	resolve := s.resolver()
	oldV, ok := newestActive(chain, serial, resolve)
	if !ok {
		s.locks.ReleaseID(id)
		return widget.Widget{}, storeerr.Newf(storeerr.NotFound, "widget %d not found", id)
	}

	proposed := widget.Widget{ID: id, X: x, Y: y, Z: z, Width: width, Height: height}
	if oldV.Widget.Equal(proposed) {
		s.locks.ReleaseID(id)
		return oldV.Widget, nil
	}

	oldZ := oldV.Widget.Z
	zs := []int32{z}
	if z != oldZ {
		zs = append(zs, oldZ)
	}
	if err := s.locks.LockZ(zs, s.opts.TransactionTimeout); err != nil {
		s.locks.ReleaseID(id)
		return widget.Widget{}, err
	}

	tid := s.nextTid.Add(1) - 1

	var (
		lockedIDs []int32
		shifted   []shiftedWrite
		rangeHeld bool
	)
	if z != oldZ && s.hasOtherActiveAt(z, id) {
		if err := s.locks.LockRange(z, s.opts.TransactionTimeout); err != nil {
			s.locks.ReleaseZ(zs...)
			s.locks.ReleaseID(id)
			return widget.Widget{}, err
		}
		rangeHeld = true
		var shiftErr error
		lockedIDs, shifted, shiftErr = s.shiftUp(tid, z, id)
		if shiftErr != nil {
			s.locks.ReleaseRange()
			s.locks.ReleaseZ(zs...)
			s.locks.ReleaseID(id)
			return widget.Widget{}, shiftErr
		}
	}

	if !oldV.MarkTill(tid) {
		if rangeHeld {
			s.locks.ReleaseRange()
		}
		releaseIDs(s.locks, lockedIDs)
		s.locks.ReleaseZ(zs...)
		s.locks.ReleaseID(id)
		return widget.Widget{}, s.logInternal(storeerr.Newf(storeerr.Internal, "widget %d already superseded", id))
	}
	newV := widget.New(proposed, tid)
	chain.Append(newV)
	s.insertZ(zEntry{key: s.keys.New(z), version: newV})

	serialCommit, err := s.log.Commit(tid)
	if err != nil {
		err = s.logInternal(err)
		if rangeHeld {
			s.locks.ReleaseRange()
		}
		releaseIDs(s.locks, lockedIDs)
		s.locks.ReleaseZ(zs...)
		s.locks.ReleaseID(id)
		return widget.Widget{}, err
	}

	oldV.CacheTillSerial(serialCommit)
	newV.CacheFromSerial(serialCommit)
	s.cacheShiftedSerials(shifted, serialCommit)

	if rangeHeld {
		s.locks.ReleaseRange()
	}
	releaseIDs(s.locks, lockedIDs)
	s.locks.ReleaseZ(zs...)
	s.locks.ReleaseID(id)

	s.logger.Debug("updated widget", nil)
	return proposed, nil
}

// UpdateToTop moves a widget to one past the current highest ACTIVE z,
// unless it is already there. Scans under a full write barrier exactly
// like CreateAtTop.
func (s *Store) UpdateToTop(id, x, y, width, height int32) (widget.Widget, error) {
	s.latch.Shared()
	defer s.latch.ShareDone()

	s.locks.LockID(id)

	s.primary.mu.RLock()
	chain, ok := s.primary.chains[id]
	s.primary.mu.RUnlock()
	if !ok {
		s.locks.ReleaseID(id)
		return widget.Widget{}, storeerr.Newf(storeerr.NotFound, "widget %d not found", id)
	}

	serial := s.log.LatestSerial()
	resolve := s.resolver()
	oldV, ok := newestActive(chain, serial, resolve)
	if !ok {
		s.locks.ReleaseID(id)
		return widget.Widget{}, storeerr.Newf(storeerr.NotFound, "widget %d not found", id)
	}

	if err := s.locks.LockZ([]int32{minZ}, s.opts.TransactionTimeout); err != nil {
		s.locks.ReleaseID(id)
		return widget.Widget{}, err
	}
	if err := s.locks.LockRange(minZ, s.opts.TransactionTimeout); err != nil {
		s.locks.ReleaseZ(minZ)
		s.locks.ReleaseID(id)
		return widget.Widget{}, err
	}

	targetZ := int32(0)
	if top, ok := s.maxActiveZ(); ok {
		targetZ = top + 1
	}
	oldZ := oldV.Widget.Z
	if oldZ+1 == targetZ {
		targetZ = oldZ
	}

	proposed := widget.Widget{ID: id, X: x, Y: y, Z: targetZ, Width: width, Height: height}
	if oldV.Widget.Equal(proposed) {
		s.locks.ReleaseRange()
		s.locks.ReleaseZ(minZ)
		s.locks.ReleaseID(id)
		return oldV.Widget, nil
	}

	tid := s.nextTid.Add(1) - 1

	if !oldV.MarkTill(tid) {
		s.locks.ReleaseRange()
		s.locks.ReleaseZ(minZ)
		s.locks.ReleaseID(id)
		return widget.Widget{}, s.logInternal(storeerr.Newf(storeerr.Internal, "widget %d already superseded", id))
	}
	newV := widget.New(proposed, tid)
	chain.Append(newV)
	s.insertZ(zEntry{key: s.keys.New(targetZ), version: newV})

	serialCommit, err := s.log.Commit(tid)
	if err != nil {
		err = s.logInternal(err)
		s.locks.ReleaseRange()
		s.locks.ReleaseZ(minZ)
		s.locks.ReleaseID(id)
		return widget.Widget{}, err
	}
	oldV.CacheTillSerial(serialCommit)
	newV.CacheFromSerial(serialCommit)

	s.locks.ReleaseRange()
	s.locks.ReleaseZ(minZ)
	s.locks.ReleaseID(id)

	s.logger.Debug("moved widget to top", nil)
	return proposed, nil
}

// Delete removes a widget, making it invisible to readers from the
// commit serial forward. The chain entry itself is retained until
// vacuum reclaims it.
func (s *Store) Delete(id int32) error {
	s.latch.Shared()
	defer s.latch.ShareDone()

	s.locks.LockID(id)

	s.primary.mu.RLock()
	chain, ok := s.primary.chains[id]
	s.primary.mu.RUnlock()
	if !ok {
		s.locks.ReleaseID(id)
		return storeerr.Newf(storeerr.NotFound, "widget %d not found", id)
	}

	serial := s.log.LatestSerial()
	resolve := s.resolver()
	oldV, ok := newestActive(chain, serial, resolve)
	if !ok {
		s.locks.ReleaseID(id)
		return storeerr.Newf(storeerr.NotFound, "widget %d not found", id)
	}

	oldZ := oldV.Widget.Z
	if err := s.locks.LockZ([]int32{oldZ}, s.opts.TransactionTimeout); err != nil {
		s.locks.ReleaseID(id)
		return err
	}

	tid := s.nextTid.Add(1) - 1
	if !oldV.MarkTill(tid) {
		s.locks.ReleaseZ(oldZ)
		s.locks.ReleaseID(id)
		return s.logInternal(storeerr.Newf(storeerr.Internal, "widget %d already superseded", id))
	}

	serialCommit, err := s.log.Commit(tid)
	if err != nil {
		err = s.logInternal(err)
		s.locks.ReleaseZ(oldZ)
		s.locks.ReleaseID(id)
		return err
	}
	oldV.CacheTillSerial(serialCommit)

	s.locks.ReleaseZ(oldZ)
	s.locks.ReleaseID(id)

	s.logger.Debug("deleted widget", nil)
	return nil
}
