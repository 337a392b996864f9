package widget

import "sync/atomic"

// Sentinels used by Version's transaction-linkage fields.
const (
	// TidNone marks "no superseding transaction" on TillTid.
	TidNone int64 = -1
	// SerialUnset marks a cached serial that hasn't been resolved yet;
	// readers fall back to the transaction log.
	SerialUnset int64 = -1
	// SerialNever marks a TillSerial that will never resolve because
	// TillTid is TidNone (the version has not been superseded).
	SerialNever int64 = -2
)

// Status is a version's visibility classification under a snapshot.
type Status int

const (
	StatusActive Status = iota
	StatusExpired
	StatusNotYetCommitted
)

// Resolver looks up the commit serial a transaction id committed at, if
// any. It is satisfied by (*txlog.Log).SerialFor.
type Resolver func(tid int64) (serial int64, ok bool)

// Version is a single immutable-after-publish snapshot of a widget's
// fields, with the transaction ids and cached serials that let readers
// classify its visibility without taking any lock. FromTid is set once
// at construction and never changes; TillTid and the two cached serials
// are single-writer-many-reader atomics, published with release/acquire
// semantics so concurrent readers see them in a consistent order with
// the transaction log's state.
type Version struct {
	Widget Widget

	fromTid int64

	tillTid    atomic.Int64
	fromSerial atomic.Int64
	tillSerial atomic.Int64
}

// New constructs a freshly created version. FromSerial starts unset
// (the writer caches it right after commit); TillTid starts at TidNone
// and TillSerial unset, so Status reads it as SerialNever until a
// superseding tid is marked and then resolves it through the log.
func New(w Widget, fromTid int64) *Version {
	v := &Version{Widget: w, fromTid: fromTid}
	v.tillTid.Store(TidNone)
	v.fromSerial.Store(SerialUnset)
	v.tillSerial.Store(SerialUnset)
	return v
}

// FromTid returns the transaction id that created this version.
func (v *Version) FromTid() int64 { return v.fromTid }

// TillTid returns the transaction id that superseded this version, or
// TidNone if it has not been superseded.
func (v *Version) TillTid() int64 { return v.tillTid.Load() }

// MarkTill sets TillTid to tid, provided it is not already set. Returns
// false if the version was already superseded — a version is mutated
// exactly once in this way, by construction of the caller (it always
// holds the widget's id-lock when calling this).
func (v *Version) MarkTill(tid int64) bool {
	return v.tillTid.CompareAndSwap(TidNone, tid)
}

// CacheFromSerial publishes the commit serial for FromTid, immediately
// after the writer's commit returns.
func (v *Version) CacheFromSerial(serial int64) { v.fromSerial.Store(serial) }

// CacheTillSerial publishes the commit serial for TillTid, immediately
// after the superseding writer's commit returns.
func (v *Version) CacheTillSerial(serial int64) { v.tillSerial.Store(serial) }

// Status classifies this version's visibility at snapshot serial s,
// consulting resolve for any cached serial that is still unset.
//
//   - EXPIRED if TillSerial is known and <= s.
//   - NOT_YET_COMMITTED if FromSerial is unknown or > s.
//   - ACTIVE otherwise.
func (v *Version) Status(s int64, resolve Resolver) Status {
	till := v.tillSerial.Load()
	if till == SerialUnset {
		tillTid := v.tillTid.Load()
		if tillTid == TidNone {
			till = SerialNever
		} else if resolved, ok := resolve(tillTid); ok {
			till = resolved
			v.tillSerial.Store(resolved)
		} else {
			// The superseding transaction hasn't committed yet, so the
			// supersession is invisible to every reader until it does.
			till = SerialNever
		}
	}
	if till != SerialNever && till <= s {
		return StatusExpired
	}

	from := v.fromSerial.Load()
	if from == SerialUnset {
		resolved, ok := resolve(v.fromTid)
		if !ok {
			return StatusNotYetCommitted
		}
		from = resolved
		v.fromSerial.Store(resolved)
	}
	if from > s {
		return StatusNotYetCommitted
	}
	return StatusActive
}
