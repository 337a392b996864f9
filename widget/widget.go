// Package widget holds the store's record type and its MVCC version
// wrapper. A Widget is a plain immutable value; a Version pairs one with
// the transaction bookkeeping (fromTid/tillTid, cached serials) that
// lets a reader decide whether it was visible at a given snapshot.
package widget

// Widget is the logical record the store manages: identity (ID) and a
// stack order (Z) that must be unique across every currently visible
// widget, plus position and size.
type Widget struct {
	ID     int32
	X      int32
	Y      int32
	Z      int32
	Width  int32
	Height int32
}

// Equal reports whether two widgets have identical fields, including Z —
// used to detect a no-op update (spec.md S6 / invariant 7).
func (w Widget) Equal(o Widget) bool {
	return w.ID == o.ID && w.X == o.X && w.Y == o.Y && w.Z == o.Z &&
		w.Width == o.Width && w.Height == o.Height
}
