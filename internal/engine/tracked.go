package engine

// Tracked is the single-slot register naming the one in-progress game a
// device currently follows. It is owned by the caller and passed into and
// out of every coordinator entry point; there is no ambient global, which
// keeps reconciliation deterministic under test.
//
// At most one in-progress game is tracked per device at a time. The store
// cannot enforce that with a uniqueness constraint, so the coordinator
// enforces it by only ever returning a slot holding zero or one ID.
type Tracked struct {
	ID string
}

// None reports whether no game is tracked.
func (t Tracked) None() bool { return t.ID == "" }

// Track returns a slot following id.
func Track(id string) Tracked { return Tracked{ID: id} }
