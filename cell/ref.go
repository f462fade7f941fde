package cell

import (
	"context"
	"sync/atomic"
)

// Status is a ref's position in the monotone lattice
// Unknown < Embedded < Stored < Persisted < Announced < Verified.
// Status can only increase over a ref's lifetime.
type Status int

const (
	StatusUnknown Status = iota
	StatusEmbedded
	StatusStored
	StatusPersisted
	StatusAnnounced
	StatusVerified
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "Unknown"
	case StatusEmbedded:
		return "Embedded"
	case StatusStored:
		return "Stored"
	case StatusPersisted:
		return "Persisted"
	case StatusAnnounced:
		return "Announced"
	case StatusVerified:
		return "Verified"
	default:
		return "Invalid"
	}
}

// Reader is the read side of a content-addressable store, consulted by
// Ref.GetValue when a ref is dehydrated. It is the minimal surface cell
// needs; storage.CAS satisfies it.
type Reader interface {
	Get(ctx context.Context, h Hash) ([]byte, error)
}

// Writer is the write side of a content-addressable store, used by
// Ref.Persist. storage.CAS satisfies it.
type Writer interface {
	Put(ctx context.Context, encoding []byte) (Hash, error)
}

// Ref is a handle to a cell: its hash is always known; the cell itself may
// or may not be resident in memory. A ref of status Embedded always carries
// its target. A ref of higher status may be dehydrated (target absent, hash
// present) and rehydrated by consulting a store.
//
// Ref is a small value type; copying it is cheap and safe. The cached
// pointer to a lazily-loaded value is published through an atomic so that
// concurrent GetValue calls race benignly (redundant work, never a torn
// read).
type Ref struct {
	hash     Hash
	embedded bool
	value    Cell // set directly for embedded refs; may also be set for others
	loaded   *atomic.Pointer[Cell]
	status   Status
}

// NewRef wraps c in a ref. The ref's initial status is Embedded if c's
// encoding is small enough to inline, else Stored (the cell is resident in
// memory even though it is not yet backed by any store).
func NewRef(c Cell) Ref {
	if c.IsEmbedded() {
		return Ref{hash: c.Hash(), embedded: true, value: c, status: StatusEmbedded}
	}
	l := &atomic.Pointer[Cell]{}
	var cc Cell = c
	l.Store(&cc)
	return Ref{hash: c.Hash(), value: c, loaded: l, status: StatusStored}
}

// RefFromHash constructs a dehydrated ref: hash known, target absent.
func RefFromHash(h Hash) Ref {
	return Ref{hash: h, loaded: &atomic.Pointer[Cell]{}, status: StatusUnknown}
}

// Hash returns the target's hash. Cheap; always available.
func (r Ref) Hash() Hash { return r.hash }

// Status returns the ref's current status.
func (r Ref) Status() Status { return r.status }

// Peek returns the target cell without consulting a store, and whether it
// was resident.
func (r Ref) Peek() (Cell, bool) {
	if r.embedded {
		return r.value, true
	}
	if r.value != nil {
		return r.value, true
	}
	if r.loaded != nil {
		if p := r.loaded.Load(); p != nil {
			return *p, true
		}
	}
	return nil, false
}

// GetValue returns the target cell, consulting store if it is not already
// resident. It fails with a KindMissingData error if the target is absent
// both in memory and in store.
func (r Ref) GetValue(ctx context.Context, store Reader) (Cell, error) {
	if v, ok := r.Peek(); ok {
		return v, nil
	}
	if store == nil {
		return nil, MissingData(r.hash)
	}
	enc, err := store.Get(ctx, r.hash)
	if err != nil {
		return nil, MissingData(r.hash)
	}
	c, err := Decode(enc)
	if err != nil {
		return nil, err
	}
	if c.Hash() != r.hash {
		return nil, InvalidData("CELL-HASH-MISMATCH", "store returned bytes not matching the requested hash")
	}
	if r.loaded != nil {
		r.loaded.Store(&c)
	}
	return c, nil
}

// Persist promotes r, and transitively every descendant ref below
// StatusPersisted, to StatusPersisted, writing each non-embedded cell's
// encoding to w. Persist is idempotent: a ref already at or above
// StatusPersisted is returned unchanged.
func (r Ref) Persist(ctx context.Context, w Writer) (Ref, error) {
	if r.status >= StatusPersisted {
		return r, nil
	}
	v, ok := r.Peek()
	if !ok {
		// A dehydrated ref cannot be persisted without first being
		// rehydrated: we have nothing to write, and cannot verify the
		// store already holds it (Writer has no read side).
		return r, MissingData(r.hash)
	}
	updated := v.UpdateRefs(func(child Ref) Ref {
		p, err := child.Persist(ctx, w)
		if err != nil {
			// UpdateRefs has no error return; stash a still-unpersisted ref
			// and let the outer Persist below re-detect and fail explicitly.
			return child
		}
		return p
	})
	for i := 0; i < updated.RefCount(); i++ {
		if updated.GetRef(i).Status() < StatusPersisted {
			return r, persistChildErr(updated.GetRef(i))
		}
	}
	if r.embedded {
		// An embedded cell is inlined into its parent, never written on its
		// own; only its non-embedded descendants above reach the store.
		return Ref{hash: r.hash, embedded: true, value: updated, status: StatusPersisted}, nil
	}
	h, err := w.Put(ctx, Encode(updated))
	if err != nil {
		return r, err
	}
	return Ref{hash: h, value: updated, loaded: refLoaded(updated), status: StatusPersisted}, nil
}

func refLoaded(c Cell) *atomic.Pointer[Cell] {
	l := &atomic.Pointer[Cell]{}
	l.Store(&c)
	return l
}

func persistChildErr(child Ref) error {
	return MissingData(child.Hash())
}
