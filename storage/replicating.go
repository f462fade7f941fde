package storage

import (
	"context"
	"fmt"

	"github.com/stratumlabs/strata/digest"
)

// NamedCAS associates a CAS with a stable backend name.
//
// This is used for multi-backend orchestration where callers need to retain
// per-backend metadata (e.g., for reporting or auditing).
type NamedCAS struct {
	Name string
	CAS  CAS
}

// ReplicatingCAS writes to all configured backends.
//
// Reads fall back in order. Writes go to all backends and require all
// returned hashes to match (otherwise ErrHashMismatch is returned).
//
// Use PutAll when you need the per-backend hash mapping.
type ReplicatingCAS struct {
	Backends []NamedCAS
}

var _ CAS = (*ReplicatingCAS)(nil)

// PutAll writes the same bytes to all backends.
//
// It returns:
// - the canonical hash (digest.Sum of bytes)
// - a map of backend name -> returned hash
//
// If any backend returns a different hash, ErrHashMismatch is returned.
func (r ReplicatingCAS) PutAll(ctx context.Context, bytes []byte) (digest.Hash, map[string]digest.Hash, error) {
	want := digest.Sum(bytes)
	if len(r.Backends) == 0 {
		return digest.Hash{}, nil, fmt.Errorf("storage: ReplicatingCAS has no backends")
	}

	out := make(map[string]digest.Hash, len(r.Backends))
	for _, b := range r.Backends {
		if b.CAS == nil {
			return digest.Hash{}, nil, fmt.Errorf("storage: nil CAS for backend %q", b.Name)
		}
		got, err := b.CAS.Put(ctx, bytes)
		if err != nil {
			return digest.Hash{}, nil, err
		}
		out[b.Name] = got
		if got != want {
			return digest.Hash{}, out, ErrHashMismatch
		}
	}
	return want, out, nil
}

func (r ReplicatingCAS) Put(ctx context.Context, bytes []byte) (digest.Hash, error) {
	id, _, err := r.PutAll(ctx, bytes)
	return id, err
}

func (r ReplicatingCAS) Get(ctx context.Context, h digest.Hash) ([]byte, error) {
	var sawNotFound bool
	for _, b := range r.Backends {
		if b.CAS == nil {
			continue
		}
		out, err := b.CAS.Get(ctx, h)
		if err == nil {
			return out, nil
		}
		if IsNotFound(err) {
			sawNotFound = true
			continue
		}
		return nil, err
	}
	if sawNotFound {
		return nil, ErrNotFound
	}
	return nil, ErrNotFound
}

func (r ReplicatingCAS) Has(ctx context.Context, h digest.Hash) bool {
	for _, b := range r.Backends {
		if b.CAS != nil && b.CAS.Has(ctx, h) {
			return true
		}
	}
	return false
}
