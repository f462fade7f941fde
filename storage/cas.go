package storage

import (
	"context"

	"github.com/stratumlabs/strata/digest"
)

// CAS is a minimal content-addressable storage interface, keyed by a
// cell's own content hash rather than by a self-chosen identifier: the
// store never decides a key, it only confirms the one its caller already
// computed.
//
// Contract:
// - Put MUST be idempotent and MUST derive the key as digest.Sum(bytes).
// - Stored objects MUST be immutable.
// - Get MUST return ErrNotFound when the hash is absent.
//
// CAS satisfies cell.Reader and cell.Writer structurally, so a ref can be
// persisted to or rehydrated from any CAS without this package importing
// cell.
type CAS interface {
	Put(ctx context.Context, bytes []byte) (digest.Hash, error)
	Get(ctx context.Context, h digest.Hash) ([]byte, error)
	Has(ctx context.Context, h digest.Hash) bool
}
