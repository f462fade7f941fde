// Package memstore is a pure in-memory storage.CAS backend, grounded on the
// shape of storage.localfs (same write-once, hash-keyed contract) but
// backed by a guarded map instead of a filesystem. Useful for tests and for
// an embedding process that wants a CAS with no durability guarantee.
package memstore

import (
	"context"
	"flag"
	"sync"

	"github.com/stratumlabs/strata/digest"
	"github.com/stratumlabs/strata/storage"
	"github.com/stratumlabs/strata/storage/casregistry"
)

// CAS is a map-backed content-addressable store. The zero value is not
// usable; construct with New.
type CAS struct {
	mu      sync.RWMutex
	objects map[digest.Hash][]byte
}

// New constructs an empty in-memory CAS.
func New() *CAS {
	return &CAS{objects: make(map[digest.Hash][]byte)}
}

func (c *CAS) Put(ctx context.Context, bytes []byte) (digest.Hash, error) {
	h := digest.Sum(bytes)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.objects[h]; ok {
		if string(existing) != string(bytes) {
			return digest.Hash{}, storage.ErrImmutable
		}
		return h, nil
	}
	stored := make([]byte, len(bytes))
	copy(stored, bytes)
	c.objects[h] = stored
	return h, nil
}

func (c *CAS) Get(ctx context.Context, h digest.Hash) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.objects[h]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (c *CAS) Has(ctx context.Context, h digest.Hash) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.objects[h]
	return ok
}

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:          "memory",
		Description:   "In-memory CAS (no durability; for tests and scratch use)",
		Usage:         casregistry.UsageCLI | casregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {},
		Open: func() (storage.CAS, func() error, error) {
			return New(), nil, nil
		},
	})
}
