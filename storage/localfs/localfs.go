package localfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/stratumlabs/strata/digest"
	"github.com/stratumlabs/strata/storage"
)

// CAS is a local filesystem-backed content-addressable store.
//
// Objects are stored immutably and keyed strictly by content hash.
// This implementation is offline and deterministic: it never uses the network
// and never depends on wall-clock time.
type CAS struct {
	root string
}

// New constructs a filesystem CAS rooted at root. The directory will be created if needed.
func New(root string) (*CAS, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &CAS{root: root}, nil
}

func (c *CAS) Put(ctx context.Context, bytes []byte) (digest.Hash, error) {
	h := digest.Sum(bytes)

	path := c.pathFor(h)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return digest.Hash{}, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if os.IsExist(err) {
			existing, rerr := c.Get(ctx, h)
			if rerr != nil {
				// If the file exists but is unreadable or corrupted, treat as an immutability violation.
				return digest.Hash{}, storage.ErrImmutable
			}
			if string(existing) != string(bytes) {
				return digest.Hash{}, storage.ErrImmutable
			}
			return h, nil
		}
		return digest.Hash{}, err
	}
	defer f.Close()

	if _, err := f.Write(bytes); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return digest.Hash{}, err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return digest.Hash{}, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return digest.Hash{}, err
	}

	return h, nil
}

func (c *CAS) Get(ctx context.Context, h digest.Hash) ([]byte, error) {
	path := c.pathFor(h)
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	if digest.Sum(b) != h {
		return nil, storage.ErrHashMismatch
	}
	return b, nil
}

func (c *CAS) Has(ctx context.Context, h digest.Hash) bool {
	_, err := os.Stat(c.pathFor(h))
	return err == nil
}

func (c *CAS) pathFor(h digest.Hash) string {
	s := h.String()
	return filepath.Join(c.root, s[:2], s)
}
