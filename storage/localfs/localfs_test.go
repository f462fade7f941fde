package localfs

import (
	"context"
	"os"
	"testing"

	"github.com/stratumlabs/strata/digest"
	"github.com/stratumlabs/strata/storage"
	"github.com/stratumlabs/strata/storage/testkit"
)

func TestLocalFS_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		t.Helper()
		dir := t.TempDir()
		cas, err := New(dir)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		return cas
	})
}

func TestLocalFS_RejectMutationByOverwrite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cas, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	orig := []byte("original")
	h, err := cas.Put(ctx, orig)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Corrupt the stored object out-of-band.
	path := cas.pathFor(h)
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("corrupted"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	// Get must detect hash mismatch.
	_, err = cas.Get(ctx, h)
	if err != storage.ErrHashMismatch {
		t.Fatalf("Get mismatch: got %v want %v", err, storage.ErrHashMismatch)
	}

	// Put must not "repair" or overwrite the corrupted object.
	_, err = cas.Put(ctx, orig)
	if err != storage.ErrImmutable {
		t.Fatalf("Put after corruption: got %v want %v", err, storage.ErrImmutable)
	}

	// Sanity: the hash is still the hash of the original bytes.
	wantHash := digest.Sum(orig)
	if h != wantHash {
		t.Fatalf("unexpected hash: got %s want %s", h, wantHash)
	}
}
