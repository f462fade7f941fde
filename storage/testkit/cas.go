// Package testkit is a shared black-box conformance suite for storage.CAS
// backends; the memstore and localfs tests run it.
package testkit

import (
	"bytes"
	"context"
	"testing"

	"github.com/stratumlabs/strata/digest"
	"github.com/stratumlabs/strata/storage"
)

// NewCAS constructs a fresh, empty CAS instance for a test.
// The returned CAS MUST be isolated from other tests.
type NewCAS func(t *testing.T) storage.CAS

func RunCASConformance(t *testing.T, newCAS NewCAS) {
	t.Helper()
	ctx := context.Background()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		want := []byte("hello, strata storage")

		h, err := cas.Put(ctx, want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		wantHash := digest.Sum(want)
		if h != wantHash {
			t.Fatalf("Put hash mismatch: got %s want %s", h, wantHash)
		}

		got, err := cas.Get(ctx, h)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}

		if digest.Sum(got) != h {
			t.Fatalf("Get returned bytes not matching requested hash")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("same bytes")

		h1, err := cas.Put(ctx, b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		h2, err := cas.Put(ctx, b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if h1 != h2 {
			t.Fatalf("Put not idempotent: %s vs %s", h1, h2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("missing")
		h := digest.Sum(b)

		if cas.Has(ctx, h) {
			t.Fatalf("Has returned true for missing hash")
		}
		_, err := cas.Get(ctx, h)
		if !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		_, err = cas.Put(ctx, b)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !cas.Has(ctx, h) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("RejectZeroHash", func(t *testing.T) {
		cas := newCAS(t)
		var zero digest.Hash
		if cas.Has(ctx, zero) {
			t.Fatalf("Has should be false for the zero hash")
		}
		if _, err := cas.Get(ctx, zero); err == nil {
			t.Fatalf("Get should fail for the zero hash")
		}
	})
}
