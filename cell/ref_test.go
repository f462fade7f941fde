package cell

import (
	"context"
	"testing"

	"github.com/stratumlabs/strata/storage/memstore"
)

func TestRefEmbeddedVsStoredStatus(t *testing.T) {
	small := NewStr("x")
	r := NewRef(small)
	if r.Status() != StatusEmbedded {
		t.Fatalf("a small value's ref must start Embedded, got %v", r.Status())
	}
	big := NewBlob(make([]byte, ChunkSize))
	r2 := NewRef(big)
	if r2.Status() != StatusStored {
		t.Fatalf("a large value's ref must start Stored, got %v", r2.Status())
	}
}

func TestRefPeekAndGetValue(t *testing.T) {
	ctx := context.Background()
	cas := memstore.New()

	v := NewStr("resident in memory")
	r := NewRef(v)
	if peeked, ok := r.Peek(); !ok || peeked.Hash() != v.Hash() {
		t.Fatalf("Peek on a resident ref must succeed without consulting a store")
	}

	dehydrated := RefFromHash(v.Hash())
	if _, ok := dehydrated.Peek(); ok {
		t.Fatalf("Peek on a dehydrated ref must fail")
	}
	if _, err := dehydrated.GetValue(ctx, cas); !IsKind(err, KindMissingData) {
		t.Fatalf("GetValue against an empty store must fail MissingData, got %v", err)
	}

	if _, err := cas.Put(ctx, Encode(v)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := dehydrated.GetValue(ctx, cas)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if got.Hash() != v.Hash() {
		t.Fatalf("GetValue returned the wrong cell")
	}
}

func TestRefPersistWritesToStore(t *testing.T) {
	ctx := context.Background()
	cas := memstore.New()

	big := NewBlob(make([]byte, ChunkSize))
	r := NewRef(big)
	persisted, err := r.Persist(ctx, cas)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if persisted.Status() != StatusPersisted {
		t.Fatalf("Persist must promote status to Persisted, got %v", persisted.Status())
	}
	if !cas.Has(ctx, big.Hash()) {
		t.Fatalf("Persist must write the cell's encoding to the store")
	}

	// Persist is idempotent.
	again, err := persisted.Persist(ctx, cas)
	if err != nil {
		t.Fatalf("second Persist: %v", err)
	}
	if again.Status() != StatusPersisted {
		t.Fatalf("re-Persist must stay Persisted")
	}
}

func TestRefPersistEmbeddedIsNoOp(t *testing.T) {
	ctx := context.Background()
	cas := memstore.New()

	small := NewStr("tiny")
	r := NewRef(small)
	persisted, err := r.Persist(ctx, cas)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if persisted.Status() != StatusPersisted {
		t.Fatalf("an embedded ref must still report Persisted after Persist")
	}
	if cas.Has(ctx, small.Hash()) {
		t.Fatalf("an embedded cell must never be written to the store on its own")
	}
}
