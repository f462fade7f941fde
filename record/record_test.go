package record

import (
	"testing"

	"github.com/stratumlabs/strata/cell"
	"github.com/stratumlabs/strata/hamt"
)

func TestNewGetRoundTrip(t *testing.T) {
	schema, err := RegisterSchema("name", "balance")
	if err != nil {
		t.Fatalf("RegisterSchema: %v", err)
	}
	r, err := New(schema, cell.NewStr("alice"), cell.NewLong(100))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	name, ok, err := r.Get("name")
	if err != nil || !ok {
		t.Fatalf("Get(name): ok=%v err=%v", ok, err)
	}
	if name.(*cell.Str).Value() != "alice" {
		t.Fatalf("Get(name) = %v, want alice", name)
	}
	if _, ok, _ := r.Get("nonexistent"); ok {
		t.Fatalf("Get for a key outside the schema must report not found")
	}
}

func TestArityMismatchRejected(t *testing.T) {
	schema, err := RegisterSchema("a", "b")
	if err != nil {
		t.Fatalf("RegisterSchema: %v", err)
	}
	if _, err := New(schema, cell.NewLong(1)); !cell.IsKind(err, cell.KindInvalidData) {
		t.Fatalf("expected InvalidData for an arity mismatch, got %v", err)
	}
}

func TestAssocKnownKeyStaysRecord(t *testing.T) {
	schema, err := RegisterSchema("x", "y")
	if err != nil {
		t.Fatalf("RegisterSchema: %v", err)
	}
	r, err := New(schema, cell.NewLong(1), cell.NewLong(2))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	updated, err := r.Assoc("x", cell.NewLong(99))
	if err != nil {
		t.Fatalf("Assoc: %v", err)
	}
	ur, ok := updated.(*Record)
	if !ok {
		t.Fatalf("Assoc on a known key must return a *Record, got %T", updated)
	}
	x, _, _ := ur.Get("x")
	if x.(*cell.Long).Value() != 99 {
		t.Fatalf("updated field has the wrong value")
	}
}

func TestAssocUnknownKeyUpgradesToMap(t *testing.T) {
	schema, err := RegisterSchema("p", "q")
	if err != nil {
		t.Fatalf("RegisterSchema: %v", err)
	}
	r, err := New(schema, cell.NewLong(1), cell.NewLong(2))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	updated, err := r.Assoc("extra", cell.NewLong(3))
	if err != nil {
		t.Fatalf("Assoc: %v", err)
	}
	m, ok := updated.(hamt.Map)
	if !ok {
		t.Fatalf("Assoc on an unknown key must upgrade to a hamt.Map, got %T", updated)
	}
	if m.Count() != 3 {
		t.Fatalf("upgraded map must hold every schema field plus the new key, got %d entries", m.Count())
	}
	v, found, err := m.Get(cell.NewKeyword("extra"))
	if err != nil || !found {
		t.Fatalf("upgraded map must contain the new key: found=%v err=%v", found, err)
	}
	if v.(*cell.Long).Value() != 3 {
		t.Fatalf("new key has the wrong value")
	}
	v, found, err = m.Get(cell.NewKeyword("p"))
	if err != nil || !found {
		t.Fatalf("upgraded map must preserve schema field p: found=%v err=%v", found, err)
	}
	if v.(*cell.Long).Value() != 1 {
		t.Fatalf("preserved field p has the wrong value")
	}
}

func TestDistinctSchemasNeverEqual(t *testing.T) {
	schemaA, err := RegisterSchema("same", "same2")
	if err != nil {
		t.Fatalf("RegisterSchema A: %v", err)
	}
	schemaB, err := RegisterSchema("same", "same2")
	if err != nil {
		t.Fatalf("RegisterSchema B: %v", err)
	}
	a, err := New(schemaA, cell.NewLong(1), cell.NewLong(2))
	if err != nil {
		t.Fatalf("New A: %v", err)
	}
	b, err := New(schemaB, cell.NewLong(1), cell.NewLong(2))
	if err != nil {
		t.Fatalf("New B: %v", err)
	}
	if a.Hash() == b.Hash() {
		t.Fatalf("records from distinct schemas must never hash equal, even with identical field values")
	}
}

func TestRecordEncodeDecodeRoundTrip(t *testing.T) {
	schema, err := RegisterSchema("f1", "f2", "f3")
	if err != nil {
		t.Fatalf("RegisterSchema: %v", err)
	}
	r, err := New(schema, cell.NewLong(1), cell.NewStr("two"), cell.True)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	enc := cell.Encode(r)
	decoded, err := cell.Decode(enc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(cell.Encode(decoded)) != string(enc) {
		t.Fatalf("decoded record did not re-encode identically")
	}
	dr := decoded.(*Record)
	f2, _, _ := dr.Get("f2")
	if f2.(*cell.Str).Value() != "two" {
		t.Fatalf("decoded field f2 = %v, want \"two\"", f2)
	}
}
