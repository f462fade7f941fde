package hamt

import (
	"testing"

	"github.com/stratumlabs/strata/cell"
)

func TestEmptyMapEncoding(t *testing.T) {
	// spec.md's literal example: the empty map encodes as its leaf tag
	// followed by a zero entry count.
	got := cell.Encode(Empty())
	want := []byte{cell.TagMapLeaf, 0x00}
	if string(got) != string(want) {
		t.Fatalf("Empty() encodes as %x, want %x", got, want)
	}
}

func TestAssocGetRoundTrip(t *testing.T) {
	m := Empty()
	m, err := m.Assoc(cell.NewKeyword("a"), cell.NewLong(1))
	if err != nil {
		t.Fatalf("Assoc: %v", err)
	}
	v, found, err := m.Get(cell.NewKeyword("a"))
	if err != nil || !found {
		t.Fatalf("Get after Assoc: found=%v err=%v", found, err)
	}
	if v.(*cell.Long).Value() != 1 {
		t.Fatalf("got %v, want 1", v)
	}
	if _, found, _ := m.Get(cell.NewKeyword("missing")); found {
		t.Fatalf("Get for an absent key must report not found")
	}
}

func TestDissocRemovesKey(t *testing.T) {
	m, err := NewMap([2]cell.Cell{cell.NewKeyword("a"), cell.NewLong(1)})
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}
	m, err = m.Dissoc(cell.NewKeyword("a"))
	if err != nil {
		t.Fatalf("Dissoc: %v", err)
	}
	if m.Count() != 0 {
		t.Fatalf("expected an empty map after removing its only entry")
	}
	if m.Hash() != Empty().Hash() {
		t.Fatalf("a map with its last entry removed must collapse to the canonical empty map")
	}
}

func TestMapTreeCollapsesBackToLeaf(t *testing.T) {
	// Insert one entry more than MapLeafMax to force a split into a
	// MapTree, then remove entries until the count is back
	// within MapLeafMax: the result must collapse to a MapLeaf with a hash
	// identical to a leaf built directly from the surviving entries.
	var m Map = Empty()
	var keys []cell.Cell
	for i := 0; i < 9; i++ {
		k := cell.NewLong(int64(i))
		keys = append(keys, k)
		var err error
		m, err = m.Assoc(k, cell.NewLong(int64(i)))
		if err != nil {
			t.Fatalf("Assoc(%d): %v", i, err)
		}
	}
	if m.Count() != 9 {
		t.Fatalf("expected 9 entries, got %d", m.Count())
	}

	// spec.md §8's literal scenario: delete 2 of the 9 entries and expect a
	// collapse back to a 7-entry MapLeaf.
	m, err := m.Dissoc(keys[7])
	if err != nil {
		t.Fatalf("Dissoc: %v", err)
	}
	m, err = m.Dissoc(keys[8])
	if err != nil {
		t.Fatalf("Dissoc: %v", err)
	}
	if m.Count() != 7 {
		t.Fatalf("expected 7 entries after removing two, got %d", m.Count())
	}
	if _, ok := m.(*MapLeaf); !ok {
		t.Fatalf("a map with 7 entries must canonically be a MapLeaf, got %T", m)
	}

	// Compare against a leaf built directly from the 7 surviving entries to
	// confirm hash-determinism of the collapse.
	var rebuilt Map = Empty()
	for i := 0; i < 7; i++ {
		rebuilt, err = rebuilt.Assoc(keys[i], cell.NewLong(int64(i)))
		if err != nil {
			t.Fatalf("rebuilt.Assoc: %v", err)
		}
	}
	if m.Hash() != rebuilt.Hash() {
		t.Fatalf("collapsed map's hash must equal a leaf built directly from the same entries")
	}
}

func TestForEachVisitsEveryEntry(t *testing.T) {
	var m Map = Empty()
	want := map[int64]bool{}
	for i := int64(0); i < 40; i++ {
		var err error
		m, err = m.Assoc(cell.NewLong(i), cell.NewLong(i*2))
		if err != nil {
			t.Fatalf("Assoc: %v", err)
		}
		want[i] = true
	}
	seen := map[int64]bool{}
	err := m.ForEach(func(k, v cell.Cell) error {
		kv := k.(*cell.Long).Value()
		if v.(*cell.Long).Value() != kv*2 {
			t.Fatalf("entry %d has wrong value %v", kv, v)
		}
		seen[kv] = true
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	for k := range want {
		if !seen[k] {
			t.Fatalf("ForEach did not visit key %d", k)
		}
	}
}

func TestSetOfTrueEncoding(t *testing.T) {
	// spec.md's literal example: a set containing only TRUE encodes as a
	// set-leaf tag over a one-entry map payload with TRUE as both the
	// member and (implicitly) the sentinel value.
	s, err := NewSetFrom(cell.True)
	if err != nil {
		t.Fatalf("NewSetFrom: %v", err)
	}
	got := cell.Encode(s)
	if got[0] != cell.TagSetLeaf {
		t.Fatalf("set of {TRUE} must use TagSetLeaf, got tag 0x%02x", got[0])
	}
	leaf, err := NewMap([2]cell.Cell{cell.True, cell.True})
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}
	wantPayload := cell.Encode(leaf)[1:]
	if string(got[1:]) != string(wantPayload) {
		t.Fatalf("set payload must equal its underlying map's raw payload")
	}
}

func TestSetMembershipOperations(t *testing.T) {
	s := EmptySet()
	s, err := s.Include(cell.NewLong(1))
	if err != nil {
		t.Fatalf("Include: %v", err)
	}
	s, err = s.IncludeAll(cell.NewLong(2), cell.NewLong(3))
	if err != nil {
		t.Fatalf("IncludeAll: %v", err)
	}
	if s.Count() != 3 {
		t.Fatalf("expected 3 members, got %d", s.Count())
	}
	if ok, _ := s.Contains(cell.NewLong(2)); !ok {
		t.Fatalf("expected set to contain 2")
	}
	s, err = s.Exclude(cell.NewLong(2))
	if err != nil {
		t.Fatalf("Exclude: %v", err)
	}
	if ok, _ := s.Contains(cell.NewLong(2)); ok {
		t.Fatalf("expected 2 to be removed")
	}
}

func TestSetIntersectAll(t *testing.T) {
	a, _ := NewSetFrom(cell.NewLong(1), cell.NewLong(2), cell.NewLong(3))
	b, _ := NewSetFrom(cell.NewLong(2), cell.NewLong(3), cell.NewLong(4))
	got, err := a.IntersectAll(b)
	if err != nil {
		t.Fatalf("IntersectAll: %v", err)
	}
	if got.Count() != 2 {
		t.Fatalf("expected 2 common members, got %d", got.Count())
	}
	for _, v := range []int64{2, 3} {
		if ok, _ := got.Contains(cell.NewLong(v)); !ok {
			t.Fatalf("expected intersection to contain %d", v)
		}
	}
}

func TestMapEncodeDecodeRoundTrip(t *testing.T) {
	var m Map = Empty()
	for i := int64(0); i < 25; i++ {
		var err error
		m, err = m.Assoc(cell.NewLong(i), cell.NewStr("v"))
		if err != nil {
			t.Fatalf("Assoc: %v", err)
		}
	}
	enc := cell.Encode(m)
	decoded, err := cell.Decode(enc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(cell.Encode(decoded)) != string(enc) {
		t.Fatalf("decoded map did not re-encode identically")
	}
}
