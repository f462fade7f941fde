package vector

import (
	"testing"

	"github.com/stratumlabs/strata/cell"
)

func TestEmptyVectorEncoding(t *testing.T) {
	got := cell.Encode(Empty())
	want := []byte{cell.TagVector, 0x00, 0x00, 0x00, 0x00}
	if string(got) != string(want) {
		t.Fatalf("Empty() encodes as %x, want %x", got, want)
	}
}

func TestAppendGetRoundTrip(t *testing.T) {
	v, err := NewVector(cell.NewLong(10), cell.NewLong(20), cell.NewLong(30))
	if err != nil {
		t.Fatalf("NewVector: %v", err)
	}
	if v.Count() != 3 {
		t.Fatalf("expected count 3, got %d", v.Count())
	}
	for i, want := range []int64{10, 20, 30} {
		got, err := v.Get(i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if got.(*cell.Long).Value() != want {
			t.Fatalf("Get(%d) = %v, want %d", i, got, want)
		}
	}
}

func TestGetOutOfBounds(t *testing.T) {
	v := Empty()
	if _, err := v.Get(0); !cell.IsKind(err, cell.KindIndexOutOfBounds) {
		t.Fatalf("expected IndexOutOfBounds, got %v", err)
	}
	v2, _ := NewVector(cell.NewLong(1))
	if _, err := v2.Get(-1); !cell.IsKind(err, cell.KindIndexOutOfBounds) {
		t.Fatalf("expected IndexOutOfBounds for negative index, got %v", err)
	}
	if _, err := v2.Get(1); !cell.IsKind(err, cell.KindIndexOutOfBounds) {
		t.Fatalf("expected IndexOutOfBounds for index == count, got %v", err)
	}
}

func TestAssocReplacesElement(t *testing.T) {
	v, err := NewVector(cell.NewLong(1), cell.NewLong(2), cell.NewLong(3))
	if err != nil {
		t.Fatalf("NewVector: %v", err)
	}
	v2, err := v.Assoc(1, cell.NewLong(99))
	if err != nil {
		t.Fatalf("Assoc: %v", err)
	}
	got, _ := v2.Get(1)
	if got.(*cell.Long).Value() != 99 {
		t.Fatalf("Assoc did not replace the element at index 1")
	}
	orig, _ := v.Get(1)
	if orig.(*cell.Long).Value() != 2 {
		t.Fatalf("Assoc must not mutate the receiver")
	}
}

func TestAppendManyElementsCrossesTailIntoTree(t *testing.T) {
	var v *Vector = Empty()
	var err error
	const n = 1000
	for i := 0; i < n; i++ {
		v, err = v.Append(cell.NewLong(int64(i)))
		if err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}
	if v.Count() != n {
		t.Fatalf("expected count %d, got %d", n, v.Count())
	}
	for i := 0; i < n; i++ {
		got, err := v.Get(i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if got.(*cell.Long).Value() != int64(i) {
			t.Fatalf("Get(%d) = %v, want %d", i, got, i)
		}
	}
}

func TestVectorEncodeDecodeRoundTrip(t *testing.T) {
	var v *Vector = Empty()
	var err error
	for i := 0; i < 200; i++ {
		v, err = v.Append(cell.NewStr("item"))
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	enc := cell.Encode(v)
	decoded, err := cell.Decode(enc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(cell.Encode(decoded)) != string(enc) {
		t.Fatalf("decoded vector did not re-encode identically")
	}
	dv := decoded.(*Vector)
	if dv.Count() != 200 {
		t.Fatalf("decoded vector has count %d, want 200", dv.Count())
	}
}

func TestForEachVisitsInOrder(t *testing.T) {
	v, err := NewVector(cell.NewLong(1), cell.NewLong(2), cell.NewLong(3))
	if err != nil {
		t.Fatalf("NewVector: %v", err)
	}
	var got []int64
	err = v.ForEach(func(c cell.Cell) error {
		got = append(got, c.(*cell.Long).Value())
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	want := []int64{1, 2, 3}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("ForEach order mismatch at %d: got %d, want %d", i, got[i], w)
		}
	}
}
