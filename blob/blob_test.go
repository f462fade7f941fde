package blob

import (
	"bytes"
	"testing"

	"github.com/stratumlabs/strata/cell"
)

func TestBuildFlatForSmallData(t *testing.T) {
	data := []byte("hello, chunked blob")
	b := Build(data)
	if _, ok := b.(*cell.Blob); !ok {
		t.Fatalf("data under one chunk must build a flat *cell.Blob, got %T", b)
	}
	l, err := Len(b)
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if l != len(data) {
		t.Fatalf("Len = %d, want %d", l, len(data))
	}
}

func TestBuildChunkTreeForLargeData(t *testing.T) {
	// 8193 bytes is exactly two full 4096-byte chunks plus one byte,
	// spec.md's literal three-chunk example.
	data := make([]byte, 8193)
	for i := range data {
		data[i] = byte(i)
	}
	b := Build(data)
	tree, ok := b.(*Tree)
	if !ok {
		t.Fatalf("data over one chunk must build a *Tree, got %T", b)
	}
	if tree.length != len(data) {
		t.Fatalf("tree length = %d, want %d", tree.length, len(data))
	}
	if len(tree.children) != 3 {
		t.Fatalf("expected 3 chunk children, got %d", len(tree.children))
	}

	readBack := make([]byte, len(data))
	if err := Read(b, 0, len(data), readBack); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(readBack, data) {
		t.Fatalf("read-back data does not match original")
	}
}

func TestSliceAcrossChunkBoundary(t *testing.T) {
	data := make([]byte, 8193)
	for i := range data {
		data[i] = byte(i)
	}
	b := Build(data)

	// slice(4095, 4098) straddles the boundary between chunk 0 and chunk 1.
	sub, err := Slice(b, 4095, 4098)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	l, err := Len(sub)
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if l != 3 {
		t.Fatalf("Len(slice) = %d, want 3", l)
	}
	got := make([]byte, 3)
	if err := Read(sub, 0, 3, got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, data[4095:4098]) {
		t.Fatalf("slice content mismatch: got %v, want %v", got, data[4095:4098])
	}
}

func TestSliceOutOfRange(t *testing.T) {
	b := Build([]byte("short"))
	if _, err := Slice(b, 0, 100); !cell.IsKind(err, cell.KindIndexOutOfBounds) {
		t.Fatalf("expected IndexOutOfBounds, got %v", err)
	}
}

func TestAppendConcatenates(t *testing.T) {
	a := Build([]byte("hello "))
	b := Build([]byte("world"))
	combined, err := Append(a, b)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	l, _ := Len(combined)
	got := make([]byte, l)
	if err := Read(combined, 0, l, got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "hello world" {
		t.Fatalf("Append result = %q, want %q", got, "hello world")
	}
}

func TestReplaceSlice(t *testing.T) {
	b := Build([]byte("hello world"))
	replacement := Build([]byte("WORLD"))
	out, err := ReplaceSlice(b, 6, replacement)
	if err != nil {
		t.Fatalf("ReplaceSlice: %v", err)
	}
	l, _ := Len(out)
	got := make([]byte, l)
	if err := Read(out, 0, l, got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "hello WORLD" {
		t.Fatalf("ReplaceSlice result = %q, want %q", got, "hello WORLD")
	}
}

func TestTreeEncodeDecodeRoundTrip(t *testing.T) {
	data := make([]byte, 20000)
	for i := range data {
		data[i] = byte(i * 7)
	}
	b := Build(data)
	enc := cell.Encode(b)
	decoded, err := cell.Decode(enc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(cell.Encode(decoded)) != string(enc) {
		t.Fatalf("decoded tree did not re-encode identically")
	}
	l, err := Len(decoded)
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if l != len(data) {
		t.Fatalf("decoded length = %d, want %d", l, len(data))
	}
}

func TestChunkSizedBlobMustBeFlat(t *testing.T) {
	// A tree node with total length at or under ChunkSize is never
	// canonical: it must be a flat cell.Blob instead.
	oneChunk := make([]byte, cell.ChunkSize)
	b := Build(oneChunk)
	if _, ok := b.(*cell.Blob); !ok {
		t.Fatalf("exactly one chunk's worth of data must build a flat *cell.Blob")
	}
}
