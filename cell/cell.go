// Package cell implements the immutable, content-addressed value model: the
// canonical binary encoding, the tag table, the primitive cell kinds, and
// the Ref abstraction that stitches cells together across the in-memory/
// on-disk boundary. See SPEC_FULL.md for the full contract.
package cell

import (
	"github.com/stratumlabs/strata/digest"
)

// Hash is a cell's content hash: the SHA3-256 digest of its canonical
// encoding. It is a type alias for digest.Hash so that store implementations
// (which must not depend on this package) and cell code (which must) share
// one representation with no import cycle.
type Hash = digest.Hash

// Tunable constants fixed by the spec. None of these are configurable:
// changing any of them changes every hash computed downstream.
const (
	// EmbeddingLimit is the largest canonical encoding, in bytes, that is
	// inlined into a parent's encoding rather than referenced by hash.
	EmbeddingLimit = 140
	// ChunkSize is the size in bytes of a blob tree's leaf chunks.
	ChunkSize = 4096
	// MapLeafMax is the largest number of entries a MapLeaf may hold before
	// it must split into a MapTree.
	MapLeafMax = 8
	// MapBranching is the fan-out of a MapTree node.
	MapBranching = 16
	// VectorBranching is the fan-out of a Vector's internal tree.
	VectorBranching = 16
)

// Cell is the universal interface implemented by every value in the data
// model. Cells are immutable after construction; every mutating operation on
// a concrete cell type returns a new cell instead.
type Cell interface {
	// Tag returns the byte identifying this cell's kind.
	Tag() byte
	// Encode appends this cell's full canonical encoding (tag byte then
	// payload) to buf and returns the extended slice.
	Encode(buf []byte) []byte
	// EncodeRaw appends this cell's payload only, omitting the tag byte.
	// Used when the tag is implied by context (e.g. a Set's payload is its
	// underlying Map's raw payload).
	EncodeRaw(buf []byte) []byte
	// EstimatedEncodingSize returns an upper-bound estimate of Encode's
	// output length, used to pre-size buffers.
	EstimatedEncodingSize() int
	// Hash returns the cell's content hash. The primitive kinds that embed
	// cacheBox cache it after the first call; Bool and the container kinds
	// (maps, sets, vectors, blob trees, records) recompute it on every call.
	Hash() Hash
	// IsEmbedded reports whether this cell's canonical encoding is small
	// enough (<= EmbeddingLimit bytes) to be inlined into a parent's
	// encoding rather than referenced by hash.
	IsEmbedded() bool
	// MemorySize estimates the cell's total memory footprint: zero if
	// embedded, else its own encoding length plus the memory size of every
	// distinct-by-hash non-embedded descendant, each counted once.
	MemorySize() uint64
	// RefCount returns the number of child references this cell holds.
	RefCount() int
	// GetRef returns the i'th child reference, 0 <= i < RefCount().
	GetRef(i int) Ref
	// UpdateRefs returns a structurally-equal cell whose child references
	// have each been passed through fn.
	UpdateRefs(fn func(Ref) Ref) Cell
	// Equals reports canonical equality: true iff the two cells' canonical
	// encodings are byte-identical.
	Equals(other Cell) bool
}

// Encode is a free function form of Cell.Encode, convenient for computing a
// hash without allocating a receiver-bound closure.
func Encode(c Cell) []byte {
	return c.Encode(make([]byte, 0, c.EstimatedEncodingSize()))
}

// ComputeHash hashes a cell's canonical encoding. Concrete cell types call
// this from their Hash() method and cache the result.
func ComputeHash(c Cell) Hash {
	return digest.Sum(Encode(c))
}

// ComputeIsEmbedded reports whether c's canonical encoding fits within
// EmbeddingLimit. Concrete types with a cheap size bound may special-case
// this; the general form is used as the deciding definition.
func ComputeIsEmbedded(c Cell) bool {
	return len(Encode(c)) <= EmbeddingLimit
}

// ComputeMemorySize implements the recursive, dedup-by-hash memory size
// definition shared by every cell kind.
func ComputeMemorySize(c Cell) uint64 {
	seen := make(map[Hash]struct{})
	var walk func(Cell) uint64
	walk = func(cc Cell) uint64 {
		if cc.IsEmbedded() {
			return 0
		}
		h := cc.Hash()
		if _, ok := seen[h]; ok {
			return 0
		}
		seen[h] = struct{}{}
		size := uint64(len(Encode(cc)))
		for i := 0; i < cc.RefCount(); i++ {
			r := cc.GetRef(i)
			if v, ok := r.Peek(); ok {
				size += walk(v)
			}
		}
		return size
	}
	return walk(c)
}

// Decode parses a single canonical cell from data, requiring data to be
// consumed in full. Any deviation from the canonical form is a BadFormat
// error.
func Decode(data []byte) (Cell, error) {
	c, pos, err := DecodeAt(data, 0)
	if err != nil {
		return nil, err
	}
	if pos != len(data) {
		return nil, BadFormat("CELL-TRAILING-BYTES", "trailing bytes after canonical encoding")
	}
	return c, nil
}

// DecodeAt parses a single canonical cell starting at data[pos], returning
// the position just past its encoding.
func DecodeAt(data []byte, pos int) (Cell, int, error) {
	if pos >= len(data) {
		return nil, 0, BadFormat("CELL-EOF", "unexpected end of input reading tag byte")
	}
	tag := data[pos]
	fn, ok := decoderFor(tag)
	if !ok {
		return nil, 0, BadFormat("CELL-UNKNOWN-TAG", "unknown tag byte")
	}
	return fn(data, pos+1)
}

// EncodeChild appends the canonical child-reference encoding of r to buf:
// the child's own encoding if embedded, else a ref-tag followed by its
// 32-byte hash.
func EncodeChild(buf []byte, r Ref) []byte {
	if r.embedded {
		return r.value.Encode(buf)
	}
	buf = append(buf, TagRef)
	return append(buf, r.hash[:]...)
}

// DecodeChild parses a child reference written by EncodeChild.
func DecodeChild(data []byte, pos int) (Ref, int, error) {
	if pos >= len(data) {
		return Ref{}, 0, BadFormat("CELL-EOF", "unexpected end of input reading child reference")
	}
	if data[pos] == TagRef {
		pos++
		if pos+digest.Size > len(data) {
			return Ref{}, 0, BadFormat("CELL-REF-TRUNCATED", "truncated hash reference")
		}
		var h Hash
		copy(h[:], data[pos:pos+digest.Size])
		return RefFromHash(h), pos + digest.Size, nil
	}
	child, next, err := DecodeAt(data, pos)
	if err != nil {
		return Ref{}, 0, err
	}
	if !child.IsEmbedded() {
		return Ref{}, 0, BadFormat("CELL-NONCANONICAL-EMBED", "non-embeddable cell appeared inline instead of as a hash reference")
	}
	return NewRef(child), next, nil
}
