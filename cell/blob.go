package cell

// Blob is the flat physical variant of a byte-sequence cell: a VLC byte
// count followed by the raw bytes. It is used directly for sequences of at
// most ChunkSize bytes; longer sequences must canonically be represented as
// a chunk tree (package blob), never as a flat Blob — decodeBlob enforces
// that half of the dichotomy, and the blob package's tree decoder enforces
// the other.
type Blob struct {
	noRefs
	cacheBox
	data []byte
}

// NewBlob copies data into a new flat Blob cell.
func NewBlob(data []byte) *Blob {
	return &Blob{data: append([]byte(nil), data...)}
}

func (b *Blob) Bytes() []byte { return b.data }
func (b *Blob) Len() int      { return len(b.data) }

func (b *Blob) Tag() byte { return TagBlob }

func (b *Blob) Encode(buf []byte) []byte {
	buf = append(buf, TagBlob)
	return b.EncodeRaw(buf)
}

func (b *Blob) EncodeRaw(buf []byte) []byte {
	buf = WriteVLC(buf, uint64(len(b.data)))
	return append(buf, b.data...)
}

func (b *Blob) EstimatedEncodingSize() int { return 1 + MaxVLCLength + len(b.data) }

func (b *Blob) Hash() Hash {
	if h, ok := b.getHash(); ok {
		return h
	}
	h := ComputeHash(b)
	b.setHash(h)
	return h
}

func (b *Blob) IsEmbedded() bool {
	return 1+VLCLength(uint64(len(b.data)))+len(b.data) <= EmbeddingLimit
}

func (b *Blob) MemorySize() uint64 {
	if b.IsEmbedded() {
		return 0
	}
	return uint64(1 + VLCLength(uint64(len(b.data))) + len(b.data))
}

func (b *Blob) UpdateRefs(func(Ref) Ref) Cell { return b }

func (b *Blob) Equals(other Cell) bool {
	o, ok := other.(*Blob)
	if !ok {
		return false
	}
	return string(o.data) == string(b.data)
}

func decodeBlob(data []byte, pos int) (Cell, int, error) {
	n, next, err := ReadVLC(data, pos)
	if err != nil {
		return nil, 0, err
	}
	if n > ChunkSize {
		return nil, 0, BadFormat("CELL-BLOB-NONCANONICAL", "flat blob exceeds one chunk; must be encoded as a chunk tree")
	}
	end := next + int(n)
	if end < next || end > len(data) {
		return nil, 0, BadFormat("CELL-BLOB-TRUNCATED", "truncated blob payload")
	}
	return NewBlob(data[next:end]), end, nil
}
