package cell

// Keyword is a short ASCII name cell used as a map/record key in practice,
// encoded as tag + VLC byte-length + raw bytes. No interning is performed
// (spec Non-goals exclude thread-local interning): equal keywords are
// simply equal by content, same as any other cell.
type Keyword struct {
	noRefs
	cacheBox
	name string
}

// MaxNameLength bounds a Keyword or Symbol name so its encoding is always
// embedded; names in this domain are short identifiers, not general text.
// The bound is checked when decoding; NewKeyword and NewSymbol accept any
// name, and IsEmbedded reports the actual size of the encoding.
const MaxNameLength = 128

// NewKeyword wraps name as a Keyword cell.
func NewKeyword(name string) *Keyword { return &Keyword{name: name} }

func (k *Keyword) Name() string { return k.name }

func (k *Keyword) Tag() byte { return TagKeyword }

func (k *Keyword) Encode(buf []byte) []byte {
	buf = append(buf, TagKeyword)
	return k.EncodeRaw(buf)
}

func (k *Keyword) EncodeRaw(buf []byte) []byte {
	buf = WriteVLC(buf, uint64(len(k.name)))
	return append(buf, k.name...)
}

func (k *Keyword) EstimatedEncodingSize() int { return 1 + MaxVLCLength + len(k.name) }

func (k *Keyword) Hash() Hash {
	if h, ok := k.getHash(); ok {
		return h
	}
	h := ComputeHash(k)
	k.setHash(h)
	return h
}

func (k *Keyword) IsEmbedded() bool {
	return 1+VLCLength(uint64(len(k.name)))+len(k.name) <= EmbeddingLimit
}

func (k *Keyword) MemorySize() uint64 {
	if k.IsEmbedded() {
		return 0
	}
	return uint64(1 + VLCLength(uint64(len(k.name))) + len(k.name))
}

func (k *Keyword) UpdateRefs(func(Ref) Ref) Cell { return k }

func (k *Keyword) Equals(other Cell) bool {
	o, ok := other.(*Keyword)
	return ok && o.name == k.name
}

func decodeKeyword(data []byte, pos int) (Cell, int, error) {
	n, next, err := ReadVLC(data, pos)
	if err != nil {
		return nil, 0, err
	}
	if n > MaxNameLength {
		return nil, 0, BadFormat("CELL-KEYWORD-TOO-LONG", "keyword name exceeds maximum length")
	}
	end := next + int(n)
	if end < next || end > len(data) {
		return nil, 0, BadFormat("CELL-KEYWORD-TRUNCATED", "truncated keyword payload")
	}
	return NewKeyword(string(data[next:end])), end, nil
}
