package cell

// Str is a UTF-8 string cell. Like Blob, it is embedded only if its
// canonical encoding (tag + VLC byte-length + UTF-8 bytes) fits within
// EmbeddingLimit; longer strings still encode the same way but are only
// ever referenced by hash from a parent, never inlined.
type Str struct {
	noRefs
	cacheBox
	value string
}

// NewStr wraps v as a Str cell.
func NewStr(v string) *Str { return &Str{value: v} }

func (s *Str) Value() string { return s.value }

func (s *Str) Tag() byte { return TagString }

func (s *Str) Encode(buf []byte) []byte {
	buf = append(buf, TagString)
	return s.EncodeRaw(buf)
}

func (s *Str) EncodeRaw(buf []byte) []byte {
	buf = WriteVLC(buf, uint64(len(s.value)))
	return append(buf, s.value...)
}

func (s *Str) EstimatedEncodingSize() int { return 1 + MaxVLCLength + len(s.value) }

func (s *Str) Hash() Hash {
	if h, ok := s.getHash(); ok {
		return h
	}
	h := ComputeHash(s)
	s.setHash(h)
	return h
}

func (s *Str) IsEmbedded() bool {
	return 1+VLCLength(uint64(len(s.value)))+len(s.value) <= EmbeddingLimit
}

func (s *Str) MemorySize() uint64 {
	if s.IsEmbedded() {
		return 0
	}
	return uint64(1 + VLCLength(uint64(len(s.value))) + len(s.value))
}

func (s *Str) UpdateRefs(func(Ref) Ref) Cell { return s }

func (s *Str) Equals(other Cell) bool {
	o, ok := other.(*Str)
	return ok && o.value == s.value
}

func decodeString(data []byte, pos int) (Cell, int, error) {
	n, next, err := ReadVLC(data, pos)
	if err != nil {
		return nil, 0, err
	}
	end := next + int(n)
	if end < next || end > len(data) {
		return nil, 0, BadFormat("CELL-STRING-TRUNCATED", "truncated string payload")
	}
	return NewStr(string(data[next:end])), end, nil
}
