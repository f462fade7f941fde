package cell

// Symbol is a short ASCII name cell, identical in shape to Keyword but
// tagged distinctly so the two kinds are never confused during decode.
type Symbol struct {
	noRefs
	cacheBox
	name string
}

// NewSymbol wraps name as a Symbol cell.
func NewSymbol(name string) *Symbol { return &Symbol{name: name} }

func (s *Symbol) Name() string { return s.name }

func (s *Symbol) Tag() byte { return TagSymbol }

func (s *Symbol) Encode(buf []byte) []byte {
	buf = append(buf, TagSymbol)
	return s.EncodeRaw(buf)
}

func (s *Symbol) EncodeRaw(buf []byte) []byte {
	buf = WriteVLC(buf, uint64(len(s.name)))
	return append(buf, s.name...)
}

func (s *Symbol) EstimatedEncodingSize() int { return 1 + MaxVLCLength + len(s.name) }

func (s *Symbol) Hash() Hash {
	if h, ok := s.getHash(); ok {
		return h
	}
	h := ComputeHash(s)
	s.setHash(h)
	return h
}

func (s *Symbol) IsEmbedded() bool {
	return 1+VLCLength(uint64(len(s.name)))+len(s.name) <= EmbeddingLimit
}

func (s *Symbol) MemorySize() uint64 {
	if s.IsEmbedded() {
		return 0
	}
	return uint64(1 + VLCLength(uint64(len(s.name))) + len(s.name))
}

func (s *Symbol) UpdateRefs(func(Ref) Ref) Cell { return s }

func (s *Symbol) Equals(other Cell) bool {
	o, ok := other.(*Symbol)
	return ok && o.name == s.name
}

func decodeSymbol(data []byte, pos int) (Cell, int, error) {
	n, next, err := ReadVLC(data, pos)
	if err != nil {
		return nil, 0, err
	}
	if n > MaxNameLength {
		return nil, 0, BadFormat("CELL-SYMBOL-TOO-LONG", "symbol name exceeds maximum length")
	}
	end := next + int(n)
	if end < next || end > len(data) {
		return nil, 0, BadFormat("CELL-SYMBOL-TRUNCATED", "truncated symbol payload")
	}
	return NewSymbol(string(data[next:end])), end, nil
}
