package cell

// Long is a 64-bit signed integer cell, encoded as tag + VLC of its
// zigzag-mapped unsigned value so small magnitudes (positive or negative)
// stay short.
type Long struct {
	noRefs
	cacheBox
	value int64
}

// NewLong wraps v as a Long cell.
func NewLong(v int64) *Long { return &Long{value: v} }

func (l *Long) Value() int64 { return l.value }

func (l *Long) Tag() byte { return TagLong }

func zigzag(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func unzigzag(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

func (l *Long) Encode(buf []byte) []byte {
	buf = append(buf, TagLong)
	return l.EncodeRaw(buf)
}

func (l *Long) EncodeRaw(buf []byte) []byte {
	return WriteVLC(buf, zigzag(l.value))
}

func (l *Long) EstimatedEncodingSize() int { return 1 + MaxVLCLength }

func (l *Long) Hash() Hash {
	if h, ok := l.getHash(); ok {
		return h
	}
	h := ComputeHash(l)
	l.setHash(h)
	return h
}

func (l *Long) IsEmbedded() bool   { return true }
func (l *Long) MemorySize() uint64 { return 0 }

func (l *Long) UpdateRefs(func(Ref) Ref) Cell { return l }

func (l *Long) Equals(other Cell) bool {
	o, ok := other.(*Long)
	return ok && o.value == l.value
}

func decodeLong(data []byte, pos int) (Cell, int, error) {
	v, next, err := ReadVLC(data, pos)
	if err != nil {
		return nil, 0, err
	}
	return NewLong(unzigzag(v)), next, nil
}
