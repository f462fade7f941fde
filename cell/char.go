package cell

// Char is a single Unicode code point cell, encoded as tag + VLC of the
// rune's numeric value.
type Char struct {
	noRefs
	cacheBox
	value rune
}

// NewChar wraps v as a Char cell.
func NewChar(v rune) *Char { return &Char{value: v} }

func (c *Char) Value() rune { return c.value }

func (c *Char) Tag() byte { return TagChar }

func (c *Char) Encode(buf []byte) []byte {
	buf = append(buf, TagChar)
	return c.EncodeRaw(buf)
}

func (c *Char) EncodeRaw(buf []byte) []byte {
	return WriteVLC(buf, uint64(uint32(c.value)))
}

func (c *Char) EstimatedEncodingSize() int { return 1 + MaxVLCLength }

func (c *Char) Hash() Hash {
	if h, ok := c.getHash(); ok {
		return h
	}
	h := ComputeHash(c)
	c.setHash(h)
	return h
}

func (c *Char) IsEmbedded() bool   { return true }
func (c *Char) MemorySize() uint64 { return 0 }

func (c *Char) UpdateRefs(func(Ref) Ref) Cell { return c }

func (c *Char) Equals(other Cell) bool {
	o, ok := other.(*Char)
	return ok && o.value == c.value
}

func decodeChar(data []byte, pos int) (Cell, int, error) {
	v, next, err := ReadVLC(data, pos)
	if err != nil {
		return nil, 0, err
	}
	if v > 0x10FFFF {
		return nil, 0, BadFormat("CELL-CHAR-RANGE", "char value exceeds valid Unicode range")
	}
	return NewChar(rune(v)), next, nil
}
