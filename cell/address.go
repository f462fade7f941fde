package cell

import "math"

// Address is a non-negative 64-bit account index, encoded as its own tag
// followed directly by a VLC — the account-index domain never needs the
// full 8-byte LongBlob representation on the wire.
type Address struct {
	noRefs
	cacheBox
	value uint64
}

// NewAddress wraps v as an Address cell. v must be non-negative; callers
// constructing from untrusted input should prefer decoding, which rejects
// negative values as InvalidData.
func NewAddress(v uint64) *Address { return &Address{value: v} }

func (a *Address) Value() uint64 { return a.value }

// LongBlobBytes returns the address's fixed-width 8-byte representation,
// the conceptual long-blob an Address wraps, for external callers that
// need a fixed-width form rather than the VLC wire encoding.
func (a *Address) LongBlobBytes() [8]byte { return LongBlob(a.value).Bytes() }

func (a *Address) Tag() byte { return TagAddress }

func (a *Address) Encode(buf []byte) []byte {
	buf = append(buf, TagAddress)
	return a.EncodeRaw(buf)
}

func (a *Address) EncodeRaw(buf []byte) []byte {
	return WriteVLC(buf, a.value)
}

func (a *Address) EstimatedEncodingSize() int { return 1 + MaxVLCLength }

func (a *Address) Hash() Hash {
	if h, ok := a.getHash(); ok {
		return h
	}
	h := ComputeHash(a)
	a.setHash(h)
	return h
}

func (a *Address) IsEmbedded() bool   { return true }
func (a *Address) MemorySize() uint64 { return 0 }

func (a *Address) UpdateRefs(func(Ref) Ref) Cell { return a }

func (a *Address) Equals(other Cell) bool {
	o, ok := other.(*Address)
	return ok && o.value == a.value
}

func decodeAddress(data []byte, pos int) (Cell, int, error) {
	v, next, err := ReadVLC(data, pos)
	if err != nil {
		return nil, 0, err
	}
	if v > math.MaxInt64 {
		return nil, 0, InvalidData("CELL-ADDRESS-NEGATIVE", "address value is negative as a signed 64-bit long")
	}
	return NewAddress(v), next, nil
}
