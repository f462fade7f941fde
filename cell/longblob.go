package cell

import "encoding/binary"

// LongBlob is the 8-byte physical representation of a 64-bit long,
// reinterpreted as its big-endian bytes. It is not itself a decodable cell
// kind — a flat Blob of the same 8 bytes is canonically a *Blob, and giving
// LongBlob its own tag would let two distinct in-memory types encode to
// identical bytes, which the canonicality invariant forbids. LongBlob is
// instead the fixed-width value representation Address is built from.
type LongBlob int64

// Bytes returns v's big-endian 8-byte representation.
func (v LongBlob) Bytes() [8]byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return b
}
