// Package digest provides the content hash used to identify every cell.
package digest

import (
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/sha3"
)

// Size is the length in bytes of a Hash.
const Size = 32

// Hash is the SHA3-256 digest of a cell's canonical encoding.
//
// Hash doubles as a cell's identity and as the key under which its encoding
// is stored in a content-addressable store.
type Hash [Size]byte

// Zero is the all-zero hash. No valid encoding hashes to Zero; bundle import
// and the gRPC client reject it as an invalid hash.
var Zero Hash

// Sum returns the SHA3-256 digest of data.
func Sum(data []byte) Hash {
	return Hash(sha3.Sum256(data))
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the all-zero sentinel.
func (h Hash) IsZero() bool {
	return h == Zero
}

// Less gives Hash a total order, used to keep collections of hashes
// (e.g. bundle manifests) in a deterministic, content-derived order.
func (h Hash) Less(other Hash) bool {
	for i := range h {
		if h[i] != other[i] {
			return h[i] < other[i]
		}
	}
	return false
}

// Nibble returns the 4-bit fragment of h starting at bit offset shift,
// counting from the most significant bit. shift must be a multiple of 4
// and less than Size*8.
func (h Hash) Nibble(shift int) int {
	byteIndex := shift / 8
	b := h[byteIndex]
	if shift%8 == 0 {
		return int(b >> 4)
	}
	return int(b & 0x0F)
}

// Parse decodes a lowercase hex string into a Hash.
func Parse(s string) (Hash, error) {
	if len(s) != Size*2 {
		return Hash{}, errors.New("digest: wrong hash string length")
	}
	var h Hash
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return Hash{}, err
	}
	return h, nil
}
