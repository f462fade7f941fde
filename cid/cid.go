// Package cid derives content identifiers for cells: CIDv1, raw codec,
// sha3-256 multihash over the cell's canonical encoding, so a Hash can be
// exchanged as a standard, self-describing identifier outside this module.
package cid

import (
	gocid "github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/stratumlabs/strata/cell"
)

// CIDFor returns the CIDv1 (raw + sha3-256) for a cell's content hash.
func CIDFor(h cell.Hash) (gocid.Cid, error) {
	digest := h[:]
	mh, err := multihash.Encode(digest, multihash.SHA3_256)
	if err != nil {
		return gocid.Undef, err
	}
	return gocid.NewCidV1(gocid.Raw, mh), nil
}

// HashFromCID extracts the sha3-256 digest from a CID produced by CIDFor,
// failing if the CID is not raw+sha3-256 shaped.
func HashFromCID(c gocid.Cid) (cell.Hash, error) {
	var zero cell.Hash
	decoded, err := multihash.Decode(c.Hash())
	if err != nil {
		return zero, err
	}
	if decoded.Code != multihash.SHA3_256 {
		return zero, cell.BadFormat("CID-WRONG-HASH", "cid is not a sha3-256 multihash")
	}
	if len(decoded.Digest) != len(zero) {
		return zero, cell.BadFormat("CID-WRONG-LENGTH", "cid digest has the wrong length")
	}
	var h cell.Hash
	copy(h[:], decoded.Digest)
	return h, nil
}

// CIDForCell returns the CID for a cell's content hash, computing the hash
// if necessary.
func CIDForCell(c cell.Cell) (gocid.Cid, error) {
	return CIDFor(c.Hash())
}
