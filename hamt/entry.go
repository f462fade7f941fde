// Package hamt implements the persistent 16-way hash-array-mapped trie
// that backs both HashMap and HashSet: MapLeaf (a small sorted array of
// entries) and MapTree (a 16-slot bitmap-indexed branch node), plus the
// thin Set view over Map with the TRUE sentinel.
package hamt

import (
	"bytes"
	"sort"

	"github.com/stratumlabs/strata/cell"
)

// MaxShift is the bit offset at which trie descent stops: only the top 64
// bits of a key's 256-bit hash are used to route through MapTree levels.
// Keys whose hashes still collide at this depth fall into an oversized
// MapLeaf acting as a collision list, per spec.
const MaxShift = 64

// entry is one key/value pair held by a MapLeaf, along with the key's
// cached hash (used for ordering and trie routing without re-hashing).
type entry struct {
	key   cell.Ref
	value cell.Ref
	hash  cell.Hash
}

func newEntry(key, value cell.Cell) entry {
	return entry{key: cell.NewRef(key), value: cell.NewRef(value), hash: key.Hash()}
}

// compareKeys gives cells a total order for canonical leaf ordering:
// primarily by content hash, and (in the astronomically unlikely case of a
// hash collision between distinct keys) by canonical encoding bytes, so
// ordering never depends on construction order.
func compareKeys(a, b cell.Cell) int {
	ah, bh := a.Hash(), b.Hash()
	if ah != bh {
		if ah.Less(bh) {
			return -1
		}
		return 1
	}
	return bytes.Compare(cell.Encode(a), cell.Encode(b))
}

// resolveKey returns the key cell for an entry, failing with MissingData if it
// is a dehydrated ref this package cannot rehydrate on its own (hamt
// operates purely in-memory; callers that may encounter dehydrated subtrees
// should rehydrate the relevant ref via Ref.GetValue before descending).
func resolveKey(e entry) (cell.Cell, error) {
	k, ok := e.key.Peek()
	if !ok {
		return nil, cell.MissingData(e.key.Hash())
	}
	return k, nil
}

// findEntry returns the index of key within a hash-sorted entries slice and
// whether it is present, using hash order for the binary search and
// compareKeys only to break a true hash collision.
func findEntry(entries []entry, key cell.Cell) (int, bool, error) {
	h := key.Hash()
	lo := sort.Search(len(entries), func(i int) bool { return !entries[i].hash.Less(h) })
	for i := lo; i < len(entries) && entries[i].hash == h; i++ {
		k, err := resolveKey(entries[i])
		if err != nil {
			return 0, false, err
		}
		if k.Equals(key) {
			return i, true, nil
		}
	}
	return lo, false, nil
}

// insertionIndex returns the index at which key should be inserted to keep
// entries in canonical order.
func insertionIndex(entries []entry, key cell.Cell) (int, error) {
	h := key.Hash()
	lo := sort.Search(len(entries), func(i int) bool { return !entries[i].hash.Less(h) })
	for lo < len(entries) && entries[lo].hash == h {
		k, err := resolveKey(entries[lo])
		if err != nil {
			return 0, err
		}
		if compareKeys(key, k) < 0 {
			break
		}
		lo++
	}
	return lo, nil
}
