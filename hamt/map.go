package hamt

import (
	"github.com/stratumlabs/strata/cell"
)

// Map is the interface shared by MapLeaf and MapTree: a persistent 16-way
// HAMT. Updates return a new Map sharing structure with the receiver.
type Map interface {
	cell.Cell
	Count() int
	Get(key cell.Cell) (cell.Cell, bool, error)
	Assoc(key, value cell.Cell) (Map, error)
	Dissoc(key cell.Cell) (Map, error)
	ForEach(fn func(key, value cell.Cell) error) error
}

// Empty returns the canonical empty map.
func Empty() Map { return emptyLeaf }

// NewMap builds a map from the given key/value pairs, later pairs
// overwriting earlier ones with the same key, for convenience in tests and
// callers assembling a map from scratch rather than via repeated Assoc.
func NewMap(pairs ...[2]cell.Cell) (Map, error) {
	var m Map = Empty()
	for _, p := range pairs {
		var err error
		m, err = m.Assoc(p[0], p[1])
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// assocAt inserts or replaces key/value starting descent at shift.
func assocAt(m Map, shift int, key, value cell.Cell) (Map, error) {
	switch n := m.(type) {
	case *MapLeaf:
		idx, found, err := findEntry(n.entries, key)
		if err != nil {
			return nil, err
		}
		var newEntries []entry
		if found {
			newEntries = append([]entry(nil), n.entries...)
			newEntries[idx] = entry{key: n.entries[idx].key, value: cell.NewRef(value), hash: n.entries[idx].hash}
			return &MapLeaf{entries: newEntries}, nil
		}
		ins, err := insertionIndex(n.entries, key)
		if err != nil {
			return nil, err
		}
		newEntries = make([]entry, 0, len(n.entries)+1)
		newEntries = append(newEntries, n.entries[:ins]...)
		newEntries = append(newEntries, newEntry(key, value))
		newEntries = append(newEntries, n.entries[ins:]...)
		if len(newEntries) <= cell.MapLeafMax || shift >= MaxShift {
			return &MapLeaf{entries: newEntries}, nil
		}
		return buildNode(newEntries, shift)
	case *MapTree:
		return n.assocChild(n.shift, key, value)
	default:
		return nil, cell.Unsupported("HAMT-BAD-NODE", "not a hamt node")
	}
}

// dissocAt removes key, returning the resulting map and whether it was
// present.
func dissocAt(m Map, key cell.Cell) (Map, bool, error) {
	switch n := m.(type) {
	case *MapLeaf:
		idx, found, err := findEntry(n.entries, key)
		if err != nil || !found {
			return m, false, err
		}
		if len(n.entries) == 1 {
			return emptyLeaf, true, nil
		}
		newEntries := make([]entry, 0, len(n.entries)-1)
		newEntries = append(newEntries, n.entries[:idx]...)
		newEntries = append(newEntries, n.entries[idx+1:]...)
		return &MapLeaf{entries: newEntries}, true, nil
	case *MapTree:
		return n.dissocChild(key)
	default:
		return nil, false, cell.Unsupported("HAMT-BAD-NODE", "not a hamt node")
	}
}

// buildNode builds the smallest canonical node (leaf or tree) containing
// exactly entries, splitting by hash nibble starting at shift whenever the
// entry count exceeds MapLeafMax and further splitting remains possible.
// shift is advanced past any level at which every entry shares the same
// nibble, since a tree node with a single child is not canonical: it would
// carry no routing information a parent couldn't skip.
func buildNode(entries []entry, shift int) (Map, error) {
	for {
		if len(entries) <= cell.MapLeafMax || shift >= MaxShift {
			return &MapLeaf{entries: entries}, nil
		}
		var buckets [16][]entry
		for _, e := range entries {
			nib := e.hash.Nibble(shift)
			buckets[nib] = append(buckets[nib], e)
		}
		diverges := false
		for i := 0; i < 16; i++ {
			if len(buckets[i]) != 0 && len(buckets[i]) != len(entries) {
				diverges = true
				break
			}
		}
		if !diverges {
			shift += 4
			continue
		}
		var bitmap uint16
		var children []cell.Ref
		for i := 0; i < 16; i++ {
			if len(buckets[i]) == 0 {
				continue
			}
			child, err := buildNode(buckets[i], shift+4)
			if err != nil {
				return nil, err
			}
			bitmap |= 1 << uint(i)
			children = append(children, cell.NewRef(child))
		}
		return &MapTree{shift: shift, bitmap: bitmap, count: len(entries), children: children}, nil
	}
}

// MergeWith returns the union of a and b. For a key present in both,
// combine receives a's value and b's value; it returns the merged value and
// whether to keep the key at all.
func MergeWith(a, b Map, combine func(a, b cell.Cell) (cell.Cell, bool)) (Map, error) {
	return mergeAt(a, b, 0, combine)
}

// mergeAt merges a and b, combining colliding keys via combine. A false
// keep result from combine removes the key.
func mergeAt(a, b Map, shift int, combine func(a, b cell.Cell) (cell.Cell, bool)) (Map, error) {
	var result Map = a
	err := b.ForEach(func(k, v cell.Cell) error {
		existing, found, err := result.Get(k)
		if err != nil {
			return err
		}
		if !found {
			result, err = result.Assoc(k, v)
			return err
		}
		merged, keep := combine(existing, v)
		if !keep {
			result, err = result.Dissoc(k)
			return err
		}
		result, err = result.Assoc(k, merged)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
