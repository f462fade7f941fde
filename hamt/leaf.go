package hamt

import (
	"github.com/stratumlabs/strata/cell"
)

// MapLeaf is a sorted array of up to MapLeafMax entries. A leaf may hold
// more than MapLeafMax entries only as a collision list, when every entry's
// key hash is identical through MaxShift bits and no further split is
// possible.
type MapLeaf struct {
	entries []entry
}

// emptyLeaf is the canonical empty map.
var emptyLeaf = &MapLeaf{}

func (l *MapLeaf) Tag() byte { return cell.TagMapLeaf }

func (l *MapLeaf) Encode(buf []byte) []byte {
	buf = append(buf, cell.TagMapLeaf)
	return l.EncodeRaw(buf)
}

func (l *MapLeaf) EncodeRaw(buf []byte) []byte {
	buf = cell.WriteVLC(buf, uint64(len(l.entries)))
	for _, e := range l.entries {
		buf = cell.EncodeChild(buf, e.key)
		buf = cell.EncodeChild(buf, e.value)
	}
	return buf
}

func (l *MapLeaf) EstimatedEncodingSize() int {
	size := 1 + cell.MaxVLCLength
	for _, e := range l.entries {
		size += estimatedChildSize(e.key) + estimatedChildSize(e.value)
	}
	return size
}

func estimatedChildSize(r cell.Ref) int {
	if v, ok := r.Peek(); ok && v.IsEmbedded() {
		return v.EstimatedEncodingSize()
	}
	return 1 + 32
}

func (l *MapLeaf) Hash() cell.Hash { return cell.ComputeHash(l) }

func (l *MapLeaf) IsEmbedded() bool   { return cell.ComputeIsEmbedded(l) }
func (l *MapLeaf) MemorySize() uint64 { return cell.ComputeMemorySize(l) }

func (l *MapLeaf) RefCount() int { return 2 * len(l.entries) }

func (l *MapLeaf) GetRef(i int) cell.Ref {
	e := l.entries[i/2]
	if i%2 == 0 {
		return e.key
	}
	return e.value
}

func (l *MapLeaf) UpdateRefs(fn func(cell.Ref) cell.Ref) cell.Cell {
	if len(l.entries) == 0 {
		return l
	}
	out := make([]entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = entry{key: fn(e.key), value: fn(e.value), hash: e.hash}
	}
	return &MapLeaf{entries: out}
}

func (l *MapLeaf) Equals(other cell.Cell) bool {
	o, ok := other.(*MapLeaf)
	if !ok {
		return false
	}
	return l.Hash() == o.Hash()
}

func (l *MapLeaf) Count() int { return len(l.entries) }

func (l *MapLeaf) Get(key cell.Cell) (cell.Cell, bool, error) {
	i, found, err := findEntry(l.entries, key)
	if err != nil || !found {
		return nil, false, err
	}
	v, ok := l.entries[i].value.Peek()
	if !ok {
		return nil, false, cell.MissingData(l.entries[i].value.Hash())
	}
	return v, true, nil
}

func (l *MapLeaf) Assoc(key, value cell.Cell) (Map, error) {
	return assocAt(l, 0, key, value)
}

func (l *MapLeaf) Dissoc(key cell.Cell) (Map, error) {
	m, _, err := dissocAt(l, key)
	return m, err
}

func (l *MapLeaf) ForEach(fn func(key, value cell.Cell) error) error {
	for _, e := range l.entries {
		k, err := resolveKey(e)
		if err != nil {
			return err
		}
		v, ok := e.value.Peek()
		if !ok {
			return cell.MissingData(e.value.Hash())
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

func decodeMapLeaf(data []byte, pos int) (cell.Cell, int, error) {
	n, next, err := cell.ReadVLC(data, pos)
	if err != nil {
		return nil, 0, err
	}
	entries := make([]entry, 0, n)
	var prevHash cell.Hash
	var prevKey cell.Ref
	havePrev := false
	for i := uint64(0); i < n; i++ {
		kr, p, err := cell.DecodeChild(data, next)
		if err != nil {
			return nil, 0, err
		}
		next = p
		vr, p2, err := cell.DecodeChild(data, next)
		if err != nil {
			return nil, 0, err
		}
		next = p2
		h := kr.Hash()
		if havePrev {
			if prevHash.Less(h) {
				// strictly increasing hash, fine
			} else if prevHash == h {
				// A true hash collision: only here do we need the actual key
				// bytes to order the two entries.
				pk, ok := prevKey.Peek()
				if !ok {
					return nil, 0, cell.MissingData(prevKey.Hash())
				}
				kv, ok := kr.Peek()
				if !ok {
					return nil, 0, cell.MissingData(kr.Hash())
				}
				if compareKeys(pk, kv) >= 0 {
					return nil, 0, cell.BadFormat("HAMT-LEAF-ORDER", "map leaf collision entries out of canonical order")
				}
			} else {
				return nil, 0, cell.BadFormat("HAMT-LEAF-ORDER", "map leaf entries out of canonical order")
			}
		}
		entries = append(entries, entry{key: kr, value: vr, hash: h})
		prevHash = h
		prevKey = kr
		havePrev = true
	}
	if n > cell.MapLeafMax {
		// A leaf with more than MapLeafMax entries is only canonical as a
		// collision list: every entry must share the same hash.
		for i := 1; i < len(entries); i++ {
			if entries[i].hash != entries[0].hash {
				return nil, 0, cell.BadFormat("HAMT-LEAF-OVERSIZE", "oversized map leaf is not a valid collision list")
			}
		}
	}
	return &MapLeaf{entries: entries}, next, nil
}

func init() {
	cell.RegisterTag(cell.TagMapLeaf, decodeMapLeaf)
}
