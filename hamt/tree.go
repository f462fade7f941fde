package hamt

import (
	"math/bits"

	"github.com/stratumlabs/strata/cell"
)

// MapTree is a 16-way branch node: a bitmap of occupied slots, a cached
// total entry count for the whole subtree (carried on the wire so
// collapse-canonicality can be checked without fetching every hash-ref
// child), and, for each occupied slot, a child Map node.
type MapTree struct {
	shift    int
	bitmap   uint16
	count    int
	children []cell.Ref // in ascending slot-index order, one per set bitmap bit
}

// slotIndex returns the position of nib's child in children and whether the
// slot is occupied; for an unoccupied slot the position is where a new child
// for nib belongs.
func (t *MapTree) slotIndex(nib int) (int, bool) {
	bit := uint16(1) << uint(nib)
	return bits.OnesCount16(t.bitmap & (bit - 1)), t.bitmap&bit != 0
}

func (t *MapTree) childAt(i int) (Map, error) {
	v, ok := t.children[i].Peek()
	if !ok {
		return nil, cell.MissingData(t.children[i].Hash())
	}
	m, ok := v.(Map)
	if !ok {
		return nil, cell.InvalidData("HAMT-TREE-CHILD-KIND", "map tree child is not a map node")
	}
	return m, nil
}

func (t *MapTree) Tag() byte { return cell.TagMapTree }

func (t *MapTree) Encode(buf []byte) []byte {
	buf = append(buf, cell.TagMapTree)
	return t.EncodeRaw(buf)
}

func (t *MapTree) EncodeRaw(buf []byte) []byte {
	buf = cell.WriteVLC(buf, uint64(t.count))
	buf = append(buf, byte(t.bitmap), byte(t.bitmap>>8))
	buf = cell.WriteVLC(buf, uint64(t.shift))
	for _, c := range t.children {
		buf = cell.EncodeChild(buf, c)
	}
	return buf
}

// Count returns the cached total entry count of the subtree, valid whether
// or not every child is currently resident.
func (t *MapTree) Count() int { return t.count }

func (t *MapTree) EstimatedEncodingSize() int {
	size := 1 + cell.MaxVLCLength + 2 + cell.MaxVLCLength
	for _, c := range t.children {
		size += estimatedChildSize(c)
	}
	return size
}

func (t *MapTree) Hash() cell.Hash       { return cell.ComputeHash(t) }
func (t *MapTree) IsEmbedded() bool      { return cell.ComputeIsEmbedded(t) }
func (t *MapTree) MemorySize() uint64    { return cell.ComputeMemorySize(t) }
func (t *MapTree) RefCount() int         { return len(t.children) }
func (t *MapTree) GetRef(i int) cell.Ref { return t.children[i] }

func (t *MapTree) UpdateRefs(fn func(cell.Ref) cell.Ref) cell.Cell {
	out := make([]cell.Ref, len(t.children))
	for i, c := range t.children {
		out[i] = fn(c)
	}
	return &MapTree{shift: t.shift, bitmap: t.bitmap, count: t.count, children: out}
}

func (t *MapTree) Equals(other cell.Cell) bool {
	o, ok := other.(*MapTree)
	if !ok {
		return false
	}
	return t.Hash() == o.Hash()
}

func (t *MapTree) Get(key cell.Cell) (cell.Cell, bool, error) {
	nib := key.Hash().Nibble(t.shift)
	i, ok := t.slotIndex(nib)
	if !ok {
		return nil, false, nil
	}
	child, err := t.childAt(i)
	if err != nil {
		return nil, false, err
	}
	return child.Get(key)
}

func (t *MapTree) Assoc(key, value cell.Cell) (Map, error) {
	return assocAt(t, t.shift, key, value)
}

func (t *MapTree) assocChild(shift int, key, value cell.Cell) (Map, error) {
	nib := key.Hash().Nibble(shift)
	i, ok := t.slotIndex(nib)
	if !ok {
		leaf := &MapLeaf{entries: []entry{newEntry(key, value)}}
		return t.withInsertedSlot(nib, i, leaf, t.count+1), nil
	}
	child, err := t.childAt(i)
	if err != nil {
		return nil, err
	}
	newChild, err := assocAt(child, shift+4, key, value)
	if err != nil {
		return nil, err
	}
	delta := newChild.Count() - child.Count()
	return t.withReplacedSlot(i, newChild, t.count+delta), nil
}

func (t *MapTree) withInsertedSlot(nib, i int, child Map, newCount int) *MapTree {
	children := make([]cell.Ref, len(t.children)+1)
	copy(children, t.children[:i])
	children[i] = cell.NewRef(child)
	copy(children[i+1:], t.children[i:])
	return &MapTree{shift: t.shift, bitmap: t.bitmap | (1 << uint(nib)), count: newCount, children: children}
}

func (t *MapTree) withReplacedSlot(i int, child Map, newCount int) *MapTree {
	children := append([]cell.Ref(nil), t.children...)
	children[i] = cell.NewRef(child)
	return &MapTree{shift: t.shift, bitmap: t.bitmap, count: newCount, children: children}
}

func (t *MapTree) Dissoc(key cell.Cell) (Map, error) {
	m, _, err := t.dissocChild(key)
	return m, err
}

func (t *MapTree) dissocChild(key cell.Cell) (Map, bool, error) {
	nib := key.Hash().Nibble(t.shift)
	i, ok := t.slotIndex(nib)
	if !ok {
		return t, false, nil
	}
	child, err := t.childAt(i)
	if err != nil {
		return t, false, err
	}
	newChild, removed, err := dissocAt(child, key)
	if err != nil {
		return t, false, err
	}
	if !removed {
		return t, false, nil
	}
	if newChild.Count() == 0 {
		children := make([]cell.Ref, len(t.children)-1)
		copy(children, t.children[:i])
		copy(children[i:], t.children[i+1:])
		shrunk := &MapTree{shift: t.shift, bitmap: t.bitmap &^ (1 << uint(nib)), count: t.count - 1, children: children}
		m, err := shrunk.collapse()
		return m, true, err
	}
	shrunk := t.withReplacedSlot(i, newChild, t.count-1)
	m, err := shrunk.collapse()
	return m, true, err
}

// collapse enforces the canonicality-mandatory collapse rules: a tree with
// a single child collapses to that child; a tree whose total entry count
// fits in a leaf collapses to a freshly-built leaf with identical content
// (and therefore identical hash) to any other construction of the same
// entries.
func (t *MapTree) collapse() (Map, error) {
	if len(t.children) == 0 {
		return emptyLeaf, nil
	}
	if len(t.children) == 1 {
		c, ok := t.children[0].Peek()
		if !ok {
			return nil, cell.MissingData(t.children[0].Hash())
		}
		m, ok := c.(Map)
		if !ok {
			return nil, cell.InvalidData("HAMT-TREE-CHILD-KIND", "map tree child is not a map node")
		}
		return m, nil
	}
	if t.count > 0 && t.count <= cell.MapLeafMax {
		entries, err := collectEntries(t)
		if err != nil {
			return nil, err
		}
		return &MapLeaf{entries: entries}, nil
	}
	return t, nil
}

func collectEntries(m Map) ([]entry, error) {
	var out []entry
	err := m.ForEach(func(k, v cell.Cell) error {
		out = append(out, newEntry(k, v))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortEntries(out)
	return out, nil
}

func sortEntries(entries []entry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0; j-- {
			a, b := entries[j-1], entries[j]
			if a.hash.Less(b.hash) {
				break
			}
			if a.hash == b.hash {
				ak, _ := resolveKey(a)
				bk, _ := resolveKey(b)
				if ak != nil && bk != nil && compareKeys(ak, bk) <= 0 {
					break
				}
			}
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}
}

func (t *MapTree) ForEach(fn func(key, value cell.Cell) error) error {
	for _, c := range t.children {
		v, ok := c.Peek()
		if !ok {
			return cell.MissingData(c.Hash())
		}
		m, ok := v.(Map)
		if !ok {
			return cell.InvalidData("HAMT-TREE-CHILD-KIND", "map tree child is not a map node")
		}
		if err := m.ForEach(fn); err != nil {
			return err
		}
	}
	return nil
}

func decodeMapTree(data []byte, pos int) (cell.Cell, int, error) {
	count64, next, err := cell.ReadVLC(data, pos)
	if err != nil {
		return nil, 0, err
	}
	if next+2 > len(data) {
		return nil, 0, cell.BadFormat("HAMT-TREE-TRUNCATED", "truncated map tree bitmap")
	}
	bitmap := uint16(data[next]) | uint16(data[next+1])<<8
	next += 2
	shift64, p, err := cell.ReadVLC(data, next)
	if err != nil {
		return nil, 0, err
	}
	next = p
	if bitmap == 0 {
		return nil, 0, cell.BadFormat("HAMT-TREE-EMPTY", "map tree with no occupied slots is not canonical")
	}
	n := bits.OnesCount16(bitmap)
	children := make([]cell.Ref, n)
	for i := 0; i < n; i++ {
		c, p2, err := cell.DecodeChild(data, next)
		if err != nil {
			return nil, 0, err
		}
		next = p2
		children[i] = c
	}
	if n == 1 {
		return nil, 0, cell.BadFormat("HAMT-TREE-UNCOLLAPSED", "single-child map tree must collapse to its child")
	}
	if count64 <= uint64(cell.MapLeafMax) {
		return nil, 0, cell.BadFormat("HAMT-TREE-UNCOLLAPSED", "undersized map tree must collapse to a leaf")
	}
	t := &MapTree{shift: int(shift64), bitmap: bitmap, count: int(count64), children: children}
	return t, next, nil
}

func init() {
	cell.RegisterTag(cell.TagMapTree, decodeMapTree)
}
