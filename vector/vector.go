// Package vector implements the ordered, indexed Vector cell: a
// radix-16 tree of full leaf chunks plus a short tail holding the
// not-yet-batched remainder, giving O(log₁₆ n) Get, Append, and Assoc.
//
// Vector is self-similar: the same struct represents both the outermost
// value and every internal tree node, since the wire format has only one
// shape. Only the outermost instance is expected to carry a
// non-empty tail alongside a non-nil tree; every node reached by
// descending through children is, by construction, either a pure leaf
// (shift 0, elements in tail) or a pure branch (shift > 0, refs in
// children), never both.
package vector

import (
	"github.com/stratumlabs/strata/cell"
)

// Vector is the ordered-sequence cell.
type Vector struct {
	count    int
	shift    int // bit offset for routing through children; 0 at leaves
	tail     []cell.Ref
	children []cell.Ref
}

// Empty is the canonical empty vector.
func Empty() *Vector { return &Vector{} }

// NewVector builds a vector containing items in order.
func NewVector(items ...cell.Cell) (*Vector, error) {
	v := Empty()
	for _, it := range items {
		var err error
		v, err = v.Append(it)
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (v *Vector) Count() int { return v.count }

func (v *Vector) Tag() byte { return cell.TagVector }

func (v *Vector) Encode(buf []byte) []byte {
	buf = append(buf, cell.TagVector)
	return v.EncodeRaw(buf)
}

func (v *Vector) EncodeRaw(buf []byte) []byte {
	buf = cell.WriteVLC(buf, uint64(v.count))
	buf = cell.WriteVLC(buf, uint64(v.shift))
	buf = cell.WriteVLC(buf, uint64(len(v.tail)))
	for _, r := range v.tail {
		buf = cell.EncodeChild(buf, r)
	}
	buf = cell.WriteVLC(buf, uint64(len(v.children)))
	for _, r := range v.children {
		buf = cell.EncodeChild(buf, r)
	}
	return buf
}

func (v *Vector) EstimatedEncodingSize() int {
	size := 1 + 3*cell.MaxVLCLength
	for _, r := range v.tail {
		size += estimatedChildSize(r)
	}
	for _, r := range v.children {
		size += estimatedChildSize(r)
	}
	return size
}

func estimatedChildSize(r cell.Ref) int {
	if v, ok := r.Peek(); ok && v.IsEmbedded() {
		return v.EstimatedEncodingSize()
	}
	return 1 + 32
}

func (v *Vector) Hash() cell.Hash    { return cell.ComputeHash(v) }
func (v *Vector) IsEmbedded() bool   { return cell.ComputeIsEmbedded(v) }
func (v *Vector) MemorySize() uint64 { return cell.ComputeMemorySize(v) }

func (v *Vector) RefCount() int { return len(v.tail) + len(v.children) }

func (v *Vector) GetRef(i int) cell.Ref {
	if i < len(v.tail) {
		return v.tail[i]
	}
	return v.children[i-len(v.tail)]
}

func (v *Vector) UpdateRefs(fn func(cell.Ref) cell.Ref) cell.Cell {
	newTail := make([]cell.Ref, len(v.tail))
	for i, r := range v.tail {
		newTail[i] = fn(r)
	}
	newChildren := make([]cell.Ref, len(v.children))
	for i, r := range v.children {
		newChildren[i] = fn(r)
	}
	return &Vector{count: v.count, shift: v.shift, tail: newTail, children: newChildren}
}

func (v *Vector) Equals(other cell.Cell) bool {
	o, ok := other.(*Vector)
	if !ok {
		return false
	}
	return v.Hash() == o.Hash()
}

func (v *Vector) treeSize() int { return v.count - len(v.tail) }

// Get returns the element at index i.
func (v *Vector) Get(i int) (cell.Cell, error) {
	if i < 0 || i >= v.count {
		return nil, cell.IndexOutOfBounds("VECTOR-INDEX", "vector index out of bounds")
	}
	ts := v.treeSize()
	if i >= ts {
		return resolveRef(v.tail[i-ts])
	}
	node := v
	shift := v.shift
	for shift > 0 {
		nib := (i >> uint(shift)) & 0xF
		if nib >= len(node.children) {
			return nil, cell.InvalidData("VECTOR-TREE-SHAPE", "vector tree child index out of range")
		}
		child, err := resolveVectorChild(node.children[nib])
		if err != nil {
			return nil, err
		}
		node = child
		shift -= 4
	}
	leafIdx := i & 0xF
	if leafIdx >= len(node.tail) {
		return nil, cell.InvalidData("VECTOR-TREE-SHAPE", "vector leaf index out of range")
	}
	return resolveRef(node.tail[leafIdx])
}

func resolveRef(r cell.Ref) (cell.Cell, error) {
	c, ok := r.Peek()
	if !ok {
		return nil, cell.MissingData(r.Hash())
	}
	return c, nil
}

func resolveVectorChild(r cell.Ref) (*Vector, error) {
	c, ok := r.Peek()
	if !ok {
		return nil, cell.MissingData(r.Hash())
	}
	vv, ok := c.(*Vector)
	if !ok {
		return nil, cell.InvalidData("VECTOR-TREE-SHAPE", "vector tree child is not a vector node")
	}
	return vv, nil
}

// Append returns a new vector with val added at the end.
func (v *Vector) Append(val cell.Cell) (*Vector, error) {
	if len(v.tail) < cell.VectorBranching {
		newTail := append(append([]cell.Ref(nil), v.tail...), cell.NewRef(val))
		return &Vector{count: v.count + 1, shift: v.shift, children: v.children, tail: newTail}, nil
	}
	leaf := &Vector{count: len(v.tail), shift: 0, tail: append([]cell.Ref(nil), v.tail...)}
	var root *Vector
	if len(v.children) > 0 || v.shift > 0 {
		root = &Vector{count: v.treeSize(), shift: v.shift, children: v.children}
	}
	newRoot, newShift, err := insertLeaf(root, leaf)
	if err != nil {
		return nil, err
	}
	return &Vector{
		count:    v.count + 1,
		shift:    newShift,
		children: newRoot.children,
		tail:     []cell.Ref{cell.NewRef(val)},
	}, nil
}

// insertLeaf inserts a full leaf chunk as the next contiguous leaf of the
// tree rooted at root (nil meaning an empty tree), returning the new root
// and its shift.
func insertLeaf(root *Vector, leaf *Vector) (*Vector, int, error) {
	if root == nil {
		return &Vector{count: leaf.count, shift: 4, children: []cell.Ref{cell.NewRef(leaf)}}, 4, nil
	}
	capacity := 1 << uint(root.shift+4)
	if root.count >= capacity {
		grown := &Vector{count: root.count, shift: root.shift + 4, children: []cell.Ref{cell.NewRef(root)}}
		return insertLeafInto(grown, leaf)
	}
	return insertLeafInto(root, leaf)
}

func insertLeafInto(node *Vector, leaf *Vector) (*Vector, int, error) {
	if node.shift == 4 {
		newChildren := append(append([]cell.Ref(nil), node.children...), cell.NewRef(leaf))
		return &Vector{count: node.count + leaf.count, shift: node.shift, children: newChildren}, node.shift, nil
	}
	if len(node.children) == 0 {
		path := newPath(node.shift-4, leaf)
		return &Vector{count: node.count + leaf.count, shift: node.shift, children: []cell.Ref{cell.NewRef(path)}}, node.shift, nil
	}
	last := len(node.children) - 1
	lastChild, err := resolveVectorChild(node.children[last])
	if err != nil {
		return nil, 0, err
	}
	lastCapacity := 1 << uint(node.shift)
	newChildren := append([]cell.Ref(nil), node.children...)
	if lastChild.count < lastCapacity {
		newLast, _, err := insertLeafInto(lastChild, leaf)
		if err != nil {
			return nil, 0, err
		}
		newChildren[last] = cell.NewRef(newLast)
	} else {
		newChildren = append(newChildren, cell.NewRef(newPath(node.shift-4, leaf)))
	}
	return &Vector{count: node.count + leaf.count, shift: node.shift, children: newChildren}, node.shift, nil
}

// newPath wraps leaf in shift/4 levels of single-child branch nodes so it
// can be attached at the given shift.
func newPath(shift int, leaf *Vector) *Vector {
	if shift <= 0 {
		return leaf
	}
	return &Vector{count: leaf.count, shift: shift, children: []cell.Ref{cell.NewRef(newPath(shift-4, leaf))}}
}

// Assoc returns a new vector with the element at index i replaced by val.
func (v *Vector) Assoc(i int, val cell.Cell) (*Vector, error) {
	if i < 0 || i >= v.count {
		return nil, cell.IndexOutOfBounds("VECTOR-INDEX", "vector index out of bounds")
	}
	ts := v.treeSize()
	if i >= ts {
		newTail := append([]cell.Ref(nil), v.tail...)
		newTail[i-ts] = cell.NewRef(val)
		return &Vector{count: v.count, shift: v.shift, children: v.children, tail: newTail}, nil
	}
	newRoot, err := assocInTree(&Vector{count: ts, shift: v.shift, children: v.children}, v.shift, i, val)
	if err != nil {
		return nil, err
	}
	return &Vector{count: v.count, shift: v.shift, children: newRoot.children, tail: v.tail}, nil
}

func assocInTree(node *Vector, shift int, i int, val cell.Cell) (*Vector, error) {
	nib := (i >> uint(shift)) & 0xF
	if shift == 0 {
		if nib >= len(node.tail) {
			return nil, cell.InvalidData("VECTOR-TREE-SHAPE", "vector leaf index out of range")
		}
		out := append([]cell.Ref(nil), node.tail...)
		out[nib] = cell.NewRef(val)
		return &Vector{count: node.count, shift: 0, tail: out}, nil
	}
	if nib >= len(node.children) {
		return nil, cell.InvalidData("VECTOR-TREE-SHAPE", "vector tree child index out of range")
	}
	child, err := resolveVectorChild(node.children[nib])
	if err != nil {
		return nil, err
	}
	newChild, err := assocInTree(child, shift-4, i, val)
	if err != nil {
		return nil, err
	}
	out := append([]cell.Ref(nil), node.children...)
	out[nib] = cell.NewRef(newChild)
	return &Vector{count: node.count, shift: shift, children: out}, nil
}

// ForEach calls fn with every element in order.
func (v *Vector) ForEach(fn func(cell.Cell) error) error {
	for i := 0; i < v.count; i++ {
		c, err := v.Get(i)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

func decodeVector(data []byte, pos int) (cell.Cell, int, error) {
	count, next, err := cell.ReadVLC(data, pos)
	if err != nil {
		return nil, 0, err
	}
	shift, next, err := cell.ReadVLC(data, next)
	if err != nil {
		return nil, 0, err
	}
	tailLen, next, err := cell.ReadVLC(data, next)
	if err != nil {
		return nil, 0, err
	}
	tail := make([]cell.Ref, tailLen)
	for i := range tail {
		r, p, err := cell.DecodeChild(data, next)
		if err != nil {
			return nil, 0, err
		}
		next = p
		tail[i] = r
	}
	childCount, next, err := cell.ReadVLC(data, next)
	if err != nil {
		return nil, 0, err
	}
	children := make([]cell.Ref, childCount)
	for i := range children {
		r, p, err := cell.DecodeChild(data, next)
		if err != nil {
			return nil, 0, err
		}
		next = p
		children[i] = r
	}
	if tailLen > uint64(cell.VectorBranching) {
		return nil, 0, cell.BadFormat("VECTOR-TAIL-OVERSIZE", "vector tail exceeds branching factor")
	}
	return &Vector{count: int(count), shift: int(shift), tail: tail, children: children}, next, nil
}

func init() {
	cell.RegisterTag(cell.TagVector, decodeVector)
}
