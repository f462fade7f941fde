// Package blob implements the chunked physical variant of a byte-sequence
// cell: a balanced tree of 4096-byte chunk leaves for sequences too long to
// be a single flat cell.Blob. Every non-leaf node has between 2 and 16
// children, and every subtree's length is a multiple of the chunk size
// except possibly the rightmost.
//
// Operations take and return cell.Cell rather than a package-local type:
// a blob value is either a flat *cell.Blob (at most one chunk) or a
// *Tree (more than one chunk), and every function here accepts either.
package blob

import (
	"github.com/stratumlabs/strata/cell"
)

// Tree is the chunked physical variant: a VLC total length followed by its
// children, each either another Tree or a flat chunk-sized cell.Blob.
type Tree struct {
	length   int
	children []cell.Ref
}

func (t *Tree) Tag() byte { return cell.TagBlobTree }

func (t *Tree) Encode(buf []byte) []byte {
	buf = append(buf, cell.TagBlobTree)
	return t.EncodeRaw(buf)
}

func (t *Tree) EncodeRaw(buf []byte) []byte {
	buf = cell.WriteVLC(buf, uint64(t.length))
	buf = cell.WriteVLC(buf, uint64(len(t.children)))
	for _, c := range t.children {
		buf = cell.EncodeChild(buf, c)
	}
	return buf
}

func (t *Tree) EstimatedEncodingSize() int {
	size := 1 + 2*cell.MaxVLCLength
	for _, c := range t.children {
		if v, ok := c.Peek(); ok && v.IsEmbedded() {
			size += v.EstimatedEncodingSize()
		} else {
			size += 1 + 32
		}
	}
	return size
}

func (t *Tree) Hash() cell.Hash    { return cell.ComputeHash(t) }
func (t *Tree) IsEmbedded() bool   { return cell.ComputeIsEmbedded(t) }
func (t *Tree) MemorySize() uint64 { return cell.ComputeMemorySize(t) }
func (t *Tree) RefCount() int      { return len(t.children) }
func (t *Tree) GetRef(i int) cell.Ref {
	return t.children[i]
}

func (t *Tree) UpdateRefs(fn func(cell.Ref) cell.Ref) cell.Cell {
	out := make([]cell.Ref, len(t.children))
	for i, c := range t.children {
		out[i] = fn(c)
	}
	return &Tree{length: t.length, children: out}
}

func (t *Tree) Equals(other cell.Cell) bool {
	o, ok := other.(*Tree)
	if !ok {
		return false
	}
	return t.Hash() == o.Hash()
}

// Len returns the number of bytes in b, whether flat or chunked.
func Len(b cell.Cell) (int, error) {
	switch v := b.(type) {
	case *cell.Blob:
		return v.Len(), nil
	case *Tree:
		return v.length, nil
	default:
		return 0, cell.Unsupported("BLOB-NOT-A-BLOB", "value is not a blob")
	}
}

// Build assembles the canonical blob representation of data: a flat
// *cell.Blob if it fits in one chunk, otherwise a balanced *Tree.
func Build(data []byte) cell.Cell {
	if len(data) <= cell.ChunkSize {
		return cell.NewBlob(data)
	}
	leaves := make([]cell.Cell, 0, (len(data)+cell.ChunkSize-1)/cell.ChunkSize)
	for off := 0; off < len(data); off += cell.ChunkSize {
		end := off + cell.ChunkSize
		if end > len(data) {
			end = len(data)
		}
		leaves = append(leaves, cell.NewBlob(data[off:end]))
	}
	return buildLevel(leaves)
}

// buildLevel groups leaves (already-built chunk-sized cells, each exactly
// ChunkSize bytes except possibly the last) into a balanced tree with
// branching 2-16 per node, matching the shape a fully rebalanced Append
// would produce.
func buildLevel(nodes []cell.Cell) cell.Cell {
	if len(nodes) == 1 {
		return nodes[0]
	}
	for len(nodes) > 16 {
		next := make([]cell.Cell, 0, (len(nodes)+15)/16)
		for i := 0; i < len(nodes); i += 16 {
			end := i + 16
			if end > len(nodes) {
				end = len(nodes)
			}
			next = append(next, groupNode(nodes[i:end]))
		}
		nodes = next
	}
	return groupNode(nodes)
}

func groupNode(nodes []cell.Cell) cell.Cell {
	if len(nodes) == 1 {
		return nodes[0]
	}
	length := 0
	children := make([]cell.Ref, len(nodes))
	for i, n := range nodes {
		l, _ := Len(n)
		length += l
		children[i] = cell.NewRef(n)
	}
	return &Tree{length: length, children: children}
}

// Read bulk-copies count bytes starting at pos into dest.
func Read(b cell.Cell, pos, count int, dest []byte) error {
	switch v := b.(type) {
	case *cell.Blob:
		if pos < 0 || pos+count > v.Len() {
			return cell.IndexOutOfBounds("BLOB-RANGE", "blob read out of range")
		}
		copy(dest, v.Bytes()[pos:pos+count])
		return nil
	case *Tree:
		if pos < 0 || pos+count > v.length {
			return cell.IndexOutOfBounds("BLOB-RANGE", "blob read out of range")
		}
		written := 0
		offset := 0
		for _, c := range v.children {
			child, ok := c.Peek()
			if !ok {
				return cell.MissingData(c.Hash())
			}
			l, err := Len(child)
			if err != nil {
				return err
			}
			childStart := offset
			childEnd := offset + l
			offset = childEnd
			if childEnd <= pos || childStart >= pos+count {
				continue
			}
			readStart := max(pos, childStart) - childStart
			readEnd := min(pos+count, childEnd) - childStart
			if err := Read(child, readStart, readEnd-readStart, dest[written:written+(readEnd-readStart)]); err != nil {
				return err
			}
			written += readEnd - readStart
		}
		return nil
	default:
		return cell.Unsupported("BLOB-NOT-A-BLOB", "value is not a blob")
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Slice returns the [start, end) sub-sequence of b. When the range covers
// exactly one existing child, that child is returned as is. Otherwise the
// selected bytes are copied and rebuilt into the canonical shape with Build,
// so no chunks of b are shared with the result.
func Slice(b cell.Cell, start, end int) (cell.Cell, error) {
	length, err := Len(b)
	if err != nil {
		return nil, err
	}
	if start < 0 || end < start || end > length {
		return nil, cell.IndexOutOfBounds("BLOB-RANGE", "blob slice out of range")
	}
	count := end - start
	switch v := b.(type) {
	case *cell.Blob:
		return cell.NewBlob(v.Bytes()[start:end]), nil
	case *Tree:
		var shared []cell.Cell
		offset := 0
		for _, c := range v.children {
			child, ok := c.Peek()
			if !ok {
				return nil, cell.MissingData(c.Hash())
			}
			l, err := Len(child)
			if err != nil {
				return nil, err
			}
			childStart, childEnd := offset, offset+l
			offset = childEnd
			if childEnd <= start || childStart >= end {
				continue
			}
			if childStart >= start && childEnd <= end {
				shared = append(shared, child)
				continue
			}
			sub, err := Slice(child, max(0, start-childStart), min(l, end-childStart))
			if err != nil {
				return nil, err
			}
			shared = append(shared, sub)
		}
		if len(shared) == 1 {
			return shared[0], nil
		}
		return rebuildFlattened(shared, count)
	default:
		return nil, cell.Unsupported("BLOB-NOT-A-BLOB", "value is not a blob")
	}
}

// rebuildFlattened re-chunks a list of pieces that may not individually be
// chunk-sized (partial head/tail) into the canonical chunked shape, since
// a Tree's non-rightmost children must each be exactly ChunkSize.
func rebuildFlattened(pieces []cell.Cell, total int) (cell.Cell, error) {
	buf := make([]byte, 0, total)
	for _, p := range pieces {
		l, err := Len(p)
		if err != nil {
			return nil, err
		}
		chunk := make([]byte, l)
		if err := Read(p, 0, l, chunk); err != nil {
			return nil, err
		}
		buf = append(buf, chunk...)
	}
	return Build(buf), nil
}

// Append concatenates a and b.
func Append(a, b cell.Cell) (cell.Cell, error) {
	al, err := Len(a)
	if err != nil {
		return nil, err
	}
	bl, err := Len(b)
	if err != nil {
		return nil, err
	}
	if al == 0 {
		return b, nil
	}
	if bl == 0 {
		return a, nil
	}
	buf := make([]byte, al+bl)
	if err := Read(a, 0, al, buf[:al]); err != nil {
		return nil, err
	}
	if err := Read(b, 0, bl, buf[al:]); err != nil {
		return nil, err
	}
	return Build(buf), nil
}

// ReplaceSlice returns a copy of b with the sub-sequence at [pos,
// pos+Len(replacement)) replaced by replacement.
func ReplaceSlice(b cell.Cell, pos int, replacement cell.Cell) (cell.Cell, error) {
	length, err := Len(b)
	if err != nil {
		return nil, err
	}
	rl, err := Len(replacement)
	if err != nil {
		return nil, err
	}
	if pos < 0 || pos+rl > length {
		return nil, cell.IndexOutOfBounds("BLOB-RANGE", "blob replace out of range")
	}
	head, err := Slice(b, 0, pos)
	if err != nil {
		return nil, err
	}
	tail, err := Slice(b, pos+rl, length)
	if err != nil {
		return nil, err
	}
	mid, err := Append(head, replacement)
	if err != nil {
		return nil, err
	}
	return Append(mid, tail)
}

func decodeTree(data []byte, pos int) (cell.Cell, int, error) {
	length, next, err := cell.ReadVLC(data, pos)
	if err != nil {
		return nil, 0, err
	}
	if length <= uint64(cell.ChunkSize) {
		return nil, 0, cell.BadFormat("BLOB-TREE-NONCANONICAL", "blob tree of one chunk or less must be a flat blob")
	}
	n, next, err := cell.ReadVLC(data, next)
	if err != nil {
		return nil, 0, err
	}
	if n < 2 || n > uint64(cell.VectorBranching) {
		return nil, 0, cell.BadFormat("BLOB-TREE-BRANCHING", "blob tree branching factor out of range")
	}
	children := make([]cell.Ref, n)
	total := 0
	allResident := true
	for i := range children {
		c, p, err := cell.DecodeChild(data, next)
		if err != nil {
			return nil, 0, err
		}
		next = p
		children[i] = c
		v, ok := c.Peek()
		if !ok {
			allResident = false
			continue
		}
		l, err := Len(v)
		if err != nil {
			return nil, 0, err
		}
		total += l
		if i < len(children)-1 && l != cell.ChunkSize && !isSubtreeChunkMultiple(v) {
			return nil, 0, cell.BadFormat("BLOB-TREE-CHUNK-SIZE", "non-rightmost blob tree child is not chunk-aligned")
		}
	}
	if allResident && total != int(length) {
		return nil, 0, cell.BadFormat("BLOB-TREE-LENGTH", "declared blob tree length does not match its children")
	}
	return &Tree{length: int(length), children: children}, next, nil
}

func isSubtreeChunkMultiple(c cell.Cell) bool {
	l, err := Len(c)
	if err != nil {
		return false
	}
	return l%cell.ChunkSize == 0
}

func init() {
	cell.RegisterTag(cell.TagBlobTree, decodeTree)
}
