package hamt

import "github.com/stratumlabs/strata/cell"

// setSentinel is the shared TRUE value every set member maps to; set
// membership is just map membership with this value.
var setSentinel cell.Cell = cell.True

// Set is a hash set, represented internally as a Map from member to TRUE.
// Its own encoding omits the map's tag byte and reuses the map's raw
// payload.
type Set struct {
	m Map
}

// EmptySet is the canonical empty set.
func EmptySet() *Set { return &Set{m: Empty()} }

// NewSetFrom builds a set containing exactly the given members.
func NewSetFrom(members ...cell.Cell) (*Set, error) {
	s := EmptySet()
	for _, v := range members {
		var err error
		s, err = s.Include(v)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Tag returns TagSetLeaf or TagSetTree depending on the underlying map
// node's shape: a Set's tag alone (never shared with Map's own tags) tells
// a decoder which of the two raw payload shapes follows.
func (s *Set) Tag() byte {
	if _, ok := s.m.(*MapTree); ok {
		return cell.TagSetTree
	}
	return cell.TagSetLeaf
}

func (s *Set) Encode(buf []byte) []byte {
	buf = append(buf, s.Tag())
	return s.EncodeRaw(buf)
}

func (s *Set) EncodeRaw(buf []byte) []byte { return s.m.EncodeRaw(buf) }

func (s *Set) EstimatedEncodingSize() int { return 1 + s.m.EstimatedEncodingSize() }

func (s *Set) Hash() cell.Hash    { return cell.ComputeHash(s) }
func (s *Set) IsEmbedded() bool   { return cell.ComputeIsEmbedded(s) }
func (s *Set) MemorySize() uint64 { return cell.ComputeMemorySize(s) }
func (s *Set) RefCount() int         { return s.m.RefCount() }
func (s *Set) GetRef(i int) cell.Ref { return s.m.GetRef(i) }

func (s *Set) UpdateRefs(fn func(cell.Ref) cell.Ref) cell.Cell {
	updated := s.m.UpdateRefs(fn)
	m, ok := updated.(Map)
	if !ok {
		return s
	}
	return &Set{m: m}
}

func (s *Set) Equals(other cell.Cell) bool {
	o, ok := other.(*Set)
	if !ok {
		return false
	}
	return s.Hash() == o.Hash()
}

func (s *Set) Count() int { return s.m.Count() }

func (s *Set) Contains(v cell.Cell) (bool, error) {
	_, found, err := s.m.Get(v)
	return found, err
}

func (s *Set) Include(v cell.Cell) (*Set, error) {
	m, err := s.m.Assoc(v, setSentinel)
	if err != nil {
		return nil, err
	}
	return &Set{m: m}, nil
}

func (s *Set) Exclude(v cell.Cell) (*Set, error) {
	m, err := s.m.Dissoc(v)
	if err != nil {
		return nil, err
	}
	return &Set{m: m}, nil
}

func (s *Set) IncludeAll(vs ...cell.Cell) (*Set, error) {
	cur := s
	for _, v := range vs {
		var err error
		cur, err = cur.Include(v)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func (s *Set) ExcludeAll(vs ...cell.Cell) (*Set, error) {
	cur := s
	for _, v := range vs {
		var err error
		cur, err = cur.Exclude(v)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func (s *Set) IntersectAll(other *Set) (*Set, error) {
	result := EmptySet()
	err := s.m.ForEach(func(k, _ cell.Cell) error {
		in, err := other.Contains(k)
		if err != nil {
			return err
		}
		if !in {
			return nil
		}
		var incErr error
		result, incErr = result.Include(k)
		return incErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Set) ForEach(fn func(v cell.Cell) error) error {
	return s.m.ForEach(func(k, _ cell.Cell) error { return fn(k) })
}

func decodeSetLeaf(data []byte, pos int) (cell.Cell, int, error) {
	c, next, err := decodeMapLeaf(data, pos)
	if err != nil {
		return nil, 0, err
	}
	return finishSetDecode(c.(Map), next)
}

func decodeSetTree(data []byte, pos int) (cell.Cell, int, error) {
	c, next, err := decodeMapTree(data, pos)
	if err != nil {
		return nil, 0, err
	}
	return finishSetDecode(c.(Map), next)
}

func finishSetDecode(m Map, next int) (cell.Cell, int, error) {
	bad := false
	if err := m.ForEach(func(_, v cell.Cell) error {
		if !v.Equals(setSentinel) {
			bad = true
		}
		return nil
	}); err != nil {
		return nil, 0, err
	}
	if bad {
		return nil, 0, cell.InvalidData("HAMT-SET-NON-TRUE", "set entry has a non-TRUE value")
	}
	return &Set{m: m}, next, nil
}

func init() {
	cell.RegisterTag(cell.TagSetLeaf, decodeSetLeaf)
	cell.RegisterTag(cell.TagSetTree, decodeSetTree)
}
