// Package record implements the fixed-schema Record cell: an ordered
// tuple of values under a declared, process-wide-registered set of keys,
// encoded without key names (the schema is implicit in the tag byte).
package record

import (
	"fmt"

	"github.com/stratumlabs/strata/cell"
	"github.com/stratumlabs/strata/hamt"
)

// Schema is a registered, ordered set of keyword keys. Two records built
// from different Schemas are never equal, even with identical field
// values, because they carry different tags.
type Schema struct {
	tag  byte
	keys []string
}

// Keys returns the schema's ordered key names.
func (s *Schema) Keys() []string { return append([]string(nil), s.keys...) }

func (s *Schema) indexOf(key string) (int, bool) {
	for i, k := range s.keys {
		if k == key {
			return i, true
		}
	}
	return 0, false
}

var (
	schemas     [cell.RecordTagRangeSize]*Schema
	nextSchema  int
)

// RegisterSchema assigns the next available record tag to an ordered set
// of keys, mirroring cell.RegisterTag's build-time plugin registration
// style: a program gains the ability to decode a given record shape by
// registering its schema during init().
func RegisterSchema(keys ...string) (*Schema, error) {
	if nextSchema >= cell.RecordTagRangeSize {
		return nil, fmt.Errorf("record: exhausted the %d reserved record tags", cell.RecordTagRangeSize)
	}
	s := &Schema{tag: cell.TagRecordBase + byte(nextSchema), keys: append([]string(nil), keys...)}
	schemas[nextSchema] = s
	nextSchema++
	cell.RegisterTag(s.tag, s.decode)
	return s, nil
}

// Record is a fixed-schema ordered tuple of values.
type Record struct {
	schema *Schema
	fields []cell.Ref
}

// New builds a Record under schema with the given field values, in schema
// key order.
func New(schema *Schema, values ...cell.Cell) (*Record, error) {
	if len(values) != len(schema.keys) {
		return nil, cell.InvalidData("RECORD-ARITY", "value count does not match schema arity")
	}
	fields := make([]cell.Ref, len(values))
	for i, v := range values {
		fields[i] = cell.NewRef(v)
	}
	return &Record{schema: schema, fields: fields}, nil
}

func (r *Record) Schema() *Schema { return r.schema }

func (r *Record) Tag() byte { return r.schema.tag }

func (r *Record) Encode(buf []byte) []byte {
	buf = append(buf, r.schema.tag)
	return r.EncodeRaw(buf)
}

func (r *Record) EncodeRaw(buf []byte) []byte {
	for _, f := range r.fields {
		buf = cell.EncodeChild(buf, f)
	}
	return buf
}

func (r *Record) EstimatedEncodingSize() int {
	size := 1
	for _, f := range r.fields {
		if v, ok := f.Peek(); ok && v.IsEmbedded() {
			size += v.EstimatedEncodingSize()
		} else {
			size += 1 + 32
		}
	}
	return size
}

func (r *Record) Hash() cell.Hash    { return cell.ComputeHash(r) }
func (r *Record) IsEmbedded() bool   { return cell.ComputeIsEmbedded(r) }
func (r *Record) MemorySize() uint64 { return cell.ComputeMemorySize(r) }
func (r *Record) RefCount() int      { return len(r.fields) }
func (r *Record) GetRef(i int) cell.Ref { return r.fields[i] }

func (r *Record) UpdateRefs(fn func(cell.Ref) cell.Ref) cell.Cell {
	out := make([]cell.Ref, len(r.fields))
	for i, f := range r.fields {
		out[i] = fn(f)
	}
	return &Record{schema: r.schema, fields: out}
}

func (r *Record) Equals(other cell.Cell) bool {
	o, ok := other.(*Record)
	if !ok {
		return false
	}
	return r.Hash() == o.Hash()
}

// Get returns the value for key.
func (r *Record) Get(key string) (cell.Cell, bool, error) {
	i, ok := r.schema.indexOf(key)
	if !ok {
		return nil, false, nil
	}
	v, ok := r.fields[i].Peek()
	if !ok {
		return nil, false, cell.MissingData(r.fields[i].Hash())
	}
	return v, true, nil
}

// Assoc returns a new Record with key's field replaced by value. If key is
// not part of the schema, the record is upgraded to a general hamt.Map
// holding every schema field plus the new key.
func (r *Record) Assoc(key string, value cell.Cell) (cell.Cell, error) {
	i, ok := r.schema.indexOf(key)
	if ok {
		out := append([]cell.Ref(nil), r.fields...)
		out[i] = cell.NewRef(value)
		return &Record{schema: r.schema, fields: out}, nil
	}
	var m hamt.Map = hamt.Empty()
	for idx, k := range r.schema.keys {
		v, ok := r.fields[idx].Peek()
		if !ok {
			return nil, cell.MissingData(r.fields[idx].Hash())
		}
		var err error
		m, err = m.Assoc(cell.NewKeyword(k), v)
		if err != nil {
			return nil, err
		}
	}
	m, err := m.Assoc(cell.NewKeyword(key), value)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Schema) decode(data []byte, pos int) (cell.Cell, int, error) {
	fields := make([]cell.Ref, len(s.keys))
	next := pos
	for i := range fields {
		r, p, err := cell.DecodeChild(data, next)
		if err != nil {
			return nil, 0, err
		}
		next = p
		fields[i] = r
	}
	return &Record{schema: s, fields: fields}, next, nil
}
