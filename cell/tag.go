package cell

import "strconv"

// Tag byte assignments. Every cell kind has a disjoint tag; decoding an
// unrecognized tag is always a BadFormat error. Record schemas share one
// reserved range (TagRecordBase..TagRecordBase+RecordTagRangeSize-1),
// assigned at schema-registration time by the record package.
const (
	TagFalse    byte = 0x00
	TagTrue     byte = 0x01
	TagLong     byte = 0x02
	TagChar     byte = 0x03
	TagString   byte = 0x04
	TagBlob     byte = 0x05 // flat blob
	TagBlobTree byte = 0x06 // chunked blob, > one chunk
	TagAddress  byte = 0x07
	TagKeyword  byte = 0x08
	TagSymbol   byte = 0x09
	TagRef      byte = 0x0A // hash reference to a non-embedded child

	TagMapLeaf byte = 0x0B
	TagMapTree byte = 0x0C
	// TagSetLeaf and TagSetTree are a Set's own tags for the leaf/tree
	// shapes, distinct from TagMapLeaf/TagMapTree so the shape is never
	// ambiguous: a Set's payload is its underlying Map node's raw payload,
	// but the tag alone (not shared with Map) says which shape to expect.
	TagSetLeaf byte = 0x0D
	TagSetTree byte = 0x0E
	TagVector  byte = 0x0F

	// TagRecordBase is the first tag in the reserved record-schema range.
	// The record package assigns TagRecordBase+i to the i'th schema
	// registered in a process, up to RecordTagRangeSize schemas.
	TagRecordBase     byte = 0x10
	RecordTagRangeSize      = 0x30 // tags 0x10..0x3F inclusive
)

// DecodeFunc parses a cell whose tag byte has already been consumed.
// pos points at the first payload byte; it must return the position just
// past the cell's payload.
type DecodeFunc func(data []byte, pos int) (Cell, int, error)

var registry [256]DecodeFunc

// RegisterTag installs the decoder for tag. It is meant to be called from a
// package's init(), mirroring a build-time plugin registration: a program
// gains the ability to decode a cell kind by importing the package that
// defines it. Registering the same tag twice is a programming error and
// panics, matching the fail-fast style of a duplicate plugin registration.
func RegisterTag(tag byte, fn DecodeFunc) {
	if registry[tag] != nil {
		panic("cell: tag already registered: 0x" + strconv.FormatUint(uint64(tag), 16))
	}
	registry[tag] = fn
}

func decoderFor(tag byte) (DecodeFunc, bool) {
	fn := registry[tag]
	return fn, fn != nil
}

func init() {
	RegisterTag(TagFalse, decodeBoolFalse)
	RegisterTag(TagTrue, decodeBoolTrue)
	RegisterTag(TagLong, decodeLong)
	RegisterTag(TagChar, decodeChar)
	RegisterTag(TagString, decodeString)
	RegisterTag(TagBlob, decodeBlob)
	RegisterTag(TagAddress, decodeAddress)
	RegisterTag(TagKeyword, decodeKeyword)
	RegisterTag(TagSymbol, decodeSymbol)
}
