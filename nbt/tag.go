// Package nbt reads and writes Named Binary Tag documents.
//
// NBT is the tagged binary format Minecraft uses for schematics, structures and
// world data. A document is a single named compound; every value is prefixed
// by a one-byte tag kind, and compound entries additionally carry a name.
//
// Decoded values map onto Go types as follows:
//
//	TagByte      int8
//	TagShort     int16
//	TagInt       int32
//	TagLong      int64
//	TagFloat     float32
//	TagDouble    float64
//	TagByteArray []byte
//	TagString    string
//	TagList      List
//	TagCompound  Compound
//	TagIntArray  []int32
//	TagLongArray []int64
//
// Byte order is selected by an endian.EndianEngine. Java edition documents,
// including every Sponge schematic, are big-endian.
package nbt

import "fmt"

// TagType identifies the kind of an NBT value.
type TagType byte

const (
	TagEnd TagType = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
	TagLongArray
)

// MaxDepth is the maximum nesting depth of compounds and lists accepted by Decode.
const MaxDepth = 512

var tagNames = [...]string{
	TagEnd:       "End",
	TagByte:      "Byte",
	TagShort:     "Short",
	TagInt:       "Int",
	TagLong:      "Long",
	TagFloat:     "Float",
	TagDouble:    "Double",
	TagByteArray: "ByteArray",
	TagString:    "String",
	TagList:      "List",
	TagCompound:  "Compound",
	TagIntArray:  "IntArray",
	TagLongArray: "LongArray",
}

func (t TagType) String() string {
	if t.IsValid() {
		return tagNames[t]
	}

	return fmt.Sprintf("TagType(%d)", byte(t))
}

// IsValid reports whether t is a known tag kind.
func (t TagType) IsValid() bool {
	return t <= TagLongArray
}

// Compound is an NBT compound: an unordered set of named values.
type Compound map[string]any

// List is an NBT list. All items share the kind Type; an empty list may carry
// any Type, including TagEnd.
type List struct {
	Type  TagType
	Items []any
}

// Len returns the number of items in the list.
func (l List) Len() int {
	return len(l.Items)
}

// TagOf reports the tag kind of a decoded value, or TagEnd when v is not a
// value Decode can produce.
func TagOf(v any) TagType {
	switch v.(type) {
	case int8:
		return TagByte
	case int16:
		return TagShort
	case int32:
		return TagInt
	case int64:
		return TagLong
	case float32:
		return TagFloat
	case float64:
		return TagDouble
	case []byte:
		return TagByteArray
	case string:
		return TagString
	case List:
		return TagList
	case Compound:
		return TagCompound
	case []int32:
		return TagIntArray
	case []int64:
		return TagLongArray
	default:
		return TagEnd
	}
}
