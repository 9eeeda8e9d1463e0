// Package endian provides the byte order abstraction used by the NBT reader and writer.
//
// Java edition schematics store every multi-byte NBT value in big-endian order,
// Bedrock edition documents use little-endian order. The nbt package takes an
// EndianEngine so that both layouts share one parser:
//
//	import "github.com/arloliu/schemsearch/endian"
//
//	name, root, err := nbt.Decode(data, endian.GetBigEndianEngine())
//
// # Thread Safety
//
// The returned EndianEngine instances are immutable and stateless.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for reading and appending fixed-width values.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetBigEndianEngine returns the big-endian engine used by Java edition NBT.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// GetLittleEndianEngine returns the little-endian engine used by Bedrock edition NBT.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// Parse returns the engine for "big" or "little". Any other name yields the
// big-endian engine and false.
func Parse(name string) (EndianEngine, bool) {
	switch name {
	case "big":
		return binary.BigEndian, true
	case "little":
		return binary.LittleEndian, true
	default:
		return binary.BigEndian, false
	}
}

// IsBigEndian reports whether engine reads values in big-endian order.
func IsBigEndian(engine EndianEngine) bool {
	return engine == binary.BigEndian
}
