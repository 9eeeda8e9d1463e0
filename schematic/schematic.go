// Package schematic decodes Sponge schematics into versioned, read-only records.
//
// A Sponge schematic is a gzip-compressed NBT document describing a cuboid of
// blocks. Three schema versions exist in the wild and are modelled as a closed
// sum type: *V1, *V2 and *V3 all implement Schematic, and no other type can.
// Callers that do not care about the version use the accessors of the
// interface; a type switch recovers version specific fields such as
// DataVersion.
//
// # Block Layout
//
// BlockData holds one palette id per block, ordered with x varying fastest,
// then z, then y:
//
//	index = x + width*(z + y*length)
//
// Index and Coords convert between both representations.
//
// # Decoding
//
//	s, err := schematic.Load("castle.schem")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(s.Version(), s.Width(), s.Height(), s.Length())
//
// Decode accepts the raw file bytes, DecodeReader any io.Reader. All failures
// are *errs.DecodeError values wrapping one of the errs sentinels.
package schematic

import (
	"slices"

	"github.com/arloliu/schemsearch/format"
	"github.com/arloliu/schemsearch/nbt"
)

// Palette maps block state names (e.g. "minecraft:oak_stairs[facing=north]")
// to the ids used in BlockData.
type Palette map[string]int32

// Names returns the reverse lookup table of the palette: names[id] is the
// block name of id. Ids without an entry map to the empty string. When two
// names share an id, the lexicographically smallest one wins.
func (p Palette) Names() []string {
	size := 0
	for _, id := range p {
		if int(id)+1 > size {
			size = int(id) + 1
		}
	}

	names := make([]string, size)
	for name, id := range p {
		if id < 0 {
			continue
		}
		if cur := names[id]; cur == "" || name < cur {
			names[id] = name
		}
	}

	return names
}

// BlockEntity is the auxiliary data attached to one block, such as a chest
// inventory or sign text. Only the identifier and position are kept.
type BlockEntity struct {
	ID  string
	Pos [3]int32
}

// Entity is a free-standing entity stored in the schematic. Positions are
// truncated to whole blocks.
type Entity struct {
	ID  string
	Pos [3]int32
}

// Schematic is a decoded schematic of any schema version.
type Schematic interface {
	Version() format.Version
	Width() uint16
	Height() uint16
	Length() uint16
	Offset() [3]int32
	Palette() Palette
	// PaletteMax is read from the document for V1 and V2 and equals
	// len(Palette()) for V3.
	PaletteMax() int32
	BlockData() []int32
	BlockEntities() []BlockEntity
	// Entities returns nil when the document carries no entity list.
	Entities() []Entity
	Metadata() nbt.Compound

	sealed()
}

// Data holds the fields shared by all schema versions. It is used to
// construct records with NewV1, NewV2 and NewV3.
type Data struct {
	Width         uint16
	Height        uint16
	Length        uint16
	Offset        [3]int32
	Palette       Palette
	PaletteMax    int32
	BlockData     []int32
	BlockEntities []BlockEntity
	Entities      []Entity
	Metadata      nbt.Compound
	DataVersion   int32
}

type body struct {
	width         uint16
	height        uint16
	length        uint16
	offset        [3]int32
	palette       Palette
	paletteMax    int32
	blockData     []int32
	blockEntities []BlockEntity
	entities      []Entity
	metadata      nbt.Compound
}

func newBody(d Data) body {
	return body{
		width:         d.Width,
		height:        d.Height,
		length:        d.Length,
		offset:        d.Offset,
		palette:       d.Palette,
		paletteMax:    d.PaletteMax,
		blockData:     d.BlockData,
		blockEntities: d.BlockEntities,
		entities:      d.Entities,
		metadata:      d.Metadata,
	}
}

func (b *body) Width() uint16                { return b.width }
func (b *body) Height() uint16               { return b.height }
func (b *body) Length() uint16               { return b.length }
func (b *body) Offset() [3]int32             { return b.offset }
func (b *body) Palette() Palette             { return b.palette }
func (b *body) PaletteMax() int32            { return b.paletteMax }
func (b *body) BlockData() []int32           { return b.blockData }
func (b *body) BlockEntities() []BlockEntity { return b.blockEntities }
func (b *body) Entities() []Entity           { return b.entities }
func (b *body) Metadata() nbt.Compound       { return b.metadata }
func (b *body) sealed()                      {}

// V1 is a Sponge schematic of schema version 1. Block entities are stored
// under the legacy TileEntities field.
type V1 struct {
	body
}

// V2 is a Sponge schematic of schema version 2.
type V2 struct {
	body
	dataVersion int32
}

// V3 is a Sponge schematic of schema version 3, which nests palette, block
// data and block entities in a Blocks compound.
type V3 struct {
	body
	dataVersion int32
}

var (
	_ Schematic = (*V1)(nil)
	_ Schematic = (*V2)(nil)
	_ Schematic = (*V3)(nil)
)

// NewV1 creates a version 1 record. d.DataVersion is ignored.
func NewV1(d Data) *V1 {
	return &V1{body: newBody(d)}
}

// NewV2 creates a version 2 record.
//
// The record is not validated: the palette aligner uses V2 records whose
// block data contains ids outside the palette.
func NewV2(d Data) *V2 {
	return &V2{body: newBody(d), dataVersion: d.DataVersion}
}

// NewV3 creates a version 3 record. PaletteMax is derived from the palette.
func NewV3(d Data) *V3 {
	d.PaletteMax = int32(len(d.Palette)) //nolint:gosec
	return &V3{body: newBody(d), dataVersion: d.DataVersion}
}

func (s *V1) Version() format.Version { return format.V1 }
func (s *V2) Version() format.Version { return format.V2 }
func (s *V3) Version() format.Version { return format.V3 }

// DataVersion returns the Minecraft data version the schematic was saved with.
func (s *V2) DataVersion() int32 { return s.dataVersion }

// DataVersion returns the Minecraft data version the schematic was saved with.
func (s *V3) DataVersion() int32 { return s.dataVersion }

// Volume returns width*height*length of s.
func Volume(s Schematic) int {
	return int(s.Width()) * int(s.Height()) * int(s.Length())
}

// Index returns the BlockData index of (x, y, z) in a schematic of the given
// width and length.
func Index(width, length, x, y, z int) int {
	return x + width*(z+y*length)
}

// Coords is the inverse of Index.
func Coords(width, length, index int) (x, y, z int) {
	x = index % width
	index /= width
	z = index % length
	y = index / length

	return x, y, z
}

// DataOf returns the fields of s as a Data value. Slices and maps are shared
// with s and must not be modified.
func DataOf(s Schematic) Data {
	d := Data{
		Width:         s.Width(),
		Height:        s.Height(),
		Length:        s.Length(),
		Offset:        s.Offset(),
		Palette:       s.Palette(),
		PaletteMax:    s.PaletteMax(),
		BlockData:     s.BlockData(),
		BlockEntities: s.BlockEntities(),
		Entities:      s.Entities(),
		Metadata:      s.Metadata(),
	}

	switch v := s.(type) {
	case *V2:
		d.DataVersion = v.dataVersion
	case *V3:
		d.DataVersion = v.dataVersion
	}

	return d
}

// HasBlockEntityAt reports whether s has a block entity at the exact position.
func HasBlockEntityAt(s Schematic, pos [3]int32) bool {
	return slices.ContainsFunc(s.BlockEntities(), func(be BlockEntity) bool {
		return be.Pos == pos
	})
}
