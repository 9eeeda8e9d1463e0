// Package fixture builds schematic documents for tests.
//
// Blocks is a mutable grid of block names. It renders to the NBT layout of
// any schema version and to compressed file bytes, so tests exercise the
// same decode path as real files.
package fixture

import (
	"math/rand/v2"
	"slices"

	"github.com/arloliu/schemsearch/compress"
	"github.com/arloliu/schemsearch/encoding"
	"github.com/arloliu/schemsearch/endian"
	"github.com/arloliu/schemsearch/format"
	"github.com/arloliu/schemsearch/nbt"
	"github.com/arloliu/schemsearch/schematic"
)

const (
	Air      = "minecraft:air"
	Stone    = "minecraft:stone"
	Dirt     = "minecraft:dirt"
	Andesite = "minecraft:andesite"
	Chest    = "minecraft:chest[facing=north]"
)

// Blocks is a width x height x length grid of block names.
type Blocks struct {
	Width, Height, Length int
	Names                 []string
	BlockEntities         []schematic.BlockEntity
	Entities              []schematic.Entity
	Offset                [3]int32
	DataVersion           int32
}

// New returns a grid filled with fill.
func New(width, height, length int, fill string) *Blocks {
	names := make([]string, width*height*length)
	for i := range names {
		names[i] = fill
	}

	return &Blocks{Width: width, Height: height, Length: length, Names: names, DataVersion: 3465}
}

// Noise returns a grid filled with a seeded random mix of stone, dirt and andesite.
func Noise(width, height, length int, seed uint64) *Blocks {
	b := New(width, height, length, Stone)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec
	background := []string{Stone, Dirt, Andesite}
	for i := range b.Names {
		b.Names[i] = background[rng.IntN(len(background))]
	}

	return b
}

func (b *Blocks) index(x, y, z int) int {
	return schematic.Index(b.Width, b.Length, x, y, z)
}

// Set sets the block at (x, y, z).
func (b *Blocks) Set(x, y, z int, name string) *Blocks {
	b.Names[b.index(x, y, z)] = name
	return b
}

// Get returns the block at (x, y, z).
func (b *Blocks) Get(x, y, z int) string {
	return b.Names[b.index(x, y, z)]
}

// Paste copies other into b with its lower corner at (x, y, z), applying
// rename to every pasted name when it is non-nil.
func (b *Blocks) Paste(other *Blocks, x, y, z int, rename func(string) string) *Blocks {
	for j := range other.Height {
		for k := range other.Length {
			for i := range other.Width {
				name := other.Get(i, j, k)
				if rename != nil {
					name = rename(name)
				}
				b.Set(x+i, y+j, z+k, name)
			}
		}
	}

	return b
}

// AddBlockEntity attaches a block entity at (x, y, z).
func (b *Blocks) AddBlockEntity(id string, x, y, z int) *Blocks {
	b.BlockEntities = append(b.BlockEntities, schematic.BlockEntity{
		ID:  id,
		Pos: [3]int32{int32(x), int32(y), int32(z)}, //nolint:gosec
	})

	return b
}

// Palette returns the palette in first-seen order and the block ids.
func (b *Blocks) Palette() (schematic.Palette, []int32) {
	palette := make(schematic.Palette)
	ids := make([]int32, len(b.Names))
	for i, name := range b.Names {
		id, ok := palette[name]
		if !ok {
			id = int32(len(palette)) //nolint:gosec
			palette[name] = id
		}
		ids[i] = id
	}

	return palette, ids
}

// Compound renders the grid as the root compound of a schematic of version v.
// V3 documents are wrapped in a "Schematic" compound.
func (b *Blocks) Compound(v format.Version) nbt.Compound {
	palette, ids := b.Palette()

	rawPalette := make(nbt.Compound, len(palette))
	for name, id := range palette {
		rawPalette[name] = id
	}

	c := nbt.Compound{
		"Version": int32(v),
		"Width":   int16(b.Width),  //nolint:gosec
		"Height":  int16(b.Height), //nolint:gosec
		"Length":  int16(b.Length), //nolint:gosec
		"Offset":  []int32{b.Offset[0], b.Offset[1], b.Offset[2]},
	}
	enc := encoding.NewVarintEncoder()
	defer enc.Reset()
	enc.WriteSlice(ids)
	blockData := slices.Clone(enc.Bytes())

	switch v {
	case format.V1:
		c["PaletteMax"] = int32(len(palette)) //nolint:gosec
		c["Palette"] = rawPalette
		c["BlockData"] = blockData
		c["TileEntities"] = entityList(b.BlockEntities)
	case format.V2:
		c["DataVersion"] = b.DataVersion
		c["PaletteMax"] = int32(len(palette)) //nolint:gosec
		c["Palette"] = rawPalette
		c["BlockData"] = blockData
		c["BlockEntities"] = entityList(b.BlockEntities)
		if b.Entities != nil {
			c["Entities"] = entityList(toBlockEntities(b.Entities))
		}
	case format.V3:
		c["DataVersion"] = b.DataVersion
		c["Blocks"] = nbt.Compound{
			"Palette":       rawPalette,
			"Data":          blockData,
			"BlockEntities": entityList(b.BlockEntities),
		}
		if b.Entities != nil {
			c["Entities"] = entityList(toBlockEntities(b.Entities))
		}

		return nbt.Compound{"Schematic": c}
	}

	return c
}

func toBlockEntities(entities []schematic.Entity) []schematic.BlockEntity {
	out := make([]schematic.BlockEntity, len(entities))
	for i, e := range entities {
		out[i] = schematic.BlockEntity(e)
	}

	return out
}

func entityList(entries []schematic.BlockEntity) nbt.List {
	if len(entries) == 0 {
		return nbt.List{Type: nbt.TagEnd, Items: []any{}}
	}

	items := make([]any, len(entries))
	for i, e := range entries {
		items[i] = nbt.Compound{
			"Id":  e.ID,
			"Pos": []int32{e.Pos[0], e.Pos[1], e.Pos[2]},
		}
	}

	return nbt.List{Type: nbt.TagCompound, Items: items}
}

// Document renders a compound as a compressed schematic file.
func Document(root nbt.Compound, ctype format.CompressionType) []byte {
	document, err := nbt.Encode("", root, endian.GetBigEndianEngine())
	if err != nil {
		panic(err)
	}

	codec, err := compress.GetCodec(ctype)
	if err != nil {
		panic(err)
	}
	out, err := codec.Compress(document)
	if err != nil {
		panic(err)
	}

	return out
}

// File renders the grid as a gzip-compressed schematic file of version v.
func (b *Blocks) File(v format.Version) []byte {
	return Document(b.Compound(v), format.CompressionGzip)
}

// Schematic decodes the grid as a version v schematic.
func (b *Blocks) Schematic(v format.Version) schematic.Schematic {
	s, err := schematic.Decode(b.File(v))
	if err != nil {
		panic(err)
	}

	return s
}
