package schematic_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/arloliu/schemsearch/compress"
	"github.com/arloliu/schemsearch/endian"
	"github.com/arloliu/schemsearch/errs"
	"github.com/arloliu/schemsearch/format"
	"github.com/arloliu/schemsearch/internal/fixture"
	"github.com/arloliu/schemsearch/nbt"
	"github.com/arloliu/schemsearch/schematic"
	"github.com/stretchr/testify/require"
)

func sampleBlocks() *fixture.Blocks {
	b := fixture.New(4, 3, 5, fixture.Stone)
	b.Set(1, 0, 0, fixture.Dirt)
	b.Set(3, 2, 4, fixture.Chest)
	b.Set(0, 1, 2, fixture.Air)
	b.AddBlockEntity("minecraft:chest", 3, 2, 4)
	b.Offset = [3]int32{-1, 64, 7}

	return b
}

func decodeCompound(t *testing.T, root nbt.Compound) (schematic.Schematic, error) {
	t.Helper()
	return schematic.Decode(fixture.Document(root, format.CompressionGzip))
}

func namesOf(s schematic.Schematic) []string {
	names := s.Palette().Names()
	out := make([]string, len(s.BlockData()))
	for i, id := range s.BlockData() {
		out[i] = names[id]
	}

	return out
}

func TestDecode_AllVersionsEquivalent(t *testing.T) {
	b := sampleBlocks()

	for _, v := range []format.Version{format.V1, format.V2, format.V3} {
		t.Run(v.String(), func(t *testing.T) {
			s, err := schematic.Decode(b.File(v))
			require.NoError(t, err)

			require.Equal(t, v, s.Version())
			require.Equal(t, uint16(4), s.Width())
			require.Equal(t, uint16(3), s.Height())
			require.Equal(t, uint16(5), s.Length())
			require.Equal(t, [3]int32{-1, 64, 7}, s.Offset())
			require.Len(t, s.Palette(), 4)
			require.Equal(t, int32(4), s.PaletteMax())
			require.Equal(t, b.Names, namesOf(s))
			require.Equal(t, []schematic.BlockEntity{{ID: "minecraft:chest", Pos: [3]int32{3, 2, 4}}}, s.BlockEntities())
			require.Nil(t, s.Entities())
		})
	}
}

func TestDecode_DataVersion(t *testing.T) {
	b := sampleBlocks()

	s, err := schematic.Decode(b.File(format.V2))
	require.NoError(t, err)
	v2, ok := s.(*schematic.V2)
	require.True(t, ok)
	require.Equal(t, int32(3465), v2.DataVersion())

	s, err = schematic.Decode(b.File(format.V3))
	require.NoError(t, err)
	v3, ok := s.(*schematic.V3)
	require.True(t, ok)
	require.Equal(t, int32(3465), v3.DataVersion())
	require.Equal(t, int32(3465), schematic.DataOf(v3).DataVersion)
}

func TestDecode_Envelopes(t *testing.T) {
	root := sampleBlocks().Compound(format.V2)

	for _, ctype := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionGzip,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		t.Run(ctype.String(), func(t *testing.T) {
			s, err := schematic.Decode(fixture.Document(root, ctype))
			require.NoError(t, err)
			require.Equal(t, format.V2, s.Version())
		})
	}
}

func TestDecode_ForcedCompressionMismatch(t *testing.T) {
	data := sampleBlocks().File(format.V2)

	_, err := schematic.Decode(data, schematic.WithCompression(format.CompressionZstd))
	require.ErrorIs(t, err, errs.ErrDecompress)

	_, err = schematic.Decode(data, schematic.WithCompression(format.CompressionType(77)))
	require.Error(t, err)
}

func TestDecode_DecompressLimit(t *testing.T) {
	data := fixture.New(32, 32, 32, fixture.Stone).File(format.V2)

	_, err := schematic.Decode(data, schematic.WithMaxDecompressedSize(1024))
	require.ErrorIs(t, err, errs.ErrDecompressLimit)

	_, err = schematic.Decode(data, schematic.WithMaxDecompressedSize(0))
	require.Error(t, err)
}

func TestDecode_VersionFallback(t *testing.T) {
	b := sampleBlocks()

	tests := []struct {
		name    string
		version format.Version
		want    format.Version
		mutate  func(c nbt.Compound) nbt.Compound
	}{
		{
			name:    "blocks_means_v3",
			version: format.V3,
			want:    format.V3,
			mutate: func(c nbt.Compound) nbt.Compound {
				inner := c["Schematic"].(nbt.Compound)
				delete(inner, "Version")
				return inner
			},
		},
		{
			name:    "block_entities_means_v2",
			version: format.V2,
			want:    format.V2,
			mutate: func(c nbt.Compound) nbt.Compound {
				delete(c, "Version")
				return c
			},
		},
		{
			name:    "tile_entities_means_v1",
			version: format.V1,
			want:    format.V1,
			mutate: func(c nbt.Compound) nbt.Compound {
				delete(c, "Version")
				return c
			},
		},
		{
			name:    "blocks_wins_over_block_entities",
			version: format.V3,
			want:    format.V3,
			mutate: func(c nbt.Compound) nbt.Compound {
				inner := c["Schematic"].(nbt.Compound)
				delete(inner, "Version")
				inner["BlockEntities"] = nbt.List{Type: nbt.TagEnd, Items: []any{}}
				return inner
			},
		},
		{
			name:    "short_version_field",
			version: format.V2,
			want:    format.V2,
			mutate: func(c nbt.Compound) nbt.Compound {
				c["Version"] = int16(2)
				return c
			},
		},
		{
			name:    "byte_version_field",
			version: format.V1,
			want:    format.V1,
			mutate: func(c nbt.Compound) nbt.Compound {
				c["Version"] = int8(1)
				return c
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := decodeCompound(t, tt.mutate(b.Compound(tt.version)))
			require.NoError(t, err)
			require.Equal(t, tt.want, s.Version())
			require.Equal(t, b.Names, namesOf(s))
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	b := sampleBlocks()

	tests := []struct {
		name    string
		version format.Version
		mutate  func(c nbt.Compound)
		target  error
		field   string
	}{
		{
			name:    "unknown_version",
			version: format.V2,
			mutate:  func(c nbt.Compound) { c["Version"] = int32(9) },
			target:  errs.ErrUnknownVersion,
			field:   "Version",
		},
		{
			name:    "undeterminable_version",
			version: format.V2,
			mutate: func(c nbt.Compound) {
				delete(c, "Version")
				delete(c, "BlockEntities")
			},
			target: errs.ErrUnknownVersion,
			field:  "Version",
		},
		{
			name:    "missing_width",
			version: format.V2,
			mutate:  func(c nbt.Compound) { delete(c, "Width") },
			target:  errs.ErrMissingField,
			field:   "Width",
		},
		{
			name:    "string_height",
			version: format.V1,
			mutate:  func(c nbt.Compound) { c["Height"] = "3" },
			target:  errs.ErrWrongFieldType,
			field:   "Height",
		},
		{
			name:    "negative_int_width",
			version: format.V2,
			mutate:  func(c nbt.Compound) { c["Width"] = int32(-1) },
			target:  errs.ErrWrongFieldType,
			field:   "Width",
		},
		{
			name:    "oversized_int_length",
			version: format.V3,
			mutate:  func(c nbt.Compound) { c["Schematic"].(nbt.Compound)["Length"] = int32(70000) },
			target:  errs.ErrWrongFieldType,
			field:   "Length",
		},
		{
			name:    "missing_palette_max",
			version: format.V2,
			mutate:  func(c nbt.Compound) { delete(c, "PaletteMax") },
			target:  errs.ErrMissingField,
			field:   "PaletteMax",
		},
		{
			name:    "missing_data_version",
			version: format.V2,
			mutate:  func(c nbt.Compound) { delete(c, "DataVersion") },
			target:  errs.ErrMissingField,
			field:   "DataVersion",
		},
		{
			name:    "string_palette_entry",
			version: format.V2,
			mutate: func(c nbt.Compound) {
				c["Palette"].(nbt.Compound)["minecraft:glass"] = "5"
			},
			target: errs.ErrWrongFieldType,
			field:  "Palette.minecraft:glass",
		},
		{
			name:    "long_palette_entry",
			version: format.V1,
			mutate: func(c nbt.Compound) {
				c["Palette"].(nbt.Compound)["minecraft:glass"] = int64(5)
			},
			target: errs.ErrWrongFieldType,
			field:  "Palette.minecraft:glass",
		},
		{
			name:    "block_data_not_bytes",
			version: format.V2,
			mutate:  func(c nbt.Compound) { c["BlockData"] = []int32{0, 1} },
			target:  errs.ErrWrongFieldType,
			field:   "BlockData",
		},
		{
			name:    "varint_out_of_range",
			version: format.V2,
			mutate: func(c nbt.Compound) {
				c["BlockData"] = []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
			},
			target: errs.ErrVarintOutOfRange,
			field:  "BlockData",
		},
		{
			name:    "dimension_mismatch",
			version: format.V2,
			mutate:  func(c nbt.Compound) { c["BlockData"] = []byte{0, 0, 0} },
			target:  errs.ErrDimensionMismatch,
			field:   "BlockData",
		},
		{
			name:    "id_without_palette_entry",
			version: format.V2,
			mutate: func(c nbt.Compound) {
				data := bytes.Repeat([]byte{0x00}, 4*3*5)
				data[7] = 0x09
				c["BlockData"] = data
			},
			target: errs.ErrInvalidBlockID,
			field:  "BlockData",
		},
		{
			name:    "offset_wrong_length",
			version: format.V2,
			mutate:  func(c nbt.Compound) { c["Offset"] = []int32{1, 2} },
			target:  errs.ErrInvalidPosition,
			field:   "Offset",
		},
		{
			name:    "block_entity_without_id",
			version: format.V2,
			mutate: func(c nbt.Compound) {
				c["BlockEntities"] = nbt.List{Type: nbt.TagCompound, Items: []any{
					nbt.Compound{"Pos": []int32{0, 0, 0}},
				}}
			},
			target: errs.ErrMissingField,
			field:  "BlockEntities[0].Id",
		},
		{
			name:    "block_entities_of_ints",
			version: format.V2,
			mutate: func(c nbt.Compound) {
				c["BlockEntities"] = nbt.List{Type: nbt.TagInt, Items: []any{int32(1)}}
			},
			target: errs.ErrWrongFieldType,
			field:  "BlockEntities",
		},
		{
			name:    "v3_blocks_not_compound",
			version: format.V3,
			mutate: func(c nbt.Compound) {
				c["Schematic"].(nbt.Compound)["Blocks"] = int32(1)
			},
			target: errs.ErrWrongFieldType,
			field:  "Blocks",
		},
		{
			name:    "v3_missing_data",
			version: format.V3,
			mutate: func(c nbt.Compound) {
				delete(c["Schematic"].(nbt.Compound)["Blocks"].(nbt.Compound), "Data")
			},
			target: errs.ErrMissingField,
			field:  "Blocks.Data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := b.Compound(tt.version)
			tt.mutate(root)

			_, err := decodeCompound(t, root)
			require.ErrorIs(t, err, tt.target)

			var derr *errs.DecodeError
			require.ErrorAs(t, err, &derr)
			require.Equal(t, tt.field, derr.Field)
		})
	}
}

func TestDecode_MalformedDocument(t *testing.T) {
	_, err := schematic.Decode([]byte{0x0a, 0x00})
	require.ErrorIs(t, err, errs.ErrMalformedNBT)

	_, err = schematic.Decode([]byte{0x1f, 0x8b, 0x00})
	require.ErrorIs(t, err, errs.ErrDecompress)
}

func TestDecode_FlexibleFields(t *testing.T) {
	b := sampleBlocks()

	t.Run("byte_dimensions_and_byte_array_offset", func(t *testing.T) {
		root := b.Compound(format.V2)
		root["Width"] = int8(4)
		root["Height"] = int32(3)
		root["Offset"] = []byte{0xff, 0x40, 0x07}

		s, err := decodeCompound(t, root)
		require.NoError(t, err)
		require.Equal(t, uint16(4), s.Width())
		require.Equal(t, [3]int32{-1, 64, 7}, s.Offset())
	})

	t.Run("list_offset_of_mixed_numbers", func(t *testing.T) {
		root := b.Compound(format.V1)
		root["Offset"] = nbt.List{Type: nbt.TagShort, Items: []any{int16(-1), int16(64), int16(7)}}

		s, err := decodeCompound(t, root)
		require.NoError(t, err)
		require.Equal(t, [3]int32{-1, 64, 7}, s.Offset())
	})

	t.Run("empty_byte_array_block_entities", func(t *testing.T) {
		root := b.Compound(format.V2)
		root["BlockEntities"] = []byte{}

		s, err := decodeCompound(t, root)
		require.NoError(t, err)
		require.Empty(t, s.BlockEntities())
	})

	t.Run("absent_tile_entities_with_explicit_version", func(t *testing.T) {
		root := b.Compound(format.V1)
		delete(root, "TileEntities")

		s, err := decodeCompound(t, root)
		require.NoError(t, err)
		require.NotNil(t, s.BlockEntities())
		require.Empty(t, s.BlockEntities())
	})

	t.Run("legacy_lowercase_id_and_double_pos", func(t *testing.T) {
		root := b.Compound(format.V2)
		root["Entities"] = nbt.List{Type: nbt.TagCompound, Items: []any{
			nbt.Compound{
				"id":  "minecraft:armor_stand",
				"Pos": nbt.List{Type: nbt.TagDouble, Items: []any{1.5, 64.0, -3.75}},
			},
		}}

		s, err := decodeCompound(t, root)
		require.NoError(t, err)
		require.Equal(t, []schematic.Entity{{ID: "minecraft:armor_stand", Pos: [3]int32{1, 64, -3}}}, s.Entities())
	})

	t.Run("v3_blockdata_name", func(t *testing.T) {
		root := b.Compound(format.V3)
		blocks := root["Schematic"].(nbt.Compound)["Blocks"].(nbt.Compound)
		blocks["BlockData"] = blocks["Data"]
		delete(blocks, "Data")

		s, err := decodeCompound(t, root)
		require.NoError(t, err)
		require.Equal(t, b.Names, namesOf(s))
	})

	t.Run("metadata", func(t *testing.T) {
		root := b.Compound(format.V2)
		root["Metadata"] = nbt.Compound{"Name": "castle"}

		s, err := decodeCompound(t, root)
		require.NoError(t, err)
		require.Equal(t, nbt.Compound{"Name": "castle"}, s.Metadata())
	})

	t.Run("large_dimension_stored_as_negative_short", func(t *testing.T) {
		wide := fixture.New(40000, 1, 1, fixture.Stone)
		s, err := schematic.Decode(wide.File(format.V2))
		require.NoError(t, err)
		require.Equal(t, uint16(40000), s.Width())
	})
}

func TestDecode_LittleEndian(t *testing.T) {
	b := sampleBlocks()
	doc, err := nbt.Encode("", b.Compound(format.V2), endian.GetLittleEndianEngine())
	require.NoError(t, err)
	data, err := compress.NewGzipCompressor().Compress(doc)
	require.NoError(t, err)

	s, err := schematic.Decode(data, schematic.WithByteOrder(endian.GetLittleEndianEngine()))
	require.NoError(t, err)
	require.Equal(t, format.V2, s.Version())
	require.Equal(t, uint16(4), s.Width())
	require.Equal(t, [3]int32{-1, 64, 7}, s.Offset())
	require.Equal(t, b.Names, namesOf(s))

	// Read with the default big-endian order, the same bytes are not a schematic.
	_, err = schematic.Decode(data)
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.schem")
	require.NoError(t, os.WriteFile(path, sampleBlocks().File(format.V3), 0o600))

	s, err := schematic.Load(path)
	require.NoError(t, err)
	require.Equal(t, format.V3, s.Version())

	_, err = schematic.Load(filepath.Join(dir, "missing.schem"))
	require.ErrorIs(t, err, errs.ErrIO)
	var derr *errs.DecodeError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, filepath.Join(dir, "missing.schem"), derr.Path)

	bad := filepath.Join(dir, "bad.schem")
	require.NoError(t, os.WriteFile(bad, []byte{0x0a, 0x00, 0x00, 0x00}, 0o600))
	_, err = schematic.Load(bad)
	require.ErrorIs(t, err, errs.ErrUnknownVersion)
	require.ErrorAs(t, err, &derr)
	require.Equal(t, bad, derr.Path)
}

func TestIndexCoords(t *testing.T) {
	const width, length = 7, 5
	for y := range 3 {
		for z := range length {
			for x := range width {
				i := schematic.Index(width, length, x, y, z)
				gx, gy, gz := schematic.Coords(width, length, i)
				require.Equal(t, [3]int{x, y, z}, [3]int{gx, gy, gz})
			}
		}
	}
	require.Equal(t, 1+7*(2+3*5), schematic.Index(width, length, 1, 3, 2))
}

func TestPaletteNames(t *testing.T) {
	p := schematic.Palette{"a": 0, "c": 2, "b": 2}
	require.Equal(t, []string{"a", "", "b"}, p.Names())
	require.Empty(t, schematic.Palette{}.Names())
}

func TestHasBlockEntityAt(t *testing.T) {
	s := sampleBlocks().Schematic(format.V2)
	require.True(t, schematic.HasBlockEntityAt(s, [3]int32{3, 2, 4}))
	require.False(t, schematic.HasBlockEntityAt(s, [3]int32{0, 0, 0}))
}

func TestValidate_NewV2(t *testing.T) {
	s := schematic.NewV2(schematic.Data{
		Width: 2, Height: 1, Length: 1,
		Palette:   schematic.Palette{"minecraft:stone": 0},
		BlockData: []int32{0, -1},
	})
	require.ErrorIs(t, schematic.Validate(s), errs.ErrInvalidBlockID)

	v3 := schematic.NewV3(schematic.Data{Palette: schematic.Palette{"a": 0, "b": 1}})
	require.Equal(t, int32(2), v3.PaletteMax())
}
