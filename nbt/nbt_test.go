package nbt

import (
	"math"
	"testing"

	"github.com/arloliu/schemsearch/endian"
	"github.com/arloliu/schemsearch/errs"
	"github.com/stretchr/testify/require"
)

func sampleDocument() Compound {
	return Compound{
		"Byte":      int8(-3),
		"Short":     int16(1234),
		"Int":       int32(-70000),
		"Long":      int64(math.MaxInt64),
		"Float":     float32(1.5),
		"Double":    float64(-2.25),
		"ByteArray": []byte{1, 2, 3},
		"String":    "minecraft:stone",
		"IntArray":  []int32{1, -2, 3},
		"LongArray": []int64{-1, 1 << 40},
		"Empty":     List{Type: TagEnd, Items: []any{}},
		"Positions": List{Type: TagInt, Items: []any{int32(1), int32(2), int32(3)}},
		"Nested": Compound{
			"Palette": Compound{"minecraft:air": int32(0)},
			"Entities": List{Type: TagCompound, Items: []any{
				Compound{"Id": "minecraft:chest", "Pos": []int32{0, 1, 2}},
			}},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	engines := map[string]endian.EndianEngine{
		"big":    endian.GetBigEndianEngine(),
		"little": endian.GetLittleEndianEngine(),
	}

	for name, engine := range engines {
		t.Run(name, func(t *testing.T) {
			root := sampleDocument()
			data, err := Encode("Schematic", root, engine)
			require.NoError(t, err)

			gotName, got, err := Decode(data, engine)
			require.NoError(t, err)
			require.Equal(t, "Schematic", gotName)
			require.Equal(t, root, got)
		})
	}
}

func TestEncode_Deterministic(t *testing.T) {
	engine := endian.GetBigEndianEngine()
	a, err := Encode("", sampleDocument(), engine)
	require.NoError(t, err)
	b, err := Encode("", sampleDocument(), engine)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestDecode_KnownBytes(t *testing.T) {
	// {"": {"A": Short 7}}
	data := []byte{
		0x0a, 0x00, 0x00,
		0x02, 0x00, 0x01, 'A', 0x00, 0x07,
		0x00,
	}
	name, root, err := Decode(data, endian.GetBigEndianEngine())
	require.NoError(t, err)
	require.Empty(t, name)
	require.Equal(t, Compound{"A": int16(7)}, root)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"root_not_compound", []byte{0x08, 0x00, 0x00, 0x00, 0x00}},
		{"truncated_name", []byte{0x0a, 0x00, 0x05, 'a'}},
		{"missing_end", []byte{0x0a, 0x00, 0x00}},
		{"truncated_int", []byte{0x0a, 0x00, 0x00, 0x03, 0x00, 0x01, 'x', 0x00, 0x01}},
		{"unknown_tag", []byte{0x0a, 0x00, 0x00, 0x2a, 0x00, 0x01, 'x', 0x00}},
		{"negative_array_length", []byte{0x0a, 0x00, 0x00, 0x07, 0x00, 0x01, 'x', 0xff, 0xff, 0xff, 0xff, 0x00}},
		{"array_length_exceeds_input", []byte{0x0a, 0x00, 0x00, 0x0b, 0x00, 0x01, 'x', 0x00, 0x10, 0x00, 0x00, 0x00}},
		{"list_length_exceeds_input", []byte{0x0a, 0x00, 0x00, 0x09, 0x00, 0x01, 'x', 0x01, 0x7f, 0xff, 0xff, 0xff}},
		{"list_of_end_with_items", []byte{0x0a, 0x00, 0x00, 0x09, 0x00, 0x01, 'x', 0x00, 0x00, 0x00, 0x00, 0x02, 0x00}},
		{"unknown_list_type", []byte{0x0a, 0x00, 0x00, 0x09, 0x00, 0x01, 'x', 0x33, 0x00, 0x00, 0x00, 0x00, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.data, endian.GetBigEndianEngine())
			require.ErrorIs(t, err, errs.ErrMalformedNBT)
		})
	}
}

func TestDecode_ListLengthByElementSize(t *testing.T) {
	listHeader := func(elem TagType, n uint32) []byte {
		return []byte{
			0x0a, 0x00, 0x00,
			0x09, 0x00, 0x01, 'x', byte(elem),
			byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n),
		}
	}

	// 1 MiB of padding covers one byte per declared element but not four.
	const n = 1 << 20
	padding := make([]byte, n)

	tests := []struct {
		elem TagType
		ok   bool
	}{
		{TagByte, true},
		{TagShort, false},
		{TagInt, false},
		{TagLong, false},
		{TagDouble, false},
		{TagString, false},
		{TagList, false},
		{TagIntArray, false},
	}

	for _, tt := range tests {
		t.Run(tt.elem.String(), func(t *testing.T) {
			data := append(listHeader(tt.elem, n), padding...)
			_, root, err := Decode(data, endian.GetBigEndianEngine())
			if tt.ok {
				// The byte list consumes all padding, so the compound End is missing.
				require.ErrorIs(t, err, errs.ErrMalformedNBT)
				require.NotContains(t, err.Error(), "exceeds remaining")

				return
			}
			require.Nil(t, root)
			require.ErrorIs(t, err, errs.ErrMalformedNBT)
			require.Contains(t, err.Error(), "exceeds remaining")
		})
	}
}

func TestDecode_LongList(t *testing.T) {
	items := make([]any, 5000)
	for i := range items {
		items[i] = int32(i)
	}
	root := Compound{"Values": List{Type: TagInt, Items: items}}

	data, err := Encode("", root, endian.GetBigEndianEngine())
	require.NoError(t, err)

	_, got, err := Decode(data, endian.GetBigEndianEngine())
	require.NoError(t, err)
	require.Equal(t, root, got)
}

func TestDecode_DepthLimit(t *testing.T) {
	nest := func(depth int) []byte {
		data := []byte{0x0a, 0x00, 0x00}
		for range depth - 1 {
			data = append(data, 0x0a, 0x00, 0x00)
		}
		for range depth {
			data = append(data, 0x00)
		}

		return data
	}

	_, _, err := Decode(nest(MaxDepth), endian.GetBigEndianEngine())
	require.NoError(t, err)

	_, _, err = Decode(nest(MaxDepth+1), endian.GetBigEndianEngine())
	require.ErrorIs(t, err, errs.ErrMalformedNBT)
	require.Contains(t, err.Error(), "nesting")
}

func TestEncode_Errors(t *testing.T) {
	engine := endian.GetBigEndianEngine()

	_, err := Encode("", Compound{"x": 42}, engine)
	require.Error(t, err)

	_, err = Encode("", Compound{"x": List{Type: TagInt, Items: []any{int32(1), "two"}}}, engine)
	require.Error(t, err)

	_, err = Encode("", Compound{"x": List{Type: TagEnd, Items: []any{int32(1)}}}, engine)
	require.Error(t, err)
}

func TestTagOf(t *testing.T) {
	for _, tag := range []TagType{TagByte, TagInt, TagString, TagList, TagCompound, TagLongArray} {
		require.True(t, tag.IsValid())
	}
	require.Equal(t, TagIntArray, TagOf([]int32{}))
	require.Equal(t, TagList, TagOf(List{}))
	require.Equal(t, TagEnd, TagOf(42))
	require.Equal(t, TagEnd, TagOf(nil))
	require.Equal(t, "Compound", TagCompound.String())
	require.Equal(t, "TagType(99)", TagType(99).String())
}
