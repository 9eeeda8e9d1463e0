package schematic

import (
	"fmt"
	"math"

	"github.com/arloliu/schemsearch/encoding"
	"github.com/arloliu/schemsearch/errs"
	"github.com/arloliu/schemsearch/nbt"
)

// MaxPaletteID bounds palette ids. Vanilla Minecraft has roughly 30k block
// states, so larger ids only occur in corrupted or hostile documents.
const MaxPaletteID = 1 << 20

func lookup(c nbt.Compound, field string) (any, error) {
	v, ok := c[field]
	if !ok {
		return nil, errs.Field(field, errs.ErrMissingField)
	}

	return v, nil
}

func wrongType(field string, v any) error {
	return errs.Field(field, fmt.Errorf("%w: %s", errs.ErrWrongFieldType, nbt.TagOf(v)))
}

// widen converts byte, short and int tags to int32.
func widen(v any) (int32, bool) {
	switch n := v.(type) {
	case int8:
		return int32(n), true
	case int16:
		return int32(n), true
	case int32:
		return n, true
	default:
		return 0, false
	}
}

func readInt(c nbt.Compound, field string) (int32, error) {
	v, err := lookup(c, field)
	if err != nil {
		return 0, err
	}
	n, ok := widen(v)
	if !ok {
		return 0, wrongType(field, v)
	}

	return n, nil
}

// readDimension reads Width, Height or Length. Java writes them as signed
// shorts, so negative byte and short values are reinterpreted as unsigned.
// Int values must already lie in [0, 65535].
func readDimension(c nbt.Compound, field string) (uint16, error) {
	v, err := lookup(c, field)
	if err != nil {
		return 0, err
	}

	var n int64
	switch d := v.(type) {
	case int8:
		n = int64(uint8(d))
	case int16:
		n = int64(uint16(d))
	case int32:
		n = int64(d)
	default:
		return 0, wrongType(field, v)
	}
	if n < 0 || n > math.MaxUint16 {
		return 0, errs.Field(field, fmt.Errorf("%w: %d out of range", errs.ErrWrongFieldType, n))
	}

	return uint16(n), nil //nolint:gosec
}

func readPosition(c nbt.Compound, field string) ([3]int32, error) {
	v, err := lookup(c, field)
	if err != nil {
		return [3]int32{}, err
	}

	pos, err := toPosition(v)
	if err != nil {
		return [3]int32{}, errs.Field(field, err)
	}

	return pos, nil
}

// toPosition normalizes an int array, a byte array or a list of numeric tags
// to three int32 values. Floating point values are truncated.
func toPosition(v any) ([3]int32, error) {
	var pos [3]int32

	switch p := v.(type) {
	case []int32:
		if len(p) != 3 {
			return pos, fmt.Errorf("%w: int array of length %d", errs.ErrInvalidPosition, len(p))
		}
		copy(pos[:], p)
	case []byte:
		if len(p) != 3 {
			return pos, fmt.Errorf("%w: byte array of length %d", errs.ErrInvalidPosition, len(p))
		}
		for i, b := range p {
			pos[i] = int32(int8(b)) //nolint:gosec
		}
	case nbt.List:
		if p.Len() != 3 {
			return pos, fmt.Errorf("%w: list of length %d", errs.ErrInvalidPosition, p.Len())
		}
		for i, item := range p.Items {
			n, ok := numeric(item)
			if !ok {
				return pos, fmt.Errorf("%w: list element %s", errs.ErrWrongFieldType, nbt.TagOf(item))
			}
			pos[i] = n
		}
	default:
		return pos, fmt.Errorf("%w: %s", errs.ErrWrongFieldType, nbt.TagOf(v))
	}

	return pos, nil
}

func numeric(v any) (int32, bool) {
	if n, ok := widen(v); ok {
		return n, true
	}

	switch n := v.(type) {
	case int64:
		return int32(n), true //nolint:gosec
	case float32:
		return int32(n), true
	case float64:
		return int32(n), true
	default:
		return 0, false
	}
}

// readPalette reads a name to id compound. Entries must be byte, short or
// int tags holding ids in [0, MaxPaletteID).
func readPalette(c nbt.Compound, field string) (Palette, error) {
	v, err := lookup(c, field)
	if err != nil {
		return nil, err
	}
	raw, ok := v.(nbt.Compound)
	if !ok {
		return nil, wrongType(field, v)
	}

	palette := make(Palette, len(raw))
	for name, entry := range raw {
		id, ok := widen(entry)
		if !ok {
			return nil, errs.Field(field, wrongType(name, entry))
		}
		if id < 0 || id >= MaxPaletteID {
			return nil, errs.Field(field, errs.Field(name, fmt.Errorf("%w: id %d", errs.ErrInvalidBlockID, id)))
		}
		palette[name] = id
	}

	return palette, nil
}

func readBlockData(c nbt.Compound, fields ...string) ([]int32, error) {
	for _, field := range fields {
		v, ok := c[field]
		if !ok {
			continue
		}
		raw, ok := v.([]byte)
		if !ok {
			return nil, wrongType(field, v)
		}
		ids, err := encoding.DecodeVarints(raw)
		if err != nil {
			return nil, errs.Field(field, err)
		}

		return ids, nil
	}

	return nil, errs.Field(fields[0], errs.ErrMissingField)
}

// readEntries reads a block entity or entity list. An absent list, an empty
// list of any element type or an empty byte array yields an empty slice.
func readEntries(c nbt.Compound, field string) ([]BlockEntity, bool, error) {
	v, ok := c[field]
	if !ok {
		return []BlockEntity{}, false, nil
	}

	switch l := v.(type) {
	case []byte:
		if len(l) == 0 {
			return []BlockEntity{}, true, nil
		}
	case nbt.List:
		if l.Len() == 0 {
			return []BlockEntity{}, true, nil
		}
		if l.Type != nbt.TagCompound {
			return nil, true, errs.Field(field, fmt.Errorf("%w: list of %s", errs.ErrWrongFieldType, l.Type))
		}

		out := make([]BlockEntity, 0, l.Len())
		for i, item := range l.Items {
			compound, ok := item.(nbt.Compound)
			if !ok {
				return nil, true, wrongType(fmt.Sprintf("%s[%d]", field, i), item)
			}
			entry, err := readEntry(compound)
			if err != nil {
				return nil, true, errs.Field(fmt.Sprintf("%s[%d]", field, i), err)
			}
			out = append(out, entry)
		}

		return out, true, nil
	}

	return nil, true, wrongType(field, v)
}

func readEntry(c nbt.Compound) (BlockEntity, error) {
	field := "Id"
	v, ok := c[field]
	if !ok {
		field = "id"
		if v, ok = c[field]; !ok {
			return BlockEntity{}, errs.Field("Id", errs.ErrMissingField)
		}
	}
	id, ok := v.(string)
	if !ok {
		return BlockEntity{}, wrongType(field, v)
	}

	pos, err := readPosition(c, "Pos")
	if err != nil {
		return BlockEntity{}, err
	}

	return BlockEntity{ID: id, Pos: pos}, nil
}

func readEntities(c nbt.Compound) ([]Entity, error) {
	entries, present, err := readEntries(c, "Entities")
	if err != nil || !present {
		return nil, err
	}

	out := make([]Entity, len(entries))
	for i, e := range entries {
		out[i] = Entity(e)
	}

	return out, nil
}

func readMetadata(c nbt.Compound) (nbt.Compound, error) {
	v, ok := c["Metadata"]
	if !ok {
		return nil, nil
	}
	m, ok := v.(nbt.Compound)
	if !ok {
		return nil, wrongType("Metadata", v)
	}

	return m, nil
}
