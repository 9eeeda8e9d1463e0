package nbt

import (
	"fmt"
	"math"
	"slices"

	"github.com/arloliu/schemsearch/endian"
	"github.com/arloliu/schemsearch/internal/pool"
)

type encoder struct {
	buf    *pool.ByteBuffer
	engine endian.EndianEngine
}

// Encode writes root as a named NBT document.
//
// Compound entries are written in sorted key order, so equal inputs produce
// identical output. Values must use the Go types produced by Decode.
//
// Parameters:
//   - name: Name of the root compound
//   - root: Root compound
//   - engine: Byte order of multi-byte values
//
// Returns:
//   - []byte: Encoded document, owned by the caller
//   - error: Unsupported value type or oversized string/list
func Encode(name string, root Compound, engine endian.EndianEngine) ([]byte, error) {
	e := &encoder{buf: pool.GetDocumentBuffer(), engine: engine}
	defer pool.PutDocumentBuffer(e.buf)

	_ = e.buf.WriteByte(byte(TagCompound))
	if err := e.writeString(name); err != nil {
		return nil, err
	}
	if err := e.writeCompound(root); err != nil {
		return nil, err
	}

	return slices.Clone(e.buf.Bytes()), nil
}

func (e *encoder) writeString(s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("nbt: string of %d bytes exceeds %d", len(s), math.MaxUint16)
	}
	e.buf.B = e.engine.AppendUint16(e.buf.B, uint16(len(s))) //nolint:gosec
	e.buf.MustWrite([]byte(s))

	return nil
}

func (e *encoder) writeLength(n int) error {
	if n > math.MaxInt32 {
		return fmt.Errorf("nbt: length %d exceeds %d", n, math.MaxInt32)
	}
	e.buf.B = e.engine.AppendUint32(e.buf.B, uint32(n)) //nolint:gosec

	return nil
}

func (e *encoder) writeCompound(c Compound) error {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		v := c[k]
		tag := TagOf(v)
		if tag == TagEnd {
			return fmt.Errorf("nbt: field %q: unsupported value type %T", k, v)
		}
		_ = e.buf.WriteByte(byte(tag))
		if err := e.writeString(k); err != nil {
			return err
		}
		if err := e.writePayload(v); err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
	}
	_ = e.buf.WriteByte(byte(TagEnd))

	return nil
}

func (e *encoder) writePayload(v any) error {
	switch val := v.(type) {
	case int8:
		_ = e.buf.WriteByte(byte(val))
	case int16:
		e.buf.B = e.engine.AppendUint16(e.buf.B, uint16(val)) //nolint:gosec
	case int32:
		e.buf.B = e.engine.AppendUint32(e.buf.B, uint32(val)) //nolint:gosec
	case int64:
		e.buf.B = e.engine.AppendUint64(e.buf.B, uint64(val)) //nolint:gosec
	case float32:
		e.buf.B = e.engine.AppendUint32(e.buf.B, math.Float32bits(val))
	case float64:
		e.buf.B = e.engine.AppendUint64(e.buf.B, math.Float64bits(val))
	case []byte:
		if err := e.writeLength(len(val)); err != nil {
			return err
		}
		e.buf.MustWrite(val)
	case string:
		return e.writeString(val)
	case List:
		return e.writeList(val)
	case Compound:
		return e.writeCompound(val)
	case []int32:
		if err := e.writeLength(len(val)); err != nil {
			return err
		}
		for _, x := range val {
			e.buf.B = e.engine.AppendUint32(e.buf.B, uint32(x)) //nolint:gosec
		}
	case []int64:
		if err := e.writeLength(len(val)); err != nil {
			return err
		}
		for _, x := range val {
			e.buf.B = e.engine.AppendUint64(e.buf.B, uint64(x)) //nolint:gosec
		}
	default:
		return fmt.Errorf("nbt: unsupported value type %T", v)
	}

	return nil
}

func (e *encoder) writeList(l List) error {
	if !l.Type.IsValid() {
		return fmt.Errorf("nbt: invalid list type %d", byte(l.Type))
	}
	if l.Type == TagEnd && len(l.Items) > 0 {
		return fmt.Errorf("nbt: list of End with %d items", len(l.Items))
	}

	_ = e.buf.WriteByte(byte(l.Type))
	if err := e.writeLength(len(l.Items)); err != nil {
		return err
	}
	for i, item := range l.Items {
		if TagOf(item) != l.Type {
			return fmt.Errorf("nbt: list item %d is %s, want %s", i, TagOf(item), l.Type)
		}
		if err := e.writePayload(item); err != nil {
			return err
		}
	}

	return nil
}
