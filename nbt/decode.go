package nbt

import (
	"fmt"
	"math"

	"github.com/arloliu/schemsearch/endian"
	"github.com/arloliu/schemsearch/errs"
)

type decoder struct {
	data   []byte
	off    int
	engine endian.EndianEngine
}

// Decode parses a complete NBT document.
//
// The root tag must be a named compound. Every length prefix is checked
// against the remaining input before allocating, and nesting deeper than
// MaxDepth is rejected. Bytes following the root compound are ignored.
//
// Parameters:
//   - data: Uncompressed NBT document
//   - engine: Byte order of multi-byte values
//
// Returns:
//   - string: Name of the root compound (often empty)
//   - Compound: Root compound
//   - error: Wraps errs.ErrMalformedNBT on any structural failure
func Decode(data []byte, engine endian.EndianEngine) (string, Compound, error) {
	d := &decoder{data: data, engine: engine}

	tag, err := d.readByte()
	if err != nil {
		return "", nil, err
	}
	if TagType(tag) != TagCompound {
		return "", nil, d.errorf("root tag is %s, want Compound", TagType(tag))
	}

	name, err := d.readString()
	if err != nil {
		return "", nil, err
	}

	root, err := d.readCompound(1)
	if err != nil {
		return "", nil, err
	}

	return name, root, nil
}

func (d *decoder) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: offset %d: %s", errs.ErrMalformedNBT, d.off, fmt.Sprintf(format, args...))
}

func (d *decoder) remaining() int {
	return len(d.data) - d.off
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || n > d.remaining() {
		return nil, d.errorf("need %d bytes, have %d", n, d.remaining())
	}
	b := d.data[d.off : d.off+n]
	d.off += n

	return b, nil
}

func (d *decoder) readByte() (byte, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

func (d *decoder) readUint16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}

	return d.engine.Uint16(b), nil
}

func (d *decoder) readUint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}

	return d.engine.Uint32(b), nil
}

func (d *decoder) readUint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}

	return d.engine.Uint64(b), nil
}

func (d *decoder) readString() (string, error) {
	n, err := d.readUint16()
	if err != nil {
		return "", err
	}
	b, err := d.take(int(n))
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// readLength reads an int32 array or list length and checks that at least
// n*elemSize bytes remain.
func (d *decoder) readLength(elemSize int) (int, error) {
	v, err := d.readUint32()
	if err != nil {
		return 0, err
	}
	n := int32(v) //nolint:gosec
	if n < 0 {
		return 0, d.errorf("negative length %d", n)
	}
	if elemSize > 0 && int64(n)*int64(elemSize) > int64(d.remaining()) {
		return 0, d.errorf("length %d exceeds remaining %d bytes", n, d.remaining())
	}

	return int(n), nil
}

func (d *decoder) readCompound(depth int) (Compound, error) {
	if depth > MaxDepth {
		return nil, d.errorf("nesting exceeds %d", MaxDepth)
	}

	c := make(Compound)
	for {
		tag, err := d.readByte()
		if err != nil {
			return nil, err
		}
		if TagType(tag) == TagEnd {
			return c, nil
		}

		name, err := d.readString()
		if err != nil {
			return nil, err
		}

		v, err := d.readPayload(TagType(tag), depth)
		if err != nil {
			return nil, err
		}
		c[name] = v
	}
}

// maxListPrealloc bounds the capacity reserved up front for a list; longer
// lists grow as their elements are actually read.
const maxListPrealloc = 1024

// minPayloadSize is the smallest encoding of one payload of tag.
func minPayloadSize(tag TagType) int {
	switch tag {
	case TagByte, TagCompound:
		return 1
	case TagShort, TagString:
		return 2
	case TagInt, TagFloat, TagByteArray, TagIntArray, TagLongArray:
		return 4
	case TagList:
		return 5
	case TagLong, TagDouble:
		return 8
	default:
		return 0
	}
}

func (d *decoder) readList(depth int) (List, error) {
	if depth > MaxDepth {
		return List{}, d.errorf("nesting exceeds %d", MaxDepth)
	}

	elem, err := d.readByte()
	if err != nil {
		return List{}, err
	}
	elemType := TagType(elem)
	if !elemType.IsValid() {
		return List{}, d.errorf("unknown list element tag %d", elem)
	}

	n, err := d.readLength(minPayloadSize(elemType))
	if err != nil {
		return List{}, err
	}
	if elemType == TagEnd && n > 0 {
		return List{}, d.errorf("list of End with %d items", n)
	}

	items := make([]any, 0, min(n, maxListPrealloc))
	for range n {
		v, err := d.readPayload(elemType, depth)
		if err != nil {
			return List{}, err
		}
		items = append(items, v)
	}

	return List{Type: elemType, Items: items}, nil
}

func (d *decoder) readPayload(tag TagType, depth int) (any, error) {
	switch tag {
	case TagByte:
		b, err := d.readByte()
		return int8(b), err //nolint:gosec
	case TagShort:
		v, err := d.readUint16()
		return int16(v), err //nolint:gosec
	case TagInt:
		v, err := d.readUint32()
		return int32(v), err //nolint:gosec
	case TagLong:
		v, err := d.readUint64()
		return int64(v), err //nolint:gosec
	case TagFloat:
		v, err := d.readUint32()
		return math.Float32frombits(v), err
	case TagDouble:
		v, err := d.readUint64()
		return math.Float64frombits(v), err
	case TagByteArray:
		n, err := d.readLength(1)
		if err != nil {
			return nil, err
		}
		b, err := d.take(n)
		if err != nil {
			return nil, err
		}

		return append([]byte(nil), b...), nil
	case TagString:
		return d.readString()
	case TagList:
		return d.readList(depth + 1)
	case TagCompound:
		return d.readCompound(depth + 1)
	case TagIntArray:
		n, err := d.readLength(4)
		if err != nil {
			return nil, err
		}
		out := make([]int32, n)
		for i := range out {
			v, _ := d.readUint32()
			out[i] = int32(v) //nolint:gosec
		}

		return out, nil
	case TagLongArray:
		n, err := d.readLength(8)
		if err != nil {
			return nil, err
		}
		out := make([]int64, n)
		for i := range out {
			v, _ := d.readUint64()
			out[i] = int64(v) //nolint:gosec
		}

		return out, nil
	default:
		return nil, d.errorf("unknown tag %d", byte(tag))
	}
}
