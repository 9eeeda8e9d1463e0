package encoding

import (
	"fmt"

	"github.com/arloliu/schemsearch/errs"
	"github.com/arloliu/schemsearch/internal/pool"
)

// MaxVarintGroups is the maximum number of 7-bit groups a single block id may use.
// Five groups cover all 32 bits of an int32.
const MaxVarintGroups = 5

// VarintEncoder encodes block ids into the schematic BlockData varint stream.
//
// Each id is split into 7-bit groups, least-significant group first. Every byte
// except the last one of a value has its high bit (0x80) set.
//
// Note: The VarintEncoder is NOT thread-safe.
type VarintEncoder struct {
	buf   *pool.ByteBuffer
	count int
}

// NewVarintEncoder creates a new block-id varint encoder backed by a pooled buffer.
//
// Returns:
//   - *VarintEncoder: A new encoder instance; call Reset to release its buffer
func NewVarintEncoder() *VarintEncoder {
	return &VarintEncoder{
		buf: pool.GetVarintBuffer(),
	}
}

// Write encodes a single block id.
//
// Negative values are encoded as their 32-bit two's complement and always take
// MaxVarintGroups bytes.
//
// Parameters:
//   - id: Block id to append
func (e *VarintEncoder) Write(id int32) {
	e.count++
	e.buf.Grow(MaxVarintGroups)
	e.buf.B = appendVarint(e.buf.B, id)
}

// WriteSlice encodes a slice of block ids in order.
//
// Parameters:
//   - ids: Block ids to append
func (e *VarintEncoder) WriteSlice(ids []int32) {
	e.buf.Grow(len(ids))
	for _, id := range ids {
		e.buf.B = appendVarint(e.buf.B, id)
	}
	e.count += len(ids)
}

// Bytes returns the encoded stream.
//
// The returned slice shares the underlying buffer with the encoder.
// Do not modify the returned slice.
func (e *VarintEncoder) Bytes() []byte {
	return e.buf.Bytes()
}

// Len returns the number of ids encoded.
func (e *VarintEncoder) Len() int {
	return e.count
}

// Size returns the total size of the encoded stream in bytes.
func (e *VarintEncoder) Size() int {
	return e.buf.Len()
}

// Reset returns the buffer to the pool.
//
// After calling Reset, the encoder should not be used again.
func (e *VarintEncoder) Reset() {
	if e.buf != nil {
		pool.PutVarintBuffer(e.buf)
		e.buf = nil
	}
	e.count = 0
}

// AppendVarints appends the varint encoding of ids to dst and returns the extended slice.
func AppendVarints(dst []byte, ids []int32) []byte {
	for _, id := range ids {
		dst = appendVarint(dst, id)
	}

	return dst
}

func appendVarint(dst []byte, id int32) []byte {
	v := uint32(id) //nolint:gosec
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}

	return append(dst, byte(v))
}

// DecodeVarints decodes a BlockData varint stream into block ids.
//
// Decoding accumulates value |= (b & 0x7F) << position and advances position by
// 7 for every continuation byte.
//
// Parameters:
//   - data: Raw BlockData bytes
//
// Returns:
//   - []int32: Decoded ids in stream order
//   - error: errs.ErrVarintOutOfRange when a value needs more than MaxVarintGroups
//     groups, errs.ErrVarintTruncated when the stream ends inside a value
func DecodeVarints(data []byte) ([]int32, error) {
	// Most palettes stay below 128 entries, so one byte per id is the common case.
	ids := make([]int32, 0, len(data))

	var (
		value  uint32
		groups int
	)
	for i, b := range data {
		// The last group holds the top 4 bits of an int32.
		if groups == MaxVarintGroups-1 && b&0x70 != 0 {
			return nil, fmt.Errorf("value %d at byte %d exceeds 32 bits: %w", len(ids), i, errs.ErrVarintOutOfRange)
		}
		value |= uint32(b&0x7F) << (7 * groups)
		groups++

		if b&0x80 == 0 {
			ids = append(ids, int32(value)) //nolint:gosec
			value = 0
			groups = 0

			continue
		}

		if groups == MaxVarintGroups {
			return nil, fmt.Errorf("value %d at byte %d: %w", len(ids), i, errs.ErrVarintOutOfRange)
		}
	}

	if groups != 0 {
		return nil, fmt.Errorf("value %d: %w", len(ids), errs.ErrVarintTruncated)
	}

	return ids, nil
}
