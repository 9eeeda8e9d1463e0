package pool

import (
	"io"
	"sync"
)

const (
	// VarintBufferDefaultSize is the initial capacity of buffers used for block-id streams.
	VarintBufferDefaultSize = 1024 * 16 // 16KiB
	// VarintBufferMaxThreshold caps the capacity of buffers returned to the varint pool.
	VarintBufferMaxThreshold = 1024 * 1024 * 4 // 4MiB
	// DocumentBufferDefaultSize is the initial capacity of buffers used for NBT documents.
	DocumentBufferDefaultSize = 1024 * 64 // 64KiB
	// DocumentBufferMaxThreshold caps the capacity of buffers returned to the document pool.
	DocumentBufferMaxThreshold = 1024 * 1024 * 16 // 16MiB
)

// ByteBuffer is an append-only byte slice wrapper reused through ByteBufferPool.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset empties the buffer but keeps the allocated memory.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// MustWrite appends data to the buffer.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// WriteByte appends a single byte. It never fails.
func (bb *ByteBuffer) WriteByte(c byte) error {
	bb.B = append(bb.B, c)
	return nil
}

// Grow ensures the buffer can hold requiredBytes more bytes without reallocating.
//
// Small buffers grow by VarintBufferDefaultSize, larger ones by 25% of their
// capacity, and always by at least requiredBytes.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	if cap(bb.B)-len(bb.B) >= requiredBytes {
		return
	}

	growBy := VarintBufferDefaultSize
	if cap(bb.B) > 4*VarintBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}
	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write appends the contents of data to the buffer.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// WriteTo writes the contents of the buffer to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// ByteBufferPool is a sync.Pool of ByteBuffers that drops buffers grown beyond maxThreshold.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool of buffers with the given initial capacity.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var (
	varintPool   = NewByteBufferPool(VarintBufferDefaultSize, VarintBufferMaxThreshold)
	documentPool = NewByteBufferPool(DocumentBufferDefaultSize, DocumentBufferMaxThreshold)
)

// GetVarintBuffer retrieves a buffer sized for block-id varint streams.
func GetVarintBuffer() *ByteBuffer {
	return varintPool.Get()
}

// PutVarintBuffer returns a buffer obtained from GetVarintBuffer.
func PutVarintBuffer(bb *ByteBuffer) {
	varintPool.Put(bb)
}

// GetDocumentBuffer retrieves a buffer sized for whole NBT documents.
func GetDocumentBuffer() *ByteBuffer {
	return documentPool.Get()
}

// PutDocumentBuffer returns a buffer obtained from GetDocumentBuffer.
func PutDocumentBuffer(bb *ByteBuffer) {
	documentPool.Put(bb)
}
