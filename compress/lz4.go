package compress

import (
	"bytes"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// LZ4Compressor produces LZ4 frames, favouring decompression speed.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 codec.
//
// Returns:
//   - LZ4Compressor: New LZ4 codec instance
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses the input data into an LZ4 frame.
//
// Parameters:
//   - data: Input data to compress
//
// Returns:
//   - []byte: LZ4 frame, including the frame magic
//   - error: Compression error if any
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress decompresses an LZ4 frame with DefaultDecompressLimit.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	return c.DecompressLimit(data, DefaultDecompressLimit)
}

// DecompressLimit decompresses an LZ4 frame, failing once the output exceeds limit.
//
// Parameters:
//   - data: LZ4 frame
//   - limit: Maximum output size; <= 0 selects DefaultDecompressLimit
//
// Returns:
//   - []byte: Decompressed data (nil if input is empty)
//   - error: errs.ErrDecompress or errs.ErrDecompressLimit
func (c LZ4Compressor) DecompressLimit(data []byte, limit int64) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return readAllLimited("lz4", lz4.NewReader(bytes.NewReader(data)), limit, len(data)*4)
}
