package compress

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/s2"
)

// S2Compressor produces S2 streams. The stream format starts with a magic
// chunk, which lets Detect recognise it; Snappy framed streams decode too.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates a new S2 codec.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress compresses the input data into an S2 stream.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := s2.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("s2 compression failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("s2 compression failed: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress decompresses an S2 stream with DefaultDecompressLimit.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	return c.DecompressLimit(data, DefaultDecompressLimit)
}

// DecompressLimit decompresses an S2 stream, failing once the output exceeds limit.
func (c S2Compressor) DecompressLimit(data []byte, limit int64) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return readAllLimited("s2", s2.NewReader(bytes.NewReader(data)), limit, len(data)*4)
}
