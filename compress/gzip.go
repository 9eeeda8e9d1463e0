package compress

import (
	"bytes"
	"fmt"

	"github.com/arloliu/schemsearch/errs"
	"github.com/klauspost/compress/gzip"
)

// GzipCompressor handles the standard schematic envelope.
//
// Sponge schematics written by WorldEdit and FAWE are gzip-compressed NBT
// documents. The klauspost implementation is a drop-in replacement for
// compress/gzip with faster inflate.
type GzipCompressor struct{}

var _ Codec = (*GzipCompressor)(nil)

// NewGzipCompressor creates a new gzip codec.
func NewGzipCompressor() GzipCompressor {
	return GzipCompressor{}
}

// Compress compresses data into a single gzip member.
func (c GzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("gzip compression failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip compression failed: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress decompresses a gzip envelope with DefaultDecompressLimit.
func (c GzipCompressor) Decompress(data []byte) ([]byte, error) {
	return c.DecompressLimit(data, DefaultDecompressLimit)
}

// DecompressLimit decompresses a gzip envelope, failing once the output exceeds limit.
func (c GzipCompressor) DecompressLimit(data []byte, limit int64) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w: %w", errs.ErrDecompress, err)
	}
	defer r.Close()

	// Schematics typically compress 5-20x.
	return readAllLimited("gzip", r, limit, len(data)*8)
}
