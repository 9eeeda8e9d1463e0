//go:build cgo && gozstd

package compress

import (
	"fmt"

	"github.com/arloliu/schemsearch/errs"
	"github.com/valyala/gozstd"
)

// Compress compresses the input data using Zstandard compression.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	return gozstd.CompressLevel(nil, data, 3), nil
}

// DecompressLimit decompresses Zstd data, failing once the output exceeds limit.
func (c ZstdCompressor) DecompressLimit(data []byte, limit int64) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	out, err := gozstd.Decompress(nil, data)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w: %w", errs.ErrDecompress, err)
	}

	return checkLimit("zstd", out, limit)
}
