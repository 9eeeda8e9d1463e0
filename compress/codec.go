package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/arloliu/schemsearch/errs"
	"github.com/arloliu/schemsearch/format"
)

// DefaultDecompressLimit bounds the size of a decompressed schematic document.
//
// Large builds stay well below this limit; anything bigger is treated as a
// hostile or corrupted input rather than loaded into memory.
const DefaultDecompressLimit int64 = 512 * 1024 * 1024 // 512MiB

// Compressor compresses a whole NBT document into an envelope.
//
// Compression is not needed to search schematics; it exists so that fixtures,
// stores and tests can produce every envelope the decoder accepts.
//
// Memory management:
//   - Returned slice is newly allocated and owned by the caller
//   - Input slice is not modified
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor turns an envelope back into the raw NBT document.
//
// Example:
//
//	decompressor := compress.NewGzipCompressor()
//	document, err := decompressor.Decompress(fileBytes)
//	if err != nil {
//	    return fmt.Errorf("decompression failed: %w", err)
//	}
//
// Thread Safety: all implementations in this package are safe for concurrent use.
type Decompressor interface {
	// Decompress decompresses data with DefaultDecompressLimit.
	//
	// Error conditions:
	//   - errs.ErrDecompress if the input is corrupted or uses another algorithm
	//   - errs.ErrDecompressLimit if the output would exceed the limit
	Decompress(data []byte) ([]byte, error)

	// DecompressLimit decompresses data and fails once the output exceeds limit bytes.
	// A limit <= 0 selects DefaultDecompressLimit.
	DecompressLimit(data []byte, limit int64) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec is a factory function that creates a Codec based on the specified compression type.
//
// Parameters:
//   - compressionType: Type of compression (None, Gzip, Zstd, S2, or LZ4)
//   - target: Description of target usage (for error messages)
//
// Returns:
//   - Codec: Codec instance for the specified type
//   - error: Invalid compression type error
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionGzip:
		return NewGzipCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("invalid %s compression: %s", target, compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionGzip: NewGzipCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves a built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}

// Decompress detects the envelope of data and decompresses it.
//
// Parameters:
//   - data: Raw file bytes (compressed or plain NBT)
//   - limit: Maximum decompressed size; <= 0 selects DefaultDecompressLimit
//
// Returns:
//   - []byte: The NBT document
//   - format.CompressionType: The detected envelope
//   - error: Decompression failure
func Decompress(data []byte, limit int64) ([]byte, format.CompressionType, error) {
	ctype := Detect(data)

	codec, err := GetCodec(ctype)
	if err != nil {
		return nil, ctype, err
	}

	out, err := codec.DecompressLimit(data, limit)
	if err != nil {
		return nil, ctype, err
	}

	return out, ctype, nil
}

// readAllLimited drains a streaming decoder while enforcing limit.
func readAllLimited(name string, r io.Reader, limit int64, sizeHint int) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultDecompressLimit
	}

	var buf bytes.Buffer
	if sizeHint > 0 && int64(sizeHint) < limit {
		buf.Grow(sizeHint)
	}

	n, err := buf.ReadFrom(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", name, errs.ErrDecompress, err)
	}
	if n > limit {
		return nil, fmt.Errorf("%s: %w (%d bytes)", name, errs.ErrDecompressLimit, limit)
	}

	return buf.Bytes(), nil
}

func checkLimit(name string, out []byte, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultDecompressLimit
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("%s: %w (%d bytes)", name, errs.ErrDecompressLimit, limit)
	}

	return out, nil
}
