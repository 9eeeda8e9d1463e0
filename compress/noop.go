package compress

// NoOpCompressor passes uncompressed NBT documents through unchanged.
//
// Schematic files may hold plain NBT without an envelope; Detect reports
// plain documents as format.CompressionNone, which maps to this codec.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a new no-operation codec.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns data unchanged. The returned slice shares memory with the input.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data unchanged, subject to DefaultDecompressLimit.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return c.DecompressLimit(data, DefaultDecompressLimit)
}

// DecompressLimit returns data unchanged unless it exceeds limit.
// The returned slice shares memory with the input.
func (c NoOpCompressor) DecompressLimit(data []byte, limit int64) ([]byte, error) {
	return checkLimit("none", data, limit)
}
