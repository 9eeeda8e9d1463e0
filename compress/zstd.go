package compress

// ZstdCompressor provides Zstandard envelopes.
//
// Zstd is not produced by schematic editors; it is used by stores that keep
// schematics recompressed for faster loading. Two backends exist:
//   - pure Go (klauspost/compress/zstd), the default
//   - valyala/gozstd, selected with the "gozstd" build tag when cgo is enabled
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd codec with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}

// Decompress decompresses Zstd data with DefaultDecompressLimit.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	return c.DecompressLimit(data, DefaultDecompressLimit)
}
