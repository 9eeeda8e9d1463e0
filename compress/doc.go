// Package compress provides the envelope codecs that wrap schematic NBT documents.
//
// Sponge schematics are gzip-compressed NBT documents. Stores and tools that
// keep schematics in bulk often recompress them, so the decoder also accepts
// Zstandard, S2 and LZ4 envelopes as well as plain, uncompressed NBT.
//
// # Architecture
//
// The package defines three core interfaces:
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	    DecompressLimit(data []byte, limit int64) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// # Supported Envelopes
//
// **Gzip** (format.CompressionGzip): the format written by WorldEdit and FAWE.
// Backed by github.com/klauspost/compress/gzip.
//
// **Zstd** (format.CompressionZstd): pooled klauspost/compress/zstd encoders and
// decoders by default. Building with cgo and the "gozstd" tag switches to
// github.com/valyala/gozstd.
//
// **S2** (format.CompressionS2): S2 stream format, which also reads Snappy
// framed streams.
//
// **LZ4** (format.CompressionLZ4): LZ4 frame format from github.com/pierrec/lz4/v4.
//
// **None** (format.CompressionNone): plain NBT documents pass through unchanged.
//
// # Detection
//
// Detect inspects the magic bytes at the start of a file:
//
//	gzip  1f 8b
//	zstd  28 b5 2f fd
//	lz4   04 22 4d 18
//	s2    ff 06 00 00 "S2sTwO" (or "sNaPpY")
//
// Anything else is treated as uncompressed NBT. Decompress combines detection
// with the matching codec:
//
//	document, ctype, err := compress.Decompress(fileBytes, 0)
//
// # Limits
//
// Every decompressor enforces an output limit (DefaultDecompressLimit unless a
// smaller one is given) and returns errs.ErrDecompressLimit when the document
// would exceed it. Corrupted input yields errs.ErrDecompress.
//
// # Thread Safety
//
// All codecs are stateless values and safe for concurrent use. The pure Go zstd
// codec draws encoders and decoders from sync.Pool instances.
package compress
