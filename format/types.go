// Package format defines the enumerations shared across schemsearch packages:
// schematic schema versions, envelope compression types and output formats.
package format

import "fmt"

type (
	Version         uint8
	CompressionType uint8
	OutputFormat    uint8
)

const (
	V1 Version = 0x1 // V1 is the Sponge schematic v1 layout (TileEntities, PaletteMax).
	V2 Version = 0x2 // V2 adds DataVersion, BlockEntities and optional Entities.
	V3 Version = 0x3 // V3 nests Palette, Data and BlockEntities inside a "Blocks" compound.

	CompressionNone CompressionType = 0x1 // CompressionNone represents an uncompressed NBT document.
	CompressionGzip CompressionType = 0x2 // CompressionGzip represents the standard gzip envelope.
	CompressionZstd CompressionType = 0x3 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x4 // CompressionS2 represents the S2 stream format.
	CompressionLZ4  CompressionType = 0x5 // CompressionLZ4 represents the LZ4 frame format.

	OutputText OutputFormat = 0x1 // OutputText writes human readable lines.
	OutputCSV  OutputFormat = 0x2 // OutputCSV writes comma separated records.
	OutputJSON OutputFormat = 0x3 // OutputJSON writes one JSON event per line.
)

func (v Version) String() string {
	switch v {
	case V1:
		return "V1"
	case V2:
		return "V2"
	case V3:
		return "V3"
	default:
		return "Unknown"
	}
}

// IsValid reports whether v is one of the supported schema versions.
func (v Version) IsValid() bool {
	return v >= V1 && v <= V3
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionGzip:
		return "Gzip"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompressionType parses a case-sensitive lower-case compression name.
func ParseCompressionType(s string) (CompressionType, error) {
	switch s {
	case "none":
		return CompressionNone, nil
	case "gzip":
		return CompressionGzip, nil
	case "zstd":
		return CompressionZstd, nil
	case "s2":
		return CompressionS2, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression type %q", s)
	}
}

func (o OutputFormat) String() string {
	switch o {
	case OutputText:
		return "text"
	case OutputCSV:
		return "csv"
	case OutputJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseOutputFormat parses "text", "csv" or "json".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "text", "std":
		return OutputText, nil
	case "csv":
		return OutputCSV, nil
	case "json":
		return OutputJSON, nil
	default:
		return 0, fmt.Errorf("'%s' is not a valid output format", s)
	}
}
