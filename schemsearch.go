// Package schemsearch finds block patterns inside Sponge schematics.
//
// A schematic is a gzip (or zstd, s2, lz4) compressed NBT document describing
// a box of blocks in one of the Sponge formats V1, V2 or V3. Given a small
// pattern schematic and a larger one, Search slides the pattern over every
// position of the larger schematic and reports each position where at least
// a threshold fraction of the pattern's blocks match.
//
// # Basic Usage
//
//	pattern, _ := schemsearch.Load("door.schem")
//	castle, _ := schemsearch.Load("castle.schem")
//
//	behavior, _ := schemsearch.NewBehavior(
//	    search.WithIgnoreBlockData(true),
//	    search.WithThreshold(0.95),
//	)
//	for _, m := range schemsearch.Search(castle, pattern, behavior) {
//	    fmt.Printf("x=%d y=%d z=%d %.2f\n", m.X, m.Y, m.Z, m.Percent)
//	}
//
// # Package Structure
//
// This package wraps the most common calls. The schematic package decodes
// files, palette aligns block ids between schematics, search runs the sliding
// window match and batch searches many sources on a worker pool.
package schemsearch

import (
	"github.com/arloliu/schemsearch/batch"
	"github.com/arloliu/schemsearch/internal/hash"
	"github.com/arloliu/schemsearch/schematic"
	"github.com/arloliu/schemsearch/search"
)

// Decode decodes a schematic file held in memory.
//
// The compression envelope is detected from the leading bytes and the format
// version from the NBT content. The result is validated.
//
// Parameters:
//   - data: Raw file bytes
//   - opts: Optional decoder configuration (see schematic.DecoderOption)
//
// Returns:
//   - schematic.Schematic: The decoded V1, V2 or V3 schematic
//   - error: A *errs.DecodeError describing the first problem found
func Decode(data []byte, opts ...schematic.DecoderOption) (schematic.Schematic, error) {
	return schematic.Decode(data, opts...)
}

// Load reads and decodes the schematic file at path.
//
// Parameters:
//   - path: File path
//   - opts: Optional decoder configuration (see schematic.DecoderOption)
//
// Returns:
//   - schematic.Schematic: The decoded schematic
//   - error: errs.ErrIO when the file cannot be read, otherwise as for Decode
func Load(path string, opts ...schematic.DecoderOption) (schematic.Schematic, error) {
	return schematic.Load(path, opts...)
}

// NewBehavior builds a validated search behavior from the defaults.
func NewBehavior(opts ...search.BehaviorOption) (search.Behavior, error) {
	return search.NewBehavior(opts...)
}

// Search returns every position of volume where pattern matches under behavior,
// ordered by y, then z, then x.
//
// Search never fails: a pattern that cannot fit, an empty pattern or a pattern
// using more distinct blocks than the volume yields no matches.
func Search(volume, pattern schematic.Schematic, behavior search.Behavior) []search.Match {
	return search.Search(volume, pattern, behavior)
}

// SearchBytes decodes volume and searches it for pattern.
//
// Parameters:
//   - data: Raw bytes of the schematic to search
//   - pattern: The decoded pattern
//   - behavior: Search configuration
//   - opts: Optional decoder configuration for data
//
// Returns:
//   - []search.Match: Matches in y, z, x order
//   - error: A decode error for data
func SearchBytes(data []byte, pattern schematic.Schematic, behavior search.Behavior, opts ...schematic.DecoderOption) ([]search.Match, error) {
	volume, err := schematic.Decode(data, opts...)
	if err != nil {
		return nil, err
	}

	return search.Search(volume, pattern, behavior), nil
}

// SearchInvalidNBT reports a single match at the origin when s contains a block
// that needs a block entity but has none. coarse only checks the palette.
func SearchInvalidNBT(s schematic.Schematic, coarse bool) []search.Match {
	return search.SearchInvalidNBT(s, coarse)
}

// NewRunner creates a batch runner searching many sources for pattern.
//
// Example:
//
//	runner, err := schemsearch.NewRunner(pattern, behavior, batch.WithWorkers(4))
//	results := runner.Run(ctx, sources)
func NewRunner(pattern schematic.Schematic, behavior search.Behavior, opts ...batch.Option) (*batch.Runner, error) {
	return batch.NewRunner(pattern, behavior, opts...)
}

// Digest returns the content digest batch runs use to recognize duplicate files.
func Digest(data []byte) uint64 {
	return hash.Digest(data)
}
