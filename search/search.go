// Package search finds occurrences of a block pattern inside a schematic.
//
// Search slides the bounding box of the pattern over every placement inside
// the volume and counts differing blocks, giving up on a placement as soon as
// the mismatch budget derived from the threshold is exhausted. Before the
// scan both schematics are brought into one id space by the palette package,
// so the inner loop compares integers only.
//
//	behavior, _ := search.NewBehavior(search.WithIgnoreBlockData(true))
//	for _, m := range search.Search(volume, pattern, behavior) {
//	    fmt.Printf("%d %d %d %.2f%%\n", m.X, m.Y, m.Z, m.Percent*100)
//	}
//
// Search is pure: it performs no I/O, never mutates its inputs and is safe
// to call concurrently.
package search

import (
	"math"

	"github.com/arloliu/schemsearch/palette"
	"github.com/arloliu/schemsearch/schematic"
)

// AirName is the block name treated as air. Schematics written by older
// tools use the unqualified name AirNameLegacy.
const (
	AirName       = "minecraft:air"
	AirNameLegacy = "air"
)

// noAir is the air id of a palette without air. It differs from
// palette.Unmapped so that unmapped pattern cells never count as air.
const noAir int32 = math.MinInt32

// Match is one placement of the pattern whose lower corner sits at (X, Y, Z)
// in the volume. Percent is the fraction of matching blocks.
type Match struct {
	X, Y, Z uint16
	Percent float32
}

// AirID returns the id of air in p, or a value no palette id can equal.
func AirID(p schematic.Palette) int32 {
	if id, ok := p[AirName]; ok {
		return id
	}
	if id, ok := p[AirNameLegacy]; ok {
		return id
	}

	return noAir
}

// Search returns every placement of pattern in volume matching at least
// behavior.Threshold of its blocks, ordered by y, then z, then x.
//
// The result is empty when the pattern is larger than the volume along any
// axis, when the pattern is empty, or when the pattern palette has more
// entries than the volume palette.
//
// Parameters:
//   - volume: Schematic to search in
//   - pattern: Schematic to look for
//   - behavior: Comparison settings
//
// Returns:
//   - []Match: Accepted placements (nil if none)
func Search(volume, pattern schematic.Schematic, behavior Behavior) []Match {
	vw, vh, vl := int(volume.Width()), int(volume.Height()), int(volume.Length())
	pw, ph, pl := int(pattern.Width()), int(pattern.Height()), int(pattern.Length())

	if pw > vw || ph > vh || pl > vl {
		return nil
	}
	count := pw * ph * pl
	if count == 0 {
		return nil
	}
	if len(pattern.Palette()) > len(volume.Palette()) {
		return nil
	}

	volumeData, aligned := palette.AlignPair(volume, pattern, behavior.IgnoreBlockData)

	volumeAir := noAir
	if behavior.IgnoreAir {
		volumeAir = AirID(aligned.Palette())
	}
	patternAir := noAir
	if behavior.AirAsAny {
		patternAir = AirID(pattern.Palette())
	}

	// Flatten the pattern into volume-relative offsets. Wildcard cells always
	// match and are dropped.
	patternData := aligned.BlockData()
	rawPattern := pattern.BlockData()
	offsets := make([]int, 0, count)
	values := make([]int32, 0, count)
	for j := range ph {
		for k := range pl {
			for i := range pw {
				idx := schematic.Index(pw, pl, i, j, k)
				if rawPattern[idx] == patternAir {
					continue
				}
				offsets = append(offsets, schematic.Index(vw, vl, i, j, k))
				values = append(values, patternData[idx])
			}
		}
	}

	budget := behavior.MaxMismatches(count)

	var matches []Match
	for y := 0; y <= vh-ph; y++ {
		for z := 0; z <= vl-pl; z++ {
			for x := 0; x <= vw-pw; x++ {
				base := schematic.Index(vw, vl, x, y, z)
				mismatches := 0
				for c, off := range offsets {
					v := volumeData[base+off]
					if v == volumeAir || v == values[c] {
						continue
					}
					mismatches++
					if mismatches > budget {
						break
					}
				}

				if mismatches <= budget {
					matches = append(matches, Match{
						X:       uint16(x), //nolint:gosec
						Y:       uint16(y), //nolint:gosec
						Z:       uint16(z), //nolint:gosec
						Percent: float32(float64(count-mismatches) / float64(count)),
					})
				}
			}
		}
	}

	return matches
}
