// Package palette aligns the id spaces of two schematics.
//
// Schematics are authored independently and almost never number their
// palettes the same way, even for identical block names. The functions here
// rewrite block data so that a pattern and a search volume share one id
// space, which lets the search compare blocks by integer equality.
package palette

import (
	"strings"

	"github.com/arloliu/schemsearch/schematic"
)

// Unmapped is the id given to blocks whose name does not occur in the target
// palette. It never equals a valid palette id.
const Unmapped int32 = -1

// Reverse returns the id to name table of s.
func Reverse(s schematic.Schematic) []string {
	return s.Palette().Names()
}

// StripName removes a trailing block state suffix:
// "minecraft:oak_stairs[facing=north]" becomes "minecraft:oak_stairs".
func StripName(name string) string {
	if i := strings.IndexByte(name, '['); i >= 0 {
		return name[:i]
	}

	return name
}

func nameOf(names []string, id int32) string {
	if id < 0 || int(id) >= len(names) {
		return ""
	}

	return names[id]
}

// Strip returns a copy of s in which all block states sharing a stripped name
// collapse to one id. The new palette is dense and numbered in the order the
// names first appear in the block data.
func Strip(s schematic.Schematic) *schematic.V2 {
	names := Reverse(s)
	palette := make(schematic.Palette)
	data := make([]int32, len(s.BlockData()))

	// Ids repeat heavily; cache the stripped id per source id.
	cache := make(map[int32]int32, len(names))
	for i, id := range s.BlockData() {
		stripped, ok := cache[id]
		if !ok {
			name := StripName(nameOf(names, id))
			if stripped, ok = palette[name]; !ok {
				stripped = int32(len(palette)) //nolint:gosec
				palette[name] = stripped
			}
			cache[id] = stripped
		}
		data[i] = stripped
	}

	return schematic.NewV2(schematic.Data{
		Width:         s.Width(),
		Height:        s.Height(),
		Length:        s.Length(),
		Palette:       palette,
		PaletteMax:    int32(len(palette)), //nolint:gosec
		BlockData:     data,
		BlockEntities: s.BlockEntities(),
	})
}

// Remap expresses the block data of s in the id space of target. Names are
// stripped before the lookup when ignoreBlockData is set; names missing from
// target map to Unmapped.
func Remap(s schematic.Schematic, target schematic.Palette, ignoreBlockData bool) []int32 {
	names := Reverse(s)

	// Resolve every palette slot once instead of every cell.
	lookup := make([]int32, len(names))
	for id, name := range names {
		if ignoreBlockData {
			name = StripName(name)
		}
		if mapped, ok := target[name]; ok && name != "" {
			lookup[id] = mapped
		} else {
			lookup[id] = Unmapped
		}
	}

	data := make([]int32, len(s.BlockData()))
	for i, id := range s.BlockData() {
		if id < 0 || int(id) >= len(lookup) {
			data[i] = Unmapped
			continue
		}
		data[i] = lookup[id]
	}

	return data
}

// Align returns pattern expressed in the id space of s.
//
// With ignoreBlockData both inputs are stripped first and the result uses the
// stripped palette of s; otherwise the raw palette of s is used. The result
// keeps the dimensions and block entities of pattern.
func Align(s, pattern schematic.Schematic, ignoreBlockData bool) *schematic.V2 {
	_, aligned := AlignPair(s, pattern, ignoreBlockData)
	return aligned
}

// AlignPair is Align that also returns the block data of s in the shared id
// space, so callers comparing both grids strip s only once.
//
// Returns:
//   - []int32: Block data of s (stripped when ignoreBlockData is set)
//   - *schematic.V2: Pattern in the shared id space, carrying the shared palette
func AlignPair(s, pattern schematic.Schematic, ignoreBlockData bool) ([]int32, *schematic.V2) {
	if ignoreBlockData {
		s = Strip(s)
		pattern = Strip(pattern)
	}

	aligned := schematic.NewV2(schematic.Data{
		Width:         pattern.Width(),
		Height:        pattern.Height(),
		Length:        pattern.Length(),
		Palette:       s.Palette(),
		PaletteMax:    s.PaletteMax(),
		BlockData:     Remap(pattern, s.Palette(), ignoreBlockData),
		BlockEntities: pattern.BlockEntities(),
	})

	return s.BlockData(), aligned
}
