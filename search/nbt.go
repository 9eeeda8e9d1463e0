package search

import (
	_ "embed"
	"strings"

	"github.com/arloliu/schemsearch/palette"
	"github.com/arloliu/schemsearch/schematic"
)

//go:embed nbt_blocks.txt
var nbtBlockList string

// nbtBlocks holds the names of blocks that store their state in a block
// entity, such as containers, signs and command blocks.
var nbtBlocks = func() map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range strings.Split(nbtBlockList, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			set[line] = struct{}{}
		}
	}

	return set
}()

// RequiresBlockEntity reports whether a block needs a block entity to be
// valid. State suffixes are ignored.
func RequiresBlockEntity(name string) bool {
	_, ok := nbtBlocks[palette.StripName(name)]
	return ok
}

func nbtIDs(s schematic.Schematic) map[int32]struct{} {
	ids := make(map[int32]struct{})
	for name, id := range s.Palette() {
		if RequiresBlockEntity(name) {
			ids[id] = struct{}{}
		}
	}

	return ids
}

// HasInvalidNBT reports whether some block of s that needs a block entity has
// none at its exact position.
func HasInvalidNBT(s schematic.Schematic) bool {
	ids := nbtIDs(s)
	if len(ids) == 0 {
		return false
	}

	positions := make(map[[3]int32]struct{}, len(s.BlockEntities()))
	for _, be := range s.BlockEntities() {
		positions[be.Pos] = struct{}{}
	}

	width, length := int(s.Width()), int(s.Length())
	for i, id := range s.BlockData() {
		if _, ok := ids[id]; !ok {
			continue
		}
		x, y, z := schematic.Coords(width, length, i)
		if _, ok := positions[[3]int32{int32(x), int32(y), int32(z)}]; !ok { //nolint:gosec
			return true
		}
	}

	return false
}

// HasInvalidNBTCoarse reports whether s has no block entities at all while
// its palette contains a block that needs one.
func HasInvalidNBTCoarse(s schematic.Schematic) bool {
	return len(s.BlockEntities()) == 0 && len(nbtIDs(s)) > 0
}

// SearchInvalidNBT runs the block entity check and reports a failing
// schematic as a single match at the origin with Percent 1.
func SearchInvalidNBT(s schematic.Schematic, coarse bool) []Match {
	invalid := HasInvalidNBT(s)
	if coarse {
		invalid = HasInvalidNBTCoarse(s)
	}
	if !invalid {
		return nil
	}

	return []Match{{X: 0, Y: 0, Z: 0, Percent: 1}}
}
