package fixture

import "strings"

// ScenarioOrigin is where Scenario pastes the pattern into the volume.
var ScenarioOrigin = [3]int{1, 0, 3}

// Pattern returns a 3x3x3 build that uses no background block, with stairs
// facing north, a chest, a glass pane and one air cell.
func Pattern() *Blocks {
	b := New(3, 3, 3, "minecraft:oak_planks")
	for x := range 3 {
		b.Set(x, 0, 0, "minecraft:oak_stairs[facing=north,half=bottom]")
		b.Set(x, 2, 2, "minecraft:glass")
	}
	b.Set(1, 1, 1, Air)
	b.Set(0, 1, 2, Chest)
	b.Set(2, 1, 0, "minecraft:glass_pane[east=true,west=true]")
	b.AddBlockEntity("minecraft:chest", 0, 1, 2)

	return b
}

// Scenario returns a 12x6x12 noise volume holding Pattern at ScenarioOrigin
// with different block states, plus the pattern itself.
//
// With ignore_block_data and threshold 0.9 the only match is ScenarioOrigin at
// 1.0; every other window covers at least nine background blocks.
func Scenario() (volume, pattern *Blocks) {
	pattern = Pattern()
	volume = Noise(12, 6, 12, 42)
	volume.Paste(pattern, ScenarioOrigin[0], ScenarioOrigin[1], ScenarioOrigin[2], func(name string) string {
		return strings.ReplaceAll(name, "facing=north", "facing=south")
	})
	volume.AddBlockEntity("minecraft:chest",
		ScenarioOrigin[0]+0, ScenarioOrigin[1]+1, ScenarioOrigin[2]+2)

	return volume, pattern
}
