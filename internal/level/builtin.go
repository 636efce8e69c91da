package level

import (
	"maps"
	"slices"
)

// Built-in legend names.
const (
	LegendSokoban = "sokoban"
	LegendNumeric = "numeric"
	LegendMenu    = "menu"
)

var (
	floorTile  = &TileSpec{Asset: DefaultTileAsset, Type: DefaultTileType}
	targetTile = &TileSpec{Asset: "target", Type: "target"}
	wallObject = &WallSpec{Asset: "wall_tile"}
	boxMob     = &MobSpec{Role: "box", Asset: "box"}
)

var builtinLegends = map[string]func() *Legend{
	// Classic Sokoban notation, one character per cell.
	LegendSokoban: func() *Legend {
		player := &MobSpec{Role: PlayerRole, Asset: "idle_se_0"}
		return &Legend{
			Blank: " ",
			Entries: map[string]Entry{
				"-": {},
				"#": {Tile: &TileSpec{Asset: "concrete", Type: DefaultTileType}, Wall: wallObject},
				".": {Tile: targetTile},
				"$": {Mob: boxMob},
				"*": {Tile: targetTile, Mob: boxMob},
				"@": {Mob: player},
				"+": {Tile: targetTile, Mob: player},
			},
		}
	},
	// Letter codes for procedurally built rooms. Walls stand on floor.
	LegendNumeric: func() *Legend {
		return &Legend{
			Blank: "F",
			Entries: map[string]Entry{
				"W": {Tile: floorTile, Wall: wallObject},
				"B": {Mob: boxMob},
				"T": {Tile: targetTile},
				"P": {Mob: &MobSpec{Role: PlayerRole, Asset: "running_se_0"}},
				"G": {Tile: targetTile, Mob: boxMob},
			},
		}
	},
	// Title screens: every token other than NOP and the player marker is a
	// letter sprite named after the token.
	LegendMenu: func() *Legend {
		return &Legend{
			Blank: "NOP",
			Entries: map[string]Entry{
				"#": {Mob: &MobSpec{Role: PlayerRole, AssetFromCode: true}},
			},
			Fallback: &Entry{Mob: &MobSpec{Role: "letter", AssetFromCode: true}},
		}
	},
}

// BuiltinLegend returns a fresh copy of the named built-in legend.
func BuiltinLegend(name string) (*Legend, bool) {
	build, ok := builtinLegends[name]
	if !ok {
		return nil, false
	}
	return build(), true
}

// IsBuiltinLegend reports whether name is a built-in legend.
func IsBuiltinLegend(name string) bool {
	_, ok := builtinLegends[name]
	return ok
}

// BuiltinLegendNames returns the built-in legend names in sorted order.
func BuiltinLegendNames() []string {
	return slices.Sorted(maps.Keys(builtinLegends))
}
