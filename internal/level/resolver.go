package level

import (
	"fmt"

	"github.com/cory-johannsen/sokogen/internal/grid"
)

// DuplicatePlayerWarning records a player code that replaced an earlier one.
// The later position wins.
type DuplicatePlayerWarning struct {
	X, Y         int
	PrevX, PrevY int
}

func (w DuplicatePlayerWarning) String() string {
	return fmt.Sprintf("multiple players found at %d,%d: overwriting player at %d,%d", w.X, w.Y, w.PrevX, w.PrevY)
}

// Resolver applies legend entries to cells, writing records into a
// descriptor. Its counters live for one generation run.
type Resolver struct {
	d        *Descriptor
	legend   *Legend
	tiles    int
	walls    int
	roles    map[string]int
	player   *Mob
	warnings []DuplicatePlayerWarning
}

// NewResolver returns a Resolver that writes into d using legend.
//
// Precondition: legend has passed Validate.
func NewResolver(d *Descriptor, legend *Legend) *Resolver {
	return &Resolver{d: d, legend: legend, roles: make(map[string]int)}
}

// Resolve emits the records for code at (x, y): always one tile, then a wall
// and a mob when the entry asks for them.
//
// Postcondition: returns a *grid.MalformedGridError when the legend has no
// entry for code; nothing is emitted in that case.
func (r *Resolver) Resolve(code string, x, y int) error {
	e, ok := r.legend.Lookup(code)
	if !ok {
		return &grid.MalformedGridError{
			Grid:   r.d.Meta.Name,
			Row:    y,
			Col:    x,
			Code:   code,
			Reason: "no legend entry for code",
		}
	}

	tile := Tile{X: x, Y: y, Asset: DefaultTileAsset, TileType: DefaultTileType}
	if e.Tile != nil {
		tile.Asset = e.Tile.Asset
		if e.Tile.Type != "" {
			tile.TileType = e.Tile.Type
		}
	}
	r.tiles++
	r.d.Tiles.Set(fmt.Sprintf("tile_%d", r.tiles), tile)

	if e.Wall != nil {
		r.walls++
		r.d.Objects.Set(fmt.Sprintf("wall_%d", r.walls), Object{X: x, Y: y, Asset: e.Wall.Asset, Collidable: true})
	}

	if e.Mob != nil {
		r.spawn(e.Mob, code, x, y)
	}
	return nil
}

func (r *Resolver) spawn(spec *MobSpec, code string, x, y int) {
	asset := spec.Asset
	if spec.AssetFromCode {
		asset = code
	}
	if spec.Role == PlayerRole {
		m := Mob{XStart: x, YStart: y, Asset: asset, IsPlayer: true, Behaviour: &Behaviour{Type: ControlledBehaviour}}
		if r.player != nil {
			r.warnings = append(r.warnings, DuplicatePlayerWarning{X: x, Y: y, PrevX: r.player.XStart, PrevY: r.player.YStart})
		}
		r.player = &m
		r.d.Mobs.Set(PlayerRole, m)
		return
	}
	r.roles[spec.Role]++
	r.d.Mobs.Set(fmt.Sprintf("%s_%d", spec.Role, r.roles[spec.Role]), Mob{XStart: x, YStart: y, Asset: asset})
}

// Warnings returns the duplicate-player warnings raised so far, in cell
// order.
func (r *Resolver) Warnings() []DuplicatePlayerWarning {
	return r.warnings
}
