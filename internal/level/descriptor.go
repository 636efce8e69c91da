// Package level turns a grid of authored codes into the engine's level
// descriptor: one tile per cell, wall objects, and mobs.
package level

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cory-johannsen/sokogen/internal/descriptor"
)

// Default tile fields for cells whose legend entry does not override them.
const (
	DefaultTileAsset = "floor"
	DefaultTileType  = "empty"
)

// PlayerRole is the mob role that maps to the singleton "player" key.
const PlayerRole = "player"

// ControlledBehaviour is the behaviour type attached to the player.
const ControlledBehaviour = "controlled"

// Tile is the floor record emitted for every cell.
type Tile struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Asset    string `json:"asset"`
	TileType string `json:"tile_type"`
}

// Object is a static level object. Walls are the only kind emitted.
type Object struct {
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Asset      string `json:"asset"`
	Collidable bool   `json:"collidable"`
}

// Behaviour tells the engine how a mob is driven.
type Behaviour struct {
	Type string `json:"type"`
}

// Mob is a movable entity and its starting cell.
type Mob struct {
	XStart    int        `json:"x_start"`
	YStart    int        `json:"y_start"`
	Asset     string     `json:"asset"`
	IsPlayer  bool       `json:"is_player"`
	Behaviour *Behaviour `json:"behaviour,omitempty"`
}

// Meta names the level and records its grid size as [width, height].
type Meta struct {
	Name     string `json:"name"`
	TileSize int    `json:"tile_size"`
	Size     [2]int `json:"size"`
}

// Descriptor is the level document in the engine's key order.
type Descriptor struct {
	Meta    Meta                          `json:"meta"`
	Tiles   descriptor.OrderedMap[Tile]   `json:"tiles"`
	Objects descriptor.OrderedMap[Object] `json:"objects"`
	Mobs    descriptor.OrderedMap[Mob]    `json:"mobs"`
}

// Stats summarizes a generated level.
type Stats struct {
	Width   int
	Height  int
	Tiles   int
	Walls   int
	Mobs    int
	Players int
}

// Stats counts the records in d.
func (d *Descriptor) Stats() Stats {
	s := Stats{
		Width:  d.Meta.Size[0],
		Height: d.Meta.Size[1],
		Tiles:  d.Tiles.Len(),
		Walls:  d.Objects.Len(),
		Mobs:   d.Mobs.Len(),
	}
	d.Mobs.Each(func(_ string, m Mob) bool {
		if m.IsPlayer {
			s.Players++
		}
		return true
	})
	return s
}

// ReadDescriptor loads a level descriptor from path, keeping record order.
func ReadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading level descriptor %s: %w", path, err)
	}
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing level descriptor %s: %w", path, err)
	}
	return &d, nil
}
