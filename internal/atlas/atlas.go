// Package atlas maps frame-occupancy grids onto pixel coordinates in a sprite
// sheet and produces the engine's atlas descriptor.
package atlas

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/cory-johannsen/sokogen/internal/descriptor"
	"github.com/cory-johannsen/sokogen/internal/grid"
)

// FormatVersion is the atlas descriptor schema version the engine expects.
const FormatVersion = 1

// Frame locates one sprite in the sheet, in pixels.
type Frame struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Meta describes the sheet a descriptor indexes.
type Meta struct {
	Image    string `json:"image"`
	TileSize int    `json:"tile_size"`
	Version  int    `json:"version"`
}

// Descriptor is the atlas document: frames keyed "<animation>_<index>" in
// emission order, plus sheet metadata.
type Descriptor struct {
	Frames descriptor.OrderedMap[Frame] `json:"frames"`
	Meta   Meta                         `json:"meta"`
}

// Animation pairs an animation name with its occupancy matrix.
type Animation struct {
	Name   string
	Frames *grid.Matrix
}

// Params holds the sheet geometry used to place frames.
type Params struct {
	// Image is the sheet file name recorded in meta.image.
	Image string
	// Pitch is the distance between neighbouring cells on each axis.
	Pitch image.Point
	// SpriteSize is the width and height recorded for every frame.
	SpriteSize image.Point
	// Offset is the pixel origin of cell (0, 0).
	Offset image.Point
}

// Validate checks that the geometry can produce non-negative coordinates.
func (p Params) Validate() error {
	var errs []error
	if p.Image == "" {
		errs = append(errs, errors.New("image must not be empty"))
	}
	if p.Pitch.X <= 0 || p.Pitch.Y <= 0 {
		errs = append(errs, fmt.Errorf("pitch must be positive, got %v", p.Pitch))
	}
	if p.SpriteSize.X <= 0 || p.SpriteSize.Y <= 0 {
		errs = append(errs, fmt.Errorf("sprite size must be positive, got %v", p.SpriteSize))
	}
	if p.Offset.X < 0 || p.Offset.Y < 0 {
		errs = append(errs, fmt.Errorf("offset must be non-negative, got %v", p.Offset))
	}
	return errors.Join(errs...)
}

// Generate walks anims in order and emits one frame per occupied cell.
//
// Animations are stacked vertically: each one starts on the row after the last
// row of the previous animation, whether or not that row was occupied. Within
// an animation, cells are visited row by row, left to right, and numbered from
// zero.
//
// Precondition: animation names are non-empty and unique; p is valid.
// Postcondition: returns a Descriptor whose frame keys are unique and whose
// meta.tile_size equals p.Pitch.X.
func Generate(anims []Animation, p Params) (*Descriptor, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("atlas parameters: %w", err)
	}
	seen := make(map[string]bool, len(anims))
	for i, a := range anims {
		if a.Name == "" {
			return nil, fmt.Errorf("animation %d has no name", i)
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("animation %q defined more than once", a.Name)
		}
		seen[a.Name] = true
	}

	d := &Descriptor{Meta: Meta{Image: p.Image, TileSize: p.Pitch.X, Version: FormatVersion}}
	consumed := 0
	for _, a := range anims {
		m := a.Frames
		if m == nil {
			continue
		}
		k := 0
		for r := 0; r < m.Rows(); r++ {
			y := (consumed+r)*p.Pitch.Y + p.Offset.Y
			for c := 0; c < m.Cols(); c++ {
				if !m.Occupied(r, c) {
					continue
				}
				key := fmt.Sprintf("%s_%d", a.Name, k)
				if d.Frames.Set(key, Frame{
					X: c*p.Pitch.X + p.Offset.X,
					Y: y,
					W: p.SpriteSize.X,
					H: p.SpriteSize.Y,
				}) {
					return nil, fmt.Errorf("frame key %q collides with an earlier frame", key)
				}
				k++
			}
		}
		consumed += m.Rows()
	}
	return d, nil
}

// ParseDescriptor decodes an atlas descriptor, keeping frame order.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing atlas descriptor: %w", err)
	}
	return &d, nil
}

// ReadDescriptor loads an atlas descriptor from path.
func ReadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading atlas descriptor %s: %w", path, err)
	}
	d, err := ParseDescriptor(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
