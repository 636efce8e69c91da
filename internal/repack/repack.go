// Package repack copies every frame of an atlas into a fixed grid of equal
// cells, optionally rescaling sprites, and rewrites the atlas descriptor to
// match.
package repack

import (
	"errors"
	"fmt"
	"image"
	"maps"
	"slices"

	"golang.org/x/image/draw"

	"github.com/cory-johannsen/sokogen/internal/atlas"
)

// Override adjusts the placement of a single frame.
type Override struct {
	// DX and DY shift the paste position, in pixels.
	DX int `yaml:"dx"`
	DY int `yaml:"dy"`
	// Size resizes the frame to a Size x Size square when positive.
	Size int `yaml:"size"`
}

// Options describes the output grid.
type Options struct {
	// Image is the file name recorded in the new descriptor's meta.image.
	Image string
	// CellSize is the width and height of every output cell.
	CellSize int
	// Columns and Rows fix the grid shape. Frames are placed row-major.
	Columns int
	Rows    int
	// Scale resizes every frame to (tile_size*Scale)² using the input
	// descriptor's tile_size; 0 keeps frames at their source size.
	Scale int
	// Offset shifts every paste position within its cell.
	Offset image.Point
	// Overrides apply per frame key.
	Overrides map[string]Override
}

// Validate checks that the grid has a positive shape.
func (o Options) Validate() error {
	var errs []error
	if o.Image == "" {
		errs = append(errs, errors.New("image must not be empty"))
	}
	if o.CellSize <= 0 {
		errs = append(errs, fmt.Errorf("cell size must be positive, got %d", o.CellSize))
	}
	if o.Columns <= 0 || o.Rows <= 0 {
		errs = append(errs, fmt.Errorf("grid must be at least 1x1, got %dx%d", o.Columns, o.Rows))
	}
	if o.Scale < 0 {
		errs = append(errs, fmt.Errorf("scale must be non-negative, got %d", o.Scale))
	}
	for _, key := range slices.Sorted(maps.Keys(o.Overrides)) {
		if ov := o.Overrides[key]; ov.Size < 0 {
			errs = append(errs, fmt.Errorf("override %q: size must be non-negative, got %d", key, ov.Size))
		}
	}
	return errors.Join(errs...)
}

// Repack places frame i of in, in key order, at column i%Columns and row
// i/Columns of a new canvas.
//
// Precondition: in.Frames.Len() <= Columns*Rows.
// Postcondition: the returned descriptor has the same keys in the same order;
// each frame is the full cell {col*cell, row*cell, cell, cell}. Source pixels
// outside src are transparent. Pixels pasted outside the canvas are dropped.
func Repack(src image.Image, in *atlas.Descriptor, opts Options) (*image.NRGBA, *atlas.Descriptor, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, fmt.Errorf("repack options: %w", err)
	}
	if n, capacity := in.Frames.Len(), opts.Columns*opts.Rows; n > capacity {
		return nil, nil, fmt.Errorf("%d frames do not fit a %dx%d grid of %d cells", n, opts.Columns, opts.Rows, capacity)
	}

	cell := opts.CellSize
	canvas := image.NewNRGBA(image.Rect(0, 0, opts.Columns*cell, opts.Rows*cell))
	out := &atlas.Descriptor{Meta: atlas.Meta{Image: opts.Image, TileSize: cell, Version: atlas.FormatVersion}}

	origin := src.Bounds().Min
	i := 0
	var err error
	in.Frames.Each(func(key string, f atlas.Frame) bool {
		if f.W < 0 || f.H < 0 {
			err = fmt.Errorf("frame %q has negative size %dx%d", key, f.W, f.H)
			return false
		}
		col, row := i%opts.Columns, i/opts.Columns
		i++

		sprite := image.NewNRGBA(image.Rect(0, 0, f.W, f.H))
		draw.Draw(sprite, sprite.Bounds(), src, origin.Add(image.Pt(f.X, f.Y)), draw.Src)

		ov := opts.Overrides[key]
		size := ov.Size
		if size == 0 && opts.Scale > 0 {
			size = in.Meta.TileSize * opts.Scale
		}
		var placed image.Image = sprite
		if size > 0 {
			scaled := image.NewNRGBA(image.Rect(0, 0, size, size))
			draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), sprite, sprite.Bounds(), draw.Src, nil)
			placed = scaled
		}

		at := image.Pt(col*cell+opts.Offset.X+ov.DX, row*cell+opts.Offset.Y+ov.DY)
		draw.Draw(canvas, placed.Bounds().Add(at), placed, image.Point{}, draw.Src)

		out.Frames.Set(key, atlas.Frame{X: col * cell, Y: row * cell, W: cell, H: cell})
		return true
	})
	if err != nil {
		return nil, nil, err
	}
	return canvas, out, nil
}
