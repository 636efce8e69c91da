package level

import (
	"fmt"

	"github.com/cory-johannsen/sokogen/internal/grid"
)

// Generate scans layout row by row, left to right, and builds the level
// descriptor named name.
//
// Precondition: tileSize > 0; legend is valid.
// Postcondition: meta.size is [layout width, layout height]; tiles holds
// exactly width*height records; the returned warnings are non-fatal. On error
// no descriptor is returned.
func Generate(name string, layout *grid.Layout, legend *Legend, tileSize int) (*Descriptor, []DuplicatePlayerWarning, error) {
	if tileSize <= 0 {
		return nil, nil, fmt.Errorf("tile size must be positive, got %d", tileSize)
	}
	d := &Descriptor{Meta: Meta{
		Name:     name,
		TileSize: tileSize,
		Size:     [2]int{layout.Width(), layout.Height()},
	}}
	r := NewResolver(d, legend)
	for y := 0; y < layout.Height(); y++ {
		for x := 0; x < layout.Width(); x++ {
			if err := r.Resolve(layout.At(x, y), x, y); err != nil {
				return nil, nil, err
			}
		}
	}
	return d, r.Warnings(), nil
}
