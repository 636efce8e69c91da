package atlas

import (
	"fmt"
	"image"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/sokogen/internal/grid"
)

// sheetFile is the YAML shape of an animations file.
type sheetFile struct {
	Image      string          `yaml:"image"`
	Pitch      []int           `yaml:"pitch"`
	SpriteSize []int           `yaml:"sprite_size"`
	Offset     []int           `yaml:"offset"`
	Animations []animationYAML `yaml:"animations"`
}

type animationYAML struct {
	Name   string  `yaml:"name"`
	Frames [][]int `yaml:"frames"`
}

// Sheet is a parsed animations file: the ordered animations plus any geometry
// the file pins for its own sheet.
type Sheet struct {
	Animations []Animation

	image      string
	pitch      *image.Point
	spriteSize *image.Point
	offset     *image.Point
}

// Apply returns p with every geometry field the sheet sets replaced by the
// sheet's value.
func (s *Sheet) Apply(p Params) Params {
	if s.image != "" {
		p.Image = s.image
	}
	if s.pitch != nil {
		p.Pitch = *s.pitch
	}
	if s.spriteSize != nil {
		p.SpriteSize = *s.spriteSize
	}
	if s.offset != nil {
		p.Offset = *s.offset
	}
	return p
}

// ParseAnimations decodes an animations file.
//
// Precondition: data is YAML with an `animations` list.
// Postcondition: every matrix is validated; a ragged one yields a
// *grid.MalformedGridError.
func ParseAnimations(data []byte) (*Sheet, error) {
	var f sheetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing animations YAML: %w", err)
	}
	s := &Sheet{image: f.Image, Animations: make([]Animation, 0, len(f.Animations))}
	var err error
	if s.pitch, err = pair("pitch", f.Pitch); err != nil {
		return nil, err
	}
	if s.spriteSize, err = pair("sprite_size", f.SpriteSize); err != nil {
		return nil, err
	}
	if s.offset, err = pair("offset", f.Offset); err != nil {
		return nil, err
	}
	for _, a := range f.Animations {
		m, err := grid.NewMatrix(a.Name, a.Frames)
		if err != nil {
			return nil, err
		}
		s.Animations = append(s.Animations, Animation{Name: a.Name, Frames: m})
	}
	return s, nil
}

// LoadAnimationsFile reads and parses the animations file at path.
func LoadAnimationsFile(path string) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading animations file %s: %w", path, err)
	}
	s, err := ParseAnimations(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func pair(field string, v []int) (*image.Point, error) {
	switch len(v) {
	case 0:
		return nil, nil
	case 2:
		return &image.Point{X: v[0], Y: v[1]}, nil
	default:
		return nil, fmt.Errorf("%s must have 2 values, got %d", field, len(v))
	}
}
