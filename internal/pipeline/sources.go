package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/sokogen/internal/atlas"
	"github.com/cory-johannsen/sokogen/internal/descriptor"
	"github.com/cory-johannsen/sokogen/internal/level"
	"github.com/cory-johannsen/sokogen/internal/repack"
)

// AtlasSource generates an atlas descriptor from an animations file.
type AtlasSource struct {
	// Path is the animations YAML file.
	Path string
	// Params is the default geometry; the file may override any of it.
	Params atlas.Params
	// ImageOverride, when set, replaces the image name from both Params and
	// the file.
	ImageOverride string
}

// Name returns the generator name used in logs.
func (s *AtlasSource) Name() string { return "genatlas" }

// Inputs returns the animations file.
func (s *AtlasSource) Inputs() []string { return []string{s.Path} }

// Generate maps the file's animations to frames. The result is named after
// the sheet image, so the default output for atlas.png is atlas.json.
func (s *AtlasSource) Generate(_ context.Context) (*Result, error) {
	sheet, err := atlas.LoadAnimationsFile(s.Path)
	if err != nil {
		return nil, err
	}
	params := sheet.Apply(s.Params)
	if s.ImageOverride != "" {
		params.Image = s.ImageOverride
	}
	d, err := atlas.Generate(sheet.Animations, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return &Result{
		Name:     strings.TrimSuffix(d.Meta.Image, filepath.Ext(d.Meta.Image)),
		Document: d,
		Check:    descriptor.CheckRoundTrip[atlas.Descriptor],
		Counts: []Count{
			{Name: "animations", N: len(sheet.Animations)},
			{Name: "frames", N: d.Frames.Len()},
		},
		Summary: fmt.Sprintf("%d frames from %d animations", d.Frames.Len(), len(sheet.Animations)),
	}, nil
}

// LevelSource generates a level descriptor from a level file.
type LevelSource struct {
	// Path is the level YAML file.
	Path    string
	Options level.LoadOptions

	referenced []string
}

// Name returns the generator name used in logs.
func (s *LevelSource) Name() string { return "genlevel" }

// Inputs returns the level file and, once a run has read it, the legend file
// and layout script it references.
func (s *LevelSource) Inputs() []string {
	return append([]string{s.Path}, s.referenced...)
}

// Generate resolves the level file and runs the cell resolver over its
// layout. Duplicate players become warnings carrying both positions.
func (s *LevelSource) Generate(ctx context.Context) (*Result, error) {
	s.referenced = level.ReferencedFiles(s.Path, s.Options)
	src, err := level.LoadSourceFile(ctx, s.Path, s.Options)
	if err != nil {
		return nil, err
	}
	d, dups, err := src.Generate()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	st := d.Stats()
	res := &Result{
		Name:     src.Name,
		Document: d,
		Check:    descriptor.CheckRoundTrip[level.Descriptor],
		Counts: []Count{
			{Name: "tiles", N: st.Tiles},
			{Name: "walls", N: st.Walls},
			{Name: "mobs", N: st.Mobs},
		},
		Summary: fmt.Sprintf("%s %dx%d: %d tiles, %d walls, %d mobs", src.Name, st.Width, st.Height, st.Tiles, st.Walls, st.Mobs),
	}
	for _, w := range dups {
		res.Warnings = append(res.Warnings, Warning{
			Message: w.String(),
			Fields: []zap.Field{
				zap.Int("x", w.X), zap.Int("y", w.Y),
				zap.Int("prev_x", w.PrevX), zap.Int("prev_y", w.PrevY),
			},
		})
	}
	return res, nil
}

// RepackSource repacks an atlas into a fixed grid. The repacked image is
// written as a companion of the descriptor.
type RepackSource struct {
	// ImagePath and AtlasPath are the source sheet and its descriptor.
	ImagePath string
	AtlasPath string
	// OutImage is where the repacked sheet is written.
	OutImage string
	// OverridesPath optionally names a per-frame overrides YAML file.
	OverridesPath string
	Options       repack.Options
}

// Name returns the generator name used in logs.
func (s *RepackSource) Name() string { return "repack" }

// Inputs returns the source sheet, its descriptor and the overrides file when
// one is set.
func (s *RepackSource) Inputs() []string {
	in := []string{s.ImagePath, s.AtlasPath}
	if s.OverridesPath != "" {
		in = append(in, s.OverridesPath)
	}
	return in
}

// Generate repacks the sheet and returns the new descriptor, with the
// encoded PNG as a companion.
//
// Precondition: every frame of the input descriptor fits Options' grid.
func (s *RepackSource) Generate(_ context.Context) (*Result, error) {
	img, err := repack.ReadPNG(s.ImagePath)
	if err != nil {
		return nil, err
	}
	in, err := atlas.ReadDescriptor(s.AtlasPath)
	if err != nil {
		return nil, err
	}
	opts := s.Options
	if s.OverridesPath != "" {
		if opts.Overrides, err = repack.LoadOverrides(s.OverridesPath); err != nil {
			return nil, err
		}
	}
	canvas, out, err := repack.Repack(img, in, opts)
	if err != nil {
		return nil, err
	}
	png, err := repack.EncodePNG(canvas)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(s.OutImage), filepath.Ext(s.OutImage))
	return &Result{
		Name:       name,
		Document:   out,
		Check:      descriptor.CheckRoundTrip[atlas.Descriptor],
		Companions: []Companion{{Path: s.OutImage, Data: png}},
		Counts:     []Count{{Name: "frames", N: out.Frames.Len()}},
		Summary: fmt.Sprintf("%d frames into %dx%d cells of %dpx",
			out.Frames.Len(), opts.Columns, opts.Rows, opts.CellSize),
	}, nil
}
