package level

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/sokogen/internal/grid"
	"github.com/cory-johannsen/sokogen/internal/scripting"
)

// sourceFile is the YAML shape of a level file.
type sourceFile struct {
	Name     string     `yaml:"name"`
	TileSize int        `yaml:"tile_size"`
	Legend   yaml.Node  `yaml:"legend"`
	Rows     []string   `yaml:"rows"`
	Tokens   [][]string `yaml:"tokens"`
	Script   string     `yaml:"script"`
}

// LoadOptions supplies the defaults a level file may leave out.
type LoadOptions struct {
	// DefaultLegend is a built-in legend name or legend file path used when
	// the file names none.
	DefaultLegend string
	// TileSize is used when the file sets no tile_size.
	TileSize int
	// ScriptInstructionLimit bounds layout scripts; 0 uses the scripting
	// default.
	ScriptInstructionLimit int
}

// Source is a fully resolved level file, ready for Generate.
type Source struct {
	Name     string
	TileSize int
	Legend   *Legend
	Layout   *grid.Layout
	// Script is the resolved layout script path, empty for inline layouts.
	Script string
	// LegendPath is the legend file the level was resolved with, empty for
	// built-in and inline legends.
	LegendPath string
}

// Generate builds the descriptor for s.
func (s *Source) Generate() (*Descriptor, []DuplicatePlayerWarning, error) {
	return Generate(s.Name, s.Layout, s.Legend, s.TileSize)
}

// LoadSourceFile reads a level file and resolves its legend and layout.
// Relative legend and script paths are resolved against the file's
// directory.
//
// Precondition: the file sets exactly one of rows, tokens or script.
// Postcondition: returns a Source whose layout is padded with the legend's
// blank code.
func LoadSourceFile(ctx context.Context, path string, opts LoadOptions) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading level file %s: %w", path, err)
	}
	src, err := ParseSource(ctx, data, filepath.Dir(path), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if src.Name == "" {
		src.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return src, nil
}

// ParseSource decodes a level file held in memory. baseDir anchors relative
// legend and script paths. An unnamed level keeps an empty name.
func ParseSource(ctx context.Context, data []byte, baseDir string, opts LoadOptions) (*Source, error) {
	var f sourceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing level YAML: %w", err)
	}

	set := 0
	for _, present := range []bool{f.Rows != nil, f.Tokens != nil, f.Script != ""} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, errors.New("level must set exactly one of rows, tokens or script")
	}

	legend, err := decodeLegend(&f.Legend, baseDir, opts.DefaultLegend)
	if err != nil {
		return nil, err
	}

	src := &Source{Name: f.Name, TileSize: f.TileSize, Legend: legend, LegendPath: legendRef(&f.Legend, baseDir, opts.DefaultLegend)}
	if src.TileSize == 0 {
		src.TileSize = opts.TileSize
	}
	if src.TileSize <= 0 {
		return nil, fmt.Errorf("tile_size must be positive, got %d", src.TileSize)
	}

	switch {
	case f.Rows != nil:
		src.Layout = grid.ParseRows(f.Rows, legend.Blank)
	case f.Tokens != nil:
		src.Layout = grid.NewLayout(f.Tokens, legend.Blank)
	default:
		script := resolvePath(f.Script, baseDir)
		rows, err := scripting.RunLayoutFile(ctx, script, opts.ScriptInstructionLimit)
		if err != nil {
			return nil, err
		}
		src.Layout = grid.NewLayout(rows, legend.Blank)
		src.Script = script
	}
	return src, nil
}

// ReferencedFiles lists the files a level file pulls in besides itself: its
// legend file and its layout script, resolved the way LoadSourceFile resolves
// them. Nothing is validated or executed, so the list is available even when
// the level fails to load. An unreadable or unparsable level yields nil.
func ReferencedFiles(path string, opts LoadOptions) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var f sourceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil
	}
	baseDir := filepath.Dir(path)
	var files []string
	if legend := legendRef(&f.Legend, baseDir, opts.DefaultLegend); legend != "" {
		files = append(files, legend)
	}
	if f.Script != "" {
		files = append(files, resolvePath(f.Script, baseDir))
	}
	return files
}

// legendRef is the legend file decodeLegend would load, or "".
func legendRef(n *yaml.Node, baseDir, def string) string {
	switch n.Kind {
	case 0:
		return LegendPath(def, "")
	case yaml.ScalarNode:
		return LegendPath(n.Value, baseDir)
	default:
		return ""
	}
}

// decodeLegend accepts a legend given by name or path (a scalar) or inline (a
// mapping). An absent legend falls back to def, resolved against the working
// directory.
func decodeLegend(n *yaml.Node, baseDir, def string) (*Legend, error) {
	switch n.Kind {
	case 0:
		if def == "" {
			return nil, errors.New("level names no legend and no default legend is configured")
		}
		return ResolveLegend(def, "")
	case yaml.ScalarNode:
		return ResolveLegend(n.Value, baseDir)
	case yaml.MappingNode:
		var l Legend
		if err := n.Decode(&l); err != nil {
			return nil, fmt.Errorf("decoding inline legend: %w", err)
		}
		if err := l.Validate(); err != nil {
			return nil, err
		}
		return &l, nil
	default:
		return nil, fmt.Errorf("legend must be a name, a path or a mapping (line %d)", n.Line)
	}
}
