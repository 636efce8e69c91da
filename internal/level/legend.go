package level

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// TileSpec overrides the tile emitted for a cell.
type TileSpec struct {
	Asset string `yaml:"asset"`
	Type  string `yaml:"type"`
}

// WallSpec adds a collidable wall object on a cell.
type WallSpec struct {
	Asset string `yaml:"asset"`
}

// MobSpec spawns a mob on a cell. When AssetFromCode is set the cell's code
// is used as the asset name.
type MobSpec struct {
	Role          string `yaml:"role"`
	Asset         string `yaml:"asset"`
	AssetFromCode bool   `yaml:"asset_from_code"`
}

// Entry is everything one code produces. A nil part contributes nothing; an
// empty Entry is a plain floor cell.
type Entry struct {
	Tile *TileSpec `yaml:"tile"`
	Wall *WallSpec `yaml:"wall"`
	Mob  *MobSpec  `yaml:"mob"`
}

// Legend maps layout codes to the records they produce.
type Legend struct {
	// Blank pads short rows and always resolves to a plain floor cell unless
	// Entries overrides it.
	Blank   string           `yaml:"blank"`
	Entries map[string]Entry `yaml:"entries"`
	// Fallback handles codes with no entry. Without it such codes are
	// malformed.
	Fallback *Entry `yaml:"fallback"`
}

// Lookup returns the entry for code.
func (l *Legend) Lookup(code string) (Entry, bool) {
	if e, ok := l.Entries[code]; ok {
		return e, true
	}
	if code == l.Blank {
		return Entry{}, true
	}
	if l.Fallback != nil {
		return *l.Fallback, true
	}
	return Entry{}, false
}

// Validate checks that every entry can produce complete records.
//
// Postcondition: returns nil or an error listing every invalid entry in code
// order.
func (l *Legend) Validate() error {
	var errs []error
	if l.Blank == "" {
		errs = append(errs, errors.New("legend blank code must not be empty"))
	}
	for _, code := range slices.Sorted(maps.Keys(l.Entries)) {
		if code == "" {
			errs = append(errs, errors.New("legend entry with empty code"))
			continue
		}
		if err := validateEntry(l.Entries[code]); err != nil {
			errs = append(errs, fmt.Errorf("legend entry %q: %w", code, err))
		}
	}
	if l.Fallback != nil {
		if err := validateEntry(*l.Fallback); err != nil {
			errs = append(errs, fmt.Errorf("legend fallback: %w", err))
		}
	}
	return errors.Join(errs...)
}

func validateEntry(e Entry) error {
	if e.Tile != nil && e.Tile.Asset == "" {
		return errors.New("tile asset must not be empty")
	}
	if e.Wall != nil && e.Wall.Asset == "" {
		return errors.New("wall asset must not be empty")
	}
	if e.Mob != nil {
		if e.Mob.Role == "" {
			return errors.New("mob role must not be empty")
		}
		if e.Mob.Asset == "" && !e.Mob.AssetFromCode {
			return errors.New("mob needs an asset or asset_from_code")
		}
	}
	return nil
}

// ParseLegend decodes and validates a YAML legend.
func ParseLegend(data []byte) (*Legend, error) {
	var l Legend
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parsing legend YAML: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// LoadLegendFile reads and validates the legend at path.
func LoadLegendFile(path string) (*Legend, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading legend file %s: %w", path, err)
	}
	l, err := ParseLegend(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// IsLegendPath reports whether ref names a legend file rather than a
// built-in legend.
func IsLegendPath(ref string) bool {
	ext := strings.ToLower(filepath.Ext(ref))
	return ext == ".yaml" || ext == ".yml"
}

// ResolveLegend returns the built-in legend named ref, or loads ref as a
// legend file. Relative paths are resolved against baseDir.
func ResolveLegend(ref, baseDir string) (*Legend, error) {
	if l, ok := BuiltinLegend(ref); ok {
		return l, nil
	}
	path := LegendPath(ref, baseDir)
	if path == "" {
		return nil, fmt.Errorf("unknown legend %q: want one of [%s] or a .yaml file", ref, strings.Join(BuiltinLegendNames(), ", "))
	}
	return LoadLegendFile(path)
}

// LegendPath returns the file ref resolves to against baseDir, or "" when ref
// names a built-in legend or is not a legend file.
func LegendPath(ref, baseDir string) string {
	if IsBuiltinLegend(ref) || !IsLegendPath(ref) {
		return ""
	}
	return resolvePath(ref, baseDir)
}

func resolvePath(ref, baseDir string) string {
	if filepath.IsAbs(ref) || baseDir == "" {
		return ref
	}
	return filepath.Join(baseDir, ref)
}
