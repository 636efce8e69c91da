// Package config provides Viper-based configuration loading for the content
// generators.
package config

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/sokogen/internal/atlas"
	"github.com/cory-johannsen/sokogen/internal/descriptor"
	"github.com/cory-johannsen/sokogen/internal/level"
	"github.com/cory-johannsen/sokogen/internal/repack"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// AtlasConfig holds the source sheet geometry for atlas generation.
type AtlasConfig struct {
	// Image is the sheet file name written to meta.image.
	Image   string `mapstructure:"image"`
	PitchX  int    `mapstructure:"pitch_x"`
	PitchY  int    `mapstructure:"pitch_y"`
	SpriteW int    `mapstructure:"sprite_w"`
	SpriteH int    `mapstructure:"sprite_h"`
	OffsetX int    `mapstructure:"offset_x"`
	OffsetY int    `mapstructure:"offset_y"`
}

// Params converts the configured geometry into generator parameters.
//
// Postcondition: Returns Params with every field taken from a.
func (a AtlasConfig) Params() atlas.Params {
	return atlas.Params{
		Image:      a.Image,
		Pitch:      image.Pt(a.PitchX, a.PitchY),
		SpriteSize: image.Pt(a.SpriteW, a.SpriteH),
		Offset:     image.Pt(a.OffsetX, a.OffsetY),
	}
}

// LevelConfig holds level generation defaults.
type LevelConfig struct {
	// TileSize is written to meta.tile_size when a level file sets none.
	TileSize int `mapstructure:"tile_size"`
	// Legend is a built-in legend name or a legend YAML path, used when a
	// level file names none.
	Legend string `mapstructure:"legend"`
	// ScriptInstructionLimit bounds Lua layout scripts.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// LoadOptions converts the level defaults into loader options.
func (l LevelConfig) LoadOptions() level.LoadOptions {
	return level.LoadOptions{
		DefaultLegend:          l.Legend,
		TileSize:               l.TileSize,
		ScriptInstructionLimit: l.ScriptInstructionLimit,
	}
}

// RepackConfig holds the output grid of the atlas repacker.
type RepackConfig struct {
	Image    string `mapstructure:"image"`
	CellSize int    `mapstructure:"cell_size"`
	Columns  int    `mapstructure:"columns"`
	Rows     int    `mapstructure:"rows"`
	Scale    int    `mapstructure:"scale"`
	OffsetX  int    `mapstructure:"offset_x"`
	OffsetY  int    `mapstructure:"offset_y"`
}

// Options converts the repack settings into repacker options without
// per-frame overrides.
func (r RepackConfig) Options() repack.Options {
	return repack.Options{
		Image:    r.Image,
		CellSize: r.CellSize,
		Columns:  r.Columns,
		Rows:     r.Rows,
		Scale:    r.Scale,
		Offset:   image.Pt(r.OffsetX, r.OffsetY),
	}
}

// OutputConfig controls descriptor formatting.
type OutputConfig struct {
	// Indent is the number of spaces per JSON nesting level.
	Indent int `mapstructure:"indent"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	// Debounce coalesces bursts of file events into one regeneration.
	Debounce time.Duration `mapstructure:"debounce"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Atlas   AtlasConfig   `mapstructure:"atlas"`
	Level   LevelConfig   `mapstructure:"level"`
	Repack  RepackConfig  `mapstructure:"repack"`
	Output  OutputConfig  `mapstructure:"output"`
	Watch   WatchConfig   `mapstructure:"watch"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	for _, err := range []error{
		validateLogging(c.Logging),
		validateAtlas(c.Atlas),
		validateLevel(c.Level),
		validateRepack(c.Repack),
		validateOutput(c.Output),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, "watch.debounce must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateAtlas(a AtlasConfig) error {
	var errs []string
	if a.Image == "" {
		errs = append(errs, "atlas.image must not be empty")
	}
	if a.PitchX < 1 || a.PitchY < 1 {
		errs = append(errs, fmt.Sprintf("atlas.pitch_x and atlas.pitch_y must be >= 1, got %dx%d", a.PitchX, a.PitchY))
	}
	if a.SpriteW < 1 || a.SpriteH < 1 {
		errs = append(errs, fmt.Sprintf("atlas.sprite_w and atlas.sprite_h must be >= 1, got %dx%d", a.SpriteW, a.SpriteH))
	}
	if a.OffsetX < 0 || a.OffsetY < 0 {
		errs = append(errs, "atlas.offset_x and atlas.offset_y must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLevel(l LevelConfig) error {
	var errs []string
	if l.TileSize < 1 {
		errs = append(errs, fmt.Sprintf("level.tile_size must be >= 1, got %d", l.TileSize))
	}
	if !level.IsBuiltinLegend(l.Legend) && !level.IsLegendPath(l.Legend) {
		errs = append(errs, fmt.Sprintf("level.legend must be one of [%s] or a .yaml path, got %q",
			strings.Join(level.BuiltinLegendNames(), ", "), l.Legend))
	}
	if l.ScriptInstructionLimit < 0 {
		errs = append(errs, "level.script_instruction_limit must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateRepack(r RepackConfig) error {
	var errs []string
	if r.Image == "" {
		errs = append(errs, "repack.image must not be empty")
	}
	if r.CellSize < 1 {
		errs = append(errs, fmt.Sprintf("repack.cell_size must be >= 1, got %d", r.CellSize))
	}
	if r.Columns < 1 || r.Rows < 1 {
		errs = append(errs, fmt.Sprintf("repack.columns and repack.rows must be >= 1, got %dx%d", r.Columns, r.Rows))
	}
	if r.Scale < 0 {
		errs = append(errs, "repack.scale must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateOutput(o OutputConfig) error {
	if o.Indent < 0 || o.Indent > descriptor.MaxIndent {
		return fmt.Errorf("output.indent must be 0-%d, got %d", descriptor.MaxIndent, o.Indent)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and
// environment overrides only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with SOKOGEN_ prefix
	v.SetEnvPrefix("SOKOGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// Default returns the built-in defaults with environment overrides applied.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Default() (Config, error) {
	return Load("")
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	if v == nil {
		return Config{}, errors.New("nil viper instance")
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("atlas.image", "atlas.png")
	v.SetDefault("atlas.pitch_x", 126)
	v.SetDefault("atlas.pitch_y", 132)
	v.SetDefault("atlas.sprite_w", 100)
	v.SetDefault("atlas.sprite_h", 100)
	v.SetDefault("atlas.offset_x", 13)
	v.SetDefault("atlas.offset_y", 16)

	v.SetDefault("level.tile_size", 128)
	v.SetDefault("level.legend", level.LegendSokoban)
	v.SetDefault("level.script_instruction_limit", 100_000)

	v.SetDefault("repack.image", "atlas_x2.png")
	v.SetDefault("repack.cell_size", 256)
	v.SetDefault("repack.columns", 4)
	v.SetDefault("repack.rows", 9)
	v.SetDefault("repack.scale", 0)
	v.SetDefault("repack.offset_x", 0)
	v.SetDefault("repack.offset_y", 0)

	v.SetDefault("output.indent", 4)

	v.SetDefault("watch.debounce", "100ms")
}
