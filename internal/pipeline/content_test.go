package pipeline_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/sokogen/internal/atlas"
	"github.com/cory-johannsen/sokogen/internal/config"
	"github.com/cory-johannsen/sokogen/internal/level"
	"github.com/cory-johannsen/sokogen/internal/pipeline"
)

const contentDir = "../../content"

func TestShippedContent_Levels(t *testing.T) {
	cfg, err := config.Load("../../configs/dev.yaml")
	require.NoError(t, err)
	r := pipeline.New(zap.NewNop(), cfg.Output.Indent, &bytes.Buffer{})

	cases := []struct {
		file  string
		size  [2]int
		walls int
	}{
		{"level1.yaml", [2]int{5, 5}, 0},
		{"level2.yaml", [2]int{4, 5}, 6},
		{"level3.yaml", [2]int{10, 10}, 15},
		{"menu.yaml", [2]int{16, 6}, 0},
		{"frozen.yaml", [2]int{5, 4}, 14},
	}
	for _, tc := range cases {
		t.Run(tc.file, func(t *testing.T) {
			src := &pipeline.LevelSource{Path: filepath.Join(contentDir, "levels", tc.file), Options: cfg.Level.LoadOptions()}
			out := filepath.Join(t.TempDir(), "out.json")
			report, err := r.Run(context.Background(), src, out)
			require.NoError(t, err)
			assert.Empty(t, report.Warnings)

			d, err := level.ReadDescriptor(out)
			require.NoError(t, err)
			assert.Equal(t, tc.size, d.Meta.Size)
			assert.Equal(t, tc.walls, d.Objects.Len())
			assert.Equal(t, 1, d.Stats().Players)
		})
	}
}

func TestShippedContent_Animations(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	r := pipeline.New(zap.NewNop(), cfg.Output.Indent, &bytes.Buffer{})

	out := filepath.Join(t.TempDir(), "atlas.json")
	_, err = r.Run(context.Background(), &pipeline.AtlasSource{
		Path:   filepath.Join(contentDir, "animations", "player.yaml"),
		Params: cfg.Atlas.Params(),
	}, out)
	require.NoError(t, err)

	d, err := atlas.ReadDescriptor(out)
	require.NoError(t, err)
	assert.Equal(t, 18+10+14, d.Frames.Len())
	idle, ok := d.Frames.Get("idle_se_0")
	require.True(t, ok)
	// idle_se starts after the three rows of walkingforward_se.
	assert.Equal(t, atlas.Frame{X: 13, Y: 3*132 + 16, W: 100, H: 100}, idle)
	assert.Equal(t, 126, d.Meta.TileSize)
}
