package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/sokogen/internal/atlas"
	"github.com/cory-johannsen/sokogen/internal/descriptor"
	"github.com/cory-johannsen/sokogen/internal/level"
	"github.com/cory-johannsen/sokogen/internal/pipeline"
	"github.com/cory-johannsen/sokogen/internal/repack"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newRunner(t *testing.T) (*pipeline.Runner, *observer.ObservedLogs, *bytes.Buffer) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	var out bytes.Buffer
	return pipeline.New(zap.New(core), 4, &out), logs, &out
}

func TestRun_Atlas(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "player.yaml")
	write(t, in, `
animations:
  - name: a
    frames:
      - [1, 0]
      - [1, 1]
`)
	r, logs, out := newRunner(t)
	src := &pipeline.AtlasSource{Path: in, Params: atlas.Params{
		Image: "atlas.png", Pitch: image.Pt(10, 10), SpriteSize: image.Pt(8, 8),
	}}
	outPath := filepath.Join(dir, "out", "atlas.json")
	report, err := r.Run(context.Background(), src, outPath)
	require.NoError(t, err)

	assert.Equal(t, outPath, report.Path)
	assert.NotEmpty(t, report.RunID)
	assert.Contains(t, report.Summary, "3 frames")
	assert.Contains(t, out.String(), "wrote")

	d, err := atlas.ReadDescriptor(outPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"a_0", "a_1", "a_2"}, d.Frames.Keys())

	written := logs.FilterMessage("descriptor written").All()
	require.Len(t, written, 1)
	fields := written[0].ContextMap()
	assert.Equal(t, report.RunID, fields["run_id"])
	assert.Equal(t, int64(3), fields["frames"])
}

func TestRun_AtlasDefaultOutputName(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "player.yaml")
	write(t, in, "image: hero.png\nanimations: []\n")
	t.Chdir(dir)

	r, _, _ := newRunner(t)
	report, err := r.Run(context.Background(), &pipeline.AtlasSource{Path: in, Params: atlas.Params{
		Image: "atlas.png", Pitch: image.Pt(1, 1), SpriteSize: image.Pt(1, 1),
	}}, "")
	require.NoError(t, err)
	assert.Equal(t, "hero.json", report.Path)
	_, err = os.Stat(filepath.Join(dir, "hero.json"))
	assert.NoError(t, err)
}

func TestRun_LevelWithDuplicatePlayer(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "level2.yaml")
	write(t, in, `
rows:
  - "@ #"
  - " @"
`)
	r, logs, out := newRunner(t)
	src := &pipeline.LevelSource{Path: in, Options: level.LoadOptions{DefaultLegend: level.LegendSokoban, TileSize: 128}}
	outPath := filepath.Join(dir, "level2.json")
	report, err := r.Run(context.Background(), src, outPath)
	require.NoError(t, err)

	require.Len(t, report.Warnings, 1)
	assert.Contains(t, out.String(), "WARNING")
	warn := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warn, 1)
	assert.Equal(t, int64(1), warn[0].ContextMap()["x"])
	assert.Equal(t, int64(1), warn[0].ContextMap()["y"])

	d, err := level.ReadDescriptor(outPath)
	require.NoError(t, err)
	assert.Equal(t, "level2", d.Meta.Name)
	player, _ := d.Mobs.Get("player")
	assert.Equal(t, 1, player.XStart)
	assert.Equal(t, 1, player.YStart)
	assert.Equal(t, 1, d.Objects.Len())
}

func TestRun_MalformedWritesNothing(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.yaml")
	write(t, in, `rows: ["#?"]`)
	r, _, _ := newRunner(t)
	outPath := filepath.Join(dir, "bad.json")
	_, err := r.Run(context.Background(), &pipeline.LevelSource{Path: in, Options: level.LoadOptions{DefaultLegend: "sokoban", TileSize: 128}}, outPath)
	require.Error(t, err)
	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "lvl.yaml")
	write(t, in, `rows: ["#"]`)
	blocker := filepath.Join(dir, "blocker")
	write(t, blocker, "x")

	r, _, _ := newRunner(t)
	_, err := r.Run(context.Background(), &pipeline.LevelSource{Path: in, Options: level.LoadOptions{DefaultLegend: "sokoban", TileSize: 128}}, filepath.Join(blocker, "lvl.json"))
	var we *descriptor.WriteError
	assert.True(t, errors.As(err, &we))
}

type stubSource struct {
	res *pipeline.Result
}

func (s stubSource) Name() string                                      { return "stub" }
func (s stubSource) Inputs() []string                                  { return nil }
func (s stubSource) Generate(context.Context) (*pipeline.Result, error) { return s.res, nil }

func TestRun_CheckFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	r, _, _ := newRunner(t)
	outPath := filepath.Join(dir, "stub.json")
	_, err := r.Run(context.Background(), stubSource{res: &pipeline.Result{
		Name:     "stub",
		Document: map[string]int{"a": 1},
		Check:    func([]byte, int) error { return errors.New("unstable") },
	}}, outPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed validation")
	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, _, _ := newRunner(t)
	_, err := r.Run(ctx, stubSource{}, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Repack(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(0, 0, color.NRGBA{G: 255, A: 255})
	data, err := repack.EncodePNG(img)
	require.NoError(t, err)
	imgPath := filepath.Join(dir, "atlas.png")
	require.NoError(t, os.WriteFile(imgPath, data, 0o644))
	atlasPath := filepath.Join(dir, "atlas.json")
	write(t, atlasPath, `{"frames":{"b":{"x":2,"y":2,"w":2,"h":2},"a":{"x":0,"y":0,"w":2,"h":2}},"meta":{"image":"atlas.png","tile_size":2,"version":1}}`)
	overrides := filepath.Join(dir, "overrides.yaml")
	write(t, overrides, "overrides:\n  a: { dx: 1 }\n")

	outImage := filepath.Join(dir, "out", "atlas_x2.png")
	src := &pipeline.RepackSource{
		ImagePath:     imgPath,
		AtlasPath:     atlasPath,
		OutImage:      outImage,
		OverridesPath: overrides,
		Options:       repack.Options{Image: "atlas_x2.png", CellSize: 4, Columns: 2, Rows: 1},
	}
	assert.Equal(t, []string{imgPath, atlasPath, overrides}, src.Inputs())

	r, _, _ := newRunner(t)
	report, err := r.Run(context.Background(), src, repack.DescriptorPath(outImage))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "atlas_x2.json"), report.Path)

	d, err := atlas.ReadDescriptor(report.Path)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, d.Frames.Keys())
	a, _ := d.Frames.Get("a")
	assert.Equal(t, atlas.Frame{X: 4, Y: 0, W: 4, H: 4}, a)

	out, err := repack.ReadPNG(outImage)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 4), out.Bounds())
	_, g, _, _ := out.At(5, 0).RGBA()
	assert.Equal(t, uint32(0xffff), g)
}

func TestWatch_RerunsOnChange(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "lvl.yaml")
	write(t, in, `rows: ["#"]`)
	outPath := filepath.Join(dir, "lvl.json")

	core, logs := observer.New(zapcore.InfoLevel)
	r := pipeline.New(zap.New(core), 4, &bytes.Buffer{})
	src := &pipeline.LevelSource{Path: in, Options: level.LoadOptions{DefaultLegend: "sokoban", TileSize: 128}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx, src, outPath, 10*time.Millisecond) }()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("watching for changes").Len() == 1
	}, 5*time.Second, 10*time.Millisecond)

	write(t, in, `rows: ["##"]`)
	require.Eventually(t, func() bool {
		d, err := level.ReadDescriptor(outPath)
		return err == nil && d.Objects.Len() == 2
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestRun_AtlasImageOverride(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "player.yaml")
	write(t, in, "image: atlas.png\nanimations:\n  - name: a\n    frames: [[1]]\n")
	t.Chdir(dir)

	r, _, _ := newRunner(t)
	report, err := r.Run(context.Background(), &pipeline.AtlasSource{
		Path:          in,
		Params:        atlas.Params{Image: "config.png", Pitch: image.Pt(1, 1), SpriteSize: image.Pt(1, 1)},
		ImageOverride: "custom.png",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "custom.json", report.Path)

	d, err := atlas.ReadDescriptor(filepath.Join(dir, "custom.json"))
	require.NoError(t, err)
	assert.Equal(t, "custom.png", d.Meta.Image)
}

func TestLevelSource_InputsIncludeLegendAndScript(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "levels", "frozen.yaml")
	write(t, in, "legend: ../legends/ice.yaml\nscript: ../scripts/frozen.lua\n")

	src := &pipeline.LevelSource{Path: in, Options: level.LoadOptions{DefaultLegend: "sokoban", TileSize: 128}}
	assert.Equal(t, []string{in}, src.Inputs())

	// The legend and script are missing, so the run fails, but both are
	// already known inputs.
	_, err := src.Generate(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{
		in,
		filepath.Join(dir, "legends", "ice.yaml"),
		filepath.Join(dir, "scripts", "frozen.lua"),
	}, src.Inputs())
}

func TestWatch_RerunsOnLegendChange(t *testing.T) {
	dir := t.TempDir()
	legendPath := filepath.Join(dir, "legends", "ice.yaml")
	write(t, legendPath, `
blank: " "
entries:
  "X": { wall: { asset: ice_wall } }
`)
	in := filepath.Join(dir, "levels", "frozen.yaml")
	write(t, in, "legend: ../legends/ice.yaml\nrows: [\"XX\"]\n")
	outPath := filepath.Join(dir, "out", "frozen.json")

	core, logs := observer.New(zapcore.InfoLevel)
	r := pipeline.New(zap.New(core), 4, &bytes.Buffer{})
	src := &pipeline.LevelSource{Path: in, Options: level.LoadOptions{DefaultLegend: "sokoban", TileSize: 128}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx, src, outPath, 10*time.Millisecond) }()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("watching for changes").Len() == 1
	}, 5*time.Second, 10*time.Millisecond)
	d, err := level.ReadDescriptor(outPath)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Objects.Len())

	write(t, legendPath, `
blank: " "
entries:
  "X": { tile: { asset: ice, type: ice } }
`)
	require.Eventually(t, func() bool {
		d, err := level.ReadDescriptor(outPath)
		return err == nil && d.Objects.Len() == 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatch_PicksUpScriptAfterFailedRun(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "levels", "room.yaml")
	write(t, in, "legend: numeric\nscript: ../scripts/room.lua\n")
	scripts := filepath.Join(dir, "scripts")
	require.NoError(t, os.MkdirAll(scripts, 0o755))
	outPath := filepath.Join(dir, "room.json")

	core, logs := observer.New(zapcore.InfoLevel)
	r := pipeline.New(zap.New(core), 4, &bytes.Buffer{})
	src := &pipeline.LevelSource{Path: in, Options: level.LoadOptions{DefaultLegend: "sokoban", TileSize: 256}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx, src, outPath, 10*time.Millisecond) }()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("watching for changes").Len() == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, logs.FilterMessage("initial run failed").Len())

	write(t, filepath.Join(scripts, "room.lua"), `return layout.room(4, 1, "W", "F")`)
	require.Eventually(t, func() bool {
		d, err := level.ReadDescriptor(outPath)
		return err == nil && d.Meta.Size == [2]int{4, 4}
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
