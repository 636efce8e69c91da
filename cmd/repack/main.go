// Package main repacks an atlas into a fixed grid of equal cells.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cory-johannsen/sokogen/internal/config"
	"github.com/cory-johannsen/sokogen/internal/observability"
	"github.com/cory-johannsen/sokogen/internal/pipeline"
	"github.com/cory-johannsen/sokogen/internal/repack"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (defaults and SOKOGEN_* env when empty)")
	imagePath := flag.String("image", "", "path to source sheet PNG")
	atlasPath := flag.String("atlas", "", "path to source atlas JSON")
	output := flag.String("output", "", "path to output PNG (default repack.image); the descriptor is written beside it as .json")
	overrides := flag.String("overrides", "", "optional per-frame overrides YAML")
	flag.Parse()

	if *imagePath == "" || *atlasPath == "" {
		fmt.Fprintln(os.Stderr, "usage: repack -image <atlas.png> -atlas <atlas.json> [-output <atlas_x2.png>] [-overrides <file>] [-config <file>]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *output == "" {
		*output = cfg.Repack.Image
	}
	opts := cfg.Repack.Options()
	opts.Image = filepath.Base(*output)

	runner := pipeline.New(logger, cfg.Output.Indent, os.Stdout)
	src := &pipeline.RepackSource{
		ImagePath:     *imagePath,
		AtlasPath:     *atlasPath,
		OutImage:      *output,
		OverridesPath: *overrides,
		Options:       opts,
	}
	if _, err := runner.Run(ctx, src, repack.DescriptorPath(*output)); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
