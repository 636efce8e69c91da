// Package main generates an atlas descriptor from an animations file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/sokogen/internal/config"
	"github.com/cory-johannsen/sokogen/internal/observability"
	"github.com/cory-johannsen/sokogen/internal/pipeline"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file (defaults and SOKOGEN_* env when empty)")
	input := flag.String("input", "", "path to animations YAML file")
	output := flag.String("output", "", "path to output atlas JSON (default <image name>.json)")
	imageName := flag.String("image", "", "sheet file name recorded in meta.image (overrides the config and the file's image key)")
	watchMode := flag.Bool("watch", false, "regenerate whenever the input changes")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: genatlas -input <animations.yaml> [-output <atlas.json>] [-config <file>] [-image <name>] [-watch]")
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

	runner := pipeline.New(logger, cfg.Output.Indent, os.Stdout)
	src := &pipeline.AtlasSource{Path: *input, Params: cfg.Atlas.Params(), ImageOverride: *imageName}

	if *watchMode {
		if err := runner.Watch(ctx, src, *output, cfg.Watch.Debounce); err != nil {
			logger.Fatal("watching", zap.Error(err))
		}
		return
	}

	if _, err := runner.Run(ctx, src, *output); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("genatlas complete", zap.Duration("elapsed", time.Since(start)))
}
