// Package main generates a level descriptor from a level file.
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
	input := flag.String("input", "", "path to level YAML file")
	output := flag.String("output", "", "path to output level JSON (default <level name>.json)")
	legend := flag.String("legend", "", "legend used when the level file names none: sokoban, numeric, menu, or a .yaml path")
	watchMode := flag.Bool("watch", false, "regenerate whenever the input changes")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: genlevel -input <level.yaml> [-output <level.json>] [-config <file>] [-legend <name|path>] [-watch]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *legend != "" {
		cfg.Level.Legend = *legend
		if err := cfg.Validate(); err != nil {
			log.Fatalf("validating flags: %v", err)
		}
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := pipeline.New(logger, cfg.Output.Indent, os.Stdout)
	src := &pipeline.LevelSource{Path: *input, Options: cfg.Level.LoadOptions()}

	if *watchMode {
		if err := runner.Watch(ctx, src, *output, cfg.Watch.Debounce); err != nil {
			logger.Fatal("watching", zap.Error(err))
		}
		return
	}

	report, err := runner.Run(ctx, src, *output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Success! Generated '%s': %s\n", report.Path, report.Summary)
	logger.Debug("genlevel complete", zap.Duration("elapsed", time.Since(start)))
}
