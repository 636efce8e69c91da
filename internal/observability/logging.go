// Package observability provides logging utilities for the generator
// commands.
package observability

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/sokogen/internal/config"
)

// NewLogger builds the generator commands' base logger. Entries go to stderr
// because stdout carries the runner's wrote/total lines and the command
// summary, which scripts may parse. json suits CI logs and console suits an
// author running a command or -watch in a terminal. The pipeline derives a
// per-run logger from this one with WithRun.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}
	// Failed runs are authoring mistakes; a Go stack adds nothing to them.
	zapCfg.DisableStacktrace = true

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// WithRun returns a child logger tagged with a fresh run_id and the
// generator name, plus the run id itself.
//
// Postcondition: every entry logged through the child carries run_id and
// generator fields.
func WithRun(logger *zap.Logger, generator string) (*zap.Logger, string) {
	id := uuid.NewString()
	return logger.With(zap.String("run_id", id), zap.String("generator", generator)), id
}
