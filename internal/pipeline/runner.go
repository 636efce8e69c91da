package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/sokogen/internal/descriptor"
	"github.com/cory-johannsen/sokogen/internal/observability"
	"github.com/cory-johannsen/sokogen/internal/watch"
)

// Report describes one completed run.
type Report struct {
	RunID    string
	Path     string
	Bytes    int
	Counts   []Count
	Warnings []string
	Summary  string
	Elapsed  time.Duration
}

// Runner orchestrates generation runs and writes their output.
type Runner struct {
	logger *zap.Logger
	indent int
	out    io.Writer
}

// New constructs a Runner that marshals with indent spaces and prints
// progress lines to out.
//
// Precondition: logger and out must be non-nil; 0 <= indent <= descriptor.MaxIndent.
// Postcondition: returns a non-nil Runner.
func New(logger *zap.Logger, indent int, out io.Writer) *Runner {
	return &Runner{logger: logger, indent: indent, out: out}
}

// Run generates src, verifies the output and writes it to outPath. An empty
// outPath writes <result name>.json in the working directory.
//
// Postcondition: on success the descriptor and any companions are on disk
// and a Report is returned. On error nothing has been written unless the
// error is a *descriptor.WriteError.
func (r *Runner) Run(ctx context.Context, src Source, outPath string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	overall := time.Now()
	logger, runID := observability.WithRun(r.logger, src.Name())
	logger.Debug("run started", zap.Strings("inputs", src.Inputs()))

	t0 := time.Now()
	res, err := src.Generate(ctx)
	if err != nil {
		logger.Error("generation failed", zap.Error(err))
		return nil, fmt.Errorf("generating %s: %w", src.Name(), err)
	}
	fmt.Fprintf(r.out, "generate %s in %s\n", res.Summary, time.Since(t0).Round(time.Millisecond))

	report := &Report{RunID: runID, Counts: res.Counts, Summary: res.Summary}
	for _, w := range res.Warnings {
		logger.Warn(w.Message, w.Fields...)
		fmt.Fprintf(r.out, "WARNING: %s\n", w.Message)
		report.Warnings = append(report.Warnings, w.Message)
	}

	data, err := descriptor.Marshal(res.Document, r.indent)
	if err != nil {
		return nil, fmt.Errorf("serialising %s: %w", res.Name, err)
	}

	// Validate output reloads to the same bytes before writing.
	if res.Check != nil {
		if err := res.Check(data, r.indent); err != nil {
			logger.Error("descriptor failed validation", zap.Error(err))
			return nil, fmt.Errorf("%s failed validation: %w", res.Name, err)
		}
	}

	if outPath == "" {
		outPath = res.Name + ".json"
	}
	for _, c := range res.Companions {
		if err := descriptor.WriteFile(c.Path, c.Data); err != nil {
			return nil, err
		}
		fmt.Fprintf(r.out, "wrote    %s  (%d bytes)\n", c.Path, len(c.Data))
	}
	t1 := time.Now()
	if err := descriptor.WriteFile(outPath, data); err != nil {
		logger.Error("write failed", zap.String("path", outPath), zap.Error(err))
		return nil, err
	}
	fmt.Fprintf(r.out, "wrote    %s  in %s\n", outPath, time.Since(t1).Round(time.Millisecond))

	report.Path = outPath
	report.Bytes = len(data)
	report.Elapsed = time.Since(overall)

	fields := []zap.Field{
		zap.String("output", outPath),
		zap.Int("bytes", report.Bytes),
		zap.Duration("elapsed", report.Elapsed),
	}
	for _, c := range res.Counts {
		fields = append(fields, zap.Int(c.Name, c.N))
	}
	logger.Info("descriptor written", fields...)
	fmt.Fprintf(r.out, "total    %s\n", report.Elapsed.Round(time.Millisecond))
	return report, nil
}

// Watch runs src once, then again after every change to the directories of
// its inputs, until ctx is cancelled. Inputs are re-read after every run, so
// a legend or script a level starts referencing is picked up. Failed runs are logged and do not stop
// watching.
//
// Postcondition: returns nil when ctx is cancelled, or an error if the
// watcher cannot be started.
func (r *Runner) Watch(ctx context.Context, src Source, outPath string, debounce time.Duration) error {
	if _, err := r.Run(ctx, src, outPath); err != nil {
		r.logger.Error("initial run failed", zap.Error(err))
	}

	w, err := watch.NewWatcher(debounce)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()
	watched := make(map[string]bool)
	r.watchInputs(w, watched, src.Inputs())
	r.logger.Info("watching for changes", zap.Strings("inputs", src.Inputs()))

	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-w.Events:
			if !ok {
				return nil
			}
			r.logger.Info("input changed", zap.String("path", path))
			if _, err := r.Run(ctx, src, outPath); err != nil {
				r.logger.Error("run failed", zap.Error(err))
			}
			// A run may resolve inputs the previous one could not see.
			r.watchInputs(w, watched, src.Inputs())
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// watchInputs adds the directory of every input not yet watched. A directory
// that cannot be watched is retried on the next call.
func (r *Runner) watchInputs(w *watch.Watcher, watched map[string]bool, inputs []string) {
	for _, in := range inputs {
		dir := filepath.Dir(in)
		if watched[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			r.logger.Warn("cannot watch input directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		watched[dir] = true
		r.logger.Debug("watching directory", zap.String("dir", dir))
	}
}
