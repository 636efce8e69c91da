// Package pipeline runs a generator end to end: generate a descriptor,
// verify that it serializes stably, and write it.
package pipeline

import (
	"context"

	"go.uber.org/zap"
)

// Count is one named record count reported for a run.
type Count struct {
	Name string
	N    int
}

// Warning is a non-fatal problem found while generating.
type Warning struct {
	Message string
	Fields  []zap.Field
}

// Companion is an extra file written alongside the descriptor, such as a
// repacked sheet image.
type Companion struct {
	Path string
	Data []byte
}

// Result is the output of one Source.Generate call.
type Result struct {
	// Name is used to derive the output path when the caller gives none.
	Name string
	// Document is marshalled to JSON as the descriptor.
	Document any
	// Check verifies the marshalled bytes before they are written. It
	// receives the indent used to marshal them.
	Check      func(data []byte, indent int) error
	Warnings   []Warning
	Counts     []Count
	Companions []Companion
	// Summary is a one-line human description of the output.
	Summary string
}

// Source produces one descriptor per call to Generate.
//
// Precondition: implementations read their inputs afresh on every call so a
// watched source picks up edits.
type Source interface {
	// Name identifies the generator in logs.
	Name() string
	// Inputs lists the files whose change should trigger a rerun.
	Inputs() []string
	// Generate reads the inputs and builds the descriptor.
	Generate(ctx context.Context) (*Result, error)
}
