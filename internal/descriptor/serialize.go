package descriptor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxIndent is the widest indentation Marshal accepts.
const MaxIndent = 8

// Marshal pretty-prints doc with indent spaces per level and a trailing
// newline.
//
// Precondition: 0 <= indent <= MaxIndent.
func Marshal(doc any, indent int) ([]byte, error) {
	if indent < 0 || indent > MaxIndent {
		return nil, fmt.Errorf("indent must be 0-%d, got %d", MaxIndent, indent)
	}
	data, err := json.MarshalIndent(doc, "", strings.Repeat(" ", indent))
	if err != nil {
		return nil, fmt.Errorf("encoding descriptor: %w", err)
	}
	return append(data, '\n'), nil
}

// CheckRoundTrip parses data into a fresh T, re-marshals it with the same
// indent, and reports an error unless the two encodings are byte-identical.
func CheckRoundTrip[T any](data []byte, indent int) error {
	var doc T
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("re-parsing descriptor: %w", err)
	}
	again, err := Marshal(&doc, indent)
	if err != nil {
		return err
	}
	if !bytes.Equal(data, again) {
		return errors.New("descriptor does not round-trip: re-serialized output differs")
	}
	return nil
}

// WriteError reports a descriptor that could not be written to Path.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// WriteFile creates or truncates path and writes data to it, creating parent
// directories as needed. The file is always closed; a close failure is
// reported like a write failure.
//
// Postcondition: returns nil or a *WriteError.
func WriteFile(path string, data []byte) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &WriteError{Path: path, Err: err}
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &WriteError{Path: path, Err: cerr}
		}
	}()
	if _, err := f.Write(data); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
