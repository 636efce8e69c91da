package grid

import "fmt"

// MalformedGridError reports authoring input whose shape or contents make the
// coordinate formulas meaningless: a ragged occupancy matrix, a flag other
// than 0/1, or a layout code with no legend entry.
//
// Row and Col are zero-based; Col is -1 when the problem concerns a whole row.
// Code holds the offending layout code, if any.
type MalformedGridError struct {
	Grid   string
	Row    int
	Col    int
	Code   string
	Reason string
}

func (e *MalformedGridError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("malformed grid %q: row %d col %d: code %q: %s", e.Grid, e.Row, e.Col, e.Code, e.Reason)
	}
	if e.Col < 0 {
		return fmt.Sprintf("malformed grid %q: row %d: %s", e.Grid, e.Row, e.Reason)
	}
	return fmt.Sprintf("malformed grid %q: row %d col %d: %s", e.Grid, e.Row, e.Col, e.Reason)
}
