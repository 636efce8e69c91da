package grid

// Layout is a rectangular grid of level codes. Rows shorter than the widest
// row are right-padded with the blank code when the layout is built, so every
// row has exactly Width cells.
type Layout struct {
	width int
	cells [][]string
}

// NewLayout builds a Layout from rows of tokens, padding short rows with blank.
//
// Postcondition: Width() == max(len(row)) and Height() == len(rows); the input
// slices are copied, never retained.
func NewLayout(rows [][]string, blank string) *Layout {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	cells := make([][]string, len(rows))
	for y, row := range rows {
		padded := make([]string, width)
		n := copy(padded, row)
		for x := n; x < width; x++ {
			padded[x] = blank
		}
		cells[y] = padded
	}
	return &Layout{width: width, cells: cells}
}

// ParseRows builds a Layout from strings where every character is one code.
// Width is measured in characters, not bytes.
func ParseRows(rows []string, blank string) *Layout {
	return NewLayout(SplitRows(rows), blank)
}

// SplitRows splits each row into single-character tokens.
func SplitRows(rows []string) [][]string {
	out := make([][]string, len(rows))
	for y, row := range rows {
		tokens := make([]string, 0, len(row))
		for _, r := range row {
			tokens = append(tokens, string(r))
		}
		out[y] = tokens
	}
	return out
}

// Width returns the padded row width.
func (l *Layout) Width() int { return l.width }

// Height returns the number of rows.
func (l *Layout) Height() int { return len(l.cells) }

// At returns the code at column x of row y.
//
// Precondition: 0 <= x < Width() and 0 <= y < Height().
func (l *Layout) At(x, y int) string { return l.cells[y][x] }
