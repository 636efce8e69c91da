// Package grid provides validated rectangular grids for authoring input:
// occupancy matrices for sprite sheets and token layouts for levels.
package grid

import "fmt"

// Matrix is a rectangular grid of occupancy flags. The zero value is an empty
// matrix with no rows.
type Matrix struct {
	name  string
	cols  int
	cells [][]bool
}

// NewMatrix validates rows and builds a Matrix named name.
//
// Precondition: every row has the same length and holds only 0 or 1.
// Postcondition: returns a Matrix or a *MalformedGridError naming the first
// offending row or cell. A matrix with no rows is valid.
func NewMatrix(name string, rows [][]int) (*Matrix, error) {
	m := &Matrix{name: name, cells: make([][]bool, len(rows))}
	if len(rows) > 0 {
		m.cols = len(rows[0])
	}
	for r, row := range rows {
		if len(row) != m.cols {
			return nil, &MalformedGridError{
				Grid:   name,
				Row:    r,
				Col:    -1,
				Reason: fmt.Sprintf("row has %d cells, want %d", len(row), m.cols),
			}
		}
		m.cells[r] = make([]bool, m.cols)
		for c, v := range row {
			switch v {
			case 0:
			case 1:
				m.cells[r][c] = true
			default:
				return nil, &MalformedGridError{
					Grid:   name,
					Row:    r,
					Col:    c,
					Reason: fmt.Sprintf("occupancy flag must be 0 or 1, got %d", v),
				}
			}
		}
	}
	return m, nil
}

// Name returns the name the matrix was built with.
func (m *Matrix) Name() string { return m.name }

// Rows returns the number of rows, occupied or not.
func (m *Matrix) Rows() int { return len(m.cells) }

// Cols returns the common row width.
func (m *Matrix) Cols() int { return m.cols }

// Occupied reports whether the cell at (row, col) holds a frame. Out-of-range
// positions are unoccupied.
func (m *Matrix) Occupied(row, col int) bool {
	if row < 0 || row >= len(m.cells) || col < 0 || col >= m.cols {
		return false
	}
	return m.cells[row][col]
}

// OccupiedCount returns the number of occupied cells.
func (m *Matrix) OccupiedCount() int {
	n := 0
	for _, row := range m.cells {
		for _, v := range row {
			if v {
				n++
			}
		}
	}
	return n
}
