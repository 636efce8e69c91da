package grid

import "fmt"

// Filled returns a size x size token grid with every cell set to fill.
func Filled(size int, fill string) [][]string {
	if size < 0 {
		size = 0
	}
	rows := make([][]string, size)
	for y := range rows {
		row := make([]string, size)
		for x := range row {
			row[x] = fill
		}
		rows[y] = row
	}
	return rows
}

// Room returns a size x size grid of floor with a rectangular ring of wall
// running from index border-1 to size-border-1 on both axes.
//
// Precondition: size > 0, border >= 1 and 2*border <= size.
// Postcondition: returns the grid or an error describing the violated bound.
func Room(size, border int, wall, floor string) ([][]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("room size must be positive, got %d", size)
	}
	lo, hi := border-1, size-border-1
	if border < 1 || lo > hi {
		return nil, fmt.Errorf("room border must be in [1, %d] for size %d, got %d", size/2, size, border)
	}
	rows := Filled(size, floor)
	for i := lo; i <= hi; i++ {
		rows[i][lo] = wall
		rows[i][hi] = wall
		rows[lo][i] = wall
		rows[hi][i] = wall
	}
	return rows, nil
}
