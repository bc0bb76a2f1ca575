package bytehuff

import (
	"fmt"
)

// Dimensions describes how a flat byte sequence maps onto a grid, e.g. the
// pixels of one image channel in row-major order.
type Dimensions struct {
	Rows int
	Cols int
}

// Len returns the number of cells in the grid.
func (dims Dimensions) Len() int {
	return dims.Rows * dims.Cols
}

// Reshape splits flat into dims.Rows rows of dims.Cols bytes each.  The rows
// share storage with flat.
func (dims Dimensions) Reshape(flat []byte) ([][]byte, error) {
	if dims.Rows < 0 || dims.Cols < 0 || dims.Len() != len(flat) {
		return nil, fmt.Errorf("%w: %d×%d grid, %d bytes", ErrDimensions, dims.Rows, dims.Cols, len(flat))
	}
	grid := make([][]byte, dims.Rows)
	for r := range grid {
		grid[r] = flat[r*dims.Cols : (r+1)*dims.Cols : (r+1)*dims.Cols]
	}
	return grid, nil
}

// Flatten concatenates the rows of grid in order.  Every row must have the
// same length.
func Flatten(grid [][]byte) ([]byte, Dimensions, error) {
	dims := Dimensions{Rows: len(grid)}
	if dims.Rows != 0 {
		dims.Cols = len(grid[0])
	}
	flat := make([]byte, 0, dims.Len())
	for r, row := range grid {
		if len(row) != dims.Cols {
			return nil, Dimensions{}, fmt.Errorf("%w: row %d has %d bytes, want %d", ErrDimensions, r, len(row), dims.Cols)
		}
		flat = append(flat, row...)
	}
	return flat, dims, nil
}
