package grid

import "fmt"

// Grid is the height x width table of iteration counts.
// Rows are inserted whole, once each; the grid is complete when every row is in.
// A Grid is owned by a single goroutine and is not safe for concurrent use.
type Grid struct {
	width     int
	rows      [][]int
	populated []bool
	remaining int
}

// New allocates a grid with every row unpopulated.
func New(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if int64(width)*int64(height) > MaxCells {
		return nil, fmt.Errorf("%w: %dx%d", ErrGridTooLarge, width, height)
	}

	cells := make([]int, width*height)
	rows := make([][]int, height)
	for i := range rows {
		rows[i] = cells[i*width : (i+1)*width : (i+1)*width]
	}

	return &Grid{
		width:     width,
		rows:      rows,
		populated: make([]bool, height),
		remaining: height,
	}, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return len(g.rows) }

// Insert copies values into row. Each row may be inserted only once.
func (g *Grid) Insert(row int, values []int) error {
	if row < 0 || row >= len(g.rows) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrRowOutOfRange, row, len(g.rows))
	}
	if len(values) != g.width {
		return fmt.Errorf("%w: row %d has %d values, want %d", ErrRowWidth, row, len(values), g.width)
	}
	if g.populated[row] {
		return fmt.Errorf("%w: %d", ErrRowPopulated, row)
	}

	copy(g.rows[row], values)
	g.populated[row] = true
	g.remaining--
	return nil
}

// Populated reports whether row has been inserted.
func (g *Grid) Populated(row int) bool {
	return row >= 0 && row < len(g.rows) && g.populated[row]
}

// Remaining returns the number of rows not yet inserted.
func (g *Grid) Remaining() int { return g.remaining }

// Complete reports whether every row has been inserted.
func (g *Grid) Complete() bool { return g.remaining == 0 }

// Row returns the values of row. The slice aliases the grid and must not be modified.
func (g *Grid) Row(row int) []int {
	return g.rows[row]
}

// At returns the value at (row, col).
func (g *Grid) At(row, col int) int {
	return g.rows[row][col]
}

// Equal reports whether both grids have the same shape and values.
func (g *Grid) Equal(other *Grid) bool {
	if other == nil || g.width != other.width || len(g.rows) != len(other.rows) {
		return false
	}
	for r := range g.rows {
		for c, v := range g.rows[r] {
			if other.rows[r][c] != v {
				return false
			}
		}
	}
	return true
}
