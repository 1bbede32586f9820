package grid

import (
	"fmt"

	"yqhp/fractal-engine/pkg/types"
)

// MaxCells bounds width*height so the grid buffers can always be allocated.
const MaxCells = 1 << 30

// Geometry maps pixels onto the viewing window.
type Geometry struct {
	Width  int
	Height int
	Window types.Window
}

// NewGeometry validates the dimensions and window and returns the geometry.
func NewGeometry(width, height int, window types.Window) (*Geometry, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if !(window.XMin < window.XMax) || !(window.YMin < window.YMax) {
		return nil, fmt.Errorf("%w: [%g,%g]x[%g,%g]", ErrInvalidWindow,
			window.XMin, window.XMax, window.YMin, window.YMax)
	}
	if int64(width)*int64(height) > MaxCells {
		return nil, fmt.Errorf("%w: %dx%d", ErrGridTooLarge, width, height)
	}
	return &Geometry{Width: width, Height: height, Window: window}, nil
}

// FromJob builds the geometry described by a job spec.
func FromJob(job *types.JobSpec) (*Geometry, error) {
	if job == nil {
		return nil, fmt.Errorf("job spec cannot be nil")
	}
	return NewGeometry(job.Width, job.Height, job.Window)
}

// PointAt returns the coordinate of pixel (col, row).
// A one-pixel axis maps onto its minimum bound.
func (g *Geometry) PointAt(row, col int) types.Point {
	return types.Point{
		Re: g.Re(col),
		Im: g.Im(row),
	}
}

// Re returns the real part shared by every pixel of column col.
func (g *Geometry) Re(col int) float64 {
	w := g.Window
	return lerp(w.XMin, w.XMax, col, g.Width)
}

// Im returns the imaginary part shared by every pixel of row.
func (g *Geometry) Im(row int) float64 {
	w := g.Window
	return lerp(w.YMin, w.YMax, row, g.Height)
}

// RowPoints returns the coordinate of every column of row, left to right.
func (g *Geometry) RowPoints(row int) []types.Point {
	im := g.Im(row)
	points := make([]types.Point, g.Width)
	for col := range points {
		points[col] = types.Point{Re: g.Re(col), Im: im}
	}
	return points
}

// Contains reports whether row is a valid row index.
func (g *Geometry) Contains(row int) bool {
	return row >= 0 && row < g.Height
}

func lerp(lo, hi float64, i, n int) float64 {
	if n <= 1 {
		return lo
	}
	return lo + (hi-lo)*float64(i)/float64(n-1)
}
