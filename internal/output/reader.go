package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"yqhp/fractal-engine/internal/grid"
	"yqhp/fractal-engine/pkg/types"
)

// ReadFile parses the file at path.
func ReadFile(path string) (*grid.Grid, types.RunMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.RunMetadata{}, err
	}
	defer f.Close()

	g, meta, err := Read(f)
	if err != nil {
		return nil, types.RunMetadata{}, fmt.Errorf("%s: %w", path, err)
	}
	return g, meta, nil
}

// Read parses a grid and its metadata from in.
func Read(in io.Reader) (*grid.Grid, types.RunMetadata, error) {
	var meta types.RunMetadata

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 1<<16), 1<<28)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, meta, err
		}
		return nil, meta, fmt.Errorf("%w: missing header", ErrMalformed)
	}

	header := strings.Fields(scanner.Text())
	if len(header) != 7 {
		return nil, meta, fmt.Errorf("%w: header has %d fields, want 7", ErrMalformed, len(header))
	}

	var err error
	if meta.Width, err = strconv.Atoi(header[0]); err != nil {
		return nil, meta, fmt.Errorf("%w: width: %v", ErrMalformed, err)
	}
	if meta.Height, err = strconv.Atoi(header[1]); err != nil {
		return nil, meta, fmt.Errorf("%w: height: %v", ErrMalformed, err)
	}

	floats := make([]float64, 5)
	for i := range floats {
		if floats[i], err = strconv.ParseFloat(header[i+2], 64); err != nil {
			return nil, meta, fmt.Errorf("%w: header field %d: %v", ErrMalformed, i+3, err)
		}
	}
	meta.Elapsed = time.Duration(floats[0] * float64(time.Second))
	meta.Window = types.Window{XMin: floats[1], XMax: floats[2], YMin: floats[3], YMax: floats[4]}

	g, err := grid.New(meta.Width, meta.Height)
	if err != nil {
		return nil, meta, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	values := make([]int, meta.Width)
	for row := 0; row < meta.Height; row++ {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, meta, err
			}
			return nil, meta, fmt.Errorf("%w: %d rows, want %d", ErrMalformed, row, meta.Height)
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) != meta.Width {
			return nil, meta, fmt.Errorf("%w: row %d has %d values, want %d", ErrMalformed, row, len(fields), meta.Width)
		}
		for col, f := range fields {
			if values[col], err = strconv.Atoi(f); err != nil {
				return nil, meta, fmt.Errorf("%w: row %d col %d: %v", ErrMalformed, row, col, err)
			}
		}
		if err := g.Insert(row, values); err != nil {
			return nil, meta, err
		}
	}

	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			return nil, meta, fmt.Errorf("%w: trailing data after row %d", ErrMalformed, meta.Height)
		}
	}
	return g, meta, scanner.Err()
}

// Diff describes how two results differ. The zero value means identical.
type Diff struct {
	Dimensions bool
	Window     bool
	Cells      int
	FirstRow   int
	FirstCol   int
}

// Equal reports whether no difference was found.
func (d Diff) Equal() bool {
	return !d.Dimensions && !d.Window && d.Cells == 0
}

// Compare compares two results, ignoring elapsed time.
func Compare(a *grid.Grid, am types.RunMetadata, b *grid.Grid, bm types.RunMetadata) Diff {
	d := Diff{FirstRow: -1, FirstCol: -1}
	if am.Width != bm.Width || am.Height != bm.Height || a.Width() != b.Width() || a.Height() != b.Height() {
		d.Dimensions = true
		return d
	}
	d.Window = am.Window != bm.Window

	for row := 0; row < a.Height(); row++ {
		ar, br := a.Row(row), b.Row(row)
		for col := range ar {
			if ar[col] != br[col] {
				if d.Cells == 0 {
					d.FirstRow, d.FirstCol = row, col
				}
				d.Cells++
			}
		}
	}
	return d
}
