package output

import "errors"

var (
	// ErrNoPath is returned when writing without a target path.
	ErrNoPath = errors.New("output: path is required")

	// ErrIncompleteGrid is returned when asked to write a grid with missing rows.
	ErrIncompleteGrid = errors.New("output: grid is incomplete")

	// ErrMalformed is returned by Read for input that does not follow the format.
	ErrMalformed = errors.New("output: malformed file")
)
