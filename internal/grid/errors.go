package grid

import "errors"

var (
	// ErrInvalidDimensions is returned when width or height is not positive.
	ErrInvalidDimensions = errors.New("grid width and height must be positive")

	// ErrInvalidWindow is returned when a window bound pair is not strictly increasing.
	ErrInvalidWindow = errors.New("window must satisfy x_min < x_max and y_min < y_max")

	// ErrGridTooLarge is returned when the grid cannot be allocated.
	ErrGridTooLarge = errors.New("grid exceeds the maximum cell count")

	// ErrRowOutOfRange is returned for a row index outside [0, height).
	ErrRowOutOfRange = errors.New("row index out of range")

	// ErrRowPopulated is returned when a row is inserted twice.
	ErrRowPopulated = errors.New("row already populated")

	// ErrRowWidth is returned when a row does not have exactly width values.
	ErrRowWidth = errors.New("row length does not match grid width")
)
