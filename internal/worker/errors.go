package worker

import "errors"

var (
	// ErrNoEvaluator is returned when a worker is built without a point evaluator.
	ErrNoEvaluator = errors.New("worker: evaluator is required")

	// ErrNoGeometry is returned for a lightweight unit when the worker has no geometry.
	ErrNoGeometry = errors.New("worker: lightweight unit requires grid geometry")

	// ErrRowOutOfRange is returned for a lightweight unit outside the grid.
	ErrRowOutOfRange = errors.New("worker: row out of range")

	// ErrMalformedAssignment is returned for a work assignment without a unit.
	ErrMalformedAssignment = errors.New("worker: malformed assignment")
)
