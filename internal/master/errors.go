package master

import "errors"

var (
	// ErrNoWorkers is returned when a run starts with no workers to seed.
	ErrNoWorkers = errors.New("master: no workers")

	// ErrProtocolViolation is returned when a worker sends a result it was not asked for.
	ErrProtocolViolation = errors.New("master: protocol violation")

	// ErrIncomplete is returned when harvesting ends with rows missing.
	ErrIncomplete = errors.New("master: grid incomplete")

	// ErrWorkerNotFound is returned by the registry for unknown worker IDs.
	ErrWorkerNotFound = errors.New("master: worker not found")

	// ErrWorkerExists is returned when registering a worker ID twice.
	ErrWorkerExists = errors.New("master: worker already registered")
)
