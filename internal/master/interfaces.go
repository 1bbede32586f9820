package master

import (
	"context"

	"yqhp/fractal-engine/internal/grid"
	"yqhp/fractal-engine/pkg/types"
)

// Transport is the scheduler's view of its workers.
type Transport interface {
	// Workers returns the workers known at seeding time, in seeding order.
	Workers() []string

	// Assign sends a work unit or the termination signal to one worker.
	Assign(ctx context.Context, workerID string, a types.Assignment) error

	// Receive blocks until any worker returns a result.
	Receive(ctx context.Context) (types.ResultUnit, error)
}

// GridWriter persists a completed grid.
type GridWriter interface {
	Write(g *grid.Grid, meta types.RunMetadata) error
}

// WorkerRegistry manages worker registration and status.
type WorkerRegistry interface {
	// Register registers a new worker.
	Register(ctx context.Context, worker *types.WorkerInfo) error

	// Unregister removes a worker.
	Unregister(ctx context.Context, workerID string) error

	// UpdateStatus replaces a worker's status.
	UpdateStatus(ctx context.Context, workerID string, status *types.WorkerStatus) error

	// GetWorker returns a single worker's information.
	GetWorker(ctx context.Context, workerID string) (*types.WorkerInfo, error)

	// GetWorkerStatus returns a worker's current status.
	GetWorkerStatus(ctx context.Context, workerID string) (*types.WorkerStatus, error)

	// ListWorkers lists workers in registration order.
	ListWorkers(ctx context.Context) ([]*types.WorkerInfo, error)

	// WatchWorkers streams worker events until ctx is done.
	WatchWorkers(ctx context.Context) (<-chan *types.WorkerEvent, error)

	// WaitForWorkers blocks until at least n workers are registered and returns the first n.
	WaitForWorkers(ctx context.Context, n int) ([]*types.WorkerInfo, error)
}
