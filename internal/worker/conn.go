package worker

import (
	"context"

	"yqhp/fractal-engine/pkg/types"
)

// Conn is the worker's one-to-one link with the master.
type Conn interface {
	// Receive blocks until the next assignment arrives.
	Receive(ctx context.Context) (types.Assignment, error)

	// Send delivers a finished row to the master.
	Send(ctx context.Context, result types.ResultUnit) error
}
