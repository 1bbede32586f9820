package master

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"yqhp/fractal-engine/internal/evaluator"
	"yqhp/fractal-engine/internal/grid"
	"yqhp/fractal-engine/internal/transport/local"
	"yqhp/fractal-engine/internal/worker"
	"yqhp/fractal-engine/pkg/types"
)

// sumEvaluator returns re+im, which over the window [0,w-1]x[0,h-1] is col+row.
func sumEvaluator() evaluator.PointEvaluator {
	return evaluator.Func{Label: "sum", Cap: 1 << 20, Fn: func(p types.Point) int { return int(p.Re + p.Im) }}
}

func unitGeometry(t testing.TB, width, height int) *grid.Geometry {
	t.Helper()
	g, err := grid.NewGeometry(width, height, types.Window{
		XMin: 0, XMax: float64(max(width-1, 1)),
		YMin: 0, YMax: float64(max(height-1, 1)),
	})
	require.NoError(t, err)
	return g
}

type assignRecord struct {
	worker string
	a      types.Assignment
}

// recordingTransport wraps a transport and records every assignment.
type recordingTransport struct {
	Transport
	mu      sync.Mutex
	records []assignRecord
}

func (r *recordingTransport) Assign(ctx context.Context, workerID string, a types.Assignment) error {
	r.mu.Lock()
	r.records = append(r.records, assignRecord{worker: workerID, a: a})
	r.mu.Unlock()
	return r.Transport.Assign(ctx, workerID, a)
}

func (r *recordingTransport) snapshot() []assignRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]assignRecord, len(r.records))
	copy(out, r.records)
	return out
}

// delayedEvaluator sleeps before delegating, to skew worker speeds.
type delayedEvaluator struct {
	evaluator.PointEvaluator
	delay time.Duration
}

func (d delayedEvaluator) Evaluate(p types.Point) int {
	time.Sleep(d.delay)
	return d.PointEvaluator.Evaluate(p)
}

// startLocalWorkers runs one worker per ID on hub and returns a wait function.
func startLocalWorkers(ctx context.Context, t testing.TB, hub *local.Hub, geometry *grid.Geometry, evaluators map[string]evaluator.PointEvaluator) func() error {
	t.Helper()
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range hub.Workers() {
		conn, err := hub.Conn(id)
		require.NoError(t, err)
		w, err := worker.New(&worker.Config{ID: id, Parallelism: 2}, geometry, evaluators[id], nil)
		require.NoError(t, err)
		g.Go(func() error { return w.Run(gctx, conn) })
	}
	return g.Wait
}

func workerIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = worker.NewID()
	}
	return ids
}
