package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"yqhp/fractal-engine/internal/evaluator"
	"yqhp/fractal-engine/internal/grid"
	"yqhp/fractal-engine/pkg/types"
)

// State is the worker lifecycle state.
type State int32

const (
	StateWaitingForWork State = iota
	StateComputing
	StateReplying
	StateTerminated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateWaitingForWork:
		return "waiting"
	case StateComputing:
		return "computing"
	case StateReplying:
		return "replying"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Config holds worker settings.
type Config struct {
	// ID identifies the worker to the master.
	ID string

	// Parallelism is the number of goroutines evaluating columns of one row.
	Parallelism int
}

// DefaultConfig returns a config with a fresh ID and one goroutine per CPU.
func DefaultConfig() *Config {
	return &Config{
		ID:          NewID(),
		Parallelism: runtime.NumCPU(),
	}
}

// NewID returns a worker ID of the form worker-xxxxxxxx.
func NewID() string {
	return "worker-" + uuid.New().String()[:8]
}

// Worker evaluates rows handed out by the master.
type Worker struct {
	config    *Config
	geometry  *grid.Geometry
	evaluator evaluator.PointEvaluator
	logger    *zap.Logger

	state atomic.Int32
	rows  atomic.Int64
}

// New creates a worker. geometry may be nil when the master sends precomputed units only.
func New(config *Config, geometry *grid.Geometry, ev evaluator.PointEvaluator, logger *zap.Logger) (*Worker, error) {
	if ev == nil {
		return nil, ErrNoEvaluator
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.ID == "" {
		config.ID = NewID()
	}
	if config.Parallelism <= 0 {
		config.Parallelism = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Worker{
		config:    config,
		geometry:  geometry,
		evaluator: ev,
		logger:    logger.With(zap.String("worker", config.ID)),
	}
	w.state.Store(int32(StateWaitingForWork))
	return w, nil
}

// ID returns the worker ID.
func (w *Worker) ID() string { return w.config.ID }

// State returns the current lifecycle state.
func (w *Worker) State() State { return State(w.state.Load()) }

// Rows returns the number of rows replied so far.
func (w *Worker) Rows() int64 { return w.rows.Load() }

func (w *Worker) setState(s State) { w.state.Store(int32(s)) }

// Run serves assignments from conn until the termination signal arrives.
// It returns nil on termination and the first receive, compute or send error otherwise.
func (w *Worker) Run(ctx context.Context, conn Conn) error {
	w.logger.Debug("worker started", zap.Int("parallelism", w.config.Parallelism))

	for {
		w.setState(StateWaitingForWork)
		assignment, err := conn.Receive(ctx)
		if err != nil {
			return fmt.Errorf("receive assignment: %w", err)
		}

		if assignment.IsTerminate() {
			w.setState(StateTerminated)
			w.logger.Debug("worker terminated", zap.Int64("rows", w.rows.Load()))
			return nil
		}
		if assignment.Kind != types.AssignmentWork || assignment.Work == nil {
			return fmt.Errorf("%w: kind %q", ErrMalformedAssignment, assignment.Kind)
		}

		w.setState(StateComputing)
		result, err := w.Process(ctx, *assignment.Work)
		if err != nil {
			return err
		}

		w.setState(StateReplying)
		if err := conn.Send(ctx, result); err != nil {
			return fmt.Errorf("send row %d: %w", result.Row, err)
		}
		w.rows.Add(1)
	}
}

// Process evaluates every column of unit. values[i] is the count for column i.
func (w *Worker) Process(ctx context.Context, unit types.WorkUnit) (types.ResultUnit, error) {
	points := unit.Coordinates
	if !unit.Precomputed() {
		if w.geometry == nil {
			return types.ResultUnit{}, ErrNoGeometry
		}
		if !w.geometry.Contains(unit.Row) {
			return types.ResultUnit{}, fmt.Errorf("%w: %d", ErrRowOutOfRange, unit.Row)
		}
		points = w.geometry.RowPoints(unit.Row)
	}

	values := make([]int, len(points))
	if err := w.evaluate(ctx, points, values); err != nil {
		return types.ResultUnit{}, fmt.Errorf("evaluate row %d: %w", unit.Row, err)
	}

	return types.ResultUnit{
		WorkerID: w.config.ID,
		Row:      unit.Row,
		Values:   values,
	}, nil
}

// evaluate fills values from points, splitting columns into contiguous chunks.
func (w *Worker) evaluate(ctx context.Context, points []types.Point, values []int) error {
	n := len(points)
	chunks := min(w.config.Parallelism, n)
	if chunks <= 1 {
		for i, p := range points {
			values[i] = w.evaluator.Evaluate(p)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	size := (n + chunks - 1) / chunks
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%256 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				values[i] = w.evaluator.Evaluate(points[i])
			}
			return nil
		})
	}
	return g.Wait()
}

// NewFromJob builds a worker for job, resolving its evaluator through registry.
func NewFromJob(config *Config, job *types.JobSpec, registry *evaluator.Registry, logger *zap.Logger) (*Worker, error) {
	if registry == nil {
		registry = evaluator.DefaultRegistry()
	}
	ev, err := registry.New(job.Fractal)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job.ID, err)
	}
	geometry, err := grid.FromJob(job)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job.ID, err)
	}
	return New(config, geometry, ev, logger)
}
