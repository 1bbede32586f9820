package master

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"yqhp/fractal-engine/internal/grid"
	"yqhp/fractal-engine/pkg/types"
)

// SchedulerState is the scheduler lifecycle state.
type SchedulerState int32

const (
	SchedulerStateInit SchedulerState = iota
	SchedulerStateSeeding
	SchedulerStateHarvesting
	SchedulerStateDone
)

// String returns the state name.
func (s SchedulerState) String() string {
	switch s {
	case SchedulerStateInit:
		return "init"
	case SchedulerStateSeeding:
		return "seeding"
	case SchedulerStateHarvesting:
		return "harvesting"
	case SchedulerStateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithStats records row latencies into stats.
func WithStats(stats *Stats) SchedulerOption {
	return func(s *Scheduler) { s.stats = stats }
}

// WithRegistry mirrors worker progress into registry.
func WithRegistry(registry WorkerRegistry) SchedulerOption {
	return func(s *Scheduler) { s.registry = registry }
}

// WithLogger sets the scheduler logger.
func WithLogger(logger *zap.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = logger }
}

// Scheduler hands out rows one at a time and assembles the grid.
// Run must be called at most once.
type Scheduler struct {
	geometry  *grid.Geometry
	mode      types.UnitMode
	transport Transport
	stats     *Stats
	registry  WorkerRegistry
	logger    *zap.Logger

	state   atomic.Int32
	nextRow atomic.Int64
	active  atomic.Int64

	// owned by the Run goroutine
	inFlight map[string]flight
	done     map[string]int
}

type flight struct {
	row    int
	sentAt time.Time
}

// NewScheduler creates a scheduler for the given grid geometry.
func NewScheduler(geometry *grid.Geometry, mode types.UnitMode, transport Transport, opts ...SchedulerOption) *Scheduler {
	if mode == "" {
		mode = types.UnitModeLightweight
	}
	s := &Scheduler{
		geometry:  geometry,
		mode:      mode,
		transport: transport,
		logger:    zap.NewNop(),
		inFlight:  make(map[string]flight),
		done:      make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.Store(int32(SchedulerStateInit))
	return s
}

// State returns the current state.
func (s *Scheduler) State() SchedulerState { return SchedulerState(s.state.Load()) }

// NextRow returns the lowest row not yet assigned.
func (s *Scheduler) NextRow() int { return int(s.nextRow.Load()) }

// Active returns the number of workers holding a row.
func (s *Scheduler) Active() int { return int(s.active.Load()) }

// Run distributes every row and returns the completed grid together with the
// wall time spent between seeding and the last result.
func (s *Scheduler) Run(ctx context.Context) (*grid.Grid, time.Duration, error) {
	g, err := grid.New(s.geometry.Width, s.geometry.Height)
	if err != nil {
		return nil, 0, fmt.Errorf("allocate grid: %w", err)
	}

	workers := s.transport.Workers()
	if len(workers) == 0 {
		return nil, 0, ErrNoWorkers
	}

	start := time.Now()

	s.state.Store(int32(SchedulerStateSeeding))
	s.logger.Info("seeding",
		zap.Int("workers", len(workers)),
		zap.Int("rows", s.geometry.Height),
		zap.String("mode", string(s.mode)))

	for _, id := range workers {
		if s.NextRow() < s.geometry.Height {
			if err := s.assign(ctx, id); err != nil {
				return nil, 0, err
			}
			s.active.Add(1)
			continue
		}
		// more workers than rows
		if err := s.terminate(ctx, id); err != nil {
			return nil, 0, err
		}
	}

	s.state.Store(int32(SchedulerStateHarvesting))
	for s.Active() > 0 {
		result, err := s.transport.Receive(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("receive result: %w", err)
		}
		if err := s.accept(g, result); err != nil {
			return nil, 0, err
		}

		if s.NextRow() < s.geometry.Height {
			err = s.assign(ctx, result.WorkerID)
		} else {
			err = s.terminate(ctx, result.WorkerID)
			s.active.Add(-1)
		}
		if err != nil {
			return nil, 0, err
		}
	}

	elapsed := time.Since(start)

	if s.NextRow() != s.geometry.Height || !g.Complete() {
		return nil, 0, fmt.Errorf("%w: %d rows missing", ErrIncomplete, g.Remaining())
	}
	s.state.Store(int32(SchedulerStateDone))
	s.logger.Info("all rows collected", zap.Duration("elapsed", elapsed))

	return g, elapsed, nil
}

// accept validates a result against the in-flight table and stores it.
func (s *Scheduler) accept(g *grid.Grid, result types.ResultUnit) error {
	f, ok := s.inFlight[result.WorkerID]
	if !ok {
		return fmt.Errorf("%w: result for row %d from worker %q holding no row",
			ErrProtocolViolation, result.Row, result.WorkerID)
	}
	if f.row != result.Row {
		return fmt.Errorf("%w: worker %q returned row %d, holds row %d",
			ErrProtocolViolation, result.WorkerID, result.Row, f.row)
	}
	if err := g.Insert(result.Row, result.Values); err != nil {
		if errors.Is(err, grid.ErrRowWidth) {
			return fmt.Errorf("%w: %w", ErrProtocolViolation, err)
		}
		return fmt.Errorf("insert row %d: %w", result.Row, err)
	}
	delete(s.inFlight, result.WorkerID)
	s.done[result.WorkerID]++

	if s.stats != nil {
		s.stats.RecordRow(result.WorkerID, time.Since(f.sentAt))
	}
	s.logger.Debug("row collected",
		zap.String("worker", result.WorkerID),
		zap.Int("row", result.Row),
		zap.Int("remaining", g.Remaining()))
	return nil
}

// assign sends the next row to workerID.
func (s *Scheduler) assign(ctx context.Context, workerID string) error {
	row := s.NextRow()
	unit := types.WorkUnit{Row: row}
	if s.mode == types.UnitModePrecomputed {
		unit.Coordinates = s.geometry.RowPoints(row)
	}

	if err := s.transport.Assign(ctx, workerID, types.WorkAssignment(unit)); err != nil {
		return fmt.Errorf("assign row %d to %s: %w", row, workerID, err)
	}

	s.inFlight[workerID] = flight{row: row, sentAt: time.Now()}
	s.nextRow.Add(1)

	s.updateRegistry(workerID, types.WorkerStateBusy, row)
	return nil
}

// terminate sends the termination signal to workerID.
func (s *Scheduler) terminate(ctx context.Context, workerID string) error {
	// recorded first: the worker may hang up as soon as the signal lands
	s.updateRegistry(workerID, types.WorkerStateTerminated, -1)
	if err := s.transport.Assign(ctx, workerID, types.TerminateAssignment()); err != nil {
		return fmt.Errorf("terminate %s: %w", workerID, err)
	}
	s.logger.Debug("worker terminated", zap.String("worker", workerID), zap.Int("rows", s.done[workerID]))
	return nil
}

func (s *Scheduler) updateRegistry(workerID string, state types.WorkerState, row int) {
	if s.registry == nil {
		return
	}
	status := &types.WorkerStatus{
		State:    state,
		Row:      row,
		Rows:     s.done[workerID],
		LastSeen: time.Now(),
	}
	// in-process workers may not be registered
	if err := s.registry.UpdateStatus(context.Background(), workerID, status); err != nil && !errors.Is(err, ErrWorkerNotFound) {
		s.logger.Warn("update worker status", zap.String("worker", workerID), zap.Error(err))
	}
}
