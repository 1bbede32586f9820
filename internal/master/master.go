package master

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"yqhp/fractal-engine/internal/grid"
	"yqhp/fractal-engine/pkg/types"
)

// Config holds the configuration for a master.
type Config struct {
	// Workers is the number of registered workers to wait for before seeding.
	// Zero skips waiting, as for in-process transports.
	Workers int

	// Mode selects lightweight or precomputed work units.
	Mode types.UnitMode
}

// DefaultConfig returns a default master configuration.
func DefaultConfig() *Config {
	return &Config{
		Workers: 0,
		Mode:    types.UnitModeLightweight,
	}
}

// MasterState represents the state of a master run.
type MasterState string

const (
	// MasterStateIdle indicates Run has not been called.
	MasterStateIdle MasterState = "idle"
	// MasterStateWaiting indicates the master is waiting for workers to register.
	MasterStateWaiting MasterState = "waiting"
	// MasterStateRunning indicates rows are being distributed.
	MasterStateRunning MasterState = "running"
	// MasterStateWriting indicates the grid is being persisted.
	MasterStateWriting MasterState = "writing"
	// MasterStateDone indicates the run finished successfully.
	MasterStateDone MasterState = "done"
	// MasterStateFailed indicates the run failed.
	MasterStateFailed MasterState = "failed"
)

// Result is the outcome of a completed run.
type Result struct {
	Grid     *grid.Grid
	Metadata types.RunMetadata
	Stats    Summary
}

// Master drives one run: wait for workers, schedule rows, write the grid.
type Master struct {
	config    *Config
	geometry  *grid.Geometry
	transport Transport
	registry  WorkerRegistry
	writer    GridWriter
	logger    *zap.Logger

	state atomic.Value // MasterState
}

// New creates a master. registry and writer may be nil.
func New(config *Config, geometry *grid.Geometry, transport Transport, registry WorkerRegistry, writer GridWriter, logger *zap.Logger) *Master {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Master{
		config:    config,
		geometry:  geometry,
		transport: transport,
		registry:  registry,
		writer:    writer,
		logger:    logger,
	}
	m.state.Store(MasterStateIdle)
	return m
}

// State returns the current master state.
func (m *Master) State() MasterState {
	return m.state.Load().(MasterState)
}

// Run executes the whole run. On error or cancellation nothing is written.
func (m *Master) Run(ctx context.Context) (*Result, error) {
	result, err := m.run(ctx)
	if err != nil {
		m.state.Store(MasterStateFailed)
		return nil, err
	}
	m.state.Store(MasterStateDone)
	return result, nil
}

func (m *Master) run(ctx context.Context) (*Result, error) {
	if m.registry != nil {
		stop := m.watchMembership(ctx)
		defer stop()
	}

	if m.registry != nil && m.config.Workers > 0 {
		m.state.Store(MasterStateWaiting)
		m.logger.Info("waiting for workers", zap.Int("workers", m.config.Workers))

		waitStart := time.Now()
		workers, err := m.registry.WaitForWorkers(ctx, m.config.Workers)
		if err != nil {
			return nil, err
		}
		m.logger.Info("workers ready",
			zap.Int("workers", len(workers)),
			zap.Duration("waited", time.Since(waitStart)))
	}

	m.state.Store(MasterStateRunning)
	stats := NewStats()
	scheduler := NewScheduler(m.geometry, m.config.Mode, m.transport,
		WithStats(stats),
		WithRegistry(m.registry),
		WithLogger(m.logger))

	g, elapsed, err := scheduler.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("schedule rows: %w", err)
	}

	meta := types.RunMetadata{
		Width:   m.geometry.Width,
		Height:  m.geometry.Height,
		Window:  m.geometry.Window,
		Elapsed: elapsed,
	}

	if m.writer != nil {
		m.state.Store(MasterStateWriting)
		if err := m.writer.Write(g, meta); err != nil {
			return nil, fmt.Errorf("write grid: %w", err)
		}
	}

	summary := stats.Summary()
	m.logger.Info("run complete", append([]zap.Field{zap.Duration("elapsed", elapsed)}, summary.Fields()...)...)

	return &Result{Grid: g, Metadata: meta, Stats: summary}, nil
}

// watchMembership logs workers joining and leaving until the returned stop is called.
func (m *Master) watchMembership(ctx context.Context) (stop func()) {
	watchCtx, cancel := context.WithCancel(ctx)
	events, err := m.registry.WatchWorkers(watchCtx)
	if err != nil {
		cancel()
		m.logger.Warn("watch workers", zap.Error(err))
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		terminated := make(map[string]bool)
		for ev := range events {
			switch ev.Type {
			case types.WorkerEventRegistered:
				fields := []zap.Field{zap.String("worker", ev.WorkerID)}
				if ev.Worker != nil && ev.Worker.Hostname != "" {
					fields = append(fields, zap.String("host", ev.Worker.Hostname))
				}
				m.logger.Info("worker joined", fields...)
			case types.WorkerEventUpdated:
				if ev.Status != nil && ev.Status.State == types.WorkerStateTerminated {
					terminated[ev.WorkerID] = true
				}
			case types.WorkerEventUnregistered:
				if m.State() == MasterStateRunning && !terminated[ev.WorkerID] {
					m.logger.Warn("worker left during run", zap.String("worker", ev.WorkerID))
				} else {
					m.logger.Info("worker left", zap.String("worker", ev.WorkerID))
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
