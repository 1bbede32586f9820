package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"yqhp/fractal-engine/internal/config"
	"yqhp/fractal-engine/internal/evaluator"
	"yqhp/fractal-engine/internal/grid"
	"yqhp/fractal-engine/internal/master"
	"yqhp/fractal-engine/internal/output"
	"yqhp/fractal-engine/internal/transport/local"
	"yqhp/fractal-engine/internal/worker"
	"yqhp/fractal-engine/pkg/logger"
	"yqhp/fractal-engine/pkg/types"
)

func newRunCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run master and workers in one process",
		Long: `Run the master and master.workers workers as goroutines connected by
channels. The result is the same grid a distributed run produces.`,
		Example: `  fractal-engine run --workers 8
  fractal-engine run --fractal mandelbrot --mode precomputed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			res, err := runLocal(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "elapsed: %.4f s\n", res.Metadata.Elapsed.Seconds())
			return nil
		},
	}

	addGridFlags(cmd)
	cmd.Flags().Int("workers", 0, "number of workers")
	cmd.Flags().String("mode", "", "work unit mode: lightweight or precomputed")
	bindConfigFlag(cmd, "workers", "master.workers")
	bindConfigFlag(cmd, "mode", "master.mode")
	return cmd
}

// runLocal computes the grid with in-process workers and writes it to cfg.OutputPath.
func runLocal(ctx context.Context, cfg *config.Config) (*master.Result, error) {
	log := logger.Named("run")

	geometry, err := grid.NewGeometry(cfg.Grid.Width, cfg.Grid.Height, cfg.Window())
	if err != nil {
		return nil, err
	}
	ev, err := evaluator.DefaultRegistry().New(cfg.FractalSpec())
	if err != nil {
		return nil, err
	}

	ids := make([]string, cfg.Master.Workers)
	for i := range ids {
		ids[i] = fmt.Sprintf("worker-%d", i)
	}
	hub, err := local.NewHub(ids)
	if err != nil {
		return nil, err
	}

	registry := master.NewInMemoryWorkerRegistry()
	for _, id := range ids {
		if err := registry.Register(ctx, &types.WorkerInfo{ID: id, Hostname: "local"}); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		conn, err := hub.Conn(id)
		if err != nil {
			return nil, err
		}
		w, err := worker.New(&worker.Config{ID: id, Parallelism: 1}, geometry, ev, log.Named(id))
		if err != nil {
			return nil, err
		}
		g.Go(func() error { return w.Run(gctx, conn) })
	}

	m := master.New(
		&master.Config{Workers: len(ids), Mode: types.UnitMode(cfg.Master.Mode)},
		geometry, hub, registry,
		output.NewTextWriter(cfg.OutputPath(), log),
		log)

	log.Info("local run",
		zap.Int("workers", len(ids)),
		zap.Int("width", geometry.Width),
		zap.Int("height", geometry.Height),
		zap.String("fractal", ev.Name()),
		zap.String("mode", cfg.Master.Mode))

	res, runErr := m.Run(gctx)
	if runErr != nil {
		cancel()
	}
	if err := g.Wait(); err != nil && runErr == nil {
		return nil, err
	}
	if runErr != nil {
		return nil, runErr
	}
	return res, nil
}
