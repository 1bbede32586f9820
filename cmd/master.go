package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yqhp/fractal-engine/api/ws"
	"yqhp/fractal-engine/internal/config"
	"yqhp/fractal-engine/internal/grid"
	"yqhp/fractal-engine/internal/master"
	"yqhp/fractal-engine/internal/output"
	"yqhp/fractal-engine/pkg/logger"
	"yqhp/fractal-engine/pkg/types"
)

// drainTimeout bounds how long the master waits for workers to hang up after a run.
const drainTimeout = 5 * time.Second

func newMasterCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "master",
		Short: "Start the master and wait for remote workers",
		Long: `Start the master. It listens for workers on master.address, waits until
master.workers of them have registered, then hands out rows one at a time
and writes the assembled grid. Workers connecting after seeding started
are rejected.`,
		Example: `  fractal-engine master --addr :8080 --workers 4
  fractal-engine master --config master.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", cfg.Master.Address)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", cfg.Master.Address, err)
			}
			res, err := runMaster(cmd.Context(), cfg, ln)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "elapsed: %.4f s\n", res.Metadata.Elapsed.Seconds())
			return nil
		},
	}

	addGridFlags(cmd)
	cmd.Flags().String("addr", "", "listen address")
	cmd.Flags().Int("workers", 0, "number of workers to wait for")
	cmd.Flags().String("mode", "", "work unit mode: lightweight or precomputed")
	bindConfigFlag(cmd, "addr", "master.address")
	bindConfigFlag(cmd, "workers", "master.workers")
	bindConfigFlag(cmd, "mode", "master.mode")
	return cmd
}

// runMaster serves workers on ln for one run and writes the grid to cfg.OutputPath.
func runMaster(ctx context.Context, cfg *config.Config, ln net.Listener) (*master.Result, error) {
	log := logger.Named("master")

	geometry, err := grid.NewGeometry(cfg.Grid.Width, cfg.Grid.Height, cfg.Window())
	if err != nil {
		_ = ln.Close()
		return nil, err
	}

	job := cfg.Job(uuid.NewString())
	registry := master.NewInMemoryWorkerRegistry()
	hub := ws.NewHub(job, registry, log.Named("hub"))
	server := ws.NewServer(hub, log)

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve(ln) }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case err := <-serveErr:
			if err != nil {
				log.Error("server stopped", zap.Error(err))
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	log.Info("job ready",
		zap.String("job", job.ID),
		zap.Int("width", job.Width),
		zap.Int("height", job.Height),
		zap.String("fractal", job.Fractal.Kind),
		zap.Int("max_iter", job.Fractal.MaxIter),
		zap.String("mode", string(job.Mode)))

	m := master.New(
		&master.Config{Workers: cfg.Master.Workers, Mode: types.UnitMode(cfg.Master.Mode)},
		geometry, hub, registry,
		output.NewTextWriter(cfg.OutputPath(), log),
		log)
	res, runErr := m.Run(ctx)

	shutdownCtx, stop := context.WithTimeout(context.Background(), drainTimeout)
	defer stop()
	if runErr == nil {
		if err := hub.Drain(shutdownCtx); err != nil {
			log.Warn("workers still connected at shutdown", zap.Int("workers", hub.Count()))
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Warn("server shutdown", zap.Error(err))
	}

	if runErr != nil {
		return nil, runErr
	}
	return res, nil
}
