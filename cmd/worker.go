package cmd

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yqhp/fractal-engine/api/ws"
	"yqhp/fractal-engine/internal/config"
	"yqhp/fractal-engine/internal/evaluator"
	"yqhp/fractal-engine/internal/worker"
	"yqhp/fractal-engine/pkg/logger"
)

func newWorkerCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Connect to a master and compute rows",
		Long: `Connect to the master at worker.master_addr, register, and compute the
rows it hands out until told to stop. The grid and fractal come from
the master; local grid settings are ignored.`,
		Example: `  fractal-engine worker --master localhost:8080
  fractal-engine worker --master ws://10.0.0.1:8080 --parallelism 8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			rows, err := runWorker(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rows computed: %d\n", rows)
			return nil
		},
	}

	cmd.Flags().String("master", "", "master address")
	cmd.Flags().String("id", "", "worker ID (generated when empty)")
	cmd.Flags().Int("parallelism", 0, "goroutines per row (0 means one per CPU)")
	bindConfigFlag(cmd, "master", "worker.master_addr")
	bindConfigFlag(cmd, "id", "worker.id")
	bindConfigFlag(cmd, "parallelism", "worker.parallelism")
	return cmd
}

// workerConfig resolves the generated defaults of cfg.Worker.
func workerConfig(cfg *config.Config) *worker.Config {
	wc := &worker.Config{ID: cfg.Worker.ID, Parallelism: cfg.Worker.Parallelism}
	if wc.ID == "" {
		wc.ID = worker.NewID()
	}
	if wc.Parallelism == 0 {
		wc.Parallelism = runtime.NumCPU()
	}
	return wc
}

// runWorker serves one job and returns the number of rows computed.
func runWorker(ctx context.Context, cfg *config.Config) (int64, error) {
	wc := workerConfig(cfg)
	log := logger.Named("worker").With(zap.String("worker", wc.ID))

	client, err := ws.Dial(ctx, &ws.ClientConfig{
		MasterAddr:       cfg.Worker.MasterAddr,
		WorkerID:         wc.ID,
		Version:          Version,
		HandshakeTimeout: cfg.Worker.HandshakeTimeout,
	})
	if err != nil {
		return 0, err
	}
	defer client.Close()

	wc.ID = client.ID()
	job := client.Job()
	log.Info("registered",
		zap.String("master", cfg.Worker.MasterAddr),
		zap.String("job", job.ID),
		zap.String("fractal", job.Fractal.Kind),
		zap.Int("width", job.Width),
		zap.Int("height", job.Height))

	w, err := worker.NewFromJob(wc, job, evaluator.DefaultRegistry(), log)
	if err != nil {
		return 0, err
	}
	if err := w.Run(ctx, client); err != nil {
		return w.Rows(), err
	}
	log.Info("done", zap.Int64("rows", w.Rows()))
	return w.Rows(), nil
}
