package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yqhp/fractal-engine/internal/baseline"
	"yqhp/fractal-engine/internal/evaluator"
	"yqhp/fractal-engine/internal/grid"
	"yqhp/fractal-engine/internal/output"
	"yqhp/fractal-engine/pkg/logger"
)

func newSeqCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seq <multiplier>",
		Short: "Compute the grid sequentially",
		Long: `Compute the grid on a single goroutine. The width is grid.base_width
times the multiplier, so runs with a growing multiplier scale the work
the way adding workers does. The result goes to
<fractal>_seq_<multiplier>_output.dat unless --output is given.`,
		Example: `  fractal-engine seq 1
  fractal-engine seq 4 --fractal mandelbrot --max-iter 32000`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one argument <multiplier>, got %d", len(args))
			}
			if n, err := strconv.Atoi(args[0]); err != nil || n <= 0 {
				return fmt.Errorf("invalid multiplier %q: must be a positive integer", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			multiplier, _ := strconv.Atoi(args[0])
			return runSeq(cmd, opts, multiplier)
		},
	}

	addGridFlags(cmd)
	return cmd
}

func runSeq(cmd *cobra.Command, opts *globalOptions, multiplier int) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	log := logger.Named("seq")

	width := cfg.Grid.BaseWidth * multiplier
	geometry, err := grid.NewGeometry(width, cfg.Grid.Height, cfg.Window())
	if err != nil {
		return err
	}
	ev, err := evaluator.DefaultRegistry().New(cfg.FractalSpec())
	if err != nil {
		return err
	}

	path := cfg.Output.Path
	if path == "" {
		path = cfg.SequentialOutputPath(multiplier)
	}

	log.Info("sequential run",
		zap.Int("multiplier", multiplier),
		zap.Int("width", geometry.Width),
		zap.Int("height", geometry.Height),
		zap.String("fractal", ev.Name()))

	g, meta, err := baseline.Run(cmd.Context(), geometry, ev)
	if err != nil {
		return err
	}
	if err := output.NewTextWriter(path, log).Write(g, meta); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "elapsed: %.4f s\n", meta.Elapsed.Seconds())
	return nil
}
