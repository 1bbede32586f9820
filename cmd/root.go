// Package cmd implements the fractal-engine command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"yqhp/fractal-engine/internal/config"
	"yqhp/fractal-engine/pkg/logger"
)

const (
	// Version is the current version.
	Version = "0.1.0"

	// configPathAnnotation links a flag to the config field it overrides.
	configPathAnnotation = "config-path"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	cfgFile   string
	debug     bool
	quiet     bool
	overrides map[string]string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "fractal-engine",
		Short: "Distributed escape-time fractal renderer",
		Long: `fractal-engine renders Mandelbrot and Newton fractals over a pixel grid.

A master hands out rows one at a time to any number of workers, local
goroutines or remote processes connected over WebSocket, and writes the
assembled grid as plain text. The seq command computes the same grid
sequentially for comparison.`,
		Version:       Version,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file path (YAML)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "log errors only")
	rootCmd.PersistentFlags().StringToStringVar(&opts.overrides, "set", nil, "override config values, e.g. --set grid.width=800")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate("fractal-engine {{.Version}}\n")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newMasterCmd(opts),
		newWorkerCmd(opts),
		newSeqCmd(opts),
		newCompareCmd(),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil && ctx.Err() != nil {
		logger.Warn("interrupted, nothing written")
	}
	stop()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// bindConfigFlag marks flag name as an override of the config field at path.
func bindConfigFlag(cmd *cobra.Command, name, path string) {
	_ = cmd.Flags().SetAnnotation(name, configPathAnnotation, []string{path})
}

// loadConfig applies file, environment, --set and bound flags, in that order, and validates.
func loadConfig(cmd *cobra.Command, opts *globalOptions) (*config.Config, error) {
	cfg, overrides, err := resolveConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	initLogger(cfg, opts)
	logger.Debug("configuration loaded",
		zap.String("file", opts.cfgFile),
		zap.Int("overrides", overrides))
	return cfg, nil
}

// resolveConfig layers the configuration sources without validating the result.
// It also reports how many overrides came from the command line.
func resolveConfig(cmd *cobra.Command, opts *globalOptions) (*config.Config, int, error) {
	overrides := make(map[string]string, len(opts.overrides))
	for k, v := range opts.overrides {
		overrides[k] = v
	}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if paths, ok := f.Annotations[configPathAnnotation]; ok && len(paths) == 1 {
			overrides[paths[0]] = f.Value.String()
		}
	})

	cfg, err := config.NewLoader().
		WithConfigPath(opts.cfgFile).
		WithCmdArgs(overrides).
		Load()
	if err != nil {
		return nil, 0, err
	}
	return cfg, len(overrides), nil
}

func initLogger(cfg *config.Config, opts *globalOptions) {
	logger.Init(&logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
	})
	switch {
	case opts.debug:
		logger.EnableDebug()
	case opts.quiet:
		logger.Silence()
	}
}

// addGridFlags registers the flags shared by every command that computes a grid.
func addGridFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("width", 0, "grid width in pixels")
	f.Int("height", 0, "grid height in pixels")
	f.String("fractal", "", "fractal kind: newton or mandelbrot")
	f.Int("max-iter", 0, "iteration cap")
	f.String("output", "", "output file path")

	bindConfigFlag(cmd, "width", "grid.width")
	bindConfigFlag(cmd, "height", "grid.height")
	bindConfigFlag(cmd, "fractal", "fractal.kind")
	bindConfigFlag(cmd, "max-iter", "fractal.max_iter")
	bindConfigFlag(cmd, "output", "output.path")
}
