package cmd

import (
	"github.com/spf13/cobra"

	"yqhp/fractal-engine/internal/config"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration after applying the file, FE_* environment
variables and command-line overrides. The output can be saved and passed
back with --config. Exits non-zero when the result does not validate.`,
		Example: `  fractal-engine config show --fractal mandelbrot > mandelbrot.yaml
  FE_GRID_WIDTH=800 fractal-engine config show`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg, _, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			if err := printConfig(cmd, cfg); err != nil {
				return err
			}
			return cfg.Validate()
		},
	}
	addGridFlags(showCmd)

	configCmd.AddCommand(showCmd)
	return configCmd
}

func printConfig(cmd *cobra.Command, cfg *config.Config) error {
	data, err := cfg.Serialize()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
