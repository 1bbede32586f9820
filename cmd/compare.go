package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"yqhp/fractal-engine/internal/output"
)

// errMismatch is returned when the compared results differ.
var errMismatch = errors.New("results differ")

func newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <a> <b>",
		Short: "Check that two result files hold the same grid",
		Long: `Compare dimensions, window and every cell of two result files.
Elapsed time is ignored. Exits non-zero when they differ.`,
		Example: `  fractal-engine compare newton_seq_1_output.dat newton_dist_output.dat`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			a, am, err := output.ReadFile(args[0])
			if err != nil {
				return err
			}
			b, bm, err := output.ReadFile(args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			d := output.Compare(a, am, b, bm)
			switch {
			case d.Equal():
				fmt.Fprintf(out, "identical: %dx%d\n", am.Width, am.Height)
				return nil
			case d.Dimensions:
				fmt.Fprintf(out, "dimensions differ: %dx%d vs %dx%d\n", am.Width, am.Height, bm.Width, bm.Height)
			default:
				if d.Window {
					fmt.Fprintln(out, "windows differ")
				}
				if d.Cells > 0 {
					fmt.Fprintf(out, "%d cells differ, first at row %d col %d\n", d.Cells, d.FirstRow, d.FirstCol)
				}
			}
			return errMismatch
		},
	}
}
