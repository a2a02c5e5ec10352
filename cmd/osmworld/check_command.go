package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"osmworld/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify tools, inputs, and directories before a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cmd.Context(), cfg)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := colorStatus(statusOK, "OK", colorize)
				if !r.Passed {
					status = colorStatus(statusError, "FAIL", colorize)
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d preflight checks failed (first: %s: %s)",
					len(failed), len(results), failed[0].Name, failed[0].Detail)
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}
