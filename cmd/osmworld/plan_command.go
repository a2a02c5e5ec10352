package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"osmworld/internal/logging"
	"osmworld/internal/pipeline"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the jobs each stage would launch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			seq, err := pipeline.New(cfg, pipeline.Options{Logger: logging.NewNop()})
			if err != nil {
				return err
			}
			plan, err := seq.Plan(cmd.Context())
			if err != nil {
				return err
			}
			renderPlan(cmd.OutOrStdout(), plan)
			return nil
		},
	}
}

func renderPlan(out io.Writer, plan pipeline.Plan) {
	for _, sp := range plan.Stages {
		switch {
		case sp.Disabled:
			fmt.Fprintf(out, "%s: disabled\n", sp.Stage.Label())
		case len(sp.Jobs) == 0:
			fmt.Fprintf(out, "%s: nothing to do\n", sp.Stage.Label())
		default:
			fmt.Fprintf(out, "%s: %d job(s)\n", sp.Stage.Label(), len(sp.Jobs))
			rows := make([][]string, 0, len(sp.Jobs))
			for i, job := range sp.Jobs {
				rows = append(rows, []string{strconv.Itoa(i + 1), job.Unit, job.CommandLine()})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Unit", "Command"}, rows, []columnAlignment{alignRight}))
		}
		for _, note := range sp.Notes {
			fmt.Fprintf(out, "  note: %s\n", note)
		}
	}
	fmt.Fprintf(out, "%d job(s) pending\n", plan.JobCount())
}
