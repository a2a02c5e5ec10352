package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"osmworld/internal/ledger"
	"osmworld/internal/services"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		runID string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded pipeline runs, or the jobs of one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(ledger.PathFor(cfg.Paths.LogDir))
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if id := strings.TrimSpace(runID); id != "" {
				run, err := store.GetRun(cmd.Context(), id)
				if err != nil {
					return err
				}
				if run == nil {
					return services.Wrap(services.ErrValidation, "", "history", fmt.Sprintf("run %s not found", id), nil)
				}
				jobs, err := store.ListJobs(cmd.Context(), id)
				if err != nil {
					return err
				}
				renderRunJobs(out, *run, jobs, colorize)
				return nil
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			renderRuns(out, runs, colorize)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Show the jobs of this run")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}

func renderRuns(out io.Writer, runs []ledger.Run, colorize bool) {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			runStatus(run.Status, colorize),
			formatTimestamp(run.StartedAt),
			formatElapsed(run.Duration()),
			strconv.Itoa(run.Regions),
			run.ErrorKind,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Run", "Status", "Started", "Duration", "Regions", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
}

func renderRunJobs(out io.Writer, run ledger.Run, jobs []ledger.JobRecord, colorize bool) {
	fmt.Fprintf(out, "Run %s: %s, started %s\n", run.ID, runStatus(run.Status, colorize), formatTimestamp(run.StartedAt))
	if run.ErrorMessage != "" {
		fmt.Fprintf(out, "Error: %s\n", run.ErrorMessage)
	}
	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs recorded")
		return
	}
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		exit := strconv.Itoa(job.ExitCode)
		if job.LaunchError != "" {
			exit = "launch: " + job.LaunchError
		}
		status := colorStatus(statusOK, "ok", colorize)
		if !job.Succeeded() {
			status = colorStatus(statusError, "failed", colorize)
		}
		rows = append(rows, []string{
			job.Stage,
			job.Unit,
			status,
			exit,
			formatElapsed(job.FinishedAt.Sub(job.StartedAt)),
			job.Command,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Stage", "Unit", "Status", "Exit", "Duration", "Command"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
}

func runStatus(status string, colorize bool) string {
	switch status {
	case ledger.StatusSucceeded:
		return colorStatus(statusOK, status, colorize)
	case ledger.StatusRunning:
		return colorStatus(statusWarn, status, colorize)
	default:
		return colorStatus(statusError, status, colorize)
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}
