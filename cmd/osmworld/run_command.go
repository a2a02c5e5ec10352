package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"osmworld/internal/ledger"
	"osmworld/internal/logging"
	"osmworld/internal/pipeline"
	"osmworld/internal/procpool"
	"osmworld/internal/runlock"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var stageFlag string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline, optionally stopping after a stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stopAfter, err := pipeline.ParseStage(stageFlag)
			if err != nil {
				return err
			}
			return runPipeline(cmd, ctx, stopAfter)
		},
	}
	cmd.Flags().StringVar(&stageFlag, "stage", "", "Stop after this stage (extract, partition, convert, merge)")
	return cmd
}

// runPipeline drives one full pipeline invocation under the run lock.
func runPipeline(cmd *cobra.Command, ctx *commandContext, stopAfter pipeline.Stage) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	lock, err := runlock.Acquire(cfg.Paths.OutputDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	runID := ledger.NewRunID()
	logger, logPath, err := logging.NewFromConfig(cfg, runID)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String(logging.FieldRunID, runID))
	pruneLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays)

	var recorder procpool.Recorder
	store, err := ledger.Open(ledger.PathFor(cfg.Paths.LogDir))
	if err != nil {
		logging.WarnWithContext(logger, "run ledger unavailable", "ledger_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history will not be recorded"),
		)
	} else {
		defer store.Close()
		if _, err := store.BeginRun(cmd.Context(), runID, ctx.configPath, len(cfg.Pipeline.Boundaries)); err != nil {
			logging.WarnWithContext(logger, "failed to record run start", "ledger_write_failed", logging.Error(err))
		}
		recorder = store.Recorder(runID, logger)
	}

	seq, err := pipeline.New(cfg, pipeline.Options{Recorder: recorder, Logger: logger})
	if err != nil {
		finishRun(store, runID, logger, err)
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("pipeline run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("regions", len(cfg.Pipeline.Boundaries)),
		logging.String("stop_after", string(stopAfter)),
		logging.String("log_file", logPath),
	)
	started := time.Now()
	runErr := seq.Run(runCtx, stopAfter)
	finishRun(store, runID, logger, runErr)
	if runErr != nil {
		return runErr
	}
	logger.Info("pipeline run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Duration("elapsed", time.Since(started).Round(time.Second)),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Run %s completed (log: %s)\n", runID, logPath)
	return nil
}

func finishRun(store *ledger.Store, runID string, logger *slog.Logger, runErr error) {
	if store == nil {
		return
	}
	if err := store.FinishRun(context.Background(), runID, runErr); err != nil {
		logging.WarnWithContext(logger, "failed to record run outcome", "ledger_write_failed", logging.Error(err))
	}
}

func pruneLogs(logger *slog.Logger, dir string, retentionDays int) {
	removed, err := logging.CleanupOldLogs(dir, retentionDays, time.Now())
	if err != nil {
		logging.WarnWithContext(logger, "log retention cleanup failed", "log_cleanup_failed", logging.Error(err))
		return
	}
	if removed > 0 {
		logger.Info("removed old run logs",
			logging.String(logging.FieldEventType, "log_cleanup"),
			logging.Int("removed", removed),
		)
	}
}
