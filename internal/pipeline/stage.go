package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"osmworld/internal/logging"
	"osmworld/internal/services"
)

// Stage names a pipeline step.
type Stage string

// Pipeline stages in execution order.
const (
	StageExtract   Stage = "extract"
	StagePartition Stage = "partition"
	StageConvert   Stage = "convert"
	StageMerge     Stage = "merge"
)

// Stages lists every stage in execution order.
var Stages = []Stage{StageExtract, StagePartition, StageConvert, StageMerge}

var titleCaser = cases.Title(language.English)

// Label returns the display form of the stage.
func (s Stage) Label() string {
	return titleCaser.String(string(s))
}

func (s Stage) index() int {
	for i, stage := range Stages {
		if stage == s {
			return i
		}
	}
	return -1
}

// ParseStage validates a stage name. The empty string is accepted and means
// "every stage".
func ParseStage(name string) (Stage, error) {
	trimmed := Stage(strings.ToLower(strings.TrimSpace(name)))
	if trimmed == "" || trimmed.index() >= 0 {
		return trimmed, nil
	}
	names := make([]string, len(Stages))
	for i, s := range Stages {
		names[i] = string(s)
	}
	return "", services.Wrap(services.ErrValidation, "", "parse stage",
		fmt.Sprintf("unknown stage %q (want one of %s)", name, strings.Join(names, ", ")), nil)
}

// runStage wraps fn with stage started/completed/failed logging.
func runStage(ctx context.Context, logger *slog.Logger, stage Stage, fn func(context.Context, *slog.Logger) error) error {
	stageCtx, stageLogger := logging.WithStage(ctx, logger, string(stage))
	started := time.Now()
	stageLogger.Info(
		fmt.Sprintf("%s stage started", stage.Label()),
		logging.String(logging.FieldEventType, "stage_start"),
	)
	if err := fn(stageCtx, stageLogger); err != nil {
		logging.ErrorWithContext(stageLogger, fmt.Sprintf("%s stage failed", stage.Label()), "stage_failure",
			logging.String("error_kind", services.Kind(err)),
			logging.String(logging.FieldErrorHint, "fix the cause and rerun; completed work is skipped"),
			logging.Error(err),
		)
		return err
	}
	stageLogger.Info(
		fmt.Sprintf("%s stage completed", stage.Label()),
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
	return nil
}
