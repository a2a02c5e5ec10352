package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"osmworld/internal/fileutil"
	"osmworld/internal/logging"
	"osmworld/internal/procpool"
	"osmworld/internal/services"
	"osmworld/internal/services/gdalmerge"
	"osmworld/internal/services/pigz"
)

// ListSuffix is appended to a pattern to name its input list file.
const ListSuffix = ".flist.txt"

// Options configures an Aggregator.
type Options struct {
	Patterns  []string
	OutputDir string
	Runner    procpool.Runner
	Merger    *gdalmerge.Client
	// Compressor is nil when merged outputs stay uncompressed.
	Compressor *pigz.Client
	Logger     *slog.Logger
}

// Aggregator merges tile products across regions.
type Aggregator struct {
	opts   Options
	logger *slog.Logger
}

// New validates opts and constructs an Aggregator.
func New(opts Options) (*Aggregator, error) {
	if opts.Runner == nil {
		return nil, errors.New("merge: job runner required")
	}
	if opts.Merger == nil {
		return nil, errors.New("merge: gdal_merge client required")
	}
	if opts.OutputDir == "" {
		return nil, errors.New("merge: output directory required")
	}
	return &Aggregator{opts: opts, logger: logging.NewComponentLogger(opts.Logger, "merge")}, nil
}

// OutputPath returns the merged raster location for pattern.
func (a *Aggregator) OutputPath(pattern string) string {
	return filepath.Join(a.opts.OutputDir, pattern)
}

// ListPath returns the input list location for pattern.
func (a *Aggregator) ListPath(pattern string) string {
	return filepath.Join(a.opts.OutputDir, pattern+ListSuffix)
}

type action int

const (
	actionSkip action = iota
	actionCompress
	actionMerge
)

// step is the pending work for one pattern.
type step struct {
	pattern string
	output  string
	action  action
	inputs  []string
}

func (a *Aggregator) decide(pattern string, regionDirs []string) (step, error) {
	s := step{pattern: pattern, output: a.OutputPath(pattern)}
	gz, err := fileutil.Exists(pigz.CompressedPath(s.output))
	if err != nil {
		return s, err
	}
	if gz {
		return s, nil
	}
	merged, err := fileutil.Exists(s.output)
	if err != nil {
		return s, err
	}
	if merged {
		if a.opts.Compressor != nil {
			s.action = actionCompress
		}
		return s, nil
	}
	for _, dir := range regionDirs {
		matches, err := fileutil.FindMatches(dir, pattern)
		if err != nil {
			return s, err
		}
		s.inputs = append(s.inputs, matches...)
	}
	if len(s.inputs) > 0 {
		s.action = actionMerge
	}
	return s, nil
}

// Run merges every configured pattern found under regionDirs.
func (a *Aggregator) Run(ctx context.Context, regionDirs []string) error {
	if err := os.MkdirAll(a.opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create merge output directory: %w", err)
	}
	for _, pattern := range a.opts.Patterns {
		if err := ctx.Err(); err != nil {
			return err
		}
		s, err := a.decide(pattern, regionDirs)
		if err != nil {
			return services.Wrap(services.ErrValidation, gdalmerge.Stage, "collect inputs", pattern, err)
		}
		logger := a.logger.With(logging.String("pattern", pattern))
		switch s.action {
		case actionSkip:
			if len(s.inputs) == 0 && !a.outputPresent(s.output) {
				logging.WarnWithContext(logger, "no tiles match pattern; skipping", "merge_no_matches",
					logging.String(logging.FieldImpact, "world raster not produced for this product"),
					logging.String(logging.FieldErrorHint, "check that the convert stage produced this product"),
				)
				continue
			}
			logger.Info("merged output exists; skipping",
				logging.String(logging.FieldEventType, "merge_skipped"),
				logging.String("output", s.output),
			)
			continue
		case actionMerge:
			if err := a.merge(ctx, logger, s); err != nil {
				return err
			}
		}
		if a.opts.Compressor != nil {
			if err := a.opts.Runner.Run(ctx, []procpool.Job{a.opts.Compressor.CompressJob(pattern, s.output)}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Aggregator) merge(ctx context.Context, logger *slog.Logger, s step) error {
	list := a.ListPath(s.pattern)
	if err := fileutil.WriteLines(list, s.inputs); err != nil {
		return fmt.Errorf("write merge list: %w", err)
	}
	logger.Info("merging tiles",
		logging.String(logging.FieldEventType, "merge_start"),
		logging.Int("inputs", len(s.inputs)),
		logging.String("output", s.output),
	)
	if err := a.opts.Runner.Run(ctx, []procpool.Job{a.opts.Merger.MergeJob(s.pattern, s.output, list)}); err != nil {
		logging.ErrorWithContext(logger, "merge failed; input list kept", "merge_failed",
			logging.String("list_file", list),
			logging.Error(err),
		)
		return err
	}
	if err := os.Remove(list); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(logger, "could not remove merge list", "merge_list_cleanup_failed",
			logging.String("list_file", list),
			logging.Error(err),
		)
	}
	return nil
}

func (a *Aggregator) outputPresent(output string) bool {
	ok, _ := fileutil.AnyExists(output, pigz.CompressedPath(output))
	return ok
}

// PlannedJob is pending merge work for one pattern.
type PlannedJob struct {
	Job    procpool.Job
	Inputs int
}

// Plan reports the jobs Run would launch without touching the filesystem.
func (a *Aggregator) Plan(regionDirs []string) ([]PlannedJob, error) {
	var planned []PlannedJob
	for _, pattern := range a.opts.Patterns {
		s, err := a.decide(pattern, regionDirs)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, gdalmerge.Stage, "collect inputs", pattern, err)
		}
		if s.action == actionMerge {
			planned = append(planned, PlannedJob{
				Job:    a.opts.Merger.MergeJob(pattern, s.output, a.ListPath(pattern)),
				Inputs: len(s.inputs),
			})
		}
		if s.action != actionSkip && a.opts.Compressor != nil {
			planned = append(planned, PlannedJob{Job: a.opts.Compressor.CompressJob(pattern, s.output)})
		}
	}
	return planned, nil
}
