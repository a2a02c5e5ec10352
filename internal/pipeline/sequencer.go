package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"osmworld/internal/config"
	"osmworld/internal/fileutil"
	"osmworld/internal/logging"
	"osmworld/internal/merge"
	"osmworld/internal/procpool"
	"osmworld/internal/services"
	"osmworld/internal/services/gdalmerge"
	"osmworld/internal/services/osm2hydro"
	"osmworld/internal/services/osmconvert"
	"osmworld/internal/services/pigz"
	"osmworld/internal/services/splitter"
	"osmworld/internal/tilegrid"
)

// Options configures a Sequencer. A nil Runner builds a process pool from
// the pipeline configuration.
type Options struct {
	Runner   procpool.Runner
	Recorder procpool.Recorder
	Logger   *slog.Logger
}

// Sequencer drives the stages over every region.
type Sequencer struct {
	cfg         *config.Config
	layout      Layout
	runner      procpool.Runner
	extractor   *osmconvert.Client
	partitioner *splitter.Client
	converter   *osm2hydro.Client
	merger      *merge.Aggregator
	logger      *slog.Logger
}

// New builds a sequencer and the tool clients it needs from cfg.
func New(cfg *config.Config, opts Options) (*Sequencer, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "configuration required", nil)
	}
	logger := logging.NewComponentLogger(opts.Logger, "pipeline")
	env := cfg.JobEnv()

	runner := opts.Runner
	if runner == nil {
		runner = procpool.New(procpool.Options{
			MaxConcurrency: cfg.Pipeline.MaxCPU,
			FillInterval:   cfg.FillInterval(),
			DrainInterval:  cfg.DrainInterval(),
			Recorder:       opts.Recorder,
			Logger:         opts.Logger,
		})
	}

	extractor, err := osmconvert.New(cfg.Tools.OSMConvert, cfg.Pipeline.HashMemory, env)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, string(StageExtract), "init", "tools.osmconvert", err)
	}
	partitioner, err := splitter.New(splitter.Options{
		Java:    cfg.Tools.Java,
		Heap:    cfg.Tools.JavaHeap,
		Jar:     cfg.Tools.SplitterJar,
		Overlap: cfg.Pipeline.Overlap,
		Env:     env,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, string(StagePartition), "init", "tools.splitter", err)
	}
	converter, err := osm2hydro.New(osm2hydro.Options{
		Argv:       cfg.Tools.OSM2Hydro,
		ConfigFile: cfg.Tools.OSM2HydroConfig,
		PassExtent: cfg.Pipeline.PassExtent,
		Cleanup:    cfg.Tools.Cleanup,
		Env:        env,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, string(StageConvert), "init", "tools.osm2hydro", err)
	}

	s := &Sequencer{
		cfg:         cfg,
		layout:      NewLayout(cfg),
		runner:      runner,
		extractor:   extractor,
		partitioner: partitioner,
		converter:   converter,
		logger:      logger,
	}
	if cfg.Pipeline.MergeTiles {
		if s.merger, err = newAggregator(cfg, runner, opts.Logger, env); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, string(StageMerge), "init", "merge", err)
		}
	}
	return s, nil
}

func newAggregator(cfg *config.Config, runner procpool.Runner, logger *slog.Logger, env []string) (*merge.Aggregator, error) {
	merger, err := gdalmerge.New(gdalmerge.Options{
		Argv:            cfg.Tools.GDALMerge,
		NoData:          cfg.Merge.NoData,
		CreationOptions: cfg.Merge.CreationOptions,
		Env:             env,
	})
	if err != nil {
		return nil, err
	}
	var compressor *pigz.Client
	if cfg.Merge.Compress {
		if compressor, err = pigz.New(cfg.Tools.Pigz, cfg.Tools.PigzThreads, env); err != nil {
			return nil, err
		}
	}
	return merge.New(merge.Options{
		Patterns:   cfg.Merge.Patterns,
		OutputDir:  cfg.Paths.FinalOutputDir,
		Runner:     runner,
		Merger:     merger,
		Compressor: compressor,
		Logger:     logger,
	})
}

// Layout returns the on-disk layout the sequencer works on.
func (s *Sequencer) Layout() Layout {
	return s.layout
}

// Run executes every stage in order, stopping after stopAfter when it is set.
func (s *Sequencer) Run(ctx context.Context, stopAfter Stage) error {
	if stopAfter != "" && stopAfter.index() < 0 {
		_, err := ParseStage(string(stopAfter))
		return err
	}
	for _, stage := range Stages {
		if err := s.RunStage(ctx, stage); err != nil {
			return err
		}
		if stage == stopAfter {
			s.logger.Info("stopping after requested stage",
				logging.String(logging.FieldEventType, "pipeline_stop_after"),
				logging.String(logging.FieldStage, string(stage)),
			)
			break
		}
	}
	return nil
}

// RunStage executes a single stage.
func (s *Sequencer) RunStage(ctx context.Context, stage Stage) error {
	switch stage {
	case StageExtract:
		if !s.cfg.Pipeline.Extract {
			s.skipStage(stage, "pipeline.extract is false")
			return nil
		}
		return runStage(ctx, s.logger, stage, s.extract)
	case StagePartition:
		return runStage(ctx, s.logger, stage, s.partition)
	case StageConvert:
		return runStage(ctx, s.logger, stage, s.convert)
	case StageMerge:
		if s.merger == nil {
			s.skipStage(stage, "pipeline.merge_tiles is false")
			return nil
		}
		return runStage(ctx, s.logger, stage, func(ctx context.Context, _ *slog.Logger) error {
			return s.merger.Run(ctx, s.layout.RegionDirs())
		})
	default:
		_, err := ParseStage(string(stage))
		return err
	}
}

func (s *Sequencer) skipStage(stage Stage, reason string) {
	s.logger.Info(fmt.Sprintf("%s stage disabled", stage.Label()),
		logging.String(logging.FieldEventType, "stage_skipped"),
		logging.String(logging.FieldStage, string(stage)),
		logging.String("reason", reason),
	)
}

// extractJobs returns one osmconvert job per region without a cut-out.
func (s *Sequencer) extractJobs() ([]procpool.Job, error) {
	var jobs []procpool.Job
	for _, r := range s.layout.Regions() {
		exists, err := fileutil.Exists(r.CutOut)
		if err != nil {
			return nil, fmt.Errorf("check cut-out %s: %w", r.CutOut, err)
		}
		if exists {
			continue
		}
		jobs = append(jobs, s.extractor.ExtractJob(s.cfg.Paths.OSMFile, r.CutOut, r.Boundary))
	}
	return jobs, nil
}

func (s *Sequencer) extract(ctx context.Context, logger *slog.Logger) error {
	jobs, err := s.extractJobs()
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		logger.Info("all region cut-outs present", logging.String(logging.FieldEventType, "extract_skipped"))
		return nil
	}
	if err := os.MkdirAll(s.layout.CutDir, 0o755); err != nil {
		return fmt.Errorf("create cut-out directory: %w", err)
	}
	return s.runner.Run(ctx, jobs)
}

// partitionJob decides whether r needs the splitter. mapID is the first tile
// identifier the region may use.
func (s *Sequencer) partitionJob(r Region, mapID int) (procpool.Job, bool, error) {
	hasIndex, err := fileutil.Exists(r.Index)
	if err != nil {
		return procpool.Job{}, false, fmt.Errorf("check index %s: %w", r.Index, err)
	}
	req := splitter.Request{
		Region:    r.Name,
		Source:    r.CutOut,
		OutputDir: r.Dir,
		Boundary:  r.Boundary,
		MapID:     mapID,
	}
	if !hasIndex {
		return s.partitioner.PartitionJob(req, ""), true, nil
	}

	tiles, err := readIndex(StagePartition, r)
	if err != nil {
		return procpool.Job{}, false, err
	}
	if len(tiles) == 0 {
		return procpool.Job{}, false, nil
	}
	first := r.TileSource(tiles[0])
	hasFirst, err := fileutil.Exists(first)
	if err != nil {
		return procpool.Job{}, false, fmt.Errorf("check tile %s: %w", first, err)
	}
	if hasFirst {
		return procpool.Job{}, false, nil
	}
	req.SplitFile = r.Index
	return s.partitioner.PartitionJob(req, first), true, nil
}

func (s *Sequencer) partition(ctx context.Context, logger *slog.Logger) error {
	next := 1
	for _, r := range s.layout.Regions() {
		if err := ctx.Err(); err != nil {
			return err
		}
		regionCtx := services.WithRegion(ctx, r.Name)
		regionLogger := logger.With(logging.String(logging.FieldRegion, r.Name))

		job, needed, err := s.partitionJob(r, next)
		if err != nil {
			return err
		}
		if needed {
			if err := os.MkdirAll(r.Dir, 0o755); err != nil {
				return fmt.Errorf("create partition directory: %w", err)
			}
			regionLogger.Info("partitioning region",
				logging.String(logging.FieldEventType, "partition_start"),
				logging.Int("map_id", next),
				logging.Bool("replay", job.Key != r.Index),
			)
			if err := s.runner.Run(regionCtx, []procpool.Job{job}); err != nil {
				return fmt.Errorf("region %s: %w", r.Name, err)
			}
		} else {
			regionLogger.Info("region already partitioned", logging.String(logging.FieldEventType, "partition_skipped"))
		}

		tiles, err := readIndex(StagePartition, r)
		if err != nil {
			return err
		}
		if len(tiles) == 0 {
			logging.WarnWithContext(regionLogger, "tile index lists no tiles", "partition_empty_index",
				logging.String("index", r.Index),
				logging.String(logging.FieldImpact, "region contributes no tiles"),
			)
			continue
		}
		next = tilegrid.NextID(tiles)
		regionLogger.Info("region tiles indexed",
			logging.String(logging.FieldEventType, "partition_indexed"),
			logging.Int("tiles", len(tiles)),
			logging.Int("next_map_id", next),
		)
	}
	return nil
}

// convertJobs returns one osm2hydro job per tile of r without a marker.
func (s *Sequencer) convertJobs(r Region, tiles []tilegrid.Tile) ([]procpool.Job, []tilegrid.Tile, error) {
	var (
		jobs    []procpool.Job
		pending []tilegrid.Tile
	)
	for _, tile := range tiles {
		done, err := fileutil.Exists(r.TileMarker(tile))
		if err != nil {
			return nil, nil, fmt.Errorf("check marker for tile %s: %w", tile.Name, err)
		}
		if done {
			continue
		}
		jobs = append(jobs, s.converter.ConvertJob(r.Name, tile, r.TileSource(tile), r.TileDir(tile)))
		pending = append(pending, tile)
	}
	return jobs, pending, nil
}

func (s *Sequencer) cleanupJobs(r Region, tiles []tilegrid.Tile) ([]procpool.Job, error) {
	jobs := make([]procpool.Job, 0, len(tiles))
	for _, tile := range tiles {
		job, err := s.converter.CleanupJob(r.Name, tile.Name, r.TileDir(tile))
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, string(StageConvert), "cleanup", "tools.cleanup", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (s *Sequencer) convert(ctx context.Context, logger *slog.Logger) error {
	for _, r := range s.layout.Regions() {
		if err := ctx.Err(); err != nil {
			return err
		}
		regionCtx := services.WithRegion(ctx, r.Name)
		regionLogger := logger.With(logging.String(logging.FieldRegion, r.Name))

		tiles, err := readIndex(StageConvert, r)
		if err != nil {
			return err
		}
		jobs, pending, err := s.convertJobs(r, tiles)
		if err != nil {
			return err
		}
		regionLogger.Info("converting tiles",
			logging.String(logging.FieldEventType, "convert_region"),
			logging.Int("tiles", len(tiles)),
			logging.Int("pending", len(jobs)),
		)
		if len(jobs) == 0 {
			continue
		}
		if err := s.runner.Run(regionCtx, jobs); err != nil {
			return fmt.Errorf("region %s: %w", r.Name, err)
		}
		if !s.cfg.Pipeline.DeleteShapes {
			continue
		}
		cleanup, err := s.cleanupJobs(r, pending)
		if err != nil {
			return err
		}
		if err := s.runner.Run(regionCtx, cleanup); err != nil {
			return fmt.Errorf("region %s cleanup: %w", r.Name, err)
		}
	}
	return nil
}

func readIndex(stage Stage, r Region) ([]tilegrid.Tile, error) {
	tiles, err := tilegrid.ReadFile(r.Index)
	if err != nil {
		message := r.Index
		if errors.Is(err, os.ErrNotExist) {
			message = fmt.Sprintf("%s missing; partition region %s first", r.Index, r.Name)
		}
		return nil, services.Wrap(services.ErrIndexUnreadable, string(stage), "read index", message, err)
	}
	return tiles, nil
}
