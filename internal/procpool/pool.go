package procpool

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"osmworld/internal/logging"
	"osmworld/internal/services"
)

const (
	// DefaultMaxConcurrency matches the pipeline's max_cpu default.
	DefaultMaxConcurrency = 3
	// DefaultFillInterval is the poll interval while all slots are busy.
	DefaultFillInterval = 200 * time.Millisecond
	// DefaultDrainInterval is the poll interval once every job is launched.
	DefaultDrainInterval = 500 * time.Millisecond
)

// Runner executes a batch of jobs as a unit.
type Runner interface {
	Run(ctx context.Context, jobs []Job) error
}

// Record describes one finished job. LaunchErr is set when the process never
// started; ExitCode is -1 in that case.
type Record struct {
	Job        Job
	PID        int
	ExitCode   int
	LaunchErr  error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Recorder receives a Record for every job the pool attempted.
type Recorder interface {
	Record(ctx context.Context, rec Record)
}

// Options configures a Pool.
type Options struct {
	MaxConcurrency int
	FillInterval   time.Duration
	DrainInterval  time.Duration
	Launcher       Launcher
	Recorder       Recorder
	Logger         *slog.Logger
}

// Pool runs job batches with bounded concurrency.
type Pool struct {
	max      int
	fill     time.Duration
	drain    time.Duration
	launcher Launcher
	recorder Recorder
	logger   *slog.Logger
}

// New constructs a pool, applying defaults for unset options.
func New(opts Options) *Pool {
	p := &Pool{
		max:      opts.MaxConcurrency,
		fill:     opts.FillInterval,
		drain:    opts.DrainInterval,
		launcher: opts.Launcher,
		recorder: opts.Recorder,
		logger:   opts.Logger,
	}
	if p.max <= 0 {
		p.max = DefaultMaxConcurrency
	}
	if p.fill <= 0 {
		p.fill = DefaultFillInterval
	}
	if p.drain <= 0 {
		p.drain = DefaultDrainInterval
	}
	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	if p.launcher == nil {
		p.launcher = ExecLauncher{Logger: p.logger}
	}
	return p
}

// MaxConcurrency reports the slot limit.
func (p *Pool) MaxConcurrency() int {
	return p.max
}

type slot struct {
	job     Job
	proc    Process
	started time.Time
}

// batch holds the running set for a single Run call.
type batch struct {
	pool    *Pool
	ctx     context.Context
	logger  *slog.Logger
	running []*slot
	failure error
}

// Run executes jobs in submission order with at most MaxConcurrency running at
// once. It returns a *CommandError for the first job that exits non-zero.
// Jobs already running when a failure is observed are drained, never killed.
func (p *Pool) Run(ctx context.Context, jobs []Job) error {
	if len(jobs) == 0 {
		return nil
	}
	for _, job := range jobs {
		if err := job.Validate(); err != nil {
			return err
		}
	}

	b := &batch{pool: p, ctx: ctx, logger: logging.WithContext(ctx, p.logger)}
	b.logger.Info("job batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("jobs", len(jobs)),
		logging.Int("max_concurrency", p.max),
	)

	launched := 0
	var stopErr error
	for _, job := range jobs {
		if b.failure != nil {
			break
		}
		if err := ctx.Err(); err != nil {
			stopErr = err
			break
		}
		if err := b.launch(job); err != nil {
			b.failure = err
			break
		}
		launched++
		for len(b.running) >= p.max && b.failure == nil {
			time.Sleep(p.fill)
			b.reap()
		}
	}

	for len(b.running) > 0 {
		time.Sleep(p.drain)
		b.reap()
	}

	if skipped := len(jobs) - launched; skipped > 0 && (b.failure != nil || stopErr != nil) {
		b.logger.Warn("job batch aborted; remaining jobs not started",
			logging.String(logging.FieldEventType, "batch_aborted"),
			logging.Int("not_started", skipped),
			logging.String(logging.FieldErrorHint, "fix the failing command and rerun; completed outputs are skipped"),
			logging.String(logging.FieldImpact, "stage incomplete"),
		)
	}

	switch {
	case b.failure != nil:
		return b.failure
	case stopErr != nil:
		return fmt.Errorf("job batch interrupted after %d of %d launches: %w", launched, len(jobs), stopErr)
	}
	b.logger.Info(fmt.Sprintf("all processes (%d) completed", len(jobs)),
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("jobs", len(jobs)),
	)
	return nil
}

func (b *batch) launch(job Job) error {
	started := time.Now()
	b.logger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("job", job.label()),
		logging.String("command", job.CommandLine()),
	)
	proc, err := b.pool.launcher.Launch(services.WithTile(b.ctx, job.Tile), job)
	if err != nil {
		b.record(Record{Job: job, ExitCode: -1, LaunchErr: err, StartedAt: started, FinishedAt: time.Now()})
		logging.ErrorWithContext(b.logger, "job launch failed", "job_launch_failed",
			logging.String("job", job.label()),
			logging.String("command", job.CommandLine()),
			logging.String(logging.FieldErrorHint, "verify the tool path in the [tools] configuration section"),
			logging.Error(err),
		)
		return services.Wrap(services.ErrExternalTool, job.Stage, "launch "+job.label(), job.CommandLine(), err)
	}
	b.running = append(b.running, &slot{job: job, proc: proc, started: started})
	return nil
}

// reap removes finished processes from the running set, reading each exit
// code exactly once.
func (b *batch) reap() {
	still := b.running[:0]
	for _, s := range b.running {
		select {
		case <-s.proc.Done():
		default:
			still = append(still, s)
			continue
		}
		code := s.proc.ExitCode()
		finished := time.Now()
		b.record(Record{Job: s.job, PID: s.proc.PID(), ExitCode: code, StartedAt: s.started, FinishedAt: finished})
		if code == 0 {
			b.logger.Info("job completed",
				logging.String(logging.FieldEventType, "job_complete"),
				logging.String("job", s.job.label()),
				logging.Duration("elapsed", finished.Sub(s.started).Round(time.Millisecond)),
			)
			continue
		}
		logging.ErrorWithContext(b.logger, "job failed", "job_failed",
			logging.String("job", s.job.label()),
			logging.String("command", s.job.CommandLine()),
			logging.Int("exit_code", code),
		)
		if b.failure == nil {
			b.failure = &CommandError{Job: s.job, ExitCode: code}
		}
	}
	for i := len(still); i < len(b.running); i++ {
		b.running[i] = nil
	}
	b.running = still
}

func (b *batch) record(rec Record) {
	if b.pool.recorder != nil {
		b.pool.recorder.Record(b.ctx, rec)
	}
}
