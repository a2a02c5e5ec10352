package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"osmworld/internal/logging"
	"osmworld/internal/procpool"
)

// JobRecord is one launched (or failed-to-launch) external command.
type JobRecord struct {
	ID          int64
	RunID       string
	Name        string
	Stage       string
	Unit        string
	Command     string
	PID         int
	ExitCode    int
	LaunchError string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Succeeded reports whether the command launched and exited zero.
func (j JobRecord) Succeeded() bool {
	return j.LaunchError == "" && j.ExitCode == 0
}

// AddJob stores rec under runID.
func (s *Store) AddJob(ctx context.Context, runID string, rec procpool.Record) error {
	var launchErr string
	if rec.LaunchErr != nil {
		launchErr = rec.LaunchErr.Error()
	}
	var pid any
	if rec.PID > 0 {
		pid = rec.PID
	}
	err := s.exec(ctx,
		`INSERT INTO jobs (run_id, name, stage, unit, command, pid, exit_code, launch_error, started_at, finished_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		rec.Job.Name,
		nullableString(rec.Job.Stage),
		nullableString(rec.Job.Unit),
		rec.Job.CommandLine(),
		pid,
		rec.ExitCode,
		nullableString(launchErr),
		formatTime(rec.StartedAt),
		formatTime(rec.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// ListJobs returns the jobs of runID in launch order.
func (s *Store) ListJobs(ctx context.Context, runID string) ([]JobRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT id, run_id, name, stage, unit, command, pid, exit_code, launch_error, started_at, finished_at
         FROM jobs WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []JobRecord
	for rows.Next() {
		var (
			job                    JobRecord
			stage, unit, launchErr sql.NullString
			pid                    sql.NullInt64
			startedRaw, finishRaw  string
		)
		if err := rows.Scan(&job.ID, &job.RunID, &job.Name, &stage, &unit, &job.Command, &pid,
			&job.ExitCode, &launchErr, &startedRaw, &finishRaw); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		job.Stage = stage.String
		job.Unit = unit.String
		job.PID = int(pid.Int64)
		job.LaunchError = launchErr.String
		job.StartedAt = parseTime(startedRaw)
		job.FinishedAt = parseTime(finishRaw)
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Recorder adapts the store to procpool.Recorder for one run. Write failures
// are logged and never interrupt the pipeline.
func (s *Store) Recorder(runID string, logger *slog.Logger) procpool.Recorder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &recorder{store: s, runID: runID, logger: logger}
}

type recorder struct {
	store  *Store
	runID  string
	logger *slog.Logger
}

func (r *recorder) Record(ctx context.Context, rec procpool.Record) {
	// The job already finished; a cancelled run ctx must not drop its row.
	if err := r.store.AddJob(context.WithoutCancel(ensureContext(ctx)), r.runID, rec); err != nil {
		logging.WarnWithContext(r.logger, "run history write failed", "ledger_write_failed",
			logging.String("job", rec.Job.Name),
			logging.String(logging.FieldImpact, "history incomplete; pipeline unaffected"),
			logging.Error(err),
		)
	}
}
