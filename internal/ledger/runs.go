package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"osmworld/internal/services"
)

// Run status values.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one invocation of the pipeline.
type Run struct {
	ID           string
	ConfigPath   string
	Regions      int
	Status       string
	ErrorKind    string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration returns the elapsed wall time, or zero while running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// BeginRun records a new running entry under id.
func (s *Store) BeginRun(ctx context.Context, id, configPath string, regions int) (Run, error) {
	if id == "" {
		id = NewRunID()
	}
	run := Run{
		ID:         id,
		ConfigPath: configPath,
		Regions:    regions,
		Status:     StatusRunning,
		StartedAt:  time.Now().UTC(),
	}
	err := s.exec(ctx,
		`INSERT INTO runs (id, config_path, regions, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, nullableString(run.ConfigPath), run.Regions, run.Status, formatTime(run.StartedAt),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun marks a run succeeded, or failed with the classified runErr.
func (s *Store) FinishRun(ctx context.Context, id string, runErr error) error {
	status := StatusSucceeded
	var kind, message string
	if runErr != nil {
		status = StatusFailed
		kind = services.Kind(runErr)
		message = runErr.Error()
	}
	err := s.exec(ctx,
		`UPDATE runs SET status = ?, error_kind = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		status, nullableString(kind), nullableString(message), formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

const runColumns = "id, config_path, regions, status, error_kind, error_message, started_at, finished_at"

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run                       Run
		configPath, kind, message sql.NullString
		startedRaw                string
		finishedRaw               sql.NullString
	)
	if err := scanner.Scan(&run.ID, &configPath, &run.Regions, &run.Status, &kind, &message, &startedRaw, &finishedRaw); err != nil {
		return Run{}, err
	}
	run.ConfigPath = configPath.String
	run.ErrorKind = kind.String
	run.ErrorMessage = message.String
	run.StartedAt = parseTime(startedRaw)
	run.FinishedAt = parseTime(finishedRaw.String)
	return run, nil
}

// GetRun fetches a run by ID. It returns nil when no such run exists.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns
// every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
