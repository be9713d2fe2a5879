// Package joblog records cutover runs and their phases in MySQL.
package joblog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS dr_runs (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		job_type VARCHAR(32) NOT NULL,
		status VARCHAR(32) NOT NULL,
		target_host VARCHAR(32) NOT NULL,
		source_map VARCHAR(32) NOT NULL,
		report_file VARCHAR(512) NOT NULL,
		started_at DATETIME(3) NOT NULL,
		ended_at DATETIME(3) NULL,
		error TEXT NULL,
		INDEX idx_dr_runs_started_at (started_at)
	)`,
	`CREATE TABLE IF NOT EXISTS dr_run_steps (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		run_id VARCHAR(36) NOT NULL,
		seq INT NOT NULL,
		name VARCHAR(64) NOT NULL,
		status VARCHAR(32) NOT NULL,
		started_at DATETIME(3) NOT NULL,
		ended_at DATETIME(3) NULL,
		error TEXT NULL,
		UNIQUE KEY uq_dr_run_steps_seq (run_id, seq),
		CONSTRAINT fk_dr_run_steps_run FOREIGN KEY (run_id) REFERENCES dr_runs (id) ON DELETE CASCADE
	)`,
}

// Open connects to the MySQL database named by dsn. Time parsing is always
// enabled since the tracker scans DATETIME columns into time.Time.
func Open(dsn string) (*sqlx.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid history DSN: %w", err)
	}
	cfg.ParseTime = true
	db, err := sqlx.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return db, nil
}

// Tracker provides run and step lifecycle management with integrated logging.
type Tracker struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// New creates a tracker over db. Without handlers records are logged
// through logrus.
func New(db *sqlx.DB, handlers ...slog.Handler) *Tracker {
	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = NewLogrusHandler(nil)
	case 1:
		handler = handlers[0]
	default:
		handler = NewFanoutHandler(handlers...)
	}
	return &Tracker{db: db, logger: slog.New(handler)}
}

// EnsureSchema creates the history tables when missing.
func (t *Tracker) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := t.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create history schema: %w", err)
		}
	}
	return nil
}

// StartRun records a new run and returns a context carrying its id.
func (t *Tracker) StartRun(ctx context.Context, input RunStart) (context.Context, string, error) {
	if err := input.Validate(); err != nil {
		return ctx, "", fmt.Errorf("invalid run start input: %w", err)
	}

	runID := uuid.New().String()
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO dr_runs (id, job_type, status, target_host, source_map, report_file, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, input.JobType, StatusRunning, input.TargetHost, input.SourceMap, input.ReportFile, time.Now(),
	)
	if err != nil {
		return ctx, "", fmt.Errorf("failed to create run record: %w", err)
	}

	ctx = WithRunID(ctx, runID)
	t.logger.InfoContext(ctx, "Run started",
		slog.String("job_type", input.JobType),
		slog.String("target_host", input.TargetHost),
		slog.String("source_map", input.SourceMap),
	)
	return ctx, runID, nil
}

// EndRun completes a run with status and optional error.
func (t *Tracker) EndRun(ctx context.Context, runID string, status Status, runErr error) error {
	result, err := t.db.ExecContext(ctx,
		`UPDATE dr_runs SET status = ?, ended_at = ?, error = ? WHERE id = ?`,
		status, time.Now(), errorText(runErr), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}

	level, message := slog.LevelInfo, "Run completed"
	if status == StatusFailed {
		level, message = slog.LevelError, "Run failed"
	}
	t.logger.Log(WithRunID(ctx, runID), level, message,
		slog.String("status", string(status)),
		slog.Any("error", errorText(runErr)),
	)
	return nil
}

// StartStep records a new step of runID with the next sequence number.
func (t *Tracker) StartStep(ctx context.Context, runID, name string) (context.Context, int64, error) {
	if name == "" {
		return ctx, 0, ErrInvalidStepName
	}

	var seq int
	if err := t.db.GetContext(ctx, &seq,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM dr_run_steps WHERE run_id = ?`, runID); err != nil {
		return ctx, 0, fmt.Errorf("failed to get next step sequence: %w", err)
	}

	result, err := t.db.ExecContext(ctx, `
		INSERT INTO dr_run_steps (run_id, seq, name, status, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		runID, seq, name, StatusRunning, time.Now(),
	)
	if err != nil {
		return ctx, 0, fmt.Errorf("failed to create step record: %w", err)
	}
	stepID, err := result.LastInsertId()
	if err != nil {
		return ctx, 0, fmt.Errorf("failed to get step ID: %w", err)
	}

	ctx = WithStepID(WithRunID(ctx, runID), stepID)
	t.logger.InfoContext(ctx, "Step started", slog.String("step_name", name), slog.Int("sequence", seq))
	return ctx, stepID, nil
}

// EndStep completes a step with status and optional error.
func (t *Tracker) EndStep(ctx context.Context, stepID int64, status Status, stepErr error) error {
	result, err := t.db.ExecContext(ctx,
		`UPDATE dr_run_steps SET status = ?, ended_at = ?, error = ? WHERE id = ?`,
		status, time.Now(), errorText(stepErr), stepID,
	)
	if err != nil {
		return fmt.Errorf("failed to update step status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("step not found: %d", stepID)
	}

	level, message := slog.LevelInfo, "Step completed"
	switch status {
	case StatusFailed:
		level, message = slog.LevelError, "Step failed"
	case StatusSkipped:
		level, message = slog.LevelWarn, "Step skipped"
	}
	t.logger.Log(WithStepID(ctx, stepID), level, message,
		slog.String("status", string(status)),
		slog.Any("error", errorText(stepErr)),
	)
	return nil
}

// RunStep wraps fn in a step, recording its outcome. A panic in fn is
// recorded as a failure and returned as an error. History is best effort:
// fn still runs when the step cannot be recorded.
func (t *Tracker) RunStep(ctx context.Context, runID, name string, fn func(ctx context.Context) error) (stepErr error) {
	stepCtx, stepID, err := t.StartStep(ctx, runID, name)
	if err != nil {
		t.logger.ErrorContext(ctx, "Failed to start step, running it unrecorded",
			slog.String("step_name", name),
			slog.String("error", err.Error()),
		)
		return fn(ctx)
	}

	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case error:
				stepErr = fmt.Errorf("panic in step %s: %w", name, v)
			default:
				stepErr = fmt.Errorf("panic in step %s: %v", name, v)
			}
			t.logger.ErrorContext(stepCtx, "Panic recovered in step",
				slog.String("step_name", name),
				slog.String("panic", fmt.Sprintf("%v", r)),
			)
		}

		status := StatusCompleted
		if stepErr != nil {
			status = StatusFailed
		}
		if endErr := t.EndStep(stepCtx, stepID, status, stepErr); endErr != nil {
			t.logger.ErrorContext(stepCtx, "Failed to end step",
				slog.String("step_name", name),
				slog.String("error", endErr.Error()),
			)
		}
	}()

	return fn(stepCtx)
}

// ListRuns returns the most recent runs, newest first.
func (t *Tracker) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	runs := []Run{}
	err := t.db.SelectContext(ctx, &runs, `
		SELECT id, job_type, status, target_host, source_map, report_file, started_at, ended_at, error
		FROM dr_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRun returns a run and its steps.
func (t *Tracker) GetRun(ctx context.Context, runID string) (*RunSummary, error) {
	var summary RunSummary
	err := t.db.GetContext(ctx, &summary.Run, `
		SELECT id, job_type, status, target_host, source_map, report_file, started_at, ended_at, error
		FROM dr_runs WHERE id = ?`, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	summary.Steps = []Step{}
	err = t.db.SelectContext(ctx, &summary.Steps, `
		SELECT id, run_id, seq, name, status, started_at, ended_at, error
		FROM dr_run_steps WHERE run_id = ? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get steps of run %s: %w", runID, err)
	}
	return &summary, nil
}

// Close closes the database.
func (t *Tracker) Close() error {
	return t.db.Close()
}

func errorText(err error) *string {
	if err == nil {
		return nil
	}
	s := err.Error()
	return &s
}
