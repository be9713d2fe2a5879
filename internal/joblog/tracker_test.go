package joblog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTracker(t *testing.T) (*Tracker, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "mysql"), slog.NewTextHandler(io.Discard, nil)), mock
}

var runColumns = []string{"id", "job_type", "status", "target_host", "source_map", "report_file", "started_at", "ended_at", "error"}

func TestEnsureSchema(t *testing.T) {
	tracker, mock := newTracker(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS dr_runs")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS dr_run_steps")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, tracker.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartRun(t *testing.T) {
	tracker, mock := newTracker(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO dr_runs")).
		WithArgs(sqlmock.AnyArg(), JobFailover, "running", "secondary", "primary", "report-1.log", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx, runID, err := tracker.StartRun(context.Background(), RunStart{
		JobType:    JobFailover,
		TargetHost: "secondary",
		SourceMap:  "primary",
		ReportFile: "report-1.log",
	})
	require.NoError(t, err)
	assert.Len(t, runID, 36)
	fromCtx, ok := RunIDFromCtx(ctx)
	assert.True(t, ok)
	assert.Equal(t, runID, fromCtx)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartRunRejectsEmptyJobType(t *testing.T) {
	tracker, mock := newTracker(t)
	_, _, err := tracker.StartRun(context.Background(), RunStart{})
	assert.ErrorIs(t, err, ErrInvalidJobType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEndRunNotFound(t *testing.T) {
	tracker, mock := newTracker(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE dr_runs SET status = ?, ended_at = ?, error = ? WHERE id = ?")).
		WithArgs("completed", sqlmock.AnyArg(), nil, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := tracker.EndRun(context.Background(), "missing", StatusCompleted, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectStep(mock sqlmock.Sqlmock, runID string, seq int, name string, stepID int64) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(seq), 0) + 1 FROM dr_run_steps WHERE run_id = ?")).
		WithArgs(runID).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(seq))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO dr_run_steps")).
		WithArgs(runID, seq, name, "running", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(stepID, 1))
}

func TestRunStepCompleted(t *testing.T) {
	tracker, mock := newTracker(t)
	expectStep(mock, "run-1", 2, "fail_back", 42)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE dr_run_steps SET status = ?, ended_at = ?, error = ? WHERE id = ?")).
		WithArgs("completed", sqlmock.AnyArg(), nil, 42).
		WillReturnResult(sqlmock.NewResult(0, 1))

	var seen int64
	err := tracker.RunStep(context.Background(), "run-1", "fail_back", func(ctx context.Context) error {
		seen, _ = StepIDFromCtx(ctx)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), seen)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunStepFailed(t *testing.T) {
	tracker, mock := newTracker(t)
	expectStep(mock, "run-1", 1, "clean_engine", 7)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE dr_run_steps")).
		WithArgs("failed", sqlmock.AnyArg(), "boom", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	boom := errors.New("boom")
	err := tracker.RunStep(context.Background(), "run-1", "clean_engine", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunStepRecoversPanic(t *testing.T) {
	tracker, mock := newTracker(t)
	expectStep(mock, "run-1", 1, "fail_over", 9)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE dr_run_steps")).
		WithArgs("failed", sqlmock.AnyArg(), "panic in step fail_over: kaboom", 9).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := tracker.RunStep(context.Background(), "run-1", "fail_over", func(context.Context) error { panic("kaboom") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in step fail_over")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunStepRunsUnrecordedWhenHistoryFails(t *testing.T) {
	tracker, mock := newTracker(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(seq), 0) + 1")).
		WithArgs("run-1").
		WillReturnError(errors.New("connection refused"))

	ran := false
	err := tracker.RunStep(context.Background(), "run-1", "fail_over", func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRuns(t *testing.T) {
	tracker, mock := newTracker(t)
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ended := started.Add(time.Minute)
	mock.ExpectQuery(regexp.QuoteMeta("FROM dr_runs ORDER BY started_at DESC LIMIT ?")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(runColumns).
			AddRow("b", JobFailback, "failed", "primary", "secondary", "report-2.log", started, ended, "exit status 1").
			AddRow("a", JobFailover, "completed", "secondary", "primary", "report-1.log", started, nil, nil))

	runs, err := tracker.ListRuns(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, StatusFailed, runs[0].Status)
	require.NotNil(t, runs[0].Error)
	assert.Equal(t, "exit status 1", *runs[0].Error)
	assert.Equal(t, ended, *runs[0].EndedAt)
	assert.Nil(t, runs[1].EndedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRun(t *testing.T) {
	tracker, mock := newTracker(t)
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM dr_runs WHERE id = ?")).
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows(runColumns).
			AddRow("run-1", JobFailback, "failed", "primary", "secondary", "report-2.log", started, started, "fail_back failed"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM dr_run_steps WHERE run_id = ? ORDER BY seq ASC")).
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "run_id", "seq", "name", "status", "started_at", "ended_at", "error"}).
			AddRow(1, "run-1", 1, "clean_engine", "completed", started, started, nil).
			AddRow(2, "run-1", 2, "fail_back", "failed", started, started, "exit status 1"))

	summary, err := tracker.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", summary.Run.ID)
	require.Len(t, summary.Steps, 2)
	assert.Equal(t, StatusCompleted, summary.Steps[0].Status)
	assert.Equal(t, "fail_back", summary.Steps[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRunNotFound(t *testing.T) {
	tracker, mock := newTracker(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM dr_runs WHERE id = ?")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(runColumns))

	_, err := tracker.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusIsTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.False(t, StatusRunning.IsTerminal())
	assert.False(t, StatusSkipped.IsTerminal())
}

func TestOpenRejectsBadDSN(t *testing.T) {
	_, err := Open("not a dsn")
	assert.Error(t, err)
}
