package joblog

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a run or step.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// IsTerminal reports whether no further transition is expected.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job types recorded by the orchestrator.
const (
	JobFailover = "failover"
	JobFailback = "failback"
)

var (
	ErrInvalidJobType  = errors.New("job type cannot be empty")
	ErrInvalidStepName = errors.New("step name cannot be empty")
	ErrNotFound        = errors.New("run not found")
)

// RunStart is the input to StartRun.
type RunStart struct {
	JobType    string
	TargetHost string
	SourceMap  string
	ReportFile string
}

func (r RunStart) Validate() error {
	if r.JobType == "" {
		return ErrInvalidJobType
	}
	return nil
}

// Run is a row of dr_runs.
type Run struct {
	ID         string     `db:"id" json:"id"`
	JobType    string     `db:"job_type" json:"job_type"`
	Status     Status     `db:"status" json:"status"`
	TargetHost string     `db:"target_host" json:"target_host"`
	SourceMap  string     `db:"source_map" json:"source_map"`
	ReportFile string     `db:"report_file" json:"report_file"`
	StartedAt  time.Time  `db:"started_at" json:"started_at"`
	EndedAt    *time.Time `db:"ended_at" json:"ended_at,omitempty"`
	Error      *string    `db:"error" json:"error,omitempty"`
}

// Step is a row of dr_run_steps.
type Step struct {
	ID        int64      `db:"id" json:"id"`
	RunID     string     `db:"run_id" json:"run_id"`
	Seq       int        `db:"seq" json:"seq"`
	Name      string     `db:"name" json:"name"`
	Status    Status     `db:"status" json:"status"`
	StartedAt time.Time  `db:"started_at" json:"started_at"`
	EndedAt   *time.Time `db:"ended_at" json:"ended_at,omitempty"`
	Error     *string    `db:"error" json:"error,omitempty"`
}

// RunSummary is a run with its steps in order.
type RunSummary struct {
	Run   Run    `json:"run"`
	Steps []Step `json:"steps"`
}
