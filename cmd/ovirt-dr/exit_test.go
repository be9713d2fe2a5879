package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vexxhost/ovirt-dr/internal/config"
	"github.com/vexxhost/ovirt-dr/internal/console"
	"github.com/vexxhost/ovirt-dr/internal/cutover"
	"github.com/vexxhost/ovirt-dr/internal/joblog"
	"github.com/vexxhost/ovirt-dr/internal/setup"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"unexpected", errors.New("boom"), exitUnexpected},
		{"config", &config.Error{Section: config.SectionGenerate, Key: "site", Err: errors.New("missing")}, exitConfig},
		{"non-interactive", fmt.Errorf("%w: question", console.ErrNonInteractive), exitConfig},
		{"connect", fmt.Errorf("generate: %w", &setup.ConnectError{Err: errors.New("refused")}), exitConnectivity},
		{"validation", &validationError{errors: 3}, exitValidation},
		{"playbook", &cutover.PlaybookError{Tag: cutover.TagFailover, ExitCode: 2, Err: &cutover.ExitError{Code: 2}}, exitOrchestration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestPrintRuns(t *testing.T) {
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printRuns(&buf, []joblog.Run{{
		ID: "run-1", JobType: joblog.JobFailover, Status: joblog.StatusRunning,
		TargetHost: "secondary", SourceMap: "primary", StartedAt: started,
	}})

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "failover")
	assert.Contains(t, out, "secondary")
}

func TestPrintRunWithSteps(t *testing.T) {
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ended := started.Add(time.Minute)
	msg := "playbook fail_back exited with code 2"
	var buf bytes.Buffer
	printRun(&buf, &joblog.RunSummary{
		Run: joblog.Run{ID: "run-2", JobType: joblog.JobFailback, Status: joblog.StatusFailed, StartedAt: started, EndedAt: &ended, Error: &msg},
		Steps: []joblog.Step{
			{Seq: 1, Name: "clean_engine", Status: joblog.StatusCompleted, StartedAt: started},
			{Seq: 2, Name: "fail_back", Status: joblog.StatusFailed, StartedAt: started, Error: &msg},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "run-2")
	assert.Contains(t, out, "clean_engine")
	assert.Contains(t, out, msg)
}

func TestStampNil(t *testing.T) {
	assert.Equal(t, "-", stamp(nil))
}
