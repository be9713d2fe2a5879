package cutover

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vexxhost/ovirt-dr/internal/console"
	"github.com/vexxhost/ovirt-dr/internal/joblog"
	"github.com/vexxhost/ovirt-dr/internal/setup"
)

// State is the phase an orchestrated run has reached.
type State string

const (
	StateInit    State = "init"
	StateCleanup State = "cleanup"
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// IntermediateCleanupOnly is reported when a failback cleaned the target
// setup but the failback itself did not complete.
const IntermediateCleanupOnly = "cleanup-completed/failback-failed"

// PlaybookError reports a failed playbook phase.
type PlaybookError struct {
	Tag      string
	ExitCode int
	Tail     []string
	Err      error
}

func (e *PlaybookError) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("playbook tag %s failed with exit code %d", e.Tag, e.ExitCode)
	}
	return fmt.Sprintf("playbook tag %s failed: %v", e.Tag, e.Err)
}

func (e *PlaybookError) Unwrap() error {
	return e.Err
}

// Recorder keeps the history of runs. *joblog.Tracker satisfies it.
type Recorder interface {
	StartRun(ctx context.Context, input joblog.RunStart) (context.Context, string, error)
	RunStep(ctx context.Context, runID, name string, fn func(ctx context.Context) error) error
	EndRun(ctx context.Context, runID string, status joblog.Status, err error) error
}

type nopRecorder struct{}

func (nopRecorder) StartRun(ctx context.Context, _ joblog.RunStart) (context.Context, string, error) {
	return ctx, "", nil
}

func (nopRecorder) RunStep(ctx context.Context, _, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (nopRecorder) EndRun(context.Context, string, joblog.Status, error) error {
	return nil
}

// Config holds the resolved [failover_failback] settings.
type Config struct {
	TargetHost        setup.Site
	SourceMap         setup.Site
	VarFile           string
	Vault             string
	AnsiblePlay       string
	VaultPasswordFile string
	ReportDir         string
	VaultPassword     string
}

// Outcome describes how a run ended.
type Outcome struct {
	State             State
	IntermediateState string
	ReportFile        string
	RunID             string
}

// Orchestrator runs failover and failback flows.
type Orchestrator struct {
	Runner   Runner
	Recorder Recorder
	Console  *console.Console
	// LogFile receives every playbook line when set.
	LogFile io.Writer
	// Now is overridable for report naming.
	Now func() time.Time
}

// New returns an Orchestrator with the exec runner and no history.
func New(c *console.Console) *Orchestrator {
	return &Orchestrator{Runner: ExecRunner{}, Recorder: nopRecorder{}, Console: c, Now: time.Now}
}

// Failover moves workloads from cfg.SourceMap to cfg.TargetHost.
func (o *Orchestrator) Failover(ctx context.Context, cfg Config) (*Outcome, error) {
	out := o.Console.WithPrefix("Failover")
	report := o.reportPath(cfg)
	outcome := &Outcome{State: StateInit, ReportFile: report}

	logger := log.WithFields(log.Fields{
		"target_host": cfg.TargetHost,
		"source_map":  cfg.SourceMap,
		"report_file": report,
	})
	logger.Info("🚀 Starting failover operation")

	ctx, runID := o.startRun(ctx, joblog.JobFailover, cfg.TargetHost, cfg.SourceMap, report)
	outcome.RunID = runID

	out.Info("Starting failover process to setup '%s' from setup '%s'", cfg.TargetHost, cfg.SourceMap)
	outcome.State = StateRunning
	err := o.phase(ctx, runID, out, cfg, Playbook{
		Tag: TagFailover,
		Vars: []Var{
			{"dr_target_host", string(cfg.TargetHost)},
			{"dr_source_map", string(cfg.SourceMap)},
			{"dr_report_file", report},
		},
	})
	o.finish(ctx, runID, outcome, err)
	o.dumpReport(out, report)

	if err != nil {
		out.Fail("Failover operation failed, please check the log file for further details: %v", err)
		return outcome, err
	}
	out.Info("Finished failover operation")
	logger.Info("✅ Failover operation completed")
	return outcome, nil
}

// Failback cleans the currently active setup and moves workloads back.
// The configured roles are reversed: the failback target is the configured
// source map and vice versa.
func (o *Orchestrator) Failback(ctx context.Context, cfg Config) (*Outcome, error) {
	out := o.Console.WithPrefix("Failback")
	target, source := cfg.SourceMap, cfg.TargetHost
	report := o.reportPath(cfg)
	outcome := &Outcome{State: StateInit, ReportFile: report}

	logger := log.WithFields(log.Fields{
		"target_host": target,
		"source_map":  source,
		"report_file": report,
	})
	logger.Info("🚀 Starting failback operation")

	ctx, runID := o.startRun(ctx, joblog.JobFailback, target, source, report)
	outcome.RunID = runID

	out.Info("Starting cleanup process of setup '%s'", target)
	outcome.State = StateCleanup
	err := o.phase(ctx, runID, out, cfg, Playbook{
		Tag:  TagCleanup,
		Vars: []Var{{"dr_source_map", string(target)}},
	})
	if err == nil {
		out.Info("Finished cleanup of setup '%s'", target)
		out.Info("Starting failback process to setup '%s' from setup '%s'", target, source)
		outcome.State = StateRunning
		err = o.phase(ctx, runID, out, cfg, Playbook{
			Tag: TagFailback,
			Vars: []Var{
				{"dr_target_host", string(target)},
				{"dr_source_map", string(source)},
				{"dr_report_file", report},
			},
		})
		if err != nil {
			outcome.IntermediateState = IntermediateCleanupOnly
		}
	}
	o.finish(ctx, runID, outcome, err)
	o.dumpReport(out, report)

	if err != nil {
		if outcome.IntermediateState != "" {
			out.Fail("Setup '%s' was cleaned but failback did not complete (%s)", target, outcome.IntermediateState)
		}
		out.Fail("Failback operation failed, please check the log file for further details: %v", err)
		return outcome, err
	}
	out.Info("Finished failback operation")
	logger.Info("✅ Failback operation completed")
	return outcome, nil
}

// phase runs one playbook tag. Failures are never retried.
func (o *Orchestrator) phase(ctx context.Context, runID string, out *console.Console, cfg Config, pb Playbook) error {
	pb.Play = cfg.AnsiblePlay
	pb.VarFiles = []string{cfg.VarFile, cfg.Vault}
	pb.VaultPasswordFile = cfg.VaultPasswordFile
	pb.Verbosity = 3
	cmd := pb.Command(cfg.VaultPassword)

	return o.recorder().RunStep(ctx, runID, pb.Tag, func(ctx context.Context) error {
		log.WithField("tag", pb.Tag).Infof("Executing command: %s", cmd)
		stream := NewStream(out, o.LogFile)
		err := o.Runner.Run(ctx, cmd, stream)
		if err == nil {
			return nil
		}

		perr := &PlaybookError{Tag: pb.Tag, Tail: stream.Tail(), Err: err}
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			perr.ExitCode = exitErr.Code
		}
		if len(perr.Tail) > 0 {
			out.Line(console.LevelFail, strings.Join(perr.Tail, "\n"))
		}
		return perr
	})
}

func (o *Orchestrator) startRun(ctx context.Context, jobType string, target, source setup.Site, report string) (context.Context, string) {
	runCtx, runID, err := o.recorder().StartRun(ctx, joblog.RunStart{
		JobType:    jobType,
		TargetHost: string(target),
		SourceMap:  string(source),
		ReportFile: report,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to record run start; continuing without history")
		o.Recorder = nopRecorder{}
		return ctx, ""
	}
	return runCtx, runID
}

func (o *Orchestrator) finish(ctx context.Context, runID string, outcome *Outcome, err error) {
	status := joblog.StatusCompleted
	outcome.State = StateDone
	if err != nil {
		status = joblog.StatusFailed
		outcome.State = StateFailed
		if outcome.IntermediateState != "" {
			err = fmt.Errorf("%s: %w", outcome.IntermediateState, err)
		}
	}
	if endErr := o.recorder().EndRun(ctx, runID, status, err); endErr != nil {
		log.WithError(endErr).Warn("Failed to record run end")
	}
}

func (o *Orchestrator) recorder() Recorder {
	if o.Recorder == nil {
		o.Recorder = nopRecorder{}
	}
	return o.Recorder
}

func (o *Orchestrator) reportPath(cfg Config) string {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	dir := cfg.ReportDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, ReportName(now()))
}

// dumpReport prints the playbook report. It runs whatever the outcome.
func (o *Orchestrator) dumpReport(out *console.Console, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.WithError(err).WithField("report_file", path).Warn("Report file is not available")
		out.Warn("Report file '%s' is not available", path)
		return
	}
	out.Line(console.LevelPlain, strings.TrimRight(string(data), "\n"))
}
