package main

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vexxhost/ovirt-dr/internal/config"
	"github.com/vexxhost/ovirt-dr/internal/cutover"
	"github.com/vexxhost/ovirt-dr/internal/joblog"
)

var failoverCmd = &cobra.Command{
	Use:   "failover",
	Short: "Fail over to the target setup",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCutover(cmd.Context(), "failover")
	},
}

var failbackCmd = &cobra.Command{
	Use:   "failback",
	Short: "Clean the target setup and fail back to it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCutover(cmd.Context(), "failback")
	},
}

func runCutover(ctx context.Context, direction string) error {
	r := config.NewResolver(conf, prompter)
	vars, err := r.CutoverVars(direction)
	if err != nil {
		return err
	}
	password, err := r.VaultPassword()
	if err != nil {
		return err
	}

	o := cutover.New(out)
	if logWriter != nil {
		o.LogFile = logWriter
	}
	if tracker := openHistory(ctx, r.HistoryVars()); tracker != nil {
		defer tracker.Close()
		o.Recorder = tracker
	}

	cfg := cutover.Config{
		TargetHost:        vars.TargetHost,
		SourceMap:         vars.SourceMap,
		VarFile:           vars.VarFile,
		Vault:             vars.Vault,
		AnsiblePlay:       vars.AnsiblePlay,
		VaultPasswordFile: vars.VaultPasswordFile,
		ReportDir:         vars.ReportDir,
		VaultPassword:     password,
	}

	var outcome *cutover.Outcome
	if direction == "failback" {
		outcome, err = o.Failback(ctx, cfg)
	} else {
		outcome, err = o.Failover(ctx, cfg)
	}
	if outcome != nil {
		log.WithFields(log.Fields{
			"state":        outcome.State,
			"intermediate": outcome.IntermediateState,
			"report_file":  outcome.ReportFile,
			"run_id":       outcome.RunID,
		}).Info("Cutover finished")
	}
	return err
}

// openHistory returns a tracker for the configured DSN, or nil when the
// history is disabled or unreachable. A cutover never fails because of it.
func openHistory(ctx context.Context, h *config.HistoryVars) *joblog.Tracker {
	if h.DSN == "" {
		return nil
	}
	db, err := joblog.Open(h.DSN)
	if err != nil {
		log.WithError(err).Warn("⚠️ Run history disabled")
		return nil
	}
	tracker := joblog.New(db)
	if err := tracker.EnsureSchema(ctx); err != nil {
		log.WithError(err).Warn("⚠️ Run history disabled")
		tracker.Close()
		return nil
	}
	return tracker
}
