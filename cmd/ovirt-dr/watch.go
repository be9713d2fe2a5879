package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vexxhost/ovirt-dr/internal/config"
	"github.com/vexxhost/ovirt-dr/internal/validator"
	"github.com/vexxhost/ovirt-dr/internal/watch"
)

var schedule string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Revalidate the mapping file on change and on a schedule",
	Long: `Watch runs the offline validation passes whenever the mapping file
changes. With --schedule the live passes against both setups also run on
the given cron expression, e.g. "@every 30m" or "0 * * * *".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		vars, err := config.NewResolver(conf, prompter).ValidateVars()
		if err != nil {
			return err
		}
		// never prompt about leftovers from a background loop
		vars.DefaultsFile = ""

		c := out.WithPrefix("Watch Mapping File")
		w := &watch.Watcher{
			Path:     vars.VarFile,
			Schedule: schedule,
			Check: func(ctx context.Context, full bool) *validator.Result {
				result, err := validateFile(ctx, vars, full)
				if err != nil {
					return &validator.Result{Findings: []validator.Finding{{
						Pass:     validator.PassStructural,
						Severity: validator.SeverityError,
						Message:  fmt.Sprintf("Failed to read the mapping file '%s': %v", vars.VarFile, err),
					}}}
				}
				return result
			},
			OnResult: func(trigger watch.Trigger, result *validator.Result) {
				if result.OK() {
					c.Info("Mapping file is valid (%s)", trigger)
					return
				}
				c.Warn("Mapping file has %d error(s) (%s)", len(result.Errors()), trigger)
				render(c, result)
			},
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return w.Run(ctx)
	},
}

func init() {
	watchCmd.Flags().StringVar(&schedule, "schedule", "", "Cron expression for full validation against both setups")
}
