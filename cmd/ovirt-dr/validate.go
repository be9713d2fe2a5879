package main

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vexxhost/ovirt-dr/internal/config"
	"github.com/vexxhost/ovirt-dr/internal/console"
	"github.com/vexxhost/ovirt-dr/internal/mapping"
	"github.com/vexxhost/ovirt-dr/internal/setup"
	"github.com/vexxhost/ovirt-dr/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the mapping var file against both setups",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := out.WithPrefix("Validate Mapping File")

		vars, err := config.NewResolver(conf, prompter).ValidateVars()
		if err != nil {
			return err
		}

		result, err := validateFile(cmd.Context(), vars, true)
		if err != nil {
			c.Fail("Failed to read the mapping file '%s': %v", vars.VarFile, err)
			return &validationError{errors: 1}
		}
		render(c, result)
		if !result.OK() {
			return &validationError{errors: len(result.Errors())}
		}
		c.Info("Finished validation of the mapping file '%s'", vars.VarFile)
		return nil
	},
}

// validateFile loads the mapping file and runs the validator. live adds
// the existence and semantic passes against both setups.
func validateFile(ctx context.Context, vars *config.ValidateVars, live bool) (*validator.Result, error) {
	raw, err := mapping.Load(vars.VarFile)
	if err != nil {
		return nil, err
	}
	opts := validator.Options{
		PrimaryPassword:   vars.PrimaryPassword,
		SecondaryPassword: vars.SecondaryPassword,
		FailbackChecks:    true,
		DefaultsFile:      vars.DefaultsFile,
		Confirmer:         prompter,
	}
	if live {
		opts.Dialer = setup.Connect
	}
	return validator.New(opts).Validate(ctx, raw), nil
}

func render(c *console.Console, result *validator.Result) {
	for _, f := range result.Findings {
		switch f.Severity {
		case validator.SeverityError:
			c.Line(console.LevelFail, f.Message)
		case validator.SeverityWarning:
			c.Line(console.LevelWarn, f.Message)
		default:
			c.Line(console.LevelInfo, f.Message)
		}
	}
	log.WithFields(log.Fields{
		"errors":   len(result.Errors()),
		"warnings": len(result.Warnings()),
	}).Debug("Rendered validation findings")
}
