package main

import (
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/vexxhost/ovirt-dr/internal/config"
	"github.com/vexxhost/ovirt-dr/internal/console"
	"github.com/vexxhost/ovirt-dr/internal/cutover"
	"github.com/vexxhost/ovirt-dr/internal/setup"
)

// Process exit codes.
const (
	exitOK            = 0
	exitUnexpected    = 1
	exitConfig        = 2
	exitConnectivity  = 3
	exitValidation    = 4
	exitOrchestration = 5
)

// validationError is returned when the mapping file has error findings.
type validationError struct {
	errors int
}

func (e *validationError) Error() string {
	return fmt.Sprintf("mapping file validation failed with %d error(s)", e.errors)
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var (
		verr *validationError
		perr *cutover.PlaybookError
	)
	switch {
	case config.IsError(err), errors.Is(err, console.ErrNonInteractive):
		return exitConfig
	case setup.IsConnectError(err):
		return exitConnectivity
	case errors.As(err, &verr):
		return exitValidation
	case errors.As(err, &perr):
		return exitOrchestration
	}
	return exitUnexpected
}

// report prints the final diagnostic for err.
func report(err error) {
	log.WithError(err).WithField("exit_code", exitCode(err)).Error("❌ Command failed")
	c := out
	if c == nil {
		c = console.Stdout(noColor)
	}
	var verr *validationError
	var perr *cutover.PlaybookError
	if errors.As(err, &verr) || errors.As(err, &perr) {
		// findings and playbook output were already shown
		return
	}
	c.Line(console.LevelFail, err.Error())
	if logFile != "" {
		fmt.Fprintf(os.Stderr, "See %s for details\n", logFile)
	}
}
