package validator

import (
	"errors"
	"os"

	"github.com/vexxhost/ovirt-dr/internal/config"
	"github.com/vexxhost/ovirt-dr/internal/console"
)

// checkLeftovers looks for a running-VMs snapshot left behind by a previous
// failback and offers to delete it.
func checkLeftovers(defaultsFile string, confirmer Confirmer, result *Result) {
	defaults, err := config.LoadRoleDefaults(defaultsFile)
	if errors.Is(err, os.ErrNotExist) {
		result.warnf(PassLeftover, "", "", "Role defaults file '%s' does not exist, skipping the running VMs check", defaultsFile)
		return
	}
	if err != nil {
		result.errorf(PassLeftover, "", "", "Failed to read the running VMs file location from '%s': %v", defaultsFile, err)
		return
	}
	path := defaults.RunningVMs
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}

	if confirmer == nil {
		confirmer = console.NonInteractive{}
	}
	yes, err := confirmer.Confirm("File with running VMs info already exists from a previous failback operation. Do you want to delete it (yes,no)?: ")
	switch {
	case errors.Is(err, console.ErrNonInteractive):
		result.warnf(PassLeftover, "", "", "File '%s' has not been deleted. It will be used in the next failback operation", path)
	case err != nil:
		result.errorf(PassLeftover, "", "", "Failed to confirm removal of '%s': %v", path, err)
	case !yes:
		result.infof(PassLeftover, "", "", "File '%s' has not been deleted. It will be used in the next failback operation", path)
	default:
		if err := os.Remove(path); err != nil {
			result.errorf(PassLeftover, "", "", "Failed to delete file '%s': %v", path, err)
			return
		}
		result.infof(PassLeftover, "", "", "File '%s' has been deleted successfully", path)
	}
}
