package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// RunningVMsKey names the role default holding the running-VMs snapshot path.
const RunningVMsKey = "dr_running_vms"

// RoleDefaults is the subset of the DR role defaults file the toolchain reads.
type RoleDefaults struct {
	RunningVMs string `yaml:"dr_running_vms"`
}

// LoadRoleDefaults reads the role defaults YAML file at path.
func LoadRoleDefaults(path string) (*RoleDefaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read role defaults %s: %w", path, err)
	}
	var defaults RoleDefaults
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return nil, fmt.Errorf("yaml file '%s' could not be loaded: %w", path, err)
	}
	if defaults.RunningVMs != "" {
		if defaults.RunningVMs, err = ExpandPath(defaults.RunningVMs); err != nil {
			return nil, err
		}
	}
	return &defaults, nil
}
