// Package config resolves toolchain settings from the ini configuration
// file, environment overrides and, when allowed, operator prompts.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Sections of the configuration file.
const (
	SectionGenerate = "generate_vars"
	SectionValidate = "validate_vars"
	SectionCutover  = "failover_failback"
	SectionHistory  = "history"
)

// EnvPrefix prefixes environment overrides, e.g. OVIRT_DR_GENERATE_VARS_SITE.
const EnvPrefix = "OVIRT_DR"

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "dr.conf"

// Error reports a missing or invalid configuration value.
type Error struct {
	Section string
	Key     string
	Err     error
}

func (e *Error) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("configuration: %v", e.Err)
	}
	return fmt.Sprintf("configuration [%s] %s: %v", e.Section, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsError reports whether err wraps a configuration Error.
func IsError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// File is a loaded configuration file.
type File struct {
	Path string
	v    *viper.Viper
}

// Load reads the ini file at path. A missing file yields an empty
// configuration so that every value falls back to prompts or defaults.
func Load(path string) (*File, error) {
	if path == "" {
		path = DefaultPath
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("ini")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(expanded); err == nil {
		v.SetConfigFile(expanded)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read configuration file %s: %w", expanded, err)
		}
		log.WithField("path", expanded).Debug("Loaded configuration file")
	} else if errors.Is(err, os.ErrNotExist) {
		log.WithField("path", expanded).Warn("⚠️ Configuration file not found, using defaults")
	} else {
		return nil, fmt.Errorf("failed to stat configuration file %s: %w", expanded, err)
	}

	return &File{Path: expanded, v: v}, nil
}

// Get returns the raw value of section.key. Environment overrides win over
// the file.
func (f *File) Get(section, key string) string {
	return strings.TrimSpace(f.v.GetString(section + "." + key))
}

// Set overrides section.key, used for command line flags.
func (f *File) Set(section, key, value string) {
	f.v.Set(section+"."+key, value)
}

// ExpandPath expands a leading ~ to the home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand path %s: %w", path, err)
	}
	return expanded, nil
}

func isFile(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
