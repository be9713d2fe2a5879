package main

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"

	"github.com/vexxhost/ovirt-dr/internal/config"
	"github.com/vexxhost/ovirt-dr/internal/console"
	"github.com/vexxhost/ovirt-dr/internal/setup"
)

type SiteOpt enumflag.Flag

const (
	SiteUnset SiteOpt = iota
	SitePrimary
	SiteSecondary
)

var SiteOptIds = map[SiteOpt][]string{
	SitePrimary:   {string(setup.Primary)},
	SiteSecondary: {string(setup.Secondary)},
}

var (
	configPath     string
	logFile        string
	debug          bool
	nonInteractive bool
	noColor        bool
	targetHost     SiteOpt
	sourceMap      SiteOpt

	// set up by PersistentPreRunE
	conf      *config.File
	out       *console.Console
	prompter  console.Prompter
	logWriter io.WriteCloser
)

var rootCmd = &cobra.Command{
	Use:           "ovirt-dr",
	Short:         "Disaster recovery mapping and cutover toolchain for oVirt",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debug {
			log.SetLevel(log.DebugLevel)
		}

		if logFile != "" {
			path, err := config.ExpandPath(logFile)
			if err != nil {
				return err
			}
			f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("failed to open log file %s: %w", path, err)
			}
			logWriter = f
			log.SetOutput(f)
			log.SetFormatter(&log.TextFormatter{FullTimestamp: true, DisableColors: true})
		}

		out = console.Stdout(noColor)
		if nonInteractive || !console.StdinIsTerminal() {
			prompter = console.NonInteractive{}
		} else {
			prompter = console.NewTerminalPrompter(out)
		}

		var err error
		conf, err = config.Load(configPath)
		if err != nil {
			return &config.Error{Err: err}
		}
		overrideSite(cmd, "target-host", "dr_target_host", targetHost)
		overrideSite(cmd, "source-map", "dr_source_map", sourceMap)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logWriter != nil {
			logWriter.Close()
		}
	},
}

// overrideSite applies an explicitly set site flag over the config file.
func overrideSite(cmd *cobra.Command, flag, key string, value SiteOpt) {
	f := cmd.Flags().Lookup(flag)
	if f == nil || !f.Changed {
		return
	}
	if ids, ok := SiteOptIds[value]; ok {
		conf.Set(config.SectionCutover, key, ids[0])
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Configuration file (ini)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Append logs and playbook output to this file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Never prompt; missing settings are errors")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	for _, c := range []*cobra.Command{failoverCmd, failbackCmd} {
		c.Flags().Var(enumflag.New(&targetHost, "target-host", SiteOptIds, enumflag.EnumCaseInsensitive), "target-host", "Setup to fail over to (primary or secondary)")
		c.Flags().Var(enumflag.New(&sourceMap, "source-map", SiteOptIds, enumflag.EnumCaseInsensitive), "source-map", "Mapping side of the currently active setup (primary or secondary)")
	}

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(failoverCmd)
	rootCmd.AddCommand(failbackCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		report(err)
		os.Exit(exitCode(err))
	}
}
