package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vexxhost/ovirt-dr/internal/config"
	"github.com/vexxhost/ovirt-dr/internal/console"
	"github.com/vexxhost/ovirt-dr/internal/cutover"
	"github.com/vexxhost/ovirt-dr/internal/generator"
	"github.com/vexxhost/ovirt-dr/internal/mapping"
	"github.com/vexxhost/ovirt-dr/internal/progress"
	"github.com/vexxhost/ovirt-dr/internal/setup"
)

var (
	force       bool
	usePlaybook bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the mapping var file from the primary setup",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c := out.WithPrefix("Generate Mapping File")

		vars, err := config.NewResolver(conf, prompter).GenerateVars(usePlaybook)
		if err != nil {
			return err
		}
		if err := confirmOverwrite(c, vars.OutputFile); err != nil {
			return err
		}

		creds := vars.Credentials()
		log.WithField("credentials", creds.String()).Debug("Resolved generation settings")

		if usePlaybook {
			return generateWithPlaybook(ctx, c, vars)
		}
		return generateDirect(ctx, c, vars, creds)
	},
}

func init() {
	generateCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing output file without asking")
	generateCmd.Flags().BoolVar(&usePlaybook, "use-playbook", false, "Generate through the DR playbook (generate_mapping tag)")
}

func confirmOverwrite(c *console.Console, path string) error {
	if force {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	yes, err := prompter.Confirm(fmt.Sprintf("The output file '%s' already exists. Would you like to override it (yes,no)?: ", path))
	if err != nil {
		return &config.Error{Section: config.SectionGenerate, Key: "output_file", Err: fmt.Errorf("%s exists and --force was not given: %w", path, err)}
	}
	if !yes {
		return &config.Error{Section: config.SectionGenerate, Key: "output_file", Err: fmt.Errorf("%s exists and was not overwritten", path)}
	}
	c.Info("Output file '%s' will be overridden", path)
	return nil
}

func generateDirect(ctx context.Context, c *console.Console, vars *config.GenerateVars, creds setup.Credentials) error {
	s, err := setup.Connect(ctx, creds)
	if err != nil {
		c.Fail("Connection to setup has failed. Please check your credentials: URL: %s, user: %s, CA file: %s",
			creds.URL, creds.Username, creds.CAFile)
		return err
	}
	defer s.Close()

	var reporter progress.Reporter = progress.Nop{}
	if !nonInteractive && logFile == "" {
		reporter = progress.NewBar()
	}

	doc, err := generator.New(reporter).Generate(ctx, s, creds)
	if err != nil {
		return err
	}
	if err := mapping.WriteFile(vars.OutputFile, doc); err != nil {
		return err
	}
	c.Info("Mapping var file generated at '%s'", vars.OutputFile)
	for _, a := range doc.Advisories {
		c.Warn("%s storage domain '%s' was left out of the mapping", a.DomainType, a.Name)
	}
	return nil
}

// generateWithPlaybook runs the generate_mapping tag. The connection
// variables go through a private extra-vars file so the password never
// appears on the command line.
func generateWithPlaybook(ctx context.Context, c *console.Console, vars *config.GenerateVars) error {
	if err := os.MkdirAll(filepath.Dir(vars.OutputFile), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	extra, err := os.CreateTemp("", "ovirt-dr-generate-*.yml")
	if err != nil {
		return fmt.Errorf("failed to create extra-vars file: %w", err)
	}
	defer os.Remove(extra.Name())

	data, err := yaml.Marshal(map[string]string{
		"site":     vars.Site,
		"username": vars.Username,
		"password": vars.Password,
		"ca":       vars.CAFile,
		"var_file": vars.OutputFile,
	})
	if err != nil {
		extra.Close()
		return err
	}
	if err := extra.Chmod(0o600); err != nil {
		extra.Close()
		return err
	}
	if _, err := extra.Write(data); err != nil {
		extra.Close()
		return err
	}
	if err := extra.Close(); err != nil {
		return err
	}

	pb := cutover.Playbook{
		Play:      vars.AnsiblePlay,
		Tag:       cutover.TagGenerateMapping,
		VarFiles:  []string{extra.Name()},
		Verbosity: 5,
	}
	cmd := cutover.Command{Name: cutover.PlaybookBinary, Args: pb.Args()}
	log.WithField("command", cmd.String()).Info("Executing command")

	stream := cutover.NewStream(c, logWriter)
	if err := (cutover.ExecRunner{}).Run(ctx, cmd, stream); err != nil {
		perr := &cutover.PlaybookError{Tag: pb.Tag, Tail: stream.Tail(), Err: err}
		var exit *cutover.ExitError
		if errors.As(err, &exit) {
			perr.ExitCode = exit.Code
		}
		return perr
	}

	if _, err := os.Stat(vars.OutputFile); err != nil {
		return fmt.Errorf("failed to generate var file '%s': %w", vars.OutputFile, err)
	}
	c.Info("Var file location: '%s'", vars.OutputFile)
	return nil
}
