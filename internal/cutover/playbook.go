// Package cutover drives failover and failback through ansible-playbook.
package cutover

import (
	"fmt"
	"strings"
	"time"
)

// Playbook tags understood by the DR role.
const (
	TagFailover        = "fail_over"
	TagCleanup         = "clean_engine"
	TagFailback        = "fail_back"
	TagGenerateMapping = "generate_mapping"
)

const (
	// PlaybookBinary is resolved through PATH.
	PlaybookBinary = "ansible-playbook"

	// VaultPasswordEnv carries the vault password to the child process.
	VaultPasswordEnv = "vault_password"
)

// Var is one inline extra variable.
type Var struct {
	Key   string
	Value string
}

// Playbook describes one ansible-playbook invocation against the DR role.
type Playbook struct {
	Play              string
	Tag               string
	VarFiles          []string
	Vars              []Var
	VaultPasswordFile string
	Verbosity         int
}

// Args renders the command line arguments, binary excluded.
func (p Playbook) Args() []string {
	args := []string{p.Play, "-t", p.Tag}
	for _, f := range p.VarFiles {
		args = append(args, "-e", "@"+f)
	}
	if len(p.Vars) > 0 {
		var b strings.Builder
		for _, v := range p.Vars {
			fmt.Fprintf(&b, " %s=%s", v.Key, v.Value)
		}
		args = append(args, "-e", b.String())
	}
	if p.VaultPasswordFile != "" {
		args = append(args, "--vault-password-file", p.VaultPasswordFile)
	}
	if p.Verbosity > 0 {
		args = append(args, "-"+strings.Repeat("v", p.Verbosity))
	}
	return args
}

// Command builds the process description. The vault password travels in
// the environment only.
func (p Playbook) Command(vaultPassword string) Command {
	return Command{
		Name: PlaybookBinary,
		Args: p.Args(),
		Env:  []string{VaultPasswordEnv + "=" + vaultPassword},
	}
}

// ReportName returns the report file name for a run started at t.
func ReportName(t time.Time) string {
	return fmt.Sprintf("report-%d.log", t.UnixMilli())
}
