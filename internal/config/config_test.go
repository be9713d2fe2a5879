package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vexxhost/ovirt-dr/internal/console"
	"github.com/vexxhost/ovirt-dr/internal/setup"
)

// scripted answers prompts from a fixed list and records the questions.
type scripted struct {
	answers   []string
	questions []string
}

func (s *scripted) next(question string) (string, error) {
	s.questions = append(s.questions, question)
	if len(s.answers) == 0 {
		return "", errors.New("no more answers")
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func (s *scripted) Ask(question, def string) (string, error) {
	a, err := s.next(question)
	if err == nil && a == "" {
		a = def
	}
	return a, err
}

func (s *scripted) AskSecret(question string) (string, error) {
	return s.next(question)
}

func (s *scripted) Confirm(question string) (bool, error) {
	a, err := s.next(question)
	return console.IsYes(a), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	f, err := Load(filepath.Join(t.TempDir(), "dr.conf"))
	require.NoError(t, err)
	assert.Empty(t, f.Get(SectionGenerate, "site"))
}

func TestGenerateVarsFromFile(t *testing.T) {
	dir := t.TempDir()
	ca := writeFile(t, dir, "ca.pem", "cert")
	conf := writeFile(t, dir, "dr.conf", `[generate_vars]
site = https://engine1.example.com/ovirt-engine/api
username = admin@internal
password = secret
ca_file = `+ca+`
output_file = `+filepath.Join(dir, "out", "vars.yml")+`
`)

	f, err := Load(conf)
	require.NoError(t, err)
	g, err := NewResolver(f, nil).GenerateVars(false)
	require.NoError(t, err)

	assert.Equal(t, "https://engine1.example.com/ovirt-engine/api", g.Site)
	assert.Equal(t, "secret", g.Password)
	assert.Equal(t, ca, g.CAFile)
	assert.Equal(t, setup.Credentials{
		URL:      g.Site,
		Username: "admin@internal",
		Password: "secret",
		CAFile:   ca,
	}, g.Credentials())
}

func TestGenerateVarsPromptsForMissingValues(t *testing.T) {
	dir := t.TempDir()
	ca := writeFile(t, dir, "ca.pem", "cert")
	conf := writeFile(t, dir, "dr.conf", "[generate_vars]\nca_file = "+filepath.Join(dir, "missing.pem")+"\n")
	f, err := Load(conf)
	require.NoError(t, err)

	p := &scripted{answers: []string{
		"",                             // site, take default
		"",                             // username, take default
		"",                             // password, blank is re-asked
		"secret",                       // password
		filepath.Join(dir, "nope.pem"), // ca, missing file is re-asked
		ca,
		filepath.Join(dir, "vars.yml"),
	}}
	g, err := NewResolver(f, p).GenerateVars(false)
	require.NoError(t, err)

	assert.Equal(t, DefaultSite, g.Site)
	assert.Equal(t, DefaultUsername, g.Username)
	assert.Equal(t, "secret", g.Password)
	assert.Equal(t, ca, g.CAFile)
	assert.Equal(t, filepath.Join(dir, "vars.yml"), g.OutputFile)
	assert.Len(t, p.questions, 7)
}

func TestGenerateVarsNonInteractiveFailsFast(t *testing.T) {
	f, err := Load(filepath.Join(t.TempDir(), "dr.conf"))
	require.NoError(t, err)

	_, err = NewResolver(f, console.NonInteractive{}).GenerateVars(false)
	require.Error(t, err)
	assert.True(t, IsError(err))

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, SectionGenerate, ce.Section)
	assert.Equal(t, "site", ce.Key)
	assert.ErrorIs(t, err, console.ErrNonInteractive)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	conf := writeFile(t, dir, "dr.conf", "[generate_vars]\nsite = https://from-file/ovirt-engine/api\n")
	t.Setenv("OVIRT_DR_GENERATE_VARS_SITE", "https://from-env/ovirt-engine/api")

	f, err := Load(conf)
	require.NoError(t, err)
	assert.Equal(t, "https://from-env/ovirt-engine/api", f.Get(SectionGenerate, "site"))
}

func TestCutoverVars(t *testing.T) {
	dir := t.TempDir()
	vars := writeFile(t, dir, "vars.yml", "---\n")
	vault := writeFile(t, dir, "passwords.yml", "---\n")
	play := writeFile(t, dir, "dr_play.yml", "---\n")
	conf := writeFile(t, dir, "dr.conf", `[failover_failback]
dr_target_host = secondary
dr_source_map = bogus
var_file = `+vars+`
vault = `+vault+`
ansible_play = `+play+`
report_dir = `+dir+`
`)
	f, err := Load(conf)
	require.NoError(t, err)

	p := &scripted{answers: []string{"tertiary", "primary"}}
	c, err := NewResolver(f, p).CutoverVars("failover")
	require.NoError(t, err)

	assert.Equal(t, setup.Secondary, c.TargetHost)
	assert.Equal(t, setup.Primary, c.SourceMap)
	assert.Equal(t, vars, c.VarFile)
	assert.Equal(t, vault, c.Vault)
	assert.Equal(t, play, c.AnsiblePlay)
	assert.Equal(t, DefaultVaultSecret, c.VaultPasswordFile)
	assert.Equal(t, dir, c.ReportDir)
	assert.Len(t, p.questions, 2)
}

func TestCutoverVarsNonInteractiveInvalidSite(t *testing.T) {
	dir := t.TempDir()
	conf := writeFile(t, dir, "dr.conf", "[failover_failback]\ndr_target_host = elsewhere\n")
	f, err := Load(conf)
	require.NoError(t, err)

	_, err = NewResolver(f, nil).CutoverVars("failover")
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "dr_target_host", ce.Key)
}

func TestVaultPassword(t *testing.T) {
	f, err := Load(filepath.Join(t.TempDir(), "dr.conf"))
	require.NoError(t, err)

	pw, err := NewResolver(f, nil).VaultPassword()
	require.NoError(t, err)
	assert.Empty(t, pw)

	pw, err = NewResolver(f, &scripted{answers: []string{"vault-secret"}}).VaultPassword()
	require.NoError(t, err)
	assert.Equal(t, "vault-secret", pw)
}

func TestLoadRoleDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.yml", "---\ndr_running_vms: /tmp/ovirt_dr_running_vm_list\ndr_report_file: report.log\n")

	defaults, err := LoadRoleDefaults(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ovirt_dr_running_vm_list", defaults.RunningVMs)

	bad := writeFile(t, dir, "bad.yml", "dr_running_vms: [unclosed\n")
	_, err = LoadRoleDefaults(bad)
	assert.Error(t, err)
}

func TestHistoryVarsDefaults(t *testing.T) {
	f, err := Load(filepath.Join(t.TempDir(), "dr.conf"))
	require.NoError(t, err)
	h := NewResolver(f, nil).HistoryVars()
	assert.Empty(t, h.DSN)
	assert.Equal(t, DefaultListen, h.Listen)
}
