package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/vexxhost/ovirt-dr/internal/console"
	"github.com/vexxhost/ovirt-dr/internal/setup"
)

// Defaults used when neither the file nor the operator supply a value.
const (
	DefaultSite         = "http://localhost:8080/ovirt-engine/api"
	DefaultUsername     = "admin@internal"
	DefaultCAFile       = "/etc/pki/ovirt-engine/ca.pem"
	DefaultVarFile      = "../examples/disaster_recovery_vars.yml"
	DefaultPlay         = "../examples/dr_play.yml"
	DefaultDefaultsFile = "../defaults/main.yml"
	DefaultVaultSecret  = "vault_secret.sh"
	DefaultListen       = ":8089"
)

// GenerateVars configure mapping generation.
type GenerateVars struct {
	Site        string
	Username    string
	Password    string
	CAFile      string
	OutputFile  string
	AnsiblePlay string
}

// Credentials returns the connection credentials of the primary site.
func (g *GenerateVars) Credentials() setup.Credentials {
	return setup.Credentials{URL: g.Site, Username: g.Username, Password: g.Password, CAFile: g.CAFile}
}

// ValidateVars configure mapping validation.
type ValidateVars struct {
	VarFile           string
	DefaultsFile      string
	PrimaryPassword   string
	SecondaryPassword string
}

// CutoverVars configure failover and failback.
type CutoverVars struct {
	TargetHost        setup.Site
	SourceMap         setup.Site
	VarFile           string
	Vault             string
	AnsiblePlay       string
	VaultPasswordFile string
	ReportDir         string
}

// HistoryVars configure the run history store.
type HistoryVars struct {
	DSN    string
	Listen string
}

// Resolver fills in settings, asking the operator for whatever is missing
// or invalid. With a non-interactive prompter the first missing value is
// returned as an *Error.
type Resolver struct {
	File     *File
	Prompter console.Prompter
}

// NewResolver returns a Resolver over f.
func NewResolver(f *File, p console.Prompter) *Resolver {
	if p == nil {
		p = console.NonInteractive{}
	}
	return &Resolver{File: f, Prompter: p}
}

func (r *Resolver) wrap(section, key string, err error) error {
	if errors.Is(err, console.ErrNonInteractive) {
		return &Error{Section: section, Key: key, Err: err}
	}
	return err
}

func (r *Resolver) ask(section, key, question, def string) (string, error) {
	answer, err := r.Prompter.Ask(question, def)
	if err != nil {
		return "", r.wrap(section, key, err)
	}
	return answer, nil
}

func (r *Resolver) secret(section, key, question string) (string, error) {
	answer, err := r.Prompter.AskSecret(question)
	if err != nil {
		return "", r.wrap(section, key, err)
	}
	return answer, nil
}

// existingFile returns the configured path of section.key (or def) once it
// names an existing file, prompting until it does.
func (r *Resolver) existingFile(section, key, def, question string) (string, error) {
	path := r.File.Get(section, key)
	if path == "" {
		path = def
	}
	path, err := ExpandPath(path)
	if err != nil {
		return "", err
	}
	for !isFile(path) {
		answer, err := r.ask(section, key, fmt.Sprintf(question, path), def)
		if err != nil {
			return "", err
		}
		if path, err = ExpandPath(answer); err != nil {
			return "", err
		}
	}
	return path, nil
}

// GenerateVars resolves [generate_vars]. The playbook is only required when
// requirePlay is set.
func (r *Resolver) GenerateVars(requirePlay bool) (*GenerateVars, error) {
	var err error
	g := &GenerateVars{
		Site:     r.File.Get(SectionGenerate, "site"),
		Username: r.File.Get(SectionGenerate, "username"),
		Password: r.File.Get(SectionGenerate, "password"),
	}

	if g.Site == "" {
		q := fmt.Sprintf("Site address is not initialized. Please provide the site URL (%s): ", DefaultSite)
		if g.Site, err = r.ask(SectionGenerate, "site", q, DefaultSite); err != nil {
			return nil, err
		}
	}
	if g.Username == "" {
		q := fmt.Sprintf("Username is not initialized. Please provide the username (%s): ", DefaultUsername)
		if g.Username, err = r.ask(SectionGenerate, "username", q, DefaultUsername); err != nil {
			return nil, err
		}
	}
	for g.Password == "" {
		q := fmt.Sprintf("Password is not initialized. Please provide the password for username %s: ", g.Username)
		if g.Password, err = r.secret(SectionGenerate, "password", q); err != nil {
			return nil, err
		}
	}

	g.CAFile, err = r.existingFile(SectionGenerate, "ca_file", DefaultCAFile,
		"CA file '%s' does not exist. Please provide the CA file location ("+DefaultCAFile+"): ")
	if err != nil {
		return nil, err
	}

	if g.OutputFile, err = ExpandPath(r.File.Get(SectionGenerate, "output_file")); err != nil {
		return nil, err
	}
	for g.OutputFile == "" {
		q := fmt.Sprintf("Output file location is not initialized. Please provide the output file location for the mapping var file (%s): ", DefaultVarFile)
		answer, err := r.ask(SectionGenerate, "output_file", q, DefaultVarFile)
		if err != nil {
			return nil, err
		}
		if g.OutputFile, err = ExpandPath(answer); err != nil {
			return nil, err
		}
	}

	if requirePlay {
		g.AnsiblePlay, err = r.existingFile(SectionGenerate, "ansible_play", DefaultPlay,
			"Ansible play file '%s' does not exist. Please provide the ansible play file to generate the mapping var file ("+DefaultPlay+"): ")
		if err != nil {
			return nil, err
		}
	}
	return g, nil
}

// ValidateVars resolves [validate_vars] and the passwords of both sites.
func (r *Resolver) ValidateVars() (*ValidateVars, error) {
	var err error
	v := &ValidateVars{
		PrimaryPassword:   r.File.Get(SectionValidate, "primary_password"),
		SecondaryPassword: r.File.Get(SectionValidate, "secondary_password"),
	}

	v.VarFile, err = r.existingFile(SectionValidate, "var_file", DefaultVarFile,
		"Var file '%s' does not exist. Please provide the location of the var file ("+DefaultVarFile+"): ")
	if err != nil {
		return nil, err
	}

	defaults := r.File.Get(SectionValidate, "defaults_file")
	if defaults == "" {
		defaults = DefaultDefaultsFile
	}
	if v.DefaultsFile, err = ExpandPath(defaults); err != nil {
		return nil, err
	}

	if v.PrimaryPassword == "" {
		if v.PrimaryPassword, err = r.secret(SectionValidate, "primary_password", "Please provide password for the primary setup: "); err != nil {
			return nil, err
		}
	}
	if v.SecondaryPassword == "" {
		if v.SecondaryPassword, err = r.secret(SectionValidate, "secondary_password", "Please provide password for the secondary setup: "); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// CutoverVars resolves [failover_failback]. direction only shapes the
// prompt wording.
func (r *Resolver) CutoverVars(direction string) (*CutoverVars, error) {
	var err error
	c := &CutoverVars{}

	if c.TargetHost, err = r.site("dr_target_host",
		"The target host '%s' was not defined. Please provide the target host to "+direction+" to (primary or secondary): "); err != nil {
		return nil, err
	}
	if c.SourceMap, err = r.site("dr_source_map",
		"The source mapping '%s' was not defined. Please provide the source mapping (primary or secondary): "); err != nil {
		return nil, err
	}

	if c.VarFile, err = r.existingFile(SectionCutover, "var_file", DefaultVarFile,
		"Var file '%s' does not exist. Please provide the location of the var file ("+DefaultVarFile+"): "); err != nil {
		return nil, err
	}
	if c.Vault, err = r.existingFile(SectionCutover, "vault", "",
		"Password file '%s' does not exist. Please provide a valid password file: "); err != nil {
		return nil, err
	}
	if c.AnsiblePlay, err = r.existingFile(SectionCutover, "ansible_play", DefaultPlay,
		"Ansible play file '%s' does not exist. Please provide the ansible play file to run the "+direction+" flow ("+DefaultPlay+"): "); err != nil {
		return nil, err
	}

	secret := r.File.Get(SectionCutover, "vault_password_file")
	if secret == "" {
		secret = DefaultVaultSecret
	}
	if c.VaultPasswordFile, err = ExpandPath(secret); err != nil {
		return nil, err
	}

	if c.ReportDir, err = ExpandPath(r.File.Get(SectionCutover, "report_dir")); err != nil {
		return nil, err
	}
	if c.ReportDir == "" {
		c.ReportDir = os.TempDir()
	}
	return c, nil
}

func (r *Resolver) site(key, question string) (setup.Site, error) {
	value := setup.Site(r.File.Get(SectionCutover, key))
	for !value.Valid() {
		answer, err := r.ask(SectionCutover, key, fmt.Sprintf(question, value), "")
		if err != nil {
			return "", err
		}
		value = setup.Site(answer)
	}
	return value, nil
}

// VaultPassword returns the configured vault password or asks for it. A
// blank answer means the vault is plain text. Non-interactive runs use the
// configured value as-is.
func (r *Resolver) VaultPassword() (string, error) {
	if pw := r.File.Get(SectionCutover, "vault_password"); pw != "" {
		return pw, nil
	}
	pw, err := r.Prompter.AskSecret("Please enter vault password (in case of plain text please press ENTER): ")
	if errors.Is(err, console.ErrNonInteractive) {
		return "", nil
	}
	return pw, err
}

// HistoryVars resolves [history]. An empty DSN disables the run history.
func (r *Resolver) HistoryVars() *HistoryVars {
	h := &HistoryVars{
		DSN:    r.File.Get(SectionHistory, "dsn"),
		Listen: r.File.Get(SectionHistory, "listen"),
	}
	if h.Listen == "" {
		h.Listen = DefaultListen
	}
	return h
}
