// Package validator checks a DR mapping document against itself and
// against both live setups. It never mutates remote state.
package validator

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vexxhost/ovirt-dr/internal/mapping"
	"github.com/vexxhost/ovirt-dr/internal/setup"
)

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// Options control which passes run and how setups are reached.
type Options struct {
	// Passwords of each site; they are never part of the mapping file.
	PrimaryPassword   string
	SecondaryPassword string

	// Dialer opens setups for the live passes. Nil skips them.
	Dialer setup.Dialer

	// FailbackChecks rejects delete-protected and previewed VMs.
	FailbackChecks bool

	// DefaultsFile is the role defaults file holding dr_running_vms.
	// Empty skips the leftover pass.
	DefaultsFile string
	Confirmer    Confirmer
}

// Validator runs the validation passes in order.
type Validator struct {
	opts Options
}

// New returns a Validator.
func New(opts Options) *Validator {
	return &Validator{opts: opts}
}

// Validate checks raw. A structural failure stops the run; every other
// pass accumulates findings.
func (v *Validator) Validate(ctx context.Context, raw *mapping.Raw) *Result {
	result := &Result{}
	logger := log.WithField("file", raw.Path)
	logger.Info("🔍 Validating mapping file")

	doc := checkStructure(raw, result)
	if doc == nil {
		logger.WithField("errors", result.countErrors()).Error("❌ Mapping file is malformed")
		return result
	}

	checkDuplicates(doc, result)
	checkUnsupportedDomains(doc, result)

	if v.opts.Dialer != nil {
		v.validateLive(ctx, doc, result)
	}

	if v.opts.DefaultsFile != "" {
		checkLeftovers(v.opts.DefaultsFile, v.opts.Confirmer, result)
	}

	for _, f := range result.Findings {
		entry := logger.WithFields(log.Fields{"pass": f.Pass, "section": f.Section})
		if f.Site != "" {
			entry = entry.WithField("site", f.Site)
		}
		switch f.Severity {
		case SeverityError:
			entry.Error(f.Message)
		case SeverityWarning:
			entry.Warn(f.Message)
		default:
			entry.Debug(f.Message)
		}
	}
	if result.OK() {
		logger.Info("✅ Mapping file validated")
	} else {
		logger.WithField("errors", result.countErrors()).Error("❌ Mapping file validation failed")
	}
	return result
}

// validateLive connects to both setups, runs the existence pass on each
// and then the checks that need both sides at once.
func (v *Validator) validateLive(ctx context.Context, doc *mapping.Document, result *Result) {
	setups := make(map[setup.Site]setup.Setup, 2)
	defer func() {
		for site, s := range setups {
			if err := s.Close(); err != nil {
				log.WithError(err).WithField("site", site).Warn("Failed to close setup connection")
			}
		}
	}()

	for _, site := range []setup.Site{setup.Primary, setup.Secondary} {
		s := v.connect(ctx, doc, site, result)
		if s == nil {
			continue
		}
		setups[site] = s

		inv, err := setup.Collect(ctx, s, nil)
		if err != nil {
			result.errorf(PassExistence, site, "", "Failed to enumerate the %s setup: %v", site, err)
			continue
		}
		checkExistence(doc, site, inv, result)
		checkNetworks(doc, site, inv, result)
	}

	if v.opts.FailbackChecks {
		for _, site := range []setup.Site{setup.Primary, setup.Secondary} {
			if s, ok := setups[site]; ok {
				checkFailbackVMs(ctx, s, site, result)
			}
		}
	}

	primary, okPrimary := setups[setup.Primary]
	secondary, okSecondary := setups[setup.Secondary]
	if okPrimary && okSecondary {
		checkClusterVersions(ctx, doc, primary, secondary, result)
	}
}

func (v *Validator) connect(ctx context.Context, doc *mapping.Document, site setup.Site, result *Result) setup.Setup {
	url, username, caFile := doc.Site(site)
	creds := setup.Credentials{URL: url, Username: username, CAFile: caFile, Password: v.opts.PrimaryPassword}
	if site == setup.Secondary {
		creds.Password = v.opts.SecondaryPassword
	}

	s, err := v.opts.Dialer(ctx, creds)
	if err != nil {
		result.errorf(PassExistence, site, "",
			"Connection to %s setup has failed. Please check your credentials: URL: %s, user: %s, CA file: %s",
			site, creds.URL, creds.Username, creds.CAFile)
		log.WithError(err).WithField("site", site).Debug("Connection failure detail")
		return nil
	}
	return s
}
