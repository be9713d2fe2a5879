package validator

import (
	"fmt"

	"github.com/vexxhost/ovirt-dr/internal/setup"
)

// Pass names a validation stage.
type Pass string

const (
	PassStructural Pass = "structural"
	PassDuplicate  Pass = "duplicate"
	PassExistence  Pass = "existence"
	PassSemantic   Pass = "semantic"
	PassLeftover   Pass = "leftover"
)

// Severity grades a finding. Only errors fail validation.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Finding is one validation message.
type Finding struct {
	Pass     Pass
	Severity Severity
	Site     setup.Site
	Section  string
	Message  string
}

func (f Finding) String() string {
	return f.Message
}

// Result collects the findings of a validation run.
type Result struct {
	Findings []Finding
}

// OK reports whether no error findings were recorded.
func (r *Result) OK() bool {
	return len(r.Errors()) == 0
}

// Errors returns the error findings.
func (r *Result) Errors() []Finding {
	return r.filter(SeverityError)
}

// Warnings returns the warning findings.
func (r *Result) Warnings() []Finding {
	return r.filter(SeverityWarning)
}

// ByPass returns the findings of pass p.
func (r *Result) ByPass(p Pass) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Pass == p {
			out = append(out, f)
		}
	}
	return out
}

func (r *Result) filter(s Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

func (r *Result) add(f Finding) {
	r.Findings = append(r.Findings, f)
}

func (r *Result) errorf(pass Pass, site setup.Site, section, format string, args ...interface{}) {
	r.add(Finding{Pass: pass, Severity: SeverityError, Site: site, Section: section, Message: fmt.Sprintf(format, args...)})
}

func (r *Result) warnf(pass Pass, site setup.Site, section, format string, args ...interface{}) {
	r.add(Finding{Pass: pass, Severity: SeverityWarning, Site: site, Section: section, Message: fmt.Sprintf(format, args...)})
}

func (r *Result) infof(pass Pass, site setup.Site, section, format string, args ...interface{}) {
	r.add(Finding{Pass: pass, Severity: SeverityInfo, Site: site, Section: section, Message: fmt.Sprintf(format, args...)})
}

func (r *Result) countErrors() int {
	return len(r.Errors())
}
