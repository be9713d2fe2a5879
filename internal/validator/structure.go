package validator

import (
	"github.com/vexxhost/ovirt-dr/internal/mapping"
	"github.com/vexxhost/ovirt-dr/internal/setup"
)

var siteKeys = []struct {
	site  setup.Site
	field string
	key   string
}{
	{setup.Primary, "url", mapping.KeyPrimaryURL},
	{setup.Primary, "username", mapping.KeyPrimaryUsername},
	{setup.Primary, "ca", mapping.KeyPrimaryCAFile},
	{setup.Secondary, "url", mapping.KeySecondaryURL},
	{setup.Secondary, "username", mapping.KeySecondaryUsername},
	{setup.Secondary, "ca", mapping.KeySecondaryCAFile},
}

// checkStructure verifies that every section is a list and that both site
// descriptors are complete. It returns the decoded document, or nil when
// nothing later can be trusted.
func checkStructure(raw *mapping.Raw, result *Result) *mapping.Document {
	for _, section := range mapping.Sections {
		if raw.Shape(section) == mapping.ShapeOther {
			result.errorf(PassStructural, "", section,
				"%s is not a list: '%s'. Please check your mapping file", section, raw.Value(section))
		}
	}
	for _, k := range siteKeys {
		if !raw.Has(k.key) {
			result.errorf(PassStructural, k.site, "",
				"The '%s' field in the %s setup is not initialized in var file mapping.", k.field, k.site)
		}
	}
	if !result.OK() {
		return nil
	}

	doc, err := raw.Decode()
	if err != nil {
		result.errorf(PassStructural, "", "", "%v", err)
		return nil
	}
	return doc
}
