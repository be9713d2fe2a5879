package validator

import (
	"sort"

	"github.com/vexxhost/ovirt-dr/internal/mapping"
	"github.com/vexxhost/ovirt-dr/internal/setup"
)

var sites = []setup.Site{setup.Primary, setup.Secondary}

// duplicates returns the keys occurring more than once, sorted. Blank keys
// are ignored.
func duplicates(keys []string) []string {
	counts := make(map[string]int, len(keys))
	for _, k := range keys {
		if k != "" {
			counts[k]++
		}
	}
	var dups []string
	for k, n := range counts {
		if n > 1 {
			dups = append(dups, k)
		}
	}
	sort.Strings(dups)
	return dups
}

func checkDuplicates(doc *mapping.Document, result *Result) {
	if len(doc.Storages) == 0 {
		result.warnf(PassDuplicate, "", mapping.SectionStorages, "mapping %s is empty in var file", mapping.SectionStorages)
	}
	for _, site := range sites {
		keys := make([]string, 0, len(doc.Storages))
		for _, s := range doc.Storages {
			keys = append(keys, s.Name(site))
		}
		reportDuplicates(result, site, mapping.SectionStorages, keys)
	}

	named := doc.NameSections()
	for _, section := range mapping.Sections {
		entries, ok := named[section]
		if !ok {
			continue
		}
		if len(entries) == 0 {
			result.warnf(PassDuplicate, "", section, "mapping %s is empty in var file", section)
			continue
		}
		for _, site := range sites {
			keys := make([]string, 0, len(entries))
			for _, e := range entries {
				keys = append(keys, e.Name(site))
			}
			reportDuplicates(result, site, section, keys)
		}
	}

	checkNetworkDuplicates(doc, result)
}

func checkNetworkDuplicates(doc *mapping.Document, result *Result) {
	if len(doc.Networks) == 0 {
		result.warnf(PassDuplicate, "", mapping.SectionNetworks, "Network has not been initialized in var file")
		return
	}
	for _, site := range sites {
		keys := make([]string, 0, len(doc.Networks))
		for i, n := range doc.Networks {
			key := n.Key(site)
			if !key.Initialized() {
				result.errorf(PassDuplicate, site, mapping.SectionNetworks,
					"Network mapping entry %d is not initialized in the %s setup: profile '%s', network '%s'",
					i+1, site, key.Profile, key.Network)
				continue
			}
			keys = append(keys, key.String())
		}
		reportDuplicates(result, site, mapping.SectionNetworks, keys)
	}
}

func reportDuplicates(result *Result, site setup.Site, section string, keys []string) {
	if dups := duplicates(keys); len(dups) > 0 {
		result.errorf(PassDuplicate, site, section,
			"Found the following duplicate keys in the %s setup of %s: %v", site, section, dups)
	}
}
