package validator

import (
	"sort"

	"github.com/vexxhost/ovirt-dr/internal/mapping"
	"github.com/vexxhost/ovirt-dr/internal/setup"
)

// checkExistence confirms that every named entity of site exists in inv.
func checkExistence(doc *mapping.Document, site setup.Site, inv *setup.Inventory, result *Result) {
	checks := []struct {
		section  string
		entity   string
		entries  []mapping.NameMapping
		existing []string
	}{
		{mapping.SectionClusters, "cluster", doc.Clusters, inv.ClusterNames()},
		{mapping.SectionAffinityGroups, "affinity group", doc.AffinityGroups, inv.AffinityGroupNames()},
		{mapping.SectionAffinityLabels, "affinity label", doc.AffinityLabels, inv.AffinityLabelNames()},
		{mapping.SectionDomains, "domain", doc.Domains, inv.AuthDomainNames()},
	}

	for _, c := range checks {
		known := make(map[string]bool, len(c.existing))
		for _, name := range c.existing {
			known[name] = true
		}
		for i, e := range c.entries {
			if e.IsTemplate() {
				continue
			}
			name := e.Name(site)
			if name == "" {
				result.errorf(PassExistence, site, c.section,
					"dictionary key '%s_name' is not set in %s entry %d", site, c.section, i+1)
				continue
			}
			if !known[name] {
				result.errorf(PassExistence, site, c.section,
					"%s entity '%s':'%s' does not exist in the setup. The entities which exist in the setup are: %v",
					site, c.entity, name, c.existing)
			}
		}
	}
}

// checkNetworks confirms that every mapped vnic profile exists on site and
// rejects profile/network pairs that exist in several datacenters when the
// mapping does not name the datacenter.
func checkNetworks(doc *mapping.Document, site setup.Site, inv *setup.Inventory, result *Result) {
	ambiguous := inv.AmbiguousProfiles()
	existing := make([]string, 0, len(inv.Profiles))
	for _, p := range inv.Profiles {
		existing = append(existing, mapping.NetworkKey{Profile: p.ProfileName, Network: p.NetworkName, Datacenter: p.DatacenterName}.String())
	}
	sort.Strings(existing)

	for _, n := range doc.Networks {
		key := n.Key(site)
		if !key.Initialized() {
			continue
		}
		if !hasProfile(inv, key) {
			result.errorf(PassExistence, site, mapping.SectionNetworks,
				"%s entity 'vnic profile':'%s' does not exist in the setup. The entities which exist in the setup are: %v",
				site, key, existing)
			continue
		}
		if key.Datacenter != "" {
			continue
		}
		if dcs, ok := ambiguous[setup.ProfileKey(key.Profile, key.Network)]; ok {
			result.errorf(PassExistence, site, mapping.SectionNetworks,
				"Vnic profile name '%s' and network name '%s' are related to multiple data centers %v in the %s setup. Please specify the data center name in the mapping var file.",
				key.Profile, key.Network, dcs, site)
		}
	}
}

// hasProfile matches the profile and network names, and the datacenter when
// the mapping names one.
func hasProfile(inv *setup.Inventory, key mapping.NetworkKey) bool {
	for _, p := range inv.Profiles {
		if p.ProfileName != key.Profile || p.NetworkName != key.Network {
			continue
		}
		if key.Datacenter == "" || key.Datacenter == p.DatacenterName {
			return true
		}
	}
	return false
}
