package validator

import (
	"context"
	"strings"

	"github.com/vexxhost/ovirt-dr/internal/mapping"
	"github.com/vexxhost/ovirt-dr/internal/setup"
)

// checkUnsupportedDomains rejects hosted-engine and export domains.
func checkUnsupportedDomains(doc *mapping.Document, result *Result) {
	for _, s := range doc.Storages {
		if s.PrimaryName == setup.HostedStorageName || s.SecondaryName == setup.HostedStorageName {
			result.errorf(PassSemantic, "", mapping.SectionStorages,
				"Hosted storage domains are not supported. Storage domain '%s' should be removed from the mapping.", s.PrimaryName)
		}
		if strings.EqualFold(s.StorageDomainType, setup.DomainTypeExport) {
			result.errorf(PassSemantic, "", mapping.SectionStorages,
				"Export storage domain '%s' is not supported. It should be removed from the mapping.", s.PrimaryName)
		}
	}
}

// checkClusterVersions compares the compatibility version of every mapped
// cluster pair.
func checkClusterVersions(ctx context.Context, doc *mapping.Document, primary, secondary setup.Setup, result *Result) {
	for _, c := range doc.Clusters {
		if c.PrimaryName == "" || c.SecondaryName == "" {
			continue
		}
		pv, ok := clusterVersion(ctx, primary, setup.Primary, c.PrimaryName, result)
		if !ok {
			continue
		}
		sv, ok := clusterVersion(ctx, secondary, setup.Secondary, c.SecondaryName, result)
		if !ok {
			continue
		}
		if pv != sv {
			result.errorf(PassSemantic, "", mapping.SectionClusters,
				"Clusters have incompatible versions. primary setup ('%s' %s) is not equal to secondary setup ('%s' %s)",
				c.PrimaryName, pv, c.SecondaryName, sv)
		}
	}
}

func clusterVersion(ctx context.Context, s setup.Setup, site setup.Site, name string, result *Result) (setup.Version, bool) {
	clusters, err := s.SearchClusters(ctx, "name="+name)
	if err != nil {
		result.errorf(PassSemantic, site, mapping.SectionClusters, "Failed to look up cluster '%s' in the %s setup: %v", name, site, err)
		return setup.Version{}, false
	}
	if len(clusters) == 0 {
		// already reported by the existence pass
		return setup.Version{}, false
	}
	return clusters[0].Version, true
}

// checkFailbackVMs rejects VMs that would block a failback on site.
func checkFailbackVMs(ctx context.Context, s setup.Setup, site setup.Site, result *Result) {
	vms, err := s.VMs(ctx)
	if err != nil {
		result.errorf(PassSemantic, site, "", "Failed to list VMs in the %s setup: %v", site, err)
		return
	}
	for _, vm := range vms {
		if vm.InPreview {
			result.errorf(PassSemantic, site, "",
				"VM '%s' in the %s setup has a snapshot in preview. Commit or undo the preview before failback.", vm.Name, site)
		}
		if vm.DeleteProtected {
			result.errorf(PassSemantic, site, "",
				"VM '%s' in the %s setup is delete protected. Remove the protection before failback.", vm.Name, site)
		}
	}
}
