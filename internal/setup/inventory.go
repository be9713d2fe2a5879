package setup

import (
	"context"
	"sort"

	"github.com/vexxhost/ovirt-dr/internal/progress"
)

// DatacenterInventory groups what is attached to one datacenter.
type DatacenterInventory struct {
	Datacenter     Datacenter
	StorageDomains []StorageDomain
	Clusters       []ClusterInventory
}

// ClusterInventory is a cluster with its affinity groups.
type ClusterInventory struct {
	Cluster        Cluster
	AffinityGroups []AffinityGroup
}

// ProfileRef is a vnic profile resolved to its network and datacenter names.
type ProfileRef struct {
	ProfileID      string
	ProfileName    string
	NetworkName    string
	DatacenterName string
}

// Inventory is a snapshot of every entity a DR mapping refers to.
type Inventory struct {
	Datacenters    []DatacenterInventory
	AffinityLabels []AffinityLabel
	AuthDomains    []AuthDomain
	Profiles       []ProfileRef
	LunDisks       []LunDisk
	HostStorage    map[string]HostStorage
}

// Collect enumerates s. Datacenters are walked in the order the engine
// returns them; the reporter advances once per datacenter.
func Collect(ctx context.Context, s Setup, reporter progress.Reporter) (*Inventory, error) {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	inv := &Inventory{HostStorage: make(map[string]HostStorage)}

	storages, err := s.ActiveHostStorage(ctx)
	if err != nil {
		return nil, err
	}
	for _, hs := range storages {
		inv.HostStorage[hs.ID] = hs
	}

	if inv.LunDisks, err = s.LunDisks(ctx); err != nil {
		return nil, err
	}
	if inv.AffinityLabels, err = s.AffinityLabels(ctx); err != nil {
		return nil, err
	}
	if inv.AuthDomains, err = s.AuthDomains(ctx); err != nil {
		return nil, err
	}

	dcs, err := s.Datacenters(ctx)
	if err != nil {
		return nil, err
	}
	if inv.Profiles, err = resolveProfiles(ctx, s, dcs); err != nil {
		return nil, err
	}

	reporter.Start(len(dcs), "Enumerating datacenters")
	defer reporter.Finish()
	for _, dc := range dcs {
		reporter.Step(dc.Name)
		dcInv := DatacenterInventory{Datacenter: dc}
		if dcInv.StorageDomains, err = s.StorageDomains(ctx, dc.ID); err != nil {
			return nil, err
		}
		clusters, err := s.Clusters(ctx, dc.ID)
		if err != nil {
			return nil, err
		}
		for _, c := range clusters {
			groups, err := s.AffinityGroups(ctx, c.ID)
			if err != nil {
				return nil, err
			}
			dcInv.Clusters = append(dcInv.Clusters, ClusterInventory{Cluster: c, AffinityGroups: groups})
		}
		inv.Datacenters = append(inv.Datacenters, dcInv)
	}
	return inv, nil
}

func resolveProfiles(ctx context.Context, s Setup, dcs []Datacenter) ([]ProfileRef, error) {
	profiles, err := s.VnicProfiles(ctx)
	if err != nil {
		return nil, err
	}
	networks, err := s.Networks(ctx)
	if err != nil {
		return nil, err
	}
	networkByID := make(map[string]Network, len(networks))
	for _, n := range networks {
		networkByID[n.ID] = n
	}
	dcNames := make(map[string]string, len(dcs))
	for _, dc := range dcs {
		dcNames[dc.ID] = dc.Name
	}

	refs := make([]ProfileRef, 0, len(profiles))
	for _, p := range profiles {
		ref := ProfileRef{ProfileID: p.ID, ProfileName: p.Name}
		if n, ok := networkByID[p.NetworkID]; ok {
			ref.NetworkName = n.Name
			ref.DatacenterName = dcNames[n.DatacenterID]
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// ClusterNames returns every cluster name in datacenter order.
func (inv *Inventory) ClusterNames() []string {
	var names []string
	for _, dc := range inv.Datacenters {
		for _, c := range dc.Clusters {
			names = append(names, c.Cluster.Name)
		}
	}
	return names
}

// AffinityGroupNames returns every affinity group name in enumeration order.
func (inv *Inventory) AffinityGroupNames() []string {
	var names []string
	for _, dc := range inv.Datacenters {
		for _, c := range dc.Clusters {
			for _, g := range c.AffinityGroups {
				names = append(names, g.Name)
			}
		}
	}
	return names
}

// AffinityLabelNames returns every affinity label name.
func (inv *Inventory) AffinityLabelNames() []string {
	names := make([]string, 0, len(inv.AffinityLabels))
	for _, l := range inv.AffinityLabels {
		names = append(names, l.Name)
	}
	return names
}

// AuthDomainNames returns every AAA domain name.
func (inv *Inventory) AuthDomainNames() []string {
	names := make([]string, 0, len(inv.AuthDomains))
	for _, d := range inv.AuthDomains {
		names = append(names, d.Name)
	}
	return names
}

// AmbiguousProfiles returns the (profile, network) pairs that exist in more
// than one datacenter, keyed as "profile/network".
func (inv *Inventory) AmbiguousProfiles() map[string][]string {
	dcs := make(map[string]map[string]bool)
	for _, p := range inv.Profiles {
		key := ProfileKey(p.ProfileName, p.NetworkName)
		if dcs[key] == nil {
			dcs[key] = make(map[string]bool)
		}
		dcs[key][p.DatacenterName] = true
	}
	ambiguous := make(map[string][]string)
	for key, set := range dcs {
		if len(set) < 2 {
			continue
		}
		names := make([]string, 0, len(set))
		for name := range set {
			names = append(names, name)
		}
		sort.Strings(names)
		ambiguous[key] = names
	}
	return ambiguous
}

// ProfileKey builds the lookup key of a vnic profile within its network.
func ProfileKey(profile, network string) string {
	return profile + "/" + network
}
