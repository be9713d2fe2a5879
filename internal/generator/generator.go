// Package generator builds a DR mapping document from the primary setup.
package generator

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vexxhost/ovirt-dr/internal/mapping"
	"github.com/vexxhost/ovirt-dr/internal/progress"
	"github.com/vexxhost/ovirt-dr/internal/setup"
)

const (
	hostedAdvisory = "Hosted storage should not be part of the recovery process! Comment it out."
	exportAdvisory = "Export storage domain should not be part of the recovery process!\n" +
		"# Please note that a data center with an export storage domain might reflect on the failback process."
)

// Generator enumerates a setup and produces its mapping document.
type Generator struct {
	Reporter progress.Reporter
}

// New returns a Generator reporting enumeration progress to reporter.
func New(reporter progress.Reporter) *Generator {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	return &Generator{Reporter: reporter}
}

// Generate enumerates s and returns the mapping document with primary
// values filled in and secondary values left blank. creds supply the site
// descriptor header; the password is never written.
func (g *Generator) Generate(ctx context.Context, s setup.Setup, creds setup.Credentials) (*mapping.Document, error) {
	logger := log.WithField("url", creds.URL)
	logger.Info("🔍 Enumerating primary setup")

	inv, err := setup.Collect(ctx, s, g.Reporter)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate primary setup: %w", err)
	}

	doc := Build(inv)
	doc.PrimaryURL = creds.URL
	doc.PrimaryUsername = creds.Username
	doc.PrimaryCAFile = creds.CAFile

	logger.WithFields(log.Fields{
		"storage_domains": len(doc.Storages),
		"clusters":        len(doc.Clusters),
		"affinity_groups": len(doc.AffinityGroups),
		"affinity_labels": len(doc.AffinityLabels),
		"domains":         len(doc.Domains),
		"networks":        len(doc.Networks),
		"luns":            len(doc.Luns),
		"advisories":      len(doc.Advisories),
	}).Info("✅ Mapping document generated")

	return doc, nil
}

// Build converts an inventory into a mapping document. Output order follows
// enumeration order so repeated runs against an unchanged setup produce the
// same document.
func Build(inv *setup.Inventory) *mapping.Document {
	doc := &mapping.Document{
		Storages:       []mapping.StorageMapping{},
		Clusters:       []mapping.NameMapping{},
		AffinityGroups: []mapping.NameMapping{},
		AffinityLabels: []mapping.NameMapping{},
		Domains:        []mapping.NameMapping{},
		Roles:          []mapping.NameMapping{},
		Networks:       []mapping.NetworkMapping{},
		Luns:           []mapping.LunMapping{},
	}

	for _, dc := range inv.Datacenters {
		for _, sd := range dc.StorageDomains {
			switch {
			case sd.IsHosted():
				doc.Advisories = append(doc.Advisories, advisory(hostedAdvisory, sd, dc.Datacenter.Name))
			case sd.IsExport():
				doc.Advisories = append(doc.Advisories, advisory(exportAdvisory, sd, dc.Datacenter.Name))
			default:
				doc.Storages = append(doc.Storages, storageMapping(sd, dc.Datacenter.Name))
			}
		}
	}

	for _, name := range inv.ClusterNames() {
		doc.Clusters = append(doc.Clusters, mapping.NameMapping{PrimaryName: name})
	}
	for _, name := range inv.AffinityGroupNames() {
		doc.AffinityGroups = append(doc.AffinityGroups, mapping.NameMapping{PrimaryName: name})
	}
	for _, name := range inv.AffinityLabelNames() {
		doc.AffinityLabels = append(doc.AffinityLabels, mapping.NameMapping{PrimaryName: name})
	}
	for _, name := range inv.AuthDomainNames() {
		doc.Domains = append(doc.Domains, mapping.NameMapping{PrimaryName: name})
	}

	ambiguous := inv.AmbiguousProfiles()
	for _, p := range inv.Profiles {
		nm := mapping.NetworkMapping{
			PrimaryNetworkName: p.NetworkName,
			PrimaryProfileName: p.ProfileName,
			PrimaryProfileID:   p.ProfileID,
		}
		// The datacenter is only written when the profile name alone does
		// not identify it.
		if _, ok := ambiguous[setup.ProfileKey(p.ProfileName, p.NetworkName)]; ok {
			nm.PrimaryNetworkDC = p.DatacenterName
		} else {
			nm.DatacenterHint = p.DatacenterName
		}
		doc.Networks = append(doc.Networks, nm)
	}

	for _, disk := range inv.LunDisks {
		doc.Luns = append(doc.Luns, lunMapping(disk, inv.HostStorage))
	}
	return doc
}

func advisory(reason string, sd setup.StorageDomain, dcName string) mapping.Advisory {
	return mapping.Advisory{
		Reason:     reason,
		DomainType: sd.StorageType,
		Name:       sd.Name,
		DCName:     dcName,
	}
}

func storageMapping(sd setup.StorageDomain, dcName string) mapping.StorageMapping {
	m := mapping.StorageMapping{
		DomainType:                 sd.StorageType,
		WipeAfterDelete:            sd.WipeAfterDelete,
		Backup:                     sd.Backup,
		CriticalSpaceActionBlocker: sd.CriticalSpaceActionBlocker,
		StorageDomainType:          sd.Type,
		WarningLowSpace:            sd.WarningLowSpace,
		PrimaryName:                sd.Name,
		PrimaryMasterDomain:        sd.Master,
		PrimaryDCName:              dcName,
	}
	if !sd.IsBlock() {
		m.PrimaryPath = sd.Path
		m.PrimaryAddress = sd.Address
		if sd.StorageType == setup.StorageTypePosixFS {
			m.PrimaryVfsType = sd.VfsType
		}
		return m
	}

	m.DiscardAfterDelete = sd.DiscardAfterDelete
	m.DomainID = sd.ID
	if sd.StorageType == setup.StorageTypeISCSI && len(sd.LogicalUnits) > 0 {
		m.PrimaryAddress = sd.LogicalUnits[0].Address
		m.PrimaryPort = sd.LogicalUnits[0].Port
		m.PrimaryTarget = sd.Targets()
	}
	return m
}

func lunMapping(disk setup.LunDisk, hostStorage map[string]setup.HostStorage) mapping.LunMapping {
	m := mapping.LunMapping{
		Alias:                disk.Alias,
		Description:          disk.Description,
		WipeAfterDelete:      disk.WipeAfterDelete,
		Shareable:            disk.Shareable,
		PrimaryLogicalUnitID: disk.LogicalUnitID,
	}

	hs, ok := hostStorage[disk.LogicalUnitID]
	if !ok {
		log.WithField("logical_unit_id", disk.LogicalUnitID).Warn("⚠️ No active host reports this LUN, storage type left unknown")
		m.SecondaryStorageType = mapping.StorageTypeUnknown
		return m
	}

	m.PrimaryStorageType = hs.StorageType
	m.SecondaryStorageType = hs.StorageType
	if hs.StorageType != setup.StorageTypeISCSI || len(hs.LogicalUnits) == 0 {
		return m
	}
	lu := hs.LogicalUnits[0]
	m.PrimaryAddress = lu.Address
	m.PrimaryPort = lu.Port
	m.PrimaryPortal = lu.PortalGroup()
	m.PrimaryTarget = lu.Target
	if lu.Username != "" {
		m.PrimaryUsername = lu.Username
		m.PrimaryPassword = mapping.PasswordPlaceholder
	}
	return m
}
