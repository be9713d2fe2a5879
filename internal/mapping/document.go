// Package mapping holds the DR mapping document: the YAML file that pairs
// entities of the primary setup with their counterparts on the secondary.
package mapping

import (
	"github.com/vexxhost/ovirt-dr/internal/setup"
)

// Section keys of the mapping document.
const (
	KeyPrimaryURL        = "dr_sites_primary_url"
	KeyPrimaryUsername   = "dr_sites_primary_username"
	KeyPrimaryCAFile     = "dr_sites_primary_ca_file"
	KeySecondaryURL      = "dr_sites_secondary_url"
	KeySecondaryUsername = "dr_sites_secondary_username"
	KeySecondaryCAFile   = "dr_sites_secondary_ca_file"

	SectionStorages       = "dr_import_storages"
	SectionClusters       = "dr_cluster_mappings"
	SectionAffinityGroups = "dr_affinity_group_mappings"
	SectionAffinityLabels = "dr_affinity_label_mappings"
	SectionDomains        = "dr_domain_mappings"
	SectionRoles          = "dr_role_mappings"
	SectionNetworks       = "dr_network_mappings"
	SectionLuns           = "dr_lun_mappings"
)

// Sections lists every mapping section in document order.
var Sections = []string{
	SectionStorages,
	SectionClusters,
	SectionAffinityGroups,
	SectionAffinityLabels,
	SectionDomains,
	SectionRoles,
	SectionNetworks,
	SectionLuns,
}

// StorageTypeUnknown is written when no active host reports a LUN.
const StorageTypeUnknown = "STORAGE TYPE COULD NOT BE FETCHED!"

// PasswordPlaceholder marks iSCSI passwords that must be filled in by hand.
const PasswordPlaceholder = "PLEASE_SET_PASSWORD_HERE"

// Document is the parsed mapping file.
type Document struct {
	PrimaryURL        string `yaml:"dr_sites_primary_url"`
	PrimaryUsername   string `yaml:"dr_sites_primary_username"`
	PrimaryCAFile     string `yaml:"dr_sites_primary_ca_file"`
	SecondaryURL      string `yaml:"dr_sites_secondary_url"`
	SecondaryUsername string `yaml:"dr_sites_secondary_username"`
	SecondaryCAFile   string `yaml:"dr_sites_secondary_ca_file"`

	Storages       []StorageMapping `yaml:"dr_import_storages"`
	Clusters       []NameMapping    `yaml:"dr_cluster_mappings"`
	AffinityGroups []NameMapping    `yaml:"dr_affinity_group_mappings"`
	AffinityLabels []NameMapping    `yaml:"dr_affinity_label_mappings"`
	Domains        []NameMapping    `yaml:"dr_domain_mappings"`
	Roles          []NameMapping    `yaml:"dr_role_mappings"`
	Networks       []NetworkMapping `yaml:"dr_network_mappings"`
	Luns           []LunMapping     `yaml:"dr_lun_mappings"`

	// Advisories are storage domains deliberately left out of the mapping.
	// They are written as comments and never read back.
	Advisories []Advisory `yaml:"-"`
}

// Site returns the site descriptor of s.
func (d *Document) Site(s setup.Site) (url, username, caFile string) {
	if s == setup.Secondary {
		return d.SecondaryURL, d.SecondaryUsername, d.SecondaryCAFile
	}
	return d.PrimaryURL, d.PrimaryUsername, d.PrimaryCAFile
}

// NameSections returns the name-pair sections keyed by section name.
func (d *Document) NameSections() map[string][]NameMapping {
	return map[string][]NameMapping{
		SectionClusters:       d.Clusters,
		SectionAffinityGroups: d.AffinityGroups,
		SectionAffinityLabels: d.AffinityLabels,
		SectionDomains:        d.Domains,
		SectionRoles:          d.Roles,
	}
}

// NameMapping pairs one entity name across sites.
type NameMapping struct {
	PrimaryName   string `yaml:"primary_name"`
	SecondaryName string `yaml:"secondary_name"`
}

// Name returns the entity name on site s.
func (m NameMapping) Name(s setup.Site) string {
	if s == setup.Secondary {
		return m.SecondaryName
	}
	return m.PrimaryName
}

// IsTemplate reports whether both sides are blank, which is how unused
// template entries are written.
func (m NameMapping) IsTemplate() bool {
	return m.PrimaryName == "" && m.SecondaryName == ""
}

// StorageMapping pairs an attached storage domain across sites.
type StorageMapping struct {
	DomainType                 string `yaml:"dr_domain_type"`
	WipeAfterDelete            bool   `yaml:"dr_wipe_after_delete"`
	Backup                     bool   `yaml:"dr_backup"`
	CriticalSpaceActionBlocker int64  `yaml:"dr_critical_space_action_blocker"`
	StorageDomainType          string `yaml:"dr_storage_domain_type"`
	WarningLowSpace            int64  `yaml:"dr_warning_low_space"`

	PrimaryName         string   `yaml:"dr_primary_name"`
	PrimaryMasterDomain bool     `yaml:"dr_primary_master_domain"`
	PrimaryDCName       string   `yaml:"dr_primary_dc_name"`
	PrimaryPath         string   `yaml:"dr_primary_path,omitempty"`
	PrimaryAddress      string   `yaml:"dr_primary_address,omitempty"`
	PrimaryVfsType      string   `yaml:"dr_primary_vfs_type,omitempty"`
	PrimaryPort         int64    `yaml:"dr_primary_port,omitempty"`
	PrimaryTarget       []string `yaml:"dr_primary_target,omitempty"`

	DiscardAfterDelete bool   `yaml:"dr_discard_after_delete,omitempty"`
	DomainID           string `yaml:"dr_domain_id,omitempty"`

	SecondaryName         string   `yaml:"dr_secondary_name"`
	SecondaryMasterDomain *bool    `yaml:"dr_secondary_master_domain"`
	SecondaryDCName       string   `yaml:"dr_secondary_dc_name"`
	SecondaryPath         string   `yaml:"dr_secondary_path,omitempty"`
	SecondaryAddress      string   `yaml:"dr_secondary_address,omitempty"`
	SecondaryVfsType      string   `yaml:"dr_secondary_vfs_type,omitempty"`
	SecondaryPort         int64    `yaml:"dr_secondary_port,omitempty"`
	SecondaryTarget       []string `yaml:"dr_secondary_target,omitempty"`
}

// Name returns the storage domain name on site s.
func (m StorageMapping) Name(s setup.Site) string {
	if s == setup.Secondary {
		return m.SecondaryName
	}
	return m.PrimaryName
}

func (m StorageMapping) isBlock() bool {
	return m.DomainType == setup.StorageTypeISCSI || m.DomainType == setup.StorageTypeFCP
}

// NetworkMapping pairs a vnic profile across sites.
type NetworkMapping struct {
	PrimaryNetworkName   string `yaml:"primary_network_name"`
	PrimaryNetworkDC     string `yaml:"primary_network_dc,omitempty"`
	PrimaryProfileName   string `yaml:"primary_profile_name"`
	PrimaryProfileID     string `yaml:"primary_profile_id"`
	SecondaryNetworkName string `yaml:"secondary_network_name"`
	SecondaryNetworkDC   string `yaml:"secondary_network_dc,omitempty"`
	SecondaryProfileName string `yaml:"secondary_profile_name"`
	SecondaryProfileID   string `yaml:"secondary_profile_id"`

	// DatacenterHint is written as a commented network_dc line when the
	// datacenter is not needed to disambiguate the profile.
	DatacenterHint string `yaml:"-"`
}

// Key returns the composite (profile, network, datacenter) key of site s.
// The datacenter part is empty when the mapping omits it.
func (m NetworkMapping) Key(s setup.Site) NetworkKey {
	if s == setup.Secondary {
		return NetworkKey{Profile: m.SecondaryProfileName, Network: m.SecondaryNetworkName, Datacenter: m.SecondaryNetworkDC}
	}
	return NetworkKey{Profile: m.PrimaryProfileName, Network: m.PrimaryNetworkName, Datacenter: m.PrimaryNetworkDC}
}

// NetworkKey identifies a vnic profile within one setup.
type NetworkKey struct {
	Profile    string
	Network    string
	Datacenter string
}

func (k NetworkKey) String() string {
	return k.Profile + "_" + k.Network + "_" + k.Datacenter
}

// Initialized reports whether both the profile and network names are set.
func (k NetworkKey) Initialized() bool {
	return k.Profile != "" && k.Network != ""
}

// LunMapping pairs an external LUN disk across sites.
type LunMapping struct {
	Alias           string `yaml:"logical_unit_alias"`
	Description     string `yaml:"logical_unit_description"`
	WipeAfterDelete bool   `yaml:"wipe_after_delete"`
	Shareable       bool   `yaml:"shareable"`

	PrimaryLogicalUnitID string `yaml:"primary_logical_unit_id"`
	PrimaryStorageType   string `yaml:"primary_storage_type,omitempty"`
	PrimaryAddress       string `yaml:"primary_logical_unit_address,omitempty"`
	PrimaryPort          int64  `yaml:"primary_logical_unit_port,omitempty"`
	PrimaryPortal        string `yaml:"primary_logical_unit_portal,omitempty"`
	PrimaryTarget        string `yaml:"primary_logical_unit_target,omitempty"`
	PrimaryUsername      string `yaml:"primary_logical_unit_username,omitempty"`
	PrimaryPassword      string `yaml:"primary_logical_unit_password,omitempty"`

	SecondaryStorageType   string `yaml:"secondary_storage_type"`
	SecondaryLogicalUnitID string `yaml:"secondary_logical_unit_id"`
	SecondaryAddress       string `yaml:"secondary_logical_unit_address,omitempty"`
	SecondaryPort          int64  `yaml:"secondary_logical_unit_port,omitempty"`
	SecondaryPortal        string `yaml:"secondary_logical_unit_portal,omitempty"`
	SecondaryTarget        string `yaml:"secondary_logical_unit_target,omitempty"`
	SecondaryUsername      string `yaml:"secondary_logical_unit_username,omitempty"`
	SecondaryPassword      string `yaml:"secondary_logical_unit_password,omitempty"`
}

func (m LunMapping) isISCSI() bool {
	return m.PrimaryStorageType == setup.StorageTypeISCSI
}

// Advisory records a storage domain excluded from dr_import_storages.
type Advisory struct {
	Reason     string
	DomainType string
	Name       string
	DCName     string
}
