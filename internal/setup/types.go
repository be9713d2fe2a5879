package setup

import (
	"fmt"
	"strings"
)

// Storage and domain type names as reported by the engine.
const (
	StorageTypeNFS       = "nfs"
	StorageTypeISCSI     = "iscsi"
	StorageTypeFCP       = "fcp"
	StorageTypePosixFS   = "posixfs"
	StorageTypeGlusterFS = "glusterfs"

	DomainTypeData   = "data"
	DomainTypeISO    = "iso"
	DomainTypeExport = "export"

	// HostedStorageName is the reserved name of the hosted-engine storage domain.
	HostedStorageName = "hosted_storage"
)

// Version is a cluster compatibility version.
type Version struct {
	Major int64
	Minor int64
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Datacenter is a named datacenter in a setup.
type Datacenter struct {
	ID   string
	Name string
}

// StorageDomain is a storage domain attached to a datacenter.
type StorageDomain struct {
	ID                         string
	Name                       string
	Type                       string
	StorageType                string
	Master                     bool
	Backup                     bool
	WipeAfterDelete            bool
	DiscardAfterDelete         bool
	CriticalSpaceActionBlocker int64
	WarningLowSpace            int64

	// File storage
	Path    string
	Address string
	VfsType string

	// Block storage, one entry per logical unit of the volume group
	LogicalUnits []LogicalUnit
}

// IsBlock reports whether the domain is backed by iSCSI or FCP.
func (sd StorageDomain) IsBlock() bool {
	return sd.StorageType == StorageTypeISCSI || sd.StorageType == StorageTypeFCP
}

// IsHosted reports whether the domain holds the hosted engine.
func (sd StorageDomain) IsHosted() bool {
	return sd.Name == HostedStorageName
}

// IsExport reports whether the domain is an export domain.
func (sd StorageDomain) IsExport() bool {
	return sd.Type == DomainTypeExport
}

// Targets returns the distinct iSCSI targets of the domain in first-seen order.
func (sd StorageDomain) Targets() []string {
	seen := make(map[string]bool)
	var targets []string
	for _, lu := range sd.LogicalUnits {
		if lu.Target == "" || seen[lu.Target] {
			continue
		}
		seen[lu.Target] = true
		targets = append(targets, lu.Target)
	}
	return targets
}

// Cluster is a cluster attached to a datacenter.
type Cluster struct {
	ID           string
	Name         string
	DatacenterID string
	Version      Version
}

// AffinityGroup is a scheduling group scoped to a cluster.
type AffinityGroup struct {
	ID        string
	Name      string
	ClusterID string
}

// AffinityLabel is a global scheduling label.
type AffinityLabel struct {
	ID   string
	Name string
}

// AuthDomain is an AAA authentication domain.
type AuthDomain struct {
	ID   string
	Name string
}

// Network is a logical network owned by a datacenter.
type Network struct {
	ID           string
	Name         string
	DatacenterID string
}

// VnicProfile is a network attachment profile.
type VnicProfile struct {
	ID        string
	Name      string
	NetworkID string
}

// LogicalUnit describes a LUN as seen through host storage or a volume group.
type LogicalUnit struct {
	ID       string
	Address  string
	Port     int64
	Portal   string
	Target   string
	Username string
}

// PortalGroup returns the second comma separated field of the portal, which
// carries the target portal group tag.
func (lu LogicalUnit) PortalGroup() string {
	parts := strings.Split(lu.Portal, ",")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// HostStorage is a storage device reported by an active host.
type HostStorage struct {
	ID           string
	StorageType  string
	LogicalUnits []LogicalUnit
}

// LunDisk is a directly attached external LUN disk.
type LunDisk struct {
	ID              string
	Alias           string
	Description     string
	WipeAfterDelete bool
	Shareable       bool
	LogicalUnitID   string
}

// VM is the subset of virtual machine state relevant to failback.
type VM struct {
	ID              string
	Name            string
	DeleteProtected bool
	InPreview       bool
}
