// Package setuptest provides an in-memory setup.Setup for tests.
package setuptest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vexxhost/ovirt-dr/internal/setup"
)

// Fake is an in-memory engine. IDs are derived from names so fixtures stay
// readable in assertions.
type Fake struct {
	mu sync.Mutex

	DatacenterList  []setup.Datacenter
	DomainsByDC     map[string][]setup.StorageDomain
	ClusterList     []setup.Cluster
	GroupsByCluster map[string][]setup.AffinityGroup
	LabelList       []setup.AffinityLabel
	AuthDomainList  []setup.AuthDomain
	NetworkList     []setup.Network
	ProfileList     []setup.VnicProfile
	DiskList        []setup.LunDisk
	HostStorageList []setup.HostStorage
	VMList          []setup.VM

	// Err, when set, is returned from every call.
	Err error

	Closed   bool
	Searches []string
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		DomainsByDC:     make(map[string][]setup.StorageDomain),
		GroupsByCluster: make(map[string][]setup.AffinityGroup),
	}
}

// AddDatacenter adds a datacenter and returns its id.
func (f *Fake) AddDatacenter(name string) string {
	id := "dc-" + name
	f.DatacenterList = append(f.DatacenterList, setup.Datacenter{ID: id, Name: name})
	return id
}

// AddCluster adds a cluster to a datacenter and returns its id.
func (f *Fake) AddCluster(dcID, name string, major, minor int64) string {
	id := "cluster-" + name
	f.ClusterList = append(f.ClusterList, setup.Cluster{
		ID:           id,
		Name:         name,
		DatacenterID: dcID,
		Version:      setup.Version{Major: major, Minor: minor},
	})
	return id
}

// AddStorageDomain attaches sd to a datacenter.
func (f *Fake) AddStorageDomain(dcID string, sd setup.StorageDomain) {
	if sd.ID == "" {
		sd.ID = "sd-" + sd.Name
	}
	f.DomainsByDC[dcID] = append(f.DomainsByDC[dcID], sd)
}

// AddAffinityGroup adds an affinity group to a cluster.
func (f *Fake) AddAffinityGroup(clusterID, name string) {
	f.GroupsByCluster[clusterID] = append(f.GroupsByCluster[clusterID], setup.AffinityGroup{
		ID:        "ag-" + name,
		Name:      name,
		ClusterID: clusterID,
	})
}

// AddAffinityLabel adds a global affinity label.
func (f *Fake) AddAffinityLabel(name string) {
	f.LabelList = append(f.LabelList, setup.AffinityLabel{ID: "al-" + name, Name: name})
}

// AddAuthDomain adds an AAA domain.
func (f *Fake) AddAuthDomain(name string) {
	f.AuthDomainList = append(f.AuthDomainList, setup.AuthDomain{ID: "aaa-" + name, Name: name})
}

// AddProfile adds a network in dcID (once) and a vnic profile on it. It
// returns the profile id.
func (f *Fake) AddProfile(dcID, network, profile string) string {
	networkID := "net-" + dcID + "-" + network
	found := false
	for _, n := range f.NetworkList {
		if n.ID == networkID {
			found = true
			break
		}
	}
	if !found {
		f.NetworkList = append(f.NetworkList, setup.Network{ID: networkID, Name: network, DatacenterID: dcID})
	}
	id := fmt.Sprintf("profile-%s-%s", networkID, profile)
	f.ProfileList = append(f.ProfileList, setup.VnicProfile{ID: id, Name: profile, NetworkID: networkID})
	return id
}

// Dialer returns a setup.Dialer resolving credentials by URL.
func Dialer(setups map[string]*Fake) setup.Dialer {
	return func(ctx context.Context, creds setup.Credentials) (setup.Setup, error) {
		f, ok := setups[creds.URL]
		if !ok {
			return nil, &setup.ConnectError{Credentials: creds, Err: fmt.Errorf("no route to %s", creds.URL)}
		}
		return f, nil
	}
}

func (f *Fake) Datacenters(ctx context.Context) ([]setup.Datacenter, error) {
	return f.DatacenterList, f.Err
}

func (f *Fake) StorageDomains(ctx context.Context, datacenterID string) ([]setup.StorageDomain, error) {
	return f.DomainsByDC[datacenterID], f.Err
}

func (f *Fake) Clusters(ctx context.Context, datacenterID string) ([]setup.Cluster, error) {
	var result []setup.Cluster
	for _, c := range f.ClusterList {
		if c.DatacenterID == datacenterID {
			result = append(result, c)
		}
	}
	return result, f.Err
}

func (f *Fake) AffinityGroups(ctx context.Context, clusterID string) ([]setup.AffinityGroup, error) {
	return f.GroupsByCluster[clusterID], f.Err
}

func (f *Fake) AffinityLabels(ctx context.Context) ([]setup.AffinityLabel, error) {
	return f.LabelList, f.Err
}

func (f *Fake) AuthDomains(ctx context.Context) ([]setup.AuthDomain, error) {
	return f.AuthDomainList, f.Err
}

func (f *Fake) Networks(ctx context.Context) ([]setup.Network, error) {
	return f.NetworkList, f.Err
}

func (f *Fake) VnicProfiles(ctx context.Context) ([]setup.VnicProfile, error) {
	return f.ProfileList, f.Err
}

func (f *Fake) LunDisks(ctx context.Context) ([]setup.LunDisk, error) {
	return f.DiskList, f.Err
}

func (f *Fake) ActiveHostStorage(ctx context.Context) ([]setup.HostStorage, error) {
	return f.HostStorageList, f.Err
}

// SearchClusters understands the "name=<value>" expression only.
func (f *Fake) SearchClusters(ctx context.Context, expression string) ([]setup.Cluster, error) {
	f.mu.Lock()
	f.Searches = append(f.Searches, expression)
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	name, ok := strings.CutPrefix(expression, "name=")
	if !ok {
		return nil, fmt.Errorf("unsupported search expression %q", expression)
	}
	var result []setup.Cluster
	for _, c := range f.ClusterList {
		if c.Name == name {
			result = append(result, c)
		}
	}
	return result, nil
}

func (f *Fake) VMs(ctx context.Context) ([]setup.VM, error) {
	return f.VMList, f.Err
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
