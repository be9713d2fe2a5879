package setup

import (
	"context"
	"fmt"

	ovirtsdk4 "github.com/ovirt/go-ovirt"
	ovirtclient "github.com/ovirt/go-ovirt-client"
	log "github.com/sirupsen/logrus"
)

// ovirtSetup implements Setup on top of go-ovirt-client. Collections the
// high level client does not model are read through the raw SDK connection
// it exposes.
type ovirtSetup struct {
	client ovirtclient.ClientWithLegacySupport
	conn   *ovirtsdk4.Connection
	logger *log.Entry
}

// Connect opens and verifies a connection to the engine described by creds.
func Connect(ctx context.Context, creds Credentials) (Setup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if missing := creds.Missing(); len(missing) > 0 {
		return nil, &ConnectError{Credentials: creds, Err: fmt.Errorf("missing fields %v", missing)}
	}

	tls := ovirtclient.TLS()
	if creds.Insecure {
		tls.Insecure()
	} else {
		tls.CACertsFromFile(creds.CAFile)
	}

	logger := log.WithFields(log.Fields{
		"url":      creds.URL,
		"username": creds.Username,
	})
	logger.Debug("🔗 Connecting to engine")

	client, err := ovirtclient.New(creds.URL, creds.Username, creds.Password, tls, logger, nil)
	if err != nil {
		return nil, &ConnectError{Credentials: creds, Err: err}
	}
	logger.Debug("✅ Engine connection verified")

	return &ovirtSetup{
		client: client,
		conn:   client.GetSDKClient(),
		logger: logger,
	}, nil
}

func (s *ovirtSetup) system() *ovirtsdk4.SystemService {
	return s.conn.SystemService()
}

func (s *ovirtSetup) Close() error {
	return s.conn.Close()
}

func (s *ovirtSetup) Datacenters(ctx context.Context) ([]Datacenter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dcs, err := s.client.ListDatacenters()
	if err != nil {
		return nil, fmt.Errorf("failed to list datacenters: %w", err)
	}
	result := make([]Datacenter, 0, len(dcs))
	for _, dc := range dcs {
		result = append(result, Datacenter{ID: dc.ID(), Name: dc.Name()})
	}
	return result, nil
}

func (s *ovirtSetup) StorageDomains(ctx context.Context, datacenterID string) ([]StorageDomain, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := s.system().DataCentersService().
		DataCenterService(datacenterID).
		StorageDomainsService().
		List().
		Send()
	if err != nil {
		return nil, fmt.Errorf("failed to list storage domains of datacenter %s: %w", datacenterID, err)
	}
	sds, ok := resp.StorageDomains()
	if !ok {
		return nil, nil
	}
	result := make([]StorageDomain, 0, len(sds.Slice()))
	for _, sd := range sds.Slice() {
		result = append(result, convertStorageDomain(sd))
	}
	return result, nil
}

func (s *ovirtSetup) Clusters(ctx context.Context, datacenterID string) ([]Cluster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := s.system().DataCentersService().
		DataCenterService(datacenterID).
		ClustersService().
		List().
		Send()
	if err != nil {
		return nil, fmt.Errorf("failed to list clusters of datacenter %s: %w", datacenterID, err)
	}
	clusters, ok := resp.Clusters()
	if !ok {
		return nil, nil
	}
	result := make([]Cluster, 0, len(clusters.Slice()))
	for _, c := range clusters.Slice() {
		cluster := convertCluster(c)
		if cluster.DatacenterID == "" {
			cluster.DatacenterID = datacenterID
		}
		result = append(result, cluster)
	}
	return result, nil
}

func (s *ovirtSetup) AffinityGroups(ctx context.Context, clusterID string) ([]AffinityGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := s.system().ClustersService().
		ClusterService(clusterID).
		AffinityGroupsService().
		List().
		Send()
	if err != nil {
		return nil, fmt.Errorf("failed to list affinity groups of cluster %s: %w", clusterID, err)
	}
	groups, ok := resp.Groups()
	if !ok {
		return nil, nil
	}
	result := make([]AffinityGroup, 0, len(groups.Slice()))
	for _, g := range groups.Slice() {
		id, _ := g.Id()
		name, _ := g.Name()
		result = append(result, AffinityGroup{ID: id, Name: name, ClusterID: clusterID})
	}
	return result, nil
}

func (s *ovirtSetup) AffinityLabels(ctx context.Context) ([]AffinityLabel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := s.system().AffinityLabelsService().List().Send()
	if err != nil {
		return nil, fmt.Errorf("failed to list affinity labels: %w", err)
	}
	labels, ok := resp.Labels()
	if !ok {
		return nil, nil
	}
	result := make([]AffinityLabel, 0, len(labels.Slice()))
	for _, l := range labels.Slice() {
		id, _ := l.Id()
		name, _ := l.Name()
		result = append(result, AffinityLabel{ID: id, Name: name})
	}
	return result, nil
}

func (s *ovirtSetup) AuthDomains(ctx context.Context) ([]AuthDomain, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := s.system().DomainsService().List().Send()
	if err != nil {
		return nil, fmt.Errorf("failed to list auth domains: %w", err)
	}
	domains, ok := resp.Domains()
	if !ok {
		return nil, nil
	}
	result := make([]AuthDomain, 0, len(domains.Slice()))
	for _, d := range domains.Slice() {
		id, _ := d.Id()
		name, _ := d.Name()
		result = append(result, AuthDomain{ID: id, Name: name})
	}
	return result, nil
}

func (s *ovirtSetup) Networks(ctx context.Context) ([]Network, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	networks, err := s.client.ListNetworks()
	if err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", err)
	}
	result := make([]Network, 0, len(networks))
	for _, n := range networks {
		result = append(result, Network{ID: n.ID(), Name: n.Name(), DatacenterID: n.DatacenterID()})
	}
	return result, nil
}

func (s *ovirtSetup) VnicProfiles(ctx context.Context) ([]VnicProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	profiles, err := s.client.ListVNICProfiles()
	if err != nil {
		return nil, fmt.Errorf("failed to list vnic profiles: %w", err)
	}
	result := make([]VnicProfile, 0, len(profiles))
	for _, p := range profiles {
		result = append(result, VnicProfile{ID: p.ID(), Name: p.Name(), NetworkID: p.NetworkID()})
	}
	return result, nil
}

func (s *ovirtSetup) LunDisks(ctx context.Context) ([]LunDisk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := s.system().DisksService().List().Send()
	if err != nil {
		return nil, fmt.Errorf("failed to list disks: %w", err)
	}
	disks, ok := resp.Disks()
	if !ok {
		return nil, nil
	}
	var result []LunDisk
	for _, d := range disks.Slice() {
		if st, ok := d.StorageType(); !ok || st != ovirtsdk4.DISKSTORAGETYPE_LUN {
			continue
		}
		disk := LunDisk{}
		disk.ID, _ = d.Id()
		disk.Alias, _ = d.Alias()
		disk.Description, _ = d.Description()
		disk.WipeAfterDelete, _ = d.WipeAfterDelete()
		disk.Shareable, _ = d.Shareable()
		if lun, ok := d.LunStorage(); ok {
			if lus := convertLogicalUnits(lun); len(lus) > 0 {
				disk.LogicalUnitID = lus[0].ID
			}
		}
		result = append(result, disk)
	}
	return result, nil
}

func (s *ovirtSetup) ActiveHostStorage(ctx context.Context) ([]HostStorage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hostsService := s.system().HostsService()
	resp, err := hostsService.List().Search("status=up").Send()
	if err != nil {
		return nil, fmt.Errorf("failed to list active hosts: %w", err)
	}
	hosts, ok := resp.Hosts()
	if !ok {
		return nil, nil
	}

	// A host may fail to see a device and still be up, so every active
	// host is asked and the first report of a device wins.
	seen := make(map[string]bool)
	var result []HostStorage
	for _, h := range hosts.Slice() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hostID, _ := h.Id()
		storageResp, err := hostsService.HostService(hostID).StorageService().List().Send()
		if err != nil {
			return nil, fmt.Errorf("failed to list storage of host %s: %w", hostID, err)
		}
		storages, ok := storageResp.Storages()
		if !ok {
			continue
		}
		for _, hs := range storages.Slice() {
			id, _ := hs.Id()
			if seen[id] {
				continue
			}
			seen[id] = true
			st, _ := hs.Type()
			result = append(result, HostStorage{
				ID:           id,
				StorageType:  string(st),
				LogicalUnits: convertLogicalUnits(hs),
			})
		}
	}
	return result, nil
}

func (s *ovirtSetup) SearchClusters(ctx context.Context, expression string) ([]Cluster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := s.system().ClustersService().List().Search(expression).Send()
	if err != nil {
		return nil, fmt.Errorf("failed to search clusters %q: %w", expression, err)
	}
	clusters, ok := resp.Clusters()
	if !ok {
		return nil, nil
	}
	result := make([]Cluster, 0, len(clusters.Slice()))
	for _, c := range clusters.Slice() {
		result = append(result, convertCluster(c))
	}
	return result, nil
}

func (s *ovirtSetup) VMs(ctx context.Context) ([]VM, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vmsService := s.system().VmsService()
	resp, err := vmsService.List().Send()
	if err != nil {
		return nil, fmt.Errorf("failed to list vms: %w", err)
	}
	vms, ok := resp.Vms()
	if !ok {
		return nil, nil
	}
	result := make([]VM, 0, len(vms.Slice()))
	for _, v := range vms.Slice() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vm := VM{}
		vm.ID, _ = v.Id()
		vm.Name, _ = v.Name()
		vm.DeleteProtected, _ = v.DeleteProtected()

		snapResp, err := vmsService.VmService(vm.ID).SnapshotsService().List().Send()
		if err != nil {
			return nil, fmt.Errorf("failed to list snapshots of vm %s: %w", vm.Name, err)
		}
		if snapshots, ok := snapResp.Snapshots(); ok {
			for _, snap := range snapshots.Slice() {
				if status, ok := snap.SnapshotStatus(); ok && status == ovirtsdk4.SNAPSHOTSTATUS_IN_PREVIEW {
					vm.InPreview = true
					break
				}
			}
		}
		result = append(result, vm)
	}
	return result, nil
}

func convertCluster(c *ovirtsdk4.Cluster) Cluster {
	cluster := Cluster{}
	cluster.ID, _ = c.Id()
	cluster.Name, _ = c.Name()
	if dc, ok := c.DataCenter(); ok {
		cluster.DatacenterID, _ = dc.Id()
	}
	if v, ok := c.Version(); ok {
		cluster.Version.Major, _ = v.Major()
		cluster.Version.Minor, _ = v.Minor()
	}
	return cluster
}

func convertStorageDomain(sd *ovirtsdk4.StorageDomain) StorageDomain {
	domain := StorageDomain{}
	domain.ID, _ = sd.Id()
	domain.Name, _ = sd.Name()
	if t, ok := sd.Type(); ok {
		domain.Type = string(t)
	}
	domain.Master, _ = sd.Master()
	domain.Backup, _ = sd.Backup()
	domain.WipeAfterDelete, _ = sd.WipeAfterDelete()
	domain.DiscardAfterDelete, _ = sd.DiscardAfterDelete()
	domain.CriticalSpaceActionBlocker, _ = sd.CriticalSpaceActionBlocker()
	domain.WarningLowSpace, _ = sd.WarningLowSpaceIndicator()

	storage, ok := sd.Storage()
	if !ok {
		return domain
	}
	if t, ok := storage.Type(); ok {
		domain.StorageType = string(t)
	}
	domain.Path, _ = storage.Path()
	domain.Address, _ = storage.Address()
	domain.VfsType, _ = storage.VfsType()
	if vg, ok := storage.VolumeGroup(); ok {
		if lus, ok := vg.LogicalUnits(); ok {
			domain.LogicalUnits = convertLogicalUnitSlice(lus)
		}
	}
	return domain
}

func convertLogicalUnits(hs *ovirtsdk4.HostStorage) []LogicalUnit {
	lus, ok := hs.LogicalUnits()
	if !ok {
		return nil
	}
	return convertLogicalUnitSlice(lus)
}

func convertLogicalUnitSlice(lus *ovirtsdk4.LogicalUnitSlice) []LogicalUnit {
	result := make([]LogicalUnit, 0, len(lus.Slice()))
	for _, lu := range lus.Slice() {
		unit := LogicalUnit{}
		unit.ID, _ = lu.Id()
		unit.Address, _ = lu.Address()
		unit.Port, _ = lu.Port()
		unit.Portal, _ = lu.Portal()
		unit.Target, _ = lu.Target()
		unit.Username, _ = lu.Username()
		result = append(result, unit)
	}
	return result
}
