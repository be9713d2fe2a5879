package generator

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vexxhost/ovirt-dr/internal/mapping"
	"github.com/vexxhost/ovirt-dr/internal/setup"
	"github.com/vexxhost/ovirt-dr/internal/setup/setuptest"
)

var primaryCreds = setup.Credentials{
	URL:      "https://engine1.example.com/ovirt-engine/api",
	Username: "admin@internal",
	Password: "secret",
	CAFile:   "/etc/pki/ovirt-engine/ca.pem",
}

func singleDatacenterSetup() *setuptest.Fake {
	fake := setuptest.New()
	dc := fake.AddDatacenter("Default")
	fake.AddCluster(dc, "prod", 4, 6)
	fake.AddCluster(dc, "batch", 4, 6)
	fake.AddStorageDomain(dc, setup.StorageDomain{
		Name:        "data1",
		Type:        setup.DomainTypeData,
		StorageType: setup.StorageTypeNFS,
		Master:      true,
		Path:        "/exports/data1",
		Address:     "nfs1.example.com",
	})
	fake.AddProfile(dc, "ovirtmgmt", "ovirtmgmt")
	return fake
}

func generate(t *testing.T, fake *setuptest.Fake) (*mapping.Document, []byte) {
	t.Helper()
	doc, err := New(nil).Generate(context.Background(), fake, primaryCreds)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, mapping.Encode(&buf, doc))
	return doc, buf.Bytes()
}

func TestGenerateSingleDatacenter(t *testing.T) {
	doc, out := generate(t, singleDatacenterSetup())

	assert.Len(t, doc.Clusters, 2)
	assert.Len(t, doc.Storages, 1)
	assert.Len(t, doc.Networks, 1)
	assert.Equal(t, "Default", doc.Networks[0].DatacenterHint)
	assert.Empty(t, doc.Networks[0].PrimaryNetworkDC)

	raw, err := mapping.Parse(out)
	require.NoError(t, err)
	for _, section := range mapping.Sections {
		assert.Equal(t, mapping.ShapeSequence, raw.Shape(section), section)
	}

	back, err := raw.Decode()
	require.NoError(t, err)
	assert.Empty(t, back.AffinityGroups)
	assert.Empty(t, back.AffinityLabels)
	assert.Empty(t, back.Domains)
	assert.Empty(t, back.Roles)
	assert.Equal(t, primaryCreds.URL, back.PrimaryURL)
	assert.Empty(t, back.SecondaryURL)
	assert.NotContains(t, string(out), primaryCreds.Password)

	sd := back.Storages[0]
	assert.Equal(t, "data1", sd.PrimaryName)
	assert.Equal(t, "Default", sd.PrimaryDCName)
	assert.True(t, sd.PrimaryMasterDomain)
	assert.Equal(t, "/exports/data1", sd.PrimaryPath)
	assert.Empty(t, sd.SecondaryName)
}

func TestGenerateIsIdempotent(t *testing.T) {
	fake := singleDatacenterSetup()
	_, first := generate(t, fake)
	_, second := generate(t, fake)
	assert.Equal(t, string(first), string(second))
}

func TestGenerateExcludesHostedAndExportDomains(t *testing.T) {
	fake := setuptest.New()
	dc := fake.AddDatacenter("Default")
	fake.AddStorageDomain(dc, setup.StorageDomain{Name: setup.HostedStorageName, Type: setup.DomainTypeData, StorageType: setup.StorageTypeNFS})
	fake.AddStorageDomain(dc, setup.StorageDomain{Name: "exp1", Type: setup.DomainTypeExport, StorageType: setup.StorageTypeNFS})
	fake.AddStorageDomain(dc, setup.StorageDomain{Name: "data1", Type: setup.DomainTypeData, StorageType: setup.StorageTypeNFS})

	doc, out := generate(t, fake)
	require.Len(t, doc.Storages, 1)
	assert.Equal(t, "data1", doc.Storages[0].PrimaryName)
	require.Len(t, doc.Advisories, 2)
	assert.Contains(t, string(out), "#  dr_primary_name: hosted_storage")
	assert.Contains(t, string(out), "#  dr_primary_name: exp1")
}

func TestGenerateBlockStorage(t *testing.T) {
	fake := setuptest.New()
	dc := fake.AddDatacenter("Default")
	fake.AddStorageDomain(dc, setup.StorageDomain{
		ID:                 "sd-block",
		Name:               "block1",
		Type:               setup.DomainTypeData,
		StorageType:        setup.StorageTypeISCSI,
		DiscardAfterDelete: true,
		LogicalUnits: []setup.LogicalUnit{
			{ID: "lu1", Address: "10.0.0.5", Port: 3260, Target: "iqn.2024-01.com.example:t1"},
			{ID: "lu2", Address: "10.0.0.5", Port: 3260, Target: "iqn.2024-01.com.example:t2"},
		},
	})
	fake.AddStorageDomain(dc, setup.StorageDomain{ID: "sd-fc", Name: "fc1", Type: setup.DomainTypeData, StorageType: setup.StorageTypeFCP})

	doc, _ := generate(t, fake)
	require.Len(t, doc.Storages, 2)

	iscsi := doc.Storages[0]
	assert.Equal(t, "sd-block", iscsi.DomainID)
	assert.Equal(t, "10.0.0.5", iscsi.PrimaryAddress)
	assert.Equal(t, int64(3260), iscsi.PrimaryPort)
	assert.Equal(t, []string{"iqn.2024-01.com.example:t1", "iqn.2024-01.com.example:t2"}, iscsi.PrimaryTarget)
	assert.True(t, iscsi.DiscardAfterDelete)

	fcp := doc.Storages[1]
	assert.Equal(t, "sd-fc", fcp.DomainID)
	assert.Empty(t, fcp.PrimaryAddress)
	assert.Empty(t, fcp.PrimaryPath)
}

func TestGenerateLunDisks(t *testing.T) {
	fake := setuptest.New()
	fake.DiskList = []setup.LunDisk{
		{ID: "d1", Alias: "db-lun", LogicalUnitID: "36001405a", Shareable: true},
		{ID: "d2", Alias: "orphan-lun", LogicalUnitID: "36001405b"},
	}
	fake.HostStorageList = []setup.HostStorage{{
		ID:          "36001405a",
		StorageType: setup.StorageTypeISCSI,
		LogicalUnits: []setup.LogicalUnit{{
			ID:       "36001405a",
			Address:  "10.0.0.9",
			Port:     3260,
			Portal:   "10.0.0.9:3260,1",
			Target:   "iqn.2024-01.com.example:db",
			Username: "chap",
		}},
	}}

	doc, _ := generate(t, fake)
	require.Len(t, doc.Luns, 2)

	lun := doc.Luns[0]
	assert.Equal(t, setup.StorageTypeISCSI, lun.PrimaryStorageType)
	assert.Equal(t, "1", lun.PrimaryPortal)
	assert.Equal(t, "chap", lun.PrimaryUsername)
	assert.Equal(t, mapping.PasswordPlaceholder, lun.PrimaryPassword)
	assert.True(t, lun.Shareable)

	orphan := doc.Luns[1]
	assert.Empty(t, orphan.PrimaryStorageType)
	assert.Equal(t, mapping.StorageTypeUnknown, orphan.SecondaryStorageType)
}

func TestGenerateAmbiguousProfilesCarryDatacenter(t *testing.T) {
	fake := setuptest.New()
	east := fake.AddDatacenter("east")
	west := fake.AddDatacenter("west")
	fake.AddProfile(east, "ovirtmgmt", "ovirtmgmt")
	fake.AddProfile(west, "ovirtmgmt", "ovirtmgmt")

	doc, _ := generate(t, fake)
	require.Len(t, doc.Networks, 2)
	assert.Equal(t, "east", doc.Networks[0].PrimaryNetworkDC)
	assert.Equal(t, "west", doc.Networks[1].PrimaryNetworkDC)
}

func TestGenerateEmptyRoleSection(t *testing.T) {
	doc, out := generate(t, setuptest.New())
	require.NotNil(t, doc.Roles)
	assert.Empty(t, doc.Roles)
	assert.Contains(t, string(out), "dr_role_mappings: []")
	assert.Contains(t, string(out), "#- primary_name:")
}
