package setup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageDomainTargets(t *testing.T) {
	sd := StorageDomain{
		StorageType: StorageTypeISCSI,
		LogicalUnits: []LogicalUnit{
			{ID: "a", Target: "iqn.2024-01.com.example:t1"},
			{ID: "b", Target: "iqn.2024-01.com.example:t2"},
			{ID: "c", Target: "iqn.2024-01.com.example:t1"},
		},
	}
	assert.True(t, sd.IsBlock())
	assert.Equal(t, []string{"iqn.2024-01.com.example:t1", "iqn.2024-01.com.example:t2"}, sd.Targets())
}

func TestStorageDomainKinds(t *testing.T) {
	tests := []struct {
		name   string
		domain StorageDomain
		hosted bool
		export bool
	}{
		{"data", StorageDomain{Name: "data1", Type: DomainTypeData}, false, false},
		{"hosted", StorageDomain{Name: HostedStorageName, Type: DomainTypeData}, true, false},
		{"export", StorageDomain{Name: "exp", Type: DomainTypeExport}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.hosted, tt.domain.IsHosted())
			assert.Equal(t, tt.export, tt.domain.IsExport())
		})
	}
}

func TestPortalGroup(t *testing.T) {
	assert.Equal(t, "1", LogicalUnit{Portal: "10.0.0.1:3260,1"}.PortalGroup())
	assert.Equal(t, "", LogicalUnit{Portal: "10.0.0.1:3260"}.PortalGroup())
	assert.Equal(t, "", LogicalUnit{}.PortalGroup())
}

func TestCredentials(t *testing.T) {
	creds := Credentials{URL: "https://engine/ovirt-engine/api", Username: "admin@internal", Password: "secret", CAFile: "/etc/pki/ca.pem"}
	assert.Empty(t, creds.Missing())
	assert.NotContains(t, creds.String(), "secret")

	assert.Equal(t, []string{"url", "username", "ca"}, Credentials{}.Missing())
	assert.Equal(t, []string{"url", "username"}, Credentials{Insecure: true}.Missing())
}

func TestConnectError(t *testing.T) {
	cause := errors.New("tls handshake failed")
	err := error(&ConnectError{Credentials: Credentials{URL: "https://engine", Password: "secret"}, Err: cause})

	assert.True(t, IsConnectError(err))
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, err.Error(), "secret")
	assert.False(t, IsConnectError(cause))
}

func TestSite(t *testing.T) {
	assert.Equal(t, Secondary, Primary.Other())
	assert.Equal(t, Primary, Secondary.Other())
	assert.True(t, Primary.Valid())
	assert.False(t, Site("tertiary").Valid())
}
