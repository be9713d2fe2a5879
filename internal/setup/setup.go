// Package setup talks to an oVirt engine and exposes the entity collections
// that take part in a disaster-recovery mapping as plain Go values.
package setup

import (
	"context"
	"errors"
	"fmt"
)

// Site identifies one side of a DR pair.
type Site string

const (
	Primary   Site = "primary"
	Secondary Site = "secondary"
)

// Other returns the opposite site.
func (s Site) Other() Site {
	if s == Primary {
		return Secondary
	}
	return Primary
}

// Valid reports whether s is a known site.
func (s Site) Valid() bool {
	return s == Primary || s == Secondary
}

// Setup is a read-only view of one engine. All operations are list, get or
// search calls; nothing here mutates remote state.
type Setup interface {
	Datacenters(ctx context.Context) ([]Datacenter, error)
	StorageDomains(ctx context.Context, datacenterID string) ([]StorageDomain, error)
	Clusters(ctx context.Context, datacenterID string) ([]Cluster, error)
	AffinityGroups(ctx context.Context, clusterID string) ([]AffinityGroup, error)
	AffinityLabels(ctx context.Context) ([]AffinityLabel, error)
	AuthDomains(ctx context.Context) ([]AuthDomain, error)
	Networks(ctx context.Context) ([]Network, error)
	VnicProfiles(ctx context.Context) ([]VnicProfile, error)
	LunDisks(ctx context.Context) ([]LunDisk, error)
	// ActiveHostStorage returns the storage devices seen by hosts in status up,
	// deduplicated by device id.
	ActiveHostStorage(ctx context.Context) ([]HostStorage, error)
	// SearchClusters runs an engine search expression such as "name=prod".
	SearchClusters(ctx context.Context, expression string) ([]Cluster, error)
	// VMs lists all virtual machines with their snapshot preview state.
	VMs(ctx context.Context) ([]VM, error)
	Close() error
}

// Credentials hold what is needed to open a connection to an engine.
type Credentials struct {
	URL      string
	Username string
	Password string
	CAFile   string
	Insecure bool
}

// String renders the credentials for diagnostics. The password is never
// included.
func (c Credentials) String() string {
	return fmt.Sprintf("URL: %s, user: %s, CA file: %s", c.URL, c.Username, c.CAFile)
}

// Missing returns the names of required fields that are empty.
func (c Credentials) Missing() []string {
	var missing []string
	if c.URL == "" {
		missing = append(missing, "url")
	}
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.CAFile == "" && !c.Insecure {
		missing = append(missing, "ca")
	}
	return missing
}

// Dialer opens a Setup. Connect is the production implementation; tests
// substitute in-memory setups.
type Dialer func(ctx context.Context, creds Credentials) (Setup, error)

// ErrNotFound is returned when a search yields no result.
var ErrNotFound = errors.New("entity not found")

// ConnectError reports a failure to reach or authenticate against an engine.
type ConnectError struct {
	Credentials Credentials
	Err         error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connection to setup has failed (%s): %v", e.Credentials, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// IsConnectError reports whether err wraps a ConnectError.
func IsConnectError(err error) bool {
	var ce *ConnectError
	return errors.As(err, &ce)
}
