package discovery

import (
	"errors"
	"net"
	"strconv"
	"time"
)

// Service constants.
const (
	// ServiceType is the DNS-SD service type of hubs.
	ServiceType = "_wpan-air._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// DefaultPort is the hub port advertised when none is given.
	DefaultPort = 7154

	// ProtocolVersion is advertised in the v TXT record.
	ProtocolVersion = 1

	// InstancePrefix starts every hub instance name.
	InstancePrefix = "wpan-air-"

	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63

	// BrowseTimeout is the default browse duration.
	BrowseTimeout = 10 * time.Second
)

// Discovery errors.
var (
	ErrNotFound        = errors.New("hub not found")
	ErrMissingRequired = errors.New("missing required TXT record")
	ErrInvalidVersion  = errors.New("invalid protocol version")
	ErrNotAdvertising  = errors.New("not advertising")
)

// HubInfo is what a hub advertises about itself.
type HubInfo struct {
	// ID is the hub's unique identifier.
	ID string
	// Name is an optional friendly name.
	Name string
	// Port is the hub's TCP port. Zero means DefaultPort.
	Port uint16
	// Clients is the number of attached radios.
	Clients int
}

// InstanceName returns the DNS-SD instance name for the hub.
func (h *HubInfo) InstanceName() string {
	id := h.ID
	if len(id) > 8 {
		id = id[:8]
	}
	name := InstancePrefix + id
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}

// HubService is a hub found by browsing.
type HubService struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string

	ID      string
	Name    string
	Version int
	Clients int
}

// Address returns host:port for the first known address, or for Host when
// no address was resolved.
func (s *HubService) Address() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return net.JoinHostPort(host, strconv.Itoa(int(s.Port)))
}
