package discovery

import (
	"context"
	"time"
)

// Advertiser announces a hub.
type Advertiser interface {
	// Advertise starts announcing the hub, replacing a previous
	// announcement.
	Advertise(ctx context.Context, info *HubInfo) error

	// Update refreshes the TXT records of the running announcement.
	Update(info *HubInfo) error

	// Stop withdraws the announcement.
	Stop()
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string `yaml:"interface"`

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration `yaml:"ttl"`
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{TTL: 120 * time.Second}
}
