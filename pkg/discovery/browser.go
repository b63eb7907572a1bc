package discovery

import (
	"context"
	"time"
)

// Browser finds hubs.
type Browser interface {
	// BrowseHubs reports each hub once, when first seen. The channel is
	// closed when ctx ends.
	BrowseHubs(ctx context.Context) (<-chan *HubService, error)

	// FindHub returns the hub with the given ID, or the first hub seen
	// when id is empty.
	FindHub(ctx context.Context, id string) (*HubService, error)

	// Stop stops all active browsing operations.
	Stop()
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout bounds FindHub when ctx has no deadline.
	// Default: 10 seconds.
	BrowseTimeout time.Duration `yaml:"browseTimeout"`

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string `yaml:"interface"`
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{BrowseTimeout: BrowseTimeout}
}
