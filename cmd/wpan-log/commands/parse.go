// Package commands implements the wpan-log CLI commands.
package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/wpanstack/wpan-go/pkg/log"
)

// FilterOptions are the textual filter flags shared by the commands.
type FilterOptions struct {
	SessionID string
	Device    string
	Interface string
	TimeStart string
	TimeEnd   string
	Layer     string
	Direction string
	Category  string
	Drop      string
}

// Build converts the options to a log.Filter.
func (o FilterOptions) Build() (log.Filter, error) {
	filter := log.Filter{
		SessionID: o.SessionID,
		Device:    o.Device,
		Interface: o.Interface,
	}

	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return filter, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}
	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return filter, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}
	if o.Layer != "" {
		l, err := parseLayer(o.Layer)
		if err != nil {
			return filter, err
		}
		filter.Layer = &l
	}
	if o.Direction != "" {
		d, err := parseDirection(o.Direction)
		if err != nil {
			return filter, err
		}
		filter.Direction = &d
	}
	if o.Category != "" {
		c, err := parseCategory(o.Category)
		if err != nil {
			return filter, err
		}
		filter.Category = &c
	}
	if o.Drop != "" {
		r, err := parseDropReason(o.Drop)
		if err != nil {
			return filter, err
		}
		filter.DropReason = &r
	}
	return filter, nil
}

// parseLayer parses a layer string (case-insensitive).
func parseLayer(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "radio":
		return log.LayerRadio, nil
	case "mac":
		return log.LayerMAC, nil
	case "security", "sec":
		return log.LayerSecurity, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be radio, mac, or security)", s)
	}
}

// parseDirection parses a direction string (case-insensitive).
func parseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in", "rx":
		return log.DirectionIn, nil
	case "out", "tx":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// parseCategory parses a category string (case-insensitive).
func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "frame":
		return log.CategoryFrame, nil
	case "drop":
		return log.CategoryDrop, nil
	case "control":
		return log.CategoryControl, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be frame, drop, control, state, or error)", s)
	}
}

var dropReasons = []log.DropReason{
	log.DropChecksum, log.DropMalformed, log.DropQueueFull, log.DropNoInterface,
	log.DropOtherHost, log.DropSecurity, log.DropNoChannel, log.DropUnsupportedChannel,
	log.DropTransmitError, log.DropFrameType,
}

// parseDropReason accepts the names printed by DropReason.String, in any
// case, with dashes for underscores.
func parseDropReason(s string) (log.DropReason, error) {
	want := strings.ToUpper(strings.ReplaceAll(s, "-", "_"))
	for _, r := range dropReasons {
		if r.String() == want {
			return r, nil
		}
	}
	return 0, fmt.Errorf("invalid drop reason: %s", s)
}
