package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wpanstack/wpan-go/pkg/frame"
	"github.com/wpanstack/wpan-go/pkg/mac"
	"github.com/wpanstack/wpan-go/pkg/medium"
	"github.com/wpanstack/wpan-go/pkg/radio/serial"
)

// Driver types.
const (
	DriverLoopback = "loopback"
	DriverSerial   = "serial"
	DriverAir      = "air"
)

// Config is the wpand configuration file.
type Config struct {
	Device     DeviceConfig      `yaml:"device"`
	Driver     DriverConfig      `yaml:"driver"`
	Page       uint8             `yaml:"page"`
	Channel    *uint8            `yaml:"channel"`
	Interfaces []InterfaceConfig `yaml:"interfaces"`

	// Capture is the .wcap file events are appended to. Empty disables
	// capture.
	Capture string `yaml:"capture"`
	// State is the JSON file interface state is saved to on exit and
	// restored from on start. Empty disables persistence.
	State string `yaml:"state"`

	LogLevel string `yaml:"logLevel"`
}

// DeviceConfig names the device and sizes its queues.
type DeviceConfig struct {
	Name       string `yaml:"name"`
	RxQueueLen int    `yaml:"rxQueueLen"`
	TxQueueLen int    `yaml:"txQueueLen"`
	// ExtendedAddr overrides the radio's permanent address.
	ExtendedAddr string `yaml:"extendedAddr"`
}

// DriverConfig selects and configures the radio.
type DriverConfig struct {
	Type   string        `yaml:"type"`
	Serial serial.Config `yaml:"serial"`
	Air    AirConfig     `yaml:"air"`
}

// AirConfig configures the shared-medium driver.
type AirConfig struct {
	medium.ClientConfig `yaml:",inline"`

	// Discover finds the hub over mDNS when Address is empty.
	Discover bool `yaml:"discover"`
	// HubID selects a hub when discovering. Empty takes the first found.
	HubID string `yaml:"hubId"`
}

// InterfaceConfig describes one subinterface.
type InterfaceConfig struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`

	PANID        string `yaml:"panId"`
	ShortAddr    string `yaml:"shortAddr"`
	ExtendedAddr string `yaml:"extendedAddr"`

	Page    uint8  `yaml:"page"`
	Channel *uint8 `yaml:"channel"`

	// Coordinator starts a PAN with PANID and ShortAddr.
	Coordinator bool `yaml:"coordinator"`

	Params   *mac.MACParams  `yaml:"params"`
	Security *SecurityConfig `yaml:"security"`

	// Down leaves the interface closed at start.
	Down bool `yaml:"down"`
}

// SecurityConfig enables link-layer security with a key derived from a
// shared secret.
type SecurityConfig struct {
	Secret   string `yaml:"secret"`
	KeyIndex uint8  `yaml:"keyIndex"`
	// Level is the outgoing security level, 0-7. Zero means 5
	// (encryption with a 32-bit MIC).
	Level uint8        `yaml:"level"`
	Peers []PeerConfig `yaml:"peers"`
}

// PeerConfig is a device allowed to send secured frames.
type PeerConfig struct {
	ExtendedAddr string `yaml:"extendedAddr"`
	ShortAddr    string `yaml:"shortAddr"`
}

// DefaultConfig returns a single node interface on a loopback radio.
func DefaultConfig() Config {
	return Config{
		Device: DeviceConfig{Name: mac.DefaultConfig().Name},
		Driver: DriverConfig{
			Type:   DriverLoopback,
			Serial: serial.DefaultConfig(),
			Air:    AirConfig{ClientConfig: medium.DefaultClientConfig()},
		},
		Interfaces: []InterfaceConfig{{Name: "wpan0", Kind: "wpan"}},
		LogLevel:   "info",
	}
}

// LoadConfig reads path over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	// A file listing interfaces replaces the default set.
	cfg.Interfaces = nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration before anything is opened.
func (c *Config) Validate() error {
	var errs []error
	switch c.Driver.Type {
	case DriverLoopback, DriverSerial, DriverAir:
	default:
		errs = append(errs, fmt.Errorf("unknown driver %q (loopback, serial, air)", c.Driver.Type))
	}
	if c.Driver.Type == DriverSerial && c.Driver.Serial.Port == "" {
		errs = append(errs, errors.New("serial driver needs a port"))
	}
	if c.Channel != nil && (c.Page >= mac.MaxPages || *c.Channel >= mac.MaxChannels) {
		errs = append(errs, fmt.Errorf("page %d channel %d out of range", c.Page, *c.Channel))
	}
	if c.Device.ExtendedAddr != "" {
		if _, err := frame.ParseExtendedAddr(c.Device.ExtendedAddr); err != nil {
			errs = append(errs, fmt.Errorf("device: %w", err))
		}
	}

	seen := make(map[string]bool)
	for _, ic := range c.Interfaces {
		if ic.Name == "" {
			errs = append(errs, errors.New("interface without a name"))
			continue
		}
		if seen[ic.Name] {
			errs = append(errs, fmt.Errorf("interface %s listed twice", ic.Name))
		}
		seen[ic.Name] = true
		if err := ic.validate(); err != nil {
			errs = append(errs, fmt.Errorf("interface %s: %w", ic.Name, err))
		}
		if ic.Coordinator && ic.Channel == nil && c.Channel == nil {
			errs = append(errs, fmt.Errorf("interface %s: coordinator needs a channel", ic.Name))
		}
	}
	return errors.Join(errs...)
}

func (ic *InterfaceConfig) validate() error {
	kind, err := mac.ParseKind(ic.Kind)
	if err != nil {
		return err
	}
	if kind == mac.KindMonitor {
		if ic.PANID != "" || ic.ShortAddr != "" || ic.Coordinator || ic.Security != nil {
			return errors.New("monitor interfaces take no addressing or security")
		}
		return nil
	}
	if _, err := parsePANID(ic.PANID); ic.PANID != "" && err != nil {
		return err
	}
	if _, err := parseShortAddr(ic.ShortAddr); ic.ShortAddr != "" && err != nil {
		return err
	}
	if ic.ExtendedAddr != "" {
		if _, err := frame.ParseExtendedAddr(ic.ExtendedAddr); err != nil {
			return err
		}
	}
	if ic.Coordinator && (ic.PANID == "" || ic.ShortAddr == "") {
		return errors.New("coordinator needs panId and shortAddr")
	}
	if s := ic.Security; s != nil {
		if s.Secret == "" {
			return errors.New("security needs a secret")
		}
		if s.Level > frame.SecLevelEncMIC128 {
			return fmt.Errorf("security level %d out of range", s.Level)
		}
		for _, p := range s.Peers {
			if _, err := frame.ParseExtendedAddr(p.ExtendedAddr); err != nil {
				return fmt.Errorf("peer: %w", err)
			}
		}
	}
	return nil
}

// parseHex16 accepts four hex digits with an optional 0x prefix.
func parseHex16(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", frame.ErrInvalidAddress, s)
	}
	return uint16(v), nil
}

func parsePANID(s string) (frame.PANID, error) {
	v, err := parseHex16(s)
	return frame.PANID(v), err
}

func parseShortAddr(s string) (frame.ShortAddr, error) {
	v, err := parseHex16(s)
	return frame.ShortAddr(v), err
}
