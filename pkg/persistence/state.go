package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/wpanstack/wpan-go/pkg/frame"
	"github.com/wpanstack/wpan-go/pkg/mac"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// ErrUnsupportedVersion is returned by Load for state files written by a
// newer format.
var ErrUnsupportedVersion = errors.New("unsupported state file version")

// DeviceState is the persisted configuration of one device.
type DeviceState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Device is the device name.
	Device string `json:"device"`

	// Page and Channel are the radio tuning. Channel is omitted for an
	// untuned radio.
	Page    uint8  `json:"page"`
	Channel *uint8 `json:"channel,omitempty"`

	Interfaces []InterfaceState `json:"interfaces,omitempty"`
}

// InterfaceState is the persisted configuration of one subinterface.
// Addresses are kept in their textual form.
type InterfaceState struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Up   bool   `json:"up"`

	PANID        string `json:"pan_id,omitempty"`
	ShortAddr    string `json:"short_addr,omitempty"`
	ExtendedAddr string `json:"extended_addr,omitempty"`

	Page    uint8  `json:"page"`
	Channel *uint8 `json:"channel,omitempty"`

	// Params are only kept for node interfaces.
	Params *mac.MACParams `json:"params,omitempty"`
}

// StateStore manages persistence of device state to a JSON file.
type StateStore struct {
	mu   sync.Mutex
	path string
}

// NewStateStore creates a new state store.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Path returns the state file path.
func (s *StateStore) Path() string { return s.path }

// Save persists the state. The file is replaced atomically.
func (s *StateStore) Save(state *DeviceState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *StateStore) Load() (*DeviceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &DeviceState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	if state.Version > StateVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, state.Version)
	}
	return state, nil
}

// Clear removes the state file.
func (s *StateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func channelPtr(ch uint8) *uint8 {
	if ch == mac.ChannelNone {
		return nil
	}
	return &ch
}

func channelValue(p *uint8) uint8 {
	if p == nil {
		return mac.ChannelNone
	}
	return *p
}

// Snapshot captures the configuration of dev.
func Snapshot(dev *mac.Device) *DeviceState {
	page, channel := dev.Channel()
	st := &DeviceState{
		Device:  dev.Name(),
		Page:    page,
		Channel: channelPtr(channel),
	}
	for _, iface := range dev.Interfaces() {
		info := iface.Info()
		is := InterfaceState{
			Name:    info.Name,
			Kind:    info.Kind,
			Up:      info.Running,
			Page:    info.Page,
			Channel: channelPtr(info.Channel),
		}
		if iface.Kind() == mac.KindWPAN {
			is.PANID = info.PANID.String()
			is.ShortAddr = info.ShortAddr.String()
			is.ExtendedAddr = info.ExtendedAddr.String()
			params := info.Params
			is.Params = &params
		}
		st.Interfaces = append(st.Interfaces, is)
	}
	return st
}

// Restore applies st to dev: interfaces missing from dev are created,
// existing ones are reconfigured, and the radio is retuned. Interfaces
// saved as down are closed; those that were up are opened last.
func Restore(dev *mac.Device, st *DeviceState) error {
	var open []*mac.Interface
	for _, is := range st.Interfaces {
		iface, err := restoreInterface(dev, is)
		if err != nil {
			return fmt.Errorf("interface %s: %w", is.Name, err)
		}
		if is.Up {
			open = append(open, iface)
		} else {
			iface.Close()
		}
	}

	if ch := channelValue(st.Channel); ch != mac.ChannelNone {
		if err := dev.SetChannel(st.Page, ch); err != nil {
			return fmt.Errorf("channel: %w", err)
		}
	}
	for _, iface := range open {
		iface.Open()
	}
	return nil
}

func restoreInterface(dev *mac.Device, is InterfaceState) (*mac.Interface, error) {
	kind, err := mac.ParseKind(is.Kind)
	if err != nil {
		return nil, err
	}
	iface, ok := dev.Interface(is.Name)
	if ok && iface.Kind() != kind {
		return nil, fmt.Errorf("exists as %v", iface.Kind())
	}
	if !ok {
		if iface, err = dev.AddInterface(is.Name, kind); err != nil {
			return nil, err
		}
	}

	if kind != mac.KindWPAN {
		return iface, nil
	}
	if ch := channelValue(is.Channel); ch != mac.ChannelNone {
		if err := iface.SetPageChannel(is.Page, ch); err != nil {
			return nil, err
		}
	}

	if is.PANID != "" {
		v, err := strconv.ParseUint(is.PANID, 16, 16)
		if err != nil {
			return nil, fmt.Errorf("pan id %q: %w", is.PANID, err)
		}
		// An interface that never joined a PAN keeps the broadcast id.
		if pan := frame.PANID(v); pan != frame.BroadcastPANID {
			if err := iface.SetPANID(pan); err != nil {
				return nil, err
			}
		}
	}
	if is.ShortAddr != "" {
		v, err := strconv.ParseUint(is.ShortAddr, 16, 16)
		if err != nil {
			return nil, fmt.Errorf("short address %q: %w", is.ShortAddr, err)
		}
		if err := iface.SetShortAddr(frame.ShortAddr(v)); err != nil {
			return nil, err
		}
	}
	if is.ExtendedAddr != "" {
		ext, err := frame.ParseExtendedAddr(is.ExtendedAddr)
		if err != nil {
			return nil, err
		}
		if err := iface.SetExtendedAddr(ext); err != nil {
			return nil, err
		}
	}
	if is.Params != nil {
		if err := iface.SetMACParams(*is.Params); err != nil && !errors.Is(err, mac.ErrNotSupported) {
			return nil, err
		}
	}
	return iface, nil
}
