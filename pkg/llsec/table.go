package llsec

import (
	"crypto/aes"
	"errors"
	"fmt"
	"sync"

	"github.com/wpanstack/wpan-go/pkg/frame"
)

// Security errors.
var (
	// ErrSecurityDisabled indicates a secured frame on an interface whose
	// security is switched off.
	ErrSecurityDisabled = errors.New("link-layer security disabled")

	// ErrCounterExhausted indicates the outgoing frame counter has reached
	// its maximum and no further frames can be secured.
	ErrCounterExhausted = errors.New("frame counter exhausted")

	// ErrNoKey indicates no key matches the frame's key identifier.
	ErrNoKey = errors.New("no matching key")

	// ErrUnknownDevice indicates the sender is not in the device table.
	ErrUnknownDevice = errors.New("unknown device")

	// ErrInsufficientSecurity indicates the frame's security level is not
	// permitted for its frame type.
	ErrInsufficientSecurity = errors.New("security level not permitted")

	// ErrReplay indicates a frame counter at or below one already accepted.
	ErrReplay = errors.New("replayed frame counter")

	// ErrAuthFailed indicates the integrity code did not verify.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrUnsupportedVersion indicates a secured frame using the 2003 frame
	// version, which has an incompatible security format.
	ErrUnsupportedVersion = errors.New("unsupported frame version")
)

// KeySize is the size of an AES-128 link key.
const KeySize = 16

// maxFrameCounter is never used on air.
const maxFrameCounter = 0xffffffff

// KeyID identifies a key the way the auxiliary security header does.
type KeyID struct {
	Mode   uint8
	Index  uint8
	Source uint64
}

// keyIDOf returns the key identifier carried in a security header.
func keyIDOf(s *frame.SecurityHeader) KeyID {
	id := KeyID{Mode: s.KeyIDMode}
	if s.KeyIDMode != frame.KeyIDImplicit {
		id.Index = s.KeyIndex
		id.Source = s.KeySource
	}
	return id
}

// Key is one entry of the key table.
type Key struct {
	ID  KeyID
	Key [KeySize]byte
	// FrameTypes is a bit set of frame types the key may protect, bit n for
	// frame type n. Zero permits every type.
	FrameTypes uint8
}

func (k *Key) permits(t frame.FrameType) bool {
	return k.FrameTypes == 0 || k.FrameTypes&(1<<t) != 0
}

// Device is one entry of the device table.
type Device struct {
	PANID        frame.PANID
	ShortAddr    frame.ShortAddr
	HWAddr       frame.ExtendedAddr
	FrameCounter uint32
	// Exempt lets the device send below the minimum level where the
	// security-level entry allows overrides.
	Exempt bool
}

// SecLevel is one entry of the security-level table.
type SecLevel struct {
	FrameType frame.FrameType
	// Levels is a bit set of permitted security levels, bit n for level n.
	Levels uint8
	// DeviceOverride admits exempt devices regardless of Levels.
	DeviceOverride bool
}

// Params are the outgoing security parameters of an interface.
type Params struct {
	Enabled bool
	// OutLevel and OutKey select how locally built frames are secured.
	OutLevel     uint8
	OutKey       KeyID
	FrameCounter uint32

	PANID          frame.PANID
	HWAddr         frame.ExtendedAddr
	CoordShortAddr frame.ShortAddr
	CoordHWAddr    frame.ExtendedAddr
}

type keyEntry struct {
	Key
	ccm *ccmStar
}

// Table is the security context of one interface. It is safe for
// concurrent use.
type Table struct {
	mu        sync.Mutex
	params    Params
	keys      map[KeyID]*keyEntry
	devices   []*Device
	secLevels map[frame.FrameType]SecLevel
}

// NewTable returns an empty, disabled table.
func NewTable() *Table {
	return &Table{
		keys:      make(map[KeyID]*keyEntry),
		secLevels: make(map[frame.FrameType]SecLevel),
	}
}

// Params returns a copy of the current parameters.
func (t *Table) Params() Params {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.params
}

// SetParams replaces the parameters.
func (t *Table) SetParams(p Params) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.params = p
}

// SetNetworkParams updates the addressing part of the parameters, as done
// when the interface starts a PAN.
func (t *Table) SetNetworkParams(pan frame.PANID, coordShort frame.ShortAddr, hwaddr, coordHW frame.ExtendedAddr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.params.PANID = pan
	t.params.CoordShortAddr = coordShort
	t.params.HWAddr = hwaddr
	t.params.CoordHWAddr = coordHW
}

// OutgoingSecurity returns the auxiliary header template for locally built
// frames, and false when outgoing frames are sent unsecured.
func (t *Table) OutgoingSecurity() (frame.SecurityHeader, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.params.Enabled || t.params.OutLevel == frame.SecLevelNone {
		return frame.SecurityHeader{}, false
	}
	return frame.SecurityHeader{
		Level:     t.params.OutLevel,
		KeyIDMode: t.params.OutKey.Mode,
		KeyIndex:  t.params.OutKey.Index,
		KeySource: t.params.OutKey.Source,
	}, true
}

// AddKey adds or replaces a key.
func (t *Table) AddKey(k Key) error {
	block, err := aes.NewCipher(k.Key[:])
	if err != nil {
		return fmt.Errorf("key %v: %w", k.ID, err)
	}
	c, err := newCCMStar(block)
	if err != nil {
		return fmt.Errorf("key %v: %w", k.ID, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.keys[k.ID] = &keyEntry{Key: k, ccm: c}
	return nil
}

// RemoveKey deletes a key. It reports whether the key existed.
func (t *Table) RemoveKey(id KeyID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.keys[id]
	delete(t.keys, id)
	return ok
}

// AddDevice adds or replaces the device with the same hardware address.
func (t *Table) AddDevice(d Device) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, have := range t.devices {
		if have.HWAddr == d.HWAddr {
			t.devices[i] = &d
			return
		}
	}
	t.devices = append(t.devices, &d)
}

// RemoveDevice deletes a device by hardware address.
func (t *Table) RemoveDevice(hwaddr frame.ExtendedAddr) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, d := range t.devices {
		if d.HWAddr == hwaddr {
			t.devices = append(t.devices[:i], t.devices[i+1:]...)
			return true
		}
	}
	return false
}

// Device returns a copy of a device entry.
func (t *Table) Device(hwaddr frame.ExtendedAddr) (Device, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, d := range t.devices {
		if d.HWAddr == hwaddr {
			return *d, true
		}
	}
	return Device{}, false
}

// SetSecLevel adds or replaces the policy for a frame type.
func (t *Table) SetSecLevel(sl SecLevel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.secLevels[sl.FrameType] = sl
}

// lookupDevice finds the sender of a frame. Callers hold mu.
func (t *Table) lookupDevice(src frame.Addr) *Device {
	for _, d := range t.devices {
		switch src.Mode {
		case frame.AddrExtended:
			if d.HWAddr == src.Extended {
				return d
			}
		case frame.AddrShort:
			if d.PANID == src.PANID && d.ShortAddr == src.Short {
				return d
			}
		}
	}
	return nil
}

// lookupKey finds the key for a frame. Callers hold mu.
func (t *Table) lookupKey(h *frame.Header) (*keyEntry, error) {
	k, ok := t.keys[keyIDOf(&h.Security)]
	if !ok || !k.permits(h.FC.Type) {
		return nil, fmt.Errorf("%w: mode %d index %d", ErrNoKey, h.Security.KeyIDMode, h.Security.KeyIndex)
	}
	return k, nil
}

// parsed makes sure the frame header is decoded.
func parsed(f *frame.Frame) error {
	if f.Parsed() {
		return nil
	}
	return f.Parse()
}
