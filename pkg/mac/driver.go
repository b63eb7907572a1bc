package mac

import (
	"context"

	"github.com/wpanstack/wpan-go/pkg/frame"
)

// Channel space.
const (
	// MaxPages is the number of channel pages.
	MaxPages = 32
	// MaxChannels is the number of channels per page.
	MaxChannels = 27
	// ChannelNone marks an untuned radio or an interface without a channel.
	ChannelNone uint8 = 0xff
)

// Host is the side of the MAC a driver calls into. *Device implements it.
type Host interface {
	// ReceiveIRQSafe hands a received frame, FCS included, to the MAC. It
	// never blocks and may be called from any goroutine. data is copied.
	ReceiveIRQSafe(data []byte, lqi uint8)

	// TransmitDone reports completion of the frame last passed to
	// AsyncTransmitter.TransmitAsync.
	TransmitDone(err error)
}

// Driver is the minimum a transceiver driver implements.
type Driver interface {
	// Start powers the radio up. Received frames go to host.
	Start(host Host) error
	// Stop powers the radio down.
	Stop() error
	// SetChannel retunes the radio. It may block.
	SetChannel(page, channel uint8) error
}

// SyncTransmitter is implemented by drivers whose transmit blocks until the
// frame is on air.
type SyncTransmitter interface {
	Transmit(ctx context.Context, f *frame.Frame) error
}

// AsyncTransmitter is implemented by drivers that queue a frame and report
// completion through Host.TransmitDone. TransmitAsync must not block; an
// error means the frame was not taken.
type AsyncTransmitter interface {
	TransmitAsync(f *frame.Frame) error
}

// TxPowerSetter sets the transmit power in mBm.
type TxPowerSetter interface {
	SetTxPower(mbm int32) error
}

// CCAModeSetter sets the clear channel assessment mode.
type CCAModeSetter interface {
	SetCCAMode(mode CCAMode) error
}

// EDLevelSetter sets the energy detection threshold in mBm.
type EDLevelSetter interface {
	SetCCAEDLevel(mbm int32) error
}

// LBTSetter switches listen-before-talk.
type LBTSetter interface {
	SetLBT(on bool) error
}

// HWFlags describe what the hardware does by itself.
type HWFlags uint32

const (
	// HWOmitChecksum means the radio checks and adds the FCS itself; frames
	// cross the driver boundary without it.
	HWOmitChecksum HWFlags = 1 << iota
	// HWTxPower means transmit power is configurable.
	HWTxPower
	// HWCCAMode means the CCA mode is configurable.
	HWCCAMode
	// HWCCAEDLevel means the ED threshold is configurable.
	HWCCAEDLevel
	// HWLBT means listen-before-talk can be switched.
	HWLBT
)

// Hardware describes a radio.
type Hardware struct {
	Flags HWFlags
	// ExtraTxHeadroom is reserved in front of every frame handed to the
	// driver.
	ExtraTxHeadroom int
	// Channels holds one bitmap of supported channels per page.
	Channels [MaxPages]uint32
	// ExtendedAddr is the permanent address of the radio.
	ExtendedAddr frame.ExtendedAddr
}

// Supports reports whether the hardware can use channel on page.
func (h *Hardware) Supports(page, channel uint8) bool {
	if page >= MaxPages || channel >= MaxChannels {
		return false
	}
	return h.Channels[page]&(1<<channel) != 0
}

// Page0Channels is the 2.4 GHz O-QPSK band, channels 11 to 26.
const Page0Channels uint32 = 0x07fff800

// Security is the link-layer security context of an interface.
type Security interface {
	Encrypt(f *frame.Frame) error
	Decrypt(f *frame.Frame) error
}

// NetworkSecurity is implemented by security contexts that track the PAN
// they protect. StartRequest pushes the new network parameters to it.
type NetworkSecurity interface {
	SetNetworkParams(pan frame.PANID, coordShort frame.ShortAddr, hwaddr, coordHW frame.ExtendedAddr)
}

// OutgoingSecurity is implemented by security contexts that decide how
// locally built frames are secured.
type OutgoingSecurity interface {
	OutgoingSecurity() (frame.SecurityHeader, bool)
}

// Stack receives frames delivered by interfaces. Receive is called from the
// receive worker, and for monitor copies of outgoing frames from the
// transmitting goroutine. It must not block for long. f is owned by the
// callee.
type Stack interface {
	Receive(iface *Interface, f *frame.Frame)
}

// StackFunc adapts a function to Stack.
type StackFunc func(iface *Interface, f *frame.Frame)

// Receive calls fn.
func (fn StackFunc) Receive(iface *Interface, f *frame.Frame) {
	fn(iface, f)
}

type discardStack struct{}

func (discardStack) Receive(*Interface, *frame.Frame) {}
