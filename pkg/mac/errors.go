package mac

import "errors"

// MAC errors.
var (
	// ErrNotRunning indicates the device or interface is not started.
	ErrNotRunning = errors.New("not running")

	// ErrAlreadyRunning indicates Start on a started device.
	ErrAlreadyRunning = errors.New("already running")

	// ErrQueueStopped indicates a transmission is already in flight.
	ErrQueueStopped = errors.New("transmit queue stopped")

	// ErrEncrypt indicates link-layer security refused an outgoing frame.
	ErrEncrypt = errors.New("encryption failed")

	// ErrMalformedFrame indicates a frame whose header cannot be parsed.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrFrameTooLong indicates a frame that does not fit the PHY.
	ErrFrameTooLong = errors.New("frame too long")

	// ErrInvalidChannel indicates a page or channel out of range.
	ErrInvalidChannel = errors.New("invalid page or channel")

	// ErrUnsupportedChannel indicates a channel the hardware cannot use.
	ErrUnsupportedChannel = errors.New("unsupported channel")

	// ErrInvalidPANID indicates an attempt to set the broadcast PAN id.
	ErrInvalidPANID = errors.New("invalid PAN id")

	// ErrInvalidAddress indicates an address of the wrong mode.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrNotSupported indicates a capability the driver does not implement.
	ErrNotSupported = errors.New("not supported")

	// ErrWrongKind indicates an operation not available on the interface kind.
	ErrWrongKind = errors.New("operation not valid for interface kind")

	// ErrInterfaceExists indicates a duplicate interface name.
	ErrInterfaceExists = errors.New("interface exists")

	// ErrNoSuchInterface indicates an unknown interface name.
	ErrNoSuchInterface = errors.New("no such interface")

	// ErrInterfacesRemain indicates Close on a device that still has
	// interfaces.
	ErrInterfacesRemain = errors.New("interfaces remain")

	// ErrNoTransmitter indicates a driver implementing neither transmit
	// interface.
	ErrNoTransmitter = errors.New("driver has no transmit method")

	// ErrClosed indicates use of a closed device.
	ErrClosed = errors.New("device closed")
)
