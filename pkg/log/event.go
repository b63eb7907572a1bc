package log

import "time"

// MaxFrameData is the largest number of frame bytes stored in a FrameEvent.
const MaxFrameData = 256

// Event represents a capture event recorded by a device.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies one run of a device (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates frame flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Device is the name of the capturing device.
	Device string `cbor:"6,keyasint,omitempty"`

	// Interface is the subinterface involved, if any.
	Interface string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	Drop        *DropEvent        `cbor:"11,keyasint,omitempty"`
	Control     *ControlEvent     `cbor:"12,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"13,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"`
}

// Direction indicates the direction of frame flow.
type Direction uint8

const (
	// DirectionIn indicates a received frame.
	DirectionIn Direction = 0
	// DirectionOut indicates a transmitted frame.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates where in the pipeline the event was captured.
type Layer uint8

const (
	// LayerRadio is the driver boundary (raw bytes, FCS included).
	LayerRadio Layer = 0
	// LayerMAC is frame processing and interface dispatch.
	LayerMAC Layer = 1
	// LayerSecurity is link-layer encryption and decryption.
	LayerSecurity Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerRadio:
		return "RADIO"
	case LayerMAC:
		return "MAC"
	case LayerSecurity:
		return "SECURITY"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryFrame indicates a frame was seen.
	CategoryFrame Category = 0
	// CategoryDrop indicates a frame was discarded.
	CategoryDrop Category = 1
	// CategoryControl indicates a driver configuration operation.
	CategoryControl Category = 2
	// CategoryState indicates a state change.
	CategoryState Category = 3
	// CategoryError indicates an error event.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryFrame:
		return "FRAME"
	case CategoryDrop:
		return "DROP"
	case CategoryControl:
		return "CONTROL"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures frame bytes and their radio metadata.
type FrameEvent struct {
	// Size is the frame size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`

	// LQI is the link quality of a received frame.
	LQI uint8 `cbor:"4,keyasint,omitempty"`

	// Page and Channel the frame was sent or heard on.
	Page    uint8 `cbor:"5,keyasint"`
	Channel uint8 `cbor:"6,keyasint"`

	// PacketType is the receive classification, if one was made.
	PacketType string `cbor:"7,keyasint,omitempty"`
}

// NewFrameEvent copies data into a FrameEvent, truncating to MaxFrameData.
func NewFrameEvent(data []byte) *FrameEvent {
	fe := &FrameEvent{Size: len(data)}
	if len(data) > MaxFrameData {
		data = data[:MaxFrameData]
		fe.Truncated = true
	}
	fe.Data = append([]byte(nil), data...)
	return fe
}

// DropReason says why a frame was discarded.
type DropReason uint8

const (
	// DropChecksum is a frame whose FCS did not verify.
	DropChecksum DropReason = 0
	// DropMalformed is a frame whose header could not be parsed or
	// classified.
	DropMalformed DropReason = 1
	// DropQueueFull is a frame refused by a full or stopped work queue.
	DropQueueFull DropReason = 2
	// DropNoInterface is a frame with no running interface to take it.
	DropNoInterface DropReason = 3
	// DropOtherHost is a frame addressed elsewhere.
	DropOtherHost DropReason = 4
	// DropSecurity is a frame that failed decryption or encryption.
	DropSecurity DropReason = 5
	// DropNoChannel is an outgoing frame on an interface without a channel.
	DropNoChannel DropReason = 6
	// DropUnsupportedChannel is an outgoing frame for a channel the
	// hardware does not support.
	DropUnsupportedChannel DropReason = 7
	// DropTransmitError is a frame the driver failed to send.
	DropTransmitError DropReason = 8
	// DropFrameType is a received frame of a type the stack does not take.
	DropFrameType DropReason = 9
)

// String returns the drop reason name.
func (r DropReason) String() string {
	switch r {
	case DropChecksum:
		return "CHECKSUM"
	case DropMalformed:
		return "MALFORMED"
	case DropQueueFull:
		return "QUEUE_FULL"
	case DropNoInterface:
		return "NO_INTERFACE"
	case DropOtherHost:
		return "OTHER_HOST"
	case DropSecurity:
		return "SECURITY"
	case DropNoChannel:
		return "NO_CHANNEL"
	case DropUnsupportedChannel:
		return "UNSUPPORTED_CHANNEL"
	case DropTransmitError:
		return "TRANSMIT_ERROR"
	case DropFrameType:
		return "FRAME_TYPE"
	default:
		return "UNKNOWN"
	}
}

// DropEvent captures a discarded frame.
type DropEvent struct {
	Reason DropReason `cbor:"1,keyasint"`

	// Detail is a human-readable explanation (for example an error string).
	Detail string `cbor:"2,keyasint,omitempty"`

	// Size is the length of the dropped frame.
	Size int `cbor:"3,keyasint,omitempty"`
}

// ControlOp identifies a configuration operation.
type ControlOp uint8

const (
	// ControlSetChannel retunes the radio.
	ControlSetChannel ControlOp = 0
	// ControlStartRequest starts a PAN on an interface.
	ControlStartRequest ControlOp = 1
	// ControlSetMACParams pushes MAC parameters to the driver.
	ControlSetMACParams ControlOp = 2
	// ControlTransmitDone is an asynchronous transmit completion.
	ControlTransmitDone ControlOp = 3
)

// String returns the control operation name.
func (c ControlOp) String() string {
	switch c {
	case ControlSetChannel:
		return "SET_CHANNEL"
	case ControlStartRequest:
		return "START_REQUEST"
	case ControlSetMACParams:
		return "SET_MAC_PARAMS"
	case ControlTransmitDone:
		return "TRANSMIT_DONE"
	default:
		return "UNKNOWN"
	}
}

// ControlEvent captures a configuration operation and its result.
type ControlEvent struct {
	Op      ControlOp `cbor:"1,keyasint"`
	Page    uint8     `cbor:"2,keyasint,omitempty"`
	Channel uint8     `cbor:"3,keyasint,omitempty"`

	// Error is the failure, empty on success.
	Error string `cbor:"4,keyasint,omitempty"`
}

// StateChangeEvent captures device, interface and queue transitions.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityDevice indicates a device start or stop.
	StateEntityDevice StateEntity = 0
	// StateEntityInterface indicates an interface open or close.
	StateEntityInterface StateEntity = 1
	// StateEntityQueue indicates a transmit queue stop or wake.
	StateEntityQueue StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityDevice:
		return "DEVICE"
	case StateEntityInterface:
		return "INTERFACE"
	case StateEntityQueue:
		return "QUEUE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
