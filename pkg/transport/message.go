package transport

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// MsgType identifies a message.
type MsgType uint8

// Message types. Hub traffic uses Hello through Pong; the serial
// transceiver protocol adds Start, Stop, SetParam and Response.
const (
	// MsgHello introduces a client to the hub. ID carries its name.
	MsgHello MsgType = iota + 1
	// MsgWelcome answers Hello with the client id the hub assigned.
	MsgWelcome
	// MsgTune reports the page and channel a radio listens on.
	MsgTune
	// MsgFrame carries a frame on air, FCS included.
	MsgFrame
	// MsgTxDone completes the MsgFrame with the same Seq.
	MsgTxDone
	// MsgPing requests a MsgPong with the same Seq.
	MsgPing
	// MsgPong answers MsgPing.
	MsgPong
	// MsgStart powers a transceiver up.
	MsgStart
	// MsgStop powers a transceiver down.
	MsgStop
	// MsgSetParam sets one PHY parameter.
	MsgSetParam
	// MsgResponse answers a command with the same Seq.
	MsgResponse
)

// String returns the message type name.
func (t MsgType) String() string {
	switch t {
	case MsgHello:
		return "HELLO"
	case MsgWelcome:
		return "WELCOME"
	case MsgTune:
		return "TUNE"
	case MsgFrame:
		return "FRAME"
	case MsgTxDone:
		return "TX_DONE"
	case MsgPing:
		return "PING"
	case MsgPong:
		return "PONG"
	case MsgStart:
		return "START"
	case MsgStop:
		return "STOP"
	case MsgSetParam:
		return "SET_PARAM"
	case MsgResponse:
		return "RESPONSE"
	default:
		return fmt.Sprintf("MSG(%d)", uint8(t))
	}
}

// Status is the result carried by MsgTxDone and MsgResponse.
type Status uint8

const (
	StatusOK Status = iota
	StatusError
	StatusBusy
	StatusUnsupported
	StatusChannelAccessFailure
	StatusNoAck
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusError:
		return "ERROR"
	case StatusBusy:
		return "BUSY"
	case StatusUnsupported:
		return "UNSUPPORTED"
	case StatusChannelAccessFailure:
		return "CHANNEL_ACCESS_FAILURE"
	case StatusNoAck:
		return "NO_ACK"
	default:
		return fmt.Sprintf("STATUS(%d)", uint8(s))
	}
}

// Err converts a non-OK status to an error. detail is appended when set.
func (s Status) Err(detail string) error {
	if s == StatusOK {
		return nil
	}
	var base error
	switch s {
	case StatusBusy:
		base = ErrBusy
	case StatusUnsupported:
		base = ErrUnsupported
	case StatusChannelAccessFailure:
		base = ErrChannelAccess
	case StatusNoAck:
		base = ErrNoAck
	default:
		base = ErrRemote
	}
	if detail == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, detail)
}

// Param selects the PHY parameter of a MsgSetParam.
type Param uint8

const (
	ParamTxPower Param = iota + 1
	ParamCCAMode
	ParamCCAEDLevel
	ParamLBT
)

// String returns the parameter name.
func (p Param) String() string {
	switch p {
	case ParamTxPower:
		return "TX_POWER"
	case ParamCCAMode:
		return "CCA_MODE"
	case ParamCCAEDLevel:
		return "CCA_ED_LEVEL"
	case ParamLBT:
		return "LBT"
	default:
		return fmt.Sprintf("PARAM(%d)", uint8(p))
	}
}

// Remote status errors.
var (
	ErrRemote        = errors.New("remote error")
	ErrBusy          = errors.New("transceiver busy")
	ErrUnsupported   = errors.New("not supported by transceiver")
	ErrChannelAccess = errors.New("channel access failure")
	ErrNoAck         = errors.New("no acknowledgement")

	// ErrInvalidMessage indicates a message that fails validation.
	ErrInvalidMessage = errors.New("invalid message")
)

// Message is the single message shape of the protocol. Which fields are
// meaningful depends on Type.
type Message struct {
	Type    MsgType `cbor:"1,keyasint"`
	Seq     uint32  `cbor:"2,keyasint,omitempty"`
	ID      string  `cbor:"3,keyasint,omitempty"`
	Page    uint8   `cbor:"4,keyasint,omitempty"`
	Channel uint8   `cbor:"5,keyasint,omitempty"`
	Data    []byte  `cbor:"6,keyasint,omitempty"`
	LQI     uint8   `cbor:"7,keyasint,omitempty"`
	Status  Status  `cbor:"8,keyasint,omitempty"`
	Param   Param   `cbor:"9,keyasint,omitempty"`
	Value   int32   `cbor:"10,keyasint,omitempty"`
	Error   string  `cbor:"11,keyasint,omitempty"`
}

// Validate checks the fields a message type requires.
func (m *Message) Validate() error {
	switch m.Type {
	case MsgHello, MsgTune, MsgTxDone, MsgPing, MsgPong, MsgStart, MsgStop, MsgResponse:
		return nil
	case MsgWelcome:
		if m.ID == "" {
			return fmt.Errorf("%w: welcome without client id", ErrInvalidMessage)
		}
	case MsgFrame:
		if len(m.Data) == 0 {
			return fmt.Errorf("%w: empty frame", ErrInvalidMessage)
		}
	case MsgSetParam:
		if m.Param < ParamTxPower || m.Param > ParamLBT {
			return fmt.Errorf("%w: parameter %v", ErrInvalidMessage, m.Param)
		}
	default:
		return fmt.Errorf("%w: type %v", ErrInvalidMessage, m.Type)
	}
	return nil
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// EncodeMessage validates and encodes a message.
func EncodeMessage(m *Message) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return encMode.Marshal(m)
}

// DecodeMessage decodes and validates a message.
func DecodeMessage(data []byte) (*Message, error) {
	var m Message
	if err := decMode.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
