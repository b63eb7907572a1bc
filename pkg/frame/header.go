package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Header errors.
var (
	// ErrTruncated indicates the buffer ends inside the MAC header.
	ErrTruncated = errors.New("frame truncated")

	// ErrInvalidAddress indicates an address string could not be parsed.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrFrameTooLong indicates a frame exceeds MaxFrameSize.
	ErrFrameTooLong = errors.New("frame too long")
)

// Size constants.
const (
	// MaxFrameSize is the largest PHY payload (aMaxPHYPacketSize) including FCS.
	MaxFrameSize = 127

	// FCSSize is the size of the trailing frame check sequence.
	FCSSize = 2

	// MinHeaderSize is frame control plus sequence number.
	MinHeaderSize = 3
)

// FrameType is the MAC frame type carried in the frame control field.
type FrameType uint8

const (
	// FrameTypeBeacon is a beacon frame.
	FrameTypeBeacon FrameType = 0
	// FrameTypeData is a data frame.
	FrameTypeData FrameType = 1
	// FrameTypeAck is an acknowledgement frame.
	FrameTypeAck FrameType = 2
	// FrameTypeMACCmd is a MAC command frame.
	FrameTypeMACCmd FrameType = 3
)

// String returns the frame type name.
func (t FrameType) String() string {
	switch t {
	case FrameTypeBeacon:
		return "BEACON"
	case FrameTypeData:
		return "DATA"
	case FrameTypeAck:
		return "ACK"
	case FrameTypeMACCmd:
		return "MAC_CMD"
	default:
		return fmt.Sprintf("RESERVED(%d)", uint8(t))
	}
}

// Frame control bit layout.
const (
	fcTypeMask     = 0x0007
	fcSecurity     = 1 << 3
	fcFramePending = 1 << 4
	fcAckRequest   = 1 << 5
	fcIntraPAN     = 1 << 6
	fcDstModeShift = 10
	fcVersionShift = 12
	fcSrcModeShift = 14
)

// FrameControl is the decoded 16-bit frame control field.
type FrameControl struct {
	Type            FrameType
	SecurityEnabled bool
	FramePending    bool
	AckRequest      bool
	IntraPAN        bool
	DestAddrMode    AddrMode
	Version         uint8
	SrcAddrMode     AddrMode
}

// decodeFrameControl unpacks the raw field.
func decodeFrameControl(v uint16) FrameControl {
	return FrameControl{
		Type:            FrameType(v & fcTypeMask),
		SecurityEnabled: v&fcSecurity != 0,
		FramePending:    v&fcFramePending != 0,
		AckRequest:      v&fcAckRequest != 0,
		IntraPAN:        v&fcIntraPAN != 0,
		DestAddrMode:    AddrMode((v >> fcDstModeShift) & 0x3),
		Version:         uint8((v >> fcVersionShift) & 0x3),
		SrcAddrMode:     AddrMode((v >> fcSrcModeShift) & 0x3),
	}
}

// Uint16 packs the frame control field.
func (fc FrameControl) Uint16() uint16 {
	v := uint16(fc.Type) & fcTypeMask
	if fc.SecurityEnabled {
		v |= fcSecurity
	}
	if fc.FramePending {
		v |= fcFramePending
	}
	if fc.AckRequest {
		v |= fcAckRequest
	}
	if fc.IntraPAN {
		v |= fcIntraPAN
	}
	v |= uint16(fc.DestAddrMode&0x3) << fcDstModeShift
	v |= uint16(fc.Version&0x3) << fcVersionShift
	v |= uint16(fc.SrcAddrMode&0x3) << fcSrcModeShift
	return v
}

// Header is a parsed MAC header.
type Header struct {
	FC       FrameControl
	Seq      uint8
	Dest     Addr
	Source   Addr
	Security SecurityHeader
}

// Parse decodes the MAC header at the start of data and returns it with its
// length in bytes. The FCS, if present, is not examined.
func Parse(data []byte) (Header, int, error) {
	var h Header
	if len(data) < MinHeaderSize {
		return h, 0, ErrTruncated
	}

	h.FC = decodeFrameControl(binary.LittleEndian.Uint16(data))
	h.Seq = data[2]
	pos := MinHeaderSize

	n, err := getAddr(data[pos:], h.FC.DestAddrMode, false, &h.Dest)
	if err != nil {
		return h, 0, fmt.Errorf("destination: %w", err)
	}
	pos += n

	n, err = getAddr(data[pos:], h.FC.SrcAddrMode, h.FC.IntraPAN, &h.Source)
	if err != nil {
		return h, 0, fmt.Errorf("source: %w", err)
	}
	pos += n
	if h.FC.IntraPAN {
		h.Source.PANID = h.Dest.PANID
	}

	if h.FC.SecurityEnabled {
		n, err = h.Security.decode(data[pos:])
		if err != nil {
			return h, 0, fmt.Errorf("security header: %w", err)
		}
		pos += n
	}

	return h, pos, nil
}

// getAddr reads one address field. omitPAN skips the PAN id.
func getAddr(b []byte, mode AddrMode, omitPAN bool, addr *Addr) (int, error) {
	*addr = Addr{Mode: mode}
	if mode == AddrNone {
		return 0, nil
	}

	pos := 0
	if !omitPAN {
		if len(b) < 2 {
			return 0, ErrTruncated
		}
		addr.PANID = PANID(binary.LittleEndian.Uint16(b))
		pos = 2
	}

	if len(b) < pos+mode.addrLen() {
		return 0, ErrTruncated
	}
	if mode == AddrShort {
		addr.Short = ShortAddr(binary.LittleEndian.Uint16(b[pos:]))
	} else {
		addr.Extended = ExtendedAddr(binary.LittleEndian.Uint64(b[pos:]))
	}
	return pos + mode.addrLen(), nil
}

// Len returns the encoded header size.
func (h *Header) Len() int {
	n := MinHeaderSize
	if h.Dest.Mode != AddrNone {
		n += 2 + h.Dest.Mode.addrLen()
	}
	if h.Source.Mode != AddrNone {
		if !h.FC.IntraPAN {
			n += 2
		}
		n += h.Source.Mode.addrLen()
	}
	if h.FC.SecurityEnabled {
		n += h.Security.Len()
	}
	return n
}

// AppendTo appends the encoded header to b. The frame control address modes
// are taken from the Dest and Source fields.
func (h *Header) AppendTo(b []byte) []byte {
	fc := h.FC
	fc.DestAddrMode = h.Dest.Mode
	fc.SrcAddrMode = h.Source.Mode

	b = binary.LittleEndian.AppendUint16(b, fc.Uint16())
	b = append(b, h.Seq)
	b = putAddr(b, h.Dest, false)
	b = putAddr(b, h.Source, fc.IntraPAN)
	if fc.SecurityEnabled {
		b = h.Security.appendTo(b)
	}
	return b
}

// putAddr appends one address field.
func putAddr(b []byte, addr Addr, omitPAN bool) []byte {
	if addr.Mode == AddrNone {
		return b
	}
	if !omitPAN {
		b = binary.LittleEndian.AppendUint16(b, uint16(addr.PANID))
	}
	if addr.Mode == AddrShort {
		return binary.LittleEndian.AppendUint16(b, uint16(addr.Short))
	}
	return binary.LittleEndian.AppendUint64(b, uint64(addr.Extended))
}
