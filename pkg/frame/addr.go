package frame

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Well-known address values.
const (
	// BroadcastPANID addresses every PAN.
	BroadcastPANID PANID = 0xffff

	// BroadcastShortAddr addresses every device on a PAN.
	BroadcastShortAddr ShortAddr = 0xffff

	// UnassignedShortAddr means the device has no short address and must
	// use its extended address.
	UnassignedShortAddr ShortAddr = 0xfffe
)

// PANID is a 16-bit personal area network identifier.
type PANID uint16

// String returns the PAN id as four hex digits.
func (p PANID) String() string {
	return fmt.Sprintf("%04x", uint16(p))
}

// ShortAddr is a 16-bit address assigned within a PAN.
type ShortAddr uint16

// String returns the short address as four hex digits.
func (s ShortAddr) String() string {
	return fmt.Sprintf("%04x", uint16(s))
}

// ExtendedAddr is the 64-bit IEEE address of a device.
type ExtendedAddr uint64

// String returns the address in colon-separated form, most significant
// byte first.
func (e ExtendedAddr) String() string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(e))
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02x", v)
	}
	return strings.Join(parts, ":")
}

// ParseExtendedAddr parses the colon-separated form produced by String.
func ParseExtendedAddr(s string) (ExtendedAddr, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 8 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	var v uint64
	for _, p := range parts {
		if len(p) != 2 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		b, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		v = v<<8 | b
	}
	return ExtendedAddr(v), nil
}

// AddrMode is the addressing mode of one address field.
type AddrMode uint8

const (
	// AddrNone means the address (and its PAN id) is absent.
	AddrNone AddrMode = 0
	// AddrReserved is not a valid mode on received frames.
	AddrReserved AddrMode = 1
	// AddrShort is a 16-bit short address.
	AddrShort AddrMode = 2
	// AddrExtended is a 64-bit extended address.
	AddrExtended AddrMode = 3
)

// String returns the mode name.
func (m AddrMode) String() string {
	switch m {
	case AddrNone:
		return "NONE"
	case AddrReserved:
		return "RESERVED"
	case AddrShort:
		return "SHORT"
	case AddrExtended:
		return "EXTENDED"
	default:
		return "UNKNOWN"
	}
}

// addrLen returns the on-air size of an address of this mode, without PAN
// id. Reserved is treated as extended, the same way the receive path of
// common stacks sizes it, so the classifier can reject it later.
func (m AddrMode) addrLen() int {
	switch m {
	case AddrNone:
		return 0
	case AddrShort:
		return 2
	default:
		return 8
	}
}

// Addr is one addressing field of a MAC header.
type Addr struct {
	Mode     AddrMode
	PANID    PANID
	Short    ShortAddr
	Extended ExtendedAddr
}

// NewShortAddr returns a short-mode address.
func NewShortAddr(pan PANID, short ShortAddr) Addr {
	return Addr{Mode: AddrShort, PANID: pan, Short: short}
}

// NewExtendedAddr returns an extended-mode address.
func NewExtendedAddr(pan PANID, ext ExtendedAddr) Addr {
	return Addr{Mode: AddrExtended, PANID: pan, Extended: ext}
}

// IsBroadcast reports whether the address is the short broadcast address.
func (a Addr) IsBroadcast() bool {
	return a.Mode == AddrShort && a.Short == BroadcastShortAddr
}

// String returns a compact textual form such as "1234/0001".
func (a Addr) String() string {
	switch a.Mode {
	case AddrNone:
		return "-"
	case AddrShort:
		return a.PANID.String() + "/" + a.Short.String()
	case AddrExtended:
		return a.PANID.String() + "/" + a.Extended.String()
	default:
		return a.PANID.String() + "/?"
	}
}
