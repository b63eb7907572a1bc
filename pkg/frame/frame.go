package frame

import "time"

// ProtocolIEEE802154 is the link-layer protocol identifier stamped on frames
// handed to the network stack (ETH_P_IEEE802154).
const ProtocolIEEE802154 uint16 = 0x00f6

// DefaultHeadroom is the headroom reserved by New.
const DefaultHeadroom = 16

// PacketType classifies a received frame relative to the local interface.
type PacketType uint8

const (
	// PacketHost is addressed to this host.
	PacketHost PacketType = iota
	// PacketBroadcast is addressed to the broadcast address.
	PacketBroadcast
	// PacketOtherHost is addressed to some other host.
	PacketOtherHost
	// PacketOutgoing is a locally originated frame.
	PacketOutgoing
)

// String returns the packet type name.
func (p PacketType) String() string {
	switch p {
	case PacketHost:
		return "HOST"
	case PacketBroadcast:
		return "BROADCAST"
	case PacketOtherHost:
		return "OTHERHOST"
	case PacketOutgoing:
		return "OUTGOING"
	default:
		return "UNKNOWN"
	}
}

// Frame is one packet travelling through a single processing pass: the raw
// bytes plus metadata carried next to them. A Frame is owned by exactly one
// goroutine at a time; use Clone to hand a copy to another consumer.
type Frame struct {
	buf []byte
	off int

	// Header is valid once Parsed reports true.
	Header Header
	// HeaderLen is the encoded size of Header within Bytes.
	HeaderLen int
	parsed    bool

	// LQI is the link quality reported by the transceiver on receive.
	LQI uint8
	// PacketType is set by receive classification.
	PacketType PacketType
	// Protocol is the link-layer protocol identifier.
	Protocol uint16
	// Timestamp is when the frame entered the MAC.
	Timestamp time.Time
}

// New returns a frame holding a copy of data with DefaultHeadroom bytes of
// spare room in front.
func New(data []byte) *Frame {
	return NewWithHeadroom(data, DefaultHeadroom)
}

// NewWithHeadroom returns a frame holding a copy of data with the given
// headroom.
func NewWithHeadroom(data []byte, headroom int) *Frame {
	if headroom < 0 {
		headroom = 0
	}
	buf := make([]byte, headroom+len(data), headroom+len(data)+FCSSize)
	copy(buf[headroom:], data)
	return &Frame{buf: buf, off: headroom}
}

// Encode builds a frame from a header and payload. The header is recorded as
// already parsed.
func Encode(h Header, payload []byte) *Frame {
	hdr := h.AppendTo(make([]byte, 0, h.Len()+len(payload)))
	f := New(append(hdr, payload...))
	f.SetHeader(h, len(hdr))
	return f
}

// Bytes returns the frame contents. The slice aliases the frame buffer.
func (f *Frame) Bytes() []byte {
	return f.buf[f.off:]
}

// Len returns the number of bytes in the frame.
func (f *Frame) Len() int {
	return len(f.buf) - f.off
}

// Headroom returns the spare bytes available in front of the data.
func (f *Frame) Headroom() int {
	return f.off
}

// EnsureHeadroom grows the buffer so at least n bytes of headroom exist.
func (f *Frame) EnsureHeadroom(n int) {
	if f.off >= n {
		return
	}
	data := f.Bytes()
	buf := make([]byte, n+len(data), n+len(data)+FCSSize)
	copy(buf[n:], data)
	f.buf = buf
	f.off = n
}

// Push extends the frame at the front by n bytes and returns them.
func (f *Frame) Push(n int) []byte {
	f.EnsureHeadroom(n)
	f.off -= n
	return f.buf[f.off : f.off+n]
}

// Pull removes n bytes from the front of the frame.
func (f *Frame) Pull(n int) {
	if n > f.Len() {
		n = f.Len()
	}
	f.off += n
}

// Append adds bytes at the end of the frame.
func (f *Frame) Append(p ...byte) {
	f.buf = append(f.buf, p...)
}

// Trim removes n bytes from the end of the frame.
func (f *Frame) Trim(n int) {
	if n > f.Len() {
		n = f.Len()
	}
	f.buf = f.buf[:len(f.buf)-n]
}

// Parse decodes the MAC header from the start of the frame.
func (f *Frame) Parse() error {
	h, n, err := Parse(f.Bytes())
	if err != nil {
		return err
	}
	f.SetHeader(h, n)
	return nil
}

// SetHeader records an already decoded header.
func (f *Frame) SetHeader(h Header, n int) {
	f.Header = h
	f.HeaderLen = n
	f.parsed = true
}

// Parsed reports whether Header holds a decoded header.
func (f *Frame) Parsed() bool {
	return f.parsed
}

// Payload returns the bytes following the MAC header. It is only meaningful
// once the frame is parsed.
func (f *Frame) Payload() []byte {
	data := f.Bytes()
	if f.HeaderLen > len(data) {
		return nil
	}
	return data[f.HeaderLen:]
}

// Clone returns an independent copy of the frame and its metadata.
func (f *Frame) Clone() *Frame {
	c := *f
	c.buf = make([]byte, len(f.buf), cap(f.buf))
	copy(c.buf, f.buf)
	return &c
}
