package frame

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseShortIntraPAN(t *testing.T) {
	data := []byte{0x61, 0x88, 0x07, 0x34, 0x12, 0x01, 0x00, 0x02, 0x00, 0xde, 0xad}

	h, n, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if n != 9 {
		t.Errorf("header length: got %d, want 9", n)
	}
	if h.FC.Type != FrameTypeData {
		t.Errorf("Type: got %v, want DATA", h.FC.Type)
	}
	if !h.FC.AckRequest || !h.FC.IntraPAN || h.FC.SecurityEnabled {
		t.Errorf("unexpected frame control flags: %+v", h.FC)
	}
	if h.Seq != 7 {
		t.Errorf("Seq: got %d, want 7", h.Seq)
	}
	if h.Dest != NewShortAddr(0x1234, 0x0001) {
		t.Errorf("Dest: got %v", h.Dest)
	}
	// Intra-PAN frames inherit the destination PAN for the source.
	if h.Source != NewShortAddr(0x1234, 0x0002) {
		t.Errorf("Source: got %v", h.Source)
	}
}

func TestParseExtendedWithSecurity(t *testing.T) {
	h := Header{
		FC:     FrameControl{Type: FrameTypeData, SecurityEnabled: true},
		Seq:    0x42,
		Dest:   NewExtendedAddr(0xbeef, 0x0011223344556677),
		Source: NewExtendedAddr(0xcafe, 0x8899aabbccddeeff),
		Security: SecurityHeader{
			Level:        SecLevelEncMIC32,
			KeyIDMode:    KeyIDIndex,
			FrameCounter: 0x01020304,
			KeyIndex:     7,
		},
	}

	enc := h.AppendTo(nil)
	if len(enc) != h.Len() {
		t.Fatalf("encoded length %d does not match Len() %d", len(enc), h.Len())
	}
	wantSec := []byte{0x0d, 0x04, 0x03, 0x02, 0x01, 0x07}
	if !bytes.HasSuffix(enc, wantSec) {
		t.Errorf("security header: got % x, want suffix % x", enc, wantSec)
	}

	got, n, err := Parse(enc)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if n != len(enc) {
		t.Errorf("header length: got %d, want %d", n, len(enc))
	}
	h.FC.DestAddrMode = AddrExtended
	h.FC.SrcAddrMode = AddrExtended
	if got != h {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, h)
	}
}

func TestParseKeySourceModes(t *testing.T) {
	tests := []struct {
		name string
		sec  SecurityHeader
		len  int
	}{
		{"implicit", SecurityHeader{Level: SecLevelMIC64, KeyIDMode: KeyIDImplicit, FrameCounter: 9}, 5},
		{"short source", SecurityHeader{Level: SecLevelMIC32, KeyIDMode: KeyIDShortSource, KeySource: 0xa1b2c3d4, KeyIndex: 3}, 10},
		{"extended source", SecurityHeader{Level: SecLevelEncMIC128, KeyIDMode: KeyIDExtendedSource, KeySource: 0x0102030405060708, KeyIndex: 1}, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.sec.Len() != tt.len {
				t.Fatalf("Len: got %d, want %d", tt.sec.Len(), tt.len)
			}
			h := Header{
				FC:       FrameControl{Type: FrameTypeMACCmd, SecurityEnabled: true},
				Dest:     NewShortAddr(1, 2),
				Security: tt.sec,
			}
			got, _, err := Parse(h.AppendTo(nil))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if got.Security != tt.sec {
				t.Errorf("Security: got %+v, want %+v", got.Security, tt.sec)
			}
		})
	}
}

func TestParseNoAddressing(t *testing.T) {
	// ACK frames carry neither address.
	h, n, err := Parse([]byte{0x02, 0x00, 0x15})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if n != 3 || h.FC.Type != FrameTypeAck || h.Dest.Mode != AddrNone || h.Source.Mode != AddrNone {
		t.Errorf("unexpected header %+v (len %d)", h, n)
	}
}

func TestParseReservedModeKept(t *testing.T) {
	// Destination mode 1 is reserved. It is sized as extended and reported
	// as-is so classification can reject it.
	data := []byte{0x01, 0x04, 0x01, 0x34, 0x12, 1, 2, 3, 4, 5, 6, 7, 8}
	h, n, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if h.Dest.Mode != AddrReserved {
		t.Errorf("Dest.Mode: got %v, want RESERVED", h.Dest.Mode)
	}
	if n != len(data) {
		t.Errorf("header length: got %d, want %d", n, len(data))
	}
}

func TestParseTruncated(t *testing.T) {
	full := []byte{0x61, 0xcc, 0x07, 0x34, 0x12, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	if _, _, err := Parse(full); err != nil {
		t.Fatalf("full header should parse: %v", err)
	}
	for i := 0; i < len(full); i++ {
		if _, _, err := Parse(full[:i]); !errors.Is(err, ErrTruncated) {
			t.Errorf("Parse(%d bytes): got %v, want ErrTruncated", i, err)
		}
	}
}

func TestFrameHeadroomAndTrim(t *testing.T) {
	f := NewWithHeadroom([]byte{1, 2, 3}, 0)
	f.Append(4, 5)
	if !bytes.Equal(f.Bytes(), []byte{1, 2, 3, 4, 5}) {
		t.Fatalf("Append: got % x", f.Bytes())
	}
	f.Trim(2)
	hdr := f.Push(4)
	copy(hdr, []byte{0xa, 0xb, 0xc, 0xd})
	if !bytes.Equal(f.Bytes(), []byte{0xa, 0xb, 0xc, 0xd, 1, 2, 3}) {
		t.Fatalf("Push: got % x", f.Bytes())
	}
	f.Pull(4)
	if f.Headroom() != 4 || f.Len() != 3 {
		t.Errorf("Pull: headroom %d len %d", f.Headroom(), f.Len())
	}
}

func TestFrameCloneIsIndependent(t *testing.T) {
	f := New([]byte{1, 2, 3})
	f.LQI = 200
	c := f.Clone()
	c.Append(9)
	c.Bytes()[0] = 0xff

	if f.Len() != 3 || f.Bytes()[0] != 1 {
		t.Errorf("original modified by clone: % x", f.Bytes())
	}
	if c.LQI != 200 {
		t.Errorf("clone LQI: got %d, want 200", c.LQI)
	}
}

func TestExtendedAddrString(t *testing.T) {
	a := ExtendedAddr(0x0011223344556677)
	if a.String() != "00:11:22:33:44:55:66:77" {
		t.Errorf("String: got %q", a.String())
	}
	back, err := ParseExtendedAddr(a.String())
	if err != nil || back != a {
		t.Errorf("ParseExtendedAddr: got %v, %v", back, err)
	}
	if _, err := ParseExtendedAddr("00:11"); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("short input: got %v, want ErrInvalidAddress", err)
	}
}
