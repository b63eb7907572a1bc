package frame

import "encoding/binary"

// Security levels. Bit 2 selects encryption, bits 0-1 the MIC length.
const (
	SecLevelNone      uint8 = 0
	SecLevelMIC32     uint8 = 1
	SecLevelMIC64     uint8 = 2
	SecLevelMIC128    uint8 = 3
	SecLevelEnc       uint8 = 4
	SecLevelEncMIC32  uint8 = 5
	SecLevelEncMIC64  uint8 = 6
	SecLevelEncMIC128 uint8 = 7
)

// Key identifier modes.
const (
	// KeyIDImplicit derives the key from the frame's addressing.
	KeyIDImplicit uint8 = 0
	// KeyIDIndex carries a one-byte key index.
	KeyIDIndex uint8 = 1
	// KeyIDShortSource carries a 4-byte key source and a key index.
	KeyIDShortSource uint8 = 2
	// KeyIDExtendedSource carries an 8-byte key source and a key index.
	KeyIDExtendedSource uint8 = 3
)

// SecurityHeader is the auxiliary security header.
type SecurityHeader struct {
	Level        uint8
	KeyIDMode    uint8
	FrameCounter uint32
	// KeySource holds the 4- or 8-byte key source, depending on KeyIDMode.
	KeySource uint64
	KeyIndex  uint8
}

// MICLen returns the length of the integrity code the level requires.
func MICLen(level uint8) int {
	switch level & 0x3 {
	case 1:
		return 4
	case 2:
		return 8
	case 3:
		return 16
	default:
		return 0
	}
}

// Encrypted reports whether the level encrypts the payload.
func Encrypted(level uint8) bool {
	return level&SecLevelEnc != 0
}

// keyIDLen returns the key identifier field size for a key id mode.
func keyIDLen(mode uint8) int {
	switch mode {
	case KeyIDIndex:
		return 1
	case KeyIDShortSource:
		return 5
	case KeyIDExtendedSource:
		return 9
	default:
		return 0
	}
}

// Len returns the encoded size of the auxiliary security header.
func (s *SecurityHeader) Len() int {
	return 5 + keyIDLen(s.KeyIDMode)
}

func (s *SecurityHeader) decode(b []byte) (int, error) {
	if len(b) < 5 {
		return 0, ErrTruncated
	}
	s.Level = b[0] & 0x7
	s.KeyIDMode = (b[0] >> 3) & 0x3
	s.FrameCounter = binary.LittleEndian.Uint32(b[1:])
	n := s.Len()
	if len(b) < n {
		return 0, ErrTruncated
	}

	s.KeySource = 0
	s.KeyIndex = 0
	switch s.KeyIDMode {
	case KeyIDIndex:
		s.KeyIndex = b[5]
	case KeyIDShortSource:
		s.KeySource = uint64(binary.LittleEndian.Uint32(b[5:]))
		s.KeyIndex = b[9]
	case KeyIDExtendedSource:
		s.KeySource = binary.LittleEndian.Uint64(b[5:])
		s.KeyIndex = b[13]
	}
	return n, nil
}

func (s *SecurityHeader) appendTo(b []byte) []byte {
	b = append(b, (s.Level&0x7)|(s.KeyIDMode&0x3)<<3)
	b = binary.LittleEndian.AppendUint32(b, s.FrameCounter)
	switch s.KeyIDMode {
	case KeyIDIndex:
		b = append(b, s.KeyIndex)
	case KeyIDShortSource:
		b = binary.LittleEndian.AppendUint32(b, uint32(s.KeySource))
		b = append(b, s.KeyIndex)
	case KeyIDExtendedSource:
		b = binary.LittleEndian.AppendUint64(b, s.KeySource)
		b = append(b, s.KeyIndex)
	}
	return b
}
