package fcs

import (
	"errors"

	"github.com/sigurn/crc16"
)

// Size is the number of FCS bytes at the end of a frame.
const Size = 2

// ErrChecksum indicates a frame whose trailing FCS does not match.
var ErrChecksum = errors.New("fcs mismatch")

var table = crc16.MakeTable(crc16.CRC16_KERMIT)

// Checksum returns the CRC of data.
func Checksum(data []byte) uint16 {
	return crc16.Checksum(data, table)
}

// Append appends the FCS of data to data.
func Append(data []byte) []byte {
	crc := Checksum(data)
	return append(data, byte(crc), byte(crc>>8))
}

// Residual returns the CRC over a frame that already carries its FCS. It is
// zero for an intact frame.
func Residual(frame []byte) uint16 {
	return Checksum(frame)
}

// Verify checks the FCS at the end of frame. Frames shorter than the FCS
// itself never verify.
func Verify(frame []byte) error {
	if len(frame) < Size {
		return ErrChecksum
	}
	if Residual(frame) != 0 {
		return ErrChecksum
	}
	return nil
}
