package mac

import (
	"github.com/wpanstack/wpan-go/pkg/fcs"
	"github.com/wpanstack/wpan-go/pkg/frame"
	"github.com/wpanstack/wpan-go/pkg/log"
)

// monitorsRx gives every running monitor interface its own copy of f with
// the FCS re-appended. f itself is not modified.
func (d *Device) monitorsRx(f *frame.Frame) {
	var trailer [fcs.Size]byte
	computed := false

	for _, iface := range d.snapshot() {
		if iface.kind != KindMonitor || !iface.Running() {
			continue
		}
		if !computed {
			crc := fcs.Checksum(f.Bytes())
			trailer = [fcs.Size]byte{byte(crc), byte(crc >> 8)}
			computed = true
		}

		c := f.Clone()
		c.Append(trailer[:]...)
		c.PacketType = frame.PacketHost
		iface.stats.rx(c.Len())

		if d.capturing() {
			page, channel := d.Channel()
			d.captureFrame(log.DirectionIn, log.LayerMAC, iface.name, c, page, channel)
		}
		d.stack.Receive(iface, c)
	}
}
