package mac

import (
	"errors"
	"fmt"
	"time"

	"github.com/wpanstack/wpan-go/pkg/fcs"
	"github.com/wpanstack/wpan-go/pkg/frame"
	"github.com/wpanstack/wpan-go/pkg/log"
)

var errFrameTooShort = errors.New("frame shorter than FCS")

// ReceiveIRQSafe queues a received frame for processing. It never blocks;
// when the receive queue is full or the device is stopped the frame is
// dropped.
func (d *Device) ReceiveIRQSafe(data []byte, lqi uint8) {
	f := frame.New(data)
	f.LQI = lqi
	f.Timestamp = time.Now()

	if !d.running.Load() || !d.rxq.queue(func() { d.rx(f) }) {
		d.stats.rxQueueOverflow.Add(1)
		d.captureDrop(log.DirectionIn, log.LayerRadio, "", log.DropQueueFull, len(data), nil)
		return
	}
}

// rx runs on the receive worker.
func (d *Device) rx(f *frame.Frame) {
	d.stats.rxFrames.Add(1)
	f.Protocol = frame.ProtocolIEEE802154

	page, channel := d.Channel()
	d.captureFrame(log.DirectionIn, log.LayerRadio, "", f, page, channel)

	if d.hw.Flags&HWOmitChecksum == 0 {
		if f.Len() < fcs.Size {
			d.stats.rxMalformed.Add(1)
			d.captureDrop(log.DirectionIn, log.LayerRadio, "", log.DropMalformed, f.Len(), errFrameTooShort)
			return
		}
		if crc := fcs.Residual(f.Bytes()); crc != 0 {
			d.logger.Debug("CRC mismatch", "residual", fmt.Sprintf("%04x", crc), "len", f.Len())
			d.stats.rxCRCErrors.Add(1)
			d.captureDrop(log.DirectionIn, log.LayerRadio, "", log.DropChecksum, f.Len(), nil)
			return
		}
		f.Trim(fcs.Size)
	}

	d.monitorsRx(f)
	d.subifRx(f)
}

// subifRx hands f to the first running WPAN interface.
func (d *Device) subifRx(f *frame.Frame) {
	if err := f.Parse(); err != nil {
		d.logger.Debug("dropping malformed frame", "error", err, "len", f.Len())
		d.stats.rxMalformed.Add(1)
		d.captureDrop(log.DirectionIn, log.LayerMAC, "", log.DropMalformed, f.Len(), err)
		return
	}

	for _, iface := range d.snapshot() {
		if iface.kind != KindWPAN || !iface.Running() {
			continue
		}
		iface.receive(f)
		return
	}

	d.stats.rxNoInterface.Add(1)
	d.captureDrop(log.DirectionIn, log.LayerMAC, "", log.DropNoInterface, f.Len(), nil)
}

// classify decides whether a frame is for this interface. ok is false for a
// destination address mode that is not valid on air.
func (i *Interface) classify(h *frame.Header) (pt frame.PacketType, ok bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	dest := h.Dest
	switch dest.Mode {
	case frame.AddrNone:
		// Only acknowledgements and frames to the coordinator omit the
		// destination.
		return frame.PacketHost, true
	case frame.AddrExtended:
		if dest.PANID != i.panID && dest.PANID != frame.BroadcastPANID {
			return frame.PacketOtherHost, true
		}
		if dest.Extended == i.extAddr {
			return frame.PacketHost, true
		}
		return frame.PacketOtherHost, true
	case frame.AddrShort:
		if dest.PANID != i.panID && dest.PANID != frame.BroadcastPANID {
			return frame.PacketOtherHost, true
		}
		switch dest.Short {
		case i.shortAddr:
			return frame.PacketHost, true
		case frame.BroadcastShortAddr:
			return frame.PacketBroadcast, true
		default:
			return frame.PacketOtherHost, true
		}
	default:
		return 0, false
	}
}

// receive runs on the receive worker for the dispatch target.
func (i *Interface) receive(f *frame.Frame) {
	d := i.dev

	pt, ok := i.classify(&f.Header)
	if !ok {
		i.logger.Debug("invalid destination address mode", "mode", f.Header.Dest.Mode)
		d.stats.rxMalformed.Add(1)
		i.stats.rxDropped.Add(1)
		d.captureDrop(log.DirectionIn, log.LayerMAC, i.name, log.DropMalformed, f.Len(), nil)
		return
	}
	f.PacketType = pt

	if pt == frame.PacketOtherHost {
		d.stats.rxOtherHost.Add(1)
		i.stats.rxDropped.Add(1)
		d.captureDrop(log.DirectionIn, log.LayerMAC, i.name, log.DropOtherHost, f.Len(), fmt.Errorf("dest %v", f.Header.Dest))
		return
	}

	if err := i.decrypt(f); err != nil {
		i.logger.Debug("decryption failed", "error", err, "src", f.Header.Source)
		d.stats.rxSecurityErrors.Add(1)
		i.stats.rxDropped.Add(1)
		d.captureDrop(log.DirectionIn, log.LayerSecurity, i.name, log.DropSecurity, f.Len(), err)
		return
	}

	i.stats.rx(f.Len())

	if f.Header.FC.Type != frame.FrameTypeData {
		d.stats.rxNotData.Add(1)
		d.captureDrop(log.DirectionIn, log.LayerMAC, i.name, log.DropFrameType, f.Len(), fmt.Errorf("%v frame", f.Header.FC.Type))
		return
	}

	page, channel := d.Channel()
	d.captureFrame(log.DirectionIn, log.LayerMAC, i.name, f, page, channel)
	d.stack.Receive(i, f)
}

func (i *Interface) decrypt(f *frame.Frame) error {
	sec := i.Security()
	if sec == nil {
		if f.Header.FC.SecurityEnabled {
			return fmt.Errorf("%w: no security context", ErrNotSupported)
		}
		return nil
	}
	return sec.Decrypt(f)
}
