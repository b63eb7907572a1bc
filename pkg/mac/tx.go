package mac

import (
	"context"
	"errors"
	"fmt"

	"github.com/wpanstack/wpan-go/pkg/fcs"
	"github.com/wpanstack/wpan-go/pkg/frame"
	"github.com/wpanstack/wpan-go/pkg/log"
)

// Transmit submits a frame for transmission and returns without waiting
// for it to go on air.
//
// Monitor interfaces send raw frames on the radio's current channel. WPAN
// interfaces send on their own page and channel and secure the frame
// first; a WPAN interface without a channel drops frames silently.
//
// Transmit returns ErrQueueStopped while another frame is in flight. The
// frame must not be used by the caller after a nil return.
func (i *Interface) Transmit(f *frame.Frame) error {
	d := i.dev
	if !i.Running() || !d.running.Load() {
		return ErrNotRunning
	}

	rec, err := d.beginTx(i)
	if err != nil {
		return err
	}
	rec.frame = f

	switch i.kind {
	case KindMonitor:
		page, channel := d.Channel()
		if channel == ChannelNone {
			// Nothing to send on yet; the frame counts as sent.
			i.stats.tx(f.Len())
			d.abortTx(rec)
			return nil
		}
		if page >= MaxPages || channel >= MaxChannels {
			i.logger.Warn("radio tuned out of range", "page", page, "channel", channel)
			i.stats.txDropped.Add(1)
			d.abortTx(rec)
			return nil
		}
		rec.page, rec.channel = page, channel
		i.stats.tx(f.Len())

	case KindWPAN:
		page, channel := i.PageChannel()
		if channel == ChannelNone || page >= MaxPages || channel >= MaxChannels {
			i.stats.txDropped.Add(1)
			d.captureDrop(log.DirectionOut, log.LayerMAC, i.name, log.DropNoChannel, f.Len(), nil)
			d.abortTx(rec)
			return nil
		}
		if !f.Parsed() {
			if err := f.Parse(); err != nil {
				i.stats.txDropped.Add(1)
				d.abortTx(rec)
				return fmt.Errorf("%w: %w", ErrMalformedFrame, err)
			}
		}
		if err := i.encrypt(f); err != nil {
			i.logger.Warn("encryption failed", "error", err)
			i.stats.txDropped.Add(1)
			d.captureDrop(log.DirectionOut, log.LayerSecurity, i.name, log.DropSecurity, f.Len(), err)
			d.abortTx(rec)
			return fmt.Errorf("%w: %w", ErrEncrypt, err)
		}
		rec.page, rec.channel = page, channel
		i.stats.tx(f.Len())
	}

	f.PacketType = frame.PacketOutgoing
	f.Protocol = frame.ProtocolIEEE802154
	return d.transmit(rec)
}

// Send transmits f, waiting for the queue to wake while another frame is in
// flight.
func (i *Interface) Send(ctx context.Context, f *frame.Frame) error {
	for {
		err := i.Transmit(f)
		if !errors.Is(err, ErrQueueStopped) {
			return err
		}
		if err := i.WaitQueue(ctx); err != nil {
			return err
		}
	}
}

func (i *Interface) encrypt(f *frame.Frame) error {
	sec := i.Security()
	if sec == nil {
		if f.Header.FC.SecurityEnabled {
			return fmt.Errorf("%w: no security context", ErrNotSupported)
		}
		return nil
	}
	return sec.Encrypt(f)
}

// beginTx claims the single transmit slot and stops every queue. Stop
// clears running under txMu, so a slot is never claimed once Stop has
// started waiting for the device to go idle.
func (d *Device) beginTx(i *Interface) (*txRecord, error) {
	d.txMu.Lock()
	defer d.txMu.Unlock()
	if !d.running.Load() {
		return nil, ErrNotRunning
	}
	if d.cur != nil {
		return nil, ErrQueueStopped
	}
	rec := &txRecord{iface: i}
	d.cur = rec
	d.idle = make(chan struct{})
	for _, iface := range d.snapshot() {
		iface.queue.stop()
	}
	return rec, nil
}

// finishTx releases the transmit slot held by rec and wakes every queue. It
// reports false if rec was already finished.
func (d *Device) finishTx(rec *txRecord) bool {
	d.txMu.Lock()
	defer d.txMu.Unlock()
	if d.cur != rec {
		return false
	}
	d.cur = nil
	close(d.idle)
	for _, iface := range d.snapshot() {
		iface.queue.start()
	}
	return true
}

// abortTx releases the slot for a frame dropped before the driver saw it.
func (d *Device) abortTx(rec *txRecord) {
	d.finishTx(rec)
}

// completeTx finishes a frame the driver was given. Only the first
// completion for rec counts.
func (d *Device) completeTx(rec *txRecord, err error) {
	if !d.finishTx(rec) {
		return
	}
	if err != nil {
		d.logger.Debug("transmission failed", "iface", rec.iface.name, "error", err)
		d.stats.txErrors.Add(1)
		rec.iface.stats.txErrors.Add(1)
		d.captureDrop(log.DirectionOut, log.LayerRadio, rec.iface.name, log.DropTransmitError, rec.frame.Len(), err)
		return
	}
	d.stats.txFrames.Add(1)
}

// transmit is the common path once an interface has accepted a frame.
func (d *Device) transmit(rec *txRecord) error {
	f := rec.frame
	if !d.hw.Supports(rec.page, rec.channel) {
		d.logger.Error("transmit on unsupported channel", "iface", rec.iface.name, "page", rec.page, "channel", rec.channel)
		d.stats.txUnsupportedChannel.Add(1)
		rec.iface.stats.txDropped.Add(1)
		d.captureDrop(log.DirectionOut, log.LayerMAC, rec.iface.name, log.DropUnsupportedChannel, f.Len(), nil)
		d.abortTx(rec)
		return fmt.Errorf("%w: page %d channel %d", ErrUnsupportedChannel, rec.page, rec.channel)
	}

	withFCS := d.hw.Flags&HWOmitChecksum == 0
	size := f.Len()
	if withFCS {
		size += fcs.Size
	}
	if size > frame.MaxFrameSize {
		rec.iface.stats.txDropped.Add(1)
		d.abortTx(rec)
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLong, size)
	}

	d.monitorsRx(f)

	if withFCS {
		crc := fcs.Checksum(f.Bytes())
		f.Append(byte(crc), byte(crc>>8))
	}
	f.EnsureHeadroom(d.hw.ExtraTxHeadroom)
	d.captureFrame(log.DirectionOut, log.LayerRadio, rec.iface.name, f, rec.page, rec.channel)

	if d.async != nil && d.tuning.Load() == packTuning(rec.page, rec.channel) {
		d.submitAsync(rec)
		return nil
	}
	if !d.txq.queue(func() { d.xmitWorker(rec) }) {
		d.completeTx(rec, ErrNotRunning)
	}
	return nil
}

// submitAsync hands rec to an asynchronous driver. The driver may complete
// it before TransmitAsync returns.
func (d *Device) submitAsync(rec *txRecord) {
	d.txMu.Lock()
	rec.async = true
	d.txMu.Unlock()

	if err := d.async.TransmitAsync(rec.frame); err != nil {
		d.completeTx(rec, err)
	}
}

// xmitWorker runs on the transmit worker: retune if needed, then send.
func (d *Device) xmitWorker(rec *txRecord) {
	d.pibMu.Lock()
	err := d.tuneLocked(rec.page, rec.channel)
	if err == nil && d.async != nil {
		d.submitAsync(rec)
		d.pibMu.Unlock()
		return
	}
	if err == nil {
		err = d.sync.Transmit(d.runCtx, rec.frame)
	}
	d.pibMu.Unlock()
	d.completeTx(rec, err)
}

// TransmitDone completes the frame passed to TransmitAsync. A completion
// with no asynchronous frame outstanding is logged and ignored.
func (d *Device) TransmitDone(err error) {
	d.txMu.Lock()
	rec := d.cur
	if rec == nil || !rec.async {
		d.txMu.Unlock()
		d.stats.txSpurious.Add(1)
		d.logger.Warn("spurious transmit completion", "error", err)
		return
	}
	d.txMu.Unlock()

	ev := &log.ControlEvent{Op: log.ControlTransmitDone, Page: rec.page, Channel: rec.channel}
	if err != nil {
		ev.Error = err.Error()
	}
	d.captureEvent(log.Event{Direction: log.DirectionOut, Layer: log.LayerRadio, Category: log.CategoryControl, Interface: rec.iface.name, Control: ev})
	d.completeTx(rec, err)
}
