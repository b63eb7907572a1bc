package llsec

import (
	"fmt"

	"github.com/wpanstack/wpan-go/pkg/frame"
)

// Encrypt secures an outgoing frame in place. Frames without the security
// bit, or secured at level none, are left untouched. The frame counter is
// taken from the table and written into the auxiliary header.
func (t *Table) Encrypt(f *frame.Frame) error {
	if err := parsed(f); err != nil {
		return err
	}
	h := f.Header
	if !h.FC.SecurityEnabled || h.Security.Level == frame.SecLevelNone {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.params.Enabled {
		return ErrSecurityDisabled
	}
	if t.params.FrameCounter == maxFrameCounter {
		return ErrCounterExhausted
	}
	key, err := t.lookupKey(&h)
	if err != nil {
		return err
	}

	h.Security.FrameCounter = t.params.FrameCounter
	hdr := h.AppendTo(nil)
	if len(hdr) != f.HeaderLen {
		return fmt.Errorf("header length changed from %d to %d", f.HeaderLen, len(hdr))
	}
	t.params.FrameCounter++

	copy(f.Bytes(), hdr)
	f.SetHeader(h, len(hdr))

	level := h.Security.Level
	n := nonce(uint64(t.params.HWAddr), h.Security.FrameCounter, level)
	a, m := split(f, level)
	tag := key.ccm.seal(&n, a, m, frame.MICLen(level))
	f.Append(tag...)
	return nil
}

// Decrypt authenticates a received frame, removes its integrity code and
// decrypts the payload in place. Unsecured frames pass unchanged.
func (t *Table) Decrypt(f *frame.Frame) error {
	if err := parsed(f); err != nil {
		return err
	}
	h := &f.Header
	if !h.FC.SecurityEnabled {
		return nil
	}
	if h.FC.Version == 0 {
		return ErrUnsupportedVersion
	}
	level := h.Security.Level
	if level == frame.SecLevelNone {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.params.Enabled {
		return ErrSecurityDisabled
	}
	key, err := t.lookupKey(h)
	if err != nil {
		return err
	}
	dev := t.lookupDevice(h.Source)
	if dev == nil {
		return fmt.Errorf("%w: %v", ErrUnknownDevice, h.Source)
	}
	if sl, ok := t.secLevels[h.FC.Type]; ok {
		if sl.Levels&(1<<level) == 0 && !(sl.DeviceOverride && dev.Exempt) {
			return fmt.Errorf("%w: level %d for %v", ErrInsufficientSecurity, level, h.FC.Type)
		}
	}

	counter := h.Security.FrameCounter
	if counter == maxFrameCounter || counter < dev.FrameCounter {
		return fmt.Errorf("%w: %d from %v", ErrReplay, counter, dev.HWAddr)
	}

	micLen := frame.MICLen(level)
	if len(f.Payload()) < micLen {
		return ErrAuthFailed
	}
	tag := append([]byte(nil), f.Bytes()[f.Len()-micLen:]...)
	f.Trim(micLen)

	n := nonce(uint64(dev.HWAddr), counter, level)
	a, m := split(f, level)
	if !key.ccm.open(&n, a, m, tag) {
		return ErrAuthFailed
	}
	dev.FrameCounter = counter + 1
	return nil
}

// split returns the authenticated-only and the encrypted parts of a frame.
// The command identifier of a MAC command frame stays in the clear.
func split(f *frame.Frame, level uint8) (a, m []byte) {
	data := f.Bytes()
	if !frame.Encrypted(level) {
		return data, nil
	}
	open := f.HeaderLen
	if f.Header.FC.Type == frame.FrameTypeMACCmd && len(data) > open {
		open++
	}
	return data[:open], data[open:]
}
