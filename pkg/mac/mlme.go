package mac

import (
	"fmt"

	"github.com/wpanstack/wpan-go/pkg/fcs"
	"github.com/wpanstack/wpan-go/pkg/frame"
	"github.com/wpanstack/wpan-go/pkg/log"
)

// CCAMode is the clear channel assessment mode.
type CCAMode uint8

const (
	// CCAEnergy reports busy above the ED threshold.
	CCAEnergy CCAMode = 1
	// CCACarrier reports busy on a detected carrier.
	CCACarrier CCAMode = 2
	// CCAEnergyCarrier combines both.
	CCAEnergyCarrier CCAMode = 3
	// CCAAloha always reports idle.
	CCAAloha CCAMode = 4
)

// String returns the mode name.
func (m CCAMode) String() string {
	switch m {
	case CCAEnergy:
		return "energy"
	case CCACarrier:
		return "carrier"
	case CCAEnergyCarrier:
		return "energy+carrier"
	case CCAAloha:
		return "aloha"
	default:
		return fmt.Sprintf("cca(%d)", uint8(m))
	}
}

// MACParams are the tunable MAC and PHY settings of an interface.
type MACParams struct {
	// TxPower in mBm.
	TxPower    int32   `json:"txPower" yaml:"txPower"`
	CCAMode    CCAMode `json:"ccaMode" yaml:"ccaMode"`
	CCAEDLevel int32   `json:"ccaEdLevel" yaml:"ccaEdLevel"`

	MinBE        uint8 `json:"minBe" yaml:"minBe"`
	MaxBE        uint8 `json:"maxBe" yaml:"maxBe"`
	CSMABackoffs uint8 `json:"csmaBackoffs" yaml:"csmaBackoffs"`
	// FrameRetries is -1 to disable retransmission.
	FrameRetries int8 `json:"frameRetries" yaml:"frameRetries"`
	LBT          bool `json:"lbt" yaml:"lbt"`
}

// DefaultMACParams returns the 802.15.4 defaults for a new interface.
func DefaultMACParams() MACParams {
	return MACParams{
		CCAMode:      CCAEnergy,
		MinBE:        3,
		MaxBE:        5,
		CSMABackoffs: 4,
		FrameRetries: 3,
	}
}

// validate checks the ranges the standard allows.
func (p *MACParams) validate() error {
	if p.MaxBE < 3 || p.MaxBE > 8 || p.MinBE > p.MaxBE {
		return fmt.Errorf("backoff exponents %d..%d out of range", p.MinBE, p.MaxBE)
	}
	if p.CSMABackoffs > 5 {
		return fmt.Errorf("csma backoffs %d out of range", p.CSMABackoffs)
	}
	if p.FrameRetries < -1 || p.FrameRetries > 7 {
		return fmt.Errorf("frame retries %d out of range", p.FrameRetries)
	}
	return nil
}

// MACParams returns the current parameters.
func (i *Interface) MACParams() MACParams {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.params
}

// SetMACParams stores the parameters and pushes the PHY settings the
// hardware exposes to the driver. A hardware capability the driver does
// not implement fails with ErrNotSupported.
func (i *Interface) SetMACParams(p MACParams) error {
	if err := i.requireWPAN(); err != nil {
		return err
	}
	if err := p.validate(); err != nil {
		return err
	}

	i.mu.Lock()
	i.params = p
	i.mu.Unlock()

	d := i.dev
	d.pibMu.Lock()
	err := d.pushMACParams(p)
	d.pibMu.Unlock()

	ev := &log.ControlEvent{Op: log.ControlSetMACParams}
	if err != nil {
		ev.Error = err.Error()
	}
	d.captureEvent(log.Event{Layer: log.LayerRadio, Category: log.CategoryControl, Interface: i.name, Control: ev})
	return err
}

// pushMACParams configures the driver. Callers hold pibMu.
func (d *Device) pushMACParams(p MACParams) error {
	flags := d.hw.Flags
	if flags&HWTxPower != 0 {
		s, ok := d.drv.(TxPowerSetter)
		if !ok {
			return fmt.Errorf("%w: tx power", ErrNotSupported)
		}
		if err := s.SetTxPower(p.TxPower); err != nil {
			return fmt.Errorf("set tx power: %w", err)
		}
	}
	if flags&HWLBT != 0 {
		s, ok := d.drv.(LBTSetter)
		if !ok {
			return fmt.Errorf("%w: lbt", ErrNotSupported)
		}
		if err := s.SetLBT(p.LBT); err != nil {
			return fmt.Errorf("set lbt: %w", err)
		}
	}
	if flags&HWCCAMode != 0 {
		s, ok := d.drv.(CCAModeSetter)
		if !ok {
			return fmt.Errorf("%w: cca mode", ErrNotSupported)
		}
		if err := s.SetCCAMode(p.CCAMode); err != nil {
			return fmt.Errorf("set cca mode: %w", err)
		}
	}
	if flags&HWCCAEDLevel != 0 {
		s, ok := d.drv.(EDLevelSetter)
		if !ok {
			return fmt.Errorf("%w: cca ed level", ErrNotSupported)
		}
		if err := s.SetCCAEDLevel(p.CCAEDLevel); err != nil {
			return fmt.Errorf("set cca ed level: %w", err)
		}
	}
	return nil
}

// StartRequest starts a PAN with this interface as coordinator. addr must
// be a short address; it carries the PAN id to use.
func (i *Interface) StartRequest(addr frame.Addr, page, channel uint8) error {
	if err := i.requireWPAN(); err != nil {
		return err
	}
	if addr.Mode != frame.AddrShort {
		return fmt.Errorf("%w: start request needs a short address, got %v", ErrInvalidAddress, addr.Mode)
	}
	if err := i.SetPANID(addr.PANID); err != nil {
		return err
	}
	if err := i.SetPageChannel(page, channel); err != nil {
		return err
	}

	i.mu.Lock()
	i.shortAddr = addr.Short
	hw := i.extAddr
	sec := i.sec
	i.mu.Unlock()

	if ns, ok := sec.(NetworkSecurity); ok {
		ns.SetNetworkParams(addr.PANID, addr.Short, hw, hw)
	}

	i.logger.Info("PAN started", "pan", addr.PANID, "short", addr.Short, "page", page, "channel", channel)
	i.dev.captureEvent(log.Event{
		Layer:     log.LayerMAC,
		Category:  log.CategoryControl,
		Interface: i.name,
		Control:   &log.ControlEvent{Op: log.ControlStartRequest, Page: page, Channel: channel},
	})
	return nil
}

// BuildDataFrame creates a data frame from this interface to dst. The
// source is the short address when one is assigned and the PAN is set,
// otherwise the extended address. The frame is secured according to the
// security context's outgoing level when Transmit runs.
func (i *Interface) BuildDataFrame(dst frame.Addr, payload []byte, ackReq bool) (*frame.Frame, error) {
	if err := i.requireWPAN(); err != nil {
		return nil, err
	}

	i.mu.Lock()
	pan, short, ext := i.panID, i.shortAddr, i.extAddr
	seq := i.dsn
	i.dsn++
	sec := i.sec
	i.mu.Unlock()

	h := frame.Header{
		FC:   frame.FrameControl{Type: frame.FrameTypeData, AckRequest: ackReq && !dst.IsBroadcast()},
		Seq:  seq,
		Dest: dst,
	}
	if short == frame.BroadcastShortAddr || short == frame.UnassignedShortAddr || pan == frame.BroadcastPANID {
		h.Source = frame.NewExtendedAddr(pan, ext)
	} else {
		h.Source = frame.NewShortAddr(pan, short)
	}
	if dst.Mode != frame.AddrNone && dst.PANID == pan {
		h.FC.IntraPAN = true
	}

	if out, ok := sec.(OutgoingSecurity); ok {
		if aux, on := out.OutgoingSecurity(); on {
			h.FC.SecurityEnabled = true
			h.FC.Version = 1
			h.Security = aux
		}
	}

	size := h.Len() + len(payload) + fcs.Size
	if h.FC.SecurityEnabled {
		size += frame.MICLen(h.Security.Level)
	}
	if size > frame.MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLong, size)
	}

	f := frame.Encode(h, payload)
	f.EnsureHeadroom(i.dev.hw.ExtraTxHeadroom)
	return f, nil
}
