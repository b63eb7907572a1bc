package mac

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/wpanstack/wpan-go/pkg/fcs"
	"github.com/wpanstack/wpan-go/pkg/frame"
	"github.com/wpanstack/wpan-go/pkg/llsec"
	"github.com/wpanstack/wpan-go/pkg/log"
)

// Kind is the type of a subinterface.
type Kind uint8

const (
	// KindMonitor sees every frame on the channel and injects raw frames.
	KindMonitor Kind = iota
	// KindWPAN is a regular node interface with its own addresses.
	KindWPAN
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindMonitor:
		return "monitor"
	case KindWPAN:
		return "wpan"
	default:
		return "unknown"
	}
}

// ParseKind parses the names returned by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "monitor":
		return KindMonitor, nil
	case "wpan", "node":
		return KindWPAN, nil
	default:
		return 0, fmt.Errorf("unknown interface kind %q", s)
	}
}

// MTU is the largest frame an interface carries, FCS included.
const MTU = frame.MaxFrameSize

// Interface is a subinterface of a Device.
type Interface struct {
	dev    *Device
	name   string
	kind   Kind
	logger *slog.Logger

	running atomic.Bool

	// mu guards the MIB fields below.
	mu        sync.RWMutex
	panID     frame.PANID
	shortAddr frame.ShortAddr
	extAddr   frame.ExtendedAddr
	page      uint8
	channel   uint8
	params    MACParams
	dsn       uint8
	bsn       uint8
	sec       Security

	queue txQueue
	stats ifaceCounters
}

func newInterface(d *Device, name string, kind Kind) *Interface {
	i := &Interface{
		dev:       d,
		name:      name,
		kind:      kind,
		logger:    d.logger.With("iface", name),
		panID:     frame.BroadcastPANID,
		shortAddr: frame.BroadcastShortAddr,
		extAddr:   d.hw.ExtendedAddr,
		channel:   ChannelNone,
		params:    DefaultMACParams(),
		dsn:       uint8(rand.UintN(256)),
		bsn:       uint8(rand.UintN(256)),
	}
	if kind == KindWPAN {
		i.sec = llsec.NewTable()
	}
	i.queue.init()
	return i
}

// Name returns the interface name.
func (i *Interface) Name() string { return i.name }

// Kind returns the interface kind.
func (i *Interface) Kind() Kind { return i.kind }

// Device returns the owning device.
func (i *Interface) Device() *Device { return i.dev }

// Running reports whether the interface is open.
func (i *Interface) Running() bool { return i.running.Load() }

// Stats returns a snapshot of the interface counters.
func (i *Interface) Stats() InterfaceStats { return i.stats.snapshot() }

// Tailroom returns the bytes the MAC needs after a frame the interface
// transmits.
func (i *Interface) Tailroom() int {
	if i.dev.hw.Flags&HWOmitChecksum != 0 {
		return 0
	}
	return fcs.Size
}

// Open brings the interface up.
func (i *Interface) Open() {
	if !i.running.Swap(true) {
		i.dev.captureState(log.StateEntityInterface, i.name, "DOWN", "UP", "")
	}
}

// Close brings the interface down. Frames already admitted complete.
func (i *Interface) Close() {
	if i.running.Swap(false) {
		i.dev.captureState(log.StateEntityInterface, i.name, "UP", "DOWN", "")
	}
}

func (i *Interface) requireWPAN() error {
	if i.kind != KindWPAN {
		return fmt.Errorf("%w: %s is a %s interface", ErrWrongKind, i.name, i.kind)
	}
	return nil
}

// PANID returns the PAN id.
func (i *Interface) PANID() frame.PANID {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.panID
}

// SetPANID sets the PAN id. The broadcast PAN id is rejected.
func (i *Interface) SetPANID(pan frame.PANID) error {
	if err := i.requireWPAN(); err != nil {
		return err
	}
	if pan == frame.BroadcastPANID {
		return fmt.Errorf("%w: %v", ErrInvalidPANID, pan)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.panID = pan
	return nil
}

// ShortAddr returns the short address.
func (i *Interface) ShortAddr() frame.ShortAddr {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.shortAddr
}

// SetShortAddr sets the short address.
func (i *Interface) SetShortAddr(addr frame.ShortAddr) error {
	if err := i.requireWPAN(); err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.shortAddr = addr
	return nil
}

// ExtendedAddr returns the extended address.
func (i *Interface) ExtendedAddr() frame.ExtendedAddr {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.extAddr
}

// SetExtendedAddr overrides the extended address inherited from the radio.
func (i *Interface) SetExtendedAddr(addr frame.ExtendedAddr) error {
	if err := i.requireWPAN(); err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.extAddr = addr
	return nil
}

// PageChannel returns the page and channel outgoing frames use.
func (i *Interface) PageChannel() (page, channel uint8) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.page, i.channel
}

// SetPageChannel sets the page and channel for outgoing frames. The radio
// is retuned when the next frame is sent; a channel the hardware does not
// support is refused at that point.
func (i *Interface) SetPageChannel(page, channel uint8) error {
	if err := i.requireWPAN(); err != nil {
		return err
	}
	if page >= MaxPages || channel >= MaxChannels {
		return fmt.Errorf("%w: page %d channel %d", ErrInvalidChannel, page, channel)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.page, i.channel = page, channel
	return nil
}

// NextDSN returns the next data sequence number.
func (i *Interface) NextDSN() uint8 {
	i.mu.Lock()
	defer i.mu.Unlock()
	v := i.dsn
	i.dsn++
	return v
}

// NextBSN returns the next beacon sequence number.
func (i *Interface) NextBSN() uint8 {
	i.mu.Lock()
	defer i.mu.Unlock()
	v := i.bsn
	i.bsn++
	return v
}

// Security returns the security context. Monitor interfaces have none.
func (i *Interface) Security() Security {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.sec
}

// SetSecurity replaces the security context. Nil disables security.
func (i *Interface) SetSecurity(sec Security) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.sec = sec
}

// Info is a point-in-time view of an interface.
type Info struct {
	Name         string             `json:"name"`
	Kind         string             `json:"kind"`
	Running      bool               `json:"running"`
	PANID        frame.PANID        `json:"panId"`
	ShortAddr    frame.ShortAddr    `json:"shortAddr"`
	ExtendedAddr frame.ExtendedAddr `json:"extendedAddr"`
	Page         uint8              `json:"page"`
	Channel      uint8              `json:"channel"`
	Params       MACParams          `json:"params"`
	QueueStopped bool               `json:"queueStopped"`
	Stats        InterfaceStats     `json:"stats"`
}

// Info returns a view of the interface.
func (i *Interface) Info() Info {
	i.mu.RLock()
	info := Info{
		Name:         i.name,
		Kind:         i.kind.String(),
		PANID:        i.panID,
		ShortAddr:    i.shortAddr,
		ExtendedAddr: i.extAddr,
		Page:         i.page,
		Channel:      i.channel,
		Params:       i.params,
	}
	i.mu.RUnlock()
	info.Running = i.Running()
	info.QueueStopped = i.QueueStopped()
	info.Stats = i.Stats()
	return info
}

// QueueStopped reports whether Transmit would refuse with ErrQueueStopped.
func (i *Interface) QueueStopped() bool {
	return i.queue.isStopped()
}

// WaitQueue blocks until the transmit queue is awake or ctx ends.
func (i *Interface) WaitQueue(ctx context.Context) error {
	return i.queue.wait(ctx)
}

// txQueue is the stop/wake state of an interface's transmit queue.
type txQueue struct {
	mu      sync.Mutex
	stopped bool
	wake    chan struct{}
}

func (q *txQueue) init() {
	q.wake = closedChan()
}

func (q *txQueue) stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.stopped {
		q.stopped = true
		q.wake = make(chan struct{})
	}
}

func (q *txQueue) start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		q.stopped = false
		close(q.wake)
	}
}

func (q *txQueue) isStopped() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stopped
}

func (q *txQueue) wait(ctx context.Context) error {
	q.mu.Lock()
	ch := q.wake
	q.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
