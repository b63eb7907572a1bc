package loopback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/wpanstack/wpan-go/pkg/frame"
	"github.com/wpanstack/wpan-go/pkg/mac"
)

// LQI is reported for every frame delivered over the loopback air.
const LQI = 0xff

// AllChannels enables every channel of every page.
const AllChannels uint32 = 0x07ffffff

var (
	// ErrNotStarted is returned when a stopped radio is asked to transmit.
	ErrNotStarted = errors.New("radio not started")

	// ErrDetached is returned by a radio removed from its air.
	ErrDetached = errors.New("radio detached")
)

// Air connects radios.
type Air struct {
	mu     sync.RWMutex
	radios []*Radio
	nextID atomic.Uint64
}

// NewAir returns an empty air.
func NewAir() *Air {
	return &Air{}
}

// Radios returns the attached radios.
func (a *Air) Radios() []*Radio {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]*Radio(nil), a.radios...)
}

// NewRadio attaches a synchronous radio.
func (a *Air) NewRadio() *Radio {
	r := &Radio{air: a, channel: mac.ChannelNone}
	r.addr = frame.ExtendedAddr(0x02_00_00_00_00_00_00_00 | a.nextID.Add(1))

	a.mu.Lock()
	a.radios = append(a.radios, r)
	a.mu.Unlock()
	return r
}

// NewAsyncRadio attaches an asynchronous radio.
func (a *Air) NewAsyncRadio() *AsyncRadio {
	return &AsyncRadio{Radio: a.NewRadio()}
}

// Detach removes a radio. It stops hearing and sending frames.
func (a *Air) Detach(r *Radio) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, have := range a.radios {
		if have == r {
			a.radios = append(a.radios[:i], a.radios[i+1:]...)
			r.detached.Store(true)
			return
		}
	}
}

// broadcast delivers data to every started radio other than from tuned to
// page and channel. It returns the number of listeners.
func (a *Air) broadcast(from *Radio, page, channel uint8, data []byte) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n := 0
	for _, r := range a.radios {
		if r == from {
			continue
		}
		if host, ok := r.listening(page, channel); ok {
			host.ReceiveIRQSafe(data, LQI)
			n++
		}
	}
	return n
}

// Stats counts a radio's traffic.
type Stats struct {
	TxFrames uint64 `json:"txFrames"`
	RxFrames uint64 `json:"rxFrames"`
}

// Radio is a synchronous loopback transceiver.
type Radio struct {
	air      *Air
	addr     frame.ExtendedAddr
	detached atomic.Bool

	mu      sync.RWMutex
	host    mac.Host
	started bool
	page    uint8
	channel uint8

	txFrames atomic.Uint64
	rxFrames atomic.Uint64
}

// Compile-time interface satisfaction checks.
var (
	_ mac.Driver           = (*Radio)(nil)
	_ mac.SyncTransmitter  = (*Radio)(nil)
	_ mac.AsyncTransmitter = (*AsyncRadio)(nil)
)

// Hardware describes the radio: every channel on every page, FCS handled
// by the MAC.
func (r *Radio) Hardware() mac.Hardware {
	hw := mac.Hardware{ExtendedAddr: r.addr}
	for i := range hw.Channels {
		hw.Channels[i] = AllChannels
	}
	return hw
}

// Start implements mac.Driver.
func (r *Radio) Start(host mac.Host) error {
	if r.detached.Load() {
		return ErrDetached
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.host = host
	r.started = true
	return nil
}

// Stop implements mac.Driver.
func (r *Radio) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = false
	return nil
}

// SetChannel implements mac.Driver.
func (r *Radio) SetChannel(page, channel uint8) error {
	if page >= mac.MaxPages || channel >= mac.MaxChannels {
		return fmt.Errorf("page %d channel %d out of range", page, channel)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.page, r.channel = page, channel
	return nil
}

// Channel returns the page and channel the radio listens on.
func (r *Radio) Channel() (page, channel uint8) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.page, r.channel
}

// Stats returns the radio's counters.
func (r *Radio) Stats() Stats {
	return Stats{TxFrames: r.txFrames.Load(), RxFrames: r.rxFrames.Load()}
}

func (r *Radio) listening(page, channel uint8) (mac.Host, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.started || r.page != page || r.channel != channel {
		return nil, false
	}
	r.rxFrames.Add(1)
	return r.host, true
}

func (r *Radio) send(f *frame.Frame) error {
	if r.detached.Load() {
		return ErrDetached
	}
	r.mu.RLock()
	started, page, channel := r.started, r.page, r.channel
	r.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}
	r.txFrames.Add(1)
	r.air.broadcast(r, page, channel, f.Bytes())
	return nil
}

// Transmit implements mac.SyncTransmitter.
func (r *Radio) Transmit(ctx context.Context, f *frame.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.send(f)
}

// AsyncRadio is a loopback transceiver that completes transmissions
// through Host.TransmitDone.
type AsyncRadio struct {
	*Radio
}

// TransmitAsync implements mac.AsyncTransmitter. The frame is delivered
// and completed before TransmitAsync returns.
func (r *AsyncRadio) TransmitAsync(f *frame.Frame) error {
	if err := r.send(f); err != nil {
		return err
	}
	r.mu.RLock()
	host := r.host
	r.mu.RUnlock()
	host.TransmitDone(nil)
	return nil
}
