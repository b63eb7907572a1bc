package mac

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/wpanstack/wpan-go/pkg/frame"
	"github.com/wpanstack/wpan-go/pkg/log"
)

// Config configures a Device.
type Config struct {
	// Name identifies the device in logs and captures.
	Name string

	// RxQueueLen bounds the receive queue. Frames arriving while it is full
	// are dropped.
	RxQueueLen int

	// TxQueueLen bounds the transmit work queue.
	TxQueueLen int

	// Stack receives delivered frames. Nil discards them.
	Stack Stack

	// Logger for operational messages. Nil disables logging.
	Logger *slog.Logger
}

// DefaultConfig returns the default device configuration.
func DefaultConfig() Config {
	return Config{
		Name:       "phy0",
		RxQueueLen: 64,
		TxQueueLen: 10,
	}
}

// Device is the MAC instance of one radio.
type Device struct {
	name   string
	drv    Driver
	sync   SyncTransmitter
	async  AsyncTransmitter
	hw     Hardware
	stack  Stack
	logger *slog.Logger

	rxq *workQueue
	txq *workQueue

	running atomic.Bool
	closed  atomic.Bool
	runCtx  context.Context
	cancel  context.CancelFunc

	// pibMu serialises driver configuration and synchronous transmission.
	pibMu sync.Mutex
	// tuning packs the current page and channel; see Channel.
	tuning atomic.Uint32

	regMu  sync.Mutex
	ifaces atomic.Pointer[[]*Interface]

	// txMu guards the in-flight record and the idle channel, and orders
	// Stop clearing running against transmit admission.
	txMu sync.Mutex
	cur  *txRecord
	idle chan struct{}

	capture   atomic.Pointer[captureSink]
	sessionID string

	stats deviceCounters
}

type captureSink struct {
	log.Logger
}

// txRecord is one admitted transmission.
type txRecord struct {
	iface   *Interface
	frame   *frame.Frame
	page    uint8
	channel uint8
	// async is set once the frame has been passed to TransmitAsync.
	async bool
}

// NewDevice registers a radio. The driver must implement SyncTransmitter or
// AsyncTransmitter; AsyncTransmitter is preferred when both are present.
func NewDevice(drv Driver, hw Hardware, cfg Config) (*Device, error) {
	if drv == nil {
		return nil, fmt.Errorf("%w: nil driver", ErrNoTransmitter)
	}
	def := DefaultConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.RxQueueLen <= 0 {
		cfg.RxQueueLen = def.RxQueueLen
	}
	if cfg.TxQueueLen <= 0 {
		cfg.TxQueueLen = def.TxQueueLen
	}
	if cfg.Stack == nil {
		cfg.Stack = discardStack{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	d := &Device{
		name:      cfg.Name,
		drv:       drv,
		hw:        hw,
		stack:     cfg.Stack,
		logger:    logger.With("device", cfg.Name),
		rxq:       newWorkQueue(cfg.Name+"-rx", cfg.RxQueueLen),
		txq:       newWorkQueue(cfg.Name+"-tx", cfg.TxQueueLen),
		idle:      closedChan(),
		sessionID: uuid.NewString(),
	}
	d.async, _ = drv.(AsyncTransmitter)
	if d.async == nil {
		d.sync, _ = drv.(SyncTransmitter)
		if d.sync == nil {
			return nil, ErrNoTransmitter
		}
	}
	d.tuning.Store(packTuning(0, ChannelNone))
	d.ifaces.Store(&[]*Interface{})
	return d, nil
}

// Compile-time interface satisfaction check.
var _ Host = (*Device)(nil)

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Name returns the device name.
func (d *Device) Name() string { return d.name }

// Hardware returns the radio description.
func (d *Device) Hardware() Hardware { return d.hw }

// SessionID identifies this device instance in captures.
func (d *Device) SessionID() string { return d.sessionID }

// Running reports whether the device is started.
func (d *Device) Running() bool { return d.running.Load() }

// Stats returns a snapshot of the device counters.
func (d *Device) Stats() DeviceStats { return d.stats.snapshot() }

// Start starts the work queues and the driver.
func (d *Device) Start(ctx context.Context) error {
	if d.closed.Load() {
		return ErrClosed
	}
	if d.running.Swap(true) {
		return ErrAlreadyRunning
	}

	d.runCtx, d.cancel = context.WithCancel(context.Background())
	d.rxq.start()
	d.txq.start()

	if err := d.drv.Start(d); err != nil {
		d.running.Store(false)
		d.rxq.drain()
		d.txq.drain()
		d.cancel()
		return fmt.Errorf("start driver: %w", err)
	}

	d.logger.Info("device started", "session", d.sessionID)
	d.captureState(log.StateEntityDevice, "", "DOWN", "UP", "")
	return nil
}

// Stop stops admission, drains both work queues, waits for an in-flight
// transmission to complete or ctx to end, then stops the driver. When ctx
// ends first, blocking driver calls see their context cancelled and the
// in-flight frame is completed with ErrNotRunning.
func (d *Device) Stop(ctx context.Context) error {
	d.txMu.Lock()
	wasRunning := d.running.Swap(false)
	d.txMu.Unlock()
	if !wasRunning {
		return nil
	}

	var waitErr error
	drained := make(chan struct{})
	go func() {
		d.rxq.drain()
		d.txq.drain()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		waitErr = ctx.Err()
		d.cancel()
		<-drained
	}

	d.txMu.Lock()
	idle := d.idle
	d.txMu.Unlock()
	select {
	case <-idle:
	case <-ctx.Done():
		waitErr = ctx.Err()
		d.txMu.Lock()
		rec := d.cur
		d.txMu.Unlock()
		if rec != nil {
			d.completeTx(rec, ErrNotRunning)
		}
	}
	d.cancel()

	if err := d.drv.Stop(); err != nil {
		return fmt.Errorf("stop driver: %w", err)
	}
	d.logger.Info("device stopped")
	d.captureState(log.StateEntityDevice, "", "UP", "DOWN", "")
	return waitErr
}

// Close releases the device. All interfaces must have been removed.
func (d *Device) Close() error {
	if len(d.snapshot()) > 0 {
		return ErrInterfacesRemain
	}
	if d.closed.Swap(true) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.Stop(ctx)
}

// SetCaptureLogger attaches a capture logger. Nil detaches it.
func (d *Device) SetCaptureLogger(l log.Logger) {
	if l == nil {
		d.capture.Store(nil)
		return
	}
	d.capture.Store(&captureSink{Logger: l})
}

func packTuning(page, channel uint8) uint32 {
	return uint32(page)<<8 | uint32(channel)
}

// Channel returns the page and channel the radio is tuned to. channel is
// ChannelNone until the radio is first tuned. The read takes no lock.
func (d *Device) Channel() (page, channel uint8) {
	v := d.tuning.Load()
	return uint8(v >> 8), uint8(v)
}

// SetChannel retunes the radio.
func (d *Device) SetChannel(page, channel uint8) error {
	if page >= MaxPages || channel >= MaxChannels {
		return fmt.Errorf("%w: page %d channel %d", ErrInvalidChannel, page, channel)
	}
	if !d.hw.Supports(page, channel) {
		return fmt.Errorf("%w: page %d channel %d", ErrUnsupportedChannel, page, channel)
	}

	d.pibMu.Lock()
	defer d.pibMu.Unlock()
	return d.tuneLocked(page, channel)
}

// tuneLocked retunes if the radio is elsewhere. Callers hold pibMu.
func (d *Device) tuneLocked(page, channel uint8) error {
	if d.tuning.Load() == packTuning(page, channel) {
		return nil
	}
	err := d.drv.SetChannel(page, channel)
	ev := &log.ControlEvent{Op: log.ControlSetChannel, Page: page, Channel: channel}
	if err != nil {
		ev.Error = err.Error()
		d.logger.Debug("set channel failed", "page", page, "channel", channel, "error", err)
	} else {
		d.tuning.Store(packTuning(page, channel))
	}
	d.captureEvent(log.Event{Layer: log.LayerRadio, Category: log.CategoryControl, Control: ev})
	return err
}

func (d *Device) snapshot() []*Interface {
	return *d.ifaces.Load()
}

// Interfaces returns the registered interfaces.
func (d *Device) Interfaces() []*Interface {
	return append([]*Interface(nil), d.snapshot()...)
}

// Interface looks up an interface by name.
func (d *Device) Interface(name string) (*Interface, bool) {
	for _, i := range d.snapshot() {
		if i.name == name {
			return i, true
		}
	}
	return nil, false
}

// AddInterface creates an interface. It starts closed; call Open.
func (d *Device) AddInterface(name string, kind Kind) (*Interface, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	d.regMu.Lock()
	defer d.regMu.Unlock()

	cur := d.snapshot()
	for _, i := range cur {
		if i.name == name {
			return nil, fmt.Errorf("%w: %s", ErrInterfaceExists, name)
		}
	}
	iface := newInterface(d, name, kind)

	next := make([]*Interface, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, iface)

	// A transmission in flight has stopped every queue; the new one joins
	// them stopped so it cannot admit a second frame.
	d.txMu.Lock()
	if d.cur != nil {
		iface.queue.stop()
	}
	d.ifaces.Store(&next)
	d.txMu.Unlock()

	d.logger.Debug("interface added", "iface", name, "kind", kind)
	return iface, nil
}

// RemoveInterface closes and unregisters an interface.
func (d *Device) RemoveInterface(name string) error {
	d.regMu.Lock()
	defer d.regMu.Unlock()

	cur := d.snapshot()
	next := make([]*Interface, 0, len(cur))
	var removed *Interface
	for _, i := range cur {
		if i.name == name {
			removed = i
			continue
		}
		next = append(next, i)
	}
	if removed == nil {
		return fmt.Errorf("%w: %s", ErrNoSuchInterface, name)
	}
	removed.Close()
	d.ifaces.Store(&next)
	d.logger.Debug("interface removed", "iface", name)
	return nil
}

// captureEvent fills in the identity fields and records e.
func (d *Device) captureEvent(e log.Event) {
	sink := d.capture.Load()
	if sink == nil {
		return
	}
	e.Timestamp = time.Now()
	e.SessionID = d.sessionID
	e.Device = d.name
	sink.Log(e)
}

func (d *Device) capturing() bool {
	return d.capture.Load() != nil
}

func (d *Device) captureFrame(dir log.Direction, layer log.Layer, iface string, f *frame.Frame, page, channel uint8) {
	if !d.capturing() {
		return
	}
	fe := log.NewFrameEvent(f.Bytes())
	fe.LQI = f.LQI
	fe.Page = page
	fe.Channel = channel
	if dir == log.DirectionIn && layer == log.LayerMAC {
		fe.PacketType = f.PacketType.String()
	}
	d.captureEvent(log.Event{Direction: dir, Layer: layer, Category: log.CategoryFrame, Interface: iface, Frame: fe})
}

func (d *Device) captureDrop(dir log.Direction, layer log.Layer, iface string, reason log.DropReason, size int, err error) {
	if !d.capturing() {
		return
	}
	ev := &log.DropEvent{Reason: reason, Size: size}
	if err != nil {
		ev.Detail = err.Error()
	}
	d.captureEvent(log.Event{Direction: dir, Layer: layer, Category: log.CategoryDrop, Interface: iface, Drop: ev})
}

func (d *Device) captureState(entity log.StateEntity, iface, from, to, reason string) {
	if !d.capturing() {
		return
	}
	d.captureEvent(log.Event{
		Layer:       log.LayerMAC,
		Category:    log.CategoryState,
		Interface:   iface,
		StateChange: &log.StateChangeEvent{Entity: entity, OldState: from, NewState: to, Reason: reason},
	})
}
