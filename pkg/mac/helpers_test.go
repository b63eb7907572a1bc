package mac_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/wpanstack/wpan-go/pkg/fcs"
	"github.com/wpanstack/wpan-go/pkg/frame"
	"github.com/wpanstack/wpan-go/pkg/mac"
)

const (
	testPAN   frame.PANID        = 0x1234
	testShort frame.ShortAddr    = 0x0001
	testExt   frame.ExtendedAddr = 0x0011223344556677
	waitFor                      = 2 * time.Second
)

func testHardware() mac.Hardware {
	hw := mac.Hardware{ExtendedAddr: testExt}
	hw.Channels[0] = mac.Page0Channels
	return hw
}

// radio is the shared state of the fake drivers.
type radio struct {
	mu       sync.Mutex
	host     mac.Host
	started  bool
	channels [][2]uint8
	sent     [][]byte
	headroom []int
	txErr    error
	// gate, when set, holds synchronous transmissions until closed.
	gate chan struct{}
	// entered is signalled when a transmission reaches the driver.
	entered chan struct{}
	// manual leaves asynchronous completion to the test.
	manual bool
}

func newRadio() *radio {
	return &radio{entered: make(chan struct{}, 16)}
}

func (r *radio) Start(host mac.Host) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.host = host
	r.started = true
	return nil
}

func (r *radio) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = false
	return nil
}

func (r *radio) SetChannel(page, channel uint8) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = append(r.channels, [2]uint8{page, channel})
	return nil
}

func (r *radio) record(f *frame.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, append([]byte(nil), f.Bytes()...))
	r.headroom = append(r.headroom, f.Headroom())
	return r.txErr
}

// Headroom returns the headroom of each frame as it reached the driver.
func (r *radio) Headroom() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.headroom...)
}

func (r *radio) Sent() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.sent...)
}

func (r *radio) Channels() [][2]uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][2]uint8(nil), r.channels...)
}

// syncRadio blocks in Transmit.
type syncRadio struct{ *radio }

func (r syncRadio) Transmit(ctx context.Context, f *frame.Frame) error {
	r.entered <- struct{}{}
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return r.record(f)
}

// asyncRadio completes from a separate goroutine unless manual is set.
type asyncRadio struct{ *radio }

func (r asyncRadio) TransmitAsync(f *frame.Frame) error {
	if err := r.record(f); err != nil {
		return err
	}
	r.entered <- struct{}{}
	if !r.manual {
		go r.host.TransmitDone(nil)
	}
	return nil
}

// delivery is one frame handed to the stack.
type delivery struct {
	iface string
	kind  mac.Kind
	data  []byte
	pt    frame.PacketType
}

type recordingStack struct {
	ch chan delivery
}

func newRecordingStack() *recordingStack {
	return &recordingStack{ch: make(chan delivery, 64)}
}

func (s *recordingStack) Receive(iface *mac.Interface, f *frame.Frame) {
	s.ch <- delivery{iface: iface.Name(), kind: iface.Kind(), data: append([]byte(nil), f.Bytes()...), pt: f.PacketType}
}

func (s *recordingStack) next(t *testing.T) delivery {
	t.Helper()
	select {
	case d := <-s.ch:
		return d
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for delivery")
		return delivery{}
	}
}

// none asserts nothing else was delivered within a short grace period.
func (s *recordingStack) none(t *testing.T) {
	t.Helper()
	select {
	case d := <-s.ch:
		t.Fatalf("unexpected delivery to %s: % x", d.iface, d.data)
	case <-time.After(50 * time.Millisecond):
	}
}

type testDevice struct {
	dev   *mac.Device
	radio *radio
	stack *recordingStack
	wpan  *mac.Interface
	mon   *mac.Interface
}

type deviceOption func(*mac.Config, *mac.Hardware)

func withRxQueueLen(n int) deviceOption {
	return func(c *mac.Config, _ *mac.Hardware) { c.RxQueueLen = n }
}

func withStack(s mac.Stack) deviceOption {
	return func(c *mac.Config, _ *mac.Hardware) { c.Stack = s }
}

func withExtraTxHeadroom(n int) deviceOption {
	return func(_ *mac.Config, hw *mac.Hardware) { hw.ExtraTxHeadroom = n }
}

func withFlags(f mac.HWFlags) deviceOption {
	return func(_ *mac.Config, hw *mac.Hardware) { hw.Flags |= f }
}

// newTestDevice builds the reference setup: a WPAN interface on PAN 0x1234
// with short address 0x0001 and a monitor interface, both open, radio
// tuned to page 0 channel 11.
func newTestDevice(t *testing.T, async bool, opts ...deviceOption) *testDevice {
	t.Helper()
	r := newRadio()
	var drv mac.Driver = syncRadio{r}
	if async {
		drv = asyncRadio{r}
	}
	stack := newRecordingStack()

	cfg := mac.DefaultConfig()
	cfg.Stack = stack
	cfg.Logger = slog.New(slog.DiscardHandler)
	hw := testHardware()
	for _, o := range opts {
		o(&cfg, &hw)
	}

	dev, err := mac.NewDevice(drv, hw, cfg)
	if err != nil {
		t.Fatalf("NewDevice failed: %v", err)
	}
	if err := dev.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	wpan, err := dev.AddInterface("wpan0", mac.KindWPAN)
	if err != nil {
		t.Fatalf("AddInterface(wpan0) failed: %v", err)
	}
	mon, err := dev.AddInterface("mon0", mac.KindMonitor)
	if err != nil {
		t.Fatalf("AddInterface(mon0) failed: %v", err)
	}
	if err := wpan.SetPANID(testPAN); err != nil {
		t.Fatalf("SetPANID failed: %v", err)
	}
	if err := wpan.SetShortAddr(testShort); err != nil {
		t.Fatalf("SetShortAddr failed: %v", err)
	}
	if err := wpan.SetPageChannel(0, 11); err != nil {
		t.Fatalf("SetPageChannel failed: %v", err)
	}
	if err := dev.SetChannel(0, 11); err != nil {
		t.Fatalf("SetChannel failed: %v", err)
	}
	wpan.Open()
	mon.Open()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		_ = dev.Stop(ctx)
	})
	return &testDevice{dev: dev, radio: r, stack: stack, wpan: wpan, mon: mon}
}

// dataFrame encodes a data frame from 00:..:02 addressed to dst.
func dataFrame(dst frame.Addr, payload []byte) []byte {
	h := frame.Header{
		FC:     frame.FrameControl{Type: frame.FrameTypeData},
		Seq:    0x10,
		Dest:   dst,
		Source: frame.NewShortAddr(dst.PANID, 0x0002),
	}
	return append(h.AppendTo(nil), payload...)
}

// onAir appends a valid FCS.
func onAir(b []byte) []byte {
	return fcs.Append(append([]byte(nil), b...))
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(waitFor)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out: %s", msg)
		}
		time.Sleep(time.Millisecond)
	}
}
