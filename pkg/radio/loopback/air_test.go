package loopback_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wpanstack/wpan-go/pkg/frame"
	"github.com/wpanstack/wpan-go/pkg/mac"
	"github.com/wpanstack/wpan-go/pkg/radio/loopback"
)

const testPAN frame.PANID = 0x1234

type node struct {
	dev   *mac.Device
	wpan  *mac.Interface
	inbox chan []byte
}

func newNode(t *testing.T, drv interface {
	mac.Driver
	Hardware() mac.Hardware
}, short frame.ShortAddr, channel uint8) *node {
	t.Helper()
	n := &node{inbox: make(chan []byte, 8)}
	stack := mac.StackFunc(func(iface *mac.Interface, f *frame.Frame) {
		if iface.Kind() == mac.KindWPAN {
			n.inbox <- append([]byte(nil), f.Payload()...)
		}
	})

	dev, err := mac.NewDevice(drv, drv.Hardware(), mac.Config{Stack: stack})
	require.NoError(t, err)
	require.NoError(t, dev.Start(context.Background()))
	t.Cleanup(func() { _ = dev.Stop(context.Background()) })

	w, err := dev.AddInterface("wpan0", mac.KindWPAN)
	require.NoError(t, err)
	require.NoError(t, w.SetPANID(testPAN))
	require.NoError(t, w.SetShortAddr(short))
	require.NoError(t, w.SetPageChannel(0, channel))
	require.NoError(t, dev.SetChannel(0, channel))
	w.Open()

	n.dev, n.wpan = dev, w
	return n
}

func (n *node) send(t *testing.T, to frame.ShortAddr, payload string) {
	t.Helper()
	f, err := n.wpan.BuildDataFrame(frame.NewShortAddr(testPAN, to), []byte(payload), false)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, n.wpan.Send(ctx, f))
}

func (n *node) expect(t *testing.T, payload string) {
	t.Helper()
	select {
	case got := <-n.inbox:
		assert.Equal(t, payload, string(got))
	case <-time.After(2 * time.Second):
		t.Fatalf("no frame, want %q", payload)
	}
}

func (n *node) quiet(t *testing.T) {
	t.Helper()
	select {
	case got := <-n.inbox:
		t.Fatalf("unexpected frame %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAirDelivers(t *testing.T) {
	for _, async := range []bool{false, true} {
		name := map[bool]string{false: "sync", true: "async"}[async]
		t.Run(name, func(t *testing.T) {
			air := loopback.NewAir()
			var a, b *node
			if async {
				a = newNode(t, air.NewAsyncRadio(), 1, 11)
				b = newNode(t, air.NewAsyncRadio(), 2, 11)
			} else {
				a = newNode(t, air.NewRadio(), 1, 11)
				b = newNode(t, air.NewRadio(), 2, 11)
			}

			a.send(t, 2, "hello b")
			b.expect(t, "hello b")
			a.quiet(t)

			b.send(t, 1, "hello a")
			a.expect(t, "hello a")

			eventually(t, func() bool { return a.dev.Stats().TxFrames == 1 && b.dev.Stats().TxFrames == 1 })
		})
	}
}

func TestAirChannelsIsolate(t *testing.T) {
	air := loopback.NewAir()
	a := newNode(t, air.NewRadio(), 1, 11)
	b := newNode(t, air.NewRadio(), 2, 15)

	a.send(t, 2, "lost")
	b.quiet(t)

	// Moving b onto a's channel makes it hear the next frame.
	require.NoError(t, b.dev.SetChannel(0, 11))
	a.send(t, 2, "found")
	b.expect(t, "found")
}

func TestAirLQIAndDetach(t *testing.T) {
	air := loopback.NewAir()
	tx := air.NewRadio()
	rx := air.NewRadio()
	require.Len(t, air.Radios(), 2)
	assert.NotEqual(t, tx.Hardware().ExtendedAddr, rx.Hardware().ExtendedAddr)

	host := &recordingHost{frames: make(chan uint8, 4)}
	require.NoError(t, tx.Start(host))
	require.NoError(t, rx.Start(host))
	require.NoError(t, tx.SetChannel(3, 2))
	require.NoError(t, rx.SetChannel(3, 2))

	require.NoError(t, tx.Transmit(context.Background(), frame.New([]byte{1, 2, 3})))
	assert.Equal(t, uint8(loopback.LQI), <-host.frames)
	assert.Equal(t, uint64(1), tx.Stats().TxFrames)
	assert.Equal(t, uint64(1), rx.Stats().RxFrames)

	air.Detach(rx)
	require.NoError(t, tx.Transmit(context.Background(), frame.New([]byte{1, 2, 3})))
	assert.Empty(t, host.frames)
	assert.ErrorIs(t, rx.Transmit(context.Background(), frame.New([]byte{1})), loopback.ErrDetached)

	require.NoError(t, tx.Stop())
	assert.ErrorIs(t, tx.Transmit(context.Background(), frame.New([]byte{1})), loopback.ErrNotStarted)
}

type recordingHost struct {
	frames chan uint8
}

func (h *recordingHost) ReceiveIRQSafe(_ []byte, lqi uint8) { h.frames <- lqi }
func (h *recordingHost) TransmitDone(error)                 {}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(time.Millisecond)
	}
}
