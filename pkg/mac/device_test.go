package mac_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wpanstack/wpan-go/pkg/frame"
	"github.com/wpanstack/wpan-go/pkg/llsec"
	"github.com/wpanstack/wpan-go/pkg/log"
	"github.com/wpanstack/wpan-go/pkg/mac"
	"github.com/wpanstack/wpan-go/pkg/mac/mocks"
)

// captureRecorder collects capture events.
type captureRecorder struct {
	mu     sync.Mutex
	events []log.Event
}

func (c *captureRecorder) Log(e log.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureRecorder) find(match func(log.Event) bool) (log.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.events {
		if match(e) {
			return e, true
		}
	}
	return log.Event{}, false
}

func TestNewDeviceRequiresTransmitter(t *testing.T) {
	drv := mocks.NewMockDriver(t)
	_, err := mac.NewDevice(drv, testHardware(), mac.Config{})
	assert.ErrorIs(t, err, mac.ErrNoTransmitter)

	_, err = mac.NewDevice(nil, testHardware(), mac.Config{})
	assert.ErrorIs(t, err, mac.ErrNoTransmitter)
}

func TestDeviceLifecycle(t *testing.T) {
	r := newRadio()
	dev, err := mac.NewDevice(syncRadio{r}, testHardware(), mac.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "phy0", dev.Name())
	assert.NotEmpty(t, dev.SessionID())

	page, channel := dev.Channel()
	assert.Equal(t, uint8(0), page)
	assert.Equal(t, mac.ChannelNone, channel)

	require.NoError(t, dev.Start(context.Background()))
	assert.True(t, dev.Running())
	assert.ErrorIs(t, dev.Start(context.Background()), mac.ErrAlreadyRunning)

	_, err = dev.AddInterface("wpan0", mac.KindWPAN)
	require.NoError(t, err)
	_, err = dev.AddInterface("wpan0", mac.KindMonitor)
	assert.ErrorIs(t, err, mac.ErrInterfaceExists)
	assert.ErrorIs(t, dev.RemoveInterface("nope"), mac.ErrNoSuchInterface)

	assert.ErrorIs(t, dev.Close(), mac.ErrInterfacesRemain)
	require.NoError(t, dev.RemoveInterface("wpan0"))
	require.NoError(t, dev.Close())
	assert.False(t, dev.Running())

	assert.ErrorIs(t, dev.Start(context.Background()), mac.ErrClosed)
	_, err = dev.AddInterface("wpan1", mac.KindWPAN)
	assert.ErrorIs(t, err, mac.ErrClosed)
}

func TestDeviceStartDriverFailure(t *testing.T) {
	drv := mocks.NewMockDriver(t)
	drv.EXPECT().Start(mock.Anything).Return(errors.New("no radio")).Once()

	dev, err := mac.NewDevice(struct {
		mac.Driver
		mac.SyncTransmitter
	}{drv, mocks.NewMockSyncTransmitter(t)}, testHardware(), mac.Config{})
	require.NoError(t, err)

	assert.Error(t, dev.Start(context.Background()))
	assert.False(t, dev.Running())
}

func TestStopCompletesBlockedTransmission(t *testing.T) {
	td := newTestDevice(t, true)
	td.radio.manual = true

	require.NoError(t, td.wpan.Transmit(frame.New(dataFrame(frame.NewShortAddr(testPAN, 2), nil))))
	waitEntered(t, td.radio)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, td.dev.Stop(ctx), context.DeadlineExceeded)

	assert.Equal(t, uint64(1), td.dev.Stats().TxErrors)
	assert.False(t, td.wpan.QueueStopped())

	// The driver completing afterwards is ignored.
	td.dev.TransmitDone(nil)
	assert.Zero(t, td.dev.Stats().TxFrames)
}

func TestStopCancelsSyncDriver(t *testing.T) {
	td := newTestDevice(t, false)
	td.radio.gate = make(chan struct{})

	require.NoError(t, td.wpan.Transmit(frame.New(dataFrame(frame.NewShortAddr(testPAN, 2), nil))))
	waitEntered(t, td.radio)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, td.dev.Stop(ctx), context.DeadlineExceeded)
	assert.Equal(t, uint64(1), td.dev.Stats().TxErrors)
	assert.Empty(t, td.radio.Sent())
}

func TestSetChannel(t *testing.T) {
	td := newTestDevice(t, false)

	assert.ErrorIs(t, td.dev.SetChannel(0, 27), mac.ErrInvalidChannel)
	assert.ErrorIs(t, td.dev.SetChannel(32, 0), mac.ErrInvalidChannel)
	assert.ErrorIs(t, td.dev.SetChannel(0, 5), mac.ErrUnsupportedChannel)
	assert.ErrorIs(t, td.dev.SetChannel(2, 1), mac.ErrUnsupportedChannel)

	require.NoError(t, td.dev.SetChannel(0, 11))
	require.NoError(t, td.dev.SetChannel(0, 26))
	assert.Equal(t, [][2]uint8{{0, 11}, {0, 26}}, td.radio.Channels(), "tuning to the current channel is a no-op")
}

func TestInterfaceAddressing(t *testing.T) {
	td := newTestDevice(t, false)

	assert.ErrorIs(t, td.wpan.SetPANID(frame.BroadcastPANID), mac.ErrInvalidPANID)
	assert.Equal(t, testPAN, td.wpan.PANID())
	assert.Equal(t, testExt, td.wpan.ExtendedAddr(), "inherits the radio address")

	assert.ErrorIs(t, td.mon.SetPANID(testPAN), mac.ErrWrongKind)
	assert.ErrorIs(t, td.mon.SetShortAddr(1), mac.ErrWrongKind)
	assert.Nil(t, td.mon.Security())
	assert.ErrorIs(t, td.wpan.SetPageChannel(0, 27), mac.ErrInvalidChannel)

	first := td.wpan.NextDSN()
	assert.Equal(t, first+1, td.wpan.NextDSN())

	info := td.wpan.Info()
	assert.Equal(t, "wpan0", info.Name)
	assert.Equal(t, "wpan", info.Kind)
	assert.True(t, info.Running)
	assert.Equal(t, uint8(11), info.Channel)
	assert.Equal(t, mac.DefaultMACParams(), info.Params)
}

func TestParseKind(t *testing.T) {
	for _, k := range []mac.Kind{mac.KindMonitor, mac.KindWPAN} {
		got, err := mac.ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	got, err := mac.ParseKind("node")
	require.NoError(t, err)
	assert.Equal(t, mac.KindWPAN, got)
	_, err = mac.ParseKind("bridge")
	assert.Error(t, err)
}

func TestStartRequest(t *testing.T) {
	td := newTestDevice(t, false)

	err := td.wpan.StartRequest(frame.NewExtendedAddr(0x4321, testExt), 0, 15)
	assert.ErrorIs(t, err, mac.ErrInvalidAddress)

	require.NoError(t, td.wpan.StartRequest(frame.NewShortAddr(0x4321, 0x0000), 0, 15))
	assert.Equal(t, frame.PANID(0x4321), td.wpan.PANID())
	assert.Equal(t, frame.ShortAddr(0x0000), td.wpan.ShortAddr())
	page, channel := td.wpan.PageChannel()
	assert.Equal(t, uint8(0), page)
	assert.Equal(t, uint8(15), channel)

	sec, ok := td.wpan.Security().(*llsec.Table)
	require.True(t, ok)
	p := sec.Params()
	assert.Equal(t, frame.PANID(0x4321), p.PANID)
	assert.Equal(t, frame.ShortAddr(0x0000), p.CoordShortAddr)
	assert.Equal(t, testExt, p.HWAddr)
	assert.Equal(t, testExt, p.CoordHWAddr)
}

func TestSetMACParams(t *testing.T) {
	t.Run("pushes tx power", func(t *testing.T) {
		r := newRadio()
		power := mocks.NewMockTxPowerSetter(t)
		power.EXPECT().SetTxPower(int32(-300)).Return(nil).Once()

		hw := testHardware()
		hw.Flags = mac.HWTxPower
		dev, err := mac.NewDevice(struct {
			syncRadio
			mac.TxPowerSetter
		}{syncRadio{r}, power}, hw, mac.Config{})
		require.NoError(t, err)
		w, err := dev.AddInterface("wpan0", mac.KindWPAN)
		require.NoError(t, err)

		p := mac.DefaultMACParams()
		p.TxPower = -300
		require.NoError(t, w.SetMACParams(p))
		assert.Equal(t, p, w.MACParams())
	})

	t.Run("capability without setter", func(t *testing.T) {
		hw := testHardware()
		hw.Flags = mac.HWCCAMode
		dev, err := mac.NewDevice(syncRadio{newRadio()}, hw, mac.Config{})
		require.NoError(t, err)
		w, err := dev.AddInterface("wpan0", mac.KindWPAN)
		require.NoError(t, err)

		assert.ErrorIs(t, w.SetMACParams(mac.DefaultMACParams()), mac.ErrNotSupported)
	})

	t.Run("out of range", func(t *testing.T) {
		td := newTestDevice(t, false)
		p := mac.DefaultMACParams()
		p.MinBE, p.MaxBE = 6, 4
		assert.Error(t, td.wpan.SetMACParams(p))
		p = mac.DefaultMACParams()
		p.FrameRetries = 8
		assert.Error(t, td.wpan.SetMACParams(p))
		assert.ErrorIs(t, td.mon.SetMACParams(mac.DefaultMACParams()), mac.ErrWrongKind)
	})
}

func TestBuildDataFrame(t *testing.T) {
	td := newTestDevice(t, false)

	f, err := td.wpan.BuildDataFrame(frame.NewShortAddr(testPAN, 0x0002), []byte("hi"), true)
	require.NoError(t, err)
	h := f.Header
	assert.True(t, h.FC.IntraPAN)
	assert.True(t, h.FC.AckRequest)
	assert.False(t, h.FC.SecurityEnabled)
	assert.Equal(t, frame.NewShortAddr(testPAN, testShort), h.Source)
	assert.Equal(t, []byte("hi"), f.Payload())

	// Broadcasts are never acknowledged.
	f, err = td.wpan.BuildDataFrame(frame.NewShortAddr(testPAN, frame.BroadcastShortAddr), nil, true)
	require.NoError(t, err)
	assert.False(t, f.Header.FC.AckRequest)

	// Without a short address the extended address is used.
	require.NoError(t, td.wpan.SetShortAddr(frame.UnassignedShortAddr))
	f, err = td.wpan.BuildDataFrame(frame.NewShortAddr(0x4321, 0x0002), nil, false)
	require.NoError(t, err)
	assert.Equal(t, frame.NewExtendedAddr(testPAN, testExt), f.Header.Source)
	assert.False(t, f.Header.FC.IntraPAN)

	_, err = td.wpan.BuildDataFrame(frame.NewShortAddr(testPAN, 2), make([]byte, 120), false)
	assert.ErrorIs(t, err, mac.ErrFrameTooLong)
}

func TestCaptureEvents(t *testing.T) {
	td := newTestDevice(t, false)
	rec := &captureRecorder{}
	td.dev.SetCaptureLogger(rec)

	raw := dataFrame(frame.NewShortAddr(testPAN, testShort), []byte("cap"))
	td.dev.ReceiveIRQSafe(onAir(raw), 0x55)
	bad := onAir(raw)
	bad[0] ^= 1
	td.dev.ReceiveIRQSafe(bad, 0x55)
	td.stack.next(t)
	td.stack.next(t)

	eventually(t, func() bool {
		_, ok := rec.find(func(e log.Event) bool { return e.Drop != nil && e.Drop.Reason == log.DropChecksum })
		return ok
	}, "checksum drop captured")

	radioIn, ok := rec.find(func(e log.Event) bool {
		return e.Category == log.CategoryFrame && e.Layer == log.LayerRadio && e.Direction == log.DirectionIn
	})
	require.True(t, ok)
	assert.Equal(t, td.dev.SessionID(), radioIn.SessionID)
	assert.Equal(t, "phy0", radioIn.Device)
	assert.Equal(t, uint8(0x55), radioIn.Frame.LQI)
	assert.Equal(t, uint8(11), radioIn.Frame.Channel)

	delivered, ok := rec.find(func(e log.Event) bool {
		return e.Category == log.CategoryFrame && e.Layer == log.LayerMAC && e.Interface == "wpan0"
	})
	require.True(t, ok)
	assert.Equal(t, "HOST", delivered.Frame.PacketType)
	assert.Equal(t, raw, delivered.Frame.Data)

	td.dev.SetCaptureLogger(nil)
	require.NoError(t, td.dev.SetChannel(0, 12))
	_, ok = rec.find(func(e log.Event) bool { return e.Control != nil && e.Control.Channel == 12 })
	assert.False(t, ok, "detached logger receives nothing")
}
