package medium_test

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wpanstack/wpan-go/pkg/connection"
	"github.com/wpanstack/wpan-go/pkg/frame"
	"github.com/wpanstack/wpan-go/pkg/mac"
	"github.com/wpanstack/wpan-go/pkg/medium"
	"github.com/wpanstack/wpan-go/pkg/transport"
)

const testPAN frame.PANID = 0x1234

func startHub(t *testing.T, cfg medium.HubConfig) *medium.Hub {
	t.Helper()
	if cfg.Address == "" {
		cfg.Address = "127.0.0.1:0"
	}
	hub := medium.NewHub(cfg)
	require.NoError(t, hub.Start(context.Background()))
	t.Cleanup(func() { _ = hub.Stop() })
	return hub
}

func fastClient(addr string) medium.ClientConfig {
	return medium.ClientConfig{
		Address:        addr,
		RequestTimeout: time.Second,
		Backoff:        connection.BackoffConfig{Initial: 10 * time.Millisecond, Max: 50 * time.Millisecond},
	}
}

type node struct {
	client *medium.Client
	dev    *mac.Device
	wpan   *mac.Interface
	inbox  chan []byte
}

func newNode(t *testing.T, cfg medium.ClientConfig, short frame.ShortAddr, channel uint8) *node {
	t.Helper()
	n := &node{inbox: make(chan []byte, 8)}
	n.client = medium.NewClient(cfg)
	stack := mac.StackFunc(func(iface *mac.Interface, f *frame.Frame) {
		n.inbox <- append([]byte(nil), f.Payload()...)
	})

	dev, err := mac.NewDevice(n.client, n.client.Hardware(), mac.Config{Stack: stack})
	require.NoError(t, err)
	require.NoError(t, dev.Start(context.Background()))
	t.Cleanup(func() { _ = dev.Stop(context.Background()) })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, n.client.WaitConnected(ctx))

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

func TestRelayBetweenClients(t *testing.T) {
	hub := startHub(t, medium.HubConfig{})
	addr := hub.Addr().String()

	a := newNode(t, fastClient(addr), 0x0001, 15)
	b := newNode(t, fastClient(addr), 0x0002, 15)
	c := newNode(t, fastClient(addr), 0x0003, 20)

	a.send(t, 0x0002, "over the air")
	b.expect(t, "over the air")
	c.quiet(t)
	a.quiet(t)

	require.Eventually(t, func() bool { return a.dev.Stats().TxFrames == 1 }, time.Second, 5*time.Millisecond)

	b.send(t, frame.BroadcastShortAddr, "hello all")
	a.expect(t, "hello all")
	c.quiet(t)

	st := hub.Stats()
	assert.Equal(t, uint64(3), st.Accepted)
	assert.Equal(t, uint64(2), st.Relayed)
	assert.Equal(t, uint64(2), st.Delivered)

	infos := hub.Clients()
	require.Len(t, infos, 3)
	channels := map[uint8]int{}
	for _, info := range infos {
		assert.NotEmpty(t, info.ID)
		channels[info.Channel]++
	}
	assert.Equal(t, map[uint8]int{15: 2, 20: 1}, channels)
}

func TestClientKeepsIDAcrossReconnect(t *testing.T) {
	cfg := medium.HubConfig{Address: "127.0.0.1:0"}
	hub := medium.NewHub(cfg)
	require.NoError(t, hub.Start(context.Background()))
	addr := hub.Addr().String()

	var states []connection.State
	stateCh := make(chan connection.State, 32)
	ccfg := fastClient(addr)
	ccfg.OnStateChange = func(_, next connection.State) { stateCh <- next }
	n := newNode(t, ccfg, 0x0001, 17)
	id := n.client.ID()
	require.NotEmpty(t, id)

	require.NoError(t, hub.Stop())
	hub2 := startHub(t, medium.HubConfig{Address: addr})

	require.Eventually(t, func() bool {
		infos := hub2.Clients()
		return len(infos) == 1 && infos[0].Channel == 17
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, id, hub2.Clients()[0].ID)
	assert.Equal(t, connection.StateConnected, n.client.State())

	for len(stateCh) > 0 {
		states = append(states, <-stateCh)
	}
	assert.Contains(t, states, connection.StateReconnecting)
}

func TestTransmitWithoutHub(t *testing.T) {
	c := medium.NewClient(fastClient("127.0.0.1:1"))
	f := frame.New([]byte{0x41, 0x88, 0x01})
	assert.ErrorIs(t, c.TransmitAsync(f), medium.ErrNotConnected)
	// Tuning is remembered for the next session.
	assert.NoError(t, c.SetChannel(0, 11))
	assert.Empty(t, c.ID())
	assert.Equal(t, time.Duration(0), c.RTT())
	hw := c.Hardware()
	assert.True(t, hw.Supports(3, 26))
}

// doneHost records transmit completions.
type doneHost struct{ done chan error }

func (h doneHost) ReceiveIRQSafe([]byte, uint8) {}
func (h doneHost) TransmitDone(err error)        { h.done <- err }

func TestTransmitAsyncDoesNotBlockOnStalledHub(t *testing.T) {
	hubEnd, clientEnd := net.Pipe()
	t.Cleanup(func() { _ = hubEnd.Close() })

	var dials atomic.Int32
	cfg := fastClient("stalled")
	cfg.Dial = func(context.Context, string, string) (net.Conn, error) {
		if dials.Add(1) > 1 {
			return nil, errors.New("hub gone")
		}
		return clientEnd, nil
	}
	c := medium.NewClient(cfg)

	// Answer the handshake, then never read again.
	go func() {
		conn := transport.NewConn(hubEnd)
		m, err := conn.Receive()
		if err != nil {
			return
		}
		_ = conn.Send(&transport.Message{Type: transport.MsgWelcome, Seq: m.Seq, ID: "stalled"})
	}()

	host := doneHost{done: make(chan error, 1)}
	require.NoError(t, c.Start(host))
	t.Cleanup(func() { _ = c.Stop() })
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.WaitConnected(ctx))

	returned := make(chan error, 1)
	go func() { returned <- c.TransmitAsync(frame.New([]byte{0x41, 0x88, 0x01})) }()
	select {
	case err := <-returned:
		require.NoError(t, err)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("TransmitAsync blocked on the socket")
	}
	assert.ErrorIs(t, c.TransmitAsync(frame.New([]byte{0x41, 0x88, 0x02})), transport.ErrBusy)

	// The hub goes away with the frame unconfirmed.
	require.NoError(t, hubEnd.Close())
	select {
	case err := <-host.done:
		assert.ErrorIs(t, err, medium.ErrNotConnected)
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight frame never completed")
	}
}

// rawClient speaks the hub protocol directly.
func rawClient(t *testing.T, addr string) *transport.Conn {
	t.Helper()
	nc, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	conn := transport.NewConn(nc)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func hello(t *testing.T, conn *transport.Conn, id string) *transport.Message {
	t.Helper()
	require.NoError(t, conn.Send(&transport.Message{Type: transport.MsgHello, Seq: 1, ID: id}))
	m, err := conn.Receive()
	require.NoError(t, err)
	return m
}

func TestHandshake(t *testing.T) {
	hub := startHub(t, medium.HubConfig{MaxClients: 2})
	addr := hub.Addr().String()

	first := rawClient(t, addr)
	m := hello(t, first, "radio-1")
	assert.Equal(t, transport.MsgWelcome, m.Type)
	assert.Equal(t, "radio-1", m.ID)

	dup := rawClient(t, addr)
	m = hello(t, dup, "radio-1")
	assert.Equal(t, transport.MsgResponse, m.Type)
	assert.ErrorIs(t, m.Status.Err(m.Error), transport.ErrBusy)

	second := rawClient(t, addr)
	m = hello(t, second, "")
	require.Equal(t, transport.MsgWelcome, m.Type)
	assert.Len(t, m.ID, 36)

	full := rawClient(t, addr)
	m = hello(t, full, "")
	assert.Equal(t, transport.MsgResponse, m.Type)

	bad := rawClient(t, addr)
	require.NoError(t, bad.Send(&transport.Message{Type: transport.MsgPing, Seq: 1}))
	_, err := bad.Receive()
	assert.Error(t, err)

	require.Eventually(t, func() bool { return hub.Stats().Rejected == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(2), hub.Stats().Accepted)
}

func TestSessionCommands(t *testing.T) {
	hub := startHub(t, medium.HubConfig{})
	conn := rawClient(t, hub.Addr().String())
	require.Equal(t, transport.MsgWelcome, hello(t, conn, "").Type)

	exchange := func(m *transport.Message) *transport.Message {
		require.NoError(t, conn.Send(m))
		resp, err := conn.Receive()
		require.NoError(t, err)
		assert.Equal(t, m.Seq, resp.Seq)
		return resp
	}

	resp := exchange(&transport.Message{Type: transport.MsgFrame, Seq: 2, Data: []byte{1, 2, 3}})
	assert.Equal(t, transport.MsgTxDone, resp.Type)
	assert.Equal(t, transport.StatusError, resp.Status, "untuned radios cannot transmit")

	resp = exchange(&transport.Message{Type: transport.MsgTune, Seq: 3, Page: 0, Channel: 40})
	assert.Equal(t, transport.StatusUnsupported, resp.Status)

	resp = exchange(&transport.Message{Type: transport.MsgTune, Seq: 4, Page: 0, Channel: 11})
	assert.Equal(t, transport.StatusOK, resp.Status)

	resp = exchange(&transport.Message{Type: transport.MsgFrame, Seq: 5, Data: []byte{1, 2, 3}})
	assert.Equal(t, transport.MsgTxDone, resp.Type)
	assert.Equal(t, transport.StatusOK, resp.Status)

	resp = exchange(&transport.Message{Type: transport.MsgPing, Seq: 6})
	assert.Equal(t, transport.MsgPong, resp.Type)

	resp = exchange(&transport.Message{Type: transport.MsgStart, Seq: 7})
	assert.Equal(t, transport.StatusUnsupported, resp.Status)

	infos := hub.Clients()
	require.Len(t, infos, 1)
	assert.Equal(t, uint64(1), infos[0].TxFrames)
}

func TestIdleClientDropped(t *testing.T) {
	left := make(chan medium.ClientInfo, 1)
	hub := startHub(t, medium.HubConfig{
		IdleTimeout: 50 * time.Millisecond,
		OnLeave:     func(info medium.ClientInfo) { left <- info },
	})
	conn := rawClient(t, hub.Addr().String())
	welcome := hello(t, conn, "")

	select {
	case info := <-left:
		assert.Equal(t, welcome.ID, info.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("idle client not dropped")
	}
	assert.Empty(t, hub.Clients())
}

func TestDefaults(t *testing.T) {
	hc := medium.DefaultHubConfig()
	assert.Equal(t, ":7154", hc.Address)
	assert.Equal(t, 17*time.Second, hc.IdleTimeout)

	cc := medium.DefaultClientConfig()
	assert.Equal(t, "localhost:7154", cc.Address)
	assert.Equal(t, connection.DefaultInitialBackoff, cc.Backoff.Initial)
}
