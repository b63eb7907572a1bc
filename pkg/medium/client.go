package medium

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/wpanstack/wpan-go/pkg/connection"
	"github.com/wpanstack/wpan-go/pkg/frame"
	"github.com/wpanstack/wpan-go/pkg/mac"
	"github.com/wpanstack/wpan-go/pkg/transport"
)

// allChannels is every channel of a page.
const allChannels uint32 = 1<<mac.MaxChannels - 1

// ClientConfig configures a Client.
type ClientConfig struct {
	// Address of the hub, host:port.
	Address string `yaml:"address"`

	// ID to ask the hub for. Empty lets the hub choose; the assigned ID
	// is then kept across reconnects.
	ID string `yaml:"id"`

	// ExtendedAddr is the radio's permanent address.
	ExtendedAddr frame.ExtendedAddr `yaml:"-"`

	// RequestTimeout bounds handshake and tune round trips.
	RequestTimeout time.Duration `yaml:"requestTimeout"`

	Backoff   connection.BackoffConfig  `yaml:"backoff"`
	KeepAlive transport.KeepAliveConfig `yaml:"keepAlive"`

	// Dial opens the TCP connection. Nil uses net.Dialer.
	Dial func(ctx context.Context, network, addr string) (net.Conn, error) `yaml:"-"`

	// OnStateChange observes the hub link.
	OnStateChange func(old, new connection.State) `yaml:"-"`

	// Logger for operational messages. Nil disables logging.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultClientConfig returns the default client settings.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Address:        fmt.Sprintf("localhost:%d", DefaultPort),
		RequestTimeout: 2 * time.Second,
		Backoff:        connection.DefaultBackoffConfig(),
		KeepAlive:      transport.DefaultKeepAliveConfig(),
	}
}

// Client is a radio attached to a Hub. It completes transmissions
// asynchronously, once the hub has relayed the frame.
type Client struct {
	config ClientConfig
	logger *slog.Logger
	sup    *connection.Supervisor

	mu      sync.Mutex
	host    mac.Host
	id      string
	page    uint8
	channel uint8
	conn    *transport.Conn
	out     chan *transport.Message
	ka      *transport.KeepAlive
	done    chan struct{}
	ready   chan struct{}
	pending map[uint32]chan *transport.Message
	txSeq   uint32

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Compile-time interface satisfaction checks.
var (
	_ mac.Driver           = (*Client)(nil)
	_ mac.AsyncTransmitter = (*Client)(nil)
)

// NewClient returns a hub radio. Zero config fields take defaults.
func NewClient(config ClientConfig) *Client {
	def := DefaultClientConfig()
	if config.Address == "" {
		config.Address = def.Address
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = def.RequestTimeout
	}
	if config.Dial == nil {
		var d net.Dialer
		config.Dial = d.DialContext
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Client{
		config:  config,
		logger:  logger.With("hub", config.Address),
		id:      config.ID,
		channel: mac.ChannelNone,
		ready:   make(chan struct{}),
	}
	c.sup = connection.NewSupervisor(c.connect, connection.SupervisorConfig{
		Backoff:        config.Backoff,
		ConnectTimeout: config.RequestTimeout,
		OnStateChange:  config.OnStateChange,
		Logger:         c.logger,
	})
	return c
}

// Hardware describes the virtual radio: every channel of every page.
func (c *Client) Hardware() mac.Hardware {
	hw := mac.Hardware{ExtendedAddr: c.config.ExtendedAddr}
	for i := range hw.Channels {
		hw.Channels[i] = allChannels
	}
	return hw
}

// ID returns the hub-assigned client ID, empty before the first session.
func (c *Client) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// State returns the hub link state.
func (c *Client) State() connection.State {
	return c.sup.State()
}

// WaitConnected blocks until a hub session is up or ctx ends.
func (c *Client) WaitConnected(ctx context.Context) error {
	c.mu.Lock()
	ready := c.ready
	c.mu.Unlock()
	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RTT returns the last keep-alive round trip time.
func (c *Client) RTT() time.Duration {
	c.mu.Lock()
	ka := c.ka
	c.mu.Unlock()
	if ka == nil {
		return 0
	}
	return ka.RTT()
}

// Start begins connecting. It does not wait for the hub; frames
// transmitted before the first session fail with ErrNotConnected.
func (c *Client) Start(host mac.Host) error {
	c.mu.Lock()
	c.host = host
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_ = c.sup.Run(ctx)
	}()
	return nil
}

// Stop ends the session and stops reconnecting.
func (c *Client) Stop() error {
	if c.cancel == nil {
		return nil
	}
	c.cancel()
	c.wg.Wait()
	c.cancel = nil
	return nil
}

// SetChannel retunes the radio. Without a session the channel is
// remembered and applied on connect.
func (c *Client) SetChannel(page, channel uint8) error {
	c.mu.Lock()
	c.page, c.channel = page, channel
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.config.RequestTimeout)
	defer cancel()
	return c.request(ctx, conn, &transport.Message{Type: transport.MsgTune, Page: page, Channel: channel})
}

// TransmitAsync queues f for the session writer and returns without
// waiting for the socket. Completion is reported through Host.TransmitDone
// once the hub confirms it, or with ErrNotConnected if the session ends
// first.
func (c *Client) TransmitAsync(f *frame.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	if c.txSeq != 0 {
		return transport.ErrBusy
	}
	seq := c.conn.NextSeq()
	m := &transport.Message{Type: transport.MsgFrame, Seq: seq, Data: append([]byte(nil), f.Bytes()...)}
	select {
	case c.out <- m:
	default:
		return transport.ErrBusy
	}
	c.txSeq = seq
	return nil
}

// writeLoop sends queued frames until the session ends. A failed write
// ends the session.
func (c *Client) writeLoop(ctx context.Context, conn *transport.Conn, out <-chan *transport.Message, cancel context.CancelFunc) {
	for {
		select {
		case m := <-out:
			if err := conn.Send(m); err != nil {
				c.logger.Warn("frame write failed", "seq", m.Seq, "error", err)
				cancel()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) request(ctx context.Context, conn *transport.Conn, m *transport.Message) error {
	m.Seq = conn.NextSeq()
	ch := make(chan *transport.Message, 1)

	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.pending[m.Seq] = ch
	done := c.done
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, m.Seq)
		c.mu.Unlock()
	}()

	if err := conn.Send(m); err != nil {
		return err
	}
	select {
	case resp := <-ch:
		return resp.Status.Err(resp.Error)
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return ErrNotConnected
	}
}

// connect dials the hub, performs the handshake and restores the tuning.
func (c *Client) connect(ctx context.Context) (func(context.Context) error, error) {
	nc, err := c.config.Dial(ctx, "tcp", c.config.Address)
	if err != nil {
		return nil, err
	}
	conn := transport.NewConn(nc)
	if deadline, ok := ctx.Deadline(); ok {
		_ = nc.SetDeadline(deadline)
	}

	c.mu.Lock()
	hello := &transport.Message{Type: transport.MsgHello, Seq: conn.NextSeq(), ID: c.id}
	page, channel := c.page, c.channel
	c.mu.Unlock()

	if err := c.roundTrip(conn, hello, transport.MsgWelcome); err != nil {
		_ = conn.Close()
		return nil, err
	}
	id := hello.ID
	if channel != mac.ChannelNone {
		tune := &transport.Message{Type: transport.MsgTune, Seq: conn.NextSeq(), Page: page, Channel: channel}
		if err := c.roundTrip(conn, tune, transport.MsgResponse); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("restore tuning: %w", err)
		}
	}
	_ = nc.SetDeadline(time.Time{})

	c.mu.Lock()
	c.id = id
	c.mu.Unlock()
	c.logger.Info("connected to hub", "id", id)

	return func(ctx context.Context) error { return c.serve(ctx, conn, page, channel) }, nil
}

// roundTrip sends m and reads its answer before the session loop runs.
// On a welcome, m.ID is replaced with the assigned ID.
func (c *Client) roundTrip(conn *transport.Conn, m *transport.Message, want transport.MsgType) error {
	if err := conn.Send(m); err != nil {
		return err
	}
	for {
		resp, err := conn.Receive()
		if err != nil {
			return err
		}
		if resp.Seq != m.Seq {
			continue
		}
		if resp.Type == transport.MsgResponse {
			if err := resp.Status.Err(resp.Error); err != nil {
				return err
			}
		}
		if resp.Type != want {
			return fmt.Errorf("%w: %v answering %v", ErrHandshake, resp.Type, m.Type)
		}
		if want == transport.MsgWelcome {
			m.ID = resp.ID
		}
		return nil
	}
}

// serve runs one session. page and channel are the tuning restored by
// connect.
func (c *Client) serve(ctx context.Context, conn *transport.Conn, page, channel uint8) error {
	sctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(sctx, func() { _ = conn.Close() })
	defer stop()
	defer cancel()

	ka := transport.NewKeepAlive(c.config.KeepAlive,
		func(seq uint32) error {
			return conn.Send(&transport.Message{Type: transport.MsgPing, Seq: seq})
		},
		func() {
			c.logger.Warn("hub keep-alive timeout")
			cancel()
		})

	out := make(chan *transport.Message, 1)

	c.mu.Lock()
	c.conn = conn
	c.out = out
	c.ka = ka
	c.done = make(chan struct{})
	c.pending = make(map[uint32]chan *transport.Message)
	host := c.host
	retune := c.page != page || c.channel != channel
	close(c.ready)
	c.mu.Unlock()

	var kwg sync.WaitGroup
	kwg.Add(2)
	go func() {
		defer kwg.Done()
		ka.Run(sctx)
	}()
	go func() {
		defer kwg.Done()
		c.writeLoop(sctx, conn, out, cancel)
	}()
	// SetChannel raced with the handshake.
	if retune {
		kwg.Add(1)
		go func() {
			defer kwg.Done()
			c.mu.Lock()
			p, ch := c.page, c.channel
			c.mu.Unlock()
			rctx, rcancel := context.WithTimeout(sctx, c.config.RequestTimeout)
			defer rcancel()
			if err := c.request(rctx, conn, &transport.Message{Type: transport.MsgTune, Page: p, Channel: ch}); err != nil {
				c.logger.Warn("retune failed", "error", err)
			}
		}()
	}

	err := c.readLoop(conn, host, ka)

	cancel()
	kwg.Wait()
	_ = conn.Close()

	c.mu.Lock()
	c.conn = nil
	c.out = nil
	close(c.done)
	c.ready = make(chan struct{})
	inFlight := c.txSeq != 0
	c.txSeq = 0
	c.mu.Unlock()

	if inFlight {
		host.TransmitDone(ErrNotConnected)
	}
	if ka.TimedOut() {
		return fmt.Errorf("%w: keep-alive timeout", ErrNotConnected)
	}
	return err
}

func (c *Client) readLoop(conn *transport.Conn, host mac.Host, ka *transport.KeepAlive) error {
	for {
		m, err := conn.Receive()
		if err != nil {
			if errors.Is(err, transport.ErrInvalidMessage) {
				c.logger.Debug("ignoring invalid message", "error", err)
				continue
			}
			if errors.Is(err, transport.ErrConnClosed) {
				return nil
			}
			return err
		}

		switch m.Type {
		case transport.MsgFrame:
			host.ReceiveIRQSafe(m.Data, m.LQI)
		case transport.MsgPong:
			ka.PongReceived(m.Seq)
		case transport.MsgPing:
			_ = conn.Send(&transport.Message{Type: transport.MsgPong, Seq: m.Seq})
		case transport.MsgTxDone:
			c.mu.Lock()
			match := m.Seq == c.txSeq && m.Seq != 0
			if match {
				c.txSeq = 0
			}
			c.mu.Unlock()
			if match {
				host.TransmitDone(m.Status.Err(m.Error))
			} else {
				c.logger.Debug("stale tx confirmation", "seq", m.Seq)
			}
		case transport.MsgResponse:
			c.mu.Lock()
			ch := c.pending[m.Seq]
			c.mu.Unlock()
			if ch != nil {
				select {
				case ch <- m:
				default:
				}
			}
		}
	}
}
