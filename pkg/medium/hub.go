package medium

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/wpanstack/wpan-go/pkg/mac"
	"github.com/wpanstack/wpan-go/pkg/transport"
)

// DefaultPort is the hub's TCP port.
const DefaultPort = 7154

// LQI is the link quality stamped on relayed frames.
const LQI uint8 = 0xff

// Hub errors.
var (
	ErrHubRunning   = errors.New("hub already running")
	ErrHandshake    = errors.New("handshake failed")
	ErrHubFull      = errors.New("hub full")
	ErrDuplicateID  = errors.New("client id in use")
	ErrNotConnected = errors.New("not connected to hub")
)

// HubConfig configures a Hub.
type HubConfig struct {
	// Address to listen on, e.g. ":7154".
	Address string `yaml:"address"`

	// MaxClients bounds concurrent radios. Zero means unlimited.
	MaxClients int `yaml:"maxClients"`

	// HandshakeTimeout bounds the wait for MsgHello.
	HandshakeTimeout time.Duration `yaml:"handshakeTimeout"`

	// IdleTimeout drops a client that sent nothing for that long. Clients
	// ping every transport.DefaultPingInterval. Zero disables it.
	IdleTimeout time.Duration `yaml:"idleTimeout"`

	// OnJoin and OnLeave observe membership changes.
	OnJoin  func(info ClientInfo) `yaml:"-"`
	OnLeave func(info ClientInfo) `yaml:"-"`

	// Logger for operational messages. Nil disables logging.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultHubConfig returns the default hub settings.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		Address:          fmt.Sprintf(":%d", DefaultPort),
		HandshakeTimeout: 5 * time.Second,
		IdleTimeout:      transport.DefaultKeepAliveConfig().DetectionDelay(),
	}
}

// ClientInfo describes one attached radio.
type ClientInfo struct {
	ID         string `json:"id"`
	RemoteAddr string `json:"remoteAddr"`
	Page       uint8  `json:"page"`
	Channel    uint8  `json:"channel"`
	TxFrames   uint64 `json:"txFrames"`
	RxFrames   uint64 `json:"rxFrames"`
}

// HubStats are hub-wide counters.
type HubStats struct {
	Accepted  uint64 `json:"accepted"`
	Rejected  uint64 `json:"rejected"`
	Relayed   uint64 `json:"relayed"`
	Delivered uint64 `json:"delivered"`
}

// Hub is the shared air.
type Hub struct {
	config   HubConfig
	logger   *slog.Logger
	listener net.Listener

	clients   map[string]*hubClient
	clientsMu sync.RWMutex

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	accepted, rejected, relayed, delivered atomic.Uint64
}

type hubClient struct {
	id     string
	remote string
	conn   *transport.Conn

	// tuning holds page<<8|channel.
	tuning   atomic.Uint32
	txFrames atomic.Uint64
	rxFrames atomic.Uint64
}

func (c *hubClient) info() ClientInfo {
	t := c.tuning.Load()
	return ClientInfo{
		ID:         c.id,
		RemoteAddr: c.remote,
		Page:       uint8(t >> 8),
		Channel:    uint8(t),
		TxFrames:   c.txFrames.Load(),
		RxFrames:   c.rxFrames.Load(),
	}
}

// NewHub returns a hub. Zero config fields take defaults, except
// IdleTimeout.
func NewHub(config HubConfig) *Hub {
	def := DefaultHubConfig()
	if config.Address == "" {
		config.Address = def.Address
	}
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = def.HandshakeTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Hub{
		config:  config,
		logger:  logger,
		clients: make(map[string]*hubClient),
	}
}

// Start listens and begins accepting radios.
func (h *Hub) Start(ctx context.Context) error {
	if h.running.Load() {
		return ErrHubRunning
	}
	listener, err := net.Listen("tcp", h.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	h.listener = listener
	h.ctx, h.cancel = context.WithCancel(ctx)
	h.running.Store(true)

	h.wg.Add(1)
	go h.acceptLoop()

	h.logger.Info("hub listening", "addr", listener.Addr().String())
	return nil
}

// Stop closes the listener and every client connection, and waits for
// their goroutines.
func (h *Hub) Stop() error {
	if !h.running.Swap(false) {
		return nil
	}
	h.cancel()
	_ = h.listener.Close()
	h.wg.Wait()
	return nil
}

// Addr returns the listen address.
func (h *Hub) Addr() net.Addr {
	if h.listener != nil {
		return h.listener.Addr()
	}
	return nil
}

// Clients returns the attached radios ordered by ID.
func (h *Hub) Clients() []ClientInfo {
	h.clientsMu.RLock()
	out := make([]ClientInfo, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c.info())
	}
	h.clientsMu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stats returns the hub counters.
func (h *Hub) Stats() HubStats {
	return HubStats{
		Accepted:  h.accepted.Load(),
		Rejected:  h.rejected.Load(),
		Relayed:   h.relayed.Load(),
		Delivered: h.delivered.Load(),
	}
}

func (h *Hub) acceptLoop() {
	defer h.wg.Done()

	for h.running.Load() {
		conn, err := h.listener.Accept()
		if err != nil {
			if h.running.Load() {
				h.logger.Warn("accept failed", "error", err)
			}
			continue
		}
		h.wg.Add(1)
		go h.handleConnection(conn)
	}
}

func (h *Hub) handleConnection(nc net.Conn) {
	defer h.wg.Done()

	conn := transport.NewConn(nc)
	stop := context.AfterFunc(h.ctx, func() { _ = conn.Close() })
	defer stop()

	c, err := h.handshake(nc, conn)
	if err != nil {
		h.rejected.Add(1)
		h.logger.Debug("client rejected", "remote", nc.RemoteAddr().String(), "error", err)
		_ = conn.Close()
		return
	}
	h.accepted.Add(1)
	h.logger.Info("client joined", "client", c.id, "remote", c.remote)
	if h.config.OnJoin != nil {
		h.config.OnJoin(c.info())
	}

	h.serve(nc, c)

	h.clientsMu.Lock()
	delete(h.clients, c.id)
	h.clientsMu.Unlock()
	_ = conn.Close()

	h.logger.Info("client left", "client", c.id)
	if h.config.OnLeave != nil {
		h.config.OnLeave(c.info())
	}
}

// handshake reads MsgHello, registers the client and answers MsgWelcome.
// A client may ask for an ID, for instance to keep it across reconnects.
func (h *Hub) handshake(nc net.Conn, conn *transport.Conn) (*hubClient, error) {
	_ = nc.SetReadDeadline(time.Now().Add(h.config.HandshakeTimeout))
	m, err := conn.Receive()
	_ = nc.SetReadDeadline(time.Time{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHandshake, err)
	}
	if m.Type != transport.MsgHello {
		return nil, fmt.Errorf("%w: got %v", ErrHandshake, m.Type)
	}

	id := m.ID
	if id == "" {
		id = uuid.NewString()
	}
	c := &hubClient{id: id, remote: nc.RemoteAddr().String(), conn: conn}
	c.tuning.Store(uint32(mac.ChannelNone))

	h.clientsMu.Lock()
	switch {
	case h.clients[id] != nil:
		err = ErrDuplicateID
	case h.config.MaxClients > 0 && len(h.clients) >= h.config.MaxClients:
		err = ErrHubFull
	default:
		h.clients[id] = c
	}
	h.clientsMu.Unlock()

	if err != nil {
		_ = conn.Send(&transport.Message{Type: transport.MsgResponse, Seq: m.Seq, Status: transport.StatusBusy, Error: err.Error()})
		return nil, err
	}
	if err := conn.Send(&transport.Message{Type: transport.MsgWelcome, Seq: m.Seq, ID: id}); err != nil {
		h.clientsMu.Lock()
		delete(h.clients, id)
		h.clientsMu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrHandshake, err)
	}
	return c, nil
}

func (h *Hub) serve(nc net.Conn, c *hubClient) {
	for {
		if h.config.IdleTimeout > 0 {
			_ = nc.SetReadDeadline(time.Now().Add(h.config.IdleTimeout))
		}
		m, err := c.conn.Receive()
		if err != nil {
			if errors.Is(err, transport.ErrInvalidMessage) {
				h.logger.Debug("invalid message", "client", c.id, "error", err)
				continue
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, transport.ErrConnClosed) {
				h.logger.Debug("client read failed", "client", c.id, "error", err)
			}
			return
		}

		switch m.Type {
		case transport.MsgTune:
			h.tune(c, m)
		case transport.MsgFrame:
			h.relay(c, m)
		case transport.MsgPing:
			_ = c.conn.Send(&transport.Message{Type: transport.MsgPong, Seq: m.Seq})
		case transport.MsgPong:
		default:
			_ = c.conn.Send(&transport.Message{Type: transport.MsgResponse, Seq: m.Seq, Status: transport.StatusUnsupported})
		}
	}
}

func (h *Hub) tune(c *hubClient, m *transport.Message) {
	resp := &transport.Message{Type: transport.MsgResponse, Seq: m.Seq}
	if m.Page >= mac.MaxPages || m.Channel >= mac.MaxChannels {
		resp.Status = transport.StatusUnsupported
		resp.Error = fmt.Sprintf("page %d channel %d", m.Page, m.Channel)
	} else {
		c.tuning.Store(uint32(m.Page)<<8 | uint32(m.Channel))
		h.logger.Debug("client tuned", "client", c.id, "page", m.Page, "channel", m.Channel)
	}
	_ = c.conn.Send(resp)
}

// relay hands m to every other client on the sender's channel and
// confirms it to the sender.
func (h *Hub) relay(from *hubClient, m *transport.Message) {
	done := &transport.Message{Type: transport.MsgTxDone, Seq: m.Seq}
	tuning := from.tuning.Load()
	if uint8(tuning) == mac.ChannelNone {
		done.Status = transport.StatusError
		done.Error = "not tuned"
		_ = from.conn.Send(done)
		return
	}

	from.txFrames.Add(1)
	h.relayed.Add(1)
	out := &transport.Message{Type: transport.MsgFrame, Data: m.Data, LQI: LQI}

	h.clientsMu.RLock()
	for _, c := range h.clients {
		if c == from || c.tuning.Load() != tuning {
			continue
		}
		if err := c.conn.Send(out); err != nil {
			continue
		}
		c.rxFrames.Add(1)
		h.delivered.Add(1)
	}
	h.clientsMu.RUnlock()

	_ = from.conn.Send(done)
}
