package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/wpanstack/wpan-go/pkg/frame"
	"github.com/wpanstack/wpan-go/pkg/mac"
	"github.com/wpanstack/wpan-go/pkg/transport"
)

// Driver errors.
var (
	ErrNotOpen  = errors.New("transceiver not open")
	ErrClosed   = errors.New("transceiver link closed")
	ErrTimeout  = errors.New("transceiver did not answer")
	ErrNoPort   = errors.New("no serial port configured")
	ErrProtocol = errors.New("unexpected transceiver message")
)

// Config configures a Radio.
type Config struct {
	// Port is the serial device, e.g. /dev/ttyACM0.
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baudRate"`

	// RequestTimeout bounds every command round trip.
	RequestTimeout time.Duration `yaml:"requestTimeout"`

	// Flags are the capabilities the firmware exposes.
	Flags mac.HWFlags `yaml:"-"`
	// Channels is the page 0 channel bitmap. Zero means channels 11-26.
	Channels uint32 `yaml:"channels"`
	// ExtendedAddr is the radio's permanent address.
	ExtendedAddr frame.ExtendedAddr `yaml:"-"`

	// Logger for operational messages. Nil disables logging.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns the settings of common USB dongles.
func DefaultConfig() Config {
	return Config{
		BaudRate:       115200,
		RequestTimeout: time.Second,
		Flags:          mac.HWTxPower | mac.HWCCAMode | mac.HWCCAEDLevel,
	}
}

// Opener opens the link to the transceiver.
type Opener func(cfg Config) (io.ReadWriteCloser, error)

// OpenPort opens cfg.Port as an 8N1 serial line with DTR and RTS
// asserted, as USB CDC ACM firmware expects.
func OpenPort(cfg Config) (io.ReadWriteCloser, error) {
	if cfg.Port == "" {
		return nil, ErrNoPort
	}
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Port, err)
	}
	_ = port.SetDTR(true)
	_ = port.SetRTS(true)
	return port, nil
}

// Ports lists the serial ports present on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

// Radio is a serial transceiver driver.
type Radio struct {
	cfg    Config
	open   Opener
	logger *slog.Logger

	mu      sync.Mutex
	conn    *transport.Conn
	host    mac.Host
	pending map[uint32]chan *transport.Message
	done    chan struct{}
	wg      sync.WaitGroup
}

// Compile-time interface satisfaction checks.
var (
	_ mac.Driver          = (*Radio)(nil)
	_ mac.SyncTransmitter = (*Radio)(nil)
	_ mac.TxPowerSetter   = (*Radio)(nil)
	_ mac.CCAModeSetter   = (*Radio)(nil)
	_ mac.EDLevelSetter   = (*Radio)(nil)
	_ mac.LBTSetter       = (*Radio)(nil)
)

// New returns a driver for the serial port in cfg.
func New(cfg Config) *Radio {
	return NewWithOpener(cfg, OpenPort)
}

// NewWithOpener returns a driver that reaches the transceiver through
// open.
func NewWithOpener(cfg Config, open Opener) *Radio {
	def := DefaultConfig()
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = def.BaudRate
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.Channels == 0 {
		cfg.Channels = mac.Page0Channels
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Radio{cfg: cfg, open: open, logger: logger.With("port", cfg.Port)}
}

// Hardware describes the transceiver.
func (r *Radio) Hardware() mac.Hardware {
	hw := mac.Hardware{Flags: r.cfg.Flags, ExtendedAddr: r.cfg.ExtendedAddr}
	hw.Channels[0] = r.cfg.Channels
	return hw
}

// Start opens the link and powers the transceiver up.
func (r *Radio) Start(host mac.Host) error {
	rwc, err := r.open(r.cfg)
	if err != nil {
		return err
	}
	conn := transport.NewConn(rwc)

	r.mu.Lock()
	r.conn = conn
	r.host = host
	r.pending = make(map[uint32]chan *transport.Message)
	done := make(chan struct{})
	r.done = done
	r.mu.Unlock()

	r.wg.Add(1)
	go r.readLoop(conn, done)

	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RequestTimeout)
	defer cancel()
	if _, err := r.request(ctx, &transport.Message{Type: transport.MsgStart}); err != nil {
		r.shutdown()
		return fmt.Errorf("start transceiver: %w", err)
	}
	r.logger.Info("transceiver started")
	return nil
}

// Stop powers the transceiver down and closes the link.
func (r *Radio) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RequestTimeout)
	defer cancel()
	_, err := r.request(ctx, &transport.Message{Type: transport.MsgStop})
	r.shutdown()
	if errors.Is(err, ErrNotOpen) {
		return nil
	}
	return err
}

func (r *Radio) shutdown() {
	r.mu.Lock()
	conn := r.conn
	r.conn = nil
	r.mu.Unlock()
	if conn == nil {
		return
	}
	_ = conn.Close()
	r.wg.Wait()
}

// SetChannel retunes the transceiver.
func (r *Radio) SetChannel(page, channel uint8) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RequestTimeout)
	defer cancel()
	_, err := r.request(ctx, &transport.Message{Type: transport.MsgTune, Page: page, Channel: channel})
	return err
}

// Transmit sends f and waits for the transceiver's verdict.
func (r *Radio) Transmit(ctx context.Context, f *frame.Frame) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.RequestTimeout)
	defer cancel()
	_, err := r.request(ctx, &transport.Message{Type: transport.MsgFrame, Data: f.Bytes()})
	return err
}

func (r *Radio) setParam(p transport.Param, v int32) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RequestTimeout)
	defer cancel()
	_, err := r.request(ctx, &transport.Message{Type: transport.MsgSetParam, Param: p, Value: v})
	if err != nil {
		return fmt.Errorf("set %v: %w", p, err)
	}
	return nil
}

// SetTxPower implements mac.TxPowerSetter.
func (r *Radio) SetTxPower(mbm int32) error { return r.setParam(transport.ParamTxPower, mbm) }

// SetCCAMode implements mac.CCAModeSetter.
func (r *Radio) SetCCAMode(mode mac.CCAMode) error {
	return r.setParam(transport.ParamCCAMode, int32(mode))
}

// SetCCAEDLevel implements mac.EDLevelSetter.
func (r *Radio) SetCCAEDLevel(mbm int32) error { return r.setParam(transport.ParamCCAEDLevel, mbm) }

// SetLBT implements mac.LBTSetter.
func (r *Radio) SetLBT(on bool) error {
	var v int32
	if on {
		v = 1
	}
	return r.setParam(transport.ParamLBT, v)
}

// request sends m and waits for the answer with the same sequence number.
func (r *Radio) request(ctx context.Context, m *transport.Message) (*transport.Message, error) {
	r.mu.Lock()
	conn := r.conn
	if conn == nil {
		r.mu.Unlock()
		return nil, ErrNotOpen
	}
	m.Seq = conn.NextSeq()
	ch := make(chan *transport.Message, 1)
	r.pending[m.Seq] = ch
	done := r.done
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.pending, m.Seq)
		r.mu.Unlock()
	}()

	if err := conn.Send(m); err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		want := transport.MsgResponse
		if m.Type == transport.MsgFrame {
			want = transport.MsgTxDone
		}
		if resp.Type != want {
			return nil, fmt.Errorf("%w: %v answering %v", ErrProtocol, resp.Type, m.Type)
		}
		if err := resp.Status.Err(resp.Error); err != nil {
			r.logger.Debug("transceiver refused", "cmd", m.Type, "status", resp.Status, "error", resp.Error)
			return resp, err
		}
		return resp, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			r.logger.Warn("transceiver timeout", "cmd", m.Type, "seq", m.Seq)
			return nil, fmt.Errorf("%w: %v", ErrTimeout, m.Type)
		}
		return nil, ctx.Err()
	case <-done:
		return nil, ErrClosed
	}
}

func (r *Radio) readLoop(conn *transport.Conn, done chan struct{}) {
	defer r.wg.Done()
	defer close(done)

	for {
		m, err := conn.Receive()
		if err != nil {
			if errors.Is(err, transport.ErrInvalidMessage) {
				r.logger.Debug("ignoring invalid message", "error", err)
				continue
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, transport.ErrConnClosed) {
				r.logger.Warn("transceiver link lost", "error", err)
			}
			return
		}

		switch {
		case m.Type == transport.MsgFrame && m.Seq == 0:
			r.mu.Lock()
			host := r.host
			r.mu.Unlock()
			host.ReceiveIRQSafe(m.Data, m.LQI)
		case m.Type == transport.MsgResponse || m.Type == transport.MsgTxDone:
			r.mu.Lock()
			ch := r.pending[m.Seq]
			r.mu.Unlock()
			if ch == nil {
				r.logger.Debug("late answer", "type", m.Type, "seq", m.Seq)
				continue
			}
			select {
			case ch <- m:
			default:
			}
		default:
			r.logger.Debug("unexpected message", "type", m.Type)
		}
	}
}
