package transport

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

// ErrConnClosed is returned by operations on a closed Conn.
var ErrConnClosed = errors.New("connection closed")

// Conn exchanges messages over a stream. Send is safe for concurrent use;
// Receive must be called from a single goroutine.
type Conn struct {
	rwc    io.ReadWriteCloser
	framer *Framer
	seq    atomic.Uint32

	closeOnce sync.Once
	closed    atomic.Bool
	closeErr  error
}

// NewConn wraps rwc. The Conn owns rwc and closes it on Close.
func NewConn(rwc io.ReadWriteCloser) *Conn {
	return &Conn{rwc: rwc, framer: NewFramer(rwc)}
}

// NextSeq returns a fresh sequence number, never zero.
func (c *Conn) NextSeq() uint32 {
	for {
		if s := c.seq.Add(1); s != 0 {
			return s
		}
	}
}

// Send encodes and writes one message.
func (c *Conn) Send(m *Message) error {
	if c.closed.Load() {
		return ErrConnClosed
	}
	data, err := EncodeMessage(m)
	if err != nil {
		return err
	}
	return c.framer.WriteFrame(data)
}

// Receive reads the next message. Messages that fail validation are
// returned as errors wrapping ErrInvalidMessage; the stream stays usable.
func (c *Conn) Receive() (*Message, error) {
	data, err := c.framer.ReadFrame()
	if err != nil {
		if c.closed.Load() {
			return nil, ErrConnClosed
		}
		return nil, err
	}
	return DecodeMessage(data)
}

// Close closes the underlying stream. It is idempotent.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.closeErr = c.rwc.Close()
	})
	return c.closeErr
}
