package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Framing constants.
const (
	// LengthPrefixSize is the size of the big-endian length prefix.
	LengthPrefixSize = 2

	// DefaultMaxMessageSize bounds a single message. One radio frame plus
	// message overhead fits comfortably.
	DefaultMaxMessageSize = 1024
)

// Framing errors.
var (
	// ErrMessageTooLarge indicates the message exceeds the maximum size.
	ErrMessageTooLarge = errors.New("message too large")

	// ErrMessageEmpty indicates an empty message.
	ErrMessageEmpty = errors.New("message is empty")

	// ErrFrameTruncated indicates the stream ended inside a frame.
	ErrFrameTruncated = errors.New("frame truncated")
)

// FrameWriter writes length-prefixed frames.
type FrameWriter struct {
	mu      sync.Mutex
	w       io.Writer
	maxSize int
	buf     []byte
}

// NewFrameWriter returns a writer with DefaultMaxMessageSize.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w, maxSize: DefaultMaxMessageSize}
}

// WriteFrame writes one frame. The prefix and payload go out in a single
// Write so that concurrent writers on a serial line never interleave.
func (fw *FrameWriter) WriteFrame(data []byte) error {
	if len(data) == 0 {
		return ErrMessageEmpty
	}
	if len(data) > fw.maxSize {
		return fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, len(data), fw.maxSize)
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.buf = binary.BigEndian.AppendUint16(fw.buf[:0], uint16(len(data)))
	fw.buf = append(fw.buf, data...)
	if _, err := fw.w.Write(fw.buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// FrameReader reads length-prefixed frames. It is not safe for concurrent
// use.
type FrameReader struct {
	r       io.Reader
	maxSize int
	prefix  [LengthPrefixSize]byte
}

// NewFrameReader returns a reader with DefaultMaxMessageSize.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r, maxSize: DefaultMaxMessageSize}
}

// ReadFrame returns the next frame payload. A clean end of stream between
// frames is io.EOF.
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	if _, err := io.ReadFull(fr.r, fr.prefix[:]); err != nil {
		if err == io.EOF {
			return nil, err
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("read length prefix: %w", err)
	}

	n := int(binary.BigEndian.Uint16(fr.prefix[:]))
	if n == 0 {
		return nil, ErrMessageEmpty
	}
	if n > fr.maxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, n, fr.maxSize)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(fr.r, payload); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || err == io.EOF {
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return payload, nil
}

// Framer combines frame reading and writing on one stream.
type Framer struct {
	*FrameReader
	*FrameWriter
}

// NewFramer returns a framer over rw.
func NewFramer(rw io.ReadWriter) *Framer {
	return &Framer{FrameReader: NewFrameReader(rw), FrameWriter: NewFrameWriter(rw)}
}

// SetMaxMessageSize changes the limit in both directions. Values above the
// prefix range are clamped.
func (f *Framer) SetMaxMessageSize(n int) {
	if n <= 0 || n > 0xffff {
		n = 0xffff
	}
	f.FrameReader.maxSize = n
	f.FrameWriter.mu.Lock()
	f.FrameWriter.maxSize = n
	f.FrameWriter.mu.Unlock()
}

// FrameSize returns the on-stream size of a payload.
func FrameSize(payloadSize int) int {
	return LengthPrefixSize + payloadSize
}
