package transport

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
)

func TestFrameWriterReader(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "single byte", payload: []byte{0x42}},
		{name: "radio frame", payload: bytes.Repeat([]byte{0xa5}, 127)},
		{name: "max size", payload: bytes.Repeat([]byte("y"), DefaultMaxMessageSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			if err := NewFrameWriter(buf).WriteFrame(tt.payload); err != nil {
				t.Fatalf("WriteFrame failed: %v", err)
			}
			if buf.Len() != FrameSize(len(tt.payload)) {
				t.Errorf("frame size = %d, want %d", buf.Len(), FrameSize(len(tt.payload)))
			}

			got, err := NewFrameReader(buf).ReadFrame()
			if err != nil {
				t.Fatalf("ReadFrame failed: %v", err)
			}
			if !bytes.Equal(got, tt.payload) {
				t.Errorf("payload mismatch: got %d bytes, want %d", len(got), len(tt.payload))
			}
		})
	}
}

func TestFrameWriterLimits(t *testing.T) {
	w := NewFrameWriter(io.Discard)
	if err := w.WriteFrame(nil); !errors.Is(err, ErrMessageEmpty) {
		t.Errorf("empty: got %v, want ErrMessageEmpty", err)
	}
	if err := w.WriteFrame(make([]byte, DefaultMaxMessageSize+1)); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("oversize: got %v, want ErrMessageTooLarge", err)
	}
}

func TestFrameReaderErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"clean EOF", nil, io.EOF},
		{"partial prefix", []byte{0x00}, ErrFrameTruncated},
		{"zero length", []byte{0x00, 0x00}, ErrMessageEmpty},
		{"too large", []byte{0xff, 0xff}, ErrMessageTooLarge},
		{"short payload", []byte{0x00, 0x05, 1, 2}, ErrFrameTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFrameReader(bytes.NewReader(tt.data)).ReadFrame()
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFramerMaxSize(t *testing.T) {
	var buf bytes.Buffer
	f := NewFramer(&buf)
	f.SetMaxMessageSize(4)
	if err := f.WriteFrame([]byte{1, 2, 3, 4, 5}); !errors.Is(err, ErrMessageTooLarge) {
		t.Fatalf("got %v, want ErrMessageTooLarge", err)
	}
	buf.Write([]byte{0x00, 0x05, 1, 2, 3, 4, 5})
	if _, err := f.ReadFrame(); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("got %v, want ErrMessageTooLarge", err)
	}
}

// lockedBuffer records each Write call separately.
type lockedBuffer struct {
	mu     sync.Mutex
	writes [][]byte
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes = append(b.writes, append([]byte(nil), p...))
	return len(p), nil
}

func TestFrameWriterSingleWrite(t *testing.T) {
	out := &lockedBuffer{}
	w := NewFrameWriter(out)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.WriteFrame(bytes.Repeat([]byte{byte(i)}, 10+i))
		}()
	}
	wg.Wait()

	if len(out.writes) != 8 {
		t.Fatalf("writes: got %d, want 8", len(out.writes))
	}
	for _, p := range out.writes {
		got, err := NewFrameReader(bytes.NewReader(p)).ReadFrame()
		if err != nil {
			t.Fatalf("write %x is not a whole frame: %v", p, err)
		}
		if len(got) != 10+int(got[0]) {
			t.Errorf("frame %d has %d bytes", got[0], len(got))
		}
	}
}
