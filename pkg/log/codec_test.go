package log

import (
	"bytes"
	"testing"
	"time"
)

func TestEncodeDecodeFrameEvent(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	event := Event{
		Timestamp: ts,
		SessionID: "7d0f7c1e-5c43-4b8f-9b7e-1f1c0a6d2b11",
		Direction: DirectionIn,
		Layer:     LayerRadio,
		Category:  CategoryFrame,
		Device:    "phy0",
		Frame: &FrameEvent{
			Size:    5,
			Data:    []byte{0x41, 0x88, 0x01, 0xaa, 0xbb},
			LQI:     0xff,
			Page:    0,
			Channel: 11,
		},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !got.Timestamp.Equal(ts) {
		t.Errorf("Timestamp: got %v, want %v", got.Timestamp, ts)
	}
	if got.SessionID != event.SessionID || got.Device != "phy0" {
		t.Errorf("identity fields: got %q/%q", got.SessionID, got.Device)
	}
	if got.Frame == nil {
		t.Fatal("Frame is nil")
	}
	if !bytes.Equal(got.Frame.Data, event.Frame.Data) || got.Frame.LQI != 0xff || got.Frame.Channel != 11 {
		t.Errorf("Frame: got %+v", got.Frame)
	}
	if got.Drop != nil || got.Control != nil || got.StateChange != nil || got.Error != nil {
		t.Error("unexpected payloads decoded")
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	event := Event{
		Timestamp: time.Unix(1700000000, 0).UTC(),
		Category:  CategoryDrop,
		Drop:      &DropEvent{Reason: DropOtherHost, Detail: "dest 1234/0002", Size: 12},
	}
	a, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	b, _ := EncodeEvent(event)
	if !bytes.Equal(a, b) {
		t.Error("encoding is not deterministic")
	}
}

func TestNewFrameEventTruncates(t *testing.T) {
	fe := NewFrameEvent(make([]byte, MaxFrameData+10))
	if !fe.Truncated || len(fe.Data) != MaxFrameData || fe.Size != MaxFrameData+10 {
		t.Errorf("got size %d len %d truncated %v", fe.Size, len(fe.Data), fe.Truncated)
	}

	src := []byte{1, 2, 3}
	fe = NewFrameEvent(src)
	src[0] = 9
	if fe.Truncated || fe.Data[0] != 1 {
		t.Error("NewFrameEvent must copy its input")
	}
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{DirectionOut.String(), "OUT"},
		{LayerSecurity.String(), "SECURITY"},
		{CategoryControl.String(), "CONTROL"},
		{DropUnsupportedChannel.String(), "UNSUPPORTED_CHANNEL"},
		{ControlTransmitDone.String(), "TRANSMIT_DONE"},
		{StateEntityQueue.String(), "QUEUE"},
		{DropReason(200).String(), "UNKNOWN"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
