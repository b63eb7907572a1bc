package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wpanstack/wpan-go/pkg/fcs"
	"github.com/wpanstack/wpan-go/pkg/frame"
	"github.com/wpanstack/wpan-go/pkg/log"
)

// createTestCapture writes events to a capture file in a temp directory.
func createTestCapture(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wcap")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create capture: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close capture: %v", err)
	}
	return path
}

var baseTime = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func dataFrame() []byte {
	h := frame.Header{
		FC:     frame.FrameControl{Type: frame.FrameTypeData, AckRequest: true, IntraPAN: true},
		Seq:    9,
		Dest:   frame.NewShortAddr(0x1234, 0x0001),
		Source: frame.NewShortAddr(0x1234, 0x0002),
	}
	return append(h.AppendTo(nil), 0xca, 0xfe)
}

func sampleEvents() []log.Event {
	raw := fcs.Append(dataFrame())
	return []log.Event{
		{
			Timestamp: baseTime, SessionID: "sess-aaaa-1111", Direction: log.DirectionIn,
			Layer: log.LayerRadio, Category: log.CategoryFrame, Device: "phy0",
			Frame: &log.FrameEvent{Size: len(raw), Data: raw, LQI: 200, Channel: 15},
		},
		{
			Timestamp: baseTime.Add(time.Millisecond), SessionID: "sess-aaaa-1111", Direction: log.DirectionIn,
			Layer: log.LayerMAC, Category: log.CategoryFrame, Device: "phy0", Interface: "wpan0",
			Frame: &log.FrameEvent{Size: len(raw) - 2, Data: raw[:len(raw)-2], Channel: 15, PacketType: "HOST"},
		},
		{
			Timestamp: baseTime.Add(2 * time.Millisecond), SessionID: "sess-aaaa-1111", Direction: log.DirectionIn,
			Layer: log.LayerMAC, Category: log.CategoryDrop, Device: "phy0", Interface: "wpan0",
			Drop: &log.DropEvent{Reason: log.DropOtherHost, Size: 11},
		},
		{
			Timestamp: baseTime.Add(3 * time.Millisecond), SessionID: "sess-aaaa-1111", Direction: log.DirectionOut,
			Layer: log.LayerRadio, Category: log.CategoryControl, Device: "phy0",
			Control: &log.ControlEvent{Op: log.ControlSetChannel, Channel: 20},
		},
		{
			Timestamp: baseTime.Add(4 * time.Millisecond), SessionID: "sess-bbbb-2222", Direction: log.DirectionOut,
			Layer: log.LayerMAC, Category: log.CategoryFrame, Device: "phy1", Interface: "wpan1",
			Frame: &log.FrameEvent{Size: 11, Data: dataFrame(), Channel: 20},
		},
		{
			Timestamp: baseTime.Add(5 * time.Millisecond), SessionID: "sess-bbbb-2222", Direction: log.DirectionIn,
			Layer: log.LayerSecurity, Category: log.CategoryError, Device: "phy1", Interface: "wpan1",
			Error: &log.ErrorEventData{Layer: log.LayerSecurity, Message: "authentication failed"},
		},
	}
}

func TestFormatFrameEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[0])
	output := buf.String()

	for _, want := range []string{
		"2026-03-02T09:30:00.000000Z",
		"[sess-aaa]",
		"phy0 IN  RADIO Frame",
		"LQI: 200",
		"DATA seq=9 1234/0002 -> 1234/0001 ack",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
	if strings.Contains(output, "FCS: bad") {
		t.Errorf("valid FCS reported bad:\n%s", output)
	}
}

func TestFormatBadFCS(t *testing.T) {
	ev := sampleEvents()[0]
	ev.Frame.Data[len(ev.Frame.Data)-1] ^= 0xff

	var buf bytes.Buffer
	formatEvent(&buf, ev)
	if !strings.Contains(buf.String(), "FCS: bad") {
		t.Errorf("expected FCS warning, got:\n%s", buf.String())
	}
}

func TestFormatOtherEvents(t *testing.T) {
	tests := []struct {
		event log.Event
		want  []string
	}{
		{sampleEvents()[2], []string{"phy0/wpan0", "Drop OTHER_HOST", "Size: 11 bytes"}},
		{sampleEvents()[3], []string{"SET_CHANNEL", "Channel: 20"}},
		{sampleEvents()[5], []string{"SECURITY Error", "Message: authentication failed"}},
		{log.Event{StateChange: &log.StateChangeEvent{Entity: log.StateEntityQueue, OldState: "RUNNING", NewState: "STOPPED"}},
			[]string{"Entity: QUEUE", "RUNNING -> STOPPED"}},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		formatEvent(&buf, tt.event)
		for _, want := range tt.want {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("expected %q in output:\n%s", want, buf.String())
			}
		}
	}
}

func TestRunViewFiltered(t *testing.T) {
	path := createTestCapture(t, sampleEvents())
	layer := log.LayerMAC

	var buf bytes.Buffer
	if err := RunView(path, log.Filter{Layer: &layer}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()
	if n := strings.Count(output, " MAC "); n != 3 {
		t.Errorf("expected 3 MAC events, got %d:\n%s", n, output)
	}
	if strings.Contains(output, "RADIO") {
		t.Errorf("radio events not filtered:\n%s", output)
	}
}

func TestRunViewMissingFile(t *testing.T) {
	if err := RunView(filepath.Join(t.TempDir(), "none.wcap"), log.Filter{}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFilterOptionsBuild(t *testing.T) {
	f, err := FilterOptions{
		Interface: "wpan0",
		Layer:     "mac",
		Direction: "rx",
		Category:  "drop",
		Drop:      "other-host",
		TimeStart: "2026-03-02T09:00:00Z",
	}.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if f.Interface != "wpan0" || *f.Layer != log.LayerMAC || *f.Direction != log.DirectionIn ||
		*f.Category != log.CategoryDrop || *f.DropReason != log.DropOtherHost || f.TimeStart == nil {
		t.Errorf("unexpected filter: %+v", f)
	}

	for _, bad := range []FilterOptions{
		{Layer: "wire"}, {Direction: "up"}, {Category: "message"}, {Drop: "nope"}, {TimeEnd: "yesterday"},
	} {
		if _, err := bad.Build(); err == nil {
			t.Errorf("Build(%+v): expected error", bad)
		}
	}
}

func TestRunFilter(t *testing.T) {
	path := createTestCapture(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.wcap")

	var msg bytes.Buffer
	if err := RunFilter(path, out, FilterOptions{Device: "phy0"}, &msg); err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if !strings.Contains(msg.String(), "Filtered 4 events") {
		t.Errorf("unexpected message: %q", msg.String())
	}

	reader, err := log.NewReader(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer reader.Close()
	n := 0
	for ev, err := range reader.All() {
		if err != nil {
			t.Fatalf("read output: %v", err)
		}
		if ev.Device != "phy0" {
			t.Errorf("unexpected device %q", ev.Device)
		}
		n++
	}
	if n != 4 {
		t.Errorf("output has %d events, want 4", n)
	}
}

func TestRunExportJSONL(t *testing.T) {
	path := createTestCapture(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want 6", len(lines))
	}
	var ev log.Event
	if err := json.Unmarshal([]byte(lines[2]), &ev); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if ev.Drop == nil || ev.Drop.Reason != log.DropOtherHost {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestRunExportCSV(t *testing.T) {
	path := createTestCapture(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 7 {
		t.Fatalf("got %d rows, want 7", len(rows))
	}
	if rows[0][1] != "session_id" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[4][7] != "SET_CHANNEL" || rows[4][10] != "20" {
		t.Errorf("unexpected control row: %v", rows[4])
	}
}

func TestRunExportUnknownFormat(t *testing.T) {
	path := createTestCapture(t, sampleEvents())
	if err := RunExport(path, "xml", ""); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestRunStats(t *testing.T) {
	path := createTestCapture(t, sampleEvents())

	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	stats, err := Collect(reader)
	reader.Close()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if stats.TotalEvents != 6 || len(stats.Sessions) != 2 || stats.Errors != 1 {
		t.Errorf("unexpected totals: %+v", stats)
	}
	if stats.Drops[log.DropOtherHost] != 1 {
		t.Errorf("drops: %v", stats.Drops)
	}
	wpan0 := stats.Interfaces["phy0/wpan0"]
	if wpan0 == nil || wpan0.RxFrames != 1 || wpan0.Drops != 1 {
		t.Errorf("phy0/wpan0: %+v", wpan0)
	}
	if wpan1 := stats.Interfaces["phy1/wpan1"]; wpan1 == nil || wpan1.TxFrames != 1 || wpan1.TxBytes != 11 {
		t.Errorf("phy1/wpan1: %+v", wpan1)
	}

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	for _, want := range []string{"Total Events: 6", "OTHER_HOST:", "[phy0/wpan0]", "Errors: 1"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in output:\n%s", want, buf.String())
		}
	}
}
