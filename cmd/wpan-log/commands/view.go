package commands

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/wpanstack/wpan-go/pkg/fcs"
	"github.com/wpanstack/wpan-go/pkg/frame"
	"github.com/wpanstack/wpan-go/pkg/log"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [session] device/iface DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	where := event.Device
	if event.Interface != "" {
		where += "/" + event.Interface
	}

	var typeLabel string
	switch {
	case event.Frame != nil:
		typeLabel = "Frame"
	case event.Drop != nil:
		typeLabel = "Drop " + event.Drop.Reason.String()
	case event.Control != nil:
		typeLabel = event.Control.Op.String()
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [%s] %s %-3s %s %s\n", ts, shortenID(event.SessionID), where,
		event.Direction.String(), event.Layer.String(), typeLabel)

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame, event.Layer == log.LayerRadio)
	case event.Drop != nil:
		formatDropDetails(w, event.Drop)
	case event.Control != nil:
		formatControlDetails(w, event.Control)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenID returns the first 8 characters of a session ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatFrameDetails writes the frame metadata and its decoded MAC header.
// Radio-layer captures carry the FCS.
func formatFrameDetails(w io.Writer, fe *log.FrameEvent, withFCS bool) {
	fmt.Fprintf(w, "  Size: %d bytes  Page: %d  Channel: %d", fe.Size, fe.Page, fe.Channel)
	if fe.LQI != 0 {
		fmt.Fprintf(w, "  LQI: %d", fe.LQI)
	}
	if fe.PacketType != "" {
		fmt.Fprintf(w, "  Type: %s", fe.PacketType)
	}
	fmt.Fprintln(w)

	if len(fe.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(fe.Data))
		if fe.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
	if fe.Truncated {
		return
	}

	if h, _, err := frame.Parse(fe.Data); err == nil {
		fmt.Fprintf(w, "  MAC: %s seq=%d %s -> %s", h.FC.Type, h.Seq, h.Source, h.Dest)
		if h.FC.AckRequest {
			fmt.Fprint(w, " ack")
		}
		if h.FC.SecurityEnabled {
			fmt.Fprintf(w, " sec=%d fc=%d", h.Security.Level, h.Security.FrameCounter)
		}
		fmt.Fprintln(w)
	} else if !errors.Is(err, frame.ErrTruncated) {
		fmt.Fprintf(w, "  MAC: %v\n", err)
	}
	if withFCS && len(fe.Data) >= frame.FCSSize {
		if err := fcs.Verify(fe.Data); err != nil {
			fmt.Fprintln(w, "  FCS: bad")
		}
	}
}

func formatDropDetails(w io.Writer, d *log.DropEvent) {
	if d.Size > 0 {
		fmt.Fprintf(w, "  Size: %d bytes\n", d.Size)
	}
	if d.Detail != "" {
		fmt.Fprintf(w, "  Detail: %s\n", d.Detail)
	}
}

func formatControlDetails(w io.Writer, c *log.ControlEvent) {
	if c.Op == log.ControlSetChannel || c.Op == log.ControlStartRequest {
		fmt.Fprintf(w, "  Page: %d  Channel: %d\n", c.Page, c.Channel)
	}
	if c.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", c.Error)
	}
}

// formatStateChangeDetails writes state change details.
func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity.String())
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// RunView prints the events of the capture at path that match filter.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	for event, err := range reader.All() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
	return nil
}
