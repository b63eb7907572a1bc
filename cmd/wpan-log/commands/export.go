package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/wpanstack/wpan-go/pkg/log"
)

// RunExport exports the capture file to the specified format.
func RunExport(path, format, output string) error {
	if format != "jsonl" && format != "csv" {
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if format == "csv" {
		return exportCSV(reader, w)
	}
	return exportJSONL(reader, w)
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for event, err := range reader.All() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

var csvHeader = []string{"timestamp", "session_id", "direction", "layer", "category", "device", "interface", "type", "size", "page", "channel", "detail"}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for event, err := range reader.All() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := cw.Write(csvRow(event)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(event log.Event) []string {
	var eventType, size, page, channel, detail string
	switch {
	case event.Frame != nil:
		eventType = "frame"
		size = strconv.Itoa(event.Frame.Size)
		page = strconv.Itoa(int(event.Frame.Page))
		channel = strconv.Itoa(int(event.Frame.Channel))
		detail = event.Frame.PacketType
	case event.Drop != nil:
		eventType = event.Drop.Reason.String()
		size = strconv.Itoa(event.Drop.Size)
		detail = event.Drop.Detail
	case event.Control != nil:
		eventType = event.Control.Op.String()
		page = strconv.Itoa(int(event.Control.Page))
		channel = strconv.Itoa(int(event.Control.Channel))
		detail = event.Control.Error
	case event.StateChange != nil:
		eventType = "state"
		detail = event.StateChange.Entity.String() + " " + event.StateChange.NewState
	case event.Error != nil:
		eventType = "error"
		detail = event.Error.Message
	default:
		eventType = "unknown"
	}

	return []string{
		event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		event.SessionID,
		event.Direction.String(),
		event.Layer.String(),
		event.Category.String(),
		event.Device,
		event.Interface,
		eventType,
		size,
		page,
		channel,
		detail,
	}
}
