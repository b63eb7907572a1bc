package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/wpanstack/wpan-go/pkg/log"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Drops             map[log.DropReason]int
	Interfaces        map[string]*InterfaceStats
	Sessions          map[string]int
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// InterfaceStats holds frame counts for one device/interface pair.
type InterfaceStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	RxFrames  int
	TxFrames  int
	RxBytes   int
	TxBytes   int
	Drops     int
}

// Collect reads all events from reader into a Stats.
func Collect(reader *log.Reader) (*Stats, error) {
	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Drops:             make(map[log.DropReason]int),
		Interfaces:        make(map[string]*InterfaceStats),
		Sessions:          make(map[string]int),
	}

	for event, err := range reader.All() {
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByLayer[event.Layer]++
		stats.EventsByCategory[event.Category]++
		stats.EventsByDirection[event.Direction]++
		stats.Sessions[event.SessionID]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		if event.Drop != nil {
			stats.Drops[event.Drop.Reason]++
		}
		if event.Error != nil {
			stats.Errors++
		}

		if event.Frame == nil && event.Drop == nil {
			continue
		}
		key := event.Device
		if event.Interface != "" {
			key += "/" + event.Interface
		}
		is, ok := stats.Interfaces[key]
		if !ok {
			is = &InterfaceStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
			stats.Interfaces[key] = is
		}
		if event.Timestamp.After(is.LastSeen) {
			is.LastSeen = event.Timestamp
		}
		switch {
		case event.Drop != nil:
			is.Drops++
		case event.Direction == log.DirectionIn:
			is.RxFrames++
			is.RxBytes += event.Frame.Size
		default:
			is.TxFrames++
			is.TxBytes += event.Frame.Size
		}
	}
	return stats, nil
}

// RunStats analyzes the capture file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	stats, err := Collect(reader)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== WPAN Capture Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Sessions:     %d\n", len(stats.Sessions))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerRadio, log.LayerMAC, log.LayerSecurity} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryFrame, log.CategoryDrop, log.CategoryControl, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}

	if len(stats.Drops) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Drops:")
		for _, r := range dropReasons {
			if count := stats.Drops[r]; count > 0 {
				fmt.Fprintf(w, "  %-20s %d\n", r.String()+":", count)
			}
		}
	}

	if len(stats.Interfaces) > 0 {
		names := make([]string, 0, len(stats.Interfaces))
		for name := range stats.Interfaces {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintln(w)
		fmt.Fprintf(w, "Interfaces: %d\n", len(names))
		for _, name := range names {
			is := stats.Interfaces[name]
			fmt.Fprintf(w, "  [%s] rx %d (%d bytes), tx %d (%d bytes), drops %d, duration %s\n",
				name, is.RxFrames, is.RxBytes, is.TxFrames, is.TxBytes, is.Drops,
				is.LastSeen.Sub(is.FirstSeen).Round(time.Millisecond))
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
