// Command wpan-log is a tool for viewing and analyzing MAC capture files.
//
// Capture files are written by wpand when started with --capture.
//
// Usage:
//
//	wpan-log <command> [flags] <file.wcap>
//
// Commands:
//
//	view     View capture file in human-readable format
//	export   Export capture file to JSON or CSV format
//	filter   Filter capture file and write to new file
//	stats    Show statistics about the capture file
//
// Examples:
//
//	# View all events
//	wpan-log view phy0.wcap
//
//	# View only frames dropped on wpan0
//	wpan-log view --category drop --interface wpan0 phy0.wcap
//
//	# Export to CSV
//	wpan-log export --format csv -o phy0.csv phy0.wcap
//
//	# Keep only raw radio traffic
//	wpan-log filter --layer radio -o radio.wcap phy0.wcap
//
//	# Show statistics
//	wpan-log stats phy0.wcap
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/wpanstack/wpan-go/cmd/wpan-log/commands"
)

const usage = `wpan-log - IEEE 802.15.4 MAC Capture Analyzer

Usage:
  wpan-log <command> [flags] <file.wcap>

Commands:
  view     View capture file in human-readable format
  export   Export capture file to JSON or CSV format
  filter   Filter capture file and write to new file
  stats    Show statistics about the capture file

Use "wpan-log <command> --help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func newFlagSet(name, summary string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "wpan-log %s - %s\n\nUsage:\n  wpan-log %s [flags] <file.wcap>\n\nFlags:\n", name, summary, name)
		fs.PrintDefaults()
	}
	return fs
}

func addFilterFlags(fs *pflag.FlagSet) *commands.FilterOptions {
	var opts commands.FilterOptions
	fs.StringVar(&opts.SessionID, "session", "", "Filter by capture session ID")
	fs.StringVar(&opts.Device, "device", "", "Filter by device name")
	fs.StringVarP(&opts.Interface, "interface", "i", "", "Filter by interface name")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	fs.StringVarP(&opts.Layer, "layer", "l", "", "Filter by layer (radio, mac, security)")
	fs.StringVarP(&opts.Direction, "direction", "d", "", "Filter by direction (in, out)")
	fs.StringVarP(&opts.Category, "category", "c", "", "Filter by category (frame, drop, control, state, error)")
	fs.StringVar(&opts.Drop, "drop", "", "Filter by drop reason (for example checksum, other-host)")
	return &opts
}

// pathArg parses args and returns the capture file operand.
func pathArg(fs *pflag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	fs := newFlagSet("view", "View capture file in human-readable format")
	opts := addFilterFlags(fs)
	path := pathArg(fs, args)

	filter, err := opts.Build()
	if err != nil {
		fail(err)
	}
	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := newFlagSet("export", "Export capture file to JSON or CSV format")
	format := fs.StringP("format", "f", "jsonl", "Output format (jsonl, csv)")
	output := fs.StringP("output", "o", "", "Output file (default: stdout)")
	path := pathArg(fs, args)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "Filter capture file and write to new file")
	output := fs.StringP("output", "o", "", "Output file (required)")
	opts := addFilterFlags(fs)
	path := pathArg(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}
	if err := commands.RunFilter(path, *output, *opts, os.Stdout); err != nil {
		fail(err)
	}
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show statistics about the capture file")
	path := pathArg(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
