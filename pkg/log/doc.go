// Package log records a machine-readable capture of what a software MAC
// does with each frame.
//
// This package defines the Logger interface and Event types for capturing
// frames at the radio and MAC layers together with the reason for every
// drop. It is separate from operational logging (slog): a capture is a
// complete event trace that can be replayed, filtered and exported after
// the fact.
//
// # Basic Usage
//
// Applications configure capture by providing a Logger implementation:
//
//	// For development: log to console via slog
//	dev.SetCaptureLogger(log.NewSlogAdapter(slog.Default()))
//
//	// For production: write to binary file
//	fl, _ := log.NewFileLogger("/var/log/wpan/wpan0.wcap")
//	dev.SetCaptureLogger(fl)
//
//	// Both: use MultiLogger
//	dev.SetCaptureLogger(log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl))
//
// # Event Types
//
// Events carry exactly one payload:
//   - Frame: raw bytes crossing the radio boundary or delivered to an interface
//   - Drop: a frame discarded by the pipeline and why
//   - Control: a configuration operation pushed to the driver
//   - StateChange: device, interface and transmit queue transitions
//   - Error: failures that are not tied to a single frame
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events with integer keys and
// use the .wcap extension. The wpan-log CLI tool provides viewing,
// filtering, statistics and export.
package log
