// Package cli holds helpers shared by the wpan binaries.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// NewLogger returns a slog logger writing human-readable lines to w.
// level is one of debug, info, warn or error.
func NewLogger(w io.Writer, level, prefix string) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	h := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
		Level:           lvl,
		Prefix:          prefix,
	})
	return slog.New(h), nil
}
