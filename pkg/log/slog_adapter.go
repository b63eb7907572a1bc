package log

import (
	"context"
	"encoding/hex"
	"log/slog"
)

// SlogAdapter writes capture events to an slog.Logger at Debug level.
// Useful for development when you want to see frames on the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session", event.SessionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.Device != "" {
		attrs = append(attrs, slog.String("device", event.Device))
	}
	if event.Interface != "" {
		attrs = append(attrs, slog.String("iface", event.Interface))
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("size", event.Frame.Size),
			slog.String("data", hex.EncodeToString(event.Frame.Data)),
			slog.Int("page", int(event.Frame.Page)),
			slog.Int("channel", int(event.Frame.Channel)),
		)
		if event.Direction == DirectionIn {
			attrs = append(attrs, slog.Int("lqi", int(event.Frame.LQI)))
		}
		if event.Frame.PacketType != "" {
			attrs = append(attrs, slog.String("pkt_type", event.Frame.PacketType))
		}
	case event.Drop != nil:
		attrs = append(attrs, slog.String("reason", event.Drop.Reason.String()))
		if event.Drop.Detail != "" {
			attrs = append(attrs, slog.String("detail", event.Drop.Detail))
		}
	case event.Control != nil:
		attrs = append(attrs,
			slog.String("op", event.Control.Op.String()),
			slog.Int("page", int(event.Control.Page)),
			slog.Int("channel", int(event.Control.Channel)),
		)
		if event.Control.Error != "" {
			attrs = append(attrs, slog.String("error", event.Control.Error))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "capture", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
