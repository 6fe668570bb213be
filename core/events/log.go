package events

import (
	"log/slog"

	"pullmarket/core/types"
)

// Payload is implemented by events that carry a wire representation.
type Payload interface {
	Event() *types.Event
}

// LogEmitter writes every event to a structured logger. It stands in for a
// full subscription fan-out when the daemon has no downstream indexer.
type LogEmitter struct {
	Logger *slog.Logger
}

// Emit implements the Emitter interface.
func (l LogEmitter) Emit(evt Event) {
	if evt == nil {
		return
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{slog.String("event", evt.EventType())}
	if payload, ok := evt.(Payload); ok {
		if wire := payload.Event(); wire != nil {
			for key, value := range wire.Attributes {
				attrs = append(attrs, slog.String(key, value))
			}
		}
	}
	logger.Info("ledger event", attrs...)
}
