package sse

import (
	"context"
	"log/slog"

	"github.com/mcoot/fillblank/internal/model"
	"github.com/mcoot/fillblank/internal/notify"
)

// Broadcaster pushes session events to the SSE clients watching that session.
// Views are per-player, so clients re-fetch their view when told something changed.
type Broadcaster struct {
	hubManager *HubManager
	logger     *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "sse-broadcaster")),
	}
}

var _ notify.Notifier = (*Broadcaster)(nil)

// Notify sends the event to every client of the event's session.
// Sessions nobody is watching are skipped.
func (b *Broadcaster) Notify(ctx context.Context, event model.Event) error {
	hub := b.hubManager.GetHub(event.SessionID)
	if hub == nil {
		return nil
	}

	data, err := notify.Encode(event)
	if err != nil {
		b.logger.Error("sse failed to encode event",
			slog.String("session_id", string(event.SessionID)),
			slog.Any("error", err))
		return err
	}

	hub.BroadcastEvent(string(event.Type), string(data))
	return nil
}
