package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/fillblank/internal/dependencies/clock"
	"github.com/mcoot/fillblank/internal/model"
	"github.com/mcoot/fillblank/internal/notify"
	"github.com/mcoot/fillblank/internal/storage"
)

const (
	DefaultIdleTimeout = 2 * time.Hour
	DefaultInterval    = 5 * time.Minute
)

// Sweeper marks games that have sat idle for too long as inactive
type Sweeper struct {
	storage  storage.Storage
	notifier notify.Notifier
	clock    clock.Clock
	logger   *slog.Logger

	IdleTimeout time.Duration
	Interval    time.Duration

	// AfterSweep, if set, runs after every sweep in Run
	AfterSweep func()
}

// New creates a Sweeper with the default timings
func New(storage storage.Storage, notifier notify.Notifier, clock clock.Clock, logger *slog.Logger) *Sweeper {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Sweeper{
		storage:     storage,
		notifier:    notifier,
		clock:       clock,
		logger:      logger,
		IdleTimeout: DefaultIdleTimeout,
		Interval:    DefaultInterval,
	}
}

// SweepOnce deactivates every active game idle for longer than IdleTimeout.
// It returns the number of games deactivated.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	sessions, err := s.storage.ListSessions(ctx, true)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, session := range sessions {
		if s.clock.Since(session.LastActivity) <= s.IdleTimeout {
			continue
		}

		session.Active = false
		err := s.storage.SaveSession(ctx, session)
		switch {
		case err == nil:
		case errors.Is(err, model.ErrConflict), errors.Is(err, model.ErrGameNotFound):
			// Touched or gone since we listed it
			continue
		default:
			return swept, err
		}

		swept++
		s.logger.Info("deactivated idle game",
			slog.String("session_id", string(session.ID)),
			slog.String("game_name", session.Name),
			slog.Time("last_activity", session.LastActivity),
		)

		event := model.Event{
			Type:      model.EventGameDeactivated,
			Timestamp: s.clock.Now(),
			SessionID: session.ID,
			GameName:  session.Name,
			Version:   session.Version,
		}
		if err := s.notifier.Notify(ctx, event); err != nil {
			s.logger.Warn("failed to send game notification",
				slog.String("session_id", string(session.ID)),
				slog.String("error", err.Error()),
			)
		}
	}
	return swept, nil
}

// Run sweeps every Interval until ctx is cancelled
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.logger.Info("sweeper started",
		slog.Duration("idle_timeout", s.IdleTimeout),
		slog.Duration("interval", s.Interval),
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("sweep failed", slog.String("error", err.Error()))
			}
			if s.AfterSweep != nil {
				s.AfterSweep()
			}
		}
	}
}
