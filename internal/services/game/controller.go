package game

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mcoot/fillblank/internal/dependencies/clock"
	"github.com/mcoot/fillblank/internal/engine"
	"github.com/mcoot/fillblank/internal/model"
	"github.com/mcoot/fillblank/internal/notify"
	"github.com/mcoot/fillblank/internal/storage"
)

// CardSetValidator checks that a game's card sets exist and can deal a game
type CardSetValidator interface {
	Validate(names []string) error
}

// Config tunes the controller
type Config struct {
	// MaxRetries is how many times a mutation is attempted when saves conflict
	MaxRetries int
	// Rules are the defaults for settings a new game leaves unset
	Rules model.SessionConfig
}

// DefaultConfig returns the default controller settings
func DefaultConfig() Config {
	return Config{
		MaxRetries: 5,
		Rules:      model.DefaultSessionConfig(),
	}
}

// Controller runs game operations against stored sessions.
// Every mutation loads the session, applies an engine operation and saves it
// with a version check, retrying from a fresh load when another writer got there first.
type Controller struct {
	storage  storage.Storage
	engine   *engine.Engine
	cardSets CardSetValidator
	notifier notify.Notifier
	clock    clock.Clock
	logger   *slog.Logger
	cfg      Config
}

// NewController creates a new game Controller
func NewController(
	storage storage.Storage,
	engine *engine.Engine,
	cardSets CardSetValidator,
	notifier notify.Notifier,
	clock clock.Clock,
	logger *slog.Logger,
	cfg Config,
) *Controller {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Controller{
		storage:  storage,
		engine:   engine,
		cardSets: cardSets,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
		cfg:      cfg,
	}
}

// CreateGame starts a new game with the creator as its first player and czar
func (c *Controller) CreateGame(
	ctx context.Context,
	name string,
	cardSets []string,
	rules model.SessionConfig,
	creator model.Seat,
) (*model.GameSession, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.ErrInvalidGameName
	}

	rules, err := rules.WithDefaults(c.cfg.Rules)
	if err != nil {
		return nil, err
	}
	if err := c.cardSets.Validate(cardSets); err != nil {
		return nil, err
	}

	session := model.NewGameSession(model.SessionID(uuid.NewString()), name, cardSets, rules, c.clock.Now())
	if err := c.engine.AddPlayer(session, creator); err != nil {
		return nil, err
	}

	if err := c.storage.CreateSession(ctx, session); err != nil {
		if !errors.Is(err, model.ErrDuplicateGameName) {
			c.logger.Error("failed to create game",
				slog.String("game_name", name),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	c.logger.Info("game created",
		slog.String("session_id", string(session.ID)),
		slog.String("game_name", name),
		slog.String("creator", string(creator.Name)),
		slog.Int("hand_size", rules.HandSize),
	)

	c.notify(ctx, session, model.EventGameCreated, creator.Name)
	return session, nil
}

// GetGame retrieves a game by ID
func (c *Controller) GetGame(ctx context.Context, id model.SessionID) (*model.GameSession, error) {
	return c.storage.GetSession(ctx, id)
}

// FindGameByName retrieves a game by its unique name
func (c *Controller) FindGameByName(ctx context.Context, name string) (*model.GameSession, error) {
	return c.storage.GetSessionByName(ctx, strings.TrimSpace(name))
}

// ListGames returns games newest first, optionally only those still active
func (c *Controller) ListGames(ctx context.Context, activeOnly bool) ([]*model.GameSession, error) {
	return c.storage.ListSessions(ctx, activeOnly)
}

// Join seats an account in a game under the seat's name
func (c *Controller) Join(ctx context.Context, id model.SessionID, seat model.Seat) (*model.GameSession, error) {
	session, err := c.mutate(ctx, id, func(s *model.GameSession) error {
		return c.engine.AddPlayer(s, seat)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("player joined",
		slog.String("session_id", string(id)),
		slog.String("player", string(seat.Name)),
		slog.Int("player_count", len(session.Players)),
	)
	c.notify(ctx, session, model.EventPlayerJoined, seat.Name)
	return session, nil
}

// JoinOrCreate joins the named game, creating it with default settings if it does not exist.
// An account that already holds a seat in the game simply gets it back.
func (c *Controller) JoinOrCreate(ctx context.Context, name string, seat model.Seat) (*model.GameSession, error) {
	for i := 0; i < 2; i++ {
		session, err := c.FindGameByName(ctx, name)
		switch {
		case err == nil:
			if session.SeatOf(seat.Owner) != "" {
				return session, nil
			}
			return c.Join(ctx, session.ID, seat)

		case errors.Is(err, model.ErrGameNotFound):
			session, err = c.CreateGame(ctx, name, nil, model.SessionConfig{}, seat)
			if errors.Is(err, model.ErrDuplicateGameName) {
				// Someone else created it first; join theirs
				continue
			}
			return session, err

		default:
			return nil, err
		}
	}
	return nil, model.ErrTooManyConflicts
}

// Leave gives up the account's seat in a game
func (c *Controller) Leave(ctx context.Context, id model.SessionID, owner model.PlayerID) (*model.GameSession, error) {
	var (
		player    model.PlayerName
		wasActive bool
	)
	session, err := c.mutate(ctx, id, func(s *model.GameSession) (err error) {
		if player, err = seatOf(s, owner); err != nil {
			return err
		}
		wasActive = s.Active
		return c.engine.RemovePlayer(s, player)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("player left",
		slog.String("session_id", string(id)),
		slog.String("player", string(player)),
		slog.Int("player_count", len(session.Players)),
	)
	c.notify(ctx, session, model.EventPlayerLeft, player)
	if wasActive && !session.Active {
		c.logger.Info("game deactivated", slog.String("session_id", string(id)))
		c.notify(ctx, session, model.EventGameDeactivated, "")
	}
	return session, nil
}

// Submit plays cards from the account's hand for the current prompt
func (c *Controller) Submit(ctx context.Context, id model.SessionID, owner model.PlayerID, cards []model.CardID) (*model.GameSession, error) {
	var player model.PlayerName
	session, err := c.mutate(ctx, id, func(s *model.GameSession) (err error) {
		if player, err = seatOf(s, owner); err != nil {
			return err
		}
		return c.engine.Submit(s, player, cards)
	})
	if err != nil {
		return nil, err
	}

	c.notify(ctx, session, model.EventCardsSubmitted, player)
	if session.Round.Phase == model.PhaseSelection {
		c.logger.Info("all submissions in",
			slog.String("session_id", string(id)),
			slog.Int("round", session.Round.Number),
		)
		c.notify(ctx, session, model.EventSelectionBegan, session.Round.Czar)
	}
	return session, nil
}

// SelectWinner has the czar pick the winning submission by its player's name
func (c *Controller) SelectWinner(ctx context.Context, id model.SessionID, owner model.PlayerID, winner model.PlayerName) (*model.GameSession, error) {
	return c.resolve(ctx, id, owner, func(s *model.GameSession, czar model.PlayerName) error {
		return c.engine.SelectWinner(s, czar, winner)
	})
}

// SelectChoice has the czar pick the winning submission by its position in the anonymized list
func (c *Controller) SelectChoice(ctx context.Context, id model.SessionID, owner model.PlayerID, choice int) (*model.GameSession, error) {
	return c.resolve(ctx, id, owner, func(s *model.GameSession, czar model.PlayerName) error {
		if !s.IsCzar(czar) {
			return model.ErrNotPlayerTurn
		}
		winner, err := engine.ResolveChoice(s, choice)
		if err != nil {
			return err
		}
		return c.engine.SelectWinner(s, czar, winner)
	})
}

func (c *Controller) resolve(
	ctx context.Context,
	id model.SessionID,
	owner model.PlayerID,
	op func(s *model.GameSession, czar model.PlayerName) error,
) (*model.GameSession, error) {
	var czar model.PlayerName
	session, err := c.mutate(ctx, id, func(s *model.GameSession) (err error) {
		if czar, err = seatOf(s, owner); err != nil {
			return model.ErrNotPlayerTurn
		}
		return op(s, czar)
	})
	if err != nil {
		return nil, err
	}

	if r := session.LastResult; r != nil {
		c.logger.Info("round won",
			slog.String("session_id", string(id)),
			slog.Int("round", r.RoundNumber),
			slog.String("winner", string(r.Winner)),
		)
	}
	c.notify(ctx, session, model.EventRoundStarted, czar)
	return session, nil
}

// StartRound deals a fresh round with the initiator as czar, when no submissions are pending
func (c *Controller) StartRound(ctx context.Context, id model.SessionID, owner model.PlayerID) (*model.GameSession, error) {
	var initiator model.PlayerName
	session, err := c.mutate(ctx, id, func(s *model.GameSession) (err error) {
		if initiator, err = seatOf(s, owner); err != nil {
			return err
		}
		return c.engine.StartRound(s, initiator)
	})
	if err != nil {
		return nil, err
	}

	c.notify(ctx, session, model.EventRoundStarted, initiator)
	return session, nil
}

// View returns what the account is allowed to see of a game.
// Accounts without a seat, including anonymous callers, get the observer view.
func (c *Controller) View(ctx context.Context, id model.SessionID, viewer model.PlayerID) (*engine.SessionView, error) {
	session, err := c.storage.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	view := c.engine.View(session, session.SeatOf(viewer))
	return &view, nil
}

// History returns the resolved rounds of a game, oldest first
func (c *Controller) History(ctx context.Context, id model.SessionID) ([]model.RoundResult, error) {
	if _, err := c.storage.GetSession(ctx, id); err != nil {
		return nil, err
	}
	return c.storage.GetRoundHistory(ctx, id)
}

// seatOf resolves the roster name the account holds in s
func seatOf(s *model.GameSession, owner model.PlayerID) (model.PlayerName, error) {
	name := s.SeatOf(owner)
	if name == "" {
		return "", model.ErrNotFound
	}
	return name, nil
}

// mutate loads the session, applies op and saves the result, retrying on conflicting saves
func (c *Controller) mutate(ctx context.Context, id model.SessionID, op func(*model.GameSession) error) (*model.GameSession, error) {
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		session, err := c.storage.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := op(session); err != nil {
			return nil, err
		}

		err = c.storage.SaveSession(ctx, session)
		if err == nil {
			c.afterSave(ctx, session)
			return session, nil
		}
		if !errors.Is(err, model.ErrConflict) {
			c.logger.Error("failed to save game",
				slog.String("session_id", string(id)),
				slog.String("error", err.Error()),
			)
			return nil, err
		}

		c.logger.Debug("game save conflicted, retrying",
			slog.String("session_id", string(id)),
			slog.Int("attempt", attempt),
		)
	}

	c.logger.Warn("giving up after repeated save conflicts",
		slog.String("session_id", string(id)),
		slog.Int("attempts", c.cfg.MaxRetries),
	)
	return nil, model.ErrTooManyConflicts
}

// afterSave records history for a resolved round. The save already happened, so failures are only logged.
func (c *Controller) afterSave(ctx context.Context, session *model.GameSession) {
	if err := engine.CheckInvariants(session); err != nil {
		c.logger.Error("game saved in an inconsistent state",
			slog.String("session_id", string(session.ID)),
			slog.String("error", err.Error()),
		)
	}

	if session.LastResult == nil {
		return
	}
	if err := c.storage.AppendRoundResult(ctx, session.LastResult); err != nil {
		c.logger.Error("failed to record round result",
			slog.String("session_id", string(session.ID)),
			slog.Int("round", session.LastResult.RoundNumber),
			slog.String("error", err.Error()),
		)
	}
}

// notify tells the notifier about a committed change. Failures are logged and otherwise ignored.
func (c *Controller) notify(ctx context.Context, session *model.GameSession, eventType model.EventType, player model.PlayerName) {
	event := model.Event{
		Type:      eventType,
		Timestamp: c.clock.Now(),
		SessionID: session.ID,
		GameName:  session.Name,
		Player:    player,
		Version:   session.Version,
	}
	if err := c.notifier.Notify(ctx, event); err != nil {
		c.logger.Warn("failed to send game notification",
			slog.String("session_id", string(session.ID)),
			slog.String("event", string(eventType)),
			slog.String("error", err.Error()),
		)
	}
}
