package storage

import (
	"context"

	"github.com/mcoot/fillblank/internal/model"
)

// Storage defines the interface for data persistence.
//
// Sessions use optimistic versioning: SaveSession only succeeds when the
// stored version matches the version the caller loaded, and returns
// model.ErrConflict otherwise. On success the caller's Version is bumped.
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error

	// Registered player operations
	SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error
	GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error)
	GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error)

	// Session operations
	CreateSession(ctx context.Context, session *model.GameSession) error
	GetSession(ctx context.Context, id model.SessionID) (*model.GameSession, error)
	GetSessionByName(ctx context.Context, name string) (*model.GameSession, error)
	SaveSession(ctx context.Context, session *model.GameSession) error
	ListSessions(ctx context.Context, activeOnly bool) ([]*model.GameSession, error)

	// Round history operations
	AppendRoundResult(ctx context.Context, result *model.RoundResult) error
	GetRoundHistory(ctx context.Context, id model.SessionID) ([]model.RoundResult, error)

	// Card set operations
	SaveCardSet(ctx context.Context, set *model.CardSet) error
	GetCardSets(ctx context.Context) ([]model.CardSet, error)
	DeleteCardSet(ctx context.Context, name string) error
}
