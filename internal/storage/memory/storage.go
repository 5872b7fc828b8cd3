package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/mcoot/fillblank/internal/model"
	"github.com/mcoot/fillblank/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Sessions are copied on the way in and out so callers never share state.
type Storage struct {
	mu sync.RWMutex

	players           map[model.PlayerID]*model.Player
	registeredPlayers map[model.PlayerID]*model.RegisteredPlayer
	usernameIndex     map[string]model.PlayerID
	sessions          map[model.SessionID]*model.GameSession
	sessionNameIndex  map[string]model.SessionID
	history           map[model.SessionID][]model.RoundResult
	cardSets          map[string]model.CardSet
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:           make(map[model.PlayerID]*model.Player),
		registeredPlayers: make(map[model.PlayerID]*model.RegisteredPlayer),
		usernameIndex:     make(map[string]model.PlayerID),
		sessions:          make(map[model.SessionID]*model.GameSession),
		sessionNameIndex:  make(map[string]model.SessionID),
		history:           make(map[model.SessionID][]model.RoundResult),
		cardSets:          make(map[string]model.CardSet),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[player.ID] = player
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, id)
	return nil
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registeredPlayers[rp.PlayerID] = rp
	s.usernameIndex[rp.Username] = rp.PlayerID
	return nil
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return rp, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	playerID, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return rp, nil
}

// Session operations

func (s *Storage) CreateSession(ctx context.Context, session *model.GameSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessionNameIndex[session.Name]; ok {
		return model.ErrDuplicateGameName
	}
	session.Version = 1
	s.sessions[session.ID] = session.Clone()
	s.sessionNameIndex[session.Name] = session.ID
	return nil
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.GameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return session.Clone(), nil
}

func (s *Storage) GetSessionByName(ctx context.Context, name string) (*model.GameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.sessionNameIndex[name]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return s.sessions[id].Clone(), nil
}

func (s *Storage) SaveSession(ctx context.Context, session *model.GameSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[session.ID]
	if !ok {
		return model.ErrGameNotFound
	}
	if stored.Version != session.Version {
		return model.ErrConflict
	}
	session.Version++
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *Storage) ListSessions(ctx context.Context, activeOnly bool) ([]*model.GameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]*model.GameSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		if activeOnly && !session.Active {
			continue
		}
		sessions = append(sessions, session.Clone())
	}
	storage.SortSessions(sessions)
	return sessions, nil
}

// Round history operations

func (s *Storage) AppendRoundResult(ctx context.Context, result *model.RoundResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[result.SessionID] = append(s.history[result.SessionID], result.Clone())
	return nil
}

func (s *Storage) GetRoundHistory(ctx context.Context, id model.SessionID) ([]model.RoundResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]model.RoundResult, 0, len(s.history[id]))
	for _, r := range s.history[id] {
		results = append(results, r.Clone())
	}
	return results, nil
}

// Card set operations

func (s *Storage) SaveCardSet(ctx context.Context, set *model.CardSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cardSets[set.Name] = cloneCardSet(*set)
	return nil
}

func (s *Storage) GetCardSets(ctx context.Context) ([]model.CardSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sets := make([]model.CardSet, 0, len(s.cardSets))
	for _, set := range s.cardSets {
		sets = append(sets, cloneCardSet(set))
	}
	slices.SortFunc(sets, func(a, b model.CardSet) int {
		return strings.Compare(a.Name, b.Name)
	})
	return sets, nil
}

func (s *Storage) DeleteCardSet(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cardSets[name]; !ok {
		return model.ErrCardSetNotFound
	}
	delete(s.cardSets, name)
	return nil
}

func cloneCardSet(set model.CardSet) model.CardSet {
	set.BlackCards = slices.Clone(set.BlackCards)
	set.WhiteCards = slices.Clone(set.WhiteCards)
	return set
}
