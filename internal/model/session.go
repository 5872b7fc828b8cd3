package model

import (
	"fmt"
	"time"
)

// SessionID uniquely identifies a game session
type SessionID string

// PlayerName identifies a player within one game. Names are unique per game.
type PlayerName string

// LosingCardsPolicy decides what happens to cards that lose a round
type LosingCardsPolicy string

const (
	LosingCardsDiscard LosingCardsPolicy = "discard" // Released to the deck's discard pile
	LosingCardsReturn  LosingCardsPolicy = "return"  // Handed back to the player who submitted them
)

// ShortRosterPolicy decides what happens when only one player remains mid-game
type ShortRosterPolicy string

const (
	ShortRosterWait       ShortRosterPolicy = "wait"       // Lone player becomes czar and waits for others
	ShortRosterDeactivate ShortRosterPolicy = "deactivate" // Game is marked inactive
)

// DefaultHandSize is the number of answer cards each player holds
const DefaultHandSize = 10

// SessionConfig holds per-game rule settings
type SessionConfig struct {
	HandSize    int
	LosingCards LosingCardsPolicy
	ShortRoster ShortRosterPolicy
}

// DefaultSessionConfig returns the default game rules
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		HandSize:    DefaultHandSize,
		LosingCards: LosingCardsDiscard,
		ShortRoster: ShortRosterWait,
	}
}

// MaxHandSize bounds HandSize so one game cannot drain a whole catalog
const MaxHandSize = 20

// WithDefaults fills unset fields from defaults and rejects invalid values
func (c SessionConfig) WithDefaults(defaults SessionConfig) (SessionConfig, error) {
	if c.HandSize == 0 {
		c.HandSize = defaults.HandSize
	}
	if c.LosingCards == "" {
		c.LosingCards = defaults.LosingCards
	}
	if c.ShortRoster == "" {
		c.ShortRoster = defaults.ShortRoster
	}

	if c.HandSize < 1 || c.HandSize > MaxHandSize {
		return c, fmt.Errorf("hand size %d: %w", c.HandSize, ErrInvalidConfig)
	}
	switch c.LosingCards {
	case LosingCardsDiscard, LosingCardsReturn:
	default:
		return c, fmt.Errorf("losing cards policy %q: %w", c.LosingCards, ErrInvalidConfig)
	}
	switch c.ShortRoster {
	case ShortRosterWait, ShortRosterDeactivate:
	default:
		return c, fmt.Errorf("short roster policy %q: %w", c.ShortRoster, ErrInvalidConfig)
	}
	return c, nil
}

// PlayerState is one participant's in-game state
type PlayerState struct {
	Name       PlayerName
	Owner      PlayerID // Account holding the seat; only it may act as Name
	Avatar     string
	Hand       []CardID
	Wins       int
	JoinedAt   time.Time
	SittingOut bool // Joined during selection; plays from the next round
}

// DeckState is the session's card allocation bookkeeping.
// Cards in play (hands, submissions) are derived from the roster and round.
type DeckState struct {
	UsedBlack    []CardID // Prompts already shown since the last recycle
	SeenWhite    []CardID // Answer cards dealt at least once this session
	DiscardWhite []CardID // Released answer cards, preferred when fresh cards run out
}

// GameSession is the aggregate root for one game
type GameSession struct {
	ID       SessionID
	Name     string
	Active   bool
	Version  int64 // Bumped on every successful save
	CardSets []string
	Config   SessionConfig

	Players map[PlayerName]*PlayerState
	Order   []PlayerName // Czar rotation order (join order)

	Round RoundState
	Deck  DeckState

	// LastResult is set when the most recent operation resolved a round
	LastResult *RoundResult

	CreatedAt    time.Time
	LastActivity time.Time
}

// NewGameSession creates an empty, active session
func NewGameSession(id SessionID, name string, cardSets []string, cfg SessionConfig, now time.Time) *GameSession {
	return &GameSession{
		ID:           id,
		Name:         name,
		Active:       true,
		CardSets:     cardSets,
		Config:       cfg,
		Players:      make(map[PlayerName]*PlayerState),
		Order:        []PlayerName{},
		Round:        NewRoundState(),
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Player returns the named player's state, or nil if absent
func (s *GameSession) Player(name PlayerName) *PlayerState {
	return s.Players[name]
}

// HasPlayer returns true if the name is on the roster
func (s *GameSession) HasPlayer(name PlayerName) bool {
	_, ok := s.Players[name]
	return ok
}

// SeatOf returns the name the account plays under, or "" if it holds no seat
func (s *GameSession) SeatOf(owner PlayerID) PlayerName {
	if owner == "" {
		return ""
	}
	for name, p := range s.Players {
		if p.Owner == owner {
			return name
		}
	}
	return ""
}

// IsCzar returns true if the named player is the current czar
func (s *GameSession) IsCzar(name PlayerName) bool {
	return s.Round.Czar != "" && s.Round.Czar == name
}

// Submitters returns the non-czar players expected to submit this round, in rotation order
func (s *GameSession) Submitters() []PlayerName {
	var names []PlayerName
	for _, name := range s.Order {
		if name == s.Round.Czar || s.Players[name].SittingOut {
			continue
		}
		names = append(names, name)
	}
	return names
}

// AllSubmitted returns true if every expected submitter has submitted, and there is at least one
func (s *GameSession) AllSubmitted() bool {
	submitters := s.Submitters()
	if len(submitters) == 0 {
		return false
	}
	for _, name := range submitters {
		if _, ok := s.Round.Submissions[name]; !ok {
			return false
		}
	}
	return true
}

// InPlayWhite returns every answer card currently in a hand or a pending submission
func (s *GameSession) InPlayWhite() map[CardID]struct{} {
	inPlay := make(map[CardID]struct{})
	for _, p := range s.Players {
		for _, id := range p.Hand {
			inPlay[id] = struct{}{}
		}
	}
	for _, cards := range s.Round.Submissions {
		for _, id := range cards {
			inPlay[id] = struct{}{}
		}
	}
	return inPlay
}

// Scores returns each player's win count
func (s *GameSession) Scores() map[PlayerName]int {
	scores := make(map[PlayerName]int, len(s.Players))
	for name, p := range s.Players {
		scores[name] = p.Wins
	}
	return scores
}

// Clone returns a deep copy of the session
func (s *GameSession) Clone() *GameSession {
	c := *s
	c.CardSets = cloneSlice(s.CardSets)
	c.Players = make(map[PlayerName]*PlayerState, len(s.Players))
	for name, p := range s.Players {
		pc := *p
		pc.Hand = cloneSlice(p.Hand)
		c.Players[name] = &pc
	}
	c.Order = cloneSlice(s.Order)
	c.Round = s.Round.Clone()
	c.Deck = DeckState{
		UsedBlack:    cloneSlice(s.Deck.UsedBlack),
		SeenWhite:    cloneSlice(s.Deck.SeenWhite),
		DiscardWhite: cloneSlice(s.Deck.DiscardWhite),
	}
	if s.LastResult != nil {
		r := s.LastResult.Clone()
		c.LastResult = &r
	}
	return &c
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
