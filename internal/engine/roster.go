package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mcoot/fillblank/internal/model"
)

// AddPlayer adds a player to the roster and deals them a hand.
// The first player to join becomes czar of a freshly started round.
// A seat with an owner binds the name to that account for the rest of the game.
func (e *Engine) AddPlayer(s *model.GameSession, seat model.Seat) error {
	name := model.PlayerName(strings.TrimSpace(string(seat.Name)))
	if name == "" {
		return model.ErrInvalidName
	}

	return e.apply(s, func(s *model.GameSession) error {
		if held := s.Player(name); held != nil {
			if seat.Owner != "" && held.Owner == seat.Owner {
				return model.ErrAlreadyJoined
			}
			return model.ErrDuplicateName
		}
		if s.SeatOf(seat.Owner) != "" {
			return model.ErrAlreadyJoined
		}

		p := &model.PlayerState{
			Name:     name,
			Owner:    seat.Owner,
			Avatar:   seat.Avatar,
			Hand:     []model.CardID{},
			JoinedAt: e.clock.Now(),
		}
		// Selection is judged on a fixed set of entries, so late arrivals wait a round
		if s.Round.Czar != "" && s.Round.Phase == model.PhaseSelection {
			p.SittingOut = true
		}
		s.Players[name] = p
		s.Order = append(s.Order, name)
		s.Active = true

		if err := e.replenish(s, name); err != nil {
			return err
		}

		if s.Round.Czar == "" {
			return e.beginRound(s, name)
		}
		return nil
	})
}

// RemovePlayer takes a player off the roster, releasing their cards back to the deck
func (e *Engine) RemovePlayer(s *model.GameSession, name model.PlayerName) error {
	return e.apply(s, func(s *model.GameSession) error {
		p := s.Player(name)
		if p == nil {
			return model.ErrNotFound
		}

		wasCzar := s.IsCzar(name)
		idx := slices.Index(s.Order, name)
		deck := e.deck(s)

		deck.release(p.Hand)
		if cards, ok := s.Round.Submissions[name]; ok {
			deck.release(cards)
			delete(s.Round.Submissions, name)
			s.Round.Arrivals = slices.DeleteFunc(s.Round.Arrivals, func(n model.PlayerName) bool {
				return n == name
			})
		}
		delete(s.Players, name)
		s.Order = slices.Delete(s.Order, idx, idx+1)

		switch {
		case len(s.Order) == 0:
			deck.releaseSubmissions()
			number := s.Round.Number
			s.Round = model.NewRoundState()
			s.Round.Number = number
			s.Active = false
			return nil

		case len(s.Order) == 1:
			if s.Config.ShortRoster == model.ShortRosterDeactivate {
				s.Active = false
			}
			return e.restartRound(s, s.Order[0])

		case wasCzar:
			// The player after the departed czar has shifted into its slot
			return e.restartRound(s, s.Order[idx%len(s.Order)])
		}

		return e.reevaluate(s)
	})
}

// Replenish tops a player's hand up to the hand size
func (e *Engine) Replenish(s *model.GameSession, name model.PlayerName) error {
	return e.apply(s, func(s *model.GameSession) error {
		if !s.HasPlayer(name) {
			return model.ErrNotFound
		}
		return e.replenish(s, name)
	})
}

func (e *Engine) replenish(s *model.GameSession, name model.PlayerName) error {
	p := s.Player(name)
	need := s.Config.HandSize - len(p.Hand)
	if need <= 0 {
		return nil
	}

	cards, err := e.deck(s).drawWhite(need)
	if err != nil {
		return fmt.Errorf("failed to deal to %s: %w", name, err)
	}
	p.Hand = append(p.Hand, cards...)
	return nil
}

func (e *Engine) replenishAll(s *model.GameSession) error {
	for _, name := range s.Order {
		if err := e.replenish(s, name); err != nil {
			return err
		}
	}
	return nil
}

// reevaluate brings the round back in line after a non-czar player left
func (e *Engine) reevaluate(s *model.GameSession) error {
	switch s.Round.Phase {
	case model.PhaseSubmission:
		if s.AllSubmitted() {
			return e.enterSelection(s)
		}
	case model.PhaseSelection:
		s.Round.FilledIn = slices.DeleteFunc(s.Round.FilledIn, func(f model.FilledIn) bool {
			return !s.Round.HasSubmitted(f.Player)
		})
		if len(s.Round.FilledIn) == 0 {
			return e.restartRound(s, s.Round.Czar)
		}
	}
	return nil
}

// releaseSubmissions returns every pending submission to the discard pile
func (a *allocator) releaseSubmissions() {
	for _, name := range a.s.Round.Arrivals {
		a.release(a.s.Round.Submissions[name])
	}
	a.s.Round.Submissions = make(map[model.PlayerName][]model.CardID)
	a.s.Round.Arrivals = nil
	a.s.Round.FilledIn = nil
}
