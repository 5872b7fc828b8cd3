package engine

import (
	"fmt"

	"github.com/mcoot/fillblank/internal/model"
)

// CheckInvariants verifies the structural rules every committed session must satisfy.
// The selection phase only requires entries from expected submitters: players who
// joined mid-selection sit out and are not counted until the next round begins.
func CheckInvariants(s *model.GameSession) error {
	if s.Active && len(s.Players) == 0 {
		return fmt.Errorf("active session %s has no players", s.ID)
	}
	if len(s.Order) != len(s.Players) {
		return fmt.Errorf("rotation order has %d entries for %d players", len(s.Order), len(s.Players))
	}
	for _, name := range s.Order {
		if !s.HasPlayer(name) {
			return fmt.Errorf("rotation order names unknown player %q", name)
		}
	}
	owners := make(map[model.PlayerID]model.PlayerName)
	for name, p := range s.Players {
		if p.Owner == "" {
			continue
		}
		if other, ok := owners[p.Owner]; ok {
			return fmt.Errorf("account %s holds both %q and %q", p.Owner, other, name)
		}
		owners[p.Owner] = name
	}

	if len(s.Players) > 0 {
		if !s.HasPlayer(s.Round.Czar) {
			return fmt.Errorf("czar %q is not on the roster", s.Round.Czar)
		}
		if s.Round.Prompt == model.NoCard {
			return fmt.Errorf("round %d has no prompt", s.Round.Number)
		}
	}

	if _, ok := s.Round.Submissions[s.Round.Czar]; ok && s.Round.Czar != "" {
		return fmt.Errorf("czar %q has a submission", s.Round.Czar)
	}
	if len(s.Round.Arrivals) != len(s.Round.Submissions) {
		return fmt.Errorf("%d arrivals for %d submissions", len(s.Round.Arrivals), len(s.Round.Submissions))
	}
	for name := range s.Round.Submissions {
		if !s.HasPlayer(name) {
			return fmt.Errorf("submission from departed player %q", name)
		}
	}

	if s.Round.Phase == model.PhaseSelection {
		if !s.AllSubmitted() {
			return fmt.Errorf("selection phase with outstanding submissions")
		}
		if len(s.Round.FilledIn) != len(s.Round.Submissions) {
			return fmt.Errorf("%d filled-in entries for %d submissions", len(s.Round.FilledIn), len(s.Round.Submissions))
		}
	}

	seen := make(map[model.CardID]string)
	claim := func(id model.CardID, where string) error {
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("answer card %d is in both %s and %s", id, prev, where)
		}
		seen[id] = where
		return nil
	}
	for name, p := range s.Players {
		for _, id := range p.Hand {
			if err := claim(id, fmt.Sprintf("hand of %s", name)); err != nil {
				return err
			}
		}
	}
	for name, cards := range s.Round.Submissions {
		for _, id := range cards {
			if err := claim(id, fmt.Sprintf("submission of %s", name)); err != nil {
				return err
			}
		}
	}
	for _, id := range s.Deck.DiscardWhite {
		if where, ok := seen[id]; ok {
			return fmt.Errorf("answer card %d is discarded but still in %s", id, where)
		}
	}

	return nil
}
