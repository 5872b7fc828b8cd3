package engine

import (
	"fmt"

	"github.com/mcoot/fillblank/internal/model"
)

// StartRound deals a fresh round with the initiator as czar.
// It is only valid before any submissions have been made: to bootstrap a game
// or to let the czar swap an unanswered prompt.
func (e *Engine) StartRound(s *model.GameSession, initiator model.PlayerName) error {
	return e.apply(s, func(s *model.GameSession) error {
		if !s.HasPlayer(initiator) {
			return model.ErrNotFound
		}
		if s.Round.Czar != "" {
			if len(s.Round.Submissions) > 0 || s.Round.Phase != model.PhaseSubmission {
				return model.ErrInvalidState
			}
			if s.Round.Czar != initiator {
				return model.ErrNotPlayerTurn
			}
		}
		return e.beginRound(s, initiator)
	})
}

// Submit plays cards from a player's hand for the current prompt
func (e *Engine) Submit(s *model.GameSession, name model.PlayerName, cards []model.CardID) error {
	return e.apply(s, func(s *model.GameSession) error {
		p := s.Player(name)
		if p == nil {
			return model.ErrNotFound
		}
		if s.IsCzar(name) {
			return model.ErrNotPlayerTurn
		}
		if s.Round.Phase != model.PhaseSubmission || p.SittingOut {
			return model.ErrWrongPhase
		}
		if s.Round.HasSubmitted(name) {
			return model.ErrAlreadySubmitted
		}

		prompt, ok := e.catalog.BlackCard(s.Round.Prompt)
		if !ok {
			return fmt.Errorf("prompt %d: %w", s.Round.Prompt, model.ErrCardNotFound)
		}
		if len(cards) != prompt.Pick {
			return model.ErrInvalidCardCount
		}

		hand := toSet(p.Hand)
		for _, id := range cards {
			if _, ok := hand[id]; !ok {
				return model.ErrCardNotInHand
			}
			// Each card can only be played once
			delete(hand, id)
		}

		remaining := make([]model.CardID, 0, len(p.Hand)-len(cards))
		for _, id := range p.Hand {
			if _, ok := hand[id]; ok {
				remaining = append(remaining, id)
			}
		}
		p.Hand = remaining

		s.Round.Submissions[name] = append([]model.CardID(nil), cards...)
		s.Round.Arrivals = append(s.Round.Arrivals, name)

		if s.AllSubmitted() {
			return e.enterSelection(s)
		}
		return nil
	})
}

// SelectWinner resolves the round in favour of winner's submission and starts the next round
func (e *Engine) SelectWinner(s *model.GameSession, czar, winner model.PlayerName) error {
	return e.apply(s, func(s *model.GameSession) error {
		if !s.IsCzar(czar) {
			return model.ErrNotPlayerTurn
		}
		if s.Round.Phase != model.PhaseSelection {
			return model.ErrWrongPhase
		}
		if !s.Round.HasSubmitted(winner) {
			return model.ErrUnknownSubmission
		}
		return e.resolveRound(s, winner)
	})
}

// ResolveChoice maps a position in the filled-in list shown to the czar back to its submitter
func ResolveChoice(s *model.GameSession, choice int) (model.PlayerName, error) {
	if s.Round.Phase != model.PhaseSelection {
		return "", model.ErrWrongPhase
	}
	if choice < 0 || choice >= len(s.Round.FilledIn) {
		return "", model.ErrUnknownSubmission
	}
	return s.Round.FilledIn[choice].Player, nil
}

func (e *Engine) resolveRound(s *model.GameSession, winner model.PlayerName) error {
	prompt, ok := e.catalog.BlackCard(s.Round.Prompt)
	if !ok {
		return fmt.Errorf("prompt %d: %w", s.Round.Prompt, model.ErrCardNotFound)
	}

	result := model.RoundResult{
		SessionID:    s.ID,
		RoundNumber:  s.Round.Number,
		Prompt:       prompt.ID,
		Czar:         s.Round.Czar,
		Winner:       winner,
		WinningCards: append([]model.CardID(nil), s.Round.Submissions[winner]...),
		ResolvedAt:   e.clock.Now(),
	}

	deck := e.deck(s)
	for _, name := range s.Round.Arrivals {
		cards := s.Round.Submissions[name]
		text, err := e.fill(prompt, cards)
		if err != nil {
			return err
		}
		result.Entries = append(result.Entries, model.SubmissionRecord{
			Player:   name,
			Cards:    append([]model.CardID(nil), cards...),
			Text:     text,
			IsWinner: name == winner,
		})

		// Winning cards are consumed: they stay out of the discard pile
		if name == winner {
			continue
		}
		if p := s.Player(name); p != nil && s.Config.LosingCards == model.LosingCardsReturn {
			p.Hand = append(p.Hand, cards...)
		} else {
			deck.release(cards)
		}
	}

	s.Player(winner).Wins++
	s.Round.Submissions = make(map[model.PlayerName][]model.CardID)
	s.Round.Arrivals = nil
	s.Round.FilledIn = nil

	if err := e.beginRound(s, nextInOrder(s.Order, s.Round.Czar)); err != nil {
		return err
	}
	s.LastResult = &result
	return nil
}

// restartRound abandons the current round, returning pending submissions to the deck
func (e *Engine) restartRound(s *model.GameSession, czar model.PlayerName) error {
	e.deck(s).releaseSubmissions()
	return e.beginRound(s, czar)
}

// beginRound starts a new submission phase with the given czar.
// Pending submissions must already have been cleared.
func (e *Engine) beginRound(s *model.GameSession, czar model.PlayerName) error {
	s.Round.Number++
	s.Round.Phase = model.PhaseSubmission
	s.Round.Czar = czar
	s.Round.Submissions = make(map[model.PlayerName][]model.CardID)
	s.Round.Arrivals = nil
	s.Round.FilledIn = nil
	s.Round.StartedAt = e.clock.Now()

	if _, err := e.deck(s).drawBlack(); err != nil {
		return fmt.Errorf("failed to draw prompt: %w", err)
	}

	for _, p := range s.Players {
		p.SittingOut = false
	}
	return e.replenishAll(s)
}

// enterSelection renders every submission into the prompt and shuffles them for the czar
func (e *Engine) enterSelection(s *model.GameSession) error {
	prompt, ok := e.catalog.BlackCard(s.Round.Prompt)
	if !ok {
		return fmt.Errorf("prompt %d: %w", s.Round.Prompt, model.ErrCardNotFound)
	}

	filled := make([]model.FilledIn, 0, len(s.Round.Arrivals))
	for _, name := range s.Round.Arrivals {
		text, err := e.fill(prompt, s.Round.Submissions[name])
		if err != nil {
			return err
		}
		filled = append(filled, model.FilledIn{Player: name, Text: text})
	}
	e.random.Shuffle(len(filled), func(i, j int) {
		filled[i], filled[j] = filled[j], filled[i]
	})

	s.Round.FilledIn = filled
	s.Round.Phase = model.PhaseSelection
	return nil
}

func (e *Engine) fill(prompt model.BlackCard, cards []model.CardID) (string, error) {
	answers, err := e.answerTexts(cards)
	if err != nil {
		return "", err
	}
	return model.FillBlanks(prompt.Text, answers), nil
}

func (e *Engine) answerTexts(cards []model.CardID) ([]string, error) {
	texts := make([]string, 0, len(cards))
	for _, id := range cards {
		card, ok := e.catalog.WhiteCard(id)
		if !ok {
			return nil, fmt.Errorf("answer %d: %w", id, model.ErrCardNotFound)
		}
		texts = append(texts, card.Text)
	}
	return texts, nil
}

// nextInOrder returns the player after current in the rotation, wrapping around
func nextInOrder(order []model.PlayerName, current model.PlayerName) model.PlayerName {
	for i, name := range order {
		if name == current {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}
