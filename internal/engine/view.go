package engine

import (
	"github.com/mcoot/fillblank/internal/model"
)

// PlayerSummary is the public view of one roster entry
type PlayerSummary struct {
	Name         model.PlayerName
	Avatar       string
	Wins         int
	IsCzar       bool
	HasSubmitted bool
	SittingOut   bool
}

// Choice is one anonymized entry offered to the czar
type Choice struct {
	Index int
	Text  string
}

// SessionView is what one viewer is allowed to see of a session
type SessionView struct {
	ID          model.SessionID
	Name        string
	Active      bool
	Version     int64
	Phase       model.Phase
	RoundNumber int
	Czar        model.PlayerName
	CzarAvatar  string
	Prompt      string // Blanks shown as underscores
	Pick        int
	Players     []PlayerSummary // Rotation order

	// Viewer-specific fields, empty for observers
	Viewer        model.PlayerName
	IsCzar        bool
	Hand          []model.WhiteCard
	OwnSubmission string
	CanSubmit     bool
	CanSelect     bool
	Choices       []Choice // Czar only, during selection

	LastResult *model.RoundResult
}

// View builds the read-only projection of a session for a viewer.
// An empty or unknown viewer gets the observer view.
func (e *Engine) View(s *model.GameSession, viewer model.PlayerName) SessionView {
	v := SessionView{
		ID:          s.ID,
		Name:        s.Name,
		Active:      s.Active,
		Version:     s.Version,
		Phase:       s.Round.Phase,
		RoundNumber: s.Round.Number,
		Czar:        s.Round.Czar,
	}

	if czar := s.Player(s.Round.Czar); czar != nil {
		v.CzarAvatar = czar.Avatar
	}

	var prompt model.BlackCard
	if card, ok := e.catalog.BlackCard(s.Round.Prompt); ok {
		prompt = card
		v.Prompt = card.DisplayPrompt()
		v.Pick = card.Pick
	}

	for _, name := range s.Order {
		p := s.Players[name]
		v.Players = append(v.Players, PlayerSummary{
			Name:         name,
			Avatar:       p.Avatar,
			Wins:         p.Wins,
			IsCzar:       s.IsCzar(name),
			HasSubmitted: s.Round.HasSubmitted(name),
			SittingOut:   p.SittingOut,
		})
	}

	if s.LastResult != nil {
		r := s.LastResult.Clone()
		v.LastResult = &r
	}

	p := s.Player(viewer)
	if p == nil {
		return v
	}

	v.Viewer = viewer
	v.IsCzar = s.IsCzar(viewer)
	for _, id := range p.Hand {
		if card, ok := e.catalog.WhiteCard(id); ok {
			v.Hand = append(v.Hand, card)
		}
	}

	if cards, ok := s.Round.Submissions[viewer]; ok && prompt.ID != model.NoCard {
		if text, err := e.fill(prompt, cards); err == nil {
			v.OwnSubmission = text
		}
	}

	switch s.Round.Phase {
	case model.PhaseSubmission:
		v.CanSubmit = !v.IsCzar && !p.SittingOut && !s.Round.HasSubmitted(viewer) && prompt.ID != model.NoCard
	case model.PhaseSelection:
		v.CanSelect = v.IsCzar
		if v.IsCzar {
			for i, f := range s.Round.FilledIn {
				v.Choices = append(v.Choices, Choice{Index: i, Text: f.Text})
			}
		}
	}

	return v
}
