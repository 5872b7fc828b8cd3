package response

import (
	"time"

	"github.com/mcoot/fillblank/internal/engine"
	"github.com/mcoot/fillblank/internal/model"
	"github.com/mcoot/fillblank/internal/services/auth"
	"github.com/mcoot/fillblank/internal/services/catalog"
)

// Player represents a player in API responses
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	IsGuest     bool   `json:"is_guest"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		AvatarURL:   auth.AvatarURL(p),
		IsGuest:     p.IsGuest,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(&s.Player),
		SessionToken: s.Token,
	}
}

// Rules represents a game's rule settings
type Rules struct {
	HandSize    int    `json:"hand_size"`
	LosingCards string `json:"losing_cards"`
	ShortRoster string `json:"short_roster"`
}

// RulesFromModel converts model.SessionConfig
func RulesFromModel(c model.SessionConfig) Rules {
	return Rules{
		HandSize:    c.HandSize,
		LosingCards: string(c.LosingCards),
		ShortRoster: string(c.ShortRoster),
	}
}

// GameSummary is a game as shown in listings
type GameSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Active       bool      `json:"active"`
	PlayerCount  int       `json:"player_count"`
	RoundNumber  int       `json:"round_number"`
	Czar         string    `json:"czar,omitempty"`
	CardSets     []string  `json:"card_sets"`
	Rules        Rules     `json:"rules"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// GameSummaryFromModel converts model.GameSession
func GameSummaryFromModel(s *model.GameSession) GameSummary {
	sets := s.CardSets
	if sets == nil {
		sets = []string{}
	}
	return GameSummary{
		ID:           string(s.ID),
		Name:         s.Name,
		Active:       s.Active,
		PlayerCount:  len(s.Players),
		RoundNumber:  s.Round.Number,
		Czar:         string(s.Round.Czar),
		CardSets:     sets,
		Rules:        RulesFromModel(s.Config),
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
	}
}

// GameList wraps a list of games
type GameList struct {
	Games []GameSummary `json:"games"`
}

// GameListFromModel converts a list of sessions
func GameListFromModel(sessions []*model.GameSession) GameList {
	games := make([]GameSummary, len(sessions))
	for i, s := range sessions {
		games[i] = GameSummaryFromModel(s)
	}
	return GameList{Games: games}
}

// RosterEntry is one player on a game's roster
type RosterEntry struct {
	Name         string `json:"name"`
	AvatarURL    string `json:"avatar_url"`
	Wins         int    `json:"wins"`
	IsCzar       bool   `json:"is_czar"`
	HasSubmitted bool   `json:"has_submitted"`
	SittingOut   bool   `json:"sitting_out,omitempty"`
}

// Card is an answer card
type Card struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Choice is one anonymized entry the czar can pick
type Choice struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// GameView is the caller's view of a game
type GameView struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Active        bool          `json:"active"`
	Version       int64         `json:"version"`
	Phase         string        `json:"phase"`
	RoundNumber   int           `json:"round_number"`
	Czar          string        `json:"czar,omitempty"`
	CzarAvatarURL string        `json:"czar_avatar_url,omitempty"`
	Prompt        string        `json:"prompt"`
	Pick          int           `json:"pick"`
	Players       []RosterEntry `json:"players"`

	You           string   `json:"you,omitempty"`
	IsCzar        bool     `json:"is_czar"`
	Hand          []Card   `json:"hand"`
	OwnSubmission string   `json:"own_submission,omitempty"`
	CanSubmit     bool     `json:"can_submit"`
	CanSelect     bool     `json:"can_select"`
	Choices       []Choice `json:"choices,omitempty"`

	LastRound *Round `json:"last_round,omitempty"`
}

// GameViewFromEngine converts engine.SessionView
func GameViewFromEngine(v *engine.SessionView) GameView {
	players := make([]RosterEntry, len(v.Players))
	for i, p := range v.Players {
		players[i] = RosterEntry{
			Name:         string(p.Name),
			AvatarURL:    p.Avatar,
			Wins:         p.Wins,
			IsCzar:       p.IsCzar,
			HasSubmitted: p.HasSubmitted,
			SittingOut:   p.SittingOut,
		}
	}

	hand := make([]Card, len(v.Hand))
	for i, c := range v.Hand {
		hand[i] = Card{ID: int(c.ID), Text: c.Text}
	}

	var choices []Choice
	for _, c := range v.Choices {
		choices = append(choices, Choice{Index: c.Index, Text: c.Text})
	}

	view := GameView{
		ID:            string(v.ID),
		Name:          v.Name,
		Active:        v.Active,
		Version:       v.Version,
		Phase:         string(v.Phase),
		RoundNumber:   v.RoundNumber,
		Czar:          string(v.Czar),
		CzarAvatarURL: v.CzarAvatar,
		Prompt:        v.Prompt,
		Pick:          v.Pick,
		Players:       players,
		You:           string(v.Viewer),
		IsCzar:        v.IsCzar,
		Hand:          hand,
		OwnSubmission: v.OwnSubmission,
		CanSubmit:     v.CanSubmit,
		CanSelect:     v.CanSelect,
		Choices:       choices,
	}
	if v.LastResult != nil {
		r := RoundFromModel(*v.LastResult)
		view.LastRound = &r
	}
	return view
}

// Entry is one player's answer in a resolved round
type Entry struct {
	Player   string `json:"player"`
	CardIDs  []int  `json:"card_ids"`
	Text     string `json:"text"`
	IsWinner bool   `json:"is_winner"`
}

// Round is a resolved round
type Round struct {
	Number     int       `json:"number"`
	Czar       string    `json:"czar"`
	Winner     string    `json:"winner"`
	PromptID   int       `json:"prompt_id"`
	Entries    []Entry   `json:"entries"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// RoundFromModel converts model.RoundResult
func RoundFromModel(r model.RoundResult) Round {
	entries := make([]Entry, len(r.Entries))
	for i, e := range r.Entries {
		ids := make([]int, len(e.Cards))
		for j, id := range e.Cards {
			ids[j] = int(id)
		}
		entries[i] = Entry{
			Player:   string(e.Player),
			CardIDs:  ids,
			Text:     e.Text,
			IsWinner: e.IsWinner,
		}
	}
	return Round{
		Number:     r.RoundNumber,
		Czar:       string(r.Czar),
		Winner:     string(r.Winner),
		PromptID:   int(r.Prompt),
		Entries:    entries,
		ResolvedAt: r.ResolvedAt,
	}
}

// History is a game's resolved rounds, oldest first
type History struct {
	Rounds []Round `json:"rounds"`
}

// HistoryFromModel converts a list of round results
func HistoryFromModel(results []model.RoundResult) History {
	rounds := make([]Round, len(results))
	for i, r := range results {
		rounds[i] = RoundFromModel(r)
	}
	return History{Rounds: rounds}
}

// CardSet describes a loaded card set
type CardSet struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	BlackCount  int    `json:"black_count"`
	WhiteCount  int    `json:"white_count"`
}

// CardSetList wraps the loaded card sets
type CardSetList struct {
	CardSets []CardSet `json:"card_sets"`
}

// CardSetListFromCatalog converts catalog set summaries
func CardSetListFromCatalog(sets []catalog.SetSummary) CardSetList {
	out := make([]CardSet, len(sets))
	for i, s := range sets {
		out[i] = CardSet{
			Name:        s.Name,
			Description: s.Description,
			BlackCount:  s.BlackCount,
			WhiteCount:  s.WhiteCount,
		}
	}
	return CardSetList{CardSets: out}
}
