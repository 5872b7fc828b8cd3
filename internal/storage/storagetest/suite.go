// Package storagetest holds the behaviour every storage.Storage implementation must share
package storagetest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/fillblank/internal/model"
	"github.com/mcoot/fillblank/internal/storage"
)

// Suite runs the storage contract.
// Implementations embed it and assign Storage and Ctx in their own SetupTest.
type Suite struct {
	suite.Suite
	Storage storage.Storage
	Ctx     context.Context
}

var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newSession(id model.SessionID, name string, created time.Time) *model.GameSession {
	return model.NewGameSession(id, name, []string{"base"}, model.DefaultSessionConfig(), created)
}

// Player tests

func (s *Suite) TestSaveAndGetPlayer() {
	player := &model.Player{
		ID:          "player-1",
		DisplayName: "Alice",
		Email:       "alice@example.com",
		IsGuest:     false,
		CreatedAt:   baseTime,
	}

	err := s.Storage.SavePlayer(s.Ctx, player)
	s.Require().NoError(err)

	retrieved, err := s.Storage.GetPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(player.ID, retrieved.ID)
	s.Equal(player.DisplayName, retrieved.DisplayName)
	s.Equal(player.Email, retrieved.Email)
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.Storage.GetPlayer(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestDeletePlayer() {
	player := &model.Player{ID: "player-1", DisplayName: "Alice"}
	_ = s.Storage.SavePlayer(s.Ctx, player)

	err := s.Storage.DeletePlayer(s.Ctx, "player-1")
	s.Require().NoError(err)

	_, err = s.Storage.GetPlayer(s.Ctx, "player-1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Registered player tests

func (s *Suite) TestGetRegisteredPlayerByUsername() {
	rp := &model.RegisteredPlayer{
		PlayerID:     "player-1",
		Username:     "alice",
		PasswordHash: "hash123",
		CreatedAt:    baseTime,
	}
	s.Require().NoError(s.Storage.SaveRegisteredPlayer(s.Ctx, rp))

	retrieved, err := s.Storage.GetRegisteredPlayerByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), retrieved.PlayerID)

	retrieved, err = s.Storage.GetRegisteredPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal("hash123", retrieved.PasswordHash)
}

func (s *Suite) TestGetRegisteredPlayerByUsernameNotFound() {
	_, err := s.Storage.GetRegisteredPlayerByUsername(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Session tests

func (s *Suite) TestCreateAndGetSession() {
	session := newSession("game-1", "friday", baseTime)
	session.Players["alice"] = &model.PlayerState{Name: "alice", Owner: "p_alice", Hand: []model.CardID{1, 2, 3}}
	session.Order = []model.PlayerName{"alice"}
	session.Round.Czar = "alice"
	session.Round.Prompt = 7

	s.Require().NoError(s.Storage.CreateSession(s.Ctx, session))
	s.Equal(int64(1), session.Version)

	retrieved, err := s.Storage.GetSession(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal("friday", retrieved.Name)
	s.Equal(int64(1), retrieved.Version)
	s.Equal([]model.CardID{1, 2, 3}, retrieved.Player("alice").Hand)
	s.Equal(model.PlayerName("alice"), retrieved.SeatOf("p_alice"))
	s.Equal(model.CardID(7), retrieved.Round.Prompt)
	s.True(retrieved.Active)

	byName, err := s.Storage.GetSessionByName(s.Ctx, "friday")
	s.Require().NoError(err)
	s.Equal(model.SessionID("game-1"), byName.ID)
}

func (s *Suite) TestCreateSessionDuplicateName() {
	s.Require().NoError(s.Storage.CreateSession(s.Ctx, newSession("game-1", "friday", baseTime)))

	err := s.Storage.CreateSession(s.Ctx, newSession("game-2", "friday", baseTime))
	s.ErrorIs(err, model.ErrDuplicateGameName)

	_, err = s.Storage.GetSession(s.Ctx, "game-2")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestGetSessionNotFound() {
	_, err := s.Storage.GetSession(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrGameNotFound)

	_, err = s.Storage.GetSessionByName(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestReturnedSessionIsACopy() {
	s.Require().NoError(s.Storage.CreateSession(s.Ctx, newSession("game-1", "friday", baseTime)))

	loaded, err := s.Storage.GetSession(s.Ctx, "game-1")
	s.Require().NoError(err)
	loaded.Name = "changed"
	loaded.Players["mallory"] = &model.PlayerState{Name: "mallory"}

	again, err := s.Storage.GetSession(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal("friday", again.Name)
	s.Empty(again.Players)
}

func (s *Suite) TestSaveSessionBumpsVersion() {
	session := newSession("game-1", "friday", baseTime)
	s.Require().NoError(s.Storage.CreateSession(s.Ctx, session))

	loaded, err := s.Storage.GetSession(s.Ctx, "game-1")
	s.Require().NoError(err)
	loaded.Round.Number = 3

	s.Require().NoError(s.Storage.SaveSession(s.Ctx, loaded))
	s.Equal(int64(2), loaded.Version)

	again, err := s.Storage.GetSession(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(int64(2), again.Version)
	s.Equal(3, again.Round.Number)
}

func (s *Suite) TestSaveSessionStaleVersionConflicts() {
	s.Require().NoError(s.Storage.CreateSession(s.Ctx, newSession("game-1", "friday", baseTime)))

	first, err := s.Storage.GetSession(s.Ctx, "game-1")
	s.Require().NoError(err)
	second, err := s.Storage.GetSession(s.Ctx, "game-1")
	s.Require().NoError(err)

	first.Round.Number = 1
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, first))

	second.Round.Number = 99
	err = s.Storage.SaveSession(s.Ctx, second)
	s.ErrorIs(err, model.ErrConflict)
	s.Equal(int64(1), second.Version)

	stored, err := s.Storage.GetSession(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(1, stored.Round.Number)
}

func (s *Suite) TestSaveSessionNotFound() {
	session := newSession("ghost", "ghost", baseTime)
	session.Version = 1
	s.ErrorIs(s.Storage.SaveSession(s.Ctx, session), model.ErrGameNotFound)
}

func (s *Suite) TestConcurrentSavesOnlyOneWins() {
	s.Require().NoError(s.Storage.CreateSession(s.Ctx, newSession("game-1", "friday", baseTime)))

	const writers = 8
	loaded := make([]*model.GameSession, writers)
	for i := range loaded {
		session, err := s.Storage.GetSession(s.Ctx, "game-1")
		s.Require().NoError(err)
		loaded[i] = session
	}

	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i, session := range loaded {
		i, session := i, session
		wg.Add(1)
		go func() {
			defer wg.Done()
			session.Round.Number = i + 1
			if err := s.Storage.SaveSession(s.Ctx, session); err == nil {
				wins.Add(1)
			} else if errors.Is(err, model.ErrConflict) {
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(writers-1), conflicts.Load())
}

func (s *Suite) TestListSessions() {
	older := newSession("game-1", "older", baseTime)
	newer := newSession("game-2", "newer", baseTime.Add(time.Hour))
	idle := newSession("game-3", "idle", baseTime.Add(2*time.Hour))
	idle.Active = false
	for _, session := range []*model.GameSession{older, newer, idle} {
		s.Require().NoError(s.Storage.CreateSession(s.Ctx, session))
	}

	all, err := s.Storage.ListSessions(s.Ctx, false)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]string{"idle", "newer", "older"}, sessionNames(all))

	active, err := s.Storage.ListSessions(s.Ctx, true)
	s.Require().NoError(err)
	s.Equal([]string{"newer", "older"}, sessionNames(active))
}

func (s *Suite) TestListSessionsTracksDeactivation() {
	s.Require().NoError(s.Storage.CreateSession(s.Ctx, newSession("game-1", "friday", baseTime)))

	session, err := s.Storage.GetSession(s.Ctx, "game-1")
	s.Require().NoError(err)
	session.Active = false
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, session))

	active, err := s.Storage.ListSessions(s.Ctx, true)
	s.Require().NoError(err)
	s.Empty(active)

	session.Active = true
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, session))

	active, err = s.Storage.ListSessions(s.Ctx, true)
	s.Require().NoError(err)
	s.Len(active, 1)
}

// Round history tests

func (s *Suite) TestAppendAndGetRoundHistory() {
	for round := 1; round <= 3; round++ {
		result := &model.RoundResult{
			SessionID:    "game-1",
			RoundNumber:  round,
			Prompt:       model.CardID(round),
			Czar:         "alice",
			Winner:       "bob",
			WinningCards: []model.CardID{model.CardID(10 + round)},
			Entries: []model.SubmissionRecord{
				{Player: "bob", Cards: []model.CardID{model.CardID(10 + round)}, Text: "text", IsWinner: true},
			},
			ResolvedAt: baseTime,
		}
		s.Require().NoError(s.Storage.AppendRoundResult(s.Ctx, result))
	}

	history, err := s.Storage.GetRoundHistory(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Require().Len(history, 3)
	s.Equal(1, history[0].RoundNumber)
	s.Equal(3, history[2].RoundNumber)
	s.Equal([]model.CardID{13}, history[2].WinningCards)
	s.True(history[0].Entries[0].IsWinner)
}

func (s *Suite) TestGetRoundHistoryEmpty() {
	history, err := s.Storage.GetRoundHistory(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Empty(history)
}

// Card set tests

func (s *Suite) TestSaveAndGetCardSets() {
	sets := []*model.CardSet{
		{
			Name:        "zoo",
			Description: "Animals",
			BlackCards:  []model.BlackCard{{ID: 1, Text: "Why {}?", Pick: 1, CardSet: "zoo"}},
			WhiteCards:  []model.WhiteCard{{ID: 1, Text: "A llama", CardSet: "zoo"}},
		},
		{
			Name:       "base",
			WhiteCards: []model.WhiteCard{{ID: 2, Text: "Socks", CardSet: "base"}},
		},
	}
	for _, set := range sets {
		s.Require().NoError(s.Storage.SaveCardSet(s.Ctx, set))
	}

	retrieved, err := s.Storage.GetCardSets(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(retrieved, 2)
	s.Equal("base", retrieved[0].Name)
	s.Equal("zoo", retrieved[1].Name)
	s.Equal("Animals", retrieved[1].Description)
	s.Equal("Why {}?", retrieved[1].BlackCards[0].Text)
}

func (s *Suite) TestDeleteCardSet() {
	s.Require().NoError(s.Storage.SaveCardSet(s.Ctx, &model.CardSet{Name: "base"}))

	s.Require().NoError(s.Storage.DeleteCardSet(s.Ctx, "base"))

	sets, err := s.Storage.GetCardSets(s.Ctx)
	s.Require().NoError(err)
	s.Empty(sets)

	s.ErrorIs(s.Storage.DeleteCardSet(s.Ctx, "base"), model.ErrCardSetNotFound)
}

func sessionNames(sessions []*model.GameSession) []string {
	names := make([]string, len(sessions))
	for i, session := range sessions {
		names[i] = session.Name
	}
	return names
}
