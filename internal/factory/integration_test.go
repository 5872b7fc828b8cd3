package factory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/fillblank/internal/dependencies/mocks"
	"github.com/mcoot/fillblank/internal/engine"
	"github.com/mcoot/fillblank/internal/model"
	"github.com/mcoot/fillblank/internal/notify"
	"github.com/mcoot/fillblank/internal/services/auth"
	"github.com/mcoot/fillblank/internal/services/game"
	redisstorage "github.com/mcoot/fillblank/internal/storage/redis"
	"github.com/mcoot/fillblank/internal/testutil"
)

type IntegrationSuite struct {
	suite.Suite
	app      *TestApp
	ctx      context.Context
	accounts map[model.PlayerName]*auth.Session
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
	s.accounts = make(map[model.PlayerName]*auth.Session)
	s.Require().NoError(s.app.LoadTestCards(s.ctx))
}

// account signs in a guest with the given display name, once per name
func (s *IntegrationSuite) account(name model.PlayerName) *auth.Session {
	if session, ok := s.accounts[name]; ok {
		return session
	}
	session, err := s.app.AuthService.CreateGuestPlayer(s.ctx, string(name))
	s.Require().NoError(err)
	s.accounts[name] = session
	return session
}

func (s *IntegrationSuite) seat(name model.PlayerName) model.Seat {
	return s.account(name).Seat()
}

func (s *IntegrationSuite) owner(name model.PlayerName) model.PlayerID {
	return s.account(name).PlayerID
}

// submitFirst has a player submit the first cards in their hand for the current prompt
func (s *IntegrationSuite) submitFirst(id model.SessionID, name model.PlayerName) {
	session, err := s.app.GameController.GetGame(s.ctx, id)
	s.Require().NoError(err)
	prompt, ok := s.app.Catalog.BlackCard(session.Round.Prompt)
	s.Require().True(ok)

	_, err = s.app.GameController.Submit(s.ctx, id, s.owner(name), session.Player(name).Hand[:prompt.Pick])
	s.Require().NoError(err)
}

// Test: two full rounds, then the game goes idle and is swept
func (s *IntegrationSuite) TestCompleteGameFlow() {
	ctrl := s.app.GameController

	// Step 1: Alice creates the game and becomes czar
	session, err := ctrl.CreateGame(s.ctx, "friday", []string{"base"}, model.SessionConfig{}, s.seat("alice"))
	s.Require().NoError(err)
	id := session.ID
	s.Equal(model.PlayerName("alice"), session.Round.Czar)

	// Step 2: Two more players join
	_, err = ctrl.Join(s.ctx, id, s.seat("bob"))
	s.Require().NoError(err)
	_, err = ctrl.Join(s.ctx, id, s.seat("carol"))
	s.Require().NoError(err)

	// Step 3: Round 1, carol's answer is the second one shown
	s.submitFirst(id, "bob")
	s.submitFirst(id, "carol")

	view, err := ctrl.View(s.ctx, id, s.owner("alice"))
	s.Require().NoError(err)
	s.True(view.CanSelect)
	s.Len(view.Choices, 2)

	session, err = ctrl.SelectChoice(s.ctx, id, s.owner("alice"), 1)
	s.Require().NoError(err)
	s.Equal(1, session.Player("carol").Wins)
	s.Equal(model.PlayerName("bob"), session.Round.Czar)
	s.Equal(2, session.Round.Number)
	for _, name := range session.Order {
		s.Len(session.Player(name).Hand, 3, "hand of %s", name)
	}

	// Step 4: Round 2, bob judges and picks alice by name
	s.submitFirst(id, "carol")
	s.submitFirst(id, "alice")
	session, err = ctrl.SelectWinner(s.ctx, id, s.owner("bob"), "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerName("carol"), session.Round.Czar)
	s.Equal(map[model.PlayerName]int{"alice": 1, "bob": 0, "carol": 1}, session.Scores())
	s.NoError(engine.CheckInvariants(session))

	// Step 5: History has both rounds in order
	history, err := ctrl.History(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(model.PlayerName("carol"), history[0].Winner)
	s.Equal(model.PlayerName("alice"), history[1].Winner)
	for _, entry := range history[0].Entries {
		s.Equal(entry.Player == "carol", entry.IsWinner)
		s.NotContains(entry.Text, model.BlankMarker)
	}

	// Step 6: Everyone wanders off; the sweeper retires the game
	s.app.MockClock.Advance(3 * time.Hour)
	swept, err := s.app.Sweeper.SweepOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, swept)

	active, err := ctrl.ListGames(s.ctx, true)
	s.Require().NoError(err)
	s.Empty(active)

	// Step 7: A returning player revives it
	session, err = ctrl.Join(s.ctx, id, s.seat("dave"))
	s.Require().NoError(err)
	s.True(session.Active)
}

// Test: a game only deals from its chosen card sets
func (s *IntegrationSuite) TestGameUsesOnlyChosenCardSets() {
	session, err := s.app.GameController.CreateGame(s.ctx, "extra-only", []string{"extra"}, model.SessionConfig{}, s.seat("alice"))
	s.Require().NoError(err)
	session, err = s.app.GameController.Join(s.ctx, session.ID, s.seat("bob"))
	s.Require().NoError(err)

	prompt, ok := s.app.Catalog.BlackCard(session.Round.Prompt)
	s.Require().True(ok)
	s.Equal("extra", prompt.CardSet)

	for _, name := range session.Order {
		for _, id := range session.Player(name).Hand {
			card, ok := s.app.Catalog.WhiteCard(id)
			s.Require().True(ok)
			s.Equal("extra", card.CardSet)
		}
	}
}

// Test: games on unknown card sets are refused
func (s *IntegrationSuite) TestCreateGameRejectsUnknownCardSet() {
	_, err := s.app.GameController.CreateGame(s.ctx, "friday", []string{"nope"}, model.SessionConfig{}, s.seat("alice"))
	s.ErrorIs(err, model.ErrCardSetNotFound)
}

// Test: with redis, saved changes are published for every instance to relay
func (s *IntegrationSuite) TestRedisPublishesEvents() {
	mini := miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	store := redisstorage.NewWithClient(client, redisstorage.DefaultConfig())
	defer store.Close()

	cfg := Config{GameConfig: game.DefaultConfig(), NotifyChannel: notify.DefaultChannel}
	app := newWithDependencies(store, client, s.app.MockClock, mocks.NewMockRandom(), cfg, testutil.NopLogger())
	s.Require().NotNil(app.Relay)
	s.Require().NoError(loadTestCards(s.ctx, app))

	sub := client.Subscribe(s.ctx, notify.DefaultChannel)
	defer sub.Close()
	_, err := sub.Receive(s.ctx)
	s.Require().NoError(err)

	session, err := app.GameController.CreateGame(s.ctx, "friday", nil, model.SessionConfig{}, s.seat("alice"))
	s.Require().NoError(err)

	select {
	case msg := <-sub.Channel():
		event, err := notify.Decode([]byte(msg.Payload))
		s.Require().NoError(err)
		s.Equal(model.EventGameCreated, event.Type)
		s.Equal(session.ID, event.SessionID)
	case <-time.After(time.Second):
		s.Fail("no event published")
	}
}
