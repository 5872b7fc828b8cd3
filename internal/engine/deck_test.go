package engine

import (
	"testing"
	"time"

	"github.com/mcoot/fillblank/internal/dependencies/mocks"
	"github.com/mcoot/fillblank/internal/model"
	"github.com/mcoot/fillblank/internal/testutil"
	"github.com/stretchr/testify/suite"
)

type DeckSuite struct {
	suite.Suite
	random  *mocks.MockRandom
	session *model.GameSession
	deck    *allocator
}

func TestDeckSuite(t *testing.T) {
	suite.Run(t, new(DeckSuite))
}

func (s *DeckSuite) SetupTest() {
	catalog := testutil.NewCatalog(
		testutil.CardSet("base", []string{"Why {}?", "{} and {}.", "{} {} {} {}."}, 6),
		testutil.CardSet("extra", []string{"How {}?"}, 2),
	)
	clock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()

	cfg := model.DefaultSessionConfig()
	cfg.HandSize = 3
	s.session = model.NewGameSession("game-1", "deck", []string{"base"}, cfg, clock.Now())
	s.deck = New(catalog, s.random, clock).deck(s.session)
}

func (s *DeckSuite) TestDrawBlackSkipsPromptsLargerThanHand() {
	seen := map[model.CardID]bool{}
	for i := 0; i < 6; i++ {
		card, err := s.deck.drawBlack()
		s.Require().NoError(err)
		seen[card.ID] = true
	}
	s.Equal(map[model.CardID]bool{1: true, 2: true}, seen)
}

func (s *DeckSuite) TestDrawBlackMarksCurrentAndUsed() {
	s.random.QueueIntn(1)

	card, err := s.deck.drawBlack()
	s.Require().NoError(err)

	s.Equal(model.CardID(2), card.ID)
	s.Equal(model.CardID(2), s.session.Round.Prompt)
	s.Equal([]model.CardID{2}, s.session.Deck.UsedBlack)
}

func (s *DeckSuite) TestDrawBlackRecyclesWithoutRepeatingCurrent() {
	first, err := s.deck.drawBlack()
	s.Require().NoError(err)
	second, err := s.deck.drawBlack()
	s.Require().NoError(err)
	third, err := s.deck.drawBlack()
	s.Require().NoError(err)

	s.Equal(model.CardID(1), first.ID)
	s.Equal(model.CardID(2), second.ID)
	s.Equal(model.CardID(1), third.ID)
	s.Equal([]model.CardID{2, 1}, s.session.Deck.UsedBlack)
}

func (s *DeckSuite) TestDrawBlackRepeatsSingleCard() {
	s.session.CardSets = []string{"extra"}

	for i := 0; i < 3; i++ {
		card, err := s.deck.drawBlack()
		s.Require().NoError(err)
		s.Equal(model.CardID(4), card.ID)
	}
}

func (s *DeckSuite) TestDrawBlackEmptyPool() {
	s.session.CardSets = []string{"missing"}

	_, err := s.deck.drawBlack()
	s.ErrorIs(err, model.ErrEmptyCatalog)
}

func (s *DeckSuite) TestDrawWhiteFiltersByCardSet() {
	ids, err := s.deck.drawWhite(6)
	s.Require().NoError(err)
	s.Equal([]model.CardID{1, 2, 3, 4, 5, 6}, ids)

	s.session.CardSets = []string{"extra"}
	ids, err = s.deck.drawWhite(2)
	s.Require().NoError(err)
	s.Equal([]model.CardID{7, 8}, ids)
}

func (s *DeckSuite) TestDrawWhitePrefersFreshThenReleasedThenConsumed() {
	ids, err := s.deck.drawWhite(2)
	s.Require().NoError(err)
	s.Equal([]model.CardID{1, 2}, ids)

	s.deck.release([]model.CardID{1})

	ids, err = s.deck.drawWhite(5)
	s.Require().NoError(err)
	s.Equal([]model.CardID{3, 4, 5, 6, 1}, ids)
	s.Empty(s.session.Deck.DiscardWhite)

	ids, err = s.deck.drawWhite(6)
	s.Require().NoError(err)
	s.ElementsMatch([]model.CardID{1, 2, 3, 4, 5, 6}, ids)
}

func (s *DeckSuite) TestDrawWhiteExcludesCardsInPlay() {
	s.session.Players["alice"] = &model.PlayerState{Name: "alice", Hand: []model.CardID{1, 2}}
	s.session.Round.Submissions["alice"] = []model.CardID{3}

	ids, err := s.deck.drawWhite(3)
	s.Require().NoError(err)
	s.Equal([]model.CardID{4, 5, 6}, ids)

	_, err = s.deck.drawWhite(4)
	s.ErrorIs(err, model.ErrCatalogExhausted)
}

func (s *DeckSuite) TestDrawWhiteExhaustedLeavesDeckUntouched() {
	_, err := s.deck.drawWhite(7)
	s.ErrorIs(err, model.ErrCatalogExhausted)
	s.Empty(s.session.Deck.SeenWhite)
}

func (s *DeckSuite) TestDrawWhiteZero() {
	ids, err := s.deck.drawWhite(0)
	s.NoError(err)
	s.Empty(ids)
}

func (s *DeckSuite) TestReleaseIgnoresDuplicates() {
	s.deck.release([]model.CardID{3, 1})
	s.deck.release([]model.CardID{1, 2})
	s.Equal([]model.CardID{3, 1, 2}, s.session.Deck.DiscardWhite)
}
