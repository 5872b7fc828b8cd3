package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/fillblank/internal/model"
	"github.com/mcoot/fillblank/internal/storage/memory"
	"github.com/mcoot/fillblank/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.service = New(s.storage, testutil.NopLogger())
	s.ctx = context.Background()
}

const baseSets = `{
	"base": {
		"description": "The basics",
		"blackcards": [
			{"text": "Why can't I sleep at night? {}.", "pick": 1},
			{"text": "{} + {} = {}."}
		],
		"whitecards": [{"text": "Socks"}, {"text": "A llama"}, {"text": "  Tax returns  "}]
	},
	"animals": {
		"description": "Creatures",
		"blackcards": [{"text": "What did the fox say?"}],
		"whitecards": [{"text": "A very large owl"}]
	}
}`

func (s *ServiceSuite) importBase() []ImportResult {
	results, err := s.service.Import(s.ctx, strings.NewReader(baseSets), false)
	s.Require().NoError(err)
	return results
}

func (s *ServiceSuite) TestIsNotLoadedByDefault() {
	s.False(s.service.IsLoaded())
	s.Empty(s.service.CardSets())
}

func (s *ServiceSuite) TestImportReportsCounts() {
	results := s.importBase()

	s.Equal([]ImportResult{
		{CardSet: "animals", BlackCount: 1, WhiteCount: 1},
		{CardSet: "base", BlackCount: 2, WhiteCount: 3},
	}, results)
	s.True(s.service.IsLoaded())
}

func (s *ServiceSuite) TestImportAssignsSequentialIDs() {
	s.importBase()

	fox, ok := s.service.BlackCard(1)
	s.Require().True(ok)
	s.Equal("What did the fox say?", fox.Text)
	s.Equal("animals", fox.CardSet)

	sum, ok := s.service.BlackCard(3)
	s.Require().True(ok)
	s.Equal("base", sum.CardSet)

	taxes, ok := s.service.WhiteCard(4)
	s.Require().True(ok)
	s.Equal("Tax returns", taxes.Text)

	_, ok = s.service.WhiteCard(5)
	s.False(ok)
}

func (s *ServiceSuite) TestImportDerivesPickFromBlanks() {
	s.importBase()

	fox, _ := s.service.BlackCard(1)
	s.Equal(1, fox.Pick)

	sum, _ := s.service.BlackCard(3)
	s.Equal(3, sum.Pick)
}

func (s *ServiceSuite) TestImportPersistsToStorage() {
	s.importBase()

	sets, err := s.storage.GetCardSets(s.ctx)
	s.Require().NoError(err)
	s.Len(sets, 2)

	// A fresh service sees the same catalog
	other := New(s.storage, testutil.NopLogger())
	s.Require().NoError(other.LoadFromStorage(s.ctx))
	s.Equal(s.service.CardSets(), other.CardSets())
}

func (s *ServiceSuite) TestImportExistingSetFailsWithoutReplace() {
	s.importBase()

	_, err := s.service.Import(s.ctx, strings.NewReader(`{"base": {"whitecards": [{"text": "New"}]}}`), false)
	s.ErrorIs(err, model.ErrCardSetExists)

	s.Equal(3, s.service.CardSets()[1].WhiteCount)
}

func (s *ServiceSuite) TestImportReplaceUsesFreshIDs() {
	s.importBase()

	results, err := s.service.Import(s.ctx, strings.NewReader(`{"base": {"whitecards": [{"text": "New"}]}}`), true)
	s.Require().NoError(err)
	s.Equal([]ImportResult{{CardSet: "base", BlackCount: 0, WhiteCount: 1}}, results)

	_, ok := s.service.WhiteCard(2)
	s.False(ok, "replaced cards are gone")

	card, ok := s.service.WhiteCard(5)
	s.Require().True(ok)
	s.Equal("New", card.Text)
}

func (s *ServiceSuite) TestImportReplaceKeepsIDsOfUnchangedCards() {
	s.importBase()

	input := `{"base": {
		"blackcards": [
			{"text": "Why can't I sleep at night? {}."},
			{"text": "{} + {} = {}.", "pick": 2}
		],
		"whitecards": [{"text": "Jam"}, {"text": "Socks"}, {"text": "Tax returns"}]
	}}`
	_, err := s.service.Import(s.ctx, strings.NewReader(input), true)
	s.Require().NoError(err)

	sleep, ok := s.service.BlackCard(2)
	s.Require().True(ok)
	s.Equal("Why can't I sleep at night? {}.", sleep.Text)

	// A changed pick is a different card
	_, ok = s.service.BlackCard(3)
	s.False(ok)
	sum, ok := s.service.BlackCard(4)
	s.Require().True(ok)
	s.Equal(2, sum.Pick)

	socks, ok := s.service.WhiteCard(2)
	s.Require().True(ok)
	s.Equal("Socks", socks.Text)
	taxes, ok := s.service.WhiteCard(4)
	s.Require().True(ok)
	s.Equal("Tax returns", taxes.Text)

	_, ok = s.service.WhiteCard(3)
	s.False(ok, "dropped cards are gone")
	jam, ok := s.service.WhiteCard(5)
	s.Require().True(ok)
	s.Equal("Jam", jam.Text)

	s.Equal([]model.CardID{1, 2, 4, 5}, s.service.WhiteCardIDs(nil))
}

func (s *ServiceSuite) TestImportReplaceKeepsEachIDOnce() {
	_, err := s.service.Import(s.ctx, strings.NewReader(`{"dupes": {"whitecards": [{"text": "Same"}, {"text": "Same"}]}}`), false)
	s.Require().NoError(err)

	input := `{"dupes": {"whitecards": [{"text": "Same"}, {"text": "Same"}, {"text": "Same"}]}}`
	_, err = s.service.Import(s.ctx, strings.NewReader(input), true)
	s.Require().NoError(err)

	s.Equal([]model.CardID{1, 2, 3}, s.service.WhiteCardIDs([]string{"dupes"}))
}

func (s *ServiceSuite) TestImportIsAllOrNothing() {
	input := `{
		"good": {"whitecards": [{"text": "Fine"}]},
		"bad": {"whitecards": [{"text": "   "}]}
	}`

	_, err := s.service.Import(s.ctx, strings.NewReader(input), false)
	s.Error(err)

	sets, err := s.storage.GetCardSets(s.ctx)
	s.Require().NoError(err)
	s.Empty(sets)
}

func (s *ServiceSuite) TestImportRejectsMalformedJSON() {
	_, err := s.service.Import(s.ctx, strings.NewReader(`[1, 2, 3]`), false)
	s.Error(err)
}

func (s *ServiceSuite) TestImportFile() {
	path := filepath.Join(s.T().TempDir(), "cards.json")
	s.Require().NoError(os.WriteFile(path, []byte(baseSets), 0o600))

	results, err := s.service.ImportFile(s.ctx, path, false)
	s.Require().NoError(err)
	s.Len(results, 2)
}

func (s *ServiceSuite) TestPoolsFilterBySet() {
	s.importBase()

	s.Len(s.service.BlackCards(nil), 3)
	s.Len(s.service.BlackCards([]string{"base"}), 2)
	s.Equal([]model.CardID{1}, s.service.WhiteCardIDs([]string{"animals"}))
	s.Equal([]model.CardID{1, 2, 3, 4}, s.service.WhiteCardIDs(nil))
	s.Empty(s.service.WhiteCardIDs([]string{"missing"}))
}

func (s *ServiceSuite) TestValidate() {
	s.importBase()

	s.NoError(s.service.Validate(nil))
	s.NoError(s.service.Validate([]string{"base"}))
	s.ErrorIs(s.service.Validate([]string{"base", "missing"}), model.ErrCardSetNotFound)

	s.service.LoadSets([]model.CardSet{{Name: "prompts-only", BlackCards: []model.BlackCard{{ID: 1, Text: "{}", Pick: 1}}}})
	s.ErrorIs(s.service.Validate(nil), model.ErrEmptyCatalog)
}
