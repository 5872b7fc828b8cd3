package factory

import (
	"context"
	"time"

	"github.com/mcoot/fillblank/internal/dependencies/mocks"
	"github.com/mcoot/fillblank/internal/services/auth"
	"github.com/mcoot/fillblank/internal/services/game"
	"github.com/mcoot/fillblank/internal/storage/memory"
	"github.com/mcoot/fillblank/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Games default to hands of three cards.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	gameCfg := game.DefaultConfig()
	gameCfg.Rules.HandSize = 3
	cfg := Config{
		AuthConfig: auth.DefaultConfig(),
		GameConfig: gameCfg,
	}
	app := newWithDependencies(store, nil, mockClock, mockRandom, cfg, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// LoadTestCards stores the test card sets and loads them into the catalog
func (t *TestApp) LoadTestCards(ctx context.Context) error {
	return loadTestCards(ctx, t.App)
}

// loadTestCards stores two small card sets and loads them into the catalog.
// "base" has three prompts (the second needs two answers) and 40 answers; "extra" has one prompt and 10 answers.
func loadTestCards(ctx context.Context, app *App) error {
	cards := testutil.NewCatalog(
		testutil.CardSet("base", []string{
			"Why can't I sleep at night? {}.",
			"{} is better than {}.",
			"What's that smell? {}.",
		}, 40),
		testutil.CardSet("extra", []string{
			"My last words will be {}.",
		}, 10),
	)
	for _, set := range cards.CardSets() {
		if err := app.Storage.SaveCardSet(ctx, &set); err != nil {
			return err
		}
	}
	return app.Catalog.LoadFromStorage(ctx)
}
