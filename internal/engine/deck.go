package engine

import (
	"slices"

	"github.com/mcoot/fillblank/internal/model"
)

// allocator draws and releases cards for one session
type allocator struct {
	s       *model.GameSession
	catalog Catalog
	e       *Engine
}

func (e *Engine) deck(s *model.GameSession) *allocator {
	return &allocator{s: s, catalog: e.catalog, e: e}
}

// drawBlack picks a new prompt and makes it current.
// Prompts repeat only once every eligible prompt has been used.
func (a *allocator) drawBlack() (model.BlackCard, error) {
	var pool []model.BlackCard
	for _, card := range a.catalog.BlackCards(a.s.CardSets) {
		if card.Pick <= a.s.Config.HandSize {
			pool = append(pool, card)
		}
	}
	if len(pool) == 0 {
		return model.BlackCard{}, model.ErrEmptyCatalog
	}

	current := a.s.Round.Prompt
	used := toSet(a.s.Deck.UsedBlack)
	candidates := filterBlack(pool, func(c model.BlackCard) bool {
		_, seen := used[c.ID]
		return c.ID != current && !seen
	})

	if len(candidates) == 0 {
		// Recycle: forget the history but still avoid repeating the current prompt
		a.s.Deck.UsedBlack = nil
		if current != model.NoCard {
			a.s.Deck.UsedBlack = []model.CardID{current}
		}
		candidates = filterBlack(pool, func(c model.BlackCard) bool {
			return c.ID != current
		})
		if len(candidates) == 0 {
			candidates = pool
		}
	}

	card := candidates[a.e.random.Intn(len(candidates))]
	a.s.Deck.UsedBlack = append(a.s.Deck.UsedBlack, card.ID)
	a.s.Round.Prompt = card.ID
	return card, nil
}

// drawWhite returns n distinct answer cards that are not in any hand or submission.
// Never-dealt cards come first, then released cards, then previously consumed ones.
func (a *allocator) drawWhite(n int) ([]model.CardID, error) {
	if n <= 0 {
		return nil, nil
	}

	all := a.catalog.WhiteCardIDs(a.s.CardSets)
	if len(all) == 0 {
		return nil, model.ErrEmptyCatalog
	}

	inPlay := a.s.InPlayWhite()
	seen := toSet(a.s.Deck.SeenWhite)
	discarded := toSet(a.s.Deck.DiscardWhite)

	var fresh, consumed []model.CardID
	for _, id := range all {
		if _, ok := inPlay[id]; ok {
			continue
		}
		_, wasSeen := seen[id]
		_, isDiscarded := discarded[id]
		switch {
		case !wasSeen:
			fresh = append(fresh, id)
		case !isDiscarded:
			consumed = append(consumed, id)
		}
	}

	var released []model.CardID
	for _, id := range a.s.Deck.DiscardWhite {
		if _, ok := inPlay[id]; !ok {
			released = append(released, id)
		}
	}

	drawn := make([]model.CardID, 0, n)
	for _, pool := range [][]model.CardID{fresh, released, consumed} {
		if len(drawn) == n {
			break
		}
		drawn = append(drawn, a.pick(pool, n-len(drawn))...)
	}
	if len(drawn) < n {
		return nil, model.ErrCatalogExhausted
	}

	drawnSet := toSet(drawn)
	for _, id := range drawn {
		if _, ok := seen[id]; !ok {
			a.s.Deck.SeenWhite = append(a.s.Deck.SeenWhite, id)
		}
	}
	a.s.Deck.DiscardWhite = slices.DeleteFunc(a.s.Deck.DiscardWhite, func(id model.CardID) bool {
		_, ok := drawnSet[id]
		return ok
	})

	return drawn, nil
}

// release puts cards on the discard pile
func (a *allocator) release(ids []model.CardID) {
	discarded := toSet(a.s.Deck.DiscardWhite)
	for _, id := range ids {
		if _, ok := discarded[id]; ok {
			continue
		}
		discarded[id] = struct{}{}
		a.s.Deck.DiscardWhite = append(a.s.Deck.DiscardWhite, id)
	}
}

// pick selects up to k random cards from pool without replacement
func (a *allocator) pick(pool []model.CardID, k int) []model.CardID {
	pool = slices.Clone(pool)
	if k > len(pool) {
		k = len(pool)
	}
	for i := 0; i < k; i++ {
		j := i + a.e.random.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

func toSet(ids []model.CardID) map[model.CardID]struct{} {
	set := make(map[model.CardID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func filterBlack(cards []model.BlackCard, keep func(model.BlackCard) bool) []model.BlackCard {
	var out []model.BlackCard
	for _, c := range cards {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
