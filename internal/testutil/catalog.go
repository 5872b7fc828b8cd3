package testutil

import (
	"fmt"
	"slices"

	"github.com/mcoot/fillblank/internal/model"
)

// Catalog is a fixed in-memory card catalog for tests
type Catalog struct {
	black map[model.CardID]model.BlackCard
	white map[model.CardID]model.WhiteCard
	sets  []model.CardSet
}

// NewCatalog builds a catalog from card sets, assigning sequential IDs to cards without one
func NewCatalog(sets ...model.CardSet) *Catalog {
	c := &Catalog{
		black: make(map[model.CardID]model.BlackCard),
		white: make(map[model.CardID]model.WhiteCard),
	}
	nextBlack, nextWhite := model.CardID(1), model.CardID(1)
	for _, set := range sets {
		for i := range set.BlackCards {
			card := &set.BlackCards[i]
			if card.ID == model.NoCard {
				card.ID = nextBlack
			}
			nextBlack = max(nextBlack, card.ID+1)
			card.CardSet = set.Name
			c.black[card.ID] = *card
		}
		for i := range set.WhiteCards {
			card := &set.WhiteCards[i]
			if card.ID == model.NoCard {
				card.ID = nextWhite
			}
			nextWhite = max(nextWhite, card.ID+1)
			card.CardSet = set.Name
			c.white[card.ID] = *card
		}
		c.sets = append(c.sets, set)
	}
	return c
}

// CardSet builds a set from prompt texts plus a number of generated answers.
// Answer texts are "Answer N", counting from 1 within the set.
func CardSet(name string, prompts []string, answers int) model.CardSet {
	set := model.CardSet{Name: name, Description: name + " cards"}
	for _, text := range prompts {
		set.BlackCards = append(set.BlackCards, model.BlackCard{
			Text: text,
			Pick: max(1, model.CountBlanks(text)),
		})
	}
	for i := 1; i <= answers; i++ {
		set.WhiteCards = append(set.WhiteCards, model.WhiteCard{Text: fmt.Sprintf("Answer %d", i)})
	}
	return set
}

func (c *Catalog) BlackCard(id model.CardID) (model.BlackCard, bool) {
	card, ok := c.black[id]
	return card, ok
}

func (c *Catalog) WhiteCard(id model.CardID) (model.WhiteCard, bool) {
	card, ok := c.white[id]
	return card, ok
}

func (c *Catalog) BlackCards(sets []string) []model.BlackCard {
	var cards []model.BlackCard
	for _, card := range c.black {
		if len(sets) == 0 || slices.Contains(sets, card.CardSet) {
			cards = append(cards, card)
		}
	}
	slices.SortFunc(cards, func(a, b model.BlackCard) int { return int(a.ID - b.ID) })
	return cards
}

func (c *Catalog) WhiteCardIDs(sets []string) []model.CardID {
	var ids []model.CardID
	for _, card := range c.white {
		if len(sets) == 0 || slices.Contains(sets, card.CardSet) {
			ids = append(ids, card.ID)
		}
	}
	slices.Sort(ids)
	return ids
}

// CardSets returns the sets the catalog was built from
func (c *Catalog) CardSets() []model.CardSet {
	return c.sets
}

// Validate reports ErrCardSetNotFound for names the catalog was not built with
func (c *Catalog) Validate(names []string) error {
	for _, name := range names {
		if !slices.ContainsFunc(c.sets, func(set model.CardSet) bool { return set.Name == name }) {
			return fmt.Errorf("card set %q: %w", name, model.ErrCardSetNotFound)
		}
	}
	if len(c.black) == 0 || len(c.white) == 0 {
		return model.ErrEmptyCatalog
	}
	return nil
}
