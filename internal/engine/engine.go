// Package engine implements the round engine for a fill-in-the-blank card game.
//
// Every operation takes the session loaded by the caller, works on a private
// copy, and only writes the result back when it fully succeeds. The engine
// performs no I/O and holds no locks; serializing writers is the job of the
// storage layer.
package engine

import (
	"github.com/mcoot/fillblank/internal/dependencies/clock"
	"github.com/mcoot/fillblank/internal/dependencies/random"
	"github.com/mcoot/fillblank/internal/model"
)

// Catalog is the read-only card reference data the engine draws from
type Catalog interface {
	BlackCard(id model.CardID) (model.BlackCard, bool)
	WhiteCard(id model.CardID) (model.WhiteCard, bool)
	// BlackCards returns the prompts in the given sets (all sets if empty), sorted by ID
	BlackCards(sets []string) []model.BlackCard
	// WhiteCardIDs returns the answer card IDs in the given sets (all sets if empty), sorted
	WhiteCardIDs(sets []string) []model.CardID
}

// Engine applies game operations to sessions
type Engine struct {
	catalog Catalog
	random  random.Random
	clock   clock.Clock
}

// New creates a new Engine
func New(catalog Catalog, random random.Random, clock clock.Clock) *Engine {
	return &Engine{
		catalog: catalog,
		random:  random,
		clock:   clock,
	}
}

// apply runs op against a copy of the session and commits it only on success
func (e *Engine) apply(s *model.GameSession, op func(next *model.GameSession) error) error {
	next := s.Clone()
	next.LastResult = nil

	if err := op(next); err != nil {
		return err
	}

	next.LastActivity = e.clock.Now()
	*s = *next
	return nil
}
