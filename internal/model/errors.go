package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Session errors
	ErrGameNotFound      = errors.New("game not found")
	ErrDuplicateGameName = errors.New("a game with that name already exists")
	ErrConflict          = errors.New("game was modified concurrently")
	ErrTooManyConflicts  = errors.New("game is too busy, try again")
	ErrInvalidGameName   = errors.New("game name must not be empty")
	ErrInvalidConfig     = errors.New("invalid game settings")

	// Roster errors
	ErrNotFound      = errors.New("player is not in this game")
	ErrDuplicateName = errors.New("player name is already taken in this game")
	ErrInvalidName   = errors.New("player name must not be empty")
	ErrAlreadyJoined = errors.New("player already has a seat in this game")

	// Round errors
	ErrNotPlayerTurn     = errors.New("not this player's turn")
	ErrWrongPhase        = errors.New("action is not allowed in the current phase")
	ErrInvalidState      = errors.New("round is already in progress")
	ErrAlreadySubmitted  = errors.New("player has already submitted this round")
	ErrInvalidCardCount  = errors.New("wrong number of cards for this prompt")
	ErrCardNotInHand     = errors.New("card is not in the player's hand")
	ErrUnknownSubmission = errors.New("player has no submission this round")

	// Catalog errors
	ErrCardNotFound     = errors.New("card not found")
	ErrCardSetExists    = errors.New("card set already exists")
	ErrCardSetNotFound  = errors.New("card set not found")
	ErrEmptyCatalog     = errors.New("card catalog has no usable cards")
	ErrCatalogExhausted = errors.New("card catalog is too small for this game")
)
