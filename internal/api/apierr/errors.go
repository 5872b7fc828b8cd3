package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/fillblank/internal/model"
	"github.com/mcoot/fillblank/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodePlayerNotFound     = "PLAYER_NOT_FOUND"
	CodeGameNotFound       = "GAME_NOT_FOUND"
	CodeGameNameTaken      = "GAME_NAME_TAKEN"
	CodeInvalidGameName    = "INVALID_GAME_NAME"
	CodeInvalidConfig      = "INVALID_CONFIG"
	CodeConflict           = "CONFLICT"
	CodeNotInGame          = "NOT_IN_GAME"
	CodeNameTaken          = "NAME_TAKEN"
	CodeAlreadyJoined      = "ALREADY_JOINED"
	CodeInvalidName        = "INVALID_NAME"
	CodeNotYourTurn        = "NOT_YOUR_TURN"
	CodeWrongPhase         = "WRONG_PHASE"
	CodeRoundInProgress    = "ROUND_IN_PROGRESS"
	CodeAlreadySubmitted   = "ALREADY_SUBMITTED"
	CodeInvalidCardCount   = "INVALID_CARD_COUNT"
	CodeCardNotInHand      = "CARD_NOT_IN_HAND"
	CodeUnknownSubmission  = "UNKNOWN_SUBMISSION"
	CodeCardNotFound       = "CARD_NOT_FOUND"
	CodeCardSetNotFound    = "CARD_SET_NOT_FOUND"
	CodeCardSetExists      = "CARD_SET_EXISTS"
	CodeCatalogUnavailable = "CATALOG_UNAVAILABLE"
	CodeUsernameExists     = "USERNAME_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error is reported with
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Games
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrGameNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeGameNotFound, "Game not found"}}
	case errors.Is(err, model.ErrDuplicateGameName):
		return &httpError{http.StatusConflict, APIError{CodeGameNameTaken, "A game with that name already exists"}}
	case errors.Is(err, model.ErrInvalidGameName):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidGameName, "Game name must not be empty"}}
	case errors.Is(err, model.ErrInvalidConfig):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidConfig, err.Error()}}
	case errors.Is(err, model.ErrConflict), errors.Is(err, model.ErrTooManyConflicts):
		return &httpError{http.StatusConflict, APIError{CodeConflict, "Game is busy, try again"}}

	// Roster
	case errors.Is(err, model.ErrNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeNotInGame, "Not in this game"}}
	case errors.Is(err, model.ErrDuplicateName):
		return &httpError{http.StatusConflict, APIError{CodeNameTaken, "Name already taken in this game"}}
	case errors.Is(err, model.ErrAlreadyJoined):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyJoined, "Already in this game"}}
	case errors.Is(err, model.ErrInvalidName), errors.Is(err, auth.ErrInvalidDisplayName):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidName, "Name must not be empty"}}

	// Rounds
	case errors.Is(err, model.ErrNotPlayerTurn):
		return &httpError{http.StatusForbidden, APIError{CodeNotYourTurn, "Not your turn"}}
	case errors.Is(err, model.ErrWrongPhase):
		return &httpError{http.StatusConflict, APIError{CodeWrongPhase, "Not allowed in the current phase"}}
	case errors.Is(err, model.ErrInvalidState):
		return &httpError{http.StatusConflict, APIError{CodeRoundInProgress, "Round is already in progress"}}
	case errors.Is(err, model.ErrAlreadySubmitted):
		return &httpError{http.StatusConflict, APIError{CodeAlreadySubmitted, "Already submitted this round"}}
	case errors.Is(err, model.ErrInvalidCardCount):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidCardCount, "Wrong number of cards for this prompt"}}
	case errors.Is(err, model.ErrCardNotInHand):
		return &httpError{http.StatusBadRequest, APIError{CodeCardNotInHand, "Card is not in your hand"}}
	case errors.Is(err, model.ErrUnknownSubmission):
		return &httpError{http.StatusBadRequest, APIError{CodeUnknownSubmission, "No such submission this round"}}

	// Catalog
	case errors.Is(err, model.ErrCardNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeCardNotFound, "Card not found"}}
	case errors.Is(err, model.ErrCardSetNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeCardSetNotFound, err.Error()}}
	case errors.Is(err, model.ErrCardSetExists):
		return &httpError{http.StatusConflict, APIError{CodeCardSetExists, err.Error()}}
	case errors.Is(err, model.ErrEmptyCatalog), errors.Is(err, model.ErrCatalogExhausted):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeCatalogUnavailable, "Not enough cards loaded to deal this game"}}

	// Auth
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, auth.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{CodeUsernameExists, "Username already exists"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
