package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/fillblank/internal/api/middleware"
	"github.com/mcoot/fillblank/internal/api/request"
	"github.com/mcoot/fillblank/internal/api/response"
	"github.com/mcoot/fillblank/internal/model"
	"github.com/mcoot/fillblank/internal/services/auth"
	"github.com/mcoot/fillblank/internal/services/game"
)

// GameHandler handles game endpoints
type GameHandler struct {
	controller *game.Controller
}

// NewGameHandler creates a new game handler
func NewGameHandler(controller *game.Controller) *GameHandler {
	return &GameHandler{
		controller: controller,
	}
}

// List handles GET /api/v1/games
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := true
	if v := r.URL.Query().Get("active"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			WriteError(w, NewInvalidRequestError("active must be true or false"))
			return
		}
		activeOnly = parsed
	}

	sessions, err := h.controller.ListGames(r.Context(), activeOnly)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameListFromModel(sessions))
}

// Create handles POST /api/v1/games
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	rules := model.SessionConfig{
		HandSize:    req.HandSize,
		LosingCards: model.LosingCardsPolicy(req.LosingCards),
		ShortRoster: model.ShortRosterPolicy(req.ShortRoster),
	}
	session, err := h.controller.CreateGame(r.Context(), req.Name, req.CardSets, rules, auth.SeatFor(player))
	if err != nil {
		WriteError(w, err)
		return
	}

	h.writeView(w, r, http.StatusCreated, session.ID)
}

// JoinByName handles POST /api/v1/games/join, creating the game if nobody has yet
func (h *GameHandler) JoinByName(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.JoinByNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	session, err := h.controller.JoinOrCreate(r.Context(), req.Name, auth.SeatFor(player))
	if err != nil {
		WriteError(w, err)
		return
	}

	h.writeView(w, r, http.StatusOK, session.ID)
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.writeView(w, r, http.StatusOK, gameID(r))
}

// Join handles POST /api/v1/games/{id}/join
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	session, err := h.controller.Join(r.Context(), gameID(r), auth.SeatFor(player))
	if err != nil {
		WriteError(w, err)
		return
	}

	h.writeView(w, r, http.StatusOK, session.ID)
}

// Leave handles POST /api/v1/games/{id}/leave
func (h *GameHandler) Leave(w http.ResponseWriter, r *http.Request) {
	if _, err := h.controller.Leave(r.Context(), gameID(r), middleware.PlayerID(r.Context())); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// StartRound handles POST /api/v1/games/{id}/rounds
func (h *GameHandler) StartRound(w http.ResponseWriter, r *http.Request) {
	session, err := h.controller.StartRound(r.Context(), gameID(r), middleware.PlayerID(r.Context()))
	if err != nil {
		WriteError(w, err)
		return
	}

	h.writeView(w, r, http.StatusOK, session.ID)
}

// Submit handles POST /api/v1/games/{id}/submissions
func (h *GameHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if len(req.CardIDs) == 0 {
		WriteError(w, NewInvalidRequestError("card_ids is required"))
		return
	}

	cards := make([]model.CardID, len(req.CardIDs))
	for i, id := range req.CardIDs {
		cards[i] = model.CardID(id)
	}

	session, err := h.controller.Submit(r.Context(), gameID(r), middleware.PlayerID(r.Context()), cards)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.writeView(w, r, http.StatusOK, session.ID)
}

// SelectWinner handles POST /api/v1/games/{id}/winner
func (h *GameHandler) SelectWinner(w http.ResponseWriter, r *http.Request) {
	var req request.SelectWinnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	czar := middleware.PlayerID(r.Context())
	var (
		session *model.GameSession
		err     error
	)
	switch {
	case req.Choice != nil && req.PlayerName != "":
		WriteError(w, NewInvalidRequestError("set either choice or player_name, not both"))
		return
	case req.Choice != nil:
		session, err = h.controller.SelectChoice(r.Context(), gameID(r), czar, *req.Choice)
	case req.PlayerName != "":
		session, err = h.controller.SelectWinner(r.Context(), gameID(r), czar, model.PlayerName(req.PlayerName))
	default:
		WriteError(w, NewInvalidRequestError("choice or player_name is required"))
		return
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	h.writeView(w, r, http.StatusOK, session.ID)
}

// History handles GET /api/v1/games/{id}/history
func (h *GameHandler) History(w http.ResponseWriter, r *http.Request) {
	results, err := h.controller.History(r.Context(), gameID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.HistoryFromModel(results))
}

// writeView responds with the caller's view of the game as it now stands
func (h *GameHandler) writeView(w http.ResponseWriter, r *http.Request, status int, id model.SessionID) {
	view, err := h.controller.View(r.Context(), id, middleware.PlayerID(r.Context()))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, status, response.GameViewFromEngine(view))
}

func gameID(r *http.Request) model.SessionID {
	return model.SessionID(mux.Vars(r)["id"])
}
