package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/fillblank/internal/api/handler"
	"github.com/mcoot/fillblank/internal/api/middleware"
	"github.com/mcoot/fillblank/internal/services/auth"
	"github.com/mcoot/fillblank/internal/services/catalog"
	"github.com/mcoot/fillblank/internal/services/game"
	"github.com/mcoot/fillblank/internal/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	AuthService    *auth.Service
	GameController *game.Controller
	Catalog        *catalog.Service
	HubManager     *sse.HubManager
	// BaseURL is the public origin used in join links, e.g. https://cards.example.com
	BaseURL string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	playerHandler := handler.NewPlayerHandler(cfg.AuthService)
	gameHandler := handler.NewGameHandler(cfg.GameController)
	streamHandler := handler.NewStreamHandler(cfg.GameController, cfg.HubManager, cfg.BaseURL)
	cardSetHandler := handler.NewCardSetHandler(cfg.Catalog)

	authMiddleware := middleware.Auth(cfg.AuthService)
	optionalAuthMiddleware := middleware.OptionalAuth(cfg.AuthService)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	// Player routes (no auth required for creating players/logging in)
	api.HandleFunc("/players/guest", playerHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)

	playerProtected := api.PathPrefix("/players").Subrouter()
	playerProtected.Use(authMiddleware)
	playerProtected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	playerProtected.HandleFunc("/logout", playerHandler.Logout).Methods(http.MethodPost)

	// Read-only game routes; anonymous callers get the observer view
	observe := api.PathPrefix("/games").Subrouter()
	observe.Use(optionalAuthMiddleware)
	observe.HandleFunc("", gameHandler.List).Methods(http.MethodGet)
	observe.HandleFunc("/{id}", gameHandler.Get).Methods(http.MethodGet)
	observe.HandleFunc("/{id}/history", gameHandler.History).Methods(http.MethodGet)
	observe.HandleFunc("/{id}/events", streamHandler.Events).Methods(http.MethodGet)
	observe.HandleFunc("/{id}/qr", streamHandler.QRCode).Methods(http.MethodGet)

	// Playing requires a player
	play := api.PathPrefix("/games").Subrouter()
	play.Use(authMiddleware)
	play.HandleFunc("", gameHandler.Create).Methods(http.MethodPost)
	play.HandleFunc("/join", gameHandler.JoinByName).Methods(http.MethodPost)
	play.HandleFunc("/{id}/join", gameHandler.Join).Methods(http.MethodPost)
	play.HandleFunc("/{id}/leave", gameHandler.Leave).Methods(http.MethodPost)
	play.HandleFunc("/{id}/rounds", gameHandler.StartRound).Methods(http.MethodPost)
	play.HandleFunc("/{id}/submissions", gameHandler.Submit).Methods(http.MethodPost)
	play.HandleFunc("/{id}/winner", gameHandler.SelectWinner).Methods(http.MethodPost)

	api.HandleFunc("/cardsets", cardSetHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
