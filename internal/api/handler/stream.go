package handler

import (
	"fmt"
	"net/http"

	"github.com/skip2/go-qrcode"

	"github.com/mcoot/fillblank/internal/api/middleware"
	"github.com/mcoot/fillblank/internal/services/game"
	"github.com/mcoot/fillblank/internal/sse"
)

// qrSize is the PNG edge length in pixels, large enough to scan from a phone
const qrSize = 320

// StreamHandler serves the push channels of a game: live events and the join QR code
type StreamHandler struct {
	controller *game.Controller
	hubs       *sse.HubManager
	baseURL    string
}

// NewStreamHandler creates a new stream handler. baseURL is the externally visible
// origin used in join links; when empty it is derived from the request.
func NewStreamHandler(controller *game.Controller, hubs *sse.HubManager, baseURL string) *StreamHandler {
	return &StreamHandler{
		controller: controller,
		hubs:       hubs,
		baseURL:    baseURL,
	}
}

// Events handles GET /api/v1/games/{id}/events
func (h *StreamHandler) Events(w http.ResponseWriter, r *http.Request) {
	id := gameID(r)
	session, err := h.controller.GetGame(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	hub := h.hubs.GetOrCreateHub(id)
	sse.ServeSSE(w, r, hub, session.SeatOf(middleware.PlayerID(r.Context())))
}

// QRCode handles GET /api/v1/games/{id}/qr
func (h *StreamHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	session, err := h.controller.GetGame(r.Context(), gameID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	link := fmt.Sprintf("%s/api/v1/games/%s", h.origin(r), session.ID)
	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(png)
}

func (h *StreamHandler) origin(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
