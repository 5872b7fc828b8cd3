package handler

import (
	"net/http"

	"github.com/mcoot/fillblank/internal/api/response"
	"github.com/mcoot/fillblank/internal/services/catalog"
)

// CardSetHandler lists the card sets games can be created with
type CardSetHandler struct {
	catalog *catalog.Service
}

// NewCardSetHandler creates a new card set handler
func NewCardSetHandler(catalog *catalog.Service) *CardSetHandler {
	return &CardSetHandler{catalog: catalog}
}

// List handles GET /api/v1/cardsets
func (h *CardSetHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.CardSetListFromCatalog(h.catalog.CardSets()))
}
