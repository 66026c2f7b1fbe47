package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/creatorhub-backend/internal/controller"
	"github.com/unclebandit/creatorhub-backend/internal/service"
)

// CampaignHandler serves read-only campaign views
type CampaignHandler struct {
	Service *service.CampaignService
	Logger  *slog.Logger
}

func NewCampaignHandler(svc *service.CampaignService, logger *slog.Logger) *CampaignHandler {
	return &CampaignHandler{Service: svc, Logger: logger}
}

// GetCampaignHandlerWithStats returns one campaign with its proposal counts by status.
func (h *CampaignHandler) GetCampaignHandlerWithStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	details, err := h.Service.GetCampaignWithStats(r.Context(), id)
	if err != nil {
		controller.WriteError(w, r, h.Logger, err)
		return
	}
	controller.WriteJSON(w, http.StatusOK, details)
}
