package controller

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/unclebandit/creatorhub-backend/internal/auth"
	"github.com/unclebandit/creatorhub-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
	Logger          *slog.Logger
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body service.CreateCampaignInput
	if !decodeBody(w, r, &body) {
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(r.Context(), auth.FromContext(r.Context()), body)
	if err != nil {
		WriteError(w, r, c.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	niche := r.URL.Query().Get("niche")

	campaigns, pagination, err := c.CampaignService.ListActiveCampaigns(r.Context(), page, pageSize, niche)
	if err != nil {
		WriteError(w, r, c.Logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}
