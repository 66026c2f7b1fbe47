package controller

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/unclebandit/creatorhub-backend/internal/model"
	"github.com/unclebandit/creatorhub-backend/internal/service"
)

type CreatorController struct {
	CreatorService *service.CreatorService
	Logger         *slog.Logger
}

// SearchCreators serves public discovery. Unparseable numbers fall back to their defaults.
func (c *CreatorController) SearchCreators(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	minScore, _ := strconv.ParseFloat(q.Get("minScore"), 64)
	limit, _ := strconv.Atoi(q.Get("limit"))

	page, err := c.CreatorService.SearchCreators(r.Context(), model.CreatorFilter{
		Niche:        q.Get("niche"),
		Platform:     q.Get("platform"),
		Location:     q.Get("location"),
		Availability: q.Get("availability"),
		MinScore:     minScore,
		SortBy:       q.Get("sortBy"),
		Cursor:       q.Get("cursor"),
		Limit:        limit,
	})
	if err != nil {
		WriteError(w, r, c.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}
