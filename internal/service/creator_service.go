package service

import (
	"context"
	"log/slog"
	"strings"

	appErrors "github.com/unclebandit/creatorhub-backend/internal/errors"
	"github.com/unclebandit/creatorhub-backend/internal/model"
	"github.com/unclebandit/creatorhub-backend/internal/repository"
)

const (
	defaultCreatorPageSize = 20
	maxCreatorPageSize     = 50
)

// CreatorService backs public creator discovery.
type CreatorService struct {
	CreatorRepo repository.CreatorRepositoryInterface
	Logger      *slog.Logger
}

// CreatorPage is one page of discovery results. NextCursor is nil on the last page.
type CreatorPage struct {
	Creators   []*model.Creator `json:"creators"`
	NextCursor *string          `json:"nextCursor"`
}

// SearchCreators lists creators matching f. A full page carries the last id as the next cursor.
func (s *CreatorService) SearchCreators(ctx context.Context, f model.CreatorFilter) (*CreatorPage, error) {
	f.Availability = strings.ToUpper(strings.TrimSpace(f.Availability))
	switch f.Availability {
	case "", model.CreatorAvailable, model.CreatorBusy:
	default:
		return nil, appErrors.Validation("availability", "must be AVAILABLE or BUSY")
	}
	if f.Limit < 1 {
		f.Limit = defaultCreatorPageSize
	}
	if f.Limit > maxCreatorPageSize {
		f.Limit = maxCreatorPageSize
	}

	creators, err := s.CreatorRepo.Search(ctx, f)
	if err != nil {
		return nil, err
	}

	page := &CreatorPage{Creators: creators}
	if len(creators) == f.Limit {
		last := creators[len(creators)-1].ID
		page.NextCursor = &last
	}
	return page, nil
}
