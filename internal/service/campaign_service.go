package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/unclebandit/creatorhub-backend/internal/auth"
	appErrors "github.com/unclebandit/creatorhub-backend/internal/errors"
	"github.com/unclebandit/creatorhub-backend/internal/model"
	"github.com/unclebandit/creatorhub-backend/internal/repository"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ProposalRepo repository.ProposalRepositoryInterface
	BrandRepo    repository.BrandRepositoryInterface
	Logger       *slog.Logger
}

type CreateCampaignInput struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Requirements string    `json:"requirements"`
	Deliverables []string  `json:"deliverables"`
	Niches       []string  `json:"niches"`
	Platforms    []string  `json:"platforms"`
	BudgetKobo   int64     `json:"budget_kobo"`
	Deadline     time.Time `json:"deadline"`
}

type CampaignDetails struct {
	*model.Campaign
	Stats map[string]int `json:"stats"`
}

func (in CreateCampaignInput) validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return appErrors.Validation("title", "is required")
	case strings.TrimSpace(in.Description) == "":
		return appErrors.Validation("description", "is required")
	case in.BudgetKobo <= 0:
		return appErrors.Validation("budget_kobo", "must be positive")
	case !in.Deadline.After(time.Now()):
		return appErrors.Validation("deadline", "must be in the future")
	}
	return nil
}

// CreateCampaign publishes a campaign for the calling brand.
func (s *CampaignService) CreateCampaign(ctx context.Context, principal auth.Principal, in CreateCampaignInput) (*model.Campaign, error) {
	if principal.IsAnonymous() {
		return nil, appErrors.ErrUnauthorized
	}
	if !principal.IsBrand() {
		return nil, appErrors.ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	brand, err := s.BrandRepo.GetByUserID(ctx, principal.UserID)
	if err != nil {
		if appErrors.IsNotFound(err) {
			return nil, appErrors.ErrForbidden
		}
		return nil, err
	}

	c := &model.Campaign{
		BrandID:      brand.ID,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Requirements: in.Requirements,
		Deliverables: in.Deliverables,
		Niches:       in.Niches,
		Platforms:    in.Platforms,
		BudgetKobo:   in.BudgetKobo,
		Deadline:     in.Deadline,
		Status:       model.CampaignActive,
	}
	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	loggerOrDiscard(s.Logger).Info("campaign created", "campaign_id", c.ID, "brand_id", brand.ID)
	return c, nil
}

// ListActiveCampaigns fetches active campaigns with pagination
func (s *CampaignService) ListActiveCampaigns(ctx context.Context, page, pageSize int, niche string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListActive(ctx, niche, offset, pageSize)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

func (s *CampaignService) GetCampaignWithStats(ctx context.Context, id string) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	counts, err := s.ProposalRepo.CountByStatus(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := map[string]int{"total": 0}
	for _, status := range []string{
		model.ProposalSubmitted, model.ProposalUnderAIReview, model.ProposalQualified,
		model.ProposalNotQualified, model.ProposalAccepted, model.ProposalRejected, model.ProposalCompleted,
	} {
		stats[strings.ToLower(status)] = counts[status]
		stats["total"] += counts[status]
	}
	return &CampaignDetails{Campaign: campaign, Stats: stats}, nil
}
