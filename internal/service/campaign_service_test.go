package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/unclebandit/creatorhub-backend/internal/auth"
	appErrors "github.com/unclebandit/creatorhub-backend/internal/errors"
	"github.com/unclebandit/creatorhub-backend/internal/model"
	"github.com/unclebandit/creatorhub-backend/internal/service"
	"github.com/unclebandit/creatorhub-backend/internal/testutil"
)

func newCampaignService(store *testutil.Store) *service.CampaignService {
	return &service.CampaignService{
		CampaignRepo: &testutil.CampaignRepo{S: store},
		ProposalRepo: &testutil.ProposalRepo{S: store},
		BrandRepo:    &testutil.BrandRepo{S: store},
	}
}

func validCampaignInput() service.CreateCampaignInput {
	return service.CreateCampaignInput{
		Title:       "Launch week",
		Description: "Unboxing videos",
		Niches:      []string{"tech"},
		BudgetKobo:  1_000_000,
		Deadline:    time.Now().Add(7 * 24 * time.Hour),
	}
}

func TestCreateCampaign(t *testing.T) {
	store := testutil.NewStore()
	brand := store.PutBrand(model.Brand{UserID: brandPrincipal.UserID})
	svc := newCampaignService(store)

	c, err := svc.CreateCampaign(context.Background(), brandPrincipal, validCampaignInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID == "" || c.BrandID != brand.ID || c.Status != model.CampaignActive {
		t.Errorf("unexpected campaign: %+v", c)
	}
	if stored := store.Campaign(c.ID); stored == nil || stored.QualifiedCount != 0 {
		t.Errorf("campaign not stored correctly: %+v", stored)
	}
}

func TestCreateCampaign_Rejections(t *testing.T) {
	store := testutil.NewStore()
	store.PutBrand(model.Brand{UserID: brandPrincipal.UserID})
	svc := newCampaignService(store)

	pastDeadline := validCampaignInput()
	pastDeadline.Deadline = time.Now().Add(-time.Hour)
	noTitle := validCampaignInput()
	noTitle.Title = "  "
	noBudget := validCampaignInput()
	noBudget.BudgetKobo = 0

	tests := []struct {
		name      string
		principal auth.Principal
		input     service.CreateCampaignInput
		wantErr   error
	}{
		{"anonymous", auth.Principal{}, validCampaignInput(), appErrors.ErrUnauthorized},
		{"creator", creatorPrincipal, validCampaignInput(), appErrors.ErrForbidden},
		{"brand without profile", auth.Principal{UserID: "ghost", Role: auth.RoleBrand}, validCampaignInput(), appErrors.ErrForbidden},
		{"past deadline", brandPrincipal, pastDeadline, appErrors.ErrValidation},
		{"missing title", brandPrincipal, noTitle, appErrors.ErrValidation},
		{"zero budget", brandPrincipal, noBudget, appErrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCampaign(context.Background(), tt.principal, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestListActiveCampaigns_Pagination(t *testing.T) {
	store := testutil.NewStore()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 45; i++ {
		niches := []string{"tech"}
		if i%3 == 0 {
			niches = []string{"food"}
		}
		store.PutCampaign(model.Campaign{
			Title:     fmt.Sprintf("Campaign %d", i),
			Niches:    niches,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	store.PutCampaign(model.Campaign{Title: "Closed", Status: model.CampaignClosed, Niches: []string{"tech"}})
	svc := newCampaignService(store)

	campaigns, pagination, err := svc.ListActiveCampaigns(context.Background(), 2, 20, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(campaigns) != 20 {
		t.Errorf("expected 20 campaigns, got %d", len(campaigns))
	}
	if pagination["page"] != 2 || pagination["page_size"] != 20 || pagination["total_count"] != 45 || pagination["total_pages"] != 3 {
		t.Errorf("unexpected pagination: %v", pagination)
	}
	if campaigns[0].Title != "Campaign 24" {
		t.Errorf("expected newest-first ordering, got %s first", campaigns[0].Title)
	}

	food, pagination, err := svc.ListActiveCampaigns(context.Background(), 1, 100, "food")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(food) != 15 || pagination["total_count"] != 15 {
		t.Errorf("expected 15 food campaigns, got %d (%v)", len(food), pagination)
	}
}

func TestListActiveCampaigns_ClampsPageParams(t *testing.T) {
	store := testutil.NewStore()
	svc := newCampaignService(store)

	_, pagination, err := svc.ListActiveCampaigns(context.Background(), 0, 500, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pagination["page"] != 1 || pagination["page_size"] != 100 || pagination["total_pages"] != 0 {
		t.Errorf("unexpected pagination: %v", pagination)
	}
}

func TestGetCampaignWithStats(t *testing.T) {
	store := testutil.NewStore()
	c := store.PutCampaign(model.Campaign{Title: "Stats"})
	for i, status := range []string{model.ProposalSubmitted, model.ProposalQualified, model.ProposalQualified, model.ProposalNotQualified} {
		store.PutProposal(model.Proposal{CampaignID: c.ID, CreatorID: fmt.Sprintf("creator-%d", i), Status: status})
	}
	svc := newCampaignService(store)

	details, err := svc.GetCampaignWithStats(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]int{"total": 4, "submitted": 1, "qualified": 2, "not_qualified": 1, "accepted": 0}
	for k, v := range want {
		if details.Stats[k] != v {
			t.Errorf("stats[%s]: expected %d, got %d", k, v, details.Stats[k])
		}
	}

	if _, err := svc.GetCampaignWithStats(context.Background(), "missing"); !appErrors.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}
