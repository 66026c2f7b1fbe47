package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	appErrors "github.com/unclebandit/creatorhub-backend/internal/errors"
	"github.com/unclebandit/creatorhub-backend/internal/model"
	"github.com/unclebandit/creatorhub-backend/internal/service"
	"github.com/unclebandit/creatorhub-backend/internal/testutil"
)

func newCreatorService(store *testutil.Store) *service.CreatorService {
	return &service.CreatorService{CreatorRepo: &testutil.CreatorRepo{S: store}}
}

func TestSearchCreators_CursorWalksEveryPage(t *testing.T) {
	store := testutil.NewStore()
	for i := 0; i < 7; i++ {
		store.PutCreator(model.Creator{
			ID:        fmt.Sprintf("creator-%02d", i),
			Username:  fmt.Sprintf("creator%d", i),
			Niches:    []string{"food"},
			AvgRating: float64(i%3) + 3,
		})
	}
	svc := newCreatorService(store)

	seen := map[string]bool{}
	var order []string
	cursor := ""
	pages := 0
	for {
		page, err := svc.SearchCreators(context.Background(), model.CreatorFilter{Niche: "food", Limit: 3, Cursor: cursor})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		pages++
		for _, c := range page.Creators {
			if seen[c.ID] {
				t.Fatalf("creator %s returned twice", c.ID)
			}
			seen[c.ID] = true
			order = append(order, c.ID)
		}
		if page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}

	if len(seen) != 7 || pages != 3 {
		t.Fatalf("expected 7 creators over 3 pages, got %d over %d", len(seen), pages)
	}
	// ratings 5,5,4,4,4,3,3 with id ascending inside each rating
	want := []string{"creator-02", "creator-05", "creator-01", "creator-04", "creator-00", "creator-03", "creator-06"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

func TestSearchCreators_FullLastPageStillHasCursor(t *testing.T) {
	store := testutil.NewStore()
	store.PutCreator(model.Creator{ID: "a", AvgRating: 4})
	store.PutCreator(model.Creator{ID: "b", AvgRating: 3})
	svc := newCreatorService(store)

	page, err := svc.SearchCreators(context.Background(), model.CreatorFilter{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.NextCursor == nil || *page.NextCursor != "b" {
		t.Fatalf("a full page must carry the last id, got %v", page.NextCursor)
	}

	page, err = svc.SearchCreators(context.Background(), model.CreatorFilter{Limit: 2, Cursor: "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Creators) != 0 || page.NextCursor != nil {
		t.Fatalf("expected an empty final page, got %+v", page)
	}
}

func TestSearchCreators_Filters(t *testing.T) {
	store := testutil.NewStore()
	store.PutCreator(model.Creator{ID: "lagos-food", Location: "Lagos, Nigeria", Niches: []string{"food"}, Platforms: []string{"tiktok"}, AvgRating: 4.7, BaseRateKobo: 900_000, TotalJobsCompleted: 2})
	store.PutCreator(model.Creator{ID: "abuja-food", Location: "Abuja", Niches: []string{"food"}, Platforms: []string{"instagram"}, AvgRating: 4.1, BaseRateKobo: 300_000, TotalJobsCompleted: 9, Availability: model.CreatorBusy})
	store.PutCreator(model.Creator{ID: "lagos-tech", Location: "LAGOS", Niches: []string{"tech"}, Platforms: []string{"tiktok"}, AvgRating: 3.2, BaseRateKobo: 500_000, TotalJobsCompleted: 5})
	svc := newCreatorService(store)

	tests := []struct {
		name   string
		filter model.CreatorFilter
		want   []string
	}{
		{"no filter sorts by rating", model.CreatorFilter{}, []string{"lagos-food", "abuja-food", "lagos-tech"}},
		{"niche", model.CreatorFilter{Niche: "food"}, []string{"lagos-food", "abuja-food"}},
		{"platform", model.CreatorFilter{Platform: "tiktok"}, []string{"lagos-food", "lagos-tech"}},
		{"location ignores case", model.CreatorFilter{Location: "lagos"}, []string{"lagos-food", "lagos-tech"}},
		{"availability", model.CreatorFilter{Availability: "busy"}, []string{"abuja-food"}},
		{"min score", model.CreatorFilter{MinScore: 4}, []string{"lagos-food", "abuja-food"}},
		{"total jobs", model.CreatorFilter{SortBy: model.CreatorSortTotalJobs}, []string{"abuja-food", "lagos-tech", "lagos-food"}},
		{"cheapest first", model.CreatorFilter{SortBy: model.CreatorSortRateAsc}, []string{"abuja-food", "lagos-tech", "lagos-food"}},
		{"unknown sort falls back to rating", model.CreatorFilter{SortBy: "followers"}, []string{"lagos-food", "abuja-food", "lagos-tech"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.SearchCreators(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(page.Creators) != len(tt.want) {
				t.Fatalf("expected %v, got %d creators", tt.want, len(page.Creators))
			}
			for i, c := range page.Creators {
				if c.ID != tt.want[i] {
					t.Errorf("position %d: expected %s, got %s", i, tt.want[i], c.ID)
				}
			}
			if page.NextCursor != nil {
				t.Errorf("short page must not carry a cursor")
			}
		})
	}
}

func TestSearchCreators_LimitAndValidation(t *testing.T) {
	store := testutil.NewStore()
	for i := 0; i < 60; i++ {
		store.PutCreator(model.Creator{ID: fmt.Sprintf("c%02d", i)})
	}
	svc := newCreatorService(store)

	page, err := svc.SearchCreators(context.Background(), model.CreatorFilter{Limit: 500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Creators) != 50 {
		t.Errorf("expected limit clamped to 50, got %d", len(page.Creators))
	}

	page, _ = svc.SearchCreators(context.Background(), model.CreatorFilter{})
	if len(page.Creators) != 20 {
		t.Errorf("expected default limit 20, got %d", len(page.Creators))
	}

	_, err = svc.SearchCreators(context.Background(), model.CreatorFilter{Availability: "ON_HOLIDAY"})
	if !errors.Is(err, appErrors.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
