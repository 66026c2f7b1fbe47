// Package testutil holds in-memory repositories and fakes shared by package tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/creatorhub-backend/internal/ai"
	appErrors "github.com/unclebandit/creatorhub-backend/internal/errors"
	"github.com/unclebandit/creatorhub-backend/internal/model"
	"github.com/unclebandit/creatorhub-backend/internal/repository"
)

// Store is a mutex-guarded stand-in for the database. Repositories built from it
// hand out copies, so callers cannot mutate stored rows by accident.
type Store struct {
	mu            sync.Mutex
	campaigns     map[string]*model.Campaign
	proposals     map[string]*model.Proposal
	creators      map[string]*model.Creator
	brands        map[string]*model.Brand
	payments      map[string]*model.Payment
	notifications []*model.Notification

	// Injected failures, checked before the matching operation.
	FailNotify   error
	FailComplete error
	FailSettle   error
}

func NewStore() *Store {
	return &Store{
		campaigns: map[string]*model.Campaign{},
		proposals: map[string]*model.Proposal{},
		creators:  map[string]*model.Creator{},
		brands:    map[string]*model.Brand{},
		payments:  map[string]*model.Payment{},
	}
}

func (s *Store) PutCampaign(c model.Campaign) *model.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = model.CampaignActive
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.campaigns[c.ID] = &c
	cp := c
	return &cp
}

func (s *Store) PutCreator(c model.Creator) *model.Creator {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Availability == "" {
		c.Availability = model.CreatorAvailable
	}
	s.creators[c.ID] = &c
	cp := c
	return &cp
}

func (s *Store) PutBrand(b model.Brand) *model.Brand {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	s.brands[b.ID] = &b
	cp := b
	return &cp
}

func (s *Store) PutProposal(p model.Proposal) *model.Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = model.ProposalSubmitted
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.proposals[p.ID] = &p
	return cloneProposal(&p)
}

func (s *Store) PutPayment(p model.Payment) *model.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = model.PaymentPending
	}
	s.payments[p.Reference] = &p
	cp := p
	return &cp
}

func (s *Store) Campaign(id string) *model.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

func (s *Store) Proposal(id string) *model.Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok {
		return nil
	}
	return cloneProposal(p)
}

func (s *Store) Payment(reference string) *model.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[reference]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// Notifications returns the notifications written so far, in write order.
func (s *Store) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Notification, len(s.notifications))
	for i, n := range s.notifications {
		out[i] = *n
	}
	return out
}

// SetProposalStatus changes a stored proposal behind the services' back.
func (s *Store) SetProposalStatus(id, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.proposals[id]; ok {
		p.Status = status
		touch(p)
	}
}

// AgeProposal moves a stored proposal's updated_at back by d.
func (s *Store) AgeProposal(id string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.proposals[id]; ok {
		aged := time.Now().UTC().Add(-d)
		p.UpdatedAt = &aged
	}
}

func touch(p *model.Proposal) {
	now := time.Now().UTC()
	p.UpdatedAt = &now
}

func cloneProposal(p *model.Proposal) *model.Proposal {
	cp := *p
	cp.OverallScore = cloneInt(p.OverallScore)
	cp.VideoScore = cloneInt(p.VideoScore)
	cp.AudioScore = cloneInt(p.AudioScore)
	cp.RelevanceScore = cloneInt(p.RelevanceScore)
	if p.AICheckedAt != nil {
		t := *p.AICheckedAt
		cp.AICheckedAt = &t
	}
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		cp.UpdatedAt = &t
	}
	return &cp
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	i := *v
	return &i
}

func intPtr(v int) *int { return &v }

// CampaignRepo implements repository.CampaignRepositoryInterface over a Store.
type CampaignRepo struct{ S *Store }

func (r *CampaignRepo) Create(_ context.Context, c *model.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = model.CampaignActive
	}
	c.CreatedAt = time.Now().UTC()
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	cp := *c
	r.S.campaigns[c.ID] = &cp
	return nil
}

func (r *CampaignRepo) GetByID(_ context.Context, id string) (*model.Campaign, error) {
	if c := r.S.Campaign(id); c != nil {
		return c, nil
	}
	return nil, appErrors.NewNotFound("campaign", id)
}

func (r *CampaignRepo) ListActive(_ context.Context, niche string, offset, limit int) ([]*model.Campaign, int, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	var matched []*model.Campaign
	for _, c := range r.S.campaigns {
		if c.Status != model.CampaignActive {
			continue
		}
		if niche != "" && !contains(c.Niches, niche) {
			continue
		}
		cp := *c
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := len(matched)
	if offset >= total {
		return []*model.Campaign{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *CampaignRepo) IncrementQualifiedCount(_ context.Context, id string) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	c, ok := r.S.campaigns[id]
	if !ok {
		return appErrors.NewNotFound("campaign", id)
	}
	c.QualifiedCount++
	return nil
}

// ProposalRepo implements repository.ProposalRepositoryInterface over a Store.
type ProposalRepo struct{ S *Store }

func (r *ProposalRepo) Create(_ context.Context, p *model.Proposal) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	for _, existing := range r.S.proposals {
		if existing.CampaignID == p.CampaignID && existing.CreatorID == p.CreatorID {
			return appErrors.ErrConflict
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Status = model.ProposalSubmitted
	p.CreatedAt = time.Now().UTC()
	r.S.proposals[p.ID] = cloneProposal(p)
	return nil
}

func (r *ProposalRepo) GetByID(_ context.Context, id string) (*model.Proposal, error) {
	if p := r.S.Proposal(id); p != nil {
		return p, nil
	}
	return nil, appErrors.NewNotFound("proposal", id)
}

func (r *ProposalRepo) ListByCampaign(_ context.Context, campaignID string) ([]*model.Proposal, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	out := []*model.Proposal{}
	for _, p := range r.S.proposals {
		if p.CampaignID == campaignID {
			out = append(out, cloneProposal(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].OverallScore, out[j].OverallScore
		switch {
		case a == nil && b == nil:
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		case a == nil:
			return false
		case b == nil:
			return true
		case *a != *b:
			return *a > *b
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *ProposalRepo) CountByStatus(_ context.Context, campaignID string) (map[string]int, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	stats := map[string]int{}
	for _, p := range r.S.proposals {
		if p.CampaignID == campaignID {
			stats[p.Status]++
		}
	}
	return stats, nil
}

func (r *ProposalRepo) ClaimForAICheck(_ context.Context, id string, staleAfter time.Duration) (bool, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	p, ok := r.S.proposals[id]
	if !ok || p.AICheckedAt != nil {
		return false, nil
	}
	stale := p.Status == model.ProposalUnderAIReview && p.UpdatedAt != nil &&
		p.UpdatedAt.Before(time.Now().Add(-staleAfter))
	if p.Status != model.ProposalSubmitted && !stale {
		return false, nil
	}
	p.Status = model.ProposalUnderAIReview
	touch(p)
	return true, nil
}

func (r *ProposalRepo) CompleteAICheck(_ context.Context, id string, s model.ProposalScores) (bool, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.FailComplete != nil {
		return false, r.S.FailComplete
	}
	p, ok := r.S.proposals[id]
	if !ok || p.Status != model.ProposalUnderAIReview {
		return false, nil
	}
	p.OverallScore = intPtr(s.OverallScore)
	p.VideoScore = intPtr(s.VideoScore)
	p.AudioScore = intPtr(s.AudioScore)
	p.RelevanceScore = intPtr(s.RelevanceScore)
	p.AIFeedback = s.Feedback
	checked := s.CheckedAt
	p.AICheckedAt = &checked
	p.Status = s.FinalStatus()
	touch(p)
	return true, nil
}

func (r *ProposalRepo) RevertAICheck(_ context.Context, id string) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if p, ok := r.S.proposals[id]; ok && p.Status == model.ProposalUnderAIReview {
		p.Status = model.ProposalSubmitted
		touch(p)
	}
	return nil
}

func (r *ProposalRepo) TransitionStatus(_ context.Context, id string, from []string, to string) (bool, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	p, ok := r.S.proposals[id]
	if !ok || !contains(from, p.Status) {
		return false, nil
	}
	p.Status = to
	touch(p)
	return true, nil
}

// CreatorRepo implements repository.CreatorRepositoryInterface over a Store.
type CreatorRepo struct{ S *Store }

func (r *CreatorRepo) GetByID(_ context.Context, id string) (*model.Creator, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if c, ok := r.S.creators[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, appErrors.NewNotFound("creator", id)
}

func (r *CreatorRepo) GetByUserID(_ context.Context, userID string) (*model.Creator, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	for _, c := range r.S.creators {
		if c.UserID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, appErrors.NewNotFound("creator", userID)
}

func (r *CreatorRepo) Search(_ context.Context, f model.CreatorFilter) ([]*model.Creator, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	less := creatorLess(f.SortBy)

	var cursor *model.Creator
	if f.Cursor != "" {
		c, ok := r.S.creators[f.Cursor]
		if !ok {
			return []*model.Creator{}, nil
		}
		cursor = c
	}

	matched := []*model.Creator{}
	for _, c := range r.S.creators {
		switch {
		case cursor != nil && !less(cursor, c):
			continue
		case f.Niche != "" && !contains(c.Niches, f.Niche):
			continue
		case f.Platform != "" && !contains(c.Platforms, f.Platform):
			continue
		case f.Location != "" && !strings.Contains(strings.ToLower(c.Location), strings.ToLower(f.Location)):
			continue
		case f.Availability != "" && c.Availability != f.Availability:
			continue
		case f.MinScore > 0 && c.AvgRating < f.MinScore:
			continue
		}
		cp := *c
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return less(matched[i], matched[j]) })
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

// creatorLess mirrors the repository's ORDER BY for each sort name, id breaking ties.
func creatorLess(sortBy string) func(a, b *model.Creator) bool {
	return func(a, b *model.Creator) bool {
		switch sortBy {
		case model.CreatorSortTotalJobs:
			if a.TotalJobsCompleted != b.TotalJobsCompleted {
				return a.TotalJobsCompleted > b.TotalJobsCompleted
			}
		case model.CreatorSortRateAsc:
			if a.BaseRateKobo != b.BaseRateKobo {
				return a.BaseRateKobo < b.BaseRateKobo
			}
		default:
			if a.AvgRating != b.AvgRating {
				return a.AvgRating > b.AvgRating
			}
		}
		return a.ID < b.ID
	}
}

// BrandRepo implements repository.BrandRepositoryInterface over a Store.
type BrandRepo struct{ S *Store }

func (r *BrandRepo) GetByUserID(_ context.Context, userID string) (*model.Brand, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	for _, b := range r.S.brands {
		if b.UserID == userID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, appErrors.NewNotFound("brand", userID)
}

// PaymentRepo implements repository.PaymentRepositoryInterface over a Store.
type PaymentRepo struct{ S *Store }

func (r *PaymentRepo) Settle(_ context.Context, reference, providerID string) (*repository.Settlement, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.FailSettle != nil {
		return nil, r.S.FailSettle
	}
	pay, ok := r.S.payments[reference]
	if !ok {
		return nil, appErrors.NewNotFound("payment", reference)
	}
	prop, ok := r.S.proposals[pay.ProposalID]
	if !ok {
		return nil, appErrors.NewNotFound("proposal", pay.ProposalID)
	}
	pay.Status = model.PaymentSuccess
	if providerID != "" {
		pay.PaystackRef = providerID
	}
	s := &repository.Settlement{PriorProposalStatus: prop.Status}
	if prop.Status == model.ProposalAccepted {
		prop.Status = model.ProposalCompleted
		s.Completed = true
	}
	cp := *pay
	s.Payment = &cp
	return s, nil
}

// NotificationRepo implements repository.NotificationRepositoryInterface over a Store.
type NotificationRepo struct{ S *Store }

func (r *NotificationRepo) Create(_ context.Context, n *model.Notification) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.FailNotify != nil {
		return r.S.FailNotify
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = time.Now().UTC()
	cp := *n
	r.S.notifications = append(r.S.notifications, &cp)
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

var (
	_ repository.CampaignRepositoryInterface     = (*CampaignRepo)(nil)
	_ repository.ProposalRepositoryInterface     = (*ProposalRepo)(nil)
	_ repository.CreatorRepositoryInterface      = (*CreatorRepo)(nil)
	_ repository.BrandRepositoryInterface        = (*BrandRepo)(nil)
	_ repository.PaymentRepositoryInterface      = (*PaymentRepo)(nil)
	_ repository.NotificationRepositoryInterface = (*NotificationRepo)(nil)
	_ ai.QualityGate                             = (*FakeGate)(nil)
)
