package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/unclebandit/creatorhub-backend/internal/auth"
	appErrors "github.com/unclebandit/creatorhub-backend/internal/errors"
	"github.com/unclebandit/creatorhub-backend/internal/model"
	"github.com/unclebandit/creatorhub-backend/internal/queue"
	"github.com/unclebandit/creatorhub-backend/internal/repository"
)

// DefaultAICheckQueue is the queue name proposal submissions publish to.
const DefaultAICheckQueue = "proposal_ai_checks"

type ProposalService struct {
	ProposalRepo     repository.ProposalRepositoryInterface
	CampaignRepo     repository.CampaignRepositoryInterface
	CreatorRepo      repository.CreatorRepositoryInterface
	BrandRepo        repository.BrandRepositoryInterface
	NotificationRepo repository.NotificationRepositoryInterface
	Queue            queue.Queue
	AICheckQueue     string
	Logger           *slog.Logger
}

type SubmitProposalInput struct {
	Pitch         string `json:"pitch"`
	PitchVideoURL string `json:"pitch_video_url"`
	RateKobo      int64  `json:"rate_kobo"`
}

var (
	acceptableFrom = []string{model.ProposalSubmitted, model.ProposalQualified, model.ProposalNotQualified}
	declinableFrom = []string{
		model.ProposalSubmitted, model.ProposalUnderAIReview, model.ProposalQualified,
		model.ProposalNotQualified, model.ProposalAccepted,
	}
)

// SubmitProposal records a creator's pitch and queues it for the AI check.
func (s *ProposalService) SubmitProposal(ctx context.Context, principal auth.Principal, campaignID string, in SubmitProposalInput) (*model.Proposal, error) {
	if principal.IsAnonymous() {
		return nil, appErrors.ErrUnauthorized
	}
	if !principal.IsCreator() {
		return nil, appErrors.ErrForbidden
	}
	if strings.TrimSpace(in.Pitch) == "" {
		return nil, appErrors.Validation("pitch", "is required")
	}
	if in.RateKobo <= 0 {
		return nil, appErrors.Validation("rate_kobo", "must be positive")
	}

	creator, err := s.CreatorRepo.GetByUserID(ctx, principal.UserID)
	if err != nil {
		if appErrors.IsNotFound(err) {
			return nil, appErrors.ErrForbidden
		}
		return nil, err
	}

	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != model.CampaignActive {
		return nil, appErrors.Validation("campaign_id", "campaign is not accepting proposals")
	}

	p := &model.Proposal{
		CampaignID:    campaign.ID,
		CreatorID:     creator.ID,
		Pitch:         in.Pitch,
		PitchVideoURL: strings.TrimSpace(in.PitchVideoURL),
		RateKobo:      in.RateKobo,
	}
	if err := s.ProposalRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.enqueueAICheck(ctx, p.ID)
	return p, nil
}

func (s *ProposalService) enqueueAICheck(ctx context.Context, proposalID string) {
	log := loggerOrDiscard(s.Logger).With("proposal_id", proposalID)
	if s.Queue == nil {
		log.Warn("no queue configured, proposal waits for a manual ai check")
		return
	}
	topic := s.AICheckQueue
	if topic == "" {
		topic = DefaultAICheckQueue
	}

	payload, err := queue.EncodeAICheckJob(proposalID)
	if err == nil {
		err = s.Queue.Publish(ctx, topic, payload)
	}
	if err != nil {
		log.Error("failed to enqueue ai check", "queue", topic, "error", err)
	}
}

// ListCampaignProposals returns proposals best-scored first, unscored last.
func (s *ProposalService) ListCampaignProposals(ctx context.Context, principal auth.Principal, campaignID string) ([]*model.Proposal, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() {
		if err := s.requireOwner(ctx, principal, campaign); err != nil {
			return nil, err
		}
	}
	return s.ProposalRepo.ListByCampaign(ctx, campaignID)
}

func (s *ProposalService) AcceptProposal(ctx context.Context, principal auth.Principal, proposalID string) (*model.Proposal, error) {
	return s.decide(ctx, principal, proposalID, acceptableFrom, model.ProposalAccepted, decisionNotice{
		kind:  model.NotificationProposalAccepted,
		title: "Proposal Accepted!",
		body:  "Your proposal for %q was accepted. Time to start creating.",
	})
}

func (s *ProposalService) DeclineProposal(ctx context.Context, principal auth.Principal, proposalID string) (*model.Proposal, error) {
	return s.decide(ctx, principal, proposalID, declinableFrom, model.ProposalRejected, decisionNotice{
		kind:  model.NotificationProposalDeclined,
		title: "Proposal Declined",
		body:  "Your proposal for %q was declined by the brand.",
	})
}

type decisionNotice struct {
	kind  string
	title string
	body  string
}

func (s *ProposalService) decide(ctx context.Context, principal auth.Principal, proposalID string, from []string, to string, notice decisionNotice) (*model.Proposal, error) {
	proposal, err := s.ProposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	campaign, err := s.CampaignRepo.GetByID(ctx, proposal.CampaignID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, principal, campaign); err != nil {
		return nil, err
	}

	moved, err := s.ProposalRepo.TransitionStatus(ctx, proposalID, from, to)
	if err != nil {
		return nil, err
	}
	if !moved {
		current, err := s.ProposalRepo.GetByID(ctx, proposalID)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s -> %s", appErrors.ErrInvalidTransition, current.Status, to)
	}
	proposal.Status = to

	log := loggerOrDiscard(s.Logger).With("proposal_id", proposalID, "status", to)
	creator, err := s.CreatorRepo.GetByID(ctx, proposal.CreatorID)
	if err != nil {
		log.Error("could not load creator for decision notice", "error", err)
		return proposal, nil
	}
	n := &model.Notification{
		UserID:  creator.UserID,
		Type:    notice.kind,
		Title:   notice.title,
		Message: fmt.Sprintf(notice.body, campaign.Title),
		Link:    creatorProposalsLink,
	}
	if err := s.NotificationRepo.Create(ctx, n); err != nil {
		log.Error("could not write decision notice", "error", err)
	}
	log.Info("proposal decided")
	return proposal, nil
}

func (s *ProposalService) requireOwner(ctx context.Context, principal auth.Principal, campaign *model.Campaign) error {
	if principal.IsAnonymous() {
		return appErrors.ErrUnauthorized
	}
	if !principal.IsBrand() {
		return appErrors.ErrForbidden
	}
	brand, err := s.BrandRepo.GetByUserID(ctx, principal.UserID)
	if err != nil {
		if appErrors.IsNotFound(err) {
			return appErrors.ErrForbidden
		}
		return err
	}
	if brand.ID != campaign.BrandID {
		return appErrors.ErrForbidden
	}
	return nil
}
