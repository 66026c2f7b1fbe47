package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/unclebandit/creatorhub-backend/internal/ai"
	"github.com/unclebandit/creatorhub-backend/internal/auth"
	appErrors "github.com/unclebandit/creatorhub-backend/internal/errors"
	"github.com/unclebandit/creatorhub-backend/internal/metrics"
	"github.com/unclebandit/creatorhub-backend/internal/model"
	"github.com/unclebandit/creatorhub-backend/internal/repository"
)

const creatorProposalsLink = "/creator/proposals"

// DefaultStaleReviewAfter is how long a proposal may sit in UNDER_AI_REVIEW before
// another trigger may take the check over from a process that died mid-review.
const DefaultStaleReviewAfter = 5 * time.Minute

// QualityCheckService runs the AI quality gate over a submitted proposal.
type QualityCheckService struct {
	ProposalRepo     repository.ProposalRepositoryInterface
	CampaignRepo     repository.CampaignRepositoryInterface
	CreatorRepo      repository.CreatorRepositoryInterface
	NotificationRepo repository.NotificationRepositoryInterface
	Gate             ai.QualityGate
	Logger           *slog.Logger
	Now              func() time.Time

	// StaleReviewAfter must outlast a gate call; zero means DefaultStaleReviewAfter.
	StaleReviewAfter time.Duration
}

type EffectKind string

const (
	EffectIncrementQualified EffectKind = "increment_qualified"
	EffectNotify             EffectKind = "notify"
)

// Effect is a side effect of a finished check, applied after the scores are stored.
type Effect struct {
	Kind         EffectKind
	CampaignID   string
	Notification *model.Notification
	Applied      bool
}

type QualityCheckOutcome struct {
	ProposalID     string            `json:"proposal_id"`
	AlreadyChecked bool              `json:"already_checked"`
	Status         string            `json:"status"`
	Result         *ai.QualityResult `json:"result,omitempty"`
	Effects        []Effect          `json:"-"`
}

// TriggerQualityCheck scores a proposal once. A proposal with ai_checked_at set is never re-scored.
func (s *QualityCheckService) TriggerQualityCheck(ctx context.Context, principal auth.Principal, proposalID string) (*QualityCheckOutcome, error) {
	log := loggerOrDiscard(s.Logger).With("proposal_id", proposalID)

	if !principal.CanTriggerAICheck() {
		return nil, appErrors.ErrUnauthorized
	}

	proposal, err := s.ProposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.AICheckedAt != nil {
		metrics.IncAICheck("already_checked")
		return &QualityCheckOutcome{ProposalID: proposalID, AlreadyChecked: true, Status: proposal.Status}, nil
	}

	campaign, err := s.CampaignRepo.GetByID(ctx, proposal.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("load campaign for proposal %s: %w", proposalID, err)
	}
	creator, err := s.CreatorRepo.GetByID(ctx, proposal.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("load creator for proposal %s: %w", proposalID, err)
	}

	claimed, err := s.ProposalRepo.ClaimForAICheck(ctx, proposalID, s.staleReviewAfter())
	if err != nil {
		return nil, fmt.Errorf("claim proposal %s: %w", proposalID, err)
	}
	if !claimed {
		return s.lostClaim(ctx, proposalID)
	}
	if proposal.Status == model.ProposalUnderAIReview {
		log.Warn("taking over a stale ai review")
	}

	start := time.Now()
	result, err := s.Gate.CheckProposal(ctx, ai.ProposalInput{
		CampaignBrief: campaign.Brief(),
		PitchVideoURL: proposal.PitchVideoURL,
		CoverLetter:   proposal.Pitch,
		CreatorNiches: creator.Niches,
	})
	metrics.ObserveAIGate(time.Since(start).Seconds())
	if err != nil {
		log.Error("ai quality gate failed, reverting to submitted", "error", err, "failure", gateFailureKind(err))
		metrics.IncAICheck("failed")
		s.revert(ctx, log, proposalID)
		return nil, fmt.Errorf("%w: %w", appErrors.ErrAICheckFailed, err)
	}

	scores := model.ProposalScores{
		OverallScore:   result.OverallScore,
		VideoScore:     result.VideoScore,
		AudioScore:     result.AudioScore,
		RelevanceScore: result.RelevanceScore,
		Feedback:       result.Feedback,
		Qualified:      result.Qualified,
		CheckedAt:      nowOr(s.Now),
	}
	stored, err := s.ProposalRepo.CompleteAICheck(ctx, proposalID, scores)
	if err != nil {
		log.Error("storing ai scores failed, reverting to submitted", "error", err)
		metrics.IncAICheck("failed")
		s.revert(ctx, log, proposalID)
		return nil, fmt.Errorf("%w: store scores: %w", appErrors.ErrAICheckFailed, err)
	}
	if !stored {
		log.Warn("proposal left UNDER_AI_REVIEW during the check, scores discarded")
		metrics.IncAICheck("discarded")
		return nil, appErrors.ErrInvalidTransition
	}

	outcome := &QualityCheckOutcome{
		ProposalID: proposalID,
		Status:     scores.FinalStatus(),
		Result:     result,
		Effects:    PlanEffects(proposal.CampaignID, creator.UserID, result),
	}
	s.applyEffects(ctx, log, outcome.Effects)

	if result.Qualified {
		metrics.IncAICheck("qualified")
		metrics.IncQualified()
	} else {
		metrics.IncAICheck("not_qualified")
	}
	log.Info("ai quality check finished", "score", result.OverallScore, "qualified", result.Qualified)
	return outcome, nil
}

// lostClaim explains why the conditional UNDER_AI_REVIEW update matched no row.
func (s *QualityCheckService) lostClaim(ctx context.Context, proposalID string) (*QualityCheckOutcome, error) {
	current, err := s.ProposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	switch {
	case current.AICheckedAt != nil:
		metrics.IncAICheck("already_checked")
		return &QualityCheckOutcome{ProposalID: proposalID, AlreadyChecked: true, Status: current.Status}, nil
	case current.Status == model.ProposalUnderAIReview:
		return nil, appErrors.ErrCheckInProgress
	default:
		return nil, fmt.Errorf("%w: proposal is %s", appErrors.ErrInvalidTransition, current.Status)
	}
}

func (s *QualityCheckService) staleReviewAfter() time.Duration {
	if s.StaleReviewAfter > 0 {
		return s.StaleReviewAfter
	}
	return DefaultStaleReviewAfter
}

func (s *QualityCheckService) revert(ctx context.Context, log *slog.Logger, proposalID string) {
	// The request context may already be done; the revert must still land.
	revertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.ProposalRepo.RevertAICheck(revertCtx, proposalID); err != nil {
		log.Error("reverting proposal to submitted failed", "error", err)
	}
}

// PlanEffects lists what a finished check must do besides storing scores.
func PlanEffects(campaignID, creatorUserID string, result *ai.QualityResult) []Effect {
	var effects []Effect
	n := &model.Notification{UserID: creatorUserID, Link: creatorProposalsLink}
	if result.Qualified {
		effects = append(effects, Effect{Kind: EffectIncrementQualified, CampaignID: campaignID})
		n.Type = model.NotificationProposalQualified
		n.Title = "Proposal Qualified!"
		n.Message = fmt.Sprintf("Your proposal scored %d/100 and has been qualified. The brand will review it shortly.", result.OverallScore)
	} else {
		n.Type = model.NotificationProposalRejected
		n.Title = "Proposal Not Qualified"
		n.Message = fmt.Sprintf("Your proposal scored %d/100. %s", result.OverallScore, result.Feedback)
	}
	return append(effects, Effect{Kind: EffectNotify, Notification: n})
}

// applyEffects runs effects in order. A failure is logged and does not undo the stored scores.
func (s *QualityCheckService) applyEffects(ctx context.Context, log *slog.Logger, effects []Effect) {
	for i := range effects {
		e := &effects[i]
		var err error
		switch e.Kind {
		case EffectIncrementQualified:
			err = s.CampaignRepo.IncrementQualifiedCount(ctx, e.CampaignID)
		case EffectNotify:
			err = s.NotificationRepo.Create(ctx, e.Notification)
		}
		if err != nil {
			log.Error("applying check side effect failed", "effect", e.Kind, "error", err)
			continue
		}
		e.Applied = true
	}
}

func gateFailureKind(err error) string {
	var te *ai.TransportError
	switch {
	case errors.As(err, &te):
		return "transport"
	case errors.Is(err, ai.ErrMalformedResponse):
		return "malformed_response"
	}
	return "unknown"
}
