package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	appErrors "github.com/unclebandit/creatorhub-backend/internal/errors"
	"github.com/unclebandit/creatorhub-backend/internal/lock"
	"github.com/unclebandit/creatorhub-backend/internal/metrics"
	"github.com/unclebandit/creatorhub-backend/internal/model"
	"github.com/unclebandit/creatorhub-backend/internal/paystack"
	"github.com/unclebandit/creatorhub-backend/internal/repository"
)

type WebhookResult string

const (
	WebhookIgnored          WebhookResult = "ignored"
	WebhookUnknownReference WebhookResult = "unknown_reference"
	WebhookSettled          WebhookResult = "settled"
	WebhookDuplicate        WebhookResult = "duplicate"
	WebhookStatusMismatch   WebhookResult = "status_mismatch"
)

// PaymentService reconciles provider charge events with payments and proposals.
type PaymentService struct {
	PaymentRepo repository.PaymentRepositoryInterface
	Secret      string

	// Locker serialises settlements per reference; nil relies on the row locks alone.
	Locker lock.Locker
	Logger *slog.Logger
}

type WebhookOutcome struct {
	Result     WebhookResult `json:"result"`
	Reference  string        `json:"reference,omitempty"`
	ProposalID string        `json:"proposal_id,omitempty"`
}

// HandleWebhook verifies and applies one provider event. Every authentic event
// that is not a processing failure is acknowledged, including ones it ignores.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) (*WebhookOutcome, error) {
	log := loggerOrDiscard(s.Logger)

	if err := paystack.VerifySignature(s.Secret, body, signature); err != nil {
		metrics.IncWebhookEvent("invalid_signature")
		return nil, fmt.Errorf("%w: %w", appErrors.ErrUnauthorized, err)
	}

	event, err := paystack.ParseEvent(body)
	if err != nil {
		metrics.IncWebhookEvent("malformed")
		return nil, err
	}

	if !event.IsChargeSuccess() || event.Data.Reference == "" {
		log.Info("ignoring webhook event", "event", event.Event, "status", event.Data.Status)
		return s.done(&WebhookOutcome{Result: WebhookIgnored, Reference: event.Data.Reference}), nil
	}

	ref := event.Data.Reference
	log = log.With("reference", ref)

	if s.Locker != nil {
		release, err := s.Locker.Acquire(ctx, "payment:"+ref)
		if err != nil {
			if errors.Is(err, lock.ErrNotAcquired) {
				log.Warn("settlement already running for reference, asking for redelivery")
			}
			metrics.IncWebhookEvent("lock_failed")
			return nil, fmt.Errorf("lock payment %s: %w", ref, err)
		}
		defer release()
	}

	settlement, err := s.PaymentRepo.Settle(ctx, ref, event.ProviderID())
	if err != nil {
		if appErrors.IsNotFound(err) {
			log.Warn("charge for unknown payment reference", "error", err)
			return s.done(&WebhookOutcome{Result: WebhookUnknownReference, Reference: ref}), nil
		}
		metrics.IncWebhookEvent("failed")
		return nil, fmt.Errorf("settle payment %s: %w", ref, err)
	}

	out := &WebhookOutcome{Reference: ref, ProposalID: settlement.Payment.ProposalID}
	switch {
	case settlement.Completed:
		out.Result = WebhookSettled
		log.Info("payment settled, proposal completed", "proposal_id", out.ProposalID)
	case settlement.PriorProposalStatus == model.ProposalCompleted:
		out.Result = WebhookDuplicate
		log.Info("duplicate charge event for completed proposal", "proposal_id", out.ProposalID)
	default:
		out.Result = WebhookStatusMismatch
		log.Error("payment succeeded for proposal that is not ACCEPTED",
			"proposal_id", out.ProposalID, "proposal_status", settlement.PriorProposalStatus)
	}
	return s.done(out), nil
}

func (s *PaymentService) done(out *WebhookOutcome) *WebhookOutcome {
	metrics.IncWebhookEvent(string(out.Result))
	return out
}
