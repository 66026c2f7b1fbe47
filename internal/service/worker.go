package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/unclebandit/creatorhub-backend/internal/auth"
	appErrors "github.com/unclebandit/creatorhub-backend/internal/errors"
	"github.com/unclebandit/creatorhub-backend/internal/queue"
)

// QualityChecker is the part of QualityCheckService the worker needs.
type QualityChecker interface {
	TriggerQualityCheck(ctx context.Context, principal auth.Principal, proposalID string) (*QualityCheckOutcome, error)
}

// Worker processes AI-check jobs
type Worker struct {
	Checks QualityChecker
	Logger *slog.Logger
}

func NewWorker(checks QualityChecker, logger *slog.Logger) *Worker {
	return &Worker{Checks: checks, Logger: loggerOrDiscard(logger)}
}

// HandleJob runs one check per delivery. Outcomes that a redelivery cannot
// change are logged and swallowed; only an undecodable payload is returned.
func (w *Worker) HandleJob(ctx context.Context, payload []byte) error {
	log := loggerOrDiscard(w.Logger)
	job, err := queue.DecodeAICheckJob(payload)
	if err != nil {
		log.Error("invalid ai check job", "error", err)
		return err
	}
	log = log.With("proposal_id", job.ProposalID)

	outcome, err := w.Checks.TriggerQualityCheck(ctx, auth.WorkerPrincipal(), job.ProposalID)
	switch {
	case err == nil && outcome.AlreadyChecked:
		log.Info("proposal already checked, skipping")
	case err == nil:
		log.Info("ai check job done", "status", outcome.Status)
	case errors.Is(err, appErrors.ErrCheckInProgress), errors.Is(err, appErrors.ErrInvalidTransition):
		log.Info("ai check job skipped", "reason", err)
	case appErrors.IsNotFound(err):
		log.Warn("ai check job for missing proposal", "error", err)
	default:
		log.Error("ai check job failed", "error", err)
	}
	return nil
}
