package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	appErrors "github.com/unclebandit/creatorhub-backend/internal/errors"
	"github.com/unclebandit/creatorhub-backend/internal/model"
)

// Settlement describes what a successful charge did to the payment and its proposal.
type Settlement struct {
	Payment *model.Payment
	// PriorProposalStatus is the proposal status read inside the settlement transaction.
	PriorProposalStatus string
	// Completed is true when this settlement moved the proposal from ACCEPTED to COMPLETED.
	Completed bool
}

type PaymentRepositoryInterface interface {
	// Settle marks the payment SUCCESS and completes an ACCEPTED proposal in one transaction.
	// An empty providerID keeps the stored provider reference.
	Settle(ctx context.Context, reference, providerID string) (*Settlement, error)
}

type PaymentRepository struct {
	DB *sql.DB
}

func (r *PaymentRepository) Settle(ctx context.Context, reference, providerID string) (*Settlement, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin settlement: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var p model.Payment
	err = tx.QueryRowContext(ctx, `
		UPDATE payments SET status=$1, paystack_ref=COALESCE(NULLIF($2, ''), paystack_ref), updated_at=NOW()
		WHERE reference=$3
		RETURNING id, proposal_id, reference, amount_kobo, status, paystack_ref, created_at, updated_at
	`, model.PaymentSuccess, providerID, reference).Scan(
		&p.ID, &p.ProposalID, &p.Reference, &p.AmountKobo, &p.Status, &p.PaystackRef, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("payment", reference)
		}
		return nil, fmt.Errorf("update payment: %w", err)
	}

	s := &Settlement{Payment: &p}
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM proposals WHERE id=$1 FOR UPDATE`, p.ProposalID,
	).Scan(&s.PriorProposalStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("proposal", p.ProposalID)
		}
		return nil, fmt.Errorf("lock proposal: %w", err)
	}

	if s.PriorProposalStatus == model.ProposalAccepted {
		if _, err := tx.ExecContext(ctx,
			`UPDATE proposals SET status=$1, updated_at=NOW() WHERE id=$2`,
			model.ProposalCompleted, p.ProposalID); err != nil {
			return nil, fmt.Errorf("complete proposal: %w", err)
		}
		s.Completed = true
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit settlement: %w", err)
	}
	return s, nil
}

var _ PaymentRepositoryInterface = (*PaymentRepository)(nil)
