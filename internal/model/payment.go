// internal/model/payment.go
package model

import "time"

const (
	PaymentPending = "PENDING"
	PaymentSuccess = "SUCCESS"
	PaymentFailed  = "FAILED"
)

type Payment struct {
	ID          string     `db:"id" json:"id"`
	ProposalID  string     `db:"proposal_id" json:"proposal_id"`
	Reference   string     `db:"reference" json:"reference"`
	AmountKobo  int64      `db:"amount_kobo" json:"amount_kobo"`
	Status      string     `db:"status" json:"status"`
	PaystackRef string     `db:"paystack_ref" json:"paystack_ref,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
