// internal/model/notification.go
package model

import "time"

const (
	NotificationProposalQualified = "PROPOSAL_QUALIFIED"
	NotificationProposalRejected  = "PROPOSAL_REJECTED"
	NotificationProposalAccepted  = "PROPOSAL_ACCEPTED"
	NotificationProposalDeclined  = "PROPOSAL_DECLINED"
)

type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Type      string    `db:"type" json:"type"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Link      string    `db:"link" json:"link,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
