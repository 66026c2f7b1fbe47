// internal/model/campaign.go
package model

import "time"

const (
	CampaignDraft  = "DRAFT"
	CampaignActive = "ACTIVE"
	CampaignClosed = "CLOSED"
)

type Campaign struct {
	ID             string     `db:"id" json:"id"`
	BrandID        string     `db:"brand_id" json:"brand_id"`
	Title          string     `db:"title" json:"title"`
	Description    string     `db:"description" json:"description"`
	Requirements   string     `db:"requirements" json:"requirements"`
	Deliverables   []string   `db:"deliverables" json:"deliverables"`
	Niches         []string   `db:"niches" json:"niches"`
	Platforms      []string   `db:"platforms" json:"platforms"`
	BudgetKobo     int64      `db:"budget_kobo" json:"budget_kobo"`
	Deadline       time.Time  `db:"deadline" json:"deadline"`
	Status         string     `db:"status" json:"status"`
	QualifiedCount int        `db:"qualified_count" json:"qualified_count"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Brief is the text the quality gate scores a proposal against.
func (c *Campaign) Brief() string {
	return c.Description + "\n\nRequirements: " + c.Requirements
}
