// internal/model/proposal.go
package model

import "time"

const (
	ProposalSubmitted     = "SUBMITTED"
	ProposalUnderAIReview = "UNDER_AI_REVIEW"
	ProposalQualified     = "QUALIFIED"
	ProposalNotQualified  = "NOT_QUALIFIED"
	ProposalAccepted      = "ACCEPTED"
	ProposalRejected      = "REJECTED"
	ProposalCompleted     = "COMPLETED"
)

type Proposal struct {
	ID             string     `db:"id" json:"id"`
	CampaignID     string     `db:"campaign_id" json:"campaign_id"`
	CreatorID      string     `db:"creator_id" json:"creator_id"`
	Pitch          string     `db:"pitch" json:"pitch"`
	PitchVideoURL  string     `db:"pitch_video_url" json:"pitch_video_url,omitempty"`
	RateKobo       int64      `db:"rate_kobo" json:"rate_kobo"`
	Status         string     `db:"status" json:"status"`
	OverallScore   *int       `db:"ai_score" json:"ai_score,omitempty"`
	VideoScore     *int       `db:"ai_video_score" json:"ai_video_score,omitempty"`
	AudioScore     *int       `db:"ai_audio_score" json:"ai_audio_score,omitempty"`
	RelevanceScore *int       `db:"ai_relevance_score" json:"ai_relevance_score,omitempty"`
	AIFeedback     string     `db:"ai_feedback" json:"ai_feedback,omitempty"`
	AICheckedAt    *time.Time `db:"ai_checked_at" json:"ai_checked_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// ProposalScores is what a successful AI check writes back in one update.
type ProposalScores struct {
	OverallScore   int
	VideoScore     int
	AudioScore     int
	RelevanceScore int
	Feedback       string
	Qualified      bool
	CheckedAt      time.Time
}

// FinalStatus is the terminal AI-review status for these scores.
func (s ProposalScores) FinalStatus() string {
	if s.Qualified {
		return ProposalQualified
	}
	return ProposalNotQualified
}
