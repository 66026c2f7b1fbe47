package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	appErrors "github.com/unclebandit/creatorhub-backend/internal/errors"
	"github.com/unclebandit/creatorhub-backend/internal/model"
)

type ProposalRepositoryInterface interface {
	Create(ctx context.Context, p *model.Proposal) error
	GetByID(ctx context.Context, id string) (*model.Proposal, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]*model.Proposal, error)
	CountByStatus(ctx context.Context, campaignID string) (map[string]int, error)

	// ClaimForAICheck moves an unchecked SUBMITTED proposal to UNDER_AI_REVIEW. An unchecked
	// proposal that has sat in UNDER_AI_REVIEW for longer than staleAfter is taken over too.
	// It reports false when another caller got there first or the proposal is not eligible.
	ClaimForAICheck(ctx context.Context, id string, staleAfter time.Duration) (bool, error)
	// CompleteAICheck writes scores and the terminal AI status, only from UNDER_AI_REVIEW.
	CompleteAICheck(ctx context.Context, id string, scores model.ProposalScores) (bool, error)
	// RevertAICheck puts an UNDER_AI_REVIEW proposal back to SUBMITTED.
	RevertAICheck(ctx context.Context, id string) error
	// TransitionStatus sets status to `to` if the current status is one of `from`.
	TransitionStatus(ctx context.Context, id string, from []string, to string) (bool, error)
}

type ProposalRepository struct {
	DB *sql.DB
}

const proposalColumns = `id, campaign_id, creator_id, pitch, pitch_video_url, rate_kobo, status,
	ai_score, ai_video_score, ai_audio_score, ai_relevance_score, ai_feedback, ai_checked_at,
	created_at, updated_at`

func (r *ProposalRepository) Create(ctx context.Context, p *model.Proposal) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Status = model.ProposalSubmitted
	p.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO proposals (id, campaign_id, creator_id, pitch, pitch_video_url, rate_kobo, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.DB.ExecContext(ctx, query,
		p.ID, p.CampaignID, p.CreatorID, p.Pitch, p.PitchVideoURL, p.RateKobo, p.Status, p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return appErrors.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ProposalRepository) GetByID(ctx context.Context, id string) (*model.Proposal, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE id=$1`, id)
	p, err := scanProposal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("proposal", id)
		}
		return nil, err
	}
	return p, nil
}

func (r *ProposalRepository) ListByCampaign(ctx context.Context, campaignID string) ([]*model.Proposal, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+proposalColumns+` FROM proposals WHERE campaign_id=$1 ORDER BY ai_score DESC NULLS LAST, created_at ASC`,
		campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	proposals := []*model.Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}
	return proposals, rows.Err()
}

func (r *ProposalRepository) CountByStatus(ctx context.Context, campaignID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM proposals WHERE campaign_id=$1 GROUP BY status`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func (r *ProposalRepository) ClaimForAICheck(ctx context.Context, id string, staleAfter time.Duration) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE proposals SET status=$1, updated_at=NOW()
		WHERE id=$2 AND ai_checked_at IS NULL
			AND (status=$3 OR (status=$1 AND updated_at < NOW() - make_interval(secs => $4)))
	`, model.ProposalUnderAIReview, id, model.ProposalSubmitted, staleAfter.Seconds())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *ProposalRepository) CompleteAICheck(ctx context.Context, id string, s model.ProposalScores) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE proposals
		SET ai_score=$1, ai_video_score=$2, ai_audio_score=$3, ai_relevance_score=$4,
			ai_feedback=$5, ai_checked_at=$6, status=$7, updated_at=NOW()
		WHERE id=$8 AND status=$9
	`, s.OverallScore, s.VideoScore, s.AudioScore, s.RelevanceScore,
		s.Feedback, s.CheckedAt, s.FinalStatus(), id, model.ProposalUnderAIReview)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *ProposalRepository) RevertAICheck(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE proposals SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`,
		model.ProposalSubmitted, id, model.ProposalUnderAIReview)
	return err
}

func (r *ProposalRepository) TransitionStatus(ctx context.Context, id string, from []string, to string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE proposals SET status=$1, updated_at=NOW() WHERE id=$2 AND status = ANY($3)`,
		to, id, pq.Array(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func scanProposal(row rowScanner) (*model.Proposal, error) {
	var p model.Proposal
	var overall, video, audio, relevance sql.NullInt64
	err := row.Scan(&p.ID, &p.CampaignID, &p.CreatorID, &p.Pitch, &p.PitchVideoURL, &p.RateKobo, &p.Status,
		&overall, &video, &audio, &relevance, &p.AIFeedback, &p.AICheckedAt,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.OverallScore = nullableInt(overall)
	p.VideoScore = nullableInt(video)
	p.AudioScore = nullableInt(audio)
	p.RelevanceScore = nullableInt(relevance)
	return &p, nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

var _ ProposalRepositoryInterface = (*ProposalRepository)(nil)
