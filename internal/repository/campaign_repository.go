package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	appErrors "github.com/unclebandit/creatorhub-backend/internal/errors"
	"github.com/unclebandit/creatorhub-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	ListActive(ctx context.Context, niche string, offset, limit int) ([]*model.Campaign, int, error)
	// IncrementQualifiedCount bumps qualified_count in a single statement.
	IncrementQualifiedCount(ctx context.Context, id string) error
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, brand_id, title, description, requirements, deliverables, niches, platforms,
	budget_kobo, deadline, status, qualified_count, created_at, updated_at`

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = model.CampaignActive
	}
	c.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO campaigns (id, brand_id, title, description, requirements, deliverables, niches, platforms,
			budget_kobo, deadline, status, qualified_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $12)
	`
	_, err := r.DB.ExecContext(ctx, query,
		c.ID, c.BrandID, c.Title, c.Description, c.Requirements,
		pq.Array(c.Deliverables), pq.Array(c.Niches), pq.Array(c.Platforms),
		c.BudgetKobo, c.Deadline, c.Status, c.CreatedAt,
	)
	return err
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id=$1`, id)
	c, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("campaign", id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) ListActive(ctx context.Context, niche string, offset, limit int) ([]*model.Campaign, int, error) {
	where := ` WHERE status=$1`
	args := []interface{}{model.CampaignActive}
	if niche != "" {
		where += ` AND $2 = ANY(niches)`
		args = append(args, niche)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + campaignColumns + ` FROM campaigns` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := r.DB.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, total, rows.Err()
}

func (r *CampaignRepository) IncrementQualifiedCount(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE campaigns SET qualified_count = qualified_count + 1, updated_at = NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("campaign", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var c model.Campaign
	var deliverables, niches, platforms pq.StringArray
	err := row.Scan(&c.ID, &c.BrandID, &c.Title, &c.Description, &c.Requirements,
		&deliverables, &niches, &platforms,
		&c.BudgetKobo, &c.Deadline, &c.Status, &c.QualifiedCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Deliverables = []string(deliverables)
	c.Niches = []string(niches)
	c.Platforms = []string(platforms)
	return &c, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
