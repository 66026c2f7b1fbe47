package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/creatorhub-backend/internal/errors"
	"github.com/unclebandit/creatorhub-backend/internal/model"
)

// CreatorRepositoryInterface defines methods used by service
type CreatorRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*model.Creator, error)
	GetByUserID(ctx context.Context, userID string) (*model.Creator, error)
	// Search returns up to f.Limit creators after f.Cursor in the order f.SortBy names.
	Search(ctx context.Context, f model.CreatorFilter) ([]*model.Creator, error)
}

// BrandRepositoryInterface resolves the brand profile behind a session user.
type BrandRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID string) (*model.Brand, error)
}

// CreatorRepository is the concrete implementation
type CreatorRepository struct {
	DB *sql.DB
}

const creatorColumns = `c.id, c.user_id, c.username, c.display_name, c.tagline, c.location, c.niches, c.platforms,
	c.base_rate_kobo, c.availability, c.is_verified, c.total_jobs_completed, c.avg_rating, c.total_reviews`

func (r *CreatorRepository) GetByID(ctx context.Context, id string) (*model.Creator, error) {
	return r.getOne(ctx, `WHERE c.id = $1`, id)
}

func (r *CreatorRepository) GetByUserID(ctx context.Context, userID string) (*model.Creator, error) {
	return r.getOne(ctx, `WHERE c.user_id = $1`, userID)
}

func (r *CreatorRepository) getOne(ctx context.Context, where, arg string) (*model.Creator, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+creatorColumns+` FROM creators c `+where, arg)
	c, err := scanCreator(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("creator", arg)
		}
		return nil, err
	}
	return c, nil
}

type creatorOrder struct {
	column string
	desc   bool
}

var creatorOrders = map[string]creatorOrder{
	model.CreatorSortRating:    {column: "avg_rating", desc: true},
	model.CreatorSortTotalJobs: {column: "total_jobs_completed", desc: true},
	model.CreatorSortRateAsc:   {column: "base_rate_kobo"},
}

// creatorOrderFor falls back to rating order for unknown sort names.
func creatorOrderFor(sortBy string) creatorOrder {
	if o, ok := creatorOrders[sortBy]; ok {
		return o
	}
	return creatorOrders[model.CreatorSortRating]
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search pages with a keyset on (sort column, id); an unknown cursor yields no rows.
func (r *CreatorRepository) Search(ctx context.Context, f model.CreatorFilter) ([]*model.Creator, error) {
	order := creatorOrderFor(f.SortBy)
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	from := ` FROM creators c`
	var conds []string
	if f.Cursor != "" {
		from += fmt.Sprintf(`, (SELECT id, %s FROM creators WHERE id = %s) cur`, order.column, arg(f.Cursor))
		cmp := ">"
		if order.desc {
			cmp = "<"
		}
		conds = append(conds, fmt.Sprintf(`(c.%[1]s %[2]s cur.%[1]s OR (c.%[1]s = cur.%[1]s AND c.id > cur.id))`, order.column, cmp))
	}
	if f.Niche != "" {
		conds = append(conds, arg(f.Niche)+` = ANY(c.niches)`)
	}
	if f.Platform != "" {
		conds = append(conds, arg(f.Platform)+` = ANY(c.platforms)`)
	}
	if f.Location != "" {
		conds = append(conds, `c.location ILIKE '%' || `+arg(likeEscaper.Replace(f.Location))+` || '%'`)
	}
	if f.Availability != "" {
		conds = append(conds, `c.availability = `+arg(f.Availability))
	}
	if f.MinScore > 0 {
		conds = append(conds, `c.avg_rating >= `+arg(f.MinScore))
	}

	query := `SELECT ` + creatorColumns + from
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	direction := "ASC"
	if order.desc {
		direction = "DESC"
	}
	query += fmt.Sprintf(` ORDER BY c.%s %s, c.id ASC LIMIT %s`, order.column, direction, arg(f.Limit))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	creators := []*model.Creator{}
	for rows.Next() {
		c, err := scanCreator(rows)
		if err != nil {
			return nil, err
		}
		creators = append(creators, c)
	}
	return creators, rows.Err()
}

func scanCreator(row rowScanner) (*model.Creator, error) {
	var c model.Creator
	var niches, platforms pq.StringArray
	err := row.Scan(&c.ID, &c.UserID, &c.Username, &c.DisplayName, &c.Tagline, &c.Location, &niches, &platforms,
		&c.BaseRateKobo, &c.Availability, &c.IsVerified, &c.TotalJobsCompleted, &c.AvgRating, &c.TotalReviews)
	if err != nil {
		return nil, err
	}
	c.Niches = []string(niches)
	c.Platforms = []string(platforms)
	return &c, nil
}

type BrandRepository struct {
	DB *sql.DB
}

func (r *BrandRepository) GetByUserID(ctx context.Context, userID string) (*model.Brand, error) {
	var b model.Brand
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, company_name FROM brands WHERE user_id = $1`, userID,
	).Scan(&b.ID, &b.UserID, &b.CompanyName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("brand", userID)
		}
		return nil, err
	}
	return &b, nil
}

var (
	_ CreatorRepositoryInterface = (*CreatorRepository)(nil)
	_ BrandRepositoryInterface   = (*BrandRepository)(nil)
)
