package model

const (
	CreatorAvailable = "AVAILABLE"
	CreatorBusy      = "BUSY"
)

// Creator sort orders accepted by discovery.
const (
	CreatorSortRating    = "avgRating"
	CreatorSortTotalJobs = "totalJobs"
	CreatorSortRateAsc   = "rate_asc"
)

type Creator struct {
	ID                 string   `db:"id" json:"id"`
	UserID             string   `db:"user_id" json:"-"`
	Username           string   `db:"username" json:"username"`
	DisplayName        string   `db:"display_name" json:"display_name"`
	Tagline            string   `db:"tagline" json:"tagline,omitempty"`
	Location           string   `db:"location" json:"location,omitempty"`
	Niches             []string `db:"niches" json:"niches"`
	Platforms          []string `db:"platforms" json:"platforms"`
	BaseRateKobo       int64    `db:"base_rate_kobo" json:"base_rate_kobo"`
	Availability       string   `db:"availability" json:"availability"`
	IsVerified         bool     `db:"is_verified" json:"is_verified"`
	TotalJobsCompleted int      `db:"total_jobs_completed" json:"total_jobs_completed"`
	AvgRating          float64  `db:"avg_rating" json:"avg_rating"`
	TotalReviews       int      `db:"total_reviews" json:"total_reviews"`
}

// CreatorFilter narrows a creator discovery query. Zero fields do not filter.
type CreatorFilter struct {
	Niche        string
	Platform     string
	Location     string
	Availability string
	MinScore     float64
	SortBy       string
	// Cursor is the id of the last creator on the previous page.
	Cursor string
	Limit  int
}

type Brand struct {
	ID          string `db:"id" json:"id"`
	UserID      string `db:"user_id" json:"user_id"`
	CompanyName string `db:"company_name" json:"company_name"`
}
