// internal/analytics/domain.go
package analytics

// Ranking limits and score weights.
const (
	TopBooksLimit        = 10
	RecommendationsLimit = 5
	RecentWindowDays     = 30

	TotalWeight  = 0.4
	RecentWeight = 0.6
)

// BookCount is the number of borrow events recorded for one book.
type BookCount struct {
	Key   string `json:"key"`
	Title string `json:"title,omitempty"`
	Count int    `json:"count"`
}

// CategoryCount is the number of borrow events attributed to one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Bucket is a borrow count for one day, ISO week or month.
type Bucket struct {
	Period string `json:"period"`
	Count  int    `json:"count"`
}

// Trends holds the time-bucketed borrow counts, each in chronological order.
type Trends struct {
	Daily   []Bucket `json:"daily"`
	Weekly  []Bucket `json:"weekly"`
	Monthly []Bucket `json:"monthly"`
}

// Score is the composite popularity of one book.
type Score struct {
	Key           string  `json:"key"`
	Title         string  `json:"title,omitempty"`
	TotalBorrows  int     `json:"total_borrows"`
	RecentBorrows int     `json:"recent_borrows"`
	Score         float64 `json:"score"`
}

// Result is the full analytics aggregate.
type Result struct {
	TotalBorrows          int             `json:"total_borrows"`
	ActiveLoans           int             `json:"active_loans"`
	AverageLoanDurationMs float64         `json:"average_loan_duration_ms"`
	TopBooks              []BookCount     `json:"top_books"`
	GenrePopularity       []CategoryCount `json:"genre_popularity"`
	Trends                Trends          `json:"trends"`
	Recommendations       []Score         `json:"recommendations"`
}
