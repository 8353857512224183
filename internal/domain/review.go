package domain

import (
	"time"
)

// Review represents a review document in the search index.
// Sentiment and SentimentScore are always derived from the normalized title
// and text at write time, never supplied by callers.
type Review struct {
	ReviewID       string    `json:"review_id"`
	ProductID      string    `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Rating         int       `json:"rating"`
	ReviewTitle    string    `json:"review_title"`
	ReviewText     string    `json:"review_text"`
	CreatedAt      time.Time `json:"created_at"`
	Sentiment      string    `json:"sentiment"`
	SentimentScore float64   `json:"sentiment_score"`
}

// Sentiment labels.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// IsValidSentiment checks whether the given string is one of the three labels.
func IsValidSentiment(s string) bool {
	return s == SentimentPositive || s == SentimentNegative || s == SentimentNeutral
}

// Sort options for search results.
const (
	SortRelevance  = "relevance"
	SortNewest     = "newest"
	SortOldest     = "oldest"
	SortRatingDesc = "rating_desc"
	SortRatingAsc  = "rating_asc"
)

// ValidSortOptions returns the list of valid sort options.
func ValidSortOptions() []string {
	return []string{SortRelevance, SortNewest, SortOldest, SortRatingDesc, SortRatingAsc}
}

// IsValidSort checks whether the given sort string is a valid sort option.
func IsValidSort(sort string) bool {
	for _, s := range ValidSortOptions() {
		if s == sort {
			return true
		}
	}
	return false
}

// Trend bucketing intervals.
const (
	IntervalDay   = "day"
	IntervalWeek  = "week"
	IntervalMonth = "month"
)

// IsValidInterval checks whether the given string is a valid calendar interval.
func IsValidInterval(interval string) bool {
	return interval == IntervalDay || interval == IntervalWeek || interval == IntervalMonth
}

// ReviewPatch holds the optional fields of a partial update. Nil fields keep
// their previous values.
type ReviewPatch struct {
	ProductID   *string    `json:"product_id,omitempty"`
	ProductName *string    `json:"product_name,omitempty"`
	Rating      *int       `json:"rating,omitempty"`
	ReviewTitle *string    `json:"review_title,omitempty"`
	ReviewText  *string    `json:"review_text,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// SearchParams holds all parameters for a search request.
type SearchParams struct {
	Query     string     `json:"query"`
	ProductID *string    `json:"product_id,omitempty"`
	Sentiment *string    `json:"sentiment,omitempty"`
	MinRating *int       `json:"min_rating,omitempty"`
	MaxRating *int       `json:"max_rating,omitempty"`
	DateFrom  *time.Time `json:"date_from,omitempty"`
	DateTo    *time.Time `json:"date_to,omitempty"`
	Sort      string     `json:"sort"`
	Page      int        `json:"page"`
	Size      int        `json:"size"`
}

// SearchHit is a single search result item: the stored document fields plus
// the relevance score and highlighted fragments keyed by field.
type SearchHit struct {
	Review
	Score      float64             `json:"_score"`
	Highlights map[string][]string `json:"highlights"`
}

// SearchResult holds the paginated search response.
type SearchResult struct {
	Page  int         `json:"page"`
	Size  int         `json:"size"`
	Total int         `json:"total"`
	Items []SearchHit `json:"items"`
}

// AnalyticsParams holds the filter parameters shared by the summary and trend
// endpoints. Sentiment is deliberately absent: sentiment is what is being
// aggregated.
type AnalyticsParams struct {
	Query     string     `json:"query"`
	ProductID *string    `json:"product_id,omitempty"`
	MinRating *int       `json:"min_rating,omitempty"`
	MaxRating *int       `json:"max_rating,omitempty"`
	DateFrom  *time.Time `json:"date_from,omitempty"`
	DateTo    *time.Time `json:"date_to,omitempty"`
}

// Summary is the aggregate view over all matching reviews.
type Summary struct {
	TotalReviews    int            `json:"total_reviews"`
	AvgRating       *float64       `json:"avg_rating"`
	SentimentCounts map[string]int `json:"sentiment_counts"`
}

// TrendPoint is one time bucket of the trend aggregation. AvgRating is nil
// for empty buckets.
type TrendPoint struct {
	Date            string         `json:"date"`
	DocCount        int            `json:"doc_count"`
	AvgRating       *float64       `json:"avg_rating"`
	SentimentCounts map[string]int `json:"sentiment_counts"`
}

// Trend is the bucketed trend response, chronologically ascending.
type Trend struct {
	Interval string       `json:"interval"`
	Items    []TrendPoint `json:"items"`
}
