package query

import (
	"encoding/json"
	"fmt"

	"github.com/seifmohamed1w/elastic-search/internal/domain"
)

// Hit is one scored search result.
type Hit struct {
	Source     domain.Review
	Score      float64
	Highlights map[string][]string
}

// TermsBucket is one group of a terms aggregation.
type TermsBucket struct {
	Key      string
	DocCount int
}

// DateBucket is one time bucket of a date histogram, with its per-bucket
// sub-aggregation results. AvgRating is nil when the bucket is empty.
type DateBucket struct {
	Date       string
	DocCount   int
	AvgRating  *float64
	Sentiments []TermsBucket
}

// AggregationResults holds the decoded aggregations of a response. Fields
// are nil/empty when the corresponding aggregation was not requested.
type AggregationResults struct {
	AvgRating  *float64
	Sentiments []TermsBucket
	Trend      []DateBucket
}

// Response is the engine's normalized answer to a Request.
type Response struct {
	Total        int
	Hits         []Hit
	Aggregations AggregationResults
}

// TotalCount normalizes the engine's ambiguous total representation: a bare
// number or an object carrying a value and an exactness relation. The
// relation is discarded; requests always track total hits, so the value is
// exact in practice.
type TotalCount struct {
	Value int
}

// UnmarshalJSON accepts either form.
func (t *TotalCount) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		t.Value = n
		return nil
	}

	var obj struct {
		Value    int    `json:"value"`
		Relation string `json:"relation"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode total count: %w", err)
	}
	t.Value = obj.Value
	return nil
}
