// Package memory provides an in-memory ReviewEngine used as a test double
// and as a zero-dependency development mode. It interprets the same typed
// query specification that the Elasticsearch engine serializes, with
// simplified term matching (substring containment instead of fuzzy edit
// distance; approximate matching is the real engine's concern).
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/seifmohamed1w/elastic-search/internal/domain"
	"github.com/seifmohamed1w/elastic-search/internal/engine"
	"github.com/seifmohamed1w/elastic-search/internal/query"
)

// bucketKeyFormat matches the engine's date histogram key_as_string form.
const bucketKeyFormat = "2006-01-02T15:04:05.000Z"

// Engine is an in-memory implementation of the ReviewEngine interface.
// Thread-safe via sync.RWMutex.
type Engine struct {
	mu      sync.RWMutex
	created bool
	reviews map[string]domain.Review
}

// New creates a new in-memory engine. The index starts absent; CreateIndex
// must be called before documents can be written or queried, mirroring the
// real engine's precondition.
func New() *Engine {
	return &Engine{
		reviews: make(map[string]domain.Review),
	}
}

// Info returns a static version string for the health probe.
func (e *Engine) Info(_ context.Context) (*engine.Info, error) {
	return &engine.Info{Version: "memory"}, nil
}

// CreateIndex marks the index as created. Idempotent.
func (e *Engine) CreateIndex(_ context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.created {
		return false, nil
	}
	e.created = true
	return true, nil
}

// IndexExists reports whether CreateIndex has been called.
func (e *Engine) IndexExists(_ context.Context) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.created, nil
}

// Index adds or replaces a single review keyed by its review_id.
func (e *Engine) Index(_ context.Context, review *domain.Review) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.created {
		return engine.ErrIndexNotFound
	}
	e.reviews[review.ReviewID] = *review
	return nil
}

// BulkIndex adds or replaces multiple reviews.
func (e *Engine) BulkIndex(_ context.Context, reviews []domain.Review) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.created {
		return 0, engine.ErrIndexNotFound
	}
	for i := range reviews {
		e.reviews[reviews[i].ReviewID] = reviews[i]
	}
	return len(reviews), nil
}

// Get fetches a review by id.
func (e *Engine) Get(_ context.Context, id string) (*domain.Review, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.created {
		return nil, engine.ErrIndexNotFound
	}
	r, ok := e.reviews[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	return &r, nil
}

// Delete removes a review by id.
func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.created {
		return engine.ErrIndexNotFound
	}
	if _, ok := e.reviews[id]; !ok {
		return engine.ErrNotFound
	}
	delete(e.reviews, id)
	return nil
}

// Search evaluates the query specification against the stored reviews.
func (e *Engine) Search(_ context.Context, req *query.Request) (*query.Response, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.created {
		return nil, engine.ErrIndexNotFound
	}

	matched := make([]domain.Review, 0)
	for _, r := range e.reviews {
		if matches(r, req.Query) {
			matched = append(matched, r)
		}
	}

	// Deterministic base order before tiebreaks are applied.
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ReviewID < matched[j].ReviewID
	})
	applySort(matched, req.Sort)

	total := len(matched)

	offset := req.From
	if offset > total {
		offset = total
	}
	end := offset + req.Size
	if end > total {
		end = total
	}

	hits := make([]query.Hit, 0, end-offset)
	for _, r := range matched[offset:end] {
		hits = append(hits, query.Hit{Source: r, Score: 1.0})
	}

	resp := &query.Response{
		Total: total,
		Hits:  hits,
	}
	e.aggregate(matched, req.Aggs, &resp.Aggregations)

	return resp, nil
}

// matches evaluates a single clause against a review.
func matches(r domain.Review, c query.Clause) bool {
	switch q := c.(type) {
	case nil:
		return true
	case query.MatchAll:
		return true
	case query.Bool:
		for _, m := range q.Must {
			if !matches(r, m) {
				return false
			}
		}
		for _, f := range q.Filter {
			if !matches(r, f) {
				return false
			}
		}
		return true
	case query.Term:
		return termValue(r, q.Field) == q.Value
	case query.Range:
		return rangeMatches(r, q)
	case query.MultiMatch:
		return multiMatches(r, q)
	default:
		return false
	}
}

func termValue(r domain.Review, field string) string {
	switch field {
	case "review_id":
		return r.ReviewID
	case "product_id":
		return r.ProductID
	case "product_name", "product_name.keyword":
		return r.ProductName
	case "sentiment":
		return r.Sentiment
	default:
		return ""
	}
}

func rangeMatches(r domain.Review, q query.Range) bool {
	switch q.Field {
	case "rating":
		if gte, ok := q.GTE.(int); ok && r.Rating < gte {
			return false
		}
		if lte, ok := q.LTE.(int); ok && r.Rating > lte {
			return false
		}
		return true
	case "created_at":
		if gte, ok := q.GTE.(time.Time); ok && r.CreatedAt.Before(gte) {
			return false
		}
		if lte, ok := q.LTE.(time.Time); ok && r.CreatedAt.After(lte) {
			return false
		}
		return true
	default:
		return false
	}
}

// multiMatches requires every query term to appear in at least one of the
// searched fields (conjunctive term semantics). Field weights and fuzziness
// are ignored here.
func multiMatches(r domain.Review, q query.MultiMatch) bool {
	terms := strings.Fields(strings.ToLower(q.Query))
	if len(terms) == 0 {
		return true
	}

	values := make([]string, 0, len(q.Fields))
	for _, f := range q.Fields {
		// Strip the boost suffix, e.g. "review_title^2".
		if i := strings.IndexByte(f, '^'); i >= 0 {
			f = f[:i]
		}
		switch f {
		case "review_title":
			values = append(values, strings.ToLower(r.ReviewTitle))
		case "review_text":
			values = append(values, strings.ToLower(r.ReviewText))
		case "product_name":
			values = append(values, strings.ToLower(r.ProductName))
		}
	}

	for _, term := range terms {
		found := false
		for _, v := range values {
			if strings.Contains(v, term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// applySort applies the tiebreak pairs in order of decreasing precedence.
func applySort(reviews []domain.Review, sorts []query.Sort) {
	for i := len(sorts) - 1; i >= 0; i-- {
		s := sorts[i]
		if s.Field == query.ScoreField {
			// All in-memory scores are equal; relevance is a no-op tiebreak.
			continue
		}
		desc := s.Order == query.Desc
		sort.SliceStable(reviews, func(a, b int) bool {
			var less bool
			switch s.Field {
			case "created_at":
				less = reviews[a].CreatedAt.Before(reviews[b].CreatedAt)
			case "rating":
				less = reviews[a].Rating < reviews[b].Rating
			default:
				return false
			}
			if desc {
				return !less && !equalField(reviews[a], reviews[b], s.Field)
			}
			return less
		})
	}
}

func equalField(a, b domain.Review, field string) bool {
	switch field {
	case "created_at":
		return a.CreatedAt.Equal(b.CreatedAt)
	case "rating":
		return a.Rating == b.Rating
	default:
		return false
	}
}

// aggregate computes the requested aggregations over all matched documents.
func (e *Engine) aggregate(matched []domain.Review, aggs map[string]query.Aggregation, out *query.AggregationResults) {
	if len(aggs) == 0 {
		return
	}

	if _, ok := aggs[query.AggAvgRating].(query.Avg); ok {
		out.AvgRating = avgRating(matched)
	}
	if _, ok := aggs[query.AggSentiments].(query.Terms); ok {
		out.Sentiments = sentimentBuckets(matched)
	}
	if dh, ok := aggs[query.AggTrend].(query.DateHistogram); ok {
		out.Trend = trendBuckets(matched, dh.Interval)
	}
}

func avgRating(reviews []domain.Review) *float64 {
	if len(reviews) == 0 {
		return nil
	}
	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(reviews))
	return &avg
}

// sentimentBuckets counts reviews per sentiment label, ordered by descending
// count with key order as tiebreak, matching the engine's terms ordering.
func sentimentBuckets(reviews []domain.Review) []query.TermsBucket {
	counts := make(map[string]int)
	for _, r := range reviews {
		counts[r.Sentiment]++
	}

	buckets := make([]query.TermsBucket, 0, len(counts))
	for k, v := range counts {
		buckets = append(buckets, query.TermsBucket{Key: k, DocCount: v})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].DocCount != buckets[j].DocCount {
			return buckets[i].DocCount > buckets[j].DocCount
		}
		return buckets[i].Key < buckets[j].Key
	})
	return buckets
}

// trendBuckets groups reviews into calendar buckets between the earliest and
// latest matched document, including zero-filled empty buckets in between.
func trendBuckets(reviews []domain.Review, interval string) []query.DateBucket {
	if len(reviews) == 0 {
		return []query.DateBucket{}
	}

	grouped := make(map[time.Time][]domain.Review)
	var minStart, maxStart time.Time
	for _, r := range reviews {
		start := bucketStart(r.CreatedAt.UTC(), interval)
		grouped[start] = append(grouped[start], r)
		if minStart.IsZero() || start.Before(minStart) {
			minStart = start
		}
		if start.After(maxStart) {
			maxStart = start
		}
	}

	var buckets []query.DateBucket
	for start := minStart; !start.After(maxStart); start = nextBucket(start, interval) {
		docs := grouped[start]
		bucket := query.DateBucket{
			Date:     start.Format(bucketKeyFormat),
			DocCount: len(docs),
		}
		if len(docs) > 0 {
			bucket.AvgRating = avgRating(docs)
			bucket.Sentiments = sentimentBuckets(docs)
		} else {
			bucket.Sentiments = []query.TermsBucket{}
		}
		buckets = append(buckets, bucket)
	}
	return buckets
}

// bucketStart truncates a timestamp to the start of its calendar bucket.
// Weeks start on Monday, matching the engine's calendar weeks.
func bucketStart(t time.Time, interval string) time.Time {
	switch interval {
	case "week":
		day := t
		for day.Weekday() != time.Monday {
			day = day.AddDate(0, 0, -1)
		}
		return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	case "month":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default: // day
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

func nextBucket(start time.Time, interval string) time.Time {
	switch interval {
	case "week":
		return start.AddDate(0, 0, 7)
	case "month":
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}
