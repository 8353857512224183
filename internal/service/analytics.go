package service

import (
	"context"

	"github.com/seifmohamed1w/elastic-search/internal/domain"
	"github.com/seifmohamed1w/elastic-search/internal/query"
)

// sentimentTermsSize caps the sentiment terms aggregation. There are only
// three labels; the headroom matches the engine's default safety margin.
const sentimentTermsSize = 10

// Summary aggregates all matching reviews into a total count, average rating,
// and sentiment breakdown. No hits are fetched.
func (s *Service) Summary(ctx context.Context, params domain.AnalyticsParams) (*domain.Summary, error) {
	req := &query.Request{
		Query:          buildQuery(params.Query, analyticsFilters(params)),
		Size:           0,
		Aggs:           summaryAggs(),
		TrackTotalHits: true,
	}

	resp, err := s.engine.Search(ctx, req)
	if err != nil {
		return nil, s.searchError(err)
	}

	return &domain.Summary{
		TotalReviews:    resp.Total,
		AvgRating:       resp.Aggregations.AvgRating,
		SentimentCounts: sentimentCounts(resp.Aggregations.Sentiments),
	}, nil
}

// Trends buckets matching reviews by calendar interval, each bucket carrying
// its document count, average rating, and sentiment breakdown. Buckets are
// chronologically ascending with empty buckets zero-filled.
func (s *Service) Trends(ctx context.Context, params domain.AnalyticsParams, interval string) (*domain.Trend, error) {
	if interval == "" {
		interval = domain.IntervalMonth
	}

	req := &query.Request{
		Query: buildQuery(params.Query, analyticsFilters(params)),
		Size:  0,
		Aggs: map[string]query.Aggregation{
			query.AggTrend: query.DateHistogram{
				Field:       "created_at",
				Interval:    interval,
				MinDocCount: 0,
				Aggs:        summaryAggs(),
			},
		},
	}

	resp, err := s.engine.Search(ctx, req)
	if err != nil {
		return nil, s.searchError(err)
	}

	items := make([]domain.TrendPoint, 0, len(resp.Aggregations.Trend))
	for _, bucket := range resp.Aggregations.Trend {
		items = append(items, domain.TrendPoint{
			Date:            bucket.Date,
			DocCount:        bucket.DocCount,
			AvgRating:       bucket.AvgRating,
			SentimentCounts: sentimentCounts(bucket.Sentiments),
		})
	}

	return &domain.Trend{
		Interval: interval,
		Items:    items,
	}, nil
}

// analyticsFilters builds the filter clauses for the analytics endpoints.
// Sentiment is not filterable here: filtering on the aggregated dimension
// would make the breakdown tautological.
func analyticsFilters(p domain.AnalyticsParams) []query.Clause {
	return buildFilters(filterParams{
		ProductID: p.ProductID,
		MinRating: p.MinRating,
		MaxRating: p.MaxRating,
		DateFrom:  p.DateFrom,
		DateTo:    p.DateTo,
	})
}

func summaryAggs() map[string]query.Aggregation {
	return map[string]query.Aggregation{
		query.AggAvgRating:  query.Avg{Field: "rating"},
		query.AggSentiments: query.Terms{Field: "sentiment", Size: sentimentTermsSize},
	}
}

// sentimentCounts projects terms buckets into a label→count map with all
// three labels present, absent ones at zero.
func sentimentCounts(buckets []query.TermsBucket) map[string]int {
	counts := map[string]int{
		domain.SentimentPositive: 0,
		domain.SentimentNegative: 0,
		domain.SentimentNeutral:  0,
	}
	for _, b := range buckets {
		counts[b.Key] = b.DocCount
	}
	return counts
}
