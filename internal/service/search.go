package service

import (
	"context"
	"strings"
	"time"

	"github.com/seifmohamed1w/elastic-search/internal/domain"
	"github.com/seifmohamed1w/elastic-search/internal/query"
)

// Pagination bounds.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// searchFields are the full-text fields with their relative weights.
var searchFields = []string{"review_title^2", "review_text", "product_name^1.5"}

// Search runs a paginated full-text search with filters, sorting, and
// highlighting.
func (s *Service) Search(ctx context.Context, params domain.SearchParams) (*domain.SearchResult, error) {
	page, size := normalizePage(params.Page, params.Size)

	req := &query.Request{
		Query: buildQuery(params.Query, buildFilters(filterParams{
			ProductID: params.ProductID,
			Sentiment: params.Sentiment,
			MinRating: params.MinRating,
			MaxRating: params.MaxRating,
			DateFrom:  params.DateFrom,
			DateTo:    params.DateTo,
		})),
		From:           (page - 1) * size,
		Size:           size,
		Sort:           resolveSort(params.Sort),
		Highlight:      defaultHighlight(),
		TrackTotalHits: true,
	}

	resp, err := s.engine.Search(ctx, req)
	if err != nil {
		return nil, s.searchError(err)
	}

	items := make([]domain.SearchHit, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		items = append(items, domain.SearchHit{
			Review:     hit.Source,
			Score:      hit.Score,
			Highlights: hit.Highlights,
		})
	}

	return &domain.SearchResult{
		Page:  page,
		Size:  size,
		Total: resp.Total,
		Items: items,
	}, nil
}

// filterParams is the filter subset shared by search and analytics. Analytics
// omits the sentiment filter because sentiment is what it aggregates.
type filterParams struct {
	ProductID *string
	Sentiment *string
	MinRating *int
	MaxRating *int
	DateFrom  *time.Time
	DateTo    *time.Time
}

// buildFilters produces the filter clauses in stable order: product,
// sentiment, rating range, date range. Absent inputs contribute nothing.
func buildFilters(p filterParams) []query.Clause {
	filters := make([]query.Clause, 0, 4)

	if p.ProductID != nil {
		filters = append(filters, query.Term{Field: "product_id", Value: *p.ProductID})
	}
	if p.Sentiment != nil {
		filters = append(filters, query.Term{Field: "sentiment", Value: *p.Sentiment})
	}
	if p.MinRating != nil || p.MaxRating != nil {
		r := query.Range{Field: "rating"}
		if p.MinRating != nil {
			r.GTE = *p.MinRating
		}
		if p.MaxRating != nil {
			r.LTE = *p.MaxRating
		}
		filters = append(filters, r)
	}
	if p.DateFrom != nil || p.DateTo != nil {
		r := query.Range{Field: "created_at"}
		if p.DateFrom != nil {
			r.GTE = *p.DateFrom
		}
		if p.DateTo != nil {
			r.LTE = *p.DateTo
		}
		filters = append(filters, r)
	}

	return filters
}

// buildQuery composes the text clause with the filters. Blank text matches
// everything; filters go in the non-scoring filter context so they never
// affect relevance.
func buildQuery(text string, filters []query.Clause) query.Clause {
	var match query.Clause
	if strings.TrimSpace(text) == "" {
		match = query.MatchAll{}
	} else {
		match = query.MultiMatch{
			Query:     text,
			Fields:    searchFields,
			Fuzziness: "AUTO",
			Operator:  "and",
		}
	}

	if len(filters) == 0 {
		return match
	}
	return query.Bool{
		Must:   []query.Clause{match},
		Filter: filters,
	}
}

// resolveSort maps a sort option to tiebreak pairs. Every non-relevance sort
// ends with a descending score tiebreak; relevance defers to engine order.
func resolveSort(option string) []query.Sort {
	switch option {
	case domain.SortNewest:
		return []query.Sort{
			{Field: "created_at", Order: query.Desc},
			{Field: query.ScoreField, Order: query.Desc},
		}
	case domain.SortOldest:
		return []query.Sort{
			{Field: "created_at", Order: query.Asc},
			{Field: query.ScoreField, Order: query.Desc},
		}
	case domain.SortRatingDesc:
		return []query.Sort{
			{Field: "rating", Order: query.Desc},
			{Field: query.ScoreField, Order: query.Desc},
		}
	case domain.SortRatingAsc:
		return []query.Sort{
			{Field: "rating", Order: query.Asc},
			{Field: query.ScoreField, Order: query.Desc},
		}
	default:
		return nil
	}
}

// defaultHighlight returns the fragment configuration for search hits.
func defaultHighlight() *query.Highlight {
	return &query.Highlight{
		Fields: map[string]query.HighlightField{
			"review_text":  {FragmentSize: 160, NumberOfFragments: 3},
			"review_title": {FragmentSize: 120, NumberOfFragments: 2},
		},
	}
}

// normalizePage clamps page and size to their valid ranges.
func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}
