package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seifmohamed1w/elastic-search/internal/domain"
	"github.com/seifmohamed1w/elastic-search/internal/query"
	apperrors "github.com/seifmohamed1w/elastic-search/pkg/errors"
)

func ptr[T any](v T) *T {
	return &v
}

func TestBuildFilters(t *testing.T) {
	t.Run("no inputs yields empty list", func(t *testing.T) {
		assert.Empty(t, buildFilters(filterParams{}))
	})

	t.Run("single-sided rating range", func(t *testing.T) {
		filters := buildFilters(filterParams{MinRating: ptr(3)})
		require.Len(t, filters, 1)
		assert.Equal(t, query.Range{Field: "rating", GTE: 3}, filters[0])
	})

	t.Run("stable order", func(t *testing.T) {
		from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		filters := buildFilters(filterParams{
			ProductID: ptr("p-1"),
			Sentiment: ptr(domain.SentimentPositive),
			MinRating: ptr(2),
			MaxRating: ptr(4),
			DateFrom:  &from,
			DateTo:    &to,
		})
		require.Len(t, filters, 4)
		assert.Equal(t, query.Term{Field: "product_id", Value: "p-1"}, filters[0])
		assert.Equal(t, query.Term{Field: "sentiment", Value: domain.SentimentPositive}, filters[1])
		assert.Equal(t, query.Range{Field: "rating", GTE: 2, LTE: 4}, filters[2])
		assert.Equal(t, query.Range{Field: "created_at", GTE: from, LTE: to}, filters[3])
	})
}

func TestBuildQuery(t *testing.T) {
	t.Run("blank text without filters matches all", func(t *testing.T) {
		assert.Equal(t, query.MatchAll{}, buildQuery("   ", nil))
	})

	t.Run("text becomes weighted multi match", func(t *testing.T) {
		q := buildQuery("battery life", nil)
		assert.Equal(t, query.MultiMatch{
			Query:     "battery life",
			Fields:    []string{"review_title^2", "review_text", "product_name^1.5"},
			Fuzziness: "AUTO",
			Operator:  "and",
		}, q)
	})

	t.Run("filters go in the filter context", func(t *testing.T) {
		filters := []query.Clause{query.Term{Field: "product_id", Value: "p-1"}}
		q := buildQuery("", filters)
		b, ok := q.(query.Bool)
		require.True(t, ok)
		assert.Equal(t, []query.Clause{query.MatchAll{}}, b.Must)
		assert.Equal(t, filters, b.Filter)
	})
}

func TestResolveSort(t *testing.T) {
	assert.Nil(t, resolveSort(domain.SortRelevance))
	assert.Nil(t, resolveSort(""))

	assert.Equal(t, []query.Sort{
		{Field: "created_at", Order: query.Desc},
		{Field: query.ScoreField, Order: query.Desc},
	}, resolveSort(domain.SortNewest))

	assert.Equal(t, []query.Sort{
		{Field: "created_at", Order: query.Asc},
		{Field: query.ScoreField, Order: query.Desc},
	}, resolveSort(domain.SortOldest))

	assert.Equal(t, []query.Sort{
		{Field: "rating", Order: query.Desc},
		{Field: query.ScoreField, Order: query.Desc},
	}, resolveSort(domain.SortRatingDesc))

	assert.Equal(t, []query.Sort{
		{Field: "rating", Order: query.Asc},
		{Field: query.ScoreField, Order: query.Desc},
	}, resolveSort(domain.SortRatingAsc))
}

func TestNormalizePage(t *testing.T) {
	page, size := normalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageSize, size)

	page, size = normalizePage(3, 500)
	assert.Equal(t, 3, page)
	assert.Equal(t, MaxPageSize, size)

	page, size = normalizePage(2, 25)
	assert.Equal(t, 2, page)
	assert.Equal(t, 25, size)
}

func TestService_Search(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	seedReviews(t, svc)

	t.Run("filter by product and sentiment", func(t *testing.T) {
		result, err := svc.Search(ctx, domain.SearchParams{
			ProductID: ptr("p-1"),
			Sentiment: ptr(domain.SentimentPositive),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Total)
		require.Len(t, result.Items, 1)
		assert.Equal(t, "r-1", result.Items[0].ReviewID)
	})

	t.Run("free text search", func(t *testing.T) {
		result, err := svc.Search(ctx, domain.SearchParams{Query: "toaster"})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Total)
		assert.Equal(t, "r-3", result.Items[0].ReviewID)
	})

	t.Run("sort newest with pagination", func(t *testing.T) {
		result, err := svc.Search(ctx, domain.SearchParams{
			Sort: domain.SortNewest,
			Page: 2,
			Size: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, result.Total)
		assert.Equal(t, 2, result.Page)
		assert.Equal(t, 1, result.Size)
		require.Len(t, result.Items, 1)
		assert.Equal(t, "r-2", result.Items[0].ReviewID)
	})

	t.Run("no matches", func(t *testing.T) {
		result, err := svc.Search(ctx, domain.SearchParams{Query: "dishwasher"})
		require.NoError(t, err)
		assert.Equal(t, 0, result.Total)
		assert.Empty(t, result.Items)
	})
}

func TestService_Search_IndexNotReady(t *testing.T) {
	ctx := context.Background()
	svc := newUnreadyService()

	_, err := svc.Search(ctx, domain.SearchParams{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrIndexNotReady)
}

// seedReviews indexes three reviews across two products and three months.
func seedReviews(t *testing.T, svc *Service) {
	t.Helper()
	ctx := context.Background()

	seeds := []CreateInput{
		{
			ReviewID: "r-1", ProductID: "p-1", ProductName: "Kettle", Rating: 5,
			ReviewTitle: "Great kettle", ReviewText: "Love it",
			CreatedAt: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			ReviewID: "r-2", ProductID: "p-1", ProductName: "Kettle", Rating: 2,
			ReviewTitle: "Disappointing", ReviewText: "Terrible lid, broken seal",
			CreatedAt: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			ReviewID: "r-3", ProductID: "p-2", ProductName: "Toaster", Rating: 4,
			ReviewTitle: "Nice toaster", ReviewText: "Even browning",
			CreatedAt: time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, seed := range seeds {
		_, err := svc.Create(ctx, seed)
		require.NoError(t, err)
	}
}
