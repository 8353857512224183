package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seifmohamed1w/elastic-search/internal/domain"
	apperrors "github.com/seifmohamed1w/elastic-search/pkg/errors"
)

func TestService_Summary(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	seedReviews(t, svc)

	t.Run("all reviews", func(t *testing.T) {
		summary, err := svc.Summary(ctx, domain.AnalyticsParams{})
		require.NoError(t, err)

		assert.Equal(t, 3, summary.TotalReviews)
		require.NotNil(t, summary.AvgRating)
		assert.InDelta(t, 11.0/3.0, *summary.AvgRating, 1e-9)
		assert.Equal(t, map[string]int{
			domain.SentimentPositive: 1,
			domain.SentimentNegative: 1,
			domain.SentimentNeutral:  1,
		}, summary.SentimentCounts)
	})

	t.Run("filtered by product", func(t *testing.T) {
		summary, err := svc.Summary(ctx, domain.AnalyticsParams{ProductID: ptr("p-2")})
		require.NoError(t, err)

		assert.Equal(t, 1, summary.TotalReviews)
		require.NotNil(t, summary.AvgRating)
		assert.InDelta(t, 4.0, *summary.AvgRating, 1e-9)
	})

	t.Run("no matches", func(t *testing.T) {
		summary, err := svc.Summary(ctx, domain.AnalyticsParams{ProductID: ptr("p-404")})
		require.NoError(t, err)

		assert.Equal(t, 0, summary.TotalReviews)
		assert.Nil(t, summary.AvgRating)
		assert.Equal(t, map[string]int{
			domain.SentimentPositive: 0,
			domain.SentimentNegative: 0,
			domain.SentimentNeutral:  0,
		}, summary.SentimentCounts)
	})
}

func TestService_Trends(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	seedReviews(t, svc)

	t.Run("monthly buckets ascending", func(t *testing.T) {
		trend, err := svc.Trends(ctx, domain.AnalyticsParams{}, domain.IntervalMonth)
		require.NoError(t, err)

		assert.Equal(t, domain.IntervalMonth, trend.Interval)
		require.Len(t, trend.Items, 3)

		assert.Equal(t, "2024-01-01T00:00:00.000Z", trend.Items[0].Date)
		assert.Equal(t, 1, trend.Items[0].DocCount)
		assert.Equal(t, 1, trend.Items[0].SentimentCounts[domain.SentimentPositive])

		assert.Equal(t, "2024-02-01T00:00:00.000Z", trend.Items[1].Date)
		assert.Equal(t, 1, trend.Items[1].DocCount)
		assert.Equal(t, 1, trend.Items[1].SentimentCounts[domain.SentimentNegative])

		assert.Equal(t, "2024-03-01T00:00:00.000Z", trend.Items[2].Date)
		assert.Equal(t, 1, trend.Items[2].DocCount)
	})

	t.Run("filtered product trend", func(t *testing.T) {
		trend, err := svc.Trends(ctx, domain.AnalyticsParams{ProductID: ptr("p-1")}, domain.IntervalMonth)
		require.NoError(t, err)

		// p-1 has reviews in January and February only.
		require.Len(t, trend.Items, 2)
		assert.Equal(t, 1, trend.Items[0].DocCount)
		assert.Equal(t, 1, trend.Items[1].DocCount)
	})

	t.Run("default interval is month", func(t *testing.T) {
		trend, err := svc.Trends(ctx, domain.AnalyticsParams{}, "")
		require.NoError(t, err)
		assert.Equal(t, domain.IntervalMonth, trend.Interval)
	})

	t.Run("daily buckets zero-fill between documents", func(t *testing.T) {
		trend, err := svc.Trends(ctx, domain.AnalyticsParams{ProductID: ptr("p-1")}, domain.IntervalDay)
		require.NoError(t, err)

		// 2024-01-10 through 2024-02-15 inclusive: 37 daily buckets.
		require.Len(t, trend.Items, 37)
		assert.Equal(t, 1, trend.Items[0].DocCount)
		assert.Equal(t, 0, trend.Items[1].DocCount)
		assert.Nil(t, trend.Items[1].AvgRating)
		assert.Equal(t, 1, trend.Items[36].DocCount)
	})
}

func TestService_Trends_IndexNotReady(t *testing.T) {
	ctx := context.Background()
	svc := newUnreadyService()

	_, err := svc.Trends(ctx, domain.AnalyticsParams{}, domain.IntervalMonth)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrIndexNotReady)
}
