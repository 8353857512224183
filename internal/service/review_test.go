package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seifmohamed1w/elastic-search/internal/domain"
	"github.com/seifmohamed1w/elastic-search/internal/engine/memory"
	"github.com/seifmohamed1w/elastic-search/internal/sentiment"
	apperrors "github.com/seifmohamed1w/elastic-search/pkg/errors"
)

// keywordScorer is a deterministic stand-in for the lexicon scorer.
type keywordScorer struct{}

func (keywordScorer) Score(text string) float64 {
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "terrible") || strings.Contains(lowered, "broken"):
		return -0.7
	case strings.Contains(lowered, "great") || strings.Contains(lowered, "love"):
		return 0.8
	default:
		return 0.0
	}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	eng := memory.New()
	_, err := eng.CreateIndex(context.Background())
	require.NoError(t, err)
	return New(eng, sentiment.NewClassifier(keywordScorer{}), "reviews_v1", newTestLogger())
}

// newUnreadyService builds a service whose index has not been created.
func newUnreadyService() *Service {
	return New(memory.New(), sentiment.NewClassifier(keywordScorer{}), "reviews_v1", newTestLogger())
}

// autoCreatingEngine mimics a backend that transparently accepts writes to a
// missing index instead of rejecting them.
type autoCreatingEngine struct {
	*memory.Engine
	indexed int
}

func (e *autoCreatingEngine) Index(_ context.Context, _ *domain.Review) error {
	e.indexed++
	return nil
}

func (e *autoCreatingEngine) BulkIndex(_ context.Context, reviews []domain.Review) (int, error) {
	e.indexed += len(reviews)
	return len(reviews), nil
}

// partialBulkEngine fails each batch after a fixed number of items succeed.
type partialBulkEngine struct {
	*memory.Engine
	succeed int
}

func (e *partialBulkEngine) BulkIndex(ctx context.Context, reviews []domain.Review) (int, error) {
	if e.succeed >= len(reviews) {
		return e.Engine.BulkIndex(ctx, reviews)
	}
	n, err := e.Engine.BulkIndex(ctx, reviews[:e.succeed])
	if err != nil {
		return n, err
	}
	return n, errors.New("partial errors: disk full")
}

func TestService_Create_DerivesSentiment(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	review, err := svc.Create(ctx, CreateInput{
		ReviewID:    "r-1",
		ProductID:   "p-1",
		ProductName: "Kettle",
		Rating:      5,
		ReviewTitle: "Great kettle",
		ReviewText:  "Boils fast, love it",
		CreatedAt:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SentimentPositive, review.Sentiment)
	assert.InDelta(t, 0.8, review.SentimentScore, 1e-9)

	stored, err := svc.Get(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, review, stored)
}

func TestService_Create_NormalizesText(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	review, err := svc.Create(ctx, CreateInput{
		ReviewID:    "r-1",
		ProductID:   "p-1",
		ProductName: "Kettle",
		Rating:      3,
		ReviewTitle: "<b>Solid</b>   choice",
		ReviewText:  "Handle gets warm &amp; the lid rattles",
	})
	require.NoError(t, err)

	assert.Equal(t, "Solid choice", review.ReviewTitle)
	assert.Equal(t, "Handle gets warm & the lid rattles", review.ReviewText)
}

func TestService_Create_GeneratesDefaults(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	before := time.Now().UTC()
	review, err := svc.Create(ctx, CreateInput{
		ProductID:   "p-1",
		ProductName: "Kettle",
		Rating:      4,
		ReviewTitle: "Fine",
		ReviewText:  "Does the job",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, review.ReviewID)
	assert.False(t, review.CreatedAt.Before(before))
}

func TestService_Create_IndexNotReady(t *testing.T) {
	ctx := context.Background()
	svc := newUnreadyService()

	_, err := svc.Create(ctx, CreateInput{
		ReviewID:    "r-1",
		ProductID:   "p-1",
		ProductName: "Kettle",
		Rating:      4,
		ReviewTitle: "Fine",
		ReviewText:  "Does the job",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrIndexNotReady)
	assert.Equal(t, 409, apperrors.HTTPStatus(err))
}

func TestService_BulkCreate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	inputs := make([]CreateInput, 0, 7)
	for i := 0; i < 7; i++ {
		inputs = append(inputs, CreateInput{
			ProductID:   "p-1",
			ProductName: "Kettle",
			Rating:      3,
			ReviewTitle: "Okay",
			ReviewText:  "Average kettle",
		})
	}

	result, err := svc.BulkCreate(ctx, inputs)
	require.NoError(t, err)
	assert.Equal(t, 7, result.Ingested)
	assert.Equal(t, "reviews_v1", result.Index)
}

func TestService_Writes_RequireExistingIndex(t *testing.T) {
	ctx := context.Background()
	eng := &autoCreatingEngine{Engine: memory.New()}
	svc := New(eng, sentiment.NewClassifier(keywordScorer{}), "reviews_v1", newTestLogger())

	input := CreateInput{
		ReviewID:    "r-1",
		ProductID:   "p-1",
		ProductName: "Kettle",
		Rating:      4,
		ReviewTitle: "Fine",
		ReviewText:  "Does the job",
	}

	_, err := svc.Create(ctx, input)
	assert.ErrorIs(t, err, apperrors.ErrIndexNotReady)

	_, err = svc.BulkCreate(ctx, []CreateInput{input})
	assert.ErrorIs(t, err, apperrors.ErrIndexNotReady)

	// The backend never saw a write, so no mapping-less index could have
	// been created implicitly.
	assert.Equal(t, 0, eng.indexed)
}

func TestService_BulkCreate_CountsPartialBatchSuccesses(t *testing.T) {
	ctx := context.Background()
	eng := &partialBulkEngine{Engine: memory.New(), succeed: 3}
	_, err := eng.CreateIndex(ctx)
	require.NoError(t, err)
	svc := New(eng, sentiment.NewClassifier(keywordScorer{}), "reviews_v1", newTestLogger())

	inputs := make([]CreateInput, 0, 5)
	for i := 0; i < 5; i++ {
		inputs = append(inputs, CreateInput{
			ProductID:   "p-1",
			ProductName: "Kettle",
			Rating:      3,
			ReviewTitle: "Okay",
			ReviewText:  "Average kettle",
		})
	}

	result, err := svc.BulkCreate(ctx, inputs)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 3, result.Ingested)
}

func TestService_Update_RecomputesSentiment(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Create(ctx, CreateInput{
		ReviewID:    "r-1",
		ProductID:   "p-1",
		ProductName: "Kettle",
		Rating:      5,
		ReviewTitle: "Great kettle",
		ReviewText:  "Love it",
	})
	require.NoError(t, err)

	t.Run("unrelated field keeps label stable", func(t *testing.T) {
		rating := 4
		updated, err := svc.Update(ctx, "r-1", domain.ReviewPatch{Rating: &rating})
		require.NoError(t, err)
		assert.Equal(t, 4, updated.Rating)
		assert.Equal(t, domain.SentimentPositive, updated.Sentiment)
	})

	t.Run("text change flips label", func(t *testing.T) {
		text := "Terrible, broke after a week"
		updated, err := svc.Update(ctx, "r-1", domain.ReviewPatch{ReviewText: &text})
		require.NoError(t, err)
		assert.Equal(t, domain.SentimentNegative, updated.Sentiment)
		assert.InDelta(t, -0.7, updated.SentimentScore, 1e-9)
	})
}

func TestService_Update_NotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	rating := 3
	_, err := svc.Update(ctx, "missing", domain.ReviewPatch{Rating: &rating})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Create(ctx, CreateInput{
		ReviewID:    "r-1",
		ProductID:   "p-1",
		ProductName: "Kettle",
		Rating:      4,
		ReviewTitle: "Fine",
		ReviewText:  "Does the job",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "r-1"))

	err = svc.Delete(ctx, "r-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestService_CreateIndex_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc := newUnreadyService()

	created, err := svc.CreateIndex(ctx)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.CreateIndex(ctx)
	require.NoError(t, err)
	assert.False(t, created)
}
