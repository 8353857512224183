// Package service implements the review search domain logic: ingestion with
// derived sentiment, query construction, and result projection. Handlers and
// event consumers both call through here so the semantics stay identical
// regardless of transport.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seifmohamed1w/elastic-search/internal/domain"
	"github.com/seifmohamed1w/elastic-search/internal/engine"
	"github.com/seifmohamed1w/elastic-search/internal/normalize"
	"github.com/seifmohamed1w/elastic-search/internal/sentiment"
	apperrors "github.com/seifmohamed1w/elastic-search/pkg/errors"
)

const (
	// bulkChunkSize is the number of documents sent per bulk request.
	bulkChunkSize = 500
	// bulkChunkTimeout bounds each individual bulk request.
	bulkChunkTimeout = 120 * time.Second
)

// Service orchestrates review ingestion, search, and analytics on top of an
// injected search engine and sentiment classifier.
type Service struct {
	engine     engine.ReviewEngine
	classifier *sentiment.Classifier
	indexName  string
	logger     *slog.Logger
}

// New creates a review service.
func New(eng engine.ReviewEngine, classifier *sentiment.Classifier, indexName string, logger *slog.Logger) *Service {
	return &Service{
		engine:     eng,
		classifier: classifier,
		indexName:  indexName,
		logger:     logger,
	}
}

// IndexName returns the configured index name.
func (s *Service) IndexName() string {
	return s.indexName
}

// CreateInput holds the caller-supplied fields of a new review. Sentiment is
// never part of the input; it is derived at write time.
type CreateInput struct {
	ReviewID    string
	ProductID   string
	ProductName string
	Rating      int
	ReviewTitle string
	ReviewText  string
	CreatedAt   time.Time
}

// HealthStatus is the engine probe result for the health endpoint.
type HealthStatus struct {
	Status        string `json:"status"`
	Index         string `json:"index"`
	EngineVersion string `json:"engine_version"`
}

// BulkResult reports the outcome of a bulk ingestion: the number of documents
// durably ingested and the target index.
type BulkResult struct {
	Ingested int    `json:"ingested"`
	Index    string `json:"index"`
}

// Health probes the engine and reports its version.
func (s *Service) Health(ctx context.Context) (*HealthStatus, error) {
	info, err := s.engine.Info(ctx)
	if err != nil {
		return nil, apperrors.Upstream("search engine unreachable", err)
	}
	return &HealthStatus{
		Status:        "ok",
		Index:         s.indexName,
		EngineVersion: info.Version,
	}, nil
}

// CreateIndex creates the review index with its mapping. Idempotent: returns
// created=false when the index already exists.
func (s *Service) CreateIndex(ctx context.Context) (bool, error) {
	created, err := s.engine.CreateIndex(ctx)
	if err != nil {
		return false, apperrors.Upstream("failed to create index", err)
	}
	if created {
		s.logger.InfoContext(ctx, "index created", "index", s.indexName)
	}
	return created, nil
}

// ensureIndex rejects writes before the index has been created. The engine
// cannot be relied on for this precondition: Elasticsearch auto-creates a
// missing index on write, which would silently produce a dynamically mapped
// index without the folding analyzer.
func (s *Service) ensureIndex(ctx context.Context) error {
	exists, err := s.engine.IndexExists(ctx)
	if err != nil {
		return apperrors.Upstream("search engine request failed", err)
	}
	if !exists {
		return apperrors.IndexNotReady(s.indexName)
	}
	return nil
}

// Create normalizes and classifies a review, then upserts it by review_id.
// A missing review_id is generated; a zero created_at defaults to now.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Review, error) {
	if err := s.ensureIndex(ctx); err != nil {
		return nil, err
	}

	review := s.buildReview(input)

	if err := s.engine.Index(ctx, review); err != nil {
		return nil, s.writeError(err, review.ReviewID)
	}

	s.logger.InfoContext(ctx, "review indexed",
		"review_id", review.ReviewID,
		"sentiment", review.Sentiment,
	)
	return review, nil
}

// BulkCreate ingests reviews in fixed-size batches. Each batch is bounded by
// its own timeout and made durable before the next starts, so on failure the
// reported count reflects documents actually ingested; the remainder is
// abandoned.
func (s *Service) BulkCreate(ctx context.Context, inputs []CreateInput) (*BulkResult, error) {
	if err := s.ensureIndex(ctx); err != nil {
		return nil, err
	}

	ingested := 0

	for start := 0; start < len(inputs); start += bulkChunkSize {
		end := start + bulkChunkSize
		if end > len(inputs) {
			end = len(inputs)
		}

		batch := make([]domain.Review, 0, end-start)
		for _, input := range inputs[start:end] {
			batch = append(batch, *s.buildReview(input))
		}

		batchCtx, cancel := context.WithTimeout(ctx, bulkChunkTimeout)
		n, err := s.engine.BulkIndex(batchCtx, batch)
		cancel()
		ingested += n
		if err != nil {
			s.logger.ErrorContext(ctx, "bulk batch failed",
				"ingested", ingested,
				"abandoned", len(inputs)-ingested,
				"error", err,
			)
			return &BulkResult{Ingested: ingested, Index: s.indexName}, s.writeError(err, "")
		}
	}

	s.logger.InfoContext(ctx, "bulk ingestion complete", "ingested", ingested)
	return &BulkResult{Ingested: ingested, Index: s.indexName}, nil
}

// Get fetches a review by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.engine.Get(ctx, id)
	if err != nil {
		return nil, s.readError(err, id)
	}
	return review, nil
}

// Update applies a partial patch to an existing review. Sentiment is
// recomputed from the merged title and text regardless of which fields
// changed, so the stored label can never drift from the stored text.
func (s *Service) Update(ctx context.Context, id string, patch domain.ReviewPatch) (*domain.Review, error) {
	review, err := s.engine.Get(ctx, id)
	if err != nil {
		return nil, s.readError(err, id)
	}

	if patch.ProductID != nil {
		review.ProductID = *patch.ProductID
	}
	if patch.ProductName != nil {
		review.ProductName = *patch.ProductName
	}
	if patch.Rating != nil {
		review.Rating = *patch.Rating
	}
	if patch.ReviewTitle != nil {
		review.ReviewTitle = normalize.Clean(*patch.ReviewTitle)
	}
	if patch.ReviewText != nil {
		review.ReviewText = normalize.Clean(*patch.ReviewText)
	}
	if patch.CreatedAt != nil {
		review.CreatedAt = patch.CreatedAt.UTC()
	}

	review.Sentiment, review.SentimentScore = s.classify(review.ReviewTitle, review.ReviewText)

	if err := s.engine.Index(ctx, review); err != nil {
		return nil, s.writeError(err, id)
	}

	s.logger.InfoContext(ctx, "review updated", "review_id", id, "sentiment", review.Sentiment)
	return review, nil
}

// Delete removes a review by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.engine.Delete(ctx, id); err != nil {
		return s.readError(err, id)
	}
	s.logger.InfoContext(ctx, "review deleted", "review_id", id)
	return nil
}

// buildReview normalizes the text fields, derives the sentiment, and fills
// the generated defaults.
func (s *Service) buildReview(input CreateInput) *domain.Review {
	review := &domain.Review{
		ReviewID:    input.ReviewID,
		ProductID:   input.ProductID,
		ProductName: input.ProductName,
		Rating:      input.Rating,
		ReviewTitle: normalize.Clean(input.ReviewTitle),
		ReviewText:  normalize.Clean(input.ReviewText),
		CreatedAt:   input.CreatedAt.UTC(),
	}
	if review.ReviewID == "" {
		review.ReviewID = uuid.New().String()
	}
	if input.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	review.Sentiment, review.SentimentScore = s.classify(review.ReviewTitle, review.ReviewText)
	return review
}

// classify runs the sentiment classifier over the combined title and text.
func (s *Service) classify(title, text string) (string, float64) {
	return s.classifier.Classify(strings.TrimSpace(title + " " + text))
}

// readError maps engine errors on read paths to application errors.
func (s *Service) readError(err error, id string) error {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return apperrors.NotFound("review", id)
	case errors.Is(err, engine.ErrIndexNotFound):
		return apperrors.IndexNotReady(s.indexName)
	default:
		return apperrors.Upstream("search engine request failed", err)
	}
}

// writeError maps engine errors on write paths to application errors.
func (s *Service) writeError(err error, id string) error {
	if errors.Is(err, engine.ErrIndexNotFound) {
		return apperrors.IndexNotReady(s.indexName)
	}
	if errors.Is(err, engine.ErrNotFound) && id != "" {
		return apperrors.NotFound("review", id)
	}
	return apperrors.Upstream("search engine request failed", err)
}

// searchError maps engine errors on query paths to application errors.
func (s *Service) searchError(err error) error {
	if errors.Is(err, engine.ErrIndexNotFound) {
		return apperrors.IndexNotReady(s.indexName)
	}
	return apperrors.Upstream("search engine request failed", err)
}
