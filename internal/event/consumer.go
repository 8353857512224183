// Package event consumes review lifecycle events from Kafka and applies them
// through the same ingest path as the HTTP endpoints, so sentiment derivation
// and upsert semantics are identical regardless of how a review arrives.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/seifmohamed1w/elastic-search/internal/service"
	apperrors "github.com/seifmohamed1w/elastic-search/pkg/errors"
	pkgkafka "github.com/seifmohamed1w/elastic-search/pkg/kafka"
)

// Kafka topic constants for review domain events.
const (
	TopicReviewCreated = "reviews.review.created"
	TopicReviewUpdated = "reviews.review.updated"
	TopicReviewDeleted = "reviews.review.deleted"
)

// ReviewEventData represents the payload of a review.created or
// review.updated event. Updates arrive as full documents; the upsert is
// last-write-wins by review_id.
type ReviewEventData struct {
	ReviewID    string     `json:"review_id"`
	ProductID   string     `json:"product_id"`
	ProductName string     `json:"product_name"`
	Rating      int        `json:"rating"`
	ReviewTitle string     `json:"review_title"`
	ReviewText  string     `json:"review_text"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// ReviewDeletedData represents the payload of a review.deleted event.
type ReviewDeletedData struct {
	ReviewID string `json:"review_id"`
}

// Consumer handles Kafka events carrying review lifecycle changes.
type Consumer struct {
	reviewService *service.Service
	logger        *slog.Logger
}

// NewConsumer creates a new event consumer for the review service.
func NewConsumer(reviewService *service.Service, logger *slog.Logger) *Consumer {
	return &Consumer{
		reviewService: reviewService,
		logger:        logger,
	}
}

// Handle processes a Kafka event based on its type.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicReviewCreated, TopicReviewUpdated:
		return c.handleReviewUpsert(ctx, event)
	case TopicReviewDeleted:
		return c.handleReviewDeleted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

// handleReviewUpsert indexes a created or updated review.
func (c *Consumer) handleReviewUpsert(ctx context.Context, event *pkgkafka.Event) error {
	var data ReviewEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}
	if data.ReviewID == "" {
		return fmt.Errorf("%s event %s carries no review_id", event.EventType, event.EventID)
	}

	input := service.CreateInput{
		ReviewID:    data.ReviewID,
		ProductID:   data.ProductID,
		ProductName: data.ProductName,
		Rating:      data.Rating,
		ReviewTitle: data.ReviewTitle,
		ReviewText:  data.ReviewText,
	}
	if data.CreatedAt != nil {
		input.CreatedAt = *data.CreatedAt
	}

	if _, err := c.reviewService.Create(ctx, input); err != nil {
		return fmt.Errorf("index review from %s event: %w", event.EventType, err)
	}

	c.logger.InfoContext(ctx, "indexed review from event",
		slog.String("event_type", event.EventType),
		slog.String("review_id", data.ReviewID),
	)

	return nil
}

// handleReviewDeleted removes a deleted review from the index. A review that
// was never indexed is treated as already gone.
func (c *Consumer) handleReviewDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data ReviewDeletedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal review.deleted data: %w", err)
	}

	if err := c.reviewService.Delete(ctx, data.ReviewID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.logger.WarnContext(ctx, "review already absent on deleted event",
				slog.String("review_id", data.ReviewID),
			)
			return nil
		}
		return fmt.Errorf("delete review from deleted event: %w", err)
	}

	c.logger.InfoContext(ctx, "deleted review from event",
		slog.String("review_id", data.ReviewID),
	)

	return nil
}
