package engine

import (
	"context"
	"errors"

	"github.com/seifmohamed1w/elastic-search/internal/domain"
	"github.com/seifmohamed1w/elastic-search/internal/query"
)

// Sentinel errors surfaced by engine implementations.
var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrIndexNotFound indicates the index has not been created yet.
	ErrIndexNotFound = errors.New("index not found")
)

// Info describes the engine backing a ReviewEngine.
type Info struct {
	Version string
}

// ReviewEngine defines the interface for storing and querying review
// documents. Implementations may use Elasticsearch, in-memory storage, or
// other backends. The engine is treated as an opaque service: it accepts a
// query specification and returns scored hits plus aggregation buckets.
type ReviewEngine interface {
	// Info returns engine metadata (version) for the health probe.
	Info(ctx context.Context) (*Info, error)

	// CreateIndex creates the review index with its mapping. It reports
	// created=false without error when the index already exists.
	CreateIndex(ctx context.Context) (bool, error)

	// IndexExists reports whether the review index exists.
	IndexExists(ctx context.Context) (bool, error)

	// Index adds or replaces a single document by its review_id and makes it
	// visible to subsequent reads.
	Index(ctx context.Context, review *domain.Review) error

	// BulkIndex adds or replaces multiple documents in one batched call. It
	// returns the number of documents durably indexed, which can be smaller
	// than len(reviews) when individual items fail.
	BulkIndex(ctx context.Context, reviews []domain.Review) (int, error)

	// Get fetches a document by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Review, error)

	// Delete removes a document by id. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// Search executes a query specification and returns the normalized
	// response.
	Search(ctx context.Context, req *query.Request) (*query.Response, error)
}
