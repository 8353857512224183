package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/seifmohamed1w/elastic-search/internal/domain"
	"github.com/seifmohamed1w/elastic-search/internal/engine"
	"github.com/seifmohamed1w/elastic-search/internal/query"
)

// Engine is an Elasticsearch-backed implementation of the ReviewEngine interface.
type Engine struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
}

// esInfoResponse is the structure used to decode the cluster info response.
type esInfoResponse struct {
	Version struct {
		Number string `json:"number"`
	} `json:"version"`
}

// esGetResponse is the structure used to decode document get responses.
type esGetResponse struct {
	Found  bool          `json:"found"`
	Source domain.Review `json:"_source"`
}

// esSearchResponse is the structure used to decode search responses.
type esSearchResponse struct {
	Hits struct {
		Total query.TotalCount `json:"total"`
		Hits  []struct {
			Source    domain.Review       `json:"_source"`
			Score     *float64            `json:"_score"`
			Highlight map[string][]string `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations struct {
		AvgRating  *esAvgAgg   `json:"avg_rating"`
		Sentiments *esTermsAgg `json:"sentiments"`
		Trend      *esTrendAgg `json:"trend"`
	} `json:"aggregations"`
}

type esAvgAgg struct {
	Value *float64 `json:"value"`
}

type esTermsAgg struct {
	Buckets []struct {
		Key      string `json:"key"`
		DocCount int    `json:"doc_count"`
	} `json:"buckets"`
}

type esTrendAgg struct {
	Buckets []struct {
		KeyAsString string      `json:"key_as_string"`
		DocCount    int         `json:"doc_count"`
		AvgRating   *esAvgAgg   `json:"avg_rating"`
		Sentiments  *esTermsAgg `json:"sentiments"`
	} `json:"buckets"`
}

// esBulkResponse is the structure used to decode bulk responses.
type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

// esErrorResponse is used to decode Elasticsearch error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New creates a new Elasticsearch engine connected to the given URL.
// The index is NOT created implicitly; callers create it through
// CreateIndex so that queries against a missing index surface as a distinct
// precondition failure. If indexName is empty, DefaultIndexName is used.
func New(esURL string, indexName string, logger *slog.Logger) (*Engine, error) {
	if indexName == "" {
		indexName = DefaultIndexName
	}

	cfg := elasticsearch.Config{
		Addresses: []string{esURL},
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: failed to create client: %w", err)
	}

	return &Engine{
		client:    client,
		indexName: indexName,
		logger:    logger,
	}, nil
}

// IndexName returns the name of the index this engine operates on.
func (e *Engine) IndexName() string {
	return e.indexName
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// Info returns the cluster version for the health probe.
func (e *Engine) Info(ctx context.Context) (*engine.Info, error) {
	res, err := e.client.Info(e.client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch info: unexpected status %s", res.Status())
	}

	var info esInfoResponse
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("elasticsearch info: decode response: %w", err)
	}

	return &engine.Info{Version: info.Version.Number}, nil
}

// IndexExists reports whether the reviews index exists.
func (e *Engine) IndexExists(ctx context.Context) (bool, error) {
	res, err := e.client.Indices.Exists(
		[]string{e.indexName},
		e.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("check index exists: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	return res.StatusCode == 200, nil
}

// CreateIndex creates the reviews index with its mapping. It is idempotent:
// if the index already exists it reports created=false without error.
func (e *Engine) CreateIndex(ctx context.Context) (bool, error) {
	exists, err := e.IndexExists(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		e.logger.Info("elasticsearch index already exists", "index", e.indexName)
		return false, nil
	}

	res, err := e.client.Indices.Create(
		e.indexName,
		e.client.Indices.Create.WithBody(strings.NewReader(buildIndexMapping())),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		var errResp esErrorResponse
		if decErr := json.NewDecoder(res.Body).Decode(&errResp); decErr == nil {
			// Concurrent creation loses the race but the index is there.
			if errResp.Error.Type == "resource_already_exists_exception" {
				return false, nil
			}
			return false, fmt.Errorf("create index: %s: %s", errResp.Error.Type, errResp.Error.Reason)
		}
		return false, fmt.Errorf("create index: unexpected status %s", res.Status())
	}

	e.logger.Info("elasticsearch index created", "index", e.indexName)
	return true, nil
}

// Index adds or replaces a single review document by its review_id and
// refreshes the index so the write is visible to the next read.
func (e *Engine) Index(ctx context.Context, review *domain.Review) error {
	data, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("elasticsearch index: marshal review: %w", err)
	}

	res, err := e.client.Index(
		e.indexName,
		bytes.NewReader(data),
		e.client.Index.WithDocumentID(review.ReviewID),
		e.client.Index.WithRefresh("true"),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return e.decodeError(res.Body, res.Status(), "elasticsearch index")
	}

	e.logger.Debug("indexed review", "id", review.ReviewID, "sentiment", review.Sentiment)
	return nil
}

// BulkIndex adds or replaces multiple review documents using the bulk NDJSON
// API, then refreshes the index. Per-item failures are collected into a
// single error; items that succeeded before the failure are counted in the
// returned total.
func (e *Engine) BulkIndex(ctx context.Context, reviews []domain.Review) (int, error) {
	if len(reviews) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer

	for i := range reviews {
		action := map[string]any{
			"index": map[string]any{
				"_index": e.indexName,
				"_id":    reviews[i].ReviewID,
			},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return 0, fmt.Errorf("elasticsearch bulk index: encode action: %w", err)
		}

		if err := json.NewEncoder(&buf).Encode(reviews[i]); err != nil {
			return 0, fmt.Errorf("elasticsearch bulk index: encode document: %w", err)
		}
	}

	res, err := e.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		e.client.Bulk.WithIndex(e.indexName),
		e.client.Bulk.WithRefresh("true"),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return 0, fmt.Errorf("elasticsearch bulk index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return 0, e.decodeError(res.Body, res.Status(), "elasticsearch bulk index")
	}

	var bulkResp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return 0, fmt.Errorf("elasticsearch bulk index: decode response: %w", err)
	}

	if bulkResp.Errors {
		indexed := 0
		var errMsgs []string
		for _, item := range bulkResp.Items {
			if item.Index.Error.Type == "" {
				indexed++
				continue
			}
			errMsgs = append(errMsgs, fmt.Sprintf("id=%s: %s: %s", item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason))
		}
		return indexed, fmt.Errorf("elasticsearch bulk index: partial errors: %s", strings.Join(errMsgs, "; "))
	}

	e.logger.Info("bulk indexed reviews", "count", len(reviews))
	return len(reviews), nil
}

// Get fetches a review document by id. Returns engine.ErrNotFound if the
// document does not exist and engine.ErrIndexNotFound if the index is absent.
func (e *Engine) Get(ctx context.Context, id string) (*domain.Review, error) {
	res, err := e.client.Get(
		e.indexName,
		id,
		e.client.Get.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch get: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == 404 {
		if isIndexNotFound(res.Body) {
			return nil, engine.ErrIndexNotFound
		}
		return nil, engine.ErrNotFound
	}
	if res.IsError() {
		return nil, e.decodeError(res.Body, res.Status(), "elasticsearch get")
	}

	var getResp esGetResponse
	if err := json.NewDecoder(res.Body).Decode(&getResp); err != nil {
		return nil, fmt.Errorf("elasticsearch get: decode response: %w", err)
	}
	if !getResp.Found {
		return nil, engine.ErrNotFound
	}

	return &getResp.Source, nil
}

// Delete removes a review document by id and refreshes the index. Returns
// engine.ErrNotFound if the document does not exist.
func (e *Engine) Delete(ctx context.Context, id string) error {
	res, err := e.client.Delete(
		e.indexName,
		id,
		e.client.Delete.WithRefresh("true"),
		e.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == 404 {
		if isIndexNotFound(res.Body) {
			return engine.ErrIndexNotFound
		}
		return engine.ErrNotFound
	}
	if res.IsError() {
		return e.decodeError(res.Body, res.Status(), "elasticsearch delete")
	}

	e.logger.Debug("deleted review", "id", id)
	return nil
}

// Search executes a query specification and normalizes the response.
func (e *Engine) Search(ctx context.Context, req *query.Request) (*query.Response, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == 404 && isIndexNotFound(res.Body) {
		return nil, engine.ErrIndexNotFound
	}
	if res.IsError() {
		return nil, e.decodeError(res.Body, res.Status(), "elasticsearch search")
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}

	hits := make([]query.Hit, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		var score float64
		if hit.Score != nil {
			score = *hit.Score
		}
		hits = append(hits, query.Hit{
			Source:     hit.Source,
			Score:      score,
			Highlights: hit.Highlight,
		})
	}

	resp := &query.Response{
		Total: esResp.Hits.Total.Value,
		Hits:  hits,
	}

	if esResp.Aggregations.AvgRating != nil {
		resp.Aggregations.AvgRating = esResp.Aggregations.AvgRating.Value
	}
	if esResp.Aggregations.Sentiments != nil {
		resp.Aggregations.Sentiments = termsBuckets(esResp.Aggregations.Sentiments)
	}
	if esResp.Aggregations.Trend != nil {
		buckets := make([]query.DateBucket, 0, len(esResp.Aggregations.Trend.Buckets))
		for _, b := range esResp.Aggregations.Trend.Buckets {
			bucket := query.DateBucket{
				Date:     b.KeyAsString,
				DocCount: b.DocCount,
			}
			if b.AvgRating != nil {
				bucket.AvgRating = b.AvgRating.Value
			}
			if b.Sentiments != nil {
				bucket.Sentiments = termsBuckets(b.Sentiments)
			}
			buckets = append(buckets, bucket)
		}
		resp.Aggregations.Trend = buckets
	}

	return resp, nil
}

func termsBuckets(agg *esTermsAgg) []query.TermsBucket {
	out := make([]query.TermsBucket, 0, len(agg.Buckets))
	for _, b := range agg.Buckets {
		out = append(out, query.TermsBucket{Key: b.Key, DocCount: b.DocCount})
	}
	return out
}

// decodeError turns an Elasticsearch error body into a Go error.
func (e *Engine) decodeError(body io.Reader, status, op string) error {
	var errResp esErrorResponse
	if decErr := json.NewDecoder(body).Decode(&errResp); decErr == nil && errResp.Error.Type != "" {
		return fmt.Errorf("%s: %s: %s", op, errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Errorf("%s: unexpected status %s", op, status)
}

// isIndexNotFound reports whether the error body names a missing index.
func isIndexNotFound(body io.Reader) bool {
	var errResp esErrorResponse
	if err := json.NewDecoder(body).Decode(&errResp); err != nil {
		return false
	}
	return errResp.Error.Type == "index_not_found_exception"
}
