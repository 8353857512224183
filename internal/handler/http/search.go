package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/seifmohamed1w/elastic-search/internal/domain"
	"github.com/seifmohamed1w/elastic-search/internal/service"
	"github.com/seifmohamed1w/elastic-search/pkg/httputil"
)

// SearchHandler handles HTTP requests for the search endpoint.
type SearchHandler struct {
	service *service.Service
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(svc *service.Service, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		logger:  logger,
	}
}

// Search handles GET /search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := domain.SearchParams{
		Query: strings.TrimSpace(q.Get("q")),
		Sort:  domain.SortRelevance,
		Page:  1,
		Size:  service.DefaultPageSize,
	}

	if v := q.Get("sort"); v != "" {
		if !domain.IsValidSort(v) {
			httputil.WriteBadRequest(w, "sort must be one of: "+strings.Join(domain.ValidSortOptions(), ", "))
			return
		}
		params.Sort = v
	}

	var ok bool
	if params.ProductID, params.Sentiment, params.MinRating, params.MaxRating,
		params.DateFrom, params.DateTo, ok = parseFilterParams(w, q); !ok {
		return
	}

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			httputil.WriteBadRequest(w, "page must be a positive integer")
			return
		}
		params.Page = page
	}
	if v := q.Get("size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 || size > service.MaxPageSize {
			httputil.WriteBadRequest(w, fmt.Sprintf("size must be an integer between 1 and %d", service.MaxPageSize))
			return
		}
		params.Size = size
	}

	result, err := h.service.Search(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// parseFilterParams parses the filter query parameters shared by the search
// and analytics endpoints: productId, sentiment, minRating, maxRating,
// dateFrom, dateTo. It writes a 400 response and returns ok=false on the
// first invalid parameter.
func parseFilterParams(w http.ResponseWriter, q url.Values) (productID, sentiment *string, minRating, maxRating *int, dateFrom, dateTo *time.Time, ok bool) {
	if v := q.Get("productId"); v != "" {
		productID = &v
	}

	if v := q.Get("sentiment"); v != "" {
		if !domain.IsValidSentiment(v) {
			httputil.WriteBadRequest(w, "sentiment must be one of: positive, negative, neutral")
			return
		}
		sentiment = &v
	}

	if v := q.Get("minRating"); v != "" {
		rating, err := strconv.Atoi(v)
		if err != nil || rating < 1 || rating > 5 {
			httputil.WriteBadRequest(w, "minRating must be an integer between 1 and 5")
			return
		}
		minRating = &rating
	}
	if v := q.Get("maxRating"); v != "" {
		rating, err := strconv.Atoi(v)
		if err != nil || rating < 1 || rating > 5 {
			httputil.WriteBadRequest(w, "maxRating must be an integer between 1 and 5")
			return
		}
		maxRating = &rating
	}
	if minRating != nil && maxRating != nil && *minRating > *maxRating {
		httputil.WriteBadRequest(w, "minRating must not exceed maxRating")
		return
	}

	if v := q.Get("dateFrom"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.WriteBadRequest(w, "dateFrom must be an RFC 3339 timestamp")
			return
		}
		dateFrom = &t
	}
	if v := q.Get("dateTo"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.WriteBadRequest(w, "dateTo must be an RFC 3339 timestamp")
			return
		}
		dateTo = &t
	}
	if dateFrom != nil && dateTo != nil && dateFrom.After(*dateTo) {
		httputil.WriteBadRequest(w, "dateFrom must not be after dateTo")
		return
	}

	ok = true
	return
}
