package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/seifmohamed1w/elastic-search/internal/domain"
	"github.com/seifmohamed1w/elastic-search/internal/service"
	"github.com/seifmohamed1w/elastic-search/pkg/httputil"
)

// AnalyticsHandler handles HTTP requests for the analytics endpoints.
type AnalyticsHandler struct {
	service *service.Service
	logger  *slog.Logger
}

// NewAnalyticsHandler creates a new analytics HTTP handler.
func NewAnalyticsHandler(svc *service.Service, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: svc,
		logger:  logger,
	}
}

// Summary handles GET /analytics/summary
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	params, ok := parseAnalyticsParams(w, r.URL.Query())
	if !ok {
		return
	}

	summary, err := h.service.Summary(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, summary)
}

// Trends handles GET /analytics/trends
func (h *AnalyticsHandler) Trends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params, ok := parseAnalyticsParams(w, q)
	if !ok {
		return
	}

	interval := domain.IntervalMonth
	if v := q.Get("interval"); v != "" {
		if !domain.IsValidInterval(v) {
			httputil.WriteBadRequest(w, "interval must be one of: day, week, month")
			return
		}
		interval = v
	}

	trend, err := h.service.Trends(r.Context(), params, interval)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, trend)
}

// parseAnalyticsParams parses the analytics filter parameters. Sentiment is
// not accepted here because the endpoints aggregate over it.
func parseAnalyticsParams(w http.ResponseWriter, q url.Values) (domain.AnalyticsParams, bool) {
	params := domain.AnalyticsParams{
		Query: strings.TrimSpace(q.Get("q")),
	}

	var ok bool
	if params.ProductID, _, params.MinRating, params.MaxRating,
		params.DateFrom, params.DateTo, ok = parseFilterParams(w, q); !ok {
		return domain.AnalyticsParams{}, false
	}

	return params, true
}
