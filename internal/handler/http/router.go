// Package http exposes the review service over HTTP: ingestion and admin
// endpoints, full-text search, and analytics.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seifmohamed1w/elastic-search/internal/service"
	"github.com/seifmohamed1w/elastic-search/pkg/health"
	"github.com/seifmohamed1w/elastic-search/pkg/middleware"
)

const (
	// requestTimeout bounds ordinary request handling.
	requestTimeout = 30 * time.Second

	// bulkRequestTimeout covers a full-size bulk load: up to ten batches of
	// 500 documents, each with its own 120 second budget.
	bulkRequestTimeout = 25 * time.Minute
)

// NewRouter creates a chi router with all review service routes registered.
func NewRouter(
	svc *service.Service,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("reviews"))

	reviewHandler := NewReviewHandler(svc, logger)
	searchHandler := NewSearchHandler(svc, logger)
	analyticsHandler := NewAnalyticsHandler(svc, logger)

	// Bulk ingestion runs far longer than any other request, so it carries
	// its own deadline instead of the shared one.
	r.With(chimw.Timeout(bulkRequestTimeout)).Post("/reviews/bulk", reviewHandler.BulkCreate)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(requestTimeout))

		// Operational endpoints
		r.Get("/health/live", healthHandler.LivenessHandler())
		r.Get("/health/ready", healthHandler.ReadinessHandler())
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			promhttp.Handler().ServeHTTP(w, r)
		})

		r.Get("/health", reviewHandler.Health)
		r.Post("/admin/index/create", reviewHandler.CreateIndex)

		r.Route("/reviews", func(r chi.Router) {
			r.Post("/", reviewHandler.Create)
			r.Get("/{id}", reviewHandler.Get)
			r.Put("/{id}", reviewHandler.Update)
			r.Delete("/{id}", reviewHandler.Delete)
		})

		r.Get("/search", searchHandler.Search)

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/summary", analyticsHandler.Summary)
			r.Get("/trends", analyticsHandler.Trends)
		})
	})

	return r
}
