package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seifmohamed1w/elastic-search/internal/domain"
	"github.com/seifmohamed1w/elastic-search/internal/service"
	"github.com/seifmohamed1w/elastic-search/pkg/httputil"
	"github.com/seifmohamed1w/elastic-search/pkg/validator"
)

// ReviewHandler handles HTTP requests for review ingestion and admin
// endpoints.
type ReviewHandler struct {
	service *service.Service
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.Service, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateReviewRequest is the JSON request body for indexing a single review.
// Sentiment fields are intentionally absent: they are derived server-side.
type CreateReviewRequest struct {
	ReviewID    string     `json:"review_id"`
	ProductID   string     `json:"product_id" validate:"required"`
	ProductName string     `json:"product_name" validate:"required,min=1"`
	Rating      int        `json:"rating" validate:"required,gte=1,lte=5"`
	ReviewTitle string     `json:"review_title" validate:"required,min=1"`
	ReviewText  string     `json:"review_text" validate:"required,min=1"`
	CreatedAt   *time.Time `json:"created_at"`
}

// BulkCreateRequest is the JSON request body for bulk indexing reviews.
type BulkCreateRequest struct {
	Reviews []CreateReviewRequest `json:"reviews" validate:"required,min=1,max=5000,dive"`
}

// UpdateReviewRequest is the JSON request body for a partial update. Absent
// fields keep their stored values.
type UpdateReviewRequest struct {
	ProductID   *string    `json:"product_id" validate:"omitempty,min=1"`
	ProductName *string    `json:"product_name" validate:"omitempty,min=1"`
	Rating      *int       `json:"rating" validate:"omitempty,gte=1,lte=5"`
	ReviewTitle *string    `json:"review_title" validate:"omitempty,min=1"`
	ReviewText  *string    `json:"review_text" validate:"omitempty,min=1"`
	CreatedAt   *time.Time `json:"created_at"`
}

func toCreateInput(req CreateReviewRequest) service.CreateInput {
	input := service.CreateInput{
		ReviewID:    req.ReviewID,
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		Rating:      req.Rating,
		ReviewTitle: req.ReviewTitle,
		ReviewText:  req.ReviewText,
	}
	if req.CreatedAt != nil {
		input.CreatedAt = *req.CreatedAt
	}
	return input
}

// decodeBody caps the request body at limit bytes, decodes it into dst, and
// validates the result. On failure it writes the 400 response and reports
// false.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := validator.DecodeAndValidate(r, dst); err != nil {
		var vErr *validator.ValidationError
		if errors.As(err, &vErr) {
			httputil.WriteValidationError(w, vErr)
			return false
		}
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorEnvelope{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return false
	}
	return true
}

// --- Handlers ---

// Health handles GET /health
func (h *ReviewHandler) Health(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Health(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

// CreateIndex handles POST /admin/index/create
func (h *ReviewHandler) CreateIndex(w http.ResponseWriter, r *http.Request) {
	created, err := h.service.CreateIndex(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"created": created,
		"index":   h.service.IndexName(),
	})
}

// Create handles POST /reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if !decodeBody(w, r, 1<<20, &req) {
		return
	}

	review, err := h.service.Create(r.Context(), toCreateInput(req))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, review)
}

// BulkCreate handles POST /reviews/bulk
func (h *ReviewHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var req BulkCreateRequest
	if !decodeBody(w, r, 10<<20, &req) { // 10MB limit for bulk endpoint
		return
	}

	inputs := make([]service.CreateInput, 0, len(req.Reviews))
	for _, item := range req.Reviews {
		inputs = append(inputs, toCreateInput(item))
	}

	result, err := h.service.BulkCreate(r.Context(), inputs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// Get handles GET /reviews/{id}
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	review, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, review)
}

// Update handles PUT /reviews/{id}
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateReviewRequest
	if !decodeBody(w, r, 1<<20, &req) {
		return
	}

	patch := domain.ReviewPatch{
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		Rating:      req.Rating,
		ReviewTitle: req.ReviewTitle,
		ReviewText:  req.ReviewText,
		CreatedAt:   req.CreatedAt,
	}

	review, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, review)
}

// Delete handles DELETE /reviews/{id}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"deleted":   true,
		"review_id": id,
	})
}
