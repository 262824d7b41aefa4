package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/snapreviews/snapreviews/internal/domain"
	"github.com/snapreviews/snapreviews/internal/service"
	"github.com/snapreviews/snapreviews/pkg/httputil"
)

// ReviewHandler serves the review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// addReviewResponse is the JSON body returned after adding a review.
type addReviewResponse struct {
	Business *domain.Business `json:"business"`
	Review   *domain.Review   `json:"review"`
}

// Add handles POST /business/{id}/reviews.
func (h *ReviewHandler) Add(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	role := roleFrom(r)
	if err := service.Authorize(role, domain.ActionAddReview); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	req, err := decodeReview(w, r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	b, review, err := h.service.AddReview(r.Context(), role, id.String(), service.AddReviewInput{
		Rating: req.Rating,
		Body:   req.Body,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	respond(w, r, http.StatusCreated, "/business/"+b.ID, addReviewResponse{Business: b, Review: review})
}

// Remove handles DELETE /business/{id}/reviews/{reviewId}.
func (h *ReviewHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	reviewID, ok := httputil.ParseUUID(w, chi.URLParam(r, "reviewId"))
	if !ok {
		return
	}

	b, err := h.service.RemoveReview(r.Context(), roleFrom(r), id.String(), reviewID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	respond(w, r, http.StatusOK, "/business/"+b.ID, b)
}
