package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vetrina-app/vetrina/internal/business"
	"github.com/vetrina-app/vetrina/internal/middleware"
	"github.com/vetrina-app/vetrina/internal/stats"
)

// ReviewEventHandlers receives review change notifications and triggers
// synchronous stats recomputation for the affected business.
type ReviewEventHandlers struct {
	aggregator *stats.Aggregator
}

// NewReviewEventHandlers creates review event handlers.
func NewReviewEventHandlers(aggregator *stats.Aggregator) *ReviewEventHandlers {
	return &ReviewEventHandlers{aggregator: aggregator}
}

// ReviewChangedRequest is the JSON body for POST /internal/reviews/changed.
type ReviewChangedRequest struct {
	BusinessID string `json:"business_id"`
}

// ReviewChangedResponse returns the recomputed stats for the business.
type ReviewChangedResponse struct {
	Stats *stats.BusinessStats `json:"stats"`
}

// ReviewChanged handles POST /internal/reviews/changed.
// Any review create or delete must be followed by this notification so the
// derived stats stay consistent with source reviews.
func (h *ReviewEventHandlers) ReviewChanged(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	var req ReviewChangedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body")
		return
	}

	if req.BusinessID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "business_id is required")
		return
	}

	recomputed, err := h.aggregator.Recompute(r.Context(), req.BusinessID)
	if err != nil {
		if errors.Is(err, business.ErrBusinessNotFound) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeBusinessNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeBusinessNotFound, "Business not found")
			return
		}
		slog.ErrorContext(r.Context(), "stats recompute failed",
			"business_id", req.BusinessID,
			"error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to recompute stats")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ReviewChangedResponse{Stats: recomputed}); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode recompute response", "error", err)
	}
}
