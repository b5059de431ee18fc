package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/vetrina-app/vetrina/internal/middleware"
)

// RankingRefresher triggers an on-demand ranking rebuild. Implemented by
// ranking.RefreshJob. RefreshAll reports false when a refresh was already
// running and the call was skipped.
type RankingRefresher interface {
	RefreshAll(ctx context.Context) bool
}

// AdminHandlers exposes operational endpoints.
type AdminHandlers struct {
	refresher RankingRefresher
}

// NewAdminHandlers creates admin endpoint handlers.
func NewAdminHandlers(refresher RankingRefresher) *AdminHandlers {
	return &AdminHandlers{refresher: refresher}
}

// RefreshResponse is the JSON response for a manual refresh.
type RefreshResponse struct {
	Status string `json:"status"`
}

// Refresh handles POST /admin/refresh. It runs a full rebuild of all
// ranked sets and returns 409 if a refresh is already in progress.
func (h *AdminHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	if !h.refresher.RefreshAll(r.Context()) {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeRefreshInProgress)
		WriteError(w, ctx, http.StatusConflict, ErrCodeRefreshInProgress, "A ranking refresh is already in progress")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(RefreshResponse{Status: "refreshed"}); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode refresh response", "error", err)
	}
}
