// Package api provides HTTP API handlers for the business discovery service.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vetrina-app/vetrina/internal/middleware"
	"github.com/vetrina-app/vetrina/internal/ranking"
)

// DefaultPageSize is the number of entries returned when no limit is given.
const DefaultPageSize = 20

// MaxPageSize caps the limit query parameter.
const MaxPageSize = 100

// DiscoveryHandlers serves the precomputed ranked sets. All reads come
// from the in-memory snapshot store and never touch the database.
type DiscoveryHandlers struct {
	snapshots *ranking.SnapshotStore
}

// NewDiscoveryHandlers creates discovery endpoint handlers.
func NewDiscoveryHandlers(snapshots *ranking.SnapshotStore) *DiscoveryHandlers {
	return &DiscoveryHandlers{snapshots: snapshots}
}

// RankedSetResponse is the JSON response for all discovery endpoints.
type RankedSetResponse struct {
	Set         string                `json:"set"`
	RefreshedAt time.Time             `json:"refreshed_at"`
	Entries     []ranking.RankedEntry `json:"entries"`
}

// TopRated handles GET /discovery/top-rated.
func (h *DiscoveryHandlers) TopRated(w http.ResponseWriter, r *http.Request) {
	h.serveSet(w, r, ranking.SetTopRated, true)
}

// Trending handles GET /discovery/trending.
func (h *DiscoveryHandlers) Trending(w http.ResponseWriter, r *http.Request) {
	h.serveSet(w, r, ranking.SetTrending, true)
}

// New handles GET /discovery/new.
func (h *DiscoveryHandlers) New(w http.ResponseWriter, r *http.Request) {
	h.serveSet(w, r, ranking.SetNew, true)
}

// Quality handles GET /discovery/quality. The quality fallback pool is
// not category-scoped, so the category parameter is ignored.
func (h *DiscoveryHandlers) Quality(w http.ResponseWriter, r *http.Request) {
	h.serveSet(w, r, ranking.SetQuality, false)
}

func (h *DiscoveryHandlers) serveSet(w http.ResponseWriter, r *http.Request, setName string, categoryScoped bool) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	limit := DefaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "limit must be a positive integer")
			return
		}
		limit = parsed
		if limit > MaxPageSize {
			limit = MaxPageSize
		}
	}

	category := ""
	if categoryScoped {
		category = r.URL.Query().Get("category")
	}

	entries, err := h.snapshots.Query(setName, limit, category)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to read ranked set")
		return
	}

	set, err := h.snapshots.Get(setName)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to read ranked set")
		return
	}

	response := RankedSetResponse{
		Set:         setName,
		RefreshedAt: set.RefreshedAt,
		Entries:     entries,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode ranked set response", "error", err)
	}
}
