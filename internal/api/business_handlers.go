package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vetrina-app/vetrina/internal/business"
	"github.com/vetrina-app/vetrina/internal/middleware"
	"github.com/vetrina-app/vetrina/internal/stats"
)

// BusinessHandlers serves individual business listings and their derived
// review statistics.
type BusinessHandlers struct {
	businesses business.BusinessRepository
	stats      stats.StatsStore
}

// NewBusinessHandlers creates business endpoint handlers.
func NewBusinessHandlers(businesses business.BusinessRepository, statsStore stats.StatsStore) *BusinessHandlers {
	return &BusinessHandlers{
		businesses: businesses,
		stats:      statsStore,
	}
}

// ServeHTTP routes /businesses/{id} and /businesses/{id}/stats.
func (h *BusinessHandlers) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/businesses/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		h.getBusiness(w, r, parts[0])
	case len(parts) == 2 && parts[0] != "" && parts[1] == "stats":
		h.getStats(w, r, parts[0])
	default:
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Resource not found")
	}
}

func (h *BusinessHandlers) getBusiness(w http.ResponseWriter, r *http.Request, id string) {
	biz, err := h.businesses.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, business.ErrBusinessNotFound) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeBusinessNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeBusinessNotFound, "Business not found")
			return
		}
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load business")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(biz); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode business response", "error", err)
	}
}

func (h *BusinessHandlers) getStats(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.businesses.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, business.ErrBusinessNotFound) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeBusinessNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeBusinessNotFound, "Business not found")
			return
		}
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load business")
		return
	}

	row, err := h.stats.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, stats.ErrStatsNotFound) {
			// Never recomputed yet: serve the documented zero state
			row = stats.NewZeroStats(id)
		} else {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load stats")
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(row); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode stats response", "error", err)
	}
}
