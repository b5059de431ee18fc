package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vetrina-app/vetrina/internal/business"
	"github.com/vetrina-app/vetrina/internal/review"
	"github.com/vetrina-app/vetrina/internal/stats"
)

func newReviewEventFixture(t *testing.T) (*ReviewEventHandlers, *business.InMemoryBusinessRepository, *review.InMemoryReviewRepository) {
	t.Helper()
	businesses := business.NewInMemoryBusinessRepository()
	reviews := review.NewInMemoryReviewRepository()
	store := stats.NewInMemoryStatsStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	aggregator := stats.NewAggregator(businesses, reviews, store, logger, nil, nil)
	return NewReviewEventHandlers(aggregator), businesses, reviews
}

func TestReviewChanged(t *testing.T) {
	h, businesses, reviews := newReviewEventFixture(t)
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()

	if err := businesses.Insert(ctx, &business.Business{ID: "b1", Name: "one", Category: "cafe", Status: business.StatusActive}); err != nil {
		t.Fatalf("failed to insert business: %v", err)
	}
	for _, rating := range []int{5, 4} {
		if err := reviews.Create(ctx, &review.Review{BusinessID: "b1", Rating: rating}); err != nil {
			t.Fatalf("failed to create review: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/internal/reviews/changed",
		strings.NewReader(`{"business_id":"b1"}`))
	rec := httptest.NewRecorder()
	h.ReviewChanged(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	var resp ReviewChangedResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Stats == nil {
		t.Fatal("expected recomputed stats in the response")
	}
	if resp.Stats.TotalReviews != 2 || resp.Stats.AverageRating != 4.5 {
		t.Errorf("stats = %+v, want 2 reviews at 4.5", resp.Stats)
	}
}

func TestReviewChangedUnknownBusiness(t *testing.T) {
	h, _, _ := newReviewEventFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/internal/reviews/changed",
		strings.NewReader(`{"business_id":"missing"}`))
	rec := httptest.NewRecorder()
	h.ReviewChanged(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Error.Code != ErrCodeBusinessNotFound {
		t.Errorf("error code = %s, want %s", resp.Error.Code, ErrCodeBusinessNotFound)
	}
}

func TestReviewChangedBadRequests(t *testing.T) {
	h, _, _ := newReviewEventFixture(t)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{name: "invalid json", body: `{not json`, wantCode: ErrCodeBadRequest},
		{name: "missing business id", body: `{}`, wantCode: ErrCodeValidation},
		{name: "empty business id", body: `{"business_id":""}`, wantCode: ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/internal/reviews/changed",
				strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.ReviewChanged(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			resp := decodeError(t, rec)
			if resp.Error.Code != tt.wantCode {
				t.Errorf("error code = %s, want %s", resp.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestReviewChangedMethodNotAllowed(t *testing.T) {
	h, _, _ := newReviewEventFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/internal/reviews/changed", nil)
	rec := httptest.NewRecorder()
	h.ReviewChanged(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
