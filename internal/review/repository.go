package review

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Trailing window sizes used by the trending score.
const (
	ShortWindow = 7 * 24 * time.Hour
	LongWindow  = 30 * 24 * time.Hour
)

// ReviewRepository defines the interface for review data operations.
// The ranking core only uses the aggregate reads; Create and Delete exist
// for the review subsystem and for tests.
type ReviewRepository interface {
	// Create inserts a new review with a generated UUID if none is set.
	Create(ctx context.Context, r *Review) error

	// Delete removes a review by ID.
	Delete(ctx context.Context, id string) error

	// AggregateByBusiness computes the full-history aggregate for one business.
	// A business with no reviews yields a zero aggregate, not an error.
	AggregateByBusiness(ctx context.Context, businessID string) (*Aggregate, error)

	// ActivityByBusiness computes trailing-window activity for all businesses
	// with at least one review inside the long window, keyed by business ID.
	// The now parameter anchors the windows so refresh runs see one
	// consistent cutoff.
	ActivityByBusiness(ctx context.Context, now time.Time) (map[string]*ActivityWindow, error)

	// AggregatesByBusinesses computes full-history aggregates for each of the
	// given business IDs in one pass, keyed by business ID. Businesses with no
	// reviews get a zero aggregate. Used to build the category comparison set
	// for percentile ranking and the snapshot for ranked-set rebuilds.
	AggregatesByBusinesses(ctx context.Context, businessIDs []string) (map[string]*Aggregate, error)
}

// InMemoryReviewRepository is an in-memory implementation of
// ReviewRepository. Thread-safe via RWMutex.
type InMemoryReviewRepository struct {
	mu      sync.RWMutex
	reviews map[string]*Review             // UUID -> Review
	byBiz   map[string]map[string]struct{} // businessID -> review UUIDs
}

// NewInMemoryReviewRepository creates a new in-memory review repository.
func NewInMemoryReviewRepository() *InMemoryReviewRepository {
	return &InMemoryReviewRepository{
		reviews: make(map[string]*Review),
		byBiz:   make(map[string]map[string]struct{}),
	}
}

// Create inserts a new review with a generated UUID if none is set.
func (r *InMemoryReviewRepository) Create(ctx context.Context, rev *Review) error {
	if err := rev.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rev.ID == "" {
		rev.ID = uuid.New().String()
	}
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now()
	}

	revCopy := *rev
	r.reviews[rev.ID] = &revCopy
	if r.byBiz[rev.BusinessID] == nil {
		r.byBiz[rev.BusinessID] = make(map[string]struct{})
	}
	r.byBiz[rev.BusinessID][rev.ID] = struct{}{}
	return nil
}

// Delete removes a review by ID.
func (r *InMemoryReviewRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rev, ok := r.reviews[id]
	if !ok {
		return ErrReviewNotFound
	}
	delete(r.reviews, id)
	delete(r.byBiz[rev.BusinessID], id)
	return nil
}

// AggregateByBusiness computes the full-history aggregate for one business.
func (r *InMemoryReviewRepository) AggregateByBusiness(ctx context.Context, businessID string) (*Aggregate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.aggregateLocked(businessID), nil
}

// aggregateLocked computes the aggregate for one business.
// Caller must hold at least a read lock.
func (r *InMemoryReviewRepository) aggregateLocked(businessID string) *Aggregate {
	agg := newZeroAggregate(businessID)

	var ratingSum int
	for id := range r.byBiz[businessID] {
		rev := r.reviews[id]
		agg.TotalReviews++
		ratingSum += rev.Rating
		agg.Distribution[rev.Rating]++
		for _, tag := range ReputationTags {
			if rev.HasTag(tag) {
				agg.TagCounts[tag]++
			}
		}
	}

	if agg.TotalReviews > 0 {
		// Rounded to 2 decimals, matching the stored representation.
		agg.AverageRating = math.Round(float64(ratingSum)/float64(agg.TotalReviews)*100) / 100
	}
	return agg
}

// ActivityByBusiness computes trailing-window activity for all businesses
// with at least one review inside the long window.
func (r *InMemoryReviewRepository) ActivityByBusiness(ctx context.Context, now time.Time) (map[string]*ActivityWindow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*ActivityWindow)
	sums := make(map[string]int)

	shortCutoff := now.Add(-ShortWindow)
	longCutoff := now.Add(-LongWindow)

	for _, rev := range r.reviews {
		if rev.CreatedAt.Before(longCutoff) || rev.CreatedAt.After(now) {
			continue
		}
		w := result[rev.BusinessID]
		if w == nil {
			w = &ActivityWindow{BusinessID: rev.BusinessID}
			result[rev.BusinessID] = w
		}
		w.ReviewsLast30d++
		sums[rev.BusinessID] += rev.Rating
		if !rev.CreatedAt.Before(shortCutoff) {
			w.ReviewsLast7d++
		}
	}

	for id, w := range result {
		w.AvgRatingLast30d = float64(sums[id]) / float64(w.ReviewsLast30d)
	}
	return result, nil
}

// AggregatesByBusinesses computes full-history aggregates for each of the
// given business IDs, keyed by business ID.
func (r *InMemoryReviewRepository) AggregatesByBusinesses(ctx context.Context, businessIDs []string) (map[string]*Aggregate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*Aggregate, len(businessIDs))
	for _, id := range businessIDs {
		result[id] = r.aggregateLocked(id)
	}
	return result, nil
}
