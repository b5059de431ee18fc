package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vetrina-app/vetrina/internal/business"
	"github.com/vetrina-app/vetrina/internal/jobs"
	"github.com/vetrina-app/vetrina/internal/review"
)

// JobMetrics provides centralized background job metrics tracking.
type JobMetrics interface {
	IncJobsTotal(jobType, status string)
	ObserveJobDuration(jobType string, seconds float64)
	IncJobErrors(jobType, errorType string)
}

// Aggregator recomputes the derived BusinessStats row for a business from
// its current reviews and category peers. Recomputation is idempotent: the
// same underlying data always produces the same row, so concurrent
// recomputes for one business may safely race with last-write-wins.
type Aggregator struct {
	businesses business.BusinessRepository
	reviews    review.ReviewRepository
	store      StatsStore
	logger     *slog.Logger
	metrics    *Metrics
	jobMetrics JobMetrics
}

// NewAggregator creates a new stats aggregator. Both metrics arguments
// may be nil to disable the respective reporting.
func NewAggregator(
	businesses business.BusinessRepository,
	reviews review.ReviewRepository,
	store StatsStore,
	logger *slog.Logger,
	metrics *Metrics,
	jobMetrics JobMetrics,
) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		businesses: businesses,
		reviews:    reviews,
		store:      store,
		logger:     logger,
		metrics:    metrics,
		jobMetrics: jobMetrics,
	}
}

// Recompute rebuilds and upserts the stats row for one business.
// Returns business.ErrBusinessNotFound if the business does not exist; no
// partial write occurs in that case. Zero reviews is not an error: the
// result is the zero/neutral state.
func (a *Aggregator) Recompute(ctx context.Context, businessID string) (*BusinessStats, error) {
	start := time.Now()

	result, err := a.recompute(ctx, businessID)

	duration := time.Since(start).Seconds()
	if a.metrics != nil {
		a.metrics.ObserveRecomputeDuration(duration)
		if err != nil {
			a.metrics.IncRecomputeErrors()
		} else {
			a.metrics.IncRecomputeTotal()
		}
	}
	if a.jobMetrics != nil {
		status := jobs.StatusSuccess
		if err != nil {
			status = jobs.StatusFailure
			a.jobMetrics.IncJobErrors(jobs.JobTypeStatsRecompute, recomputeErrorType(err))
		}
		a.jobMetrics.IncJobsTotal(jobs.JobTypeStatsRecompute, status)
		a.jobMetrics.ObserveJobDuration(jobs.JobTypeStatsRecompute, duration)
	}
	return result, err
}

// recomputeErrorType maps a recompute failure to a job error label.
func recomputeErrorType(err error) string {
	if errors.Is(err, business.ErrBusinessNotFound) {
		return "not_found"
	}
	return "database_error"
}

func (a *Aggregator) recompute(ctx context.Context, businessID string) (*BusinessStats, error) {
	biz, err := a.businesses.GetByID(ctx, businessID)
	if err != nil {
		return nil, err
	}

	agg, err := a.reviews.AggregateByBusiness(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	stats := NewZeroStats(businessID)
	stats.TotalReviews = agg.TotalReviews
	stats.AverageRating = agg.AverageRating
	for star, count := range agg.Distribution {
		stats.RatingDistribution[star] = count
	}

	// A business with no reviews keeps the neutral defaults; category
	// comparison would only echo them back.
	if agg.TotalReviews > 0 {
		if err := a.fillPercentiles(ctx, biz, agg, stats); err != nil {
			return nil, err
		}
	}

	stats.UpdatedAt = time.Now()
	if err := a.store.Upsert(ctx, stats); err != nil {
		return nil, fmt.Errorf("failed to upsert stats: %w", err)
	}

	a.logger.Debug("business stats recomputed",
		"business_id", businessID,
		"category", biz.Category,
		"total_reviews", stats.TotalReviews,
		"average_rating", stats.AverageRating)

	return stats, nil
}

// fillPercentiles computes the blended reputation percentiles for a
// reviewed business against its category peers.
func (a *Aggregator) fillPercentiles(ctx context.Context, biz *business.Business, agg *review.Aggregate, stats *BusinessStats) error {
	peers, err := a.businesses.ListActiveByCategory(ctx, biz.Category)
	if err != nil {
		return fmt.Errorf("failed to list category peers: %w", err)
	}

	peerIDs := make([]string, 0, len(peers))
	for _, p := range peers {
		peerIDs = append(peerIDs, p.ID)
	}

	peerAggs, err := a.reviews.AggregatesByBusinesses(ctx, peerIDs)
	if err != nil {
		return fmt.Errorf("failed to aggregate category peers: %w", err)
	}

	// The comparison set is businesses in the category with at least one
	// review, including this one. Zero-review peers are excluded from the
	// denominator.
	reviewedCount := 0
	for _, pa := range peerAggs {
		if pa.TotalReviews > 0 {
			reviewedCount++
		}
	}
	if agg.TotalReviews > 0 {
		if pa, ok := peerAggs[biz.ID]; !ok || pa.TotalReviews == 0 {
			// The business may not appear in the peer listing, e.g. when it
			// is not active. Count it in either case: its own reviews exist.
			reviewedCount++
		}
	}

	degenerate := reviewedCount < MinReviewedInCategory

	for _, name := range ScoreNames {
		tag := TagForScore[name]
		raw := RawTagScore(agg.TagCounts[tag], agg.TotalReviews)

		categoryPct := NeutralPercentile
		if !degenerate {
			var peerRaws []float64
			for _, pa := range peerAggs {
				if pa.BusinessID == biz.ID || pa.TotalReviews == 0 {
					continue
				}
				peerRaws = append(peerRaws, RawTagScore(pa.TagCounts[tag], pa.TotalReviews))
			}
			categoryPct = PercentileRank(raw, peerRaws)
		}

		stats.Percentiles[name] = BlendScore(raw, categoryPct)
	}
	return nil
}
