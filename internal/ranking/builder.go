package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vetrina-app/vetrina/internal/business"
	"github.com/vetrina-app/vetrina/internal/review"
	"github.com/vetrina-app/vetrina/internal/stats"
)

// RankedEntry is a denormalized snapshot of one business inside a ranked
// set: identity and display fields plus the computed score.
type RankedEntry struct {
	BusinessID    string    `json:"business_id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Verified      bool      `json:"verified"`
	ImageURL      string    `json:"image_url,omitempty"`
	AverageRating float64   `json:"average_rating"`
	TotalReviews  int       `json:"total_reviews"`
	Score         float64   `json:"score"`
	CreatedAt     time.Time `json:"created_at"`
}

// Snapshot is one coherent view of the data the four builders rank over.
// All builders read the same snapshot; none mutate source data.
type Snapshot struct {
	Businesses []*business.Business
	Stats      map[string]*stats.BusinessStats
	Activity   map[string]*review.ActivityWindow
	Now        time.Time
}

// statsFor returns the stats row for a business, or the zero/neutral state
// when the business has never been recomputed.
func (s *Snapshot) statsFor(id string) *stats.BusinessStats {
	if bs, ok := s.Stats[id]; ok {
		return bs
	}
	return stats.NewZeroStats(id)
}

// Builder loads snapshots and produces the four ranked sets.
type Builder struct {
	businesses business.BusinessRepository
	reviews    review.ReviewRepository
	stats      stats.StatsStore
	weights    *Weights
	setSize    int
}

// NewBuilder creates a ranked-set builder. A nil weights value falls back
// to defaults; a non-positive setSize falls back to DefaultSetSize.
func NewBuilder(
	businesses business.BusinessRepository,
	reviews review.ReviewRepository,
	statsStore stats.StatsStore,
	weights *Weights,
	setSize int,
) *Builder {
	if weights == nil {
		weights = DefaultWeights()
	}
	if setSize <= 0 {
		setSize = DefaultSetSize
	}
	return &Builder{
		businesses: businesses,
		reviews:    reviews,
		stats:      statsStore,
		weights:    weights,
		setSize:    setSize,
	}
}

// LoadSnapshot reads one coherent view of active businesses, their stats
// rows, and trailing review activity.
func (b *Builder) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	now := time.Now()

	businesses, err := b.businesses.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active businesses: %w", err)
	}

	allStats, err := b.stats.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load business stats: %w", err)
	}

	activity, err := b.reviews.ActivityByBusiness(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load review activity: %w", err)
	}

	return &Snapshot{
		Businesses: businesses,
		Stats:      allStats,
		Activity:   activity,
		Now:        now,
	}, nil
}

// BuildTopRated ranks businesses with enough well-rated review history by
// the log-dampened popularity/quality score.
func (b *Builder) BuildTopRated(snap *Snapshot) ([]RankedEntry, error) {
	var entries []RankedEntry
	for _, biz := range snap.Businesses {
		bs := snap.statsFor(biz.ID)
		if bs.TotalReviews < TopRatedMinReviews || bs.AverageRating < TopRatedMinAverage {
			continue
		}
		entry := newEntry(biz, bs)
		entry.Score = TopRatedScore(bs.AverageRating, bs.TotalReviews)
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if entries[i].AverageRating != entries[j].AverageRating {
			return entries[i].AverageRating > entries[j].AverageRating
		}
		if entries[i].TotalReviews != entries[j].TotalReviews {
			return entries[i].TotalReviews > entries[j].TotalReviews
		}
		return entries[i].BusinessID < entries[j].BusinessID
	})
	return truncate(entries, b.setSize), nil
}

// BuildTrending ranks established businesses by trailing-window review
// activity. Businesses younger than TrendingMinAge are excluded to keep
// launch-day noise out of the set.
func (b *Builder) BuildTrending(snap *Snapshot) ([]RankedEntry, error) {
	var entries []RankedEntry
	for _, biz := range snap.Businesses {
		if biz.AgeAt(snap.Now) <= TrendingMinAge {
			continue
		}
		w := snap.Activity[biz.ID]
		if w == nil || w.ReviewsLast30d < TrendingMinRecentReviews {
			continue
		}
		bs := snap.statsFor(biz.ID)
		entry := newEntry(biz, bs)
		entry.Score = TrendingScore(w.ReviewsLast7d, w.ReviewsLast30d, w.AvgRatingLast30d, b.weights.Trending)
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].BusinessID < entries[j].BusinessID
	})
	return truncate(entries, b.setSize), nil
}

// BuildNew lists businesses created within NewWindow, newest first.
// Recency is the only signal; no score is computed.
func (b *Builder) BuildNew(snap *Snapshot) ([]RankedEntry, error) {
	cutoff := snap.Now.Add(-NewWindow)

	var entries []RankedEntry
	for _, biz := range snap.Businesses {
		if biz.CreatedAt.Before(cutoff) {
			continue
		}
		entries = append(entries, newEntry(biz, snap.statsFor(biz.ID)))
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].BusinessID < entries[j].BusinessID
	})
	return truncate(entries, b.setSize), nil
}

// BuildQuality ranks all active businesses by the completeness and
// verification weighted fallback score used to pad thin feeds.
func (b *Builder) BuildQuality(snap *Snapshot) ([]RankedEntry, error) {
	var entries []RankedEntry
	for _, biz := range snap.Businesses {
		bs := snap.statsFor(biz.ID)
		entry := newEntry(biz, bs)
		entry.Score = QualityScore(biz.Verified, biz.HasDescription(), biz.HasImage(),
			bs.TotalReviews, bs.AverageRating, b.weights.Quality)
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].BusinessID < entries[j].BusinessID
	})
	return truncate(entries, b.setSize), nil
}

// newEntry builds the denormalized display fields shared by all sets.
func newEntry(biz *business.Business, bs *stats.BusinessStats) RankedEntry {
	return RankedEntry{
		BusinessID:    biz.ID,
		Name:          biz.Name,
		Category:      biz.Category,
		Verified:      biz.Verified,
		ImageURL:      biz.ImageURL,
		AverageRating: bs.AverageRating,
		TotalReviews:  bs.TotalReviews,
		CreatedAt:     biz.CreatedAt,
	}
}

// truncate limits entries to the configured set size.
func truncate(entries []RankedEntry, n int) []RankedEntry {
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}
