// Package stats computes and stores per-business review statistics and
// category-relative reputation percentiles.
package stats

import (
	"time"

	"github.com/vetrina-app/vetrina/internal/review"
)

// Named reputation scores stored in BusinessStats.Percentiles.
const (
	ScorePunctuality       = "punctuality"
	ScoreFriendliness      = "friendliness"
	ScoreTrustworthiness   = "trustworthiness"
	ScoreCostEffectiveness = "cost_effectiveness"
)

// ScoreNames lists all reputation score names in reporting order.
var ScoreNames = []string{
	ScorePunctuality,
	ScoreFriendliness,
	ScoreTrustworthiness,
	ScoreCostEffectiveness,
}

// TagForScore maps each reputation score to the review tag that feeds it.
var TagForScore = map[string]string{
	ScorePunctuality:       review.TagOnTime,
	ScoreFriendliness:      review.TagFriendly,
	ScoreTrustworthiness:   review.TagTrustworthy,
	ScoreCostEffectiveness: review.TagGoodValue,
}

// BusinessStats is the derived statistics row for one business. It is a
// pure function of the business's reviews and its category peers at
// recomputation time; it is never hand-edited and can always be rebuilt
// from source data.
type BusinessStats struct {
	BusinessID    string  `json:"business_id"`
	TotalReviews  int     `json:"total_reviews"`
	AverageRating float64 `json:"average_rating"`

	// RatingDistribution maps star value (1-5) to review count.
	RatingDistribution map[int]int `json:"rating_distribution"`

	// Percentiles maps score name to a blended reputation score in [0,100].
	// Defaults to the neutral midpoint 50 when there are no reviews or no
	// category comparison data.
	Percentiles map[string]int `json:"percentiles"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewZeroStats returns the documented zero/neutral stats state for a
// business with no reviews: zero counts, zero average, all percentiles 50.
func NewZeroStats(businessID string) *BusinessStats {
	s := &BusinessStats{
		BusinessID:         businessID,
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		Percentiles:        make(map[string]int, len(ScoreNames)),
	}
	for _, name := range ScoreNames {
		s.Percentiles[name] = NeutralPercentile
	}
	return s
}
