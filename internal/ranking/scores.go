package ranking

import (
	"math"
	"time"
)

// Eligibility thresholds and windows for the ranked sets.
const (
	// TopRatedMinReviews and TopRatedMinAverage gate entry into the top
	// rated set; a business needs a minimum body of evidence before its
	// average is trusted.
	TopRatedMinReviews = 3
	TopRatedMinAverage = 3.5

	// TrendingMinAge excludes launch-day noise from the trending set.
	TrendingMinAge = 7 * 24 * time.Hour

	// TrendingMinRecentReviews is the minimum 30-day review count for
	// trending eligibility.
	TrendingMinRecentReviews = 2

	// NewWindow bounds the new-and-notable set to recently created
	// businesses.
	NewWindow = 90 * 24 * time.Hour

	// DefaultSetSize caps each ranked set.
	DefaultSetSize = 100
)

// TrendingWeights defines the weights for the trending score components.
//
// The default formula favors very recent activity (3x the 7-day count)
// over the longer trailing window (1x the 30-day count) and folds in
// recent quality (5x the 30-day average rating over 0-5) so a
// recently-reviewed-but-poorly-rated business does not dominate.
//
// Formula: score = (reviews_7d * 3) + (reviews_30d * 1) + (avg_rating_30d * 5)
type TrendingWeights struct {
	Recent7d     float64 `json:"recent_7d"`     // Weight per 7-day review (default: 3)
	Recent30d    float64 `json:"recent_30d"`    // Weight per 30-day review (default: 1)
	RecentRating float64 `json:"recent_rating"` // Weight on 30-day average rating (default: 5)
}

// QualityWeights defines the weights for the quality fallback score.
//
// The default formula deliberately rewards profile completeness and
// verification over pure popularity, since the set exists to surface
// presentable businesses when the other feeds run thin.
//
// Formula: score = (2 * verified) + (1 * has_description) + (1 * has_image)
//   + ln(1 + total_reviews) + (0.5 * average_rating)
type QualityWeights struct {
	Verified    float64 `json:"verified"`    // Weight for the verification flag (default: 2)
	Description float64 `json:"description"` // Weight for a non-empty description (default: 1)
	Image       float64 `json:"image"`       // Weight for having an image (default: 1)
	Rating      float64 `json:"rating"`      // Weight on average rating (default: 0.5)
}

// Weights holds all ranked-set weight configurations.
type Weights struct {
	Trending TrendingWeights `json:"trending"` // Trending score weights
	Quality  QualityWeights  `json:"quality"`  // Quality fallback score weights
}

// DefaultWeights returns the default ranked-set weight configuration.
func DefaultWeights() *Weights {
	return &Weights{
		Trending: TrendingWeights{
			Recent7d:     3,
			Recent30d:    1,
			RecentRating: 5,
		},
		Quality: QualityWeights{
			Verified:    2,
			Description: 1,
			Image:       1,
			Rating:      0.5,
		},
	}
}

// TopRatedScore computes the top rated ranking score. The log dampening
// on review count prevents a single 5-star review from outranking a
// business with hundreds of consistently good reviews.
//
// Formula: average_rating * ln(total_reviews + 1)
func TopRatedScore(averageRating float64, totalReviews int) float64 {
	return averageRating * math.Log(float64(totalReviews)+1)
}

// TrendingScore computes the trending ranking score from trailing-window
// review activity.
func TrendingScore(reviews7d, reviews30d int, avgRating30d float64, w TrendingWeights) float64 {
	return float64(reviews7d)*w.Recent7d +
		float64(reviews30d)*w.Recent30d +
		avgRating30d*w.RecentRating
}

// QualityScore computes the quality fallback ranking score from profile
// completeness, verification, and log-dampened review volume.
func QualityScore(verified, hasDescription, hasImage bool, totalReviews int, averageRating float64, w QualityWeights) float64 {
	var score float64
	if verified {
		score += w.Verified
	}
	if hasDescription {
		score += w.Description
	}
	if hasImage {
		score += w.Image
	}
	score += math.Log(1 + float64(totalReviews))
	score += averageRating * w.Rating
	return score
}
