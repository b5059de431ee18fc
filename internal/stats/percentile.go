package stats

import "math"

// Scoring constants for the category-relative percentile blend.
const (
	// NeutralPercentile is the default score when there is no review or
	// category-comparison data. A neutral midpoint rather than zero, so a
	// new business is not penalized for having no history.
	NeutralPercentile = 50

	// RawWeight and CategoryWeight define the 60/40 blend between a
	// business's own tag frequency and its rank among category peers.
	RawWeight      = 0.6
	CategoryWeight = 0.4

	// MinReviewedInCategory is the minimum number of reviewed businesses a
	// category needs before percentile comparison is meaningful. Below this
	// the comparison is degenerate and the category component defaults to
	// NeutralPercentile.
	MinReviewedInCategory = 2
)

// RawTagScore returns the percentage of a business's reviews carrying a
// given tag, clamped to [0,100]. With zero reviews the score defaults to
// the neutral midpoint.
func RawTagScore(tagCount, totalReviews int) float64 {
	if totalReviews == 0 {
		return NeutralPercentile
	}
	score := float64(tagCount) / float64(totalReviews) * 100
	return clamp(score, 0, 100)
}

// PercentileRank returns the percentile of a raw tag score among the raw
// scores of other reviewed businesses in the same category: the fraction of
// peers with a strictly lower score, as an integer 0-100.
//
// Ties do not count as lower, so a business tied with every peer receives
// percentile 0 for that tag. With no peers the rank defaults to the
// neutral midpoint.
func PercentileRank(own float64, peers []float64) int {
	if len(peers) == 0 {
		return NeutralPercentile
	}
	var lower int
	for _, p := range peers {
		if p < own {
			lower++
		}
	}
	return int(math.Round(float64(lower) / float64(len(peers)) * 100))
}

// BlendScore combines a raw tag score with its category percentile using
// the 60/40 weighting, rounded and clamped to [0,100]. The blend rewards
// absolute reputation while contextualizing against local competition.
func BlendScore(raw float64, categoryPercentile int) int {
	blended := raw*RawWeight + float64(categoryPercentile)*CategoryWeight
	return int(clamp(math.Round(blended), 0, 100))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
