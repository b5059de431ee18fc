// Package review provides the review model and the aggregate read
// interface consumed by the stats and ranking pipelines.
package review

import (
	"errors"
	"time"
)

// Common errors for review operations.
var (
	ErrReviewNotFound = errors.New("review not found")
	ErrInvalidRating  = errors.New("invalid rating: must be between 1 and 5")
)

// Controlled tag vocabulary. Reviews may carry any subset of these tags;
// unknown tags are stored but ignored by reputation scoring.
const (
	TagOnTime      = "On Time"
	TagFriendly    = "Friendly"
	TagTrustworthy = "Trustworthy"
	TagGoodValue   = "Good Value"
)

// ReputationTags lists the tags that feed reputation scores, in the order
// they are reported.
var ReputationTags = []string{TagOnTime, TagFriendly, TagTrustworthy, TagGoodValue}

// Rating bounds for a review.
const (
	MinRating = 1
	MaxRating = 5
)

// Review represents a single customer review of a business.
// Owned by the review subsystem; the ranking core only reads aggregates.
type Review struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"business_id"`
	Rating     int       `json:"rating"`
	Tags       []string  `json:"tags,omitempty"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate checks that the review has a rating within bounds.
func (r *Review) Validate() error {
	if r.Rating < MinRating || r.Rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

// HasTag reports whether the review carries the given tag.
func (r *Review) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Aggregate holds the per-business review aggregates consumed by the
// stats aggregator: overall counts plus the star histogram and per-tag
// counts over all reviews.
type Aggregate struct {
	BusinessID    string
	TotalReviews  int
	AverageRating float64
	// Distribution maps star value (1-5) to review count.
	Distribution map[int]int
	// TagCounts maps reputation tag to the number of reviews carrying it.
	TagCounts map[string]int
}

// ActivityWindow holds trailing-window review activity for the trending
// score: counts over the last 7 and 30 days plus the 30-day average rating.
type ActivityWindow struct {
	BusinessID       string
	ReviewsLast7d    int
	ReviewsLast30d   int
	AvgRatingLast30d float64
}
