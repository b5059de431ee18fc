// Package business provides the business listing model and repository
// used by the discovery ranking pipeline.
package business

import (
	"errors"
	"time"
)

// Common errors for business operations.
var (
	ErrBusinessNotFound = errors.New("business not found")
)

// Status values for a business listing.
const (
	StatusActive    = "active"
	StatusPending   = "pending"
	StatusSuspended = "suspended"
)

// Point represents a geographic coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Business represents a business listing. The ranking core treats these
// rows as read-only; they are owned by the business management subsystem.
type Business struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Status      string  `json:"status"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	Verified    bool    `json:"verified"`
	Location    *Point  `json:"location,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether the business is eligible for ranking.
// Only active businesses ever appear in ranked sets.
func (b *Business) IsActive() bool {
	return b.Status == StatusActive
}

// HasDescription reports whether the listing carries a non-empty description.
// Used as a profile completeness signal in the quality fallback score.
func (b *Business) HasDescription() bool {
	return b.Description != ""
}

// HasImage reports whether the listing carries an image.
// Used as a profile completeness signal in the quality fallback score.
func (b *Business) HasImage() bool {
	return b.ImageURL != ""
}

// AgeAt returns how long the business has existed at the given instant.
func (b *Business) AgeAt(now time.Time) time.Duration {
	return now.Sub(b.CreatedAt)
}
