package business

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// BusinessRepository defines the read/write interface for business listings.
// The ranking pipeline only uses the read side; Insert and Update exist for
// the business management subsystem and for tests.
type BusinessRepository interface {
	// GetByID retrieves a business by its UUID.
	GetByID(ctx context.Context, id string) (*Business, error)

	// ListActive returns all active businesses.
	ListActive(ctx context.Context) ([]*Business, error)

	// ListActiveByCategory returns all active businesses in a category.
	ListActiveByCategory(ctx context.Context, category string) ([]*Business, error)

	// Insert creates a new business with a generated UUID if none is set.
	Insert(ctx context.Context, b *Business) error

	// Update modifies an existing business.
	Update(ctx context.Context, b *Business) error
}

// InMemoryBusinessRepository is an in-memory implementation of
// BusinessRepository. Thread-safe via RWMutex.
type InMemoryBusinessRepository struct {
	mu         sync.RWMutex
	businesses map[string]*Business
}

// NewInMemoryBusinessRepository creates a new in-memory business repository.
func NewInMemoryBusinessRepository() *InMemoryBusinessRepository {
	return &InMemoryBusinessRepository{
		businesses: make(map[string]*Business),
	}
}

// GetByID retrieves a business by its UUID.
func (r *InMemoryBusinessRepository) GetByID(ctx context.Context, id string) (*Business, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.businesses[id]
	if !ok {
		return nil, ErrBusinessNotFound
	}
	// Return a copy to avoid external modification
	result := *b
	return &result, nil
}

// ListActive returns all active businesses.
func (r *InMemoryBusinessRepository) ListActive(ctx context.Context) ([]*Business, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Business, 0, len(r.businesses))
	for _, b := range r.businesses {
		if !b.IsActive() {
			continue
		}
		bCopy := *b
		result = append(result, &bCopy)
	}
	return result, nil
}

// ListActiveByCategory returns all active businesses in a category.
func (r *InMemoryBusinessRepository) ListActiveByCategory(ctx context.Context, category string) ([]*Business, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Business
	for _, b := range r.businesses {
		if !b.IsActive() || b.Category != category {
			continue
		}
		bCopy := *b
		result = append(result, &bCopy)
	}
	return result, nil
}

// Insert creates a new business with a generated UUID if none is set.
func (r *InMemoryBusinessRepository) Insert(ctx context.Context, b *Business) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	bCopy := *b
	r.businesses[b.ID] = &bCopy
	return nil
}

// Update modifies an existing business.
func (r *InMemoryBusinessRepository) Update(ctx context.Context, b *Business) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.businesses[b.ID]
	if !ok {
		return ErrBusinessNotFound
	}

	existing.Name = b.Name
	existing.Category = b.Category
	existing.Status = b.Status
	existing.Description = b.Description
	existing.ImageURL = b.ImageURL
	existing.Verified = b.Verified
	existing.Location = b.Location
	existing.UpdatedAt = time.Now()
	return nil
}
