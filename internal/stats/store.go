package stats

import (
	"context"
	"errors"
	"sync"
)

// ErrStatsNotFound is returned when no stats row exists for a business.
var ErrStatsNotFound = errors.New("business stats not found")

// StatsStore persists derived BusinessStats rows. Writes are whole-row
// upserts; rows are never patched field by field.
type StatsStore interface {
	// Upsert stores the stats row for a business, replacing any existing row.
	Upsert(ctx context.Context, s *BusinessStats) error

	// Get retrieves the stats row for a business.
	// Returns ErrStatsNotFound if the business has never been recomputed.
	Get(ctx context.Context, businessID string) (*BusinessStats, error)

	// GetAll returns all stats rows keyed by business ID.
	GetAll(ctx context.Context) (map[string]*BusinessStats, error)
}

// InMemoryStatsStore is an in-memory implementation of StatsStore.
// Thread-safe via RWMutex.
type InMemoryStatsStore struct {
	mu    sync.RWMutex
	stats map[string]*BusinessStats
}

// NewInMemoryStatsStore creates a new in-memory stats store.
func NewInMemoryStatsStore() *InMemoryStatsStore {
	return &InMemoryStatsStore{
		stats: make(map[string]*BusinessStats),
	}
}

// Upsert stores the stats row for a business, replacing any existing row.
func (s *InMemoryStatsStore) Upsert(ctx context.Context, stats *BusinessStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[stats.BusinessID] = copyStats(stats)
	return nil
}

// Get retrieves the stats row for a business.
func (s *InMemoryStatsStore) Get(ctx context.Context, businessID string) (*BusinessStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats, ok := s.stats[businessID]
	if !ok {
		return nil, ErrStatsNotFound
	}
	return copyStats(stats), nil
}

// GetAll returns all stats rows keyed by business ID.
func (s *InMemoryStatsStore) GetAll(ctx context.Context) (map[string]*BusinessStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*BusinessStats, len(s.stats))
	for id, stats := range s.stats {
		result[id] = copyStats(stats)
	}
	return result, nil
}

// copyStats deep-copies a stats row so callers cannot mutate stored state.
func copyStats(s *BusinessStats) *BusinessStats {
	c := *s
	c.RatingDistribution = make(map[int]int, len(s.RatingDistribution))
	for k, v := range s.RatingDistribution {
		c.RatingDistribution[k] = v
	}
	c.Percentiles = make(map[string]int, len(s.Percentiles))
	for k, v := range s.Percentiles {
		c.Percentiles[k] = v
	}
	return &c
}
