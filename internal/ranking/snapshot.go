package ranking

import (
	"errors"
	"sync/atomic"
	"time"
)

// Named ranked sets.
const (
	SetTopRated = "top_rated"
	SetTrending = "trending"
	SetNew      = "new"
	SetQuality  = "quality_fallback"
)

// SetNames lists all ranked set names in reporting order.
var SetNames = []string{SetTopRated, SetTrending, SetNew, SetQuality}

// ErrUnknownSet is returned when a set name is not one of SetNames.
var ErrUnknownSet = errors.New("unknown ranked set")

// RankedSet is one fully-built, immutable ranked set. Entries are ordered
// best-first and never patched after the set is built.
type RankedSet struct {
	Name        string
	Entries     []RankedEntry
	RefreshedAt time.Time
}

// SnapshotStore holds the current ranked sets. Each set is replaced by an
// atomic pointer swap, so readers of the previous snapshot are never
// blocked while the next one is being built, and never observe a
// partially-built set.
type SnapshotStore struct {
	topRated atomic.Pointer[RankedSet]
	trending atomic.Pointer[RankedSet]
	newest   atomic.Pointer[RankedSet]
	quality  atomic.Pointer[RankedSet]
}

// NewSnapshotStore creates a snapshot store with empty sets.
func NewSnapshotStore() *SnapshotStore {
	s := &SnapshotStore{}
	now := time.Now()
	for _, name := range SetNames {
		s.slot(name).Store(&RankedSet{Name: name, RefreshedAt: now})
	}
	return s
}

func (s *SnapshotStore) slot(name string) *atomic.Pointer[RankedSet] {
	switch name {
	case SetTopRated:
		return &s.topRated
	case SetTrending:
		return &s.trending
	case SetNew:
		return &s.newest
	case SetQuality:
		return &s.quality
	}
	return nil
}

// Swap atomically replaces one ranked set with a fully-built replacement.
func (s *SnapshotStore) Swap(name string, entries []RankedEntry, refreshedAt time.Time) error {
	slot := s.slot(name)
	if slot == nil {
		return ErrUnknownSet
	}
	slot.Store(&RankedSet{Name: name, Entries: entries, RefreshedAt: refreshedAt})
	return nil
}

// Get returns the current snapshot of one ranked set.
func (s *SnapshotStore) Get(name string) (*RankedSet, error) {
	slot := s.slot(name)
	if slot == nil {
		return nil, ErrUnknownSet
	}
	return slot.Load(), nil
}

// Query returns up to limit entries from the current snapshot of a set,
// optionally filtered to one category. An empty category matches all. A
// non-positive limit falls back to the full set.
func (s *SnapshotStore) Query(name string, limit int, category string) ([]RankedEntry, error) {
	set, err := s.Get(name)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > len(set.Entries) {
		limit = len(set.Entries)
	}

	result := make([]RankedEntry, 0, limit)
	for _, e := range set.Entries {
		if category != "" && e.Category != category {
			continue
		}
		result = append(result, e)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// TopRated returns entries from the top rated set.
func (s *SnapshotStore) TopRated(limit int, category string) []RankedEntry {
	entries, _ := s.Query(SetTopRated, limit, category)
	return entries
}

// Trending returns entries from the trending set.
func (s *SnapshotStore) Trending(limit int, category string) []RankedEntry {
	entries, _ := s.Query(SetTrending, limit, category)
	return entries
}

// New returns entries from the new and notable set.
func (s *SnapshotStore) New(limit int, category string) []RankedEntry {
	entries, _ := s.Query(SetNew, limit, category)
	return entries
}

// QualityFallback returns entries from the quality fallback set. The
// fallback pool is not category-scoped.
func (s *SnapshotStore) QualityFallback(limit int) []RankedEntry {
	entries, _ := s.Query(SetQuality, limit, "")
	return entries
}
