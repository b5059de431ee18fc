package review

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresReviewRepository implements ReviewRepository backed by PostgreSQL.
// Tags are stored as a text[] column.
type PostgresReviewRepository struct {
	db *sql.DB
}

// NewPostgresReviewRepository creates a new Postgres-backed review repository.
func NewPostgresReviewRepository(db *sql.DB) *PostgresReviewRepository {
	return &PostgresReviewRepository{db: db}
}

// Create inserts a new review with a generated UUID if none is set.
func (r *PostgresReviewRepository) Create(ctx context.Context, rev *Review) error {
	if err := rev.Validate(); err != nil {
		return err
	}
	if rev.ID == "" {
		rev.ID = uuid.New().String()
	}
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO reviews (id, business_id, rating, tags, comment, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
	`
	_, err := r.db.ExecContext(ctx, query, rev.ID, rev.BusinessID, rev.Rating,
		pq.Array(rev.Tags), rev.Comment, rev.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// Delete removes a review by ID.
func (r *PostgresReviewRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// AggregateByBusiness computes the full-history aggregate for one business.
func (r *PostgresReviewRepository) AggregateByBusiness(ctx context.Context, businessID string) (*Aggregate, error) {
	aggs, err := r.AggregatesByBusinesses(ctx, []string{businessID})
	if err != nil {
		return nil, err
	}
	return aggs[businessID], nil
}

// AggregatesByBusinesses computes full-history aggregates for each of the
// given business IDs in a single scan, keyed by business ID.
func (r *PostgresReviewRepository) AggregatesByBusinesses(ctx context.Context, businessIDs []string) (map[string]*Aggregate, error) {
	result := make(map[string]*Aggregate, len(businessIDs))
	for _, id := range businessIDs {
		result[id] = newZeroAggregate(id)
	}
	if len(businessIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT business_id, rating, tags
		FROM reviews
		WHERE business_id = ANY($1)
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(businessIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}
	defer rows.Close()

	sums := make(map[string]int, len(businessIDs))
	for rows.Next() {
		var businessID string
		var rating int
		var tags pq.StringArray
		if err := rows.Scan(&businessID, &rating, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}

		agg, ok := result[businessID]
		if !ok {
			continue
		}
		agg.TotalReviews++
		sums[businessID] += rating
		if rating >= MinRating && rating <= MaxRating {
			agg.Distribution[rating]++
		}
		for _, tag := range tags {
			if _, tracked := agg.TagCounts[tag]; tracked {
				agg.TagCounts[tag]++
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review rows: %w", err)
	}

	for id, agg := range result {
		if agg.TotalReviews > 0 {
			agg.AverageRating = math.Round(float64(sums[id])/float64(agg.TotalReviews)*100) / 100
		}
	}
	return result, nil
}

// ActivityByBusiness computes trailing-window activity for all businesses
// with at least one review inside the long window.
func (r *PostgresReviewRepository) ActivityByBusiness(ctx context.Context, now time.Time) (map[string]*ActivityWindow, error) {
	query := `
		SELECT business_id,
		       COUNT(*) FILTER (WHERE created_at >= $1) AS reviews_7d,
		       COUNT(*) AS reviews_30d,
		       AVG(rating) AS avg_rating_30d
		FROM reviews
		WHERE created_at >= $2 AND created_at <= $3
		GROUP BY business_id
	`
	rows, err := r.db.QueryContext(ctx, query, now.Add(-ShortWindow), now.Add(-LongWindow), now)
	if err != nil {
		return nil, fmt.Errorf("failed to query review activity: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*ActivityWindow)
	for rows.Next() {
		var w ActivityWindow
		if err := rows.Scan(&w.BusinessID, &w.ReviewsLast7d, &w.ReviewsLast30d, &w.AvgRatingLast30d); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		result[w.BusinessID] = &w
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity rows: %w", err)
	}
	return result, nil
}

// newZeroAggregate returns an aggregate in the documented zero state:
// empty histogram and zero counts for every reputation tag.
func newZeroAggregate(businessID string) *Aggregate {
	agg := &Aggregate{
		BusinessID:   businessID,
		Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		TagCounts:    make(map[string]int, len(ReputationTags)),
	}
	for _, tag := range ReputationTags {
		agg.TagCounts[tag] = 0
	}
	return agg
}
