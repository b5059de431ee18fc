package stats

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStatsStore implements StatsStore backed by PostgreSQL.
// The upsert is a single ON CONFLICT statement, so concurrent recomputes
// for the same business serialize on the row with last-write-wins.
type PostgresStatsStore struct {
	db *sql.DB
}

// NewPostgresStatsStore creates a new Postgres-backed stats store.
func NewPostgresStatsStore(db *sql.DB) *PostgresStatsStore {
	return &PostgresStatsStore{db: db}
}

// Upsert stores the stats row for a business, replacing any existing row.
func (s *PostgresStatsStore) Upsert(ctx context.Context, stats *BusinessStats) error {
	query := `
		INSERT INTO business_stats (
			business_id, total_reviews, average_rating,
			stars_1, stars_2, stars_3, stars_4, stars_5,
			punctuality, friendliness, trustworthiness, cost_effectiveness,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (business_id) DO UPDATE SET
			total_reviews = EXCLUDED.total_reviews,
			average_rating = EXCLUDED.average_rating,
			stars_1 = EXCLUDED.stars_1,
			stars_2 = EXCLUDED.stars_2,
			stars_3 = EXCLUDED.stars_3,
			stars_4 = EXCLUDED.stars_4,
			stars_5 = EXCLUDED.stars_5,
			punctuality = EXCLUDED.punctuality,
			friendliness = EXCLUDED.friendliness,
			trustworthiness = EXCLUDED.trustworthiness,
			cost_effectiveness = EXCLUDED.cost_effectiveness,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		stats.BusinessID, stats.TotalReviews, stats.AverageRating,
		stats.RatingDistribution[1], stats.RatingDistribution[2],
		stats.RatingDistribution[3], stats.RatingDistribution[4],
		stats.RatingDistribution[5],
		stats.Percentiles[ScorePunctuality],
		stats.Percentiles[ScoreFriendliness],
		stats.Percentiles[ScoreTrustworthiness],
		stats.Percentiles[ScoreCostEffectiveness],
		stats.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert business stats: %w", err)
	}
	return nil
}

const statsColumns = `
	business_id, total_reviews, average_rating,
	stars_1, stars_2, stars_3, stars_4, stars_5,
	punctuality, friendliness, trustworthiness, cost_effectiveness,
	updated_at`

// scanStats scans a single stats row.
func scanStats(row interface{ Scan(...any) error }) (*BusinessStats, error) {
	stats := NewZeroStats("")
	var s1, s2, s3, s4, s5, punct, friendly, trust, cost int

	err := row.Scan(&stats.BusinessID, &stats.TotalReviews, &stats.AverageRating,
		&s1, &s2, &s3, &s4, &s5,
		&punct, &friendly, &trust, &cost,
		&stats.UpdatedAt)
	if err != nil {
		return nil, err
	}

	stats.RatingDistribution[1] = s1
	stats.RatingDistribution[2] = s2
	stats.RatingDistribution[3] = s3
	stats.RatingDistribution[4] = s4
	stats.RatingDistribution[5] = s5
	stats.Percentiles[ScorePunctuality] = punct
	stats.Percentiles[ScoreFriendliness] = friendly
	stats.Percentiles[ScoreTrustworthiness] = trust
	stats.Percentiles[ScoreCostEffectiveness] = cost
	return stats, nil
}

// Get retrieves the stats row for a business.
func (s *PostgresStatsStore) Get(ctx context.Context, businessID string) (*BusinessStats, error) {
	query := `SELECT` + statsColumns + ` FROM business_stats WHERE business_id = $1`
	stats, err := scanStats(s.db.QueryRowContext(ctx, query, businessID))
	if err == sql.ErrNoRows {
		return nil, ErrStatsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get business stats: %w", err)
	}
	return stats, nil
}

// GetAll returns all stats rows keyed by business ID.
func (s *PostgresStatsStore) GetAll(ctx context.Context) (map[string]*BusinessStats, error) {
	query := `SELECT` + statsColumns + ` FROM business_stats`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list business stats: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*BusinessStats)
	for rows.Next() {
		stats, err := scanStats(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		result[stats.BusinessID] = stats
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stats rows: %w", err)
	}
	return result, nil
}
