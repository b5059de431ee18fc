package business

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresBusinessRepository implements BusinessRepository backed by PostgreSQL.
type PostgresBusinessRepository struct {
	db *sql.DB
}

// NewPostgresBusinessRepository creates a new Postgres-backed business repository.
func NewPostgresBusinessRepository(db *sql.DB) *PostgresBusinessRepository {
	return &PostgresBusinessRepository{db: db}
}

const businessColumns = `id, name, category, status, description, image_url, verified, lat, lng, created_at, updated_at`

// scanBusiness scans a single business row.
func scanBusiness(row interface{ Scan(...any) error }) (*Business, error) {
	var b Business
	var description, imageURL sql.NullString
	var lat, lng sql.NullFloat64

	err := row.Scan(&b.ID, &b.Name, &b.Category, &b.Status,
		&description, &imageURL, &b.Verified, &lat, &lng,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	b.Description = description.String
	b.ImageURL = imageURL.String
	if lat.Valid && lng.Valid {
		b.Location = &Point{Lat: lat.Float64, Lng: lng.Float64}
	}
	return &b, nil
}

// GetByID retrieves a business by its UUID.
func (r *PostgresBusinessRepository) GetByID(ctx context.Context, id string) (*Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE id = $1`
	b, err := scanBusiness(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrBusinessNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	return b, nil
}

// ListActive returns all active businesses.
func (r *PostgresBusinessRepository) ListActive(ctx context.Context) ([]*Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE status = $1`
	return r.list(ctx, query, StatusActive)
}

// ListActiveByCategory returns all active businesses in a category.
func (r *PostgresBusinessRepository) ListActiveByCategory(ctx context.Context, category string) ([]*Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE status = $1 AND category = $2`
	return r.list(ctx, query, StatusActive, category)
}

func (r *PostgresBusinessRepository) list(ctx context.Context, query string, args ...any) ([]*Business, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	defer rows.Close()

	var result []*Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan business: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate businesses: %w", err)
	}
	return result, nil
}

// Insert creates a new business with a generated UUID if none is set.
func (r *PostgresBusinessRepository) Insert(ctx context.Context, b *Business) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	var lat, lng sql.NullFloat64
	if b.Location != nil {
		lat = sql.NullFloat64{Float64: b.Location.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: b.Location.Lng, Valid: true}
	}

	query := `
		INSERT INTO businesses (id, name, category, status, description, image_url, verified, lat, lng, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query, b.ID, b.Name, b.Category, b.Status,
		b.Description, b.ImageURL, b.Verified, lat, lng, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert business: %w", err)
	}
	return nil
}

// Update modifies an existing business.
func (r *PostgresBusinessRepository) Update(ctx context.Context, b *Business) error {
	var lat, lng sql.NullFloat64
	if b.Location != nil {
		lat = sql.NullFloat64{Float64: b.Location.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: b.Location.Lng, Valid: true}
	}

	query := `
		UPDATE businesses
		SET name = $2, category = $3, status = $4, description = NULLIF($5, ''),
		    image_url = NULLIF($6, ''), verified = $7, lat = $8, lng = $9, updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, b.ID, b.Name, b.Category, b.Status,
		b.Description, b.ImageURL, b.Verified, lat, lng)
	if err != nil {
		return fmt.Errorf("failed to update business: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrBusinessNotFound
	}
	return nil
}
