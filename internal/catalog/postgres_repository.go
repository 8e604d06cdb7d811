package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL place repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the places table if it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS places (
			id                TEXT PRIMARY KEY,
			name              TEXT NOT NULL,
			category          TEXT NOT NULL DEFAULT '',
			lat               DOUBLE PRECISION NOT NULL,
			lon               DOUBLE PRECISION NOT NULL,
			rating            DOUBLE PRECISION NOT NULL DEFAULT 0,
			popularity        INTEGER NOT NULL DEFAULT 0,
			avg_dwell_minutes INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("create places table: %w", err)
	}
	return nil
}

// List returns all places ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]*Place, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, category, lat, lon, rating, popularity, avg_dwell_minutes
		FROM places
		ORDER BY LOWER(name)
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var places []*Place
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

// FindByName returns the first place whose name contains name.
func (r *PostgresRepository) FindByName(ctx context.Context, name string) (*Place, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, category, lat, lon, rating, popularity, avg_dwell_minutes
		FROM places
		WHERE name ILIKE $1
		ORDER BY LOWER(name)
		LIMIT 1
	`, "%"+name+"%")

	p, err := scanPlace(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlaceNotFound
		}
		return nil, err
	}
	return p, nil
}

// Upsert creates or replaces a place.
func (r *PostgresRepository) Upsert(ctx context.Context, place *Place) error {
	if err := place.Validate(); err != nil {
		return err
	}
	if place.ID == "" {
		place.ID = NewPlaceID()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO places (id, name, category, lat, lon, rating, popularity, avg_dwell_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			rating = EXCLUDED.rating,
			popularity = EXCLUDED.popularity,
			avg_dwell_minutes = EXCLUDED.avg_dwell_minutes
	`, place.ID, place.Name, place.Category, place.Lat, place.Lon, place.Rating, place.Popularity, place.AvgDwellMinutes)
	return err
}
