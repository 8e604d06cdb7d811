package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS poi_cache (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	friendly_category TEXT NOT NULL DEFAULT '',
	lat               REAL NOT NULL,
	lon               REAL NOT NULL,
	rating            REAL NOT NULL DEFAULT 0,
	popularity        INTEGER NOT NULL DEFAULT 0,
	avg_dwell_time    INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_poi_cache_name ON poi_cache (name COLLATE NOCASE);
`

// SQLiteRepository is a SQLite implementation of Repository backed by a local
// poi_cache database file.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the SQLite database at path and ensures the schema exists.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the underlying database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// List returns all places ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]*Place, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, friendly_category, lat, lon, rating, popularity, avg_dwell_time
		FROM poi_cache
		ORDER BY name COLLATE NOCASE
	`)
	if err != nil {
		return nil, fmt.Errorf("query places: %w", err)
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
func (r *SQLiteRepository) FindByName(ctx context.Context, name string) (*Place, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, friendly_category, lat, lon, rating, popularity, avg_dwell_time
		FROM poi_cache
		WHERE LOWER(name) LIKE LOWER(?)
		ORDER BY name COLLATE NOCASE
		LIMIT 1
	`, "%"+name+"%")

	p, err := scanPlace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlaceNotFound
	}
	return p, err
}

// Upsert creates or replaces a place.
func (r *SQLiteRepository) Upsert(ctx context.Context, place *Place) error {
	if err := place.Validate(); err != nil {
		return err
	}
	if place.ID == "" {
		place.ID = NewPlaceID()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO poi_cache (id, name, friendly_category, lat, lon, rating, popularity, avg_dwell_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			friendly_category = excluded.friendly_category,
			lat = excluded.lat,
			lon = excluded.lon,
			rating = excluded.rating,
			popularity = excluded.popularity,
			avg_dwell_time = excluded.avg_dwell_time
	`, place.ID, place.Name, place.Category, place.Lat, place.Lon, place.Rating, place.Popularity, place.AvgDwellMinutes)
	if err != nil {
		return fmt.Errorf("upsert place: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlace(row rowScanner) (*Place, error) {
	var p Place
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Category,
		&p.Lat,
		&p.Lon,
		&p.Rating,
		&p.Popularity,
		&p.AvgDwellMinutes,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
