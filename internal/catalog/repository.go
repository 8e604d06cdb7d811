package catalog

import "context"

// Repository defines the interface for place persistence.
type Repository interface {
	// List returns all places ordered by name.
	List(ctx context.Context) ([]*Place, error)

	// FindByName returns the first place whose name contains name (case-insensitive).
	// Returns ErrPlaceNotFound when nothing matches.
	FindByName(ctx context.Context, name string) (*Place, error)

	// Upsert creates or replaces a place keyed by ID.
	Upsert(ctx context.Context, place *Place) error
}
