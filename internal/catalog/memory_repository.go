package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Used for tests and when no database is configured.
type InMemoryRepository struct {
	mu     sync.RWMutex
	places map[string]*Place
}

// NewInMemoryRepository creates a repository pre-populated with places.
func NewInMemoryRepository(places ...*Place) *InMemoryRepository {
	r := &InMemoryRepository{places: make(map[string]*Place, len(places))}
	for _, p := range places {
		cpy := *p
		r.places[p.ID] = &cpy
	}
	return r
}

// List returns all places ordered by name.
func (r *InMemoryRepository) List(_ context.Context) ([]*Place, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	places := make([]*Place, 0, len(r.places))
	for _, p := range r.places {
		cpy := *p
		places = append(places, &cpy)
	}
	sort.Slice(places, func(i, j int) bool {
		return strings.ToLower(places[i].Name) < strings.ToLower(places[j].Name)
	})
	return places, nil
}

// FindByName returns the first place (by name order) containing name.
func (r *InMemoryRepository) FindByName(ctx context.Context, name string) (*Place, error) {
	places, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, ErrPlaceNotFound
	}
	for _, p := range places {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			return p, nil
		}
	}
	return nil, ErrPlaceNotFound
}

// Upsert creates or replaces a place.
func (r *InMemoryRepository) Upsert(_ context.Context, place *Place) error {
	if err := place.Validate(); err != nil {
		return err
	}

	if place.ID == "" {
		place.ID = NewPlaceID()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *place
	r.places[place.ID] = &cpy
	return nil
}
