package featureflags

import (
	"context"
	"maps"
	"sync"
	"time"
)

// InMemoryRepository keeps flags in process memory. It backs the memory and sqlite
// catalog deployments, where flags come from the environment. Stored flags are
// copies, so callers may reuse the values they pass in.
type InMemoryRepository struct {
	mu    sync.RWMutex
	flags map[string]Flag
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{flags: make(map[string]Flag)}
}

func (r *InMemoryRepository) GetFlag(_ context.Context, key string) (*Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.flags[key]
	if !ok {
		return nil, ErrFlagNotFound
	}
	return &f, nil
}

func (r *InMemoryRepository) GetAllFlags(_ context.Context) (map[string]*Flag, error) {
	r.mu.RLock()
	snapshot := maps.Clone(r.flags)
	r.mu.RUnlock()

	out := make(map[string]*Flag, len(snapshot))
	for key, f := range snapshot {
		out[key] = &f
	}
	return out, nil
}

func (r *InMemoryRepository) SetFlags(_ context.Context, flags []*Flag) error {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range flags {
		stored := *f
		stored.UpdatedAt = now
		r.flags[f.Key] = stored
	}
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
