package locations

import (
	"context"
	"errors"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]Location
}

// NewMemoryRepository constructs an in-memory repository for tests and local development.
func NewMemoryRepository() Repository {
	return &memoryRepository{byID: make(map[string]Location)}
}

func (r *memoryRepository) Create(_ context.Context, loc Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[loc.ID]; exists {
		return errors.New("location exists")
	}
	r.byID[loc.ID] = loc
	r.order = append(r.order, loc.ID)
	return nil
}

func (r *memoryRepository) List(_ context.Context) ([]Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Location, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out, nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loc, ok := r.byID[id]
	if !ok {
		return Location{}, ErrNotFound
	}
	return loc, nil
}
