package users

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu     sync.RWMutex
	byName map[string]User
	byID   map[string]string
}

// NewMemoryRepository builds an in-memory user store for tests and local development.
func NewMemoryRepository() Repository {
	return &memoryRepository{byName: make(map[string]User), byID: make(map[string]string)}
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[user.Username]; exists {
		return ErrDuplicateUsername
	}
	r.byName[user.Username] = user
	r.byID[user.ID] = user.Username
	return nil
}

func (r *memoryRepository) FindByUsername(_ context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byName[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.byName[name], nil
}
