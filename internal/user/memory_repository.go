package user

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	store map[string]User
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{store: make(map[string]User)}
}

func (r *memoryRepository) Get(_ context.Context, uid string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.store[uid]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *memoryRepository) Create(_ context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[u.UID]; exists {
		return ErrConflict
	}
	r.store[u.UID] = u
	return nil
}

func (r *memoryRepository) UpdateFullName(_ context.Context, uid, fullName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.store[uid]
	if !ok {
		return ErrNotFound
	}
	u.FullName = fullName
	r.store[uid] = u
	return nil
}
