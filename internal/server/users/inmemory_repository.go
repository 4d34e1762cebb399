package users

import (
	"context"
	"sync"
	"time"

	"github.com/0xkotaromiyabi/decentranews-v2/internal/shared"
	"github.com/google/uuid"
)

// InMemoryRepository keeps users in a map. It backs tests and DSN-less
// development runs with the same semantics as the Postgres repository,
// including the unique-address constraint.
type InMemoryRepository struct {
	mu        sync.RWMutex
	byID      map[string]*User
	byAddress map[string]*User
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:      make(map[string]*User),
		byAddress: make(map[string]*User),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byAddress[user.Address]; ok {
		return nil, shared.ErrorAlreadyExists
	}

	stored := *user
	stored.ID = uuid.New().String()
	stored.CreatedAt = time.Now()

	r.byID[stored.ID] = &stored
	r.byAddress[stored.Address] = &stored

	out := stored
	return &out, nil
}

func (r *InMemoryRepository) GetByAddress(ctx context.Context, address string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byAddress[address]
	if !ok {
		return nil, shared.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (r *InMemoryRepository) UpdateRole(ctx context.Context, id string, role Role) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrorNotFound
	}
	u.Role = role
	out := *u
	return &out, nil
}
