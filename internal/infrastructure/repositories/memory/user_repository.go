package memory

import (
	"context"
	"sync"

	"camwatch/internal/core/domain"
	"camwatch/internal/core/ports"
)

type MemoryUserRepository struct {
	users map[string]*domain.User
	mu    sync.RWMutex
}

func NewMemoryUserRepository() ports.UserRepository {
	return &MemoryUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.Username]; exists {
		return domain.ErrUsernameTaken
	}

	cp := *user
	r.users[user.Username] = &cp
	return nil
}

func (r *MemoryUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[username]
	if !exists {
		return nil, domain.ErrUserNotFound
	}

	cp := *user
	return &cp, nil
}

func (r *MemoryUserRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}
