package adapter

import (
	"context"
	"sync"

	repository "github.com/kuhelii/linked-in-connect-app/internal/repository/port"
)

// MemoryUserRepository is an in-process directory for tests and local runs.
// In open mode every id resolves to a user named after it and every pair is friends.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	open    bool
	users   map[string]repository.User
	friends map[[2]string]struct{}
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:   make(map[string]repository.User),
		friends: make(map[[2]string]struct{}),
	}
}

// NewOpenMemoryUserRepository returns a directory that accepts any user id.
func NewOpenMemoryUserRepository() *MemoryUserRepository {
	r := NewMemoryUserRepository()
	r.open = true
	return r
}

var _ repository.UserRepository = (*MemoryUserRepository)(nil)

func (r *MemoryUserRepository) Put(users ...repository.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range users {
		r.users[u.ID] = u
	}
}

func (r *MemoryUserRepository) Befriend(a, b string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.friends[friendKey(a, b)] = struct{}{}
}

func (r *MemoryUserRepository) FindByID(ctx context.Context, id string) (*repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.lookupLocked(id)
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]repository.User, len(ids))
	for _, id := range ids {
		if u, ok := r.lookupLocked(id); ok {
			out[id] = u
		}
	}
	return out, nil
}

func (r *MemoryUserRepository) AreFriends(ctx context.Context, a, b string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.open {
		return true, nil
	}
	_, ok := r.friends[friendKey(a, b)]
	return ok, nil
}

func (r *MemoryUserRepository) lookupLocked(id string) (repository.User, bool) {
	if u, ok := r.users[id]; ok {
		return u, true
	}
	if r.open && id != "" {
		return repository.User{ID: id, Name: id}, true
	}
	return repository.User{}, false
}

func friendKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
