package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	cacheport "github.com/kuhelii/linked-in-connect-app/internal/infrastructure/cache/port"
	repository "github.com/kuhelii/linked-in-connect-app/internal/repository/port"
)

const userKeyPrefix = "user:profile:"

// CachedUserRepository serves display records from an in-process LRU first,
// then from the shared cache, then from the wrapped repository.
// Friendship checks are never cached.
type CachedUserRepository struct {
	next   repository.UserRepository
	local  *expirable.LRU[string, repository.User]
	remote cacheport.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedUserRepository wraps next. remote may be nil when no shared cache is configured.
func NewCachedUserRepository(next repository.UserRepository, remote cacheport.Cache, size int, ttl time.Duration, logger *slog.Logger) *CachedUserRepository {
	if size <= 0 {
		size = 1024
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedUserRepository{
		next:   next,
		local:  expirable.NewLRU[string, repository.User](size, nil, ttl),
		remote: remote,
		ttl:    ttl,
		logger: logger,
	}
}

var _ repository.UserRepository = (*CachedUserRepository)(nil)

func (r *CachedUserRepository) FindByID(ctx context.Context, id string) (*repository.User, error) {
	if u, ok := r.local.Get(id); ok {
		return &u, nil
	}
	if u, ok := r.fromRemote(ctx, id); ok {
		r.local.Add(id, u)
		return &u, nil
	}

	u, err := r.next.FindByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		r.Invalidate(ctx, id)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	r.store(ctx, *u)
	return u, nil
}

func (r *CachedUserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]repository.User, error) {
	out := make(map[string]repository.User, len(ids))
	var missing []string
	for _, id := range ids {
		if _, done := out[id]; done {
			continue
		}
		if u, ok := r.local.Get(id); ok {
			out[id] = u
			continue
		}
		if u, ok := r.fromRemote(ctx, id); ok {
			r.local.Add(id, u)
			out[id] = u
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	found, err := r.next.FindByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, u := range found {
		r.store(ctx, u)
		out[id] = u
	}
	return out, nil
}

func (r *CachedUserRepository) AreFriends(ctx context.Context, a, b string) (bool, error) {
	return r.next.AreFriends(ctx, a, b)
}

// Invalidate drops id from both cache levels.
func (r *CachedUserRepository) Invalidate(ctx context.Context, id string) {
	r.local.Remove(id)
	if r.remote == nil {
		return
	}
	if _, err := r.remote.Del(ctx, userKeyPrefix+id); err != nil {
		r.logger.Warn("user cache delete failed", "userId", id, "error", err)
	}
}

func (r *CachedUserRepository) fromRemote(ctx context.Context, id string) (repository.User, bool) {
	if r.remote == nil {
		return repository.User{}, false
	}
	raw, err := r.remote.Get(ctx, userKeyPrefix+id)
	if err != nil {
		if !errors.Is(err, cacheport.ErrMiss) {
			r.logger.Warn("user cache read failed", "userId", id, "error", err)
		}
		return repository.User{}, false
	}
	var u repository.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		r.logger.Warn("user cache entry corrupt", "userId", id, "error", err)
		return repository.User{}, false
	}
	return u, true
}

func (r *CachedUserRepository) store(ctx context.Context, u repository.User) {
	r.local.Add(u.ID, u)
	if r.remote == nil {
		return
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return
	}
	if err := r.remote.Set(ctx, userKeyPrefix+u.ID, string(raw), r.ttl); err != nil {
		r.logger.Warn("user cache write failed", "userId", u.ID, "error", err)
	}
}
