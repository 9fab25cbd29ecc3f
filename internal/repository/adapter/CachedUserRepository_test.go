package adapter

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheadapter "github.com/kuhelii/linked-in-connect-app/internal/infrastructure/cache/adapter"
	repository "github.com/kuhelii/linked-in-connect-app/internal/repository/port"
)

type countingUsers struct {
	*MemoryUserRepository
	byID  int
	byIDs int
}

func (c *countingUsers) FindByID(ctx context.Context, id string) (*repository.User, error) {
	c.byID++
	return c.MemoryUserRepository.FindByID(ctx, id)
}

func (c *countingUsers) FindByIDs(ctx context.Context, ids []string) (map[string]repository.User, error) {
	c.byIDs++
	return c.MemoryUserRepository.FindByIDs(ctx, ids)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCachedUserRepositoryServesFromLocalCache(t *testing.T) {
	backing := &countingUsers{MemoryUserRepository: NewMemoryUserRepository()}
	backing.Put(repository.User{ID: "u1", Name: "Ada"})
	repo := NewCachedUserRepository(backing, nil, 16, time.Minute, discardLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		u, err := repo.FindByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Ada", u.Name)
	}
	assert.Equal(t, 1, backing.byID)

	users, err := repo.FindByIDs(ctx, []string{"u1", "u1"})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 0, backing.byIDs)

	_, err = repo.FindByID(ctx, "ghost")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestCachedUserRepositorySharesThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	remote, err := cacheadapter.NewRedisAdapter(ctx, "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = remote.Close() })

	backing := &countingUsers{MemoryUserRepository: NewMemoryUserRepository()}
	backing.Put(repository.User{ID: "u1", Name: "Ada"}, repository.User{ID: "u2", Name: "Grace"})

	first := NewCachedUserRepository(backing, remote, 16, time.Minute, discardLogger())
	users, err := first.FindByIDs(ctx, []string{"u1", "u2", "missing"})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.True(t, mr.Exists(userKeyPrefix+"u1"))

	// A second node with a cold local cache reads the shared entry.
	second := NewCachedUserRepository(backing, remote, 16, time.Minute, discardLogger())
	u, err := second.FindByID(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "Grace", u.Name)
	assert.Equal(t, 0, backing.byID)

	second.Invalidate(ctx, "u2")
	assert.False(t, mr.Exists(userKeyPrefix+"u2"))
}

func TestMemoryUserRepositoryFriendship(t *testing.T) {
	repo := NewMemoryUserRepository()
	repo.Befriend("b", "a")
	ctx := context.Background()

	ok, err := repo.AreFriends(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.AreFriends(ctx, "a", "c")
	require.NoError(t, err)
	assert.False(t, ok)

	open := NewOpenMemoryUserRepository()
	u, err := open.FindByID(ctx, "anyone")
	require.NoError(t, err)
	assert.Equal(t, "anyone", u.Name)
}
