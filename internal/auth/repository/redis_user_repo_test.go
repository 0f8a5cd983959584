package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpixel/agency-backend/internal/auth/domain"
)

func newTestRedisRepo(t *testing.T) (*RedisUserRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisUserRepository(client), mr
}

func TestRedisUserRepository_UpsertCreatesEntry(t *testing.T) {
	repo, mr := newTestRedisRepo(t)
	ctx := context.Background()

	fixed := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	role := domain.RoleUser
	require.NoError(t, repo.Upsert(ctx, "u1", domain.EntryUpdate{
		Email: strPtr("a@example.com"),
		Role:  &role,
	}))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UID)
	assert.Equal(t, "a@example.com", got.Email)
	assert.Equal(t, domain.RoleUser, got.Role)
	require.NotNil(t, got.CreatedAt)
	assert.True(t, fixed.Equal(*got.CreatedAt))
	assert.Nil(t, got.PromotedToAdminAt)

	members, err := mr.SMembers(entryIndexKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, members)
}

func TestRedisUserRepository_UpsertMergesAndKeepsCreatedAt(t *testing.T) {
	repo, _ := newTestRedisRepo(t)
	ctx := context.Background()

	first := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)

	repo.now = func() time.Time { return first }
	require.NoError(t, repo.Upsert(ctx, "u1", domain.EntryUpdate{
		Email:    strPtr("a@example.com"),
		Name:     strPtr("Ada"),
		Metadata: map[string]interface{}{"createdBy": "root"},
	}))

	repo.now = func() time.Time { return second }
	role := domain.RoleAdmin
	require.NoError(t, repo.Upsert(ctx, "u1", domain.EntryUpdate{
		Role:     &role,
		IsAdmin:  boolPtr(true),
		Metadata: map[string]interface{}{"promotedBy": "root"},
	}))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, "a@example.com", got.Email)
	assert.True(t, got.IsAdmin)
	assert.True(t, first.Equal(*got.CreatedAt))
	assert.True(t, second.Equal(*got.UpdatedAt))
	require.NotNil(t, got.PromotedToAdminAt)
	assert.True(t, second.Equal(*got.PromotedToAdminAt))
	assert.Equal(t, "root", got.Metadata["createdBy"])
	assert.Equal(t, "root", got.Metadata["promotedBy"])
}

func TestRedisUserRepository_GetMissing(t *testing.T) {
	repo, _ := newTestRedisRepo(t)
	_, err := repo.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestRedisUserRepository_ListAllSkipsDanglingIndex(t *testing.T) {
	repo, mr := newTestRedisRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "u1", domain.EntryUpdate{Email: strPtr("a@example.com")}))
	require.NoError(t, repo.Upsert(ctx, "u2", domain.EntryUpdate{Email: strPtr("b@example.com")}))
	_, err := mr.SAdd(entryIndexKey, "ghost")
	require.NoError(t, err)

	entries, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRedisUserRepository_ListAllEmpty(t *testing.T) {
	repo, _ := newTestRedisRepo(t)
	entries, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRedisUserRepository_DeleteAndRestore(t *testing.T) {
	repo, mr := newTestRedisRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "u1", domain.EntryUpdate{Email: strPtr("a@example.com")}))
	snapshot, err := repo.Get(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "u1"))
	_, err = repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
	assert.False(t, mr.Exists(entryKeyPrefix+"u1"))

	require.NoError(t, repo.Restore(ctx, *snapshot))
	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, snapshot.Email, got.Email)
	assert.True(t, snapshot.CreatedAt.Equal(*got.CreatedAt))
}

func TestRedisUserRepository_Ping(t *testing.T) {
	repo, mr := newTestRedisRepo(t)
	assert.NoError(t, repo.Ping(context.Background()))
	mr.Close()
	assert.Error(t, repo.Ping(context.Background()))
}
