package redis

import (
	"context"
	"testing"
	"time"

	"ezstream/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisSessionRepository) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRedisSessionRepository(client, "", time.Hour)
}

func TestRedisSessionRepository_SaveAndGet(t *testing.T) {
	mr, repo := setupMiniRedis(t)
	ctx := context.Background()

	expiresAt := time.Now().Add(30 * time.Minute).Truncate(time.Millisecond)
	session := &domain.Session{
		ID:          "s1",
		AccessToken: "at.abc",
		AreaDomain:  "https://open.ezvizlife.com",
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now().Truncate(time.Millisecond),
	}
	require.NoError(t, repo.Save(ctx, session))

	assert.True(t, mr.Exists("ezstream:session:s1"))
	ttl := mr.TTL("ezstream:session:s1")
	assert.Greater(t, ttl, 29*time.Minute)
	assert.LessOrEqual(t, ttl, 30*time.Minute)

	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, session.AccessToken, got.AccessToken)
	assert.Equal(t, session.AreaDomain, got.AreaDomain)
	assert.True(t, expiresAt.Equal(got.ExpiresAt))
}

func TestRedisSessionRepository_ExpiresWithTTL(t *testing.T) {
	mr, repo := setupMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.Session{
		ID:          "s1",
		AccessToken: "at",
		AreaDomain:  "https://open.ezvizlife.com",
		ExpiresAt:   time.Now().Add(time.Minute),
	}))

	mr.FastForward(2 * time.Minute)

	_, err := repo.GetByID(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRedisSessionRepository_DefaultTTLWithoutExpiry(t *testing.T) {
	mr, repo := setupMiniRedis(t)

	require.NoError(t, repo.Save(context.Background(), &domain.Session{ID: "s1", AccessToken: "at", AreaDomain: "https://open.ezvizlife.com"}))
	assert.Equal(t, time.Hour, mr.TTL("ezstream:session:s1"))
}

func TestRedisSessionRepository_DeleteAndCount(t *testing.T) {
	mr, repo := setupMiniRedis(t)
	ctx := context.Background()

	for _, id := range []domain.SessionID{"a", "b", "c"} {
		require.NoError(t, repo.Save(ctx, &domain.Session{ID: id, AccessToken: "at", AreaDomain: "https://open.ezvizlife.com"}))
	}
	require.NoError(t, mr.Set("unrelated", "x"))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, repo.Delete(ctx, "b"))
	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = repo.GetByID(ctx, "b")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRedisSessionRepository_ConnectionError(t *testing.T) {
	mr, repo := setupMiniRedis(t)
	mr.Close()

	_, err := repo.GetByID(context.Background(), "s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), mr.Addr(), "", 0, 2, nil)
	require.NoError(t, err)
	assert.NoError(t, CloseRedisClient(client))

	addr := mr.Addr()
	mr.Close()
	_, err = NewRedisClient(context.Background(), addr, "", 0, 2, nil)
	assert.Error(t, err)
}
