package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := NewRedisFromURL(context.Background(), "redis://"+mr.Addr(), "test", time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return mr, c
}

func TestRedis_GetSet(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()

	_, gen, hit, err := c.Get(ctx, SnapshotTeams)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, int64(0), gen)

	require.NoError(t, c.Set(ctx, SnapshotTeams, gen, []byte(`[1]`)))

	data, _, hit, err := c.Get(ctx, SnapshotTeams)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, `[1]`, string(data))

	assert.True(t, mr.Exists("test:snapshot:teams:0"))
	ttl := mr.TTL("test:snapshot:teams:0")
	assert.Equal(t, time.Minute, ttl)
}

func TestRedis_InvalidateHidesStaleWrites(t *testing.T) {
	_, c := setupTestRedis(t)
	ctx := context.Background()

	_, staleGen, _, err := c.Get(ctx, SnapshotPlayers)
	require.NoError(t, err)

	// A commit lands while the stale reader is still computing.
	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Set(ctx, SnapshotPlayers, staleGen, []byte(`"stale"`)))

	_, gen, hit, err := c.Get(ctx, SnapshotPlayers)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, staleGen+1, gen)
}

func TestRedis_BadURL(t *testing.T) {
	_, err := NewRedisFromURL(context.Background(), "invalid://url", "", 0)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	_, c := setupTestRedis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(ctx context.Context) ([]string, error) {
		calls++
		return []string{"Strikers"}, nil
	}

	got, err := Load(ctx, c, SnapshotTeams, fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"Strikers"}, got)

	got, err = Load(ctx, c, SnapshotTeams, fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"Strikers"}, got)
	assert.Equal(t, 1, calls)

	require.NoError(t, c.Invalidate(ctx))
	_, err = Load(ctx, c, SnapshotTeams, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	boom := errors.New("boom")
	_, err = Load(ctx, c, SnapshotPlayers, func(ctx context.Context) ([]string, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestLoad_CacheDownFallsThrough(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	c := NewRedis(rdb, "test", time.Minute)

	got, err := Load(context.Background(), c, SnapshotTeams, func(ctx context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestNoop(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	}
	_, err := Load(context.Background(), Noop{}, SnapshotTeams, fetch)
	require.NoError(t, err)
	_, err = Load(context.Background(), Noop{}, SnapshotTeams, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
