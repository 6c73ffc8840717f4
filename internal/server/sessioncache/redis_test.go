package sessioncache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisKV(t *testing.T) (*RedisKV, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisKV(client), mr
}

func TestRedisKV_SetGetDelExists(t *testing.T) {
	kv, mr := newRedisKV(t)
	ctx := context.Background()

	_, err := kv.Get(ctx, "session:u1")
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, kv.Set(ctx, "session:u1", "A1", time.Minute))
	v, err := kv.Get(ctx, "session:u1")
	require.NoError(t, err)
	assert.Equal(t, "A1", v)
	assert.Equal(t, time.Minute, mr.TTL("session:u1"))

	ok, err := kv.Exists(ctx, "session:u1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, kv.Del(ctx, "session:u1"))
	ok, err = kv.Exists(ctx, "session:u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisKV_ExpiresWithTTL(t *testing.T) {
	kv, mr := newRedisKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "blacklist:tok", "1", 10*time.Second))
	mr.FastForward(10 * time.Second)

	ok, err := kv.Exists(ctx, "blacklist:tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisKV_BackendDown(t *testing.T) {
	kv, mr := newRedisKV(t)
	ctx := context.Background()
	mr.Close()

	err := kv.Set(ctx, "k", "v", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis error")
	assert.False(t, errors.Is(err, common.ErrorNotFound))

	_, err = kv.Get(ctx, "k")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrorNotFound), "outage must not read as a miss")

	_, err = kv.Exists(ctx, "k")
	require.Error(t, err)
	require.Error(t, kv.Del(ctx, "k"))
}

func TestStoreOnRedis_BlacklistTTL(t *testing.T) {
	kv, mr := newRedisKV(t)
	clock := newTestClock()
	store := New(kv, WithClock(clock.Now))
	ctx := context.Background()

	exp := clock.Now().Add(15 * time.Minute)
	clock.Advance(5 * time.Minute)
	require.NoError(t, store.Blacklist(ctx, "A1", exp))

	assert.Equal(t, 10*time.Minute, mr.TTL(BlacklistKey("A1")))
	assert.True(t, mr.Exists("blacklist:A1"))

	mr.FastForward(10 * time.Minute)
	ok, err := store.IsBlacklisted(ctx, "A1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), RedisOptions{Addr: mr.Addr(), Timeout: time.Second})
	require.NoError(t, err)
	require.NoError(t, client.Close())

	mr.Close()
	_, err = NewRedisClient(context.Background(), RedisOptions{Addr: mr.Addr(), Timeout: 200 * time.Millisecond})
	require.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("empty address falls back to memory", func(t *testing.T) {
		kv, closer, err := Open(ctx, RedisOptions{Timeout: time.Second})
		require.NoError(t, err)
		assert.IsType(t, &MemoryKV{}, kv)
		require.NoError(t, closer.Close())
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		kv, closer, err := Open(ctx, RedisOptions{Addr: mr.Addr(), Timeout: time.Second})
		require.NoError(t, err)
		t.Cleanup(func() { _ = closer.Close() })
		assert.IsType(t, &RedisKV{}, kv)

		require.NoError(t, kv.Set(ctx, "session:u1", "A1", time.Minute))
		assert.True(t, mr.Exists("session:u1"))
	})

	t.Run("unreachable redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		_, _, err := Open(ctx, RedisOptions{Addr: addr, Timeout: 200 * time.Millisecond})
		require.Error(t, err)
	})
}
