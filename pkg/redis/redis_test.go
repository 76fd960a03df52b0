package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/medicenter_backend/config"
)

func TestFromCentralConfigDefaults(t *testing.T) {
	cfg := FromCentralConfig(config.RedisConfig{Addr: "cache:6379", PoolSize: 32, ReadTimeoutSeconds: 9})

	assert.Equal(t, "cache:6379", cfg.Addr)
	assert.Equal(t, 32, cfg.PoolSize)
	assert.Equal(t, DefaultConfig().MinIdleConns, cfg.MinIdleConns)
	assert.Equal(t, 9*time.Second, cfg.ReadTimeout)
	assert.Equal(t, DefaultConfig().DialTimeout, cfg.DialTimeout)
}

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := NewRedis(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	defer rdb.Close()

	_, err = NewRedis(context.Background(), Config{})
	assert.Error(t, err)
}

func TestLock(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	first, err := TryLock(ctx, rdb, "lock:test", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := TryLock(ctx, rdb, "lock:test", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, second, "lock must be exclusive")

	require.NoError(t, first.Release(ctx))
	third, err := TryLock(ctx, rdb, "lock:test", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, third)

	// an expired lease taken over by another holder is not released by the old one
	mr.FastForward(2 * time.Minute)
	fourth, err := TryLock(ctx, rdb, "lock:test", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, fourth)
	require.NoError(t, third.Release(ctx))
	assert.True(t, mr.Exists("lock:test"))

	var none *Lock
	assert.NoError(t, none.Release(ctx))
}
