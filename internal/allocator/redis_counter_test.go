package allocator

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisCounterNext(t *testing.T) {
	client := setupTestRedis(t)
	counter := NewRedisCounter(client)
	ctx := context.Background()
	key := DayKey("org-1", uuid.New(), time.Now().UTC())

	for want := int64(1); want <= 5; want++ {
		got, err := counter.Next(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	ttl := client.TTL(ctx, key.String()).Val()
	assert.Greater(t, ttl, time.Duration(0), "day key should carry an expiry")
}

func TestRedisCounterCompensate(t *testing.T) {
	client := setupTestRedis(t)
	counter := NewRedisCounter(client)
	ctx := context.Background()
	key := DayKey("org-1", uuid.New(), time.Now().UTC())

	_, err := counter.Next(ctx, key)
	require.NoError(t, err)
	require.NoError(t, counter.Compensate(ctx, key))

	got, err := counter.Next(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got, "compensated increment should not consume a number")
}

func TestRedisCounterCompensateMissingKey(t *testing.T) {
	client := setupTestRedis(t)
	counter := NewRedisCounter(client)
	ctx := context.Background()
	key := DayKey("org-1", uuid.New(), time.Now().UTC())

	// key never incremented (or expired); counter must not go negative
	require.NoError(t, counter.Compensate(ctx, key))

	got, err := counter.Next(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}
