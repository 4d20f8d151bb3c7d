package allocator

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// counterTTL keeps day keys around long enough for late-night bookings and
// next-morning reporting before redis reclaims them.
const counterTTL = 48 * time.Hour

// RedisCounter issues ticket numbers with INCR, giving correct ordering
// across multiple server instances sharing one redis.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter creates a counter backed by the given client.
func NewRedisCounter(client *redis.Client) *RedisCounter {
	if client == nil {
		panic("allocator: redis client required")
	}
	return &RedisCounter{client: client}
}

// Next atomically increments the day key.
func (c *RedisCounter) Next(ctx context.Context, key CounterKey) (int64, error) {
	val, err := c.client.Incr(ctx, key.String()).Result()
	if err != nil {
		return 0, fmt.Errorf("allocator: redis incr: %w", err)
	}
	// set expiry only on first increment
	if val == 1 {
		c.client.Expire(ctx, key.String(), counterTTL)
	}
	return val, nil
}

// Compensate decrements the day key; a negative result (the key expired
// between increment and compensation) is reset to zero.
func (c *RedisCounter) Compensate(ctx context.Context, key CounterKey) error {
	val, err := c.client.Decr(ctx, key.String()).Result()
	if err != nil {
		return fmt.Errorf("allocator: redis decr: %w", err)
	}
	if val < 0 {
		if err := c.client.Set(ctx, key.String(), 0, counterTTL).Err(); err != nil {
			return fmt.Errorf("allocator: redis reset counter: %w", err)
		}
	}
	return nil
}
