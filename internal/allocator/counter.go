package allocator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CounterKey identifies one central ticket stream: an (org, service, day)
// triple. Day boundaries are UTC.
type CounterKey struct {
	OrgID     string
	ServiceID uuid.UUID
	Day       string
}

// DayKey builds the counter key for a booking arriving at the given instant.
func DayKey(orgID string, serviceID uuid.UUID, at time.Time) CounterKey {
	return CounterKey{
		OrgID:     orgID,
		ServiceID: serviceID,
		Day:       at.UTC().Format("2006-01-02"),
	}
}

// String renders the key for use as a redis key or map index.
func (k CounterKey) String() string {
	return fmt.Sprintf("central:%s:%s:%s", k.OrgID, k.ServiceID, k.Day)
}

// Counter issues strictly increasing ticket numbers per key. Next must be
// atomic under concurrent callers: two bookings racing for the next number
// must never receive the same value.
type Counter interface {
	Next(ctx context.Context, key CounterKey) (int64, error)

	// Compensate undoes the most recent increment after the appointment
	// write failed, so failed attempts do not consume numbers.
	Compensate(ctx context.Context, key CounterKey) error
}

// MemoryCounter serializes increments with a mutex. Suitable for tests and
// single-instance deployments.
type MemoryCounter struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewMemoryCounter creates an empty in-memory counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{values: make(map[string]int64)}
}

// Next increments and returns the sequence for the key.
func (c *MemoryCounter) Next(ctx context.Context, key CounterKey) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key.String()]++
	return c.values[key.String()], nil
}

// Compensate decrements the sequence, floored at zero.
func (c *MemoryCounter) Compensate(ctx context.Context, key CounterKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values[key.String()] > 0 {
		c.values[key.String()]--
	}
	return nil
}
