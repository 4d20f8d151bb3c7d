package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists slots. Reserve and Release are the only operations that
// mutate booked_count and both must be atomic under concurrent callers: two
// requests racing for the last unit of capacity must never both succeed.
type Store interface {
	Insert(ctx context.Context, slot *Slot) error
	Get(ctx context.Context, orgID string, id uuid.UUID) (*Slot, error)

	// Reserve atomically increments booked_count and active_refs if the slot
	// exists, has not expired relative to now, and is below capacity. It
	// returns the 1-based occupancy position after the increment.
	Reserve(ctx context.Context, orgID string, id uuid.UUID, now time.Time) (int, error)

	// Release atomically decrements booked_count and active_refs, both
	// floored at zero. Used when an appointment stops referencing the slot:
	// a cancellation, or a booking write that never committed.
	Release(ctx context.Context, orgID string, id uuid.UUID) error

	// Forfeit atomically decrements booked_count only, floored at zero. A
	// no_show frees the unit of capacity while its appointment keeps
	// referencing the slot.
	Forfeit(ctx context.Context, orgID string, id uuid.UUID) error

	// Delete removes the slot; ErrSlotInUse while any non-cancelled
	// appointment references it.
	Delete(ctx context.Context, orgID string, id uuid.UUID) error

	// UpdateCapacity changes max_capacity; ErrSlotInUse while any
	// non-cancelled appointment references the slot.
	UpdateCapacity(ctx context.Context, orgID string, id uuid.UUID, capacity int) error

	// HasActiveFuture reports whether the resource owns any slot with a
	// future end time and a non-zero booked count.
	HasActiveFuture(ctx context.Context, orgID string, resourceID uuid.UUID, now time.Time) (bool, error)
}
