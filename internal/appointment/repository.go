package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists appointments. Appointments are created exclusively by
// the queue allocator; callers never construct rows directly.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) error
	Get(ctx context.Context, orgID string, id uuid.UUID) (*Appointment, error)

	// TransitionStatus compare-and-swaps the status from `from` to `to`,
	// recording cancelledBy when to is cancelled. It returns false when the
	// appointment was no longer in `from`, so a racing second transition
	// observes exactly one winner.
	TransitionStatus(ctx context.Context, orgID string, id uuid.UUID, from, to Status, cancelledBy Actor) (bool, error)

	// ListExpired returns booked/confirmed appointments whose end time has
	// passed, for the no-show sweep.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]Appointment, error)
}
