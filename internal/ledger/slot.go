package ledger

import (
	"time"

	"github.com/google/uuid"
)

// SchedulingGrid is the granularity slot start times snap to. Rounding keeps
// admins from publishing odd-minute slots; it is a usability policy applied
// identically to hand-created and derived slots.
const SchedulingGrid = 5 * time.Minute

// RoundToGrid rounds a timestamp to the nearest scheduling grid boundary.
func RoundToGrid(t time.Time) time.Time {
	return t.Round(SchedulingGrid)
}

// Slot is a time-bounded capacity bucket on one resource. BookedCount is the
// live occupancy; ActiveRefs counts non-cancelled appointments referencing
// the slot. A no_show frees occupancy but keeps its reference, so
// BookedCount <= ActiveRefs always holds.
type Slot struct {
	ID          uuid.UUID `json:"id"`
	OrgID       string    `json:"org_id"`
	ResourceID  uuid.UUID `json:"resource_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	MaxCapacity int       `json:"max_capacity"`
	BookedCount int       `json:"booked_count"`
	ActiveRefs  int       `json:"active_refs"`
	CreatedAt   time.Time `json:"created_at"`
}

// Remaining returns the unreserved capacity.
func (s *Slot) Remaining() int {
	return s.MaxCapacity - s.BookedCount
}

// Expired reports whether the slot's window has already closed.
func (s *Slot) Expired(now time.Time) bool {
	return s.EndTime.Before(now)
}
