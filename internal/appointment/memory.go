package appointment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository keeps appointments in process memory.
type InMemoryRepository struct {
	mu    sync.RWMutex
	appts map[uuid.UUID]*Appointment
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{appts: make(map[uuid.UUID]*Appointment)}
}

// Create stores a new appointment.
func (r *InMemoryRepository) Create(ctx context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = time.Now().UTC()
	}
	cp := *appt
	r.appts[appt.ID] = &cp
	return nil
}

// Get returns a copy of the appointment scoped to the org.
func (r *InMemoryRepository) Get(ctx context.Context, orgID string, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.appts[id]
	if !ok || appt.OrgID != orgID {
		return nil, ErrNotFound
	}
	cp := *appt
	return &cp, nil
}

// TransitionStatus swaps the status under the repository lock.
func (r *InMemoryRepository) TransitionStatus(ctx context.Context, orgID string, id uuid.UUID, from, to Status, cancelledBy Actor) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appts[id]
	if !ok || appt.OrgID != orgID {
		return false, ErrNotFound
	}
	if appt.Status != from {
		return false, nil
	}
	appt.Status = to
	if to == StatusCancelled {
		appt.CancelledBy = cancelledBy
	}
	return true, nil
}

// ListExpired returns booked/confirmed appointments past their end time.
func (r *InMemoryRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Appointment
	for _, appt := range r.appts {
		if limit > 0 && len(out) >= limit {
			break
		}
		if appt.Status != StatusBooked && appt.Status != StatusConfirmed {
			continue
		}
		if appt.EndTime == nil || !now.After(*appt.EndTime) {
			continue
		}
		out = append(out, *appt)
	}
	return out, nil
}
