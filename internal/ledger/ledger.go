package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/queueline/queueline/internal/catalog"
	"github.com/queueline/queueline/pkg/logging"
)

// ResourceDirectory looks up resources for capacity validation.
type ResourceDirectory interface {
	GetResource(ctx context.Context, orgID string, id uuid.UUID) (*catalog.Resource, error)
}

// ServiceDirectory looks up services for duration defaulting.
type ServiceDirectory interface {
	GetService(ctx context.Context, orgID string, id uuid.UUID) (*catalog.Service, error)
}

// Ledger owns slot lifecycle policy: grid rounding, duration defaulting and
// the capacity bound against the owning resource. The bound is checked at
// creation time only; later resource capacity changes do not re-validate
// existing slots.
type Ledger struct {
	store     Store
	resources ResourceDirectory
	services  ServiceDirectory
	logger    *logging.Logger
}

// NewLedger constructs a slot ledger.
func NewLedger(store Store, resources ResourceDirectory, services ServiceDirectory, logger *logging.Logger) *Ledger {
	if store == nil {
		panic("ledger: store required")
	}
	if resources == nil {
		panic("ledger: resource directory required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Ledger{store: store, resources: resources, services: services, logger: logger}
}

// CreateSlotInput describes a slot to publish.
type CreateSlotInput struct {
	OrgID      string
	ResourceID uuid.UUID
	// ServiceID is optional; when set and DurationMinutes is zero the slot
	// length defaults to the service's estimated service time.
	ServiceID       uuid.UUID
	StartTime       time.Time
	DurationMinutes int
	Capacity        int
}

// CreateSlot validates and publishes a slot with booked_count zero.
func (l *Ledger) CreateSlot(ctx context.Context, in CreateSlotInput) (*Slot, error) {
	if in.StartTime.IsZero() {
		return nil, ErrInvalidStartTime
	}
	if in.Capacity < 1 {
		return nil, ErrInvalidSlotCapacity
	}

	res, err := l.resources.GetResource(ctx, in.OrgID, in.ResourceID)
	if err != nil {
		return nil, err
	}
	if in.Capacity > res.ConcurrentCapacity {
		return nil, ErrCapacityExceedsResource
	}

	duration := in.DurationMinutes
	if duration == 0 && in.ServiceID != uuid.Nil && l.services != nil {
		svc, err := l.services.GetService(ctx, in.OrgID, in.ServiceID)
		if err != nil {
			return nil, err
		}
		duration = svc.EstimatedServiceTime
	}
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}

	start := RoundToGrid(in.StartTime.UTC())
	slot := &Slot{
		OrgID:       in.OrgID,
		ResourceID:  in.ResourceID,
		StartTime:   start,
		EndTime:     start.Add(time.Duration(duration) * time.Minute),
		MaxCapacity: in.Capacity,
	}
	if err := l.store.Insert(ctx, slot); err != nil {
		return nil, err
	}

	l.logger.Info("slot created",
		"org_id", in.OrgID,
		"slot_id", slot.ID,
		"resource_id", in.ResourceID,
		"start", slot.StartTime,
		"capacity", slot.MaxCapacity,
	)
	return slot, nil
}

// Get returns a slot scoped to the org.
func (l *Ledger) Get(ctx context.Context, orgID string, id uuid.UUID) (*Slot, error) {
	return l.store.Get(ctx, orgID, id)
}

// Reserve atomically claims one unit of the slot's capacity and returns the
// 1-based occupancy position.
func (l *Ledger) Reserve(ctx context.Context, orgID string, id uuid.UUID, now time.Time) (int, error) {
	return l.store.Reserve(ctx, orgID, id, now)
}

// Release returns one unit of capacity and drops the appointment's
// reference; both floored at zero.
func (l *Ledger) Release(ctx context.Context, orgID string, id uuid.UUID) error {
	return l.store.Release(ctx, orgID, id)
}

// Forfeit returns one unit of capacity while the appointment keeps
// referencing the slot, as a no_show does.
func (l *Ledger) Forfeit(ctx context.Context, orgID string, id uuid.UUID) error {
	return l.store.Forfeit(ctx, orgID, id)
}

// DeleteSlot removes a slot with no bookings counted against it.
func (l *Ledger) DeleteSlot(ctx context.Context, orgID string, id uuid.UUID) error {
	if err := l.store.Delete(ctx, orgID, id); err != nil {
		return err
	}
	l.logger.Info("slot deleted", "org_id", orgID, "slot_id", id)
	return nil
}

// UpdateCapacity resizes a slot no non-cancelled appointment references,
// re-checking the resource bound.
func (l *Ledger) UpdateCapacity(ctx context.Context, orgID string, id uuid.UUID, capacity int) error {
	if capacity < 1 {
		return ErrInvalidSlotCapacity
	}
	slot, err := l.store.Get(ctx, orgID, id)
	if err != nil {
		return err
	}
	res, err := l.resources.GetResource(ctx, orgID, slot.ResourceID)
	if err != nil {
		return err
	}
	if capacity > res.ConcurrentCapacity {
		return ErrCapacityExceedsResource
	}
	return l.store.UpdateCapacity(ctx, orgID, id, capacity)
}

// HasActiveFuture reports whether the resource still holds future bookings.
func (l *Ledger) HasActiveFuture(ctx context.Context, orgID string, resourceID uuid.UUID, now time.Time) (bool, error) {
	return l.store.HasActiveFuture(ctx, orgID, resourceID, now)
}
