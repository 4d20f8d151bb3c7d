package allocator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/queueline/queueline/internal/catalog"
	"github.com/queueline/queueline/internal/ledger"
	"github.com/queueline/queueline/internal/observability/metrics"
	"github.com/queueline/queueline/pkg/logging"
)

var allocatorTracer = otel.Tracer("queueline.internal.allocator")

// AssociationValidator checks that a (resource, service) pair is linked.
type AssociationValidator interface {
	ValidateAssociation(ctx context.Context, orgID string, resourceID, serviceID uuid.UUID) error
}

// SlotOps is the slice of the slot ledger the allocator drives.
type SlotOps interface {
	Get(ctx context.Context, orgID string, id uuid.UUID) (*ledger.Slot, error)
	Reserve(ctx context.Context, orgID string, id uuid.UUID, now time.Time) (int, error)
	Release(ctx context.Context, orgID string, id uuid.UUID) error
	Forfeit(ctx context.Context, orgID string, id uuid.UUID) error
}

// Request describes one booking attempt, already resolved to a service.
type Request struct {
	OrgID      string
	Service    *catalog.Service
	ResourceID *uuid.UUID
	SlotID     *uuid.UUID
	Now        time.Time
}

// Assignment is a successful allocation: a held unit of capacity (or a
// consumed ticket number) waiting for its appointment row.
type Assignment struct {
	Scope       catalog.QueueScope
	QueueNumber int64
	ResourceID  *uuid.UUID
	SlotID      *uuid.UUID
	CounterKey  *CounterKey
}

// Allocator decides feasibility and issues queue positions, branching on the
// service's queue scope.
type Allocator struct {
	catalog AssociationValidator
	slots   SlotOps
	counter Counter
	journal JournalStore
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
}

// New constructs an allocator.
func New(cat AssociationValidator, slots SlotOps, counter Counter, journal JournalStore, logger *logging.Logger, m *metrics.BookingMetrics) *Allocator {
	if cat == nil {
		panic("allocator: association validator required")
	}
	if slots == nil {
		panic("allocator: slot ops required")
	}
	if counter == nil {
		panic("allocator: counter required")
	}
	if journal == nil {
		journal = NewMemoryJournal()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Allocator{catalog: cat, slots: slots, counter: counter, journal: journal, logger: logger, metrics: m}
}

// Allocate claims capacity (or a ticket number) for the request. Queue
// numbers are assigned strictly in the order reservations commit; a failed
// reserve never consumes a number.
func (a *Allocator) Allocate(ctx context.Context, req Request) (*Assignment, error) {
	ctx, span := allocatorTracer.Start(ctx, "allocator.allocate")
	defer span.End()
	span.SetAttributes(
		attribute.String("queueline.org_id", req.OrgID),
		attribute.String("queueline.service_id", req.Service.ID.String()),
		attribute.String("queueline.scope", string(req.Service.QueueScope)),
	)

	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if req.Service.QueueScope == catalog.ScopeCentral {
		key := DayKey(req.OrgID, req.Service.ID, now)
		number, err := a.counter.Next(ctx, key)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		return &Assignment{
			Scope:       catalog.ScopeCentral,
			QueueNumber: number,
			CounterKey:  &key,
		}, nil
	}

	if req.ResourceID == nil || req.SlotID == nil {
		return nil, ErrSlotSelectionRequired
	}
	if err := a.catalog.ValidateAssociation(ctx, req.OrgID, *req.ResourceID, req.Service.ID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	slot, err := a.slots.Get(ctx, req.OrgID, *req.SlotID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if slot.ResourceID != *req.ResourceID {
		// the slot belongs to a resource the association check never saw
		err := fmt.Errorf("%w: slot is owned by a different resource", catalog.ErrInvalidAssociation)
		span.RecordError(err)
		return nil, err
	}

	position, err := a.slots.Reserve(ctx, req.OrgID, *req.SlotID, now)
	if err != nil {
		a.metrics.ObserveReservation("rejected")
		span.RecordError(err)
		return nil, err
	}
	a.metrics.ObserveReservation("success")

	return &Assignment{
		Scope:       catalog.ScopePerResource,
		QueueNumber: int64(position),
		ResourceID:  req.ResourceID,
		SlotID:      req.SlotID,
	}, nil
}

// Compensate returns the capacity an assignment held after the appointment
// write failed. When the immediate release/decrement fails too, the action is
// journaled for asynchronous retry, so the caller-visible contract holds:
// either the appointment exists and capacity is held, or capacity is not
// held, eventually.
func (a *Allocator) Compensate(ctx context.Context, orgID string, asg *Assignment) {
	switch asg.Scope {
	case catalog.ScopePerResource:
		if asg.SlotID == nil {
			return
		}
		if err := a.slots.Release(ctx, orgID, *asg.SlotID); err != nil {
			a.metrics.ObserveCompensation(string(KindReleaseSlot), "journaled")
			a.journalEntry(ctx, &Entry{
				OrgID:  orgID,
				Kind:   KindReleaseSlot,
				SlotID: asg.SlotID,
			}, err)
			return
		}
		a.metrics.ObserveCompensation(string(KindReleaseSlot), "ok")
	case catalog.ScopeCentral:
		if asg.CounterKey == nil {
			return
		}
		if err := a.counter.Compensate(ctx, *asg.CounterKey); err != nil {
			a.metrics.ObserveCompensation(string(KindDecrementCounter), "journaled")
			serviceID := asg.CounterKey.ServiceID
			a.journalEntry(ctx, &Entry{
				OrgID:     orgID,
				Kind:      KindDecrementCounter,
				ServiceID: &serviceID,
				Day:       asg.CounterKey.Day,
			}, err)
			return
		}
		a.metrics.ObserveCompensation(string(KindDecrementCounter), "ok")
	}
}

// Forfeit returns the unit of capacity a no_show held. The appointment row
// survives and keeps referencing the slot, so only the occupancy count moves.
// Failures are journaled the same way Compensate's are.
func (a *Allocator) Forfeit(ctx context.Context, orgID string, slotID uuid.UUID) {
	if err := a.slots.Forfeit(ctx, orgID, slotID); err != nil {
		a.metrics.ObserveCompensation(string(KindForfeitSlot), "journaled")
		a.journalEntry(ctx, &Entry{
			OrgID:  orgID,
			Kind:   KindForfeitSlot,
			SlotID: &slotID,
		}, err)
		return
	}
	a.metrics.ObserveCompensation(string(KindForfeitSlot), "ok")
}

func (a *Allocator) journalEntry(ctx context.Context, entry *Entry, cause error) {
	a.logger.Warn("immediate compensation failed, journaling for retry",
		"org_id", entry.OrgID,
		"kind", entry.Kind,
		"error", cause,
	)
	if err := a.journal.Insert(ctx, entry); err != nil {
		// both the release and the journal write failed; the retrier cannot
		// see this entry, so scream loudly
		a.logger.Error("failed to journal compensation, capacity may leak",
			"org_id", entry.OrgID,
			"kind", entry.Kind,
			"error", err,
		)
	}
}
