package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/queueline/queueline/internal/allocator"
	"github.com/queueline/queueline/internal/appointment"
	"github.com/queueline/queueline/internal/catalog"
	"github.com/queueline/queueline/internal/ledger"
	"github.com/queueline/queueline/internal/observability/metrics"
	"github.com/queueline/queueline/pkg/logging"
)

var schedulingTracer = otel.Tracer("queueline.internal.scheduling")

// Engine is the single entry point external collaborators call. It wires the
// catalog, slot ledger, allocator and appointment repository together and
// owns the compensation boundary: after Allocate succeeds, any failure to
// write the appointment row releases the held capacity before returning.
type Engine struct {
	catalog      catalog.Repository
	ledger       *ledger.Ledger
	allocator    *allocator.Allocator
	appointments appointment.Repository
	logger       *logging.Logger
	metrics      *metrics.BookingMetrics
}

// NewEngine constructs the scheduling facade.
func NewEngine(cat catalog.Repository, led *ledger.Ledger, alloc *allocator.Allocator, appts appointment.Repository, logger *logging.Logger, m *metrics.BookingMetrics) *Engine {
	if cat == nil {
		panic("scheduling: catalog required")
	}
	if led == nil {
		panic("scheduling: ledger required")
	}
	if alloc == nil {
		panic("scheduling: allocator required")
	}
	if appts == nil {
		panic("scheduling: appointment repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		catalog:      cat,
		ledger:       led,
		allocator:    alloc,
		appointments: appts,
		logger:       logger,
		metrics:      m,
	}
}

// BookingRequest describes one booking attempt from the wizard.
type BookingRequest struct {
	OrgID      string     `json:"-"`
	UserID     *uuid.UUID `json:"user_id,omitempty"` // nil for guest bookings
	ServiceID  uuid.UUID  `json:"service_id"`
	ResourceID *uuid.UUID `json:"resource_id,omitempty"`
	SlotID     *uuid.UUID `json:"slot_id,omitempty"`
}

// BookAppointment runs the full allocation flow and materializes the
// appointment record.
func (e *Engine) BookAppointment(ctx context.Context, req BookingRequest) (*appointment.Appointment, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("queueline.org_id", req.OrgID),
		attribute.String("queueline.service_id", req.ServiceID.String()),
	)
	started := time.Now()

	svc, err := e.catalog.GetService(ctx, req.OrgID, req.ServiceID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := time.Now().UTC()
	asg, err := e.allocator.Allocate(ctx, allocator.Request{
		OrgID:      req.OrgID,
		Service:    svc,
		ResourceID: req.ResourceID,
		SlotID:     req.SlotID,
		Now:        now,
	})
	if err != nil {
		e.metrics.ObserveBooking(string(svc.QueueScope), "rejected")
		span.RecordError(err)
		return nil, err
	}

	appt := &appointment.Appointment{
		OrgID:           req.OrgID,
		UserID:          req.UserID,
		ServiceID:       svc.ID,
		ServiceName:     svc.Name,
		ServiceDuration: svc.EstimatedServiceTime,
		Scope:           asg.Scope,
		ResourceID:      asg.ResourceID,
		SlotID:          asg.SlotID,
		QueueNumber:     asg.QueueNumber,
	}
	switch asg.Scope {
	case catalog.ScopePerResource:
		appt.Status = appointment.StatusBooked
		slot, err := e.ledger.Get(ctx, req.OrgID, *asg.SlotID)
		if err != nil {
			e.allocator.Compensate(ctx, req.OrgID, asg)
			e.metrics.ObserveBooking(string(svc.QueueScope), "failed")
			span.RecordError(err)
			return nil, err
		}
		// copy the window so later slot edits do not rewrite this appointment
		start, end := slot.StartTime, slot.EndTime
		appt.StartTime = &start
		appt.EndTime = &end
	case catalog.ScopeCentral:
		appt.Status = appointment.StatusPending
	}

	if err := e.appointments.Create(ctx, appt); err != nil {
		e.allocator.Compensate(ctx, req.OrgID, asg)
		e.metrics.ObserveBooking(string(svc.QueueScope), "failed")
		span.RecordError(err)
		return nil, fmt.Errorf("scheduling: create appointment: %w", err)
	}

	e.metrics.ObserveBooking(string(svc.QueueScope), "success")
	e.metrics.ObserveBookingLatency(string(svc.QueueScope), time.Since(started).Seconds())
	e.logger.Info("appointment booked",
		"org_id", req.OrgID,
		"appointment_id", appt.ID,
		"service_id", svc.ID,
		"scope", svc.QueueScope,
		"queue_number", appt.QueueNumber,
	)
	return appt, nil
}

// CancelAppointment cancels a non-terminal appointment, recording who
// cancelled and releasing held capacity exactly once.
func (e *Engine) CancelAppointment(ctx context.Context, orgID string, id uuid.UUID, actor appointment.Actor) error {
	return e.TransitionStatus(ctx, orgID, id, appointment.StatusCancelled, actor)
}

// TransitionStatus applies a table-validated status change and its slot
// ledger side effects.
func (e *Engine) TransitionStatus(ctx context.Context, orgID string, id uuid.UUID, to appointment.Status, actor appointment.Actor) error {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.transition")
	defer span.End()
	span.SetAttributes(
		attribute.String("queueline.org_id", orgID),
		attribute.String("queueline.appointment_id", id.String()),
		attribute.String("queueline.to_status", string(to)),
	)

	appt, err := e.appointments.Get(ctx, orgID, id)
	if err != nil {
		span.RecordError(err)
		return err
	}

	now := time.Now().UTC()
	if err := appointment.ValidateTransition(appt, to, now); err != nil {
		span.RecordError(err)
		return err
	}

	cancelledBy := appointment.Actor("")
	if to == appointment.StatusCancelled {
		if !actor.CanCancel() {
			return appointment.ErrInvalidActor
		}
		cancelledBy = actor
	}

	releases := appt.HoldsCapacity() && (to == appointment.StatusCancelled || to == appointment.StatusNoShow)

	ok, err := e.appointments.TransitionStatus(ctx, orgID, id, appt.Status, to, cancelledBy)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !ok {
		// lost the race against a concurrent transition; whoever won already
		// applied the side effects
		return fmt.Errorf("%w: status changed concurrently", appointment.ErrInvalidTransition)
	}

	if releases {
		if to == appointment.StatusNoShow {
			// the appointment row survives and keeps referencing the slot
			e.allocator.Forfeit(ctx, orgID, *appt.SlotID)
		} else {
			e.allocator.Compensate(ctx, orgID, &allocator.Assignment{
				Scope:  catalog.ScopePerResource,
				SlotID: appt.SlotID,
			})
		}
	}

	e.logger.Info("appointment transitioned",
		"org_id", orgID,
		"appointment_id", id,
		"from", appt.Status,
		"to", to,
		"actor", actor,
	)
	return nil
}

// GetAppointment returns an appointment scoped to the org.
func (e *Engine) GetAppointment(ctx context.Context, orgID string, id uuid.UUID) (*appointment.Appointment, error) {
	return e.appointments.Get(ctx, orgID, id)
}

// CreateSlot publishes a slot through the ledger.
func (e *Engine) CreateSlot(ctx context.Context, in ledger.CreateSlotInput) (*ledger.Slot, error) {
	return e.ledger.CreateSlot(ctx, in)
}

// DeleteSlot removes an empty slot.
func (e *Engine) DeleteSlot(ctx context.Context, orgID string, id uuid.UUID) error {
	return e.ledger.DeleteSlot(ctx, orgID, id)
}

// DeleteResource removes a resource unless it still holds future bookings.
func (e *Engine) DeleteResource(ctx context.Context, orgID string, id uuid.UUID) error {
	busy, err := e.ledger.HasActiveFuture(ctx, orgID, id, time.Now().UTC())
	if err != nil {
		return err
	}
	if busy {
		return catalog.ErrResourceInUse
	}
	return e.catalog.DeleteResource(ctx, orgID, id)
}

// LinkResourceToServices attaches a resource to services.
func (e *Engine) LinkResourceToServices(ctx context.Context, orgID string, resourceID uuid.UUID, serviceIDs []uuid.UUID) error {
	return e.catalog.LinkResourceToServices(ctx, orgID, resourceID, serviceIDs)
}

// UnlinkResourceFromServices detaches a resource from services.
func (e *Engine) UnlinkResourceFromServices(ctx context.Context, orgID string, resourceID uuid.UUID, serviceIDs []uuid.UUID) error {
	return e.catalog.UnlinkResourceFromServices(ctx, orgID, resourceID, serviceIDs)
}
