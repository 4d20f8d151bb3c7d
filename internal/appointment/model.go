package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/queueline/queueline/internal/catalog"
)

// Status is the lifecycle state of a booked unit.
type Status string

const (
	StatusPending   Status = "pending"
	StatusBooked    Status = "booked"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// Terminal reports whether no further transition is allowed from the status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusBooked, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Actor identifies who triggered a transition.
type Actor string

const (
	ActorUser   Actor = "user"
	ActorAdmin  Actor = "admin"
	ActorSystem Actor = "system"
)

// Valid reports whether the actor is one of the known values.
func (a Actor) Valid() bool {
	switch a {
	case ActorUser, ActorAdmin, ActorSystem:
		return true
	}
	return false
}

// CanCancel reports whether the actor may appear in cancelled_by. The system
// never cancels; it only sweeps lapsed appointments to no_show.
func (a Actor) CanCancel() bool {
	return a == ActorUser || a == ActorAdmin
}

// Appointment is a booked unit: a slot reservation under PER_RESOURCE scope
// or a queue ticket under CENTRAL scope. Service name, duration and the slot
// window are denormalized at creation so later catalog or slot edits do not
// rewrite history.
type Appointment struct {
	ID              uuid.UUID          `json:"id"`
	OrgID           string             `json:"org_id"`
	UserID          *uuid.UUID         `json:"user_id,omitempty"` // nil for guest bookings
	ServiceID       uuid.UUID          `json:"service_id"`
	ServiceName     string             `json:"service_name"`
	ServiceDuration int                `json:"service_duration"` // minutes
	Scope           catalog.QueueScope `json:"scope"`
	ResourceID      *uuid.UUID         `json:"resource_id,omitempty"`
	SlotID          *uuid.UUID         `json:"slot_id,omitempty"`
	QueueNumber     int64              `json:"queue_number"`
	Status          Status             `json:"status"`
	CancelledBy     Actor              `json:"cancelled_by,omitempty"`
	StartTime       *time.Time         `json:"start_time,omitempty"`
	EndTime         *time.Time         `json:"end_time,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// HoldsCapacity reports whether the appointment currently counts against its
// slot's booked_count.
func (a *Appointment) HoldsCapacity() bool {
	if a.Scope != catalog.ScopePerResource || a.SlotID == nil {
		return false
	}
	switch a.Status {
	case StatusPending, StatusBooked, StatusConfirmed:
		return true
	}
	return false
}
