package appointment

import "errors"

var (
	// ErrNotFound is returned when the appointment does not exist in the org.
	ErrNotFound = errors.New("appointment not found")

	// ErrInvalidTransition is returned for any status change the transition
	// table does not allow, including re-cancelling a cancelled appointment.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidActor is returned when a cancellation names an actor that
	// cannot appear in cancelled_by.
	ErrInvalidActor = errors.New("actor cannot cancel appointments")
)
