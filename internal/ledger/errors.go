package ledger

import "errors"

var (
	// ErrSlotNotFound is returned when the slot does not exist in the org.
	ErrSlotNotFound = errors.New("slot not found")

	// ErrSlotFull is returned when a reserve hits a slot already at capacity.
	ErrSlotFull = errors.New("slot is at capacity")

	// ErrSlotExpired is returned when a reserve targets a slot whose window
	// has already closed.
	ErrSlotExpired = errors.New("slot has expired")

	// ErrSlotInUse is returned when deleting or resizing a slot that a
	// non-cancelled appointment still references.
	ErrSlotInUse = errors.New("slot has active bookings")

	// ErrCapacityExceedsResource is returned when a slot's requested capacity
	// exceeds the owning resource's concurrent capacity.
	ErrCapacityExceedsResource = errors.New("requested capacity exceeds resource capacity")

	ErrInvalidSlotCapacity = errors.New("slot capacity must be at least 1")
	ErrInvalidStartTime    = errors.New("start time is required")
	ErrInvalidDuration     = errors.New("duration must be positive")
)
