package allocator

import "errors"

var (
	// ErrSlotSelectionRequired is returned when a PER_RESOURCE booking
	// arrives without a resource and slot chosen.
	ErrSlotSelectionRequired = errors.New("per-resource booking requires resource and slot")

	// ErrCompensationFailed marks a failed release/decrement after a booking
	// write error. It is journaled and retried, never surfaced to callers as
	// a final outcome.
	ErrCompensationFailed = errors.New("compensation failed")
)
