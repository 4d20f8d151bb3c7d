package appointment

import (
	"fmt"
	"time"
)

// transitionTable maps each status to the statuses reachable from it.
// Terminal statuses have no entry.
var transitionTable = map[Status][]Status{
	StatusPending:   {StatusBooked, StatusConfirmed, StatusCancelled},
	StatusBooked:    {StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

// CanTransition reports whether the table allows from → to.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitionTable[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateTransition checks the table plus the no_show time gate: a no-show
// can only be recorded once the appointment's window has passed.
func ValidateTransition(a *Appointment, to Status, now time.Time) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	if !CanTransition(a.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}
	if to == StatusNoShow {
		if a.EndTime == nil || !now.After(*a.EndTime) {
			return fmt.Errorf("%w: no_show before appointment end time", ErrInvalidTransition)
		}
	}
	return nil
}
