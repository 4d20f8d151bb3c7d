package appointment

import (
	"errors"
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from  Status
		to    Status
		valid bool
	}{
		{StatusPending, StatusBooked, true},
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusNoShow, false},
		{StatusBooked, StatusConfirmed, true},
		{StatusBooked, StatusCompleted, true},
		{StatusBooked, StatusCancelled, true},
		{StatusBooked, StatusNoShow, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusNoShow, true},
		{StatusConfirmed, StatusBooked, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusCancelled, StatusBooked, false},
		{StatusNoShow, StatusCompleted, false},
	}

	for _, tt := range cases {
		if got := CanTransition(tt.from, tt.to); got != tt.valid {
			t.Errorf("CanTransition(%s, %s)=%v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}

func TestValidateTransitionNoShowTimeGate(t *testing.T) {
	now := time.Now().UTC()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	appt := &Appointment{Status: StatusBooked, EndTime: &future}
	if err := ValidateTransition(appt, StatusNoShow, now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("no_show before end time should fail, got %v", err)
	}

	appt.EndTime = &past
	if err := ValidateTransition(appt, StatusNoShow, now); err != nil {
		t.Errorf("no_show after end time should pass, got %v", err)
	}

	appt.EndTime = nil
	if err := ValidateTransition(appt, StatusNoShow, now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("no_show without end time should fail, got %v", err)
	}
}

func TestValidateTransitionUnknownStatus(t *testing.T) {
	appt := &Appointment{Status: StatusBooked}
	if err := ValidateTransition(appt, Status("archived"), time.Now()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("unknown target status should fail, got %v", err)
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled, StatusNoShow} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusBooked, StatusConfirmed} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
