package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveBooking("PER_RESOURCE", "success")
	m.ObserveReservation("slot_full")
	m.ObserveCompensation("release_slot", "journaled")
	m.ObserveSweepTransition()
	m.ObserveBookingLatency("CENTRAL", 0.05)
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveBooking("CENTRAL", "success")
	m.ObserveReservation("success")
	m.ObserveCompensation("decrement_counter", "ok")
	m.ObserveSweepTransition()
	m.ObserveBookingLatency("PER_RESOURCE", 0.1)
}
