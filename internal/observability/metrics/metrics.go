package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the scheduling engine.
type BookingMetrics struct {
	bookingsTotal     *prometheus.CounterVec
	reservationsTotal *prometheus.CounterVec
	compensations     *prometheus.CounterVec
	sweepTransitions  prometheus.Counter
	bookingLatency    *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "queueline",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Total booking attempts",
		}, []string{"scope", "outcome"}),
		reservationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "queueline",
			Subsystem: "ledger",
			Name:      "reservations_total",
			Help:      "Total slot reserve attempts",
		}, []string{"outcome"}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "queueline",
			Subsystem: "scheduling",
			Name:      "compensations_total",
			Help:      "Compensation actions after failed booking writes",
		}, []string{"kind", "outcome"}),
		sweepTransitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "queueline",
			Subsystem: "sweep",
			Name:      "no_show_transitions_total",
			Help:      "Appointments moved to no_show by the sweep",
		}),
		bookingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "queueline",
			Subsystem: "scheduling",
			Name:      "booking_latency_seconds",
			Help:      "Latency of bookAppointment calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"scope"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.reservationsTotal, m.compensations, m.sweepTransitions, m.bookingLatency)
	return m
}

func (m *BookingMetrics) ObserveBooking(scope, outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(scope, outcome).Inc()
}

func (m *BookingMetrics) ObserveReservation(outcome string) {
	if m == nil {
		return
	}
	m.reservationsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveCompensation(kind, outcome string) {
	if m == nil {
		return
	}
	m.compensations.WithLabelValues(kind, outcome).Inc()
}

func (m *BookingMetrics) ObserveSweepTransition() {
	if m == nil {
		return
	}
	m.sweepTransitions.Inc()
}

func (m *BookingMetrics) ObserveBookingLatency(scope string, seconds float64) {
	if m == nil {
		return
	}
	m.bookingLatency.WithLabelValues(scope).Observe(seconds)
}
