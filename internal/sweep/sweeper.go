package sweep

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/queueline/queueline/internal/appointment"
	"github.com/queueline/queueline/internal/observability/metrics"
	"github.com/queueline/queueline/pkg/logging"
)

// Lister fetches appointments whose slot window has lapsed while they still
// sit in an attended-capable status.
type Lister interface {
	ListExpired(ctx context.Context, now time.Time, limit int) ([]appointment.Appointment, error)
}

// Transitioner applies a status change with its ledger side effects.
type Transitioner interface {
	TransitionStatus(ctx context.Context, orgID string, id uuid.UUID, to appointment.Status, actor appointment.Actor) error
}

// Sweeper periodically moves lapsed booked/confirmed appointments to no_show
// and releases their slot capacity. Losing a race against a concurrent user
// action is expected and not an error.
type Sweeper struct {
	appts     Lister
	engine    Transitioner
	logger    *logging.Logger
	metrics   *metrics.BookingMetrics
	interval  time.Duration
	batchSize int
}

// New constructs a sweeper that runs every minute in batches of 100 by
// default.
func New(appts Lister, engine Transitioner, logger *logging.Logger, m *metrics.BookingMetrics) *Sweeper {
	if appts == nil {
		panic("sweep: appointment lister required")
	}
	if engine == nil {
		panic("sweep: transitioner required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweeper{
		appts:     appts,
		engine:    engine,
		logger:    logger,
		metrics:   m,
		interval:  time.Minute,
		batchSize: 100,
	}
}

// WithInterval overrides the sweep cadence.
func (s *Sweeper) WithInterval(d time.Duration) *Sweeper {
	if d > 0 {
		s.interval = d
	}
	return s
}

// WithBatchSize overrides how many lapsed appointments one pass handles.
func (s *Sweeper) WithBatchSize(n int) *Sweeper {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// Start runs the sweep loop until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("no-show sweeper started", "interval", s.interval, "batch_size", s.batchSize)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("no-show sweeper stopped")
			return
		case <-ticker.C:
			if n, err := s.ProcessDue(ctx); err != nil {
				s.logger.Error("sweep pass failed", "error", err)
			} else if n > 0 {
				s.logger.Info("sweep pass complete", "transitioned", n)
			}
		}
	}
}

// ProcessDue runs a single sweep pass and returns how many appointments it
// moved to no_show.
func (s *Sweeper) ProcessDue(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	due, err := s.appts.ListExpired(ctx, now, s.batchSize)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, appt := range due {
		err := s.engine.TransitionStatus(ctx, appt.OrgID, appt.ID, appointment.StatusNoShow, appointment.ActorSystem)
		switch {
		case err == nil:
			swept++
			s.metrics.ObserveSweepTransition()
		case errors.Is(err, appointment.ErrInvalidTransition), errors.Is(err, appointment.ErrNotFound):
			// a user or admin got there first
		default:
			s.logger.Warn("sweep transition failed",
				"org_id", appt.OrgID,
				"appointment_id", appt.ID,
				"error", err,
			)
		}
	}
	return swept, nil
}
