package allocator

import (
	"context"
	"fmt"
	"time"

	"github.com/queueline/queueline/pkg/logging"
)

// Retrier drains the compensation journal, re-attempting each pending
// release/decrement until it sticks. It runs alongside the API server the
// same way the sweep does.
type Retrier struct {
	journal     JournalStore
	slots       SlotOps
	counter     Counter
	logger      *logging.Logger
	interval    time.Duration
	batchSize   int
	maxAttempts int
}

// NewRetrier creates a compensation retrier.
func NewRetrier(journal JournalStore, slots SlotOps, counter Counter, logger *logging.Logger) *Retrier {
	if logger == nil {
		logger = logging.Default()
	}
	return &Retrier{
		journal:     journal,
		slots:       slots,
		counter:     counter,
		logger:      logger,
		interval:    5 * time.Second,
		batchSize:   25,
		maxAttempts: 10,
	}
}

// WithInterval overrides the polling interval.
func (r *Retrier) WithInterval(interval time.Duration) *Retrier {
	if interval > 0 {
		r.interval = interval
	}
	return r
}

// WithBatchSize overrides the per-tick batch size.
func (r *Retrier) WithBatchSize(size int) *Retrier {
	if size > 0 {
		r.batchSize = size
	}
	return r
}

// WithMaxAttempts overrides the attempt threshold for operator alerts.
func (r *Retrier) WithMaxAttempts(n int) *Retrier {
	if n > 0 {
		r.maxAttempts = n
	}
	return r
}

// Start polls the journal until the context is cancelled.
func (r *Retrier) Start(ctx context.Context) {
	if r.journal == nil {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Drain(ctx)
		}
	}
}

// Drain attempts every pending entry once. Exported so tests and the manual
// admin path can force a pass.
func (r *Retrier) Drain(ctx context.Context) {
	entries, err := r.journal.FetchPending(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("compensation journal fetch failed", "error", err)
		return
	}
	for _, entry := range entries {
		if err := r.apply(ctx, entry); err != nil {
			if recErr := r.journal.RecordAttempt(ctx, entry.ID); recErr != nil {
				r.logger.Error("failed to record compensation attempt", "entry_id", entry.ID, "error", recErr)
			}
			if entry.Attempts+1 >= r.maxAttempts {
				// operator-visible alert; the entry stays pending and keeps retrying
				r.logger.Error("compensation retries exhausted",
					"entry_id", entry.ID,
					"kind", entry.Kind,
					"attempts", entry.Attempts+1,
					"error", err,
				)
			} else {
				r.logger.Warn("compensation retry failed",
					"entry_id", entry.ID,
					"kind", entry.Kind,
					"error", err,
				)
			}
			continue
		}
		if ok, err := r.journal.MarkDone(ctx, entry.ID); err != nil {
			r.logger.Error("failed to retire compensation entry", "entry_id", entry.ID, "error", err)
		} else if ok {
			r.logger.Info("compensation applied", "entry_id", entry.ID, "kind", entry.Kind)
		}
	}
}

func (r *Retrier) apply(ctx context.Context, entry Entry) error {
	switch entry.Kind {
	case KindReleaseSlot:
		if entry.SlotID == nil {
			return nil
		}
		if err := r.slots.Release(ctx, entry.OrgID, *entry.SlotID); err != nil {
			return fmt.Errorf("%w: release slot: %w", ErrCompensationFailed, err)
		}
	case KindForfeitSlot:
		if entry.SlotID == nil {
			return nil
		}
		if err := r.slots.Forfeit(ctx, entry.OrgID, *entry.SlotID); err != nil {
			return fmt.Errorf("%w: forfeit slot: %w", ErrCompensationFailed, err)
		}
	case KindDecrementCounter:
		if entry.ServiceID == nil {
			return nil
		}
		key := CounterKey{
			OrgID:     entry.OrgID,
			ServiceID: *entry.ServiceID,
			Day:       entry.Day,
		}
		if err := r.counter.Compensate(ctx, key); err != nil {
			return fmt.Errorf("%w: decrement counter: %w", ErrCompensationFailed, err)
		}
	}
	return nil
}
