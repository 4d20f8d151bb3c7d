package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists slots in the relational database. Reserve relies on
// a conditional UPDATE so the capacity check and the increment are one atomic
// statement; there is no read-then-write window.
type PostgresStore struct {
	db db
}

// NewPostgresStore initializes a store backed by a pgx pool (or a mock in tests).
func NewPostgresStore(db db) *PostgresStore {
	if db == nil {
		panic("ledger: pgx pool required")
	}
	return &PostgresStore{db: db}
}

// Insert stores a new slot row.
func (s *PostgresStore) Insert(ctx context.Context, slot *Slot) error {
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	query := `
		INSERT INTO slots (id, org_id, resource_id, start_time, end_time, max_capacity, booked_count, active_refs)
		VALUES ($1, $2, $3, $4, $5, $6, 0, 0)
		RETURNING created_at
	`
	if err := s.db.QueryRow(ctx, query,
		slot.ID,
		slot.OrgID,
		slot.ResourceID,
		slot.StartTime,
		slot.EndTime,
		slot.MaxCapacity,
	).Scan(&slot.CreatedAt); err != nil {
		return fmt.Errorf("ledger: insert slot: %w", err)
	}
	slot.BookedCount = 0
	return nil
}

// Get fetches a slot scoped to the org.
func (s *PostgresStore) Get(ctx context.Context, orgID string, id uuid.UUID) (*Slot, error) {
	query := `
		SELECT id, org_id, resource_id, start_time, end_time, max_capacity, booked_count, active_refs, created_at
		FROM slots
		WHERE id = $1 AND org_id = $2
	`
	var slot Slot
	if err := s.db.QueryRow(ctx, query, id, orgID).Scan(
		&slot.ID,
		&slot.OrgID,
		&slot.ResourceID,
		&slot.StartTime,
		&slot.EndTime,
		&slot.MaxCapacity,
		&slot.BookedCount,
		&slot.ActiveRefs,
		&slot.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("ledger: select slot: %w", err)
	}
	return &slot, nil
}

// Reserve performs the conditional increment. When the update matches no row
// a follow-up read distinguishes missing, expired and full.
func (s *PostgresStore) Reserve(ctx context.Context, orgID string, id uuid.UUID, now time.Time) (int, error) {
	query := `
		UPDATE slots
		SET booked_count = booked_count + 1, active_refs = active_refs + 1
		WHERE id = $1 AND org_id = $2 AND booked_count < max_capacity AND end_time > $3
		RETURNING booked_count
	`
	var position int
	err := s.db.QueryRow(ctx, query, id, orgID, now).Scan(&position)
	if err == nil {
		return position, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("ledger: reserve slot: %w", err)
	}

	slot, getErr := s.Get(ctx, orgID, id)
	if getErr != nil {
		return 0, getErr
	}
	if slot.Expired(now) {
		return 0, ErrSlotExpired
	}
	return 0, ErrSlotFull
}

// Release decrements booked_count and active_refs, floored at zero by the
// WHERE clause and GREATEST.
func (s *PostgresStore) Release(ctx context.Context, orgID string, id uuid.UUID) error {
	query := `
		UPDATE slots
		SET booked_count = booked_count - 1, active_refs = GREATEST(active_refs - 1, 0)
		WHERE id = $1 AND org_id = $2 AND booked_count > 0
	`
	ct, err := s.db.Exec(ctx, query, id, orgID)
	if err != nil {
		return fmt.Errorf("ledger: release slot: %w", err)
	}
	if ct.RowsAffected() == 0 {
		// already at zero, or the slot is gone
		if _, err := s.Get(ctx, orgID, id); err != nil {
			return err
		}
	}
	return nil
}

// Forfeit decrements booked_count only; the appointment keeps its reference.
func (s *PostgresStore) Forfeit(ctx context.Context, orgID string, id uuid.UUID) error {
	query := `
		UPDATE slots
		SET booked_count = booked_count - 1
		WHERE id = $1 AND org_id = $2 AND booked_count > 0
	`
	ct, err := s.db.Exec(ctx, query, id, orgID)
	if err != nil {
		return fmt.Errorf("ledger: forfeit slot: %w", err)
	}
	if ct.RowsAffected() == 0 {
		if _, err := s.Get(ctx, orgID, id); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a slot no non-cancelled appointment references.
func (s *PostgresStore) Delete(ctx context.Context, orgID string, id uuid.UUID) error {
	query := `DELETE FROM slots WHERE id = $1 AND org_id = $2 AND booked_count = 0 AND active_refs = 0`
	ct, err := s.db.Exec(ctx, query, id, orgID)
	if err != nil {
		return fmt.Errorf("ledger: delete slot: %w", err)
	}
	if ct.RowsAffected() == 0 {
		if _, err := s.Get(ctx, orgID, id); err != nil {
			return err
		}
		return ErrSlotInUse
	}
	return nil
}

// UpdateCapacity resizes a slot no non-cancelled appointment references.
func (s *PostgresStore) UpdateCapacity(ctx context.Context, orgID string, id uuid.UUID, capacity int) error {
	query := `
		UPDATE slots
		SET max_capacity = $3
		WHERE id = $1 AND org_id = $2 AND booked_count = 0 AND active_refs = 0
	`
	ct, err := s.db.Exec(ctx, query, id, orgID, capacity)
	if err != nil {
		return fmt.Errorf("ledger: update slot capacity: %w", err)
	}
	if ct.RowsAffected() == 0 {
		if _, err := s.Get(ctx, orgID, id); err != nil {
			return err
		}
		return ErrSlotInUse
	}
	return nil
}

// HasActiveFuture reports whether the resource owns future slots with bookings.
func (s *PostgresStore) HasActiveFuture(ctx context.Context, orgID string, resourceID uuid.UUID, now time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM slots
			WHERE org_id = $1 AND resource_id = $2 AND end_time > $3 AND booked_count > 0
		)
	`
	var exists bool
	if err := s.db.QueryRow(ctx, query, orgID, resourceID, now).Scan(&exists); err != nil {
		return false, fmt.Errorf("ledger: check active future slots: %w", err)
	}
	return exists, nil
}
