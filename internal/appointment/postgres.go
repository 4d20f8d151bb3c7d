package appointment

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
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by a pgx pool (or a mock in tests).
func NewPostgresRepository(db db) *PostgresRepository {
	if db == nil {
		panic("appointment: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const apptColumns = `id, org_id, user_id, service_id, service_name, service_duration,
	scope, resource_id, slot_id, queue_number, status, cancelled_by, start_time, end_time, created_at`

// Create inserts a new appointment row.
func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment) error {
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	query := `
		INSERT INTO appointments (
			id, org_id, user_id, service_id, service_name, service_duration,
			scope, resource_id, slot_id, queue_number, status, start_time, end_time
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at
	`
	if err := r.db.QueryRow(ctx, query,
		appt.ID,
		appt.OrgID,
		appt.UserID,
		appt.ServiceID,
		appt.ServiceName,
		appt.ServiceDuration,
		string(appt.Scope),
		appt.ResourceID,
		appt.SlotID,
		appt.QueueNumber,
		string(appt.Status),
		appt.StartTime,
		appt.EndTime,
	).Scan(&appt.CreatedAt); err != nil {
		return fmt.Errorf("appointment: insert: %w", err)
	}
	return nil
}

// Get fetches an appointment scoped to the org.
func (r *PostgresRepository) Get(ctx context.Context, orgID string, id uuid.UUID) (*Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments WHERE id = $1 AND org_id = $2`
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointment: select: %w", err)
	}
	return appt, nil
}

// TransitionStatus performs the conditional status swap; the WHERE clause on
// the old status makes concurrent duplicate transitions lose cleanly.
func (r *PostgresRepository) TransitionStatus(ctx context.Context, orgID string, id uuid.UUID, from, to Status, cancelledBy Actor) (bool, error) {
	query := `
		UPDATE appointments
		SET status = $4, cancelled_by = NULLIF($5, '')
		WHERE id = $1 AND org_id = $2 AND status = $3
	`
	ct, err := r.db.Exec(ctx, query, id, orgID, string(from), string(to), string(cancelledBy))
	if err != nil {
		return false, fmt.Errorf("appointment: transition status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		if _, err := r.Get(ctx, orgID, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// ListExpired returns booked/confirmed appointments past their end time.
func (r *PostgresRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]Appointment, error) {
	query := `
		SELECT ` + apptColumns + `
		FROM appointments
		WHERE status IN ('booked', 'confirmed') AND end_time IS NOT NULL AND end_time < $1
		ORDER BY end_time
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("appointment: list expired: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointment: scan expired: %w", err)
		}
		out = append(out, *appt)
	}
	return out, rows.Err()
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var appt Appointment
	var cancelledBy *string
	if err := row.Scan(
		&appt.ID,
		&appt.OrgID,
		&appt.UserID,
		&appt.ServiceID,
		&appt.ServiceName,
		&appt.ServiceDuration,
		&appt.Scope,
		&appt.ResourceID,
		&appt.SlotID,
		&appt.QueueNumber,
		&appt.Status,
		&cancelledBy,
		&appt.StartTime,
		&appt.EndTime,
		&appt.CreatedAt,
	); err != nil {
		return nil, err
	}
	if cancelledBy != nil {
		appt.CancelledBy = Actor(*cancelledBy)
	}
	return &appt, nil
}
