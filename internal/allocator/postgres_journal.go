package allocator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type journalDB interface {
	db
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresJournal persists compensation entries so a crashed instance's
// pending releases survive restarts.
type PostgresJournal struct {
	db journalDB
}

// NewPostgresJournal creates a journal backed by a pgx pool (or a mock in tests).
func NewPostgresJournal(db journalDB) *PostgresJournal {
	if db == nil {
		panic("allocator: pgx pool required")
	}
	return &PostgresJournal{db: db}
}

// Insert stores a pending entry.
func (j *PostgresJournal) Insert(ctx context.Context, entry *Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	query := `
		INSERT INTO compensation_journal (id, org_id, kind, slot_id, service_id, day)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING created_at
	`
	if err := j.db.QueryRow(ctx, query,
		entry.ID,
		entry.OrgID,
		string(entry.Kind),
		entry.SlotID,
		entry.ServiceID,
		entry.Day,
	).Scan(&entry.CreatedAt); err != nil {
		return fmt.Errorf("allocator: insert journal entry: %w", err)
	}
	return nil
}

// FetchPending returns unretired entries, oldest first.
func (j *PostgresJournal) FetchPending(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, org_id, kind, slot_id, service_id, COALESCE(day, ''), attempts, created_at
		FROM compensation_journal
		WHERE done_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := j.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("allocator: fetch pending journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(
			&entry.ID,
			&entry.OrgID,
			&entry.Kind,
			&entry.SlotID,
			&entry.ServiceID,
			&entry.Day,
			&entry.Attempts,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("allocator: scan journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// MarkDone retires the entry; the done_at guard keeps a second retrier from
// double-releasing.
func (j *PostgresJournal) MarkDone(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE compensation_journal
		SET done_at = now()
		WHERE id = $1 AND done_at IS NULL
	`
	ct, err := j.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("allocator: mark journal done: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

// RecordAttempt bumps the attempt count.
func (j *PostgresJournal) RecordAttempt(ctx context.Context, id uuid.UUID) error {
	if _, err := j.db.Exec(ctx,
		`UPDATE compensation_journal SET attempts = attempts + 1 WHERE id = $1`, id,
	); err != nil {
		return fmt.Errorf("allocator: record journal attempt: %w", err)
	}
	return nil
}
