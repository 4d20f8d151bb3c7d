package allocator

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresCounter issues ticket numbers with a single upsert statement, so
// the read-increment-write is one atomic round trip.
type PostgresCounter struct {
	db db
}

// NewPostgresCounter creates a counter backed by a pgx pool (or a mock in tests).
func NewPostgresCounter(db db) *PostgresCounter {
	if db == nil {
		panic("allocator: pgx pool required")
	}
	return &PostgresCounter{db: db}
}

// Next upserts the (org, service, day) row and returns the new sequence.
func (c *PostgresCounter) Next(ctx context.Context, key CounterKey) (int64, error) {
	query := `
		INSERT INTO central_counters (org_id, service_id, day, next_number)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (org_id, service_id, day)
		DO UPDATE SET next_number = central_counters.next_number + 1
		RETURNING next_number
	`
	var next int64
	if err := c.db.QueryRow(ctx, query, key.OrgID, key.ServiceID, key.Day).Scan(&next); err != nil {
		return 0, fmt.Errorf("allocator: next ticket number: %w", err)
	}
	return next, nil
}

// Compensate walks the sequence back one step, floored at zero.
func (c *PostgresCounter) Compensate(ctx context.Context, key CounterKey) error {
	query := `
		UPDATE central_counters
		SET next_number = next_number - 1
		WHERE org_id = $1 AND service_id = $2 AND day = $3 AND next_number > 0
	`
	if _, err := c.db.Exec(ctx, query, key.OrgID, key.ServiceID, key.Day); err != nil {
		return fmt.Errorf("allocator: compensate ticket number: %w", err)
	}
	return nil
}
