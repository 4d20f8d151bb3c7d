package allocator

import (
	"context"
	"testing"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestPostgresCounterNext(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	counter := NewPostgresCounter(mock)
	key := CounterKey{OrgID: "org-1", ServiceID: uuid.New(), Day: "2026-08-31"}

	mock.ExpectQuery("INSERT INTO central_counters").
		WithArgs(key.OrgID, key.ServiceID, key.Day).
		WillReturnRows(pgxmock.NewRows([]string{"next_number"}).AddRow(int64(7)))

	got, err := counter.Next(context.Background(), key)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got != 7 {
		t.Errorf("next = %d, want 7", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresCounterCompensate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	counter := NewPostgresCounter(mock)
	key := CounterKey{OrgID: "org-1", ServiceID: uuid.New(), Day: "2026-08-31"}

	// decrementing an exhausted counter matches zero rows and is not an error
	mock.ExpectExec("UPDATE central_counters").
		WithArgs(key.OrgID, key.ServiceID, key.Day).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := counter.Compensate(context.Background(), key); err != nil {
		t.Fatalf("compensate: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
