package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestPostgresReserveSuccess(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := NewPostgresStore(mock)
	slotID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("UPDATE slots").
		WithArgs(slotID, "org-1", now).
		WillReturnRows(pgxmock.NewRows([]string{"booked_count"}).AddRow(2))

	pos, err := store.Reserve(context.Background(), "org-1", slotID, now)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if pos != 2 {
		t.Errorf("position = %d, want 2", pos)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresReserveFull(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := NewPostgresStore(mock)
	slotID := uuid.New()
	resourceID := uuid.New()
	now := time.Now().UTC()

	// conditional update matches no row; the follow-up read shows a live,
	// fully booked slot
	mock.ExpectQuery("UPDATE slots").
		WithArgs(slotID, "org-1", now).
		WillReturnRows(pgxmock.NewRows([]string{"booked_count"}))
	mock.ExpectQuery("SELECT id, org_id, resource_id").
		WithArgs(slotID, "org-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "org_id", "resource_id", "start_time", "end_time", "max_capacity", "booked_count", "active_refs", "created_at",
		}).AddRow(slotID, "org-1", resourceID, now.Add(time.Hour), now.Add(2*time.Hour), 2, 2, 2, now))

	_, err = store.Reserve(context.Background(), "org-1", slotID, now)
	if !errors.Is(err, ErrSlotFull) {
		t.Fatalf("expected ErrSlotFull, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresDeleteSlotInUse(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := NewPostgresStore(mock)
	slotID := uuid.New()
	resourceID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectExec("DELETE FROM slots").
		WithArgs(slotID, "org-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery("SELECT id, org_id, resource_id").
		WithArgs(slotID, "org-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "org_id", "resource_id", "start_time", "end_time", "max_capacity", "booked_count", "active_refs", "created_at",
		}).AddRow(slotID, "org-1", resourceID, now, now.Add(time.Hour), 2, 1, 1, now))

	if err := store.Delete(context.Background(), "org-1", slotID); !errors.Is(err, ErrSlotInUse) {
		t.Fatalf("expected ErrSlotInUse, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
