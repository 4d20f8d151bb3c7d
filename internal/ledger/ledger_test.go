package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/queueline/queueline/internal/catalog"
	"github.com/queueline/queueline/pkg/logging"
)

func newTestLedger(t *testing.T) (*Ledger, *catalog.InMemoryRepository, *catalog.Service, *catalog.Resource) {
	t.Helper()
	ctx := context.Background()
	cat := catalog.NewInMemoryRepository()

	svc := &catalog.Service{
		OrgID:                "org-1",
		Name:                 "Checkup",
		EstimatedServiceTime: 30,
		QueueScope:           catalog.ScopePerResource,
	}
	if err := cat.CreateService(ctx, svc); err != nil {
		t.Fatalf("create service: %v", err)
	}
	res := &catalog.Resource{
		OrgID:              "org-1",
		Name:               "Room A",
		Type:               catalog.ResourceRoom,
		ConcurrentCapacity: 2,
	}
	if err := cat.CreateResource(ctx, res); err != nil {
		t.Fatalf("create resource: %v", err)
	}

	return NewLedger(NewInMemoryStore(), cat, cat, logging.Default()), cat, svc, res
}

func TestCreateSlotRoundsToGrid(t *testing.T) {
	l, _, _, res := newTestLedger(t)

	start := time.Date(2026, 9, 1, 9, 3, 0, 0, time.UTC)
	slot, err := l.CreateSlot(context.Background(), CreateSlotInput{
		OrgID:           "org-1",
		ResourceID:      res.ID,
		StartTime:       start,
		DurationMinutes: 30,
		Capacity:        2,
	})
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}

	want := time.Date(2026, 9, 1, 9, 5, 0, 0, time.UTC)
	if !slot.StartTime.Equal(want) {
		t.Errorf("expected start rounded to %s, got %s", want, slot.StartTime)
	}
	if !slot.EndTime.Equal(want.Add(30 * time.Minute)) {
		t.Errorf("expected end %s, got %s", want.Add(30*time.Minute), slot.EndTime)
	}
	if slot.BookedCount != 0 {
		t.Errorf("new slot should have zero bookings, got %d", slot.BookedCount)
	}
}

func TestCreateSlotDurationDefaultsFromService(t *testing.T) {
	l, _, svc, res := newTestLedger(t)

	slot, err := l.CreateSlot(context.Background(), CreateSlotInput{
		OrgID:      "org-1",
		ResourceID: res.ID,
		ServiceID:  svc.ID,
		StartTime:  time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		Capacity:   1,
	})
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}
	if got := slot.EndTime.Sub(slot.StartTime); got != 30*time.Minute {
		t.Errorf("expected 30m window from service estimate, got %s", got)
	}
}

func TestCreateSlotCapacityBound(t *testing.T) {
	l, _, _, res := newTestLedger(t)
	ctx := context.Background()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	_, err := l.CreateSlot(ctx, CreateSlotInput{
		OrgID:           "org-1",
		ResourceID:      res.ID,
		StartTime:       start,
		DurationMinutes: 30,
		Capacity:        res.ConcurrentCapacity + 1,
	})
	if !errors.Is(err, ErrCapacityExceedsResource) {
		t.Fatalf("expected ErrCapacityExceedsResource, got %v", err)
	}

	if _, err := l.CreateSlot(ctx, CreateSlotInput{
		OrgID:           "org-1",
		ResourceID:      res.ID,
		StartTime:       start,
		DurationMinutes: 30,
		Capacity:        res.ConcurrentCapacity,
	}); err != nil {
		t.Fatalf("capacity equal to resource limit should succeed, got %v", err)
	}
}

func TestCreateSlotValidation(t *testing.T) {
	l, _, _, res := newTestLedger(t)
	ctx := context.Background()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	if _, err := l.CreateSlot(ctx, CreateSlotInput{OrgID: "org-1", ResourceID: res.ID, DurationMinutes: 30, Capacity: 1}); !errors.Is(err, ErrInvalidStartTime) {
		t.Errorf("expected ErrInvalidStartTime, got %v", err)
	}
	if _, err := l.CreateSlot(ctx, CreateSlotInput{OrgID: "org-1", ResourceID: res.ID, StartTime: start, DurationMinutes: 30}); !errors.Is(err, ErrInvalidSlotCapacity) {
		t.Errorf("expected ErrInvalidSlotCapacity, got %v", err)
	}
	if _, err := l.CreateSlot(ctx, CreateSlotInput{OrgID: "org-1", ResourceID: res.ID, StartTime: start, Capacity: 1}); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("expected ErrInvalidDuration without service, got %v", err)
	}
	if _, err := l.CreateSlot(ctx, CreateSlotInput{OrgID: "org-1", ResourceID: uuid.New(), StartTime: start, DurationMinutes: 30, Capacity: 1}); !errors.Is(err, catalog.ErrResourceNotFound) {
		t.Errorf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestDeleteSlotInUse(t *testing.T) {
	l, _, _, res := newTestLedger(t)
	ctx := context.Background()

	slot, err := l.CreateSlot(ctx, CreateSlotInput{
		OrgID:           "org-1",
		ResourceID:      res.ID,
		StartTime:       time.Now().UTC().Add(time.Hour),
		DurationMinutes: 30,
		Capacity:        1,
	})
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}

	if _, err := l.Reserve(ctx, "org-1", slot.ID, time.Now().UTC()); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := l.DeleteSlot(ctx, "org-1", slot.ID); !errors.Is(err, ErrSlotInUse) {
		t.Fatalf("expected ErrSlotInUse, got %v", err)
	}

	if err := l.Release(ctx, "org-1", slot.ID); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := l.DeleteSlot(ctx, "org-1", slot.ID); err != nil {
		t.Fatalf("delete after release: %v", err)
	}
}

func TestUpdateCapacityGuards(t *testing.T) {
	l, _, _, res := newTestLedger(t)
	ctx := context.Background()

	slot, err := l.CreateSlot(ctx, CreateSlotInput{
		OrgID:           "org-1",
		ResourceID:      res.ID,
		StartTime:       time.Now().UTC().Add(time.Hour),
		DurationMinutes: 30,
		Capacity:        1,
	})
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}

	if err := l.UpdateCapacity(ctx, "org-1", slot.ID, res.ConcurrentCapacity+1); !errors.Is(err, ErrCapacityExceedsResource) {
		t.Errorf("expected ErrCapacityExceedsResource, got %v", err)
	}
	if err := l.UpdateCapacity(ctx, "org-1", slot.ID, 2); err != nil {
		t.Errorf("resize of empty slot should succeed, got %v", err)
	}

	if _, err := l.Reserve(ctx, "org-1", slot.ID, time.Now().UTC()); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := l.UpdateCapacity(ctx, "org-1", slot.ID, 1); !errors.Is(err, ErrSlotInUse) {
		t.Errorf("expected ErrSlotInUse once booked, got %v", err)
	}
}

func TestUpdateCapacityAfterForfeitAndRelease(t *testing.T) {
	l, _, _, res := newTestLedger(t)
	ctx := context.Background()

	slot, err := l.CreateSlot(ctx, CreateSlotInput{
		OrgID:           "org-1",
		ResourceID:      res.ID,
		StartTime:       time.Now().UTC().Add(time.Hour),
		DurationMinutes: 30,
		Capacity:        2,
	})
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}

	// a forfeited unit frees capacity but its appointment still references
	// the slot, so max_capacity stays frozen
	if _, err := l.Reserve(ctx, "org-1", slot.ID, time.Now().UTC()); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := l.Forfeit(ctx, "org-1", slot.ID); err != nil {
		t.Fatalf("forfeit: %v", err)
	}
	if err := l.UpdateCapacity(ctx, "org-1", slot.ID, 1); !errors.Is(err, ErrSlotInUse) {
		t.Errorf("expected ErrSlotInUse after forfeit, got %v", err)
	}

	// a fully released slot resizes again
	other, err := l.CreateSlot(ctx, CreateSlotInput{
		OrgID:           "org-1",
		ResourceID:      res.ID,
		StartTime:       time.Now().UTC().Add(3 * time.Hour),
		DurationMinutes: 30,
		Capacity:        2,
	})
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}
	if _, err := l.Reserve(ctx, "org-1", other.ID, time.Now().UTC()); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := l.Release(ctx, "org-1", other.ID); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := l.UpdateCapacity(ctx, "org-1", other.ID, 1); err != nil {
		t.Errorf("resize after full release should succeed, got %v", err)
	}
}
