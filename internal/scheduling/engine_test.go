package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queueline/queueline/internal/allocator"
	"github.com/queueline/queueline/internal/appointment"
	"github.com/queueline/queueline/internal/catalog"
	"github.com/queueline/queueline/internal/ledger"
	"github.com/queueline/queueline/pkg/logging"
)

const testOrg = "org-west"

type engineFixture struct {
	engine *Engine
	cat    *catalog.InMemoryRepository
	slots  *ledger.InMemoryStore
	ledger *ledger.Ledger
	appts  *appointment.InMemoryRepository

	perResource *catalog.Service
	central     *catalog.Service
	resource    *catalog.Resource
	slot        *ledger.Slot
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	ctx := context.Background()
	logger := logging.New("error")

	cat := catalog.NewInMemoryRepository()
	slots := ledger.NewInMemoryStore()
	led := ledger.NewLedger(slots, cat, cat, logger)
	alloc := allocator.New(cat, led, allocator.NewMemoryCounter(), allocator.NewMemoryJournal(), logger, nil)
	appts := appointment.NewInMemoryRepository()

	perResource := &catalog.Service{
		OrgID:                testOrg,
		Name:                 "Consultation",
		EstimatedServiceTime: 30,
		QueueScope:           catalog.ScopePerResource,
	}
	require.NoError(t, cat.CreateService(ctx, perResource))

	central := &catalog.Service{
		OrgID:                testOrg,
		Name:                 "Walk-in Triage",
		EstimatedServiceTime: 10,
		QueueScope:           catalog.ScopeCentral,
	}
	require.NoError(t, cat.CreateService(ctx, central))

	resource := &catalog.Resource{
		OrgID:              testOrg,
		Name:               "Room A",
		Type:               catalog.ResourceRoom,
		ConcurrentCapacity: 2,
	}
	require.NoError(t, cat.CreateResource(ctx, resource))
	require.NoError(t, cat.LinkResourceToServices(ctx, testOrg, resource.ID, []uuid.UUID{perResource.ID}))

	engine := NewEngine(cat, led, alloc, appts, logger, nil)

	slot, err := engine.CreateSlot(ctx, ledger.CreateSlotInput{
		OrgID:      testOrg,
		ResourceID: resource.ID,
		ServiceID:  perResource.ID,
		StartTime:  time.Now().UTC().Add(2 * time.Hour),
		Capacity:   2,
	})
	require.NoError(t, err)

	return &engineFixture{
		engine:      engine,
		cat:         cat,
		slots:       slots,
		ledger:      led,
		appts:       appts,
		perResource: perResource,
		central:     central,
		resource:    resource,
		slot:        slot,
	}
}

func (f *engineFixture) book(t *testing.T, svc *catalog.Service) (*appointment.Appointment, error) {
	t.Helper()
	req := BookingRequest{OrgID: testOrg, ServiceID: svc.ID}
	if svc.QueueScope == catalog.ScopePerResource {
		req.ResourceID = &f.resource.ID
		req.SlotID = &f.slot.ID
	}
	return f.engine.BookAppointment(context.Background(), req)
}

func TestBookPerResourceFillsAndReleasesCapacity(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	first, err := f.book(t, f.perResource)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.QueueNumber)
	assert.Equal(t, appointment.StatusBooked, first.Status)
	require.NotNil(t, first.StartTime)
	assert.Equal(t, f.slot.StartTime, *first.StartTime)
	assert.Equal(t, "Consultation", first.ServiceName)

	second, err := f.book(t, f.perResource)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.QueueNumber)

	_, err = f.book(t, f.perResource)
	require.ErrorIs(t, err, ledger.ErrSlotFull)

	require.NoError(t, f.engine.CancelAppointment(ctx, testOrg, first.ID, appointment.ActorUser))

	slot, err := f.ledger.Get(ctx, testOrg, f.slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, slot.BookedCount)

	cancelled, err := f.engine.GetAppointment(ctx, testOrg, first.ID)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCancelled, cancelled.Status)
	assert.Equal(t, appointment.ActorUser, cancelled.CancelledBy)

	// the freed unit is reassigned at the current occupancy position
	fourth, err := f.book(t, f.perResource)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fourth.QueueNumber)
}

func TestBookCentralIssuesSequentialNumbers(t *testing.T) {
	f := newEngineFixture(t)

	for want := int64(1); want <= 3; want++ {
		appt, err := f.book(t, f.central)
		require.NoError(t, err)
		assert.Equal(t, want, appt.QueueNumber)
		assert.Equal(t, appointment.StatusPending, appt.Status)
		assert.Nil(t, appt.SlotID)
		assert.Nil(t, appt.ResourceID)
		assert.Nil(t, appt.StartTime)
	}
}

func TestCancelTwiceRejectsSecond(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	appt, err := f.book(t, f.perResource)
	require.NoError(t, err)

	require.NoError(t, f.engine.CancelAppointment(ctx, testOrg, appt.ID, appointment.ActorUser))
	err = f.engine.CancelAppointment(ctx, testOrg, appt.ID, appointment.ActorAdmin)
	require.ErrorIs(t, err, appointment.ErrInvalidTransition)

	// capacity was released exactly once
	slot, err := f.ledger.Get(ctx, testOrg, f.slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, slot.BookedCount)
}

func TestTransitionCompletedKeepsCount(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	appt, err := f.book(t, f.perResource)
	require.NoError(t, err)
	require.NoError(t, f.engine.TransitionStatus(ctx, testOrg, appt.ID, appointment.StatusConfirmed, appointment.ActorUser))
	require.NoError(t, f.engine.TransitionStatus(ctx, testOrg, appt.ID, appointment.StatusCompleted, appointment.ActorSystem))

	slot, err := f.ledger.Get(ctx, testOrg, f.slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, slot.BookedCount)
}

func TestTransitionNoShowGatedAndReleases(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	appt, err := f.book(t, f.perResource)
	require.NoError(t, err)

	// slot window is in the future, so no_show is premature
	err = f.engine.TransitionStatus(ctx, testOrg, appt.ID, appointment.StatusNoShow, appointment.ActorSystem)
	require.ErrorIs(t, err, appointment.ErrInvalidTransition)

	// rewrite the window into the past and retry
	past := time.Now().UTC().Add(-time.Hour)
	stored, err := f.appts.Get(ctx, testOrg, appt.ID)
	require.NoError(t, err)
	stored.EndTime = &past
	require.NoError(t, f.appts.Create(ctx, stored))

	require.NoError(t, f.engine.TransitionStatus(ctx, testOrg, appt.ID, appointment.StatusNoShow, appointment.ActorSystem))

	slot, err := f.ledger.Get(ctx, testOrg, f.slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, slot.BookedCount)

	// the no_show appointment still references the slot, so its capacity
	// stays frozen even though the occupancy came back
	assert.Equal(t, 1, slot.ActiveRefs)
	err = f.ledger.UpdateCapacity(ctx, testOrg, f.slot.ID, 1)
	require.ErrorIs(t, err, ledger.ErrSlotInUse)
}

func TestBookRejectsSlotOwnedByOtherResource(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	other := &catalog.Resource{
		OrgID:              testOrg,
		Name:               "Room B",
		Type:               catalog.ResourceRoom,
		ConcurrentCapacity: 2,
	}
	require.NoError(t, f.cat.CreateResource(ctx, other))

	otherSlot, err := f.engine.CreateSlot(ctx, ledger.CreateSlotInput{
		OrgID:           testOrg,
		ResourceID:      other.ID,
		StartTime:       time.Now().UTC().Add(2 * time.Hour),
		DurationMinutes: 30,
		Capacity:        2,
	})
	require.NoError(t, err)

	// linked resource, but a slot owned by an unlinked one
	_, err = f.engine.BookAppointment(ctx, BookingRequest{
		OrgID:      testOrg,
		ServiceID:  f.perResource.ID,
		ResourceID: &f.resource.ID,
		SlotID:     &otherSlot.ID,
	})
	require.ErrorIs(t, err, catalog.ErrInvalidAssociation)

	slot, err := f.ledger.Get(ctx, testOrg, otherSlot.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, slot.BookedCount)
}

func TestCancelRejectsSystemActor(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	appt, err := f.book(t, f.perResource)
	require.NoError(t, err)

	err = f.engine.CancelAppointment(ctx, testOrg, appt.ID, appointment.ActorSystem)
	require.ErrorIs(t, err, appointment.ErrInvalidActor)

	// nothing moved
	stored, err := f.engine.GetAppointment(ctx, testOrg, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusBooked, stored.Status)

	slot, err := f.ledger.Get(ctx, testOrg, f.slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, slot.BookedCount)
}

type failingAppts struct {
	appointment.Repository
}

func (f *failingAppts) Create(ctx context.Context, appt *appointment.Appointment) error {
	return errors.New("insert failed")
}

func TestBookCompensatesWhenCreateFails(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	broken := NewEngine(f.cat, f.ledger, mustAllocator(f), &failingAppts{Repository: f.appts}, logging.New("error"), nil)
	_, err := broken.BookAppointment(ctx, BookingRequest{
		OrgID:      testOrg,
		ServiceID:  f.perResource.ID,
		ResourceID: &f.resource.ID,
		SlotID:     &f.slot.ID,
	})
	require.Error(t, err)

	// the reserved unit was given back
	slot, err := f.ledger.Get(ctx, testOrg, f.slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, slot.BookedCount)
}

func mustAllocator(f *engineFixture) *allocator.Allocator {
	return allocator.New(f.cat, f.ledger, allocator.NewMemoryCounter(), allocator.NewMemoryJournal(), logging.New("error"), nil)
}

func TestDeleteResourceGuardedByFutureBookings(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	appt, err := f.book(t, f.perResource)
	require.NoError(t, err)

	err = f.engine.DeleteResource(ctx, testOrg, f.resource.ID)
	require.ErrorIs(t, err, catalog.ErrResourceInUse)

	require.NoError(t, f.engine.CancelAppointment(ctx, testOrg, appt.ID, appointment.ActorUser))
	require.NoError(t, f.engine.DeleteSlot(ctx, testOrg, f.slot.ID))
	require.NoError(t, f.engine.DeleteResource(ctx, testOrg, f.resource.ID))
}

func TestBookUnknownService(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.BookAppointment(context.Background(), BookingRequest{
		OrgID:     testOrg,
		ServiceID: uuid.New(),
	})
	require.ErrorIs(t, err, catalog.ErrServiceNotFound)
}
