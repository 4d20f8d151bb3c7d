package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore keeps slots in process memory with a single mutex
// serializing booked_count mutations.
type InMemoryStore struct {
	mu    sync.RWMutex
	slots map[uuid.UUID]*Slot
}

// NewInMemoryStore creates an empty in-memory slot store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{slots: make(map[uuid.UUID]*Slot)}
}

// Insert stores a new slot.
func (s *InMemoryStore) Insert(ctx context.Context, slot *Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now().UTC()
	}
	cp := *slot
	s.slots[slot.ID] = &cp
	return nil
}

// Get returns a copy of the slot scoped to the org.
func (s *InMemoryStore) Get(ctx context.Context, orgID string, id uuid.UUID) (*Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.slots[id]
	if !ok || slot.OrgID != orgID {
		return nil, ErrSlotNotFound
	}
	cp := *slot
	return &cp, nil
}

// Reserve increments booked_count under the store lock.
func (s *InMemoryStore) Reserve(ctx context.Context, orgID string, id uuid.UUID, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
	if !ok || slot.OrgID != orgID {
		return 0, ErrSlotNotFound
	}
	if slot.Expired(now) {
		return 0, ErrSlotExpired
	}
	if slot.BookedCount >= slot.MaxCapacity {
		return 0, ErrSlotFull
	}
	slot.BookedCount++
	slot.ActiveRefs++
	return slot.BookedCount, nil
}

// Release decrements booked_count and active_refs, floored at zero.
func (s *InMemoryStore) Release(ctx context.Context, orgID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
	if !ok || slot.OrgID != orgID {
		return ErrSlotNotFound
	}
	if slot.BookedCount > 0 {
		slot.BookedCount--
	}
	if slot.ActiveRefs > 0 {
		slot.ActiveRefs--
	}
	return nil
}

// Forfeit decrements booked_count only; the reference stays.
func (s *InMemoryStore) Forfeit(ctx context.Context, orgID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
	if !ok || slot.OrgID != orgID {
		return ErrSlotNotFound
	}
	if slot.BookedCount > 0 {
		slot.BookedCount--
	}
	return nil
}

// Delete removes a slot no non-cancelled appointment references.
func (s *InMemoryStore) Delete(ctx context.Context, orgID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
	if !ok || slot.OrgID != orgID {
		return ErrSlotNotFound
	}
	if slot.BookedCount > 0 || slot.ActiveRefs > 0 {
		return ErrSlotInUse
	}
	delete(s.slots, id)
	return nil
}

// UpdateCapacity resizes a slot no non-cancelled appointment references.
func (s *InMemoryStore) UpdateCapacity(ctx context.Context, orgID string, id uuid.UUID, capacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
	if !ok || slot.OrgID != orgID {
		return ErrSlotNotFound
	}
	if slot.BookedCount > 0 || slot.ActiveRefs > 0 {
		return ErrSlotInUse
	}
	slot.MaxCapacity = capacity
	return nil
}

// HasActiveFuture scans the resource's slots for future bookings.
func (s *InMemoryStore) HasActiveFuture(ctx context.Context, orgID string, resourceID uuid.UUID, now time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, slot := range s.slots {
		if slot.OrgID == orgID && slot.ResourceID == resourceID && slot.EndTime.After(now) && slot.BookedCount > 0 {
			return true, nil
		}
	}
	return false, nil
}
