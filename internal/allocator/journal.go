package allocator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EntryKind names the compensation action a journal entry carries.
type EntryKind string

const (
	// KindReleaseSlot returns one unit of slot capacity and the reference.
	KindReleaseSlot EntryKind = "release_slot"
	// KindForfeitSlot returns one unit of slot capacity only; the no_show
	// appointment keeps referencing the slot.
	KindForfeitSlot EntryKind = "forfeit_slot"
	// KindDecrementCounter walks a central counter back one step.
	KindDecrementCounter EntryKind = "decrement_counter"
)

// Entry is a pending compensation. Entries are written when the immediate
// release/decrement after a failed booking write itself fails, and are
// retried until they stick; otherwise capacity leaks.
type Entry struct {
	ID        uuid.UUID
	OrgID     string
	Kind      EntryKind
	SlotID    *uuid.UUID
	ServiceID *uuid.UUID
	Day       string
	Attempts  int
	CreatedAt time.Time
}

// JournalStore persists compensation entries for reliable retry.
type JournalStore interface {
	Insert(ctx context.Context, entry *Entry) error
	FetchPending(ctx context.Context, limit int) ([]Entry, error)

	// MarkDone retires the entry; false when it was already retired, so a
	// racing second retrier does not double-release.
	MarkDone(ctx context.Context, id uuid.UUID) (bool, error)
	RecordAttempt(ctx context.Context, id uuid.UUID) error
}

// MemoryJournal keeps pending compensations in process memory.
type MemoryJournal struct {
	mu      sync.Mutex
	pending map[uuid.UUID]*Entry
}

// NewMemoryJournal creates an empty journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{pending: make(map[uuid.UUID]*Entry)}
}

// Insert stores a pending entry.
func (j *MemoryJournal) Insert(ctx context.Context, entry *Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	cp := *entry
	j.pending[entry.ID] = &cp
	return nil
}

// FetchPending returns up to limit pending entries.
func (j *MemoryJournal) FetchPending(ctx context.Context, limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var out []Entry
	for _, entry := range j.pending {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, *entry)
	}
	return out, nil
}

// MarkDone removes the entry.
func (j *MemoryJournal) MarkDone(ctx context.Context, id uuid.UUID) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.pending[id]; !ok {
		return false, nil
	}
	delete(j.pending, id)
	return true, nil
}

// RecordAttempt bumps the attempt count.
func (j *MemoryJournal) RecordAttempt(ctx context.Context, id uuid.UUID) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if entry, ok := j.pending[id]; ok {
		entry.Attempts++
	}
	return nil
}
