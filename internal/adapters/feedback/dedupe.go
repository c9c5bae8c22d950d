package feedback

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Deduper records seen feedback event IDs so a retried submission
// adjusts preferences at most once.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id uuid.UUID) bool

	// Unrecord removes an ID, allowing the event to be retried. Used when
	// an event was recorded but could not be handed to a worker.
	Unrecord(ctx context.Context, id uuid.UUID)

	Size() int64
}

// inMemoryDeduper keeps a bounded set of recent IDs. When full, the
// oldest recorded ID is evicted; old enough duplicates are harmless
// because the catalog insert is idempotent anyway.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[uuid.UUID]struct{}
	order   []uuid.UUID
	start   int
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a bounded in-memory deduper.
func NewInMemoryDeduper(maxSize int) Deduper {
	if maxSize <= 0 {
		maxSize = 50000
	}
	return &inMemoryDeduper{
		seen:    make(map[uuid.UUID]struct{}, maxSize),
		order:   make([]uuid.UUID, 0, maxSize),
		maxSize: maxSize,
	}
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[id] = struct{}{}
	d.order = append(d.order, id)
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; !ok {
		return
	}
	delete(d.seen, id)
	d.size.Add(-1)
}

// evictOldest drops the oldest still-recorded ID. Must hold d.mu.
func (d *inMemoryDeduper) evictOldest() {
	for d.start < len(d.order) {
		id := d.order[d.start]
		d.start++
		if _, ok := d.seen[id]; ok {
			delete(d.seen, id)
			d.size.Add(-1)
			break
		}
	}
	// Compact once the dead prefix dominates.
	if d.start > d.maxSize {
		d.order = append(d.order[:0], d.order[d.start:]...)
		d.start = 0
	}
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
