package feedback

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/okian/garb/pkg/logger"
	"github.com/okian/garb/pkg/metrics"
)

const (
	defaultWorkerCount = 4
)

// Applier consumes one feedback event: it resolves the outfit, updates
// the preference profile, and persists the event.
type Applier interface {
	Apply(ctx context.Context, ev Event) error
}

// Pool fans feedback events out to a fixed set of workers. Events for
// one user always hash to the same worker, which keeps that user's
// updates in arrival order.
type Pool struct {
	queues  []*InMemoryQueue
	applier Applier
	deduper Deduper
	workers int
	qopts   []QueueOption

	wg   sync.WaitGroup
	once sync.Once
	log  logger.Logger
}

// PoolOption applies a configuration option to the Pool.
type PoolOption func(*Pool)

// WithWorkers sets the number of workers (and per-worker queues).
func WithWorkers(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithDeduper overrides the idempotency tracker.
func WithDeduper(d Deduper) PoolOption {
	return func(p *Pool) {
		if d != nil {
			p.deduper = d
		}
	}
}

// WithPoolQueueOptions configures each per-worker queue.
func WithPoolQueueOptions(opts ...QueueOption) PoolOption {
	return func(p *Pool) {
		p.qopts = opts
	}
}

// NewPool creates a feedback worker pool.
func NewPool(applier Applier, opts ...PoolOption) *Pool {
	p := &Pool{
		applier: applier,
		workers: defaultWorkerCount,
		deduper: NewInMemoryDeduper(0),
		log:     logger.Get().Named("feedback"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.queues = make([]*InMemoryQueue, p.workers)
	for i := range p.queues {
		p.queues[i] = NewInMemoryQueue(p.qopts...)
	}
	return p
}

// Start launches the workers. They run until ctx is canceled or the
// queues are closed via Shutdown.
func (p *Pool) Start(ctx context.Context) {
	for i, q := range p.queues {
		p.wg.Add(1)
		go func(idx int, q *InMemoryQueue) {
			defer p.wg.Done()
			p.run(ctx, idx, q)
		}(i, q)
	}
}

// Submit routes an event to its user's worker. Duplicates and a full
// queue are reported through the package sentinels.
func (p *Pool) Submit(ctx context.Context, ev Event) error {
	if p.deduper.SeenAndRecord(ctx, ev.ID) {
		p.log.Debug(ctx, "duplicate feedback dropped", logger.String("event_id", ev.ID.String()))
		return ErrDuplicate
	}

	q := p.queues[p.shard(ev.UserID)]
	if !q.Enqueue(ctx, ev) {
		// Give the caller a chance to retry the same event later.
		p.deduper.Unrecord(ctx, ev.ID)
		metrics.RecordFeedbackRejected()
		return ErrBacklogFull
	}
	return nil
}

// Shutdown closes the queues and waits for the workers to drain them.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.once.Do(func() {
		for _, q := range p.queues {
			_ = q.Close()
		}
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("feedback pool shutdown timed out: %w", ctx.Err())
	}
}

// Backlog reports queued events across all workers.
func (p *Pool) Backlog(ctx context.Context) int {
	total := 0
	for _, q := range p.queues {
		total += q.Len(ctx)
	}
	return total
}

func (p *Pool) run(ctx context.Context, idx int, q *InMemoryQueue) {
	log := p.log.Named("worker-" + strconv.Itoa(idx))
	for ev := range q.Dequeue(ctx) {
		if err := p.applier.Apply(ctx, ev); err != nil {
			log.Error(ctx, "feedback apply failed",
				logger.String("event_id", ev.ID.String()),
				logger.String("user_id", ev.UserID),
				logger.Error(err))
		}
	}
}

func (p *Pool) shard(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(p.workers))
}
