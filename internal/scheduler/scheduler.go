// Package scheduler runs registered jobs on daily and interval
// cadences. A job still in flight when its next slot arrives is
// skipped, not queued, and missed slots are never backfilled.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/garb/pkg/logger"
	"github.com/okian/garb/pkg/metrics"
)

const defaultTickInterval = time.Minute

// Job is a unit of scheduled work.
type Job func(ctx context.Context) error

type entry struct {
	name     string
	schedule Schedule
	job      Job

	inFlight atomic.Bool

	mu      sync.Mutex
	next    time.Time
	lastRun time.Time
	lastErr error
}

// Scheduler drives registered jobs from a single ticker loop.
type Scheduler struct {
	tick    time.Duration
	now     func() time.Time
	entries []*entry
	wg      sync.WaitGroup
	log     logger.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTickInterval sets how often due jobs are checked.
func WithTickInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		tick: defaultTickInterval,
		now:  time.Now,
		log:  logger.Get().Named("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers a job under the given cadence name.
func (s *Scheduler) Add(name string, schedule Schedule, job Job) {
	s.entries = append(s.entries, &entry{
		name:     name,
		schedule: schedule,
		job:      job,
		next:     schedule.Next(s.now()),
	})
}

// Run blocks until ctx is canceled, firing due jobs on each tick.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return
		case <-ticker.C:
			s.RunPending(ctx, s.now())
		}
	}
}

// RunPending fires every job whose slot has arrived. Exposed so the
// loop stays trivially testable with a controlled clock.
func (s *Scheduler) RunPending(ctx context.Context, now time.Time) {
	for _, e := range s.entries {
		e.mu.Lock()
		due := !now.Before(e.next)
		if due {
			// Advance past now rather than by one step: missed slots
			// are dropped, not replayed.
			e.next = e.schedule.Next(now)
		}
		e.mu.Unlock()
		if !due {
			continue
		}

		metrics.RecordSchedulerTick(e.name)
		if !e.inFlight.CompareAndSwap(false, true) {
			metrics.RecordSchedulerSkip(e.name)
			s.log.Warn(ctx, "run skipped, previous still in flight",
				logger.String("cadence", e.name))
			continue
		}

		s.wg.Add(1)
		go func(e *entry) {
			defer s.wg.Done()
			defer e.inFlight.Store(false)

			start := s.now()
			err := e.job(ctx)
			metrics.RecordSchedulerRunDuration(e.name, float64(s.now().Sub(start).Milliseconds()))

			e.mu.Lock()
			e.lastRun = start
			e.lastErr = err
			e.mu.Unlock()

			if err != nil {
				s.log.Error(ctx, "scheduled run failed",
					logger.String("cadence", e.name),
					logger.Error(err))
				return
			}
			s.log.Info(ctx, "scheduled run completed",
				logger.String("cadence", e.name),
				logger.Duration("took", s.now().Sub(start)))
		}(e)
	}
}

// LastRun reports the last start time and error for a cadence.
func (s *Scheduler) LastRun(name string) (time.Time, error) {
	for _, e := range s.entries {
		if e.name != name {
			continue
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.lastRun, e.lastErr
	}
	return time.Time{}, nil
}

// Wait blocks until in-flight jobs complete.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
