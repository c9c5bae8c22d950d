package scheduler_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/garb/internal/scheduler"
	"github.com/okian/garb/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	m.Run()
}

func TestSchedules(t *testing.T) {
	convey.Convey("Given a daily schedule at 07:00 UTC", t, func() {
		daily := scheduler.DailyAt{Minutes: 7 * 60, Location: time.UTC}

		convey.Convey("When asked before the slot", func() {
			at := time.Date(2025, time.April, 2, 5, 0, 0, 0, time.UTC)

			convey.Convey("Then it should fire the same day", func() {
				next := daily.Next(at)
				convey.So(next.Equal(time.Date(2025, time.April, 2, 7, 0, 0, 0, time.UTC)), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When asked at or after the slot", func() {
			at := time.Date(2025, time.April, 2, 7, 0, 0, 0, time.UTC)

			convey.Convey("Then it should fire the next day", func() {
				next := daily.Next(at)
				convey.So(next.Equal(time.Date(2025, time.April, 3, 7, 0, 0, 0, time.UTC)), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given an interval schedule", t, func() {
		every := scheduler.Every{Interval: 7 * 24 * time.Hour}
		at := time.Date(2025, time.April, 2, 7, 0, 0, 0, time.UTC)

		convey.Convey("Then the next slot is one interval out", func() {
			convey.So(every.Next(at).Equal(at.Add(7*24*time.Hour)), convey.ShouldBeTrue)
		})
	})
}

func TestScheduler(t *testing.T) {
	convey.Convey("Given a scheduler with a controlled clock", t, func() {
		ctx := context.Background()
		base := time.Date(2025, time.April, 2, 6, 59, 0, 0, time.UTC)

		var mu sync.Mutex
		now := base
		clock := func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		}
		advance := func(d time.Duration) {
			mu.Lock()
			now = now.Add(d)
			mu.Unlock()
		}

		convey.Convey("When the daily slot arrives", func() {
			s := scheduler.New(scheduler.WithClock(clock))
			var runs atomic.Int32
			s.Add("daily", scheduler.DailyAt{Minutes: 7 * 60, Location: time.UTC}, func(context.Context) error {
				runs.Add(1)
				return nil
			})

			s.RunPending(ctx, clock())
			convey.So(runs.Load(), convey.ShouldEqual, 0)

			advance(2 * time.Minute)
			s.RunPending(ctx, clock())
			s.Wait()

			convey.Convey("Then the job runs once", func() {
				convey.So(runs.Load(), convey.ShouldEqual, 1)
				last, err := s.LastRun("daily")
				convey.So(err, convey.ShouldBeNil)
				convey.So(last.IsZero(), convey.ShouldBeFalse)
			})

			convey.Convey("And the same slot does not fire twice", func() {
				s.RunPending(ctx, clock())
				s.Wait()
				convey.So(runs.Load(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When several slots were missed", func() {
			s := scheduler.New(scheduler.WithClock(clock))
			var runs atomic.Int32
			s.Add("daily", scheduler.DailyAt{Minutes: 7 * 60, Location: time.UTC}, func(context.Context) error {
				runs.Add(1)
				return nil
			})

			// Three days pass without any ticks.
			advance(72 * time.Hour)
			s.RunPending(ctx, clock())
			s.Wait()
			s.RunPending(ctx, clock())
			s.Wait()

			convey.Convey("Then only one run fires; nothing is backfilled", func() {
				convey.So(runs.Load(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When a run is still in flight at the next slot", func() {
			s := scheduler.New(scheduler.WithClock(clock))
			block := make(chan struct{})
			started := make(chan struct{})
			var runs atomic.Int32
			s.Add("seasonal", scheduler.Every{Interval: time.Minute}, func(context.Context) error {
				runs.Add(1)
				if runs.Load() == 1 {
					close(started)
					<-block
				}
				return nil
			})

			advance(2 * time.Minute)
			s.RunPending(ctx, clock())
			<-started

			advance(2 * time.Minute)
			s.RunPending(ctx, clock())

			convey.Convey("Then the overlapping slot is skipped, not queued", func() {
				close(block)
				s.Wait()
				convey.So(runs.Load(), convey.ShouldEqual, 1)

				// The following slot runs normally again.
				advance(2 * time.Minute)
				s.RunPending(ctx, clock())
				s.Wait()
				convey.So(runs.Load(), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When a job fails", func() {
			s := scheduler.New(scheduler.WithClock(clock))
			s.Add("rotation", scheduler.Every{Interval: time.Minute}, func(context.Context) error {
				return context.DeadlineExceeded
			})

			advance(2 * time.Minute)
			s.RunPending(ctx, clock())
			s.Wait()

			convey.Convey("Then the error is retained for status", func() {
				_, err := s.LastRun("rotation")
				convey.So(err, convey.ShouldEqual, context.DeadlineExceeded)
			})
		})
	})
}
