package scheduler

import (
	"time"
)

// Schedule computes when a job should run next.
type Schedule interface {
	// Next returns the first run time strictly after t.
	Next(t time.Time) time.Time
}

// DailyAt runs once a day at a fixed local clock time.
type DailyAt struct {
	// Minutes past midnight in the Location's local time.
	Minutes  int
	Location *time.Location
}

func (d DailyAt) Next(t time.Time) time.Time {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), 0, d.Minutes, 0, 0, loc)
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Every runs at a fixed interval. Used for the seasonal cadence.
type Every struct {
	Interval time.Duration
}

func (e Every) Next(t time.Time) time.Time {
	return t.Add(e.Interval)
}
