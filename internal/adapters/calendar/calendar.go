// Package calendar provides the day's events for planning context.
//
// The file source reads a JSON document of events from disk. A missing
// file means no events rather than an error; the planning run should
// not fail because the user keeps no calendar.
package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/okian/garb/internal/domain/model"
)

// Event is one calendar entry. Occasion is optional; when present it
// overrides the occasion inferred from the title.
type Event struct {
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	Occasion string    `json:"occasion,omitempty"`
}

// Source provides events for a given day.
type Source interface {
	EventsFor(ctx context.Context, day time.Time) ([]Event, error)
}

// FileSource reads events from a JSON file on every call. The file is
// small and user-edited; re-reading keeps edits live without a watcher.
type FileSource struct {
	path string
}

// NewFileSource creates a file-backed calendar source. An empty path is
// valid and yields no events.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) EventsFor(_ context.Context, day time.Time) ([]Event, error) {
	if s.path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	var all []Event
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	y, m, d := day.Date()
	var todays []Event
	for _, ev := range all {
		ey, em, ed := ev.Start.Date()
		if ey == y && em == m && ed == d {
			todays = append(todays, ev)
		}
	}
	return todays, nil
}

// OccasionFor picks the planning occasion from the day's events. The
// first event carrying a recognized occasion wins; with no usable
// events the fallback applies.
func OccasionFor(events []Event, fallback model.Occasion) model.Occasion {
	for _, ev := range events {
		occ := model.Occasion(ev.Occasion)
		if occ.Valid() {
			return occ
		}
	}
	return fallback
}

// Titles flattens events into the context's event list.
func Titles(events []Event) []string {
	if len(events) == 0 {
		return nil
	}
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Title)
	}
	return out
}
