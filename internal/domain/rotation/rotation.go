// Package rotation analyzes the wardrobe against the current season and
// recommends which items to keep accessible, move to storage, or donate.
package rotation

import (
	"time"

	"github.com/google/uuid"

	"github.com/okian/garb/internal/domain/model"
)

// Defaults for the rotation analysis.
const (
	// defaultDonateAfterSeasons flags items unworn this many consecutive
	// seasons as donation candidates.
	defaultDonateAfterSeasons = 4

	seasonLength = 91 * 24 * time.Hour // one quarter, close enough for wear-gap math
)

// Report is the outcome of one seasonal rotation pass.
type Report struct {
	Season      model.Season `json:"season"`
	GeneratedAt time.Time    `json:"generated_at"`

	Active  []uuid.UUID `json:"active"`
	Storage []uuid.UUID `json:"storage"`
	Donate  []uuid.UUID `json:"donate"`
}

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithDonateAfterSeasons sets how many unworn seasons flag an item for
// donation.
func WithDonateAfterSeasons(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.donateAfterSeasons = n
		}
	}
}

// Analyzer classifies wardrobe items for a season window.
type Analyzer struct {
	donateAfterSeasons int
}

// NewAnalyzer creates a rotation analyzer.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{donateAfterSeasons: defaultDonateAfterSeasons}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze splits items into active (wearable this season), storage
// (out of season), and donation candidates (unworn long enough that the
// owner clearly isn't reaching for them). Damaged items are never donation
// candidates; they need repair or disposal, which is the owner's call.
func (a *Analyzer) Analyze(items []model.WardrobeItem, now time.Time) Report {
	season := model.SeasonOf(now)
	r := Report{Season: season, GeneratedAt: now}

	donateCutoff := now.Add(-time.Duration(a.donateAfterSeasons) * seasonLength)
	for _, it := range items {
		if it.InSeason(season) {
			r.Active = append(r.Active, it.ID)
		} else {
			r.Storage = append(r.Storage, it.ID)
		}

		longUnworn := !it.LastWorn.IsZero() && it.LastWorn.Before(donateCutoff)
		if longUnworn && it.Condition != model.ConditionDamaged {
			r.Donate = append(r.Donate, it.ID)
		}
	}
	return r
}
