// Package scoring combines harmony, occasion rules, weather fit, and
// learned preference into a single outfit score.
//
// Scoring is deterministic: identical inputs always produce identical
// scores. There is no randomness and no hidden state beyond the profile
// passed in by the caller.
package scoring

import (
	"fmt"

	"github.com/okian/garb/internal/domain/harmony"
	"github.com/okian/garb/internal/domain/model"
	"github.com/okian/garb/internal/domain/preference"
	"github.com/okian/garb/internal/domain/rules"
)

// Default component weights and temperature bands. All of these are
// configuration, overridable via options.
const (
	defaultHarmonyWeight    = 0.35
	defaultFormalityWeight  = 0.25
	defaultWeatherWeight    = 0.20
	defaultPreferenceWeight = 0.20

	defaultColdBelowF = 50.0
	defaultWarmAboveF = 70.0

	// formalityPenaltyPerTier is subtracted for each tier an item falls
	// short of the occasion's minimum.
	formalityPenaltyPerTier = 0.34

	// outerwearMismatchCredit is the partial weather credit when only
	// outerwear or accessories are out of season; those are cheap to swap.
	outerwearMismatchCredit = 0.5
)

// Weights holds the component weights of the total score.
type Weights struct {
	Harmony    float64 `koanf:"harmony"`
	Formality  float64 `koanf:"formality"`
	Weather    float64 `koanf:"weather"`
	Preference float64 `koanf:"preference"`
}

// DefaultWeights returns the shipped weight configuration.
func DefaultWeights() Weights {
	return Weights{
		Harmony:    defaultHarmonyWeight,
		Formality:  defaultFormalityWeight,
		Weather:    defaultWeatherWeight,
		Preference: defaultPreferenceWeight,
	}
}

// TemperatureBands holds the thresholds translating a temperature into a
// season expectation.
type TemperatureBands struct {
	ColdBelowF float64 `koanf:"cold_below_f"`
	WarmAboveF float64 `koanf:"warm_above_f"`
}

// DefaultBands returns the shipped temperature thresholds.
func DefaultBands() TemperatureBands {
	return TemperatureBands{ColdBelowF: defaultColdBelowF, WarmAboveF: defaultWarmAboveF}
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithWeights overrides the component weights.
func WithWeights(w Weights) Option {
	return func(s *Scorer) {
		if w.Harmony > 0 || w.Formality > 0 || w.Weather > 0 || w.Preference > 0 {
			s.weights = w
		}
	}
}

// WithTemperatureBands overrides the temperature thresholds.
func WithTemperatureBands(b TemperatureBands) Option {
	return func(s *Scorer) {
		if b.ColdBelowF < b.WarmAboveF {
			s.bands = b
		}
	}
}

// Scorer computes a total score and its breakdown for outfit candidates.
// Safe for concurrent use; all state is read-only after construction.
type Scorer struct {
	engine  *harmony.Engine
	weights Weights
	bands   TemperatureBands
}

// NewScorer creates a scorer over the given harmony engine.
func NewScorer(engine *harmony.Engine, opts ...Option) *Scorer {
	s := &Scorer{
		engine:  engine,
		weights: DefaultWeights(),
		bands:   DefaultBands(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score evaluates one candidate against context and profile. A faulty
// candidate (no items) is a caller bug and is surfaced as ErrScoring
// rather than silently scored zero.
func (s *Scorer) Score(c model.OutfitCandidate, planCtx model.Context, profile preference.Profile) (float64, model.ScoreBreakdown, error) {
	if len(c.Items) == 0 {
		return 0, model.ScoreBreakdown{}, fmt.Errorf("%w: candidate has no items", ErrScoring)
	}

	b := model.ScoreBreakdown{
		Harmony:       s.harmonyFit(c, profile),
		FormalityFit:  s.formalityFit(c, planCtx.Occasion),
		WeatherFit:    s.weatherFit(c, planCtx),
		PreferenceFit: s.preferenceFit(c, profile),
	}

	total := b.Harmony*s.weights.Harmony +
		b.FormalityFit*s.weights.Formality +
		b.WeatherFit*s.weights.Weather +
		b.PreferenceFit*s.weights.Preference

	weightSum := s.weights.Harmony + s.weights.Formality + s.weights.Weather + s.weights.Preference
	if weightSum > 0 {
		total /= weightSum
	}

	return total, b, nil
}

// harmonyFit is the engine's set score with the profile's strictness
// applied: stricter users see clashing combinations punished harder.
func (s *Scorer) harmonyFit(c model.OutfitCandidate, profile preference.Profile) float64 {
	raw := s.engine.ScoreOutfit(c)

	strictness := profile.Strictness
	if strictness <= 0 {
		strictness = 1
	}
	// Scale the shortfall from perfect harmony by strictness.
	fit := 1 - strictness*(1-raw)
	if fit < 0 {
		fit = 0
	}
	if fit > 1 {
		fit = 1
	}
	return fit
}

// formalityFit is 1.0 when every item meets the occasion's minimum tier,
// dropping linearly per tier of shortfall, floored at 0.
func (s *Scorer) formalityFit(c model.OutfitCandidate, occ model.Occasion) float64 {
	minTier := rules.MinFormalityFor(occ)
	fit := 1.0
	for _, it := range c.AllItems() {
		if it.Formality >= minTier {
			continue
		}
		shortfall := int(minTier - it.Formality)
		penalty := formalityPenaltyPerTier * float64(shortfall)
		if penalty < fit {
			fit -= penalty
		} else {
			fit = 0
		}
	}
	return fit
}

// weatherFit checks every item's season set against the seasons implied by
// the context temperature. If only outerwear or accessories mismatch the
// credit is 0.5; a mismatched core garment scores 0. Missing weather falls
// back to the calendar season of the timestamp.
func (s *Scorer) weatherFit(c model.OutfitCandidate, planCtx model.Context) float64 {
	seasons := s.impliedSeasons(planCtx)

	coreMismatch := false
	shellMismatch := false
	for role, it := range c.Items {
		if inAnySeason(it, seasons) {
			continue
		}
		if role == model.RoleOuterwear || role == model.RoleAccessory {
			shellMismatch = true
		} else {
			coreMismatch = true
		}
	}

	switch {
	case coreMismatch:
		return 0
	case shellMismatch:
		return outerwearMismatchCredit
	default:
		return 1.0
	}
}

// impliedSeasons translates the context temperature into acceptable
// seasons; without a weather snapshot the calendar season stands in.
func (s *Scorer) impliedSeasons(planCtx model.Context) []model.Season {
	if planCtx.Weather == nil {
		return []model.Season{planCtx.Season()}
	}
	t := planCtx.Weather.TemperatureF
	switch {
	case t < s.bands.ColdBelowF:
		return []model.Season{model.SeasonWinter}
	case t > s.bands.WarmAboveF:
		return []model.Season{model.SeasonSummer}
	default:
		// Mild band: either shoulder season qualifies, and so does the
		// calendar season, so summer garments pass a mild summer day.
		seasons := []model.Season{model.SeasonSpring, model.SeasonFall}
		if cal := planCtx.Season(); cal != model.SeasonSpring && cal != model.SeasonFall {
			seasons = append(seasons, cal)
		}
		return seasons
	}
}

func inAnySeason(it model.WardrobeItem, seasons []model.Season) bool {
	for _, season := range seasons {
		if it.InSeason(season) {
			return true
		}
	}
	return false
}

// preferenceFit is the mean learned affinity across the candidate's
// colors, patterns, and style tags, rescaled from [-1,1] to [0,1].
func (s *Scorer) preferenceFit(c model.OutfitCandidate, profile preference.Profile) float64 {
	var sum float64
	var n int
	for _, it := range c.AllItems() {
		for _, color := range it.Colors() {
			sum += profile.ColorAffinity(color)
			n++
		}
		if it.Pattern != "" {
			sum += profile.PatternAffinity(it.Pattern)
			n++
		}
		for _, tag := range it.StyleTags {
			sum += profile.TagAffinity(tag)
			n++
		}
	}
	if n == 0 {
		return 0.5 // neutral
	}
	mean := sum / float64(n)
	return (mean + 1) / 2
}
