// Package harmony scores color and pattern compatibility between garments.
//
// Colors are mapped onto a fixed hue-family wheel; pairwise harmony is a
// rule-based lookup over those families, not a learned model. The tables
// are configuration resources with embedded defaults.
package harmony

import (
	"strings"

	"github.com/okian/garb/internal/domain/model"
)

// Score bounds for the rule table.
const (
	complementaryScore = 0.9
	analogousScore     = 0.85
	sameFamilyScore    = 0.75
	unrelatedScore     = 0.55
	clashScore         = 0.2
	clashScoreCeiling  = 0.3
	unknownColorScore  = 0.7
	boldPatternCap     = 0.4

	// neutralPull is how far a neutral participant pulls a pairing
	// toward full compatibility.
	neutralPull = 0.95
)

// Family is a hue-family bucket on the color wheel.
type Family int

// Hue families, in wheel order. Neutral sits off the wheel.
const (
	FamilyRed Family = iota
	FamilyOrange
	FamilyYellow
	FamilyGreen
	FamilyBlue
	FamilyPurple
	FamilyPink
	FamilyNeutral
	familyUnknown
)

const wheelSize = 7 // families on the wheel, excluding neutral

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithStrictness scales how heavily clashes are penalized. 1.0 is the
// default table; values above 1 push clash scores lower, values below 1
// soften them. Clamped to [0.5, 2].
func WithStrictness(s float64) Option {
	return func(e *Engine) {
		if s < 0.5 {
			s = 0.5
		}
		if s > 2 {
			s = 2
		}
		e.strictness = s
	}
}

// WithFamilyOverrides replaces or extends the color name to hue-family
// classification, e.g. mapping brand colors onto wheel buckets.
func WithFamilyOverrides(overrides map[string]Family) Option {
	return func(e *Engine) {
		for name, fam := range overrides {
			e.families[strings.ToLower(name)] = fam
		}
	}
}

// WithFamilyAliases maps extra color names onto the family of an already
// known color, e.g. "oxblood" onto "red". Names whose target is unknown
// are ignored.
func WithFamilyAliases(aliases map[string]string) Option {
	return func(e *Engine) {
		for name, target := range aliases {
			if fam, ok := e.families[strings.ToLower(target)]; ok {
				e.families[strings.ToLower(name)] = fam
			}
		}
	}
}

// Engine evaluates color and pattern compatibility. Safe for concurrent
// use after construction; all state is read-only.
type Engine struct {
	families   map[string]Family
	strictness float64
}

// NewEngine builds an Engine with the default hue-family table.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		families:   defaultFamilies(),
		strictness: 1.0,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// defaultFamilies maps common garment color names to hue families.
func defaultFamilies() map[string]Family {
	return map[string]Family{
		"red":      FamilyRed,
		"maroon":   FamilyRed,
		"burgundy": FamilyRed,
		"crimson":  FamilyRed,
		"orange":   FamilyOrange,
		"rust":     FamilyOrange,
		"coral":    FamilyOrange,
		"yellow":   FamilyYellow,
		"gold":     FamilyYellow,
		"mustard":  FamilyYellow,
		"green":    FamilyGreen,
		"olive":    FamilyGreen,
		"teal":     FamilyGreen,
		"mint":     FamilyGreen,
		"blue":     FamilyBlue,
		"cobalt":   FamilyBlue,
		"sky":      FamilyBlue,
		"purple":   FamilyPurple,
		"violet":   FamilyPurple,
		"lavender": FamilyPurple,
		"pink":     FamilyPink,
		"rose":     FamilyPink,
		"magenta":  FamilyPink,
		"black":    FamilyNeutral,
		"white":    FamilyNeutral,
		"gray":     FamilyNeutral,
		"grey":     FamilyNeutral,
		"beige":    FamilyNeutral,
		"cream":    FamilyNeutral,
		"ivory":    FamilyNeutral,
		"tan":      FamilyNeutral,
		"khaki":    FamilyNeutral,
		"navy":     FamilyNeutral,
		"brown":    FamilyNeutral,
		"charcoal": FamilyNeutral,
		"denim":    FamilyBlue,
	}
}

// FamilyOf classifies a color name. Unknown names return familyUnknown.
func (e *Engine) FamilyOf(color string) Family {
	fam, ok := e.families[strings.ToLower(strings.TrimSpace(color))]
	if !ok {
		return familyUnknown
	}
	return fam
}

// Score returns the pairwise compatibility of two colors in [0,1].
// The relation is symmetric: Score(a,b) == Score(b,a).
func (e *Engine) Score(a, b string) float64 {
	fa, fb := e.FamilyOf(a), e.FamilyOf(b)

	// Unknown colors are treated permissively, matching the original
	// rule table's behavior for colors outside its database.
	if fa == familyUnknown || fb == familyUnknown {
		return unknownColorScore
	}

	// A neutral participant pulls any pairing toward full compatibility.
	if fa == FamilyNeutral || fb == FamilyNeutral {
		return neutralPull
	}

	if fa == fb {
		return sameFamilyScore
	}

	switch wheelDistance(fa, fb) {
	case 1: // analogous
		return analogousScore
	case 3, 4: // complementary / near-complementary
		return complementaryScore
	case 2: // clashing
		return e.applyStrictness(clashScore)
	default:
		return unrelatedScore
	}
}

// wheelDistance is the minimal step count between two wheel families.
func wheelDistance(a, b Family) int {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	if alt := wheelSize - d; alt < d {
		d = alt
	}
	return d
}

// applyStrictness pushes clash scores lower as strictness grows. Lenient
// engines soften a clash but never lift it out of the clash band.
func (e *Engine) applyStrictness(score float64) float64 {
	adjusted := score / e.strictness
	if adjusted > clashScoreCeiling {
		adjusted = clashScoreCeiling
	}
	return adjusted
}

// ScoreSet aggregates pairwise scores over every unordered pair in the
// sequence, so a single clashing pair drags the whole set down even when
// the remaining pairs match well. Sets of fewer than two colors score 1.
func (e *Engine) ScoreSet(colors []string) float64 {
	if len(colors) < 2 {
		return 1.0
	}
	var sum float64
	var pairs int
	for i := 0; i < len(colors); i++ {
		for j := i + 1; j < len(colors); j++ {
			sum += e.Score(colors[i], colors[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}

// ScoreOutfit scores all colors across the candidate's items and applies
// the pattern gate: more than one bold print caps the result at 0.4
// regardless of how well the colors agree.
func (e *Engine) ScoreOutfit(c model.OutfitCandidate) float64 {
	score := e.ScoreSet(c.Colors())

	bold := 0
	for _, it := range c.AllItems() {
		if it.Pattern.Bold() {
			bold++
		}
	}
	if bold > 1 && score > boldPatternCap {
		score = boldPatternCap
	}
	return score
}
