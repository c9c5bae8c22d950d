// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"
)

// GarmentRole identifies the slot an item occupies in an outfit.
type GarmentRole string

// Garment roles.
const (
	RoleTop       GarmentRole = "top"
	RoleBottom    GarmentRole = "bottom"
	RoleDress     GarmentRole = "dress"
	RoleOuterwear GarmentRole = "outerwear"
	RoleShoes     GarmentRole = "shoes"
	RoleAccessory GarmentRole = "accessory"
)

// Formality is the ordered formality scale used for fit scoring.
// Higher tiers satisfy lower requirements.
type Formality int

// Formality tiers, lowest to highest.
const (
	FormalityAthletic Formality = iota
	FormalityLounge
	FormalityCasual
	FormalityBusinessCasual
	FormalityFormal
)

// String returns the wire label for a formality tier.
func (f Formality) String() string {
	switch f {
	case FormalityAthletic:
		return "athletic"
	case FormalityLounge:
		return "lounge"
	case FormalityCasual:
		return "casual"
	case FormalityBusinessCasual:
		return "business-casual"
	case FormalityFormal:
		return "formal"
	default:
		return "unknown"
	}
}

// ParseFormality maps a wire label to a Formality tier.
func ParseFormality(s string) (Formality, bool) {
	switch s {
	case "athletic":
		return FormalityAthletic, true
	case "lounge":
		return FormalityLounge, true
	case "casual":
		return FormalityCasual, true
	case "business-casual", "business_casual":
		return FormalityBusinessCasual, true
	case "formal":
		return FormalityFormal, true
	default:
		return FormalityCasual, false
	}
}

// Season of the year an item is applicable to.
type Season string

// Seasons.
const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonFall   Season = "fall"
	SeasonWinter Season = "winter"
)

// SeasonOf returns the season a timestamp falls in (northern hemisphere,
// meteorological boundaries).
func SeasonOf(t time.Time) Season {
	switch t.Month() {
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	case time.September, time.October, time.November:
		return SeasonFall
	default:
		return SeasonWinter
	}
}

// Occasion is the categorical context a plan is generated for.
type Occasion string

// Occasions.
const (
	OccasionCasual   Occasion = "casual"
	OccasionWork     Occasion = "work"
	OccasionWedding  Occasion = "wedding"
	OccasionParty    Occasion = "party"
	OccasionFormal   Occasion = "formal"
	OccasionTravel   Occasion = "travel"
	OccasionDate     Occasion = "date"
	OccasionFestival Occasion = "festival"
)

// Occasions lists every valid occasion value.
func Occasions() []Occasion {
	return []Occasion{
		OccasionCasual, OccasionWork, OccasionWedding, OccasionParty,
		OccasionFormal, OccasionTravel, OccasionDate, OccasionFestival,
	}
}

// Valid reports whether the occasion is a known value.
func (o Occasion) Valid() bool {
	for _, v := range Occasions() {
		if o == v {
			return true
		}
	}
	return false
}

// Gender is the profile driving role applicability rules.
type Gender string

// Gender profiles.
const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderUnisex Gender = "unisex"
)

// Valid reports whether the gender profile is a known value.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderUnisex
}

// Condition describes the physical state of a garment.
type Condition string

// Garment conditions.
const (
	ConditionNew     Condition = "new"
	ConditionGood    Condition = "good"
	ConditionWorn    Condition = "worn"
	ConditionDamaged Condition = "damaged"
)

// Pattern labels the print on a garment. Bold patterns gate color harmony.
type Pattern string

// Patterns.
const (
	PatternSolid   Pattern = "solid"
	PatternStripe  Pattern = "stripe"
	PatternCheck   Pattern = "check"
	PatternFloral  Pattern = "floral"
	PatternGraphic Pattern = "graphic"
	PatternAnimal  Pattern = "animal"
)

// Bold reports whether the pattern counts as a strong print. Two strong
// prints in one outfit cap the harmony score regardless of color.
func (p Pattern) Bold() bool {
	switch p {
	case PatternFloral, PatternGraphic, PatternAnimal:
		return true
	default:
		return false
	}
}

// WardrobeItem is a single garment owned by the catalog. The planning core
// treats it as immutable input for the duration of a planning cycle.
type WardrobeItem struct {
	ID              uuid.UUID   `json:"id"`
	Role            GarmentRole `json:"role"`
	PrimaryColor    string      `json:"primary_color"`
	SecondaryColors []string    `json:"secondary_colors,omitempty"`
	Pattern         Pattern     `json:"pattern"`
	Formality       Formality   `json:"-"`
	Seasons         []Season    `json:"seasons"`
	Material        string      `json:"material,omitempty"`
	StyleTags       []string    `json:"style_tags,omitempty"`
	WearCount       int         `json:"wear_count"`
	LastWorn        time.Time   `json:"last_worn,omitzero"`
	Condition       Condition   `json:"condition"`
}

// Colors returns the primary color followed by the secondary colors.
func (w WardrobeItem) Colors() []string {
	out := make([]string, 0, 1+len(w.SecondaryColors))
	out = append(out, w.PrimaryColor)
	out = append(out, w.SecondaryColors...)
	return out
}

// InSeason reports whether the item's season set contains s.
func (w WardrobeItem) InSeason(s Season) bool {
	for _, have := range w.Seasons {
		if have == s {
			return true
		}
	}
	return false
}

// WeatherSnapshot is the slice of weather data planning cares about.
type WeatherSnapshot struct {
	TemperatureF float64 `json:"temperature_f"`
	Condition    string  `json:"condition"`
}

// Context carries the contextual signals for one planning call. It is
// constructed fresh per call and never persisted by the core.
type Context struct {
	UserID    string           `json:"user_id"`
	Occasion  Occasion         `json:"occasion"`
	Gender    Gender           `json:"gender"`
	Weather   *WeatherSnapshot `json:"weather,omitempty"`
	Events    []string         `json:"events,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Season the context falls in, derived from the timestamp.
func (c Context) Season() Season {
	return SeasonOf(c.Timestamp)
}

// ScoreBreakdown decomposes a candidate's total into its components.
// All components are in [0,1].
type ScoreBreakdown struct {
	Harmony       float64 `json:"harmony"`
	FormalityFit  float64 `json:"formality_fit"`
	WeatherFit    float64 `json:"weather_fit"`
	PreferenceFit float64 `json:"preference_fit"`
}

// OutfitCandidate is one complete role-to-item proposal. Candidates are
// transient; only the top-ranked one may be persisted by the catalog.
// Accessories ride along outside the role map: they never participate in
// candidate enumeration and their count is capped by the gender rules.
type OutfitCandidate struct {
	Items       map[GarmentRole]WardrobeItem `json:"items"`
	Accessories []WardrobeItem               `json:"accessories,omitempty"`
	Score       float64                      `json:"score"`
	Breakdown   ScoreBreakdown               `json:"breakdown"`
	Rationale   string                       `json:"rationale,omitempty"`
}

// AllItems returns the candidate's items in stable role order, with any
// attached accessories last.
func (c OutfitCandidate) AllItems() []WardrobeItem {
	order := []GarmentRole{RoleDress, RoleTop, RoleBottom, RoleShoes, RoleOuterwear, RoleAccessory}
	out := make([]WardrobeItem, 0, len(c.Items)+len(c.Accessories))
	for _, r := range order {
		if it, ok := c.Items[r]; ok {
			out = append(out, it)
		}
	}
	return append(out, c.Accessories...)
}

// Colors returns every color across the candidate's items.
func (c OutfitCandidate) Colors() []string {
	var out []string
	for _, it := range c.AllItems() {
		out = append(out, it.Colors()...)
	}
	return out
}

// WearTotal sums the candidate's item wear counts. Used as a ranking
// tie-break so rarely worn combinations surface first.
func (c OutfitCandidate) WearTotal() int {
	total := 0
	for _, it := range c.Items {
		total += it.WearCount
	}
	return total
}

// Key is a stable identifier built from the candidate's item IDs, used as
// the final sort tie-break to keep rankings deterministic.
func (c OutfitCandidate) Key() string {
	key := ""
	for _, it := range c.AllItems() {
		key += it.ID.String() + "|"
	}
	return key
}

// FeedbackOutcome is the categorical result of user feedback.
type FeedbackOutcome string

// Feedback outcomes.
const (
	OutcomeAccepted FeedbackOutcome = "accepted"
	OutcomeRejected FeedbackOutcome = "rejected"
	OutcomeNeutral  FeedbackOutcome = "neutral"
)

// Valid reports whether the outcome is a known value.
func (o FeedbackOutcome) Valid() bool {
	return o == OutcomeAccepted || o == OutcomeRejected || o == OutcomeNeutral
}

// FeedbackEvent references a previously produced outfit and carries the
// user's verdict. Sentiment is in [-1,1]; HasSentiment distinguishes an
// explicit 0 from "no sentiment given".
type FeedbackEvent struct {
	ID           uuid.UUID       `json:"id"`
	OutfitID     uuid.UUID       `json:"outfit_id"`
	UserID       string          `json:"user_id"`
	Outcome      FeedbackOutcome `json:"outcome"`
	Sentiment    float64         `json:"sentiment"`
	HasSentiment bool            `json:"has_sentiment"`
	ReceivedAt   time.Time       `json:"received_at"`
}
