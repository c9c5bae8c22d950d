package planner

import (
	"fmt"
	"strings"

	"github.com/okian/garb/internal/domain/model"
)

// Breakdown thresholds for rationale phrasing.
const (
	strongComponent = 0.8
	weakComponent   = 0.4
)

// Rationale renders a human-readable explanation from the candidate's
// score breakdown. It is a template over the breakdown, not a reasoning
// step; the narrator adapter may later polish it but is never required.
func Rationale(c model.OutfitCandidate, planCtx model.Context) string {
	var parts []string

	parts = append(parts, describeItems(c))

	b := c.Breakdown
	switch {
	case b.Harmony >= strongComponent:
		parts = append(parts, "the colors work well together")
	case b.Harmony <= weakComponent:
		parts = append(parts, "the colors are a stretch; consider adding a neutral piece")
	}

	switch {
	case b.FormalityFit >= strongComponent:
		parts = append(parts, fmt.Sprintf("it fits the formality of a %s setting", planCtx.Occasion))
	case b.FormalityFit <= weakComponent:
		parts = append(parts, fmt.Sprintf("it runs casual for a %s setting", planCtx.Occasion))
	}

	if planCtx.Weather != nil {
		switch {
		case b.WeatherFit >= strongComponent:
			parts = append(parts, fmt.Sprintf("and suits %.0f°F %s weather", planCtx.Weather.TemperatureF, strings.ToLower(planCtx.Weather.Condition)))
		case b.WeatherFit <= weakComponent:
			parts = append(parts, "though some pieces are out of season")
		}
	}

	if b.PreferenceFit >= strongComponent {
		parts = append(parts, "it also leans into colors and styles you've liked before")
	}

	return strings.Join(parts, "; ") + "."
}

// describeItems summarizes the candidate as "color role" pairs in stable
// role order.
func describeItems(c model.OutfitCandidate) string {
	var names []string
	for _, it := range c.AllItems() {
		names = append(names, fmt.Sprintf("%s %s", it.PrimaryColor, it.Role))
	}
	return "Pairing the " + strings.Join(names, ", ")
}
