// Package catalog provides wardrobe persistence behind a small interface.
//
// Two implementations exist: an in-memory catalog for development and
// tests, and a PostgreSQL catalog for real deployments. Callers pick one
// at wiring time; everything above this package only sees Catalog.
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okian/garb/internal/domain/model"
	"github.com/okian/garb/internal/domain/rotation"
)

// OutfitRecord is a persisted recommendation with enough detail to
// reconstruct what was suggested when feedback arrives later.
type OutfitRecord struct {
	ID        uuid.UUID
	UserID    string
	Occasion  model.Occasion
	Items     []model.WardrobeItem
	Score     float64
	Rationale string
	CreatedAt time.Time
}

// AgentAction is one audit entry describing something an agent did.
type AgentAction struct {
	ID        uuid.UUID
	Agent     string
	Action    string
	Success   bool
	Detail    string
	CreatedAt time.Time
}

// Stats summarizes a user's wardrobe for the status surface.
type Stats struct {
	TotalItems   int
	ByRole       map[model.GarmentRole]int
	DamagedItems int
	AvgWearCount float64
	Outfits      int
	Feedbacks    int
}

// Catalog is the persistence boundary for wardrobe data.
type Catalog interface {
	// ListEligibleItems returns the user's wearable items. Damaged
	// items are excluded here so every caller gets the same baseline.
	ListEligibleItems(ctx context.Context, userID string) ([]model.WardrobeItem, error)

	// RecordOutfit persists a recommended outfit and bumps wear state
	// on its items. It returns the stored record's ID.
	RecordOutfit(ctx context.Context, userID string, c model.OutfitCandidate, planCtx model.Context) (uuid.UUID, error)

	// Outfit loads a previously recorded outfit.
	Outfit(ctx context.Context, outfitID uuid.UUID) (*OutfitRecord, error)

	// WornToday reports item IDs already worn on the given day.
	WornToday(ctx context.Context, userID string, day time.Time) ([]uuid.UUID, error)

	// RecordFeedback persists a feedback event against an outfit.
	RecordFeedback(ctx context.Context, ev model.FeedbackEvent) error

	// RecordRotation persists a seasonal rotation report.
	RecordRotation(ctx context.Context, userID string, report rotation.Report) error

	// RecordAgentAction appends to the agent audit log.
	RecordAgentAction(ctx context.Context, action AgentAction) error

	// Stats summarizes the user's wardrobe.
	Stats(ctx context.Context, userID string) (Stats, error)

	// Close releases any underlying resources.
	Close()
}
