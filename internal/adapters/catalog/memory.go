package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/garb/internal/domain/model"
	"github.com/okian/garb/internal/domain/rotation"
	"github.com/okian/garb/pkg/logger"
)

// Memory is an in-memory Catalog for development and tests.
type Memory struct {
	mu       sync.RWMutex
	items    map[string]map[uuid.UUID]model.WardrobeItem
	outfits  map[uuid.UUID]*OutfitRecord
	byUser   map[string][]uuid.UUID
	feedback map[string][]model.FeedbackEvent
	actions  []AgentAction
	now      func() time.Time
	log      logger.Logger
}

// MemoryOption configures a Memory catalog.
type MemoryOption func(*Memory)

// WithClock overrides the time source. Tests use this for fixed days.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// WithMemoryLogger sets the logger used by the catalog.
func WithMemoryLogger(log logger.Logger) MemoryOption {
	return func(m *Memory) {
		if log != nil {
			m.log = log
		}
	}
}

// NewMemory creates an empty in-memory catalog.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		items:    make(map[string]map[uuid.UUID]model.WardrobeItem),
		outfits:  make(map[uuid.UUID]*OutfitRecord),
		byUser:   make(map[string][]uuid.UUID),
		feedback: make(map[string][]model.FeedbackEvent),
		now:      time.Now,
		log:      logger.Get().Named("catalog"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Put inserts or replaces a wardrobe item. Items without an ID get one.
func (m *Memory) Put(userID string, it model.WardrobeItem) (uuid.UUID, error) {
	if userID == "" {
		return uuid.Nil, fmt.Errorf("%w: empty user id", ErrInvalidItem)
	}
	if it.Role == "" || it.PrimaryColor == "" {
		return uuid.Nil, fmt.Errorf("%w: role and primary color are required", ErrInvalidItem)
	}
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	byID, ok := m.items[userID]
	if !ok {
		byID = make(map[uuid.UUID]model.WardrobeItem)
		m.items[userID] = byID
	}
	byID[it.ID] = it
	return it.ID, nil
}

func (m *Memory) ListEligibleItems(_ context.Context, userID string) ([]model.WardrobeItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byID := m.items[userID]
	out := make([]model.WardrobeItem, 0, len(byID))
	for _, it := range byID {
		if it.Condition == model.ConditionDamaged {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (m *Memory) RecordOutfit(_ context.Context, userID string, c model.OutfitCandidate, planCtx model.Context) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	rec := &OutfitRecord{
		ID:        uuid.New(),
		UserID:    userID,
		Occasion:  planCtx.Occasion,
		Items:     c.AllItems(),
		Score:     c.Score,
		Rationale: c.Rationale,
		CreatedAt: now,
	}
	m.outfits[rec.ID] = rec
	m.byUser[userID] = append(m.byUser[userID], rec.ID)

	// Bump wear state on the recorded items.
	byID := m.items[userID]
	for _, it := range rec.Items {
		stored, ok := byID[it.ID]
		if !ok {
			continue
		}
		stored.WearCount++
		stored.LastWorn = now
		byID[it.ID] = stored
	}
	return rec.ID, nil
}

func (m *Memory) Outfit(_ context.Context, outfitID uuid.UUID) (*OutfitRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.outfits[outfitID]
	if !ok {
		return nil, fmt.Errorf("%w: outfit %s", ErrNotFound, outfitID)
	}
	cp := *rec
	cp.Items = append([]model.WardrobeItem(nil), rec.Items...)
	return &cp, nil
}

func (m *Memory) WornToday(_ context.Context, userID string, day time.Time) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	y, mo, d := day.Date()
	var worn []uuid.UUID
	for _, id := range m.byUser[userID] {
		rec := m.outfits[id]
		ry, rm, rd := rec.CreatedAt.Date()
		if ry != y || rm != mo || rd != d {
			continue
		}
		for _, it := range rec.Items {
			worn = append(worn, it.ID)
		}
	}
	return worn, nil
}

func (m *Memory) RecordFeedback(_ context.Context, ev model.FeedbackEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.outfits[ev.OutfitID]; !ok {
		return fmt.Errorf("%w: outfit %s", ErrNotFound, ev.OutfitID)
	}
	m.feedback[ev.UserID] = append(m.feedback[ev.UserID], ev)
	return nil
}

func (m *Memory) RecordRotation(ctx context.Context, userID string, report rotation.Report) error {
	m.log.Info(ctx, "rotation recorded",
		logger.String("user_id", userID),
		logger.String("season", string(report.Season)),
		logger.Int("active", len(report.Active)),
		logger.Int("storage", len(report.Storage)),
		logger.Int("donate", len(report.Donate)))
	return nil
}

func (m *Memory) RecordAgentAction(_ context.Context, action AgentAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if action.ID == uuid.Nil {
		action.ID = uuid.New()
	}
	if action.CreatedAt.IsZero() {
		action.CreatedAt = m.now()
	}
	m.actions = append(m.actions, action)
	return nil
}

func (m *Memory) Stats(_ context.Context, userID string) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Stats{ByRole: make(map[model.GarmentRole]int)}
	var wearTotal int
	for _, it := range m.items[userID] {
		st.TotalItems++
		st.ByRole[it.Role]++
		wearTotal += it.WearCount
		if it.Condition == model.ConditionDamaged {
			st.DamagedItems++
		}
	}
	if st.TotalItems > 0 {
		st.AvgWearCount = float64(wearTotal) / float64(st.TotalItems)
	}
	st.Outfits = len(m.byUser[userID])
	st.Feedbacks = len(m.feedback[userID])
	return st, nil
}

func (m *Memory) Close() {}
