package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/garb/internal/domain/model"
	"github.com/okian/garb/internal/domain/rotation"
)

// Postgres is the production Catalog backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// ConnectPostgres establishes a connection pool and verifies it.
func ConnectPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %w", ErrStore, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %w", ErrStore, err)
	}
	return &Postgres{pool: pool}, nil
}

// Migrate creates the schema when it does not exist yet.
func (p *Postgres) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS wardrobe_items (
	id               UUID PRIMARY KEY,
	user_id          TEXT NOT NULL,
	role             TEXT NOT NULL,
	primary_color    TEXT NOT NULL,
	secondary_colors TEXT[] NOT NULL DEFAULT '{}',
	pattern          TEXT NOT NULL DEFAULT 'solid',
	formality        INT NOT NULL DEFAULT 2,
	seasons          TEXT[] NOT NULL DEFAULT '{}',
	material         TEXT NOT NULL DEFAULT '',
	style_tags       TEXT[] NOT NULL DEFAULT '{}',
	wear_count       INT NOT NULL DEFAULT 0,
	last_worn        TIMESTAMPTZ,
	condition        TEXT NOT NULL DEFAULT 'clean'
);
CREATE INDEX IF NOT EXISTS wardrobe_items_user_idx ON wardrobe_items (user_id);

CREATE TABLE IF NOT EXISTS outfits (
	id         UUID PRIMARY KEY,
	user_id    TEXT NOT NULL,
	occasion   TEXT NOT NULL,
	score      DOUBLE PRECISION NOT NULL,
	rationale  TEXT NOT NULL DEFAULT '',
	items      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS outfits_user_day_idx ON outfits (user_id, created_at);

CREATE TABLE IF NOT EXISTS feedback_events (
	id          UUID PRIMARY KEY,
	outfit_id   UUID NOT NULL REFERENCES outfits(id),
	user_id     TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	sentiment   DOUBLE PRECISION,
	received_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS rotation_reports (
	id           UUID PRIMARY KEY,
	user_id      TEXT NOT NULL,
	season       TEXT NOT NULL,
	active       JSONB NOT NULL,
	storage      JSONB NOT NULL,
	donate       JSONB NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS agent_actions (
	id         UUID PRIMARY KEY,
	agent      TEXT NOT NULL,
	action     TEXT NOT NULL,
	success    BOOLEAN NOT NULL,
	detail     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%w: migrate: %w", ErrStore, err)
	}
	return nil
}

func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *Postgres) ListEligibleItems(ctx context.Context, userID string) ([]model.WardrobeItem, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, role, primary_color, secondary_colors, pattern, formality,
		        seasons, material, style_tags, wear_count, last_worn, condition
		 FROM wardrobe_items
		 WHERE user_id = $1 AND condition <> 'damaged'`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list items: %w", ErrStore, err)
	}
	defer rows.Close()

	var items []model.WardrobeItem
	for rows.Next() {
		var (
			it        model.WardrobeItem
			role      string
			pattern   string
			formality int
			seasons   []string
			condition string
			lastWorn  *time.Time
		)
		if err := rows.Scan(&it.ID, &role, &it.PrimaryColor, &it.SecondaryColors,
			&pattern, &formality, &seasons, &it.Material, &it.StyleTags,
			&it.WearCount, &lastWorn, &condition); err != nil {
			return nil, fmt.Errorf("%w: scan item: %w", ErrStore, err)
		}
		it.Role = model.GarmentRole(role)
		it.Pattern = model.Pattern(pattern)
		it.Formality = model.Formality(formality)
		it.Condition = model.Condition(condition)
		for _, s := range seasons {
			it.Seasons = append(it.Seasons, model.Season(s))
		}
		if lastWorn != nil {
			it.LastWorn = *lastWorn
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list items: %w", ErrStore, err)
	}
	return items, nil
}

func (p *Postgres) RecordOutfit(ctx context.Context, userID string, c model.OutfitCandidate, planCtx model.Context) (uuid.UUID, error) {
	items := c.AllItems()
	payload, err := json.Marshal(items)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: marshal outfit: %w", ErrStore, err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: begin: %w", ErrStore, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id := uuid.New()
	if _, err := tx.Exec(ctx,
		`INSERT INTO outfits (id, user_id, occasion, score, rationale, items)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, userID, string(planCtx.Occasion), c.Score, c.Rationale, payload,
	); err != nil {
		return uuid.Nil, fmt.Errorf("%w: insert outfit: %w", ErrStore, err)
	}

	itemIDs := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		itemIDs = append(itemIDs, it.ID)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE wardrobe_items
		 SET wear_count = wear_count + 1, last_worn = NOW()
		 WHERE user_id = $1 AND id = ANY($2)`,
		userID, itemIDs,
	); err != nil {
		return uuid.Nil, fmt.Errorf("%w: bump wear: %w", ErrStore, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("%w: commit: %w", ErrStore, err)
	}
	return id, nil
}

func (p *Postgres) Outfit(ctx context.Context, outfitID uuid.UUID) (*OutfitRecord, error) {
	var (
		rec      OutfitRecord
		occasion string
		payload  []byte
	)
	err := p.pool.QueryRow(ctx,
		`SELECT id, user_id, occasion, score, rationale, items, created_at
		 FROM outfits WHERE id = $1`,
		outfitID,
	).Scan(&rec.ID, &rec.UserID, &occasion, &rec.Score, &rec.Rationale, &payload, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: outfit %s", ErrNotFound, outfitID)
		}
		return nil, fmt.Errorf("%w: get outfit: %w", ErrStore, err)
	}
	rec.Occasion = model.Occasion(occasion)
	if err := json.Unmarshal(payload, &rec.Items); err != nil {
		return nil, fmt.Errorf("%w: unmarshal outfit: %w", ErrStore, err)
	}
	return &rec, nil
}

func (p *Postgres) WornToday(ctx context.Context, userID string, day time.Time) ([]uuid.UUID, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	rows, err := p.pool.Query(ctx,
		`SELECT items FROM outfits
		 WHERE user_id = $1 AND created_at >= $2 AND created_at < $3`,
		userID, start, start.Add(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: worn today: %w", ErrStore, err)
	}
	defer rows.Close()

	var worn []uuid.UUID
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("%w: scan outfit: %w", ErrStore, err)
		}
		var items []model.WardrobeItem
		if err := json.Unmarshal(payload, &items); err != nil {
			return nil, fmt.Errorf("%w: unmarshal outfit: %w", ErrStore, err)
		}
		for _, it := range items {
			worn = append(worn, it.ID)
		}
	}
	return worn, rows.Err()
}

func (p *Postgres) RecordFeedback(ctx context.Context, ev model.FeedbackEvent) error {
	var sentiment *float64
	if ev.HasSentiment {
		sentiment = &ev.Sentiment
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO feedback_events (id, outfit_id, user_id, outcome, sentiment, received_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO NOTHING`,
		ev.ID, ev.OutfitID, ev.UserID, string(ev.Outcome), sentiment, ev.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert feedback: %w", ErrStore, err)
	}
	return nil
}

func (p *Postgres) RecordRotation(ctx context.Context, userID string, report rotation.Report) error {
	active, _ := json.Marshal(report.Active)
	storage, _ := json.Marshal(report.Storage)
	donate, _ := json.Marshal(report.Donate)
	_, err := p.pool.Exec(ctx,
		`INSERT INTO rotation_reports (id, user_id, season, active, storage, donate, generated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), userID, string(report.Season), active, storage, donate, report.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert rotation: %w", ErrStore, err)
	}
	return nil
}

func (p *Postgres) RecordAgentAction(ctx context.Context, action AgentAction) error {
	if action.ID == uuid.Nil {
		action.ID = uuid.New()
	}
	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now()
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO agent_actions (id, agent, action, success, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		action.ID, action.Agent, action.Action, action.Success, action.Detail, action.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert action: %w", ErrStore, err)
	}
	return nil
}

func (p *Postgres) Stats(ctx context.Context, userID string) (Stats, error) {
	st := Stats{ByRole: make(map[model.GarmentRole]int)}

	rows, err := p.pool.Query(ctx,
		`SELECT role, COUNT(*), COALESCE(AVG(wear_count), 0),
		        COUNT(*) FILTER (WHERE condition = 'damaged')
		 FROM wardrobe_items WHERE user_id = $1 GROUP BY role`,
		userID,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: stats: %w", ErrStore, err)
	}
	defer rows.Close()

	var wearSum float64
	for rows.Next() {
		var (
			role    string
			count   int
			avg     float64
			damaged int
		)
		if err := rows.Scan(&role, &count, &avg, &damaged); err != nil {
			return Stats{}, fmt.Errorf("%w: scan stats: %w", ErrStore, err)
		}
		st.ByRole[model.GarmentRole(role)] = count
		st.TotalItems += count
		st.DamagedItems += damaged
		wearSum += avg * float64(count)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("%w: stats: %w", ErrStore, err)
	}
	if st.TotalItems > 0 {
		st.AvgWearCount = wearSum / float64(st.TotalItems)
	}

	if err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outfits WHERE user_id = $1`, userID,
	).Scan(&st.Outfits); err != nil {
		return Stats{}, fmt.Errorf("%w: stats outfits: %w", ErrStore, err)
	}
	if err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM feedback_events WHERE user_id = $1`, userID,
	).Scan(&st.Feedbacks); err != nil {
		return Stats{}, fmt.Errorf("%w: stats feedback: %w", ErrStore, err)
	}
	return st, nil
}
