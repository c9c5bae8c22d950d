// Package planner enumerates candidate outfit combinations from eligible
// wardrobe items, scores them, and returns a ranked top-N.
package planner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/garb/internal/domain/model"
	"github.com/okian/garb/internal/domain/preference"
	"github.com/okian/garb/internal/domain/rules"
	"github.com/okian/garb/internal/domain/scoring"
	"github.com/okian/garb/pkg/logger"
	"github.com/okian/garb/pkg/metrics"
)

// Planner configuration defaults.
const (
	// defaultRoleCap bounds each role's filtered item list before the
	// cross product. The cap keeps enumeration tractable; the N most
	// recently unworn items survive.
	defaultRoleCap = 8

	// defaultParallelism bounds concurrent candidate scoring.
	defaultParallelism = 4

	// defaultMinScore of 0 disables the threshold.
	defaultMinScore = 0.0
)

// Option applies a configuration option to the Planner.
type Option func(*Planner)

// WithRoleCap bounds each role's candidate list size.
func WithRoleCap(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.roleCap = n
		}
	}
}

// WithMinScore drops candidates scoring below the threshold.
func WithMinScore(min float64) Option {
	return func(p *Planner) {
		if min >= 0 && min <= 1 {
			p.minScore = min
		}
	}
}

// WithParallelism bounds concurrent scoring goroutines.
func WithParallelism(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.parallelism = n
		}
	}
}

// WithLogger sets a custom logger for the planner.
func WithLogger(lg logger.Logger) Option {
	return func(p *Planner) {
		if lg != nil {
			p.logger = lg
		}
	}
}

// Planner generates and ranks outfit candidates. Stateless between calls;
// safe for concurrent use.
type Planner struct {
	scorer      *scoring.Scorer
	roleCap     int
	minScore    float64
	parallelism int
	logger      logger.Logger
}

// New creates a planner over the given scorer.
func New(scorer *scoring.Scorer, opts ...Option) *Planner {
	p := &Planner{
		scorer:      scorer,
		roleCap:     defaultRoleCap,
		minScore:    defaultMinScore,
		parallelism: defaultParallelism,
		logger:      logger.Get().Named("planner"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan returns up to topN ranked candidates. An empty result is valid and
// means no role-complete combination exists for the context; it is not an
// error. Scoring faults abort the whole plan.
func (p *Planner) Plan(ctx context.Context, items []model.WardrobeItem, planCtx model.Context, profile preference.Profile, topN int) ([]model.OutfitCandidate, error) {
	start := time.Now()
	defer func() {
		metrics.RecordPlanningDuration(float64(time.Since(start).Milliseconds()))
	}()

	if topN <= 0 {
		return nil, nil
	}

	req := rules.For(planCtx.Gender, planCtx.Occasion)
	byRole := p.bucketEligible(items, planCtx)
	combos := p.enumerate(byRole, req, planCtx)
	if len(combos) == 0 {
		p.logger.Debug(ctx, "no role-complete combinations",
			logger.String("occasion", string(planCtx.Occasion)),
			logger.Int("eligible", countItems(byRole)),
		)
		return nil, nil
	}
	metrics.UpdateCandidateCount(len(combos))

	scored, err := p.scoreAll(ctx, combos, planCtx, profile)
	if err != nil {
		return nil, err
	}

	// Deterministic ordering: score desc, then lower aggregate wear count
	// so rotation is encouraged, then the stable candidate key.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		wi, wj := scored[i].WearTotal(), scored[j].WearTotal()
		if wi != wj {
			return wi < wj
		}
		return scored[i].Key() < scored[j].Key()
	})

	accessories := accessorySelection(byRole[model.RoleAccessory], req.MaxAccessories)

	out := make([]model.OutfitCandidate, 0, topN)
	for _, c := range scored {
		if p.minScore > 0 && c.Score < p.minScore {
			continue
		}
		c.Accessories = accessories
		c.Rationale = Rationale(c, planCtx)
		out = append(out, c)
		if len(out) == topN {
			break
		}
	}
	return out, nil
}

// accessorySelection finishes candidates with the longest-unworn eligible
// accessories, capped by the gender profile's limit. Accessories never join
// the scoring cross product.
func accessorySelection(eligible []model.WardrobeItem, limit int) []model.WardrobeItem {
	if len(eligible) == 0 || limit <= 0 {
		return nil
	}
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}
	return append([]model.WardrobeItem(nil), eligible...)
}

// bucketEligible applies the hard filters and groups survivors by role:
// season overlap with the context, condition not damaged, and role
// applicability for the gender profile. Each role list is then capped to
// the most recently unworn items.
func (p *Planner) bucketEligible(items []model.WardrobeItem, planCtx model.Context) map[model.GarmentRole][]model.WardrobeItem {
	season := planCtx.Season()
	byRole := make(map[model.GarmentRole][]model.WardrobeItem)
	for _, it := range items {
		if it.Condition == model.ConditionDamaged {
			continue
		}
		if !it.InSeason(season) && !p.shellRole(it.Role) {
			continue
		}
		if it.Role == model.RoleDress && planCtx.Gender == model.GenderMale {
			continue
		}
		byRole[it.Role] = append(byRole[it.Role], it)
	}

	for role, list := range byRole {
		if len(list) <= p.roleCap {
			// Still sort for deterministic enumeration order.
			sortByLeastRecentlyWorn(list)
			continue
		}
		sortByLeastRecentlyWorn(list)
		byRole[role] = list[:p.roleCap]
	}
	return byRole
}

// shellRole reports whether a role is kept through the season filter;
// outerwear and accessories get their season handled in weather scoring
// where partial credit applies.
func (p *Planner) shellRole(r model.GarmentRole) bool {
	return r == model.RoleOuterwear || r == model.RoleAccessory
}

// sortByLeastRecentlyWorn orders items so the longest-unworn come first,
// breaking ties by wear count and then ID for stability.
func sortByLeastRecentlyWorn(list []model.WardrobeItem) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].LastWorn.Equal(list[j].LastWorn) {
			return list[i].LastWorn.Before(list[j].LastWorn)
		}
		if list[i].WearCount != list[j].WearCount {
			return list[i].WearCount < list[j].WearCount
		}
		return list[i].ID.String() < list[j].ID.String()
	})
}

// enumerate produces every role-complete combination. Female profiles get
// both the dress-based shape and the top/bottom shape. Outerwear joins the
// cross product only in cold contexts; otherwise it stays optional and
// absent rather than exploding the candidate space.
func (p *Planner) enumerate(byRole map[model.GarmentRole][]model.WardrobeItem, req rules.Requirements, planCtx model.Context) []model.OutfitCandidate {
	cold := planCtx.Weather != nil && planCtx.Weather.TemperatureF < scoring.DefaultBands().ColdBelowF ||
		planCtx.Weather == nil && planCtx.Season() == model.SeasonWinter

	var shapes [][]model.GarmentRole
	base := []model.GarmentRole{model.RoleTop, model.RoleBottom, model.RoleShoes}
	shapes = append(shapes, base)
	if len(req.DressSatisfies) > 0 {
		shapes = append(shapes, []model.GarmentRole{model.RoleDress, model.RoleShoes})
	}

	var combos []model.OutfitCandidate
	for _, shape := range shapes {
		roleSet := shape
		if cold && len(byRole[model.RoleOuterwear]) > 0 {
			roleSet = append(append([]model.GarmentRole{}, shape...), model.RoleOuterwear)
		}
		combos = p.crossProduct(combos, byRole, roleSet)
	}

	// Enforce the role invariant defensively; an incomplete combination
	// must never reach scoring.
	complete := combos[:0]
	for _, c := range combos {
		if req.Satisfied(c) {
			complete = append(complete, c)
		}
	}
	return complete
}

// crossProduct appends every combination over the given role lists.
func (p *Planner) crossProduct(acc []model.OutfitCandidate, byRole map[model.GarmentRole][]model.WardrobeItem, roles []model.GarmentRole) []model.OutfitCandidate {
	for _, role := range roles {
		if len(byRole[role]) == 0 {
			return acc // a required role has no items; no combos from this shape
		}
	}

	idx := make([]int, len(roles))
	for {
		items := make(map[model.GarmentRole]model.WardrobeItem, len(roles))
		for i, role := range roles {
			items[role] = byRole[role][idx[i]]
		}
		acc = append(acc, model.OutfitCandidate{Items: items})

		// Advance the mixed-radix counter.
		pos := len(roles) - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < len(byRole[roles[pos]]) {
				break
			}
			idx[pos] = 0
			pos--
		}
		if pos < 0 {
			return acc
		}
	}
}

// scoreAll scores candidates in parallel batches and fills in totals and
// breakdowns. Final ordering happens single-threaded in Plan so results
// stay deterministic regardless of scheduling.
func (p *Planner) scoreAll(ctx context.Context, combos []model.OutfitCandidate, planCtx model.Context, profile preference.Profile) ([]model.OutfitCandidate, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)

	for i := range combos {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: panic scoring candidate: %v", scoring.ErrScoring, r)
				}
			}()
			if gctx.Err() != nil {
				return gctx.Err()
			}
			total, breakdown, err := p.scorer.Score(combos[i], planCtx, profile)
			if err != nil {
				return err
			}
			combos[i].Score = total
			combos[i].Breakdown = breakdown
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return combos, nil
}

func countItems(byRole map[model.GarmentRole][]model.WardrobeItem) int {
	n := 0
	for _, list := range byRole {
		n += len(list)
	}
	return n
}
