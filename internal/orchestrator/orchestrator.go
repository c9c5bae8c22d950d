// Package orchestrator drives a planning run through its phases:
// gather context, load the wardrobe, plan and rank candidates, then
// persist the pick. Collaborator calls are retried with exponential
// backoff; a degraded context lowers confidence instead of failing the
// run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/garb/internal/adapters/calendar"
	"github.com/okian/garb/internal/adapters/catalog"
	"github.com/okian/garb/internal/adapters/narrator"
	"github.com/okian/garb/internal/adapters/weather"
	"github.com/okian/garb/internal/domain/model"
	"github.com/okian/garb/internal/domain/planner"
	"github.com/okian/garb/internal/domain/preference"
	"github.com/okian/garb/internal/domain/rotation"
	"github.com/okian/garb/pkg/logger"
	"github.com/okian/garb/pkg/metrics"
)

// Default run configuration constants.
const (
	defaultStepTimeout     = 5 * time.Second
	defaultStepRetries     = 2
	defaultRetryBackoff    = 200 * time.Millisecond
	defaultRequestDeadline = 30 * time.Second
	defaultTopN            = 3

	// degradedPenalty is subtracted from confidence per missing
	// context signal.
	degradedPenalty = 0.15
)

// Request asks for outfit recommendations for one user.
type Request struct {
	UserID   string
	Gender   model.Gender
	Occasion model.Occasion // optional; calendar events win when unset
	TopN     int
}

// Recommendation is the outcome of a completed run.
type Recommendation struct {
	OutfitID   uuid.UUID
	Outfits    []model.OutfitCandidate
	Context    model.Context
	Confidence float64
	Degraded   bool
}

// Orchestrator coordinates collaborators for planning runs.
type Orchestrator struct {
	catalog  catalog.Catalog
	weather  weather.Source
	calendar calendar.Source
	narrator narrator.Narrator
	planner  *planner.Planner
	prefs    *preference.Store
	analyzer *rotation.Analyzer

	location        string
	stepTimeout     time.Duration
	stepRetries     int
	retryBackoff    time.Duration
	requestDeadline time.Duration
	now             func() time.Time

	mu        sync.RWMutex
	lastState State
	lastRunAt time.Time
	lastError string

	log logger.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLocation sets the weather lookup location.
func WithLocation(loc string) Option {
	return func(o *Orchestrator) {
		if loc != "" {
			o.location = loc
		}
	}
}

// WithStepTimeout bounds each collaborator call attempt.
func WithStepTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.stepTimeout = d
		}
	}
}

// WithStepRetries sets retry attempts after the first failure.
func WithStepRetries(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.stepRetries = n
		}
	}
}

// WithRetryBackoff sets the initial backoff interval between retries.
func WithRetryBackoff(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.retryBackoff = d
		}
	}
}

// WithRequestDeadline bounds one whole planning run.
func WithRequestDeadline(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.requestDeadline = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRotationAnalyzer overrides the seasonal rotation analyzer.
func WithRotationAnalyzer(a *rotation.Analyzer) Option {
	return func(o *Orchestrator) {
		if a != nil {
			o.analyzer = a
		}
	}
}

// New creates an Orchestrator.
func New(
	cat catalog.Catalog,
	weatherSrc weather.Source,
	calendarSrc calendar.Source,
	narr narrator.Narrator,
	pl *planner.Planner,
	prefs *preference.Store,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		catalog:         cat,
		weather:         weatherSrc,
		calendar:        calendarSrc,
		narrator:        narr,
		planner:         pl,
		prefs:           prefs,
		analyzer:        rotation.NewAnalyzer(),
		location:        "New York",
		stepTimeout:     defaultStepTimeout,
		stepRetries:     defaultStepRetries,
		retryBackoff:    defaultRetryBackoff,
		requestDeadline: defaultRequestDeadline,
		now:             time.Now,
		lastState:       StateIdle,
		log:             logger.Get().Named("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Status reports the most recent run's terminal state.
func (o *Orchestrator) Status() (State, time.Time, string) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastState, o.lastRunAt, o.lastError
}

// Recommend runs the full planning state machine for one request.
func (o *Orchestrator) Recommend(ctx context.Context, req Request) (*Recommendation, error) {
	ctx, cancel := context.WithTimeout(ctx, o.requestDeadline)
	defer cancel()

	start := o.now()
	state := StateIdle
	fail := func(err error) (*Recommendation, error) {
		o.transition(ctx, &state, StateFailed)
		o.finish(state, err)
		metrics.RecordPlanningRun("failed")
		o.audit(ctx, "planner", "recommend", false, err.Error(), o.now().Sub(start))
		if ctx.Err() != nil && !errors.Is(err, ErrTimeout) {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return nil, err
	}

	if req.TopN <= 0 {
		req.TopN = defaultTopN
	}

	// Phase 1: planning context.
	o.transition(ctx, &state, StateFetchingContext)
	planCtx, degraded, err := o.fetchContext(ctx, req)
	if err != nil {
		return fail(err)
	}

	// Phase 2: wardrobe.
	o.transition(ctx, &state, StateFetchingCandidates)
	items, err := o.fetchWardrobe(ctx, req.UserID)
	if err != nil {
		return fail(err)
	}

	// Phase 3: plan and rank.
	o.transition(ctx, &state, StatePlanning)
	profile := o.prefs.Get(ctx, req.UserID)
	outfits, err := o.plan(ctx, items, planCtx, profile, req.TopN)
	if err != nil {
		return fail(err)
	}

	top := outfits[0]
	o.narrate(ctx, &top, planCtx)

	outfitID, err := o.catalog.RecordOutfit(ctx, req.UserID, top, planCtx)
	if err != nil {
		return fail(err)
	}
	outfits[0] = top

	o.transition(ctx, &state, StateCompleted)
	o.finish(state, nil)
	metrics.RecordPlanningRun("completed")
	o.audit(ctx, "planner", "recommend", true,
		fmt.Sprintf("user=%s outfit=%s candidates=%d", req.UserID, outfitID, len(outfits)),
		o.now().Sub(start))

	confidence := top.Score
	if degraded > 0 {
		confidence -= degradedPenalty * float64(degraded)
		if confidence < 0 {
			confidence = 0
		}
	}

	return &Recommendation{
		OutfitID:   outfitID,
		Outfits:    outfits,
		Context:    planCtx,
		Confidence: confidence,
		Degraded:   degraded > 0,
	}, nil
}

// fetchContext assembles the planning context. Weather and calendar are
// fetched concurrently; failures degrade the context rather than failing
// the run, even when both sources are down. The run then proceeds on
// best-effort defaults with confidence lowered per missing signal.
func (o *Orchestrator) fetchContext(ctx context.Context, req Request) (model.Context, int, error) {
	now := o.now()

	var (
		snap      *model.WeatherSnapshot
		events    []calendar.Event
		windErr   error
		calendErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := o.retryStep(gctx, "weather", func(stepCtx context.Context) error {
			got, err := o.weather.Current(stepCtx, o.location)
			if err != nil {
				return err
			}
			snap = &got
			return nil
		})
		windErr = err
		return nil // degraded, not fatal
	})
	g.Go(func() error {
		err := o.retryStep(gctx, "calendar", func(stepCtx context.Context) error {
			got, err := o.calendar.EventsFor(stepCtx, now)
			if err != nil {
				return err
			}
			events = got
			return nil
		})
		calendErr = err
		return nil // degraded, not fatal
	})
	_ = g.Wait()

	if ctx.Err() != nil {
		return model.Context{}, 0, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	}

	degraded := 0
	if windErr != nil {
		degraded++
		o.log.Warn(ctx, "planning without weather", logger.Error(windErr))
	}
	if calendErr != nil {
		degraded++
		o.log.Warn(ctx, "planning without calendar", logger.Error(calendErr))
	}

	if windErr != nil && calendErr != nil {
		o.log.Warn(ctx, "planning on defaults only",
			logger.Error(fmt.Errorf("%w: weather: %w; calendar: %w",
				ErrContextUnavailable, windErr, calendErr)))
	}

	occasion := req.Occasion
	if !occasion.Valid() {
		occasion = calendar.OccasionFor(events, model.OccasionCasual)
	}

	return model.Context{
		UserID:    req.UserID,
		Occasion:  occasion,
		Gender:    req.Gender,
		Weather:   snap,
		Events:    calendar.Titles(events),
		Timestamp: now,
	}, degraded, nil
}

func (o *Orchestrator) fetchWardrobe(ctx context.Context, userID string) ([]model.WardrobeItem, error) {
	var items []model.WardrobeItem
	err := o.retryStep(ctx, "catalog", func(stepCtx context.Context) error {
		got, err := o.catalog.ListEligibleItems(stepCtx, userID)
		if err != nil {
			return err
		}
		items = got
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: user %s", ErrEmptyWardrobe, userID)
	}
	return items, nil
}

// plan filters out items already worn today when enough remain, then
// runs the planner.
func (o *Orchestrator) plan(ctx context.Context, items []model.WardrobeItem, planCtx model.Context, profile preference.Profile, topN int) ([]model.OutfitCandidate, error) {
	candidates, err := o.planner.Plan(ctx, o.excludeWornToday(ctx, planCtx.UserID, items), planCtx, profile, topN)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrScoring, err)
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	return candidates, nil
}

// excludeWornToday drops items already recorded today unless that would
// empty a role the wardrobe still needs.
func (o *Orchestrator) excludeWornToday(ctx context.Context, userID string, items []model.WardrobeItem) []model.WardrobeItem {
	worn, err := o.catalog.WornToday(ctx, userID, o.now())
	if err != nil || len(worn) == 0 {
		return items
	}
	wornSet := make(map[uuid.UUID]struct{}, len(worn))
	for _, id := range worn {
		wornSet[id] = struct{}{}
	}

	remaining := make([]model.WardrobeItem, 0, len(items))
	keptRoles := make(map[model.GarmentRole]bool)
	allRoles := make(map[model.GarmentRole]bool)
	for _, it := range items {
		allRoles[it.Role] = true
		if _, wornToday := wornSet[it.ID]; wornToday {
			continue
		}
		remaining = append(remaining, it)
		keptRoles[it.Role] = true
	}
	// Variety only when it keeps every role coverable.
	for role := range allRoles {
		if !keptRoles[role] {
			return items
		}
	}
	return remaining
}

// narrate asks the narrator to polish the top pick's rationale. A
// narration failure keeps the templated rationale.
func (o *Orchestrator) narrate(ctx context.Context, top *model.OutfitCandidate, planCtx model.Context) {
	if o.narrator == nil {
		return
	}
	stepCtx, cancel := context.WithTimeout(ctx, o.stepTimeout)
	defer cancel()

	text, err := o.narrator.Narrate(stepCtx, *top, planCtx)
	if err != nil {
		o.log.Debug(ctx, "narration skipped", logger.Error(err))
		return
	}
	top.Rationale = text
}

// ApplyFeedback resolves, validates, and applies one feedback event.
// It satisfies the feedback worker's Applier contract.
func (o *Orchestrator) ApplyFeedback(ctx context.Context, ev model.FeedbackEvent) error {
	start := o.now()
	if !ev.Outcome.Valid() {
		return fmt.Errorf("%w: outcome %q", ErrInvalidFeedback, ev.Outcome)
	}

	rec, err := o.catalog.Outfit(ctx, ev.OutfitID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return fmt.Errorf("%w: %w", ErrInvalidFeedback, err)
		}
		return err
	}
	if rec.UserID != ev.UserID {
		return fmt.Errorf("%w: outfit %s does not belong to user %s", ErrInvalidFeedback, ev.OutfitID, ev.UserID)
	}

	cand := model.OutfitCandidate{Items: make(map[model.GarmentRole]model.WardrobeItem, len(rec.Items))}
	for _, it := range rec.Items {
		cand.Items[it.Role] = it
	}

	if _, err := o.prefs.ApplyFeedback(ctx, ev.UserID, ev, cand); err != nil {
		if errors.Is(err, preference.ErrInvalidFeedback) {
			return fmt.Errorf("%w: %w", ErrInvalidFeedback, err)
		}
		return err
	}
	if err := o.catalog.RecordFeedback(ctx, ev); err != nil {
		return err
	}
	o.audit(ctx, "stylist", "apply_feedback", true,
		fmt.Sprintf("user=%s outfit=%s outcome=%s", ev.UserID, ev.OutfitID, ev.Outcome),
		o.now().Sub(start))
	return nil
}

// RunRotation analyzes the user's wardrobe for the current season and
// records the resulting report.
func (o *Orchestrator) RunRotation(ctx context.Context, userID string) (rotation.Report, error) {
	start := o.now()
	items, err := o.catalog.ListEligibleItems(ctx, userID)
	if err != nil {
		o.audit(ctx, "rotation", "analyze", false, err.Error(), o.now().Sub(start))
		return rotation.Report{}, err
	}

	report := o.analyzer.Analyze(items, o.now())
	if err := o.catalog.RecordRotation(ctx, userID, report); err != nil {
		o.audit(ctx, "rotation", "analyze", false, err.Error(), o.now().Sub(start))
		return rotation.Report{}, err
	}
	o.audit(ctx, "rotation", "analyze", true,
		fmt.Sprintf("user=%s active=%d storage=%d donate=%d",
			userID, len(report.Active), len(report.Storage), len(report.Donate)),
		o.now().Sub(start))
	return report, nil
}

// retryStep runs fn with a per-attempt timeout and exponential backoff.
func (o *Orchestrator) retryStep(ctx context.Context, name string, fn func(context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = o.retryBackoff

	attempt := 0
	op := func() error {
		attempt++
		stepCtx, cancel := context.WithTimeout(ctx, o.stepTimeout)
		defer cancel()
		return fn(stepCtx)
	}
	notify := func(err error, wait time.Duration) {
		metrics.RecordCollaboratorRetry(name)
		o.log.Debug(ctx, "collaborator call retrying",
			logger.String("collaborator", name),
			logger.Int("attempt", attempt),
			logger.Duration("wait", wait),
			logger.Error(err))
	}
	return backoff.RetryNotify(op,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(o.stepRetries)), ctx),
		notify)
}

// transition moves the state machine, logging the edge. Illegal moves
// indicate a bug and are logged loudly but not fatal.
func (o *Orchestrator) transition(ctx context.Context, cur *State, next State) {
	if !canTransition(*cur, next) {
		o.log.Error(ctx, "illegal state transition",
			logger.String("from", string(*cur)),
			logger.String("to", string(next)))
	}
	o.log.Debug(ctx, "state transition",
		logger.String("from", string(*cur)),
		logger.String("to", string(next)))
	*cur = next
}

func (o *Orchestrator) finish(state State, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastState = state
	o.lastRunAt = o.now()
	if err != nil {
		o.lastError = err.Error()
	} else {
		o.lastError = ""
	}
}

// audit records an agent action in both metrics and the catalog log.
func (o *Orchestrator) audit(ctx context.Context, agent, action string, success bool, detail string, took time.Duration) {
	metrics.RecordAgentAction(agent, action, success, float64(took.Milliseconds()))
	if err := o.catalog.RecordAgentAction(ctx, catalog.AgentAction{
		Agent:   agent,
		Action:  action,
		Success: success,
		Detail:  detail,
	}); err != nil {
		o.log.Debug(ctx, "agent action not recorded", logger.Error(err))
	}
}
