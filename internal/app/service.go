// Package service wires the catalog, collaborators, orchestrator,
// feedback pool, and scheduler into one lifecycle and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/okian/garb/internal/adapters/calendar"
	"github.com/okian/garb/internal/adapters/catalog"
	"github.com/okian/garb/internal/adapters/feedback"
	"github.com/okian/garb/internal/adapters/narrator"
	"github.com/okian/garb/internal/adapters/weather"
	"github.com/okian/garb/internal/config"
	"github.com/okian/garb/internal/domain/harmony"
	"github.com/okian/garb/internal/domain/model"
	"github.com/okian/garb/internal/domain/planner"
	"github.com/okian/garb/internal/domain/preference"
	"github.com/okian/garb/internal/domain/rotation"
	"github.com/okian/garb/internal/domain/scoring"
	"github.com/okian/garb/internal/orchestrator"
	"github.com/okian/garb/internal/scheduler"
	"github.com/okian/garb/pkg/logger"
)

// applierAdapter adapts the orchestrator's feedback path to the
// worker pool's Applier interface.
type applierAdapter struct {
	orch *orchestrator.Orchestrator
}

func (a *applierAdapter) Apply(ctx context.Context, ev feedback.Event) error {
	return a.orch.ApplyFeedback(ctx, ev)
}

// Service implements the API dependencies for the outfit system.
type Service struct {
	mu sync.Mutex

	cfg *config.Config

	// Core components
	catalog  catalog.Catalog
	orch     *orchestrator.Orchestrator
	pool     *feedback.Pool
	sched    *scheduler.Scheduler
	narrator narrator.Narrator

	// Injected collaborators, for tests and alternate deployments.
	weatherSrc  weather.Source
	calendarSrc calendar.Source

	// State
	started     bool
	cancelSched context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCatalog injects a catalog, bypassing the config-driven choice.
func WithCatalog(c catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithWeatherSource injects a weather source.
func WithWeatherSource(src weather.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.weatherSrc = src
		}
	}
}

// WithCalendarSource injects a calendar source.
func WithCalendarSource(src calendar.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.calendarSrc = src
		}
	}
}

// WithNarrator injects a narrator, bypassing the config-driven choice.
func WithNarrator(n narrator.Narrator) Option {
	return func(s *Service) {
		if n != nil {
			s.narrator = n
		}
	}
}

// New constructs a Service from configuration. Collaborators are built
// lazily in Start so a constructed Service is cheap to throw away.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting outfit service")

	if s.catalog == nil {
		if s.cfg.DatabaseURL != "" {
			pg, err := catalog.ConnectPostgres(ctx, s.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			if err := pg.Migrate(ctx); err != nil {
				pg.Close()
				return err
			}
			s.catalog = pg
			s.logger.Info(ctx, "using postgres catalog")
		} else {
			s.catalog = catalog.NewMemory()
			s.logger.Info(ctx, "using in-memory catalog")
		}
	}

	if s.weatherSrc == nil {
		s.weatherSrc = weather.NewOpenWeatherMap(s.cfg.WeatherAPIKey)
	}
	if s.calendarSrc == nil {
		s.calendarSrc = calendar.NewFileSource(s.cfg.CalendarPath)
	}
	if s.narrator == nil {
		if s.cfg.GeminiAPIKey != "" {
			g, err := narrator.NewGemini(ctx, s.cfg.GeminiAPIKey, s.cfg.GeminiModel)
			if err != nil {
				return err
			}
			s.narrator = g
			s.logger.Info(ctx, "using gemini narrator")
		} else {
			s.narrator = narrator.Noop{}
		}
	}

	engine := harmony.NewEngine(harmony.WithFamilyAliases(s.cfg.ColorFamilies))
	scorer := scoring.NewScorer(engine,
		scoring.WithWeights(scoring.Weights{
			Harmony:    s.cfg.HarmonyWeight,
			Formality:  s.cfg.FormalityWeight,
			Weather:    s.cfg.WeatherWeight,
			Preference: s.cfg.PreferenceWeight,
		}),
		scoring.WithTemperatureBands(scoring.TemperatureBands{
			ColdBelowF: s.cfg.ColdBelowF,
			WarmAboveF: s.cfg.WarmAboveF,
		}),
	)
	prefs := preference.NewStore(preference.WithLearningRate(s.cfg.LearningRate))
	pl := planner.New(scorer,
		planner.WithRoleCap(s.cfg.RoleCap),
		planner.WithMinScore(s.cfg.MinScore),
		planner.WithParallelism(s.cfg.PlannerParallelism),
	)

	s.orch = orchestrator.New(
		s.catalog, s.weatherSrc, s.calendarSrc, s.narrator, pl, prefs,
		orchestrator.WithLocation(s.cfg.WeatherLocation),
		orchestrator.WithStepTimeout(s.cfg.StepTimeout),
		orchestrator.WithStepRetries(s.cfg.StepRetries),
		orchestrator.WithRetryBackoff(s.cfg.RetryBackoff),
		orchestrator.WithRequestDeadline(s.cfg.RequestDeadline),
		orchestrator.WithRotationAnalyzer(
			rotation.NewAnalyzer(rotation.WithDonateAfterSeasons(s.cfg.DonateAfterSeasons)),
		),
	)

	s.pool = feedback.NewPool(&applierAdapter{orch: s.orch},
		feedback.WithWorkers(s.cfg.FeedbackWorkers),
		feedback.WithPoolQueueOptions(feedback.WithQueueCapacity(s.cfg.FeedbackQueueSize)),
	)
	s.pool.Start(ctx)

	schedCtx, cancel := context.WithCancel(context.Background())
	s.cancelSched = cancel
	s.sched = scheduler.New(scheduler.WithTickInterval(s.cfg.TickInterval))
	s.sched.Add("daily_recommendation",
		scheduler.DailyAt{Minutes: s.cfg.DailyAtMinutes(), Location: time.Local},
		s.dailyRecommendation,
	)
	s.sched.Add("seasonal_rotation",
		scheduler.Every{Interval: s.cfg.SeasonalInterval},
		s.seasonalRotation,
	)
	go s.sched.Run(schedCtx)

	s.started = true
	s.logger.Info(ctx, "outfit service started",
		logger.String("user", s.cfg.DefaultUser),
		logger.Int("feedbackWorkers", s.cfg.FeedbackWorkers),
		logger.Int("feedbackQueueSize", s.cfg.FeedbackQueueSize),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping outfit service")

	if s.cancelSched != nil {
		s.cancelSched()
	}
	if s.sched != nil {
		s.sched.Wait()
	}

	if s.pool != nil {
		drainCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := s.pool.Shutdown(drainCtx); err != nil {
			s.logger.Warn(ctx, "feedback pool did not drain", logger.Error(err))
		}
		cancel()
	}

	if s.narrator != nil {
		_ = s.narrator.Close()
	}
	if s.catalog != nil {
		s.catalog.Close()
	}

	s.started = false
	s.logger.Info(ctx, "outfit service stopped")
}

// dailyRecommendation plans an outfit for the configured user.
func (s *Service) dailyRecommendation(ctx context.Context) error {
	rec, err := s.orch.Recommend(ctx, orchestrator.Request{
		UserID: s.cfg.DefaultUser,
		TopN:   s.cfg.TopN,
	})
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "daily recommendation ready",
		logger.String("outfitID", rec.OutfitID.String()),
		logger.Float64("confidence", rec.Confidence),
		logger.Bool("degraded", rec.Degraded),
	)
	return nil
}

// seasonalRotation runs the rotation analysis for the configured user.
func (s *Service) seasonalRotation(ctx context.Context) error {
	report, err := s.orch.RunRotation(ctx, s.cfg.DefaultUser)
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "seasonal rotation complete",
		logger.String("season", string(report.Season)),
		logger.Int("active", len(report.Active)),
		logger.Int("storage", len(report.Storage)),
		logger.Int("donate", len(report.Donate)),
	)
	return nil
}

// Recommend runs a full planning request.
func (s *Service) Recommend(ctx context.Context, req orchestrator.Request) (*orchestrator.Recommendation, error) {
	return s.orch.Recommend(ctx, req)
}

// SubmitFeedback pushes a feedback event into the async pool.
func (s *Service) SubmitFeedback(ctx context.Context, ev model.FeedbackEvent) error {
	return s.pool.Submit(ctx, ev)
}

// RunRotation analyzes the user's wardrobe for the current season.
func (s *Service) RunRotation(ctx context.Context, userID string) (rotation.Report, error) {
	return s.orch.RunRotation(ctx, userID)
}

// Stats summarizes the user's wardrobe.
func (s *Service) Stats(ctx context.Context, userID string) (catalog.Stats, error) {
	return s.catalog.Stats(ctx, userID)
}

// Status reports the most recent run's terminal state.
func (s *Service) Status() (orchestrator.State, time.Time, string) {
	return s.orch.Status()
}

// FeedbackBacklog reports queued, unapplied feedback events.
func (s *Service) FeedbackBacklog(ctx context.Context) int {
	return s.pool.Backlog(ctx)
}

// Catalog exposes the backing store for seeding and CLI use.
func (s *Service) Catalog() catalog.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog
}
