// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load(ctx) layers defaults, optional YAML file, and GARB_ env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Scoring weights for the constraint scorer components.
	HarmonyWeight    float64 `koanf:"harmony_weight"`
	FormalityWeight  float64 `koanf:"formality_weight"`
	WeatherWeight    float64 `koanf:"weather_weight"`
	PreferenceWeight float64 `koanf:"preference_weight"`

	// Temperature bands translating weather into a season expectation.
	ColdBelowF float64 `koanf:"cold_below_f"`
	WarmAboveF float64 `koanf:"warm_above_f"`

	// ColorFamilies maps extra color names onto hue families, extending
	// the embedded harmony table, e.g. "oxblood: red".
	ColorFamilies map[string]string `koanf:"color_families"`

	// LearningRate for the preference feedback update rule.
	LearningRate float64 `koanf:"learning_rate"`

	// RoleCap bounds each role's filtered list before candidate
	// enumeration; the most recently unworn items survive.
	RoleCap int `koanf:"role_cap"`

	// MinScore drops candidates below the threshold; 0 disables it.
	MinScore float64 `koanf:"min_score"`

	// TopN is the default number of ranked candidates returned.
	TopN int `koanf:"top_n"`

	// PlannerParallelism bounds concurrent candidate scoring.
	PlannerParallelism int `koanf:"planner_parallelism"`

	// Collaborator call handling for the orchestrator.
	StepTimeout  time.Duration `koanf:"step_timeout"`
	StepRetries  int           `koanf:"step_retries"`
	RetryBackoff time.Duration `koanf:"retry_backoff"`

	// RequestDeadline bounds one whole planning request.
	RequestDeadline time.Duration `koanf:"request_deadline"`

	// Scheduler cadences. DailyAt is a local HH:MM clock time.
	DailyAt          string        `koanf:"daily_at"`
	SeasonalInterval time.Duration `koanf:"seasonal_interval"`
	TickInterval     time.Duration `koanf:"tick_interval"`

	// DefaultUser is the wardrobe owner scheduled runs plan for.
	DefaultUser string `koanf:"default_user"`

	// DonateAfterSeasons flags items unworn this many consecutive
	// seasons during rotation analysis.
	DonateAfterSeasons int `koanf:"donate_after_seasons"`

	// FeedbackQueueSize bounds the in-memory feedback queue.
	FeedbackQueueSize int `koanf:"feedback_queue_size"`

	// FeedbackWorkers sets the number of feedback application workers.
	FeedbackWorkers int `koanf:"feedback_workers"`

	// DatabaseURL enables the Postgres catalog when set; empty keeps the
	// in-memory catalog.
	DatabaseURL string `koanf:"database_url"`

	// WeatherAPIKey and WeatherLocation configure the weather source.
	// An empty key degrades planning context instead of failing it.
	WeatherAPIKey   string `koanf:"weather_api_key"`
	WeatherLocation string `koanf:"weather_location"`

	// CalendarPath points at the JSON events file; empty means no
	// calendar signal.
	CalendarPath string `koanf:"calendar_path"`

	// GeminiAPIKey enables the hosted rationale narrator when set.
	GeminiAPIKey string `koanf:"gemini_api_key"`
	GeminiModel  string `koanf:"gemini_model"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		HarmonyWeight:      0.35,
		FormalityWeight:    0.25,
		WeatherWeight:      0.20,
		PreferenceWeight:   0.20,
		ColdBelowF:         50,
		WarmAboveF:         70,
		LearningRate:       0.1,
		RoleCap:            8,
		MinScore:           0,
		TopN:               3,
		PlannerParallelism: runtime.NumCPU(),
		StepTimeout:        5 * time.Second,
		StepRetries:        2,
		RetryBackoff:       200 * time.Millisecond,
		RequestDeadline:    30 * time.Second,
		DailyAt:            "07:00",
		SeasonalInterval:   7 * 24 * time.Hour,
		TickInterval:       time.Minute,
		DefaultUser:        "default",
		DonateAfterSeasons: 4,
		FeedbackQueueSize:  1024,
		FeedbackWorkers:    4,
		WeatherLocation:    "New York",
		GeminiModel:        "gemini-2.0-flash",
	}
}
