package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if GARB_CONFIG is set
//  3. env (prefix GARB_)
func Load(_ context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("GARB_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: GARB_ADDR, GARB_ROLE_CAP, ...
	// Map env keys like GARB_ROLE_CAP -> role_cap (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("GARB_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "garb_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return fmt.Errorf("%w: learning_rate must be in (0,1]", ErrInvalidConfig)
	}
	sum := c.HarmonyWeight + c.FormalityWeight + c.WeatherWeight + c.PreferenceWeight
	if sum <= 0 {
		return fmt.Errorf("%w: scoring weights must sum to a positive value", ErrInvalidConfig)
	}
	if c.ColdBelowF >= c.WarmAboveF {
		return fmt.Errorf("%w: cold_below_f must be less than warm_above_f", ErrInvalidConfig)
	}
	if c.RoleCap <= 0 {
		return fmt.Errorf("%w: role_cap must be positive", ErrInvalidConfig)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("%w: top_n must be positive", ErrInvalidConfig)
	}
	if c.PlannerParallelism <= 0 {
		return fmt.Errorf("%w: planner_parallelism must be positive", ErrInvalidConfig)
	}
	if c.FeedbackQueueSize <= 0 || c.FeedbackWorkers <= 0 {
		return fmt.Errorf("%w: feedback queue size and workers must be positive", ErrInvalidConfig)
	}
	if _, err := parseClock(c.DailyAt); err != nil {
		return fmt.Errorf("%w: daily_at: %w", ErrInvalidConfig, err)
	}
	return nil
}

// parseClock parses an HH:MM local clock time into minutes past midnight.
func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("out of range clock time %q", s)
	}
	return h*60 + m, nil
}

// DailyAtMinutes returns the configured daily run time as minutes past
// midnight. Config validation guarantees the format.
func (c *Config) DailyAtMinutes() int {
	mins, _ := parseClock(c.DailyAt)
	return mins
}
