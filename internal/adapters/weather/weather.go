// Package weather fetches current conditions for planning context.
//
// The production source is OpenWeatherMap queried in imperial units. A
// missing API key or a failed call degrades the planning context rather
// than failing the run; the orchestrator decides what degraded means.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/garb/internal/domain/model"
	"github.com/okian/garb/pkg/logger"
	"github.com/okian/garb/pkg/metrics"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Source provides current weather for a location.
type Source interface {
	Current(ctx context.Context, location string) (model.WeatherSnapshot, error)
}

// OpenWeatherMap is a Source backed by the OpenWeatherMap current
// weather endpoint.
type OpenWeatherMap struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     logger.Logger
}

// Option configures an OpenWeatherMap source.
type Option func(*OpenWeatherMap)

// WithBaseURL overrides the API endpoint. Tests point this at a local
// server.
func WithBaseURL(u string) Option {
	return func(s *OpenWeatherMap) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *OpenWeatherMap) {
		if c != nil {
			s.client = c
		}
	}
}

// NewOpenWeatherMap creates a weather source. The key may be empty; in
// that case every Current call returns ErrNoAPIKey.
func NewOpenWeatherMap(apiKey string, opts ...Option) *OpenWeatherMap {
	s := &OpenWeatherMap{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     logger.Get().Named("weather"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type owmResponse struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
}

// Current fetches current conditions in imperial units.
func (s *OpenWeatherMap) Current(ctx context.Context, location string) (model.WeatherSnapshot, error) {
	if s.apiKey == "" {
		return model.WeatherSnapshot{}, ErrNoAPIKey
	}

	q := url.Values{}
	q.Set("q", location)
	q.Set("appid", s.apiKey)
	q.Set("units", "imperial")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return model.WeatherSnapshot{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.RecordCollaboratorCall("weather", "error")
		return model.WeatherSnapshot{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordCollaboratorCall("weather", "error")
		return model.WeatherSnapshot{}, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	var body owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.RecordCollaboratorCall("weather", "error")
		return model.WeatherSnapshot{}, fmt.Errorf("%w: decode: %w", ErrFetch, err)
	}

	snap := model.WeatherSnapshot{TemperatureF: body.Main.Temp}
	if len(body.Weather) > 0 {
		snap.Condition = body.Weather[0].Main
	}
	metrics.RecordCollaboratorCall("weather", "ok")
	s.log.Debug(ctx, "weather fetched",
		logger.String("location", location),
		logger.Float64("temp_f", snap.TemperatureF),
		logger.String("condition", snap.Condition))
	return snap, nil
}
