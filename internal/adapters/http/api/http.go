// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/garb/internal/adapters/catalog"
	"github.com/okian/garb/internal/domain/model"
	"github.com/okian/garb/internal/domain/rotation"
	"github.com/okian/garb/internal/orchestrator"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Recommend runs a full planning request.
	Recommend(ctx context.Context, req orchestrator.Request) (*orchestrator.Recommendation, error)

	// SubmitFeedback pushes a feedback event for async processing.
	// Duplicates and backpressure surface as feedback package sentinels.
	SubmitFeedback(ctx context.Context, ev model.FeedbackEvent) error

	// RunRotation analyzes the user's wardrobe for the current season.
	RunRotation(ctx context.Context, userID string) (rotation.Report, error)

	// Stats summarizes the user's wardrobe.
	Stats(ctx context.Context, userID string) (catalog.Stats, error)

	// Status reports the most recent run's terminal state.
	Status() (orchestrator.State, time.Time, string)

	// FeedbackBacklog reports queued, unapplied feedback events.
	FeedbackBacklog(ctx context.Context) int
}

// Server wires HTTP routes for the business API.
type Server struct {
	recommendHandler *RecommendHandler
	feedbackHandler  *FeedbackHandler
	rotationHandler  *RotationHandler
	statsHandler     *StatsHandler
	statusHandler    *StatusHandler
	healthHandler    *HealthHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		recommendHandler: NewRecommendHandler(deps),
		feedbackHandler:  NewFeedbackHandler(deps),
		rotationHandler:  NewRotationHandler(deps),
		statsHandler:     NewStatsHandler(deps),
		statusHandler:    NewStatusHandler(deps),
		healthHandler:    NewHealthHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/recommend", MetricsMiddleware(s.recommendHandler.HandleRecommend, "recommend"))
	mux.HandleFunc("/feedback", MetricsMiddleware(s.feedbackHandler.HandlePostFeedback, "feedback"))
	mux.HandleFunc("/rotation", MetricsMiddleware(s.rotationHandler.HandleRunRotation, "rotation"))
	mux.HandleFunc("/stats/", MetricsMiddleware(s.statsHandler.HandleGetStats, "stats"))
	mux.HandleFunc("/status", MetricsMiddleware(s.statusHandler.HandleGetStatus, "status"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ackResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
