// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"time"
)

// StatusHandler reports the orchestrator's last run state.
type StatusHandler struct {
	deps Dependencies
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(deps Dependencies) *StatusHandler {
	return &StatusHandler{deps: deps}
}

type statusResponse struct {
	State           string `json:"state"`
	LastRun         string `json:"last_run,omitempty"`
	LastError       string `json:"last_error,omitempty"`
	FeedbackBacklog int    `json:"feedback_backlog"`
}

// HandleGetStatus handles GET /status requests.
func (h *StatusHandler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	state, lastRun, lastErr := h.deps.Status()
	resp := statusResponse{
		State:           string(state),
		LastError:       lastErr,
		FeedbackBacklog: h.deps.FeedbackBacklog(r.Context()),
	}
	if !lastRun.IsZero() {
		resp.LastRun = lastRun.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}
