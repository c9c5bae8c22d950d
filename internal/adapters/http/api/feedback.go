// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/garb/internal/adapters/feedback"
	"github.com/okian/garb/internal/domain/model"
)

// FeedbackHandler handles feedback submissions.
type FeedbackHandler struct {
	deps Dependencies
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(deps Dependencies) *FeedbackHandler {
	return &FeedbackHandler{deps: deps}
}

// feedbackRequest mirrors the schema for POST /feedback.
type feedbackRequest struct {
	EventID   string   `json:"event_id,omitempty"`
	OutfitID  string   `json:"outfit_id"`
	UserID    string   `json:"user_id"`
	Outcome   string   `json:"outcome"`
	Sentiment *float64 `json:"sentiment,omitempty"`
}

func (f feedbackRequest) validate() error {
	switch {
	case strings.TrimSpace(f.OutfitID) == "":
		return errors.New("missing outfit_id")
	case strings.TrimSpace(f.UserID) == "":
		return errors.New("missing user_id")
	case !model.FeedbackOutcome(f.Outcome).Valid():
		return errors.New("outcome must be accepted, rejected, or neutral")
	}
	if _, err := uuid.Parse(f.OutfitID); err != nil {
		return errors.New("invalid outfit_id; must be a UUID")
	}
	if f.EventID != "" {
		if _, err := uuid.Parse(f.EventID); err != nil {
			return errors.New("invalid event_id; must be a UUID")
		}
	}
	if f.Sentiment != nil && (*f.Sentiment < -1 || *f.Sentiment > 1) {
		return errors.New("sentiment must be within [-1, 1]")
	}
	return nil
}

// HandlePostFeedback handles POST /feedback requests.
func (h *FeedbackHandler) HandlePostFeedback(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_feedback"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Client-supplied event IDs make retries idempotent; absent one,
	// each submission counts as a fresh event.
	eventID := uuid.New()
	if req.EventID != "" {
		eventID = uuid.MustParse(req.EventID)
	}

	ev := model.FeedbackEvent{
		ID:         eventID,
		OutfitID:   uuid.MustParse(req.OutfitID),
		UserID:     req.UserID,
		Outcome:    model.FeedbackOutcome(req.Outcome),
		ReceivedAt: time.Now(),
	}
	if req.Sentiment != nil {
		ev.Sentiment = *req.Sentiment
		ev.HasSentiment = true
	}

	if err := h.deps.SubmitFeedback(r.Context(), ev); err != nil {
		if errors.Is(err, feedback.ErrDuplicate) {
			writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", ID: eventID.String()})
			return
		}
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ID: eventID.String()})
}
