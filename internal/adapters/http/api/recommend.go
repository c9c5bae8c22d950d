// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/garb/internal/domain/model"
	"github.com/okian/garb/internal/orchestrator"
)

// RecommendHandler handles outfit recommendation requests.
type RecommendHandler struct {
	deps Dependencies
}

// NewRecommendHandler creates a new recommend handler.
func NewRecommendHandler(deps Dependencies) *RecommendHandler {
	return &RecommendHandler{deps: deps}
}

// recommendRequest mirrors the schema for POST /recommend.
type recommendRequest struct {
	UserID   string `json:"user_id"`
	Gender   string `json:"gender,omitempty"`
	Occasion string `json:"occasion,omitempty"`
	TopN     int    `json:"top_n,omitempty"`
}

func (r recommendRequest) validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("missing user_id")
	}
	if r.Occasion != "" && !model.Occasion(r.Occasion).Valid() {
		return errors.New("unknown occasion")
	}
	if r.Gender != "" && !model.Gender(r.Gender).Valid() {
		return errors.New("unknown gender")
	}
	return nil
}

type outfitItem struct {
	ID           string `json:"id"`
	Role         string `json:"role"`
	PrimaryColor string `json:"primary_color"`
	Pattern      string `json:"pattern,omitempty"`
	Formality    string `json:"formality"`
	Material     string `json:"material,omitempty"`
}

type outfitResponse struct {
	Score     float64              `json:"score"`
	Breakdown model.ScoreBreakdown `json:"breakdown"`
	Rationale string               `json:"rationale"`
	Items     []outfitItem         `json:"items"`
}

type recommendResponse struct {
	OutfitID   string           `json:"outfit_id"`
	Occasion   string           `json:"occasion"`
	Weather    *weatherSummary  `json:"weather,omitempty"`
	Events     []string         `json:"events,omitempty"`
	Confidence float64          `json:"confidence"`
	Degraded   bool             `json:"degraded"`
	Outfits    []outfitResponse `json:"outfits"`
}

type weatherSummary struct {
	TemperatureF float64 `json:"temperature_f"`
	Condition    string  `json:"condition,omitempty"`
}

// HandleRecommend handles POST /recommend requests.
func (h *RecommendHandler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	const op = "api.recommend"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	rec, err := h.deps.Recommend(r.Context(), orchestrator.Request{
		UserID:   req.UserID,
		Gender:   model.Gender(req.Gender),
		Occasion: model.Occasion(req.Occasion),
		TopN:     req.TopN,
	})
	if err != nil {
		status := http.StatusInternalServerError
		code := "planning_failed"
		switch {
		case errors.Is(err, orchestrator.ErrEmptyWardrobe):
			status, code = http.StatusConflict, "empty_wardrobe"
		case errors.Is(err, orchestrator.ErrNoCandidates):
			status, code = http.StatusConflict, "no_candidates"
		case errors.Is(err, orchestrator.ErrContextUnavailable):
			status, code = http.StatusServiceUnavailable, "context_unavailable"
		case errors.Is(err, orchestrator.ErrTimeout):
			status, code = http.StatusGatewayTimeout, "timeout"
		}
		writeError(w, status, code, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecommendResponse(rec))
}

func toRecommendResponse(rec *orchestrator.Recommendation) recommendResponse {
	resp := recommendResponse{
		OutfitID:   rec.OutfitID.String(),
		Occasion:   string(rec.Context.Occasion),
		Events:     rec.Context.Events,
		Confidence: rec.Confidence,
		Degraded:   rec.Degraded,
	}
	if rec.Context.Weather != nil {
		resp.Weather = &weatherSummary{
			TemperatureF: rec.Context.Weather.TemperatureF,
			Condition:    rec.Context.Weather.Condition,
		}
	}
	for _, c := range rec.Outfits {
		out := outfitResponse{
			Score:     c.Score,
			Breakdown: c.Breakdown,
			Rationale: c.Rationale,
		}
		for _, it := range c.AllItems() {
			out.Items = append(out.Items, outfitItem{
				ID:           it.ID.String(),
				Role:         string(it.Role),
				PrimaryColor: it.PrimaryColor,
				Pattern:      string(it.Pattern),
				Formality:    it.Formality.String(),
				Material:     it.Material,
			})
		}
		resp.Outfits = append(resp.Outfits, out)
	}
	return resp
}
