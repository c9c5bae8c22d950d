// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strings"
)

// StatsHandler serves wardrobe statistics.
type StatsHandler struct {
	deps Dependencies
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(deps Dependencies) *StatsHandler {
	return &StatsHandler{deps: deps}
}

type statsResponse struct {
	TotalItems   int            `json:"total_items"`
	ByRole       map[string]int `json:"by_role"`
	DamagedItems int            `json:"damaged_items"`
	AvgWearCount float64        `json:"avg_wear_count"`
	Outfits      int            `json:"outfits"`
	Feedbacks    int            `json:"feedbacks"`
}

// HandleGetStats handles GET /stats/{userID} requests.
func (h *StatsHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_stats"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := strings.TrimPrefix(r.URL.Path, "/stats/")
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing user id")))
		return
	}

	stats, err := h.deps.Stats(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "stats_failed", err)
		return
	}
	byRole := make(map[string]int, len(stats.ByRole))
	for role, n := range stats.ByRole {
		byRole[string(role)] = n
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalItems:   stats.TotalItems,
		ByRole:       byRole,
		DamagedItems: stats.DamagedItems,
		AvgWearCount: stats.AvgWearCount,
		Outfits:      stats.Outfits,
		Feedbacks:    stats.Feedbacks,
	})
}
