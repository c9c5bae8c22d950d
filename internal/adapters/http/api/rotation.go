// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/garb/internal/domain/rotation"
)

// RotationHandler handles seasonal rotation requests.
type RotationHandler struct {
	deps Dependencies
}

// NewRotationHandler creates a new rotation handler.
func NewRotationHandler(deps Dependencies) *RotationHandler {
	return &RotationHandler{deps: deps}
}

type rotationRequest struct {
	UserID string `json:"user_id"`
}

type rotationResponse struct {
	Season      string   `json:"season"`
	GeneratedAt string   `json:"generated_at"`
	Active      []string `json:"active"`
	Storage     []string `json:"storage"`
	Donate      []string `json:"donate"`
}

// HandleRunRotation handles POST /rotation requests.
func (h *RotationHandler) HandleRunRotation(w http.ResponseWriter, r *http.Request) {
	const op = "api.run_rotation"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req rotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing user_id")))
		return
	}

	report, err := h.deps.RunRotation(r.Context(), req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "rotation_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toRotationResponse(report))
}

func toRotationResponse(report rotation.Report) rotationResponse {
	ids := func(in []uuid.UUID) []string {
		out := make([]string, 0, len(in))
		for _, id := range in {
			out = append(out, id.String())
		}
		return out
	}
	return rotationResponse{
		Season:      string(report.Season),
		GeneratedAt: report.GeneratedAt.Format("2006-01-02"),
		Active:      ids(report.Active),
		Storage:     ids(report.Storage),
		Donate:      ids(report.Donate),
	}
}
