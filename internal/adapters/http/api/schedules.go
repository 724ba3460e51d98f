package api

import (
	"context"
	"net/http"

	service "github.com/okian/bracketry/internal/app"
	"github.com/okian/bracketry/internal/domain/engine"
)

// ScheduleDependencies defines the generation operations.
type ScheduleDependencies interface {
	Generate(ctx context.Context, req engine.Request) (service.Generation, error)
	GenerateSeason(ctx context.Context, reqs []engine.Request) ([]service.Generation, error)
}

// SchedulesHandler handles generation requests.
type SchedulesHandler struct {
	deps ScheduleDependencies
}

// NewSchedulesHandler creates a new schedules handler.
func NewSchedulesHandler(deps ScheduleDependencies) *SchedulesHandler {
	return &SchedulesHandler{deps: deps}
}

// HandlePostSchedule handles POST /schedules requests.
func (h *SchedulesHandler) HandlePostSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_schedule"
	var req engine.Request
	if err := decode(w, r, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if err := normalizeFormat(op, &req.Format); err != nil {
		writeFailure(w, err)
		return
	}
	gen, err := h.deps.Generate(r.Context(), req)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	status := http.StatusCreated
	if gen.Saved == 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, gen)
}

type seasonRequest struct {
	Schedules []engine.Request `json:"schedules"`
}

type seasonResponse struct {
	Schedules []service.Generation `json:"schedules"`
}

// HandlePostSeason handles POST /seasons requests: several schedules, one
// per box, generated together.
func (h *SchedulesHandler) HandlePostSeason(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_season"
	var req seasonRequest
	if err := decode(w, r, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	for i := range req.Schedules {
		if err := normalizeFormat(op, &req.Schedules[i].Format); err != nil {
			writeFailure(w, err)
			return
		}
	}
	gens, err := h.deps.GenerateSeason(r.Context(), req.Schedules)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, seasonResponse{Schedules: gens})
}
