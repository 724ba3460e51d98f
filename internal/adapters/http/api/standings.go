package api

import (
	"context"
	"net/http"

	"github.com/okian/bracketry/internal/domain/engine"
)

// StandingsDependencies defines the standings operations.
type StandingsDependencies interface {
	Standings(ctx context.Context, req engine.Request) (engine.Table, error)
	Promotions(ctx context.Context, req engine.PromotionRequest) (engine.PromotionPlan, error)
}

// StandingsHandler handles standings and promotion requests.
type StandingsHandler struct {
	deps StandingsDependencies
}

// NewStandingsHandler creates a new standings handler.
func NewStandingsHandler(deps StandingsDependencies) *StandingsHandler {
	return &StandingsHandler{deps: deps}
}

// HandlePostStandings handles POST /standings requests.
func (h *StandingsHandler) HandlePostStandings(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_standings"
	var req engine.Request
	if err := decode(w, r, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if err := normalizeFormat(op, &req.Format); err != nil {
		writeFailure(w, err)
		return
	}
	table, err := h.deps.Standings(r.Context(), req)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// HandlePostPromotions handles POST /promotions requests.
func (h *StandingsHandler) HandlePostPromotions(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_promotions"
	var req engine.PromotionRequest
	if err := decode(w, r, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if err := normalizeFormat(op, &req.Format); err != nil {
		writeFailure(w, err)
		return
	}
	plan, err := h.deps.Promotions(r.Context(), req)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, plan)
}
