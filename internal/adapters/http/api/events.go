package api

import (
	"context"
	"net/http"
	"strings"

	service "github.com/okian/bracketry/internal/app"
	"github.com/okian/bracketry/internal/domain/engine"
	"github.com/okian/bracketry/internal/domain/model"
)

// EventDependencies defines the per-event operations.
type EventDependencies interface {
	Matches(ctx context.Context, eventID string) ([]model.MatchStub, error)
	RecordResult(ctx context.Context, eventID, matchID string, status model.MatchStatus, scores []model.GameScore) (model.MatchStub, error)
	AdvanceBracket(ctx context.Context, req engine.Request) (service.Advance, error)
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

type matchesResponse struct {
	EventID string            `json:"event_id"`
	Matches []model.MatchStub `json:"matches"`
}

// HandleGetMatches handles GET /events/{id}/matches requests.
func (h *EventsHandler) HandleGetMatches(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_matches"
	eventID := r.PathValue("id")
	matches, err := h.deps.Matches(r.Context(), eventID)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, matchesResponse{EventID: eventID, Matches: matches})
}

// resultRequest mirrors the body of POST /events/{id}/results.
type resultRequest struct {
	MatchID string            `json:"match_id"`
	Status  model.MatchStatus `json:"status"`
	Scores  []model.GameScore `json:"scores"`
}

// HandlePostResult handles POST /events/{id}/results requests.
func (h *EventsHandler) HandlePostResult(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_result"
	var req resultRequest
	if err := decode(w, r, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if strings.TrimSpace(req.MatchID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if req.Status == "" {
		req.Status = model.StatusCompleted
	}
	m, err := h.deps.RecordResult(r.Context(), r.PathValue("id"), req.MatchID, req.Status, req.Scores)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandlePostAdvance handles POST /events/{id}/advance requests. The body is
// the request the bracket was generated from.
func (h *EventsHandler) HandlePostAdvance(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_advance"
	var req engine.Request
	if err := decode(w, r, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if err := normalizeFormat(op, &req.Format); err != nil {
		writeFailure(w, err)
		return
	}
	req.EventID = r.PathValue("id")
	adv, err := h.deps.AdvanceBracket(r.Context(), req)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, adv)
}
