// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	repository "github.com/okian/bracketry/internal/adapters/repository"
	service "github.com/okian/bracketry/internal/app"
	"github.com/okian/bracketry/internal/domain/engine"
	"github.com/okian/bracketry/internal/domain/model"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Generate(ctx context.Context, req engine.Request) (service.Generation, error)
	GenerateSeason(ctx context.Context, reqs []engine.Request) ([]service.Generation, error)
	Matches(ctx context.Context, eventID string) ([]model.MatchStub, error)
	RecordResult(ctx context.Context, eventID, matchID string, status model.MatchStatus, scores []model.GameScore) (model.MatchStub, error)
	AdvanceBracket(ctx context.Context, req engine.Request) (service.Advance, error)
	Standings(ctx context.Context, req engine.Request) (engine.Table, error)
	Promotions(ctx context.Context, req engine.PromotionRequest) (engine.PromotionPlan, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	schedulesHandler *SchedulesHandler
	eventsHandler    *EventsHandler
	standingsHandler *StandingsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		schedulesHandler: NewSchedulesHandler(deps),
		eventsHandler:    NewEventsHandler(deps),
		standingsHandler: NewStandingsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/schedules", MetricsMiddleware(s.schedulesHandler.HandlePostSchedule, "schedules"))
	mux.HandleFunc("/seasons", MetricsMiddleware(s.schedulesHandler.HandlePostSeason, "seasons"))
	mux.HandleFunc("/standings", MetricsMiddleware(s.standingsHandler.HandlePostStandings, "standings"))
	mux.HandleFunc("/promotions", MetricsMiddleware(s.standingsHandler.HandlePostPromotions, "promotions"))
	mux.HandleFunc("GET /events/{id}/matches", MetricsMiddleware(s.eventsHandler.HandleGetMatches, "matches"))
	mux.HandleFunc("POST /events/{id}/results", MetricsMiddleware(s.eventsHandler.HandlePostResult, "results"))
	mux.HandleFunc("POST /events/{id}/advance", MetricsMiddleware(s.eventsHandler.HandlePostAdvance, "advance"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	if cs, ok := w.(codeSetter); ok {
		cs.setErrorCode(code)
	}
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps an engine, store or service error to a status and code.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, "body_too_large"
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "method_not_allowed"
	case errors.Is(err, model.ErrInvalidConfiguration):
		return http.StatusBadRequest, "invalid_configuration"
	case errors.Is(err, repository.ErrInvalidResult):
		return http.StatusBadRequest, "invalid_result"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrConflictingResult):
		return http.StatusConflict, "conflicting_result"
	case errors.Is(err, model.ErrBracketNotReady):
		return http.StatusConflict, "bracket_not_ready"
	case errors.Is(err, model.ErrInvalidChallenge):
		return http.StatusUnprocessableEntity, "invalid_challenge"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "not_started"
	case errors.Is(err, model.ErrValidationFailure):
		return http.StatusInternalServerError, "validation_failure"
	}
	return http.StatusInternalServerError, "internal_error"
}

// decode reads a JSON body into v, rejecting unknown methods and bodies.
func decode(w http.ResponseWriter, r *http.Request, op string, v any) error {
	if r.Method != http.MethodPost {
		return NewKind(op, ErrMethodNotAllowed)
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return WrapKind(op, ErrBodyTooLarge, err)
		}
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}

// normalizeFormat canonicalizes a format tag sent by a client.
func normalizeFormat(op string, f *model.Format) error {
	parsed, err := model.ParseFormat(string(*f))
	if err != nil {
		return WrapKind(op, ErrBadRequest, fmt.Errorf("format: %w", err))
	}
	*f = parsed
	return nil
}
