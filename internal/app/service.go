// Package service plays the caller of the engine: it runs a generator,
// gates the output through the validator and persists the matches.
package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	repository "github.com/okian/bracketry/internal/adapters/repository"
	"github.com/okian/bracketry/internal/domain/engine"
	"github.com/okian/bracketry/internal/domain/model"
	"github.com/okian/bracketry/internal/domain/validate"
	"github.com/okian/bracketry/pkg/logger"
	"github.com/okian/bracketry/pkg/metrics"
)

// Service implements the API dependencies for schedule generation.
type Service struct {
	mu sync.RWMutex

	store     repository.Store
	ownsStore bool
	flight    singleflight.Group

	// Configuration
	maxParticipants    int
	workers            int
	defaultSwissMethod string

	started bool
	logger  logger.Logger
}

// Generation is a generated schedule and how much of it was newly stored.
type Generation struct {
	engine.Output
	Saved  int  `json:"saved"`
	Shared bool `json:"shared,omitempty"`
}

// Advance reports a bracket after its results were applied.
type Advance struct {
	Result   model.Result `json:"result"`
	Updated  int          `json:"updated"`
	Champion string       `json:"champion,omitempty"`
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the match store. Without it Start creates a memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxParticipants caps the roster size of a request.
func WithMaxParticipants(n int) Option {
	return func(s *Service) {
		if n > 1 {
			s.maxParticipants = n
		}
	}
}

// WithGenerationWorkers bounds concurrent generation in GenerateSeason.
func WithGenerationWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithDefaultSwissMethod sets the pairing method used when a Swiss request
// names none.
func WithDefaultSwissMethod(method string) Option {
	return func(s *Service) {
		if method != "" {
			s.defaultSwissMethod = method
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxParticipants:    512,
		workers:            4,
		defaultSwissMethod: "adjacent",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start prepares the store and logger.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.ownsStore = true
		s.logger.Info(ctx, "using memory store")
	}

	s.started = true
	s.logger.Info(ctx, "schedule service started",
		logger.Int("workers", s.workers),
		logger.Int("maxParticipants", s.maxParticipants),
		logger.String("defaultSwissMethod", s.defaultSwissMethod),
	)
	return nil
}

// Stop releases the store when the service created it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.ownsStore {
		_ = s.store.Close()
		s.store, s.ownsStore = nil, false
	}
	s.started = false
	s.logger.Info(context.Background(), "schedule service stopped")
}

func (s *Service) deps() (repository.Store, logger.Logger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.store, s.logger, nil
}

// Generate runs the generator for req against the event's stored matches,
// validates the output and saves it. Concurrent calls for the same event,
// format and scope share one run.
func (s *Service) Generate(ctx context.Context, req engine.Request) (Generation, error) {
	store, log, err := s.deps()
	if err != nil {
		return Generation{}, err
	}
	if err := s.checkRequest(req); err != nil {
		return Generation{}, err
	}
	if req.Format == model.FormatSwiss && req.Swiss.Method == "" {
		req.Swiss.Method = s.defaultSwissMethod
	}

	v, err, shared := s.flight.Do(flightKey(req), func() (any, error) {
		return s.generate(ctx, store, log, req)
	})
	if shared {
		metrics.RecordGenerationShared()
	}
	if err != nil {
		return Generation{}, err
	}
	g := v.(Generation)
	g.Shared = shared
	return g, nil
}

func (s *Service) checkRequest(req engine.Request) error {
	if strings.TrimSpace(req.EventID) == "" {
		return fmt.Errorf("%w: event id must not be empty", model.ErrInvalidConfiguration)
	}
	if len(req.Participants) > s.maxParticipants {
		return fmt.Errorf("%w: %d participants exceeds the limit of %d",
			model.ErrInvalidConfiguration, len(req.Participants), s.maxParticipants)
	}
	return nil
}

// flightKey identifies a schedule slot: one event, format and scope.
func flightKey(req engine.Request) string {
	scope := ""
	switch req.Format {
	case model.FormatFixedBox, model.FormatRotatingBox:
		scope = fmt.Sprintf("box%d/w%d", req.Box.BoxNumber, req.Box.WeekNumber)
	case model.FormatPool:
		scope = strconv.FormatBool(req.Pool.Medal)
	case model.FormatLadder:
		scope = req.Ladder.ChallengerID + ">" + req.Ladder.DefenderID
	case model.FormatKingOfCourt:
		if req.KingOfCourt.State != nil {
			scope = strconv.Itoa(req.KingOfCourt.State.Round)
		}
	}
	return strings.Join([]string{req.EventID, string(req.Format), scope}, "|")
}

func (s *Service) generate(ctx context.Context, store repository.Store, log logger.Logger, req engine.Request) (Generation, error) {
	start := time.Now()
	format := string(req.Format)
	fields := []logger.Field{logger.String("event_id", req.EventID), logger.String("format", format)}

	prior, err := store.Matches(ctx, req.EventID)
	if err != nil {
		return Generation{}, fmt.Errorf("load prior matches: %w", err)
	}
	req.Prior = prior

	out, err := engine.Generate(req)
	if err != nil {
		log.Warn(ctx, "generation rejected", append(fields, logger.Error(err))...)
		return Generation{}, err
	}
	if out.Result.Status == model.ResultInsufficientParticipants {
		metrics.RecordInsufficient(format)
		log.Info(ctx, "not enough participants to generate", append(fields, logger.Int("participants", len(req.Participants)))...)
		return Generation{Output: out}, nil
	}

	if report := validate.Validate(out.Expect, out.Result); !report.OK() {
		metrics.RecordValidationFailure(format)
		log.Error(ctx, "engine defect: generated schedule failed validation",
			append(fields, logger.Any("violations", report.Violations))...)
		return Generation{}, report.Err()
	}
	for _, w := range out.Result.Warnings {
		metrics.RecordWarning(format, w.Code)
		log.Warn(ctx, w.Message, append(fields, logger.String("code", w.Code), logger.Strings("side_ids", w.SideIDs))...)
	}

	saved, err := store.SaveMatches(ctx, out.Result.Matches)
	if err != nil {
		return Generation{}, fmt.Errorf("save schedule: %w", err)
	}
	metrics.RecordSchedule(format, len(out.Result.Matches), float64(time.Since(start).Microseconds())/1000)
	log.Info(ctx, "schedule generated", append(fields,
		logger.Int("matches", len(out.Result.Matches)),
		logger.Int("saved", saved),
		logger.Int("rounds", len(out.Result.Rounds)),
	)...)
	return Generation{Output: out, Saved: saved}, nil
}

// GenerateSeason generates several schedules, typically one per box, with
// at most the configured number running at once. The first error cancels
// the rest.
func (s *Service) GenerateSeason(ctx context.Context, reqs []engine.Request) ([]Generation, error) {
	if _, _, err := s.deps(); err != nil {
		return nil, err
	}
	out := make([]Generation, len(reqs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, req := range reqs {
		g.Go(func() error {
			gen, err := s.Generate(gCtx, req)
			if err != nil {
				return fmt.Errorf("schedule %d (%s): %w", i, req.Format, err)
			}
			out[i] = gen
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Matches returns the stored matches of an event.
func (s *Service) Matches(ctx context.Context, eventID string) ([]model.MatchStub, error) {
	store, _, err := s.deps()
	if err != nil {
		return nil, err
	}
	return store.Matches(ctx, eventID)
}

// RecordResult stores a result for a match of eventID. It stands in for
// the external result entry.
func (s *Service) RecordResult(ctx context.Context, eventID, matchID string, status model.MatchStatus, scores []model.GameScore) (model.MatchStub, error) {
	store, log, err := s.deps()
	if err != nil {
		return model.MatchStub{}, err
	}
	m, err := store.Match(ctx, matchID)
	if err != nil {
		return model.MatchStub{}, err
	}
	if m.EventID != eventID {
		return model.MatchStub{}, fmt.Errorf("%w: match %s in event %s", model.ErrNotFound, matchID, eventID)
	}
	m, err = store.RecordResult(ctx, matchID, status, scores)
	if err != nil {
		log.Warn(ctx, "result rejected", logger.String("match_id", matchID), logger.Error(err))
		return model.MatchStub{}, err
	}
	log.Debug(ctx, "result recorded", logger.String("match_id", matchID), logger.String("status", string(status)))
	return m, nil
}

// AdvanceBracket rebuilds the bracket of req from the stored results and
// writes the sides that became known into the stored matches.
func (s *Service) AdvanceBracket(ctx context.Context, req engine.Request) (Advance, error) {
	store, log, err := s.deps()
	if err != nil {
		return Advance{}, err
	}
	prior, err := store.Matches(ctx, req.EventID)
	if err != nil {
		return Advance{}, fmt.Errorf("load matches: %w", err)
	}
	req.Prior = prior

	b, err := engine.Bracket(req)
	if err != nil {
		return Advance{}, err
	}
	stored := make(map[string]model.MatchStub, len(prior))
	for _, m := range prior {
		stored[m.ID] = m
	}
	updated := 0
	for _, m := range b.Matches {
		cur, ok := stored[m.ID]
		if !ok || (cur.SideA.ID == m.SideA.ID && cur.SideB.ID == m.SideB.ID) {
			continue
		}
		if err := store.UpdateSides(ctx, m.ID, m.SideA, m.SideB); err != nil {
			return Advance{}, fmt.Errorf("advance %s: %w", m.ID, err)
		}
		updated++
	}
	metrics.RecordBracketAdvance(updated)

	adv := Advance{Result: b.Result(), Updated: updated}
	adv.Champion, _ = b.Champion()
	log.Info(ctx, "bracket advanced",
		logger.String("event_id", req.EventID),
		logger.Int("updated", updated),
		logger.String("champion", adv.Champion),
	)
	return adv, nil
}

// Standings computes the table of an event from its stored matches.
func (s *Service) Standings(ctx context.Context, req engine.Request) (engine.Table, error) {
	store, _, err := s.deps()
	if err != nil {
		return engine.Table{}, err
	}
	start := time.Now()
	if req.Prior, err = store.Matches(ctx, req.EventID); err != nil {
		return engine.Table{}, fmt.Errorf("load matches: %w", err)
	}
	t, err := engine.Standings(req)
	if err != nil {
		return engine.Table{}, err
	}
	metrics.RecordStandings(string(req.Format), float64(time.Since(start).Microseconds())/1000)
	return t, nil
}

// Promotions plans the moves between boxes from the stored matches.
func (s *Service) Promotions(ctx context.Context, req engine.PromotionRequest) (engine.PromotionPlan, error) {
	store, log, err := s.deps()
	if err != nil {
		return engine.PromotionPlan{}, err
	}
	if req.Prior, err = store.Matches(ctx, req.EventID); err != nil {
		return engine.PromotionPlan{}, fmt.Errorf("load matches: %w", err)
	}
	plan, err := engine.Promotions(req)
	if err != nil {
		return engine.PromotionPlan{}, err
	}
	log.Info(ctx, "promotion planned", logger.String("event_id", req.EventID), logger.Int("movements", len(plan.Movements)))
	return plan, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":         s.started,
		"workers":         s.workers,
		"maxParticipants": s.maxParticipants,
	}
	if s.started {
		if n, err := s.store.EventCount(ctx); err == nil {
			stats["events"] = n
			metrics.UpdateStoredEvents(n)
		}
	}
	return stats
}
