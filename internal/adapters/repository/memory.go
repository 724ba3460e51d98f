package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/bracketry/internal/domain/model"
	"github.com/okian/bracketry/pkg/metrics"
)

// MemoryStore keeps matches in process memory. Every write happens under a
// single lock so a schedule is saved all at once or not at all.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]model.MatchStub
	byEvent map[string][]string
	closed  bool

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty store and starts its metrics updater.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:                  make(map[string]model.MatchStub),
		byEvent:               make(map[string][]string),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background updater. Later calls return ErrClosed.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
	})
	s.wg.Wait()
	return nil
}

// SaveMatches implements Store.SaveMatches.
func (s *MemoryStore) SaveMatches(_ context.Context, matches []model.MatchStub) (n int, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("save_matches", msSince(start), err) }()

	for _, m := range matches {
		if m.ID == "" || m.EventID == "" {
			return 0, ErrInvalidResult
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	for _, m := range matches {
		if _, ok := s.byID[m.ID]; ok {
			continue
		}
		s.byID[m.ID] = clone(m)
		s.byEvent[m.EventID] = append(s.byEvent[m.EventID], m.ID)
		n++
	}
	return n, nil
}

// Match implements Store.Match.
func (s *MemoryStore) Match(_ context.Context, id string) (model.MatchStub, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byID[id]
	if !ok {
		metrics.RecordError("repository", "", "", "not_found", "warning", 0)
		return model.MatchStub{}, ErrNotFound
	}
	return clone(m), nil
}

// Matches implements Store.Matches.
func (s *MemoryStore) Matches(_ context.Context, eventID string) ([]model.MatchStub, error) {
	return s.collect(eventID, func(model.MatchStub) bool { return true }), nil
}

// CompletedMatches implements Store.CompletedMatches.
func (s *MemoryStore) CompletedMatches(_ context.Context, eventID string) ([]model.MatchStub, error) {
	return s.collect(eventID, func(m model.MatchStub) bool { return m.Status == model.StatusCompleted }), nil
}

func (s *MemoryStore) collect(eventID string, keep func(model.MatchStub) bool) []model.MatchStub {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("matches", msSince(start), nil) }()

	s.mu.RLock()
	ids := s.byEvent[eventID]
	out := make([]model.MatchStub, 0, len(ids))
	for _, id := range ids {
		if m := s.byID[id]; keep(m) {
			out = append(out, clone(m))
		}
	}
	s.mu.RUnlock()

	SortMatches(out)
	return out
}

// RecordResult implements Store.RecordResult.
func (s *MemoryStore) RecordResult(_ context.Context, id string, status model.MatchStatus, scores []model.GameScore) (_ model.MatchStub, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("record_result", msSince(start), err) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[id]
	if !ok {
		return model.MatchStub{}, ErrNotFound
	}
	done, err := CheckResult(m, status, scores)
	if err != nil {
		return model.MatchStub{}, err
	}
	if !done {
		m.Status = status
		m.Scores = append([]model.GameScore(nil), scores...)
		s.byID[id] = m
	}
	return clone(m), nil
}

// UpdateSides implements Store.UpdateSides.
func (s *MemoryStore) UpdateSides(_ context.Context, id string, sideA, sideB model.Side) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("update_sides", msSince(start), err) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	if err := CheckSides(m, sideA, sideB); err != nil {
		return err
	}
	m.SideA, m.SideB = sideA, sideB
	s.byID[id] = m
	return nil
}

// EventCount implements Store.EventCount.
func (s *MemoryStore) EventCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byEvent), nil
}

// startMetricsUpdater periodically publishes the stored event gauge.
func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				n, _ := s.EventCount(ctx)
				metrics.UpdateStoredEvents(n)
			}
		}
	}()
}

func clone(m model.MatchStub) model.MatchStub {
	m.Scores = append([]model.GameScore(nil), m.Scores...)
	m.SideA.MemberPlayerIDs = append([]string(nil), m.SideA.MemberPlayerIDs...)
	m.SideB.MemberPlayerIDs = append([]string(nil), m.SideB.MemberPlayerIDs...)
	return m
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
