// Package repository defines the match store contract and its in-memory
// implementation.
package repository

import (
	"context"
	"sort"

	"github.com/okian/bracketry/internal/domain/model"
)

// Store persists generated matches and the results entered against them.
type Store interface {
	// SaveMatches writes a generated schedule in one step. Matches whose id
	// is already stored are left untouched, so a retried save converges.
	// Returns the number of matches newly written.
	SaveMatches(ctx context.Context, matches []model.MatchStub) (int, error)

	// Match returns one match by canonical id.
	// Returns ErrNotFound if the id is unknown.
	Match(ctx context.Context, id string) (model.MatchStub, error)

	// Matches returns every match of an event ordered by round, match
	// number and id.
	Matches(ctx context.Context, eventID string) ([]model.MatchStub, error)

	// CompletedMatches is Matches filtered to completed matches.
	CompletedMatches(ctx context.Context, eventID string) ([]model.MatchStub, error)

	// RecordResult sets the status and scores of a match. Re-recording the
	// same completed result is a no-op; a different one is rejected with
	// ErrConflictingResult.
	RecordResult(ctx context.Context, id string, status model.MatchStatus, scores []model.GameScore) (model.MatchStub, error)

	// UpdateSides fills the sides of a bracket match once its feeders are
	// decided.
	UpdateSides(ctx context.Context, id string, sideA, sideB model.Side) error

	// EventCount returns the number of events with at least one match.
	EventCount(ctx context.Context) (int, error)

	Close() error
}

// SortMatches orders matches by round, match number, then id.
func SortMatches(ms []model.MatchStub) {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i], ms[j]
		if a.RoundNumber != b.RoundNumber {
			return a.RoundNumber < b.RoundNumber
		}
		if a.MatchNumber != b.MatchNumber {
			return a.MatchNumber < b.MatchNumber
		}
		return a.ID < b.ID
	})
}

// CheckResult validates a result against the stored match. It returns
// done=true when the same completed result is already recorded.
func CheckResult(stored model.MatchStub, status model.MatchStatus, scores []model.GameScore) (done bool, err error) {
	switch status {
	case model.StatusInProgress, model.StatusCompleted, model.StatusCancelled:
	default:
		return false, ErrInvalidResult
	}
	if status == model.StatusCompleted && (stored.SideA.IsPlaceholder() || stored.SideB.IsPlaceholder()) {
		return false, ErrInvalidResult
	}
	if stored.Status == model.StatusCompleted {
		if status == model.StatusCompleted && sameScores(stored.Scores, scores) {
			return true, nil
		}
		return false, ErrConflictingResult
	}
	return false, nil
}

// CheckSides rejects changing the sides of a completed match.
func CheckSides(stored model.MatchStub, sideA, sideB model.Side) error {
	if stored.Status != model.StatusCompleted {
		return nil
	}
	if stored.SideA.ID != sideA.ID || stored.SideB.ID != sideB.ID {
		return ErrConflictingResult
	}
	return nil
}

func sameScores(a, b []model.GameScore) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
