// Package ladder manages a challenge ladder: an ordered list of positions
// where a lower-placed participant challenges one above and takes the
// defender's place on a win.
package ladder

import (
	"fmt"
	"sort"

	"github.com/okian/bracketry/internal/domain/identity"
	"github.com/okian/bracketry/internal/domain/model"
	"github.com/okian/bracketry/internal/domain/standings"
)

// Settings configures a ladder.
type Settings struct {
	EventID string
	// MaxDistance limits how many places above themselves a challenger may
	// reach. Zero means unlimited.
	MaxDistance int
}

// Ladder is an immutable ladder. Positions[0] is the top rung.
type Ladder struct {
	EventID     string              `json:"event_id"`
	MaxDistance int                 `json:"max_distance"`
	Positions   []model.Participant `json:"positions"`
}

// NewLadder seeds participants by rating.
func NewLadder(participants []model.Participant, s Settings) (Ladder, error) {
	if s.MaxDistance < 0 {
		return Ladder{}, fmt.Errorf("%w: max distance must not be negative", model.ErrInvalidConfiguration)
	}
	if err := model.ValidateRoster(participants); err != nil {
		return Ladder{}, err
	}
	return Ladder{EventID: s.EventID, MaxDistance: s.MaxDistance, Positions: model.SortByRating(participants)}, nil
}

// Position returns the 1-based rung of id.
func (l Ladder) Position(id string) (int, bool) {
	for i, p := range l.Positions {
		if p.ID == id {
			return i + 1, true
		}
	}
	return 0, false
}

// ValidateChallenge checks a proposed challenge against the ladder and the
// open (scheduled or in progress) ladder matches.
func (l Ladder) ValidateChallenge(challengerID, defenderID string, open []model.MatchStub) error {
	if challengerID == defenderID {
		return fmt.Errorf("%w: %s cannot challenge themselves", model.ErrInvalidChallenge, challengerID)
	}
	cp, ok := l.Position(challengerID)
	if !ok {
		return fmt.Errorf("%w: challenger %s is not on the ladder", model.ErrInvalidChallenge, challengerID)
	}
	dp, ok := l.Position(defenderID)
	if !ok {
		return fmt.Errorf("%w: defender %s is not on the ladder", model.ErrInvalidChallenge, defenderID)
	}
	if dp >= cp {
		return fmt.Errorf("%w: defender %s (rung %d) is not above challenger %s (rung %d)",
			model.ErrInvalidChallenge, defenderID, dp, challengerID, cp)
	}
	if l.MaxDistance > 0 && cp-dp > l.MaxDistance {
		return fmt.Errorf("%w: %s may challenge at most %d rungs up, not %d",
			model.ErrInvalidChallenge, challengerID, l.MaxDistance, cp-dp)
	}
	for _, m := range open {
		if m.Format != model.FormatLadder || (m.Status != model.StatusScheduled && m.Status != model.StatusInProgress) {
			continue
		}
		for _, id := range []string{challengerID, defenderID} {
			if m.Involves(id) {
				return fmt.Errorf("%w: %s already has an open challenge (%s)", model.ErrInvalidChallenge, id, m.ID)
			}
		}
	}
	return nil
}

// Challenge validates and creates the challenge match. The challenger is
// always side A. number distinguishes repeated challenges between the same
// pair and becomes the match number.
func (l Ladder) Challenge(challengerID, defenderID string, number int, open []model.MatchStub) (model.MatchStub, error) {
	if number < 1 {
		return model.MatchStub{}, fmt.Errorf("%w: challenge number must be positive", model.ErrInvalidConfiguration)
	}
	if err := l.ValidateChallenge(challengerID, defenderID, open); err != nil {
		return model.MatchStub{}, err
	}
	cp, _ := l.Position(challengerID)
	dp, _ := l.Position(defenderID)
	return identity.Stamp(model.MatchStub{
		EventID:     l.EventID,
		Format:      model.FormatLadder,
		SideA:       l.Positions[cp-1].Snapshot(),
		SideB:       l.Positions[dp-1].Snapshot(),
		RoundNumber: number,
		MatchNumber: number,
		Status:      model.StatusScheduled,
	}, fmt.Sprintf("c%d", number)), nil
}

// ApplyResult returns the ladder after a completed challenge. A winning
// challenger takes the defender's rung and everyone in between drops one.
// Any other outcome, or a challenger already above the defender, leaves the
// ladder unchanged.
func (l Ladder) ApplyResult(m model.MatchStub) (Ladder, error) {
	if m.Status != model.StatusCompleted {
		return l, fmt.Errorf("%w: match %s is not completed", model.ErrInvalidConfiguration, m.ID)
	}
	cp, ok := l.Position(m.SideA.ID)
	if !ok {
		return l, fmt.Errorf("%w: challenger %s", model.ErrNotFound, m.SideA.ID)
	}
	dp, ok := l.Position(m.SideB.ID)
	if !ok {
		return l, fmt.Errorf("%w: defender %s", model.ErrNotFound, m.SideB.ID)
	}
	next := Ladder{EventID: l.EventID, MaxDistance: l.MaxDistance, Positions: append([]model.Participant(nil), l.Positions...)}
	if m.Outcome() != model.OutcomeSideA || dp >= cp {
		return next, nil
	}
	challenger := next.Positions[cp-1]
	copy(next.Positions[dp:cp], l.Positions[dp-1:cp-1])
	next.Positions[dp-1] = challenger
	return next, nil
}

// ApplyResults folds completed ladder matches in match-number order.
func (l Ladder) ApplyResults(matches []model.MatchStub) (Ladder, error) {
	ordered := make([]model.MatchStub, 0, len(matches))
	for _, m := range matches {
		if m.Format == model.FormatLadder && m.Status == model.StatusCompleted {
			ordered = append(ordered, m)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].MatchNumber < ordered[j].MatchNumber })
	cur := l
	for _, m := range ordered {
		next, err := cur.ApplyResult(m)
		if err != nil {
			return l, err
		}
		cur = next
	}
	return cur, nil
}

// Standings reports the ladder in rung order with each participant's
// record. Rank is the rung.
func (l Ladder) Standings(matches []model.MatchStub) ([]model.StandingRow, error) {
	rows, err := standings.Compute(l.Positions, matches)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.StandingRow, len(rows))
	for _, r := range rows {
		byID[r.Participant.ID] = r
	}
	out := make([]model.StandingRow, len(l.Positions))
	for i, p := range l.Positions {
		r := byID[p.ID]
		r.Rank = i + 1
		r.TiedWithPrevious = false
		out[i] = r
	}
	return out, nil
}
