package elimination

import (
	"fmt"
	"sort"

	"github.com/okian/bracketry/internal/domain/model"
)

// Target is a slot filled by an advancement.
type Target struct {
	MatchID string `json:"match_id"`
	Side    string `json:"side"`
	SideID  string `json:"side_id"`
}

// Advancement describes what a result did to the bracket.
type Advancement struct {
	MatchID  string   `json:"match_id"`
	WinnerID string   `json:"winner_id"`
	LoserID  string   `json:"loser_id"`
	Targets  []Target `json:"targets,omitempty"`
	// Champion is set when the final was decided.
	Champion string `json:"champion,omitempty"`
	// NoOp marks a repeated call with an already applied result.
	NoOp bool `json:"no_op,omitempty"`
}

// AdvanceWinner applies the result of matchID and returns the updated
// bracket. Repeating an applied result is a no-op; a different winner for a
// decided match or an occupied slot is ErrConflictingResult.
func (b *Bracket) AdvanceWinner(matchID, winnerID string) (*Bracket, Advancement, error) {
	i, ok := b.index[matchID]
	if !ok {
		return nil, Advancement{}, fmt.Errorf("%w: bracket match %s", model.ErrNotFound, matchID)
	}
	m := b.Matches[i]
	if m.SideA.IsPlaceholder() || m.SideB.IsPlaceholder() {
		return nil, Advancement{}, fmt.Errorf("%w: match %s still waits for a feeder result", model.ErrInvalidConfiguration, matchID)
	}
	var winner, loser model.Side
	switch winnerID {
	case m.SideA.ID:
		winner, loser = m.SideA, m.SideB
	case m.SideB.ID:
		winner, loser = m.SideB, m.SideA
	default:
		return nil, Advancement{}, fmt.Errorf("%w: %q does not play in match %s", model.ErrInvalidConfiguration, winnerID, matchID)
	}

	adv := Advancement{MatchID: matchID, WinnerID: winner.ID, LoserID: loser.ID}
	if prev, done := b.decided[matchID]; done {
		if prev != winnerID {
			return nil, Advancement{}, fmt.Errorf("%w: match %s already won by %s", model.ErrConflictingResult, matchID, prev)
		}
		adv.NoOp = true
	}

	next := b.clone()
	targets := make([]string, 0, len(b.feeds[matchID]))
	for to := range b.feeds[matchID] {
		targets = append(targets, to)
	}
	sort.Strings(targets)
	for _, to := range targets {
		attrs := b.feeds[matchID][to].Properties.Attributes
		mover := winner
		if attrs[attrOutcome] == outcomeLoser {
			mover = loser
		}
		t := &next.Matches[next.index[to]]
		slot := &t.SideA
		if attrs[attrSide] == sideB {
			slot = &t.SideB
		}
		if !slot.IsPlaceholder() && slot.ID != mover.ID {
			return nil, Advancement{}, fmt.Errorf("%w: slot %s of %s already holds %s", model.ErrConflictingResult, attrs[attrSide], to, slot.ID)
		}
		*slot = mover
		adv.Targets = append(adv.Targets, Target{MatchID: to, Side: attrs[attrSide], SideID: mover.ID})
	}
	next.decided[matchID] = winnerID
	if m.RoundNumber == b.NumRounds && matchID != b.thirdID {
		adv.Champion = winner.ID
	}
	return next, adv, nil
}

// ApplyResults advances every completed, decided bracket match in play
// order. Matches from other events or scopes are ignored.
func (b *Bracket) ApplyResults(matches []model.MatchStub) (*Bracket, error) {
	byID := make(map[string]model.MatchStub, len(matches))
	for _, m := range matches {
		if _, ok := b.index[m.ID]; ok {
			byID[m.ID] = m
		}
	}
	order, err := b.PlayOrder()
	if err != nil {
		return nil, err
	}
	current := b
	for _, id := range order {
		m, ok := byID[id]
		if !ok {
			continue
		}
		winner, decided := m.WinnerID()
		if !decided || winner == "" {
			continue
		}
		next, _, err := current.AdvanceWinner(id, winner)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// Champion returns the winner of the final once decided.
func (b *Bracket) Champion() (string, bool) {
	if b.NumRounds == 0 {
		return "", false
	}
	final := b.positions[b.NumRounds][0]
	id, ok := b.decided[final]
	return id, ok
}
