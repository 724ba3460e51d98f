// Package kingofcourt schedules king-of-the-court play: winners move up a
// court towards court 1, losers move down, and the bottom court exchanges
// its loser with the head of the waiting queue.
package kingofcourt

import (
	"fmt"

	"github.com/okian/bracketry/internal/domain/identity"
	"github.com/okian/bracketry/internal/domain/model"
)

// Settings configures a session.
type Settings struct {
	EventID string
	// Courts in play; capped at the number of full courts the field allows.
	Courts int
}

// Court is one court's current matchup. Court 1 is the king court.
type Court struct {
	Number  int        `json:"number"`
	SideA   model.Side `json:"side_a"`
	SideB   model.Side `json:"side_b"`
	MatchID string     `json:"match_id"`
}

// State is the session between rounds. It is a value; Advance returns a
// new one.
type State struct {
	EventID         string       `json:"event_id"`
	Round           int          `json:"round"`
	Courts          []Court      `json:"courts"`
	Queue           []model.Side `json:"queue"`
	NextMatchNumber int          `json:"next_match_number"`
}

// Seed fills courts top-down by rating and queues the rest in seed order.
func Seed(participants []model.Participant, s Settings) (State, model.Result, error) {
	if s.Courts < 1 {
		return State{}, model.Result{}, fmt.Errorf("%w: at least one court is required", model.ErrInvalidConfiguration)
	}
	if err := model.ValidateRoster(participants); err != nil {
		return State{}, model.Result{}, err
	}
	if len(participants) < 2 {
		return State{}, model.Insufficient(model.FormatKingOfCourt, s.EventID), nil
	}
	courts := min(s.Courts, len(participants)/2)

	seeded := model.SortByRating(participants)
	sides := make([]model.Side, len(seeded))
	for i, p := range seeded {
		sides[i] = p.Snapshot()
	}
	st := State{EventID: s.EventID, Round: 1, NextMatchNumber: 1}
	for c := 0; c < courts; c++ {
		st.Courts = append(st.Courts, Court{Number: c + 1, SideA: sides[2*c], SideB: sides[2*c+1]})
	}
	st.Queue = sides[2*courts:]
	return st.schedule()
}

// Winners reads the current round's court winners from completed matches.
// Every court must have a decided result.
func (st State) Winners(matches []model.MatchStub) (map[int]string, error) {
	byID := make(map[string]model.MatchStub, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
	}
	winners := make(map[int]string, len(st.Courts))
	for _, c := range st.Courts {
		m, ok := byID[c.MatchID]
		if !ok {
			return nil, fmt.Errorf("%w: court %d match %s", model.ErrNotFound, c.Number, c.MatchID)
		}
		id, ok := m.WinnerID()
		if !ok {
			return nil, fmt.Errorf("%w: court %d has no decided result", model.ErrInvalidConfiguration, c.Number)
		}
		winners[c.Number] = id
	}
	return winners, nil
}

// Advance rotates sides according to the winner of every court and
// schedules the next round.
func Advance(st State, winners map[int]string) (State, model.Result, error) {
	n := len(st.Courts)
	if n == 0 {
		return State{}, model.Result{}, fmt.Errorf("%w: session has no courts", model.ErrInvalidConfiguration)
	}
	won := make([]model.Side, n)
	lost := make([]model.Side, n)
	for i, c := range st.Courts {
		id, ok := winners[c.Number]
		switch {
		case !ok:
			return State{}, model.Result{}, fmt.Errorf("%w: no winner for court %d", model.ErrInvalidConfiguration, c.Number)
		case id == c.SideA.ID:
			won[i], lost[i] = c.SideA, c.SideB
		case id == c.SideB.ID:
			won[i], lost[i] = c.SideB, c.SideA
		default:
			return State{}, model.Result{}, fmt.Errorf("%w: %s is not playing on court %d", model.ErrInvalidConfiguration, id, c.Number)
		}
	}

	queue := append([]model.Side(nil), st.Queue...)
	// The bottom court's second slot goes to the queue head when anyone is
	// waiting; its loser joins the back of the queue.
	bottom := lost[n-1]
	if len(queue) > 0 {
		bottom = queue[0]
		queue = append(queue[1:], lost[n-1])
	}

	next := State{
		EventID:         st.EventID,
		Round:           st.Round + 1,
		Queue:           queue,
		NextMatchNumber: st.NextMatchNumber,
	}
	for i := 0; i < n; i++ {
		a, b := won[0], bottom
		if i > 0 {
			a = lost[i-1]
		}
		if i < n-1 {
			b = won[i+1]
		}
		next.Courts = append(next.Courts, Court{Number: i + 1, SideA: a, SideB: b})
	}
	return next.schedule()
}

func (st State) schedule() (State, model.Result, error) {
	res := model.Result{Status: model.ResultOK, Format: model.FormatKingOfCourt, EventID: st.EventID}
	round := model.Round{Number: st.Round}
	for i := range st.Courts {
		c := &st.Courts[i]
		m := identity.Stamp(model.MatchStub{
			EventID:     st.EventID,
			Format:      model.FormatKingOfCourt,
			SideA:       c.SideA,
			SideB:       c.SideB,
			RoundNumber: st.Round,
			MatchNumber: st.NextMatchNumber,
			Status:      model.StatusScheduled,
		}, fmt.Sprintf("r%dc%d", st.Round, c.Number))
		st.NextMatchNumber++
		c.MatchID = m.ID
		sa, sb := m.SideA, m.SideB
		round.Pairings = append(round.Pairings, model.Pairing{SideA: &sa, SideB: &sb, MatchID: m.ID})
		res.Matches = append(res.Matches, m)
	}
	for i := range st.Queue {
		side := st.Queue[i]
		round.Pairings = append(round.Pairings, model.Pairing{SideA: &side})
	}
	res.Rounds = []model.Round{round}
	return st, res, nil
}
