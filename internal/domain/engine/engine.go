// Package engine dispatches a generation request to the generator for its
// format and pairs the output with the expectation it must be validated
// against.
package engine

import (
	"fmt"
	"sort"

	"github.com/okian/bracketry/internal/domain/boxleague"
	"github.com/okian/bracketry/internal/domain/elimination"
	"github.com/okian/bracketry/internal/domain/kingofcourt"
	"github.com/okian/bracketry/internal/domain/ladder"
	"github.com/okian/bracketry/internal/domain/model"
	"github.com/okian/bracketry/internal/domain/poolplay"
	"github.com/okian/bracketry/internal/domain/roundrobin"
	"github.com/okian/bracketry/internal/domain/swiss"
	"github.com/okian/bracketry/internal/domain/validate"
)

// SwissOptions configures the next Swiss round.
type SwissOptions struct {
	// Method is adjacent (default) or slide.
	Method string `json:"method,omitempty"`
	// Round defaults to one past the highest prior round.
	Round int `json:"round,omitempty"`
	// ByeRecipients of earlier rounds. When nil they are derived from the
	// prior matches: anyone on the roster absent from a played round.
	ByeRecipients []string `json:"bye_recipients,omitempty"`
}

// EliminationOptions configures a knockout bracket.
type EliminationOptions struct {
	ThirdPlace bool `json:"third_place,omitempty"`
	PreSeeded  bool `json:"pre_seeded,omitempty"`
}

// BoxOptions configures fixed and rotating boxes.
type BoxOptions struct {
	BoxNumber      int `json:"box_number,omitempty"`
	WeekNumber     int `json:"week_number,omitempty"`
	PlayersPerSide int `json:"players_per_side,omitempty"`
	// Rounds of a rotating box; defaults to the rounds that fit before a
	// partnership repeats.
	Rounds int `json:"rounds,omitempty"`
}

// PoolOptions configures the pool stage or, with Medal set, the medal
// bracket that follows it.
type PoolOptions struct {
	PoolCount    int    `json:"pool_count"`
	Distribution string `json:"distribution,omitempty"`
	Medal        bool   `json:"medal,omitempty"`
	Cut          int    `json:"cut,omitempty"`
	ThirdPlace   bool   `json:"third_place,omitempty"`
}

// LadderOptions describes a challenge.
type LadderOptions struct {
	MaxDistance  int    `json:"max_distance,omitempty"`
	ChallengerID string `json:"challenger_id"`
	DefenderID   string `json:"defender_id"`
}

// KingOfCourtOptions seeds a session, or advances State when present.
type KingOfCourtOptions struct {
	Courts int                `json:"courts"`
	State  *kingofcourt.State `json:"state,omitempty"`
}

// Request is one generation call. Only the options of Format are read.
type Request struct {
	Format       model.Format        `json:"format"`
	EventID      string              `json:"event_id"`
	Participants []model.Participant `json:"participants"`
	// Prior holds the event's existing matches. Swiss, ladder, medal and
	// king-of-court generation read it.
	Prior []model.MatchStub `json:"prior,omitempty"`
	// Passes repeats round-robin style schedules.
	Passes int `json:"passes,omitempty"`

	Swiss       SwissOptions       `json:"swiss"`
	Elimination EliminationOptions `json:"elimination"`
	Box         BoxOptions         `json:"box"`
	Pool        PoolOptions        `json:"pool"`
	Ladder      LadderOptions      `json:"ladder"`
	KingOfCourt KingOfCourtOptions `json:"king_of_court"`
}

// Output is a generator result and the expectation to validate it against.
type Output struct {
	Result model.Result         `json:"result"`
	Expect validate.Expectation `json:"-"`
	// Pools is set for the pool stage and medal bracket.
	Pools []poolplay.Pool `json:"pools,omitempty"`
	// KingOfCourt is the session state after this round.
	KingOfCourt *kingofcourt.State `json:"king_of_court,omitempty"`
}

// Generate runs the generator for req.Format.
func Generate(req Request) (Output, error) {
	out := Output{Expect: validate.Expectation{
		Format:       req.Format,
		EventID:      req.EventID,
		Participants: req.Participants,
		Passes:       req.Passes,
	}}
	var err error
	switch req.Format {
	case model.FormatRoundRobin:
		out.Result, err = roundrobin.Generate(req.Participants, roundrobin.Settings{EventID: req.EventID, Passes: req.Passes})
	case model.FormatSwiss:
		err = generateSwiss(req, &out)
	case model.FormatElimination:
		var b *elimination.Bracket
		b, err = elimination.Build(req.Participants, elimination.Settings{
			EventID:    req.EventID,
			PreSeeded:  req.Elimination.PreSeeded,
			ThirdPlace: req.Elimination.ThirdPlace,
		})
		if err == nil {
			out.Result = b.Result()
			out.Expect.Bracket = true
		}
	case model.FormatFixedBox:
		out.Result, err = boxleague.GenerateFixed(req.Participants, boxleague.FixedSettings{
			EventID:        req.EventID,
			BoxNumber:      req.Box.BoxNumber,
			WeekNumber:     req.Box.WeekNumber,
			PlayersPerSide: req.Box.PlayersPerSide,
			Passes:         req.Passes,
		})
	case model.FormatRotatingBox:
		out.Result, err = boxleague.GenerateRotating(req.Participants, boxleague.RotatingSettings{
			EventID:    req.EventID,
			BoxNumber:  req.Box.BoxNumber,
			WeekNumber: req.Box.WeekNumber,
			Rounds:     req.Box.Rounds,
		})
	case model.FormatPool:
		err = generatePool(req, &out)
	case model.FormatLadder:
		err = generateLadder(req, &out)
	case model.FormatKingOfCourt:
		err = generateKingOfCourt(req, &out)
	default:
		return Output{}, fmt.Errorf("%w: unknown format %q", model.ErrInvalidConfiguration, req.Format)
	}
	if err != nil {
		return Output{}, err
	}
	return out, nil
}

func ofFormat(ms []model.MatchStub, f model.Format) []model.MatchStub {
	var out []model.MatchStub
	for _, m := range ms {
		if m.Format == f {
			out = append(out, m)
		}
	}
	return out
}

func generateSwiss(req Request, out *Output) error {
	method, err := swiss.ParseMethod(req.Swiss.Method)
	if err != nil {
		return err
	}
	prior := ofFormat(req.Prior, model.FormatSwiss)
	round := req.Swiss.Round
	if round == 0 {
		for _, m := range prior {
			round = max(round, m.RoundNumber)
		}
		round++
	}
	byes := req.Swiss.ByeRecipients
	if byes == nil {
		byes = DeriveByes(req.Participants, prior)
	}
	entrants, err := swiss.EntrantsFromMatches(req.Participants, prior, byes)
	if err != nil {
		return err
	}
	out.Result, err = swiss.Pair(entrants, swiss.Settings{
		EventID:          req.EventID,
		Round:            round,
		Method:           method,
		FirstMatchNumber: len(prior) + 1,
	})
	if err != nil {
		return err
	}
	out.Expect.Opponents = make(map[string][]string, len(entrants))
	for _, e := range entrants {
		out.Expect.Opponents[e.Participant.ID] = e.Opponents
	}
	return nil
}

// DeriveByes lists, per round, the participant that sat the round out.
// Every side of a match counts as present, cancelled or not. A bye is only
// inferred when exactly one roster participant is missing from a round;
// several absentees mean late entries or withdrawals and credit nobody.
func DeriveByes(participants []model.Participant, matches []model.MatchStub) []string {
	present := make(map[int]map[string]bool)
	for _, m := range matches {
		if present[m.RoundNumber] == nil {
			present[m.RoundNumber] = make(map[string]bool)
		}
		present[m.RoundNumber][m.SideA.ID] = true
		present[m.RoundNumber][m.SideB.ID] = true
	}
	rounds := make([]int, 0, len(present))
	for r := range present {
		rounds = append(rounds, r)
	}
	sort.Ints(rounds)
	byes := []string{}
	for _, r := range rounds {
		var absent []string
		for _, p := range participants {
			if !present[r][p.ID] {
				absent = append(absent, p.ID)
			}
		}
		if len(absent) == 1 {
			byes = append(byes, absent[0])
		}
	}
	return byes
}

func generatePool(req Request, out *Output) error {
	dist, err := poolplay.ParseDistribution(req.Pool.Distribution)
	if err != nil {
		return err
	}
	if !req.Pool.Medal {
		out.Pools, out.Result, err = poolplay.Generate(req.Participants, poolplay.Settings{
			EventID:      req.EventID,
			PoolCount:    req.Pool.PoolCount,
			Distribution: dist,
			Passes:       req.Passes,
		})
		return err
	}

	pools, err := poolplay.AssignParticipantsToPools(req.Participants, req.Pool.PoolCount, dist)
	if err != nil {
		return err
	}
	b, err := poolplay.GenerateMedalBracket(pools, ofFormat(req.Prior, model.FormatPool), poolplay.MedalSettings{
		EventID:    req.EventID,
		Cut:        req.Pool.Cut,
		Passes:     req.Passes,
		ThirdPlace: req.Pool.ThirdPlace,
	})
	if err != nil {
		return err
	}
	out.Pools = pools
	out.Result = b.Result()
	out.Expect.Bracket = true
	return nil
}

func generateLadder(req Request, out *Output) error {
	l, err := ladder.NewLadder(req.Participants, ladder.Settings{EventID: req.EventID, MaxDistance: req.Ladder.MaxDistance})
	if err != nil {
		return err
	}
	prior := ofFormat(req.Prior, model.FormatLadder)
	if l, err = l.ApplyResults(prior); err != nil {
		return err
	}
	m, err := l.Challenge(req.Ladder.ChallengerID, req.Ladder.DefenderID, len(prior)+1, prior)
	if err != nil {
		return err
	}
	a, b := m.SideA, m.SideB
	out.Result = model.Result{
		Status:  model.ResultOK,
		Format:  model.FormatLadder,
		EventID: req.EventID,
		Rounds:  []model.Round{{Number: m.RoundNumber, Pairings: []model.Pairing{{SideA: &a, SideB: &b, MatchID: m.ID}}}},
		Matches: []model.MatchStub{m},
	}
	return nil
}

func generateKingOfCourt(req Request, out *Output) error {
	var (
		st  kingofcourt.State
		err error
	)
	if req.KingOfCourt.State == nil {
		st, out.Result, err = kingofcourt.Seed(req.Participants, kingofcourt.Settings{EventID: req.EventID, Courts: req.KingOfCourt.Courts})
	} else {
		var winners map[int]string
		winners, err = req.KingOfCourt.State.Winners(req.Prior)
		if err != nil {
			return err
		}
		st, out.Result, err = kingofcourt.Advance(*req.KingOfCourt.State, winners)
	}
	if err != nil {
		return err
	}
	if out.Result.Status == model.ResultOK {
		out.KingOfCourt = &st
	}
	return nil
}
