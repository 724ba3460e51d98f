// Package roundrobin generates complete round-robin schedules with the
// circle method: slot 0 stays fixed and every other slot rotates by one
// position per round.
package roundrobin

import (
	"fmt"

	"github.com/okian/bracketry/internal/domain/identity"
	"github.com/okian/bracketry/internal/domain/model"
)

// bye marks the synthetic slot appended to odd fields.
const bye = -1

// Settings configures a round-robin run. The zero value is a single pass
// of a plain round robin.
type Settings struct {
	EventID string
	// Format tags the produced matches; defaults to round_robin. Box and
	// pool generators reuse this package with their own tag.
	Format model.Format
	// Scope is the pool or box key used in canonical match ids.
	Scope string
	// Passes repeats the schedule; even passes swap sides.
	Passes     int
	BoxNumber  int
	PoolKey    string
	WeekNumber int
	// FirstMatchNumber offsets the sequential match numbering.
	FirstMatchNumber int
}

// Generate pairs every participant with every other exactly once per pass.
// Fewer than two participants yields an insufficient-participants result.
func Generate(participants []model.Participant, s Settings) (model.Result, error) {
	if s.Format == "" {
		s.Format = model.FormatRoundRobin
	}
	if s.Passes < 0 {
		return model.Result{}, fmt.Errorf("%w: passes must not be negative", model.ErrInvalidConfiguration)
	}
	if s.Passes == 0 {
		s.Passes = 1
	}
	if s.FirstMatchNumber <= 0 {
		s.FirstMatchNumber = 1
	}
	if err := model.ValidateRoster(participants); err != nil {
		return model.Result{}, err
	}
	if len(participants) < 2 {
		return model.Insufficient(s.Format, s.EventID), nil
	}

	slots := make([]int, len(participants), len(participants)+1)
	for i := range participants {
		slots[i] = i
	}
	if len(slots)%2 != 0 {
		slots = append(slots, bye)
	}
	numRounds := len(slots) - 1
	numMatches := len(slots) / 2

	res := model.Result{
		Status:  model.ResultOK,
		Format:  s.Format,
		EventID: s.EventID,
		Rounds:  make([]model.Round, 0, s.Passes*numRounds),
		Matches: make([]model.MatchStub, 0, s.Passes*numRounds*numMatches),
	}
	matchNumber := s.FirstMatchNumber
	for pass := 0; pass < s.Passes; pass++ {
		scope := s.Scope
		if pass > 0 {
			scope = identity.Scope(s.Scope, fmt.Sprintf("p%d", pass+1))
		}
		for roundI := 0; roundI < numRounds; roundI++ {
			round := model.Round{
				Number:   pass*numRounds + roundI + 1,
				Pairings: make([]model.Pairing, 0, numMatches),
			}
			for matchI := 0; matchI < numMatches; matchI++ {
				a, b := pickOpponents(slots, pass, roundI, matchI)
				if a == bye || b == bye {
					seated := a
					if seated == bye {
						seated = b
					}
					side := participants[seated].Snapshot()
					round.Pairings = append(round.Pairings, model.Pairing{SideA: &side})
					continue
				}
				m := identity.Stamp(model.MatchStub{
					EventID:     s.EventID,
					Format:      s.Format,
					SideA:       participants[a].Snapshot(),
					SideB:       participants[b].Snapshot(),
					RoundNumber: round.Number,
					MatchNumber: matchNumber,
					BoxNumber:   s.BoxNumber,
					PoolKey:     s.PoolKey,
					WeekNumber:  s.WeekNumber,
					Status:      model.StatusScheduled,
				}, scope)
				matchNumber++
				sa, sb := m.SideA, m.SideB
				round.Pairings = append(round.Pairings, model.Pairing{SideA: &sa, SideB: &sb, MatchID: m.ID})
				res.Matches = append(res.Matches, m)
			}
			res.Rounds = append(res.Rounds, round)
		}
	}
	return res, nil
}

// pickOpponents returns the participant indices of a match by its three
// indices while keeping the share of first-named sides evenly distributed.
func pickOpponents(slots []int, passI, roundI, matchI int) (int, int) {
	i1 := circleIndex(matchI, len(slots), roundI)
	i2 := circleIndex(len(slots)-1-matchI, len(slots), roundI)

	a, b := slots[i1], slots[i2]
	if matchI == 0 && roundI%2 != 0 {
		a, b = b, a
	}
	if passI%2 != 0 {
		a, b = b, a
	}
	return a, b
}

// circleIndex maps a slot position to the index occupying it in round.
// Index 0 never moves.
func circleIndex(index, length, round int) int {
	if index == 0 {
		return 0
	}
	index--
	index -= round
	index += length - 1
	index %= length - 1
	return index + 1
}

// RoundCount returns the number of rounds a single pass over n participants takes.
func RoundCount(n int) int {
	if n < 2 {
		return 0
	}
	if n%2 != 0 {
		return n
	}
	return n - 1
}

// MatchCount returns the number of non-bye matches a single pass produces.
func MatchCount(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}
