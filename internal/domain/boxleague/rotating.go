package boxleague

import (
	"fmt"

	"github.com/okian/bracketry/internal/domain/identity"
	"github.com/okian/bracketry/internal/domain/model"
)

const (
	minRotatingPlayers = 4
	playersPerCourt    = 4
)

// RotatingSettings configures a rotating-partner box.
type RotatingSettings struct {
	EventID    string
	BoxNumber  int
	WeekNumber int
	// Rounds defaults to the number of rounds that fit before any
	// partnership has to repeat.
	Rounds           int
	FirstMatchNumber int
}

// GenerateRotating schedules individual players into changing doubles
// partnerships. Every partnership is used once before any is used twice,
// and so on for later cycles. Partnerships are then matched into courts to
// keep opponent exposure as even as possible; players left without a court
// sit out, and the next round favours those who sat out most.
func GenerateRotating(players []model.Participant, s RotatingSettings) (model.Result, error) {
	if s.Rounds < 0 || s.BoxNumber < 0 || s.WeekNumber < 0 {
		return model.Result{}, fmt.Errorf("%w: rounds, box and week must not be negative", model.ErrInvalidConfiguration)
	}
	if err := model.ValidateRoster(players); err != nil {
		return model.Result{}, err
	}
	if err := model.ValidatePlayersPerSide(players, 1); err != nil {
		return model.Result{}, err
	}
	n := len(players)
	if n < minRotatingPlayers {
		return model.Insufficient(model.FormatRotatingBox, s.EventID), nil
	}
	if s.FirstMatchNumber <= 0 {
		s.FirstMatchNumber = 1
	}

	courts := n / playersPerCourt
	perRound := 2 * courts
	rounds := s.Rounds
	if rounds == 0 {
		rounds = n * (n - 1) / 2 / perRound
	}

	schedule := newPartnerSchedule(n, perRound)
	sitOuts := make([]int, n)
	opponents := make([][]int, n)
	for i := range opponents {
		opponents[i] = make([]int, n)
	}

	res := model.Result{Status: model.ResultOK, Format: model.FormatRotatingBox, EventID: s.EventID}
	number := s.FirstMatchNumber
	for r := 0; r < rounds; r++ {
		pairs := schedule.next(sitOuts)
		playing := make([]bool, n)
		for _, pr := range pairs {
			playing[pr[0]], playing[pr[1]] = true, true
		}
		var sitters []int
		for i, ok := range playing {
			if !ok {
				sitters = append(sitters, i)
				sitOuts[i]++
			}
		}

		exposure := func(x, y int) int {
			total := 0
			for _, a := range pairs[x] {
				for _, b := range pairs[y] {
					total += opponents[a][b] * opponents[a][b]
				}
			}
			return total
		}

		round := model.Round{Number: r + 1}
		scope := identity.Scope(BoxScope(s.BoxNumber, s.WeekNumber), fmt.Sprintf("r%d", r+1))
		for _, court := range minCostMatching(len(pairs), exposure) {
			ta, tb := pairs[court[0]], pairs[court[1]]
			for _, a := range ta {
				for _, b := range tb {
					opponents[a][b]++
					opponents[b][a]++
				}
			}
			m := identity.Stamp(model.MatchStub{
				EventID:     s.EventID,
				Format:      model.FormatRotatingBox,
				SideA:       model.TeamSide(players[ta[0]], players[ta[1]]),
				SideB:       model.TeamSide(players[tb[0]], players[tb[1]]),
				RoundNumber: r + 1,
				MatchNumber: number,
				BoxNumber:   s.BoxNumber,
				WeekNumber:  s.WeekNumber,
				Status:      model.StatusScheduled,
			}, scope)
			number++
			sa, sb := m.SideA, m.SideB
			round.Pairings = append(round.Pairings, model.Pairing{SideA: &sa, SideB: &sb, MatchID: m.ID})
			res.Matches = append(res.Matches, m)
		}
		for _, i := range sitters {
			side := players[i].Snapshot()
			round.Pairings = append(round.Pairings, model.Pairing{SideA: &side})
		}
		res.Rounds = append(res.Rounds, round)
	}
	return res, nil
}
