package swiss

import (
	"github.com/okian/bracketry/internal/domain/model"
)

// EntrantsFromMatches derives running records for the next round. Every
// non-cancelled match counts as a meeting; only completed ones count toward
// wins and losses. Each bye recipient is credited a win, once per occurrence.
func EntrantsFromMatches(participants []model.Participant, matches []model.MatchStub, byeRecipients []string) ([]Entrant, error) {
	if err := model.ValidateRoster(participants); err != nil {
		return nil, err
	}
	index := make(map[string]*Entrant, len(participants))
	out := make([]Entrant, len(participants))
	for i, p := range participants {
		out[i] = Entrant{Participant: p}
		index[p.ID] = &out[i]
	}

	for _, m := range matches {
		if m.Status == model.StatusCancelled || m.SideA.IsPlaceholder() || m.SideB.IsPlaceholder() {
			continue
		}
		a, b := index[m.SideA.ID], index[m.SideB.ID]
		if a != nil {
			a.Opponents = append(a.Opponents, m.SideB.ID)
		}
		if b != nil {
			b.Opponents = append(b.Opponents, m.SideA.ID)
		}
		switch m.Outcome() {
		case model.OutcomeSideA:
			credit(a, b)
		case model.OutcomeSideB:
			credit(b, a)
		}
	}
	for _, id := range byeRecipients {
		if e := index[id]; e != nil {
			e.Wins++
			e.HadBye = true
		}
	}
	return out, nil
}

func credit(winner, loser *Entrant) {
	if winner != nil {
		winner.Wins++
	}
	if loser != nil {
		loser.Losses++
	}
}
