// Package boxleague generates box-league schedules: fixed teams playing a
// round robin inside a box, or individual players rotating partners and
// opponents from round to round.
package boxleague

import (
	"fmt"

	"github.com/okian/bracketry/internal/domain/identity"
	"github.com/okian/bracketry/internal/domain/model"
	"github.com/okian/bracketry/internal/domain/roundrobin"
	"github.com/okian/bracketry/internal/domain/standings"
)

// FixedSettings configures a fixed-team box.
type FixedSettings struct {
	EventID    string
	BoxNumber  int
	WeekNumber int
	// PlayersPerSide is 1 for singles or 2 for doubles; 0 skips the check.
	PlayersPerSide   int
	Passes           int
	FirstMatchNumber int
}

// BoxScope returns the canonical scope key of a box, optionally per week.
func BoxScope(box, week int) string {
	w := ""
	if week > 0 {
		w = fmt.Sprintf("w%d", week)
	}
	return identity.Scope(fmt.Sprintf("box%d", box), w)
}

// GenerateFixed schedules a round robin between pre-formed teams. Teams are
// ordered by rating first; the order is cosmetic and never changes which
// pairs meet.
func GenerateFixed(teams []model.Participant, s FixedSettings) (model.Result, error) {
	if s.BoxNumber < 0 || s.WeekNumber < 0 {
		return model.Result{}, fmt.Errorf("%w: box and week numbers must not be negative", model.ErrInvalidConfiguration)
	}
	if s.PlayersPerSide < 0 || s.PlayersPerSide > 2 {
		return model.Result{}, fmt.Errorf("%w: players per side must be 1 or 2", model.ErrInvalidConfiguration)
	}
	if err := model.ValidatePlayersPerSide(teams, s.PlayersPerSide); err != nil {
		return model.Result{}, err
	}
	return roundrobin.Generate(model.SortByRating(teams), roundrobin.Settings{
		EventID:          s.EventID,
		Format:           model.FormatFixedBox,
		Scope:            BoxScope(s.BoxNumber, s.WeekNumber),
		Passes:           s.Passes,
		BoxNumber:        s.BoxNumber,
		WeekNumber:       s.WeekNumber,
		FirstMatchNumber: s.FirstMatchNumber,
	})
}

// FixedStandings ranks the teams of a box.
func FixedStandings(teams []model.Participant, matches []model.MatchStub) ([]model.StandingRow, error) {
	return standings.Compute(teams, matches)
}

// RotatingStandings ranks individual players of a rotating box; each player
// is credited with the results of every partnership they played in.
func RotatingStandings(players []model.Participant, matches []model.MatchStub) ([]model.StandingRow, error) {
	return standings.ComputeByPlayer(players, matches)
}
