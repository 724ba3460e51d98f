// Package standings folds completed matches into ranked standings tables.
//
// Rows are rebuilt from scratch on every call. Ordering is a total order:
// wins desc, Buchholz desc (when enabled), point differential desc, points
// for desc, then participant id asc.
package standings

import (
	"sort"

	"github.com/okian/bracketry/internal/domain/model"
)

// Option applies a configuration option to a standings computation.
type Option func(*options)

type options struct {
	buchholz bool
	byes     []string
}

// WithBuchholz ranks by the sum of opponents' wins ahead of point differential.
func WithBuchholz() Option {
	return func(o *options) { o.buchholz = true }
}

// WithByes credits one win per listed id, once per occurrence. Byes are
// never materialized as matches so the caller supplies them.
func WithByes(ids ...string) Option {
	return func(o *options) { o.byes = append(o.byes, ids...) }
}

// Compute builds a standings table for sides identified by participant id.
func Compute(participants []model.Participant, matches []model.MatchStub, opts ...Option) ([]model.StandingRow, error) {
	return compute(participants, matches, func(s model.Side) []string { return []string{s.ID} }, opts)
}

// ComputeByPlayer credits every member of a side with the side's result.
// Rotating-partner formats use it with individual players as participants.
func ComputeByPlayer(players []model.Participant, matches []model.MatchStub, opts ...Option) ([]model.StandingRow, error) {
	return compute(players, matches, func(s model.Side) []string { return s.Members() }, opts)
}

type tally struct {
	row       model.StandingRow
	opponents []string
}

func compute(participants []model.Participant, matches []model.MatchStub, keys func(model.Side) []string, opts []Option) ([]model.StandingRow, error) {
	if err := model.ValidateRoster(participants); err != nil {
		return nil, err
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	tallies := make(map[string]*tally, len(participants))
	for _, p := range participants {
		tallies[p.ID] = &tally{row: model.StandingRow{Participant: p}}
	}

	for _, m := range matches {
		outcome := m.Outcome()
		if outcome == model.OutcomePending {
			continue
		}
		ga, gb, pa, pb := m.Tally()
		for _, id := range keys(m.SideA) {
			if t, ok := tallies[id]; ok {
				apply(t, outcome == model.OutcomeSideA, outcome == model.OutcomeDraw, ga, gb, pa, pb)
				t.opponents = append(t.opponents, m.SideB.ID)
			}
		}
		for _, id := range keys(m.SideB) {
			if t, ok := tallies[id]; ok {
				apply(t, outcome == model.OutcomeSideB, outcome == model.OutcomeDraw, gb, ga, pb, pa)
				t.opponents = append(t.opponents, m.SideA.ID)
			}
		}
	}
	for _, id := range o.byes {
		if t, ok := tallies[id]; ok {
			t.row.Wins++
		}
	}

	rows := make([]model.StandingRow, 0, len(participants))
	for _, p := range participants {
		t := tallies[p.ID]
		if o.buchholz {
			for _, opp := range t.opponents {
				if ot, ok := tallies[opp]; ok {
					t.row.Buchholz += ot.row.Wins
				}
			}
		}
		rows = append(rows, t.row)
	}
	Rank(rows, o.buchholz)
	return rows, nil
}

func apply(t *tally, won, draw bool, gamesFor, gamesAgainst, pointsFor, pointsAgainst int) {
	t.row.Played++
	switch {
	case won:
		t.row.Wins++
	case draw:
		t.row.Draws++
	default:
		t.row.Losses++
	}
	t.row.GamesWon += gamesFor
	t.row.GamesLost += gamesAgainst
	t.row.PointsFor += pointsFor
	t.row.PointsAgainst += pointsAgainst
}

// Compare orders two rows; a negative result ranks a first. The final
// participant id key makes the order total.
func Compare(a, b model.StandingRow, buchholz bool) int {
	if c := compareCompetitive(a, b, buchholz); c != 0 {
		return c
	}
	switch {
	case a.Participant.ID < b.Participant.ID:
		return -1
	case a.Participant.ID > b.Participant.ID:
		return 1
	}
	return 0
}

func compareCompetitive(a, b model.StandingRow, buchholz bool) int {
	if a.Wins != b.Wins {
		return b.Wins - a.Wins
	}
	if buchholz && a.Buchholz != b.Buchholz {
		return b.Buchholz - a.Buchholz
	}
	if a.PointDiff() != b.PointDiff() {
		return b.PointDiff() - a.PointDiff()
	}
	return b.PointsFor - a.PointsFor
}

// Rank sorts rows in place and assigns sequential ranks 1..n. Rows equal on
// every competitive criterion keep sequential numbers and are flagged as
// tied with the row above.
func Rank(rows []model.StandingRow, buchholz bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		return Compare(rows[i], rows[j], buchholz) < 0
	})
	for i := range rows {
		rows[i].Rank = i + 1
		rows[i].TiedWithPrevious = i > 0 && compareCompetitive(rows[i-1], rows[i], buchholz) == 0
	}
}
