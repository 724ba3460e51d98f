package boxleague_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/okian/bracketry/internal/domain/boxleague"
	"github.com/okian/bracketry/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func players(n int) []model.Participant {
	ps := make([]model.Participant, n)
	for i := range ps {
		ps[i] = model.Participant{ID: fmt.Sprintf("pl%d", i+1), Name: fmt.Sprintf("Player %d", i+1), Rating: model.Rating(float64(i))}
	}
	return ps
}

func partnerships(res model.Result) map[string]int {
	out := map[string]int{}
	for _, m := range res.Matches {
		out[m.SideA.ID]++
		out[m.SideB.ID]++
	}
	return out
}

func TestGenerateFixed(t *testing.T) {
	Convey("Given four doubles teams in box two, week three", t, func() {
		teams := []model.Participant{
			{ID: "t1", MemberPlayerIDs: []string{"a", "b"}, Rating: model.Rating(1)},
			{ID: "t2", MemberPlayerIDs: []string{"c", "d"}, Rating: model.Rating(4)},
			{ID: "t3", MemberPlayerIDs: []string{"e", "f"}, Rating: model.Rating(3)},
			{ID: "t4", MemberPlayerIDs: []string{"g", "h"}, Rating: model.Rating(2)},
		}
		res, err := boxleague.GenerateFixed(teams, boxleague.FixedSettings{EventID: "league", BoxNumber: 2, WeekNumber: 3, PlayersPerSide: 2})
		So(err, ShouldBeNil)

		Convey("Then it is a full round robin tagged with the box", func() {
			So(len(res.Rounds), ShouldEqual, 3)
			So(len(res.Matches), ShouldEqual, 6)
			for _, m := range res.Matches {
				So(m.Format, ShouldEqual, model.FormatFixedBox)
				So(m.BoxNumber, ShouldEqual, 2)
				So(m.WeekNumber, ShouldEqual, 3)
				So(strings.HasPrefix(m.ID, "fixed_box_league_box2.w3_"), ShouldBeTrue)
			}
		})

		Convey("And the strongest team is seeded first", func() {
			So(res.Matches[0].SideA.ID, ShouldEqual, "t2")
		})
	})

	Convey("Given a team that does not match the declared side size", t, func() {
		teams := []model.Participant{
			{ID: "t1", MemberPlayerIDs: []string{"a", "b"}},
			{ID: "t2", MemberPlayerIDs: []string{"c"}},
		}
		_, err := boxleague.GenerateFixed(teams, boxleague.FixedSettings{PlayersPerSide: 2})
		So(errors.Is(err, model.ErrInvalidConfiguration), ShouldBeTrue)

		_, err = boxleague.GenerateFixed(teams, boxleague.FixedSettings{PlayersPerSide: 3})
		So(errors.Is(err, model.ErrInvalidConfiguration), ShouldBeTrue)
	})
}

func TestGenerateRotating(t *testing.T) {
	Convey("Given four players", t, func() {
		res, err := boxleague.GenerateRotating(players(4), boxleague.RotatingSettings{EventID: "ev", BoxNumber: 1})
		So(err, ShouldBeNil)

		Convey("Then three rounds cover every partnership once", func() {
			So(len(res.Rounds), ShouldEqual, 3)
			So(len(res.Matches), ShouldEqual, 3)
			p := partnerships(res)
			So(len(p), ShouldEqual, 6)
			for _, c := range p {
				So(c, ShouldEqual, 1)
			}
		})

		Convey("And sides are partnerships keyed by their members", func() {
			m := res.Matches[0]
			So(len(m.SideA.MemberPlayerIDs), ShouldEqual, 2)
			So(m.Format, ShouldEqual, model.FormatRotatingBox)
			So(m.SideA.ID, ShouldContainSubstring, "+")
		})
	})

	Convey("Given eight players", t, func() {
		res, err := boxleague.GenerateRotating(players(8), boxleague.RotatingSettings{EventID: "ev"})
		So(err, ShouldBeNil)

		Convey("Then seven rounds of two courts never repeat a partnership", func() {
			So(len(res.Rounds), ShouldEqual, 7)
			So(len(res.Matches), ShouldEqual, 14)
			p := partnerships(res)
			So(len(p), ShouldEqual, 28)
		})

		Convey("And every player plays every round", func() {
			for _, r := range res.Rounds {
				seen := map[string]bool{}
				for _, pr := range r.Pairings {
					So(pr.IsBye(), ShouldBeFalse)
					for _, id := range append(pr.SideA.Members(), pr.SideB.Members()...) {
						So(seen[id], ShouldBeFalse)
						seen[id] = true
					}
				}
				So(len(seen), ShouldEqual, 8)
			}
		})
	})

	Convey("Given five players", t, func() {
		res, err := boxleague.GenerateRotating(players(5), boxleague.RotatingSettings{})
		So(err, ShouldBeNil)

		Convey("Then each player sits out exactly once over five rounds", func() {
			So(len(res.Rounds), ShouldEqual, 5)
			sat := map[string]int{}
			for _, r := range res.Rounds {
				for _, pr := range r.Pairings {
					if side, ok := pr.ByeSide(); ok {
						sat[side.ID]++
					}
				}
			}
			So(len(sat), ShouldEqual, 5)
			for _, c := range sat {
				So(c, ShouldEqual, 1)
			}
		})
	})

	Convey("Given six players", t, func() {
		res, err := boxleague.GenerateRotating(players(6), boxleague.RotatingSettings{})
		So(err, ShouldBeNil)

		Convey("Then two sit out each round and no partnership repeats", func() {
			for _, r := range res.Rounds {
				byes := 0
				for _, pr := range r.Pairings {
					if pr.IsBye() {
						byes++
					}
				}
				So(byes, ShouldEqual, 2)
			}
			for _, c := range partnerships(res) {
				So(c, ShouldEqual, 1)
			}
		})
	})

	Convey("Given boxes whose courts cannot seat every partnership", t, func() {
		for _, n := range []int{6, 7, 10, 11} {
			ps := players(n)
			res, err := boxleague.GenerateRotating(ps, boxleague.RotatingSettings{Rounds: 2 * n})
			So(err, ShouldBeNil)
			So(len(res.Rounds), ShouldEqual, 2*n)

			Convey(fmt.Sprintf("Then no partnership of %d players repeats before the rest are used", n), func() {
				used := map[string]int{}
				for i := range ps {
					for j := i + 1; j < n; j++ {
						used[model.TeamSide(ps[i], ps[j]).ID] = 0
					}
				}
				for _, r := range res.Rounds {
					seen := map[string]bool{}
					courts := 0
					for _, pr := range r.Pairings {
						if pr.IsBye() {
							continue
						}
						courts++
						for _, side := range []*model.Side{pr.SideA, pr.SideB} {
							used[side.ID]++
							for _, id := range side.Members() {
								So(seen[id], ShouldBeFalse)
								seen[id] = true
							}
						}
					}
					So(courts, ShouldEqual, n/4)

					lo, hi := 2*n, 0
					for _, c := range used {
						lo, hi = min(lo, c), max(hi, c)
					}
					So(hi-lo, ShouldBeLessThanOrEqualTo, 1)
				}
			})
		}
	})

	Convey("Given six players and the default round count", t, func() {
		res, err := boxleague.GenerateRotating(players(6), boxleague.RotatingSettings{})
		So(err, ShouldBeNil)

		Convey("Then seven rounds use fourteen distinct partnerships", func() {
			So(len(res.Rounds), ShouldEqual, 7)
			p := partnerships(res)
			So(len(p), ShouldEqual, 14)
		})
	})

	Convey("Given more rounds than a partner cycle", t, func() {
		res, err := boxleague.GenerateRotating(players(4), boxleague.RotatingSettings{Rounds: 5})
		So(err, ShouldBeNil)
		So(len(res.Rounds), ShouldEqual, 5)

		ids := map[string]bool{}
		for _, m := range res.Matches {
			So(ids[m.ID], ShouldBeFalse)
			ids[m.ID] = true
		}
	})

	Convey("Given invalid rotating boxes", t, func() {
		res, err := boxleague.GenerateRotating(players(3), boxleague.RotatingSettings{})
		So(err, ShouldBeNil)
		So(res.Status, ShouldEqual, model.ResultInsufficientParticipants)

		team := players(4)
		team[0].MemberPlayerIDs = []string{"x", "y"}
		_, err = boxleague.GenerateRotating(team, boxleague.RotatingSettings{})
		So(errors.Is(err, model.ErrInvalidConfiguration), ShouldBeTrue)

		_, err = boxleague.GenerateRotating(players(4), boxleague.RotatingSettings{Rounds: -1})
		So(errors.Is(err, model.ErrInvalidConfiguration), ShouldBeTrue)
	})
}

func TestRotatingStandings(t *testing.T) {
	Convey("Given a played rotating round", t, func() {
		ps := players(4)
		res, err := boxleague.GenerateRotating(ps, boxleague.RotatingSettings{Rounds: 1})
		So(err, ShouldBeNil)
		m := res.Matches[0]
		m.Status = model.StatusCompleted
		m.Scores = []model.GameScore{{A: 11, B: 6}}

		rows, err := boxleague.RotatingStandings(ps, []model.MatchStub{m})
		So(err, ShouldBeNil)

		Convey("Then both winners lead the table", func() {
			leaders := map[string]bool{rows[0].Participant.ID: true, rows[1].Participant.ID: true}
			for _, id := range m.SideA.MemberPlayerIDs {
				So(leaders[id], ShouldBeTrue)
			}
			So(rows[0].Wins, ShouldEqual, 1)
			So(rows[3].Losses, ShouldEqual, 1)
		})
	})
}
