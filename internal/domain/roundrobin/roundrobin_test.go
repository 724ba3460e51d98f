package roundrobin_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/okian/bracketry/internal/domain/model"
	"github.com/okian/bracketry/internal/domain/roundrobin"
	. "github.com/smartystreets/goconvey/convey"
)

func roster(n int) []model.Participant {
	ps := make([]model.Participant, n)
	for i := range ps {
		ps[i] = model.Participant{ID: fmt.Sprintf("p%02d", i+1), Name: fmt.Sprintf("Player %d", i+1)}
	}
	return ps
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func TestGenerate_EvenFields(t *testing.T) {
	Convey("Given even fields", t, func() {
		for _, n := range []int{2, 4, 6, 8, 10} {
			res, err := roundrobin.Generate(roster(n), roundrobin.Settings{EventID: "ev"})
			So(err, ShouldBeNil)
			So(res.Status, ShouldEqual, model.ResultOK)
			So(len(res.Rounds), ShouldEqual, n-1)
			So(len(res.Matches), ShouldEqual, n*(n-1)/2)

			seen := map[string]int{}
			for _, m := range res.Matches {
				So(m.SideA.ID, ShouldNotEqual, m.SideB.ID)
				seen[pairKey(m.SideA.ID, m.SideB.ID)]++
			}
			So(len(seen), ShouldEqual, n*(n-1)/2)
			for _, c := range seen {
				So(c, ShouldEqual, 1)
			}
			for _, r := range res.Rounds {
				So(len(r.Pairings), ShouldEqual, n/2)
			}
		}
	})
}

func TestGenerate_OddFields(t *testing.T) {
	Convey("Given five participants A to E", t, func() {
		ps := []model.Participant{{ID: "A"}, {ID: "B"}, {ID: "C"}, {ID: "D"}, {ID: "E"}}
		res, err := roundrobin.Generate(ps, roundrobin.Settings{EventID: "ev"})
		So(err, ShouldBeNil)

		Convey("Then there are five rounds and ten matches", func() {
			So(len(res.Rounds), ShouldEqual, 5)
			So(len(res.Matches), ShouldEqual, 10)
		})

		Convey("And every round has exactly one bye, rotating through all five", func() {
			byes := map[string]int{}
			for _, r := range res.Rounds {
				count := 0
				for _, p := range r.Pairings {
					if p.IsBye() {
						count++
						side, ok := p.ByeSide()
						So(ok, ShouldBeTrue)
						byes[side.ID]++
					}
				}
				So(count, ShouldEqual, 1)
			}
			So(len(byes), ShouldEqual, 5)
			for _, c := range byes {
				So(c, ShouldEqual, 1)
			}
		})

		Convey("And each pair meets exactly once", func() {
			seen := map[string]bool{}
			for _, m := range res.Matches {
				k := pairKey(m.SideA.ID, m.SideB.ID)
				So(seen[k], ShouldBeFalse)
				seen[k] = true
			}
			So(len(seen), ShouldEqual, 10)
		})

		Convey("And matches are numbered sequentially and stubs start scheduled", func() {
			for i, m := range res.Matches {
				So(m.MatchNumber, ShouldEqual, i+1)
				So(m.Status, ShouldEqual, model.StatusScheduled)
				So(m.Scores, ShouldBeEmpty)
				So(m.Format, ShouldEqual, model.FormatRoundRobin)
			}
		})
	})

	Convey("Given larger odd fields", t, func() {
		for _, n := range []int{3, 7, 9, 11} {
			res, err := roundrobin.Generate(roster(n), roundrobin.Settings{})
			So(err, ShouldBeNil)
			So(len(res.Rounds), ShouldEqual, roundrobin.RoundCount(n))
			So(len(res.Matches), ShouldEqual, roundrobin.MatchCount(n))
		}
	})
}

func TestGenerate_EdgeCases(t *testing.T) {
	Convey("Given fewer than two participants", t, func() {
		res, err := roundrobin.Generate(roster(1), roundrobin.Settings{EventID: "ev"})
		So(err, ShouldBeNil)
		So(res.Status, ShouldEqual, model.ResultInsufficientParticipants)
		So(res.Matches, ShouldBeEmpty)

		res, err = roundrobin.Generate(nil, roundrobin.Settings{})
		So(err, ShouldBeNil)
		So(res.Status, ShouldEqual, model.ResultInsufficientParticipants)
	})

	Convey("Given a roster with a duplicate id", t, func() {
		_, err := roundrobin.Generate([]model.Participant{{ID: "a"}, {ID: "a"}}, roundrobin.Settings{})
		So(errors.Is(err, model.ErrInvalidConfiguration), ShouldBeTrue)
	})

	Convey("Given a negative pass count", t, func() {
		_, err := roundrobin.Generate(roster(4), roundrobin.Settings{Passes: -1})
		So(errors.Is(err, model.ErrInvalidConfiguration), ShouldBeTrue)
	})
}

func TestGenerate_Passes(t *testing.T) {
	Convey("Given a double round robin", t, func() {
		res, err := roundrobin.Generate(roster(4), roundrobin.Settings{EventID: "ev", Passes: 2, Scope: "box1"})
		So(err, ShouldBeNil)

		Convey("Then every pair meets twice with distinct ids and swapped sides", func() {
			So(len(res.Rounds), ShouldEqual, 6)
			So(len(res.Matches), ShouldEqual, 12)
			ids := map[string]bool{}
			for _, m := range res.Matches {
				So(ids[m.ID], ShouldBeFalse)
				ids[m.ID] = true
			}
			first := res.Matches[0]
			second := res.Matches[6]
			So(first.SideA.ID, ShouldEqual, second.SideB.ID)
			So(first.SideB.ID, ShouldEqual, second.SideA.ID)
		})
	})
}

func TestGenerate_Deterministic(t *testing.T) {
	Convey("Given the same input twice", t, func() {
		a, _ := roundrobin.Generate(roster(7), roundrobin.Settings{EventID: "ev"})
		b, _ := roundrobin.Generate(roster(7), roundrobin.Settings{EventID: "ev"})
		So(a, ShouldResemble, b)
	})

	Convey("Given a caller-owned roster", t, func() {
		ps := roster(5)
		before := append([]model.Participant(nil), ps...)
		_, err := roundrobin.Generate(ps, roundrobin.Settings{})
		So(err, ShouldBeNil)
		So(ps, ShouldResemble, before)
	})
}
