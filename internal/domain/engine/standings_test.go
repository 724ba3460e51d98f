package engine_test

import (
	"errors"
	"testing"

	"github.com/okian/bracketry/internal/domain/engine"
	"github.com/okian/bracketry/internal/domain/model"
	"github.com/okian/bracketry/internal/domain/promotion"
	"github.com/okian/bracketry/internal/domain/swiss"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStandings(t *testing.T) {
	Convey("Given a completed round robin", t, func() {
		req := engine.Request{Format: model.FormatRoundRobin, EventID: "ev", Participants: roster(4)}
		out, err := engine.Generate(req)
		So(err, ShouldBeNil)
		req.Prior = byRating(out.Result.Matches)

		Convey("Then the table follows the ratings", func() {
			table, err := engine.Standings(req)
			So(err, ShouldBeNil)
			So(table.Rows, ShouldHaveLength, 4)
			for i, row := range table.Rows {
				So(row.Rank, ShouldEqual, i+1)
				So(row.Wins, ShouldEqual, 3-i)
				So(row.Played, ShouldEqual, 3)
			}
			So(table.Rows[0].Participant.ID, ShouldEqual, "p1")
		})
	})

	Convey("Given a pool stage", t, func() {
		req := engine.Request{Format: model.FormatPool, EventID: "ev", Participants: roster(8), Pool: engine.PoolOptions{PoolCount: 2}}
		out, err := engine.Generate(req)
		So(err, ShouldBeNil)
		req.Prior = byRating(out.Result.Matches)

		Convey("Then one table per pool is returned", func() {
			table, err := engine.Standings(req)
			So(err, ShouldBeNil)
			So(table.Rows, ShouldBeEmpty)
			So(table.Pools, ShouldHaveLength, 2)
			So(table.Pools[0].PoolKey, ShouldEqual, "A")
			So(table.Pools[0].Rows[0].Participant.ID, ShouldEqual, "p1")
			So(table.Pools[1].Rows[0].Participant.ID, ShouldEqual, "p2")
		})
	})

	Convey("Given a Swiss round with a cancelled match", t, func() {
		ps := roster(4)
		req := engine.Request{Format: model.FormatSwiss, EventID: "ev", Participants: ps}
		req.Prior = []model.MatchStub{
			{Format: model.FormatSwiss, RoundNumber: 1, MatchNumber: 1, SideA: ps[0].Snapshot(), SideB: ps[1].Snapshot(),
				Status: model.StatusCompleted, Scores: []model.GameScore{{A: 11, B: 5}}},
			{Format: model.FormatSwiss, RoundNumber: 1, MatchNumber: 2, SideA: ps[2].Snapshot(), SideB: ps[3].Snapshot(),
				Status: model.StatusCancelled},
		}

		Convey("Then neither side of the cancelled match is credited a bye", func() {
			So(engine.DeriveByes(ps, req.Prior), ShouldBeEmpty)

			table, err := engine.Standings(req)
			So(err, ShouldBeNil)
			rows := map[string]model.StandingRow{}
			for _, row := range table.Rows {
				rows[row.Participant.ID] = row
			}
			So(table.Rows[0].Participant.ID, ShouldEqual, "p1")
			So(rows["p3"].Wins, ShouldEqual, 0)
			So(rows["p4"].Wins, ShouldEqual, 0)
			So(rows["p3"].Played, ShouldEqual, 0)
		})

		Convey("Then the next Swiss round sees no bye winners", func() {
			entrants, err := swiss.EntrantsFromMatches(ps, req.Prior, engine.DeriveByes(ps, req.Prior))
			So(err, ShouldBeNil)
			for _, e := range entrants {
				So(e.HadBye, ShouldBeFalse)
			}
			So(entrants[0].Wins, ShouldEqual, 1)
			So(entrants[2].Wins, ShouldEqual, 0)
			So(entrants[3].Wins, ShouldEqual, 0)

			_, err = engine.Generate(req)
			So(err, ShouldBeNil)
		})
	})

	Convey("Given a participant who joined after the first round", t, func() {
		ps := roster(5)
		ms := []model.MatchStub{
			{RoundNumber: 1, SideA: ps[0].Snapshot(), SideB: ps[1].Snapshot()},
			{RoundNumber: 2, SideA: ps[0].Snapshot(), SideB: ps[2].Snapshot()},
			{RoundNumber: 2, SideA: ps[1].Snapshot(), SideB: ps[4].Snapshot()},
		}

		Convey("Then only the single absentee of a round is credited", func() {
			So(engine.DeriveByes(ps, ms), ShouldResemble, []string{"p4"})
		})
	})

	Convey("Given an unknown format", t, func() {
		_, err := engine.Standings(engine.Request{Format: "darts"})
		So(errors.Is(err, model.ErrInvalidConfiguration), ShouldBeTrue)
	})
}

func TestPromotions(t *testing.T) {
	Convey("Given two completed fixed boxes", t, func() {
		players := roster(6)
		boxes := []engine.BoxRoster{
			{Number: 1, Participants: players[:3]},
			{Number: 2, Participants: players[3:]},
		}
		var prior []model.MatchStub
		for _, box := range boxes {
			out, err := engine.Generate(engine.Request{
				Format:       model.FormatFixedBox,
				EventID:      "league",
				Participants: box.Participants,
				Box:          engine.BoxOptions{BoxNumber: box.Number},
			})
			So(err, ShouldBeNil)
			prior = append(prior, byRating(out.Result.Matches)...)
		}

		Convey("When one promotes and one relegates per box", func() {
			plan, err := engine.Promotions(engine.PromotionRequest{
				Format:   model.FormatFixedBox,
				EventID:  "league",
				Boxes:    boxes,
				Settings: promotion.Settings{PromotionCount: 1, RelegationCount: 1},
				Prior:    prior,
			})
			So(err, ShouldBeNil)

			Convey("Then each box is ranked from its own matches only", func() {
				So(plan.Boxes, ShouldHaveLength, 2)
				So(plan.Boxes[0].Standings[0].Played, ShouldEqual, 2)
				So(plan.Boxes[1].Standings[0].Participant.ID, ShouldEqual, "p4")
			})

			Convey("Then the boundary players swap boxes", func() {
				moved := map[string]promotion.Movement{}
				for _, mv := range plan.Movements {
					moved[mv.ParticipantID] = mv
				}
				So(plan.Movements, ShouldHaveLength, 6)
				So(moved["p1"].Direction, ShouldEqual, promotion.Stayed)
				So(moved["p3"].Direction, ShouldEqual, promotion.Relegated)
				So(moved["p3"].ToBox, ShouldEqual, 2)
				So(moved["p4"].Direction, ShouldEqual, promotion.Promoted)
				So(moved["p4"].ToBox, ShouldEqual, 1)
				So(moved["p6"].Direction, ShouldEqual, promotion.Stayed)
			})
		})

		Convey("When the format is not a box league", func() {
			_, err := engine.Promotions(engine.PromotionRequest{Format: model.FormatSwiss})
			So(errors.Is(err, model.ErrInvalidConfiguration), ShouldBeTrue)
		})
	})
}

func TestBracket(t *testing.T) {
	Convey("Given a four player knockout with the first round played", t, func() {
		req := engine.Request{Format: model.FormatElimination, EventID: "cup", Participants: roster(4)}
		out, err := engine.Generate(req)
		So(err, ShouldBeNil)

		var firstRound []model.MatchStub
		for _, m := range out.Result.Matches {
			if m.RoundNumber == 1 {
				firstRound = append(firstRound, m)
			}
		}
		req.Prior = byRating(firstRound)

		Convey("Then the final holds both winners", func() {
			b, err := engine.Bracket(req)
			So(err, ShouldBeNil)
			final := b.Matches[2]
			So(final.RoundNumber, ShouldEqual, 2)
			So(final.SideA.ID, ShouldEqual, "p1")
			So(final.SideB.ID, ShouldEqual, "p2")

			Convey("And deciding the final crowns a champion", func() {
				req.Prior = append(req.Prior, byRating([]model.MatchStub{final})...)
				b, err := engine.Bracket(req)
				So(err, ShouldBeNil)
				champion, ok := b.Champion()
				So(ok, ShouldBeTrue)
				So(champion, ShouldEqual, "p1")
			})
		})
	})

	Convey("Given a format without a bracket", t, func() {
		_, err := engine.Bracket(engine.Request{Format: model.FormatRoundRobin})
		So(errors.Is(err, model.ErrInvalidConfiguration), ShouldBeTrue)
	})
}
