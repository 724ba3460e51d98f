package engine_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/okian/bracketry/internal/domain/engine"
	"github.com/okian/bracketry/internal/domain/model"
	"github.com/okian/bracketry/internal/domain/validate"
	. "github.com/smartystreets/goconvey/convey"
)

func roster(n int) []model.Participant {
	ps := make([]model.Participant, n)
	for i := range ps {
		ps[i] = model.Participant{ID: fmt.Sprintf("p%d", i+1), Rating: model.Rating(float64(n - i))}
	}
	return ps
}

// byRating completes matches with the higher-rated side winning.
func byRating(ms []model.MatchStub) []model.MatchStub {
	out := make([]model.MatchStub, len(ms))
	for i, m := range ms {
		m.Status = model.StatusCompleted
		if m.SideA.Rating != nil && m.SideB.Rating != nil && *m.SideA.Rating > *m.SideB.Rating {
			m.Scores = []model.GameScore{{A: 11, B: 4}}
		} else {
			m.Scores = []model.GameScore{{A: 4, B: 11}}
		}
		out[i] = m
	}
	return out
}

func TestGenerateEveryFormat(t *testing.T) {
	Convey("Given a request for every format", t, func() {
		cases := []engine.Request{
			{Format: model.FormatRoundRobin, EventID: "ev", Participants: roster(6)},
			{Format: model.FormatSwiss, EventID: "ev", Participants: roster(7)},
			{Format: model.FormatElimination, EventID: "ev", Participants: roster(11), Elimination: engine.EliminationOptions{ThirdPlace: true}},
			{Format: model.FormatFixedBox, EventID: "ev", Participants: roster(5), Box: engine.BoxOptions{BoxNumber: 1}},
			{Format: model.FormatRotatingBox, EventID: "ev", Participants: roster(9), Box: engine.BoxOptions{BoxNumber: 2}},
			{Format: model.FormatPool, EventID: "ev", Participants: roster(10), Pool: engine.PoolOptions{PoolCount: 3}},
			{Format: model.FormatLadder, EventID: "ev", Participants: roster(4), Ladder: engine.LadderOptions{ChallengerID: "p3", DefenderID: "p1"}},
			{Format: model.FormatKingOfCourt, EventID: "ev", Participants: roster(9), KingOfCourt: engine.KingOfCourtOptions{Courts: 2}},
		}

		for _, req := range cases {
			Convey(fmt.Sprintf("Then %s output is clean", req.Format), func() {
				out, err := engine.Generate(req)
				So(err, ShouldBeNil)
				So(out.Result.Status, ShouldEqual, model.ResultOK)
				So(out.Result.Matches, ShouldNotBeEmpty)
				report := validate.Validate(out.Expect, out.Result)
				So(report.Violations, ShouldBeEmpty)
			})
		}
	})

	Convey("Given an unknown format", t, func() {
		_, err := engine.Generate(engine.Request{Format: "bingo"})
		So(errors.Is(err, model.ErrInvalidConfiguration), ShouldBeTrue)
	})
}

func TestGenerateFromPriorMatches(t *testing.T) {
	Convey("Given a played first Swiss round", t, func() {
		ps := roster(5)
		first, err := engine.Generate(engine.Request{Format: model.FormatSwiss, EventID: "ev", Participants: ps})
		So(err, ShouldBeNil)
		So(first.Result.Bye.ID, ShouldEqual, "p5")

		second, err := engine.Generate(engine.Request{
			Format:       model.FormatSwiss,
			EventID:      "ev",
			Participants: ps,
			Prior:        byRating(first.Result.Matches),
		})
		So(err, ShouldBeNil)

		Convey("Then the next round continues numbering and skips the earlier bye", func() {
			So(second.Result.Matches[0].RoundNumber, ShouldEqual, 2)
			So(second.Result.Matches[0].MatchNumber, ShouldEqual, 3)
			So(second.Result.Bye.ID, ShouldEqual, "p4")
			So(validate.Validate(second.Expect, second.Result).OK(), ShouldBeTrue)
		})
	})

	Convey("Given pools that are not finished", t, func() {
		req := engine.Request{Format: model.FormatPool, EventID: "ev", Participants: roster(8), Pool: engine.PoolOptions{PoolCount: 2}}
		stage, err := engine.Generate(req)
		So(err, ShouldBeNil)

		req.Pool.Medal, req.Pool.Cut = true, 2
		req.Prior = stage.Result.Matches
		_, err = engine.Generate(req)
		So(errors.Is(err, model.ErrBracketNotReady), ShouldBeTrue)

		Convey("When every pool match is complete the medal bracket is built", func() {
			req.Prior = byRating(stage.Result.Matches)
			out, err := engine.Generate(req)
			So(err, ShouldBeNil)
			So(len(out.Result.Matches), ShouldEqual, 3)
			So(validate.Validate(out.Expect, out.Result).OK(), ShouldBeTrue)
		})
	})

	Convey("Given a king-of-court session after one round", t, func() {
		req := engine.Request{Format: model.FormatKingOfCourt, EventID: "ev", Participants: roster(6), KingOfCourt: engine.KingOfCourtOptions{Courts: 2}}
		first, err := engine.Generate(req)
		So(err, ShouldBeNil)

		req.KingOfCourt.State = first.KingOfCourt
		req.Prior = byRating(first.Result.Matches)
		next, err := engine.Generate(req)
		So(err, ShouldBeNil)
		So(next.KingOfCourt.Round, ShouldEqual, 2)
		So(next.Result.Matches[0].SideA.ID, ShouldEqual, "p1")
		So(next.Result.Matches[0].SideB.ID, ShouldEqual, "p3")
	})

	Convey("Given a ladder with an open challenge", t, func() {
		req := engine.Request{Format: model.FormatLadder, EventID: "ev", Participants: roster(4), Ladder: engine.LadderOptions{ChallengerID: "p2", DefenderID: "p1"}}
		first, err := engine.Generate(req)
		So(err, ShouldBeNil)

		req.Prior = first.Result.Matches
		req.Ladder = engine.LadderOptions{ChallengerID: "p3", DefenderID: "p2"}
		_, err = engine.Generate(req)
		So(errors.Is(err, model.ErrInvalidChallenge), ShouldBeTrue)
	})

	Convey("DeriveByes finds the absentee of each played round", t, func() {
		ps := roster(3)
		ms := []model.MatchStub{
			{RoundNumber: 1, SideA: ps[0].Snapshot(), SideB: ps[1].Snapshot()},
			{RoundNumber: 2, SideA: ps[0].Snapshot(), SideB: ps[2].Snapshot()},
		}
		So(engine.DeriveByes(ps, ms), ShouldResemble, []string{"p3", "p2"})
	})
}
