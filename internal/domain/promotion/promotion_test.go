package promotion_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/okian/bracketry/internal/domain/model"
	"github.com/okian/bracketry/internal/domain/promotion"
	. "github.com/smartystreets/goconvey/convey"
)

func table(prefix string, n int) []model.StandingRow {
	rows := make([]model.StandingRow, n)
	for i := range rows {
		rows[i] = model.StandingRow{Participant: model.Participant{ID: fmt.Sprintf("%s%02d", prefix, i+1)}, Rank: i + 1}
	}
	return rows
}

func TestResolve(t *testing.T) {
	Convey("Given a ten-row standings table", t, func() {
		rows := table("p", 10)

		Convey("When promoting two and relegating two", func() {
			out, err := promotion.Resolve(rows, promotion.Settings{PromotionCount: 2, RelegationCount: 2})
			So(err, ShouldBeNil)

			Convey("Then the slices are 2, 6 and 2 with no overlap", func() {
				So(len(out.Promoting), ShouldEqual, 2)
				So(len(out.Staying), ShouldEqual, 6)
				So(len(out.Relegating), ShouldEqual, 2)

				seen := map[string]bool{}
				for _, group := range [][]model.StandingRow{out.Promoting, out.Staying, out.Relegating} {
					for _, r := range group {
						So(seen[r.Participant.ID], ShouldBeFalse)
						seen[r.Participant.ID] = true
					}
				}
				So(len(seen), ShouldEqual, 10)
				So(out.Promoting[0].Participant.ID, ShouldEqual, "p01")
				So(out.Relegating[1].Participant.ID, ShouldEqual, "p10")
			})
		})

		Convey("When the counts fill the table exactly", func() {
			out, err := promotion.Resolve(rows, promotion.Settings{PromotionCount: 5, RelegationCount: 5})
			So(err, ShouldBeNil)
			So(out.Staying, ShouldBeEmpty)
		})

		Convey("When the counts exceed the table", func() {
			_, err := promotion.Resolve(rows, promotion.Settings{PromotionCount: 6, RelegationCount: 5})
			So(errors.Is(err, model.ErrInvalidConfiguration), ShouldBeTrue)
		})

		Convey("When a count is negative", func() {
			_, err := promotion.Resolve(rows, promotion.Settings{PromotionCount: -1})
			So(errors.Is(err, model.ErrInvalidConfiguration), ShouldBeTrue)
		})
	})
}

func TestPlanMovements(t *testing.T) {
	Convey("Given three boxes of four", t, func() {
		boxes := []promotion.Box{
			{Number: 3, Standings: table("c", 4)},
			{Number: 1, Standings: table("a", 4)},
			{Number: 2, Standings: table("b", 4)},
		}
		moves, err := promotion.PlanMovements(boxes, promotion.Settings{PromotionCount: 1, RelegationCount: 1})
		So(err, ShouldBeNil)

		byID := map[string]promotion.Movement{}
		for _, m := range moves {
			byID[m.ParticipantID] = m
		}

		Convey("Then middle boxes exchange entrants both ways", func() {
			So(byID["b01"].ToBox, ShouldEqual, 1)
			So(byID["b01"].Direction, ShouldEqual, promotion.Promoted)
			So(byID["b04"].ToBox, ShouldEqual, 3)
			So(byID["b04"].Direction, ShouldEqual, promotion.Relegated)
		})

		Convey("And the edges of the ladder stay put", func() {
			So(byID["a01"].Direction, ShouldEqual, promotion.Stayed)
			So(byID["a01"].ToBox, ShouldEqual, 1)
			So(byID["c04"].Direction, ShouldEqual, promotion.Stayed)
			So(byID["c04"].ToBox, ShouldEqual, 3)
			So(byID["a04"].ToBox, ShouldEqual, 2)
			So(byID["c01"].ToBox, ShouldEqual, 2)
		})

		Convey("And everyone is placed exactly once", func() {
			So(len(moves), ShouldEqual, 12)
			So(len(byID), ShouldEqual, 12)
		})
	})

	Convey("Given duplicate box numbers", t, func() {
		_, err := promotion.PlanMovements([]promotion.Box{{Number: 1}, {Number: 1}}, promotion.Settings{})
		So(errors.Is(err, model.ErrInvalidConfiguration), ShouldBeTrue)
	})
}
