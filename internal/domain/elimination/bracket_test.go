package elimination_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/okian/bracketry/internal/domain/elimination"
	"github.com/okian/bracketry/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func seeds(n int) []model.Participant {
	ps := make([]model.Participant, n)
	for i := range ps {
		// Reverse the slice order so sorting has work to do.
		ps[n-1-i] = model.Participant{ID: fmt.Sprintf("s%d", i+1), Rating: model.Rating(float64(100 - i))}
	}
	return ps
}

func TestBuild_EightSeeds(t *testing.T) {
	Convey("Given eight seeds rated 10 down to 3", t, func() {
		ratings := []float64{10, 9, 8, 7, 6, 5, 4, 3}
		ps := make([]model.Participant, 0, len(ratings))
		for i, r := range ratings {
			ps = append(ps, model.Participant{ID: fmt.Sprintf("s%d", i+1), Rating: model.Rating(r)})
		}
		b, err := elimination.Build(ps, elimination.Settings{EventID: "cup"})
		So(err, ShouldBeNil)

		Convey("Then seed 1 faces seed 8 in round one and there are no byes", func() {
			So(b.Size, ShouldEqual, 8)
			So(b.NumRounds, ShouldEqual, 3)
			So(b.Byes(), ShouldBeEmpty)
			first := b.Matches[0]
			So(first.ID, ShouldEqual, "elimination_cup_main_r1m1")
			So(first.SideA.ID, ShouldEqual, "s1")
			So(first.SideB.ID, ShouldEqual, "s8")
		})

		Convey("And standard seeding keeps the top seeds apart", func() {
			So(b.Matches[1].SideA.ID, ShouldEqual, "s4")
			So(b.Matches[1].SideB.ID, ShouldEqual, "s5")
			So(b.Matches[2].SideA.ID, ShouldEqual, "s2")
			So(b.Matches[2].SideB.ID, ShouldEqual, "s7")
			So(b.Matches[3].SideA.ID, ShouldEqual, "s3")
			So(b.Matches[3].SideB.ID, ShouldEqual, "s6")
		})

		Convey("And later rounds are placeholders with round names", func() {
			So(len(b.Matches), ShouldEqual, 7)
			So(b.Matches[4].SideA.IsPlaceholder(), ShouldBeTrue)
			So(b.Matches[4].SideA.Name, ShouldEqual, "Winner of R1 M1")
			res := b.Result()
			So(res.Rounds[0].Name, ShouldEqual, "Quarterfinal")
			So(res.Rounds[1].Name, ShouldEqual, "Semifinal")
			So(res.Rounds[2].Name, ShouldEqual, "Final")
		})
	})
}

func TestBuild_Byes(t *testing.T) {
	Convey("Given fields that are not a power of two", t, func() {
		for k := 2; k <= 20; k++ {
			b, err := elimination.Build(seeds(k), elimination.Settings{EventID: "ev"})
			So(err, ShouldBeNil)

			size := elimination.BracketSize(k)
			So(b.Size, ShouldEqual, size)
			So(size >= k && size/2 < k, ShouldBeTrue)
			So(len(b.Matches), ShouldEqual, k-1)

			byes := b.Byes()
			So(len(byes), ShouldEqual, size-k)
			for i, side := range byes {
				So(side.ID, ShouldEqual, fmt.Sprintf("s%d", i+1))
			}
		}
	})

	Convey("Given five entrants", t, func() {
		b, err := elimination.Build(seeds(5), elimination.Settings{EventID: "ev"})
		So(err, ShouldBeNil)

		Convey("Then bye recipients are pre-placed in round two", func() {
			So(b.Matches[0].SideA.ID, ShouldEqual, "s4")
			So(b.Matches[0].SideB.ID, ShouldEqual, "s5")
			So(b.Matches[1].RoundNumber, ShouldEqual, 2)
			So(b.Matches[1].SideA.ID, ShouldEqual, "s1")
			So(b.Matches[1].SideB.IsPlaceholder(), ShouldBeTrue)
			So(b.Matches[2].SideA.ID, ShouldEqual, "s2")
			So(b.Matches[2].SideB.ID, ShouldEqual, "s3")
		})

		Convey("And the first round lists the byes", func() {
			res := b.Result()
			byes := 0
			for _, p := range res.Rounds[0].Pairings {
				if p.IsBye() {
					byes++
				}
			}
			So(byes, ShouldEqual, 3)
		})
	})

	Convey("Given one entrant", t, func() {
		b, err := elimination.Build(seeds(1), elimination.Settings{})
		So(err, ShouldBeNil)
		So(b.Result().Status, ShouldEqual, model.ResultInsufficientParticipants)
	})

	Convey("Given a pre-seeded field", t, func() {
		ps := []model.Participant{{ID: "low", Rating: model.Rating(1)}, {ID: "high", Rating: model.Rating(9)}}
		b, err := elimination.Build(ps, elimination.Settings{PreSeeded: true})
		So(err, ShouldBeNil)
		So(b.Seeds[0].ID, ShouldEqual, "low")
		So(b.Matches[0].SideA.ID, ShouldEqual, "low")
	})
}

func TestAdvanceWinner(t *testing.T) {
	Convey("Given a four-entrant bracket", t, func() {
		b, err := elimination.Build(seeds(4), elimination.Settings{EventID: "ev"})
		So(err, ShouldBeNil)
		semi1 := b.Matches[0].ID
		semi2 := b.Matches[1].ID
		final := b.Matches[2].ID

		Convey("When the first semifinal is decided", func() {
			next, adv, err := b.AdvanceWinner(semi1, "s1")
			So(err, ShouldBeNil)

			Convey("Then the winner fills the final without touching the original", func() {
				m, _ := next.Match(final)
				So(m.SideA.ID, ShouldEqual, "s1")
				So(adv.Targets, ShouldResemble, []elimination.Target{{MatchID: final, Side: "A", SideID: "s1"}})
				orig, _ := b.Match(final)
				So(orig.SideA.IsPlaceholder(), ShouldBeTrue)
			})

			Convey("And repeating the call is a no-op", func() {
				again, adv2, err := next.AdvanceWinner(semi1, "s1")
				So(err, ShouldBeNil)
				So(adv2.NoOp, ShouldBeTrue)
				So(again.Matches, ShouldResemble, next.Matches)
			})

			Convey("And a different winner conflicts", func() {
				_, _, err := next.AdvanceWinner(semi1, "s4")
				So(errors.Is(err, model.ErrConflictingResult), ShouldBeTrue)
			})

			Convey("And the final cannot be decided before both feeders", func() {
				_, _, err := next.AdvanceWinner(final, "s1")
				So(errors.Is(err, model.ErrInvalidConfiguration), ShouldBeTrue)
			})

			Convey("And deciding the whole bracket names the champion", func() {
				n2, _, err := next.AdvanceWinner(semi2, "s3")
				So(err, ShouldBeNil)
				n3, adv3, err := n2.AdvanceWinner(final, "s3")
				So(err, ShouldBeNil)
				So(adv3.Champion, ShouldEqual, "s3")
				champ, ok := n3.Champion()
				So(ok, ShouldBeTrue)
				So(champ, ShouldEqual, "s3")
			})
		})

		Convey("When the winner does not play in the match", func() {
			_, _, err := b.AdvanceWinner(semi1, "s2")
			So(errors.Is(err, model.ErrInvalidConfiguration), ShouldBeTrue)
		})

		Convey("When the match is unknown", func() {
			_, _, err := b.AdvanceWinner("nope", "s1")
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestThirdPlaceAndReplay(t *testing.T) {
	Convey("Given a bracket with a third-place match", t, func() {
		b, err := elimination.Build(seeds(4), elimination.Settings{EventID: "ev", ThirdPlace: true})
		So(err, ShouldBeNil)
		So(len(b.Matches), ShouldEqual, 4)
		third := b.Matches[3]
		So(third.ID, ShouldEqual, "elimination_ev_main.third_r2m1")

		Convey("When results are replayed from stored matches", func() {
			played := []model.MatchStub{b.Matches[0], b.Matches[1]}
			played[0].Status = model.StatusCompleted
			played[0].Scores = []model.GameScore{{A: 21, B: 10}}
			played[1].Status = model.StatusCompleted
			played[1].Scores = []model.GameScore{{A: 5, B: 21}}

			next, err := b.ApplyResults(played)
			So(err, ShouldBeNil)

			Convey("Then winners reach the final and losers the third-place match", func() {
				final, _ := next.Match(b.Matches[2].ID)
				So(final.SideA.ID, ShouldEqual, "s1")
				So(final.SideB.ID, ShouldEqual, "s3")
				m, _ := next.Match(third.ID)
				So(m.SideA.ID, ShouldEqual, "s4")
				So(m.SideB.ID, ShouldEqual, "s2")
			})

			Convey("And play order puts feeders first", func() {
				order, err := next.PlayOrder()
				So(err, ShouldBeNil)
				So(len(order), ShouldEqual, 4)
				So(order[0], ShouldEqual, b.Matches[0].ID)
				So(order[1], ShouldEqual, b.Matches[1].ID)
			})

			Convey("And the final's feeders are the semifinals", func() {
				feeders, err := next.Feeders(b.Matches[2].ID)
				So(err, ShouldBeNil)
				So(feeders, ShouldResemble, []string{b.Matches[0].ID, b.Matches[1].ID})
			})
		})
	})

	Convey("Given round names for a large bracket", t, func() {
		So(elimination.RoundName(5, 1), ShouldEqual, "Round of 32")
		So(elimination.RoundName(5, 2), ShouldEqual, "Round of 16")
		So(elimination.RoundName(5, 3), ShouldEqual, "Quarterfinal")
	})
}
