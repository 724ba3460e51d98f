package engine

import (
	"fmt"

	"github.com/okian/bracketry/internal/domain/boxleague"
	"github.com/okian/bracketry/internal/domain/elimination"
	"github.com/okian/bracketry/internal/domain/ladder"
	"github.com/okian/bracketry/internal/domain/model"
	"github.com/okian/bracketry/internal/domain/poolplay"
	"github.com/okian/bracketry/internal/domain/promotion"
	"github.com/okian/bracketry/internal/domain/standings"
)

// Table is the standings of an event in its format's shape: one ranked
// table, or one per pool.
type Table struct {
	Format  model.Format        `json:"format"`
	EventID string              `json:"event_id"`
	Rows    []model.StandingRow `json:"rows,omitempty"`
	Pools   []poolplay.Table    `json:"pools,omitempty"`
}

// Standings folds req.Prior into the standings of req.Format. Box requests
// with a box or week number only count that box's matches.
func Standings(req Request) (Table, error) {
	matches := ofFormat(req.Prior, req.Format)
	t := Table{Format: req.Format, EventID: req.EventID}
	var err error
	switch req.Format {
	case model.FormatRoundRobin, model.FormatElimination, model.FormatKingOfCourt:
		t.Rows, err = standings.Compute(req.Participants, matches)
	case model.FormatSwiss:
		t.Rows, err = standings.Compute(req.Participants, matches,
			standings.WithBuchholz(), standings.WithByes(DeriveByes(req.Participants, matches)...))
	case model.FormatFixedBox:
		t.Rows, err = boxleague.FixedStandings(req.Participants, inBox(matches, req.Box))
	case model.FormatRotatingBox:
		t.Rows, err = boxleague.RotatingStandings(req.Participants, inBox(matches, req.Box))
	case model.FormatPool:
		var pools []poolplay.Pool
		pools, err = poolsFor(req)
		if err == nil {
			t.Pools, err = poolplay.PoolStandings(pools, matches)
		}
	case model.FormatLadder:
		var l ladder.Ladder
		l, err = ladder.NewLadder(req.Participants, ladder.Settings{EventID: req.EventID, MaxDistance: req.Ladder.MaxDistance})
		if err == nil {
			l, err = l.ApplyResults(matches)
		}
		if err == nil {
			t.Rows, err = l.Standings(matches)
		}
	default:
		return Table{}, fmt.Errorf("%w: unknown format %q", model.ErrInvalidConfiguration, req.Format)
	}
	if err != nil {
		return Table{}, err
	}
	return t, nil
}

func inBox(ms []model.MatchStub, o BoxOptions) []model.MatchStub {
	var out []model.MatchStub
	for _, m := range ms {
		if o.BoxNumber > 0 && m.BoxNumber != o.BoxNumber {
			continue
		}
		if o.WeekNumber > 0 && m.WeekNumber != o.WeekNumber {
			continue
		}
		out = append(out, m)
	}
	return out
}

func poolsFor(req Request) ([]poolplay.Pool, error) {
	dist, err := poolplay.ParseDistribution(req.Pool.Distribution)
	if err != nil {
		return nil, err
	}
	return poolplay.AssignParticipantsToPools(req.Participants, req.Pool.PoolCount, dist)
}

// BoxRoster is one box of a box league.
type BoxRoster struct {
	Number       int                 `json:"number"`
	Participants []model.Participant `json:"participants"`
}

// PromotionRequest asks for the moves between boxes after a week or season.
type PromotionRequest struct {
	Format     model.Format       `json:"format"`
	EventID    string             `json:"event_id"`
	WeekNumber int                `json:"week_number,omitempty"`
	Boxes      []BoxRoster        `json:"boxes"`
	Settings   promotion.Settings `json:"settings"`
	Prior      []model.MatchStub  `json:"prior,omitempty"`
}

// PromotionPlan is the per-box standings and the moves they produce.
type PromotionPlan struct {
	Boxes     []promotion.Box      `json:"boxes"`
	Movements []promotion.Movement `json:"movements"`
}

// Promotions ranks every box from req.Prior and plans the moves.
func Promotions(req PromotionRequest) (PromotionPlan, error) {
	if req.Format != model.FormatFixedBox && req.Format != model.FormatRotatingBox {
		return PromotionPlan{}, fmt.Errorf("%w: promotion needs a box format, got %q", model.ErrInvalidConfiguration, req.Format)
	}
	plan := PromotionPlan{Boxes: make([]promotion.Box, 0, len(req.Boxes))}
	for _, box := range req.Boxes {
		t, err := Standings(Request{
			Format:       req.Format,
			EventID:      req.EventID,
			Participants: box.Participants,
			Prior:        req.Prior,
			Box:          BoxOptions{BoxNumber: box.Number, WeekNumber: req.WeekNumber},
		})
		if err != nil {
			return PromotionPlan{}, fmt.Errorf("box %d: %w", box.Number, err)
		}
		plan.Boxes = append(plan.Boxes, promotion.Box{Number: box.Number, Standings: t.Rows})
	}
	moves, err := promotion.PlanMovements(plan.Boxes, req.Settings)
	if err != nil {
		return PromotionPlan{}, err
	}
	plan.Movements = moves
	return plan, nil
}

// Bracket rebuilds the knockout bracket of req and applies every decided
// result in req.Prior. Elimination and pool medal requests have brackets.
func Bracket(req Request) (*elimination.Bracket, error) {
	var (
		b   *elimination.Bracket
		err error
	)
	switch {
	case req.Format == model.FormatElimination:
		b, err = elimination.Build(req.Participants, elimination.Settings{
			EventID:    req.EventID,
			PreSeeded:  req.Elimination.PreSeeded,
			ThirdPlace: req.Elimination.ThirdPlace,
		})
	case req.Format == model.FormatPool && req.Pool.Medal:
		var pools []poolplay.Pool
		if pools, err = poolsFor(req); err == nil {
			b, err = poolplay.GenerateMedalBracket(pools, ofFormat(req.Prior, model.FormatPool), poolplay.MedalSettings{
				EventID:    req.EventID,
				Cut:        req.Pool.Cut,
				Passes:     req.Passes,
				ThirdPlace: req.Pool.ThirdPlace,
			})
		}
	default:
		return nil, fmt.Errorf("%w: %q has no bracket", model.ErrInvalidConfiguration, req.Format)
	}
	if err != nil {
		return nil, err
	}
	if b.Status != model.ResultOK {
		return b, nil
	}
	return b.ApplyResults(ofFormat(req.Prior, b.Format))
}
