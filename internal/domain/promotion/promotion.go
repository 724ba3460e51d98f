// Package promotion slices ranked standings into promote, stay and relegate
// groups and plans the resulting moves between boxes.
package promotion

import (
	"fmt"
	"sort"

	"github.com/okian/bracketry/internal/domain/model"
)

// Settings is the per-box promotion configuration.
type Settings struct {
	PromotionCount  int `json:"promotion_count"`
	RelegationCount int `json:"relegation_count"`
}

// Outcome holds three disjoint slices of a standings table.
type Outcome struct {
	Promoting  []model.StandingRow `json:"promoting"`
	Staying    []model.StandingRow `json:"staying"`
	Relegating []model.StandingRow `json:"relegating"`
}

// Resolve slices rows, which must already be in rank order. Counts that are
// negative or that together exceed the table are rejected, never truncated.
func Resolve(rows []model.StandingRow, s Settings) (Outcome, error) {
	if s.PromotionCount < 0 || s.RelegationCount < 0 {
		return Outcome{}, fmt.Errorf("%w: promotion and relegation counts must not be negative", model.ErrInvalidConfiguration)
	}
	if s.PromotionCount+s.RelegationCount > len(rows) {
		return Outcome{}, fmt.Errorf("%w: promotion %d + relegation %d exceeds %d participants",
			model.ErrInvalidConfiguration, s.PromotionCount, s.RelegationCount, len(rows))
	}
	cut := len(rows) - s.RelegationCount
	return Outcome{
		Promoting:  append([]model.StandingRow{}, rows[:s.PromotionCount]...),
		Staying:    append([]model.StandingRow{}, rows[s.PromotionCount:cut]...),
		Relegating: append([]model.StandingRow{}, rows[cut:]...),
	}, nil
}

// Direction of a planned move.
type Direction string

// Directions.
const (
	Promoted  Direction = "promoted"
	Stayed    Direction = "stayed"
	Relegated Direction = "relegated"
)

// Box is one box's final standings. Lower numbers are stronger boxes.
type Box struct {
	Number    int                 `json:"number"`
	Standings []model.StandingRow `json:"standings"`
}

// Movement places a participant for the next season or week.
type Movement struct {
	ParticipantID string    `json:"participant_id"`
	FromBox       int       `json:"from_box"`
	ToBox         int       `json:"to_box"`
	Direction     Direction `json:"direction"`
}

// PlanMovements resolves every box and moves promoted entrants one box up
// and relegated entrants one box down. The top box cannot promote and the
// bottom box cannot relegate; those entrants stay.
func PlanMovements(boxes []Box, s Settings) ([]Movement, error) {
	ordered := append([]Box(nil), boxes...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Number < ordered[j].Number })
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Number == ordered[i-1].Number {
			return nil, fmt.Errorf("%w: duplicate box %d", model.ErrInvalidConfiguration, ordered[i].Number)
		}
	}

	var moves []Movement
	for i, box := range ordered {
		out, err := Resolve(box.Standings, s)
		if err != nil {
			return nil, fmt.Errorf("box %d: %w", box.Number, err)
		}
		for _, r := range out.Promoting {
			mv := Movement{ParticipantID: r.Participant.ID, FromBox: box.Number, ToBox: box.Number, Direction: Stayed}
			if i > 0 {
				mv.ToBox, mv.Direction = ordered[i-1].Number, Promoted
			}
			moves = append(moves, mv)
		}
		for _, r := range out.Staying {
			moves = append(moves, Movement{ParticipantID: r.Participant.ID, FromBox: box.Number, ToBox: box.Number, Direction: Stayed})
		}
		for _, r := range out.Relegating {
			mv := Movement{ParticipantID: r.Participant.ID, FromBox: box.Number, ToBox: box.Number, Direction: Stayed}
			if i < len(ordered)-1 {
				mv.ToBox, mv.Direction = ordered[i+1].Number, Relegated
			}
			moves = append(moves, mv)
		}
	}
	return moves, nil
}
