package model

import (
	"fmt"
	"strings"
)

// Format tags the competition format a match was generated for.
type Format string

// Supported formats.
const (
	FormatRoundRobin  Format = "round_robin"
	FormatSwiss       Format = "swiss"
	FormatElimination Format = "elimination"
	FormatFixedBox    Format = "fixed_box"
	FormatRotatingBox Format = "rotating_box"
	FormatPool        Format = "pool"
	FormatLadder      Format = "ladder"
	FormatKingOfCourt Format = "king_of_court"
)

// Formats lists every supported format in declaration order.
var Formats = []Format{
	FormatRoundRobin, FormatSwiss, FormatElimination, FormatFixedBox,
	FormatRotatingBox, FormatPool, FormatLadder, FormatKingOfCourt,
}

// ParseFormat converts a string tag into a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown format %q", ErrInvalidConfiguration, s)
}

// MatchStatus is owned by result entry; generators only ever set Scheduled.
type MatchStatus string

// Match statuses.
const (
	StatusScheduled  MatchStatus = "scheduled"
	StatusInProgress MatchStatus = "in_progress"
	StatusCompleted  MatchStatus = "completed"
	StatusCancelled  MatchStatus = "cancelled"
)

// GameScore is the score of one game, side A first.
type GameScore struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Outcome of a match as read from its scores.
type Outcome int

// Outcomes.
const (
	OutcomePending Outcome = iota
	OutcomeSideA
	OutcomeSideB
	OutcomeDraw
)

// MatchStub is an unstored match produced by a generator.
type MatchStub struct {
	ID          string      `json:"id"`
	UUID        string      `json:"uuid"`
	EventID     string      `json:"event_id"`
	Format      Format      `json:"format"`
	SideA       Side        `json:"side_a"`
	SideB       Side        `json:"side_b"`
	RoundNumber int         `json:"round_number"`
	MatchNumber int         `json:"match_number"`
	BoxNumber   int         `json:"box_number,omitempty"`
	PoolKey     string      `json:"pool_key,omitempty"`
	WeekNumber  int         `json:"week_number,omitempty"`
	Status      MatchStatus `json:"status"`
	Scores      []GameScore `json:"scores,omitempty"`
}

// Involves reports whether the side id plays in the match.
func (m MatchStub) Involves(id string) bool {
	return id != "" && (m.SideA.ID == id || m.SideB.ID == id)
}

// Opponent returns the other side for id.
func (m MatchStub) Opponent(id string) (Side, bool) {
	switch id {
	case "":
		return Side{}, false
	case m.SideA.ID:
		return m.SideB, true
	case m.SideB.ID:
		return m.SideA, true
	}
	return Side{}, false
}

// Tally returns games won and points scored by each side. A game counts
// for a side only when its score strictly exceeds the other.
func (m MatchStub) Tally() (gamesA, gamesB, pointsA, pointsB int) {
	for _, g := range m.Scores {
		pointsA += g.A
		pointsB += g.B
		switch {
		case g.A > g.B:
			gamesA++
		case g.B > g.A:
			gamesB++
		}
	}
	return gamesA, gamesB, pointsA, pointsB
}

// Outcome decides the match from its scores: more games won, then more
// points; anything else is a draw. Non-completed matches are pending.
func (m MatchStub) Outcome() Outcome {
	if m.Status != StatusCompleted {
		return OutcomePending
	}
	ga, gb, pa, pb := m.Tally()
	switch {
	case ga > gb:
		return OutcomeSideA
	case gb > ga:
		return OutcomeSideB
	case pa > pb:
		return OutcomeSideA
	case pb > pa:
		return OutcomeSideB
	}
	return OutcomeDraw
}

// WinnerID returns the id of the winning side of a completed, decided match.
func (m MatchStub) WinnerID() (string, bool) {
	switch m.Outcome() {
	case OutcomeSideA:
		return m.SideA.ID, true
	case OutcomeSideB:
		return m.SideB.ID, true
	}
	return "", false
}

// Pairing is one slot of a round. A nil side is a bye.
type Pairing struct {
	SideA   *Side  `json:"side_a,omitempty"`
	SideB   *Side  `json:"side_b,omitempty"`
	MatchID string `json:"match_id,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// IsBye reports whether the pairing awards a bye.
func (p Pairing) IsBye() bool { return p.SideA == nil || p.SideB == nil }

// ByeSide returns the side receiving the bye.
func (p Pairing) ByeSide() (Side, bool) {
	switch {
	case p.SideA != nil && p.SideB == nil:
		return *p.SideA, true
	case p.SideB != nil && p.SideA == nil:
		return *p.SideB, true
	}
	return Side{}, false
}

// Round is a transient group of pairings sharing a round number.
type Round struct {
	Number   int       `json:"number"`
	Name     string    `json:"name,omitempty"`
	Pairings []Pairing `json:"pairings"`
}

// ResultStatus distinguishes a generated schedule from a legitimate empty one.
type ResultStatus string

// Result statuses.
const (
	ResultOK                       ResultStatus = "ok"
	ResultInsufficientParticipants ResultStatus = "insufficient_participants"
)

// Warning codes.
const (
	WarningUnresolvedPairing = "unresolved_pairing"
)

// Warning is a non-fatal condition surfaced alongside generator output.
type Warning struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Round   int      `json:"round,omitempty"`
	SideIDs []string `json:"side_ids,omitempty"`
}

// Result is what every generator returns.
type Result struct {
	Status   ResultStatus `json:"status"`
	Format   Format       `json:"format"`
	EventID  string       `json:"event_id"`
	Rounds   []Round      `json:"rounds,omitempty"`
	Matches  []MatchStub  `json:"matches,omitempty"`
	Bye      *Side        `json:"bye,omitempty"`
	Warnings []Warning    `json:"warnings,omitempty"`
}

// Insufficient builds the empty result returned for too-small fields.
func Insufficient(format Format, eventID string) Result {
	return Result{Status: ResultInsufficientParticipants, Format: format, EventID: eventID}
}

// StandingRow is one line of a standings table.
type StandingRow struct {
	Participant      Participant `json:"participant"`
	Rank             int         `json:"rank"`
	Played           int         `json:"played"`
	Wins             int         `json:"wins"`
	Losses           int         `json:"losses"`
	Draws            int         `json:"draws"`
	GamesWon         int         `json:"games_won"`
	GamesLost        int         `json:"games_lost"`
	PointsFor        int         `json:"points_for"`
	PointsAgainst    int         `json:"points_against"`
	Buchholz         int         `json:"buchholz,omitempty"`
	TiedWithPrevious bool        `json:"tied_with_previous,omitempty"`
}

// PointDiff is points for minus points against.
func (r StandingRow) PointDiff() int { return r.PointsFor - r.PointsAgainst }
