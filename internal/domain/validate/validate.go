// Package validate checks generator output before it is persisted. Any
// violation is an engine defect and must block the write.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/bracketry/internal/domain/model"
)

// Violation codes.
const (
	CodeEmptyID         = "empty_id"
	CodeSelfPairing     = "self_pairing"
	CodeDuplicateMatch  = "duplicate_match"
	CodeDoubleBooked    = "double_booked"
	CodeMissingPairing  = "missing_pairing"
	CodeRepeatedPairing = "repeated_pairing"
	CodeUnwarnedRematch = "unwarned_rematch"
	CodeUnknownSide     = "unknown_side"
	CodePlaceholder     = "unexpected_placeholder"
	CodeTooManyByes     = "too_many_byes"
	CodeFormatMismatch  = "format_mismatch"
	CodeEventMismatch   = "event_mismatch"
)

const maxReportedMessages = 5

// Expectation describes what the output was generated from.
type Expectation struct {
	Format  model.Format
	EventID string
	// Participants is the roster. When empty, unknown-side checks are skipped.
	Participants []model.Participant
	// Passes of a round-robin style schedule; defaults to one.
	Passes int
	// Bracket allows placeholder sides and skips completeness checks.
	Bracket bool
	// Opponents maps a participant id to the ids it already played. Swiss
	// pairings that repeat one must carry a warning.
	Opponents map[string][]string
}

// Violation is one broken invariant.
type Violation struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	MatchID string   `json:"match_id,omitempty"`
	Round   int      `json:"round,omitempty"`
	SideIDs []string `json:"side_ids,omitempty"`
}

// Report is the structured outcome of Validate.
type Report struct {
	Violations []Violation `json:"violations"`
}

// OK reports whether no violation was found.
func (r Report) OK() bool { return len(r.Violations) == 0 }

// Err returns nil for a clean report, otherwise an error wrapping
// model.ErrValidationFailure.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	msgs := make([]string, 0, maxReportedMessages)
	for i, v := range r.Violations {
		if i == maxReportedMessages {
			msgs = append(msgs, fmt.Sprintf("and %d more", len(r.Violations)-i))
			break
		}
		msgs = append(msgs, v.Message)
	}
	return fmt.Errorf("%w: %s", model.ErrValidationFailure, strings.Join(msgs, "; "))
}

func (r *Report) add(v Violation) { r.Violations = append(r.Violations, v) }

// Validate runs every applicable check against res.
func Validate(exp Expectation, res model.Result) Report {
	var r Report
	if res.Status == model.ResultInsufficientParticipants {
		return r
	}
	roster := make(map[string]bool, len(exp.Participants))
	for _, p := range exp.Participants {
		roster[p.ID] = true
		for _, m := range p.MemberPlayerIDs {
			roster[m] = true
		}
	}

	checkMatches(&r, exp, res, roster)
	checkRounds(&r, exp, res)
	if !exp.Bracket {
		switch exp.Format {
		case model.FormatRoundRobin, model.FormatFixedBox, model.FormatPool:
			checkCompleteness(&r, exp, res)
		case model.FormatSwiss:
			checkRematches(&r, exp, res)
		}
	}
	return r
}

func checkMatches(r *Report, exp Expectation, res model.Result, roster map[string]bool) {
	seen := make(map[string]bool, len(res.Matches))
	for _, m := range res.Matches {
		if m.ID == "" {
			r.add(Violation{Code: CodeEmptyID, Message: fmt.Sprintf("round %d match %d has no id", m.RoundNumber, m.MatchNumber), Round: m.RoundNumber})
			continue
		}
		if seen[m.ID] {
			r.add(Violation{Code: CodeDuplicateMatch, Message: "duplicate match id " + m.ID, MatchID: m.ID})
		}
		seen[m.ID] = true
		if exp.Format != "" && m.Format != exp.Format {
			r.add(Violation{Code: CodeFormatMismatch, Message: fmt.Sprintf("match %s has format %s, want %s", m.ID, m.Format, exp.Format), MatchID: m.ID})
		}
		if exp.EventID != "" && m.EventID != exp.EventID {
			r.add(Violation{Code: CodeEventMismatch, Message: fmt.Sprintf("match %s belongs to event %q", m.ID, m.EventID), MatchID: m.ID})
		}

		for _, side := range []model.Side{m.SideA, m.SideB} {
			if side.IsPlaceholder() {
				if !exp.Bracket && exp.Format != model.FormatElimination {
					r.add(Violation{Code: CodePlaceholder, Message: "placeholder side in " + m.ID, MatchID: m.ID})
				}
				continue
			}
			if len(roster) > 0 && !known(side, roster) {
				r.add(Violation{Code: CodeUnknownSide, Message: fmt.Sprintf("side %s in %s is not on the roster", side.ID, m.ID), MatchID: m.ID, SideIDs: []string{side.ID}})
			}
		}
		if m.SideA.IsPlaceholder() || m.SideB.IsPlaceholder() {
			continue
		}
		if m.SideA.ID == m.SideB.ID || sharesMember(m.SideA, m.SideB) {
			r.add(Violation{
				Code:    CodeSelfPairing,
				Message: fmt.Sprintf("match %s pairs %s against %s", m.ID, m.SideA.ID, m.SideB.ID),
				MatchID: m.ID,
				SideIDs: []string{m.SideA.ID, m.SideB.ID},
			})
		}
	}
}

func known(s model.Side, roster map[string]bool) bool {
	if roster[s.ID] {
		return true
	}
	if len(s.MemberPlayerIDs) == 0 {
		return false
	}
	for _, id := range s.MemberPlayerIDs {
		if !roster[id] {
			return false
		}
	}
	return true
}

func sharesMember(a, b model.Side) bool {
	members := make(map[string]bool)
	for _, id := range a.Members() {
		members[id] = true
	}
	for _, id := range b.Members() {
		if members[id] {
			return true
		}
	}
	return false
}

func checkRounds(r *Report, exp Expectation, res model.Result) {
	singleBye := exp.Format == model.FormatRoundRobin || exp.Format == model.FormatFixedBox || exp.Format == model.FormatSwiss
	for _, round := range res.Rounds {
		booked := make(map[string]bool)
		byes := 0
		for _, p := range round.Pairings {
			if p.IsBye() {
				byes++
			}
			for _, side := range []*model.Side{p.SideA, p.SideB} {
				if side == nil || side.IsPlaceholder() {
					continue
				}
				for _, id := range side.Members() {
					if booked[id] {
						r.add(Violation{
							Code:    CodeDoubleBooked,
							Message: fmt.Sprintf("%s appears twice in round %d", id, round.Number),
							Round:   round.Number,
							SideIDs: []string{id},
						})
					}
					booked[id] = true
				}
			}
		}
		if singleBye && byes > 1 {
			r.add(Violation{Code: CodeTooManyByes, Message: fmt.Sprintf("round %d has %d byes", round.Number, byes), Round: round.Number})
		}
	}
}

type pairKey struct{ a, b string }

func keyOf(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}

func groupOf(m model.MatchStub) string {
	return fmt.Sprintf("%s|%d|%d", m.PoolKey, m.BoxNumber, m.WeekNumber)
}

// checkCompleteness requires every unordered pair of a group to meet exactly
// once per pass. A single group is checked against the roster; several
// groups (pools) against the sides seen in each.
func checkCompleteness(r *Report, exp Expectation, res model.Result) {
	passes := exp.Passes
	if passes < 1 {
		passes = 1
	}
	counts := make(map[string]map[pairKey]int)
	members := make(map[string]map[string]bool)
	for _, m := range res.Matches {
		if m.SideA.IsPlaceholder() || m.SideB.IsPlaceholder() {
			continue
		}
		g := groupOf(m)
		if counts[g] == nil {
			counts[g] = make(map[pairKey]int)
			members[g] = make(map[string]bool)
		}
		counts[g][keyOf(m.SideA.ID, m.SideB.ID)]++
		members[g][m.SideA.ID] = true
		members[g][m.SideB.ID] = true
	}
	if len(counts) == 1 && len(exp.Participants) > 0 {
		for g := range members {
			for _, p := range exp.Participants {
				members[g][p.ID] = true
			}
		}
	}

	groups := make([]string, 0, len(counts))
	for g := range counts {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		ids := make([]string, 0, len(members[g]))
		for id := range members[g] {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				switch c := counts[g][keyOf(ids[i], ids[j])]; {
				case c < passes:
					r.add(Violation{Code: CodeMissingPairing, Message: fmt.Sprintf("%s and %s meet %d times, want %d", ids[i], ids[j], c, passes), SideIDs: []string{ids[i], ids[j]}})
				case c > passes:
					r.add(Violation{Code: CodeRepeatedPairing, Message: fmt.Sprintf("%s and %s meet %d times, want %d", ids[i], ids[j], c, passes), SideIDs: []string{ids[i], ids[j]}})
				}
			}
		}
	}
}

func checkRematches(r *Report, exp Expectation, res model.Result) {
	warned := make(map[string]bool)
	for _, round := range res.Rounds {
		for _, p := range round.Pairings {
			if p.Warning != "" {
				warned[p.MatchID] = true
			}
		}
	}
	played := make(map[pairKey]bool)
	for id, opps := range exp.Opponents {
		for _, o := range opps {
			played[keyOf(id, o)] = true
		}
	}
	for _, m := range res.Matches {
		if played[keyOf(m.SideA.ID, m.SideB.ID)] && !warned[m.ID] {
			r.add(Violation{
				Code:    CodeUnwarnedRematch,
				Message: fmt.Sprintf("%s and %s already met but %s carries no warning", m.SideA.ID, m.SideB.ID, m.ID),
				MatchID: m.ID,
				SideIDs: []string{m.SideA.ID, m.SideB.ID},
			})
		}
	}
}
