// Package swiss pairs one Swiss round at a time from live standings.
//
// The pairer is greedy: entrants are grouped by wins, paired inside the
// group, and anyone left over floats into the next lower group. When the
// lowest group still cannot be resolved a rematch is forced and reported
// as an unresolved_pairing warning instead of an error.
package swiss

import (
	"fmt"
	"sort"

	"github.com/okian/bracketry/internal/domain/identity"
	"github.com/okian/bracketry/internal/domain/model"
)

// Method selects how a score group is paired.
type Method string

// Pairing methods.
const (
	MethodAdjacent Method = "adjacent"
	MethodSlide    Method = "slide"
)

// ParseMethod validates a pairing method name; empty means adjacent.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case "", MethodAdjacent:
		return MethodAdjacent, nil
	case MethodSlide:
		return MethodSlide, nil
	}
	return "", fmt.Errorf("%w: unknown swiss pairing method %q", model.ErrInvalidConfiguration, s)
}

// Settings configures the round being paired.
type Settings struct {
	EventID string
	// Round is the 1-based number of the round being paired.
	Round  int
	Method Method
	// FirstMatchNumber offsets the sequential match numbering.
	FirstMatchNumber int
}

// Entrant is a participant annotated with its running record.
type Entrant struct {
	Participant model.Participant
	Wins        int
	Losses      int
	// Opponents holds ids already played.
	Opponents []string
	// HadBye marks entrants that already received a bye.
	HadBye bool
}

type entrant struct {
	Entrant
	played map[string]struct{}
}

func (e *entrant) hasPlayed(o *entrant) bool {
	if _, ok := e.played[o.Participant.ID]; ok {
		return true
	}
	_, ok := o.played[e.Participant.ID]
	return ok
}

type pair struct {
	a, b   *entrant
	forced bool
}

// Pair produces the pairings of a single round.
func Pair(entrants []Entrant, s Settings) (model.Result, error) {
	method, err := ParseMethod(string(s.Method))
	if err != nil {
		return model.Result{}, err
	}
	if s.Round < 0 {
		return model.Result{}, fmt.Errorf("%w: round must not be negative", model.ErrInvalidConfiguration)
	}
	if s.Round == 0 {
		s.Round = 1
	}
	if s.FirstMatchNumber <= 0 {
		s.FirstMatchNumber = 1
	}
	participants := make([]model.Participant, len(entrants))
	for i, e := range entrants {
		participants[i] = e.Participant
		if e.Wins < 0 || e.Losses < 0 {
			return model.Result{}, fmt.Errorf("%w: entrant %q has a negative record", model.ErrInvalidConfiguration, e.Participant.ID)
		}
	}
	if err := model.ValidateRoster(participants); err != nil {
		return model.Result{}, err
	}
	if len(entrants) < 2 {
		return model.Insufficient(model.FormatSwiss, s.EventID), nil
	}

	pool := make([]*entrant, len(entrants))
	for i, e := range entrants {
		played := make(map[string]struct{}, len(e.Opponents))
		for _, o := range e.Opponents {
			played[o] = struct{}{}
		}
		pool[i] = &entrant{Entrant: e, played: played}
	}

	res := model.Result{Status: model.ResultOK, Format: model.FormatSwiss, EventID: s.EventID}
	round := model.Round{Number: s.Round}

	var byeEntrant *entrant
	if len(pool)%2 != 0 {
		byeEntrant = selectBye(pool)
		pool = without(pool, byeEntrant)
	}

	pairs := pairGroups(pool, method)

	scope := fmt.Sprintf("r%d", s.Round)
	for i, p := range pairs {
		m := identity.Stamp(model.MatchStub{
			EventID:     s.EventID,
			Format:      model.FormatSwiss,
			SideA:       p.a.Participant.Snapshot(),
			SideB:       p.b.Participant.Snapshot(),
			RoundNumber: s.Round,
			MatchNumber: s.FirstMatchNumber + i,
			Status:      model.StatusScheduled,
		}, scope)
		sa, sb := m.SideA, m.SideB
		pairing := model.Pairing{SideA: &sa, SideB: &sb, MatchID: m.ID}
		if p.forced {
			w := model.Warning{
				Code:    model.WarningUnresolvedPairing,
				Message: fmt.Sprintf("no legal pairing left for %s; rematch against %s forced", sa.ID, sb.ID),
				Round:   s.Round,
				SideIDs: []string{sa.ID, sb.ID},
			}
			pairing.Warning = w.Code
			res.Warnings = append(res.Warnings, w)
		}
		round.Pairings = append(round.Pairings, pairing)
		res.Matches = append(res.Matches, m)
	}
	if byeEntrant != nil {
		side := byeEntrant.Participant.Snapshot()
		round.Pairings = append(round.Pairings, model.Pairing{SideA: &side})
		bye := side
		res.Bye = &bye
	}
	res.Rounds = []model.Round{round}
	return res, nil
}

// selectBye picks the entrant with most losses, then lowest rating, then
// id. Entrants who already had a bye are skipped while anyone else is eligible.
func selectBye(pool []*entrant) *entrant {
	candidates := make([]*entrant, 0, len(pool))
	for _, e := range pool {
		if !e.HadBye {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		candidates = pool
	}
	best := candidates[0]
	for _, e := range candidates[1:] {
		switch {
		case e.Losses != best.Losses:
			if e.Losses > best.Losses {
				best = e
			}
		case e.Participant.RatingValue() != best.Participant.RatingValue():
			if e.Participant.RatingValue() < best.Participant.RatingValue() {
				best = e
			}
		case e.Participant.ID < best.Participant.ID:
			best = e
		}
	}
	return best
}

// pairGroups walks score groups from the highest score down.
func pairGroups(pool []*entrant, method Method) []pair {
	groups := make(map[int][]*entrant)
	for _, e := range pool {
		groups[e.Wins] = append(groups[e.Wins], e)
	}
	scores := make([]int, 0, len(groups))
	for score := range groups {
		scores = append(scores, score)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(scores)))

	var (
		pairs    []pair
		floaters []*entrant
	)
	for _, score := range scores {
		group := groups[score]
		sortGroup(group)
		candidates := append(append([]*entrant(nil), floaters...), group...)
		var paired []pair
		if method == MethodSlide {
			paired, floaters = pairSlide(candidates)
		} else {
			paired, floaters = pairAdjacent(candidates)
		}
		pairs = append(pairs, paired...)
	}
	if len(floaters) == 0 {
		return pairs
	}

	// Lowest group exhausted: one more adjacent pass, then force rematches.
	paired, left := pairAdjacent(floaters)
	pairs = append(pairs, paired...)
	for i := 0; i+1 < len(left); i += 2 {
		pairs = append(pairs, pair{a: left[i], b: left[i+1], forced: true})
	}
	return pairs
}

func sortGroup(group []*entrant) {
	sort.SliceStable(group, func(i, j int) bool {
		ri, rj := group[i].Participant.RatingValue(), group[j].Participant.RatingValue()
		if ri != rj {
			return ri > rj
		}
		return group[i].Participant.ID < group[j].Participant.ID
	})
}

// pairAdjacent pairs the top remaining entrant with the first one below it
// that it has not played; an entrant without such a partner floats.
func pairAdjacent(candidates []*entrant) ([]pair, []*entrant) {
	remaining := append([]*entrant(nil), candidates...)
	var (
		pairs    []pair
		floaters []*entrant
	)
	for len(remaining) > 0 {
		top := remaining[0]
		rest := remaining[1:]
		found := -1
		for i, c := range rest {
			if !top.hasPlayed(c) {
				found = i
				break
			}
		}
		if found < 0 {
			floaters = append(floaters, top)
			remaining = rest
			continue
		}
		pairs = append(pairs, pair{a: top, b: rest[found]})
		remaining = append(append([]*entrant(nil), rest[:found]...), rest[found+1:]...)
	}
	return pairs, floaters
}

// pairSlide pairs top-half position k with bottom-half position k, sliding
// past bottom entrants that would be rematches.
func pairSlide(candidates []*entrant) ([]pair, []*entrant) {
	half := len(candidates) / 2
	top, bottom := candidates[:half], candidates[half:]
	used := make([]bool, len(bottom))
	paired := make(map[*entrant]bool, len(candidates))

	var pairs []pair
	for k, a := range top {
		j := slideTarget(a, bottom, used, k)
		if j < 0 {
			continue
		}
		used[j] = true
		paired[a], paired[bottom[j]] = true, true
		pairs = append(pairs, pair{a: a, b: bottom[j]})
	}

	var floaters []*entrant
	for _, c := range candidates {
		if !paired[c] {
			floaters = append(floaters, c)
		}
	}
	return pairs, floaters
}

func slideTarget(a *entrant, bottom []*entrant, used []bool, k int) int {
	for j := k; j < len(bottom); j++ {
		if !used[j] && !a.hasPlayed(bottom[j]) {
			return j
		}
	}
	for j := k - 1; j >= 0; j-- {
		if !used[j] && !a.hasPlayed(bottom[j]) {
			return j
		}
	}
	return -1
}

func without(pool []*entrant, drop *entrant) []*entrant {
	out := make([]*entrant, 0, len(pool)-1)
	for _, e := range pool {
		if e != drop {
			out = append(out, e)
		}
	}
	return out
}
