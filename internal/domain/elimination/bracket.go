// Package elimination builds seeded single-elimination brackets.
//
// Every bracket position is materialized up front except first-round byes.
// Later-round sides start as placeholders and are filled by AdvanceWinner,
// which follows a feed graph from each match to the slot(s) it feeds.
package elimination

import (
	"fmt"
	"math/bits"
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/okian/bracketry/internal/domain/identity"
	"github.com/okian/bracketry/internal/domain/model"
)

// Feed edge attributes.
const (
	attrSide    = "side"
	attrOutcome = "outcome"

	sideA = "A"
	sideB = "B"

	outcomeWinner = "winner"
	outcomeLoser  = "loser"
)

// Settings configures a bracket.
type Settings struct {
	EventID string
	// Format tags the matches; defaults to elimination.
	Format model.Format
	// Scope keys the bracket inside the event, e.g. "medal".
	Scope string
	// PreSeeded keeps the caller's order as seed order instead of rating order.
	PreSeeded bool
	// ThirdPlace adds a match between the semifinal losers.
	ThirdPlace bool
}

// Bracket is an immutable single-elimination bracket. AdvanceWinner returns
// a new value; the receiver is never modified.
type Bracket struct {
	Status    model.ResultStatus
	EventID   string
	Format    model.Format
	Scope     string
	Size      int
	NumRounds int
	// Seeds in seed order; Seeds[0] is the top seed.
	Seeds []model.Participant
	// Matches ordered by round, then position, third-place match last.
	Matches []model.MatchStub

	positions [][]string
	byes      map[int]model.Side
	thirdID   string
	index     map[string]int
	decided   map[string]string
	feeds     map[string]map[string]graph.Edge[string]
	graph     graph.Graph[string, string]
}

type seedMatchup struct {
	seed1 int
	seed2 int
}

// Build seeds the participants into a bracket whose size is the next power
// of two. Byes go to the top seeds and are not materialized as matches.
func Build(participants []model.Participant, s Settings) (*Bracket, error) {
	if s.Format == "" {
		s.Format = model.FormatElimination
	}
	if s.Scope == "" {
		s.Scope = identity.DefaultScope
	}
	if err := model.ValidateRoster(participants); err != nil {
		return nil, err
	}
	b := &Bracket{
		Status:  model.ResultOK,
		EventID: s.EventID,
		Format:  s.Format,
		Scope:   s.Scope,
		byes:    make(map[int]model.Side),
		index:   make(map[string]int),
		decided: make(map[string]string),
		graph:   graph.New(graph.StringHash, graph.Directed(), graph.Acyclic()),
	}
	if len(participants) < 2 {
		b.Status = model.ResultInsufficientParticipants
		return b, nil
	}

	if s.PreSeeded {
		b.Seeds = append([]model.Participant(nil), participants...)
	} else {
		b.Seeds = model.SortByRating(participants)
	}
	b.Size = BracketSize(len(participants))
	b.NumRounds = bits.TrailingZeros(uint(b.Size))

	matchups := arrangeSeeds(b.NumRounds)
	b.positions = make([][]string, b.NumRounds+1)
	number := 1
	for r := 1; r <= b.NumRounds; r++ {
		count := b.Size >> r
		b.positions[r] = make([]string, count)
		for p := 0; p < count; p++ {
			var a, bs model.Side
			if r == 1 {
				mu := matchups[p]
				if mu.seed2 >= len(b.Seeds) {
					b.byes[p] = b.Seeds[mu.seed1].Snapshot()
					continue
				}
				a, bs = b.Seeds[mu.seed1].Snapshot(), b.Seeds[mu.seed2].Snapshot()
			} else {
				a = b.feederSide(r-1, 2*p)
				bs = b.feederSide(r-1, 2*p+1)
			}
			id := identity.PositionID(b.Format, b.EventID, b.Scope, r, p+1)
			if err := b.addMatch(id, a, bs, r, number); err != nil {
				return nil, err
			}
			number++
			b.positions[r][p] = id
			if r > 1 {
				if err := b.linkFeeder(b.positions[r-1][2*p], id, sideA, outcomeWinner); err != nil {
					return nil, err
				}
				if err := b.linkFeeder(b.positions[r-1][2*p+1], id, sideB, outcomeWinner); err != nil {
					return nil, err
				}
			}
		}
	}

	if s.ThirdPlace && b.NumRounds >= 2 {
		semis := b.positions[b.NumRounds-1]
		id := identity.PositionID(b.Format, b.EventID, identity.Scope(b.Scope, "third"), b.NumRounds, 1)
		a := model.Side{Name: fmt.Sprintf("Loser of R%d M1", b.NumRounds-1)}
		bs := model.Side{Name: fmt.Sprintf("Loser of R%d M2", b.NumRounds-1)}
		if err := b.addMatch(id, a, bs, b.NumRounds, number); err != nil {
			return nil, err
		}
		b.thirdID = id
		if err := b.linkFeeder(semis[0], id, sideA, outcomeLoser); err != nil {
			return nil, err
		}
		if err := b.linkFeeder(semis[1], id, sideB, outcomeLoser); err != nil {
			return nil, err
		}
	}

	feeds, err := b.graph.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read feed graph: %w", err)
	}
	b.feeds = feeds
	return b, nil
}

func (b *Bracket) addMatch(id string, a, bs model.Side, round, number int) error {
	if err := b.graph.AddVertex(id); err != nil {
		return fmt.Errorf("failed to add bracket match %s: %w", id, err)
	}
	b.index[id] = len(b.Matches)
	b.Matches = append(b.Matches, model.MatchStub{
		ID:          id,
		UUID:        identity.UUID(id),
		EventID:     b.EventID,
		Format:      b.Format,
		SideA:       a,
		SideB:       bs,
		RoundNumber: round,
		MatchNumber: number,
		Status:      model.StatusScheduled,
	})
	return nil
}

// linkFeeder records that the outcome of from fills a side of to. Bye
// positions have no match and feed nothing.
func (b *Bracket) linkFeeder(from, to, side, outcome string) error {
	if from == "" {
		return nil
	}
	if err := b.graph.AddEdge(from, to, graph.EdgeAttribute(attrSide, side), graph.EdgeAttribute(attrOutcome, outcome)); err != nil {
		return fmt.Errorf("failed to link %s to %s: %w", from, to, err)
	}
	return nil
}

// feederSide returns the side entering the next round from a position:
// the bye recipient for first-round byes, otherwise a placeholder.
func (b *Bracket) feederSide(round, position int) model.Side {
	if round == 1 {
		if side, ok := b.byes[position]; ok {
			return side
		}
	}
	return model.Side{Name: fmt.Sprintf("Winner of R%d M%d", round, position+1)}
}

// arrangeSeeds returns the first-round matchups of standard bracket seeding
// by working down the tree from the final between seeds 0 and 1.
func arrangeSeeds(numRounds int) []seedMatchup {
	matchups := []seedMatchup{{0, 1}}
	totalSeeds := 2
	for i := 1; i < numRounds; i++ {
		next := make([]seedMatchup, 0, totalSeeds)
		totalSeeds *= 2
		for _, parent := range matchups {
			next = append(next,
				seedMatchup{parent.seed1, totalSeeds - 1 - parent.seed1},
				seedMatchup{parent.seed2, totalSeeds - 1 - parent.seed2},
			)
		}
		matchups = next
	}
	return matchups
}

// BracketSize is the smallest power of two holding n entrants.
func BracketSize(n int) int {
	if n <= 1 {
		return n
	}
	return 1 << bits.Len(uint(n-1))
}

// RoundName derives the display name of a round. It is never used for
// scheduling decisions.
func RoundName(numRounds, round int) string {
	switch numRounds - round {
	case 0:
		return "Final"
	case 1:
		return "Semifinal"
	case 2:
		return "Quarterfinal"
	}
	return fmt.Sprintf("Round of %d", 1<<(numRounds-round+1))
}

// Byes returns the bye recipients in seed order.
func (b *Bracket) Byes() []model.Side {
	out := make([]model.Side, 0, len(b.byes))
	for _, side := range b.byes {
		out = append(out, side)
	}
	sort.Slice(out, func(i, j int) bool { return b.seedOf(out[i].ID) < b.seedOf(out[j].ID) })
	return out
}

func (b *Bracket) seedOf(id string) int {
	for i, p := range b.Seeds {
		if p.ID == id {
			return i
		}
	}
	return len(b.Seeds)
}

// Match looks up a match by id.
func (b *Bracket) Match(id string) (model.MatchStub, bool) {
	i, ok := b.index[id]
	if !ok {
		return model.MatchStub{}, false
	}
	return b.Matches[i], true
}

// Feeders returns the ids of the matches feeding id, sorted.
func (b *Bracket) Feeders(id string) ([]string, error) {
	preds, err := b.graph.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read feed graph: %w", err)
	}
	in, ok := preds[id]
	if !ok {
		return nil, fmt.Errorf("%w: match %s", model.ErrNotFound, id)
	}
	out := make([]string, 0, len(in))
	for from := range in {
		out = append(out, from)
	}
	sort.Strings(out)
	return out, nil
}

// PlayOrder lists match ids so that every match follows its feeders.
func (b *Bracket) PlayOrder() ([]string, error) {
	order, err := graph.StableTopologicalSort(b.graph, func(x, y string) bool {
		return b.Matches[b.index[x]].MatchNumber < b.Matches[b.index[y]].MatchNumber
	})
	if err != nil {
		return nil, fmt.Errorf("failed to order bracket: %w", err)
	}
	return order, nil
}

// Result renders the bracket as generator output. First-round byes appear
// as bye pairings; later rounds may still hold placeholders.
func (b *Bracket) Result() model.Result {
	if b.Status != model.ResultOK {
		return model.Insufficient(b.Format, b.EventID)
	}
	res := model.Result{
		Status:  model.ResultOK,
		Format:  b.Format,
		EventID: b.EventID,
		Rounds:  make([]model.Round, 0, b.NumRounds),
		Matches: append([]model.MatchStub(nil), b.Matches...),
	}
	for r := 1; r <= b.NumRounds; r++ {
		round := model.Round{Number: r, Name: RoundName(b.NumRounds, r)}
		for p, id := range b.positions[r] {
			if id == "" {
				side := b.byes[p]
				round.Pairings = append(round.Pairings, model.Pairing{SideA: &side})
				continue
			}
			m := b.Matches[b.index[id]]
			a, bs := m.SideA, m.SideB
			round.Pairings = append(round.Pairings, model.Pairing{SideA: &a, SideB: &bs, MatchID: id})
		}
		if r == b.NumRounds && b.thirdID != "" {
			m := b.Matches[b.index[b.thirdID]]
			a, bs := m.SideA, m.SideB
			round.Pairings = append(round.Pairings, model.Pairing{SideA: &a, SideB: &bs, MatchID: m.ID})
		}
		res.Rounds = append(res.Rounds, round)
	}
	return res
}

func (b *Bracket) clone() *Bracket {
	next := *b
	next.Matches = make([]model.MatchStub, len(b.Matches))
	copy(next.Matches, b.Matches)
	next.decided = make(map[string]string, len(b.decided))
	for k, v := range b.decided {
		next.decided[k] = v
	}
	return &next
}
