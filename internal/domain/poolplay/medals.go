package poolplay

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/bracketry/internal/domain/elimination"
	"github.com/okian/bracketry/internal/domain/model"
	"github.com/okian/bracketry/internal/domain/roundrobin"
	"github.com/okian/bracketry/internal/domain/standings"
)

// MedalScope keys the medal bracket inside the event.
const MedalScope = "medal"

// Readiness violation codes.
const (
	CodePoolIncomplete   = "pool_incomplete"
	CodeScheduleMismatch = "pool_schedule_mismatch"
	CodeCutTooLarge      = "cut_exceeds_pool"
	CodeTooFewQualifiers = "too_few_qualifiers"
)

// Violation is one reason the medal bracket cannot be built yet.
type Violation struct {
	Code    string `json:"code"`
	PoolKey string `json:"pool_key,omitempty"`
	Message string `json:"message"`
}

// Readiness is the structured outcome of ValidateBracketReadiness.
type Readiness struct {
	Violations []Violation `json:"violations"`
}

// Ready reports whether there are no violations.
func (r Readiness) Ready() bool { return len(r.Violations) == 0 }

// Err returns nil when ready, otherwise an error wrapping ErrBracketNotReady.
func (r Readiness) Err() error {
	if r.Ready() {
		return nil
	}
	msgs := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		msgs[i] = v.Message
	}
	return fmt.Errorf("%w: %s", model.ErrBracketNotReady, strings.Join(msgs, "; "))
}

// MedalSettings configures the knockout stage.
type MedalSettings struct {
	EventID string
	// Cut is the number of qualifiers per pool.
	Cut int
	// Passes must match the pool stage; defaults to one.
	Passes     int
	ThirdPlace bool
}

// IsPoolStageComplete reports whether every pool has played its full
// schedule.
func IsPoolStageComplete(pools []Pool, matches []model.MatchStub, passes int) bool {
	return len(poolViolations(pools, groupByPool(matches), passes)) == 0
}

// ValidateBracketReadiness checks that every pool is complete and that the
// cut can produce a bracket.
func ValidateBracketReadiness(pools []Pool, matches []model.MatchStub, s MedalSettings) Readiness {
	r := Readiness{Violations: poolViolations(pools, groupByPool(matches), s.Passes)}
	qualifiers := 0
	for _, pool := range pools {
		if s.Cut > len(pool.Participants) {
			r.Violations = append(r.Violations, Violation{
				Code:    CodeCutTooLarge,
				PoolKey: pool.Key,
				Message: fmt.Sprintf("pool %s has %d participants, cut is %d", pool.Key, len(pool.Participants), s.Cut),
			})
			continue
		}
		qualifiers += s.Cut
	}
	if s.Cut < 1 || qualifiers < 2 {
		r.Violations = append(r.Violations, Violation{
			Code:    CodeTooFewQualifiers,
			Message: fmt.Sprintf("cut %d yields %d qualifiers, need at least 2", s.Cut, qualifiers),
		})
	}
	return r
}

func poolViolations(pools []Pool, byPool map[string][]model.MatchStub, passes int) []Violation {
	if passes < 1 {
		passes = 1
	}
	var out []Violation
	for _, pool := range pools {
		scheduled, pending := 0, 0
		for _, m := range byPool[pool.Key] {
			if m.Status == model.StatusCancelled {
				continue
			}
			scheduled++
			if m.Status != model.StatusCompleted {
				pending++
			}
		}
		if pending > 0 {
			out = append(out, Violation{
				Code:    CodePoolIncomplete,
				PoolKey: pool.Key,
				Message: fmt.Sprintf("pool %s has %d unfinished matches", pool.Key, pending),
			})
		}
		if want := roundrobin.MatchCount(len(pool.Participants)) * passes; scheduled != want {
			out = append(out, Violation{
				Code:    CodeScheduleMismatch,
				PoolKey: pool.Key,
				Message: fmt.Sprintf("pool %s has %d matches, expected %d", pool.Key, scheduled, want),
			})
		}
	}
	return out
}

// DetermineQualifiers takes the top cut rows of every pool table and orders
// them in tiers: every pool winner first, then every runner-up and so on.
// Within a tier rows are ordered by the standings comparator, so the result
// is directly usable as seed order.
func DetermineQualifiers(tables []Table, cut int) ([]model.Participant, error) {
	if cut < 1 {
		return nil, fmt.Errorf("%w: cut must be positive", model.ErrInvalidConfiguration)
	}
	var out []model.Participant
	for place := 0; place < cut; place++ {
		var tier []model.StandingRow
		for _, t := range tables {
			if place >= len(t.Rows) {
				return nil, fmt.Errorf("%w: pool %s has fewer than %d rows", model.ErrInvalidConfiguration, t.PoolKey, cut)
			}
			tier = append(tier, t.Rows[place])
		}
		sort.SliceStable(tier, func(i, j int) bool { return standings.Compare(tier[i], tier[j], false) < 0 })
		for _, row := range tier {
			out = append(out, row.Participant)
		}
	}
	return out, nil
}

// GenerateMedalBracket builds the knockout bracket from pool qualifiers.
// It fails closed with ErrBracketNotReady while any pool is unfinished.
func GenerateMedalBracket(pools []Pool, matches []model.MatchStub, s MedalSettings) (*elimination.Bracket, error) {
	if err := ValidateBracketReadiness(pools, matches, s).Err(); err != nil {
		return nil, err
	}
	tables, err := PoolStandings(pools, matches)
	if err != nil {
		return nil, err
	}
	qualifiers, err := DetermineQualifiers(tables, s.Cut)
	if err != nil {
		return nil, err
	}
	return elimination.Build(qualifiers, elimination.Settings{
		EventID:    s.EventID,
		Format:     model.FormatPool,
		Scope:      MedalScope,
		PreSeeded:  true,
		ThirdPlace: s.ThirdPlace,
	})
}

func standingsFor(pool Pool, matches []model.MatchStub) ([]model.StandingRow, error) {
	return standings.Compute(pool.Participants, matches)
}
