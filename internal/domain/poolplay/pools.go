// Package poolplay runs multi-pool round robins and feeds the pool
// qualifiers into a single-elimination medal bracket.
package poolplay

import (
	"fmt"
	"strings"

	"github.com/okian/bracketry/internal/domain/model"
	"github.com/okian/bracketry/internal/domain/roundrobin"
)

// Distribution decides how seeded participants are spread across pools.
type Distribution string

// Distributions.
const (
	// Snake deals A→Z then Z→A on alternate rows.
	Snake Distribution = "snake"
	// Balanced gives each next participant to the smallest pool with the
	// lowest rating total.
	Balanced Distribution = "balanced"
)

// ParseDistribution accepts "snake", "balanced" or empty (snake).
func ParseDistribution(s string) (Distribution, error) {
	switch d := Distribution(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return Snake, nil
	case Snake, Balanced:
		return d, nil
	default:
		return "", fmt.Errorf("%w: unknown pool distribution %q", model.ErrInvalidConfiguration, s)
	}
}

// Pool is one round-robin group.
type Pool struct {
	Key          string              `json:"key"`
	Participants []model.Participant `json:"participants"`
}

// PoolKey names the pool at index i: A..Z, then AA, AB, ...
func PoolKey(i int) string {
	var b []byte
	for i++; i > 0; i = (i - 1) / 26 {
		b = append([]byte{byte('A' + (i-1)%26)}, b...)
	}
	return string(b)
}

// AssignParticipantsToPools sorts participants by rating and distributes
// them into poolCount pools. Every pool must end up with at least two
// participants.
func AssignParticipantsToPools(participants []model.Participant, poolCount int, d Distribution) ([]Pool, error) {
	if err := model.ValidateRoster(participants); err != nil {
		return nil, err
	}
	if poolCount < 1 {
		return nil, fmt.Errorf("%w: pool count must be positive", model.ErrInvalidConfiguration)
	}
	if len(participants) < 2*poolCount {
		return nil, fmt.Errorf("%w: %d participants cannot fill %d pools of two",
			model.ErrInvalidConfiguration, len(participants), poolCount)
	}
	if d == "" {
		d = Snake
	}

	pools := make([]Pool, poolCount)
	for i := range pools {
		pools[i].Key = PoolKey(i)
	}
	seeded := model.SortByRating(participants)
	switch d {
	case Snake:
		for i, p := range seeded {
			row, pos := i/poolCount, i%poolCount
			if row%2 == 1 {
				pos = poolCount - 1 - pos
			}
			pools[pos].Participants = append(pools[pos].Participants, p)
		}
	case Balanced:
		totals := make([]float64, poolCount)
		for _, p := range seeded {
			target := 0
			for j := 1; j < poolCount; j++ {
				lj, lt := len(pools[j].Participants), len(pools[target].Participants)
				if lj < lt || (lj == lt && totals[j] < totals[target]) {
					target = j
				}
			}
			pools[target].Participants = append(pools[target].Participants, p)
			totals[target] += p.RatingValue()
		}
	default:
		return nil, fmt.Errorf("%w: unknown pool distribution %q", model.ErrInvalidConfiguration, d)
	}
	return pools, nil
}

// Settings configures the pool stage.
type Settings struct {
	EventID      string
	PoolCount    int
	Distribution Distribution
	// Passes per pool round robin; defaults to one.
	Passes int
}

// Generate assigns pools and schedules an independent round robin in each.
// Rounds with the same number are merged across pools; matches are numbered
// pool by pool.
func Generate(participants []model.Participant, s Settings) ([]Pool, model.Result, error) {
	if err := model.ValidateRoster(participants); err != nil {
		return nil, model.Result{}, err
	}
	if len(participants) < 2 {
		return nil, model.Insufficient(model.FormatPool, s.EventID), nil
	}
	pools, err := AssignParticipantsToPools(participants, s.PoolCount, s.Distribution)
	if err != nil {
		return nil, model.Result{}, err
	}

	res := model.Result{Status: model.ResultOK, Format: model.FormatPool, EventID: s.EventID}
	next := 1
	for _, pool := range pools {
		pr, err := roundrobin.Generate(pool.Participants, roundrobin.Settings{
			EventID:          s.EventID,
			Format:           model.FormatPool,
			Scope:            pool.Key,
			PoolKey:          pool.Key,
			Passes:           s.Passes,
			FirstMatchNumber: next,
		})
		if err != nil {
			return nil, model.Result{}, fmt.Errorf("pool %s: %w", pool.Key, err)
		}
		next += len(pr.Matches)
		res.Matches = append(res.Matches, pr.Matches...)
		for i, r := range pr.Rounds {
			if i == len(res.Rounds) {
				res.Rounds = append(res.Rounds, model.Round{Number: r.Number})
			}
			res.Rounds[i].Pairings = append(res.Rounds[i].Pairings, r.Pairings...)
		}
	}
	return pools, res, nil
}

// Table is one pool's standings.
type Table struct {
	PoolKey string              `json:"pool_key"`
	Rows    []model.StandingRow `json:"rows"`
}

// PoolStandings computes standings per pool from the matches tagged with
// that pool's key.
func PoolStandings(pools []Pool, matches []model.MatchStub) ([]Table, error) {
	byPool := groupByPool(matches)
	tables := make([]Table, 0, len(pools))
	for _, pool := range pools {
		rows, err := standingsFor(pool, byPool[pool.Key])
		if err != nil {
			return nil, fmt.Errorf("pool %s: %w", pool.Key, err)
		}
		tables = append(tables, Table{PoolKey: pool.Key, Rows: rows})
	}
	return tables, nil
}

func groupByPool(matches []model.MatchStub) map[string][]model.MatchStub {
	out := make(map[string][]model.MatchStub)
	for _, m := range matches {
		if m.PoolKey == "" {
			continue
		}
		out[m.PoolKey] = append(out[m.PoolKey], m)
	}
	return out
}
