// Package model contains domain models passed between the generators,
// the standings engine and the adapters.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// Participant is an individual or a fixed doubles team entering a format.
// Generators treat it as an immutable point-in-time snapshot.
type Participant struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	MemberPlayerIDs   []string          `json:"member_player_ids,omitempty"`
	ExternalRatingIDs map[string]string `json:"external_rating_ids,omitempty"`
	Rating            *float64          `json:"rating,omitempty"`
}

// RatingValue returns the rating or 0 for unrated participants.
func (p Participant) RatingValue() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// Members returns the player ids behind the participant. A participant
// without explicit members is a single player identified by its own id.
func (p Participant) Members() []string {
	if len(p.MemberPlayerIDs) == 0 {
		return []string{p.ID}
	}
	return append([]string(nil), p.MemberPlayerIDs...)
}

// Snapshot copies the participant into a match side.
func (p Participant) Snapshot() Side {
	s := Side{
		ID:              p.ID,
		Name:            p.Name,
		MemberPlayerIDs: append([]string(nil), p.MemberPlayerIDs...),
	}
	if p.Rating != nil {
		r := *p.Rating
		s.Rating = &r
	}
	return s
}

// Side is the snapshot of one side of a match taken at generation time.
// An empty ID marks a placeholder that a later result will fill.
type Side struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	MemberPlayerIDs []string `json:"member_player_ids,omitempty"`
	Rating          *float64 `json:"rating,omitempty"`
}

// IsPlaceholder reports whether the side is still waiting for a feeder result.
func (s Side) IsPlaceholder() bool { return s.ID == "" }

// Members mirrors Participant.Members.
func (s Side) Members() []string {
	if len(s.MemberPlayerIDs) == 0 {
		if s.ID == "" {
			return nil
		}
		return []string{s.ID}
	}
	return append([]string(nil), s.MemberPlayerIDs...)
}

// Participant converts the snapshot back into a participant value.
func (s Side) Participant() Participant {
	p := Participant{ID: s.ID, Name: s.Name, MemberPlayerIDs: append([]string(nil), s.MemberPlayerIDs...)}
	if s.Rating != nil {
		r := *s.Rating
		p.Rating = &r
	}
	return p
}

// TeamSide builds a side made of several individual players. The id is the
// sorted member ids joined with "+", so the same partnership always maps to
// the same side id regardless of ordering.
func TeamSide(players ...Participant) Side {
	members := make([]string, 0, len(players))
	names := make([]string, 0, len(players))
	total := 0.0
	rated := false
	for _, p := range players {
		members = append(members, p.ID)
		names = append(names, p.Name)
		if p.Rating != nil {
			rated = true
			total += *p.Rating
		}
	}
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)
	s := Side{
		ID:              strings.Join(sorted, "+"),
		Name:            strings.Join(names, " / "),
		MemberPlayerIDs: members,
	}
	if rated {
		s.Rating = &total
	}
	return s
}

// Rating is a convenience constructor for optional ratings.
func Rating(v float64) *float64 { return &v }

// SortByRating returns a copy ordered by rating descending then id ascending.
func SortByRating(ps []Participant) []Participant {
	out := append([]Participant(nil), ps...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].RatingValue(), out[j].RatingValue()
		if ri != rj {
			return ri > rj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ValidateRoster rejects empty or duplicate participant ids.
func ValidateRoster(ps []Participant) error {
	seen := make(map[string]struct{}, len(ps))
	for i, p := range ps {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("%w: participant %d has an empty id", ErrInvalidConfiguration, i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate participant id %q", ErrInvalidConfiguration, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// ValidatePlayersPerSide enforces the singles/doubles declaration of a format.
func ValidatePlayersPerSide(ps []Participant, perSide int) error {
	if perSide <= 0 {
		return nil
	}
	for _, p := range ps {
		if got := len(p.Members()); got != perSide {
			return fmt.Errorf("%w: participant %q has %d players, format expects %d",
				ErrInvalidConfiguration, p.ID, got, perSide)
		}
	}
	return nil
}
