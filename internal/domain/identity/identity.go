// Package identity derives canonical match identifiers.
//
// A canonical id is {format}_{eventId}_{scope}_{sortedSideIds}. The same
// participants meeting in the same scope always map to the same id, so a
// caller retrying a failed write converges instead of duplicating matches.
package identity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/bracketry/internal/domain/model"
)

// DefaultScope is used when a generator has no pool, box or round key.
const DefaultScope = "main"

// namespace for derived match UUIDs.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/okian/bracketry/match")) //nolint:gochecknoglobals // fixed namespace

// Scope joins the non-empty key parts, e.g. Scope("box2", "w3") == "box2.w3".
func Scope(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return DefaultScope
	}
	return strings.Join(kept, ".")
}

// MatchID returns the canonical id for the sides meeting in scope.
func MatchID(format model.Format, eventID, scope string, sideIDs ...string) string {
	ids := append([]string(nil), sideIDs...)
	sort.Strings(ids)
	if scope == "" {
		scope = DefaultScope
	}
	return fmt.Sprintf("%s_%s_%s_%s", format, eventID, scope, strings.Join(ids, "-"))
}

// PositionID returns the canonical id of a bracket position. Bracket matches
// are keyed by position because later-round sides are unknown at generation.
func PositionID(format model.Format, eventID, scope string, round, match int) string {
	if scope == "" {
		scope = DefaultScope
	}
	return fmt.Sprintf("%s_%s_%s_r%dm%d", format, eventID, scope, round, match)
}

// UUID derives a stable UUIDv5 from a canonical id for stores keyed by UUID.
func UUID(id string) string {
	return uuid.NewSHA1(namespace, []byte(id)).String()
}

// Stamp assigns the canonical id and UUID of a match from its sides.
func Stamp(m model.MatchStub, scope string) model.MatchStub {
	m.ID = MatchID(m.Format, m.EventID, scope, m.SideA.ID, m.SideB.ID)
	m.UUID = UUID(m.ID)
	return m
}
