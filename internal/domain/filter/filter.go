// Package filter removes synthetic accounts and applies listing criteria to a
// player set.
package filter

import (
	"regexp"
	"strings"

	"github.com/okian/padel/internal/domain/model"
)

// Predicate decides whether a player is a real person worth listing.
type Predicate func(model.Player) bool

// Full level range. Level filtering is skipped when both bounds sit on it so
// unranked players are not dropped.
const (
	LevelFloor = 0.0
	LevelCeil  = 8.0
)

// searchMinMatches is the matches floor used while searching by name.
const searchMinMatches = 1

var (
	syntheticPrefixes = []string{"guest ", "jugador ", "pbp ", "torneo ", "invitado "}
	syntheticNumbered = regexp.MustCompile(`^(player|jugador|guest|invitado)\s*#?\d+$`)
	syntheticContains = []string{"padel marketing", "playtomic"}
)

// IsGenuinePlayer is the default Predicate. It rejects placeholder, bot and
// tournament-guest accounts by name.
func IsGenuinePlayer(p model.Player) bool {
	name := strings.ToLower(strings.Join(strings.Fields(p.Name), " "))
	if name == "" {
		return false
	}
	for _, prefix := range syntheticPrefixes {
		if strings.HasPrefix(name, prefix) {
			return false
		}
	}
	if syntheticNumbered.MatchString(name) {
		return false
	}
	for _, s := range syntheticContains {
		if strings.Contains(name, s) {
			return false
		}
	}
	return true
}

// Criteria narrows a player listing. A nil MinMatches means "use the default".
type Criteria struct {
	MinMatches *int
	MinLevel   float64
	MaxLevel   float64
	Club       string
	Search     string
}

// DefaultCriteria returns criteria spanning the full level range.
func DefaultCriteria() Criteria {
	return Criteria{MinLevel: LevelFloor, MaxLevel: LevelCeil}
}

// LevelBounded reports whether the level range narrows the full default range.
func (c Criteria) LevelBounded() bool {
	return c.MinLevel > LevelFloor || c.MaxLevel < LevelCeil
}

// EffectiveMinMatches resolves the matches floor. An explicit value wins;
// otherwise a name search loosens the floor to 1 so any named player can be found.
func (c Criteria) EffectiveMinMatches(defaultMin int) int {
	if c.MinMatches != nil {
		return *c.MinMatches
	}
	if strings.TrimSpace(c.Search) != "" {
		return searchMinMatches
	}
	return defaultMin
}

type options struct {
	genuine    Predicate
	defaultMin int
}

// Option configures Apply.
type Option func(*options)

// WithPredicate replaces the synthetic-account predicate.
func WithPredicate(p Predicate) Option {
	return func(o *options) {
		if p != nil {
			o.genuine = p
		}
	}
}

// WithDefaultMinMatches sets the matches floor used when Criteria leaves it unset.
func WithDefaultMinMatches(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.defaultMin = n
		}
	}
}

// Apply returns the players that are genuine and satisfy c. The input slice
// is never modified.
func Apply(players []model.Player, c Criteria, opts ...Option) []model.Player {
	o := options{genuine: IsGenuinePlayer}
	for _, opt := range opts {
		opt(&o)
	}

	minMatches := c.EffectiveMinMatches(o.defaultMin)
	search := strings.ToLower(strings.TrimSpace(c.Search))
	club := strings.TrimSpace(c.Club)
	bounded := c.LevelBounded()

	out := make([]model.Player, 0, len(players))
	for _, p := range players {
		if !o.genuine(p) {
			continue
		}
		if p.MatchesPlayed < minMatches {
			continue
		}
		if bounded {
			if p.Level == nil || *p.Level < c.MinLevel || *p.Level > c.MaxLevel {
				continue
			}
		}
		if club != "" && !p.InClub(club) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// IDs returns the id set of players.
func IDs(players []model.Player) map[string]struct{} {
	ids := make(map[string]struct{}, len(players))
	for _, p := range players {
		ids[p.ID] = struct{}{}
	}
	return ids
}
