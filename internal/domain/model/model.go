// Package model contains the read-only records the analytics core works on.
package model

import (
	"strings"
	"time"
)

// Relationship is how two players shared their matches. It is opaque to the
// analytics core and passed through as-is.
type Relationship string

const (
	Teammate Relationship = "teammate"
	Opponent Relationship = "opponent"
	Mixed    Relationship = "mixed"
)

// TeamResult is a team's outcome in a match. Anything other than Won or Lost
// means the match has no usable result.
type TeamResult string

const (
	Won  TeamResult = "WON"
	Lost TeamResult = "LOST"
)

// Decided reports whether r is one of WON or LOST.
func (r TeamResult) Decided() bool {
	return r == Won || r == Lost
}

// Player is a player profile with its precomputed counters.
type Player struct {
	ID         string
	Name       string
	Gender     *string
	Level      *float64
	Confidence *float64
	Position   *string
	Premium    bool
	Picture    *string
	Clubs      []string

	MatchesPlayed      int
	TotalBookings      int
	Wins               int
	Losses             int
	SetsWon            int
	SetsLost           int
	GamesWon           int
	GamesLost          int
	CompetitiveMatches int
	FriendlyMatches    int
	UniqueTeammates    int
	UniqueOpponents    int

	WinRate    *float64
	FirstMatch *time.Time
	LastMatch  *time.Time
}

// InClub reports whether the player is a member of club (case-insensitive).
func (p Player) InClub(club string) bool {
	club = strings.TrimSpace(club)
	for _, c := range p.Clubs {
		if strings.EqualFold(strings.TrimSpace(c), club) {
			return true
		}
	}
	return false
}

// Identity returns the player's resolved identity.
func (p Player) Identity() Identity {
	return Identity{ID: p.ID, Name: p.Name, Level: p.Level}
}

// DisplayWinRate returns the win rate only when it is backed by a meaningful sample.
func (p Player) DisplayWinRate() *float64 {
	if p.WinRate == nil || !HasMeaningfulSample(p.Wins, p.Losses, p.MatchesPlayed) {
		return nil
	}
	wr := *p.WinRate
	return &wr
}

// Edge aggregates every match two players shared.
type Edge struct {
	Source       string
	Target       string
	Weight       int
	Clubs        []string
	LastPlayed   *time.Time
	Relationship Relationship
}

// Other returns the endpoint opposite to id and whether id is an endpoint.
func (e Edge) Other(id string) (string, bool) {
	switch id {
	case e.Source:
		return e.Target, true
	case e.Target:
		return e.Source, true
	}
	return "", false
}

// Connects reports whether the edge joins a and b in either orientation.
func (e Edge) Connects(a, b string) bool {
	return (e.Source == a && e.Target == b) || (e.Source == b && e.Target == a)
}

// Team is one side of a match.
type Team struct {
	Players []string
	Result  TeamResult
}

// Has reports whether id played on the team.
func (t Team) Has(id string) bool {
	for _, p := range t.Players {
		if p == id {
			return true
		}
	}
	return false
}

// SetScore holds the games each team won in a set. Either side may be nil
// for a retired or unscored set.
type SetScore struct {
	Team1 *int
	Team2 *int
}

// MatchRecord is one played match.
type MatchRecord struct {
	ID              string
	PlayedAt        time.Time
	Club            string
	Teams           [2]Team
	Sets            []SetScore
	CompetitionMode *string
}

// SideOf returns the index of the team id played on, or -1.
func (m MatchRecord) SideOf(id string) int {
	for i, t := range m.Teams {
		if t.Has(id) {
			return i
		}
	}
	return -1
}

// Decided reports whether both teams carry a WON/LOST result.
func (m MatchRecord) Decided() bool {
	return m.Teams[0].Result.Decided() && m.Teams[1].Result.Decided()
}

// Identity is the resolved display identity of a player id.
type Identity struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Level *float64 `json:"level"`
}

// UnknownName is used for ids missing from a Directory.
const UnknownName = "Unknown"

// Directory resolves player ids to identities. It is built once per request
// and passed explicitly into each computation.
type Directory map[string]Identity

// Resolve returns the identity for id, or an Unknown placeholder.
func (d Directory) Resolve(id string) Identity {
	if ident, ok := d[id]; ok {
		return ident
	}
	return Identity{ID: id, Name: UnknownName}
}

// Meaningful sample thresholds.
const (
	MinWinLossSample  = 5
	MinSampleFraction = 0.1
)

// HasMeaningfulSample reports whether a win/loss sample is large and
// representative enough to display or rank a win rate.
func HasMeaningfulSample(wins, losses, matches int) bool {
	sample := wins + losses
	if sample < MinWinLossSample {
		return false
	}
	if matches == 0 {
		return true
	}
	return float64(sample)/float64(matches) >= MinSampleFraction
}

// Ratio returns num/den, or 0 when den is 0.
func Ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
