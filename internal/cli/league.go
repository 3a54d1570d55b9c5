package cli

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/okian/padel/internal/domain/model"
)

// ErrInvalidLeague is returned when league options cannot produce a league.
var ErrInvalidLeague = errors.New("invalid league options")

// Level distribution tiers.
const (
	tierBeginner = iota
	tierIntermediate
	tierAdvanced
	tierPro
	tierUnranked
	tierCount
)

const (
	minLeaguePlayers = 4
	guestEvery       = 10
	leagueWindow     = 365 * 24 * time.Hour
	unrankedLevel    = 2.5
	maxBookingsExtra = 5
)

var (
	firstNames = []string{"Ana", "Bea", "Carla", "Diego", "Elena", "Fran", "Gema", "Hugo", "Irene", "Javi", "Lola", "Marco", "Nuria", "Oscar", "Paula", "Raul", "Sara", "Tomas", "Vera", "Xavi"}
	lastNames  = []string{"Ruiz", "Gil", "Soto", "Vidal", "Moreno", "Navarro", "Castro", "Ortega", "Prieto", "Santos", "Lozano", "Marin"}
	clubNames  = []string{"Padel Norte", "Club Sur", "Arena Centro", "Costa Azul", "Sierra Padel", "Bela Vista"}
	genders    = []string{"male", "female"}
	positions  = []string{"backhand", "forehand", "both"}
)

// LeagueOptions shapes a synthetic league.
type LeagueOptions struct {
	Players int
	Clubs   int
	Matches int
	Seed    int64
	End     time.Time
}

// League is a generated snapshot ready to be seeded.
type League struct {
	Players []model.Player
	Edges   []model.Edge
	Matches []model.MatchRecord
}

// GenerateLeague builds a deterministic league from o. The same options
// always yield the same players, edges and matches.
func GenerateLeague(o LeagueOptions) (League, error) {
	if o.Players < minLeaguePlayers {
		return League{}, fmt.Errorf("%w: need at least %d players, got %d", ErrInvalidLeague, minLeaguePlayers, o.Players)
	}
	if o.Clubs < 1 {
		return League{}, fmt.Errorf("%w: need at least one club", ErrInvalidLeague)
	}
	if o.Matches < 0 {
		return League{}, fmt.Errorf("%w: negative match count", ErrInvalidLeague)
	}
	if o.End.IsZero() {
		o.End = time.Now().UTC()
	}

	rng := rand.New(rand.NewSource(o.Seed))
	clubs := generateClubs(o.Clubs)

	players := make([]model.Player, o.Players)
	for i := range players {
		p, err := generatePlayer(rng, i, clubs)
		if err != nil {
			return League{}, err
		}
		players[i] = p
	}

	matches := make([]model.MatchRecord, o.Matches)
	for i := range matches {
		m, err := generateMatch(rng, players, clubs, o.End)
		if err != nil {
			return League{}, err
		}
		matches[i] = m
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].PlayedAt.Before(matches[j].PlayedAt) })

	tallyPlayers(rng, players, matches)
	return League{Players: players, Edges: deriveEdges(matches), Matches: matches}, nil
}

func generateClubs(n int) []string {
	clubs := make([]string, n)
	for i := range clubs {
		name := clubNames[i%len(clubNames)]
		if i >= len(clubNames) {
			name = fmt.Sprintf("%s %d", name, i/len(clubNames)+1)
		}
		clubs[i] = name
	}
	return clubs
}

func generatePlayer(rng *rand.Rand, index int, clubs []string) (model.Player, error) {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return model.Player{}, fmt.Errorf("player id: %w", err)
	}

	name := fmt.Sprintf("%s %s", firstNames[rng.Intn(len(firstNames))], lastNames[rng.Intn(len(lastNames))])
	if index%guestEvery == guestEvery-1 {
		name = fmt.Sprintf("Guest %d", index+1)
	}

	p := model.Player{
		ID:       id.String(),
		Name:     name,
		Gender:   pick(rng, genders),
		Position: pick(rng, positions),
		Premium:  rng.Intn(5) == 0,
		Level:    generateLevel(rng),
	}
	if p.Level != nil {
		c := 0.3 + rng.Float64()*0.7
		p.Confidence = &c
	}

	home := rng.Intn(len(clubs))
	p.Clubs = []string{clubs[home]}
	if len(clubs) > 1 && rng.Intn(3) == 0 {
		p.Clubs = append(p.Clubs, clubs[(home+1+rng.Intn(len(clubs)-1))%len(clubs)])
	}
	return p, nil
}

// generateLevel draws a level on the 0..8 scale, or nil for unranked players.
func generateLevel(rng *rand.Rand) *float64 {
	var level float64
	switch rng.Intn(tierCount) {
	case tierBeginner:
		level = 0.5 + rng.Float64()*1.5
	case tierIntermediate:
		level = 2.0 + rng.Float64()*2.0
	case tierAdvanced:
		level = 4.0 + rng.Float64()*2.0
	case tierPro:
		level = 6.0 + rng.Float64()*2.0
	default:
		return nil
	}
	level = math.Round(level*100) / 100
	return &level
}

func generateMatch(rng *rand.Rand, players []model.Player, clubs []string, end time.Time) (model.MatchRecord, error) {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return model.MatchRecord{}, fmt.Errorf("match id: %w", err)
	}

	seats := rng.Perm(len(players))[:4]
	m := model.MatchRecord{
		ID:       id.String(),
		PlayedAt: end.Add(-time.Duration(rng.Int63n(int64(leagueWindow)))).Truncate(time.Minute),
		Club:     clubs[rng.Intn(len(clubs))],
		Teams: [2]model.Team{
			{Players: []string{players[seats[0]].ID, players[seats[1]].ID}},
			{Players: []string{players[seats[2]].ID, players[seats[3]].ID}},
		},
	}
	mode := "FRIENDLY"
	if rng.Intn(3) == 0 {
		mode = "COMPETITIVE"
	}
	m.CompetitionMode = &mode

	strength := func(a, b int) float64 {
		return levelOf(players[seats[a]]) + levelOf(players[seats[b]])
	}
	diff := strength(0, 1) - strength(2, 3)
	winner := 1
	if rng.Float64() < 1/(1+math.Exp(-diff)) {
		winner = 0
	}
	m.Teams[winner].Result = model.Won
	m.Teams[1-winner].Result = model.Lost
	m.Sets = generateSets(rng, winner)
	return m, nil
}

func levelOf(p model.Player) float64 {
	if p.Level == nil {
		return unrankedLevel
	}
	return *p.Level
}

// generateSets produces a best-of-three score won by the winner team.
func generateSets(rng *rand.Rand, winner int) []model.SetScore {
	won := func() (int, int) {
		switch rng.Intn(6) {
		case 0:
			return 7, 5
		case 1:
			return 7, 6
		}
		return 6, rng.Intn(5)
	}
	set := func(w bool) model.SetScore {
		hi, lo := won()
		if !w {
			hi, lo = lo, hi
		}
		if winner == 1 {
			hi, lo = lo, hi
		}
		return model.SetScore{Team1: &hi, Team2: &lo}
	}

	if rng.Intn(3) == 0 {
		first := rng.Intn(2) == 0
		return []model.SetScore{set(first), set(!first), set(true)}
	}
	return []model.SetScore{set(true), set(true)}
}

// tallyPlayers derives every player counter from the generated matches.
func tallyPlayers(rng *rand.Rand, players []model.Player, matches []model.MatchRecord) {
	index := make(map[string]int, len(players))
	for i, p := range players {
		index[p.ID] = i
	}
	teammates := make([]map[string]struct{}, len(players))
	opponents := make([]map[string]struct{}, len(players))
	for i := range players {
		teammates[i] = make(map[string]struct{})
		opponents[i] = make(map[string]struct{})
	}

	for _, m := range matches {
		for side, team := range m.Teams {
			for _, id := range team.Players {
				i := index[id]
				p := &players[i]
				p.MatchesPlayed++
				if team.Result == model.Won {
					p.Wins++
				} else {
					p.Losses++
				}
				if m.CompetitionMode != nil && *m.CompetitionMode == "COMPETITIVE" {
					p.CompetitiveMatches++
				} else {
					p.FriendlyMatches++
				}
				for _, s := range m.Sets {
					mine, theirs := *s.Team1, *s.Team2
					if side == 1 {
						mine, theirs = theirs, mine
					}
					p.GamesWon += mine
					p.GamesLost += theirs
					if mine > theirs {
						p.SetsWon++
					} else {
						p.SetsLost++
					}
				}
				at := m.PlayedAt
				if p.FirstMatch == nil || at.Before(*p.FirstMatch) {
					p.FirstMatch = &at
				}
				if p.LastMatch == nil || at.After(*p.LastMatch) {
					p.LastMatch = &at
				}
				for _, other := range team.Players {
					if other != id {
						teammates[i][other] = struct{}{}
					}
				}
				for _, other := range m.Teams[1-side].Players {
					opponents[i][other] = struct{}{}
				}
			}
		}
	}

	for i := range players {
		p := &players[i]
		p.UniqueTeammates = len(teammates[i])
		p.UniqueOpponents = len(opponents[i])
		p.TotalBookings = p.MatchesPlayed + rng.Intn(maxBookingsExtra)
		if decided := p.Wins + p.Losses; decided > 0 {
			wr := float64(p.Wins) / float64(decided)
			p.WinRate = &wr
		}
	}
}

type pairTally struct {
	edge      model.Edge
	teammate  bool
	opponent  bool
	clubsSeen map[string]struct{}
}

// deriveEdges aggregates one edge per unordered pair that shared a match.
func deriveEdges(matches []model.MatchRecord) []model.Edge {
	pairs := make(map[[2]string]*pairTally)
	touch := func(a, b string, teammates bool, m model.MatchRecord) {
		if b < a {
			a, b = b, a
		}
		key := [2]string{a, b}
		t, ok := pairs[key]
		if !ok {
			t = &pairTally{edge: model.Edge{Source: a, Target: b}, clubsSeen: make(map[string]struct{})}
			pairs[key] = t
		}
		t.edge.Weight++
		if teammates {
			t.teammate = true
		} else {
			t.opponent = true
		}
		if _, seen := t.clubsSeen[m.Club]; !seen {
			t.clubsSeen[m.Club] = struct{}{}
			t.edge.Clubs = append(t.edge.Clubs, m.Club)
		}
		if t.edge.LastPlayed == nil || m.PlayedAt.After(*t.edge.LastPlayed) {
			at := m.PlayedAt
			t.edge.LastPlayed = &at
		}
	}

	for _, m := range matches {
		for side, team := range m.Teams {
			for i, a := range team.Players {
				for _, b := range team.Players[i+1:] {
					touch(a, b, true, m)
				}
				if side == 0 {
					for _, b := range m.Teams[1].Players {
						touch(a, b, false, m)
					}
				}
			}
		}
	}

	edges := make([]model.Edge, 0, len(pairs))
	for _, t := range pairs {
		switch {
		case t.teammate && t.opponent:
			t.edge.Relationship = model.Mixed
		case t.teammate:
			t.edge.Relationship = model.Teammate
		default:
			t.edge.Relationship = model.Opponent
		}
		sort.Strings(t.edge.Clubs)
		edges = append(edges, t.edge)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
	return edges
}

func pick(rng *rand.Rand, values []string) *string {
	v := values[rng.Intn(len(values))]
	return &v
}
