// Package h2h compares two players category by category and reports how
// their networks overlap.
package h2h

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/okian/padel/internal/domain/history"
	"github.com/okian/padel/internal/domain/model"
)

const (
	// DefaultEdgeLimit caps the highest-weight edges read per player.
	DefaultEdgeLimit = 500
	// MaxMutual caps the resolved mutual connections in a report.
	MaxMutual = 20
)

// Side names the winner of a category.
type Side string

const (
	SideA Side = "a"
	SideB Side = "b"
	Tie   Side = "tie"
)

// Category is one compared statistic. Winner is nil when either value is missing.
type Category struct {
	Key    string   `json:"key"`
	Label  string   `json:"label"`
	A      *float64 `json:"a"`
	B      *float64 `json:"b"`
	Winner *Side    `json:"winner"`
}

// Score counts the categories each player won.
type Score struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Direct describes the edge joining the two players.
type Direct struct {
	Relationship model.Relationship `json:"relationship"`
	Weight       int                `json:"weight"`
	LastPlayed   *time.Time         `json:"lastPlayed"`
}

// Record summarises the matches both players took part in.
type Record struct {
	AsOpponents struct {
		Matches int `json:"matches"`
		AWins   int `json:"aWins"`
		BWins   int `json:"bWins"`
	} `json:"asOpponents"`
	AsPartners struct {
		Matches int `json:"matches"`
		Wins    int `json:"wins"`
		Losses  int `json:"losses"`
	} `json:"asPartners"`
}

// Input carries everything Compare needs. Both players must exist; callers
// surface a missing player before comparing.
type Input struct {
	A, B   model.Player
	EdgesA []model.Edge
	EdgesB []model.Edge
	Direct *model.Edge
	Shared []model.MatchRecord
	Names  model.Directory
}

// Report is the full head-to-head comparison.
type Report struct {
	A            model.Identity   `json:"a"`
	B            model.Identity   `json:"b"`
	Categories   []Category       `json:"categories"`
	Score        Score            `json:"score"`
	MutualCount  int              `json:"mutualCount"`
	Mutual       []model.Identity `json:"mutual"`
	SharedClubs  []string         `json:"sharedClubs"`
	ConnectionsA int              `json:"connectionsA"`
	ConnectionsB int              `json:"connectionsB"`
	Direct       *Direct          `json:"direct"`
	Record       Record           `json:"record"`
}

type options struct {
	edgeLimit int
}

// Option configures Compare.
type Option func(*options)

// WithEdgeLimit overrides how many edges per player feed the neighbor sets.
func WithEdgeLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.edgeLimit = n
		}
	}
}

// Compare builds the head-to-head report for in.A and in.B.
func Compare(in Input, opts ...Option) Report {
	o := options{edgeLimit: DefaultEdgeLimit}
	for _, opt := range opts {
		opt(&o)
	}

	rep := Report{
		A:           in.A.Identity(),
		B:           in.B.Identity(),
		Categories:  categories(in.A, in.B),
		Mutual:      []model.Identity{},
		SharedClubs: sharedClubs(in.A.Clubs, in.B.Clubs),
		Record:      record(in.A.ID, in.B.ID, in.Shared),
	}
	for _, c := range rep.Categories {
		if c.Winner == nil {
			continue
		}
		switch *c.Winner {
		case SideA:
			rep.Score.A++
		case SideB:
			rep.Score.B++
		}
	}

	na := neighbors(in.A.ID, in.EdgesA, o.edgeLimit)
	nb := neighbors(in.B.ID, in.EdgesB, o.edgeLimit)
	rep.ConnectionsA, rep.ConnectionsB = len(na.order), len(nb.order)

	type mutual struct {
		id     string
		weight int
	}
	var shared []mutual
	for _, id := range na.order {
		if wb, ok := nb.weight[id]; ok {
			shared = append(shared, mutual{id: id, weight: na.weight[id] + wb})
		}
	}
	rep.MutualCount = len(shared)
	slices.SortStableFunc(shared, func(x, y mutual) int { return cmp.Compare(y.weight, x.weight) })
	for _, m := range shared[:min(len(shared), MaxMutual)] {
		rep.Mutual = append(rep.Mutual, in.Names.Resolve(m.id))
	}

	if in.Direct != nil {
		rep.Direct = &Direct{
			Relationship: in.Direct.Relationship,
			Weight:       in.Direct.Weight,
			LastPlayed:   in.Direct.LastPlayed,
		}
	}
	return rep
}

// FindDirect returns the first edge joining a and b in either orientation.
func FindDirect(edges []model.Edge, a, b string) *model.Edge {
	for i := range edges {
		if edges[i].Connects(a, b) {
			e := edges[i]
			return &e
		}
	}
	return nil
}

type neighborSet struct {
	order  []string
	weight map[string]int
}

// neighbors reads id's neighbors from its limit highest-weight edges.
func neighbors(id string, edges []model.Edge, limit int) neighborSet {
	top := slices.Clone(edges)
	slices.SortStableFunc(top, func(x, y model.Edge) int { return cmp.Compare(y.Weight, x.Weight) })
	top = top[:min(len(top), limit)]

	ns := neighborSet{weight: make(map[string]int, len(top))}
	for _, e := range top {
		other, ok := e.Other(id)
		if !ok || other == id {
			continue
		}
		if _, seen := ns.weight[other]; !seen {
			ns.order = append(ns.order, other)
		}
		ns.weight[other] += e.Weight
	}
	return ns
}

func categories(a, b model.Player) []Category {
	num := func(v int) *float64 {
		f := float64(v)
		return &f
	}
	return []Category{
		compare("level", "Level", a.Level, b.Level),
		compare("matches", "Matches", num(a.MatchesPlayed), num(b.MatchesPlayed)),
		compare("winRate", "Win rate", a.WinRate, b.WinRate),
		compare("wins", "Wins", num(a.Wins), num(b.Wins)),
		compare("losses", "Losses", num(a.Losses), num(b.Losses)),
		compare("setsWon", "Sets won", num(a.SetsWon), num(b.SetsWon)),
		compare("gamesWon", "Games won", num(a.GamesWon), num(b.GamesWon)),
		compare("uniqueTeammates", "Unique teammates", num(a.UniqueTeammates), num(b.UniqueTeammates)),
		compare("uniqueOpponents", "Unique opponents", num(a.UniqueOpponents), num(b.UniqueOpponents)),
		compare("competitiveMatches", "Competitive matches", num(a.CompetitiveMatches), num(b.CompetitiveMatches)),
		compare("clubs", "Clubs", num(len(a.Clubs)), num(len(b.Clubs))),
	}
}

func compare(key, label string, a, b *float64) Category {
	c := Category{Key: key, Label: label, A: a, B: b}
	if a == nil || b == nil {
		return c
	}
	w := Tie
	switch {
	case *a > *b:
		w = SideA
	case *b > *a:
		w = SideB
	}
	c.Winner = &w
	return c
}

func sharedClubs(a, b []string) []string {
	out := []string{}
	for _, ca := range a {
		key := strings.TrimSpace(ca)
		if key == "" || slices.ContainsFunc(out, func(s string) bool { return strings.EqualFold(s, key) }) {
			continue
		}
		if slices.ContainsFunc(b, func(cb string) bool { return strings.EqualFold(strings.TrimSpace(cb), key) }) {
			out = append(out, key)
		}
	}
	return out
}

func record(a, b string, matches []model.MatchRecord) Record {
	var r Record
	for _, m := range matches {
		va, okA := history.View(m, a)
		vb, okB := history.View(m, b)
		if !okA || !okB {
			continue
		}
		if va.Side == vb.Side {
			r.AsPartners.Matches++
			if va.Result == history.Win {
				r.AsPartners.Wins++
			} else {
				r.AsPartners.Losses++
			}
			continue
		}
		r.AsOpponents.Matches++
		if va.Result == history.Win {
			r.AsOpponents.AWins++
		} else {
			r.AsOpponents.BWins++
		}
	}
	return r
}
