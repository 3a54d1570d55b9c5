// Package leaderboard derives top-N views from a built player graph.
package leaderboard

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/okian/padel/internal/domain/graph"
	"github.com/okian/padel/internal/domain/model"
)

// View sizes.
const (
	TopPlayers = 20
	TopPairs   = 20
	TopClubs   = 25
)

// UnknownLevel is the bucket for players without a level.
const UnknownLevel = "Unknown"

// PlayerEntry is a row of a player-centric view.
type PlayerEntry struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Matches int      `json:"matches"`
	Degree  int      `json:"degree"`
	WinRate *float64 `json:"winRate"`
}

// PairEntry is a row of the strongest-pairs view.
type PairEntry struct {
	Source       string             `json:"source"`
	SourceName   string             `json:"sourceName"`
	Target       string             `json:"target"`
	TargetName   string             `json:"targetName"`
	Weight       int                `json:"weight"`
	Relationship model.Relationship `json:"relationship"`
}

// Bucket is a labelled count.
type Bucket struct {
	Label   string `json:"label"`
	Players int    `json:"players"`
}

// Leaderboard bundles every derived view.
type Leaderboard struct {
	MostActive    []PlayerEntry `json:"mostActive"`
	MostConnected []PlayerEntry `json:"mostConnected"`
	BestWinRate   []PlayerEntry `json:"bestWinRate"`
	TopPairs      []PairEntry   `json:"topPairs"`
	Clubs         []Bucket      `json:"clubs"`
	Levels        []Bucket      `json:"levels"`
}

// Compute derives all views. Each view is computed independently from nodes
// and links; empty inputs yield empty lists.
func Compute(nodes []graph.Node, links []graph.Link) Leaderboard {
	return Leaderboard{
		MostActive:    MostActive(nodes),
		MostConnected: MostConnected(nodes),
		BestWinRate:   BestWinRate(nodes),
		TopPairs:      StrongestPairs(nodes, links),
		Clubs:         ClubBreakdown(nodes),
		Levels:        LevelDistribution(nodes),
	}
}

func entry(n graph.Node) PlayerEntry {
	return PlayerEntry{ID: n.ID, Name: n.Name, Matches: n.Matches, Degree: n.Degree, WinRate: n.WinRate}
}

func topNodes(nodes []graph.Node, keep func(graph.Node) bool, by func(a, b graph.Node) int) []PlayerEntry {
	pool := make([]graph.Node, 0, len(nodes))
	for _, n := range nodes {
		if keep == nil || keep(n) {
			pool = append(pool, n)
		}
	}
	slices.SortStableFunc(pool, by)

	out := make([]PlayerEntry, 0, min(len(pool), TopPlayers))
	for _, n := range pool[:min(len(pool), TopPlayers)] {
		out = append(out, entry(n))
	}
	return out
}

// MostActive ranks nodes by matches played.
func MostActive(nodes []graph.Node) []PlayerEntry {
	return topNodes(nodes, nil, func(a, b graph.Node) int { return cmp.Compare(b.Matches, a.Matches) })
}

// MostConnected ranks nodes by degree.
func MostConnected(nodes []graph.Node) []PlayerEntry {
	return topNodes(nodes, nil, func(a, b graph.Node) int { return cmp.Compare(b.Degree, a.Degree) })
}

// BestWinRate ranks nodes with a meaningful win/loss sample by win rate.
func BestWinRate(nodes []graph.Node) []PlayerEntry {
	keep := func(n graph.Node) bool {
		return n.WinRate != nil && model.HasMeaningfulSample(n.Wins, n.Losses, n.Matches)
	}
	return topNodes(nodes, keep, func(a, b graph.Node) int { return cmp.Compare(*b.WinRate, *a.WinRate) })
}

// StrongestPairs ranks links by weight.
func StrongestPairs(nodes []graph.Node, links []graph.Link) []PairEntry {
	names := make(map[string]string, len(nodes))
	for _, n := range nodes {
		names[n.ID] = n.Name
	}

	sorted := slices.Clone(links)
	slices.SortStableFunc(sorted, func(a, b graph.Link) int { return cmp.Compare(b.Weight, a.Weight) })

	out := make([]PairEntry, 0, min(len(sorted), TopPairs))
	for _, l := range sorted[:min(len(sorted), TopPairs)] {
		out = append(out, PairEntry{
			Source:       l.Source,
			SourceName:   nameOr(names, l.Source),
			Target:       l.Target,
			TargetName:   nameOr(names, l.Target),
			Weight:       l.Weight,
			Relationship: l.Relationship,
		})
	}
	return out
}

func nameOr(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return model.UnknownName
}

// ClubBreakdown counts players per club, most populated first.
func ClubBreakdown(nodes []graph.Node) []Bucket {
	counts := map[string]int{}
	var order []string
	for _, n := range nodes {
		seen := map[string]bool{}
		for _, c := range n.Clubs {
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			if _, ok := counts[c]; !ok {
				order = append(order, c)
			}
			counts[c]++
		}
	}

	out := make([]Bucket, 0, len(order))
	for _, c := range order {
		out = append(out, Bucket{Label: c, Players: counts[c]})
	}
	slices.SortStableFunc(out, func(a, b Bucket) int { return cmp.Compare(b.Players, a.Players) })
	return out[:min(len(out), TopClubs)]
}

// LevelDistribution buckets nodes by the integer floor of their level, e.g.
// "3-4", with nil levels counted under "Unknown".
func LevelDistribution(nodes []graph.Node) []Bucket {
	counts := map[int]int{}
	unknown := 0
	for _, n := range nodes {
		if n.Level == nil || math.IsNaN(*n.Level) {
			unknown++
			continue
		}
		floor := max(int(math.Floor(*n.Level)), 0)
		counts[floor]++
	}

	floors := make([]int, 0, len(counts))
	for f := range counts {
		floors = append(floors, f)
	}
	slices.Sort(floors)

	out := make([]Bucket, 0, len(floors)+1)
	for _, f := range floors {
		out = append(out, Bucket{Label: fmt.Sprintf("%d-%d", f, f+1), Players: counts[f]})
	}
	if unknown > 0 {
		out = append(out, Bucket{Label: UnknownLevel, Players: unknown})
	}
	return out
}
