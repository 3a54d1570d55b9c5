// Package graph builds the who-played-with-whom graph from aggregated edges.
package graph

import (
	"slices"
	"time"

	"github.com/okian/padel/internal/domain/filter"
	"github.com/okian/padel/internal/domain/model"
)

// DefaultTopPartners is the number of partners kept per node.
const DefaultTopPartners = 8

// Neighbor is one adjacency entry seen from a node.
type Neighbor struct {
	ID           string
	Weight       int
	Relationship model.Relationship
	Clubs        []string
	LastPlayed   *time.Time
}

// Partner is a ranked neighbor exposed on a node.
type Partner struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Weight       int                `json:"weight"`
	Relationship model.Relationship `json:"relationship"`
}

// Node is a player in the graph payload.
type Node struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Level       *float64  `json:"level"`
	Matches     int       `json:"matches"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	WinRate     *float64  `json:"winRate"`
	Degree      int       `json:"degree"`
	Clubs       []string  `json:"clubs"`
	Premium     bool      `json:"premium"`
	Picture     *string   `json:"picture"`
	TopPartners []Partner `json:"topPartners"`
}

// Link is a retained edge in the graph payload.
type Link struct {
	Source       string             `json:"source"`
	Target       string             `json:"target"`
	Weight       int                `json:"weight"`
	Relationship model.Relationship `json:"relationship"`
	Clubs        []string           `json:"clubs"`
	LastPlayed   *time.Time         `json:"lastPlayed"`
}

// Meta summarises a build.
type Meta struct {
	Nodes             int `json:"nodes"`
	Links             int `json:"links"`
	MinWeight         int `json:"minWeight"`
	EdgesScanned      int `json:"edgesScanned"`
	PlayersConsidered int `json:"playersConsidered"`
}

// Payload is the serialisable graph.
type Payload struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
	Meta  Meta   `json:"meta"`
}

// Graph is an undirected weighted graph over a filtered player set.
type Graph struct {
	players     []model.Player
	links       []Link
	adjacency   map[string][]Neighbor
	degree      map[string]int
	topPartners map[string][]Partner
	meta        Meta
}

type options struct {
	genuine     filter.Predicate
	topPartners int
	considered  int
}

// Option configures Build.
type Option func(*options)

// WithPredicate sets which neighbors may appear as top partners.
func WithPredicate(p filter.Predicate) Option {
	return func(o *options) {
		if p != nil {
			o.genuine = p
		}
	}
}

// WithTopPartners sets the per-node partner list length.
func WithTopPartners(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.topPartners = n
		}
	}
}

// WithPlayersConsidered records the size of the player set before filtering.
func WithPlayersConsidered(n int) Option {
	return func(o *options) {
		o.considered = n
	}
}

// Build retains the edges with weight >= minWeight whose endpoints are both in
// players and indexes them symmetrically. Inputs are not modified.
func Build(players []model.Player, edges []model.Edge, minWeight int, opts ...Option) *Graph {
	o := options{genuine: filter.IsGenuinePlayer, topPartners: DefaultTopPartners}
	for _, opt := range opts {
		opt(&o)
	}

	byID := make(map[string]model.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	g := &Graph{
		players:     slices.Clone(players),
		links:       make([]Link, 0),
		adjacency:   make(map[string][]Neighbor, len(players)),
		degree:      make(map[string]int, len(players)),
		topPartners: make(map[string][]Partner, len(players)),
	}

	for _, e := range edges {
		if e.Weight < minWeight || e.Source == e.Target {
			continue
		}
		if _, ok := byID[e.Source]; !ok {
			continue
		}
		if _, ok := byID[e.Target]; !ok {
			continue
		}
		clubs := slices.Clone(e.Clubs)
		g.links = append(g.links, Link{
			Source:       e.Source,
			Target:       e.Target,
			Weight:       e.Weight,
			Relationship: e.Relationship,
			Clubs:        clubs,
			LastPlayed:   e.LastPlayed,
		})
		g.adjacency[e.Source] = append(g.adjacency[e.Source], Neighbor{ID: e.Target, Weight: e.Weight, Relationship: e.Relationship, Clubs: clubs, LastPlayed: e.LastPlayed})
		g.adjacency[e.Target] = append(g.adjacency[e.Target], Neighbor{ID: e.Source, Weight: e.Weight, Relationship: e.Relationship, Clubs: clubs, LastPlayed: e.LastPlayed})
		g.degree[e.Source]++
		g.degree[e.Target]++
	}

	for id, neighbors := range g.adjacency {
		g.topPartners[id] = rankPartners(neighbors, byID, o)
	}

	if o.considered < len(players) {
		o.considered = len(players)
	}
	g.meta = Meta{
		Nodes:             len(players),
		Links:             len(g.links),
		MinWeight:         minWeight,
		EdgesScanned:      len(edges),
		PlayersConsidered: o.considered,
	}
	return g
}

// rankPartners orders neighbors by weight desc, keeping adjacency order on ties.
func rankPartners(neighbors []Neighbor, byID map[string]model.Player, o options) []Partner {
	sorted := slices.Clone(neighbors)
	slices.SortStableFunc(sorted, func(a, b Neighbor) int {
		return b.Weight - a.Weight
	})

	out := make([]Partner, 0, min(len(sorted), o.topPartners))
	for _, n := range sorted {
		if len(out) == o.topPartners {
			break
		}
		p, ok := byID[n.ID]
		if !ok || !o.genuine(p) {
			continue
		}
		out = append(out, Partner{ID: n.ID, Name: p.Name, Weight: n.Weight, Relationship: n.Relationship})
	}
	return out
}

// Degree returns the number of retained edges touching id.
func (g *Graph) Degree(id string) int {
	return g.degree[id]
}

// Neighbors returns the adjacency list of id in edge input order.
func (g *Graph) Neighbors(id string) []Neighbor {
	return slices.Clone(g.adjacency[id])
}

// TopPartners returns the ranked partners of id.
func (g *Graph) TopPartners(id string) []Partner {
	return slices.Clone(g.topPartners[id])
}

// Links returns the retained edges in input order.
func (g *Graph) Links() []Link {
	return slices.Clone(g.links)
}

// Meta returns the build summary.
func (g *Graph) Meta() Meta {
	return g.meta
}

// Nodes returns one node per player, in player input order.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, 0, len(g.players))
	for _, p := range g.players {
		partners := g.topPartners[p.ID]
		if partners == nil {
			partners = []Partner{}
		}
		nodes = append(nodes, Node{
			ID:          p.ID,
			Name:        p.Name,
			Level:       p.Level,
			Matches:     p.MatchesPlayed,
			Wins:        p.Wins,
			Losses:      p.Losses,
			WinRate:     p.DisplayWinRate(),
			Degree:      g.degree[p.ID],
			Clubs:       slices.Clone(p.Clubs),
			Premium:     p.Premium,
			Picture:     p.Picture,
			TopPartners: slices.Clone(partners),
		})
	}
	return nodes
}

// Payload returns the serialisable form of the graph.
func (g *Graph) Payload() Payload {
	return Payload{Nodes: g.Nodes(), Links: g.Links(), Meta: g.meta}
}
