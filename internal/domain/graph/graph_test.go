package graph_test

import (
	"fmt"
	"testing"

	"github.com/okian/padel/internal/domain/graph"
	"github.com/okian/padel/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func players(names ...string) []model.Player {
	out := make([]model.Player, 0, len(names))
	for i, n := range names {
		out = append(out, model.Player{ID: fmt.Sprintf("p%d", i+1), Name: n, MatchesPlayed: 10 * (i + 1)})
	}
	return out
}

func TestBuild(t *testing.T) {
	Convey("Given players and edges", t, func() {
		ps := players("Ana", "Luis", "Eva", "Guest 1")
		edges := []model.Edge{
			{Source: "p1", Target: "p2", Weight: 5, Relationship: model.Teammate},
			{Source: "p1", Target: "p3", Weight: 5, Relationship: model.Opponent},
			{Source: "p2", Target: "p3", Weight: 1, Relationship: model.Mixed},
			{Source: "p1", Target: "p4", Weight: 9, Relationship: model.Teammate},
			{Source: "p1", Target: "ghost", Weight: 20},
			{Source: "p3", Target: "p3", Weight: 8},
		}

		Convey("When building with a weight threshold of 2", func() {
			g := graph.Build(ps, edges, 2, graph.WithPlayersConsidered(10))

			Convey("Then only edges above the threshold between known players remain", func() {
				links := g.Links()
				So(len(links), ShouldEqual, 3)
				for _, l := range links {
					So(l.Weight, ShouldBeGreaterThanOrEqualTo, 2)
					So(l.Source, ShouldNotEqual, l.Target)
				}
			})

			Convey("Then degree counts retained edges on both endpoints", func() {
				So(g.Degree("p1"), ShouldEqual, 3)
				So(g.Degree("p2"), ShouldEqual, 1)
				So(g.Degree("p3"), ShouldEqual, 1)
				So(g.Degree("p4"), ShouldEqual, 1)
				So(g.Degree("ghost"), ShouldEqual, 0)
			})

			Convey("Then adjacency is symmetric", func() {
				So(g.Neighbors("p2")[0].ID, ShouldEqual, "p1")
				So(len(g.Neighbors("p1")), ShouldEqual, 3)
			})

			Convey("Then top partners skip synthetic players and keep input order on ties", func() {
				top := g.TopPartners("p1")
				So(len(top), ShouldEqual, 2)
				So(top[0].ID, ShouldEqual, "p2")
				So(top[1].ID, ShouldEqual, "p3")
				So(top[0].Name, ShouldEqual, "Luis")
			})

			Convey("Then meta summarises the build", func() {
				So(g.Meta(), ShouldResemble, graph.Meta{Nodes: 4, Links: 3, MinWeight: 2, EdgesScanned: 6, PlayersConsidered: 10})
			})

			Convey("Then every player is a node, isolated ones included", func() {
				nodes := g.Nodes()
				So(len(nodes), ShouldEqual, 4)
				So(nodes[0].Degree, ShouldEqual, 3)
				So(nodes[3].TopPartners, ShouldNotBeNil)
			})
		})

		Convey("When building twice", func() {
			a := graph.Build(ps, edges, 2).Payload()
			b := graph.Build(ps, edges, 2).Payload()

			Convey("Then the payloads are identical", func() {
				So(a, ShouldResemble, b)
			})
		})

		Convey("When a player filter is applied before building", func() {
			g := graph.Build(ps[:2], edges, 1)

			Convey("Then edges leaving the set are dropped", func() {
				So(len(g.Links()), ShouldEqual, 1)
				So(g.Degree("p1"), ShouldEqual, 1)
			})
		})

		Convey("When the partner list is shortened", func() {
			g := graph.Build(ps, edges, 1, graph.WithTopPartners(1))

			Convey("Then only the heaviest genuine partner is kept", func() {
				So(len(g.TopPartners("p1")), ShouldEqual, 1)
				So(g.TopPartners("p3")[0].ID, ShouldEqual, "p1")
			})
		})

		Convey("When the predicate accepts every account", func() {
			g := graph.Build(ps, edges, 2, graph.WithPredicate(func(model.Player) bool { return true }))

			Convey("Then synthetic neighbors rank by weight too", func() {
				So(g.TopPartners("p1")[0].ID, ShouldEqual, "p4")
			})
		})
	})

	Convey("Given nothing", t, func() {
		g := graph.Build(nil, nil, 2)

		Convey("Then the payload is empty but well formed", func() {
			p := g.Payload()
			So(p.Nodes, ShouldBeEmpty)
			So(p.Links, ShouldNotBeNil)
			So(p.Meta.Nodes, ShouldEqual, 0)
		})
	})
}
