package h2h_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/okian/padel/internal/domain/h2h"
	"github.com/okian/padel/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr[T any](v T) *T { return &v }

func duel(id string, a, b []string, aWon bool) model.MatchRecord {
	ra, rb := model.Lost, model.Won
	if aWon {
		ra, rb = model.Won, model.Lost
	}
	return model.MatchRecord{
		ID:       id,
		PlayedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Teams:    [2]model.Team{{Players: a, Result: ra}, {Players: b, Result: rb}},
	}
}

func TestCompare(t *testing.T) {
	Convey("Given two players with overlapping networks", t, func() {
		last := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
		a := model.Player{
			ID: "a", Name: "Ana", Level: ptr(4.0), MatchesPlayed: 50, WinRate: ptr(0.6), Wins: 30, Losses: 20,
			SetsWon: 70, GamesWon: 500, UniqueTeammates: 10, UniqueOpponents: 30, CompetitiveMatches: 12,
			Clubs: []string{"Norte", "Sur", "Este"},
		}
		b := model.Player{
			ID: "b", Name: "Bea", MatchesPlayed: 50, WinRate: ptr(0.5), Wins: 25, Losses: 25,
			SetsWon: 60, GamesWon: 520, UniqueTeammates: 10, UniqueOpponents: 40, CompetitiveMatches: 3,
			Clubs: []string{"este", "norte"},
		}
		edgesA := []model.Edge{
			{Source: "a", Target: "m1", Weight: 2},
			{Source: "m2", Target: "a", Weight: 9},
			{Source: "a", Target: "b", Weight: 4, Relationship: model.Opponent, LastPlayed: &last},
			{Source: "a", Target: "solo", Weight: 1},
		}
		edgesB := []model.Edge{
			{Source: "b", Target: "m1", Weight: 9},
			{Source: "b", Target: "m2", Weight: 1},
			{Source: "a", Target: "b", Weight: 4, Relationship: model.Opponent, LastPlayed: &last},
		}
		shared := []model.MatchRecord{
			duel("1", []string{"a", "x"}, []string{"b", "y"}, true),
			duel("2", []string{"b", "y"}, []string{"a", "x"}, true),
			duel("3", []string{"a", "x"}, []string{"b", "y"}, true),
			duel("4", []string{"a", "b"}, []string{"x", "y"}, false),
			duel("5", []string{"a", "b"}, []string{"x", "y"}, true),
		}
		names := model.Directory{"m1": {ID: "m1", Name: "Mia"}, "m2": {ID: "m2", Name: "Max"}}

		in := h2h.Input{A: a, B: b, EdgesA: edgesA, EdgesB: edgesB, Shared: shared, Names: names}
		in.Direct = h2h.FindDirect(edgesA, "b", "a")

		Convey("When comparing", func() {
			rep := h2h.Compare(in)

			Convey("Then categories come in a fixed order", func() {
				keys := make([]string, 0, len(rep.Categories))
				for _, c := range rep.Categories {
					keys = append(keys, c.Key)
				}
				So(keys, ShouldResemble, []string{
					"level", "matches", "winRate", "wins", "losses", "setsWon",
					"gamesWon", "uniqueTeammates", "uniqueOpponents", "competitiveMatches", "clubs",
				})
			})

			Convey("Then winners follow the strictly greater value", func() {
				winners := map[string]string{}
				for _, c := range rep.Categories {
					if c.Winner == nil {
						winners[c.Key] = "none"
						continue
					}
					winners[c.Key] = string(*c.Winner)
				}
				So(winners["level"], ShouldEqual, "none")
				So(winners["matches"], ShouldEqual, "tie")
				So(winners["winRate"], ShouldEqual, "a")
				So(winners["gamesWon"], ShouldEqual, "b")
				So(winners["clubs"], ShouldEqual, "a")
				So(rep.Score, ShouldResemble, h2h.Score{A: 5, B: 3})
			})

			Convey("Then mutual connections are ordered by combined weight", func() {
				So(rep.MutualCount, ShouldEqual, 2)
				So(rep.Mutual[0].Name, ShouldEqual, "Mia")
				So(rep.Mutual[1].Name, ShouldEqual, "Max")
				So(rep.ConnectionsA, ShouldEqual, 4)
				So(rep.ConnectionsB, ShouldEqual, 3)
			})

			Convey("Then shared clubs keep the first player's order", func() {
				So(rep.SharedClubs, ShouldResemble, []string{"Norte", "Este"})
			})

			Convey("Then the direct edge is reported", func() {
				So(rep.Direct, ShouldNotBeNil)
				So(rep.Direct.Relationship, ShouldEqual, model.Opponent)
				So(rep.Direct.Weight, ShouldEqual, 4)
				So(rep.Direct.LastPlayed.Equal(last), ShouldBeTrue)
			})

			Convey("Then the shared match record splits rivalry and partnership", func() {
				So(rep.Record.AsOpponents.Matches, ShouldEqual, 3)
				So(rep.Record.AsOpponents.AWins, ShouldEqual, 2)
				So(rep.Record.AsOpponents.BWins, ShouldEqual, 1)
				So(rep.Record.AsPartners.Matches, ShouldEqual, 2)
				So(rep.Record.AsPartners.Wins, ShouldEqual, 1)
				So(rep.Record.AsPartners.Losses, ShouldEqual, 1)
			})
		})

		Convey("When the edge limit cuts the lighter edges", func() {
			rep := h2h.Compare(in, h2h.WithEdgeLimit(1))

			Convey("Then only the heaviest edge per side feeds the neighbor sets", func() {
				So(rep.ConnectionsA, ShouldEqual, 1)
				So(rep.ConnectionsB, ShouldEqual, 1)
				So(rep.MutualCount, ShouldEqual, 0)
				So(rep.Mutual, ShouldNotBeNil)
			})
		})
	})

	Convey("Given players that never met", t, func() {
		rep := h2h.Compare(h2h.Input{A: model.Player{ID: "a"}, B: model.Player{ID: "b"}})

		Convey("Then there is no direct edge and no overlap", func() {
			So(rep.Direct, ShouldBeNil)
			So(rep.MutualCount, ShouldEqual, 0)
			So(rep.SharedClubs, ShouldBeEmpty)
			So(h2h.FindDirect(nil, "a", "b"), ShouldBeNil)
		})
	})

	Convey("Given many mutual connections", t, func() {
		var ea, eb []model.Edge
		for i := range 30 {
			id := fmt.Sprintf("n%02d", i)
			ea = append(ea, model.Edge{Source: "a", Target: id, Weight: 1})
			eb = append(eb, model.Edge{Source: "b", Target: id, Weight: i})
		}
		rep := h2h.Compare(h2h.Input{A: model.Player{ID: "a"}, B: model.Player{ID: "b"}, EdgesA: ea, EdgesB: eb})

		Convey("Then the full count is kept and the list is capped", func() {
			So(rep.MutualCount, ShouldEqual, 30)
			So(len(rep.Mutual), ShouldEqual, h2h.MaxMutual)
			So(rep.Mutual[0].ID, ShouldEqual, "n29")
			So(rep.Mutual[0].Name, ShouldEqual, model.UnknownName)
		})
	})
}
