package filter_test

import (
	"testing"

	"github.com/okian/padel/internal/domain/filter"
	"github.com/okian/padel/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr[T any](v T) *T { return &v }

func TestIsGenuinePlayer(t *testing.T) {
	Convey("Given player names", t, func() {
		synthetic := []string{
			"Guest 12", "JUGADOR Invitado", "PBP Torneo 3", "Torneo Verano", "Player 42",
			"player #7", "Jugador3", "Padel Marketing Team", "", "   ",
		}
		genuine := []string{"Ana Ruiz", "Guestavo Pérez", "Playa Martín", "Torneos Juan"}

		Convey("Then placeholder accounts are rejected", func() {
			for _, n := range synthetic {
				So(filter.IsGenuinePlayer(model.Player{Name: n}), ShouldBeFalse)
			}
		})

		Convey("Then real names pass", func() {
			for _, n := range genuine {
				So(filter.IsGenuinePlayer(model.Player{Name: n}), ShouldBeTrue)
			}
		})
	})
}

func TestApply(t *testing.T) {
	Convey("Given a mixed player set", t, func() {
		players := []model.Player{
			{ID: "1", Name: "Ana Ruiz", MatchesPlayed: 30, Level: ptr(3.5), Clubs: []string{"Padel Center"}},
			{ID: "2", Name: "Guest 9", MatchesPlayed: 90, Level: ptr(4.0)},
			{ID: "3", Name: "Luis Gómez", MatchesPlayed: 2, Level: ptr(5.0), Clubs: []string{"Club Norte"}},
			{ID: "4", Name: "Eva Sanz", MatchesPlayed: 12},
			{ID: "5", Name: "Ana Belén", MatchesPlayed: 8, Level: ptr(6.5), Clubs: []string{"padel center"}},
		}
		snapshot := make([]model.Player, len(players))
		copy(snapshot, players)

		Convey("When using the default criteria", func() {
			out := filter.Apply(players, filter.DefaultCriteria(), filter.WithDefaultMinMatches(5))

			Convey("Then synthetic and inactive players are gone while unranked players stay", func() {
				So(filter.IDs(out), ShouldResemble, map[string]struct{}{"1": {}, "4": {}, "5": {}})
			})

			Convey("Then the input is untouched", func() {
				So(players, ShouldResemble, snapshot)
			})
		})

		Convey("When narrowing the level range", func() {
			c := filter.DefaultCriteria()
			c.MinLevel, c.MaxLevel = 3.5, 6.5
			out := filter.Apply(players, c, filter.WithDefaultMinMatches(5))

			Convey("Then bounds are inclusive and unranked players drop out", func() {
				So(len(out), ShouldEqual, 2)
				So(out[0].ID, ShouldEqual, "1")
				So(out[1].ID, ShouldEqual, "5")
			})
		})

		Convey("When filtering by club", func() {
			c := filter.DefaultCriteria()
			c.Club = "PADEL CENTER"
			out := filter.Apply(players, c, filter.WithDefaultMinMatches(5))

			Convey("Then matching is case-insensitive", func() {
				So(len(out), ShouldEqual, 2)
			})
		})

		Convey("When searching by name", func() {
			c := filter.DefaultCriteria()
			c.Search = "luis"
			out := filter.Apply(players, c, filter.WithDefaultMinMatches(5))

			Convey("Then the matches floor loosens to one", func() {
				So(len(out), ShouldEqual, 1)
				So(out[0].ID, ShouldEqual, "3")
			})
		})

		Convey("When an explicit floor is set during a search", func() {
			c := filter.DefaultCriteria()
			c.Search = "luis"
			c.MinMatches = ptr(5)

			Convey("Then the explicit floor wins", func() {
				So(filter.Apply(players, c), ShouldBeEmpty)
				So(c.EffectiveMinMatches(20), ShouldEqual, 5)
			})
		})

		Convey("When a custom predicate is supplied", func() {
			keepAll := func(model.Player) bool { return true }
			out := filter.Apply(players, filter.DefaultCriteria(), filter.WithPredicate(keepAll), filter.WithDefaultMinMatches(5))

			Convey("Then it replaces the name heuristics", func() {
				So(len(out), ShouldEqual, 4)
			})
		})
	})
}
