package scoring_test

import (
	"math"
	"testing"
	"time"

	"github.com/okian/padel/internal/domain/model"
	scoring "github.com/okian/padel/internal/domain/scoring"
	"github.com/okian/padel/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(d float64) *time.Time {
	t := now.Add(-time.Duration(d * float64(24*time.Hour)))
	return &t
}

func ptr[T any](v T) *T { return &v }

func TestScore(t *testing.T) {
	Convey("Given a seasoned player", t, func() {
		p := model.Player{
			ID:                 "p-1",
			Level:              ptr(5.0),
			WinRate:            ptr(0.7),
			MatchesPlayed:      60,
			CompetitiveMatches: 40,
			UniqueOpponents:    30,
			LastMatch:          daysAgo(5),
		}

		Convey("When scoring", func() {
			score := scoring.Score(p, now)

			Convey("Then every term adds up and rounds to one decimal", func() {
				expected := 5*5.0 + 0.7*25*1 + math.Log2(61)*2 + 4 + 1.5 + 5*(1-5.0/90)
				So(score, ShouldEqual, math.Round(expected*10)/10)
				So(score, ShouldEqual, 64.6)
			})

			Convey("Then the breakdown exposes each term", func() {
				b := scoring.Explain(p, now)
				So(b.Level, ShouldEqual, 25)
				So(b.Confidence, ShouldEqual, 1)
				So(b.WinRate, ShouldAlmostEqual, 17.5)
				So(b.Competitive, ShouldEqual, 4)
				So(b.Diversity, ShouldEqual, 1.5)
				So(b.Total, ShouldEqual, score)
			})

			Convey("Then it is deterministic", func() {
				So(scoring.Score(p, now), ShouldEqual, score)
			})
		})
	})

	Convey("Given a player with no data", t, func() {
		p := model.Player{ID: "p-0"}

		Convey("Then the level defaults to 2 and nothing else scores", func() {
			So(scoring.Score(p, now), ShouldEqual, 10)
		})
	})

	Convey("Given a very active player", t, func() {
		p := model.Player{
			ID:                 "p-2",
			MatchesPlayed:      5000,
			CompetitiveMatches: 5000,
			UniqueOpponents:    5000,
			LastMatch:          daysAgo(0),
		}

		Convey("Then volume, competitive and diversity terms are capped", func() {
			b := scoring.Explain(p, now)
			So(b.Volume, ShouldEqual, 15)
			So(b.Competitive, ShouldEqual, 10)
			So(b.Diversity, ShouldEqual, 5)
			So(b.Recency, ShouldEqual, 5)
		})
	})

	Convey("Given a player whose last match is long gone", t, func() {
		p := model.Player{ID: "p-3", LastMatch: daysAgo(400)}

		Convey("Then recency never goes negative", func() {
			So(scoring.Explain(p, now).Recency, ShouldEqual, 0)
		})
	})

	Convey("Given a small sample with a perfect win rate", t, func() {
		p := model.Player{ID: "p-4", WinRate: ptr(1.0), MatchesPlayed: 10}

		Convey("Then the win term is scaled by volume confidence", func() {
			So(scoring.Explain(p, now).WinRate, ShouldAlmostEqual, 5)
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Given players in different activity states", t, func() {
		cases := []struct {
			name   string
			player model.Player
			want   types.Streak
		}{
			{"never played", model.Player{}, scoring.Inactive},
			{"new player", model.Player{FirstMatch: daysAgo(10), LastMatch: daysAgo(1), MatchesPlayed: 6}, scoring.Rising},
			{"hot player", model.Player{FirstMatch: daysAgo(300), LastMatch: daysAgo(3), WinRate: ptr(0.65), MatchesPlayed: 20}, scoring.Hot},
			{"hot on the boundaries", model.Player{FirstMatch: daysAgo(300), LastMatch: daysAgo(14), WinRate: ptr(0.6), MatchesPlayed: 10}, scoring.Hot},
			{"recent but losing", model.Player{FirstMatch: daysAgo(300), LastMatch: daysAgo(3), WinRate: ptr(0.4), MatchesPlayed: 20}, scoring.Active},
			{"active", model.Player{FirstMatch: daysAgo(300), LastMatch: daysAgo(20), MatchesPlayed: 20}, scoring.Active},
			{"steady", model.Player{FirstMatch: daysAgo(300), LastMatch: daysAgo(45), MatchesPlayed: 20}, scoring.Steady},
			{"gone quiet", model.Player{FirstMatch: daysAgo(300), LastMatch: daysAgo(61), MatchesPlayed: 20}, scoring.Inactive},
		}

		for _, tc := range cases {
			Convey("Then "+tc.name+" is classified as "+tc.want.Label, func() {
				So(scoring.Classify(tc.player, now), ShouldResemble, tc.want)
			})
		}
	})

	Convey("Given a new player who is also winning", t, func() {
		p := model.Player{FirstMatch: daysAgo(5), LastMatch: daysAgo(1), WinRate: ptr(0.9), MatchesPlayed: 10}

		Convey("Then the earlier rule wins", func() {
			So(scoring.Classify(p, now).Kind, ShouldEqual, types.StreakNew)
		})
	})
}

func TestEngineRank(t *testing.T) {
	Convey("Given an engine with a fixed clock", t, func() {
		engine := scoring.NewEngine(scoring.WithClock(func() time.Time { return now }))
		So(engine.Now().Equal(now), ShouldBeTrue)

		players := []model.Player{
			{ID: "low", Name: "Low"},
			{ID: "high", Name: "High", Level: ptr(6.0), MatchesPlayed: 30, LastMatch: daysAgo(2)},
			{ID: "low-twin", Name: "Low Twin"},
		}

		Convey("When ranking", func() {
			ranked := engine.Rank(players)

			Convey("Then entries are ordered by score with stable ties", func() {
				So(len(ranked), ShouldEqual, 3)
				So(ranked[0].PlayerID, ShouldEqual, "high")
				So(ranked[1].PlayerID, ShouldEqual, "low")
				So(ranked[2].PlayerID, ShouldEqual, "low-twin")
				So(ranked[1].PowerScore, ShouldEqual, ranked[2].PowerScore)
			})

			Convey("Then ranks are 1-based positions", func() {
				for i, e := range ranked {
					So(e.Rank, ShouldEqual, i+1)
				}
			})

			Convey("Then streaks are attached", func() {
				So(ranked[0].Streak, ShouldResemble, scoring.Active)
				So(ranked[1].Streak, ShouldResemble, scoring.Inactive)
			})
		})

		Convey("When ranking nothing", func() {
			So(engine.Rank(nil), ShouldBeEmpty)
		})
	})
}
