package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/padel/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEntry(t *testing.T) {
	Convey("Given a ranking entry", t, func() {
		level := 4.5
		entry := types.Entry{
			Rank:       1,
			PlayerID:   "p-1",
			Name:       "Ana Ruiz",
			Level:      &level,
			Matches:    42,
			Clubs:      []string{"Padel Center"},
			PowerScore: 61.3,
			Streak:     types.Streak{Kind: types.StreakHot, Label: "On Fire", Color: "#ef4444"},
		}

		Convey("When it is encoded", func() {
			raw, err := json.Marshal(entry)
			So(err, ShouldBeNil)

			var out map[string]any
			So(json.Unmarshal(raw, &out), ShouldBeNil)

			Convey("Then it uses the wire field names", func() {
				So(out["playerId"], ShouldEqual, "p-1")
				So(out["powerScore"], ShouldEqual, 61.3)
				So(out["winRate"], ShouldBeNil)
				So(out["streak"].(map[string]any)["kind"], ShouldEqual, "hot")
			})
		})
	})
}
