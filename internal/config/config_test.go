package config_test

import (
	"testing"
	"time"

	"github.com/okian/padel/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StorageDriver, convey.ShouldEqual, config.DriverSQLite)
			convey.So(cfg.PageSize, convey.ShouldEqual, config.MaxPageSize)
			convey.So(cfg.DefaultMinMatches, convey.ShouldEqual, 5)
			convey.So(cfg.BroadScanThreshold, convey.ShouldEqual, 3000)
			convey.So(cfg.H2HEdgeLimit, convey.ShouldEqual, 500)
			convey.So(cfg.RequestTimeout(), convey.ShouldEqual, 15*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
