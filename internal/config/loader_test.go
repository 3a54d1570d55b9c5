package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/padel/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.PageSize, convey.ShouldEqual, 1000)
				convey.So(cfg.DefaultMinWeight, convey.ShouldEqual, 2)
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "padel")
				convey.So(cfg.ConstLabels(), convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PADEL_ADDR", ":8080")
			_ = os.Setenv("PADEL_PAGE_SIZE", "250")
			_ = os.Setenv("PADEL_DEFAULT_MIN_MATCHES", "10")
			_ = os.Setenv("PADEL_RATE_LIMIT_RPS", "2.5")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.PageSize, convey.ShouldEqual, 250)
				convey.So(cfg.DefaultMinMatches, convey.ShouldEqual, 10)
				convey.So(cfg.RateLimitRPS, convey.ShouldEqual, 2.5)
			})
		})

		convey.Convey("When loading config with a YAML file and env overrides", func() {
			tmpFile := createTempConfigFile(`
# padel service
addr: ":9090"
storage_driver: postgres
database_url: "postgres://padel@localhost/padel"
broad_scan_threshold: 1500
log_format: json
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PADEL_CONFIG", tmpFile)
			_ = os.Setenv("PADEL_ADDR", ":7070")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins over the file and the file wins over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.StorageDriver, convey.ShouldEqual, config.DriverPostgres)
				convey.So(cfg.DatabaseURL, convey.ShouldEqual, "postgres://padel@localhost/padel")
				convey.So(cfg.BroadScanThreshold, convey.ShouldEqual, 1500)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.H2HEdgeLimit, convey.ShouldEqual, 500)
			})
		})

		convey.Convey("When the file sets metrics labels and buckets", func() {
			tmpFile := createTempConfigFile(`
metrics_namespace: league
metrics_buckets_ms: [5, 50, 500]
metrics_labels:
  region: eu
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PADEL_CONFIG", tmpFile)
			_ = os.Setenv("PADEL_ENVIRONMENT", " staging ")

			cfg, err := config.Load(ctx)

			convey.Convey("Then the environment joins the file labels", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "league")
				convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "analytics")
				convey.So(cfg.MetricsBucketsMS, convey.ShouldResemble, []float64{5, 50, 500})
				convey.So(cfg.ConstLabels(), convey.ShouldResemble, map[string]string{"region": "eu", "env": "staging"})
			})
		})

		convey.Convey("When the file sets decreasing buckets", func() {
			tmpFile := createTempConfigFile(`metrics_buckets_ms: [100, 10]`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PADEL_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "metrics_buckets_ms")
			})
		})

		convey.Convey("When the file sets a reserved label name", func() {
			tmpFile := createTempConfigFile("metrics_labels:\n  __name: x\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PADEL_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "invalid metrics label")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PADEL_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("PADEL_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("PADEL_PAGE_SIZE", "lots")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given config validation", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		cases := []struct {
			name string
			env  map[string]string
			want string
		}{
			{"empty addr", map[string]string{"PADEL_ADDR": ""}, "addr must not be empty"},
			{"page size above the backend cap", map[string]string{"PADEL_PAGE_SIZE": "5000"}, "page_size"},
			{"zero page size", map[string]string{"PADEL_PAGE_SIZE": "0"}, "page_size"},
			{"unknown driver", map[string]string{"PADEL_STORAGE_DRIVER": "mysql"}, "unknown storage_driver"},
			{"postgres without url", map[string]string{"PADEL_STORAGE_DRIVER": "postgres"}, "database_url"},
			{"negative floor", map[string]string{"PADEL_DEFAULT_MIN_WEIGHT": "-1"}, "floors"},
			{"dashed metrics namespace", map[string]string{"PADEL_METRICS_NAMESPACE": "padel-league"}, "metrics name part"},
			{"metrics subsystem with a leading digit", map[string]string{"PADEL_METRICS_SUBSYSTEM": "9ball"}, "metrics name part"},
		}

		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				for k, v := range tc.env {
					_ = os.Setenv(k, v)
				}

				cfg, err := config.Load(ctx)

				convey.Convey("Then it should return a validation error", func() {
					convey.So(cfg, convey.ShouldBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(err.Error(), convey.ShouldContainSubstring, tc.want)
				})
			})
		}
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, envVar := range []string{
		"PADEL_CONFIG",
		"PADEL_ADDR",
		"PADEL_PAGE_SIZE",
		"PADEL_DEFAULT_MIN_MATCHES",
		"PADEL_DEFAULT_MIN_WEIGHT",
		"PADEL_RATE_LIMIT_RPS",
		"PADEL_STORAGE_DRIVER",
		"PADEL_ENVIRONMENT",
		"PADEL_METRICS_NAMESPACE",
		"PADEL_METRICS_SUBSYSTEM",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "padel-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
