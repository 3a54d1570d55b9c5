package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	repository "github.com/okian/padel/internal/adapters/repository"
	"github.com/okian/padel/internal/config"
	"github.com/okian/padel/internal/domain/model"
	"github.com/okian/padel/pkg/logger"
	"github.com/okian/padel/pkg/metrics"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		ctx := context.Background()
		log := logger.NewNop()

		convey.Convey("When loading configuration from the environment", func() {
			_ = os.Setenv("PADEL_ADDR", ":8080")
			_ = os.Setenv("PADEL_STORAGE_DRIVER", "sqlite")
			_ = os.Setenv("PADEL_SQLITE_PATH", repository.MemoryPath)
			defer func() {
				_ = os.Unsetenv("PADEL_ADDR")
				_ = os.Unsetenv("PADEL_STORAGE_DRIVER")
				_ = os.Unsetenv("PADEL_SQLITE_PATH")
			}()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the overrides are applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.SQLitePath, convey.ShouldEqual, repository.MemoryPath)
			})
		})

		convey.Convey("When opening an unknown storage driver", func() {
			cfg := config.New()
			cfg.StorageDriver = "mongo"
			_, err := openSource(ctx, cfg, log)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When serving over a seeded sqlite store", func() {
			cfg := config.New()
			cfg.SQLitePath = repository.MemoryPath
			cfg.DefaultMinMatches = 1
			cfg.RateLimitRPS = 0
			cfg.Environment = "test"
			metrics.Configure(metricsOptions(cfg)...)
			defer metrics.Configure()

			src, err := openSource(ctx, cfg, log)
			convey.So(err, convey.ShouldBeNil)
			store, ok := src.(*repository.SQLite)
			convey.So(ok, convey.ShouldBeTrue)

			last := time.Now().Add(-48 * time.Hour)
			players := []model.Player{
				{ID: "ana", Name: "Ana Ruiz", MatchesPlayed: 12, LastMatch: &last},
				{ID: "bea", Name: "Bea Gil", MatchesPlayed: 9},
			}
			edges := []model.Edge{{Source: "ana", Target: "bea", Weight: 3, Relationship: model.Teammate}}
			convey.So(store.Seed(ctx, players, edges, nil), convey.ShouldBeNil)

			svc := newService(cfg, src, log)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()
			handler := newHandler(ctx, cfg, svc, log)

			serve := func(target string) *httptest.ResponseRecorder {
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, http.NoBody))
				return w
			}

			convey.Convey("Then the graph is built from storage", func() {
				w := serve("/api/graph")
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

				var body struct {
					Meta struct {
						Nodes int `json:"nodes"`
						Links int `json:"links"`
					} `json:"meta"`
				}
				convey.So(json.Unmarshal(w.Body.Bytes(), &body), convey.ShouldBeNil)
				convey.So(body.Meta.Nodes, convey.ShouldEqual, 2)
				convey.So(body.Meta.Links, convey.ShouldEqual, 1)
			})

			convey.Convey("Then unknown players are 404", func() {
				convey.So(serve("/api/players/ghost").Code, convey.ShouldEqual, http.StatusNotFound)
			})

			convey.Convey("Then docs and metrics are served", func() {
				convey.So(serve("/").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(serve("/api-docs").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(serve("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(serve("/healthz").Code, convey.ShouldEqual, http.StatusOK)
			})

			convey.Convey("Then metrics carry the configured env label", func() {
				body := serve("/healthz").Body.String()
				convey.So(body, convey.ShouldContainSubstring, `padel_analytics_graph_nodes{env="test"}`)
			})
		})

		convey.Convey("When the root context ends", func() {
			cfg := config.New()
			cfg.Addr = "127.0.0.1:0"
			cfg.SQLitePath = repository.MemoryPath

			cctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
			defer cancel()

			convey.Convey("Then run shuts down cleanly", func() {
				convey.So(run(cctx, cfg, log), convey.ShouldBeNil)
			})
		})
	})
}
