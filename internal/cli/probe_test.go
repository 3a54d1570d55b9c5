package cli_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/padel/internal/adapters/http/api"
	repository "github.com/okian/padel/internal/adapters/repository"
	service "github.com/okian/padel/internal/app"
	"github.com/okian/padel/internal/cli"
	"github.com/okian/padel/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestProbe(t *testing.T) {
	Convey("Given a running server over a generated league", t, func() {
		ctx := context.Background()
		store, err := repository.OpenSQLite(ctx, repository.MemoryPath)
		So(err, ShouldBeNil)

		league, err := cli.GenerateLeague(cli.LeagueOptions{Players: 24, Clubs: 2, Matches: 150, Seed: 3})
		So(err, ShouldBeNil)
		So(store.Seed(ctx, league.Players, league.Edges, league.Matches), ShouldBeNil)

		svc := service.New(service.WithSource(store), service.WithLogger(logger.NewNop()))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc, api.WithLogger(logger.NewNop())).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		cfg := cli.ProbeConfig{BaseURL: srv.URL, Requests: 30, Workers: 4, Timeout: 5 * time.Second}

		Convey("When it is probed", func() {
			report, err := cli.RunProbe(ctx, cfg, srv.Client())
			So(err, ShouldBeNil)

			Convey("Then every endpoint answers successfully", func() {
				So(len(report.Endpoints), ShouldEqual, 6)
				total := 0
				for _, s := range report.Endpoints {
					total += s.Requests
					So(s.Failed, ShouldEqual, 0)
					So(s.OK, ShouldEqual, s.Requests)
					So(s.Percentile(0.95), ShouldBeGreaterThanOrEqualTo, s.Percentile(0.5))
				}
				So(total, ShouldEqual, 30)
			})
		})

		Convey("When the configuration is empty", func() {
			_, err := cli.RunProbe(ctx, cli.ProbeConfig{BaseURL: srv.URL}, srv.Client())
			So(errors.Is(err, cli.ErrProbe), ShouldBeTrue)
		})

		Convey("When the server is unhealthy", func() {
			down := httptest.NewServer(http.NotFoundHandler())
			defer down.Close()
			cfg.BaseURL = down.URL

			_, err := cli.RunProbe(ctx, cfg, down.Client())
			So(errors.Is(err, cli.ErrProbe), ShouldBeTrue)
		})
	})
}

func TestEndpointStats(t *testing.T) {
	Convey("Given latency samples", t, func() {
		s := cli.EndpointStats{Latencies: []time.Duration{5, 1, 4, 2, 3}}

		Convey("Then percentiles pick from the sorted samples", func() {
			So(s.Percentile(0), ShouldEqual, time.Duration(1))
			So(s.Percentile(0.5), ShouldEqual, time.Duration(3))
			So(s.Percentile(1), ShouldEqual, time.Duration(5))
			So(cli.EndpointStats{}.Percentile(0.5), ShouldEqual, time.Duration(0))
		})
	})
}
