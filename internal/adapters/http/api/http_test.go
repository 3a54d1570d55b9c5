package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/padel/internal/adapters/http/api"
	service "github.com/okian/padel/internal/app"
	"github.com/okian/padel/internal/domain/filter"
	"github.com/okian/padel/internal/domain/graph"
	"github.com/okian/padel/internal/domain/h2h"
	"github.com/okian/padel/internal/domain/history"
	"github.com/okian/padel/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockDeps struct {
	graphQuery   service.GraphQuery
	rankingQuery service.RankingQuery
	criteria     filter.Criteria
	limit        int
	historyID    string
	historyQuery service.HistoryQuery
	h2hPair      [2]string

	err   error
	block bool
}

func (m *mockDeps) Graph(ctx context.Context, q service.GraphQuery) (service.GraphView, error) {
	m.graphQuery = q
	if m.block {
		<-ctx.Done()
		return service.GraphView{}, ctx.Err()
	}
	if m.err != nil {
		return service.GraphView{}, m.err
	}
	return service.GraphView{Payload: graph.Payload{
		Nodes: []graph.Node{{ID: "ana", Name: "Ana"}},
		Links: []graph.Link{},
		Meta:  graph.Meta{Nodes: 1},
	}}, nil
}

func (m *mockDeps) Rankings(_ context.Context, q service.RankingQuery) (service.RankingPage, error) {
	m.rankingQuery = q
	if m.err != nil {
		return service.RankingPage{}, m.err
	}
	return service.RankingPage{Entries: []types.Entry{{Rank: 1, PlayerID: "ana", PowerScore: 42.5}}, Total: 1}, nil
}

func (m *mockDeps) Players(_ context.Context, c filter.Criteria, limit int) ([]service.PlayerCard, error) {
	m.criteria, m.limit = c, limit
	if m.err != nil {
		return nil, m.err
	}
	return []service.PlayerCard{{ID: "ana", Name: "Ana"}}, nil
}

func (m *mockDeps) Player(_ context.Context, id string) (service.Profile, error) {
	if m.err != nil {
		return service.Profile{}, m.err
	}
	return service.Profile{PlayerCard: service.PlayerCard{ID: id, Name: "Ana"}, PowerScore: 42.5}, nil
}

func (m *mockDeps) History(_ context.Context, id string, q service.HistoryQuery) (history.Report, error) {
	m.historyID, m.historyQuery = id, q
	if m.err != nil {
		return history.Report{}, m.err
	}
	return history.Report{PlayerID: id, TotalMatches: 3}, nil
}

func (m *mockDeps) HeadToHead(_ context.Context, a, b string) (h2h.Report, error) {
	m.h2hPair = [2]string{a, b}
	if m.err != nil {
		return h2h.Report{}, m.err
	}
	return h2h.Report{Score: h2h.Score{A: 5, B: 3}}, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps *mockDeps, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, opts...).
		Register(context.Background(), mux)
	return mux
}

func get(mux *http.ServeMux, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("Then the health endpoint exposes metrics", func() {
			w := get(mux, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then the stats endpoint returns provider stats", func() {
			w := get(mux, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["started"], ShouldEqual, true)
		})

		Convey("Then unknown routes are not found", func() {
			So(get(mux, "/unknown").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then non-GET methods are rejected", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/graph", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("Then every API response carries a request id", func() {
			w := get(mux, "/api/rankings")
			So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)

			req := httptest.NewRequest(http.MethodGet, "/api/rankings", http.NoBody)
			req.Header.Set(api.RequestIDHeader, "req-1")
			w = httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "req-1")
		})
	})
}

func TestGraphHandler(t *testing.T) {
	Convey("Given the graph endpoint", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("When called with filters", func() {
			w := get(mux, "/api/graph?minMatches=3&minWeight=4&minLevel=2.5&club=Club%20Sur")

			Convey("Then the query is parsed and the payload returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(*deps.graphQuery.MinWeight, ShouldEqual, 4)
				So(*deps.graphQuery.Criteria.MinMatches, ShouldEqual, 3)
				So(deps.graphQuery.Criteria.MinLevel, ShouldEqual, 2.5)
				So(deps.graphQuery.Criteria.MaxLevel, ShouldEqual, filter.LevelCeil)
				So(deps.graphQuery.Criteria.Club, ShouldEqual, "Club Sur")

				body := decode(w)
				So(body["nodes"], ShouldHaveLength, 1)
				So(body["meta"].(map[string]any)["nodes"], ShouldEqual, 1.0)
			})
		})

		Convey("When called without filters", func() {
			w := get(mux, "/api/graph")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.graphQuery.MinWeight, ShouldBeNil)
			So(deps.graphQuery.Criteria.MinMatches, ShouldBeNil)
			So(deps.graphQuery.Criteria.LevelBounded(), ShouldBeFalse)
		})

		Convey("When parameters are malformed", func() {
			for _, target := range []string{
				"/api/graph?minWeight=abc",
				"/api/graph?minMatches=-1",
				"/api/graph?minLevel=6&maxLevel=3",
				"/api/graph?maxLevel=9",
			} {
				Convey(fmt.Sprintf("Then %s is a bad request", target), func() {
					w := get(mux, target)
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					So(decode(w)["code"], ShouldEqual, "bad_request")
				})
			}
		})

		Convey("When the request outlives its timeout", func() {
			deps.block = true
			mux := newMux(deps, api.WithTimeout(10*time.Millisecond))
			w := get(mux, "/api/graph")
			So(w.Code, ShouldEqual, http.StatusGatewayTimeout)
		})
	})
}

func TestRankingsHandler(t *testing.T) {
	Convey("Given the rankings endpoint", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("When paging", func() {
			w := get(mux, "/api/rankings?limit=10&offset=20")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.rankingQuery.Limit, ShouldEqual, 10)
			So(deps.rankingQuery.Offset, ShouldEqual, 20)
			So(decode(w)["total"], ShouldEqual, 1.0)
		})

		Convey("When limit is omitted", func() {
			get(mux, "/api/rankings")
			So(deps.rankingQuery.Limit, ShouldEqual, api.DefaultRankingsLimit)
		})

		Convey("When limit exceeds the maximum", func() {
			w := get(mux, fmt.Sprintf("/api/rankings?limit=%d", api.MaxListLimit+1))
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the service fails", func() {
			deps.err = errors.New("boom")
			w := get(mux, "/api/rankings")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(decode(w)["code"], ShouldEqual, "internal_error")
		})
	})
}

func TestPlayersHandler(t *testing.T) {
	Convey("Given the player endpoints", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("When searching", func() {
			w := get(mux, "/api/players?search=%20ana%20&limit=5")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.criteria.Search, ShouldEqual, "ana")
			So(deps.limit, ShouldEqual, 5)
		})

		Convey("When loading a profile", func() {
			w := get(mux, "/api/players/ana")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["id"], ShouldEqual, "ana")
			So(body["powerScore"], ShouldEqual, 42.5)
		})

		Convey("When the profile does not exist", func() {
			deps.err = fmt.Errorf("load player: %w", service.ErrPlayerNotFound)
			w := get(mux, "/api/players/ghost")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode(w)["code"], ShouldEqual, "not_found")
		})

		Convey("When loading a scoped history", func() {
			w := get(mux, "/api/players/ana/history?club=Club%20Sur,%20Padel%20Norte&club=Norte&limit=5")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.historyID, ShouldEqual, "ana")
			So(deps.historyQuery.Clubs, ShouldResemble, []string{"Club Sur", "Padel Norte", "Norte"})
			So(deps.historyQuery.Limit, ShouldEqual, 5)
			So(decode(w)["totalMatches"], ShouldEqual, 3.0)
		})

		Convey("When history limit is omitted", func() {
			get(mux, "/api/players/ana/history")
			So(deps.historyQuery.Limit, ShouldEqual, history.DefaultHistoryLimit)
			So(deps.historyQuery.Clubs, ShouldBeEmpty)
		})
	})
}

func TestH2HHandler(t *testing.T) {
	Convey("Given the head-to-head endpoint", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("When both players are given", func() {
			w := get(mux, "/api/h2h?a=ana&b=bea")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.h2hPair, ShouldResemble, [2]string{"ana", "bea"})
			So(decode(w)["score"].(map[string]any)["a"], ShouldEqual, 5.0)
		})

		Convey("When a player is missing", func() {
			So(get(mux, "/api/h2h?a=ana").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When both sides are the same player", func() {
			deps.err = service.ErrSamePlayer
			So(get(mux, "/api/h2h?a=ana&b=ana").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestRateLimit(t *testing.T) {
	Convey("Given a server with a burst of one request", t, func() {
		mux := newMux(&mockDeps{}, api.WithRateLimit(0.001, 1))

		Convey("Then the second request is throttled", func() {
			So(get(mux, "/api/rankings").Code, ShouldEqual, http.StatusOK)
			w := get(mux, "/api/rankings")
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(decode(w)["code"], ShouldEqual, "rate_limited")
			So(w.Header().Get("Retry-After"), ShouldEqual, "1")
		})

		Convey("Then health checks are never throttled", func() {
			for range 3 {
				So(get(mux, "/healthz").Code, ShouldEqual, http.StatusOK)
			}
		})
	})
}

func TestError(t *testing.T) {
	Convey("Given op-tagged errors", t, func() {
		cause := errors.New("disk")

		Convey("Then kinds and causes are both reachable", func() {
			err := api.WrapKind("api.op", api.ErrNotFound, cause)
			So(errors.Is(err, api.ErrNotFound), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: not found: disk")
		})

		Convey("Then NewKind carries only the kind", func() {
			err := api.NewKind("api.op", api.ErrBadRequest)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request")
		})

		Convey("Then wrapping nil stays nil", func() {
			So(api.Wrap("api.op", nil), ShouldBeNil)
		})
	})
}
