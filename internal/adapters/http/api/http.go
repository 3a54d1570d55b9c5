// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	service "github.com/okian/padel/internal/app"
	"github.com/okian/padel/pkg/logger"
	"golang.org/x/time/rate"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	GraphDependencies
	RankingsDependencies
	PlayersDependencies
	H2HDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	graphHandler    *GraphHandler
	rankingsHandler *RankingsHandler
	playersHandler  *PlayersHandler
	h2hHandler      *H2HHandler

	limiter *rate.Limiter
	timeout time.Duration
	log     logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimit installs a token bucket shared by every API route. A
// non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithTimeout bounds each API request.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		graphHandler:    NewGraphHandler(deps),
		rankingsHandler: NewRankingsHandler(deps, MaxListLimit),
		playersHandler:  NewPlayersHandler(deps, MaxListLimit),
		h2hHandler:      NewH2HHandler(deps),
		log:             logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /api/graph", s.wrap(s.graphHandler.HandleGetGraph, "graph"))
	mux.HandleFunc("GET /api/rankings", s.wrap(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("GET /api/players", s.wrap(s.playersHandler.HandleListPlayers, "players"))
	mux.HandleFunc("GET /api/players/{id}", s.wrap(s.playersHandler.HandleGetPlayer, "player"))
	mux.HandleFunc("GET /api/players/{id}/history", s.wrap(s.playersHandler.HandleGetHistory, "history"))
	mux.HandleFunc("GET /api/h2h", s.wrap(s.h2hHandler.HandleGetH2H, "h2h"))
}

// wrap applies the API middleware chain, outermost first.
func (s *Server) wrap(h http.HandlerFunc, endpoint string) http.HandlerFunc {
	h = TimeoutMiddleware(h, s.timeout)
	h = RateLimitMiddleware(h, s.limiter, endpoint)
	h = RequestIDMiddleware(h, s.log)
	return MetricsMiddleware(h, endpoint)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err onto a status and error code.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrSamePlayer):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, ErrNotFound), errors.Is(err, service.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate_limited", err)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
