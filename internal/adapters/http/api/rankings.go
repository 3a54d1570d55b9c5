// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	service "github.com/okian/padel/internal/app"
)

// DefaultRankingsLimit is the page size when limit is omitted.
const DefaultRankingsLimit = 100

// RankingsDependencies defines the interface for ranking operations.
type RankingsDependencies interface {
	Rankings(ctx context.Context, q service.RankingQuery) (service.RankingPage, error)
}

// RankingsHandler handles power ranking requests.
type RankingsHandler struct {
	deps     RankingsDependencies
	maxLimit int
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingsDependencies, maxLimit int) *RankingsHandler {
	return &RankingsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetRankings handles GET /api/rankings?limit=&offset= plus the player filters.
func (h *RankingsHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rankings"
	q := r.URL.Query()

	criteria, err := parseCriteria(q)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	limit, err := queryLimit(q, DefaultRankingsLimit, h.maxLimit)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	offset, err := queryInt(q, "offset")
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}

	rq := service.RankingQuery{Criteria: criteria, Limit: limit}
	if offset != nil {
		rq.Offset = *offset
	}
	page, err := h.deps.Rankings(r.Context(), rq)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, page)
}
