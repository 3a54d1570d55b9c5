// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	service "github.com/okian/padel/internal/app"
	"github.com/okian/padel/internal/domain/filter"
	"github.com/okian/padel/internal/domain/history"
)

// PlayersDependencies defines the interface for player lookups.
type PlayersDependencies interface {
	Players(ctx context.Context, c filter.Criteria, limit int) ([]service.PlayerCard, error)
	Player(ctx context.Context, id string) (service.Profile, error)
	History(ctx context.Context, id string, q service.HistoryQuery) (history.Report, error)
}

// PlayersHandler handles player listing, profile and history requests.
type PlayersHandler struct {
	deps     PlayersDependencies
	maxLimit int
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayersDependencies, maxLimit int) *PlayersHandler {
	return &PlayersHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleListPlayers handles GET /api/players?search=&club=&limit=.
func (h *PlayersHandler) HandleListPlayers(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_players"
	q := r.URL.Query()

	criteria, err := parseCriteria(q)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	limit, err := queryLimit(q, service.DefaultPlayersLimit, h.maxLimit)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}

	cards, err := h.deps.Players(r.Context(), criteria, limit)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// HandleGetPlayer handles GET /api/players/{id}.
func (h *PlayersHandler) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_player"
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}

	profile, err := h.deps.Player(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleGetHistory handles GET /api/players/{id}/history?club=&limit=.
// club may repeat or carry a comma-separated list.
func (h *PlayersHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}
	q := r.URL.Query()
	limit, err := queryLimit(q, history.DefaultHistoryLimit, h.maxLimit)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}

	var clubs []string
	for _, raw := range q["club"] {
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" {
				clubs = append(clubs, c)
			}
		}
	}

	report, err := h.deps.History(r.Context(), id, service.HistoryQuery{Clubs: clubs, Limit: limit})
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
