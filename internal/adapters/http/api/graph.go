// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	service "github.com/okian/padel/internal/app"
)

// GraphDependencies defines the interface for graph operations.
type GraphDependencies interface {
	Graph(ctx context.Context, q service.GraphQuery) (service.GraphView, error)
}

// GraphHandler handles graph requests.
type GraphHandler struct {
	deps GraphDependencies
}

// NewGraphHandler creates a new graph handler.
func NewGraphHandler(deps GraphDependencies) *GraphHandler {
	return &GraphHandler{deps: deps}
}

// HandleGetGraph handles GET /api/graph?minMatches=&minWeight=&minLevel=&maxLevel=&club=&search=.
func (h *GraphHandler) HandleGetGraph(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_graph"
	q := r.URL.Query()

	criteria, err := parseCriteria(q)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	minWeight, err := queryInt(q, "minWeight")
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}

	view, err := h.deps.Graph(r.Context(), service.GraphQuery{Criteria: criteria, MinWeight: minWeight})
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}
