// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/padel/internal/domain/h2h"
)

// H2HDependencies defines the interface for head-to-head comparisons.
type H2HDependencies interface {
	HeadToHead(ctx context.Context, a, b string) (h2h.Report, error)
}

// H2HHandler handles head-to-head requests.
type H2HHandler struct {
	deps H2HDependencies
}

// NewH2HHandler creates a new head-to-head handler.
func NewH2HHandler(deps H2HDependencies) *H2HHandler {
	return &H2HHandler{deps: deps}
}

// HandleGetH2H handles GET /api/h2h?a=&b=.
func (h *H2HHandler) HandleGetH2H(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_h2h"
	q := r.URL.Query()
	a, b := strings.TrimSpace(q.Get("a")), strings.TrimSpace(q.Get("b"))
	if a == "" || b == "" {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}

	report, err := h.deps.HeadToHead(r.Context(), a, b)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
