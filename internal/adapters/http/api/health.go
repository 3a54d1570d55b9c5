// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/okian/padel/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler serves the liveness probe together with the metrics exposition.
type HealthHandler struct {
	exposition http.Handler
}

// NewHealthHandler creates a health handler over the process metrics registry.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		exposition: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /healthz requests. Any 200 response means the
// process is serving; the body is the Prometheus text exposition.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.exposition.ServeHTTP(w, r)
}
