// Package httptransport is the thin HTTP layer over the runtime. Handlers
// delegate to the runtime components without embedding business logic so
// transport concerns remain isolated.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"paygrid/internal/platform/middleware"
	"paygrid/pkg/domain"
	"paygrid/pkg/runtime/domainctx"
	"paygrid/pkg/runtime/health"
	"paygrid/pkg/runtime/registry"
	"paygrid/pkg/runtime/telemetry"
)

// Handler serves the runtime ops API.
type Handler struct {
	logger    *slog.Logger
	registry  *registry.Registry
	health    *health.Registry
	contexts  domainctx.Store
	collector *telemetry.Collector
}

// New creates the ops Handler.
func New(
	logger *slog.Logger,
	reg *registry.Registry,
	healthReg *health.Registry,
	contexts domainctx.Store,
	collector *telemetry.Collector,
) *Handler {
	return &Handler{
		logger:    logger,
		registry:  reg,
		health:    healthReg,
		contexts:  contexts,
		collector: collector,
	}
}

// handleHealthz aggregates every registered health check.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	results := h.health.CheckAll(r.Context())

	status := http.StatusOK
	overall := "healthy"
	if !health.Healthy(results) {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}
	writeJSON(w, status, map[string]any{
		"status": overall,
		"checks": results,
	})
}

// handleReadyz reports whether the dependency graph is resolvable.
func (h *Handler) handleReadyz(w http.ResponseWriter, r *http.Request) {
	report := h.registry.Validate()

	status := http.StatusOK
	if !report.Valid {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// handleServices lists registered services and registry counters.
func (h *Handler) handleServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":    h.registry.Stats(),
		"services": h.registry.Services(),
	})
}

// handleContexts returns a diagnostics snapshot of the live request contexts
// for one domain.
func (h *Handler) handleContexts(w http.ResponseWriter, r *http.Request) {
	name, err := domain.ParseName(r.URL.Query().Get("domain"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "bad_request",
			"message": err.Error(),
		})
		return
	}

	contexts, err := h.contexts.ByDomain(r.Context(), name)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "context snapshot failed",
			"domain", name,
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"domain":   name,
		"count":    len(contexts),
		"contexts": contexts,
	})
}

// handleServiceMetrics returns the collector series and performance summary
// for one service.
func (h *Handler) handleServiceMetrics(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	writeJSON(w, http.StatusOK, map[string]any{
		"service":     name,
		"metrics":     h.collector.ServiceMetrics(name),
		"performance": h.collector.Performance(name),
	})
}
