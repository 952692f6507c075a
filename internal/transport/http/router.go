package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"paygrid/internal/platform/metrics"
	"paygrid/internal/platform/middleware"
	"paygrid/pkg/domain"
	"paygrid/pkg/runtime/access"
	"paygrid/pkg/runtime/domainctx"
	"paygrid/pkg/runtime/telemetry"
)

// RouterDeps bundles what the router needs beyond the Handler itself.
type RouterDeps struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Validator middleware.JWTValidator
	Contexts  domainctx.Store
	Collector *telemetry.Collector
}

// NewRouter wires the ops endpoints. Probes and the Prometheus scrape are
// unauthenticated; everything under /v1 requires a token and runs inside a
// stored domain context.
func NewRouter(h *Handler, deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Tracing("paygrid/runtime"))
	r.Use(middleware.Latency(deps.Metrics))

	r.Get("/healthz", h.handleHealthz)
	r.Get("/readyz", h.handleReadyz)
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	readRuntime := access.Policy{
		Domain:    domain.DomainRuntime,
		Operation: domain.OperationRead,
	}
	adminRuntime := access.Policy{
		Domain:               domain.DomainRuntime,
		Operation:            domain.OperationRead,
		RequiresVerification: true,
	}

	r.Route("/v1/runtime", func(v1 chi.Router) {
		v1.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
		v1.Use(middleware.RequestContext(deps.Contexts, deps.Collector, deps.Logger))

		v1.With(middleware.Guard("Runtime.listServices", readRuntime, deps.Logger)).
			Get("/services", h.handleServices)
		v1.With(middleware.Guard("Runtime.serviceMetrics", readRuntime, deps.Logger)).
			Get("/services/{name}/metrics", h.handleServiceMetrics)
		v1.With(middleware.Guard("Runtime.listContexts", adminRuntime, deps.Logger)).
			Get("/contexts", h.handleContexts)
	})

	return r
}
