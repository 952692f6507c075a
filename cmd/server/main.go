package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paygrid/internal/platform/config"
	"paygrid/internal/platform/httpserver"
	"paygrid/internal/platform/logger"
	"paygrid/internal/platform/metrics"
	platformredis "paygrid/internal/platform/redis"
	"paygrid/internal/token"
	httptransport "paygrid/internal/transport/http"
	"paygrid/pkg/runtime/domainctx"
	"paygrid/pkg/runtime/eventbus"
	"paygrid/pkg/runtime/health"
	"paygrid/pkg/runtime/registry"
	"paygrid/pkg/runtime/telemetry"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Runtime behavior lives in the pkg/runtime packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	collector := telemetry.New(telemetry.WithObserver(m))
	bus := eventbus.New(log)

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}

	var contexts domainctx.Store
	if redisClient != nil {
		contexts = domainctx.NewRedis(redisClient.Client, cfg.Redis.ContextTTL)
		log.Info("using redis context store", "ttl", cfg.Redis.ContextTTL)
	} else {
		contexts = domainctx.NewInMemory()
		log.Info("using in-memory context store")
	}

	var forwarder *eventbus.Forwarder
	if len(cfg.Kafka.Brokers) > 0 {
		forwarder, err = eventbus.NewForwarder(ctx, eventbus.ForwarderConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		}, log)
		if err != nil {
			log.Error("kafka unavailable", "error", err)
			os.Exit(1)
		}
		forwarder.Attach(bus, "runtime.started", "runtime.service.unhealthy")
		log.Info("forwarding runtime events to kafka", "topic", cfg.Kafka.Topic)
	}

	reg := registry.New(log)
	registerRuntimeServices(log, reg, contexts, collector, bus)

	healthReg := health.NewRegistry(reg, log)
	registerHealthChecks(log, healthReg, redisClient)

	monitor := health.NewMonitor(healthReg, cfg.Runtime.HealthInterval, log,
		health.WithStatusFunc(func(name string, result health.Result) {
			m.SetServiceHealth(name, result.Healthy)
			if !result.Healthy {
				bus.Publish(ctx, eventbus.NewEvent("runtime.service.unhealthy", map[string]any{
					"service": name,
					"error":   result.Error,
				}))
			}
		}))
	go func() {
		if err := monitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("health monitor stopped", "error", err)
		}
	}()

	if report := reg.Validate(); !report.Valid {
		log.Error("service dependency validation failed", "errors", report.Errors)
		os.Exit(1)
	}
	stats := reg.Stats()
	m.ServicesRegistered.Set(float64(stats.Registered))

	tokens := token.NewService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer)
	handler := httptransport.New(log, reg, healthReg, contexts, collector)
	router := httptransport.NewRouter(handler, httptransport.RouterDeps{
		Logger:    log,
		Metrics:   m,
		Validator: token.NewMiddlewareAdapter(tokens),
		Contexts:  contexts,
		Collector: collector,
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting paygrid runtime", "addr", cfg.Server.Addr)
	bus.Publish(ctx, eventbus.NewEvent("runtime.started", map[string]any{
		"addr": cfg.Server.Addr,
	}))

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if forwarder != nil {
		if err := forwarder.Close(shutdownCtx); err != nil {
			log.Warn("forwarder drain failed", "error", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Warn("redis close failed", "error", err)
		}
	}
}

// registerRuntimeServices registers the runtime's own infrastructure in its
// registry so it is resolvable like any domain service.
func registerRuntimeServices(
	log *slog.Logger,
	reg *registry.Registry,
	contexts domainctx.Store,
	collector *telemetry.Collector,
	bus *eventbus.Bus,
) {
	descriptors := []registry.Descriptor{
		{
			Name: "runtime.contexts",
			New: func(context.Context, map[string]any) (any, error) {
				return contexts, nil
			},
		},
		{
			Name: "runtime.collector",
			New: func(context.Context, map[string]any) (any, error) {
				return collector, nil
			},
		},
		{
			Name: "runtime.bus",
			New: func(context.Context, map[string]any) (any, error) {
				return bus, nil
			},
		},
	}
	for _, d := range descriptors {
		if err := reg.Register(d); err != nil {
			log.Error("runtime service registration failed", "service", d.Name, "error", err)
			os.Exit(1)
		}
	}
}

// registerHealthChecks wires probes for the runtime's infrastructure. The
// context store probe pings redis when configured, otherwise it reports the
// in-memory store as always reachable.
func registerHealthChecks(log *slog.Logger, healthReg *health.Registry, redisClient *platformredis.Client) {
	probe := func(context.Context, any) (bool, error) { return true, nil }
	if redisClient != nil {
		probe = func(ctx context.Context, _ any) (bool, error) {
			if err := redisClient.Health(ctx); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	if err := healthReg.Register(health.Entry{
		Name:      "runtime.contexts",
		AutoCheck: true,
		Probe:     probe,
	}); err != nil {
		log.Error("health check registration failed", "error", err)
	}
}
