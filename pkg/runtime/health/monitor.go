package health

import (
	"context"
	"log/slog"
	"time"
)

// StatusFunc receives every auto-check result, letting the caller feed
// gauges or alerts without coupling the monitor to a metrics backend.
type StatusFunc func(name string, result Result)

// Monitor periodically runs the auto-check entries of a registry. It keeps
// background probing testable without wiring scheduler implementations.
type Monitor struct {
	registry *Registry
	interval time.Duration
	onStatus StatusFunc
	logger   *slog.Logger
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithStatusFunc installs a callback invoked for each auto-check result.
func WithStatusFunc(fn StatusFunc) MonitorOption {
	return func(m *Monitor) { m.onStatus = fn }
}

// NewMonitor creates a monitor ticking at interval.
func NewMonitor(registry *Registry, interval time.Duration, logger *slog.Logger, opts ...MonitorOption) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Monitor{registry: registry, interval: interval, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run blocks, probing auto-check entries every interval until ctx is
// cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *Monitor) sweep(ctx context.Context) {
	m.registry.mu.RLock()
	auto := make([]string, 0, len(m.registry.entries))
	for name, e := range m.registry.entries {
		if e.AutoCheck {
			auto = append(auto, name)
		}
	}
	m.registry.mu.RUnlock()

	for _, name := range auto {
		result, err := m.registry.Check(ctx, name)
		if err != nil {
			continue
		}
		if !result.Healthy {
			m.logger.Warn("auto health check unhealthy", "check", name, "error", result.Error)
		}
		if m.onStatus != nil {
			m.onStatus(name, result)
		}
	}
}
