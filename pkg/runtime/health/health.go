// Package health runs caller-supplied probes against resolved services and
// aggregates their status. Probe failures never propagate: errors, panics,
// and timeouts are all captured into the Result.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"paygrid/pkg/platform/sentinel"
)

// Probe inspects a resolved service instance. Returning (false, nil) marks
// the service unhealthy without error text; a returned error or panic is
// captured into the result.
type Probe func(ctx context.Context, service any) (bool, error)

// Resolver resolves a service instance by name. The service registry
// satisfies it.
type Resolver interface {
	Get(ctx context.Context, name string) (any, error)
}

// Entry registers one health check. Service defaults to Name when empty;
// Timeout defaults to the registry's default.
type Entry struct {
	Name      string
	Service   string
	Probe     Probe
	AutoCheck bool
	Timeout   time.Duration
}

// Status is the reported health state.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// Result is the outcome of one probe run.
type Result struct {
	Healthy   bool      `json:"healthy"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// DefaultProbeTimeout bounds probes whose entries declare no timeout of
// their own.
const DefaultProbeTimeout = 5 * time.Second

// Registry holds health check entries and runs them on demand.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry

	resolver       Resolver
	defaultTimeout time.Duration
	logger         *slog.Logger
}

// NewRegistry creates a health check registry resolving services through
// resolver.
func NewRegistry(resolver Resolver, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		entries:        make(map[string]Entry),
		resolver:       resolver,
		defaultTimeout: DefaultProbeTimeout,
		logger:         logger,
	}
}

// Register stores a health check entry. Duplicate names are rejected.
func (r *Registry) Register(e Entry) error {
	if e.Name == "" {
		return fmt.Errorf("register health check: empty name: %w", sentinel.ErrInvalidState)
	}
	if e.Probe == nil {
		return fmt.Errorf("register health check %q: nil probe: %w", e.Name, sentinel.ErrInvalidState)
	}
	if e.Service == "" {
		e.Service = e.Name
	}
	if e.Timeout <= 0 {
		e.Timeout = r.defaultTimeout
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[e.Name]; exists {
		return fmt.Errorf("register health check %q: already registered: %w", e.Name, sentinel.ErrConflict)
	}
	r.entries[e.Name] = e
	return nil
}

// Check resolves the target service and runs its probe. The returned error is
// non-nil only for an unknown check name; every probe outcome, including
// resolution failure, is folded into the Result.
func (r *Registry) Check(ctx context.Context, name string) (Result, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return Result{}, fmt.Errorf("health check %q: %w", name, sentinel.ErrNotFound)
	}
	return r.run(ctx, e), nil
}

// CheckAll runs every registered probe concurrently and returns the results
// keyed by check name.
func (r *Registry) CheckAll(ctx context.Context) map[string]Result {
	r.mu.RLock()
	entries := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	results := make(map[string]Result, len(entries))
	var resultsMu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, e := range entries {
		g.Go(func() error {
			res := r.run(ctx, e)
			resultsMu.Lock()
			results[e.Name] = res
			resultsMu.Unlock()
			return nil
		})
	}
	// Probe outcomes are data, never group errors.
	_ = g.Wait()
	return results
}

// Healthy reports whether every result is healthy. An empty set is healthy.
func Healthy(results map[string]Result) bool {
	for _, res := range results {
		if !res.Healthy {
			return false
		}
	}
	return true
}

func unhealthy(err string) Result {
	return Result{Status: StatusUnhealthy, Error: err, CheckedAt: time.Now()}
}

// run executes one probe under its timeout, capturing errors and panics.
func (r *Registry) run(ctx context.Context, e Entry) Result {
	service, err := r.resolver.Get(ctx, e.Service)
	if err != nil {
		return unhealthy(fmt.Sprintf("resolve service %q: %v", e.Service, err))
	}

	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	type outcome struct {
		ok  bool
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("probe panic: %v", rec)}
			}
		}()
		ok, err := e.Probe(ctx, service)
		done <- outcome{ok: ok, err: err}
	}()

	select {
	case <-ctx.Done():
		r.logger.Warn("health probe timed out", "check", e.Name, "timeout", e.Timeout)
		return unhealthy(fmt.Sprintf("probe timed out after %s", e.Timeout))
	case out := <-done:
		switch {
		case out.err != nil:
			return unhealthy(out.err.Error())
		case !out.ok:
			return Result{Status: StatusUnhealthy, CheckedAt: time.Now()}
		default:
			return Result{Healthy: true, Status: StatusHealthy, CheckedAt: time.Now()}
		}
	}
}
