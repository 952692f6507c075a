// Package registry implements the domain service registry: a descriptor store
// plus a dependency-aware singleton factory. Domains register descriptors at
// process start and resolve instances at call time; the registry guarantees
// dependencies are constructed depth-first before their dependents, and that
// concurrent resolutions of the same name converge on a single instance.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"paygrid/pkg/platform/sentinel"
)

// Constructor builds a service instance. The registry resolves the declared
// dependencies first and passes them keyed by name; constructors must not
// reach back into the registry.
type Constructor func(ctx context.Context, deps map[string]any) (any, error)

// Descriptor is the registration metadata for one service. Immutable once
// stored; dependencies are resolved by name in declaration order.
type Descriptor struct {
	Name         string
	Dependencies []string
	New          Constructor
}

// Stats exposes registry counters for observability endpoints.
type Stats struct {
	Registered int `json:"registered"`
	Built      int `json:"built"`
}

// Registry stores descriptors and caches singleton instances. All state is
// owned by the registry and mutated only through its methods.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
	instances   map[string]any

	group  singleflight.Group
	logger *slog.Logger
}

// New creates an empty registry.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		descriptors: make(map[string]Descriptor),
		instances:   make(map[string]any),
		logger:      logger,
	}
}

// Register stores a descriptor. Duplicate names are rejected with
// sentinel.ErrConflict; a descriptor without a name or constructor is
// rejected with sentinel.ErrInvalidState.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("register service: empty name: %w", sentinel.ErrInvalidState)
	}
	if d.New == nil {
		return fmt.Errorf("register service %q: nil constructor: %w", d.Name, sentinel.ErrInvalidState)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.descriptors[d.Name]; exists {
		return fmt.Errorf("register service %q: already registered: %w", d.Name, sentinel.ErrConflict)
	}
	r.descriptors[d.Name] = d
	r.logger.Debug("service registered", "service", d.Name, "dependencies", d.Dependencies)
	return nil
}

// Get returns the singleton instance for name, building it on first access.
// Dependencies are constructed depth-first in declaration order. Concurrent
// calls for the same not-yet-built name perform a single construction and
// share the result. Cycles and missing dependencies reachable from name fail
// the call before any construction starts.
func (r *Registry) Get(ctx context.Context, name string) (any, error) {
	r.mu.RLock()
	if inst, ok := r.instances[name]; ok {
		r.mu.RUnlock()
		return inst, nil
	}
	_, registered := r.descriptors[name]
	adjacency := r.adjacencyLocked()
	r.mu.RUnlock()

	if !registered {
		return nil, fmt.Errorf("resolve service %q: %w", name, sentinel.ErrNotFound)
	}

	// Fail fast instead of recursing into a broken subgraph. Pre-validation
	// also makes cross-goroutine builds deadlock-free: waits only ever follow
	// edges of a DAG.
	if report := validate(adjacency, []string{name}); !report.Valid {
		return nil, fmt.Errorf("resolve service %q: %s: %w", name, report.Errors[0], sentinel.ErrInvalidState)
	}

	return r.build(ctx, name)
}

// build constructs name and its dependencies, deduplicating concurrent builds
// per name. Only reached after the subgraph has been validated.
func (r *Registry) build(ctx context.Context, name string) (any, error) {
	inst, err, _ := r.group.Do(name, func() (any, error) {
		r.mu.RLock()
		if inst, ok := r.instances[name]; ok {
			r.mu.RUnlock()
			return inst, nil
		}
		desc := r.descriptors[name]
		r.mu.RUnlock()

		deps := make(map[string]any, len(desc.Dependencies))
		for _, dep := range desc.Dependencies {
			depInst, err := r.build(ctx, dep)
			if err != nil {
				return nil, err
			}
			deps[dep] = depInst
		}

		instance, err := desc.New(ctx, deps)
		if err != nil {
			// Not cached: the caller may fix configuration and retry.
			return nil, fmt.Errorf("construct service %q: %w", name, err)
		}

		r.mu.Lock()
		r.instances[name] = instance
		r.mu.Unlock()

		r.logger.Debug("service constructed", "service", name)
		return instance, nil
	})
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// Validate checks every registered descriptor without side effects, reporting
// all missing dependencies and cycles at once.
func (r *Registry) Validate() Report {
	r.mu.RLock()
	adjacency := r.adjacencyLocked()
	r.mu.RUnlock()

	roots := make([]string, 0, len(adjacency))
	for name := range adjacency {
		roots = append(roots, name)
	}
	return validate(adjacency, roots)
}

// ServiceInfo describes one registered service for diagnostics.
type ServiceInfo struct {
	Name         string   `json:"name"`
	Dependencies []string `json:"dependencies,omitempty"`
	Built        bool     `json:"built"`
}

// Services returns every registered service sorted by name.
func (r *Registry) Services() []ServiceInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ServiceInfo, 0, len(r.descriptors))
	for name, d := range r.descriptors {
		_, built := r.instances[name]
		out = append(out, ServiceInfo{
			Name:         name,
			Dependencies: append([]string(nil), d.Dependencies...),
			Built:        built,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Stats returns registration and construction counts.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Stats{Registered: len(r.descriptors), Built: len(r.instances)}
}

// Evict drops the cached instance for name, forcing reconstruction on the
// next Get. The descriptor stays registered.
func (r *Registry) Evict(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, name)
}

// adjacencyLocked snapshots the dependency graph as plain data for the
// validator. Callers must hold at least a read lock.
func (r *Registry) adjacencyLocked() map[string][]string {
	adjacency := make(map[string][]string, len(r.descriptors))
	for name, d := range r.descriptors {
		adjacency[name] = d.Dependencies
	}
	return adjacency
}
