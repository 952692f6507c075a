// Package locator provides a thin keyed lookup over already-constructed
// services. Unlike the registry it performs no dependency-aware construction:
// call sites that already know their dependencies are satisfied get O(1)
// resolution from a local cache, with optional entries that resolve to a
// caller-supplied fallback.
package locator

import (
	"errors"
	"fmt"
	"sync"

	"paygrid/pkg/platform/sentinel"
)

// Options controls how an entry behaves on lookup.
type Options struct {
	// Optional entries may be resolved before (or without) a value being
	// registered; Resolve reports absence, ResolveOptional falls back, and
	// ResolveAll silently omits them.
	Optional bool
}

type entry struct {
	value    any
	hasValue bool
	optional bool
}

// Locator is a synchronous name->instance cache. Safe for concurrent use.
type Locator struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New creates an empty locator.
func New() *Locator {
	return &Locator{entries: make(map[string]entry)}
}

// Register stores value under name. Registering the same name twice is a
// conflict; declare-only optional entries (nil value) may later be completed
// by a real registration.
func (l *Locator) Register(name string, value any, opts Options) error {
	if name == "" {
		return fmt.Errorf("register: empty name: %w", sentinel.ErrInvalidState)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.entries[name]; ok && existing.hasValue {
		return fmt.Errorf("register %q: already registered: %w", name, sentinel.ErrConflict)
	}
	l.entries[name] = entry{value: value, hasValue: value != nil, optional: opts.Optional}
	return nil
}

// Resolve returns the registered instance for name, or sentinel.ErrNotFound
// when no value is present.
func (l *Locator) Resolve(name string) (any, error) {
	l.mu.RLock()
	e, ok := l.entries[name]
	l.mu.RUnlock()

	if !ok || !e.hasValue {
		return nil, fmt.Errorf("resolve %q: %w", name, sentinel.ErrNotFound)
	}
	return e.value, nil
}

// ResolveOptional never fails: it returns fallback when name has no
// registered value.
func (l *Locator) ResolveOptional(name string, fallback any) any {
	l.mu.RLock()
	e, ok := l.entries[name]
	l.mu.RUnlock()

	if !ok || !e.hasValue {
		return fallback
	}
	return e.value
}

// ResolveAll resolves each name independently and returns the instances that
// were found. Absent optional entries are omitted; absent required entries are
// reported in the joined error while the rest of the batch still succeeds.
func (l *Locator) ResolveAll(names []string) (map[string]any, error) {
	resolved := make(map[string]any, len(names))
	var errs []error

	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, name := range names {
		e, ok := l.entries[name]
		if ok && e.hasValue {
			resolved[name] = e.value
			continue
		}
		if ok && e.optional {
			continue
		}
		errs = append(errs, fmt.Errorf("resolve %q: %w", name, sentinel.ErrNotFound))
	}
	return resolved, errors.Join(errs...)
}

// Known reports whether name has been registered, with or without a value.
func (l *Locator) Known(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[name]
	return ok
}
