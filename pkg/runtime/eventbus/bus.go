// Package eventbus distributes typed domain events to decoupled subscribers.
// Publishing fans out to a snapshot of the subscribers registered at call
// time; every handler runs isolated, so one failure or panic never blocks
// the others and never fails the publish itself.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"
)

// Event is an immutable domain occurrence. Metadata ownership passes to the
// bus at publish time; each subscriber receives its own copy.
type Event struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType string, metadata map[string]any) Event {
	return Event{Type: eventType, OccurredAt: time.Now().UTC(), Metadata: metadata}
}

// clone gives a subscriber its own metadata map.
func (e Event) clone() Event {
	if e.Metadata == nil {
		return e
	}
	copied := e
	copied.Metadata = maps.Clone(e.Metadata)
	return copied
}

// Handler consumes one event. A returned error (or panic) is captured in the
// publish report and logged; it never aborts the fan-out.
type Handler func(ctx context.Context, event Event) error

// Report summarizes one publish: how many handlers were invoked and which of
// them failed.
type Report struct {
	Handlers int
	Errors   []error
}

// Bus is an in-process event bus. Safe for concurrent use.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
	logger      *slog.Logger
}

// New creates an empty bus.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{subscribers: make(map[string][]Handler), logger: logger}
}

// Subscribe registers a handler for an event type. Multiple handlers may
// subscribe to the same type; all of them are invoked on publish.
func (b *Bus) Subscribe(eventType string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], h)
}

// Publish dispatches the event to every handler subscribed to its type at
// call time and returns once all of them have settled. Subscribers added
// during the fan-out are not notified for this event.
func (b *Bus) Publish(ctx context.Context, event Event) Report {
	b.mu.RLock()
	snapshot := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	report := Report{Handlers: len(snapshot)}
	if len(snapshot) == 0 {
		return report
	}

	var wg sync.WaitGroup
	var reportMu sync.Mutex
	for i, h := range snapshot {
		wg.Add(1)
		go func(i int, h Handler) {
			defer wg.Done()
			if err := b.invoke(ctx, h, event.clone()); err != nil {
				b.logger.Warn("event handler failed",
					"event_type", event.Type,
					"handler", i,
					"error", err,
				)
				reportMu.Lock()
				report.Errors = append(report.Errors, err)
				reportMu.Unlock()
			}
		}(i, h)
	}
	wg.Wait()
	return report
}

// invoke runs one handler with panic capture.
func (b *Bus) invoke(ctx context.Context, h Handler, event Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return h(ctx, event)
}
