// Package hooks lets callers observe the stages of a report run.
package hooks

import (
	"context"
	"sort"
	"sync"

	"github.com/soyeahso/d20stats/internal/logging"
)

// Event names a pipeline stage.
type Event string

// Events emitted by a report run, in order.
const (
	EventRecordsLoaded      Event = "records_loaded"
	EventMessagesClassified Event = "messages_classified"
	EventSessionsSegmented  Event = "sessions_segmented"
	EventReportBuilt        Event = "report_built"
	EventReportEmitted      Event = "report_emitted"
	EventRunFailed          Event = "run_failed"
)

// AllEvents lists all known hook event names.
var AllEvents = []Event{
	EventRecordsLoaded,
	EventMessagesClassified,
	EventSessionsSegmented,
	EventReportBuilt,
	EventReportEmitted,
	EventRunFailed,
}

// Payload carries stage data to hook handlers.
type Payload struct {
	Event Event          `json:"event"`
	RunID string         `json:"run_id"`
	Data  map[string]any `json:"data,omitempty"`
}

// Handler observes an event. A returned error is logged and does not stop the run.
type Handler func(ctx context.Context, p Payload) error

// Manager holds hook registrations and dispatches events.
type Manager struct {
	mu       sync.RWMutex
	handlers map[Event][]namedHandler
	log      *logging.Logger
}

type namedHandler struct {
	name    string
	handler Handler
}

// NewManager creates a hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[Event][]namedHandler),
		log:      log.Sub("hooks"),
	}
}

// On registers a named handler for an event.
func (m *Manager) On(event Event, name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], namedHandler{name: name, handler: handler})
	m.log.Debug().Str("event", string(event)).Str("handler", name).Msg("hook registered")
}

// OnAll registers the same handler for every event.
func (m *Manager) OnAll(name string, handler Handler) {
	for _, e := range AllEvents {
		m.On(e, name, handler)
	}
}

// Off removes all handlers with the given name from the event.
func (m *Manager) Off(event Event, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.handlers[event][:0:0]
	for _, h := range m.handlers[event] {
		if h.name != name {
			kept = append(kept, h)
		}
	}
	m.handlers[event] = kept
}

// Emit calls the event's handlers in registration order and returns how many failed.
func (m *Manager) Emit(ctx context.Context, p Payload) int {
	m.mu.RLock()
	handlers := append([]namedHandler(nil), m.handlers[p.Event]...)
	m.mu.RUnlock()

	failed := 0
	for _, h := range handlers {
		if err := h.handler(ctx, p); err != nil {
			failed++
			m.log.Warn().
				Err(err).
				Str("event", string(p.Event)).
				Str("handler", h.name).
				Str("run", p.RunID).
				Msg("hook handler error")
		}
	}
	return failed
}

// Count returns the number of handlers registered for an event.
func (m *Manager) Count(event Event) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[event])
}

// Events returns the events with at least one handler, sorted by name.
func (m *Manager) Events() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]Event, 0, len(m.handlers))
	for event, handlers := range m.handlers {
		if len(handlers) > 0 {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })
	return events
}
