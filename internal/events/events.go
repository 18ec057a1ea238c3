// Package events is an in-process notification bus used to tell other
// components that workspace data changed.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Topics published when workspace data changes.
const (
	TeamMembersUpdated     = "team-members-updated"
	ServicesUpdated        = "services-updated"
	ProductsUpdated        = "products-updated"
	MembershipPlansUpdated = "membership-plans-updated"
	TimeslotsUpdated       = "timeslots-updated"
	AppointmentsUpdated    = "appointments-updated"
	BookingsUpdated        = "bookings-updated"
	SettingsUpdated        = "settings-updated"
	WorkflowsUpdated       = "workflows-updated"
)

// Event is a change notification. Detail is optional.
type Event struct {
	Type        string
	WorkspaceID string
	Detail      map[string]any
	CreatedAt   time.Time
}

// Handler reacts to an event.
type Handler func(event Event) error

// Bus provides in-process pub/sub.
type Bus struct {
	subscribers map[string][]Handler
	wildcard    []Handler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

// NewBus constructs an empty bus. logger may be nil.
func NewBus(logger *zerolog.Logger) *Bus {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "events").Logger()
	return &Bus{subscribers: make(map[string][]Handler), logger: &l}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wildcard = append(b.wildcard, handler)
}

// Publish notifies subscribers. Handlers run synchronously; failures are logged.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.wildcard...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil {
			b.logger.Warn().Err(err).
				Str("type", event.Type).
				Str("workspace_id", event.WorkspaceID).
				Msg("event handler failed")
		}
	}
}

// Notify publishes a bare event for a workspace.
func (b *Bus) Notify(eventType, workspaceID string) {
	b.Publish(Event{Type: eventType, WorkspaceID: workspaceID})
}
