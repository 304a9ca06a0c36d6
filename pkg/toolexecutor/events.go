package toolexecutor

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Event types emitted by the catalog and the engine
const (
	EventToolRegistered = "tool_registered"
	EventToolExecuted   = "tool_executed"
	EventToolError      = "tool_error"

	// EventAll subscribes a handler to every event type
	EventAll = "*"
)

// Event is an observability notification
type Event struct {
	Type        string
	ToolName    string
	UserID      string
	ExecutionID string
	TraceID     string
	DurationMs  int64
	Success     bool
	ErrorKind   ErrorKind
	Result      *ExecutionResult // set for execution events
	Data        map[string]interface{}
}

// EventHandler is a function that handles engine events
type EventHandler func(event Event)

// EventBus fans events out to subscribers synchronously
type EventBus struct {
	handlers map[string][]EventHandler
	mu       sync.RWMutex
}

// NewEventBus creates an empty bus
func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[string][]EventHandler)}
}

// On registers a handler for an event type, or for all types with EventAll
func (b *EventBus) On(eventType string, handler EventHandler) {
	if b == nil || handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Off removes all handlers for the event type
func (b *EventBus) Off(eventType string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.handlers, eventType)
}

// Publish delivers the event to its subscribers. A panicking subscriber is
// logged and skipped.
func (b *EventBus) Publish(event Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.handlers[event.Type]...)
	handlers = append(handlers, b.handlers[EventAll]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		dispatch(handler, event)
	}
}

func dispatch(handler EventHandler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("event", event.Type).
				Str("tool", event.ToolName).
				Interface("panic", r).
				Msg("Event handler panicked")
		}
	}()
	handler(event)
}
