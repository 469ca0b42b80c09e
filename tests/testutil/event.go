package testutil

import (
	"context"
	"sync"

	"github.com/pontos/backend/internal/domain/shared"
)

// RecordingHandler is a shared.EventHandler that keeps every event it sees.
type RecordingHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
}

// NewRecordingHandler creates a handler for the given event types, or all events when none are given.
func NewRecordingHandler(eventTypes ...string) *RecordingHandler {
	return &RecordingHandler{eventTypes: eventTypes}
}

// EventTypes returns the subscribed event types
func (h *RecordingHandler) EventTypes() []string {
	return h.eventTypes
}

// Handle records the event
func (h *RecordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return nil
}

// Count returns how many events of eventType were handled. An empty type counts all.
func (h *RecordingHandler) Count(eventType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if eventType == "" {
		return len(h.handled)
	}
	n := 0
	for _, e := range h.handled {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}
