// Package events is the in-process pub/sub channel for session lifecycle
// changes. Screens subscribe to the current-profile value instead of
// reaching into shared mutable state.
package events

import (
	"sync"
	"time"

	"careline/internal/models"
)

// Session event types published by the session manager.
const (
	SessionLogin   = "session.login"
	SessionLogout  = "session.logout"
	SessionUpdated = "session.updated"
	SessionExpired = "session.expired" // 401-driven invalidation
)

// Event describes a session change for one Telegram user.
type Event struct {
	Type      string
	UserID    int64
	User      *models.User // nil for logout/expired
	CreatedAt time.Time
}

// Handler reacts to an event. Handlers run synchronously on the
// publisher's goroutine.
type Handler func(event Event)

// Bus provides in-process pub/sub for session events.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		handler(event)
	}
}
