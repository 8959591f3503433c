package service

import (
	"sync"

	"go.uber.org/zap"

	"github.com/arielvz/portal-alumnos-api/internal/models"
)

// EventBus fans portal events (summary updates, session lock state) out
// to in-process subscribers. Publishing never blocks: a subscriber that
// cannot keep up loses events rather than stalling the publisher.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[int]chan models.Event
	nextID      int
	buffer      int
	logger      *zap.Logger
}

// NewEventBus constructs an event bus with the given per-subscriber
// channel buffer.
func NewEventBus(buffer int, logger *zap.Logger) *EventBus {
	if buffer <= 0 {
		buffer = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{
		subscribers: make(map[int]chan models.Event),
		buffer:      buffer,
		logger:      logger,
	}
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called to release the subscription; afterwards the channel is closed.
func (b *EventBus) Subscribe() (<-chan models.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan models.Event, b.buffer)
	b.subscribers[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(existing)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every current subscriber.
func (b *EventBus) Publish(event models.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.logger.Warn("event dropped for slow subscriber",
				zap.Int("subscriber", id),
				zap.String("event", string(event.Type)))
		}
	}
}

// SubscriberCount reports the number of live subscriptions.
func (b *EventBus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
