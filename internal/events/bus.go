package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBufferSize is the per-subscriber channel capacity.
const DefaultBufferSize = 100

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// whose buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	log    zerolog.Logger
}

// NewBus creates an event bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subs: make(map[int]chan Event),
		log:  log.With().Str("component", "event_bus").Logger(),
	}
}

// Publish emits an event of eventType. It satisfies domain.EventPublisher.
func (b *Bus) Publish(eventType string, data map[string]any) {
	b.Emit(Event{Type: EventType(eventType), Timestamp: time.Now().UTC(), Data: data})
}

// Emit delivers e to every current subscriber.
func (b *Bus) Emit(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.log.Warn().
				Int("subscriber", id).
				Str("event_type", string(e.Type)).
				Msg("Subscriber buffer full, dropping event")
		}
	}
}

// Subscribe registers a subscriber. The returned function unsubscribes and
// closes the channel; calling it more than once is safe.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, DefaultBufferSize)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
