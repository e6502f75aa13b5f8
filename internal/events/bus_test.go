package events

import (
	"sync"
	"testing"

	"github.com/aristath/bankmirror/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ domain.EventPublisher = (*Bus)(nil)

func TestBus_FanOut(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	a, unsubA := bus.Subscribe()
	defer unsubA()
	b, unsubB := bus.Subscribe()
	defer unsubB()

	bus.Publish(string(SyncStarted), map[string]any{"job": "balance_refresh"})

	for _, ch := range []<-chan Event{a, b} {
		e := <-ch
		assert.Equal(t, SyncStarted, e.Type)
		assert.Equal(t, "balance_refresh", e.Data["job"])
		assert.False(t, e.Timestamp.IsZero())
	}
}

func TestBus_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	ch, unsub := bus.Subscribe()
	defer unsub()

	for i := 0; i < DefaultBufferSize+10; i++ {
		bus.Publish(string(BalancesRefreshed), nil)
	}
	assert.Len(t, ch, DefaultBufferSize)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	ch, unsub := bus.Subscribe()
	require.Equal(t, 1, bus.SubscriberCount())

	unsub()
	unsub()
	assert.Equal(t, 0, bus.SubscriberCount())

	_, open := <-ch
	assert.False(t, open)

	bus.Publish(string(SyncFailed), nil)
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	ch, unsub := bus.Subscribe()
	defer unsub()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Emit(Event{Type: SyncSucceeded})
		}()
	}
	wg.Wait()
	assert.Len(t, ch, 10)
}
