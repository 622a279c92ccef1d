package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubSubscribePublish(t *testing.T) {
	hub := NewHub()

	ch, unsubscribe := hub.Subscribe(7)
	defer unsubscribe()

	hub.Publish(Event{Type: EventMessageUpdate, WorkshopID: 7, Payload: "hello"})

	select {
	case ev := <-ch:
		assert.Equal(t, EventMessageUpdate, ev.Type)
		assert.Equal(t, uint(7), ev.WorkshopID)
	case <-time.After(time.Second):
		t.Fatal("expected event was not delivered")
	}
}

func TestHubIsolatesWorkshops(t *testing.T) {
	hub := NewHub()

	ch, unsubscribe := hub.Subscribe(7)
	defer unsubscribe()

	hub.Publish(Event{Type: EventMessageUpdate, WorkshopID: 8})

	select {
	case <-ch:
		t.Fatal("event for another workshop must not be delivered")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()

	ch, unsubscribe := hub.Subscribe(7)
	unsubscribe()

	_, open := <-ch
	require.False(t, open)

	// Publishing after unsubscribe must not panic
	hub.Publish(Event{Type: EventMessageUpdate, WorkshopID: 7})

	// Double unsubscribe is a no-op
	unsubscribe()
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewHub()

	ch, unsubscribe := hub.Subscribe(7)
	defer unsubscribe()

	for i := 0; i < 64; i++ {
		hub.Publish(Event{Type: EventMessageUpdate, WorkshopID: 7, Payload: i})
	}
	// Buffer is 16; the rest are dropped, not blocking the publisher
	assert.Equal(t, 16, len(ch))
}
