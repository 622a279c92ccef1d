// Package realtime is the in-process bridge between the dispatch worker and
// the websocket feed: the worker publishes message and campaign upserts, the
// feed forwards them to subscribed dashboard clients keyed by workshop.
package realtime

import "sync"

// Event types pushed to subscribers
const (
	EventMessageUpdate  = "message_update"
	EventCampaignUpdate = "campaign_update"
)

// Event is one pushed upsert. Payload is the full updated record so clients
// can apply it with a merge-by-id, or a merge-by-updated-at for aggregates.
type Event struct {
	Type       string      `json:"type"`
	WorkshopID uint        `json:"workshop_id"`
	Payload    interface{} `json:"payload"`
}

// Hub fans events out to per-workshop subscribers
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan Event]struct{}
}

// Default is the process-wide hub shared by the worker and the websocket feed
var Default = NewHub()

func NewHub() *Hub {
	return &Hub{subscribers: make(map[uint]map[chan Event]struct{})}
}

// Subscribe registers a listener for one workshop's events. The returned
// function unsubscribes and closes the channel.
func (h *Hub) Subscribe(workshopID uint) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	h.mu.Lock()
	if h.subscribers[workshopID] == nil {
		h.subscribers[workshopID] = make(map[chan Event]struct{})
	}
	h.subscribers[workshopID][ch] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		if subs, ok := h.subscribers[workshopID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(h.subscribers, workshopID)
			}
		}
		h.mu.Unlock()
	}
	return ch, unsubscribe
}

// Publish delivers the event to every subscriber of its workshop. A slow
// subscriber just misses the event; its next query re-syncs it, so dropping
// is safe.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers[event.WorkshopID] {
		select {
		case ch <- event:
		default:
		}
	}
}
