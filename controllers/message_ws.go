package controller

import (
	"log"
	"strconv"

	"wanotify/realtime"

	"github.com/gofiber/websocket/v2"
)

// HandleWorkshopFeedWS streams message and campaign upserts for one workshop
// to a connected dashboard client. The client applies each payload with a
// merge-by-id; a dropped event is recovered by its next full query.
func HandleWorkshopFeedWS(c *websocket.Conn) {
	defer c.Close()

	workshopID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		log.Printf("Invalid workshop id on feed: %v", err)
		return
	}

	events, unsubscribe := realtime.Default.Subscribe(uint(workshopID))
	defer unsubscribe()

	// Reader goroutine exists only to notice the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := c.WriteJSON(event); err != nil {
				log.Printf("Error writing feed event: %v", err)
				return
			}
		}
	}
}
