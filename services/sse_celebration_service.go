package services

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// CelebrationStream serves the live celebration feed over SSE.
type CelebrationStream struct {
	Store CelebrationStore
}

func NewCelebrationStream(store CelebrationStore) *CelebrationStream {
	return &CelebrationStream{Store: store}
}

// StreamCelebrationsSSE streams celebration events ("points awarded", "badge
// unlocked", "level up") for the authenticated user as they are enqueued.
func (s *CelebrationStream) StreamCelebrationsSSE(c *fiber.Ctx) error {
	ownerID := c.Locals("user_id").(string)

	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		// Only events created after connect are celebrated; history screens
		// use the regular progress endpoints.
		cursor := time.Now()

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		w.Flush()

		for {
			select {
			case <-ticker.C:
				events, err := s.Store.CelebrationsSince(ownerID, cursor)
				if err != nil {
					log.Printf("SSE query error for user %s: %v", ownerID, err)
					continue
				}
				if len(events) == 0 {
					continue
				}

				cursor = events[len(events)-1].CreatedAt

				for _, ev := range events {
					payload, _ := json.Marshal(ev)
					fmt.Fprintf(w,
						"event: %s\ndata: %s\n\n",
						ev.Kind, payload,
					)
				}

				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}

			case <-c.Context().Done():
				// Client closed connection
				return
			}
		}
	})

	return nil
}
