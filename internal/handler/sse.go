package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lechange/lechange/internal/auth"
	"github.com/lechange/lechange/internal/chat"
)

// sseEvent is the wire shape of one event stream payload.
type sseEvent struct {
	Type    string `json:"type"`
	Message any    `json:"message,omitempty"`
}

// participantChecker is the slice of database.Queries the stream
// handler needs.
type participantChecker interface {
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
}

// StreamSSE is the per-conversation event stream: one "connected" event
// at open, then one "new_message" event per broker delivery for the
// conversation. No history replay, no redelivery across disconnects.
func StreamSSE(hub *chat.Hub, db participantChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			log.Printf("%v", err)
			http.Error(w, "Unauthorized.", http.StatusUnauthorized)
			return
		}

		conversationID, err := uuid.Parse(r.URL.Query().Get("conversation"))
		if err != nil {
			http.Error(w, "Invalid conversation.", http.StatusBadRequest)
			return
		}

		// Fail closed: non-participants (and lookup errors) get nothing.
		ok, err := db.IsParticipant(ctx, conversationID, userID)
		if err != nil || !ok {
			if err != nil {
				log.Printf("participant check failed: %v", err)
			}
			http.Error(w, "Forbidden.", http.StatusForbidden)
			return
		}

		c := chat.NewClient(userID, conversationID)
		reg := chat.Registration{
			Client: c,
			Done:   make(chan struct{}),
		}
		select {
		case hub.Register <- reg:
		case <-hub.Done():
			http.Error(w, "Shutting down.", http.StatusServiceUnavailable)
			return
		case <-ctx.Done():
			return
		}
		// The hub closes reg.Done in the same loop iteration that accepted
		// the registration, unless Run returns first.
		select {
		case <-reg.Done:
		case <-hub.Done():
			http.Error(w, "Shutting down.", http.StatusServiceUnavailable)
			return
		}
		defer func() {
			select {
			case hub.Unregister <- c:
			case <-hub.Done():
			}
		}()

		w.Header().Set("X-Accel-Buffering", "no")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)

		rc := http.NewResponseController(w)

		if err := writeEvent(w, "connected", sseEvent{Type: "connected"}); err != nil {
			log.Printf("%v", err)
			return
		}
		if err := rc.Flush(); err != nil {
			log.Printf("could not flush buffer to writer: %+v", err)
			return
		}

		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-c.MessageCh:
				if !ok {
					return
				}

				err := writeEvent(w, "new_message", sseEvent{Type: "new_message", Message: message})
				if err != nil {
					log.Printf("%v", err)
					return
				}
				if err := rc.Flush(); err != nil {
					log.Printf("could not flush buffer to writer: %+v", err)
					return
				}

			case <-ticker.C:
				// Heartbeat comment keeps proxies from reaping the stream.
				fmt.Fprint(w, ": \n\n") //nolint:errcheck
				if err := rc.Flush(); err != nil {
					log.Printf("could not flush buffer to writer: %+v", err)
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, payload sseEvent) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("handler/sse: failed to encode event: %w", err)
	}

	fmt.Fprintf(w, "event: %s\n", name)  //nolint:errcheck
	fmt.Fprintf(w, "data: %s\n\n", data) //nolint:errcheck
	return nil
}
