package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	viewNotif "github.com/lechange/lechange/components/notif"
	"github.com/lechange/lechange/internal/auth"
	"github.com/lechange/lechange/internal/bus"
	"github.com/lechange/lechange/internal/database"
	"github.com/lechange/lechange/internal/notify"
)

// ServeUnreadCount backs the badge poll: {"count": n}.
func ServeUnreadCount(svc *notify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			http.Error(w, "Unauthorized.", http.StatusUnauthorized)
			return
		}

		count, err := svc.UnreadCount(ctx, userID)
		if err != nil {
			log.Printf("failed to count notifications: %v", err)
			http.Error(w, "Database error.", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"count": count}) //nolint:errcheck
	}
}

// StreamNotifications is the badge event stream: one "connected" event
// at open, then a "poke" event whenever the user's unread set changes,
// so open tabs refetch the count without waiting for the next poll.
func StreamNotifications(b *bus.Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			http.Error(w, "Unauthorized.", http.StatusUnauthorized)
			return
		}

		pokes, unsub := b.Subscribe(notify.Topic(userID), 16)
		defer unsub()

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
			case <-pokes:
				if err := writeEvent(w, "poke", sseEvent{Type: "poke"}); err != nil {
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

// ServeNotifications renders the notification inbox.
func ServeNotifications(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			log.Printf("%v", err)
			return
		}

		notifications, err := db.ListNotifications(ctx, userID, 50)
		if err != nil {
			log.Printf("failed to list notifications: %v", err)
			http.Error(w, "Database error.", http.StatusInternalServerError)
			return
		}

		if err := viewNotif.Inbox(notifications).Render(ctx, w); err != nil {
			log.Printf("failed to render component: %v", err)
		}
	}
}

// MarkNotificationsRead clears the badge.
func MarkNotificationsRead(svc *notify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			http.Error(w, "Unauthorized.", http.StatusUnauthorized)
			return
		}

		if err := svc.MarkAllRead(ctx, userID); err != nil {
			log.Printf("failed to mark notifications read: %v", err)
			http.Error(w, "Database error.", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
