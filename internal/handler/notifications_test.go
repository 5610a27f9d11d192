package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lechange/lechange/internal/auth"
	"github.com/lechange/lechange/internal/bus"
	"github.com/lechange/lechange/internal/notify"
)

func TestStreamNotificationsPokesOnBusEvent(t *testing.T) {
	b := bus.New()
	handler := StreamNotifications(b)

	userID := uuid.New()
	reqCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/notifications/stream", nil)
	req = req.WithContext(context.WithValue(reqCtx, auth.UserIDKey, userID))

	rec := newStreamRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, req)
	}()

	waitForBody(t, rec, "event: connected")

	// A poke for somebody else must not reach this stream.
	b.Publish(bus.Event{Topic: notify.Topic(uuid.New())})
	b.Publish(bus.Event{Topic: notify.Topic(userID)})
	waitForBody(t, rec, "event: poke")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after request cancellation")
	}

	if got := strings.Count(rec.snapshot(), "event: poke"); got != 1 {
		t.Errorf("poke events = %d, want 1 (foreign topics filtered)", got)
	}
}

func TestStreamNotificationsRequiresUser(t *testing.T) {
	handler := StreamNotifications(bus.New())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications/stream", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
