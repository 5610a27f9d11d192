package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lechange/lechange/internal/auth"
	"github.com/lechange/lechange/internal/chat"
	"github.com/lechange/lechange/internal/model"
)

// streamRecorder is a race-safe ResponseWriter for handlers that write
// from their own goroutine while the test inspects the body.
type streamRecorder struct {
	mu     sync.Mutex
	header http.Header
	code   int
	body   bytes.Buffer
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{header: make(http.Header)}
}

func (rec *streamRecorder) Header() http.Header {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.header
}

func (rec *streamRecorder) WriteHeader(code int) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.code == 0 {
		rec.code = code
	}
}

func (rec *streamRecorder) Write(p []byte) (int, error) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.code == 0 {
		rec.code = http.StatusOK
	}
	return rec.body.Write(p)
}

func (rec *streamRecorder) Flush() {}

func (rec *streamRecorder) snapshot() string {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.body.String()
}

func (rec *streamRecorder) status() int {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.code
}

// waitForBody polls the recorder until the body contains want.
func waitForBody(t *testing.T, rec *streamRecorder, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(rec.snapshot(), want) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("body never contained %q; got %q", want, rec.snapshot())
}

type fakeParticipants struct {
	ok  bool
	err error
}

func (f fakeParticipants) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	return f.ok, f.err
}

func sseRequest(ctx context.Context, userID, conversationID uuid.UUID) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/sse?conversation="+conversationID.String(), nil)
	return req.WithContext(context.WithValue(ctx, auth.UserIDKey, userID))
}

func TestStreamSSERejectsNonParticipant(t *testing.T) {
	hub := chat.NewHub(nil, nil, nil)
	handler := StreamSSE(hub, fakeParticipants{ok: false})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, sseRequest(context.Background(), uuid.New(), uuid.New()))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if strings.Contains(rec.Body.String(), "event:") {
		t.Errorf("non-participant received stream events: %q", rec.Body.String())
	}
}

func TestStreamSSERequiresUser(t *testing.T) {
	hub := chat.NewHub(nil, nil, nil)
	handler := StreamSSE(hub, fakeParticipants{ok: true})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sse?conversation="+uuid.New().String(), nil)
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestStreamSSEConnectedFirst(t *testing.T) {
	hub := chat.NewHub(nil, nil, nil)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx, nil)

	handler := StreamSSE(hub, fakeParticipants{ok: true})

	reqCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conversationID := uuid.New()
	rec := newStreamRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, sseRequest(reqCtx, uuid.New(), conversationID))
	}()

	waitForBody(t, rec, "event: connected")

	msg := model.Message{
		MessageID:      uuid.New(),
		ConversationID: conversationID,
		Content:        "hello",
		CreatedAt:      time.Now().UTC(),
	}
	hub.BrokerMsg <- msg
	waitForBody(t, rec, "event: new_message")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after request cancellation")
	}

	if got := rec.status(); got != http.StatusOK {
		t.Errorf("status = %d, want %d", got, http.StatusOK)
	}

	body := rec.snapshot()
	connected := strings.Index(body, "event: connected")
	newMessage := strings.Index(body, "event: new_message")
	if connected == -1 || newMessage == -1 || connected > newMessage {
		t.Errorf("connected event must precede message events; body = %q", body)
	}
	if !strings.Contains(body, msg.MessageID.String()) {
		t.Errorf("message payload missing from body %q", body)
	}
}

// The deferred unregister must not block when the hub loop has already
// returned, or the handler goroutine leaks during shutdown.
func TestStreamSSEReturnsAfterHubStops(t *testing.T) {
	hub := chat.NewHub(nil, nil, nil)
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx, nil)

	handler := StreamSSE(hub, fakeParticipants{ok: true})

	reqCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := newStreamRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, sseRequest(reqCtx, uuid.New(), uuid.New()))
	}()

	waitForBody(t, rec, "event: connected")

	stopHub()
	select {
	case <-hub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not signal shutdown")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler blocked on unregister after the hub stopped")
	}
}
