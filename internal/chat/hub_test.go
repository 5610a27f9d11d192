package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lechange/lechange/internal/model"
)

func register(t *testing.T, h *Hub, c *Client) {
	t.Helper()
	reg := Registration{Client: c, Done: make(chan struct{})}
	h.Register <- reg
	select {
	case <-reg.Done:
	case <-time.After(time.Second):
		t.Fatal("hub did not acknowledge registration")
	}
}

func TestHubFanoutScopedToConversation(t *testing.T) {
	h := NewHub(nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx, nil)

	convA := uuid.New()
	convB := uuid.New()

	a1 := NewClient(uuid.New(), convA)
	a2 := NewClient(uuid.New(), convA)
	b1 := NewClient(uuid.New(), convB)
	register(t, h, a1)
	register(t, h, a2)
	register(t, h, b1)

	msg := model.Message{
		MessageID:      uuid.New(),
		ConversationID: convA,
		Content:        "hello",
		CreatedAt:      time.Now().UTC(),
	}
	h.BrokerMsg <- msg

	for _, c := range []*Client{a1, a2} {
		select {
		case got := <-c.MessageCh:
			if got.MessageID != msg.MessageID {
				t.Errorf("delivered message ID = %v, want %v", got.MessageID, msg.MessageID)
			}
		case <-time.After(time.Second):
			t.Fatal("conversation A client did not receive the message")
		}
	}

	select {
	case got := <-b1.MessageCh:
		t.Fatalf("conversation B client received foreign message: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesChannel(t *testing.T) {
	h := NewHub(nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx, nil)

	c := NewClient(uuid.New(), uuid.New())
	register(t, h, c)

	h.Unregister <- c

	select {
	case _, ok := <-c.MessageCh:
		if ok {
			t.Error("expected closed channel, got a message")
		}
	case <-time.After(time.Second):
		t.Fatal("MessageCh was not closed on unregister")
	}
}

func TestHubDoneClosesWhenRunReturns(t *testing.T) {
	h := NewHub(nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx, nil)

	select {
	case <-h.Done():
		t.Fatal("Done closed while the hub was still running")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("Done was not closed after Run returned")
	}
}

// A client with a full channel must not block the hub loop.
func TestHubSlowClientDoesNotBlock(t *testing.T) {
	h := NewHub(nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx, nil)

	conv := uuid.New()
	slow := &Client{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		ConversationID: conv,
		MessageCh:      make(chan model.Message, 1),
	}
	register(t, h, slow)

	for range 3 {
		h.BrokerMsg <- model.Message{MessageID: uuid.New(), ConversationID: conv}
	}

	// The loop is still alive if it can process another registration.
	register(t, h, NewClient(uuid.New(), conv))

	if got := len(slow.MessageCh); got != 1 {
		t.Errorf("slow client buffered %d messages, want 1 (rest dropped)", got)
	}
}
