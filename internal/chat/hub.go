// Package chat owns the realtime message path: a central hub goroutine
// that registers event stream clients per conversation, persists
// incoming messages, hands them to the broker, and fans broker
// deliveries back out.
package chat

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/lechange/lechange/internal/broker"
	"github.com/lechange/lechange/internal/database"
	"github.com/lechange/lechange/internal/metrics"
	"github.com/lechange/lechange/internal/model"
)

type sanitizer interface {
	Sanitize(s string) string
	SanitizeBytes(p []byte) []byte
}

// Notifier is told about each newly persisted message so it can create
// unread notifications for the offline participants.
type Notifier interface {
	MessageCreated(ctx context.Context, msg model.Message)
}

type Registration struct {
	Client *Client
	Done   chan struct{}
}

// Hub serializes all client-map access through its Run loop.
type Hub struct {
	db        *database.Queries
	publisher *broker.Publisher
	notifier  Notifier
	sanitizer sanitizer

	// conversation ID -> client ID -> client
	clients map[uuid.UUID]map[uuid.UUID]*Client

	Register   chan Registration
	Unregister chan *Client
	ClientMsg  chan model.Message
	BrokerMsg  chan model.Message

	done chan struct{}
}

// NewHub returns a new instance of Hub. publisher may be nil in tests;
// every publish then takes the in-process path.
func NewHub(db *database.Queries, publisher *broker.Publisher, notifier Notifier) *Hub {
	return &Hub{
		db:         db,
		publisher:  publisher,
		notifier:   notifier,
		sanitizer:  bluemonday.StrictPolicy(),
		clients:    make(map[uuid.UUID]map[uuid.UUID]*Client),
		Register:   make(chan Registration),
		Unregister: make(chan *Client),
		ClientMsg:  make(chan model.Message, 1024),
		BrokerMsg:  make(chan model.Message, 1024),
		done:       make(chan struct{}),
	}
}

// Done is closed when Run returns. Handlers select on it so that
// register/unregister sends never block on a stopped hub.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Run manages incoming and outgoing hub traffic until ctx is cancelled.
// stream may be nil when the broker is disabled; fan-out then happens
// purely in process.
func (h *Hub) Run(ctx context.Context, stream jetstream.Stream) {
	defer close(h.done)

	if stream != nil {
		if err := broker.Subscriber(ctx, stream, h.BrokerMsg); err != nil {
			log.Printf("hub: failed to subscribe to broker: %v", err)
		}
	}

	for {
		select {
		case reg := <-h.Register:
			c := reg.Client
			conv, ok := h.clients[c.ConversationID]
			if !ok {
				conv = make(map[uuid.UUID]*Client)
				h.clients[c.ConversationID] = conv
			}
			conv[c.ID] = c
			metrics.SSEClients.Inc()
			close(reg.Done)

		case c := <-h.Unregister:
			if conv, ok := h.clients[c.ConversationID]; ok {
				if _, ok := conv[c.ID]; ok {
					delete(conv, c.ID)
					close(c.MessageCh)
					metrics.SSEClients.Dec()
				}
				if len(conv) == 0 {
					delete(h.clients, c.ConversationID)
				}
			}

		case msg := <-h.ClientMsg:
			h.handleClientMsg(ctx, msg)

		case msg := <-h.BrokerMsg:
			h.fanout(msg)

		case <-ctx.Done():
			log.Printf("hub: context cancelled: %v", ctx.Err())
			return
		}
	}
}

func (h *Hub) handleClientMsg(ctx context.Context, msg model.Message) {
	msg.Content = h.sanitizer.Sanitize(msg.Content)

	created, fresh, err := h.db.CreateMessage(ctx, database.CreateMessageParams{
		MessageID:      msg.MessageID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		ClientToken:    msg.ClientToken,
	})
	if err != nil {
		log.Printf("hub: failed to store message: %v", err)
		return
	}
	if !fresh {
		// Replayed client token: the original already went out.
		return
	}

	created.Sender = msg.Sender
	metrics.MessagesPublished.Inc()

	if h.notifier != nil {
		h.notifier.MessageCreated(ctx, created)
	}

	if h.publisher == nil {
		h.fanout(created)
		return
	}

	if err := h.publisher.PublishMessage(ctx, created); err != nil {
		if broker.ErrBreakerOpen(err) {
			// Broker down: keep this instance's clients live.
			metrics.BrokerFallbacks.Inc()
			h.fanout(created)
			return
		}
		log.Printf("hub: %v", err)
	}
}

// fanout delivers only to clients of the message's conversation. Sends
// never block; a slow client loses the message and recovers on reload.
func (h *Hub) fanout(msg model.Message) {
	for _, c := range h.clients[msg.ConversationID] {
		select {
		case c.MessageCh <- msg:
		default:
			metrics.FanoutDropped.Inc()
			log.Printf("hub: skipping delivery to slow client %s", c.ID)
		}
	}
}
