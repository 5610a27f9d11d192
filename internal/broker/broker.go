// Package broker moves chat messages and notification pokes through
// NATS JetStream so that every server instance sees every event.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sony/gobreaker"

	"github.com/lechange/lechange/internal/model"
)

var (
	StreamName = "LECHANGE"

	// One subject per conversation; the hub consumes the wildcard.
	SubjectConversations = StreamName + ".conversation.>"
	// One subject per user for notification pokes.
	SubjectNotifications = StreamName + ".notify.>"
)

// ConversationSubject returns the publish subject for a conversation.
func ConversationSubject(conversationID uuid.UUID) string {
	return StreamName + ".conversation." + conversationID.String()
}

// NotifySubject returns the publish subject for a user's notifications.
func NotifySubject(userID uuid.UUID) string {
	return StreamName + ".notify." + userID.String()
}

// UserFromNotifySubject extracts the user ID a notify subject addresses.
func UserFromNotifySubject(subject string) (uuid.UUID, error) {
	rawID, ok := strings.CutPrefix(subject, StreamName+".notify.")
	if !ok {
		return uuid.Nil, fmt.Errorf("broker: not a notify subject: %q", subject)
	}
	return uuid.Parse(rawID)
}

// Publisher wraps JetStream publishes in a circuit breaker. When NATS is
// down the breaker opens and callers fall back to in-process fan-out.
type Publisher struct {
	js      jetstream.JetStream
	breaker *gobreaker.CircuitBreaker
}

func NewPublisher(js jetstream.JetStream) *Publisher {
	return &Publisher{
		js: js,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "jetstream-publish",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Printf("broker: breaker %s: %s -> %s", name, from, to)
			},
		}),
	}
}

// ErrBreakerOpen reports whether err came from an open breaker rather
// than the broker itself.
func ErrBreakerOpen(err error) bool {
	return err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests
}

// PublishMessage publishes a chat message to its conversation subject.
func (p *Publisher) PublishMessage(ctx context.Context, msg model.Message) error {
	if p.js == nil {
		return fmt.Errorf("broker: jetstream interface is nil")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("broker: could not encode payload to JSON: %w", err)
	}

	subject := ConversationSubject(msg.ConversationID)
	_, err = p.breaker.Execute(func() (any, error) {
		return p.js.Publish(ctx, subject, payload,
			jetstream.WithMsgID(msg.MessageID.String()))
	})
	if err != nil {
		return fmt.Errorf("broker: failed to publish to [%s]: %w", subject, err)
	}
	return nil
}

// PublishNotify pokes a user's notification subject. Best effort; the
// badge also polls.
func (p *Publisher) PublishNotify(ctx context.Context, userID uuid.UUID) error {
	if p.js == nil {
		return fmt.Errorf("broker: jetstream interface is nil")
	}

	_, err := p.breaker.Execute(func() (any, error) {
		return p.js.Publish(ctx, NotifySubject(userID), []byte(`{"kind":"poke"}`))
	})
	if err != nil {
		return fmt.Errorf("broker: failed to publish notify poke: %w", err)
	}
	return nil
}

// Subscriber consumes the conversation wildcard and forwards decoded
// messages into receiveMsg until ctx is cancelled.
func Subscriber(ctx context.Context, stream jetstream.Stream, receiveMsg chan model.Message) error {
	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: SubjectConversations,
	})
	if err != nil {
		return fmt.Errorf("broker: failed to create or update consumer: %w", err)
	}

	consumeHandler := func(msg jetstream.Msg) {
		var payload model.Message

		if err := json.Unmarshal(msg.Data(), &payload); err != nil {
			msg.Term()
			log.Printf("broker: could not decode payload: %v", err)
			return
		}

		// Conversation ID travels in the subject, not the JSON body.
		rawID := strings.TrimPrefix(msg.Subject(), StreamName+".conversation.")
		if convID, err := uuid.Parse(rawID); err == nil {
			payload.ConversationID = convID
		}

		msg.Ack()

		select {
		case receiveMsg <- payload:
		case <-ctx.Done():
		}
	}

	optErrHandler := jetstream.ConsumeErrHandler(func(cc jetstream.ConsumeContext, err error) {
		log.Printf("broker: consumer error: %v", err)
	})

	consumeCtx, err := consumer.Consume(consumeHandler, optErrHandler)
	if err != nil {
		return fmt.Errorf("broker: failed to start consuming messages: %w", err)
	}

	go func() {
		<-ctx.Done()
		consumeCtx.Drain()
	}()

	return nil
}

// NotifySubscriber consumes the notify wildcard and forwards the poked
// user IDs into pokes until ctx is cancelled. Pokes from other
// instances keep this instance's badge streams fresh.
func NotifySubscriber(ctx context.Context, stream jetstream.Stream, pokes chan uuid.UUID) error {
	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: SubjectNotifications,
	})
	if err != nil {
		return fmt.Errorf("broker: failed to create or update consumer: %w", err)
	}

	consumeHandler := func(msg jetstream.Msg) {
		userID, err := UserFromNotifySubject(msg.Subject())
		if err != nil {
			msg.Term()
			log.Printf("broker: %v", err)
			return
		}

		msg.Ack()

		select {
		case pokes <- userID:
		case <-ctx.Done():
		}
	}

	optErrHandler := jetstream.ConsumeErrHandler(func(cc jetstream.ConsumeContext, err error) {
		log.Printf("broker: consumer error: %v", err)
	})

	consumeCtx, err := consumer.Consume(consumeHandler, optErrHandler)
	if err != nil {
		return fmt.Errorf("broker: failed to start consuming pokes: %w", err)
	}

	go func() {
		<-ctx.Done()
		consumeCtx.Drain()
	}()

	return nil
}
