// Package notify creates and serves per-user notifications and keeps
// the unread badge fresh: rows in the notifications table, an
// in-process bus poke for anything streaming on this instance, and a
// broker poke for the other instances.
package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/lechange/lechange/internal/broker"
	"github.com/lechange/lechange/internal/bus"
	"github.com/lechange/lechange/internal/database"
	"github.com/lechange/lechange/internal/metrics"
	"github.com/lechange/lechange/internal/model"
)

// Topic returns the bus topic carrying invalidations for a user.
func Topic(userID uuid.UUID) string {
	return "notifications." + userID.String()
}

type Service struct {
	db        *database.Queries
	bus       *bus.Bus
	publisher *broker.Publisher
}

// NewService returns a notification service. publisher may be nil; the
// broker poke is then skipped.
func NewService(db *database.Queries, b *bus.Bus, publisher *broker.Publisher) *Service {
	return &Service{db: db, bus: b, publisher: publisher}
}

func (s *Service) create(ctx context.Context, userID uuid.UUID, kind model.NotificationKind, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("notify: failed to encode payload: %v", err)
		return
	}

	err = s.db.CreateNotification(ctx, database.CreateNotificationParams{
		NotificationID: uuid.New(),
		UserID:         userID,
		Kind:           kind,
		Payload:        raw,
	})
	if err != nil {
		log.Printf("notify: failed to create notification: %v", err)
		return
	}
	metrics.NotificationsCreated.WithLabelValues(string(kind)).Inc()

	// Poke local subscribers and, best effort, the other instances.
	s.bus.Publish(bus.Event{Topic: Topic(userID)})
	if s.publisher != nil {
		if err := s.publisher.PublishNotify(ctx, userID); err != nil {
			log.Printf("notify: %v", err)
		}
	}
}

// RunBrokerRelay forwards notification pokes published by other
// instances into the local bus, so badge streams on this instance see
// them. Blocks until ctx is cancelled.
func (s *Service) RunBrokerRelay(ctx context.Context, stream jetstream.Stream) {
	pokes := make(chan uuid.UUID, 64)
	if err := broker.NotifySubscriber(ctx, stream, pokes); err != nil {
		log.Printf("notify: failed to subscribe to broker pokes: %v", err)
		return
	}

	for {
		select {
		case userID := <-pokes:
			s.bus.Publish(bus.Event{Topic: Topic(userID)})
		case <-ctx.Done():
			return
		}
	}
}

// MessageCreated notifies every participant of the message's
// conversation except the sender. Implements chat.Notifier.
func (s *Service) MessageCreated(ctx context.Context, msg model.Message) {
	participants, err := s.db.ListParticipants(ctx, msg.ConversationID)
	if err != nil {
		log.Printf("notify: failed to list participants: %v", err)
		return
	}

	for _, userID := range participants {
		if userID == msg.SenderID {
			continue
		}
		s.create(ctx, userID, model.NotifMessage, map[string]string{
			"conversationId": msg.ConversationID.String(),
			"sender":         msg.Sender.Username,
		})
	}
}

// AnswerCreated notifies the question author, unless they answered
// their own question.
func (s *Service) AnswerCreated(ctx context.Context, question model.Question, answer model.Answer) {
	if question.AuthorID == answer.AuthorID {
		return
	}
	s.create(ctx, question.AuthorID, model.NotifAnswer, map[string]string{
		"questionId": question.QuestionID.String(),
		"title":      question.Title,
	})
}

// ReportClosed notifies the reporter about the outcome.
func (s *Service) ReportClosed(ctx context.Context, report model.Report) {
	s.create(ctx, report.ReporterID, model.NotifReportResolved, map[string]string{
		"reportId": report.ReportID.String(),
		"status":   string(report.Status),
	})
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.db.CountUnreadNotifications(ctx, userID)
}

// MarkAllRead clears the badge and pokes subscribers so other tabs
// refetch.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.db.MarkNotificationsRead(ctx, userID); err != nil {
		return err
	}
	s.bus.Publish(bus.Event{Topic: Topic(userID)})
	return nil
}
