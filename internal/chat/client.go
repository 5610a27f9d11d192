package chat

import (
	"github.com/google/uuid"

	"github.com/lechange/lechange/internal/model"
)

// Client is one open event stream connection, scoped to a single
// conversation. A user with two tabs open is two clients.
type Client struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	ConversationID uuid.UUID
	MessageCh      chan model.Message
}

// NewClient returns a new instance of Client.
func NewClient(userID, conversationID uuid.UUID) *Client {
	return &Client{
		ID:             uuid.New(),
		UserID:         userID,
		ConversationID: conversationID,
		MessageCh:      make(chan model.Message, 64),
	}
}
