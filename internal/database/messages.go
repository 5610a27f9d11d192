package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lechange/lechange/internal/model"
)

type CreateMessageParams struct {
	MessageID      uuid.UUID
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Content        string
	// ClientToken dedupes optimistic resends; unique per conversation.
	ClientToken string
}

// CreateMessage inserts a message, or returns the previously inserted
// row when the same (conversation, client token) was already persisted.
// The bool result is false for such a replayed send.
func (q *Queries) CreateMessage(ctx context.Context, arg CreateMessageParams) (model.Message, bool, error) {
	var token *string
	if arg.ClientToken != "" {
		token = &arg.ClientToken
	}

	var m model.Message
	err := q.db.QueryRow(ctx, `
		INSERT INTO messages (message_id, conversation_id, sender_id, content, client_token, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (conversation_id, client_token) DO NOTHING
		RETURNING message_id, conversation_id, sender_id, content, coalesce(client_token, ''), created_at
	`, arg.MessageID, arg.ConversationID, arg.SenderID, arg.Content, token).
		Scan(&m.MessageID, &m.ConversationID, &m.SenderID, &m.Content, &m.ClientToken, &m.CreatedAt)
	if err == nil {
		return m, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Message{}, false, err
	}

	// Conflict path: hand back the original row.
	err = q.db.QueryRow(ctx, `
		SELECT message_id, conversation_id, sender_id, content, coalesce(client_token, ''), created_at
		FROM messages
		WHERE conversation_id = $1 AND client_token = $2
	`, arg.ConversationID, arg.ClientToken).
		Scan(&m.MessageID, &m.ConversationID, &m.SenderID, &m.Content, &m.ClientToken, &m.CreatedAt)
	if err != nil {
		return model.Message{}, false, fmt.Errorf("fetch deduplicated message: %w", err)
	}
	return m, false, nil
}

// ListMessages returns a page of a conversation's history, oldest first
// within the page, paginating backwards from the cursor (or from the
// newest message when the cursor is empty).
func (q *Queries) ListMessages(ctx context.Context, conversationID uuid.UUID, after string, limit int) ([]model.Message, string, error) {
	limit = clampLimit(limit)

	cur, err := DecodeCursor(after)
	if err != nil {
		return nil, "", fmt.Errorf("decode cursor: %w", err)
	}

	var curCreatedAt, curID any
	if cur != nil {
		curCreatedAt = cur.CreatedAt
		curID = cur.ID
	}

	rows, err := q.db.Query(ctx, `
		SELECT m.message_id, m.conversation_id, m.sender_id, m.content,
		       coalesce(m.client_token, ''), m.created_at,
		       u.user_id, u.username
		FROM messages m
		JOIN users u ON u.user_id = m.sender_id
		WHERE m.conversation_id = $1
		  AND (
		    $2::timestamptz IS NULL
		    OR m.created_at < $2
		    OR (m.created_at = $2 AND m.message_id < $3)
		  )
		ORDER BY m.created_at DESC, m.message_id DESC
		LIMIT $4
	`, conversationID, curCreatedAt, curID, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var page []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.MessageID, &m.ConversationID, &m.SenderID, &m.Content,
			&m.ClientToken, &m.CreatedAt, &m.Sender.UserID, &m.Sender.Username); err != nil {
			return nil, "", err
		}
		page = append(page, m)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var next string
	if len(page) == limit {
		oldest := page[len(page)-1]
		next = EncodeCursor(Cursor{CreatedAt: oldest.CreatedAt, ID: oldest.MessageID})
	}

	// Render order is oldest first.
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}
	return page, next, nil
}
