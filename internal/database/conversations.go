package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lechange/lechange/internal/model"
)

// IsParticipant is the authorization boundary for the event stream and
// everything else that touches a conversation. Fail closed on error.
func (q *Queries) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	var ok bool
	err := q.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM conversation_participants
			WHERE conversation_id = $1 AND user_id = $2
		)
	`, conversationID, userID).Scan(&ok)
	return ok, err
}

// FindOrCreateConversation returns the existing two-party conversation
// for (a, b, listing) or creates one. listingID may be uuid.Nil for a
// direct conversation.
func (q *Queries) FindOrCreateConversation(ctx context.Context, a, b uuid.UUID, listingID uuid.UUID) (model.Conversation, error) {
	tx, err := q.db.Begin(ctx)
	if err != nil {
		return model.Conversation{}, err
	}
	defer tx.Rollback(ctx)

	var listing *uuid.UUID
	if listingID != (uuid.UUID{}) {
		listing = &listingID
	}

	var conv model.Conversation
	err = tx.QueryRow(ctx, `
		SELECT c.conversation_id, c.listing_id, c.created_at
		FROM conversations c
		JOIN conversation_participants pa ON pa.conversation_id = c.conversation_id AND pa.user_id = $1
		JOIN conversation_participants pb ON pb.conversation_id = c.conversation_id AND pb.user_id = $2
		WHERE c.listing_id IS NOT DISTINCT FROM $3
		LIMIT 1
	`, a, b, listing).Scan(&conv.ConversationID, &conv.ListingID, &conv.CreatedAt)
	if err == nil {
		return conv, tx.Commit(ctx)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Conversation{}, err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO conversations (conversation_id, listing_id, created_at)
		VALUES ($1, $2, now())
		RETURNING conversation_id, listing_id, created_at
	`, uuid.New(), listing).Scan(&conv.ConversationID, &conv.ListingID, &conv.CreatedAt)
	if err != nil {
		return model.Conversation{}, err
	}

	for _, userID := range []uuid.UUID{a, b} {
		if _, err := tx.Exec(ctx, `
			INSERT INTO conversation_participants (conversation_id, user_id, last_read_at)
			VALUES ($1, $2, now())
		`, conv.ConversationID, userID); err != nil {
			return model.Conversation{}, err
		}
	}

	return conv, tx.Commit(ctx)
}

// ListConversations returns the user's conversations with peer name,
// last message, and unread count, most recent activity first.
func (q *Queries) ListConversations(ctx context.Context, userID uuid.UUID) ([]model.Conversation, error) {
	rows, err := q.db.Query(ctx, `
		SELECT c.conversation_id, c.listing_id, c.created_at,
		       coalesce(l.title, ''),
		       peer.username,
		       coalesce((
		           SELECT m.content FROM messages m
		           WHERE m.conversation_id = c.conversation_id
		           ORDER BY m.created_at DESC, m.message_id DESC LIMIT 1
		       ), ''),
		       coalesce((
		           SELECT max(m.created_at) FROM messages m
		           WHERE m.conversation_id = c.conversation_id
		       ), c.created_at),
		       (
		           SELECT count(*) FROM messages m
		           WHERE m.conversation_id = c.conversation_id
		             AND m.sender_id <> $1
		             AND m.created_at > me.last_read_at
		       )
		FROM conversations c
		JOIN conversation_participants me ON me.conversation_id = c.conversation_id AND me.user_id = $1
		JOIN conversation_participants them ON them.conversation_id = c.conversation_id AND them.user_id <> $1
		JOIN users peer ON peer.user_id = them.user_id
		LEFT JOIN listings l ON l.listing_id = c.listing_id
		ORDER BY 7 DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Conversation
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(&c.ConversationID, &c.ListingID, &c.CreatedAt,
			&c.ListingTitle, &c.PeerName, &c.LastMessage, &c.LastActivity,
			&c.UnreadCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListParticipants returns the user IDs in a conversation.
func (q *Queries) ListParticipants(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, `
		SELECT user_id FROM conversation_participants WHERE conversation_id = $1
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// TouchLastRead advances the reader's unread watermark.
func (q *Queries) TouchLastRead(ctx context.Context, conversationID, userID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `
		UPDATE conversation_participants SET last_read_at = now()
		WHERE conversation_id = $1 AND user_id = $2
	`, conversationID, userID)
	return err
}
