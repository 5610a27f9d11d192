package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/lechange/lechange/internal/model"
)

type CreateNotificationParams struct {
	NotificationID uuid.UUID
	UserID         uuid.UUID
	Kind           model.NotificationKind
	Payload        []byte
}

func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO notifications (notification_id, user_id, kind, payload, created_at)
		VALUES ($1, $2, $3, $4, now())
	`, arg.NotificationID, arg.UserID, arg.Kind, arg.Payload)
	return err
}

func (q *Queries) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM notifications
		WHERE user_id = $1 AND read_at IS NULL
	`, userID).Scan(&count)
	return count, err
}

func (q *Queries) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	rows, err := q.db.Query(ctx, `
		SELECT notification_id, user_id, kind, payload, read_at, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.NotificationID, &n.UserID, &n.Kind, &n.Payload,
			&n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationsRead marks all of the user's unread notifications read.
func (q *Queries) MarkNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `
		UPDATE notifications SET read_at = now()
		WHERE user_id = $1 AND read_at IS NULL
	`, userID)
	return err
}

// PurgeReadNotifications deletes read notifications older than the given
// number of days. Called by the retention sweeper.
func (q *Queries) PurgeReadNotifications(ctx context.Context, olderThanDays int) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM notifications
		WHERE read_at IS NOT NULL
		  AND created_at < now() - make_interval(days => $1)
	`, olderThanDays)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
