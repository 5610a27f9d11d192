package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CreateRefreshTokenParams struct {
	Token     string
	UserID    uuid.UUID
	ExpiresAt time.Time
}

func (q *Queries) CreateRefreshToken(ctx context.Context, arg CreateRefreshTokenParams) (string, error) {
	var token string
	err := q.db.QueryRow(ctx, `
		INSERT INTO refresh_tokens (token, user_id, created_at, expires_at)
		VALUES ($1, $2, now(), $3)
		RETURNING token
	`, arg.Token, arg.UserID, arg.ExpiresAt).Scan(&token)
	return token, err
}

// GetUserFromRefreshTok resolves a live (unexpired, unrevoked) token to
// its user.
func (q *Queries) GetUserFromRefreshTok(ctx context.Context, token string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := q.db.QueryRow(ctx, `
		SELECT user_id
		FROM refresh_tokens
		WHERE token = $1
		  AND revoked_at IS NULL
		  AND expires_at > now()
	`, token).Scan(&userID)
	if err != nil {
		return uuid.UUID{}, notFound(err)
	}
	return userID, nil
}

func (q *Queries) DoesRefreshTokenExist(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM refresh_tokens
			WHERE token = $1
			  AND revoked_at IS NULL
			  AND expires_at > now()
		)
	`, token).Scan(&exists)
	return exists, err
}

func (q *Queries) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := q.db.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = now()
		WHERE token = $1 AND revoked_at IS NULL
	`, token)
	return err
}

// DeleteExpiredRefreshTokens is called by the retention sweeper.
func (q *Queries) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM refresh_tokens
		WHERE expires_at < now() OR revoked_at IS NOT NULL
	`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
