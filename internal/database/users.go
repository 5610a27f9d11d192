package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lechange/lechange/internal/model"
)

type CreateUserParams struct {
	UserID   uuid.UUID
	Username string
	Email    string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO users (user_id, username, email, role, created_at)
		VALUES ($1, $2, $3, 'user', now())
		RETURNING user_id, username, email, role, banned_at, created_at
	`, arg.UserID, arg.Username, arg.Email)

	return scanUser(row)
}

func (q *Queries) GetUserByID(ctx context.Context, userID uuid.UUID) (model.User, error) {
	row := q.db.QueryRow(ctx, `
		SELECT user_id, username, email, role, banned_at, created_at
		FROM users
		WHERE user_id = $1
	`, userID)

	return scanUser(row)
}

// GetUserWithPasswordByEmail joins the password row for login.
func (q *Queries) GetUserWithPasswordByEmail(ctx context.Context, email string) (model.User, string, error) {
	var (
		u      model.User
		hashed string
	)
	err := q.db.QueryRow(ctx, `
		SELECT u.user_id, u.username, u.email, u.role, u.banned_at, u.created_at,
		       p.hashed_password
		FROM users u
		JOIN passwords p ON p.user_id = u.user_id
		WHERE u.email = $1
	`, email).Scan(&u.UserID, &u.Username, &u.Email, &u.Role, &u.BannedAt, &u.CreatedAt, &hashed)
	if err != nil {
		return model.User{}, "", notFound(err)
	}
	return u, hashed, nil
}

type CreatePasswordParams struct {
	UserID         uuid.UUID
	HashedPassword string
}

func (q *Queries) CreatePassword(ctx context.Context, arg CreatePasswordParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO passwords (user_id, hashed_password, created_at)
		VALUES ($1, $2, now())
	`, arg.UserID, arg.HashedPassword)
	return err
}

// ListUsers is the admin view, newest first.
func (q *Queries) ListUsers(ctx context.Context, limit int) ([]model.User, error) {
	rows, err := q.db.Query(ctx, `
		SELECT user_id, username, email, role, banned_at, created_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1
	`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (q *Queries) SetUserRole(ctx context.Context, userID uuid.UUID, role model.Role) error {
	tag, err := q.db.Exec(ctx, `UPDATE users SET role = $2 WHERE user_id = $1`, userID, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetUserBanned bans (banned=true) or unbans a user.
func (q *Queries) SetUserBanned(ctx context.Context, userID uuid.UUID, banned bool) error {
	var bannedAt *time.Time
	if banned {
		now := time.Now().UTC()
		bannedAt = &now
	}
	tag, err := q.db.Exec(ctx, `UPDATE users SET banned_at = $2 WHERE user_id = $1`, userID, bannedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	err := row.Scan(&u.UserID, &u.Username, &u.Email, &u.Role, &u.BannedAt, &u.CreatedAt)
	if err != nil {
		return model.User{}, fmt.Errorf("scan user: %w", notFound(err))
	}
	return u, nil
}
