package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// VoteTally is the server-confirmed vote state of an answer for one user.
type VoteTally struct {
	Upvotes   int
	Downvotes int
	// UserVote is nil for no-vote, otherwise the direction.
	UserVote *bool
}

// ApplyVote runs one vote transition for (answerID, userID) in a single
// transaction: same direction again retracts, opposite direction
// switches, no prior vote inserts. Returns the post-transition tally.
func (q *Queries) ApplyVote(ctx context.Context, answerID, userID uuid.UUID, isUpvote bool) (VoteTally, error) {
	tx, err := q.db.Begin(ctx)
	if err != nil {
		return VoteTally{}, err
	}
	defer tx.Rollback(ctx)

	var current *bool
	err = tx.QueryRow(ctx, `
		SELECT is_upvote FROM answer_votes
		WHERE answer_id = $1 AND user_id = $2
		FOR UPDATE
	`, answerID, userID).Scan(&current)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return VoteTally{}, err
	}

	switch {
	case current == nil:
		_, err = tx.Exec(ctx, `
			INSERT INTO answer_votes (answer_id, user_id, is_upvote, created_at)
			VALUES ($1, $2, $3, now())
		`, answerID, userID, isUpvote)
	case *current == isUpvote:
		// Retraction.
		_, err = tx.Exec(ctx, `
			DELETE FROM answer_votes WHERE answer_id = $1 AND user_id = $2
		`, answerID, userID)
	default:
		// Switch direction.
		_, err = tx.Exec(ctx, `
			UPDATE answer_votes SET is_upvote = $3, created_at = now()
			WHERE answer_id = $1 AND user_id = $2
		`, answerID, userID, isUpvote)
	}
	if err != nil {
		return VoteTally{}, err
	}

	var tally VoteTally
	err = tx.QueryRow(ctx, `
		SELECT count(*) FILTER (WHERE is_upvote),
		       count(*) FILTER (WHERE NOT is_upvote),
		       bool_or(is_upvote) FILTER (WHERE user_id = $2)
		FROM answer_votes
		WHERE answer_id = $1
	`, answerID, userID).Scan(&tally.Upvotes, &tally.Downvotes, &tally.UserVote)
	if err != nil {
		return VoteTally{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return VoteTally{}, err
	}
	return tally, nil
}
