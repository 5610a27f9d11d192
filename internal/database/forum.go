package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/lechange/lechange/internal/model"
)

type CreateQuestionParams struct {
	QuestionID uuid.UUID
	AuthorID   uuid.UUID
	Title      string
	Body       string
}

func (q *Queries) CreateQuestion(ctx context.Context, arg CreateQuestionParams) (model.Question, error) {
	var qu model.Question
	err := q.db.QueryRow(ctx, `
		INSERT INTO questions (question_id, author_id, title, body, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING question_id, author_id, title, body, created_at
	`, arg.QuestionID, arg.AuthorID, arg.Title, arg.Body).
		Scan(&qu.QuestionID, &qu.AuthorID, &qu.Title, &qu.Body, &qu.CreatedAt)
	return qu, err
}

func (q *Queries) GetQuestionByID(ctx context.Context, questionID uuid.UUID) (model.Question, error) {
	var qu model.Question
	err := q.db.QueryRow(ctx, `
		SELECT qn.question_id, qn.author_id, qn.title, qn.body, qn.created_at,
		       u.username,
		       (SELECT count(*) FROM answers a WHERE a.question_id = qn.question_id)
		FROM questions qn
		JOIN users u ON u.user_id = qn.author_id
		WHERE qn.question_id = $1
	`, questionID).Scan(&qu.QuestionID, &qu.AuthorID, &qu.Title, &qu.Body,
		&qu.CreatedAt, &qu.AuthorName, &qu.AnswerCount)
	if err != nil {
		return model.Question{}, notFound(err)
	}
	return qu, nil
}

func (q *Queries) ListQuestions(ctx context.Context, limit int) ([]model.Question, error) {
	rows, err := q.db.Query(ctx, `
		SELECT qn.question_id, qn.author_id, qn.title, qn.body, qn.created_at,
		       u.username,
		       (SELECT count(*) FROM answers a WHERE a.question_id = qn.question_id)
		FROM questions qn
		JOIN users u ON u.user_id = qn.author_id
		ORDER BY qn.created_at DESC
		LIMIT $1
	`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Question
	for rows.Next() {
		var qu model.Question
		if err := rows.Scan(&qu.QuestionID, &qu.AuthorID, &qu.Title, &qu.Body,
			&qu.CreatedAt, &qu.AuthorName, &qu.AnswerCount); err != nil {
			return nil, err
		}
		out = append(out, qu)
	}
	return out, rows.Err()
}

type CreateAnswerParams struct {
	AnswerID   uuid.UUID
	QuestionID uuid.UUID
	AuthorID   uuid.UUID
	Body       string
}

func (q *Queries) CreateAnswer(ctx context.Context, arg CreateAnswerParams) (model.Answer, error) {
	var a model.Answer
	err := q.db.QueryRow(ctx, `
		INSERT INTO answers (answer_id, question_id, author_id, body, accepted, created_at)
		VALUES ($1, $2, $3, $4, false, now())
		RETURNING answer_id, question_id, author_id, body, accepted, created_at
	`, arg.AnswerID, arg.QuestionID, arg.AuthorID, arg.Body).
		Scan(&a.AnswerID, &a.QuestionID, &a.AuthorID, &a.Body, &a.Accepted, &a.CreatedAt)
	return a, err
}

func (q *Queries) GetAnswerByID(ctx context.Context, answerID uuid.UUID) (model.Answer, error) {
	var a model.Answer
	err := q.db.QueryRow(ctx, `
		SELECT answer_id, question_id, author_id, body, accepted, created_at
		FROM answers
		WHERE answer_id = $1
	`, answerID).Scan(&a.AnswerID, &a.QuestionID, &a.AuthorID, &a.Body, &a.Accepted, &a.CreatedAt)
	if err != nil {
		return model.Answer{}, notFound(err)
	}
	return a, nil
}

// ListAnswers returns a question's answers with vote tallies and the
// viewer's own vote, ordered accepted first, then score, then recency.
func (q *Queries) ListAnswers(ctx context.Context, questionID, viewerID uuid.UUID) ([]model.Answer, error) {
	rows, err := q.db.Query(ctx, `
		SELECT a.answer_id, a.question_id, a.author_id, a.body, a.accepted, a.created_at,
		       u.username,
		       count(*) FILTER (WHERE v.is_upvote),
		       count(*) FILTER (WHERE NOT v.is_upvote),
		       bool_or(v.is_upvote) FILTER (WHERE v.user_id = $2)
		FROM answers a
		JOIN users u ON u.user_id = a.author_id
		LEFT JOIN answer_votes v ON v.answer_id = a.answer_id
		WHERE a.question_id = $1
		GROUP BY a.answer_id, u.username
		ORDER BY a.accepted DESC,
		         count(*) FILTER (WHERE v.is_upvote) - count(*) FILTER (WHERE NOT v.is_upvote) DESC,
		         a.created_at DESC
	`, questionID, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.AnswerID, &a.QuestionID, &a.AuthorID, &a.Body,
			&a.Accepted, &a.CreatedAt, &a.AuthorName,
			&a.Upvotes, &a.Downvotes, &a.UserVote); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AcceptAnswer marks one answer accepted and clears any previous accept
// on the same question, in one transaction. Only the question author may
// accept; the join enforces it.
func (q *Queries) AcceptAnswer(ctx context.Context, answerID, authorID uuid.UUID) error {
	tx, err := q.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var questionID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT a.question_id
		FROM answers a
		JOIN questions qn ON qn.question_id = a.question_id
		WHERE a.answer_id = $1 AND qn.author_id = $2
	`, answerID, authorID).Scan(&questionID)
	if err != nil {
		return notFound(err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE answers SET accepted = false WHERE question_id = $1 AND accepted
	`, questionID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE answers SET accepted = true WHERE answer_id = $1
	`, answerID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
