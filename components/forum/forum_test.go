package forum

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/lechange/lechange/internal/model"
)

func boolPtr(b bool) *bool { return &b }

func TestVoteButtonsState(t *testing.T) {
	viewer := uuid.New()

	tests := []struct {
		name      string
		userVote  *bool
		wantState string
	}{
		{name: "no vote", userVote: nil, wantState: `data-state="none"`},
		{name: "upvoted", userVote: boolPtr(true), wantState: `data-state="up"`},
		{name: "downvoted", userVote: boolPtr(false), wantState: `data-state="down"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := model.Answer{
				AnswerID:  uuid.New(),
				AuthorID:  uuid.New(),
				Upvotes:   3,
				Downvotes: 1,
				UserVote:  tt.userVote,
			}

			var buf bytes.Buffer
			err := voteButtons(a, viewer).Render(context.Background(), &buf)
			assert.NoError(t, err)

			html := buf.String()
			assert.Contains(t, html, tt.wantState)
			assert.Contains(t, html, `data-answer="`+a.AnswerID.String()+`"`)
			assert.NotContains(t, html, "data-own")
		})
	}
}

func TestVoteButtonsOwnAnswer(t *testing.T) {
	viewer := uuid.New()
	a := model.Answer{AnswerID: uuid.New(), AuthorID: viewer}

	var buf bytes.Buffer
	err := voteButtons(a, viewer).Render(context.Background(), &buf)
	assert.NoError(t, err)

	assert.Contains(t, buf.String(), "data-own")
}

func TestQuestionComponentAcceptButton(t *testing.T) {
	author := uuid.New()
	q := model.Question{
		QuestionID: uuid.New(),
		AuthorID:   author,
		Title:      "How do I price a used bike?",
		Body:       "First time selling.",
		CreatedAt:  time.Now(),
		AuthorName: "ada",
	}
	answers := []model.Answer{{
		AnswerID:   uuid.New(),
		QuestionID: q.QuestionID,
		AuthorID:   uuid.New(),
		Body:       "Check recent sold listings.",
		CreatedAt:  time.Now(),
		AuthorName: "bea",
	}}

	// Question author sees the accept button.
	var buf bytes.Buffer
	err := Question(q, answers, author).Render(context.Background(), &buf)
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "/accept")

	// Other viewers do not.
	buf.Reset()
	err = Question(q, answers, uuid.New()).Render(context.Background(), &buf)
	assert.NoError(t, err)
	assert.NotContains(t, buf.String(), "/accept")
}
