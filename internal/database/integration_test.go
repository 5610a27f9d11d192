package database_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lechange/lechange/internal/database"
	"github.com/lechange/lechange/internal/model"
	"github.com/lechange/lechange/internal/testutil"
)

func newUser(t *testing.T, q *database.Queries, name string) model.User {
	t.Helper()
	u, err := q.CreateUser(context.Background(), database.CreateUserParams{
		UserID:   uuid.New(),
		Username: name,
		Email:    name + "@example.com",
	})
	require.NoError(t, err)
	return u
}

func TestCreateMessageIdempotency(t *testing.T) {
	pool, gooseDB, migDir := testutil.DbInit(t)
	defer testutil.DbCleanup(t, pool, gooseDB, migDir)

	q := database.New(pool)
	ctx := context.Background()

	alice := newUser(t, q, "alice")
	bob := newUser(t, q, "bob")

	conv, err := q.FindOrCreateConversation(ctx, alice.UserID, bob.UserID, uuid.UUID{})
	require.NoError(t, err)

	params := database.CreateMessageParams{
		MessageID:      uuid.New(),
		ConversationID: conv.ConversationID,
		SenderID:       alice.UserID,
		Content:        "hello",
		ClientToken:    "token-1",
	}

	first, fresh, err := q.CreateMessage(ctx, params)
	require.NoError(t, err)
	assert.True(t, fresh)

	// Resend with the same client token but a new message ID, as an
	// optimistic client retry would.
	params.MessageID = uuid.New()
	replay, fresh, err := q.CreateMessage(ctx, params)
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Equal(t, first.MessageID, replay.MessageID)

	msgs, _, err := q.ListMessages(ctx, conv.ConversationID, "", 50)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestFindOrCreateConversationReuses(t *testing.T) {
	pool, gooseDB, migDir := testutil.DbInit(t)
	defer testutil.DbCleanup(t, pool, gooseDB, migDir)

	q := database.New(pool)
	ctx := context.Background()

	alice := newUser(t, q, "alice")
	bob := newUser(t, q, "bob")

	first, err := q.FindOrCreateConversation(ctx, alice.UserID, bob.UserID, uuid.UUID{})
	require.NoError(t, err)

	// Same pair, either direction, gets the same thread.
	again, err := q.FindOrCreateConversation(ctx, bob.UserID, alice.UserID, uuid.UUID{})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, again.ConversationID)
}

func TestApplyVoteTransitions(t *testing.T) {
	pool, gooseDB, migDir := testutil.DbInit(t)
	defer testutil.DbCleanup(t, pool, gooseDB, migDir)

	q := database.New(pool)
	ctx := context.Background()

	author := newUser(t, q, "author")
	voter := newUser(t, q, "voter")

	question, err := q.CreateQuestion(ctx, database.CreateQuestionParams{
		QuestionID: uuid.New(),
		AuthorID:   author.UserID,
		Title:      "shipping costs?",
		Body:       "who pays?",
	})
	require.NoError(t, err)

	answer, err := q.CreateAnswer(ctx, database.CreateAnswerParams{
		AnswerID:   uuid.New(),
		QuestionID: question.QuestionID,
		AuthorID:   author.UserID,
		Body:       "usually the buyer",
	})
	require.NoError(t, err)

	// First click casts an upvote.
	tally, err := q.ApplyVote(ctx, answer.AnswerID, voter.UserID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Upvotes)
	assert.Equal(t, 0, tally.Downvotes)
	require.NotNil(t, tally.UserVote)
	assert.True(t, *tally.UserVote)

	// Clicking the other side switches in one step.
	tally, err = q.ApplyVote(ctx, answer.AnswerID, voter.UserID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, tally.Upvotes)
	assert.Equal(t, 1, tally.Downvotes)
	require.NotNil(t, tally.UserVote)
	assert.False(t, *tally.UserVote)

	// Clicking the same side again retracts.
	tally, err = q.ApplyVote(ctx, answer.AnswerID, voter.UserID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, tally.Upvotes)
	assert.Equal(t, 0, tally.Downvotes)
	assert.Nil(t, tally.UserVote)
}

func TestUnreadCountFollowsLastRead(t *testing.T) {
	pool, gooseDB, migDir := testutil.DbInit(t)
	defer testutil.DbCleanup(t, pool, gooseDB, migDir)

	q := database.New(pool)
	ctx := context.Background()

	alice := newUser(t, q, "alice")
	bob := newUser(t, q, "bob")

	conv, err := q.FindOrCreateConversation(ctx, alice.UserID, bob.UserID, uuid.UUID{})
	require.NoError(t, err)

	_, _, err = q.CreateMessage(ctx, database.CreateMessageParams{
		MessageID:      uuid.New(),
		ConversationID: conv.ConversationID,
		SenderID:       alice.UserID,
		Content:        "ping",
		ClientToken:    "t1",
	})
	require.NoError(t, err)

	convs, err := q.ListConversations(ctx, bob.UserID)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, 1, convs[0].UnreadCount)
	assert.Equal(t, "alice", convs[0].PeerName)

	require.NoError(t, q.TouchLastRead(ctx, conv.ConversationID, bob.UserID))

	convs, err = q.ListConversations(ctx, bob.UserID)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, 0, convs[0].UnreadCount)
}
