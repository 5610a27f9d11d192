package chat

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/lechange/lechange/internal/model"
)

func TestBubbleComponent(t *testing.T) {
	viewer := uuid.New()
	msg := model.Message{
		MessageID:   uuid.New(),
		SenderID:    viewer,
		Content:     "hello there",
		ClientToken: "tok-1",
		CreatedAt:   time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC),
		Sender:      model.User{UserID: viewer, Username: "ada"},
	}

	var buf bytes.Buffer
	err := Bubble(msg, viewer).Render(context.Background(), &buf)
	assert.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "bubble-own")
	assert.Contains(t, html, `data-id="`+msg.MessageID.String()+`"`)
	assert.Contains(t, html, `data-client-token="tok-1"`)
	assert.Contains(t, html, "hello there")
	assert.Contains(t, html, "ada")
	assert.Contains(t, html, "14:30")
}

func TestBubbleComponentOtherSender(t *testing.T) {
	msg := model.Message{
		MessageID: uuid.New(),
		SenderID:  uuid.New(),
		Content:   "hi",
		CreatedAt: time.Now(),
		Sender:    model.User{Username: "bea"},
	}

	var buf bytes.Buffer
	err := Bubble(msg, uuid.New()).Render(context.Background(), &buf)
	assert.NoError(t, err)

	html := buf.String()
	assert.NotContains(t, html, "bubble-own")
	assert.NotContains(t, html, "data-client-token")
}

func TestChatViewDateSeparators(t *testing.T) {
	conv := uuid.New()
	viewer := uuid.New()
	messages := []model.Message{
		{
			MessageID: uuid.New(),
			SenderID:  viewer,
			Content:   "yesterday's message",
			CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			Sender:    model.User{Username: "ada"},
		},
		{
			MessageID: uuid.New(),
			SenderID:  viewer,
			Content:   "same day",
			CreatedAt: time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC),
			Sender:    model.User{Username: "ada"},
		},
		{
			MessageID: uuid.New(),
			SenderID:  viewer,
			Content:   "next day",
			CreatedAt: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
			Sender:    model.User{Username: "ada"},
		},
	}

	var buf bytes.Buffer
	err := ChatView(conv, viewer, messages, "").Render(context.Background(), &buf)
	assert.NoError(t, err)

	html := buf.String()
	// One separator per distinct day, not per message.
	assert.Equal(t, 2, strings.Count(html, "day-separator"))
	assert.Contains(t, html, `data-conversation="`+conv.String()+`"`)
	assert.Contains(t, html, `name="conversationId"`)
}
