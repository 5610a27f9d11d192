package handler

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	viewChat "github.com/lechange/lechange/components/chat"
	"github.com/lechange/lechange/internal/auth"
	"github.com/lechange/lechange/internal/chat"
	"github.com/lechange/lechange/internal/database"
	"github.com/lechange/lechange/internal/model"
)

// ServeConversations lists the user's conversations with unread counts.
func ServeConversations(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			log.Printf("%v", err)
			return
		}

		convs, err := db.ListConversations(ctx, userID)
		if err != nil {
			log.Printf("failed to list conversations: %v", err)
			http.Error(w, "Database error.", http.StatusInternalServerError)
			return
		}

		if err := viewChat.ConversationList(convs).Render(ctx, w); err != nil {
			log.Printf("failed to render component: %v", err)
		}
	}
}

// StartConversation finds or creates a conversation with another user,
// optionally bound to a listing, then redirects into it.
func StartConversation(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			log.Printf("%v", err)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data.", http.StatusBadRequest)
			return
		}

		peerID, err := uuid.Parse(r.PostFormValue("peer"))
		if err != nil || peerID == userID {
			http.Error(w, "Invalid recipient.", http.StatusBadRequest)
			return
		}

		// Optional listing binding.
		var listingID uuid.UUID
		if raw := r.PostFormValue("listing"); raw != "" {
			listingID, err = uuid.Parse(raw)
			if err != nil {
				http.Error(w, "Invalid listing.", http.StatusBadRequest)
				return
			}
			if _, err := db.GetListingByID(ctx, listingID); err != nil {
				http.Error(w, "Listing not found.", http.StatusNotFound)
				return
			}
		}

		conv, err := db.FindOrCreateConversation(ctx, userID, peerID, listingID)
		if err != nil {
			log.Printf("failed to start conversation: %v", err)
			http.Error(w, "Database error.", http.StatusInternalServerError)
			return
		}

		w.Header().Set("HX-Redirect", "/conversations/"+conv.ConversationID.String())
		w.WriteHeader(http.StatusOK)
	}
}

// ServeChatView renders one conversation: history with date separators,
// message form, and the script that opens the event stream.
func ServeChatView(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			log.Printf("%v", err)
			return
		}

		conversationID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
		if err != nil {
			http.Error(w, "Invalid conversation.", http.StatusBadRequest)
			return
		}

		ok, err := db.IsParticipant(ctx, conversationID, userID)
		if err != nil || !ok {
			http.Error(w, "Forbidden.", http.StatusForbidden)
			return
		}

		messages, next, err := db.ListMessages(ctx, conversationID, "", 50)
		if err != nil {
			log.Printf("failed to load messages: %v", err)
			http.Error(w, "Database error.", http.StatusInternalServerError)
			return
		}

		// Opening the view consumes the unread count.
		if err := db.TouchLastRead(ctx, conversationID, userID); err != nil {
			log.Printf("failed to update read watermark: %v", err)
		}

		if err := viewChat.ChatView(conversationID, userID, messages, next).Render(ctx, w); err != nil {
			log.Printf("failed to render component: %v", err)
		}
	}
}

// SendMessage persists a message and hands it to the hub. Delivery to
// other participants happens via the event stream, not this response.
func SendMessage(hub *chat.Hub, db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			log.Printf("%v", err)
			http.Error(w, "Unauthorized.", http.StatusUnauthorized)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data.", http.StatusBadRequest)
			return
		}

		conversationID, err := uuid.Parse(r.PostFormValue("conversationId"))
		if err != nil {
			http.Error(w, "Invalid conversation.", http.StatusBadRequest)
			return
		}

		content := strings.TrimSpace(r.PostFormValue("content"))
		if content == "" {
			http.Error(w, "Message cannot be empty.", http.StatusBadRequest)
			return
		}

		ok, err := db.IsParticipant(ctx, conversationID, userID)
		if err != nil || !ok {
			http.Error(w, "Forbidden.", http.StatusForbidden)
			return
		}

		user, err := db.GetUserByID(ctx, userID)
		if err != nil {
			log.Printf("failed to get user by ID: %v", err)
			http.Error(w, "Database error.", http.StatusInternalServerError)
			return
		}

		msg := model.Message{
			MessageID:      uuid.New(),
			ConversationID: conversationID,
			SenderID:       userID,
			Content:        content,
			ClientToken:    r.PostFormValue("clientToken"),
			CreatedAt:      time.Now().UTC(),
			Sender:         user,
		}
		select {
		case hub.ClientMsg <- msg:
		case <-hub.Done():
			http.Error(w, "Shutting down.", http.StatusServiceUnavailable)
			return
		}

		// Sender's own read watermark follows their send.
		if err := db.TouchLastRead(ctx, conversationID, userID); err != nil {
			log.Printf("failed to update read watermark: %v", err)
		}

		w.WriteHeader(http.StatusAccepted)
	}
}
