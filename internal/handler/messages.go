package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/lechange/lechange/internal/auth"
	"github.com/lechange/lechange/internal/database"
	"github.com/lechange/lechange/internal/model"
)

// ServeMessages is the initial-load history endpoint: a JSON page of a
// conversation's messages, oldest first, with a cursor for older pages.
func ServeMessages(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			log.Printf("%v", err)
			http.Error(w, "Unauthorized.", http.StatusUnauthorized)
			return
		}

		conversationID, err := uuid.Parse(r.URL.Query().Get("conversation"))
		if err != nil {
			http.Error(w, "Invalid conversation.", http.StatusBadRequest)
			return
		}

		ok, err := db.IsParticipant(ctx, conversationID, userID)
		if err != nil || !ok {
			http.Error(w, "Forbidden.", http.StatusForbidden)
			return
		}

		messages, next, err := db.ListMessages(ctx, conversationID, r.URL.Query().Get("after"), 50)
		if err != nil {
			log.Printf("failed to load messages from database: %v", err)
			http.Error(w, "Database error.", http.StatusInternalServerError)
			return
		}
		if messages == nil {
			messages = []model.Message{}
		}

		w.Header().Set("Content-Type", "application/json")
		err = json.NewEncoder(w).Encode(map[string]any{
			"messages": messages,
			"next":     next,
		})
		if err != nil {
			log.Printf("failed to encode messages: %v", err)
		}
	}
}
