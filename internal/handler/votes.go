package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/lechange/lechange/internal/auth"
	"github.com/lechange/lechange/internal/database"
	"github.com/lechange/lechange/internal/vote"
)

type voteRequest struct {
	AnswerID string `json:"answerId"`
	IsUpvote bool   `json:"isUpvote"`
}

type voteResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
	// UserVote mirrors the DB representation: null, true, or false.
	UserVote *bool `json:"userVote"`
	// State is the same value as a name: "up", "down", or "none".
	State string `json:"state,omitempty"`
}

// SubmitVote applies one vote transition for the caller. The client
// applies the same transition optimistically and rolls back on
// Success=false using the inverse delta.
func SubmitVote(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(voteResponse{Error: "Not signed in."}) //nolint:errcheck
			return
		}

		var req voteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(voteResponse{Error: "Invalid request."}) //nolint:errcheck
			return
		}

		answerID, err := uuid.Parse(req.AnswerID)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(voteResponse{Error: "Invalid answer."}) //nolint:errcheck
			return
		}

		answer, err := db.GetAnswerByID(ctx, answerID)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(voteResponse{Error: "Answer not found."}) //nolint:errcheck
			return
		}

		// The client-side guard is UX only; this is the real boundary.
		if answer.AuthorID == userID {
			json.NewEncoder(w).Encode(voteResponse{Error: "You cannot vote on your own answer."}) //nolint:errcheck
			return
		}

		tally, err := db.ApplyVote(ctx, answerID, userID, req.IsUpvote)
		if err != nil {
			log.Printf("failed to apply vote: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(voteResponse{Error: "Database error."}) //nolint:errcheck
			return
		}

		json.NewEncoder(w).Encode(voteResponse{ //nolint:errcheck
			Success:   true,
			Upvotes:   tally.Upvotes,
			Downvotes: tally.Downvotes,
			UserVote:  tally.UserVote,
			State:     vote.FromUserVote(tally.UserVote).String(),
		})
	}
}
