package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	viewForum "github.com/lechange/lechange/components/forum"
	"github.com/lechange/lechange/components/ui"
	"github.com/lechange/lechange/internal/auth"
	"github.com/lechange/lechange/internal/database"
	"github.com/lechange/lechange/internal/notify"
)

// ServeForum lists recent questions.
func ServeForum(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		questions, err := db.ListQuestions(ctx, 50)
		if err != nil {
			log.Printf("failed to list questions: %v", err)
			http.Error(w, "Database error.", http.StatusInternalServerError)
			return
		}

		if err := viewForum.Index(questions).Render(ctx, w); err != nil {
			log.Printf("failed to render component: %v", err)
		}
	}
}

// ServeQuestion renders a question with its answers, vote tallies, and
// the viewer's own vote state.
func ServeQuestion(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		questionID, err := uuid.Parse(chi.URLParam(r, "questionID"))
		if err != nil {
			http.Error(w, "Invalid question.", http.StatusBadRequest)
			return
		}

		question, err := db.GetQuestionByID(ctx, questionID)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		viewerID, _ := auth.GetUserFromContext(ctx)

		answers, err := db.ListAnswers(ctx, questionID, viewerID)
		if err != nil {
			log.Printf("failed to list answers: %v", err)
			http.Error(w, "Database error.", http.StatusInternalServerError)
			return
		}

		if err := viewForum.Question(question, answers, viewerID).Render(ctx, w); err != nil {
			log.Printf("failed to render component: %v", err)
		}
	}
}

// SubmitQuestion posts a new question.
func SubmitQuestion(db *database.Queries) http.HandlerFunc {
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

		title := strings.TrimSpace(contentPolicy.Sanitize(r.PostFormValue("title")))
		body := strings.TrimSpace(contentPolicy.Sanitize(r.PostFormValue("body")))
		if title == "" || body == "" {
			if err := ui.ErrorMsg("Title and body are required.").Render(ctx, w); err != nil {
				log.Printf("failed to render component: %v", err)
			}
			return
		}

		question, err := db.CreateQuestion(ctx, database.CreateQuestionParams{
			QuestionID: uuid.New(),
			AuthorID:   userID,
			Title:      title,
			Body:       body,
		})
		if err != nil {
			log.Printf("failed to create question: %v", err)
			http.Error(w, "Database error.", http.StatusInternalServerError)
			return
		}

		w.Header().Set("HX-Redirect", "/forum/questions/"+question.QuestionID.String())
		w.WriteHeader(http.StatusOK)
	}
}

// SubmitAnswer posts an answer and notifies the question author.
func SubmitAnswer(db *database.Queries, svc *notify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			log.Printf("%v", err)
			return
		}

		questionID, err := uuid.Parse(chi.URLParam(r, "questionID"))
		if err != nil {
			http.Error(w, "Invalid question.", http.StatusBadRequest)
			return
		}

		question, err := db.GetQuestionByID(ctx, questionID)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data.", http.StatusBadRequest)
			return
		}

		body := strings.TrimSpace(contentPolicy.Sanitize(r.PostFormValue("body")))
		if body == "" {
			if err := ui.ErrorMsg("Answer cannot be empty.").Render(ctx, w); err != nil {
				log.Printf("failed to render component: %v", err)
			}
			return
		}

		answer, err := db.CreateAnswer(ctx, database.CreateAnswerParams{
			AnswerID:   uuid.New(),
			QuestionID: questionID,
			AuthorID:   userID,
			Body:       body,
		})
		if err != nil {
			log.Printf("failed to create answer: %v", err)
			http.Error(w, "Database error.", http.StatusInternalServerError)
			return
		}

		svc.AnswerCreated(ctx, question, answer)

		w.Header().Set("HX-Redirect", "/forum/questions/"+questionID.String())
		w.WriteHeader(http.StatusOK)
	}
}

// AcceptAnswer marks an answer accepted; only the question author may,
// and re-accepting a different answer switches.
func AcceptAnswer(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			log.Printf("%v", err)
			return
		}

		answerID, err := uuid.Parse(chi.URLParam(r, "answerID"))
		if err != nil {
			http.Error(w, "Invalid answer.", http.StatusBadRequest)
			return
		}

		if err := db.AcceptAnswer(ctx, answerID, userID); err != nil {
			http.Error(w, "Forbidden.", http.StatusForbidden)
			return
		}

		answer, err := db.GetAnswerByID(ctx, answerID)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("HX-Redirect", "/forum/questions/"+answer.QuestionID.String())
		w.WriteHeader(http.StatusOK)
	}
}
